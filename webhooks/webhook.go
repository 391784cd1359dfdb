package webhooks

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"bww-support-bot/config"
	"bww-support-bot/handlers"
)

const messageTimeout = 30 * time.Second

// MessageProcessor handles one messaging event
type MessageProcessor interface {
	HandleMessage(ctx context.Context, messaging handlers.Messaging) error
}

func RegisterRoutes(app *fiber.App, cfg *config.Config, processor MessageProcessor) {
	webhook := app.Group("/webhook")

	// Webhook verification endpoint
	webhook.Get("/", verifyWebhook(cfg.VerifyToken))

	// Webhook event handler
	webhook.Post("/", handleWebhookEvent(processor))
}

// verifyWebhook handles Facebook webhook verification
func verifyWebhook(verifyToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mode := c.Query("hub.mode")
		token := c.Query("hub.verify_token")
		challenge := c.Query("hub.challenge")

		if mode == "subscribe" && token == verifyToken {
			slog.Info("Webhook verified successfully")
			return c.SendString(challenge)
		}

		slog.Warn("Webhook verification failed", "mode", mode)
		return c.SendStatus(fiber.StatusForbidden)
	}
}

// handleWebhookEvent acknowledges the event and processes it in the background
func handleWebhookEvent(processor MessageProcessor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body WebhookEvent
		if err := c.BodyParser(&body); err != nil {
			slog.Error("Failed to parse webhook body", "error", err)
			return c.SendStatus(fiber.StatusBadRequest)
		}

		// Only process page events
		if body.Object != "page" {
			return c.SendStatus(fiber.StatusNotFound)
		}

		go processWebhookEvent(processor, body)

		return c.SendString("EVENT_RECEIVED")
	}
}

// processWebhookEvent handles every messaging event of the batch in order
func processWebhookEvent(processor MessageProcessor, body WebhookEvent) {
	for _, entry := range body.Entry {
		slog.Debug("Processing webhook for page",
			"pageID", entry.ID,
			"events", len(entry.Messaging))

		for _, messaging := range entry.Messaging {
			if messaging.Message == nil {
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
			if err := processor.HandleMessage(ctx, messaging); err != nil {
				slog.Warn("Messaging event not fully handled",
					"pageID", entry.ID,
					"senderID", messaging.Sender.ID,
					"error", err)
			}
			cancel()
		}
	}
}
