package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"bww-support-bot/chatbot"
	"bww-support-bot/models"
	"bww-support-bot/nlp"
	"bww-support-bot/services"
)

const (
	ServiceName    = "BWW Store Support Bot"
	ServiceVersion = "1.0.0"
)

var serviceFeatures = []string{
	"Egyptian Arabic NLP",
	"Intent detection",
	"Conversation history",
	"Messenger integration",
	"Live dashboard feed",
}

// Broadcaster pushes exchanges to live dashboards
type Broadcaster interface {
	BroadcastExchange(ex services.Exchange)
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Message  string `json:"message" validate:"max=4096"`
	UserID   string `json:"user_id" validate:"required,max=128"`
	Language string `json:"language" validate:"omitempty,max=16"`
	Intent   string `json:"intent" validate:"omitempty,max=32"`
}

// AnalyzeRequest is the body of POST /api/nlp/analyze
type AnalyzeRequest struct {
	Text string `json:"text" validate:"required,max=4096"`
}

// ChatHandler serves the chat API
type ChatHandler struct {
	engine      *chatbot.Engine
	archive     services.Archive
	broadcaster Broadcaster
	validate    *validator.Validate
}

// NewChatHandler creates a chat handler. A nil archive discards exchanges and
// a nil broadcaster disables the live feed.
func NewChatHandler(engine *chatbot.Engine, archive services.Archive, broadcaster Broadcaster) *ChatHandler {
	if archive == nil {
		archive = services.NopArchive{}
	}
	return &ChatHandler{
		engine:      engine,
		archive:     archive,
		broadcaster: broadcaster,
		validate:    newValidator(),
	}
}

// newValidator reports field errors by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, validationMessage(err))
	}

	var override nlp.Intent
	if req.Intent != "" {
		intent, ok := nlp.ParseIntent(req.Intent)
		if !ok {
			return badRequest(c, fmt.Sprintf("unknown intent %q", req.Intent))
		}
		override = intent
	}

	reply := h.engine.Process(chatbot.Request{
		UserID:   req.UserID,
		Message:  req.Message,
		Language: req.Language,
		Intent:   override,
	})

	slog.Info("Chat message processed",
		"userID", req.UserID,
		"intent", reply.Intent.String(),
		"language", reply.Language)

	h.publish(services.Exchange{
		UserID:     req.UserID,
		Channel:    models.ChannelAPI,
		Message:    req.Message,
		Normalized: reply.Normalized,
		Response:   reply.Response,
		Intent:     reply.Intent.String(),
		Language:   reply.Language,
		Timestamp:  time.Now(),
	})

	resp := fiber.Map{
		"success":  true,
		"response": reply.Response,
		"language": reply.Language,
		"params":   reply.Params,
	}
	if reply.HasIntent {
		resp["intent"] = reply.Intent
	}
	return c.JSON(resp)
}

// GetHistory handles GET /api/chat/history/:userID
func (h *ChatHandler) GetHistory(c *fiber.Ctx) error {
	userID := c.Params("userID")
	if userID == "" {
		return badRequest(c, "user_id is required")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user_id": userID,
		"history": h.engine.History(userID),
	})
}

// ClearHistory handles DELETE /api/chat/history/:userID
func (h *ChatHandler) ClearHistory(c *fiber.Ctx) error {
	userID := c.Params("userID")
	if userID == "" {
		return badRequest(c, "user_id is required")
	}

	h.engine.ClearHistory(userID)
	slog.Info("Conversation history cleared", "userID", userID)

	return c.JSON(fiber.Map{
		"success": true,
		"user_id": userID,
	})
}

// Analyze handles POST /api/nlp/analyze
func (h *ChatHandler) Analyze(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, validationMessage(err))
	}

	reply := h.engine.Analyze(req.Text)

	resp := fiber.Map{
		"success":    true,
		"text":       req.Text,
		"normalized": reply.Normalized,
		"params":     reply.Params,
		"entities":   reply.Entities,
	}
	if reply.HasIntent {
		resp["intent"] = reply.Intent
	}
	return c.JSON(resp)
}

// Health handles GET / and GET /health
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "healthy",
		"service":  ServiceName,
		"version":  ServiceVersion,
		"features": serviceFeatures,
	})
}

// publish archives and broadcasts an exchange. Failures are logged only.
func (h *ChatHandler) publish(ex services.Exchange) {
	publishExchange(h.archive, h.broadcaster, ex)
}

func publishExchange(archive services.Archive, broadcaster Broadcaster, ex services.Exchange) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := archive.SaveExchange(ctx, ex); err != nil {
		slog.Error("Failed to archive exchange",
			"userID", ex.UserID,
			"channel", ex.Channel,
			"error", err)
	}

	if broadcaster != nil {
		broadcaster.BroadcastExchange(ex)
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// validationMessage turns validator errors into a short client message
func validationMessage(err error) string {
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrors) == 0 {
		return "Invalid request"
	}

	parts := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(parts, "; ")
}
