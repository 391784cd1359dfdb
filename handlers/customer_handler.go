package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"bww-support-bot/models"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
)

// CustomerStore reads archived customers and their messages
type CustomerStore interface {
	GetCustomer(ctx context.Context, customerID string) (*models.Customer, error)
	GetMessages(ctx context.Context, chatID string, limit int64) ([]models.Message, error)
}

// CustomerHandler serves archived customer data to the dashboard
type CustomerHandler struct {
	store CustomerStore
}

func NewCustomerHandler(store CustomerStore) *CustomerHandler {
	return &CustomerHandler{store: store}
}

// GetCustomerDetails handles GET /api/dashboard/customers/:customerID
func (h *CustomerHandler) GetCustomerDetails(c *fiber.Ctx) error {
	customerID := c.Params("customerID")
	if customerID == "" {
		return badRequest(c, "Customer ID is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	customer, err := h.store.GetCustomer(ctx, customerID)
	if err != nil {
		slog.Error("Failed to get customer", "customerID", customerID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to retrieve customer",
		})
	}

	if customer == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Customer not found",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"customer": customer,
	})
}

// GetCustomerMessages handles GET /api/dashboard/customers/:customerID/messages
func (h *CustomerHandler) GetCustomerMessages(c *fiber.Ctx) error {
	customerID := c.Params("customerID")
	if customerID == "" {
		return badRequest(c, "Customer ID is required")
	}

	limit := c.QueryInt("limit", defaultMessageLimit)
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	messages, err := h.store.GetMessages(ctx, customerID, int64(limit))
	if err != nil {
		slog.Error("Failed to get messages", "customerID", customerID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to retrieve messages",
		})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"customer_id": customerID,
		"messages":    messages,
		"count":       len(messages),
	})
}
