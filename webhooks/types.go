package webhooks

import "bww-support-bot/handlers"

// WebhookEvent represents the main webhook payload from Facebook
type WebhookEvent struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry represents a page entry in the webhook
type Entry struct {
	ID        string               `json:"id"`
	Time      int64                `json:"time"`
	Messaging []handlers.Messaging `json:"messaging,omitempty"`
}
