package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bww-support-bot/chatbot"
	"bww-support-bot/models"
	"bww-support-bot/services"
)

// Messaging represents a messaging event (kept here so webhooks can import it
// without a cycle)
type Messaging struct {
	Sender    User     `json:"sender"`
	Recipient User     `json:"recipient"`
	Timestamp int64    `json:"timestamp"`
	Message   *Message `json:"message,omitempty"`
}

// User represents a Messenger participant
type User struct {
	ID string `json:"id"`
}

// Message represents a message
type Message struct {
	MID         string       `json:"mid"`
	Text        string       `json:"text"`
	IsEcho      bool         `json:"is_echo,omitempty"`
	QuickReply  *QuickReply  `json:"quick_reply,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// QuickReply represents a quick reply
type QuickReply struct {
	Payload string `json:"payload"`
}

// Attachment represents a message attachment
type Attachment struct {
	Type    string  `json:"type"`
	Payload Payload `json:"payload"`
}

// Payload represents attachment payload
type Payload struct {
	URL string `json:"url"`
}

// ReplySender delivers a bot reply to a Messenger user
type ReplySender interface {
	SendText(ctx context.Context, recipientID, text string) error
}

// MessageHandler answers inbound Messenger messages
type MessageHandler struct {
	engine      *chatbot.Engine
	archive     services.Archive
	broadcaster Broadcaster
	sender      ReplySender
}

// NewMessageHandler creates a handler. A nil archive discards exchanges.
func NewMessageHandler(engine *chatbot.Engine, archive services.Archive, broadcaster Broadcaster, sender ReplySender) *MessageHandler {
	if archive == nil {
		archive = services.NopArchive{}
	}
	return &MessageHandler{
		engine:      engine,
		archive:     archive,
		broadcaster: broadcaster,
		sender:      sender,
	}
}

// HandleMessage processes one messaging event. Echoes of the page's own
// messages and events without text are skipped.
func (h *MessageHandler) HandleMessage(ctx context.Context, messaging Messaging) error {
	if messaging.Message == nil || messaging.Message.IsEcho {
		return nil
	}

	senderID := messaging.Sender.ID
	messageText := messaging.Message.Text
	if strings.TrimSpace(messageText) == "" && messaging.Message.QuickReply != nil {
		messageText = messaging.Message.QuickReply.Payload
	}
	if strings.TrimSpace(messageText) == "" || senderID == "" {
		slog.Debug("Skipping message without text",
			"senderID", senderID,
			"attachments", len(messaging.Message.Attachments))
		return nil
	}

	slog.Info("Handling message",
		"senderID", senderID,
		"recipientID", messaging.Recipient.ID,
		"mid", messaging.Message.MID)

	reply := h.engine.Process(chatbot.Request{
		UserID:  senderID,
		Message: messageText,
	})

	ts := time.Now()
	if messaging.Timestamp > 0 {
		ts = time.UnixMilli(messaging.Timestamp)
	}

	publishExchange(h.archive, h.broadcaster, services.Exchange{
		UserID:      senderID,
		RecipientID: messaging.Recipient.ID,
		Channel:     models.ChannelMessenger,
		Message:     messageText,
		Normalized:  reply.Normalized,
		Response:    reply.Response,
		Intent:      reply.Intent.String(),
		Language:    reply.Language,
		Timestamp:   ts,
	})

	if h.sender == nil {
		return services.ErrMessengerDisabled
	}
	if err := h.sender.SendText(ctx, senderID, reply.Response); err != nil {
		if errors.Is(err, services.ErrMessengerDisabled) {
			slog.Warn("Reply not sent, Messenger disabled", "senderID", senderID)
		} else {
			slog.Error("Failed to send reply", "senderID", senderID, "error", err)
		}
		return err
	}

	slog.Info("Reply sent",
		"senderID", senderID,
		"intent", reply.Intent.String())
	return nil
}
