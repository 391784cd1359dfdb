package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Channels a conversation can arrive through
const (
	ChannelAPI       = "api"
	ChannelMessenger = "messenger"
)

// Message represents an archived chat message
type Message struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type        string             `bson:"type" json:"type"`       // "chat"
	ChatID      string             `bson:"chat_id" json:"chat_id"` // Always the customer's user ID
	SenderID    string             `bson:"sender_id" json:"sender_id"`
	RecipientID string             `bson:"recipient_id,omitempty" json:"recipient_id,omitempty"`
	Channel     string             `bson:"channel" json:"channel"`
	Message     string             `bson:"message" json:"message"`
	Normalized  string             `bson:"normalized,omitempty" json:"normalized,omitempty"` // Dialect-normalized text, user messages only
	Intent      string             `bson:"intent,omitempty" json:"intent,omitempty"`
	Language    string             `bson:"language" json:"language"`
	IsBot       bool               `bson:"is_bot" json:"is_bot"` // true if message is from bot
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
}
