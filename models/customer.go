package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Customer represents a user who has chatted with the support bot
type Customer struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID   string             `bson:"customer_id" json:"customer_id"`
	Channel      string             `bson:"channel" json:"channel"`                               // Channel of the latest message
	MessageCount int                `bson:"message_count" json:"message_count"`                   // Total messages sent
	LastMessage  string             `bson:"last_message,omitempty" json:"last_message,omitempty"` // Last message text
	LastIntent   string             `bson:"last_intent,omitempty" json:"last_intent,omitempty"`   // Intent detected in the last message
	LastSeen     time.Time          `bson:"last_seen" json:"last_seen"`
	FirstSeen    time.Time          `bson:"first_seen" json:"first_seen"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
