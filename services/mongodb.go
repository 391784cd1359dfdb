package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bww-support-bot/models"
)

const (
	messagesCollection  = "messages"
	customersCollection = "customers"
)

// Exchange is one user message together with the bot reply
type Exchange struct {
	UserID      string    `json:"user_id"`
	RecipientID string    `json:"recipient_id,omitempty"`
	Channel     string    `json:"channel"`
	Message     string    `json:"message"`
	Normalized  string    `json:"normalized"`
	Response    string    `json:"response"`
	Intent      string    `json:"intent,omitempty"`
	Language    string    `json:"language"`
	Timestamp   time.Time `json:"timestamp"`
}

// Archive stores exchanges for later analysis
type Archive interface {
	SaveExchange(ctx context.Context, ex Exchange) error
}

// NopArchive discards exchanges. Used when MongoDB is not configured.
type NopArchive struct{}

func (NopArchive) SaveExchange(context.Context, Exchange) error { return nil }

// InitMongoDB initializes MongoDB connection
func InitMongoDB(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	slog.Info("Connected to MongoDB")
	return client, nil
}

// MongoArchive writes exchanges to the messages collection and keeps the
// customers collection up to date
type MongoArchive struct {
	db *mongo.Database
}

// NewMongoArchive creates an archive backed by db
func NewMongoArchive(db *mongo.Database) *MongoArchive {
	return &MongoArchive{db: db}
}

// EnsureIndexes creates the indexes used by dashboard queries
func (a *MongoArchive) EnsureIndexes(ctx context.Context) error {
	_, err := a.db.Collection(messagesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"chat_id": 1}},
		{Keys: bson.M{"intent": 1}},
		{Keys: bson.M{"timestamp": -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}

	_, err = a.db.Collection(customersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"customer_id": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.M{"last_seen": -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create customer indexes: %w", err)
	}

	return nil
}

// SaveExchange stores both messages of the exchange and upserts the customer
func (a *MongoArchive) SaveExchange(ctx context.Context, ex Exchange) error {
	ts := ex.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	userMessage := models.Message{
		Type:        "chat",
		ChatID:      ex.UserID,
		SenderID:    ex.UserID,
		RecipientID: ex.RecipientID,
		Channel:     ex.Channel,
		Message:     ex.Message,
		Normalized:  ex.Normalized,
		Intent:      ex.Intent,
		Language:    ex.Language,
		IsBot:       false,
		Timestamp:   ts,
	}
	botMessage := models.Message{
		Type:        "chat",
		ChatID:      ex.UserID,
		SenderID:    ex.RecipientID,
		RecipientID: ex.UserID,
		Channel:     ex.Channel,
		Message:     ex.Response,
		Intent:      ex.Intent,
		Language:    ex.Language,
		IsBot:       true,
		Timestamp:   ts,
	}

	if _, err := a.db.Collection(messagesCollection).InsertMany(ctx, []interface{}{userMessage, botMessage}); err != nil {
		return fmt.Errorf("failed to save messages: %w", err)
	}

	if err := a.upsertCustomer(ctx, ex, ts); err != nil {
		return err
	}

	return nil
}

// upsertCustomer records the latest activity of the customer
func (a *MongoArchive) upsertCustomer(ctx context.Context, ex Exchange, now time.Time) error {
	filter := bson.M{"customer_id": ex.UserID}
	update := bson.M{
		"$set": bson.M{
			"channel":      ex.Channel,
			"last_message": ex.Message,
			"last_intent":  ex.Intent,
			"last_seen":    now,
			"updated_at":   now,
		},
		"$inc": bson.M{
			"message_count": 1,
		},
		"$setOnInsert": bson.M{
			"customer_id": ex.UserID,
			"first_seen":  now,
			"created_at":  now,
		},
	}

	opts := options.Update().SetUpsert(true)
	result, err := a.db.Collection(customersCollection).UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert customer: %w", err)
	}

	if result.UpsertedCount > 0 {
		slog.Info("New customer created", "customerID", ex.UserID, "channel", ex.Channel)
	} else {
		slog.Debug("Customer updated", "customerID", ex.UserID)
	}

	return nil
}

// GetCustomer retrieves a customer by ID, nil when unknown
func (a *MongoArchive) GetCustomer(ctx context.Context, customerID string) (*models.Customer, error) {
	var customer models.Customer
	err := a.db.Collection(customersCollection).FindOne(ctx, bson.M{"customer_id": customerID}).Decode(&customer)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}

// GetMessages returns the latest archived messages of a chat, newest first
func (a *MongoArchive) GetMessages(ctx context.Context, chatID string, limit int64) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.M{"timestamp": -1}).SetLimit(limit)
	cursor, err := a.db.Collection(messagesCollection).Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}
