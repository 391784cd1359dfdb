package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	// Server configuration
	Port        string `validate:"required,numeric"`
	LogLevel    string `validate:"oneof=debug info warn error"`
	CORSOrigins string

	// MongoDB configuration (archive is disabled when MongoURI is empty)
	MongoURI     string `validate:"omitempty,uri"`
	DatabaseName string `validate:"required_with=MongoURI"`

	// Webhook configuration
	VerifyToken     string `validate:"required"`
	PageAccessToken string
	GraphAPIURL     string `validate:"required,url"`
	MessengerRPM    int    `validate:"gte=0"`

	// Admin API key, stored as a bcrypt hash
	AdminAPIKeyHash string

	// Conversation settings
	HistorySize int `validate:"gte=1,lte=1000"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:5173, http://localhost:3000"),
		MongoURI:        getEnv("MONGO_URI", ""),
		DatabaseName:    getEnv("MONGO_DB_NAME", "bww_support"),
		VerifyToken:     getEnv("WEBHOOK_VERIFY_TOKEN", "webhook_verify_token"),
		PageAccessToken: getEnv("PAGE_ACCESS_TOKEN", ""),
		GraphAPIURL:     getEnv("GRAPH_API_URL", "https://graph.facebook.com/v18.0"),
		MessengerRPM:    getEnvInt("MESSENGER_RPM", 600),
		AdminAPIKeyHash: getEnv("ADMIN_API_KEY_HASH", ""),
		HistorySize:     getEnvInt("HISTORY_SIZE", 10),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.MongoURI == "" {
		slog.Warn("MONGO_URI not set, conversation archive disabled")
	}
	if cfg.PageAccessToken == "" {
		slog.Warn("PAGE_ACCESS_TOKEN not set, Messenger replies disabled")
	}
	if cfg.AdminAPIKeyHash == "" {
		slog.Warn("ADMIN_API_KEY_HASH not set, admin endpoints disabled")
	}

	return cfg, nil
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return n
}
