package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"bww-support-bot/chatbot"
	"bww-support-bot/config"
	"bww-support-bot/handlers"
	"bww-support-bot/middleware"
	"bww-support-bot/services"
	"bww-support-bot/webhooks"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

// run wires the server and blocks until it stops. Deferred cleanup runs
// before main exits.
func run() error {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize structured logger
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})
	slog.SetDefault(slog.New(logHandler))

	// Conversation archive (optional)
	var archive services.Archive = services.NopArchive{}
	var customerHandler *handlers.CustomerHandler
	if cfg.MongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := services.InitMongoDB(ctx, cfg.MongoURI)
		if err != nil {
			cancel()
			return err
		}
		defer client.Disconnect(context.Background())

		mongoArchive := services.NewMongoArchive(client.Database(cfg.DatabaseName))
		if err := mongoArchive.EnsureIndexes(ctx); err != nil {
			slog.Error("Failed to create indexes", "error", err)
			// Continue anyway - the archive still works without indexes
		}
		cancel()
		archive = mongoArchive
		customerHandler = handlers.NewCustomerHandler(mongoArchive)
	}

	// Chat engine and services
	engine := chatbot.NewDefaultEngine(cfg.HistorySize)
	wsManager := services.NewWebSocketManager()
	defer wsManager.Close()

	messenger := services.NewMessengerClient(
		cfg.GraphAPIURL,
		cfg.PageAccessToken,
		services.NewRateLimiter(cfg.MessengerRPM),
		nil,
	)

	chatHandler := handlers.NewChatHandler(engine, archive, wsManager)
	messageHandler := handlers.NewMessageHandler(engine, archive, wsManager, messenger)
	wsHandler := handlers.NewWebSocketHandler(wsManager, engine)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      handlers.ServiceName,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(middleware.RequestID())

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, X-API-Key, X-Request-ID",
		MaxAge:       86400, // 24 hours
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} ${locals:request_id}\n",
	}))

	// Register webhook routes
	webhooks.RegisterRoutes(app, cfg, messageHandler)

	// Health check
	app.Get("/", handlers.Health)
	app.Get("/health", handlers.Health)

	// Public API endpoints
	api := app.Group("/api")
	api.Post("/chat", chatHandler.Chat)
	api.Post("/nlp/analyze", chatHandler.Analyze)

	// Admin endpoints (API key)
	requireKey := middleware.RequireAPIKey(cfg.AdminAPIKeyHash)
	api.Get("/chat/history/:userID", requireKey, chatHandler.GetHistory)
	api.Delete("/chat/history/:userID", requireKey, chatHandler.ClearHistory)

	dashboard := api.Group("/dashboard", requireKey)
	dashboard.Get("/ws", wsHandler.Upgrade, websocket.New(wsHandler.Handle))
	if customerHandler != nil {
		dashboard.Get("/customers/:customerID", customerHandler.GetCustomerDetails)
		dashboard.Get("/customers/:customerID/messages", customerHandler.GetCustomerMessages)
	}

	app.Use(handlers.NotFound)

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		slog.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Server starting",
		"port", cfg.Port,
		"archive", cfg.MongoURI != "",
		"messenger", messenger.Enabled())
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}
