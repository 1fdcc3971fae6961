package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"parley/internal/config"
	chatrepo "parley/internal/domain/repositories/chat"
	"parley/internal/handler"
	"parley/internal/middleware"
	memorychat "parley/internal/repository/memory/chat"
	"parley/internal/repository/postgres"
	pgchat "parley/internal/repository/postgres/chat"
	chatservice "parley/internal/service/chat"
	"parley/internal/service/responder/canned"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"store", cfg.Store,
	)

	ctx := context.Background()

	// Select the persistence backend
	var (
		conversationStore chatrepo.ConversationStore
		messageStore      chatrepo.MessageStore
	)
	switch cfg.Store {
	case config.StoreMemory:
		conversationStore = memorychat.NewConversationStore()
		messageStore = memorychat.NewMessageStore()
		logger.Warn("using in-memory store: conversations will not survive a restart")
	default:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}

		logger.Info("database connected", "table_prefix", cfg.TablePrefix)

		storeConfig := &postgres.StoreConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		}
		conversationStore = pgchat.NewConversationStore(storeConfig)
		messageStore = pgchat.NewMessageStore(storeConfig)
	}

	// Wire services
	conversationService := chatservice.NewConversationService(conversationStore, messageStore, logger)

	responder, err := canned.NewResponder()
	if err != nil {
		log.Fatalf("Failed to load responder: %v", err)
	}

	chatHandler := handler.NewChatHandler(conversationService, responder, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", chatHandler.HealthCheck)
	mux.HandleFunc("POST /chat", chatHandler.Chat)
	mux.HandleFunc("GET /conversations", chatHandler.ListConversations)
	mux.HandleFunc("GET /conversations/{id}", chatHandler.GetHistory)

	// Build middleware chain (applied in reverse order - they wrap each other)
	var h http.Handler = mux
	h = middleware.Recovery(logger)(h)

	// CORS - must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
