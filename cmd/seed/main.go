package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"parley/internal/config"
	"parley/internal/domain/repositories"
	chatSvc "parley/internal/domain/services/chat"
	"parley/internal/repository/postgres"
	pgchat "parley/internal/repository/postgres/chat"
	chatservice "parley/internal/service/chat"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop conversation tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed sample conversations")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Printf("Dropping tables (prefix: %s)...", cfg.TablePrefix)
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	log.Println("Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	storeConfig := &postgres.StoreConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	svc := chatservice.NewConversationService(
		pgchat.NewConversationStore(storeConfig),
		pgchat.NewMessageStore(storeConfig),
		logger,
	)
	txManager := postgres.NewTransactionManager(pool)

	if err := seedSampleConversations(ctx, svc, txManager); err != nil {
		log.Fatalf("Failed to seed conversations: %v", err)
	}

	log.Println("Seeding complete")
}

func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	dropSQL := fmt.Sprintf(`
		DROP TABLE IF EXISTS %s CASCADE;
		DROP TABLE IF EXISTS %s CASCADE;
	`, tables.Conversations, tables.Messages)

	if _, err := pool.Exec(ctx, dropSQL); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}

	return nil
}

// seedSampleConversations creates a few conversations with short exchanges so
// a fresh environment has data to list and resume. Each exchange runs in one
// transaction, so a failed seed leaves no half-written conversation behind.
func seedSampleConversations(ctx context.Context, svc chatSvc.ConversationService, txManager repositories.TransactionManager) error {
	exchanges := [][]chatSvc.AppendMessageRequest{
		{
			{Role: "user", Content: "Ahoy! Anyone aboard?"},
			{Role: "assistant", Content: "Yarr! That be a fine message ye sent!"},
		},
		{
			{Role: "user", Content: "What's the weather like on the high seas?"},
			{Role: "assistant", Content: "Shiver me timbers, what an interesting thought!"},
			{Role: "user", Content: "I'll take that as stormy."},
			{Role: "assistant", Content: "Aye, ye speak true, matey!"},
		},
		{
			{Role: "user", Content: "Tell me about yer treasure."},
			{Role: "assistant", Content: "Arr, now that's what I call a proper message!"},
		},
	}

	for _, exchange := range exchanges {
		err := txManager.ExecTx(ctx, func(txCtx context.Context) error {
			conv, err := svc.CreateConversation(txCtx)
			if err != nil {
				return err
			}
			for i := range exchange {
				if _, err := svc.AppendMessage(txCtx, conv.ConversationID, &exchange[i]); err != nil {
					return err
				}
			}
			log.Printf("Seeded conversation %s with %d messages", conv.ConversationID, len(exchange))
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
