package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the conversation and message tables if they do not
// exist yet. Idempotent; run once at startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
				role       text NOT NULL,
				content    text NOT NULL,
				image      text,
				created_at timestamptz NOT NULL DEFAULT now()
			)
		`, tables.Messages),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				conversation_id text PRIMARY KEY,
				message_ids     uuid[] NOT NULL DEFAULT '{}',
				last_activity   timestamptz NOT NULL DEFAULT now(),
				metadata        jsonb,
				created_at      timestamptz NOT NULL DEFAULT now(),
				updated_at      timestamptz NOT NULL DEFAULT now()
			)
		`, tables.Conversations),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_last_activity_idx
			ON %s (last_activity DESC, conversation_id DESC)
		`, tables.Conversations, tables.Conversations),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}
