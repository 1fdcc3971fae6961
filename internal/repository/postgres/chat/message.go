package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"parley/internal/domain"
	chatModels "parley/internal/domain/models/chat"
	chatRepo "parley/internal/domain/repositories/chat"
	"parley/internal/repository/postgres"
)

// PostgresMessageStore implements the MessageStore interface using PostgreSQL
type PostgresMessageStore struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewMessageStore creates a new PostgresMessageStore
func NewMessageStore(config *postgres.StoreConfig) chatRepo.MessageStore {
	return &PostgresMessageStore{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// SaveMessage persists a new message, assigning id and creation timestamp
func (s *PostgresMessageStore) SaveMessage(ctx context.Context, msg *chatModels.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (role, content, image, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, s.tables.Messages)

	executor := postgres.GetExecutor(ctx, s.pool)
	err := executor.QueryRow(ctx, query,
		msg.Role,
		msg.Content,
		msg.Image,
		msg.CreatedAt,
	).Scan(&msg.ID, &msg.CreatedAt)

	if err != nil {
		return &domain.PersistenceError{Message: fmt.Sprintf("save message: %v", err)}
	}

	return nil
}

// GetMessages retrieves messages by id, preserving the order of ids
func (s *PostgresMessageStore) GetMessages(ctx context.Context, ids []string) ([]chatModels.Message, error) {
	if len(ids) == 0 {
		return []chatModels.Message{}, nil
	}

	query := fmt.Sprintf(`
		SELECT id, role, content, image, created_at
		FROM %s
		WHERE id = ANY($1)
	`, s.tables.Messages)

	executor := postgres.GetExecutor(ctx, s.pool)
	rows, err := executor.Query(ctx, query, ids)
	if err != nil {
		return nil, &domain.PersistenceError{Message: fmt.Sprintf("get messages: %v", err)}
	}
	defer rows.Close()

	byID := make(map[string]chatModels.Message, len(ids))
	for rows.Next() {
		var msg chatModels.Message
		err := rows.Scan(
			&msg.ID,
			&msg.Role,
			&msg.Content,
			&msg.Image,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, &domain.PersistenceError{Message: fmt.Sprintf("scan message: %v", err)}
		}
		byID[msg.ID] = msg
	}

	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Message: fmt.Sprintf("iterate messages: %v", err)}
	}

	// Reassemble in reference order; the conversation's list is authoritative.
	messages := make([]chatModels.Message, 0, len(ids))
	for _, id := range ids {
		if msg, ok := byID[id]; ok {
			messages = append(messages, msg)
		}
	}

	return messages, nil
}

// CountMessages returns the total number of stored messages
func (s *PostgresMessageStore) CountMessages(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.tables.Messages)

	var count int
	executor := postgres.GetExecutor(ctx, s.pool)
	if err := executor.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, &domain.PersistenceError{Message: fmt.Sprintf("count messages: %v", err)}
	}

	return count, nil
}
