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

// PostgresConversationStore implements the ConversationStore interface using PostgreSQL
type PostgresConversationStore struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewConversationStore creates a new PostgresConversationStore
func NewConversationStore(config *postgres.StoreConfig) chatRepo.ConversationStore {
	return &PostgresConversationStore{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateConversation persists a new conversation
func (s *PostgresConversationStore) CreateConversation(ctx context.Context, conv *chatModels.Conversation) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (conversation_id, message_ids, last_activity, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, s.tables.Conversations)

	if conv.MessageIDs == nil {
		conv.MessageIDs = []string{}
	}

	executor := postgres.GetExecutor(ctx, s.pool)
	err := executor.QueryRow(ctx, query,
		conv.ConversationID,
		conv.MessageIDs,
		conv.LastActivity,
		conv.Metadata,
		conv.CreatedAt,
		conv.UpdatedAt,
	).Scan(&conv.CreatedAt, &conv.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			// Id collisions are effectively impossible in a 128-bit random
			// space; surface one as a store failure rather than a conflict.
			return &domain.PersistenceError{Message: fmt.Sprintf("conversation id %s already exists", conv.ConversationID)}
		}
		return &domain.PersistenceError{Message: fmt.Sprintf("create conversation: %v", err)}
	}

	return nil
}

// FindByID retrieves a conversation by its external id
func (s *PostgresConversationStore) FindByID(ctx context.Context, conversationID string) (*chatModels.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT conversation_id, message_ids, last_activity, metadata, created_at, updated_at
		FROM %s
		WHERE conversation_id = $1
	`, s.tables.Conversations)

	var conv chatModels.Conversation
	executor := postgres.GetExecutor(ctx, s.pool)
	err := executor.QueryRow(ctx, query, conversationID).Scan(
		&conv.ConversationID,
		&conv.MessageIDs,
		&conv.LastActivity,
		&conv.Metadata,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("conversation %s not found", conversationID)}
		}
		return nil, &domain.PersistenceError{Message: fmt.Sprintf("find conversation: %v", err)}
	}

	return &conv, nil
}

// AppendMessageRef atomically appends a message reference and advances
// last_activity. A single conditional UPDATE, so two racing appends to the
// same conversation both land (in commit order) instead of one overwriting
// the other.
func (s *PostgresConversationStore) AppendMessageRef(ctx context.Context, conversationID, messageID string, appendedAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET message_ids = array_append(message_ids, $2::uuid),
		    last_activity = GREATEST(last_activity, $3),
		    updated_at = $3
		WHERE conversation_id = $1
	`, s.tables.Conversations)

	executor := postgres.GetExecutor(ctx, s.pool)
	result, err := executor.Exec(ctx, query, conversationID, messageID, appendedAt)
	if err != nil {
		return &domain.PersistenceError{Message: fmt.Sprintf("append message ref: %v", err)}
	}

	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("conversation %s not found", conversationID)}
	}

	return nil
}

// ListPage retrieves a page of conversations, most recently active first
func (s *PostgresConversationStore) ListPage(ctx context.Context, limit, skip int) ([]chatModels.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT conversation_id, message_ids, last_activity, metadata, created_at, updated_at
		FROM %s
		ORDER BY last_activity DESC, conversation_id DESC
		LIMIT $1 OFFSET $2
	`, s.tables.Conversations)

	executor := postgres.GetExecutor(ctx, s.pool)
	rows, err := executor.Query(ctx, query, limit, skip)
	if err != nil {
		return nil, &domain.PersistenceError{Message: fmt.Sprintf("list conversations: %v", err)}
	}
	defer rows.Close()

	var conversations []chatModels.Conversation
	for rows.Next() {
		var conv chatModels.Conversation
		err := rows.Scan(
			&conv.ConversationID,
			&conv.MessageIDs,
			&conv.LastActivity,
			&conv.Metadata,
			&conv.CreatedAt,
			&conv.UpdatedAt,
		)
		if err != nil {
			return nil, &domain.PersistenceError{Message: fmt.Sprintf("scan conversation: %v", err)}
		}
		conversations = append(conversations, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Message: fmt.Sprintf("iterate conversations: %v", err)}
	}

	if conversations == nil {
		conversations = []chatModels.Conversation{}
	}

	return conversations, nil
}
