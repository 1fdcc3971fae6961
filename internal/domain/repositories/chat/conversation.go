package chat

import (
	"context"
	"time"

	"parley/internal/domain/models/chat"
)

// ConversationStore defines the interface for conversation persistence.
type ConversationStore interface {
	// CreateConversation persists a new conversation. The conversation id is
	// assigned by the caller and must be unique.
	CreateConversation(ctx context.Context, conv *chat.Conversation) error

	// FindByID retrieves a conversation by its external id.
	// Returns domain.ErrNotFound if not found.
	FindByID(ctx context.Context, conversationID string) (*chat.Conversation, error)

	// AppendMessageRef atomically appends a message reference to the
	// conversation's ordered list and advances last_activity to at least
	// appendedAt. This is a single conditional update, never a
	// read-modify-write of the whole record, so concurrent appends to the
	// same conversation cannot lose updates.
	// Returns domain.ErrNotFound if the conversation does not exist.
	AppendMessageRef(ctx context.Context, conversationID, messageID string, appendedAt time.Time) error

	// ListPage retrieves a page of conversations ordered by last_activity
	// descending, ties broken by conversation id descending so repeated
	// calls over stable data return a stable order.
	// Returns an empty slice when the page is past the end.
	ListPage(ctx context.Context, limit, skip int) ([]chat.Conversation, error)
}
