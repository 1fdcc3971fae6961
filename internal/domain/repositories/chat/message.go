package chat

import (
	"context"

	"parley/internal/domain/models/chat"
)

// MessageStore defines the interface for message persistence.
// No business validation lives here, only structural persistence.
type MessageStore interface {
	// SaveMessage persists a new message, assigning its id and creation
	// timestamp. The passed message is updated in place.
	SaveMessage(ctx context.Context, msg *chat.Message) error

	// GetMessages retrieves messages by id, preserving the order of ids.
	// Ids that do not resolve are skipped (an orphan-free conversation
	// never produces one).
	GetMessages(ctx context.Context, ids []string) ([]chat.Message, error)

	// CountMessages returns the total number of stored messages.
	CountMessages(ctx context.Context) (int, error)
}
