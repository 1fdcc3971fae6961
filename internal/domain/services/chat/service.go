package chat

import (
	"context"

	"parley/internal/domain/models/chat"
)

// AppendMessageRequest is the input for appending one turn to a conversation.
type AppendMessageRequest struct {
	Role    string  `json:"role"`
	Content string  `json:"content"`
	Image   *string `json:"image,omitempty"`
}

// ConversationService orchestrates conversation and message persistence.
// Implementations are stateless and safe for concurrent use.
type ConversationService interface {
	// CreateConversation creates a conversation with a fresh globally unique
	// id, an empty message list and last_activity set to now.
	// Returns domain.ErrPersistence if the store write fails; the
	// conversation is then either durably visible or absent, never partial.
	CreateConversation(ctx context.Context) (*chat.Conversation, error)

	// ResolveOrCreateConversation looks up a conversation by id. An empty id
	// or a lookup miss falls back to creating a fresh conversation (whose id
	// may differ from the supplied one - a stale client id silently starts a
	// new thread instead of failing the request). The returned flag reports
	// whether resolution fell back to creation.
	ResolveOrCreateConversation(ctx context.Context, conversationID string) (*chat.Conversation, bool, error)

	// AppendMessage validates the candidate message, persists it and
	// atomically appends its reference to the conversation, advancing
	// last_activity. Returns domain.ErrValidation before any write on a
	// malformed message, domain.ErrNotFound if the conversation does not
	// exist, and domain.ErrPersistence on store failure.
	AppendMessage(ctx context.Context, conversationID string, req *AppendMessageRequest) (*chat.Message, error)

	// GetHistory returns the conversation's messages in strict append order,
	// projected to role/content/image. Pure read.
	// Returns domain.ErrNotFound if the id does not resolve.
	GetHistory(ctx context.Context, conversationID string) (*chat.History, error)

	// ListConversations returns conversations ordered by last_activity
	// descending, skipping skip entries and returning at most limit.
	// A limit of 0 yields an empty page without error. Pure read.
	ListConversations(ctx context.Context, limit, skip int) ([]chat.Conversation, error)
}
