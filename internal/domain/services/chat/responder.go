package chat

import (
	"context"

	"parley/internal/domain/models/chat"
)

// Responder produces the assistant reply for a user turn. It is an external
// collaborator from the core's point of view: the canned implementation picks
// a stock reply, a remote implementation would call a completion API.
type Responder interface {
	// Reply generates the assistant response to the given user message,
	// with the conversation history available for context.
	Reply(ctx context.Context, userMessage string, history []chat.HistoryMessage) (string, error)
}
