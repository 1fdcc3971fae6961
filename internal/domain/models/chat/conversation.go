package chat

import (
	"time"
)

// Conversation is a durable, ordered thread of messages. The message list
// holds references in append order; history is append-only and the id is
// never reused.
type Conversation struct {
	ConversationID string            `json:"conversationId" db:"conversation_id"`
	MessageIDs     []string          `json:"messageIds" db:"message_ids"`
	LastActivity   time.Time         `json:"lastActivity" db:"last_activity"`
	Metadata       map[string]string `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time         `json:"updatedAt" db:"updated_at"`
}

// History is the read model for a conversation: projected messages in strict
// append order plus the identity and last-activity timestamp.
type History struct {
	ConversationID string           `json:"conversationId"`
	Messages       []HistoryMessage `json:"messages"`
	LastActivity   time.Time        `json:"lastActivity"`
}
