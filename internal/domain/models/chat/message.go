package chat

import (
	"time"
)

// Message roles form a closed set; anything else is rejected before a write.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Roles lists every valid message role.
var Roles = []string{RoleUser, RoleAssistant, RoleSystem}

// Message represents a single turn in a conversation. A message is created
// once, appended to exactly one conversation, and never mutated or deleted.
type Message struct {
	ID        string    `json:"id" db:"id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	Image     *string   `json:"image,omitempty" db:"image"` // optional data URI payload
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// HistoryMessage is the projection of a Message returned by history reads:
// role, content and image only, no internal identifiers or timestamps.
type HistoryMessage struct {
	Role    string  `json:"role"`
	Content string  `json:"content"`
	Image   *string `json:"image"`
}

// Project reduces a Message to its history projection.
func (m *Message) Project() HistoryMessage {
	return HistoryMessage{
		Role:    m.Role,
		Content: m.Content,
		Image:   m.Image,
	}
}
