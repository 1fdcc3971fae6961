package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	chatModels "parley/internal/domain/models/chat"
	chatRepo "parley/internal/domain/repositories/chat"
)

// MemoryMessageStore implements the MessageStore interface in process memory.
// Used for tests and DB-less development; contents do not survive a restart.
type MemoryMessageStore struct {
	mu       sync.RWMutex
	messages map[string]chatModels.Message
}

// NewMessageStore creates a new MemoryMessageStore
func NewMessageStore() chatRepo.MessageStore {
	return &MemoryMessageStore{
		messages: make(map[string]chatModels.Message),
	}
}

// SaveMessage persists a new message, assigning id and creation timestamp
func (s *MemoryMessageStore) SaveMessage(ctx context.Context, msg *chatModels.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	msg.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ID] = *msg

	return nil
}

// GetMessages retrieves messages by id, preserving the order of ids
func (s *MemoryMessageStore) GetMessages(ctx context.Context, ids []string) ([]chatModels.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]chatModels.Message, 0, len(ids))
	for _, id := range ids {
		if msg, ok := s.messages[id]; ok {
			messages = append(messages, msg)
		}
	}

	return messages, nil
}

// CountMessages returns the total number of stored messages
func (s *MemoryMessageStore) CountMessages(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.messages), nil
}
