package chat

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"parley/internal/domain"
	chatModels "parley/internal/domain/models/chat"
	chatRepo "parley/internal/domain/repositories/chat"
)

// MemoryConversationStore implements the ConversationStore interface in
// process memory. All mutation happens under one mutex, so the append is
// atomic by construction.
type MemoryConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*chatModels.Conversation
}

// NewConversationStore creates a new MemoryConversationStore
func NewConversationStore() chatRepo.ConversationStore {
	return &MemoryConversationStore{
		conversations: make(map[string]*chatModels.Conversation),
	}
}

// CreateConversation persists a new conversation
func (s *MemoryConversationStore) CreateConversation(ctx context.Context, conv *chatModels.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conversations[conv.ConversationID]; exists {
		return &domain.PersistenceError{Message: fmt.Sprintf("conversation id %s already exists", conv.ConversationID)}
	}

	if conv.MessageIDs == nil {
		conv.MessageIDs = []string{}
	}

	stored := cloneConversation(conv)
	s.conversations[conv.ConversationID] = &stored

	return nil
}

// FindByID retrieves a conversation by its external id
func (s *MemoryConversationStore) FindByID(ctx context.Context, conversationID string) (*chatModels.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("conversation %s not found", conversationID)}
	}

	copied := cloneConversation(conv)
	return &copied, nil
}

// AppendMessageRef atomically appends a message reference and advances
// last_activity
func (s *MemoryConversationStore) AppendMessageRef(ctx context.Context, conversationID, messageID string, appendedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("conversation %s not found", conversationID)}
	}

	conv.MessageIDs = append(conv.MessageIDs, messageID)
	if appendedAt.After(conv.LastActivity) {
		conv.LastActivity = appendedAt
	}
	conv.UpdatedAt = appendedAt

	return nil
}

// ListPage retrieves a page of conversations, most recently active first
func (s *MemoryConversationStore) ListPage(ctx context.Context, limit, skip int) ([]chatModels.Conversation, error) {
	s.mu.RLock()
	all := make([]chatModels.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		all = append(all, cloneConversation(conv))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].LastActivity.Equal(all[j].LastActivity) {
			return all[i].LastActivity.After(all[j].LastActivity)
		}
		// Deterministic tie-break, matching the durable store's sort
		return all[i].ConversationID > all[j].ConversationID
	})

	if skip >= len(all) || limit <= 0 {
		return []chatModels.Conversation{}, nil
	}

	end := skip + limit
	if end > len(all) {
		end = len(all)
	}

	return all[skip:end], nil
}

// cloneConversation copies a conversation so callers cannot mutate stored
// state through the returned value.
func cloneConversation(conv *chatModels.Conversation) chatModels.Conversation {
	copied := *conv
	copied.MessageIDs = append([]string(nil), conv.MessageIDs...)
	if conv.Metadata != nil {
		copied.Metadata = make(map[string]string, len(conv.Metadata))
		for k, v := range conv.Metadata {
			copied.Metadata[k] = v
		}
	}
	return copied
}
