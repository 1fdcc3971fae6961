package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"parley/internal/domain"
	chatModels "parley/internal/domain/models/chat"
	chatRepo "parley/internal/domain/repositories/chat"
	chatSvc "parley/internal/domain/services/chat"
	memorychat "parley/internal/repository/memory/chat"
)

func newTestService(t *testing.T) (chatSvc.ConversationService, chatRepo.ConversationStore, chatRepo.MessageStore) {
	t.Helper()

	conversations := memorychat.NewConversationStore()
	messages := memorychat.NewMessageStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewConversationService(conversations, messages, logger), conversations, messages
}

func mustAppend(t *testing.T, svc chatSvc.ConversationService, conversationID, role, content string) *chatModels.Message {
	t.Helper()

	msg, err := svc.AppendMessage(context.Background(), conversationID, &chatSvc.AppendMessageRequest{
		Role:    role,
		Content: content,
	})
	if err != nil {
		t.Fatalf("AppendMessage(%q, %q): %v", role, content, err)
	}
	return msg
}

func TestCreateConversation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	if conv.ConversationID == "" {
		t.Error("conversation id is empty")
	}
	if len(conv.MessageIDs) != 0 {
		t.Errorf("new conversation has %d messages, want 0", len(conv.MessageIDs))
	}
	if conv.LastActivity.IsZero() {
		t.Error("last activity not set")
	}
}

func TestCreateConversation_UniqueIDs(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		conv, err := svc.CreateConversation(ctx)
		if err != nil {
			t.Fatalf("CreateConversation #%d: %v", i, err)
		}
		if seen[conv.ConversationID] {
			t.Fatalf("duplicate conversation id %s", conv.ConversationID)
		}
		seen[conv.ConversationID] = true
	}
}

func TestResolveOrCreateConversation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	existing, err := svc.CreateConversation(ctx)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	tests := []struct {
		name        string
		id          string
		wantCreated bool
		wantSameID  bool
	}{
		{
			name:        "empty id creates a fresh conversation",
			id:          "",
			wantCreated: true,
		},
		{
			name:        "existing id resolves without creation",
			id:          existing.ConversationID,
			wantCreated: false,
			wantSameID:  true,
		},
		{
			name:        "stale id falls back to creation",
			id:          "nonexistent-id",
			wantCreated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv, created, err := svc.ResolveOrCreateConversation(ctx, tt.id)
			if err != nil {
				t.Fatalf("ResolveOrCreateConversation(%q): %v", tt.id, err)
			}
			if created != tt.wantCreated {
				t.Errorf("created = %v, want %v", created, tt.wantCreated)
			}
			if tt.wantSameID && conv.ConversationID != tt.id {
				t.Errorf("resolved id = %s, want %s", conv.ConversationID, tt.id)
			}
			if !tt.wantSameID && conv.ConversationID == tt.id {
				t.Errorf("fallback conversation reused the stale id %s", tt.id)
			}
		})
	}
}

func TestAppendMessage_Ordering(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	mustAppend(t, svc, conv.ConversationID, chatModels.RoleUser, "first")
	mustAppend(t, svc, conv.ConversationID, chatModels.RoleAssistant, "second")
	mustAppend(t, svc, conv.ConversationID, chatModels.RoleUser, "third")

	history, err := svc.GetHistory(ctx, conv.ConversationID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}

	want := []string{"first", "second", "third"}
	if len(history.Messages) != len(want) {
		t.Fatalf("history has %d messages, want %d", len(history.Messages), len(want))
	}
	for i, content := range want {
		if history.Messages[i].Content != content {
			t.Errorf("history[%d].Content = %q, want %q", i, history.Messages[i].Content, content)
		}
	}
}

func TestAppendMessage_ConversationNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	other, err := svc.CreateConversation(ctx)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	mustAppend(t, svc, other.ConversationID, chatModels.RoleUser, "hello")

	_, err = svc.AppendMessage(ctx, "nonexistent-id", &chatSvc.AppendMessageRequest{
		Role:    chatModels.RoleUser,
		Content: "into the void",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("AppendMessage to missing conversation: err = %v, want ErrNotFound", err)
	}

	// Other conversations are unaffected
	history, err := svc.GetHistory(ctx, other.ConversationID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history.Messages) != 1 {
		t.Errorf("other conversation has %d messages, want 1", len(history.Messages))
	}
}

func TestAppendMessage_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  *chatSvc.AppendMessageRequest
	}{
		{
			name: "unknown role",
			req:  &chatSvc.AppendMessageRequest{Role: "bogus", Content: "x"},
		},
		{
			name: "empty role",
			req:  &chatSvc.AppendMessageRequest{Content: "x"},
		},
		{
			name: "empty content",
			req:  &chatSvc.AppendMessageRequest{Role: chatModels.RoleUser},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, messages := newTestService(t)
			ctx := context.Background()

			conv, err := svc.CreateConversation(ctx)
			if err != nil {
				t.Fatalf("CreateConversation: %v", err)
			}

			_, err = svc.AppendMessage(ctx, conv.ConversationID, tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("AppendMessage: err = %v, want ErrValidation", err)
			}
			var validationErr *domain.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("AppendMessage: err = %T, want *domain.ValidationError", err)
			}

			// A rejected message performs no store mutation
			count, err := messages.CountMessages(ctx)
			if err != nil {
				t.Fatalf("CountMessages: %v", err)
			}
			if count != 0 {
				t.Errorf("message store has %d records after rejection, want 0", count)
			}

			history, err := svc.GetHistory(ctx, conv.ConversationID)
			if err != nil {
				t.Fatalf("GetHistory: %v", err)
			}
			if len(history.Messages) != 0 {
				t.Errorf("conversation has %d messages after rejection, want 0", len(history.Messages))
			}
		})
	}
}

// flakyConversationStore fails AppendMessageRef a fixed number of times with
// a persistence error before delegating to the wrapped store.
type flakyConversationStore struct {
	chatRepo.ConversationStore
	failures int
	calls    int
}

func (s *flakyConversationStore) AppendMessageRef(ctx context.Context, conversationID, messageID string, appendedAt time.Time) error {
	s.calls++
	if s.calls <= s.failures {
		return domain.ErrPersistence
	}
	return s.ConversationStore.AppendMessageRef(ctx, conversationID, messageID, appendedAt)
}

func TestAppendMessage_RetriesTransientAppendFailure(t *testing.T) {
	conversations := memorychat.NewConversationStore()
	messages := memorychat.NewMessageStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	flaky := &flakyConversationStore{ConversationStore: conversations, failures: 1}
	svc := NewConversationService(flaky, messages, logger)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	msg, err := svc.AppendMessage(ctx, conv.ConversationID, &chatSvc.AppendMessageRequest{
		Role:    chatModels.RoleUser,
		Content: "hello",
	})
	if err != nil {
		t.Fatalf("AppendMessage after one transient failure: %v", err)
	}

	history, err := svc.GetHistory(ctx, conv.ConversationID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history.Messages) != 1 {
		t.Fatalf("history has %d messages, want 1", len(history.Messages))
	}
	if msg.ID == "" {
		t.Error("appended message has no id")
	}
}

func TestAppendMessage_OrphanAfterExhaustedRetry(t *testing.T) {
	conversations := memorychat.NewConversationStore()
	messages := memorychat.NewMessageStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	flaky := &flakyConversationStore{ConversationStore: conversations, failures: 2}
	svc := NewConversationService(flaky, messages, logger)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	_, err = svc.AppendMessage(ctx, conv.ConversationID, &chatSvc.AppendMessageRequest{
		Role:    chatModels.RoleUser,
		Content: "hello",
	})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("AppendMessage: err = %v, want ErrPersistence", err)
	}

	// The caller learned of the failure; the message record is a durable
	// orphan, not reachable from the conversation.
	count, err := messages.CountMessages(ctx)
	if err != nil {
		t.Fatalf("CountMessages: %v", err)
	}
	if count != 1 {
		t.Errorf("message store has %d records, want 1 orphan", count)
	}

	history, err := svc.GetHistory(ctx, conv.ConversationID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history.Messages) != 0 {
		t.Errorf("history has %d messages, want 0", len(history.Messages))
	}
}

func TestGetHistory_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetHistory(context.Background(), "nonexistent-id")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetHistory: err = %v, want ErrNotFound", err)
	}
}

func TestChatScenario(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	mustAppend(t, svc, conv.ConversationID, chatModels.RoleUser, "hello")
	afterFirst, err := svc.GetHistory(ctx, conv.ConversationID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}

	mustAppend(t, svc, conv.ConversationID, chatModels.RoleAssistant, "ahoy")
	afterSecond, err := svc.GetHistory(ctx, conv.ConversationID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}

	want := []chatModels.HistoryMessage{
		{Role: chatModels.RoleUser, Content: "hello"},
		{Role: chatModels.RoleAssistant, Content: "ahoy"},
	}
	if len(afterSecond.Messages) != len(want) {
		t.Fatalf("history has %d messages, want %d", len(afterSecond.Messages), len(want))
	}
	for i, w := range want {
		got := afterSecond.Messages[i]
		if got.Role != w.Role || got.Content != w.Content {
			t.Errorf("history[%d] = %+v, want %+v", i, got, w)
		}
		if got.Image != nil {
			t.Errorf("history[%d].Image = %q, want nil", i, *got.Image)
		}
	}

	if afterSecond.LastActivity.Before(afterFirst.LastActivity) {
		t.Errorf("last activity went backwards: %v -> %v",
			afterFirst.LastActivity, afterSecond.LastActivity)
	}
}

func TestListConversations_Pagination(t *testing.T) {
	conversations := memorychat.NewConversationStore()
	messages := memorychat.NewMessageStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewConversationService(conversations, messages, logger)
	ctx := context.Background()

	// Seed 15 conversations with distinct, ascending last-activity times.
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ids := make([]string, 15)
	for i := 0; i < 15; i++ {
		conv := &chatModels.Conversation{
			ConversationID: fmt.Sprintf("conv-%02d", i),
			MessageIDs:     []string{},
			LastActivity:   base.Add(time.Duration(i) * time.Minute),
			CreatedAt:      base,
			UpdatedAt:      base,
		}
		if err := conversations.CreateConversation(ctx, conv); err != nil {
			t.Fatalf("seed conversation %d: %v", i, err)
		}
		ids[i] = conv.ConversationID
	}

	first, err := svc.ListConversations(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListConversations(10, 0): %v", err)
	}
	second, err := svc.ListConversations(ctx, 10, 10)
	if err != nil {
		t.Fatalf("ListConversations(10, 10): %v", err)
	}

	if len(first) != 10 {
		t.Fatalf("first page has %d conversations, want 10", len(first))
	}
	if len(second) != 5 {
		t.Fatalf("second page has %d conversations, want 5", len(second))
	}

	// Descending by last activity across the two pages, no overlap, no gap
	all := append(append([]chatModels.Conversation{}, first...), second...)
	seen := make(map[string]bool)
	for i, conv := range all {
		if seen[conv.ConversationID] {
			t.Errorf("conversation %s appears twice", conv.ConversationID)
		}
		seen[conv.ConversationID] = true

		wantID := ids[14-i]
		if conv.ConversationID != wantID {
			t.Errorf("position %d: got %s, want %s", i, conv.ConversationID, wantID)
		}
		if i > 0 && all[i].LastActivity.After(all[i-1].LastActivity) {
			t.Errorf("position %d: last activity out of order", i)
		}
	}
}

func TestListConversations_Limits(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateConversation(ctx); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	empty, err := svc.ListConversations(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListConversations(0, 0): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("limit 0 returned %d conversations, want 0", len(empty))
	}

	if _, err := svc.ListConversations(ctx, -1, 0); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("negative limit: err = %v, want ErrValidation", err)
	}
	if _, err := svc.ListConversations(ctx, 10, -1); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("negative skip: err = %v, want ErrValidation", err)
	}

	past, err := svc.ListConversations(ctx, 10, 100)
	if err != nil {
		t.Fatalf("ListConversations(10, 100): %v", err)
	}
	if len(past) != 0 {
		t.Errorf("page past the end returned %d conversations, want 0", len(past))
	}
}
