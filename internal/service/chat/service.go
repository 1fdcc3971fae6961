package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"parley/internal/config"
	"parley/internal/domain"
	chatModels "parley/internal/domain/models/chat"
	chatRepo "parley/internal/domain/repositories/chat"
	chatSvc "parley/internal/domain/services/chat"
)

// conversationService implements the ConversationService interface
type conversationService struct {
	conversations chatRepo.ConversationStore
	messages      chatRepo.MessageStore
	logger        *slog.Logger
}

// NewConversationService creates a new conversation service
func NewConversationService(
	conversations chatRepo.ConversationStore,
	messages chatRepo.MessageStore,
	logger *slog.Logger,
) chatSvc.ConversationService {
	return &conversationService{
		conversations: conversations,
		messages:      messages,
		logger:        logger,
	}
}

// CreateConversation creates a conversation with a fresh globally unique id.
// A 128-bit random id makes collisions negligible without any global lock.
func (s *conversationService) CreateConversation(ctx context.Context) (*chatModels.Conversation, error) {
	now := time.Now().UTC()
	conv := &chatModels.Conversation{
		ConversationID: uuid.NewString(),
		MessageIDs:     []string{},
		LastActivity:   now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.conversations.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}

	s.logger.Info("conversation created", "conversation_id", conv.ConversationID)

	return conv, nil
}

// ResolveOrCreateConversation looks up a conversation, falling back to
// creation when the id is empty or does not resolve. A stale client id never
// hard-fails the request; it silently starts a new thread of history.
func (s *conversationService) ResolveOrCreateConversation(ctx context.Context, conversationID string) (*chatModels.Conversation, bool, error) {
	if conversationID == "" {
		conv, err := s.CreateConversation(ctx)
		return conv, true, err
	}

	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	s.logger.Info("conversation not found, creating a new one",
		"requested_id", conversationID,
	)

	conv, err = s.CreateConversation(ctx)
	return conv, true, err
}

// AppendMessage validates, persists and appends one turn. The message write
// and the conversation append are one unit from the caller's perspective: a
// failed append is retried once, and if it still fails the caller gets
// domain.ErrPersistence even though the message record may be durable
// (an orphan, unreachable from any conversation).
func (s *conversationService) AppendMessage(ctx context.Context, conversationID string, req *chatSvc.AppendMessageRequest) (*chatModels.Message, error) {
	if err := validateAppendMessageRequest(req); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	msg := &chatModels.Message{
		Role:    req.Role,
		Content: req.Content,
		Image:   req.Image,
	}

	if err := s.messages.SaveMessage(ctx, msg); err != nil {
		return nil, err
	}

	appendedAt := time.Now().UTC()
	if appendedAt.Before(msg.CreatedAt) {
		appendedAt = msg.CreatedAt
	}

	err := s.conversations.AppendMessageRef(ctx, conversationID, msg.ID, appendedAt)
	if err != nil && errors.Is(err, domain.ErrPersistence) {
		// One retry covers transient store failures.
		s.logger.Warn("append failed, retrying",
			"conversation_id", conversationID,
			"message_id", msg.ID,
			"error", err,
		)
		err = s.conversations.AppendMessageRef(ctx, conversationID, msg.ID, appendedAt)
	}
	if err != nil {
		// The message record may already be durable but unreachable.
		// Never report success here; the orphan id is logged for reclamation.
		s.logger.Error("message orphaned: conversation append failed",
			"conversation_id", conversationID,
			"message_id", msg.ID,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("message appended",
		"conversation_id", conversationID,
		"message_id", msg.ID,
		"role", msg.Role,
	)

	return msg, nil
}

// GetHistory returns the conversation's messages in strict append order,
// projected to role/content/image. Pure read.
func (s *conversationService) GetHistory(ctx context.Context, conversationID string) (*chatModels.History, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messages.GetMessages(ctx, conv.MessageIDs)
	if err != nil {
		return nil, err
	}

	projected := make([]chatModels.HistoryMessage, 0, len(messages))
	for i := range messages {
		projected = append(projected, messages[i].Project())
	}

	return &chatModels.History{
		ConversationID: conv.ConversationID,
		Messages:       projected,
		LastActivity:   conv.LastActivity,
	}, nil
}

// ListConversations returns a page of conversations, most recently active
// first. Pure read.
func (s *conversationService) ListConversations(ctx context.Context, limit, skip int) ([]chatModels.Conversation, error) {
	if limit < 0 || skip < 0 {
		return nil, &domain.ValidationError{Message: "limit and skip must be non-negative"}
	}
	if limit == 0 {
		return []chatModels.Conversation{}, nil
	}
	if limit > config.MaxListLimit {
		limit = config.MaxListLimit
	}

	return s.conversations.ListPage(ctx, limit, skip)
}

func validateAppendMessageRequest(req *chatSvc.AppendMessageRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Role,
			validation.Required,
			validation.In(toAny(chatModels.Roles)...),
		),
		validation.Field(&req.Content,
			validation.Required,
			validation.Length(1, config.MaxMessageContentLength),
		),
		validation.Field(&req.Image,
			validation.Length(0, config.MaxImagePayloadLength),
		),
	)
}

func toAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
