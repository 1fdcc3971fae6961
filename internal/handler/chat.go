package handler

import (
	"log/slog"
	"net/http"
	"time"

	"parley/internal/config"
	chatModels "parley/internal/domain/models/chat"
	chatSvc "parley/internal/domain/services/chat"
	"parley/internal/httputil"
)

// ChatHandler handles chat HTTP requests. Handlers only talk to services,
// never to stores.
type ChatHandler struct {
	conversations chatSvc.ConversationService
	responder     chatSvc.Responder
	logger        *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	conversations chatSvc.ConversationService,
	responder chatSvc.Responder,
	logger *slog.Logger,
) *ChatHandler {
	return &ChatHandler{
		conversations: conversations,
		responder:     responder,
		logger:        logger,
	}
}

// chatRequest is the POST /chat body. The last entry in Messages is the user
// turn; ConversationID is an optional resolution hint.
type chatRequest struct {
	Messages       []chatSvc.AppendMessageRequest `json:"messages"`
	ConversationID string                         `json:"conversationId"`
}

// chatResponse echoes the assistant reply plus the conversation identity, so
// a client whose stale id fell back to a fresh conversation learns the new id.
type chatResponse struct {
	Reply          string    `json:"reply"`
	MessageID      string    `json:"messageId"`
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversationId"`
}

// Chat handles one conversational exchange
// POST /chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Messages) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "messages must be a non-empty array")
		return
	}
	for _, m := range req.Messages {
		if m.Role == "" || m.Content == "" {
			httputil.RespondError(w, http.StatusBadRequest, "every message requires role and content")
			return
		}
	}

	conv, created, err := h.conversations.ResolveOrCreateConversation(r.Context(), req.ConversationID)
	if err != nil {
		handleError(w, err)
		return
	}
	if created && req.ConversationID != "" {
		h.logger.Info("stale conversation id replaced",
			"requested_id", req.ConversationID,
			"conversation_id", conv.ConversationID,
		)
	}

	userTurn := req.Messages[len(req.Messages)-1]
	if _, err := h.conversations.AppendMessage(r.Context(), conv.ConversationID, &userTurn); err != nil {
		handleError(w, err)
		return
	}

	history, err := h.conversations.GetHistory(r.Context(), conv.ConversationID)
	if err != nil {
		handleError(w, err)
		return
	}

	reply, err := h.responder.Reply(r.Context(), userTurn.Content, history.Messages)
	if err != nil {
		h.logger.Error("responder failed", "conversation_id", conv.ConversationID, "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "failed to generate reply")
		return
	}

	assistantTurn, err := h.conversations.AppendMessage(r.Context(), conv.ConversationID, &chatSvc.AppendMessageRequest{
		Role:    chatModels.RoleAssistant,
		Content: reply,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chatResponse{
		Reply:          reply,
		MessageID:      assistantTurn.ID,
		Timestamp:      assistantTurn.CreatedAt,
		ConversationID: conv.ConversationID,
	})
}

// GetHistory returns a conversation's messages in append order
// GET /conversations/{id}
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")
	if conversationID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Conversation ID is required")
		return
	}

	history, err := h.conversations.GetHistory(r.Context(), conversationID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, history)
}

// ListConversations returns a page of conversations, most recently active
// first. Missing or non-numeric limit/skip fall back to defaults here, before
// reaching the service.
// GET /conversations?limit=10&skip=0
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	limit := httputil.QueryInt(r, "limit", config.DefaultListLimit)
	skip := httputil.QueryInt(r, "skip", 0)

	conversations, err := h.conversations.ListConversations(r.Context(), limit, skip)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": conversations,
	})
}

// HealthCheck reports service liveness
// GET /health
func (h *ChatHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
