package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/koopa0/guardian/internal/log"
	"github.com/koopa0/guardian/internal/rag"
	"github.com/koopa0/guardian/internal/session"
)

// Chat request validation constants.
const (
	MaxMessageLength = 4000
	MaxChatTopK      = 10
)

// TurnRunner runs one retrieval-augmented chat turn. *rag.Pipeline satisfies it.
type TurnRunner interface {
	HandleTurn(ctx context.Context, query string, topK int) *rag.GeneratedAnswer
}

// ChatHandler handles the chat turn endpoint.
type ChatHandler struct {
	pipeline TurnRunner
	sessions SessionStore
	logger   log.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(pipeline TurnRunner, sessions SessionStore, logger log.Logger) *ChatHandler {
	return &ChatHandler{pipeline: pipeline, sessions: sessions, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.send)
}

// ChatRequest is the request body for a chat turn.
type ChatRequest struct {
	// SessionID is optional; empty creates a new session.
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	// TopK is optional; non-positive uses the pipeline default.
	TopK int `json:"top_k"`
}

// ChatResponse is the response body for a chat turn.
type ChatResponse struct {
	SessionID uuid.UUID    `json:"session_id"`
	MessageID uuid.UUID    `json:"message_id"`
	Text      string       `json:"text"`
	Fallback  bool         `json:"fallback"`
	Sources   []rag.Source `json:"sources"`

	RAGLatencyMS   int64   `json:"rag_latency_ms"`
	LLMLatencyMS   int64   `json:"llm_latency_ms"`
	TotalLatencyMS int64   `json:"total_latency_ms"`
	TopRAGScore    float32 `json:"top_rag_score"`
}

// send runs one chat turn: persist the user message, run the pipeline, and
// persist the bot answer with its telemetry.
//
// A failure to persist the bot answer does not lose the answer; the response
// is still returned, with a zero message ID.
func (h *ChatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "missing_message", "message is required")
		return
	}
	if len(req.Message) > MaxMessageLength {
		writeError(w, http.StatusBadRequest, "message_too_long", "message must be 4000 characters or fewer")
		return
	}
	if req.TopK > MaxChatTopK {
		req.TopK = MaxChatTopK
	}

	ctx := r.Context()

	sess, ok := h.resolveSession(ctx, w, req.SessionID)
	if !ok {
		return
	}

	if _, err := h.sessions.AddMessage(ctx, &session.Message{
		SessionID: sess.ID,
		Role:      session.RoleUser,
		Text:      req.Message,
	}); err != nil {
		h.logger.Error("failed to persist user message", "session_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "persist_failed", "failed to save message")
		return
	}

	answer := h.pipeline.HandleTurn(ctx, req.Message, req.TopK)

	resp := ChatResponse{
		SessionID:      sess.ID,
		Text:           answer.Text,
		Fallback:       answer.Fallback,
		Sources:        answer.Sources,
		RAGLatencyMS:   answer.RAGLatencyMS,
		LLMLatencyMS:   answer.LLMLatencyMS,
		TotalLatencyMS: answer.TotalLatencyMS,
		TopRAGScore:    answer.TopRAGScore,
	}

	botMsg, err := h.sessions.AddMessage(ctx, &session.Message{
		SessionID:      sess.ID,
		Role:           session.RoleBot,
		Text:           answer.Text,
		Fallback:       answer.Fallback,
		Sources:        answer.Sources,
		RAGLatencyMS:   answer.RAGLatencyMS,
		LLMLatencyMS:   answer.LLMLatencyMS,
		TotalLatencyMS: answer.TotalLatencyMS,
		TopRAGScore:    answer.TopRAGScore,
	})
	if err != nil {
		// The answer is already computed; losing its persistence must not
		// lose the turn.
		h.logger.Error("failed to persist bot message", "session_id", sess.ID, "error", err)
	} else {
		resp.MessageID = botMsg.ID
	}

	writeJSON(w, http.StatusOK, resp)
}

// resolveSession loads the referenced session or creates a new one when no ID
// is given. Writes the error response itself on failure.
func (h *ChatHandler) resolveSession(ctx context.Context, w http.ResponseWriter, sessionID string) (*session.Session, bool) {
	if sessionID == "" {
		sess, err := h.sessions.CreateSession(ctx, "")
		if err != nil {
			h.logger.Error("failed to create session", "error", err)
			writeError(w, http.StatusInternalServerError, "create_failed", "failed to create session")
			return nil, false
		}
		return sess, true
	}

	id, err := uuid.Parse(sessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid session ID")
		return nil, false
	}

	sess, err := h.sessions.GetSession(ctx, id)
	if errors.Is(err, session.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed to get session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "get_failed", "failed to get session")
		return nil, false
	}
	return sess, true
}
