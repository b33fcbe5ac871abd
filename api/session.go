package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/koopa0/guardian/internal/log"
	"github.com/koopa0/guardian/internal/session"
)

// Session validation constants.
const (
	MaxTitleLength   = 100
	DefaultListLimit = 50
	MaxListLimit     = 500
	MaxListOffset    = 100000
)

// SessionStore is the session persistence surface used by the HTTP handlers.
// *session.Store satisfies it.
type SessionStore interface {
	CreateSession(ctx context.Context, title string) (*session.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error)
	ListSessions(ctx context.Context, limit, offset int32) ([]*session.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	ClearMessages(ctx context.Context, sessionID uuid.UUID) error
	AddMessage(ctx context.Context, msg *session.Message) (*session.Message, error)
	GetMessages(ctx context.Context, sessionID uuid.UUID, limit, offset int32) ([]*session.Message, error)
	SetFeedback(ctx context.Context, messageID uuid.UUID, feedback string) error
}

// SessionHandler handles session management endpoints.
type SessionHandler struct {
	store  SessionStore
	logger log.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(store SessionStore, logger log.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: logger}
}

// RegisterRoutes registers session routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sessions", h.list)
	mux.HandleFunc("POST /api/sessions", h.create)
	mux.HandleFunc("GET /api/sessions/{id}", h.get)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.delete)
	mux.HandleFunc("GET /api/sessions/{id}/messages", h.messages)
	mux.HandleFunc("POST /api/sessions/{id}/clear", h.clear)
	mux.HandleFunc("POST /api/messages/{id}/feedback", h.feedback)
}

// list returns sessions ordered by most recent activity.
// Query parameters: limit (default 50, max 500), offset.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", DefaultListLimit, 1, MaxListLimit)
	offset := parseIntParam(r, "offset", 0, 0, MaxListOffset)

	// #nosec G115 -- limit and offset are bounded above
	sessions, err := h.store.ListSessions(r.Context(), int32(limit), int32(offset))
	if err != nil {
		h.logger.Error("failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*session.Session{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    len(sessions),
		"limit":    limit,
		"offset":   offset,
	})
}

// CreateSessionRequest is the request body for creating a session.
type CreateSessionRequest struct {
	Title string `json:"title"`
}

// create creates a new session. An empty title is allowed; it is filled from
// the first user message.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
			return
		}
	}

	if len(req.Title) > MaxTitleLength {
		writeError(w, http.StatusBadRequest, "title_too_long", "title must be 100 characters or fewer")
		return
	}

	sess, err := h.store.CreateSession(r.Context(), req.Title)
	if err != nil {
		h.logger.Error("failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "create_failed", "failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, sess)
}

// get returns a single session.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	sess, err := h.store.GetSession(r.Context(), id)
	if errors.Is(err, session.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "get_failed", "failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// delete removes a session and all its messages.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.store.DeleteSession(r.Context(), id)
	if errors.Is(err, session.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "delete_failed", "failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// messages returns the messages of a session in chronological order.
func (h *SessionHandler) messages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	limit := parseIntParam(r, "limit", DefaultListLimit, 1, MaxListLimit)
	offset := parseIntParam(r, "offset", 0, 0, MaxListOffset)

	// #nosec G115 -- limit and offset are bounded above
	messages, err := h.store.GetMessages(r.Context(), id, int32(limit), int32(offset))
	if err != nil {
		h.logger.Error("failed to get messages", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "messages_failed", "failed to get messages")
		return
	}
	if messages == nil {
		messages = []*session.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"total":    len(messages),
		"limit":    limit,
		"offset":   offset,
	})
}

// clear removes all messages of a session but keeps the session.
func (h *SessionHandler) clear(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.store.ClearMessages(r.Context(), id)
	if errors.Is(err, session.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to clear messages", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "clear_failed", "failed to clear messages")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// FeedbackRequest is the request body for rating a bot message.
type FeedbackRequest struct {
	Feedback string `json:"feedback"`
}

// feedback records user feedback ("helpful" or "unhelpful") on a bot message.
func (h *SessionHandler) feedback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	err := h.store.SetFeedback(r.Context(), id, req.Feedback)
	switch {
	case errors.Is(err, session.ErrInvalidFeedback):
		writeError(w, http.StatusBadRequest, "invalid_feedback", "feedback must be helpful or unhelpful")
		return
	case errors.Is(err, session.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, "not_found", "message not found")
		return
	case err != nil:
		h.logger.Error("failed to set feedback", "message_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "feedback_failed", "failed to set feedback")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} path segment as a UUID, writing the error response
// itself on failure.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

// parseIntParam parses an integer query parameter with bounds checking.
func parseIntParam(r *http.Request, name string, defaultVal, min, max int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
