package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/guardian/internal/log"
	"github.com/koopa0/guardian/internal/session"
)

func newSessionServer(t *testing.T, store *fakeStore) http.Handler {
	t.Helper()
	srv, err := NewServer(Config{
		Logger:   log.NewNop(),
		Sessions: store,
		Pipeline: &fakePipeline{},
	})
	require.NoError(t, err)
	return srv.Handler()
}

func doRequest(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestSessionCreate(t *testing.T) {
	handler := newSessionServer(t, newFakeStore())

	w := doRequest(handler, http.MethodPost, "/api/sessions", `{"title":"My Session"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var sess session.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.NotEqual(t, uuid.Nil, sess.ID)
	assert.Equal(t, "My Session", sess.Title)
}

func TestSessionCreateEmptyBody(t *testing.T) {
	handler := newSessionServer(t, newFakeStore())

	w := doRequest(handler, http.MethodPost, "/api/sessions", "")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestSessionCreateTitleTooLong(t *testing.T) {
	handler := newSessionServer(t, newFakeStore())

	body := fmt.Sprintf(`{"title":%q}`, strings.Repeat("a", MaxTitleLength+1))
	w := doRequest(handler, http.MethodPost, "/api/sessions", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionList(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 3; i++ {
		_, err := store.CreateSession(t.Context(), fmt.Sprintf("s%d", i))
		require.NoError(t, err)
	}
	handler := newSessionServer(t, store)

	w := doRequest(handler, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Sessions []*session.Session `json:"sessions"`
		Total    int                `json:"total"`
		Limit    int                `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, DefaultListLimit, resp.Limit)
}

func TestSessionListEmpty(t *testing.T) {
	handler := newSessionServer(t, newFakeStore())

	w := doRequest(handler, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	// Empty list must serialize as [], not null.
	assert.Contains(t, w.Body.String(), `"sessions":[]`)
}

func TestSessionGet(t *testing.T) {
	store := newFakeStore()
	sess, err := store.CreateSession(t.Context(), "t")
	require.NoError(t, err)
	handler := newSessionServer(t, store)

	w := doRequest(handler, http.MethodGet, "/api/sessions/"+sess.ID.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(handler, http.MethodGet, "/api/sessions/"+uuid.New().String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(handler, http.MethodGet, "/api/sessions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionDelete(t *testing.T) {
	store := newFakeStore()
	sess, err := store.CreateSession(t.Context(), "t")
	require.NoError(t, err)
	handler := newSessionServer(t, store)

	w := doRequest(handler, http.MethodDelete, "/api/sessions/"+sess.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, store.sessions)

	w = doRequest(handler, http.MethodDelete, "/api/sessions/"+sess.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionMessages(t *testing.T) {
	store := newFakeStore()
	sess, err := store.CreateSession(t.Context(), "t")
	require.NoError(t, err)
	_, err = store.AddMessage(t.Context(), &session.Message{
		SessionID: sess.ID, Role: session.RoleUser, Text: "q",
	})
	require.NoError(t, err)
	handler := newSessionServer(t, store)

	w := doRequest(handler, http.MethodGet, "/api/sessions/"+sess.ID.String()+"/messages", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Messages []*session.Message `json:"messages"`
		Total    int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "q", resp.Messages[0].Text)
}

func TestSessionClear(t *testing.T) {
	store := newFakeStore()
	sess, err := store.CreateSession(t.Context(), "t")
	require.NoError(t, err)
	_, err = store.AddMessage(t.Context(), &session.Message{
		SessionID: sess.ID, Role: session.RoleUser, Text: "q",
	})
	require.NoError(t, err)
	handler := newSessionServer(t, store)

	w := doRequest(handler, http.MethodPost, "/api/sessions/"+sess.ID.String()+"/clear", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, store.messages[sess.ID])

	w = doRequest(handler, http.MethodPost, "/api/sessions/"+uuid.New().String()+"/clear", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageFeedback(t *testing.T) {
	store := newFakeStore()
	sess, err := store.CreateSession(t.Context(), "t")
	require.NoError(t, err)
	botMsg, err := store.AddMessage(t.Context(), &session.Message{
		SessionID: sess.ID, Role: session.RoleBot, Text: "a",
	})
	require.NoError(t, err)
	handler := newSessionServer(t, store)

	w := doRequest(handler, http.MethodPost,
		"/api/messages/"+botMsg.ID.String()+"/feedback", `{"feedback":"helpful"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, session.FeedbackHelpful, store.feedback[botMsg.ID])

	w = doRequest(handler, http.MethodPost,
		"/api/messages/"+botMsg.ID.String()+"/feedback", `{"feedback":"meh"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(handler, http.MethodPost,
		"/api/messages/"+uuid.New().String()+"/feedback", `{"feedback":"helpful"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected int
	}{
		{name: "missing uses default", query: "", expected: 50},
		{name: "valid value", query: "limit=10", expected: 10},
		{name: "non-numeric uses default", query: "limit=abc", expected: 50},
		{name: "below min clamps", query: "limit=0", expected: 1},
		{name: "above max clamps", query: "limit=9999", expected: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/sessions?"+tt.query, nil)
			got := parseIntParam(r, "limit", 50, 1, 500)
			if got != tt.expected {
				t.Errorf("parseIntParam() = %d, want %d", got, tt.expected)
			}
		})
	}
}
