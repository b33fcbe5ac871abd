package api

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/koopa0/guardian/internal/analytics"
	"github.com/koopa0/guardian/internal/rag"
	"github.com/koopa0/guardian/internal/session"
)

// fakeStore is an in-memory SessionStore with per-method error injection.
type fakeStore struct {
	sessions map[uuid.UUID]*session.Session
	messages map[uuid.UUID][]*session.Message

	createErr     error
	addMessageErr error

	// addMessageErrRole limits addMessageErr to one role ("" = all roles).
	addMessageErrRole string

	addedMessages []*session.Message
	feedback      map[uuid.UUID]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[uuid.UUID]*session.Session),
		messages: make(map[uuid.UUID][]*session.Message),
		feedback: make(map[uuid.UUID]string),
	}
}

func (f *fakeStore) CreateSession(_ context.Context, title string) (*session.Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	sess := &session.Session{
		ID:        uuid.New(),
		Title:     title,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.sessions[sess.ID] = sess
	return sess, nil
}

func (f *fakeStore) GetSession(_ context.Context, id uuid.UUID) (*session.Session, error) {
	sess, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, session.ErrSessionNotFound)
	}
	return sess, nil
}

func (f *fakeStore) ListSessions(_ context.Context, limit, offset int32) ([]*session.Session, error) {
	var out []*session.Session
	for _, sess := range f.sessions {
		out = append(out, sess)
	}
	if int(offset) >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) DeleteSession(_ context.Context, id uuid.UUID) error {
	if _, ok := f.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, session.ErrSessionNotFound)
	}
	delete(f.sessions, id)
	delete(f.messages, id)
	return nil
}

func (f *fakeStore) ClearMessages(_ context.Context, sessionID uuid.UUID) error {
	if _, ok := f.sessions[sessionID]; !ok {
		return fmt.Errorf("session %s: %w", sessionID, session.ErrSessionNotFound)
	}
	f.messages[sessionID] = nil
	f.sessions[sessionID].MessageCount = 0
	return nil
}

func (f *fakeStore) AddMessage(_ context.Context, msg *session.Message) (*session.Message, error) {
	if f.addMessageErr != nil && (f.addMessageErrRole == "" || f.addMessageErrRole == msg.Role) {
		return nil, f.addMessageErr
	}
	if _, ok := f.sessions[msg.SessionID]; !ok {
		return nil, fmt.Errorf("session %s: %w", msg.SessionID, session.ErrSessionNotFound)
	}
	stored := *msg
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	f.messages[msg.SessionID] = append(f.messages[msg.SessionID], &stored)
	f.addedMessages = append(f.addedMessages, &stored)
	f.sessions[msg.SessionID].MessageCount++
	return &stored, nil
}

func (f *fakeStore) GetMessages(_ context.Context, sessionID uuid.UUID, limit, offset int32) ([]*session.Message, error) {
	msgs := f.messages[sessionID]
	if int(offset) >= len(msgs) {
		return nil, nil
	}
	msgs = msgs[offset:]
	if int(limit) < len(msgs) {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (f *fakeStore) SetFeedback(_ context.Context, messageID uuid.UUID, feedback string) error {
	if !session.ValidFeedback(feedback) {
		return fmt.Errorf("feedback %q: %w", feedback, session.ErrInvalidFeedback)
	}
	for _, msgs := range f.messages {
		for _, msg := range msgs {
			if msg.ID == messageID && msg.Role == session.RoleBot {
				f.feedback[messageID] = feedback
				return nil
			}
		}
	}
	return fmt.Errorf("message %s: %w", messageID, session.ErrMessageNotFound)
}

// fakePipeline returns a fixed answer and records the inputs it received.
type fakePipeline struct {
	answer    *rag.GeneratedAnswer
	lastQuery string
	lastTopK  int
}

func (f *fakePipeline) HandleTurn(_ context.Context, query string, topK int) *rag.GeneratedAnswer {
	f.lastQuery = query
	f.lastTopK = topK
	if f.answer != nil {
		return f.answer
	}
	return &rag.GeneratedAnswer{Text: "canned answer"}
}

// fakeReporter returns canned analytics.
type fakeReporter struct {
	summary  *analytics.Summary
	daily    []analytics.DailyUsage
	err      error
	lastDays int
}

func (f *fakeReporter) Summarize(context.Context) (*analytics.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.summary != nil {
		return f.summary, nil
	}
	return &analytics.Summary{}, nil
}

func (f *fakeReporter) Daily(_ context.Context, days int) ([]analytics.DailyUsage, error) {
	f.lastDays = days
	if f.err != nil {
		return nil, f.err
	}
	return f.daily, nil
}

// fakeAdmin records ingest calls.
type fakeAdmin struct {
	ensureErr   error
	ingestErr   error
	ensureCalls int
	ingested    [][]rag.SourceRecord
}

func (f *fakeAdmin) EnsureCollection(context.Context) error {
	f.ensureCalls++
	return f.ensureErr
}

func (f *fakeAdmin) Ingest(_ context.Context, records []rag.SourceRecord) error {
	if f.ingestErr != nil {
		return f.ingestErr
	}
	f.ingested = append(f.ingested, records)
	return nil
}
