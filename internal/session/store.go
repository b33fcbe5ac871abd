package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koopa0/guardian/internal/log"
	"github.com/koopa0/guardian/internal/rag"
)

// DB is the subset of *pgxpool.Pool the store uses. Defined by the consumer
// so tests can substitute a transaction or a containerized pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store manages session persistence with a PostgreSQL backend.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     DB
	logger log.Logger
}

// NewStore creates a Store backed by the given database handle.
func NewStore(db DB, logger log.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// CreateSession creates a new conversation session. An empty title is
// allowed; it is filled from the first user message by AddMessage.
func (s *Store) CreateSession(ctx context.Context, title string) (*Session, error) {
	var sess Session
	err := s.db.QueryRow(ctx,
		`INSERT INTO chat_sessions (title)
		 VALUES ($1)
		 RETURNING id, title, message_count, created_at, updated_at`,
		title,
	).Scan(&sess.ID, &sess.Title, &sess.MessageCount, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.logger.Debug("created session", "id", sess.ID, "title", sess.Title)
	return &sess, nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	var sess Session
	err := s.db.QueryRow(ctx,
		`SELECT id, title, message_count, created_at, updated_at
		 FROM chat_sessions
		 WHERE id = $1`,
		id,
	).Scan(&sess.ID, &sess.Title, &sess.MessageCount, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}
	return &sess, nil
}

// ListSessions lists sessions ordered by most recently updated first.
func (s *Store) ListSessions(ctx context.Context, limit, offset int32) ([]*Session, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, message_count, created_at, updated_at
		 FROM chat_sessions
		 ORDER BY updated_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.MessageCount, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	s.logger.Debug("listed sessions", "count", len(sessions), "limit", limit, "offset", offset)
	return sessions, nil
}

// DeleteSession deletes a session and all its messages (CASCADE).
func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM chat_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}

	s.logger.Debug("deleted session", "id", id)
	return nil
}

// ClearMessages deletes all messages of a session but keeps the session row.
func (s *Store) ClearMessages(ctx context.Context, sessionID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", err)
		}
	}()

	tag, err := tx.Exec(ctx,
		`UPDATE chat_sessions SET message_count = 0, updated_at = now() WHERE id = $1`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("resetting session %s: %w", sessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM chat_messages WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clearing messages of session %s: %w", sessionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("cleared messages", "session_id", sessionID)
	return nil
}

// AddMessage appends one message to a session.
//
// The session row is locked for the duration of the transaction so concurrent
// appends to the same session serialize. The session's updated_at and
// message_count are maintained here, and an untitled session receives a title
// derived from its first user message.
//
// The returned message carries the database-assigned ID and timestamp.
func (s *Store) AddMessage(ctx context.Context, msg *Message) (*Message, error) {
	if !ValidRole(msg.Role) {
		return nil, fmt.Errorf("role %q: %w", msg.Role, ErrInvalidRole)
	}

	sources := msg.Sources
	if sources == nil {
		sources = []rag.Source{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return nil, fmt.Errorf("marshaling sources: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", err)
		}
	}()

	var title string
	err = tx.QueryRow(ctx,
		`SELECT title FROM chat_sessions WHERE id = $1 FOR UPDATE`,
		msg.SessionID,
	).Scan(&title)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", msg.SessionID, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("locking session %s: %w", msg.SessionID, err)
	}

	stored := *msg
	err = tx.QueryRow(ctx,
		`INSERT INTO chat_messages
		   (session_id, role, text, fallback, sources,
		    rag_latency_ms, llm_latency_ms, total_latency_ms, top_rag_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		msg.SessionID, msg.Role, msg.Text, msg.Fallback, sourcesJSON,
		msg.RAGLatencyMS, msg.LLMLatencyMS, msg.TotalLatencyMS, msg.TopRAGScore,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	if title == "" && msg.Role == RoleUser {
		title = AutoTitle(msg.Text)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE chat_sessions
		 SET message_count = message_count + 1, updated_at = now(), title = $2
		 WHERE id = $1`,
		msg.SessionID, title,
	); err != nil {
		return nil, fmt.Errorf("updating session %s: %w", msg.SessionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("added message", "session_id", msg.SessionID, "role", msg.Role, "id", stored.ID)
	return &stored, nil
}

// GetMessages retrieves messages of a session in chronological order.
func (s *Store) GetMessages(ctx context.Context, sessionID uuid.UUID, limit, offset int32) ([]*Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, role, text, fallback, sources, feedback,
		        rag_latency_ms, llm_latency_ms, total_latency_ms, top_rag_score, created_at
		 FROM chat_messages
		 WHERE session_id = $1
		 ORDER BY created_at ASC, id ASC
		 LIMIT $2 OFFSET $3`,
		sessionID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("getting messages of session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var (
			msg         Message
			sourcesJSON []byte
		)
		if err := rows.Scan(
			&msg.ID, &msg.SessionID, &msg.Role, &msg.Text, &msg.Fallback,
			&sourcesJSON, &msg.Feedback,
			&msg.RAGLatencyMS, &msg.LLMLatencyMS, &msg.TotalLatencyMS,
			&msg.TopRAGScore, &msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if err := json.Unmarshal(sourcesJSON, &msg.Sources); err != nil {
			// Malformed rows are skipped, not fatal.
			s.logger.Warn("skipping message with malformed sources", "message_id", msg.ID, "error", err)
			continue
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getting messages of session %s: %w", sessionID, err)
	}

	s.logger.Debug("retrieved messages", "session_id", sessionID, "count", len(messages))
	return messages, nil
}

// SetFeedback records user feedback on a bot message.
func (s *Store) SetFeedback(ctx context.Context, messageID uuid.UUID, feedback string) error {
	if !ValidFeedback(feedback) {
		return fmt.Errorf("feedback %q: %w", feedback, ErrInvalidFeedback)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE chat_messages SET feedback = $2 WHERE id = $1 AND role = $3`,
		messageID, feedback, RoleBot,
	)
	if err != nil {
		return fmt.Errorf("setting feedback on message %s: %w", messageID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("message %s: %w", messageID, ErrMessageNotFound)
	}

	s.logger.Debug("set feedback", "message_id", messageID, "feedback", feedback)
	return nil
}
