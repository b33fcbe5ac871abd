// Package session provides persistence for chat sessions and their messages.
//
// Responsibilities: save/load conversation history and per-turn telemetry to
// PostgreSQL. Store is safe for concurrent use by multiple goroutines.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/koopa0/guardian/internal/rag"
)

// Role constants define valid message roles.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Feedback values a user can attach to a bot message.
const (
	FeedbackHelpful   = "helpful"
	FeedbackUnhelpful = "unhelpful"
)

// AutoTitleLimit is the maximum length of a session title derived from the
// first user message.
const AutoTitleLimit = 60

// Session represents one conversation session.
type Session struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Message represents a single conversation message. Telemetry fields are only
// meaningful for bot messages; they are zero for user messages.
type Message struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`

	// Fallback reports whether the text came from the template-based
	// fallback path instead of the generation backend.
	Fallback bool `json:"fallback"`

	// Sources lists the retrieved documents behind a bot answer,
	// stored as JSONB.
	Sources []rag.Source `json:"sources,omitempty"`

	// Feedback is nil until the user rates the message.
	Feedback *string `json:"feedback,omitempty"`

	RAGLatencyMS   int64   `json:"rag_latency_ms"`
	LLMLatencyMS   int64   `json:"llm_latency_ms"`
	TotalLatencyMS int64   `json:"total_latency_ms"`
	TopRAGScore    float32 `json:"top_rag_score"`

	CreatedAt time.Time `json:"created_at"`
}

// AutoTitle derives a session title from the first user message, truncated to
// AutoTitleLimit runes. Truncation is rune-safe.
func AutoTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= AutoTitleLimit {
		return text
	}
	return string(runes[:AutoTitleLimit-3]) + "..."
}

// ValidRole reports whether role is one of the defined message roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleBot
}

// ValidFeedback reports whether feedback is one of the defined values.
func ValidFeedback(feedback string) bool {
	return feedback == FeedbackHelpful || feedback == FeedbackUnhelpful
}
