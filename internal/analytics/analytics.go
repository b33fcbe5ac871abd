// Package analytics aggregates chat telemetry stored by the session package
// into operator-facing metrics: latency profiles, retrieval quality, fallback
// rate, and user feedback counts.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/koopa0/guardian/internal/log"
	"github.com/koopa0/guardian/internal/session"
)

// DefaultDays is the window used when a caller asks for a non-positive
// number of days.
const DefaultDays = 7

// MaxDays caps the daily-usage window.
const MaxDays = 90

// DB is the read-only subset of *pgxpool.Pool used by the reporter.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Summary holds aggregate metrics over all bot answers.
type Summary struct {
	TotalSessions int64 `json:"total_sessions"`
	TotalTurns    int64 `json:"total_turns"`
	FallbackTurns int64 `json:"fallback_turns"`

	AvgRAGLatencyMS   float64 `json:"avg_rag_latency_ms"`
	MaxRAGLatencyMS   int64   `json:"max_rag_latency_ms"`
	AvgLLMLatencyMS   float64 `json:"avg_llm_latency_ms"`
	MaxLLMLatencyMS   int64   `json:"max_llm_latency_ms"`
	AvgTotalLatencyMS float64 `json:"avg_total_latency_ms"`

	AvgTopRAGScore float64 `json:"avg_top_rag_score"`

	HelpfulCount   int64 `json:"helpful_count"`
	UnhelpfulCount int64 `json:"unhelpful_count"`
}

// DailyUsage is one day of chat activity.
type DailyUsage struct {
	Day               time.Time `json:"day"`
	Turns             int64     `json:"turns"`
	FallbackTurns     int64     `json:"fallback_turns"`
	AvgTotalLatencyMS float64   `json:"avg_total_latency_ms"`
}

// Reporter computes analytics from the chat tables.
//
// Reporter is safe for concurrent use by multiple goroutines.
type Reporter struct {
	db     DB
	logger log.Logger
}

// NewReporter creates a Reporter backed by the given database handle.
func NewReporter(db DB, logger log.Logger) *Reporter {
	return &Reporter{db: db, logger: logger}
}

// Summarize computes the aggregate metrics. An empty database yields a zero
// Summary, not an error.
func (r *Reporter) Summarize(ctx context.Context) (*Summary, error) {
	var s Summary

	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM chat_sessions`).Scan(&s.TotalSessions)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	err = r.db.QueryRow(ctx,
		`SELECT
		   COUNT(*),
		   COUNT(*) FILTER (WHERE fallback),
		   COALESCE(AVG(rag_latency_ms), 0),
		   COALESCE(MAX(rag_latency_ms), 0),
		   COALESCE(AVG(llm_latency_ms), 0),
		   COALESCE(MAX(llm_latency_ms), 0),
		   COALESCE(AVG(total_latency_ms), 0),
		   COALESCE(AVG(top_rag_score), 0),
		   COUNT(*) FILTER (WHERE feedback = $2),
		   COUNT(*) FILTER (WHERE feedback = $3)
		 FROM chat_messages
		 WHERE role = $1`,
		session.RoleBot, session.FeedbackHelpful, session.FeedbackUnhelpful,
	).Scan(
		&s.TotalTurns, &s.FallbackTurns,
		&s.AvgRAGLatencyMS, &s.MaxRAGLatencyMS,
		&s.AvgLLMLatencyMS, &s.MaxLLMLatencyMS,
		&s.AvgTotalLatencyMS, &s.AvgTopRAGScore,
		&s.HelpfulCount, &s.UnhelpfulCount,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating turns: %w", err)
	}

	r.logger.Debug("computed summary", "sessions", s.TotalSessions, "turns", s.TotalTurns)
	return &s, nil
}

// Daily returns per-day usage for the last `days` days, oldest first. Days
// without activity are absent from the result.
func (r *Reporter) Daily(ctx context.Context, days int) ([]DailyUsage, error) {
	days = NormalizeDays(days)

	rows, err := r.db.Query(ctx,
		`SELECT
		   date_trunc('day', created_at) AS day,
		   COUNT(*),
		   COUNT(*) FILTER (WHERE fallback),
		   COALESCE(AVG(total_latency_ms), 0)
		 FROM chat_messages
		 WHERE role = $1 AND created_at >= now() - make_interval(days => $2)
		 GROUP BY day
		 ORDER BY day ASC`,
		session.RoleBot, days,
	)
	if err != nil {
		return nil, fmt.Errorf("querying daily usage: %w", err)
	}
	defer rows.Close()

	var usage []DailyUsage
	for rows.Next() {
		var d DailyUsage
		if err := rows.Scan(&d.Day, &d.Turns, &d.FallbackTurns, &d.AvgTotalLatencyMS); err != nil {
			return nil, fmt.Errorf("scanning daily usage: %w", err)
		}
		usage = append(usage, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying daily usage: %w", err)
	}

	return usage, nil
}

// NormalizeDays clamps a requested window to [1, MaxDays], defaulting
// non-positive values to DefaultDays.
func NormalizeDays(days int) int {
	if days <= 0 {
		return DefaultDays
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}
