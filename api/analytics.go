package api

import (
	"context"
	"net/http"

	"github.com/koopa0/guardian/internal/analytics"
	"github.com/koopa0/guardian/internal/log"
)

// UsageReporter is the analytics surface used by the HTTP handlers.
// *analytics.Reporter satisfies it.
type UsageReporter interface {
	Summarize(ctx context.Context) (*analytics.Summary, error)
	Daily(ctx context.Context, days int) ([]analytics.DailyUsage, error)
}

// AnalyticsHandler handles telemetry reporting endpoints.
type AnalyticsHandler struct {
	reporter UsageReporter
	logger   log.Logger
}

// NewAnalyticsHandler creates an analytics handler.
func NewAnalyticsHandler(reporter UsageReporter, logger log.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{reporter: reporter, logger: logger}
}

// RegisterRoutes registers analytics routes on the given mux.
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/analytics/summary", h.summary)
	mux.HandleFunc("GET /api/analytics/daily", h.daily)
}

// summary returns aggregate metrics over all bot answers.
func (h *AnalyticsHandler) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.reporter.Summarize(r.Context())
	if err != nil {
		h.logger.Error("failed to compute summary", "error", err)
		writeError(w, http.StatusInternalServerError, "summary_failed", "failed to compute summary")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// daily returns per-day usage. Query parameter: days (default 7, max 90).
func (h *AnalyticsHandler) daily(w http.ResponseWriter, r *http.Request) {
	days := parseIntParam(r, "days", analytics.DefaultDays, 1, analytics.MaxDays)

	usage, err := h.reporter.Daily(r.Context(), days)
	if err != nil {
		h.logger.Error("failed to compute daily usage", "error", err)
		writeError(w, http.StatusInternalServerError, "daily_failed", "failed to compute daily usage")
		return
	}
	if usage == nil {
		usage = []analytics.DailyUsage{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"days":  days,
		"usage": usage,
	})
}
