package api

import (
	"context"
	"net/http"
	"time"

	"github.com/koopa0/guardian/internal/log"
)

// probeTimeout bounds each individual readiness probe.
const probeTimeout = 5 * time.Second

// Probe checks one backing dependency.
type Probe func(ctx context.Context) error

// HealthHandler handles the liveness and readiness endpoints. Probes are
// registered per dependency; readiness fails when any probe fails.
type HealthHandler struct {
	names  []string
	probes map[string]Probe
	logger log.Logger
}

// NewHealthHandler creates a health handler with no probes. A probe-less
// handler reports ready; register probes for each backing dependency.
func NewHealthHandler(logger log.Logger) *HealthHandler {
	return &HealthHandler{
		probes: make(map[string]Probe),
		logger: logger,
	}
}

// AddProbe registers a named dependency probe. Probes run in registration
// order on every /ready request.
func (h *HealthHandler) AddProbe(name string, probe Probe) *HealthHandler {
	if _, dup := h.probes[name]; !dup {
		h.names = append(h.names, name)
	}
	h.probes[name] = probe
	return h
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

// liveness returns 200 OK if the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readiness runs every registered probe and reports per-dependency status.
// Returns 503 when any dependency is not ready.
func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	status := make(map[string]string, len(h.names))
	ready := true

	for _, name := range h.names {
		err := func() error {
			ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
			defer cancel()
			return h.probes[name](ctx)
		}()
		if err != nil {
			h.logger.Error("readiness probe failed", "dependency", name, "error", err)
			status[name] = "unavailable"
			ready = false
			continue
		}
		status[name] = "ok"
	}

	code := http.StatusOK
	overall := "ready"
	if !ready {
		code = http.StatusServiceUnavailable
		overall = "not ready"
	}

	writeJSON(w, code, map[string]any{
		"status":       overall,
		"dependencies": status,
	})
}
