// Package api provides the HTTP REST API for the Guardian Assist chatbot.
//
// Endpoints:
//
//	GET  /health                       → liveness probe
//	GET  /ready                        → readiness probe (postgres, qdrant, ollama)
//	POST /api/chat                     → run one chat turn
//	GET  /api/sessions                 → list sessions
//	POST /api/sessions                 → create session
//	GET  /api/sessions/{id}            → get session
//	DELETE /api/sessions/{id}          → delete session
//	GET  /api/sessions/{id}/messages   → list messages
//	POST /api/sessions/{id}/clear      → clear messages
//	POST /api/messages/{id}/feedback   → rate a bot answer
//	GET  /api/analytics/summary        → aggregate telemetry
//	GET  /api/analytics/daily          → per-day usage
//	POST /api/admin/ingest             → load incident records into the index
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery)
//   - health.go: health check endpoints (/health, /ready)
//   - chat.go: chat turn endpoint
//   - session.go: session management endpoints
//   - analytics.go: telemetry endpoints
//   - admin.go: corpus ingestion endpoint
//   - response.go: JSON response helpers
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/koopa0/guardian/internal/log"
)

const (
	// DefaultAddr is the default listen address for the HTTP server.
	DefaultAddr = "127.0.0.1:8000"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds request header reads (Slowloris protection).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Generation round-trips dominate, so this is generous.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second
)

// Config carries the server's dependencies.
type Config struct {
	Logger   log.Logger
	Sessions SessionStore  // required
	Pipeline TurnRunner    // required
	Reporter UsageReporter // optional: nil disables analytics endpoints
	Admin    CorpusAdmin   // optional: nil disables the ingest endpoint
	Ready    *HealthHandler
}

// Server is the HTTP server for the Guardian Assist REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.Pipeline == nil {
		return nil, errors.New("chat pipeline is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	mux := http.NewServeMux()

	health := cfg.Ready
	if health == nil {
		health = NewHealthHandler(logger)
	}
	health.RegisterRoutes(mux)

	NewSessionHandler(cfg.Sessions, logger).RegisterRoutes(mux)
	NewChatHandler(cfg.Pipeline, cfg.Sessions, logger).RegisterRoutes(mux)

	if cfg.Reporter != nil {
		NewAnalyticsHandler(cfg.Reporter, logger).RegisterRoutes(mux)
	}
	if cfg.Admin != nil {
		NewAdminHandler(cfg.Admin, logger).RegisterRoutes(mux)
	}

	return &Server{mux: mux, logger: logger}, nil
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
