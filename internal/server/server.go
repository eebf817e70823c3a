// Package server provides the HTTP and WebSocket API for Talus Tally.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/metrics"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/service"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/session"
)

// Server wraps the HTTP server with dependencies and lifecycle management.
type Server struct {
	http     *http.Server
	hub      *Hub
	sessions *session.Store
	velocity *service.VelocityService
	stats    *metrics.Collector
	logger   *slog.Logger
}

// New creates a server listening on addr. The returned server owns a
// WebSocket hub wired into the velocity service as its broadcaster.
func New(addr string, sessions *session.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	hub := NewHub(logger)
	stats := metrics.NewCollector()
	s := &Server{
		hub:      hub,
		sessions: sessions,
		velocity: service.NewVelocityService(sessions, hub, stats, logger),
		stats:    stats,
		logger:   logger,
	}

	s.http = &http.Server{
		Addr:         addr,
		Handler:      LoggingMiddleware(logger)(s.routes()),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the route tree without the outer middleware. Used by
// tests.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)
	mux.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}/velocity", s.handleRanking)
	mux.HandleFunc("GET /api/v1/sessions/{id}/nodes/{nodeID}/velocity", s.handleNodeVelocity)
	mux.HandleFunc("POST /api/v1/sessions/{id}/nodes/{nodeID}/blocking", s.handleUpdateBlocking)
	mux.HandleFunc("POST /api/v1/sessions/{id}/blocking/undo", s.handleUndoBlocking)
	mux.HandleFunc("GET /api/v1/sessions/{id}/blocking-graph", s.handleBlockingGraph)
	mux.HandleFunc("GET /ws", s.hub.ServeWS)

	return mux
}

// Run starts the hub and HTTP listener and blocks until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
