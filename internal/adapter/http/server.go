// Package http serves health, metrics and operator endpoints.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
	"github.com/couchcryptid/outage-alert-service/internal/engine"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 1000
)

// TaskRunner runs a stored task on demand.
type TaskRunner interface {
	RunTaskByID(ctx context.Context, id int64) (engine.Report, error)
}

// Server exposes health, readiness, metrics and the operator API.
type Server struct {
	httpServer *http.Server
	stats      domain.StatsReader
	runner     TaskRunner
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /api/v1 routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, stats domain.StatsReader, runner TaskRunner, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		stats:  stats,
		runner: runner,
		logger: logger,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Get("/notifications", s.handleNotifications)
		r.Post("/tasks/{id}/run", s.handleRunTask)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.Stats(r.Context())
	if err != nil {
		s.logger.Error("load stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, st)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit := defaultNotificationLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxNotificationLimit {
			writeError(w, http.StatusBadRequest, "limit must be 1-1000")
			return
		}
		limit = n
	}

	items, err := s.stats.RecentNotifications(r.Context(), limit, r.URL.Query().Get("group_id"))
	if err != nil {
		s.logger.Error("load notifications failed", "error", err)
		writeError(w, http.StatusInternalServerError, "notifications unavailable")
		return
	}
	if items == nil {
		items = []domain.Notification{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"notifications": items})
}

func (s *Server) handleRunTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "task id must be a positive integer")
		return
	}

	// A started run completes even if the caller disconnects.
	rep, err := s.runner.RunTaskByID(context.WithoutCancel(r.Context()), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "task not found")
		return
	case err != nil:
		s.logger.Error("manual task run failed", "task_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "task run failed")
		return
	}

	s.logger.Info("manual task run", "task_id", id, "run_id", rep.RunID, "outcome", rep.Outcome)
	status := http.StatusOK
	if rep.Outcome == engine.OutcomeSkipped {
		status = http.StatusConflict
	}
	sharedobs.WriteJSON(w, status, rep)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
