// Package ops serves the operational HTTP surface: liveness, Prometheus
// metrics and the current job schedule. The listener only exists when
// [ops] listen is configured.
package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dejikatsu/dejiryu/internal/config"
	"github.com/dejikatsu/dejiryu/internal/logger"
	"github.com/dejikatsu/dejiryu/internal/scheduler"
	"github.com/dejikatsu/dejiryu/internal/version"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the operational HTTP listener.
type Server struct {
	cfg    config.OpsConfig
	logger *logger.Logger
	srv    *http.Server
}

// New creates the ops server over the bot's metrics registry and scheduler.
func New(cfg config.OpsConfig, log *logger.Logger, registry *prometheus.Registry, runner *scheduler.Runner) *Server {
	return &Server{
		cfg:    cfg,
		logger: log,
		srv: &http.Server{
			Addr:              cfg.Listen,
			Handler:           newRouter(registry, runner),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start begins serving in the background. With no listen address configured
// it does nothing.
func (s *Server) Start() {
	if s.cfg.Listen == "" {
		s.logger.Info("ops listener disabled, no listen address configured")
		return
	}

	go func() {
		s.logger.Info("ops listener started",
			logger.Field{Key: "addr", Value: s.cfg.Listen})

		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("ops listener failed", err)
		}
	}()
}

// Stop shuts the listener down, waiting briefly for in-flight requests.
func (s *Server) Stop() error {
	if s.cfg.Listen == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop ops listener: %w", err)
	}

	s.logger.Info("ops listener stopped")

	return nil
}

func newRouter(registry *prometheus.Registry, runner *scheduler.Runner) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/jobs", handleJobs(runner))

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func handleJobs(runner *scheduler.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"running": runner.IsStarted(),
			"jobs":    runner.Snapshot(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
