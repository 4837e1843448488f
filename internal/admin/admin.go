// Package admin exposes a small HTTP server for health, metrics, and
// job status. It binds to loopback by default.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flemzord/jobkit/internal/history"
	"github.com/flemzord/jobkit/internal/job"
)

// JobLister provides the current job set (implemented by the
// scheduler).
type JobLister interface {
	Jobs() []*job.Job
}

// Config holds admin server settings.
type Config struct {
	Bind            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Bind == "" {
		c.Bind = "127.0.0.1:8314"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	return c
}

// Server is the admin HTTP server.
type Server struct {
	cfg      Config
	jobs     JobLister
	history  *history.Store // nil = no last-run data
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	server   *http.Server
}

// New creates a Server. The history store and gatherer are optional.
func New(cfg Config, jobs JobLister, hist *history.Store, gatherer prometheus.Gatherer, logger *slog.Logger) (*Server, error) {
	if jobs == nil {
		return nil, errors.New("admin: nil JobLister")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg.withDefaults(),
		jobs:     jobs,
		history:  hist,
		gatherer: gatherer,
		logger:   logger,
	}, nil
}

// buildRouter constructs the chi mux with all routes wired.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth())
	r.Get("/jobs", s.handleListJobs())

	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// Start begins serving. Returns an error if the listen address is
// unavailable.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Bind,
		Handler:      s.buildRouter(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", s.cfg.Bind)
	if err != nil {
		return errors.New("admin: listen failed: " + err.Error())
	}

	go func() {
		s.logger.Info("admin: listening", "addr", s.cfg.Bind)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("admin: serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully with the configured timeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("admin: shutting down")
	return s.server.Shutdown(shutdownCtx)
}
