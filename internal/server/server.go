// Package server implements docgate's intake HTTP API. Local callers POST
// documents; each one is forwarded through the shared rate-limited
// submission client.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vnykmshr/docgate/pkg/common/validation"
	"github.com/vnykmshr/docgate/pkg/document"
	"github.com/vnykmshr/docgate/pkg/ratelimit/concurrency"
	"github.com/vnykmshr/docgate/pkg/submission"
)

// SignatureHeader carries the caller's credential.
const SignatureHeader = "X-Signature"

// maxBodyBytes caps an intake request body.
const maxBodyBytes = 4 << 20

// Options configures a Server.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Client forwards documents. Required.
	Client *submission.Client

	// Pending bounds requests parked on Client. Required.
	Pending concurrency.Limiter

	Defaults document.Defaults
	Logger   *zap.Logger

	// Gatherer backs GET /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Server is the intake HTTP server.
type Server struct {
	opts   Options
	router *chi.Mux
	logger *zap.Logger
}

// New creates a Server and registers its routes.
func New(opts Options) (*Server, error) {
	if err := validation.ValidateNotNil("server", "client", opts.Client); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotNil("server", "pending", opts.Pending); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		opts:   opts,
		router: chi.NewRouter(),
		logger: opts.Logger,
	}

	s.router.Use(middleware.RealIP)
	s.router.Use(RequestID)
	s.router.Use(s.accessLog)
	s.router.Use(middleware.Recoverer)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "the requested resource was not found", nil)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "the requested method is not allowed for this resource", nil)
	})

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	s.router.Post("/v1/documents", s.handleSubmit)
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.opts.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("intake server listening", zap.String("addr", s.opts.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down intake server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
