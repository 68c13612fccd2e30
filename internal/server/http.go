// Package server assembles the HTTP surface: auth routes for every portal,
// the admin audit view, and health endpoints, wrapped in the shared
// middleware chain and OpenTelemetry instrumentation.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	audithandler "talentgrid/backend/internal/audit/handler"
	authhandler "talentgrid/backend/internal/auth/handler"
	healthhandler "talentgrid/backend/internal/health/handler"
	"talentgrid/backend/internal/server/middleware"
)

// Options carries the handlers and settings the server mounts.
type Options struct {
	Addr    string
	Auth    *authhandler.Handler
	Audit   *audithandler.Handler
	Health  *healthhandler.Handler
	Log     *slog.Logger
	Timeout time.Duration
}

type Server struct {
	http *http.Server
	log  *slog.Logger
}

// New builds the route table and middleware chain.
func New(opts Options) *Server {
	mux := http.NewServeMux()
	if opts.Auth != nil {
		opts.Auth.Register(mux)
	}
	if opts.Audit != nil {
		opts.Audit.Register(mux)
	}
	if opts.Health != nil {
		opts.Health.Register(mux)
	}

	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	var handler http.Handler = mux
	handler = middleware.RequestLog(log)(handler)
	handler = middleware.CaptureClientIP(handler)
	handler = otelhttp.NewHandler(handler, "http.server")

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Server{
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       timeout,
			WriteTimeout:      timeout,
			IdleTimeout:       2 * time.Minute,
		},
		log: log,
	}
}

// Start serves until Shutdown is called. It returns nil on graceful close.
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
