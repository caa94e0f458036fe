// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/staffdesk/internal/platform/config"
	"github.com/taibuivan/staffdesk/internal/platform/constants"
	"github.com/taibuivan/staffdesk/internal/platform/metrics"
	"github.com/taibuivan/staffdesk/internal/platform/middleware"
	"github.com/taibuivan/staffdesk/internal/platform/ratelimit"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// RouteRegistrar mounts a domain's endpoints under the versioned API router.
type RouteRegistrar interface {
	RegisterRoutes(api chi.Router)
}

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here and a line in [NewServer].
type Handlers struct {
	// Liveness is the /health handler. Always 200 while the process runs.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. 200 when Postgres and Redis answer.
	Readiness http.HandlerFunc

	// Auth handles login, registration, recovery and the session endpoints.
	Auth RouteRegistrar

	// Accounts handles administrator account management.
	Accounts RouteRegistrar

	// Attendance handles clock-in, clock-out and history.
	Attendance RouteRegistrar
}

// Dependencies are the cross-cutting collaborators of the middleware chain.
type Dependencies struct {
	Sessions middleware.SessionLoader
	Limiter  *ratelimit.Limiter
}

// # Server Initialization

/*
NewServer constructs the chi router with the full middleware chain and
registers all route groups.

The chain runs, outermost first: request id, client ip, access log, panic
recovery, security headers, CORS, burst guard, session loading. The burst
guard's cleanup goroutine stops when context is cancelled.
*/
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, deps Dependencies, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	r.Use(middleware.RequestID())
	r.Use(middleware.ClientIP)
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.PanicRecovery)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.Origins(), cfg.IsDevelopment()))
	if cfg.BurstGuard {
		r.Use(middleware.BurstGuard(context, constants.BurstGuardRPS, constants.BurstGuardBurst))
	}
	r.Use(chimw.CleanPath)
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.LoadSession(deps.Sessions))

	// # Infrastructure Endpoints
	// Unauthenticated probes for container orchestration and scraping.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	r.Handle("/metrics", metrics.Handler())

	// # Application API
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(ratelimit.Middleware(deps.Limiter, constants.BucketAPI, cfg.APIRateLimit, cfg.APIRateWindow))

		h.Auth.RegisterRoutes(api)
		h.Accounts.RegisterRoutes(api)
		h.Attendance.RegisterRoutes(api)
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
