// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Staffdesk HTTP API server.
//
// # Startup Sequence
//
//  1. Load configuration from environment variables (and .env).
//  2. Initialize structured logger.
//  3. Connect to PostgreSQL (pgxpool) and mirror WARNING+ logs into it.
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Build the rate limiter, session manager and token service.
//  7. Wire HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/staffdesk/internal/api"
	"github.com/taibuivan/staffdesk/internal/platform/config"
	"github.com/taibuivan/staffdesk/internal/platform/constants"
	"github.com/taibuivan/staffdesk/internal/platform/logging"
	"github.com/taibuivan/staffdesk/internal/platform/migration"
	pgstore "github.com/taibuivan/staffdesk/internal/platform/postgres"
	"github.com/taibuivan/staffdesk/internal/platform/ratelimit"
	redisstore "github.com/taibuivan/staffdesk/internal/platform/redis"
	"github.com/taibuivan/staffdesk/internal/platform/sec"
	"github.com/taibuivan/staffdesk/internal/platform/session"
	"github.com/taibuivan/staffdesk/internal/users/account"
	"github.com/taibuivan/staffdesk/internal/users/auth"
	"github.com/taibuivan/staffdesk/internal/workforce/attendance"
	"github.com/taibuivan/staffdesk/internal/workforce/employee"
)

const appName = "staffdesk"

func main() {
	// ── 1. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New(os.Stdout, logging.Options{App: appName})
		must(bootLog, err, "load configuration")
	}

	// ── 2. Logger ─────────────────────────────────────────────────────────
	log := logging.New(os.Stdout, logging.Options{Debug: cfg.Debug, App: appName})
	slog.SetDefault(log)

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("rate_limit_backend", cfg.RateLimitBackend),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.PostgresURL(), log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	log = logging.New(os.Stdout, logging.Options{Debug: cfg.Debug, App: appName, Sink: logging.NewPostgresSink(pool)})
	slog.SetDefault(log)

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.PostgresURL(), cfg.MigrationPath, log), "run migrations")

	// ── 6. Security Infrastructure ────────────────────────────────────────
	limiterStore, err := newLimiterStore(cfg, pool, rdb)
	must(log, err, "initialize rate limiter store")
	limiter := ratelimit.New(limiterStore)

	sessions, err := session.NewManager(session.NewRedisStore(rdb), session.Options{
		Secret:      cfg.SessionSecret,
		Secure:      cfg.CookieSecure,
		IdleTimeout: cfg.SessionIdleTimeout,
		RememberTTL: cfg.SessionRememberTTL,
	})
	must(log, err, "initialize session manager")

	tokens, err := sec.NewTokenService(sec.HashToken("verify:"+cfg.SessionSecret), constants.TokenIssuer)
	must(log, err, "initialize token service")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	employeeRepository := employee.NewRepository(pool)

	authService := auth.NewService(auth.Dependencies{
		Users:       auth.NewUserRepository(pool),
		Activity:    auth.NewActivityRepository(pool),
		ResetTokens: auth.NewResetTokenRepository(rdb),
		Sessions:    sessions,
		Limiter:     limiter,
		Tokens:      tokens,
		Employees:   employeeRepository,
		Unique:      pgstore.NewUniqueChecker(pool),
	}, auth.Options{
		Login:   auth.Policy{Limit: cfg.LoginRateLimit, Window: cfg.LoginRateWindow},
		BaseURL: cfg.BaseURL,
	})

	accountService := account.NewService(account.NewRepository(pool), sessions)
	attendanceService := attendance.NewService(attendance.NewRepository(pool), employeeRepository, cfg.Location())

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log,
		api.Dependencies{Sessions: sessions, Limiter: limiter},
		api.Handlers{
			Liveness:   liveness,
			Readiness:  readiness,
			Auth:       auth.NewHandler(authService, sessions),
			Accounts:   account.NewHandler(accountService),
			Attendance: attendance.NewHandler(attendanceService),
		})

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("server_shutting_down", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped")
}

// newLimiterStore selects the sliding-window store named by RATE_LIMIT_BACKEND.
func newLimiterStore(cfg *config.Config, pool *pgxpool.Pool, client *redis.Client) (ratelimit.Store, error) {
	switch cfg.RateLimitBackend {
	case config.BackendRedis:
		return ratelimit.NewRedisStore(client), nil
	case config.BackendFile:
		return ratelimit.NewFileStore(cfg.RateLimitDir)
	default:
		return ratelimit.NewPostgresStore(pool), nil
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
