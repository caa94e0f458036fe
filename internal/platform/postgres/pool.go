// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgres provides the managed PostgreSQL connection pool.
//
// # Architecture
//
// The pool is built once at startup and injected into every repository. The
// initial connection is retried with bounded exponential backoff; when every
// attempt fails the caller receives a [ConnectionError] instead of the process
// exiting from inside the library.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"

	"github.com/taibuivan/staffdesk/internal/platform/constants"
)

// Opinionated pool settings for the Staffdesk workload.
const (
	// maxConns is the maximum number of connections in the pool.
	maxConns = 20
	// minConns keeps a warm set of connections to avoid cold-start latency.
	minConns = 2
	// maxConnLifetime ensures connections are periodically recycled.
	maxConnLifetime = 60 * time.Minute
	// maxConnIdleTime closes connections that have been idle too long.
	maxConnIdleTime = 10 * time.Minute
	// healthCheckPeriod is the frequency of background connection health checks.
	healthCheckPeriod = 1 * time.Minute
	// connectTimeout is the maximum time allowed to establish a new connection.
	connectTimeout = 5 * time.Second
	// pingTimeout is the maximum duration for a health check ping.
	pingTimeout = 2 * time.Second

	// connectAttempts and connectBackoff bound the startup retry loop.
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
)

// ConnectionError reports that the database stayed unreachable after every attempt.
type ConnectionError struct {
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("postgres: unreachable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

/*
NewPool creates and validates a new PostgreSQL connection pool.

Parameters:
  - ctx: Context bounding the whole retry loop.
  - dsn: A libpq-compatible connection string or postgres:// URL.
  - logger: Structured logger for pool-level events.

Returns:
  - *pgxpool.Pool: a pool that answered Ping
  - error: a DSN parse error, or *ConnectionError once retries are exhausted
*/
func NewPool(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid DSN: %w", err)
	}

	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = minConns
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout

	// Per-connection statement timeout so a runaway query cannot outlive its request.
	poolConfig.AfterConnect = func(ctx context.Context, connection *pgx.Conn) error {
		timeoutQuery := fmt.Sprintf("SET statement_timeout = '%ds'", int(constants.GlobalRequestTimeout.Seconds()))
		_, err := connection.Exec(ctx, timeoutQuery)
		return err
	}

	var pool *pgxpool.Pool
	attempt := 0
	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewExponential(connectBackoff))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		candidate, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return fmt.Errorf("postgres: failed to create pool: %w", err)
		}
		if err := Ping(ctx, candidate); err != nil {
			candidate.Close()
			logger.Warn("postgres_connect_retry",
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
			return retry.RetryableError(err)
		}

		pool = candidate
		return nil
	})
	if err != nil {
		return nil, &ConnectionError{Attempts: attempt, Err: err}
	}

	stats := pool.Stat()
	logger.Info("postgres_pool_connected",
		slog.Int("attempts", attempt),
		slog.Int("max_conns", int(stats.MaxConns())),
		slog.Int("total_conns", int(stats.TotalConns())),
	)

	return pool, nil
}

// Ping verifies that the PostgreSQL connection pool is healthy.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}

	return nil
}
