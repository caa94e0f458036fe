// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides a managed client for volatile data storage.

Staffdesk keeps login sessions, password reset tokens and (optionally) the
sliding-window rate-limit sets in Redis. All of them expire on their own.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

// Opinionated default timeouts for Redis operations.
const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second

	connectAttempts = 5
	connectBackoff  = 250 * time.Millisecond
)

/*
NewClient parses a Redis URL and returns a client that answered PING.

Parameters:
  - context: Context bounding the startup retry loop.
  - redisURL: Redis connection URL.
  - logger: Structured logger for connection events.
*/
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	options.PoolSize = 10
	options.MinIdleConns = 2
	options.MaxIdleConns = 5

	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewExponential(connectBackoff))
	if err := retry.Do(context, backoff, func(context stdctx.Context) error {
		if err := Ping(context, client); err != nil {
			logger.Warn("redis_connect_retry", slog.Any("error", err))
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", options.Addr),
		slog.Int("pool_size", options.PoolSize),
	)

	return client, nil
}

// Ping verifies that the Redis client is healthy.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}
