// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ratelimit implements a sliding-window limiter keyed by (identifier, bucket).

Every admitted event is stored with its own timestamp. A check counts the events
strictly newer than now-window, so there are no fixed-interval edges to burst across.

Semantics shared by every [Store]:

  - Check: count >= limit rejects without recording; otherwise records now and admits.
  - Fail open: any store error admits the request and is logged at ERROR.
  - Purge: roughly one successful check in a hundred deletes events older than seven days.

Count and record are two separate store calls. Two concurrent requests can both
observe "under limit" before either records, overshooting the limit by the
number of racing requests. This is accepted.
*/
package ratelimit

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/taibuivan/staffdesk/internal/platform/ctxutil"
	"github.com/taibuivan/staffdesk/internal/platform/metrics"
)

const (
	// PurgeHorizon is the age beyond which events are garbage collected.
	PurgeHorizon = 7 * 24 * time.Hour

	// purgeOneIn is the inverse probability of a purge after a recorded event.
	purgeOneIn = 100
)

// Limiter evaluates sliding-window policies against a [Store].
type Limiter struct {
	store       Store
	now         func() time.Time
	shouldPurge func() bool
}

// Option customizes a [Limiter].
type Option func(*Limiter)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(limiter *Limiter) { limiter.now = now }
}

// WithPurgeSampler replaces the 1-in-100 purge decision.
func WithPurgeSampler(sample func() bool) Option {
	return func(limiter *Limiter) { limiter.shouldPurge = sample }
}

// New builds a Limiter over store.
func New(store Store, options ...Option) *Limiter {
	limiter := &Limiter{
		store:       store,
		now:         time.Now,
		shouldPurge: func() bool { return rand.IntN(purgeOneIn) == 0 },
	}
	for _, option := range options {
		option(limiter)
	}
	return limiter
}

/*
Check admits or rejects one event for (identifier, bucket).

Parameters:
  - ctx: request context, also the source of the per-request logger
  - identifier: caller key, usually the client IP
  - bucket: action category, e.g. "login_attempts"
  - limit: maximum events inside the window
  - window: sliding window length

Returns:
  - bool: true when admitted (and recorded), false when the limit is reached
*/
func (limiter *Limiter) Check(ctx context.Context, identifier, bucket string, limit int, window time.Duration) bool {
	logger := ctxutil.GetLogger(ctx)
	current := limiter.now()

	count, err := limiter.store.Count(ctx, identifier, bucket, current.Add(-window))
	if err != nil {
		limiter.failOpen(ctx, logger, "rate_limit_count_failed", identifier, bucket, err)
		return true
	}

	if count >= limit {
		logger.WarnContext(ctx, "rate_limit_exceeded",
			slog.String("identifier", identifier),
			slog.String("bucket", bucket),
			slog.Int("count", count),
			slog.Int("limit", limit),
		)
		metrics.RateLimitRejections.WithLabelValues(bucket).Inc()
		return false
	}

	if err := limiter.store.Record(ctx, identifier, bucket, current); err != nil {
		limiter.failOpen(ctx, logger, "rate_limit_record_failed", identifier, bucket, err)
		return true
	}

	if limiter.shouldPurge() {
		if err := limiter.store.Purge(ctx, current.Add(-PurgeHorizon)); err != nil {
			logger.ErrorContext(ctx, "rate_limit_purge_failed", slog.Any("error", err))
		}
	}

	return true
}

func (limiter *Limiter) failOpen(ctx context.Context, logger *slog.Logger, event, identifier, bucket string, err error) {
	logger.ErrorContext(ctx, event,
		slog.String("identifier", identifier),
		slog.String("bucket", bucket),
		slog.Any("error", err),
	)
	metrics.RateLimitStoreErrors.WithLabelValues(bucket).Inc()
}

// Reset deletes every event for (identifier, bucket).
func (limiter *Limiter) Reset(ctx context.Context, bucket, identifier string) error {
	return limiter.store.Reset(ctx, identifier, bucket)
}

// Status is a read-only view of one key's window.
type Status struct {
	Current   int
	Limit     int
	Remaining int
	// ResetAt is when the window is guaranteed to be empty if no new events arrive.
	ResetAt time.Time
}

// Status reports usage for (identifier, bucket) without recording anything.
// A store error reports an empty window.
func (limiter *Limiter) Status(ctx context.Context, identifier, bucket string, limit int, window time.Duration) Status {
	current := limiter.now()
	count, err := limiter.store.Count(ctx, identifier, bucket, current.Add(-window))
	if err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "rate_limit_status_failed",
			slog.String("bucket", bucket),
			slog.Any("error", err),
		)
		count = 0
	}
	return Status{
		Current:   count,
		Limit:     limit,
		Remaining: max(0, limit-count),
		ResetAt:   current.Add(window),
	}
}
