// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/staffdesk/internal/platform/ratelimit"
)

// clock is a manually advanced time source.
type clock struct{ current time.Time }

func (c *clock) now() time.Time            { return c.current }
func (c *clock) advance(step time.Duration) { c.current = c.current.Add(step) }

func newClock() *clock {
	return &clock{current: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

// stores returns one fresh instance of every non-Postgres store.
func stores(t *testing.T) map[string]ratelimit.Store {
	t.Helper()

	fileStore, err := ratelimit.NewFileStore(t.TempDir())
	require.NoError(t, err)

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]ratelimit.Store{
		"file":  fileStore,
		"redis": ratelimit.NewRedisStore(client),
	}
}

func never() bool { return false }

/*
TestLimiter_RejectsAtLimit verifies the 6th check with limit 5 is rejected and
not recorded.
*/
func TestLimiter_RejectsAtLimit(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClock()
			limiter := ratelimit.New(store, ratelimit.WithClock(c.now), ratelimit.WithPurgeSampler(never))

			for attempt := 1; attempt <= 5; attempt++ {
				assert.True(t, limiter.Check(ctx, "203.0.113.5", "login_attempts", 5, 15*time.Minute), "attempt %d", attempt)
				c.advance(time.Second)
			}
			assert.False(t, limiter.Check(ctx, "203.0.113.5", "login_attempts", 5, 15*time.Minute))

			status := limiter.Status(ctx, "203.0.113.5", "login_attempts", 5, 15*time.Minute)
			assert.Equal(t, 5, status.Current)
			assert.Equal(t, 0, status.Remaining)

			// Other identifiers and buckets are independent.
			assert.True(t, limiter.Check(ctx, "198.51.100.1", "login_attempts", 5, 15*time.Minute))
			assert.True(t, limiter.Check(ctx, "203.0.113.5", "api", 5, 15*time.Minute))
		})
	}
}

/*
TestLimiter_SlidingWindow verifies an event leaves the window exactly when it is
no longer strictly newer than now-window.
*/
func TestLimiter_SlidingWindow(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClock()
			limiter := ratelimit.New(store, ratelimit.WithClock(c.now), ratelimit.WithPurgeSampler(never))

			require.True(t, limiter.Check(ctx, "ip", "bucket", 2, time.Minute))
			c.advance(30 * time.Second)
			require.True(t, limiter.Check(ctx, "ip", "bucket", 2, time.Minute))
			assert.False(t, limiter.Check(ctx, "ip", "bucket", 2, time.Minute))

			// First event sits exactly on the window edge: no longer counted.
			c.advance(30 * time.Second)
			assert.True(t, limiter.Check(ctx, "ip", "bucket", 2, time.Minute))
			assert.False(t, limiter.Check(ctx, "ip", "bucket", 2, time.Minute))
		})
	}
}

/*
TestLimiter_Reset verifies a reset clears prior attempts.
*/
func TestLimiter_Reset(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			limiter := ratelimit.New(store, ratelimit.WithPurgeSampler(never))

			for range 3 {
				limiter.Check(ctx, "ip", "login_attempts", 3, time.Hour)
			}
			require.False(t, limiter.Check(ctx, "ip", "login_attempts", 3, time.Hour))

			require.NoError(t, limiter.Reset(ctx, "login_attempts", "ip"))
			assert.True(t, limiter.Check(ctx, "ip", "login_attempts", 3, time.Hour))
		})
	}
}

/*
TestLimiter_Purge verifies old events are collected when the sampler fires.
*/
func TestLimiter_Purge(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClock()
			purge := false
			limiter := ratelimit.New(store, ratelimit.WithClock(c.now), ratelimit.WithPurgeSampler(func() bool { return purge }))

			require.True(t, limiter.Check(ctx, "old", "bucket", 10, 30*24*time.Hour))
			c.advance(8 * 24 * time.Hour)

			purge = true
			require.True(t, limiter.Check(ctx, "new", "bucket", 10, 30*24*time.Hour))

			count, err := store.Count(ctx, "old", "bucket", c.now().Add(-30*24*time.Hour))
			require.NoError(t, err)
			assert.Zero(t, count)

			count, err = store.Count(ctx, "new", "bucket", c.now().Add(-time.Hour))
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

type brokenStore struct{}

func (brokenStore) Count(context.Context, string, string, time.Time) (int, error) {
	return 0, errors.New("connection refused")
}
func (brokenStore) Record(context.Context, string, string, time.Time) error {
	return errors.New("connection refused")
}
func (brokenStore) Reset(context.Context, string, string) error {
	return errors.New("connection refused")
}
func (brokenStore) Purge(context.Context, time.Time) error {
	return errors.New("connection refused")
}

/*
TestFileStore_SharedDirectory checks that two stores over one directory, as two
server processes would hold, do not lose each other's events.
*/
func TestFileStore_SharedDirectory(t *testing.T) {
	dir := t.TempDir()
	first, err := ratelimit.NewFileStore(dir)
	require.NoError(t, err)
	second, err := ratelimit.NewFileStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	const perStore = 40

	var group sync.WaitGroup
	for _, store := range []*ratelimit.FileStore{first, second} {
		for range perStore {
			group.Add(1)
			go func() {
				defer group.Done()
				assert.NoError(t, store.Record(ctx, "203.0.113.9", "login_attempts", at))
			}()
		}
	}
	group.Wait()

	count, err := first.Count(ctx, "203.0.113.9", "login_attempts", at.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2*perStore, count)
}

/*
TestLimiter_FailOpen verifies a broken store never rejects.
*/
func TestLimiter_FailOpen(t *testing.T) {
	limiter := ratelimit.New(brokenStore{})
	for range 10 {
		assert.True(t, limiter.Check(context.Background(), "ip", "login_attempts", 1, time.Hour))
	}
	assert.Equal(t, 1, limiter.Status(context.Background(), "ip", "login_attempts", 1, time.Hour).Remaining)
}

/*
TestMiddleware verifies headers on admission and the 429 envelope on rejection.
*/
func TestMiddleware(t *testing.T) {
	store, err := ratelimit.NewFileStore(t.TempDir())
	require.NoError(t, err)
	limiter := ratelimit.New(store, ratelimit.WithPurgeSampler(never))

	handler := ratelimit.Middleware(limiter, "api", 2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func() *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/today", nil)
		request.RemoteAddr = "192.0.2.44:5000"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	first := serve()
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusNoContent, serve().Code)

	rejected := serve()
	assert.Equal(t, http.StatusTooManyRequests, rejected.Code)
	assert.Equal(t, "60", rejected.Header().Get("Retry-After"))
	assert.Contains(t, rejected.Body.String(), `"code":"TOO_MANY_REQUESTS"`)
	assert.Contains(t, rejected.Body.String(), "Rate limit exceeded for api. Please try again later.")
}
