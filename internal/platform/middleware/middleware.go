// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package middleware provides the cross-cutting HTTP processing chain.

It acts as a series of decorators around the standard http.Handler, injecting
traceability, safety, and security into every request lifecycle.

Standard Stack:

  - Trace: RequestID generation and client IP resolution.
  - Log: Structured activity logging (slog) and Prometheus request metrics.
  - Guard: Security headers, CORS and the in-memory burst guard.
  - Safe: Panic recovery to prevent server crashes.
  - Identity: Session loading, RequireAuth and RequireRole.
*/
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
	"github.com/taibuivan/staffdesk/internal/platform/constants"
	"github.com/taibuivan/staffdesk/internal/platform/ctxutil"
	"github.com/taibuivan/staffdesk/internal/platform/logging"
	"github.com/taibuivan/staffdesk/internal/platform/metrics"
	requestutil "github.com/taibuivan/staffdesk/internal/platform/request"
	"github.com/taibuivan/staffdesk/internal/platform/respond"
)

// # Request Tracing

// RequestID attaches a correlation ID to every request for log tracing.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Check if the client already provided an ID
			requestID := request.Header.Get(constants.HeaderXRequestID)

			// 2. Generate a new one if missing (UUID v7 for time-sortable properties)
			if requestID == "" || len(requestID) > 64 {
				uuidV7, err := uuid.NewV7()
				if err != nil {
					requestID = uuid.New().String()
				} else {
					requestID = uuidV7.String()
				}
			}

			// 3. Inject into context and response headers
			ctx := ctxutil.WithRequestID(request.Context(), requestID)
			writer.Header().Set(constants.HeaderXRequestID, requestID)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// ClientIP resolves the caller address once and stores it in the context.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := ctxutil.WithClientIP(request.Context(), requestutil.ClientIP(request))
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// # Activity Logging

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.ResponseWriter.WriteHeader(code)
}

// StructuredLogger logs every request status and latency, records request
// metrics, and injects a request-specific logger into the context.
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			startTime := time.Now()

			// 1. Create a sub-logger for this specific request
			requestLogger := logger.With(
				slog.String("request_id", ctxutil.GetRequestID(request.Context())),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String(logging.AttrIPAddress, ctxutil.GetClientIP(request.Context())),
			)

			// 2. Inject this logger into the context for downstream use
			ctx := ctxutil.WithLogger(request.Context(), requestLogger)
			wrappedWriter := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}

			// 3. Proceed to downstream handlers with the enriched context
			next.ServeHTTP(wrappedWriter, request.WithContext(ctx))

			// 4. Final log entry after the request is finished
			latency := time.Since(startTime)
			logLevel := slog.LevelInfo
			if wrappedWriter.status >= 500 {
				logLevel = slog.LevelError
			}

			route := "unmatched"
			if routeContext := chi.RouteContext(ctx); routeContext != nil && routeContext.RoutePattern() != "" {
				route = routeContext.RoutePattern()
			}
			metrics.HTTPRequests.WithLabelValues(route, request.Method, strconv.Itoa(wrappedWriter.status)).Inc()
			metrics.HTTPDuration.WithLabelValues(route).Observe(latency.Seconds())

			requestLogger.Log(ctx, logLevel, "http_request_finished",
				slog.Int("status", wrappedWriter.status),
				slog.Int64("latency_ms", latency.Milliseconds()),
				slog.String("user_agent", request.UserAgent()),
			)
		})
	}
}

// # Burst Guard

type burstClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

/*
BurstGuard throttles floods per IP with an in-memory token bucket.

It runs in front of the persistent sliding-window limiter so a single client
cannot hammer the rate-limit store itself. Entries idle for longer than
[constants.BurstGuardClientTTL] are dropped by a janitor goroutine that stops
when ctx is cancelled.
*/
func BurstGuard(ctx context.Context, perSecond float64, burst int) func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		clients = make(map[string]*burstClient)
	)

	go func() {
		ticker := time.NewTicker(constants.BurstGuardCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				mu.Lock()
				for ip, client := range clients {
					if time.Since(client.lastSeen) > constants.BurstGuardClientTTL {
						delete(clients, ip)
					}
				}
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			clientIP := ctxutil.GetClientIP(request.Context())

			mu.Lock()
			client, found := clients[clientIP]
			if !found {
				client = &burstClient{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
				clients[clientIP] = client
			}
			client.lastSeen = time.Now()
			allowed := client.limiter.Allow()
			mu.Unlock()

			if !allowed {
				respond.Error(writer, request, apperr.TooManyRequests("Too many requests. Please slow down."))
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// # Reliability & Safety

// PanicRecovery recovers from panics, logs stack trace, and returns 500.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}

				stackTrace := make([]byte, 4096)
				length := runtime.Stack(stackTrace, false)

				logging.Critical(request.Context(), ctxutil.GetLogger(request.Context()), "panic_recovered",
					slog.Any("error", err),
					slog.String("stack", string(stackTrace[:length])),
				)

				respond.Failure(writer, apperr.Internal(nil))
			}
		}()

		next.ServeHTTP(writer, request)
	})
}

// # Cross-Origin Resource Sharing

/*
CORS allows credentialed requests from the configured origins.

In development every origin is allowed. Pre-flight requests from allowed
origins are answered with 204 and never reach the router.
*/
func CORS(allowedOrigins []string, development bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			origin := request.Header.Get(constants.HeaderOrigin)
			if origin == "" {
				next.ServeHTTP(writer, request)
				return
			}

			header := writer.Header()
			header.Add("Vary", constants.HeaderOrigin)

			if !development && !slices.Contains(allowedOrigins, origin) {
				next.ServeHTTP(writer, request)
				return
			}

			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-CSRF-Token, X-Requested-With, X-Request-ID")
			header.Set("Access-Control-Expose-Headers", "X-Request-ID, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset")
			header.Set("Access-Control-Allow-Credentials", "true")
			header.Set("Access-Control-Max-Age", "300")

			if request.Method == http.MethodOptions {
				writer.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
