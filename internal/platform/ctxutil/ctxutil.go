// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/staffdesk/internal/platform/ctxkey"
	"github.com/taibuivan/staffdesk/internal/platform/session"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// WithClientIP returns a new context carrying the resolved client IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyClientIP, ip)
}

// GetClientIP retrieves the client IP, or "unknown" when none was resolved.
func GetClientIP(ctx context.Context) string {
	ip, ok := ctx.Value(ctxkey.KeyClientIP).(string)
	if !ok || ip == "" {
		return "unknown"
	}
	return ip
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithSession returns a new context with the authenticated session attached.
func WithSession(ctx context.Context, current *session.Session) context.Context {
	return context.WithValue(ctx, ctxkey.KeySession, current)
}

// GetSession retrieves the [*session.Session] from the context, or nil.
func GetSession(ctx context.Context) *session.Session {
	current, ok := ctx.Value(ctxkey.KeySession).(*session.Session)
	if !ok {
		return nil
	}
	return current
}
