// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
	"github.com/taibuivan/staffdesk/internal/platform/ctxutil"
	"github.com/taibuivan/staffdesk/internal/platform/logging"
	"github.com/taibuivan/staffdesk/internal/platform/respond"
	"github.com/taibuivan/staffdesk/internal/platform/sec"
	"github.com/taibuivan/staffdesk/internal/platform/session"
)

// SessionLoader resolves the session cookie of a request.
//
// Defined here so the middleware can be tested without Redis.
type SessionLoader interface {
	ReadCookie(request *http.Request) string
	Load(ctx context.Context, id string) (*session.Session, error)
}

/*
LoadSession attaches the caller's session to the context when the cookie is
valid. Anonymous requests proceed unchanged.

A session store outage is logged and the request proceeds as anonymous, so
public endpoints keep working; protected routes then answer 401.
*/
func LoadSession(loader SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			id := loader.ReadCookie(request)
			if id == "" {
				next.ServeHTTP(writer, request)
				return
			}

			current, err := loader.Load(request.Context(), id)
			if err != nil {
				if !session.IsNotFound(err) {
					ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "session_load_failed",
						slog.Any("error", err),
					)
				}
				next.ServeHTTP(writer, request)
				return
			}

			ctx := ctxutil.WithSession(request.Context(), current)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String(logging.AttrUserID, current.UserID)))
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [LoadSession].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetSession(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests if the authenticated user doesn't have the required role.
//
// It implies [RequireAuth] so you don't need to mount both.
func RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			current := ctxutil.GetSession(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if current == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !current.Role.AtLeast(role) {
				logging.Security(request.Context(), ctxutil.GetLogger(request.Context()), "role_check_failed",
					slog.String("required", string(role)),
					slog.String("actual", string(current.Role)),
				)
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
