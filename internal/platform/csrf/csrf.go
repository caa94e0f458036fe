// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package csrf validates per-session synchronizer tokens on state-changing requests.

The token is minted with the session at login (see [session.Manager.Issue]) and
returned to the client in the login response and from GET /auth/csrf. Clients
echo it back in one of, by priority:

 1. form field "csrf_token"
 2. JSON body field "csrf_token"
 3. header "X-CSRF-Token"
 4. header "X-CSRF-Protection"

GET, HEAD and OPTIONS are exempt.
*/
package csrf

import (
	"log/slog"
	"net/http"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
	"github.com/taibuivan/staffdesk/internal/platform/ctxutil"
	"github.com/taibuivan/staffdesk/internal/platform/logging"
	"github.com/taibuivan/staffdesk/internal/platform/metrics"
	requestutil "github.com/taibuivan/staffdesk/internal/platform/request"
	"github.com/taibuivan/staffdesk/internal/platform/respond"
	"github.com/taibuivan/staffdesk/internal/platform/sec"
	"github.com/taibuivan/staffdesk/internal/platform/session"
)

const (
	// FieldName is the body field carrying the token.
	FieldName = "csrf_token"
	// HeaderName is the preferred header carrying the token.
	HeaderName = "X-CSRF-Token"
	// LegacyHeaderName is accepted after HeaderName.
	LegacyHeaderName = "X-CSRF-Protection"
)

// Exempt reports whether method never needs a token.
func Exempt(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// Candidate extracts the token the client sent, or "".
func Candidate(request *http.Request) string {
	if token := requestutil.BodyField(request, FieldName); token != "" {
		return token
	}
	if token := request.Header.Get(HeaderName); token != "" {
		return token
	}
	return request.Header.Get(LegacyHeaderName)
}

// Valid reports whether request carries the token of current, compared in
// constant time. A nil session never validates.
func Valid(request *http.Request, current *session.Session) bool {
	if current == nil {
		return false
	}
	return sec.TokensEqual(current.CSRFToken, Candidate(request))
}

/*
Middleware rejects state-changing requests whose token does not match the
session attached to the request context.

Failures answer 403 "CSRF token validation failed" and are logged at SECURITY level.
*/
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if Exempt(request.Method) {
			next.ServeHTTP(writer, request)
			return
		}

		current := ctxutil.GetSession(request.Context())
		if !Valid(request, current) {
			attrs := []any{
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String(logging.AttrIPAddress, requestutil.ClientIP(request)),
			}
			if current != nil {
				attrs = append(attrs, slog.String(logging.AttrUserID, current.UserID))
			}
			logging.Security(request.Context(), ctxutil.GetLogger(request.Context()), "csrf_validation_failed", attrs...)
			metrics.CSRFFailures.Inc()

			respond.Error(writer, request, apperr.Forbidden("CSRF token validation failed"))
			return
		}

		next.ServeHTTP(writer, request)
	})
}
