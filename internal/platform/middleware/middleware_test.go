// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/staffdesk/internal/platform/ctxutil"
	"github.com/taibuivan/staffdesk/internal/platform/middleware"
	"github.com/taibuivan/staffdesk/internal/platform/sec"
	"github.com/taibuivan/staffdesk/internal/platform/session"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

/*
TestSecurityHeaders verifies the hardening headers and TLS-only HSTS.
*/
func TestSecurityHeaders(t *testing.T) {
	handler := middleware.SecurityHeaders(noContent)

	plain := httptest.NewRecorder()
	handler.ServeHTTP(plain, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", plain.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", plain.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-cache", plain.Header().Get("Pragma"))
	assert.Contains(t, plain.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Empty(t, plain.Header().Get("Strict-Transport-Security"))

	secure := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.TLS = &tls.ConnectionState{}
	handler.ServeHTTP(secure, request)
	assert.Equal(t, "max-age=31536000; includeSubDomains", secure.Header().Get("Strict-Transport-Security"))
}

/*
TestCORS verifies the allow-list and pre-flight handling.
*/
func TestCORS(t *testing.T) {
	handler := middleware.CORS([]string{"https://hr.example.com"}, false)(noContent)

	preflight := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
	preflight.Header.Set("Origin", "https://hr.example.com")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, preflight)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "https://hr.example.com", recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", recorder.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, recorder.Header().Get("Access-Control-Allow-Headers"), "X-CSRF-Token")

	foreign := httptest.NewRequest(http.MethodGet, "/", nil)
	foreign.Header.Set("Origin", "https://evil.example.net")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, foreign)
	assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
}

type fakeLoader struct {
	sessions map[string]*session.Session
	err      error
}

func (loader fakeLoader) ReadCookie(request *http.Request) string {
	cookie, err := request.Cookie(session.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (loader fakeLoader) Load(_ context.Context, id string) (*session.Session, error) {
	if loader.err != nil {
		return nil, loader.err
	}
	if current, ok := loader.sessions[id]; ok {
		return current, nil
	}
	return nil, session.ErrNotFound
}

/*
TestLoadSession_RequireRole verifies session resolution and role gating.
*/
func TestLoadSession_RequireRole(t *testing.T) {
	loader := fakeLoader{sessions: map[string]*session.Session{
		"admin":    {ID: "admin", UserID: "u-admin", Role: sec.RoleAdmin},
		"employee": {ID: "employee", UserID: "u-emp", Role: sec.RoleEmployee},
	}}
	handler := middleware.LoadSession(loader)(middleware.RequireRole(sec.RoleManager)(noContent))

	tests := []struct {
		name   string
		cookie string
		want   int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"unknown_session", "stale", http.StatusUnauthorized},
		{"insufficient_role", "employee", http.StatusForbidden},
		{"admin", "admin", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
			if tt.cookie != "" {
				request.AddCookie(&http.Cookie{Name: session.CookieName, Value: tt.cookie})
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)
			assert.Equal(t, tt.want, recorder.Code)
		})
	}
}

/*
TestLoadSession_StoreDown verifies a session store outage degrades to anonymous.
*/
func TestLoadSession_StoreDown(t *testing.T) {
	var seen bool
	handler := middleware.LoadSession(fakeLoader{err: errors.New("redis down")})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxutil.GetSession(r.Context()) == nil
		w.WriteHeader(http.StatusOK)
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: session.CookieName, Value: "anything"})
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, seen)
}

/*
TestPanicRecovery verifies panics become a generic 500 envelope.
*/
func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"code":"SERVER_ERROR"`)
	assert.NotContains(t, recorder.Body.String(), "boom")
}

/*
TestBurstGuard verifies the token bucket per client IP.
*/
func TestBurstGuard(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.ClientIP(middleware.BurstGuard(ctx, 0.001, 2)(noContent))

	serve := func(remote string) int {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.RemoteAddr = remote
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder.Code
	}

	assert.Equal(t, http.StatusNoContent, serve("192.0.2.1:1"))
	assert.Equal(t, http.StatusNoContent, serve("192.0.2.1:2"))
	assert.Equal(t, http.StatusTooManyRequests, serve("192.0.2.1:3"))
	assert.Equal(t, http.StatusNoContent, serve("192.0.2.2:1"))
}

/*
TestRequestID verifies generation and propagation of the correlation header.
*/
func TestRequestID(t *testing.T) {
	var fromContext string
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromContext = ctxutil.GetRequestID(r.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, fromContext)
	assert.Equal(t, fromContext, recorder.Header().Get("X-Request-ID"))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("X-Request-ID", "upstream-id")
	handler.ServeHTTP(httptest.NewRecorder(), request)
	assert.Equal(t, "upstream-id", fromContext)
}
