// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/staffdesk/internal/platform/middleware"
	"github.com/taibuivan/staffdesk/internal/platform/ratelimit"
	"github.com/taibuivan/staffdesk/internal/platform/sec"
	"github.com/taibuivan/staffdesk/internal/platform/session"
	"github.com/taibuivan/staffdesk/internal/users/auth"
)

type envelope struct {
	Success bool                         `json:"success"`
	Code    string                       `json:"code"`
	Message string                       `json:"message"`
	Data    map[string]any               `json:"data"`
	Errors  map[string]map[string]string `json:"errors"`
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

// newRouter wires the handler behind the session loader with a real session
// manager on miniredis.
func newRouter(t *testing.T) (http.Handler, *fixture) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	manager, err := session.NewManager(session.NewRedisStore(client), session.Options{
		Secret:      "test-session-secret-with-32-bytes!!",
		IdleTimeout: time.Hour,
	})
	require.NoError(t, err)

	limiter := ratelimit.New(ratelimit.NewRedisStore(client), ratelimit.WithPurgeSampler(func() bool { return false }))
	tokens, err := sec.NewTokenService("0123456789abcdef0123456789abcdef", "staffdesk")
	require.NoError(t, err)

	f := &fixture{
		users:     newMemoryUsers(),
		activity:  &memoryActivity{},
		resets:    &memoryResetTokens{tokens: map[string]string{}},
		employees: &fakeEmployees{},
		notifier:  &captureNotifier{},
	}
	f.service = auth.NewService(auth.Dependencies{
		Users:       f.users,
		Activity:    f.activity,
		ResetTokens: f.resets,
		Sessions:    manager,
		Limiter:     limiter,
		Tokens:      tokens,
		Employees:   f.employees,
		Unique:      f.users,
		Notifier:    f.notifier,
	}, auth.Options{Login: auth.Policy{Limit: 5, Window: 15 * time.Minute}})

	router := chi.NewRouter()
	router.Use(middleware.LoadSession(manager))
	router.Route("/api/v1", auth.NewHandler(f.service, manager).RegisterRoutes)
	return router, f
}

func sessionCookie(recorder *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == session.CookieName {
			return cookie
		}
	}
	return nil
}

/*
TestHandler_LoginLogout drives a form login, a CSRF-rejected logout and a
successful logout through the router.
*/
func TestHandler_LoginLogout(t *testing.T) {
	router, f := newRouter(t)
	f.seed(t, "0192f2a4-7b1e-7c3d-8e4f-a1b2c3d4e5f6", "jane", sec.RoleManager, auth.StatusActive)

	// Login with a form-encoded body.
	form := url.Values{"username": {"jane"}, "password": {testPassword}}
	request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	body := decodeEnvelope(t, recorder)
	assert.True(t, body.Success)
	assert.Equal(t, "SUCCESS", body.Code)
	assert.Equal(t, "employee_list.html", body.Data["redirect"])
	csrfToken, _ := body.Data["csrf_token"].(string)
	require.NotEmpty(t, csrfToken)

	cookie := sessionCookie(recorder)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	// Logout without the token is refused.
	request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	request.AddCookie(cookie)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Equal(t, "CSRF token validation failed", decodeEnvelope(t, recorder).Message)

	// The session is still alive.
	request = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	request.AddCookie(cookie)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)

	// Logout with the token.
	request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	request.AddCookie(cookie)
	request.Header.Set("X-CSRF-Token", csrfToken)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	cleared := sessionCookie(recorder)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)

	// The old cookie no longer authenticates.
	request = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	request.AddCookie(cookie)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

/*
TestHandler_LoginValidationEnvelope checks the 422 envelope shape.
*/
func TestHandler_LoginValidationEnvelope(t *testing.T) {
	router, _ := newRouter(t)

	request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"","password":"x"}`))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	body := decodeEnvelope(t, recorder)
	assert.False(t, body.Success)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Equal(t, "This field is required", body.Errors["username"]["required"])
	assert.Equal(t, "Must be at least 8 characters long", body.Errors["password"]["minLength"])
}

/*
TestHandler_MalformedJSON checks the 400 envelope for unreadable bodies.
*/
func TestHandler_MalformedJSON(t *testing.T) {
	router, _ := newRouter(t)

	request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"username":`))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "ERROR", decodeEnvelope(t, recorder).Code)
}

/*
TestHandler_LoginBucketIgnoresForwardingHeaders checks that rotating Client-IP and
X-Forwarded-For values from one connection address still reach the login limit.
*/
func TestHandler_LoginBucketIgnoresForwardingHeaders(t *testing.T) {
	router, f := newRouter(t)
	f.seed(t, "0192f2a4-7b1e-7c3d-8e4f-a1b2c3d4e5f6", "jane", sec.RoleEmployee, auth.StatusActive)

	codes := make([]int, 0, 6)
	for attempt := range 6 {
		request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
			strings.NewReader(`{"username":"jane","password":"Wrong!Pass1"}`))
		request.Header.Set("Content-Type", "application/json")
		request.RemoteAddr = "198.51.100.7:40000"
		request.Header.Set("Client-IP", fmt.Sprintf("10.0.0.%d", attempt+1))
		request.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.1.%d", attempt+1))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		codes = append(codes, recorder.Code)
	}

	assert.Equal(t, []int{401, 401, 401, 401, 401, 429}, codes)
}
