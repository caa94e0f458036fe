// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package csrf_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/staffdesk/internal/platform/csrf"
	"github.com/taibuivan/staffdesk/internal/platform/ctxutil"
	"github.com/taibuivan/staffdesk/internal/platform/sec"
	"github.com/taibuivan/staffdesk/internal/platform/session"
)

func issue(t *testing.T, userID string) *session.Session {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	manager, err := session.NewManager(session.NewRedisStore(client), session.Options{
		Secret:      "csrf-test-secret-0123456789abcdef",
		IdleTimeout: time.Hour,
	})
	require.NoError(t, err)

	issued, err := manager.Issue(context.Background(), "", session.Identity{UserID: userID, Role: sec.RoleEmployee}, false)
	require.NoError(t, err)
	return issued
}

func protected() http.Handler {
	return csrf.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func serve(request *http.Request, current *session.Session) *httptest.ResponseRecorder {
	if current != nil {
		request = request.WithContext(ctxutil.WithSession(request.Context(), current))
	}
	recorder := httptest.NewRecorder()
	protected().ServeHTTP(recorder, request)
	return recorder
}

/*
TestMiddleware_RoundTrip verifies a freshly issued token validates on the next
state-changing request, whichever transport carries it.
*/
func TestMiddleware_RoundTrip(t *testing.T) {
	current := issue(t, "user-1")

	t.Run("header", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		request.Header.Set(csrf.HeaderName, current.CSRFToken)
		assert.Equal(t, http.StatusNoContent, serve(request, current).Code)
	})

	t.Run("legacy_header", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		request.Header.Set(csrf.LegacyHeaderName, current.CSRFToken)
		assert.Equal(t, http.StatusNoContent, serve(request, current).Code)
	})

	t.Run("json_body", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/clock-in",
			strings.NewReader(`{"csrf_token":"`+current.CSRFToken+`"}`))
		request.Header.Set("Content-Type", "application/json")
		assert.Equal(t, http.StatusNoContent, serve(request, current).Code)
	})

	t.Run("form_field", func(t *testing.T) {
		form := url.Values{"csrf_token": {current.CSRFToken}}
		request := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/clock-in", strings.NewReader(form.Encode()))
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		assert.Equal(t, http.StatusNoContent, serve(request, current).Code)
	})
}

/*
TestMiddleware_CrossSession verifies a token from session S1 fails against S2.
*/
func TestMiddleware_CrossSession(t *testing.T) {
	first := issue(t, "user-1")
	second := issue(t, "user-2")

	request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	request.Header.Set(csrf.HeaderName, first.CSRFToken)

	recorder := serve(request, second)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "CSRF token validation failed")
}

/*
TestMiddleware_Rejections covers missing tokens and missing sessions.
*/
func TestMiddleware_Rejections(t *testing.T) {
	current := issue(t, "user-1")

	missing := httptest.NewRequest(http.MethodDelete, "/api/v1/users/1", nil)
	assert.Equal(t, http.StatusForbidden, serve(missing, current).Code)

	anonymous := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	anonymous.Header.Set(csrf.HeaderName, current.CSRFToken)
	assert.Equal(t, http.StatusForbidden, serve(anonymous, nil).Code)
}

/*
TestMiddleware_ExemptMethods verifies safe methods pass without a token.
*/
func TestMiddleware_ExemptMethods(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		request := httptest.NewRequest(method, "/api/v1/auth/me", nil)
		assert.Equal(t, http.StatusNoContent, serve(request, nil).Code, method)
	}
}
