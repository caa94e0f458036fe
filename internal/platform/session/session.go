// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session manages server-side login sessions.

A session is an opaque random identifier carried in a signed, HTTP-only cookie.
The identifier points at a record in Redis holding the user summary and the
session's CSRF token.

Lifecycle:

  - Issue: called once all login checks pass. Always mints a new identifier and a
    new CSRF token, deleting the caller's previous session and the user's other
    active session (at most one active session per user).
  - Load: resolves a cookie to a record, enforcing the inactivity timeout and
    sliding it forward.
  - Destroy: logout or account deactivation.
*/
package session

import (
	"context"
	"errors"
	"time"

	"github.com/taibuivan/staffdesk/internal/platform/sec"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session: not found")

// tokenBytes is the entropy of session identifiers and CSRF tokens.
const tokenBytes = 32

// Session is the server-side state of one login.
type Session struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	Role         sec.UserRole `json:"role"`
	CSRFToken    string       `json:"csrf_token"`
	LoginAt      time.Time    `json:"login_at"`
	LastActivity time.Time    `json:"last_activity"`
	Remember     bool         `json:"remember"`
}

// Identity is the user summary written into a new session.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   sec.UserRole
}

// Store persists sessions and the per-user active pointer.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error

	// Touch rewrites session and slides both TTLs, but only while the record
	// exists and is the user's active session. Otherwise it returns ErrNotFound.
	Touch(ctx context.Context, session *Session, ttl time.Duration) error

	// ActiveID returns the user's active session id, or "" when none.
	ActiveID(ctx context.Context, userID string) (string, error)
	SetActive(ctx context.Context, userID, id string, ttl time.Duration) error
	ClearActive(ctx context.Context, userID string) error
}
