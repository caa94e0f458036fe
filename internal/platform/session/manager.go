// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/taibuivan/staffdesk/internal/platform/sec"
)

// CookieName is the name of the session cookie.
const CookieName = "staffdesk_session"

// Options configures a [Manager].
type Options struct {
	// Secret signs and encrypts the cookie value. Must be 32 or more bytes.
	Secret string
	// Secure sets the Secure attribute on the cookie.
	Secure bool
	// IdleTimeout expires a session after this much inactivity.
	IdleTimeout time.Duration
	// RememberTTL is the lifetime of a "remember me" session.
	RememberTTL time.Duration
}

// Manager issues, loads and destroys sessions and owns the cookie format.
type Manager struct {
	store   Store
	codec   *securecookie.SecureCookie
	options Options
	now     func() time.Time
}

// NewManager builds a Manager over store.
func NewManager(store Store, options Options) (*Manager, error) {
	if len(options.Secret) < 32 {
		return nil, fmt.Errorf("session: secret must be at least 32 bytes, got %d", len(options.Secret))
	}

	// Derive independent hash and block keys from the one configured secret.
	hashKey := []byte(sec.HashToken("hash:" + options.Secret))
	blockKey := []byte(sec.HashToken("block:" + options.Secret))[:32]

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(max(options.IdleTimeout, options.RememberTTL) / time.Second))

	return &Manager{store: store, codec: codec, options: options, now: time.Now}, nil
}

// SetClock replaces the manager's time source.
func (manager *Manager) SetClock(now func() time.Time) {
	manager.now = now
}

func (manager *Manager) ttl(session *Session) time.Duration {
	if session.Remember && manager.options.RememberTTL > 0 {
		return manager.options.RememberTTL
	}
	return manager.options.IdleTimeout
}

// # Lifecycle

/*
Issue creates a fresh session for identity.

The previous session carried by the request (previousID, may be empty) and the
user's other active session are deleted first, so the returned identifier is
never one an attacker could have planted.

Returns:
  - *Session: the stored session including a new CSRF token
  - error: token generation or store failures
*/
func (manager *Manager) Issue(context context.Context, previousID string, identity Identity, remember bool) (*Session, error) {
	if previousID != "" {
		if err := manager.store.Delete(context, previousID); err != nil {
			return nil, err
		}
	}

	activeID, err := manager.store.ActiveID(context, identity.UserID)
	if err != nil {
		return nil, err
	}
	if activeID != "" {
		if err := manager.store.Delete(context, activeID); err != nil {
			return nil, err
		}
	}

	id, err := sec.GenerateSecureToken(tokenBytes)
	if err != nil {
		return nil, err
	}
	csrfToken, err := sec.GenerateSecureToken(tokenBytes)
	if err != nil {
		return nil, err
	}

	issuedAt := manager.now()
	session := &Session{
		ID:           id,
		UserID:       identity.UserID,
		Email:        identity.Email,
		Name:         identity.Name,
		Role:         identity.Role,
		CSRFToken:    csrfToken,
		LoginAt:      issuedAt,
		LastActivity: issuedAt,
		Remember:     remember,
	}

	ttl := manager.ttl(session)
	if err := manager.store.Save(context, session, ttl); err != nil {
		return nil, err
	}
	if err := manager.store.SetActive(context, identity.UserID, id, ttl); err != nil {
		return nil, err
	}
	return session, nil
}

/*
Load resolves a session id and slides its inactivity window forward.

Returns [ErrNotFound] when the session is missing, idle for longer than the
timeout, or has been superseded by a newer login of the same user.
*/
func (manager *Manager) Load(context context.Context, id string) (*Session, error) {
	session, err := manager.store.Get(context, id)
	if err != nil {
		return nil, err
	}

	current := manager.now()
	if current.Sub(session.LastActivity) > manager.ttl(session) {
		_ = manager.store.Delete(context, id)
		return nil, ErrNotFound
	}

	session.LastActivity = current
	if err := manager.store.Touch(context, session, manager.ttl(session)); err != nil {
		if IsNotFound(err) {
			_ = manager.store.Delete(context, id)
		}
		return nil, err
	}
	return session, nil
}

// Destroy removes session and, when it is still the user's active one, the pointer.
func (manager *Manager) Destroy(context context.Context, session *Session) error {
	if err := manager.store.Delete(context, session.ID); err != nil {
		return err
	}
	activeID, err := manager.store.ActiveID(context, session.UserID)
	if err != nil {
		return err
	}
	if activeID == session.ID {
		return manager.store.ClearActive(context, session.UserID)
	}
	return nil
}

// DestroyUser ends whatever session userID currently holds.
func (manager *Manager) DestroyUser(context context.Context, userID string) error {
	activeID, err := manager.store.ActiveID(context, userID)
	if err != nil {
		return err
	}
	if activeID == "" {
		return nil
	}
	if err := manager.store.Delete(context, activeID); err != nil {
		return err
	}
	return manager.store.ClearActive(context, userID)
}

// # Cookie Transport

// WriteCookie sets the signed session cookie. Non-remembered sessions get a
// browser-session cookie.
func (manager *Manager) WriteCookie(writer http.ResponseWriter, session *Session) error {
	encoded, err := manager.codec.Encode(CookieName, session.ID)
	if err != nil {
		return fmt.Errorf("session_cookie_encode_failed: %w", err)
	}

	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   manager.options.Secure,
		SameSite: http.SameSiteStrictMode,
	}
	if session.Remember {
		cookie.MaxAge = int(manager.ttl(session) / time.Second)
	}
	http.SetCookie(writer, cookie)
	return nil
}

// ClearCookie expires the session cookie in the browser.
func (manager *Manager) ClearCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   manager.options.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ReadCookie returns the session id carried by request, or "" when the cookie
// is missing or its signature does not verify.
func (manager *Manager) ReadCookie(request *http.Request) string {
	cookie, err := request.Cookie(CookieName)
	if err != nil {
		return ""
	}
	var id string
	if err := manager.codec.Decode(CookieName, cookie.Value, &id); err != nil {
		return ""
	}
	return id
}

// IsNotFound reports whether err means "no usable session".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
