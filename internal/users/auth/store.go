// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// Usernames and emails are stored and compared in their normalized form
// (see pkg/normalize); callers pass raw input.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByLogin returns the account whose username OR email equals login.

		Parameters:
		  - context: context.Context
		  - login: string (username or email, any case)

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByLogin(context context.Context, login string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new user account.

		Returns:
		  - error: apperr.Conflict on a duplicate username/email, or storage failures
	*/
	Create(context context.Context, user *User) error

	// TouchLastLogin sets last_login_at for the user.
	TouchLastLogin(context context.Context, userID string, at time.Time) error

	// UpdatePassword replaces only the user's password hash.
	UpdatePassword(context context.Context, userID, newHash string) error

	// MarkVerified sets is_verified = true.
	MarkVerified(context context.Context, userID string) error
}

// # Activity Trail

// ActivityRepository appends to the user activity trail.
type ActivityRepository interface {
	Record(context context.Context, activity Activity) error
}

// # Volatile Data Access

// ResetTokenRepository stores password reset tokens with a time-to-live.
//
// Implementations must never persist the raw token.
type ResetTokenRepository interface {
	Set(context context.Context, token string, userID string, ttl time.Duration) error

	// Get returns apperr.NotFound when the token is unknown or expired.
	Get(context context.Context, token string) (string, error)

	Delete(context context.Context, token string) error
}
