// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles administrator management of user accounts.

Administrators list accounts with paging and filters, and move an account
between the active, inactive and suspended states. Leaving the active state
ends every session of that account.

# Architecture

  - Entities: Entry (admin view of auth.User), Filter.
  - Domain: This package depends on the auth package for the User entity.
  - Security: Every endpoint requires the admin role and a CSRF token on writes.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/staffdesk/internal/platform/sec"
	"github.com/taibuivan/staffdesk/internal/users/auth"
	"github.com/taibuivan/staffdesk/pkg/pagination"
)

// # Domain Entities

// Entry is the administrator view of an account.
type Entry struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	Name        string       `json:"name"`
	Department  string       `json:"department"`
	Role        sec.UserRole `json:"role"`
	Status      auth.Status  `json:"status"`
	IsVerified  bool         `json:"is_verified"`
	LastLoginAt *time.Time   `json:"last_login_at"`
	CreatedAt   time.Time    `json:"created_at"`
}

// toEntry maps the stored account to its admin view.
func toEntry(user *auth.User) Entry {
	return Entry{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Name:        user.Name(),
		Department:  user.Department,
		Role:        user.Role,
		Status:      user.Status,
		IsVerified:  user.IsVerified,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// Filter narrows the account list. Zero values match everything.
type Filter struct {
	Statuses []auth.Status
	Role     sec.UserRole
	Search   string // Case-insensitive match on username, email or name
	Page     pagination.Params
}

// # Repository Contracts

// Repository defines the persistence contract for account administration.
type Repository interface {

	/*
		List returns one page of accounts, newest first, and the total count.

		Parameters:
		  - context: context.Context
		  - filter: Filter

		Returns:
		  - []*auth.User: The page
		  - int: Total matching rows
		  - error: Storage failures
	*/
	List(context context.Context, filter Filter) ([]*auth.User, int, error)

	/*
		FindByID retrieves an account by its unique ID.

		Returns:
		  - *auth.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		UpdateStatus changes the lifecycle state of an account.

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	UpdateStatus(context context.Context, id string, status auth.Status) error
}
