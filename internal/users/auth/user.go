// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the account entity and the flows that create, authenticate and
recover accounts: register, login, logout, change password, email
verification and password reset.

# Architecture

Login is a strict pipeline. Each stage either passes the request on or ends it
with a single, client-safe error:

	validated → rate-checked → looked-up → status-checked → password-verified → session-issued

Only a fully verified login touches the session store.
*/
package auth

import (
	"strings"
	"time"

	"github.com/taibuivan/staffdesk/internal/platform/sec"
	"github.com/taibuivan/staffdesk/internal/platform/session"
)

// # Domain Entities

// Status is the lifecycle state of an account. Only active accounts may log in.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// Valid reports whether s is a known account status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// User represents a Staffdesk account.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	Username     string       `json:"username"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security.
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Phone        string       `json:"phone,omitempty"`
	Department   string       `json:"department,omitempty"`
	Role         sec.UserRole `json:"role"`
	Status       Status       `json:"status"`
	IsVerified   bool         `json:"is_verified"`
	LastLoginAt  *time.Time   `json:"last_login_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Name returns the display name, falling back to the username.
func (user *User) Name() string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		return user.Username
	}
	return name
}

// Identity returns the summary stored in a login session.
func (user *User) Identity() session.Identity {
	return session.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name(),
		Role:   user.Role,
	}
}

// Summary is the public projection of a user returned by auth endpoints.
type Summary struct {
	ID       string       `json:"id"`
	Email    string       `json:"email"`
	Username string       `json:"username,omitempty"`
	Name     string       `json:"name"`
	Role     sec.UserRole `json:"role"`
}

// Summarize projects user for a response payload.
func Summarize(user *User) Summary {
	return Summary{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Name:     user.Name(),
		Role:     user.Role,
	}
}

// # Activity

// Activity is one row of the user activity trail.
type Activity struct {
	UserID    string
	Activity  string
	Details   string
	IPAddress string
}

// Activity kinds.
const (
	ActivityLoginSuccess    = "LOGIN_SUCCESS"
	ActivityLogout          = "LOGOUT"
	ActivitySignup          = "SIGNUP"
	ActivityPasswordChanged = "PASSWORD_CHANGED"
	ActivityPasswordReset   = "PASSWORD_RESET"
	ActivityEmailVerified   = "EMAIL_VERIFIED"
)

// # Landing Pages

// RedirectFor returns the landing page for role after login.
func RedirectFor(role sec.UserRole) string {
	switch role {
	case sec.RoleAdmin:
		return "admin_dashboard_overview.html"
	case sec.RoleManager:
		return "employee_list.html"
	default:
		return "employee_personalized_dashboard_1.html"
	}
}

// # Field Identifiers

// Field names for validation and payload mapping in the authentication domain.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
	FieldFirstName       = "first_name"
	FieldLastName        = "last_name"
	FieldPhone           = "phone"
	FieldDepartment      = "department"
	FieldToken           = "token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
)
