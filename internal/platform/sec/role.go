// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Full system access, including account administration
	RoleAdmin UserRole = "admin"

	// Manages employees and reviews attendance
	RoleManager UserRole = "manager"

	// Default role for self-registered accounts
	RoleEmployee UserRole = "employee"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r.level() > 0
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {
	switch r {
	case RoleAdmin:
		return 30
	case RoleManager:
		return 20
	case RoleEmployee:
		return 10
	default:
		return 0
	}
}
