// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package employee

import "context"

// # Employee Data Access

// Repository defines the data access contract for employees.
type Repository interface {

	/*
		FindByID returns the employee with the given ID.

		Returns:
		  - *Employee: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*Employee, error)

	/*
		FindByUserID returns the employee attached to an account.

		Returns:
		  - *Employee: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByUserID(context context.Context, userID string) (*Employee, error)

	/*
		EnsureForUser returns the employee of userID, creating it from the
		account's name, email and department when missing.

		Returns:
		  - *Employee: Existing or newly created entity
		  - error: apperr.NotFound when the account does not exist
	*/
	EnsureForUser(context context.Context, userID string) (*Employee, error)
}
