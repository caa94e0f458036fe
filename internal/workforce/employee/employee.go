// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package employee owns the employee record attached to every account.

Every user has at most one employee row. Rows are provisioned at registration
and, for accounts created before that existed, lazily on first use by the
attendance module.
*/
package employee

import (
	"strings"
	"time"

	"github.com/taibuivan/staffdesk/pkg/uuid"
)

// # Domain Entities

// Employee is the HR profile of an account.
type Employee struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	EmployeeCode string    `json:"employee_code"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Department   string    `json:"department"`
	Position     string    `json:"position"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StatusActive is the status of newly provisioned employees.
const StatusActive = "active"

// newIdentity returns a fresh primary key and the employee code derived from it.
func newIdentity() (id, code string) {
	id = uuid.New()
	return id, "EMP-" + strings.ToUpper(id[len(id)-8:])
}
