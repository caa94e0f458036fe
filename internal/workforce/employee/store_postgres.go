// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package employee

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
	"github.com/taibuivan/staffdesk/internal/platform/dberr"
)

const resourceEmployee = "Employee"

const employeeColumns = `
	id, user_id, employee_code, first_name, last_name, email, department, position,
	status, created_at, updated_at`

// PostgresRepository implements [Repository] on the employees table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the Postgres employee repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanEmployee(row pgx.Row) (*Employee, error) {
	employee := &Employee{}
	err := row.Scan(
		&employee.ID,
		&employee.UserID,
		&employee.EmployeeCode,
		&employee.FirstName,
		&employee.LastName,
		&employee.Email,
		&employee.Department,
		&employee.Position,
		&employee.Status,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return employee, nil
}

// FindByID retrieves an employee by primary key.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	employee, err := scanEmployee(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, resourceEmployee)
	}
	return employee, nil
}

// FindByUserID retrieves the employee of an account.
func (repository *PostgresRepository) FindByUserID(context context.Context, userID string) (*Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE user_id = $1`

	employee, err := scanEmployee(repository.pool.QueryRow(context, query, userID))
	if err != nil {
		return nil, dberr.Wrap(err, resourceEmployee)
	}
	return employee, nil
}

/*
EnsureForUser returns the employee of userID, provisioning it from the users
row when absent.

Description: The insert is a single INSERT ... SELECT guarded by the unique
user_id constraint, so concurrent first requests converge on one row.
*/
func (repository *PostgresRepository) EnsureForUser(context context.Context, userID string) (*Employee, error) {
	existing, err := repository.FindByUserID(context, userID)
	if err == nil {
		return existing, nil
	}
	if !apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, err
	}

	const insert = `
		INSERT INTO employees (id, user_id, employee_code, first_name, last_name, email, department, status)
		SELECT $1, u.id, $2, COALESCE(NULLIF(u.first_name, ''), 'Employee'), u.last_name, u.email, u.department, $3
		FROM users u
		WHERE u.id = $4
		ON CONFLICT (user_id) DO NOTHING`

	id, code := newIdentity()
	tag, err := repository.pool.Exec(context, insert, id, code, StatusActive, userID)
	if err != nil {
		return nil, dberr.Wrap(err, resourceEmployee)
	}

	employee, err := repository.FindByUserID(context, userID)
	if err != nil && tag.RowsAffected() == 0 && apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	return employee, err
}

// Provision creates the employee of a freshly registered account.
func (repository *PostgresRepository) Provision(context context.Context, userID string) error {
	_, err := repository.EnsureForUser(context, userID)
	return err
}
