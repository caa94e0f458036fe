// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
	"github.com/taibuivan/staffdesk/internal/platform/dberr"
	"github.com/taibuivan/staffdesk/pkg/uuid"
)

const resourceAttendance = "Attendance record"

const recordColumns = `
	id, employee_id, to_char(work_date, 'YYYY-MM-DD'), status, check_in, check_out,
	notes, created_at, updated_at`

// PostgresRepository implements [Repository] on the attendance table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the Postgres attendance repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanRecord(row pgx.Row) (*Record, error) {
	record := &Record{}
	err := row.Scan(
		&record.ID,
		&record.EmployeeID,
		&record.WorkDate,
		&record.Status,
		&record.CheckIn,
		&record.CheckOut,
		&record.Notes,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// FindByDay retrieves one work day.
func (repository *PostgresRepository) FindByDay(context context.Context, employeeID, day string) (*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance WHERE employee_id = $1 AND work_date = $2::date`

	record, err := scanRecord(repository.pool.QueryRow(context, query, employeeID, day))
	if err != nil {
		return nil, dberr.Wrap(err, resourceAttendance)
	}
	return record, nil
}

/*
ClockIn upserts the day as present with check_in = at and no check_out.

A row that already has a check-in is left untouched and yields a conflict, so
a concurrent clock-in or clock-out is never overwritten.
*/
func (repository *PostgresRepository) ClockIn(context context.Context, employeeID, day string, at time.Time) (*Record, error) {
	query := `
		INSERT INTO attendance (id, employee_id, work_date, status, check_in, check_out, notes)
		VALUES ($1, $2, $3::date, $4, $5, NULL, '')
		ON CONFLICT (employee_id, work_date) DO UPDATE SET
			status = EXCLUDED.status,
			check_in = EXCLUDED.check_in,
			check_out = NULL,
			updated_at = now()
		WHERE attendance.check_in IS NULL
		RETURNING ` + recordColumns

	record, err := scanRecord(repository.pool.QueryRow(context, query,
		uuid.New(), employeeID, day, string(StatusPresent), at,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Conflict(MsgAlreadyClockedIn)
		}
		return nil, dberr.Wrap(err, resourceAttendance)
	}
	return record, nil
}

/*
ClockOut sets check_out on an open day. A day that is missing or already
closed matches no row and yields a conflict.
*/
func (repository *PostgresRepository) ClockOut(context context.Context, employeeID, day string, at time.Time) (*Record, error) {
	query := `
		UPDATE attendance
		SET check_out = $3, updated_at = now()
		WHERE employee_id = $1 AND work_date = $2::date
		  AND check_in IS NOT NULL AND check_out IS NULL
		RETURNING ` + recordColumns

	record, err := scanRecord(repository.pool.QueryRow(context, query, employeeID, day, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Conflict(MsgAlreadyClockedOut)
		}
		return nil, dberr.Wrap(err, resourceAttendance)
	}
	return record, nil
}

// ListRange retrieves days in [from, to).
func (repository *PostgresRepository) ListRange(context context.Context, employeeID, from, to string) ([]*Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM attendance
		WHERE employee_id = $1 AND work_date >= $2::date AND work_date < $3::date
		ORDER BY work_date ASC`

	rows, err := repository.pool.Query(context, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres_attendance_repo_list_failed: %w", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_attendance_repo_scan_failed: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_attendance_repo_rows_failed: %w", err)
	}
	return records, nil
}
