// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
	"github.com/taibuivan/staffdesk/internal/platform/dberr"
	"github.com/taibuivan/staffdesk/internal/users/auth"
	"github.com/taibuivan/staffdesk/pkg/slice"
)

// PostgresRepository implements [Repository] on the users table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the Postgres account repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// where renders the filter as a WHERE clause and its positional arguments.
func (filter Filter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if len(filter.Statuses) > 0 {
		args = append(args, slice.Map(filter.Statuses, func(status auth.Status) string { return string(status) }))
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(username ILIKE $%d OR email ILIKE $%d OR (first_name || ' ' || last_name) ILIKE $%d)", n, n, n))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

/*
List returns one page of accounts.

Description: The count and the page run as two statements; a row created in
between may make the total lag the page by one.
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter) ([]*auth.User, int, error) {
	where, args := filter.where()

	var total int
	if err := repository.pool.QueryRow(context, `SELECT count(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_count_failed: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		auth.UserColumns(), where, n+1, n+2)
	args = append(args, filter.Page.Limit, filter.Page.Offset())

	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_list_failed: %w", err)
	}
	defer rows.Close()

	users := []*auth.User{}
	for rows.Next() {
		user, err := auth.ScanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_account_repo_scan_failed: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_rows_failed: %w", err)
	}
	return users, total, nil
}

// FindByID retrieves one account.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*auth.User, error) {
	query := `SELECT ` + auth.UserColumns() + ` FROM users WHERE id = $1`

	user, err := auth.ScanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}

// UpdateStatus sets the account status.
func (repository *PostgresRepository) UpdateStatus(context context.Context, id string, status auth.Status) error {
	const query = `UPDATE users SET status = $2, updated_at = now() WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id, string(status))
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_status_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}
