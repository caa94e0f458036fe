// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/staffdesk/internal/platform/dberr"
	"github.com/taibuivan/staffdesk/pkg/normalize"
)

// resourceUser names users in not-found and conflict messages.
const resourceUser = "User"

// userColumns is the projection shared by every user lookup.
const userColumns = `
	id, email, username, password_hash, first_name, last_name, phone, department,
	role, status, is_verified, last_login_at, created_at, updated_at`

// # User Repository

// PostgresUserRepository implements [UserRepository] on the users table.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// ScanUser hydrates a [User] from a row selected with the users projection.
func ScanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.Department,
		&user.Role,
		&user.Status,
		&user.IsVerified,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UserColumns returns the users projection for packages that list accounts.
func UserColumns() string { return userColumns }

func (repository *PostgresUserRepository) findOne(context context.Context, where string, args ...any) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := ScanUser(repository.pool.QueryRow(context, query, args...))
	if err != nil {
		return nil, dberr.Wrap(err, resourceUser)
	}
	return user, nil
}

// FindByID retrieves a user by primary key.
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	return repository.findOne(context, `id = $1`, id)
}

/*
FindByLogin retrieves a user whose username or email matches login.

Description: The input is normalized the same way stored values are, so the
comparison is case-insensitive without a functional index.
*/
func (repository *PostgresUserRepository) FindByLogin(context context.Context, login string) (*User, error) {
	return repository.findOne(context, `username = $1 OR email = $1 LIMIT 1`, normalize.Identifier(login))
}

// FindByEmail retrieves a user by normalized email.
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	return repository.findOne(context, `email = $1`, normalize.Identifier(email))
}

/*
Create persists a new user record.

Description: Username and email are normalized before insert. A unique
violation on either surfaces as apperr.Conflict.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist; timestamps are initialized here)

Returns:
  - error: apperr.Conflict or wrapped database errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users (
			id, email, username, password_hash, first_name, last_name, phone, department,
			role, status, is_verified, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = normalize.Identifier(user.Email)
	user.Username = normalize.Identifier(user.Username)

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Department,
		user.Role,
		user.Status,
		user.IsVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, resourceUser)
	}
	return nil
}

// TouchLastLogin records the time of the latest successful login.
func (repository *PostgresUserRepository) TouchLastLogin(context context.Context, userID string, at time.Time) error {
	const query = `UPDATE users SET last_login_at = $2 WHERE id = $1`

	if _, err := repository.pool.Exec(context, query, userID, at); err != nil {
		return fmt.Errorf("postgres_user_repo_touch_last_login_failed: %w", err)
	}
	return nil
}

// UpdatePassword replaces the password hash.
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, newHash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, userID, newHash)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resourceUser)
	}
	return nil
}

// MarkVerified flags the email as verified.
func (repository *PostgresUserRepository) MarkVerified(context context.Context, userID string) error {
	const query = `UPDATE users SET is_verified = TRUE, updated_at = now() WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_mark_verified_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resourceUser)
	}
	return nil
}

// # Activity Repository

// PostgresActivityRepository implements [ActivityRepository] on user_activity.
type PostgresActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates the Postgres activity trail.
func NewActivityRepository(pool *pgxpool.Pool) *PostgresActivityRepository {
	return &PostgresActivityRepository{pool: pool}
}

// Record appends one activity row.
func (repository *PostgresActivityRepository) Record(context context.Context, activity Activity) error {
	const query = `
		INSERT INTO user_activity (user_id, activity, details, ip_address)
		VALUES (NULLIF($1, '')::uuid, $2, $3, $4)`

	if _, err := repository.pool.Exec(context, query,
		activity.UserID, activity.Activity, activity.Details, activity.IPAddress,
	); err != nil {
		return fmt.Errorf("postgres_activity_repo_record_failed: %w", err)
	}
	return nil
}
