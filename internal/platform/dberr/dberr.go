// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
)

/*
Wrap inspects a database error and converts it into an [apperr.AppError].

  - pgx.ErrNoRows becomes NotFound with "<resource> not found".
  - SQLSTATE 23505 (unique_violation) becomes Conflict.
  - Anything else becomes Internal, keeping the cause for the server log.
*/
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(fmt.Sprintf("%s not found", resource))
	}

	if IsUniqueViolation(err) {
		conflict := apperr.Conflict(fmt.Sprintf("%s already exists", resource))
		conflict.Cause = err
		return conflict
	}

	return apperr.Internal(err)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgError *pgconn.PgError
	return errors.As(err, &pgError) && pgError.Code == pgerrcode.UniqueViolation
}

// ConstraintName returns the violated constraint, or "" for other errors.
func ConstraintName(err error) string {
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		return pgError.ConstraintName
	}
	return ""
}
