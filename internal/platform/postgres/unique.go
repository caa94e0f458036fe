// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UniqueChecker answers uniqueness rules of the validator with one EXISTS query.
type UniqueChecker struct {
	pool *pgxpool.Pool
}

// NewUniqueChecker creates a checker over pool.
func NewUniqueChecker(pool *pgxpool.Pool) *UniqueChecker {
	return &UniqueChecker{pool: pool}
}

// Exists reports whether any row of table has column equal to value.
// Identifiers are quoted, the value is always a bound parameter.
func (checker *UniqueChecker) Exists(ctx context.Context, table, column, value string) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)",
		pgx.Identifier{table}.Sanitize(),
		pgx.Identifier{column}.Sanitize(),
	)

	var exists bool
	if err := checker.pool.QueryRow(ctx, query, value).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_unique_check_failed: %w", err)
	}
	return exists, nil
}
