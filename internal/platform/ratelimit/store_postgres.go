// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements [Store] on the "rate_limits" table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Count returns the number of events for the key strictly newer than since.
func (repository *PostgresStore) Count(context context.Context, identifier, bucket string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM rate_limits
		WHERE identifier = $1 AND bucket = $2 AND occurred_at > $3`

	var count int
	if err := repository.pool.QueryRow(context, query, identifier, bucket, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres_rate_limit_count_failed: %w", err)
	}
	return count, nil
}

// Record inserts one event.
func (repository *PostgresStore) Record(context context.Context, identifier, bucket string, at time.Time) error {
	query := `INSERT INTO rate_limits (identifier, bucket, occurred_at) VALUES ($1, $2, $3)`

	if _, err := repository.pool.Exec(context, query, identifier, bucket, at); err != nil {
		return fmt.Errorf("postgres_rate_limit_record_failed: %w", err)
	}
	return nil
}

// Reset deletes every event for the key.
func (repository *PostgresStore) Reset(context context.Context, identifier, bucket string) error {
	query := `DELETE FROM rate_limits WHERE identifier = $1 AND bucket = $2`

	if _, err := repository.pool.Exec(context, query, identifier, bucket); err != nil {
		return fmt.Errorf("postgres_rate_limit_reset_failed: %w", err)
	}
	return nil
}

// Purge deletes events older than before across all keys.
func (repository *PostgresStore) Purge(context context.Context, before time.Time) error {
	query := `DELETE FROM rate_limits WHERE occurred_at < $1`

	if _, err := repository.pool.Exec(context, query, before); err != nil {
		return fmt.Errorf("postgres_rate_limit_purge_failed: %w", err)
	}
	return nil
}
