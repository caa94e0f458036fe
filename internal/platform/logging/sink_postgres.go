// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package logging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink writes entries to the "logs" table.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a sink over pool.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// Write inserts one row. Empty user and IP values are stored as NULL.
func (sink *PostgresSink) Write(context context.Context, entry Entry) error {
	payload, err := json.Marshal(entry.Context)
	if err != nil {
		payload = []byte("{}")
	}

	query := `
		INSERT INTO logs (level, message, context, user_id, ip_address, created_at)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, NULLIF($5, ''), $6)`

	if _, err := sink.pool.Exec(context, query,
		entry.Level, entry.Message, payload, entry.UserID, entry.IPAddress, entry.Time,
	); err != nil {
		return fmt.Errorf("postgres_log_sink_write_failed: %w", err)
	}
	return nil
}
