// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit

import (
	"context"
	"time"
)

// Store persists rate-limit events. Implementations must agree exactly on
// window semantics: Count includes an event only if its time is strictly after since.
type Store interface {
	// Count returns the number of events for the key newer than since.
	Count(ctx context.Context, identifier, bucket string, since time.Time) (int, error)

	// Record stores one event at the given time.
	Record(ctx context.Context, identifier, bucket string, at time.Time) error

	// Reset deletes every event for the key.
	Reset(ctx context.Context, identifier, bucket string) error

	// Purge deletes every event, for all keys, older than before.
	Purge(ctx context.Context, before time.Time) error
}
