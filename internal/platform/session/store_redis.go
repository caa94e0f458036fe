// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "session:"
	userKeyPrefix = "session:user:"
)

// touchScript rewrites a session only while it is still the user's active one.
// SET XX fails on a deleted record, so a concurrent logout or a newer login wins.
var touchScript = redis.NewScript(`
	if redis.call('GET', KEYS[2]) ~= ARGV[1] then
		return 0
	end
	if not redis.call('SET', KEYS[1], ARGV[2], 'XX', 'PX', ARGV[3]) then
		return 0
	end
	redis.call('PEXPIRE', KEYS[2], ARGV[3])
	return 1
`)

// RedisStore implements [Store] using Redis string keys with TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get loads a session record. Returns [ErrNotFound] when the key is absent or expired.
func (repository *RedisStore) Get(context context.Context, id string) (*Session, error) {
	payload, err := repository.client.Get(context, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis_session_get_failed: %w", err)
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("redis_session_decode_failed: %w", err)
	}
	return &session, nil
}

// Save writes the record, replacing any previous value and resetting its TTL.
func (repository *RedisStore) Save(context context.Context, session *Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis_session_encode_failed: %w", err)
	}
	if err := repository.client.Set(context, keyPrefix+session.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_set_failed: %w", err)
	}
	return nil
}

// Touch atomically refreshes the record and the active pointer. Returns
// [ErrNotFound] when the record is gone or the pointer names another session.
func (repository *RedisStore) Touch(context context.Context, session *Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis_session_encode_failed: %w", err)
	}

	keys := []string{keyPrefix + session.ID, userKeyPrefix + session.UserID}
	touched, err := touchScript.Run(context, repository.client, keys, session.ID, payload, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("redis_session_touch_failed: %w", err)
	}
	if touched == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a session record. Deleting a missing record is not an error.
func (repository *RedisStore) Delete(context context.Context, id string) error {
	if err := repository.client.Del(context, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}
	return nil
}

// ActiveID returns the user's current session id, or "" when none is recorded.
func (repository *RedisStore) ActiveID(context context.Context, userID string) (string, error) {
	id, err := repository.client.Get(context, userKeyPrefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis_session_active_get_failed: %w", err)
	}
	return id, nil
}

// SetActive points the user at session id with the same TTL as the record.
func (repository *RedisStore) SetActive(context context.Context, userID, id string, ttl time.Duration) error {
	if err := repository.client.Set(context, userKeyPrefix+userID, id, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_active_set_failed: %w", err)
	}
	return nil
}

// ClearActive removes the user's active pointer.
func (repository *RedisStore) ClearActive(context context.Context, userID string) error {
	if err := repository.client.Del(context, userKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("redis_session_active_delete_failed: %w", err)
	}
	return nil
}
