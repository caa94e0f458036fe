// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
	"github.com/taibuivan/staffdesk/internal/platform/constants"
	"github.com/taibuivan/staffdesk/internal/platform/sec"
)

// RedisResetTokenRepository implements [ResetTokenRepository] using Redis.
//
// Keys hold the SHA-256 of the token, so a leaked keyspace dump cannot be
// replayed against /auth/reset-password.
type RedisResetTokenRepository struct {
	client *redis.Client
}

// NewResetTokenRepository creates a new Redis-backed ResetTokenRepository.
func NewResetTokenRepository(client *redis.Client) *RedisResetTokenRepository {
	return &RedisResetTokenRepository{client: client}
}

func resetTokenKey(token string) string {
	return constants.RedisPrefixResetToken + sec.HashToken(token)
}

/*
Set stores a reset token with its associated userID and TTL.

Parameters:
  - context: context.Context
  - token: string (raw token; only its hash is stored)
  - userID: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisResetTokenRepository) Set(context context.Context, token string, userID string, ttl time.Duration) error {
	if err := repository.client.Set(context, resetTokenKey(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_set_failed: %w", err)
	}
	return nil
}

/*
Get retrieves the userID for a given token.

Returns:
  - string: Owning UserID
  - error: apperr.NotFound if absent or expired, or connectivity errors
*/
func (repository *RedisResetTokenRepository) Get(context context.Context, token string) (string, error) {
	userID, err := repository.client.Get(context, resetTokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.NotFound(MsgResetTokenInvalid)
		}
		return "", fmt.Errorf("redis_reset_token_get_failed: %w", err)
	}
	return userID, nil
}

// Delete removes the token after use.
func (repository *RedisResetTokenRepository) Delete(context context.Context, token string) error {
	if err := repository.client.Del(context, resetTokenKey(token)).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_delete_failed: %w", err)
	}
	return nil
}
