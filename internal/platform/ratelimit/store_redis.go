// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisStore implements [Store] with one sorted set per key, scored by event
// time in microseconds.
type RedisStore struct {
	client *redis.Client
	seq    atomic.Uint64
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(identifier, bucket string) string {
	return redisKeyPrefix + bucket + ":" + identifier
}

func score(at time.Time) string {
	return strconv.FormatInt(at.UnixMicro(), 10)
}

// Count returns the number of events with a score strictly greater than since.
func (repository *RedisStore) Count(context context.Context, identifier, bucket string, since time.Time) (int, error) {
	count, err := repository.client.ZCount(context, redisKey(identifier, bucket), "("+score(since), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("redis_rate_limit_count_failed: %w", err)
	}
	return int(count), nil
}

// Record adds one event. The key expires after the purge horizon so idle keys vanish.
func (repository *RedisStore) Record(context context.Context, identifier, bucket string, at time.Time) error {
	key := redisKey(identifier, bucket)

	// Members must be unique or two events in the same microsecond would collapse.
	member := fmt.Sprintf("%d-%d", at.UnixNano(), repository.seq.Add(1))

	_, err := repository.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(context, key, redis.Z{Score: float64(at.UnixMicro()), Member: member})
		pipe.Expire(context, key, PurgeHorizon)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_rate_limit_record_failed: %w", err)
	}
	return nil
}

// Reset deletes the key.
func (repository *RedisStore) Reset(context context.Context, identifier, bucket string) error {
	if err := repository.client.Del(context, redisKey(identifier, bucket)).Err(); err != nil {
		return fmt.Errorf("redis_rate_limit_reset_failed: %w", err)
	}
	return nil
}

// Purge trims events older than before from every rate-limit key.
func (repository *RedisStore) Purge(context context.Context, before time.Time) error {
	iterator := repository.client.Scan(context, 0, redisKeyPrefix+"*", 100).Iterator()
	for iterator.Next(context) {
		if err := repository.client.ZRemRangeByScore(context, iterator.Val(), "-inf", "("+score(before)).Err(); err != nil {
			return fmt.Errorf("redis_rate_limit_purge_failed: %w", err)
		}
	}
	if err := iterator.Err(); err != nil {
		return fmt.Errorf("redis_rate_limit_scan_failed: %w", err)
	}
	return nil
}
