package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces limiter keys in Redis.
const keyPrefix = "contact:ratelimit:"

// slidingWindow trims, counts and records in one round trip so
// concurrent callers across instances see a consistent count.
//
// KEYS[1] key, ARGV[1] now (ms), ARGV[2] window (ms), ARGV[3] max,
// ARGV[4] unique member. Returns {allowed, oldest score in ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= max then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  return {0, tonumber(oldest[2])}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, 0}
`)

// RedisStore keeps hit timestamps in a Redis sorted set per key.
type RedisStore struct {
	rdb    redis.UniversalClient
	policy Policy
}

// NewRedisStore creates a store backed by rdb.
func NewRedisStore(rdb redis.UniversalClient, policy Policy) *RedisStore {
	return &RedisStore{rdb: rdb, policy: policy}
}

// Name implements Store.
func (s *RedisStore) Name() string { return "redis" }

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string, now time.Time) (Result, error) {
	vals, err := slidingWindow.Run(ctx, s.rdb, []string{keyPrefix + key},
		now.UnixMilli(),
		s.policy.Window.Milliseconds(),
		s.policy.Max,
		fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("redis sliding window: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("redis sliding window: unexpected reply %v", vals)
	}

	if vals[0] == 1 {
		return Result{Allowed: true}, nil
	}
	return Result{
		Allowed:    false,
		RetryAfter: retryAfter(time.UnixMilli(vals[1]), now, s.policy.Window),
	}, nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.rdb.Ping(ctx).Err()
}
