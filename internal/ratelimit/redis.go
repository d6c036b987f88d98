package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// redisLimiter implements the sliding window on a Redis sorted set per key,
// scored by event time. Surviving process restarts matters here: the limit
// protects the email side channel, and an in-memory window resets whenever
// the server does.
type redisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisLimiter creates a Redis-backed sliding-window limiter. It pings the
// server once so a bad address fails at startup rather than on first use.
func NewRedisLimiter(ctx context.Context, client *redis.Client, limit int, window time.Duration) (Limiter, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &redisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
	}, nil
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.prefix + key
	now := time.Now()
	cutoff := now.Add(-l.window)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(cutoff.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check failed for %q: %w", key, err)
	}

	if countCmd.Val() >= int64(l.limit) {
		return false, nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10)
	pipe = l.client.TxPipeline()
	pipe.ZAdd(ctx, redisKey, &redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit record failed for %q: %w", key, err)
	}
	return true, nil
}
