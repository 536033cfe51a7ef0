package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the shared cache backend for multi-instance deployments. All
// instances see the same entries, so a quote fetched by one process serves
// requests on every other within the TTL.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing redis client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get returns the value for key. Redis expires entries server-side, so a
// present key is by definition unexpired. Errors degrade to a miss; the
// cache must never fail a request.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.WarnContext(ctx, "redis get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return raw, true
}

// Set stores value under key with a server-side TTL.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.WarnContext(ctx, "redis set failed", "key", key, "error", err)
	}
}

// Invalidate deletes all keys matching pattern as a prefix.
func (r *Redis) Invalidate(ctx context.Context, pattern string) {
	iter := r.client.Scan(ctx, 0, pattern+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			slog.WarnContext(ctx, "redis del failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		slog.WarnContext(ctx, "redis scan failed", "pattern", pattern, "error", err)
	}
}

var _ Cache = (*Redis)(nil)
