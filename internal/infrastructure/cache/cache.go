package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// TTLs per data category, tuned to volatility. Prices move constantly,
// company profiles do not.
const (
	TTLQuote    = 30 * time.Second
	TTLProfile  = time.Hour
	TTLSearch   = 5 * time.Minute
	TTLTrending = time.Minute
	TTLIndex    = 30 * time.Second
	TTLCandles  = 5 * time.Minute
)

// Cache is a time-boxed key/value store. Entries become invisible once
// their TTL elapses; a miss is never an error, callers simply proceed to
// the provider chain. Failed lookups are never cached, so a transient
// provider outage self-heals on the next request.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Invalidate(ctx context.Context, pattern string)
}

// GetJSON reads key and unmarshals it into a T. A decode failure is treated
// as a miss; the entry will be overwritten by the next successful fetch.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool) {
	var out T
	raw, ok := c.Get(ctx, key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		slog.WarnContext(ctx, "discarding undecodable cache entry", "key", key, "error", err)
		return out, false
	}
	return out, true
}

// SetJSON marshals value and stores it under key. Marshal failures are
// logged and dropped; caching is best-effort and must never fail a request.
func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal cache value", "key", key, "error", err)
		return
	}
	c.Set(ctx, key, raw, ttl)
}
