package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is the in-process cache backend. Reads and writes are safe for
// concurrent use; a racing overwrite of the same key with another valid
// entry is harmless.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// NewMemoryWithClock creates a cache with an injected clock (for testing).
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Get returns the value for key if present and not expired. Expired entries
// are logically absent even while still physically stored.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || !m.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl. Expired entries are pruned
// opportunistically so the map does not grow without bound.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}

	m.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
}

// Invalidate removes all entries whose key starts with pattern. An empty
// pattern clears the whole cache.
func (m *Memory) Invalidate(_ context.Context, pattern string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.entries {
		if strings.HasPrefix(k, pattern) {
			delete(m.entries, k)
		}
	}
}

var _ Cache = (*Memory)(nil)
