package cache

import (
	"strings"
	"sync"
	"time"
)

// Cache is a minimal keyed TTL cache.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache stores values in memory with per-entry TTLs. Expired entries are
// dropped lazily on read and by Purge.
type TTLCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]cacheEntry[V]
	now   func() time.Time
}

func NewTTLCache[K comparable, V any]() *TTLCache[K, V] {
	return NewTTLCacheWithClock[K, V](time.Now)
}

// NewTTLCacheWithClock builds a cache that reads the current time from now.
func NewTTLCacheWithClock[K comparable, V any](now func() time.Time) *TTLCache[K, V] {
	if now == nil {
		now = time.Now
	}
	return &TTLCache[K, V]{items: make(map[K]cacheEntry[V]), now: now}
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if c.expired(entry) {
		c.Delete(key)
		return zero, false
	}
	return entry.value, true
}

// GetOrSet returns the live value for key, storing create() under ttl when absent.
func (c *TTLCache[K, V]) GetOrSet(key K, ttl time.Duration, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.items[key]; ok && !c.expired(entry) {
		return entry.value
	}
	value := create()
	c.items[key] = cacheEntry[V]{value: value, expiresAt: c.deadline(ttl)}
	return value
}

// Set stores a value; a non-positive ttl never expires.
func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items[key] = cacheEntry[V]{value: value, expiresAt: c.deadline(ttl)}
	c.mu.Unlock()
}

func (c *TTLCache[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Purge removes every expired entry and returns how many were dropped.
func (c *TTLCache[K, V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, entry := range c.items {
		if c.expired(entry) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Len counts stored entries, including expired ones not yet purged.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *TTLCache[K, V]) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}

func (c *TTLCache[K, V]) expired(entry cacheEntry[V]) bool {
	return !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt)
}

// Key joins normalized, non-empty parts with "|".
func Key(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}
