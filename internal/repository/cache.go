package repository

import (
	"sync"
	"time"
)

// TTLCache is an all-or-nothing snapshot cache: one value per instance, no
// item-level entries. Instances are injected, never package globals, so tests
// construct isolated caches.
type TTLCache[T any] struct {
	mu       sync.RWMutex
	value    *T
	cachedAt time.Time
	ttl      time.Duration
}

func NewTTLCache[T any](ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{ttl: ttl}
}

// Get returns the cached value if present and not expired.
func (c *TTLCache[T]) Get() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var zero T
	if c.value == nil || time.Since(c.cachedAt) >= c.ttl {
		return zero, false
	}
	return *c.value, true
}

// Set stores a fresh snapshot.
func (c *TTLCache[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = &v
	c.cachedAt = time.Now()
}

// Invalidate clears the snapshot so the next read goes to the store.
func (c *TTLCache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
	c.cachedAt = time.Time{}
}

// Age reports how old the snapshot is; a very large duration when empty.
func (c *TTLCache[T]) Age() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.value == nil {
		return time.Duration(1<<63 - 1)
	}
	return time.Since(c.cachedAt)
}
