// Package cache holds short-lived lookups (fee rates, platform fee
// schedules) keyed by network and service, with optional persistence so
// one-shot CLI runs can reuse a recent answer.
package cache

import (
	"strings"
	"sync"
	"time"
)

// Entry is one cached value and the time it was stored.
type Entry[V any] struct {
	Value     V         `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cache is a string-keyed map of timestamped values, safe for concurrent use.
type Cache[V any] struct {
	mu      sync.RWMutex        `json:"-"`
	Entries map[string]Entry[V] `json:"entries"`
}

// New creates an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{Entries: make(map[string]Entry[V])}
}

// Key joins key parts with ":".
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Get returns the value stored under key, whether it exists, and its age.
func (c *Cache[V]) Get(key string) (V, bool, time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.Entries[key]
	if !exists {
		var zero V
		return zero, false, 0
	}
	return entry.Value, true, time.Since(entry.UpdatedAt)
}

// Fresh returns the value under key only if it is younger than maxAge.
func (c *Cache[V]) Fresh(key string, maxAge time.Duration) (V, bool) {
	v, ok, age := c.Get(key)
	if !ok || age > maxAge {
		var zero V
		return zero, false
	}
	return v, true
}

// Set stores value under key, stamped now.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Entries[key] = Entry[V]{Value: value, UpdatedAt: time.Now()}
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.Entries, key)
}

// Size returns the number of entries.
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.Entries)
}

// Prune removes entries older than maxAge and returns how many went.
func (c *Cache[V]) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for key, entry := range c.Entries {
		if entry.UpdatedAt.Before(cutoff) {
			delete(c.Entries, key)
			removed++
		}
	}
	return removed
}
