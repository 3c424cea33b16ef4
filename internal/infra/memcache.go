package infra

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time // zero means no time-based expiry
}

// MemoryCache is a bounded LRU cache with per-entry TTL. Entries stored
// with a non-positive TTL never expire by time but remain subject to LRU
// eviction. Get and Has treat expired entries as absent and remove them.
type MemoryCache struct {
	mu  sync.Mutex
	lru *simplelru.LRU[string, memEntry]
}

// NewMemoryCache creates a memory cache holding at most capacity entries.
func NewMemoryCache(capacity int) *MemoryCache {
	l, err := simplelru.NewLRU[string, memEntry](capacity, nil)
	if err != nil {
		// Only reachable with a non-positive capacity.
		panic(err)
	}
	return &MemoryCache{lru: l}
}

// Get returns the cached value and refreshes its recency. Expired entries
// are removed and reported as absent.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Has reports whether an unexpired entry exists, without refreshing recency.
func (c *MemoryCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Peek(key)
	if !ok {
		return false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.lru.Remove(key)
		return false
	}
	return true
}

// Set stores a value. A positive ttl sets a time-based expiry; zero or
// negative makes the entry permanent (LRU eviction only). Insertion over
// capacity evicts the least-recently-used entry.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) {
	e := memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.lru.Add(key, e)
	c.mu.Unlock()
}

// Delete removes a key.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	c.lru.Remove(key)
	c.mu.Unlock()
}

// DeletePrefix removes all keys with the given prefix and returns the count.
func (c *MemoryCache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, k := range c.lru.Keys() {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			c.lru.Remove(k)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held (including any that
// have expired but not yet been touched).
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Flush removes all entries.
func (c *MemoryCache) Flush() {
	c.mu.Lock()
	c.lru.Purge()
	c.mu.Unlock()
}
