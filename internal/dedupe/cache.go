package dedupe

import (
	"sync"
	"time"
)

type stamp struct {
	key string
	at  time.Time
}

// Cache is a bounded seen-set for ingestion-side deduplication: re-scraped
// items inside the ttl window are dropped before they ever reach the index.
// It is independent of the persistent alert ledger, which dedupes sends.
type Cache struct {
	mu       sync.Mutex
	seen     map[string]time.Time
	order    []stamp
	capacity int
	ttl      time.Duration
}

// NewCache creates a cache with the provided capacity and ttl.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		seen:     make(map[string]time.Time, capacity),
		order:    make([]stamp, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Observe reports whether the key was already seen within the ttl window,
// recording it when it was not. Check and mark are a single operation so
// callers cannot race themselves between the two.
func (c *Cache) Observe(key string) bool {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.evict(now)

	if at, ok := c.seen[key]; ok && now.Sub(at) <= c.ttl {
		return true
	}

	c.seen[key] = now
	c.order = append(c.order, stamp{key: key, at: now})
	c.evict(now)
	return false
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func (c *Cache) evict(now time.Time) {
	cutoff := now.Add(-c.ttl)

	for len(c.order) > 0 && (len(c.seen) > c.capacity || c.order[0].at.Before(cutoff)) {
		oldest := c.order[0]
		c.order = c.order[1:]

		if at, ok := c.seen[oldest.key]; ok && at.Equal(oldest.at) {
			delete(c.seen, oldest.key)
		}
	}
}
