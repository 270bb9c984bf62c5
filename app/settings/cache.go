package settings

import (
	"sync"
	"time"
)

// ttlCache holds category maps with a per-entry expiry. Reads during the TTL
// window may be stale; explicit writes invalidate the category.
type ttlCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	values    map[string]string
	expiresAt time.Time
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *ttlCache) get(category string) (map[string]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[category]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.values, true
}

func (c *ttlCache) set(category string, values map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[category] = cacheEntry{
		values:    values,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *ttlCache) invalidate(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, category)
}
