package cache

import (
	"sync"
	"time"
)

type entry struct {
	value  interface{}
	expiry time.Time
}

// LocalCache is a small in-process TTL cache used for read-through caching
// of listing endpoints. Expired entries are dropped lazily on read.
type LocalCache struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewLocalCache() *LocalCache {
	return &LocalCache{entries: map[string]entry{}}
}

func (c *LocalCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiry: time.Now().Add(ttl)}
}

func (c *LocalCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiry) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *LocalCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
