package analysis

import "sync"

// Cache holds formatted results keyed by entity ID so a rescheduled job
// for the same target never pays for a second model call. Message and
// conversation IDs are UUIDs and never collide, so one cache serves both.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Result
}

// NewCache constructs an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Result)}
}

// Get returns the cached result for id, if present.
func (c *Cache) Get(id string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.entries[id]
	return result, ok
}

// Put stores the result for id.
func (c *Cache) Put(id string, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = result
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops all cached results.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Result)
}
