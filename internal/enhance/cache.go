package enhance

import "sync"

// responseCache is a small bounded cache of generated responses, keyed by
// robot, command, and a prefix of the game output. Oldest entries are
// evicted first. It lives and dies with the process.
type responseCache struct {
	mu      sync.Mutex
	max     int
	entries map[string]string
	order   []string
}

func newResponseCache(max int) *responseCache {
	return &responseCache{
		max:     max,
		entries: make(map[string]string),
	}
}

func (c *responseCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *responseCache) put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = value

	for len(c.order) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
