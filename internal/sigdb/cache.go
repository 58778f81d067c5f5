package sigdb

import "sync"

// Cache is a bounded selector->signature cache with FIFO eviction. Entries
// live for the process lifetime unless evicted by capacity pressure. An
// empty value records a definitive miss so the selector is not re-fetched.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	data     map[string]string
}

// NewCache builds a cache holding at most capacity entries.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		data:     make(map[string]string, capacity),
	}
}

func (c *Cache) Get(selector string) (string, bool) {
	c.mu.RLock()
	sig, ok := c.data[selector]
	c.mu.RUnlock()
	return sig, ok
}

func (c *Cache) Set(selector, signature string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[selector]; ok {
		c.data[selector] = signature
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.data, oldest)
	}
	c.order = append(c.order, selector)
	c.data[selector] = signature
}

// Len returns the number of cached selectors.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
