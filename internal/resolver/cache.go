package resolver

// DefaultCacheCapacity bounds the number of resolved recordings kept in
// memory. Eviction is first-in-first-out by insertion order, not
// usage-weighted: the access pattern is "load a file, work on it, move on",
// where an LRU would buy little over the simpler policy.
const DefaultCacheCapacity = 50

// fifoCache is a bounded insertion-ordered cache. It is owned by one
// Resolver and is not synchronized; a concurrent caller must wrap the whole
// resolver in its own lock.
type fifoCache struct {
	capacity int
	order    []string
	entries  map[string]*Result
}

func newFIFOCache(capacity int) *fifoCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &fifoCache{capacity: capacity, entries: map[string]*Result{}}
}

func (c *fifoCache) get(key string) (*Result, bool) {
	r, ok := c.entries[key]
	return r, ok
}

func (c *fifoCache) put(key string, r *Result) {
	if _, exists := c.entries[key]; exists {
		c.entries[key] = r
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.order = append(c.order, key)
	c.entries[key] = r
}

func (c *fifoCache) clear() {
	c.order = c.order[:0]
	c.entries = map[string]*Result{}
}

func (c *fifoCache) len() int { return len(c.order) }

// keys returns the cached keys oldest first.
func (c *fifoCache) keys() []string {
	return append([]string(nil), c.order...)
}
