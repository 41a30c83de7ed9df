package qtpl

import (
	"container/list"
	"sync"
)

// lruEntry pairs a cache key with its built query string.
type lruEntry struct {
	key   string
	value string
}

// lru is a bounded, internally synchronized least-recently-used cache of
// built query strings. Entries are pure functions of their key, so there
// is no expiry: entries only leave when capacity forces them out.
type lru struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	eviction *list.List
	capacity int
}

func newLRU(capacity int) *lru {
	return &lru{
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		capacity: capacity,
	}
}

// get returns the cached value and marks the entry as recently used.
func (c *lru) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return "", false
	}
	c.eviction.MoveToFront(elem)
	return elem.Value.(*lruEntry).value, true
}

// put inserts a value, evicting the least recently used entry when the
// cache is at capacity.
func (c *lru) put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*lruEntry).value = value
		c.eviction.MoveToFront(elem)
		return
	}

	if c.capacity > 0 && len(c.items) >= c.capacity {
		if oldest := c.eviction.Back(); oldest != nil {
			c.eviction.Remove(oldest)
			delete(c.items, oldest.Value.(*lruEntry).key)
		}
	}

	c.items[key] = c.eviction.PushFront(&lruEntry{key: key, value: value})
}

// purge drops every entry.
func (c *lru) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.eviction.Init()
}

// len reports the current entry count.
func (c *lru) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
