package calc

import (
	"container/list"
	"sync"
)

// resultCache is a bounded LRU of encoded results keyed by calculation kind
// and canonical input JSON. It stores bytes so no caller ever shares memory
// with a cached entry.
type resultCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recently used
	index    map[string]*list.Element
}

type cached struct {
	key     string
	encoded []byte
}

// newResultCache returns nil for a non-positive capacity; a nil cache never hits.
func newResultCache(capacity int) *resultCache {
	if capacity <= 0 {
		return nil
	}
	return &resultCache{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

// get returns a copy of the encoded result stored under key.
func (c *resultCache) get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return clone(el.Value.(*cached).encoded), true
}

// put stores a copy of encoded under key, evicting the least recently used
// entry when full.
func (c *resultCache) put(key string, encoded []byte) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		el.Value.(*cached).encoded = clone(encoded)
		c.order.MoveToFront(el)
		return
	}
	c.index[key] = c.order.PushFront(&cached{key: key, encoded: clone(encoded)})

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.index, oldest.Value.(*cached).key)
	}
}

func (c *resultCache) len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
