package embedding

import (
	"container/list"
	"sync"
)

// fifoCache is a fixed-capacity embedding cache with FIFO eviction and
// hit/miss counters, keyed by hash(text ∥ model_name).
type fifoCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[string]*list.Element
	hits     int64
	misses   int64
}

type cacheEntry struct {
	key   string
	value []float32
}

func newFIFOCache(capacity int) *fifoCache {
	if capacity <= 0 {
		capacity = 10000
	}
	return &fifoCache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

func (c *fifoCache) get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	return el.Value.(*cacheEntry).value, true
}

func (c *fifoCache) put(key string, value []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; ok {
		return
	}
	el := c.order.PushBack(&cacheEntry{key: key, value: value})
	c.items[key] = el
	for c.order.Len() > c.capacity {
		front := c.order.Front()
		if front == nil {
			break
		}
		c.order.Remove(front)
		delete(c.items, front.Value.(*cacheEntry).key)
	}
}

// Stats returns cumulative hit/miss counters, surfaced as the
// embedding_cache_hits_total / embedding_cache_misses_total metrics.
func (c *fifoCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
