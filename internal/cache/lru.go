package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache evicts by size and expires entries after ttl. Purge bumps a
// generation counter so values computed before the purge are not stored.
type LRUCache[T any] struct {
	mu         sync.Mutex
	maxSize    int
	ttl        time.Duration
	items      map[string]*list.Element
	lru        *list.List
	generation uint64
	now        func() time.Time
}

var _ Cache[[]byte] = (*LRUCache[[]byte])(nil)

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	item := elem.Value.(*cacheItem[T])
	if c.now().After(item.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}
	c.lru.MoveToFront(elem)
	return item.data, true
}

func (c *LRUCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, data)
}

// GetOrCompute returns the cached value for key or computes and stores it.
// A value whose computation overlapped a Purge is returned but not stored.
func (c *LRUCache[T]) GetOrCompute(key string, compute func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	v, err := compute()
	if err != nil {
		return v, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == gen {
		c.setLocked(key, v)
	}
	return v, nil
}

func (c *LRUCache[T]) setLocked(key string, data T) {
	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: c.now().Add(c.ttl),
	}
	if elem, ok := c.items[key]; ok {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}
	c.items[key] = c.lru.PushFront(item)
	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// Purge drops every entry and returns how many were removed.
func (c *LRUCache[T]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.items)
	c.items = make(map[string]*list.Element)
	c.lru.Init()
	c.generation++
	return n
}

func (c *LRUCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// CleanExpired removes expired entries and returns how many were removed.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*cacheItem[T]).expiresAt) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
