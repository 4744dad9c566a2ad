// Package cache provides a small generic LRU with TTL, used to keep
// per-owner snapshots warm between mutations.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU evicts by recency once maxSize is exceeded and lazily drops expired
// items on read. A background sweep can be run via StartCleanup.
type LRU[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	order   *list.List

	stopOnce sync.Once
	stop     chan struct{}
}

type item[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func NewLRU[T any](maxSize int, ttl time.Duration) *LRU[T] {
	return &LRU[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		stop:    make(chan struct{}),
	}
}

// Get returns the cached value for key if present and unexpired.
func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	it := elem.Value.(*item[T])
	if time.Now().After(it.expiresAt) {
		c.remove(elem)
		return zero, false
	}

	c.order.MoveToFront(elem)
	return it.data, true
}

// Set stores a value, evicting the least recently used item when full.
func (c *LRU[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it := &item[T]{key: key, data: data, expiresAt: time.Now().Add(c.ttl)}

	if elem, exists := c.items[key]; exists {
		elem.Value = it
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(it)

	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

// Invalidate drops a key. Used after every mutation of the keyed owner.
func (c *LRU[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.remove(elem)
	}
}

// Len returns the number of cached items, including not-yet-swept expired ones.
func (c *LRU[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// CleanExpired removes all expired entries and reports how many were dropped.
func (c *LRU[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*item[T]).expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.remove(elem)
	}
	return len(toRemove)
}

// StartCleanup sweeps expired entries every interval until Close is called.
func (c *LRU[T]) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.CleanExpired()
			case <-c.stop:
				return
			}
		}
	}()
}

// Close stops the background sweep, if any.
func (c *LRU[T]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *LRU[T]) remove(elem *list.Element) {
	it := elem.Value.(*item[T])
	delete(c.items, it.key)
	c.order.Remove(elem)
}
