// Package lru implements a generic, thread-safe LRU cache with optional
// per-entry expiry. The categorization endpoint uses it to answer repeated
// keystrokes for the same title without another model call.
//
// Get, Put, Delete and Len are O(1). Expired entries are dropped lazily on
// access.
package lru

import (
	"sync"
	"time"
)

type node[K comparable, V any] struct {
	key       K
	val       V
	expiresAt time.Time // zero = never
	prev      *node[K, V]
	next      *node[K, V]
}

// Stats are cumulative counters for a cache.
type Stats struct {
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Expirations uint64
}

// HitRate returns hits / (hits + misses), or 0 with no lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithTTL sets the default lifetime applied by Put.
func WithTTL[K comparable, V any](ttl time.Duration) Option[K, V] {
	return func(c *Cache[K, V]) { c.ttl = ttl }
}

// WithOnEvict registers a callback for capacity evictions and expirations.
// It runs with the cache lock held and must not call back into the cache.
func WithOnEvict[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *Cache[K, V]) { c.onEvict = fn }
}

// Cache is a generic, thread-safe LRU cache.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	onEvict  func(K, V)
	now      func() time.Time
	items    map[K]*node[K, V]
	head     *node[K, V] // sentinel; head.next is most recently used
	tail     *node[K, V] // sentinel; tail.prev is least recently used
	stats    Stats
}

// New creates an LRU cache with the given capacity.
// Panics if capacity < 1.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) *Cache[K, V] {
	if capacity < 1 {
		panic("lru: capacity must be >= 1")
	}

	head := &node[K, V]{}
	tail := &node[K, V]{}
	head.next = tail
	tail.prev = head

	c := &Cache[K, V]{
		capacity: capacity,
		now:      time.Now,
		items:    make(map[K]*node[K, V], capacity),
		head:     head,
		tail:     tail,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the value for key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.live(key)
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.stats.Hits++
	c.moveToFront(n)
	return n.val, true
}

// Peek returns the value for key without touching recency or stats.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.live(key)
	if !ok {
		var zero V
		return zero, false
	}
	return n.val, true
}

// Put inserts or updates key with the default TTL. If the cache is full the
// least recently used entry is evicted and returned.
func (c *Cache[K, V]) Put(key K, val V) (K, V, bool) {
	return c.PutWithTTL(key, val, c.ttl)
}

// PutWithTTL is Put with an explicit lifetime; ttl <= 0 never expires.
func (c *Cache[K, V]) PutWithTTL(key K, val V, ttl time.Duration) (K, V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	var (
		evictedKey K
		evictedVal V
		evicted    bool
	)

	if n, ok := c.items[key]; ok {
		n.val = val
		n.expiresAt = expiresAt
		c.moveToFront(n)
		return evictedKey, evictedVal, false
	}

	if len(c.items) >= c.capacity {
		victim := c.tail.prev
		c.drop(victim)
		c.stats.Evictions++
		if c.onEvict != nil {
			c.onEvict(victim.key, victim.val)
		}
		evictedKey, evictedVal, evicted = victim.key, victim.val, true
	}

	n := &node[K, V]{key: key, val: val, expiresAt: expiresAt}
	c.items[key] = n
	c.pushFront(n)

	return evictedKey, evictedVal, evicted
}

// Delete removes key. Returns true if it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok {
		return false
	}
	c.drop(n)
	return true
}

// Len returns the number of stored entries, including ones not yet found expired.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns live keys from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	keys := make([]K, 0, len(c.items))
	for cur := c.head.next; cur != c.tail; cur = cur.next {
		if cur.expired(now) {
			continue
		}
		keys = append(keys, cur.key)
	}
	return keys
}

// Clear removes all entries. Stats are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head.next = c.tail
	c.tail.prev = c.head
	c.items = make(map[K]*node[K, V], c.capacity)
}

// Metrics returns a snapshot of the cache counters.
func (c *Cache[K, V]) Metrics() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// --- internal (caller must hold lock) ---

func (n *node[K, V]) expired(now time.Time) bool {
	return !n.expiresAt.IsZero() && !now.Before(n.expiresAt)
}

// live returns the node for key, dropping it first if it has expired.
func (c *Cache[K, V]) live(key K) (*node[K, V], bool) {
	n, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if n.expired(c.now()) {
		c.drop(n)
		c.stats.Expirations++
		if c.onEvict != nil {
			c.onEvict(n.key, n.val)
		}
		return nil, false
	}
	return n, true
}

func (c *Cache[K, V]) drop(n *node[K, V]) {
	c.remove(n)
	delete(c.items, n.key)
}

func (c *Cache[K, V]) remove(n *node[K, V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
}

func (c *Cache[K, V]) pushFront(n *node[K, V]) {
	n.next = c.head.next
	n.prev = c.head
	c.head.next.prev = n
	c.head.next = n
}

func (c *Cache[K, V]) moveToFront(n *node[K, V]) {
	c.remove(n)
	c.pushFront(n)
}
