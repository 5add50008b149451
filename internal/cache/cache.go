// Package cache provides a capacity-bounded map with bulk eviction.
//
// When the cache fills, the oldest half of the entries (by insertion order)
// is dropped in one pass. This trades eviction precision for O(1) amortized
// cost per insert, which suits workloads that re-ask for recently seen keys
// in large batches.
package cache

import "sync"

// Bounded is a capacity-bounded cache safe for concurrent use.
type Bounded[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	entries  map[K]V
	order    []K
}

// NewBounded creates a Bounded cache holding at most capacity entries.
// A non-positive capacity falls back to 1.
func NewBounded[K comparable, V any](capacity int) *Bounded[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Bounded[K, V]{
		capacity: capacity,
		entries:  make(map[K]V, capacity),
	}
}

// Get returns the cached value for key and whether it was present.
func (c *Bounded[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores value under key, evicting the oldest half of the entries first
// if the cache is full. Overwriting an existing key does not change its
// insertion position.
func (c *Bounded[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = value
		return
	}

	if len(c.entries) >= c.capacity {
		c.evictOldestHalf()
	}

	c.entries[key] = value
	c.order = append(c.order, key)
}

// Len returns the number of cached entries.
func (c *Bounded[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *Bounded[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]V, c.capacity)
	c.order = c.order[:0]
}

// evictOldestHalf drops the first half of the insertion order. Callers must
// hold c.mu.
func (c *Bounded[K, V]) evictOldestHalf() {
	drop := len(c.order) / 2
	if drop < 1 {
		drop = 1
	}
	for _, key := range c.order[:drop] {
		delete(c.entries, key)
	}
	c.order = append(c.order[:0], c.order[drop:]...)
}
