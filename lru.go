package lru

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrInvalidCapacity is returned by the constructors when the requested
	// capacity is not a positive number.
	ErrInvalidCapacity = errors.New("capacity must be greater than zero")

	// ErrInvalidShardCount is returned by the sharded constructors when the
	// requested shard count is not a positive number.
	ErrInvalidShardCount = errors.New("shard count must be greater than zero")

	// ErrInvalidTTL is returned by the expirable constructors when the
	// requested TTL is not a positive duration.
	ErrInvalidTTL = errors.New("TTL must be greater than zero")
)

// OnEvictFunc is a function that is called when an entry leaves the cache.
type OnEvictFunc[K comparable, V any] func(key K, value V)

// Cache represents a thread-safe, fixed-capacity LRU cache.
// A Cache must be created with [New] or [MustNew]; the zero value is not
// ready for use.
//
// The lookup map and the recency list are guarded by a single lock, so a
// caller can never observe one updated without the other.
type Cache[K comparable, V any] struct {
	capacity int
	items    map[K]*node[K, V]
	front    *node[K, V] // most recently used
	back     *node[K, V] // least recently used
	mu       sync.RWMutex
	stats    Stats
	onEvict  OnEvictFunc[K, V]
	sfGroup  singleflight.Group
}

// node is an intrusive doubly-linked list element. An entry's recency
// rank is its position in the list, not a stored field.
type node[K comparable, V any] struct {
	key  K
	val  V
	prev *node[K, V]
	next *node[K, V]
}

// New creates a new LRU cache with the given capacity. It returns
// [ErrInvalidCapacity] if capacity is not positive. The capacity is fixed
// for the cache's lifetime.
func New[K comparable, V any](capacity int) (*Cache[K, V], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	return &Cache[K, V]{
		capacity: capacity,
		items:    make(map[K]*node[K, V], capacity),
	}, nil
}

// MustNew creates a new LRU cache with the given capacity.
// It panics if the capacity is not positive.
func MustNew[K comparable, V any](capacity int) *Cache[K, V] {
	cache, err := New[K, V](capacity)
	if err != nil {
		panic(err)
	}
	return cache
}

// Get retrieves a value from the cache by key.
// It returns the value and a boolean indicating whether the key was found.
// A hit promotes the entry to most recently used; a miss leaves the
// recency order untouched and creates nothing.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()

	var zero V

	n, found := c.items[key]
	if !found {
		c.stats.Misses++
		c.mu.Unlock()
		return zero, false
	}

	c.stats.Hits++
	c.promote(n)
	val := n.val
	c.mu.Unlock()

	return val, true
}

// Peek retrieves a value from the cache by key without promoting it and
// without touching the hit/miss counters. This is useful for inspecting a
// value without affecting eviction order.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V

	n, found := c.items[key]
	if !found {
		return zero, false
	}

	return n.val, true
}

// GetOrSet retrieves a value from the cache by key, or computes and sets it
// if not present. The compute function is only called on a miss.
// Note: if multiple goroutines call GetOrSet concurrently for the same
// missing key, compute may be called multiple times but only one result
// will be cached.
func (c *Cache[K, V]) GetOrSet(key K, compute func() (V, error)) (V, error) {
	// fast path: check if the entry exists
	if val, found := c.Get(key); found {
		return val, nil
	}

	// compute the value outside the lock to avoid deadlock if compute
	// calls back into the cache
	val, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	// check again in case it was added while we were computing
	if n, found := c.items[key]; found {
		c.promote(n)
		val := n.val
		c.mu.Unlock()
		return val, nil
	}

	evictedKey, evictedVal, hasEvicted := c.setLocked(key, val)
	onEvict := c.onEvict
	c.mu.Unlock()

	if hasEvicted && onEvict != nil {
		onEvict(evictedKey, evictedVal)
	}
	return val, nil
}

// GetOrSetSingleflight retrieves a value from the cache by key, or computes
// and sets it if not present. Unlike [Cache.GetOrSet], concurrent calls for
// the same missing key invoke compute exactly once and all callers receive
// the same result. This matters when compute is expensive (database
// queries, API calls).
//
// The deduplication only applies to concurrent in-flight calls; once a
// value is cached, subsequent calls return it without touching
// singleflight.
func (c *Cache[K, V]) GetOrSetSingleflight(key K, compute func() (V, error)) (V, error) {
	// fast path: check if the entry exists
	if val, found := c.Get(key); found {
		return val, nil
	}

	// deduplicate concurrent computes for the same key
	sfKey := fmt.Sprintf("%v", key)
	result, err, _ := c.sfGroup.Do(sfKey, func() (any, error) {
		// check again inside singleflight in case another goroutine just cached it
		if val, found := c.Get(key); found {
			return val, nil
		}

		val, err := compute()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		// check again in case it was added while we were computing
		if n, found := c.items[key]; found {
			c.promote(n)
			existing := n.val
			c.mu.Unlock()
			return existing, nil
		}

		evictedKey, evictedVal, hasEvicted := c.setLocked(key, val)
		onEvict := c.onEvict
		c.mu.Unlock()

		if hasEvicted && onEvict != nil {
			onEvict(evictedKey, evictedVal)
		}
		return val, nil
	})

	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// Set adds or updates an entry in the cache.
// If the key already exists, its value is replaced and the entry is
// promoted; the size does not change and nothing is evicted. If the key is
// new and the cache is full, the least recently used entry is evicted
// first. Set never fails and never blocks on a full cache.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	evictedKey, evictedVal, hasEvicted := c.setLocked(key, value)
	onEvict := c.onEvict
	c.mu.Unlock()

	if hasEvicted && onEvict != nil {
		onEvict(evictedKey, evictedVal)
	}
}

// setLocked adds or updates an entry. It assumes the mutex is held.
// Returns the evicted key/value and whether a capacity eviction occurred.
func (c *Cache[K, V]) setLocked(key K, value V) (evictedKey K, evictedVal V, evicted bool) {
	// existing key: replace value, promote, never evict
	if n, found := c.items[key]; found {
		c.promote(n)
		n.val = value
		return
	}

	// at capacity: drop the least recently used entry first
	if len(c.items) >= c.capacity {
		oldest := c.back
		if oldest != nil {
			evictedKey = oldest.key
			evictedVal = oldest.val
			evicted = true
			c.stats.Evictions++
			c.unlink(oldest)
			delete(c.items, oldest.key)
		}
	}

	n := &node[K, V]{
		key: key,
		val: value,
	}
	c.pushFront(n)
	c.items[key] = n
	return
}

// promote moves a node to the front of the list.
func (c *Cache[K, V]) promote(n *node[K, V]) {
	if c.front == n {
		return
	}
	c.unlink(n)
	c.pushFront(n)
}

// pushFront links a node in at the front of the list.
func (c *Cache[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = c.front
	if c.front != nil {
		c.front.prev = n
	}
	c.front = n
	if c.back == nil {
		c.back = n
	}
}

// unlink removes a node from the list. The relative order of the remaining
// nodes is unchanged.
func (c *Cache[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.front = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.back = n.prev
	}
	n.prev = nil
	n.next = nil
}

// Remove deletes an entry from the cache by key, returning the removed
// value and whether the key was present. Removing an entry does not affect
// the recency order of the remaining entries.
func (c *Cache[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	n, found := c.items[key]
	if !found {
		c.mu.Unlock()
		var zero V
		return zero, false
	}

	removedKey := n.key
	removedVal := n.val
	onEvict := c.onEvict

	delete(c.items, key)
	c.unlink(n)
	c.mu.Unlock()

	if onEvict != nil {
		onEvict(removedKey, removedVal)
	}
	return removedVal, true
}

// GetOldest returns the least recently used entry without promoting it.
func (c *Cache[K, V]) GetOldest() (K, V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.back == nil {
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}

	return c.back.key, c.back.val, true
}

// RemoveOldest removes and returns the least recently used entry.
// Like [Cache.Remove], this is a caller-requested removal and is not
// counted as a capacity eviction in [Cache.Stats].
func (c *Cache[K, V]) RemoveOldest() (K, V, bool) {
	c.mu.Lock()
	oldest := c.back
	if oldest == nil {
		c.mu.Unlock()
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}

	onEvict := c.onEvict
	delete(c.items, oldest.key)
	c.unlink(oldest)
	c.mu.Unlock()

	if onEvict != nil {
		onEvict(oldest.key, oldest.val)
	}
	return oldest.key, oldest.val, true
}

// Len returns the current number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Clear removes all entries from the cache. Counters are not reset.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	onEvict := c.onEvict

	var removed []node[K, V]
	if onEvict != nil {
		removed = make([]node[K, V], 0, len(c.items))
		for n := c.front; n != nil; n = n.next {
			removed = append(removed, *n)
		}
	}

	c.items = make(map[K]*node[K, V], c.capacity)
	c.front = nil
	c.back = nil
	c.mu.Unlock()

	for _, n := range removed {
		onEvict(n.key, n.val)
	}
}

// Contains checks if a key exists in the cache without promoting it and
// without touching the hit/miss counters.
func (c *Cache[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, found := c.items[key]
	return found
}

// Keys returns a slice of all keys in the cache, ordered from most
// recently used to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]K, 0, len(c.items))
	for n := c.front; n != nil; n = n.next {
		keys = append(keys, n.key)
	}

	return keys
}

// Capacity returns the maximum capacity of the cache.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of the cache's counters. See [Stats] for what
// each counter covers.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.stats
}

// OnEvict sets a callback function that is called whenever an entry leaves
// the cache: capacity evictions, [Cache.Remove], [Cache.RemoveOldest], and
// [Cache.Clear].
//
// The callback is invoked after the cache's internal lock is released and
// may be called concurrently from multiple goroutines. It must be safe for
// concurrent use.
func (c *Cache[K, V]) OnEvict(f OnEvictFunc[K, V]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onEvict = f
}
