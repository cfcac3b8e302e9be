package lru

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ttlNode is an intrusive doubly-linked list element carrying an absolute
// expiry time.
type ttlNode[K comparable, V any] struct {
	key    K
	val    V
	expiry time.Time
	prev   *ttlNode[K, V]
	next   *ttlNode[K, V]
}

// Expirable represents a thread-safe, fixed-capacity LRU cache with
// per-entry TTL expiration. Each entry expires a fixed duration after it
// is written via [Expirable.Set] or [Expirable.GetOrSet]; reads never
// extend an entry's TTL (no sliding expiration).
// An Expirable must be created with [NewExpirable] or [MustNewExpirable];
// the zero value is not ready for use.
type Expirable[K comparable, V any] struct {
	capacity int
	items    map[K]*ttlNode[K, V]
	front    *ttlNode[K, V] // most recently used
	back     *ttlNode[K, V] // least recently used
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time // swappable for tests
	stats    Stats
	onEvict  OnEvictFunc[K, V]
	sfGroup  singleflight.Group
}

// setOptions holds optional parameters for Set operations.
type setOptions struct {
	ttl time.Duration
}

// SetOption is a functional option for [Expirable.Set],
// [Expirable.GetOrSet], and [Expirable.GetOrSetSingleflight].
type SetOption func(*setOptions)

// WithTTL sets a custom TTL for the entry being set, overriding the
// cache's default TTL. If ttl is zero or negative, the cache's default is
// used instead.
func WithTTL(ttl time.Duration) SetOption {
	return func(o *setOptions) {
		o.ttl = ttl
	}
}

// NewExpirable creates a new LRU cache with the given capacity and default
// TTL. It returns [ErrInvalidCapacity] if capacity is not positive and
// [ErrInvalidTTL] if ttl is not positive.
func NewExpirable[K comparable, V any](capacity int, ttl time.Duration) (*Expirable[K, V], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	return &Expirable[K, V]{
		capacity: capacity,
		items:    make(map[K]*ttlNode[K, V], capacity),
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// MustNewExpirable creates a new LRU cache with the given capacity and TTL.
// It panics if the capacity or TTL is not positive.
func MustNewExpirable[K comparable, V any](capacity int, ttl time.Duration) *Expirable[K, V] {
	cache, err := NewExpirable[K, V](capacity, ttl)
	if err != nil {
		panic(err)
	}
	return cache
}

// Get retrieves a value from the cache by key. It returns the value and a
// boolean indicating whether the key was found and not expired. A live hit
// promotes the entry to most recently used; an expired entry is removed on
// access and counts as both a miss and an expiration.
func (c *Expirable[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()

	var zero V

	n, found := c.items[key]
	if !found {
		c.stats.Misses++
		c.mu.Unlock()
		return zero, false
	}

	if c.now().After(n.expiry) {
		c.stats.Misses++
		c.stats.Expirations++
		onEvict := c.onEvict
		delete(c.items, n.key)
		c.unlink(n)
		c.mu.Unlock()

		if onEvict != nil {
			onEvict(n.key, n.val)
		}
		return zero, false
	}

	c.stats.Hits++
	c.promote(n)
	val := n.val
	c.mu.Unlock()

	return val, true
}

// Peek retrieves a value from the cache by key without promoting it and
// without touching the counters. Returns the value and a boolean
// indicating whether the key was found and not expired.
//
// Note: unlike [Expirable.Get], expired entries are not removed. Use
// [Expirable.RemoveExpired] to explicitly purge them.
func (c *Expirable[K, V]) Peek(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V

	n, found := c.items[key]
	if !found {
		return zero, false
	}

	if c.now().After(n.expiry) {
		return zero, false
	}

	return n.val, true
}

// GetWithTTL retrieves a value and its remaining TTL from the cache by key.
// It returns the value, remaining TTL, and a boolean indicating whether
// the key was found and not expired. Expired entries are removed when
// accessed.
func (c *Expirable[K, V]) GetWithTTL(key K) (V, time.Duration, bool) {
	c.mu.Lock()

	var zero V

	n, found := c.items[key]
	if !found {
		c.stats.Misses++
		c.mu.Unlock()
		return zero, 0, false
	}

	now := c.now()
	if now.After(n.expiry) {
		c.stats.Misses++
		c.stats.Expirations++
		onEvict := c.onEvict
		delete(c.items, n.key)
		c.unlink(n)
		c.mu.Unlock()

		if onEvict != nil {
			onEvict(n.key, n.val)
		}
		return zero, 0, false
	}

	c.stats.Hits++
	c.promote(n)

	ttl := n.expiry.Sub(now)
	if ttl < 0 {
		ttl = 0
	}
	val := n.val
	c.mu.Unlock()

	return val, ttl, true
}

// GetOrSet retrieves a value from the cache by key, or computes and sets
// it if not present or expired. The compute function is only called on a
// miss. Note: if multiple goroutines call GetOrSet concurrently for the
// same missing key, compute may be called multiple times but only one
// result will be cached.
//
// Options such as [WithTTL] customize the entry being set.
func (c *Expirable[K, V]) GetOrSet(key K, compute func() (V, error), opts ...SetOption) (V, error) {
	// fast path: check if the entry exists and is live
	if val, found := c.Get(key); found {
		return val, nil
	}

	opt := setOptions{}
	for _, o := range opts {
		o(&opt)
	}
	ttl := c.ttl
	if opt.ttl > 0 {
		ttl = opt.ttl
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
	n, found := c.items[key]
	var expired *ttlNode[K, V]
	if found {
		if !c.now().After(n.expiry) {
			c.promote(n)
			val := n.val
			c.mu.Unlock()
			return val, nil
		}
		// stale entry, drop it and keep it around for the callback
		expired = n
		c.stats.Expirations++
		delete(c.items, key)
		c.unlink(n)
	}

	evictedKey, evictedVal, hasEvicted := c.setLocked(key, val, ttl)
	onEvict := c.onEvict
	c.mu.Unlock()

	if onEvict != nil {
		if expired != nil {
			onEvict(expired.key, expired.val)
		}
		if hasEvicted {
			onEvict(evictedKey, evictedVal)
		}
	}
	return val, nil
}

// GetOrSetSingleflight retrieves a value from the cache by key, or
// computes and sets it if not present or expired. Unlike
// [Expirable.GetOrSet], concurrent calls for the same missing key invoke
// compute exactly once and all callers receive the same result.
//
// The deduplication only applies to concurrent in-flight calls; once a
// value is cached, subsequent calls return it without touching
// singleflight. Options such as [WithTTL] customize the entry being set.
func (c *Expirable[K, V]) GetOrSetSingleflight(key K, compute func() (V, error), opts ...SetOption) (V, error) {
	// fast path: check if the entry exists and is live
	if val, found := c.Get(key); found {
		return val, nil
	}

	opt := setOptions{}
	for _, o := range opts {
		o(&opt)
	}
	ttl := c.ttl
	if opt.ttl > 0 {
		ttl = opt.ttl
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
		n, found := c.items[key]
		var expired *ttlNode[K, V]
		if found {
			if !c.now().After(n.expiry) {
				c.promote(n)
				existing := n.val
				c.mu.Unlock()
				return existing, nil
			}
			// stale entry, drop it and keep it around for the callback
			expired = n
			c.stats.Expirations++
			delete(c.items, key)
			c.unlink(n)
		}

		evictedKey, evictedVal, hasEvicted := c.setLocked(key, val, ttl)
		onEvict := c.onEvict
		c.mu.Unlock()

		if onEvict != nil {
			if expired != nil {
				onEvict(expired.key, expired.val)
			}
			if hasEvicted {
				onEvict(evictedKey, evictedVal)
			}
		}
		return val, nil
	})

	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// Set adds or updates an entry in the cache. An existing key has its value
// and expiry replaced and is promoted; a new key at capacity evicts the
// least recently used entry first. Expired entries are removed lazily on
// access or via [Expirable.RemoveExpired].
//
// Options such as [WithTTL] customize the entry being set.
func (c *Expirable[K, V]) Set(key K, value V, opts ...SetOption) {
	opt := setOptions{}
	for _, o := range opts {
		o(&opt)
	}

	ttl := c.ttl
	if opt.ttl > 0 {
		ttl = opt.ttl
	}

	c.mu.Lock()
	evictedKey, evictedVal, hasEvicted := c.setLocked(key, value, ttl)
	onEvict := c.onEvict
	c.mu.Unlock()

	if hasEvicted && onEvict != nil {
		onEvict(evictedKey, evictedVal)
	}
}

// setLocked adds or updates an entry. It assumes the mutex is held.
// Returns the evicted key/value and whether a capacity eviction occurred.
func (c *Expirable[K, V]) setLocked(key K, value V, ttl time.Duration) (evictedKey K, evictedVal V, evicted bool) {
	// existing key: replace value and expiry, promote, never evict
	if n, found := c.items[key]; found {
		c.promote(n)
		n.val = value
		n.expiry = c.now().Add(ttl)
		return
	}

	// at capacity: drop the least recently used entry first. A victim that
	// has already expired counts as an expiration, not an eviction, and is
	// dropped without invoking the callback.
	if len(c.items) >= c.capacity {
		oldest := c.back
		if oldest != nil {
			if c.now().After(oldest.expiry) {
				c.stats.Expirations++
			} else {
				evictedKey = oldest.key
				evictedVal = oldest.val
				evicted = true
				c.stats.Evictions++
			}
			delete(c.items, oldest.key)
			c.unlink(oldest)
		}
	}

	n := &ttlNode[K, V]{
		key:    key,
		val:    value,
		expiry: c.now().Add(ttl),
	}
	c.pushFront(n)
	c.items[key] = n
	return
}

// promote moves a node to the front of the list.
func (c *Expirable[K, V]) promote(n *ttlNode[K, V]) {
	if c.front == n {
		return
	}
	c.unlink(n)
	c.pushFront(n)
}

// pushFront links a node in at the front of the list.
func (c *Expirable[K, V]) pushFront(n *ttlNode[K, V]) {
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
func (c *Expirable[K, V]) unlink(n *ttlNode[K, V]) {
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
// value and whether a live entry was present. Removing an entry that has
// already expired drops it, counts it as an expiration, and reports
// absence.
func (c *Expirable[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	n, found := c.items[key]
	if !found {
		c.mu.Unlock()
		var zero V
		return zero, false
	}

	live := !c.now().After(n.expiry)
	if !live {
		c.stats.Expirations++
	}
	onEvict := c.onEvict

	delete(c.items, key)
	c.unlink(n)
	c.mu.Unlock()

	if onEvict != nil {
		onEvict(n.key, n.val)
	}

	if !live {
		var zero V
		return zero, false
	}
	return n.val, true
}

// Len returns the current number of non-expired entries in the cache.
//
// Note: expired entries are excluded from the count but not removed.
// Use [Expirable.RemoveExpired] to explicitly purge them.
func (c *Expirable[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	now := c.now()

	for _, n := range c.items {
		if !now.After(n.expiry) {
			count++
		}
	}

	return count
}

// Clear removes all entries from the cache. Counters are not reset.
//
// If an eviction callback is set, it is called only for entries that have
// not yet expired at the time of clearing.
func (c *Expirable[K, V]) Clear() {
	c.mu.Lock()
	onEvict := c.onEvict

	var removed []ttlNode[K, V]
	if onEvict != nil {
		now := c.now()
		removed = make([]ttlNode[K, V], 0, len(c.items))
		for n := c.front; n != nil; n = n.next {
			if !now.After(n.expiry) {
				removed = append(removed, *n)
			}
		}
	}

	c.items = make(map[K]*ttlNode[K, V], c.capacity)
	c.front = nil
	c.back = nil
	c.mu.Unlock()

	for _, n := range removed {
		onEvict(n.key, n.val)
	}
}

// Contains checks if a key exists in the cache and is not expired, without
// promoting it and without touching the counters.
//
// Note: expired entries are not removed. Use [Expirable.RemoveExpired] to
// explicitly purge them.
func (c *Expirable[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, found := c.items[key]
	if !found {
		return false
	}

	return !c.now().After(n.expiry)
}

// Keys returns a slice of all non-expired keys in the cache, ordered from
// most recently used to least recently used.
func (c *Expirable[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	keys := make([]K, 0, len(c.items))

	for n := c.front; n != nil; n = n.next {
		if !now.After(n.expiry) {
			keys = append(keys, n.key)
		}
	}

	return keys
}

// Capacity returns the maximum capacity of the cache.
func (c *Expirable[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of the cache's counters. See [Stats] for what
// each counter covers.
func (c *Expirable[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.stats
}

// TTL returns the default time-to-live for new entries.
func (c *Expirable[K, V]) TTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttl
}

// SetTTL updates the default TTL for future entries. It does not affect
// existing entries. Returns [ErrInvalidTTL] if ttl is not positive.
func (c *Expirable[K, V]) SetTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ttl = ttl
	return nil
}

// OnEvict sets a callback function that is called whenever an entry leaves
// the cache: capacity evictions, expiry, explicit removals, and Clear.
//
// The callback is invoked after the cache's internal lock is released and
// may be called concurrently from multiple goroutines. It must be safe for
// concurrent use.
func (c *Expirable[K, V]) OnEvict(f OnEvictFunc[K, V]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onEvict = f
}

// SetTimeNowFunc replaces the function used to read the current time.
// This is primarily useful for testing. Passing nil resets to time.Now.
func (c *Expirable[K, V]) SetTimeNowFunc(f func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f == nil {
		f = time.Now
	}
	c.now = f
}

// RemoveExpired removes all expired entries from the cache, returning the
// number removed. The eviction callback, if set, is called for each.
func (c *Expirable[K, V]) RemoveExpired() int {
	c.mu.Lock()

	now := c.now()
	removed := 0

	expiredKeys := make([]K, 0)
	expiredVals := make([]V, 0)

	for n := c.front; n != nil; {
		next := n.next
		if now.After(n.expiry) {
			expiredKeys = append(expiredKeys, n.key)
			expiredVals = append(expiredVals, n.val)
			delete(c.items, n.key)
			c.unlink(n)
			removed++
		}
		n = next
	}

	c.stats.Expirations += uint64(removed)
	onEvict := c.onEvict
	c.mu.Unlock()

	if onEvict != nil {
		for i := range expiredKeys {
			onEvict(expiredKeys[i], expiredVals[i])
		}
	}

	return removed
}
