// Package lru provides generic, thread-safe, fixed-capacity LRU caches.
//
// Three cache types are provided:
//
//   - [Cache]: a bounded LRU cache guarded by a single lock
//   - [Expirable]: an LRU cache with per-entry TTL expiration
//   - [Sharded]: a striped cache that spreads keys over independent
//     [Cache] shards to reduce lock contention
//
// All three are safe for concurrent use, evict the least recently used
// entry under capacity pressure, and support eviction callbacks.
//
// # Basic Usage
//
// Create a cache and store values:
//
//	cache := lru.MustNew[string, int](100)
//	cache.Set("key", 42)
//	value, found := cache.Get("key")
//
// A miss is signalled through the boolean, never through a sentinel
// value, so a stored zero value is always distinguishable from absence.
// Capacity is fixed at construction; [New] returns [ErrInvalidCapacity]
// if it is not positive.
//
// # Memoization with GetOrSet
//
// Compute values on cache miss:
//
//	result, err := cache.GetOrSet("key", func() (int, error) {
//	    return expensiveComputation()
//	})
//
// [Cache.GetOrSetSingleflight] additionally collapses concurrent
// computes for the same missing key into a single call.
//
// # Expirable Cache
//
// Create a cache where entries expire after a duration:
//
//	cache := lru.MustNewExpirable[string, int](100, 5*time.Minute)
//	cache.Set("key", 42)
//	value, ttl, found := cache.GetWithTTL("key")
//
// Expired entries are removed lazily on access or during write
// operations. Call [Expirable.RemoveExpired] to explicitly purge all
// expired entries.
//
// # Statistics
//
// Every cache keeps hit, miss, eviction, and expiration counters,
// readable as a consistent snapshot:
//
//	stats := cache.Stats()
//	fmt.Printf("hit ratio: %.2f\n", stats.HitRatio())
//
// # Eviction Callbacks
//
// Register a callback to be notified when entries leave the cache:
//
//	cache.OnEvict(func(key string, value int) {
//	    fmt.Printf("evicted: %s=%d\n", key, value)
//	})
//
// Callbacks fire for capacity evictions, explicit removals via
// [Cache.Remove] and [Cache.RemoveOldest], and [Cache.Clear]. For
// [Expirable.Clear], callbacks are only invoked for entries that have
// not yet expired.
package lru
