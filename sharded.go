package lru

import (
	"encoding/binary"
	"fmt"
	"hash/maphash"
)

// DefaultShardCount is the default number of shards for a [Sharded] cache.
const DefaultShardCount = 16

// Sharded represents a thread-safe, striped LRU cache. It spreads keys
// over multiple [Cache] instances so that operations on different shards
// never contend on the same lock. Each shard is an independent LRU cache;
// eviction decisions are made per shard, so the global LRU order is not
// preserved across shards.
type Sharded[K comparable, V any] struct {
	shards   []*Cache[K, V]
	seed     maphash.Seed
	capacity int // total capacity across all shards
}

// NewSharded creates a new sharded LRU cache with the given total
// capacity, spread evenly over [DefaultShardCount] shards. It returns
// [ErrInvalidCapacity] if capacity is not positive.
func NewSharded[K comparable, V any](capacity int) (*Sharded[K, V], error) {
	return NewShardedWithCount[K, V](capacity, DefaultShardCount)
}

// MustNewSharded creates a new sharded LRU cache with the given total
// capacity. It panics if the capacity is not positive.
func MustNewSharded[K comparable, V any](capacity int) *Sharded[K, V] {
	cache, err := NewSharded[K, V](capacity)
	if err != nil {
		panic(err)
	}
	return cache
}

// NewShardedWithCount creates a new sharded LRU cache with the given total
// capacity and number of shards. It returns [ErrInvalidCapacity] or
// [ErrInvalidShardCount] if either is not positive.
func NewShardedWithCount[K comparable, V any](capacity, shardCount int) (*Sharded[K, V], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if shardCount <= 0 {
		return nil, ErrInvalidShardCount
	}

	// more shards than capacity would force the effective capacity above
	// the requested total; clamp so the capacity bound holds
	if shardCount > capacity {
		shardCount = capacity
	}

	// split capacity evenly, remainder going to the low shards
	perShard := capacity / shardCount
	remainder := capacity % shardCount

	shards := make([]*Cache[K, V], shardCount)
	for i := range shards {
		shardCap := perShard
		if i < remainder {
			shardCap++
		}
		shard, err := New[K, V](shardCap)
		if err != nil {
			return nil, err
		}
		shards[i] = shard
	}

	return &Sharded[K, V]{
		shards:   shards,
		seed:     maphash.MakeSeed(),
		capacity: capacity,
	}, nil
}

// MustNewShardedWithCount creates a new sharded LRU cache with the given
// total capacity and number of shards. It panics if either is not
// positive.
func MustNewShardedWithCount[K comparable, V any](capacity, shardCount int) *Sharded[K, V] {
	cache, err := NewShardedWithCount[K, V](capacity, shardCount)
	if err != nil {
		panic(err)
	}
	return cache
}

// shard returns the shard responsible for the given key.
func (s *Sharded[K, V]) shard(key K) *Cache[K, V] {
	return s.shards[s.shardIndex(key)]
}

// shardIndex returns the shard index for the given key.
func (s *Sharded[K, V]) shardIndex(key K) int {
	var h maphash.Hash
	h.SetSeed(s.seed)

	// fast path for common key types using binary encoding (avoids the
	// fmt.Sprint allocation)
	var buf [8]byte
	switch k := any(key).(type) {
	case string:
		h.WriteString(k)
	case int:
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(k)))
		h.Write(buf[:])
	case int64:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
		h.Write(buf[:])
	case int32:
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(k)))
		h.Write(buf[:])
	case uint:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
		h.Write(buf[:])
	case uint64:
		binary.LittleEndian.PutUint64(buf[:], k)
		h.Write(buf[:])
	case uint32:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
		h.Write(buf[:])
	default:
		// fallback for other comparable types
		h.WriteString(fmt.Sprint(key))
	}

	return int(h.Sum64() % uint64(len(s.shards)))
}

// Get retrieves a value from the cache by key. A hit promotes the entry
// within its shard.
func (s *Sharded[K, V]) Get(key K) (V, bool) {
	return s.shard(key).Get(key)
}

// Peek retrieves a value from the cache by key without promoting it and
// without touching the counters.
func (s *Sharded[K, V]) Peek(key K) (V, bool) {
	return s.shard(key).Peek(key)
}

// GetOrSet retrieves a value from the cache by key, or computes and sets
// it if not present. The compute function is only called on a miss.
// Note: if multiple goroutines call GetOrSet concurrently for the same
// missing key, compute may be called multiple times but only one result
// will be cached.
func (s *Sharded[K, V]) GetOrSet(key K, compute func() (V, error)) (V, error) {
	return s.shard(key).GetOrSet(key, compute)
}

// GetOrSetSingleflight retrieves a value from the cache by key, or
// computes and sets it if not present, collapsing concurrent computes for
// the same key into a single call within the key's shard.
func (s *Sharded[K, V]) GetOrSetSingleflight(key K, compute func() (V, error)) (V, error) {
	return s.shard(key).GetOrSetSingleflight(key, compute)
}

// Set adds or updates an entry in the cache. If the key's shard is full,
// the least recently used entry of that shard is evicted.
func (s *Sharded[K, V]) Set(key K, value V) {
	s.shard(key).Set(key, value)
}

// Remove deletes an entry from the cache by key, returning the removed
// value and whether the key was present.
func (s *Sharded[K, V]) Remove(key K) (V, bool) {
	return s.shard(key).Remove(key)
}

// Len returns the current number of entries across all shards.
func (s *Sharded[K, V]) Len() int {
	total := 0
	for _, shard := range s.shards {
		total += shard.Len()
	}
	return total
}

// Clear removes all entries from all shards.
func (s *Sharded[K, V]) Clear() {
	for _, shard := range s.shards {
		shard.Clear()
	}
}

// Contains checks if a key exists in the cache without promoting it.
func (s *Sharded[K, V]) Contains(key K) bool {
	return s.shard(key).Contains(key)
}

// Keys returns a slice of all keys in the cache, most recently used first
// within each shard, with shards visited in order. The global LRU order is
// not preserved across shards.
func (s *Sharded[K, V]) Keys() []K {
	keys := make([]K, 0, s.Len())
	for _, shard := range s.shards {
		keys = append(keys, shard.Keys()...)
	}
	return keys
}

// Capacity returns the maximum total capacity of the cache.
func (s *Sharded[K, V]) Capacity() int {
	return s.capacity
}

// ShardCount returns the number of shards in the cache.
func (s *Sharded[K, V]) ShardCount() int {
	return len(s.shards)
}

// Stats returns the element-wise sum of every shard's counters. The
// snapshot is consistent per shard but not across shards.
func (s *Sharded[K, V]) Stats() Stats {
	var total Stats
	for _, shard := range s.shards {
		total = total.merge(shard.Stats())
	}
	return total
}

// OnEvict sets a callback function that is called whenever an entry leaves
// any shard. The callback must be safe for concurrent use.
func (s *Sharded[K, V]) OnEvict(f OnEvictFunc[K, V]) {
	for _, shard := range s.shards {
		shard.OnEvict(f)
	}
}
