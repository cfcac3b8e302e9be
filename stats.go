package lru

// Stats is a point-in-time snapshot of a cache's counters. Counters are
// monotonic for the lifetime of the cache; [Cache.Clear] does not reset
// them.
//
//   - Hits counts Get lookups that found a live entry.
//   - Misses counts Get lookups that found nothing (or, for [Expirable],
//     an expired entry).
//   - Evictions counts entries dropped under capacity pressure. Explicit
//     removals (Remove, RemoveOldest, Clear) are not evictions.
//   - Expirations counts entries removed because their TTL elapsed; it is
//     always zero for non-expirable caches.
//
// Peek and Contains are deliberately invisible to the counters, matching
// their non-effect on recency order.
type Stats struct {
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Expirations uint64
}

// HitRatio returns the fraction of Get lookups that were hits, or zero if
// there have been no lookups.
func (s Stats) HitRatio() float64 {
	lookups := s.Hits + s.Misses
	if lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(lookups)
}

// merge returns the element-wise sum of two snapshots. Used by [Sharded]
// to aggregate per-shard counters.
func (s Stats) merge(o Stats) Stats {
	return Stats{
		Hits:        s.Hits + o.Hits,
		Misses:      s.Misses + o.Misses,
		Evictions:   s.Evictions + o.Evictions,
		Expirations: s.Expirations + o.Expirations,
	}
}
