// Package cache provides a hit-rate simulator: it replays a stream of key
// fingerprints and estimates what a bounded cache of a given capacity would
// have hit, without storing any values and with memory independent of key
// cardinality.
//
// Design
//
//   - Recency window: a list of approximate-membership segments (cuckoo
//     filters by default), newest first. Each segment holds ~Capacity/10
//     fingerprints; the window is truncated once it holds ~5x Capacity.
//     A key found in segment i is estimated to be "as recent as" the midpoint
//     of that segment's range, expressed as a percentage of Capacity.
//
//   - Long horizon: a fixed ring of large Bloom filters, one per time slice.
//     Only the newest bucket receives inserts. When the current slice has
//     expired, the next insert rotates the ring (oldest bucket dropped, fresh
//     bucket installed). Keys that scrolled out of the window but are still in
//     the ring are counted as tail hits.
//
//   - Statistics: hits are quantized against the boundary table
//     {25,50,75,90,100,110,150,200,500,+Inf} percent of Capacity. Keys found
//     nowhere are compulsory misses.
//
//   - Filters are pluggable via filter.Factory (Options.WindowFilter,
//     Options.HorizonFilter).
//
//   - Time: rotation is checked synchronously inside Insert using
//     Options.Clock (time.Now by default). No background goroutines.
//
//   - Metrics: Options.Metrics receives Hit/TailHit/Miss/Rotate signals.
//     By default NoopMetrics is used; plug the Prometheus adapter to export them.
//
// Basic usage
//
//	c := cache.New(cache.Options{Capacity: 10_000})
//	for _, fp := range fingerprints {
//	    c.Insert(fp)
//	}
//	s := c.Stats()
//	fmt.Printf("hit rate at 100%%: %.2f\n", s.HitRate(100))
//
// Thread-safety & complexity
//
// A Cache is owned by one goroutine; it performs no locking. Insert costs
// O(segments) filter probes, bounded by ~50 window segments plus the horizon
// ring. Use package tracker for a mutex-guarded, value-hashing wrapper.
//
// All results are statistical estimates: filter false positives may turn a
// novel key into a hit, and a repeated key that left the window before any
// horizon bucket absorbed it counts as a miss.
package cache
