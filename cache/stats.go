package cache

import "strconv"

// boundaries is the ascending percent-of-capacity table used to quantize
// recency distances. A hit lands in the first boundary >= its percentage;
// anything larger lands in the trailing +Inf slot.
var boundaries = [...]uint64{25, 50, 75, 90, 100, 110, 150, 200, 500}

// NumBuckets is the number of hit slots including the +Inf slot.
const NumBuckets = len(boundaries) + 1

// InfBucket is the index of the +Inf (overflow) slot.
const InfBucket = NumBuckets - 1

// Boundaries returns a copy of the finite boundary table (percent of capacity).
func Boundaries() []uint64 {
	out := make([]uint64, len(boundaries))
	copy(out, boundaries[:])
	return out
}

// BucketLabel returns a stable label for bucket i: the boundary value,
// or "+Inf" for the overflow slot.
func BucketLabel(i int) string {
	if i < 0 || i >= len(boundaries) {
		return "+Inf"
	}
	return strconv.FormatUint(boundaries[i], 10)
}

// bucketFor maps a percentage to its slot index.
func bucketFor(pct uint64) int {
	for i, b := range boundaries {
		if pct <= b {
			return i
		}
	}
	return InfBucket
}

// BucketStats accumulates hit positions, tail hits and misses.
// Counters only ever increase.
type BucketStats struct {
	hits   [NumBuckets]uint64
	tail   uint64
	misses uint64
}

// Hit records a window hit at pct percent of capacity and returns the slot.
func (s *BucketStats) Hit(pct uint64) int {
	i := bucketFor(pct)
	s.hits[i]++
	return i
}

// HitTail records a hit that was found only through the long horizon.
func (s *BucketStats) HitTail() { s.tail++ }

// Miss records a key never seen before (compulsory miss).
func (s *BucketStats) Miss() { s.misses++ }

// Snapshot returns a value copy of the counters.
func (s *BucketStats) Snapshot() Snapshot {
	return Snapshot{Hits: s.hits, Tail: s.tail, Misses: s.misses}
}

// Snapshot is an immutable view of BucketStats.
// Hits are raw per-bucket counts aligned with Boundaries(); Hits[InfBucket]
// counts window hits beyond the largest boundary. Tail counts hits found only
// through the long horizon.
type Snapshot struct {
	Hits   [NumBuckets]uint64
	Tail   uint64
	Misses uint64
}

// Inf returns the combined +Inf count: window overflow plus tail hits.
func (s Snapshot) Inf() uint64 { return s.Hits[InfBucket] + s.Tail }

// TotalHits returns all hits, window and tail.
func (s Snapshot) TotalHits() uint64 {
	var n uint64
	for _, h := range s.Hits {
		n += h
	}
	return n + s.Tail
}

// Requests returns the number of classified inserts.
func (s Snapshot) Requests() uint64 { return s.TotalHits() + s.Misses }

// Cumulative returns running hit sums aligned with the bucket slots.
// The last element (+Inf) includes tail hits and equals TotalHits.
func (s Snapshot) Cumulative() [NumBuckets]uint64 {
	var out [NumBuckets]uint64
	var run uint64
	for i, h := range s.Hits {
		run += h
		out[i] = run
	}
	out[InfBucket] += s.Tail
	return out
}

// HitRate estimates the fraction of requests that would have hit in a cache
// sized at pct percent of the configured capacity. Only finite boundaries
// <= pct are counted. Returns 0 when nothing was recorded.
func (s Snapshot) HitRate(pct uint64) float64 {
	req := s.Requests()
	if req == 0 {
		return 0
	}
	var hits uint64
	for i, b := range boundaries {
		if b > pct {
			break
		}
		hits += s.Hits[i]
	}
	return float64(hits) / float64(req)
}
