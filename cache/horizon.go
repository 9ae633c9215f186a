package cache

import "github.com/IvanBrykalov/cachesim/filter"

// horizon is a fixed ring of membership buckets answering "was this
// fingerprint seen within the last len(ring) time slices". Bucket 0 is the
// current slice; only it receives inserts.
type horizon struct {
	ring     []filter.Segment
	slice    int64 // rotation period, UnixNano units
	last     int64 // time of the last rotation (or construction)
	expected uint  // items each fresh bucket is sized for
	factory  filter.Factory
}

func newHorizon(buckets int, slice int64, expected uint, f filter.Factory, now int64) *horizon {
	h := &horizon{
		ring:     make([]filter.Segment, buckets),
		slice:    slice,
		last:     now,
		expected: expected,
		factory:  f,
	}
	for i := range h.ring {
		h.ring[i] = f.New(expected)
	}
	return h
}

// contains reports membership in any bucket of the ring.
func (h *horizon) contains(fp uint64) bool {
	for _, b := range h.ring {
		if b.Contains(fp) {
			return true
		}
	}
	return false
}

// insert adds fp to the current bucket, rotating first if the current slice
// has expired. Reports whether a rotation happened.
func (h *horizon) insert(fp uint64, now int64) bool {
	rotated := false
	if now-h.last > h.slice {
		h.rotate(now)
		rotated = true
	}
	h.ring[0].Add(fp)
	return rotated
}

// rotate drops the oldest bucket and installs a fresh one at the head.
func (h *horizon) rotate(now int64) {
	copy(h.ring[1:], h.ring[:len(h.ring)-1])
	h.ring[0] = h.factory.New(h.expected)
	h.last = now
}

func (h *horizon) sizeInBytes() uint64 {
	var b uint64
	for _, s := range h.ring {
		b += s.SizeInBytes()
	}
	return b
}
