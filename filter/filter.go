// Package filter defines the approximate-membership capability used by the
// simulator. Concrete segments live in subpackages (cuckoo, bloom).
package filter

// Segment is an approximate-membership set keyed by 64-bit fingerprints.
//
// Contract:
//   - Contains never reports false for a fingerprint that was added and not
//     deleted since (no false negatives).
//   - Contains may report true for a fingerprint that was never added; the
//     probability is bounded by FalsePositiveRate.
//   - Delete is best effort: deleting an absent fingerprint is a no-op and
//     returns false. Variants that cannot delete always return false.
//   - Add beyond the segment's internal capacity either fails silently or is
//     absorbed; it never panics.
//
// Segments are not safe for concurrent use; the owner serializes access.
type Segment interface {
	Add(fp uint64) bool
	Contains(fp uint64) bool
	Delete(fp uint64) bool
	// Len is the approximate number of fingerprints currently held.
	Len() int
	// SizeInBytes is the memory footprint of the underlying table.
	SizeInBytes() uint64
	// FalsePositiveRate is the configured target rate.
	FalsePositiveRate() float64
}

// Factory builds empty segments sized for an expected number of items.
// The simulator keeps one Factory per structure and calls it every time a
// fresh segment is needed (window roll, horizon rotation).
type Factory interface {
	New(expectedItems uint) Segment
}

// FactoryFunc adapts a plain function to Factory.
type FactoryFunc func(expectedItems uint) Segment

// New implements Factory.
func (f FactoryFunc) New(expectedItems uint) Segment { return f(expectedItems) }
