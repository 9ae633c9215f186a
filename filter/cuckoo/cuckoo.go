// Package cuckoo implements filter.Segment on top of a cuckoo filter.
// Cuckoo filters support deletion, which the recency window relies on to keep
// a repeated key at its most recent position only.
package cuckoo

import (
	"encoding/binary"
	"math"

	cf "github.com/linvon/cuckoo-filter"

	"github.com/IvanBrykalov/cachesim/filter"
)

const (
	tagsPerBucket = 4

	// DefaultBitsPerItem keeps the per-lookup false-positive rate around 2e-9,
	// small enough that a window of dozens of segments stays effectively exact.
	DefaultBitsPerItem = 32

	minBitsPerItem = 4
	maxBitsPerItem = 32

	// Slack over the expected item count so the table never runs near its
	// maximum load factor (inserts would start failing).
	loadSlack = 2
	minKeys   = 16
)

// Segment is a cuckoo-filter backed filter.Segment.
type Segment struct {
	f   *cf.Filter
	fpr float64
	buf [8]byte // scratch for fingerprint encoding; Segment is single-owner
}

// New returns a segment sized for expectedItems fingerprints.
// bitsPerItem is clamped to [4..32].
func New(expectedItems, bitsPerItem uint) *Segment {
	if bitsPerItem < minBitsPerItem {
		bitsPerItem = minBitsPerItem
	}
	if bitsPerItem > maxBitsPerItem {
		bitsPerItem = maxBitsPerItem
	}
	keys := expectedItems * loadSlack
	if keys < minKeys {
		keys = minKeys
	}
	return &Segment{
		f: cf.NewFilter(tagsPerBucket, bitsPerItem, keys, cf.TableTypeSingle),
		// Two candidate buckets of tagsPerBucket slots each.
		fpr: math.Min(1, 2*tagsPerBucket/math.Exp2(float64(bitsPerItem))),
	}
}

// NewFactory returns a filter.Factory producing cuckoo segments.
func NewFactory(bitsPerItem uint) filter.Factory {
	return filter.FactoryFunc(func(expectedItems uint) filter.Segment {
		return New(expectedItems, bitsPerItem)
	})
}

func (s *Segment) key(fp uint64) []byte {
	binary.LittleEndian.PutUint64(s.buf[:], fp)
	return s.buf[:]
}

// Add inserts fp. Returns false if the table is saturated.
func (s *Segment) Add(fp uint64) bool { return s.f.Add(s.key(fp)) }

// Contains reports whether fp may be present.
func (s *Segment) Contains(fp uint64) bool { return s.f.Contain(s.key(fp)) }

// Delete removes one copy of fp. Absent fingerprints are a no-op.
func (s *Segment) Delete(fp uint64) bool { return s.f.Delete(s.key(fp)) }

// Len returns the number of stored fingerprints.
func (s *Segment) Len() int { return int(s.f.Size()) }

// SizeInBytes returns the size of the cuckoo table.
func (s *Segment) SizeInBytes() uint64 { return uint64(s.f.SizeInBytes()) }

// FalsePositiveRate returns the upper bound derived from the tag width.
func (s *Segment) FalsePositiveRate() float64 { return s.fpr }

// Compile-time check: ensure Segment implements filter.Segment.
var _ filter.Segment = (*Segment)(nil)
