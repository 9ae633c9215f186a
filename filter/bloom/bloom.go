// Package bloom implements filter.Segment on top of a Bloom filter.
// Bloom segments cannot delete; they back the long-horizon ring where whole
// buckets are discarded on rotation instead.
package bloom

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/IvanBrykalov/cachesim/filter"
)

// DefaultFalsePositiveRate is the per-bucket target for horizon buckets.
const DefaultFalsePositiveRate = 0.001

// Segment is a Bloom-filter backed filter.Segment.
type Segment struct {
	b   *bloom.BloomFilter
	fpr float64
	n   int // distinct adds as observed by TestAndAdd
	buf [8]byte
}

// New returns a segment sized for expectedItems at the given false-positive
// rate. Out-of-range rates fall back to DefaultFalsePositiveRate.
func New(expectedItems uint, fpRate float64) *Segment {
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = DefaultFalsePositiveRate
	}
	if expectedItems == 0 {
		expectedItems = 1
	}
	return &Segment{
		b:   bloom.NewWithEstimates(expectedItems, fpRate),
		fpr: fpRate,
	}
}

// NewFactory returns a filter.Factory producing Bloom segments.
func NewFactory(fpRate float64) filter.Factory {
	return filter.FactoryFunc(func(expectedItems uint) filter.Segment {
		return New(expectedItems, fpRate)
	})
}

func (s *Segment) key(fp uint64) []byte {
	binary.LittleEndian.PutUint64(s.buf[:], fp)
	return s.buf[:]
}

// Add inserts fp. It always succeeds; saturation only raises the FP rate.
func (s *Segment) Add(fp uint64) bool {
	if !s.b.TestAndAdd(s.key(fp)) {
		s.n++
	}
	return true
}

// Contains reports whether fp may be present.
func (s *Segment) Contains(fp uint64) bool { return s.b.Test(s.key(fp)) }

// Delete is unsupported by Bloom filters and always returns false.
func (s *Segment) Delete(uint64) bool { return false }

// Len returns the number of adds that set at least one new bit.
func (s *Segment) Len() int { return s.n }

// SizeInBytes returns the bit budget of the filter divided by eight.
func (s *Segment) SizeInBytes() uint64 { return uint64(s.b.Cap()) / 8 }

// FalsePositiveRate returns the configured target rate.
func (s *Segment) FalsePositiveRate() float64 { return s.fpr }

// Compile-time check: ensure Segment implements filter.Segment.
var _ filter.Segment = (*Segment)(nil)
