package bloom

import (
	"testing"

	"github.com/IvanBrykalov/cachesim/filter"
)

func TestSegment_AddContains(t *testing.T) {
	t.Parallel()

	s := New(1000, DefaultFalsePositiveRate)
	for i := uint64(0); i < 500; i++ {
		s.Add(i)
	}
	for i := uint64(0); i < 500; i++ {
		if !s.Contains(i) {
			t.Fatalf("false negative for %d", i)
		}
	}
	if s.Len() > 500 || s.Len() < 490 {
		t.Fatalf("Len want ~500, got %d", s.Len())
	}
}

// Repeated adds of the same fingerprint are counted once.
func TestSegment_LenIgnoresRepeats(t *testing.T) {
	t.Parallel()

	s := New(100, DefaultFalsePositiveRate)
	s.Add(7)
	s.Add(7)
	s.Add(7)
	if s.Len() != 1 {
		t.Fatalf("Len want 1, got %d", s.Len())
	}
}

func TestSegment_EmptyAndDelete(t *testing.T) {
	t.Parallel()

	s := New(100, DefaultFalsePositiveRate)
	if s.Contains(12345) {
		t.Fatal("empty segment must not contain anything")
	}
	s.Add(12345)
	if s.Delete(12345) {
		t.Fatal("Bloom Delete must report false")
	}
	if !s.Contains(12345) {
		t.Fatal("Delete must not remove anything from a Bloom segment")
	}
}

// SizeInBytes is the bit budget / 8 and grows with the expected item count.
func TestSegment_SizeInBytes(t *testing.T) {
	t.Parallel()

	small := New(1_000, DefaultFalsePositiveRate)
	large := New(100_000, DefaultFalsePositiveRate)
	if small.SizeInBytes() != uint64(small.b.Cap())/8 {
		t.Fatal("SizeInBytes must equal Cap()/8")
	}
	if large.SizeInBytes() <= small.SizeInBytes() {
		t.Fatalf("large %d must exceed small %d", large.SizeInBytes(), small.SizeInBytes())
	}
}

func TestNew_InvalidRateFallsBack(t *testing.T) {
	t.Parallel()

	for _, r := range []float64{0, -1, 1, 2} {
		if got := New(10, r).FalsePositiveRate(); got != DefaultFalsePositiveRate {
			t.Fatalf("rate %v: want fallback %v, got %v", r, DefaultFalsePositiveRate, got)
		}
	}
	if New(0, 0.01) == nil {
		t.Fatal("zero expected items must still build a segment")
	}
}

func TestFactory(t *testing.T) {
	t.Parallel()

	var f filter.Factory = NewFactory(0.01)
	if got := f.New(10).FalsePositiveRate(); got != 0.01 {
		t.Fatalf("factory rate want 0.01, got %v", got)
	}
}
