package cache

import (
	"testing"

	"github.com/IvanBrykalov/cachesim/filter/cuckoo"
)

func testWindow(capacity uint64) *window {
	return newWindow(capacity, cuckoo.NewFactory(cuckoo.DefaultBitsPerItem))
}

// The head rolls only after it grows past capacity/10 items.
func TestWindow_SegmentRoll(t *testing.T) {
	t.Parallel()

	w := testWindow(100) // roll threshold: 10
	for i := uint64(0); i < 11; i++ {
		w.insert(i)
	}
	if len(w.segs) != 1 {
		t.Fatalf("after 11 inserts want 1 segment, got %d", len(w.segs))
	}
	w.insert(11)
	if len(w.segs) != 2 {
		t.Fatalf("after 12 inserts want 2 segments, got %d", len(w.segs))
	}
	if w.segs[0].Len() != 1 {
		t.Fatalf("new head want 1 item, got %d", w.segs[0].Len())
	}
}

// Re-inserting a key moves it; it is never counted in two segments.
func TestWindow_RepeatedKeyCountedOnce(t *testing.T) {
	t.Parallel()

	w := testWindow(10) // threshold 1: two items per segment
	w.insert(1)
	w.insert(2)
	w.insert(3) // rolls: [3] [1 2]
	w.insert(1) // [3 1] [2]
	if got := w.items(); got != 3 {
		t.Fatalf("items want 3, got %d", got)
	}
	if w.segs[1].Contains(1) {
		t.Fatal("old copy of 1 must be deleted")
	}
	if !w.segs[0].Contains(1) {
		t.Fatal("1 must be in the head segment")
	}
}

// Position is the midpoint of the matching segment's range.
func TestWindow_PositionEstimate(t *testing.T) {
	t.Parallel()

	w := testWindow(100)
	for i := uint64(0); i < 22; i++ {
		w.insert(i)
	}
	// head: 11..21 (11 items), next: 0..10 (11 items)
	pct, ok := w.position(0)
	if !ok {
		t.Fatal("0 must be found")
	}
	// range [11, 22], midpoint 16, capacity 100
	if pct != 16 {
		t.Fatalf("position(0) = %d%%, want 16%%", pct)
	}
	if pct, ok := w.position(21); !ok || pct != 5 {
		t.Fatalf("position(21) = %d%% ok=%v, want 5%%", pct, ok)
	}
	if _, ok := w.position(1_000); ok {
		t.Fatal("unknown fingerprint must not be found")
	}
}

// Truncation keeps the window near 5x capacity.
func TestWindow_Truncation(t *testing.T) {
	t.Parallel()

	w := testWindow(10)
	for i := uint64(0); i < 200; i++ {
		w.insert(i)
	}
	if n := w.items(); n < 50 || n > 52 {
		t.Fatalf("items want ~50, got %d", n)
	}
	if _, ok := w.position(0); ok {
		t.Fatal("oldest key must be truncated away")
	}
	if _, ok := w.position(199); !ok {
		t.Fatal("newest key must be present")
	}
}

// resize changes the roll threshold but keeps existing segments.
func TestWindow_Resize(t *testing.T) {
	t.Parallel()

	w := testWindow(100)
	for i := uint64(0); i < 5; i++ {
		w.insert(i)
	}
	w.resize(20)
	if w.maxSeg != 2 || w.capacity != 20 {
		t.Fatalf("maxSeg=%d capacity=%d", w.maxSeg, w.capacity)
	}
	if len(w.segs) != 1 || w.segs[0].Len() != 5 {
		t.Fatal("resize must not touch existing segments")
	}
	w.insert(5) // head already has 5 > 2: roll
	if len(w.segs) != 2 {
		t.Fatalf("want roll after resize, got %d segments", len(w.segs))
	}
}

// Segments emptied by re-inserts are compacted away, so a small keyspace
// cannot grow the window without bound.
func TestWindow_DrainedSegmentsDropped(t *testing.T) {
	t.Parallel()

	w := testWindow(10)
	for _, fp := range []uint64{1, 2, 3, 1, 2} {
		w.insert(fp)
	}
	// [2] [3 1]; the drained [2] segment is gone.
	if len(w.segs) != 2 {
		t.Fatalf("want 2 segments, got %d", len(w.segs))
	}
	for i := 0; i < 10_000; i++ {
		w.insert(uint64(i % 4))
	}
	if len(w.segs) > 4 {
		t.Fatalf("4 live keys must not need %d segments", len(w.segs))
	}
}
