package cache

import "github.com/IvanBrykalov/cachesim/filter"

const (
	// segmentDivisor splits capacity into segments of ~capacity/10 items.
	segmentDivisor = 10
	// windowMultiple bounds the window to ~5x capacity items.
	windowMultiple = 5
)

// window is the segmented recency structure: a list of membership segments,
// newest at index 0. Position within the list approximates how many inserts
// ago a fingerprint was last seen.
type window struct {
	segs     []filter.Segment
	capacity uint64
	maxSeg   int // head segment rolls once its length exceeds this
	factory  filter.Factory
}

func newWindow(capacity uint64, f filter.Factory) *window {
	w := &window{factory: f}
	w.resize(capacity)
	return w
}

// resize updates capacity and the roll threshold only. Existing segments
// keep the sizing they were built with.
func (w *window) resize(capacity uint64) {
	w.capacity = capacity
	w.maxSeg = int(capacity / segmentDivisor)
}

// position returns the estimated recency distance of fp as a percentage of
// capacity. The distance is the midpoint of the matching segment's range
// [items in newer segments, that + segment length].
func (w *window) position(fp uint64) (pct uint64, ok bool) {
	var before uint64
	for _, s := range w.segs {
		n := uint64(s.Len())
		if s.Contains(fp) {
			mid := (before + before + n) / 2
			return 100 * mid / w.capacity, true
		}
		before += n
	}
	return 0, false
}

// insert records fp as the most recent item.
func (w *window) insert(fp uint64) {
	if len(w.segs) == 0 || w.segs[0].Len() > w.maxSeg {
		w.pushFront(w.factory.New(uint(w.maxSeg) + 1))
	}

	// A repeated key counts only at its most recent position.
	for _, s := range w.segs {
		s.Delete(fp)
	}
	w.segs[0].Add(fp)

	w.truncate()
}

func (w *window) pushFront(s filter.Segment) {
	w.segs = append(w.segs, nil)
	copy(w.segs[1:], w.segs)
	w.segs[0] = s
}

// truncate drops the first segment whose preceding total reaches the bound,
// together with everything older. Segments drained by re-inserts are removed
// on the way; they hold nothing and add nothing to any range.
func (w *window) truncate() {
	limit := windowMultiple * w.capacity
	total := uint64(w.segs[0].Len())
	n := 1
	for _, s := range w.segs[1:] {
		if total >= limit {
			break
		}
		if s.Len() == 0 {
			continue
		}
		w.segs[n] = s
		n++
		total += uint64(s.Len())
	}
	clear(w.segs[n:])
	w.segs = w.segs[:n]
}

// items returns the total length across segments.
func (w *window) items() int {
	n := 0
	for _, s := range w.segs {
		n += s.Len()
	}
	return n
}

func (w *window) sizeInBytes() uint64 {
	var b uint64
	for _, s := range w.segs {
		b += s.SizeInBytes()
	}
	return b
}
