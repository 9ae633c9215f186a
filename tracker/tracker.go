// Package tracker binds the simulator to arbitrary Go values. It hashes
// caller keys to fingerprints, serializes access with a mutex, and renders
// statistics as cumulative, histogram-style buckets.
package tracker

import (
	"math"
	"sync"

	"github.com/IvanBrykalov/cachesim/cache"
	"github.com/IvanBrykalov/cachesim/internal/util"
)

// ErrUnhashable is returned by Insert for values that cannot be
// fingerprinted. Test with errors.Is.
var ErrUnhashable = util.ErrUnhashable

// Bucket is one cumulative histogram bucket.
type Bucket struct {
	// Label is the boundary as text ("25", ..., "500") or "+Inf".
	Label string
	// UpperBound is the boundary in percent of capacity; +Inf for the last bucket.
	UpperBound float64
	// Count is the number of hits at or below UpperBound.
	Count uint64
}

// Tracker is a concurrency-safe simulator for one logical cache.
// All methods are safe for concurrent use by multiple goroutines.
type Tracker[K any] struct {
	mu   sync.Mutex
	c    *cache.Cache
	hash func(K) (uint64, error)
}

// New constructs a tracker with the provided engine Options, hashing keys
// with util.Fingerprint.
func New[K any](opt cache.Options) *Tracker[K] {
	return NewWithHasher[K](opt, util.Fingerprint[K])
}

// NewWithHasher is New with a caller-supplied fingerprint function.
// A nil hash falls back to the default fingerprinting.
func NewWithHasher[K any](opt cache.Options, hash func(K) (uint64, error)) *Tracker[K] {
	if hash == nil {
		hash = util.Fingerprint[K]
	}
	return &Tracker[K]{c: cache.New(opt), hash: hash}
}

// Insert records one request for k. It fails only when k cannot be hashed;
// the simulator state is untouched in that case.
func (t *Tracker[K]) Insert(k K) error {
	fp, err := t.hash(k)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.c.Insert(fp)
	t.mu.Unlock()
	return nil
}

// InsertFingerprint records a request for an already hashed key.
func (t *Tracker[K]) InsertFingerprint(fp uint64) {
	t.mu.Lock()
	t.c.Insert(fp)
	t.mu.Unlock()
}

// Snapshot returns the raw engine counters.
func (t *Tracker[K]) Snapshot() cache.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.c.Stats()
}

// Buckets returns cumulative hit counts per boundary, ending with "+Inf"
// (which includes tail hits and equals the total hit count).
func (t *Tracker[K]) Buckets() []Bucket {
	return CumulativeBuckets(t.Snapshot())
}

// Misses returns the number of never-before-seen keys.
func (t *Tracker[K]) Misses() uint64 { return t.Snapshot().Misses }

// MemoryUsage returns the estimated bytes held by the simulator's filters.
func (t *Tracker[K]) MemoryUsage() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.c.MemoryUsage()
}

// Capacity returns the current simulated capacity.
func (t *Tracker[K]) Capacity() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.c.Capacity()
}

// ChangeCacheSize updates the simulated capacity. See cache.ChangeCacheSize
// for the approximation this introduces.
func (t *Tracker[K]) ChangeCacheSize(capacity int) {
	t.mu.Lock()
	t.c.ChangeCacheSize(capacity)
	t.mu.Unlock()
}

// CumulativeBuckets converts a raw snapshot into cumulative buckets.
func CumulativeBuckets(s cache.Snapshot) []Bucket {
	cum := s.Cumulative()
	bounds := cache.Boundaries()
	out := make([]Bucket, 0, cache.NumBuckets)
	for i, b := range bounds {
		out = append(out, Bucket{
			Label:      cache.BucketLabel(i),
			UpperBound: float64(b),
			Count:      cum[i],
		})
	}
	out = append(out, Bucket{
		Label:      cache.BucketLabel(cache.InfBucket),
		UpperBound: math.Inf(1),
		Count:      cum[cache.InfBucket],
	})
	return out
}
