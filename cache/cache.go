package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/IvanBrykalov/cachesim/filter/bloom"
	"github.com/IvanBrykalov/cachesim/filter/cuckoo"
)

// Cache replays a key stream and estimates, per insert, where a cache of
// Capacity items would have found the key. It stores fingerprints in
// approximate-membership filters only, never values.
//
// Cache is not safe for concurrent use. Give each logical cache its own
// instance and serialize access externally (see package tracker).
type Cache struct {
	capacity uint64
	win      *window
	hz       *horizon
	stats    BucketStats

	// horizonAuto is set when horizon buckets are sized from capacity.
	horizonAuto bool

	opt Options
}

// New constructs a simulator with the provided Options.
// Defaults:
//   - nil filters  -> cuckoo window segments, Bloom horizon buckets
//   - nil Metrics  -> NoopMetrics
//   - nil Logger   -> zap.NewNop()
func New(opt Options) *Cache {
	if opt.Capacity <= 0 {
		panic("Capacity must be > 0")
	}
	if opt.HorizonBuckets <= 0 {
		opt.HorizonBuckets = DefaultHorizonBuckets
	}
	if opt.HorizonSlice <= 0 {
		opt.HorizonSlice = DefaultHorizonSlice
	}
	auto := opt.HorizonItems == 0
	if auto {
		opt.HorizonItems = uint(DefaultHorizonMultiple * opt.Capacity)
	}
	if opt.WindowFilter == nil {
		opt.WindowFilter = cuckoo.NewFactory(cuckoo.DefaultBitsPerItem)
	}
	if opt.HorizonFilter == nil {
		opt.HorizonFilter = bloom.NewFactory(bloom.DefaultFalsePositiveRate)
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}

	c := &Cache{
		capacity:    uint64(opt.Capacity),
		horizonAuto: auto,
		opt:         opt,
	}
	c.win = newWindow(c.capacity, opt.WindowFilter)
	c.hz = newHorizon(opt.HorizonBuckets, int64(opt.HorizonSlice), opt.HorizonItems, opt.HorizonFilter, c.now())
	opt.Logger.Debug("simulator created",
		zap.Uint64("capacity", c.capacity),
		zap.Int("horizon_buckets", len(c.hz.ring)),
		zap.Uint("horizon_items", opt.HorizonItems),
		zap.Float64("horizon_fpr", c.hz.ring[0].FalsePositiveRate()),
		zap.Uint64("horizon_bytes", c.hz.sizeInBytes()),
	)
	return c
}

// Insert classifies fp against the state left by previous inserts, records
// the outcome, then makes fp the most recent item.
//
// Classification must read state before this call mutates it; otherwise
// every insert would hit against itself.
func (c *Cache) Insert(fp uint64) {
	if pct, ok := c.win.position(fp); ok {
		c.opt.Metrics.Hit(c.stats.Hit(pct))
	} else if c.hz.contains(fp) {
		c.stats.HitTail()
		c.opt.Metrics.TailHit()
	} else {
		c.stats.Miss()
		c.opt.Metrics.Miss()
	}

	if c.hz.insert(fp, c.now()) {
		c.opt.Metrics.Rotate()
		c.opt.Logger.Debug("horizon rotated",
			zap.Uint64("capacity", c.capacity),
			zap.Int("buckets", len(c.hz.ring)),
			zap.Int("window_segments", len(c.win.segs)),
		)
	}
	c.win.insert(fp)
}

// Stats returns a snapshot of the raw per-bucket counters.
func (c *Cache) Stats() Snapshot { return c.stats.Snapshot() }

// MemoryUsage estimates the bytes held by all filters: window segment tables
// plus each horizon bucket's bit budget.
func (c *Cache) MemoryUsage() uint64 {
	return c.win.sizeInBytes() + c.hz.sizeInBytes()
}

// ChangeCacheSize updates the simulated capacity and the segment roll
// threshold. Already allocated filters are kept as they are, so buckets
// computed right after a large change mix old and new sizing. Segments and
// horizon buckets created from now on are sized for the new capacity.
func (c *Cache) ChangeCacheSize(capacity int) {
	if capacity <= 0 {
		panic("Capacity must be > 0")
	}
	old := c.capacity
	c.capacity = uint64(capacity)
	c.win.resize(c.capacity)
	if c.horizonAuto {
		c.hz.expected = uint(DefaultHorizonMultiple * capacity)
	}
	c.opt.Logger.Debug("capacity changed",
		zap.Uint64("from", old),
		zap.Uint64("to", c.capacity),
		zap.Int("window_segments", len(c.win.segs)),
	)
}

// Capacity returns the current simulated capacity.
func (c *Cache) Capacity() int { return int(c.capacity) }

// Segments returns the number of segments currently in the recency window.
func (c *Cache) Segments() int { return len(c.win.segs) }

// WindowItems returns the approximate number of fingerprints in the window.
func (c *Cache) WindowItems() int { return c.win.items() }

func (c *Cache) now() int64 {
	if c.opt.Clock != nil {
		return c.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}
