package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/IvanBrykalov/cachesim/filter"
)

// Metrics exposes simulator-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	// Hit reports a window hit classified into bucket (0..InfBucket).
	Hit(bucket int)
	// TailHit reports a hit found only through the long horizon.
	TailHit()
	// Miss reports a key never seen before.
	Miss()
	// Rotate reports a horizon rotation.
	Rotate()
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

const (
	// DefaultHorizonBuckets is the ring length of the long-horizon filter.
	DefaultHorizonBuckets = 4
	// DefaultHorizonSlice is how long each horizon bucket stays current.
	DefaultHorizonSlice = 15 * time.Minute
	// DefaultHorizonMultiple sizes each horizon bucket for this many
	// multiples of capacity.
	DefaultHorizonMultiple = 10
)

// Options configures the simulator. Zero values are safe;
// sane defaults are applied in New():
//   - HorizonBuckets <= 0 => DefaultHorizonBuckets
//   - HorizonSlice   <= 0 => DefaultHorizonSlice
//   - nil WindowFilter   => cuckoo segments (32-bit tags)
//   - nil HorizonFilter  => Bloom buckets (0.1% false positives)
//   - nil Metrics        => NoopMetrics
//   - nil Logger         => zap.NewNop()
type Options struct {
	// Capacity is the simulated cache size in items. Must be > 0.
	Capacity int

	// Long horizon: total horizon = HorizonBuckets * HorizonSlice.
	HorizonBuckets int
	HorizonSlice   time.Duration
	// HorizonItems is the item count each horizon bucket is sized for
	// (0 = DefaultHorizonMultiple * Capacity). Every bucket is allocated in
	// New, so the horizon reserves HorizonBuckets * HorizonItems * ~14.4 bits
	// up front at the default 0.1% false-positive rate: about 720MB for a
	// 10M-entry Capacity with default settings.
	HorizonItems uint

	// Filter factories; pluggable for tests and memory tuning.
	WindowFilter  filter.Factory
	HorizonFilter filter.Factory

	// Observability
	Metrics Metrics
	Logger  *zap.Logger

	// Clock allows overriding time source (tests). Nil => time.Now().
	Clock Clock
}
