package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/cachesim/cache"
)

// Adapter implements cache.Metrics and exports Prometheus counters.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits      *prometheus.CounterVec
	tailHits  prometheus.Counter
	misses    prometheus.Counter
	rotations prometheus.Counter

	// Pre-resolved children, one per bucket slot.
	byBucket [cache.NumBuckets]prometheus.Counter
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil),
//     e.g. prometheus.Labels{"cache_name": "sessions"}
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "window_hits_total",
				Help:        "Simulated hits found in the recency window, by percent-of-capacity bucket",
				ConstLabels: constLabels,
			},
			[]string{"le"},
		),
		tailHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "tail_hits_total",
			Help:        "Simulated hits found only in the long horizon",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Never before seen keys",
			ConstLabels: constLabels,
		}),
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "horizon_rotations_total",
			Help:        "Long-horizon ring rotations",
			ConstLabels: constLabels,
		}),
	}
	for i := range a.byBucket {
		a.byBucket[i] = a.hits.WithLabelValues(cache.BucketLabel(i))
	}
	reg.MustRegister(a.hits, a.tailHits, a.misses, a.rotations)
	return a
}

// Hit increments the window-hit counter for the bucket slot.
func (a *Adapter) Hit(bucket int) {
	if bucket < 0 || bucket >= len(a.byBucket) {
		bucket = cache.InfBucket
	}
	a.byBucket[bucket].Inc()
}

// TailHit increments the tail-hit counter.
func (a *Adapter) TailHit() { a.tailHits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Rotate increments the rotation counter.
func (a *Adapter) Rotate() { a.rotations.Inc() }

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
