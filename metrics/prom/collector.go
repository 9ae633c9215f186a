package prom

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/cachesim/tracker"
)

// DefaultNamespace prefixes the collector's metric names.
const DefaultNamespace = "cache_metrics"

// Source is what the Collector reads on every scrape. *tracker.Tracker
// satisfies it for any key type.
type Source interface {
	Buckets() []tracker.Bucket
	MemoryUsage() uint64
	Misses() uint64
}

type namedSource struct {
	name string
	src  Source
}

// Collector exports simulator state for a set of named caches at scrape
// time:
//   - <ns>_hit_count_by_percentage_size  histogram, cumulative hits per
//     percent-of-capacity boundary (label cache_name)
//   - <ns>_memory_usage                  gauge, estimated filter bytes
//   - <ns>_misses                        counter, never before seen keys
//
// The histogram carries no meaningful sum; it is always reported as 0.
// The misses family is <ns>_misses (cache_metrics_misses by default); older
// dashboards built on caches_metrics_misses need the query renamed.
type Collector struct {
	mu      sync.RWMutex
	sources []namedSource

	histo  *prometheus.Desc
	memory *prometheus.Desc
	misses *prometheus.Desc
}

// NewCollector builds an empty collector. An empty ns uses DefaultNamespace.
// Register it with a prometheus.Registerer, then Add sources.
func NewCollector(ns string, constLabels prometheus.Labels) *Collector {
	if ns == "" {
		ns = DefaultNamespace
	}
	labels := []string{"cache_name"}
	return &Collector{
		histo: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "", "hit_count_by_percentage_size"),
			"Tracks cache hit count for percentage sizes of the cache",
			labels, constLabels,
		),
		memory: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "", "memory_usage"),
			"Amount of memory each cache metric is currently using",
			labels, constLabels,
		),
		misses: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "", "misses"),
			"Number of never before seen keys",
			labels, constLabels,
		),
	}
}

// Add registers src under name. Adding the same name twice replaces the
// previous source.
func (c *Collector) Add(name string, src Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.sources {
		if c.sources[i].name == name {
			c.sources[i].src = src
			return
		}
	}
	c.sources = append(c.sources, namedSource{name: name, src: src})
}

// Remove drops the source registered under name and reports whether it existed.
func (c *Collector) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.sources {
		if c.sources[i].name == name {
			c.sources = append(c.sources[:i], c.sources[i+1:]...)
			return true
		}
	}
	return false
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.histo
	ch <- c.memory
	ch <- c.misses
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	sources := make([]namedSource, len(c.sources))
	copy(sources, c.sources)
	c.mu.RUnlock()

	for _, s := range sources {
		buckets := s.src.Buckets()
		if len(buckets) == 0 {
			continue
		}
		// The last bucket is +Inf and doubles as the sample count.
		finite := make(map[float64]uint64, len(buckets)-1)
		for _, b := range buckets[:len(buckets)-1] {
			finite[b.UpperBound] = b.Count
		}
		total := buckets[len(buckets)-1].Count

		ch <- prometheus.MustNewConstHistogram(c.histo, total, 0, finite, s.name)
		ch <- prometheus.MustNewConstMetric(c.memory, prometheus.GaugeValue, float64(s.src.MemoryUsage()), s.name)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.src.Misses()), s.name)
	}
}

// Compile-time check: ensure Collector implements prometheus.Collector.
var _ prometheus.Collector = (*Collector)(nil)

// Compile-time check: trackers are valid sources.
var _ Source = (*tracker.Tracker[string])(nil)
