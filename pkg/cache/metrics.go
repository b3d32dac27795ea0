package cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mumair738/airdrop-checker-sub011/metric"
)

// cacheMetrics holds Prometheus metrics for cache operations.
type cacheMetrics struct {
	// Counter metrics
	hits        prometheus.Counter
	misses      prometheus.Counter
	sets        prometheus.Counter
	deletes     prometheus.Counter
	evictions   prometheus.Counter
	expirations prometheus.Counter

	// Gauge metrics
	size prometheus.Gauge
}

// newCacheMetrics creates and registers cache metrics with the provided registry.
func newCacheMetrics(registry *metric.Registry, prefix string) (*cacheMetrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "airdrop",
			Subsystem:   "cache",
			Name:        name,
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        help,
		})
	}

	m := &cacheMetrics{
		hits:        counter("hits_total", "Total number of cache hits"),
		misses:      counter("misses_total", "Total number of cache misses"),
		sets:        counter("sets_total", "Total number of cache set operations"),
		deletes:     counter("deletes_total", "Total number of cache delete operations"),
		evictions:   counter("evictions_total", "Total number of capacity evictions"),
		expirations: counter("expirations_total", "Total number of TTL expirations"),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "airdrop",
			Subsystem:   "cache",
			Name:        "size",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Current number of entries in cache",
		}),
	}

	registrations := []struct {
		name      string
		collector prometheus.Counter
	}{
		{"cache_hits", m.hits},
		{"cache_misses", m.misses},
		{"cache_sets", m.sets},
		{"cache_deletes", m.deletes},
		{"cache_evictions", m.evictions},
		{"cache_expirations", m.expirations},
	}
	for _, reg := range registrations {
		if err := registry.RegisterCounter(prefix, reg.name, reg.collector); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterGauge(prefix, "cache_size", m.size); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *cacheMetrics) recordHit() {
	m.hits.Inc()
}

func (m *cacheMetrics) recordMiss() {
	m.misses.Inc()
}

func (m *cacheMetrics) recordSet() {
	m.sets.Inc()
}

func (m *cacheMetrics) recordDelete() {
	m.deletes.Inc()
}

func (m *cacheMetrics) recordEviction() {
	m.evictions.Inc()
}

func (m *cacheMetrics) recordExpiration() {
	m.expirations.Inc()
}

func (m *cacheMetrics) updateSize(size int) {
	m.size.Set(float64(size))
}
