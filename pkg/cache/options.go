package cache

import (
	"encoding/json"

	"github.com/mumair738/airdrop-checker-sub011/metric"
)

// Option configures cache behavior using the functional options pattern.
type Option[V any] func(*cacheOptions[V])

// cacheOptions holds internal configuration for cache instances.
// Stats are ALWAYS collected; metrics export is opt-in via WithMetrics.
type cacheOptions[V any] struct {
	// clock supplies the current time for expiry math
	clock Clock

	// metricsReg is optional - if provided, cache stats are also exposed as Prometheus metrics
	metricsReg *metric.Registry

	// metricsPrefix is used as the component label for Prometheus metrics
	metricsPrefix string

	// evictCallback is called when items leave the cache
	evictCallback EvictCallback[V]

	// sizer estimates per-entry memory footprint
	sizer SizerFunc[V]
}

// WithClock replaces the wall clock, letting tests drive expiry
// deterministically. A nil clock is ignored.
func WithClock[V any](clock Clock) Option[V] {
	return func(opts *cacheOptions[V]) {
		if clock != nil {
			opts.clock = clock
		}
	}
}

// WithMetrics enables Prometheus metrics export for cache statistics.
// If registry is nil or prefix is empty, this option is ignored.
func WithMetrics[V any](registry *metric.Registry, prefix string) Option[V] {
	return func(opts *cacheOptions[V]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// WithEvictionCallback sets a callback invoked with the key and value of
// every entry that leaves the cache.
func WithEvictionCallback[V any](callback EvictCallback[V]) Option[V] {
	return func(opts *cacheOptions[V]) {
		opts.evictCallback = callback
	}
}

// WithSizer replaces the default per-entry size estimator.
func WithSizer[V any](sizer SizerFunc[V]) Option[V] {
	return func(opts *cacheOptions[V]) {
		if sizer != nil {
			opts.sizer = sizer
		}
	}
}

// applyOptions applies functional options to create final cache configuration.
func applyOptions[V any](options ...Option[V]) *cacheOptions[V] {
	opts := &cacheOptions[V]{
		clock: SystemClock(),
		sizer: defaultSizer[V],
	}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}

// entryOverhead is the rough fixed cost of the map slot, list element and
// entry struct that accompany every stored value.
const entryOverhead = 96

// defaultSizer estimates an entry's footprint. Byte-shaped values report
// their exact length; anything else falls back to the fixed overhead, which
// keeps the estimate cheap at the cost of precision.
func defaultSizer[V any](key string, value V) int64 {
	size := int64(len(key)) + entryOverhead
	switch v := any(value).(type) {
	case string:
		size += int64(len(v))
	case []byte:
		size += int64(len(v))
	case json.RawMessage:
		size += int64(len(v))
	}
	return size
}
