// Package cache provides the process-wide, in-memory key/value store shared by
// the API handlers. Every entry carries its own time-to-live, capacity is
// enforced with least-recently-used eviction, and bulk invalidation is done
// with trailing-wildcard key patterns (e.g. "portfolio:*").
//
// The cache is value-type generic and treats keys as opaque strings; the
// "<domain>:<identifier>" namespacing is a caller convention, not an enforced
// schema. Statistics are always collected (observability is not optional) and
// can additionally be exported as Prometheus metrics via functional options.
package cache

import (
	"time"

	"github.com/mumair738/airdrop-checker-sub011/errors"
)

// Cache is the façade every handler consumes. All operations are synchronous
// and never perform I/O; a miss is an absent result, never an error.
type Cache[V any] interface {
	// Get retrieves a live value by key. Returns the zero value and false on
	// a miss; a logically expired entry is indistinguishable from an absent
	// one and is removed as a side effect.
	Get(key string) (V, bool)

	// Set inserts or fully replaces the entry for key, stamping creation,
	// expiry and last-access times from the cache clock. The ttl is required
	// on every call; a non-positive ttl inserts an already-expired entry.
	// Returns an error only for invalid arguments (empty key).
	Set(key string, value V, ttl time.Duration) error

	// Has reports whether a live entry exists for key. It does not update
	// recency and does not count as a hit or a miss.
	Has(key string) bool

	// Delete removes every entry whose key matches pattern and returns the
	// count removed. A pattern with a trailing '*' matches by prefix; any
	// other pattern is an exact-match single-key delete. Zero matches is
	// not an error.
	Delete(pattern string) (int, error)

	// Clear empties the store and returns the prior entry count. Historical
	// hit/miss counters are not reset.
	Clear() int

	// Keys returns the live keys in recency order, most recent first.
	Keys() []string

	// Size returns the number of physically stored entries, which may
	// include entries that expired but have not been swept yet.
	Size() int

	// Stats returns a point-in-time snapshot of counters and derived
	// figures. It never mutates the counters.
	Stats() Snapshot

	// Close stops the background sweeper, if any.
	Close() error
}

// EvictCallback is invoked after an entry leaves the cache, whether by
// eviction, expiry, explicit delete or clear.
type EvictCallback[V any] func(key string, value V)

// SizerFunc estimates the in-memory footprint of an entry in bytes. The
// estimate only needs to be cheap and roughly proportional, it feeds the
// aggregate totalSize figure.
type SizerFunc[V any] func(key string, value V) int64

// validateKey rejects keys the store cannot represent. An empty key is a
// programmer error at the call site, not a recoverable condition.
func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "validateKey", "key cannot be empty")
	}
	return nil
}
