package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mumair738/airdrop-checker-sub011/errors"
)

// Config contains configuration for cache creation.
type Config struct {
	// Enabled determines if caching is enabled. A disabled cache always
	// misses, so handlers degrade to fetching fresh data.
	Enabled bool `json:"enabled"`

	// Capacity is the maximum number of entries held at once.
	Capacity int `json:"capacity"`

	// SweepInterval is how often the background sweeper reclaims entries
	// that expired but were never read again. Zero disables the sweeper;
	// lazy expiry on read still upholds the TTL contract.
	SweepInterval time.Duration `json:"sweep_interval"`
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Capacity:      1000,
		SweepInterval: time.Minute,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil // No validation needed if disabled
	}

	if c.Capacity <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
			fmt.Sprintf("capacity must be positive, got %d", c.Capacity))
	}
	if c.SweepInterval < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
			fmt.Sprintf("sweep_interval cannot be negative, got %v", c.SweepInterval))
	}

	return nil
}

// New creates a cache from the provided configuration. Returns a Noop cache
// when config.Enabled is false. The context bounds the background sweeper.
func New[V any](ctx context.Context, config Config, options ...Option[V]) (Cache[V], error) {
	if err := config.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "cache", "New", "config validation failed")
	}

	if !config.Enabled {
		return NewNoop[V](), nil
	}

	opts := applyOptions(options...)
	return newMemoryStore[V](ctx, config.Capacity, config.SweepInterval, opts)
}

// NewNoop creates a cache that does nothing (always misses). Useful when
// caching is disabled via configuration.
func NewNoop[V any]() Cache[V] {
	return &noopCache[V]{}
}

// noopCache is a cache implementation that does nothing.
type noopCache[V any] struct{}

func (c *noopCache[V]) Get(_ string) (V, bool) {
	var zero V
	return zero, false
}

func (c *noopCache[V]) Set(key string, _ V, _ time.Duration) error {
	return validateKey(key)
}

func (c *noopCache[V]) Has(_ string) bool {
	return false
}

func (c *noopCache[V]) Delete(_ string) (int, error) {
	return 0, nil
}

func (c *noopCache[V]) Clear() int {
	return 0
}

func (c *noopCache[V]) Keys() []string {
	return nil
}

func (c *noopCache[V]) Size() int {
	return 0
}

func (c *noopCache[V]) Stats() Snapshot {
	return Snapshot{}
}

func (c *noopCache[V]) Close() error {
	return nil
}

// UnmarshalJSON implements custom JSON unmarshaling for Config to support
// duration strings (e.g., "1m", "30s") in addition to nanosecond integers.
func (c *Config) UnmarshalJSON(data []byte) error {
	// Use an alias to avoid infinite recursion
	type Alias Config

	aux := &struct {
		SweepInterval json.RawMessage `json:"sweep_interval,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.SweepInterval) > 0 {
		interval, err := ParseDurationField(aux.SweepInterval, "sweep_interval")
		if err != nil {
			return err
		}
		c.SweepInterval = interval
	}

	return nil
}

// ParseDurationField parses a JSON duration field that can be either an
// integer (nanoseconds) or a string (duration like "1h", "5m", "30s").
func ParseDurationField(data json.RawMessage, fieldName string) (time.Duration, error) {
	// Try parsing as string first (most common case)
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		duration, err := time.ParseDuration(str)
		if err != nil {
			return 0, fmt.Errorf("invalid duration string for %s: %w", fieldName, err)
		}
		return duration, nil
	}

	// Fall back to integer (nanoseconds)
	var nsec int64
	if err := json.Unmarshal(data, &nsec); err != nil {
		return 0, fmt.Errorf("field %s must be either a duration string (e.g. '1m') or integer nanoseconds", fieldName)
	}
	return time.Duration(nsec), nil
}
