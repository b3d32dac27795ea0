package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks cache performance counters. All counters are monotonic
// for the lifetime of the process; Clear empties the store but leaves the
// historical counters intact.
type Statistics struct {
	// Atomic counters for thread-safe updates
	hits        int64
	misses      int64
	sets        int64
	deletes     int64
	evictions   int64
	expirations int64

	// Protected by mutex
	mu        sync.RWMutex
	startTime time.Time
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Hit records a cache hit.
func (s *Statistics) Hit() {
	atomic.AddInt64(&s.hits, 1)
}

// Miss records a cache miss.
func (s *Statistics) Miss() {
	atomic.AddInt64(&s.misses, 1)
}

// Set records a cache set operation.
func (s *Statistics) Set() {
	atomic.AddInt64(&s.sets, 1)
}

// Delete records an explicit removal.
func (s *Statistics) Delete() {
	atomic.AddInt64(&s.deletes, 1)
}

// Eviction records a capacity eviction. Kept distinct from expirations so
// the two pressure signals remain tellable apart.
func (s *Statistics) Eviction() {
	atomic.AddInt64(&s.evictions, 1)
}

// Expiration records the removal of an entry that outlived its TTL.
func (s *Statistics) Expiration() {
	atomic.AddInt64(&s.expirations, 1)
}

// Hits returns the total number of cache hits.
func (s *Statistics) Hits() int64 {
	return atomic.LoadInt64(&s.hits)
}

// Misses returns the total number of cache misses.
func (s *Statistics) Misses() int64 {
	return atomic.LoadInt64(&s.misses)
}

// Sets returns the total number of set operations.
func (s *Statistics) Sets() int64 {
	return atomic.LoadInt64(&s.sets)
}

// Deletes returns the total number of explicit removals.
func (s *Statistics) Deletes() int64 {
	return atomic.LoadInt64(&s.deletes)
}

// Evictions returns the total number of capacity evictions.
func (s *Statistics) Evictions() int64 {
	return atomic.LoadInt64(&s.evictions)
}

// Expirations returns the total number of TTL expirations.
func (s *Statistics) Expirations() int64 {
	return atomic.LoadInt64(&s.expirations)
}

// HitRate returns hits / (hits + misses), or 0 when there has been no
// traffic yet.
func (s *Statistics) HitRate() float64 {
	hits := s.Hits()
	total := hits + s.Misses()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// MissRate returns 1 - HitRate.
func (s *Statistics) MissRate() float64 {
	return 1.0 - s.HitRate()
}

// Uptime returns how long the cache has been running.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Snapshot is a point-in-time view of all statistics plus the derived
// figures computed by walking the live entries. Field names follow the
// control-surface JSON contract.
type Snapshot struct {
	Hits        int64         `json:"hits"`
	Misses      int64         `json:"misses"`
	Sets        int64         `json:"sets"`
	Deletes     int64         `json:"deletes"`
	Evictions   int64         `json:"evictions"`
	Expirations int64         `json:"expirations"`
	TotalKeys   int           `json:"totalKeys"`
	TotalSize   int64         `json:"totalSize"`
	HitRate     float64       `json:"hitRate"`
	MissRate    float64       `json:"missRate"`
	Uptime      time.Duration `json:"uptime"`
}

// snapshot builds a Snapshot from the counters; totalKeys and totalSize are
// supplied by the store, which is the only component that can walk entries.
func (s *Statistics) snapshot(totalKeys int, totalSize int64) Snapshot {
	return Snapshot{
		Hits:        s.Hits(),
		Misses:      s.Misses(),
		Sets:        s.Sets(),
		Deletes:     s.Deletes(),
		Evictions:   s.Evictions(),
		Expirations: s.Expirations(),
		TotalKeys:   totalKeys,
		TotalSize:   totalSize,
		HitRate:     s.HitRate(),
		MissRate:    s.MissRate(),
		Uptime:      s.Uptime(),
	}
}
