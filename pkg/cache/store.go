package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mumair738/airdrop-checker-sub011/errors"
)

// entry is a stored key/value pair with its lifecycle metadata.
type entry[V any] struct {
	key        string
	value      V
	size       int64
	createdAt  time.Time
	expiresAt  time.Time
	accessedAt time.Time
}

// isExpired checks whether the entry is logically dead at time now.
func (e *entry[V]) isExpired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// memoryStore is the in-memory cache engine. A map gives O(1) exact-key
// lookup while a doubly-linked list keeps entries ordered by recency of
// access for LRU eviction. One coarse lock serializes all mutation; every
// operation is short-lived and never touches I/O, so contention stays low.
type memoryStore[V any] struct {
	mu            sync.RWMutex
	capacity      int
	sweepInterval time.Duration
	clock         Clock
	items         map[string]*list.Element // key -> list element
	order         *list.List               // front = most recently accessed
	stats         *Statistics              // ALWAYS initialized
	metrics       *cacheMetrics            // Optional, if metrics enabled
	evictFn       EvictCallback[V]         // Optional callback
	sizer         SizerFunc[V]

	// Background sweeper coordination
	sweeping bool
	shutdown chan struct{}
	done     chan struct{}
}

// newMemoryStore creates the store and, when sweepInterval is positive,
// starts the periodic expiry sweeper bound to ctx.
func newMemoryStore[V any](
	ctx context.Context, capacity int, sweepInterval time.Duration, opts *cacheOptions[V],
) (*memoryStore[V], error) {
	if capacity <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "newMemoryStore",
			fmt.Sprintf("capacity must be positive, got %d", capacity))
	}

	// Stats are ALWAYS initialized - observability is not optional
	stats := NewStatistics()

	var metrics *cacheMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newCacheMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "cache", "newMemoryStore", "metrics registration")
		}
	}

	s := &memoryStore[V]{
		capacity:      capacity,
		sweepInterval: sweepInterval,
		clock:         opts.clock,
		items:         make(map[string]*list.Element),
		order:         list.New(),
		stats:         stats,
		metrics:       metrics,
		evictFn:       opts.evictCallback,
		sizer:         opts.sizer,
		shutdown:      make(chan struct{}),
		done:          make(chan struct{}),
	}

	if sweepInterval > 0 {
		s.sweeping = true
		go s.sweep(ctx)
	} else {
		close(s.done)
	}

	return s, nil
}

// Get retrieves a value by key, checking expiry and updating recency.
func (s *memoryStore[V]) Get(key string) (V, bool) {
	now := s.clock.Now()

	s.mu.Lock()
	element, exists := s.items[key]
	if !exists {
		s.mu.Unlock()
		var zero V
		s.stats.Miss()
		if s.metrics != nil {
			s.metrics.recordMiss()
		}
		return zero, false
	}

	ent := element.Value.(*entry[V])
	if ent.isExpired(now) {
		// Logically expired entries are indistinguishable from absent ones;
		// reclaim in place and report a miss.
		s.removeElement(element)
		s.stats.Expiration()
		count := len(s.items)
		s.mu.Unlock()

		var zero V
		s.stats.Miss()
		if s.metrics != nil {
			s.metrics.recordExpiration()
			s.metrics.recordMiss()
			s.metrics.updateSize(count)
		}
		if s.evictFn != nil {
			s.evictFn(ent.key, ent.value)
		}
		return zero, false
	}

	ent.accessedAt = now
	s.order.MoveToFront(element)
	value := ent.value
	s.mu.Unlock()

	s.stats.Hit()
	if s.metrics != nil {
		s.metrics.recordHit()
	}
	return value, true
}

// Set inserts or fully replaces the entry for key. Replacing never evicts;
// inserting a new key at capacity evicts the least recently accessed entry
// first, so the capacity bound holds by the time Set returns.
func (s *memoryStore[V]) Set(key string, value V, ttl time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}

	now := s.clock.Now()
	size := s.sizer(key, value)

	s.mu.Lock()
	if element, exists := s.items[key]; exists {
		ent := element.Value.(*entry[V])
		ent.value = value
		ent.size = size
		ent.createdAt = now
		ent.expiresAt = now.Add(ttl)
		ent.accessedAt = now
		s.order.MoveToFront(element)
		s.mu.Unlock()

		s.stats.Set()
		if s.metrics != nil {
			s.metrics.recordSet()
		}
		return nil
	}

	var evicted *entry[V]
	if len(s.items) >= s.capacity {
		evicted = s.evictLRU()
	}

	ent := &entry[V]{
		key:        key,
		value:      value,
		size:       size,
		createdAt:  now,
		expiresAt:  now.Add(ttl),
		accessedAt: now,
	}
	s.items[key] = s.order.PushFront(ent)
	count := len(s.items)
	s.mu.Unlock()

	s.stats.Set()
	if s.metrics != nil {
		s.metrics.recordSet()
		s.metrics.updateSize(count)
	}

	// Callback runs outside the lock
	if evicted != nil && s.evictFn != nil {
		s.evictFn(evicted.key, evicted.value)
	}
	return nil
}

// Has reports whether a live entry exists without recording a hit or miss
// and without refreshing recency. An expired entry found here is reclaimed.
func (s *memoryStore[V]) Has(key string) bool {
	now := s.clock.Now()

	s.mu.RLock()
	element, exists := s.items[key]
	var expired bool
	if exists {
		expired = element.Value.(*entry[V]).isExpired(now)
	}
	s.mu.RUnlock()

	if !exists {
		return false
	}
	if !expired {
		return true
	}

	var reclaimed *entry[V]
	s.mu.Lock()
	// Double-check it's still there and still expired
	if element, still := s.items[key]; still && element.Value.(*entry[V]).isExpired(now) {
		reclaimed = element.Value.(*entry[V])
		s.removeElement(element)
		s.stats.Expiration()
		if s.metrics != nil {
			s.metrics.recordExpiration()
			s.metrics.updateSize(len(s.items))
		}
	}
	s.mu.Unlock()

	if reclaimed != nil && s.evictFn != nil {
		s.evictFn(reclaimed.key, reclaimed.value)
	}
	return false
}

// Delete removes every entry matching pattern and returns the count removed.
// Expired entries encountered during the scan are reclaimed but not counted.
func (s *memoryStore[V]) Delete(pattern string) (int, error) {
	if pattern == "" {
		return 0, errors.WrapInvalid(errors.ErrInvalidData, "cache", "Delete", "pattern cannot be empty")
	}

	now := s.clock.Now()
	var removed []*entry[V]
	var expired int

	s.mu.Lock()
	for element := s.order.Front(); element != nil; {
		next := element.Next()
		ent := element.Value.(*entry[V])

		switch {
		case ent.isExpired(now):
			s.removeElement(element)
			s.stats.Expiration()
			expired++
		case matchPattern(pattern, ent.key):
			s.removeElement(element)
			s.stats.Delete()
			removed = append(removed, ent)
		}

		element = next
	}
	count := len(s.items)
	s.mu.Unlock()

	if s.metrics != nil {
		for range removed {
			s.metrics.recordDelete()
		}
		for i := 0; i < expired; i++ {
			s.metrics.recordExpiration()
		}
		s.metrics.updateSize(count)
	}

	// Callbacks run outside the lock
	if s.evictFn != nil {
		for _, ent := range removed {
			s.evictFn(ent.key, ent.value)
		}
	}

	return len(removed), nil
}

// Clear empties the store and returns the prior entry count. The historical
// hit/miss/eviction/expiration counters are left untouched.
func (s *memoryStore[V]) Clear() int {
	var cleared []*entry[V]

	s.mu.Lock()
	prior := len(s.items)
	if s.evictFn != nil {
		cleared = make([]*entry[V], 0, prior)
		for element := s.order.Back(); element != nil; element = element.Prev() {
			cleared = append(cleared, element.Value.(*entry[V]))
		}
	}
	s.items = make(map[string]*list.Element)
	s.order.Init()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.updateSize(0)
	}

	// Callbacks run outside the lock
	for _, ent := range cleared {
		s.evictFn(ent.key, ent.value)
	}

	return prior
}

// Keys returns the live keys in recency order, most recently accessed first.
// Expired entries are skipped but not reclaimed here.
func (s *memoryStore[V]) Keys() []string {
	now := s.clock.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.items))
	for element := s.order.Front(); element != nil; element = element.Next() {
		ent := element.Value.(*entry[V])
		if !ent.isExpired(now) {
			keys = append(keys, ent.key)
		}
	}
	return keys
}

// Size returns the physical entry count, which may include entries that
// expired but have not been swept yet.
func (s *memoryStore[V]) Size() int {
	s.mu.RLock()
	size := len(s.items)
	s.mu.RUnlock()
	return size
}

// Stats walks the live entries for the occupancy figures and snapshots the
// counters. The walk only reads, so the figure is accurate between sweeps
// without turning a stats call into a mutation.
func (s *memoryStore[V]) Stats() Snapshot {
	now := s.clock.Now()

	s.mu.RLock()
	var totalKeys int
	var totalSize int64
	for element := s.order.Front(); element != nil; element = element.Next() {
		ent := element.Value.(*entry[V])
		if !ent.isExpired(now) {
			totalKeys++
			totalSize += ent.size
		}
	}
	s.mu.RUnlock()

	return s.stats.snapshot(totalKeys, totalSize)
}

// Close stops the background sweeper and waits for it to finish.
func (s *memoryStore[V]) Close() error {
	select {
	case <-s.shutdown:
		// Already shutting down
	default:
		close(s.shutdown)
	}

	select {
	case <-s.done:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for sweeper to finish")
	}
}

// evictLRU removes the least recently accessed entry to make room and
// returns it so the caller can run the eviction callback after unlocking.
// Must be called with the mutex held.
func (s *memoryStore[V]) evictLRU() *entry[V] {
	element := s.order.Back()
	if element == nil {
		return nil
	}

	ent := element.Value.(*entry[V])
	s.removeElement(element)
	s.stats.Eviction()
	if s.metrics != nil {
		s.metrics.recordEviction()
	}
	return ent
}

// removeElement removes an element from both the list and the map.
// Must be called with the mutex held. Does not run callbacks or counters.
func (s *memoryStore[V]) removeElement(element *list.Element) {
	ent := element.Value.(*entry[V])
	delete(s.items, ent.key)
	s.order.Remove(element)
}

// sweep runs in a background goroutine and periodically reclaims entries
// that expired but were never read again.
func (s *memoryStore[V]) sweep(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

// sweepBatch bounds how long the sweep holds the write lock at a stretch.
const sweepBatch = 64

// removeExpired reclaims every expired entry using snapshot-then-mutate: the
// key set is captured under the read lock, then removal runs in small batches
// so the sweep never holds the write lock for a full scan. Entries refreshed
// or removed between the snapshot and their batch are re-checked and skipped.
func (s *memoryStore[V]) removeExpired() {
	now := s.clock.Now()

	s.mu.RLock()
	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}
	s.mu.RUnlock()

	var expired []*entry[V]
	var count int

	for start := 0; start < len(keys); start += sweepBatch {
		end := start + sweepBatch
		if end > len(keys) {
			end = len(keys)
		}

		s.mu.Lock()
		for _, key := range keys[start:end] {
			element, exists := s.items[key]
			if !exists {
				continue
			}
			ent := element.Value.(*entry[V])
			if !ent.isExpired(now) {
				continue
			}
			s.removeElement(element)
			s.stats.Expiration()
			expired = append(expired, ent)
		}
		count = len(s.items)
		s.mu.Unlock()
	}

	if len(expired) == 0 {
		return
	}

	if s.metrics != nil {
		for range expired {
			s.metrics.recordExpiration()
		}
		s.metrics.updateSize(count)
	}

	// Callbacks run outside the lock
	if s.evictFn != nil {
		for _, ent := range expired {
			s.evictFn(ent.key, ent.value)
		}
	}
}
