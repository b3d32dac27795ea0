package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T, capacity int, opts ...Option[string]) *memoryStore[string] {
	t.Helper()
	options := applyOptions(opts...)
	store, err := newMemoryStore[string](context.Background(), capacity, 0, options)
	if err != nil {
		t.Fatalf("Unexpected error creating store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBasicOperations(t *testing.T) {
	cache := newTestStore(t, 100)

	// Get on empty cache
	if value, exists := cache.Get("key1"); exists {
		t.Errorf("Expected cache miss, got value: %s", value)
	}

	// Set and Get
	if err := cache.Set("key1", "value1", time.Minute); err != nil {
		t.Fatalf("Unexpected error setting key: %v", err)
	}
	if value, exists := cache.Get("key1"); !exists || value != "value1" {
		t.Errorf("Expected 'value1', got value: %s, exists: %t", value, exists)
	}

	// Replace in place
	if err := cache.Set("key1", "value1_updated", time.Minute); err != nil {
		t.Fatalf("Unexpected error updating key: %v", err)
	}
	if value, exists := cache.Get("key1"); !exists || value != "value1_updated" {
		t.Errorf("Expected 'value1_updated', got value: %s, exists: %t", value, exists)
	}
	if cache.Size() != 1 {
		t.Errorf("Expected size 1 after replace, got %d", cache.Size())
	}

	// Exact-match delete
	count, err := cache.Delete("key1")
	if err != nil {
		t.Fatalf("Unexpected error deleting key: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 deletion, got %d", count)
	}

	// Deleting a missing key is a zero count, not an error
	count, err = cache.Delete("key1")
	if err != nil {
		t.Fatalf("Unexpected error deleting non-existent key: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 deletions, got %d", count)
	}
}

func TestSetRejectsEmptyKey(t *testing.T) {
	cache := newTestStore(t, 10)

	if err := cache.Set("", "value", time.Minute); err == nil {
		t.Error("Expected error for empty key")
	}
	if cache.Size() != 0 {
		t.Errorf("Expected empty cache, got size %d", cache.Size())
	}
}

func TestInvalidCapacity(t *testing.T) {
	options := applyOptions[string]()
	if _, err := newMemoryStore[string](context.Background(), 0, 0, options); err == nil {
		t.Error("Expected error for zero capacity")
	}
	if _, err := newMemoryStore[string](context.Background(), -5, 0, options); err == nil {
		t.Error("Expected error for negative capacity")
	}
}

func TestExpiryLazy(t *testing.T) {
	clock := NewManualClock(time.Unix(1000, 0))
	cache := newTestStore(t, 100, WithClock[string](clock))

	_ = cache.Set("key1", "value1", 10*time.Second)

	// Just before expiry the entry is live
	clock.Advance(9 * time.Second)
	if _, exists := cache.Get("key1"); !exists {
		t.Error("Expected hit before expiry")
	}

	// At exactly expiresAt the entry is dead
	clock.Advance(time.Second)
	if value, exists := cache.Get("key1"); exists {
		t.Errorf("Expected miss at expiry boundary, got value: %s", value)
	}

	// The expired entry was physically reclaimed by the Get
	if cache.Size() != 0 {
		t.Errorf("Expected size 0 after lazy reclaim, got %d", cache.Size())
	}

	snap := cache.Stats()
	if snap.Expirations != 1 {
		t.Errorf("Expected 1 expiration, got %d", snap.Expirations)
	}
	if snap.Evictions != 0 {
		t.Errorf("Expected 0 evictions, got %d", snap.Evictions)
	}
}

func TestSetNonPositiveTTLInsertsExpired(t *testing.T) {
	clock := NewManualClock(time.Unix(1000, 0))
	cache := newTestStore(t, 100, WithClock[string](clock))

	// A non-positive ttl is not an error; it inserts an already-expired entry
	if err := cache.Set("zero", "v", 0); err != nil {
		t.Fatalf("Unexpected error for zero ttl: %v", err)
	}
	if err := cache.Set("neg", "v", -time.Second); err != nil {
		t.Fatalf("Unexpected error for negative ttl: %v", err)
	}

	if value, exists := cache.Get("zero"); exists {
		t.Errorf("Expected zero-ttl entry to read as absent, got value: %s", value)
	}
	if cache.Has("neg") {
		t.Error("Expected negative-ttl entry to read as absent")
	}

	// Both removals are expirations, not evictions or deletes
	snap := cache.Stats()
	if snap.Expirations != 2 {
		t.Errorf("Expected 2 expirations, got %d", snap.Expirations)
	}
	if snap.Evictions != 0 || snap.Deletes != 0 {
		t.Errorf("Expected no evictions or deletes, got %d/%d", snap.Evictions, snap.Deletes)
	}
	if cache.Size() != 0 {
		t.Errorf("Expected expired entries reclaimed, got size %d", cache.Size())
	}
}

func TestGetEmptyKeyIsPlainMiss(t *testing.T) {
	cache := newTestStore(t, 100)

	if value, exists := cache.Get(""); exists {
		t.Errorf("Expected miss for empty key, got value: %s", value)
	}
	if snap := cache.Stats(); snap.Misses != 1 {
		t.Errorf("Expected empty-key lookup to count as a miss, got %d", snap.Misses)
	}
}

func TestReplaceResetsTTL(t *testing.T) {
	clock := NewManualClock(time.Unix(1000, 0))
	cache := newTestStore(t, 100, WithClock[string](clock))

	_ = cache.Set("key1", "v1", 10*time.Second)
	clock.Advance(8 * time.Second)
	_ = cache.Set("key1", "v2", 10*time.Second)

	// Past the original deadline but within the refreshed one
	clock.Advance(8 * time.Second)
	if value, exists := cache.Get("key1"); !exists || value != "v2" {
		t.Errorf("Expected refreshed entry to survive, got value: %s, exists: %t", value, exists)
	}
}

func TestHasDoesNotTouchStats(t *testing.T) {
	clock := NewManualClock(time.Unix(1000, 0))
	cache := newTestStore(t, 100, WithClock[string](clock))

	_ = cache.Set("key1", "value1", time.Minute)

	if !cache.Has("key1") {
		t.Error("Expected Has to report live entry")
	}
	if cache.Has("missing") {
		t.Error("Expected Has to report absent key")
	}

	snap := cache.Stats()
	if snap.Hits != 0 || snap.Misses != 0 {
		t.Errorf("Expected Has to record no hits or misses, got hits=%d misses=%d", snap.Hits, snap.Misses)
	}

	// Expired entries are reclaimed by Has but still not counted as misses
	clock.Advance(2 * time.Minute)
	if cache.Has("key1") {
		t.Error("Expected Has to report expired entry as absent")
	}
	if cache.Size() != 0 {
		t.Errorf("Expected expired entry reclaimed, got size %d", cache.Size())
	}
	snap = cache.Stats()
	if snap.Expirations != 1 {
		t.Errorf("Expected 1 expiration, got %d", snap.Expirations)
	}
	if snap.Misses != 0 {
		t.Errorf("Expected no misses from Has, got %d", snap.Misses)
	}
}

func TestHasDoesNotRefreshRecency(t *testing.T) {
	cache := newTestStore(t, 2)

	_ = cache.Set("a", "1", time.Minute)
	_ = cache.Set("b", "2", time.Minute)

	// Has must not promote "a"; inserting a third key evicts it
	cache.Has("a")
	_ = cache.Set("c", "3", time.Minute)

	if _, exists := cache.Get("a"); exists {
		t.Error("Expected 'a' evicted: Has must not refresh recency")
	}
	if _, exists := cache.Get("b"); !exists {
		t.Error("Expected 'b' to survive")
	}
}

func TestLRUEviction(t *testing.T) {
	cache := newTestStore(t, 3)

	_ = cache.Set("a", "1", time.Minute)
	_ = cache.Set("b", "2", time.Minute)
	_ = cache.Set("c", "3", time.Minute)

	// Touch "a" so "b" becomes least recently accessed
	cache.Get("a")

	_ = cache.Set("d", "4", time.Minute)

	if cache.Size() != 3 {
		t.Errorf("Expected capacity bound 3 to hold, got size %d", cache.Size())
	}
	if _, exists := cache.Get("b"); exists {
		t.Error("Expected LRU entry 'b' to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, exists := cache.Get(key); !exists {
			t.Errorf("Expected key %q to survive eviction", key)
		}
	}

	snap := cache.Stats()
	if snap.Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", snap.Evictions)
	}
}

func TestReplaceAtCapacityDoesNotEvict(t *testing.T) {
	cache := newTestStore(t, 2)

	_ = cache.Set("a", "1", time.Minute)
	_ = cache.Set("b", "2", time.Minute)
	_ = cache.Set("a", "1_new", time.Minute)

	if cache.Size() != 2 {
		t.Errorf("Expected size 2 after replace at capacity, got %d", cache.Size())
	}
	if _, exists := cache.Get("b"); !exists {
		t.Error("Expected 'b' to survive replace of 'a'")
	}
	if cache.Stats().Evictions != 0 {
		t.Error("Expected no evictions from replace")
	}
}

func TestEvictionCallback(t *testing.T) {
	var mu sync.Mutex
	evicted := make(map[string]string)

	cache := newTestStore(t, 2, WithEvictionCallback[string](func(key, value string) {
		mu.Lock()
		evicted[key] = value
		mu.Unlock()
	}))

	_ = cache.Set("a", "1", time.Minute)
	_ = cache.Set("b", "2", time.Minute)
	_ = cache.Set("c", "3", time.Minute)

	mu.Lock()
	defer mu.Unlock()
	if evicted["a"] != "1" {
		t.Errorf("Expected callback for evicted entry 'a', got %v", evicted)
	}
	if len(evicted) != 1 {
		t.Errorf("Expected exactly 1 callback, got %d", len(evicted))
	}
}

func TestPatternDelete(t *testing.T) {
	cache := newTestStore(t, 100)

	_ = cache.Set("portfolio:0xaaa", "p1", time.Minute)
	_ = cache.Set("portfolio:0xbbb", "p2", time.Minute)
	_ = cache.Set("airdrop-check:0xaaa", "a1", time.Minute)

	count, err := cache.Delete("portfolio:*")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 removals, got %d", count)
	}

	if _, exists := cache.Get("airdrop-check:0xaaa"); !exists {
		t.Error("Expected non-matching key to survive pattern delete")
	}
	if _, exists := cache.Get("portfolio:0xaaa"); exists {
		t.Error("Expected matching key removed")
	}

	// Zero matches is a zero count, not an error
	count, err = cache.Delete("user:*")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 removals, got %d", count)
	}

	// Empty pattern is rejected
	if _, err := cache.Delete(""); err == nil {
		t.Error("Expected error for empty pattern")
	}
}

func TestPatternDeleteSkipsExpired(t *testing.T) {
	clock := NewManualClock(time.Unix(1000, 0))
	cache := newTestStore(t, 100, WithClock[string](clock))

	_ = cache.Set("user:1", "a", 5*time.Second)
	_ = cache.Set("user:2", "b", time.Minute)
	clock.Advance(10 * time.Second)

	// user:1 is expired; the scan reclaims it as an expiration, not a delete
	count, err := cache.Delete("user:*")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 removal, got %d", count)
	}

	snap := cache.Stats()
	if snap.Expirations != 1 {
		t.Errorf("Expected 1 expiration from scan, got %d", snap.Expirations)
	}
	if snap.Deletes != 1 {
		t.Errorf("Expected 1 delete, got %d", snap.Deletes)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	cache := newTestStore(t, 100)

	_ = cache.Set("a", "1", time.Minute)
	_ = cache.Set("b", "2", time.Minute)
	cache.Get("a")
	cache.Get("missing")

	if prior := cache.Clear(); prior != 2 {
		t.Errorf("Expected prior count 2, got %d", prior)
	}
	if prior := cache.Clear(); prior != 0 {
		t.Errorf("Expected prior count 0 on empty store, got %d", prior)
	}

	snap := cache.Stats()
	if snap.TotalKeys != 0 {
		t.Errorf("Expected 0 total keys after clear, got %d", snap.TotalKeys)
	}
	// Historical counters survive a clear
	if snap.Hits != 1 || snap.Misses != 1 {
		t.Errorf("Expected counters preserved across clear, got hits=%d misses=%d", snap.Hits, snap.Misses)
	}
}

func TestStatsArithmetic(t *testing.T) {
	cache := newTestStore(t, 100)

	_ = cache.Set("key1", "value1", time.Minute)

	// 3 hits, 1 miss
	cache.Get("key1")
	cache.Get("key1")
	cache.Get("key1")
	cache.Get("missing")

	snap := cache.Stats()
	if snap.Hits != 3 || snap.Misses != 1 {
		t.Errorf("Expected 3 hits and 1 miss, got %d/%d", snap.Hits, snap.Misses)
	}
	if want := 0.75; snap.HitRate != want {
		t.Errorf("Expected hit rate %v, got %v", want, snap.HitRate)
	}
	if want := 0.25; snap.MissRate != want {
		t.Errorf("Expected miss rate %v, got %v", want, snap.MissRate)
	}
	if snap.TotalKeys != 1 {
		t.Errorf("Expected 1 total key, got %d", snap.TotalKeys)
	}
	if snap.TotalSize <= 0 {
		t.Errorf("Expected positive total size, got %d", snap.TotalSize)
	}
}

func TestStatsDoesNotMutate(t *testing.T) {
	clock := NewManualClock(time.Unix(1000, 0))
	cache := newTestStore(t, 100, WithClock[string](clock))

	_ = cache.Set("short", "v", time.Second)
	_ = cache.Set("long", "v", time.Hour)
	clock.Advance(time.Minute)

	// "short" is expired: excluded from occupancy but not reclaimed
	snap := cache.Stats()
	if snap.TotalKeys != 1 {
		t.Errorf("Expected 1 live key, got %d", snap.TotalKeys)
	}
	if cache.Size() != 2 {
		t.Errorf("Expected Stats to leave expired entry in place, got size %d", cache.Size())
	}
	if snap.Expirations != 0 {
		t.Errorf("Expected Stats to record no expirations, got %d", snap.Expirations)
	}
}

func TestKeysRecencyOrder(t *testing.T) {
	cache := newTestStore(t, 100)

	_ = cache.Set("a", "1", time.Minute)
	_ = cache.Set("b", "2", time.Minute)
	_ = cache.Set("c", "3", time.Minute)
	cache.Get("a")

	keys := cache.Keys()
	if len(keys) != 3 {
		t.Fatalf("Expected 3 keys, got %d", len(keys))
	}
	if keys[0] != "a" {
		t.Errorf("Expected most recently accessed key first, got %v", keys)
	}
}

func TestSweeperRemovesExpired(t *testing.T) {
	options := applyOptions[string]()
	store, err := newMemoryStore[string](context.Background(), 100, 10*time.Millisecond, options)
	if err != nil {
		t.Fatalf("Unexpected error creating store: %v", err)
	}
	defer store.Close()

	_ = store.Set("short", "v", 5*time.Millisecond)
	_ = store.Set("long", "v", time.Hour)

	deadline := time.Now().Add(2 * time.Second)
	for store.Size() > 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Sweeper did not reclaim expired entry, size=%d", store.Size())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !store.Has("long") {
		t.Error("Expected live entry to survive sweep")
	}
	if store.Stats().Expirations != 1 {
		t.Errorf("Expected 1 expiration from sweep, got %d", store.Stats().Expirations)
	}
}

func TestRemoveExpiredScansInBatches(t *testing.T) {
	clock := NewManualClock(time.Unix(1000, 0))
	cache := newTestStore(t, 500, WithClock[string](clock))

	// Well over one sweep batch of expired entries, plus live ones
	for i := 0; i < 200; i++ {
		_ = cache.Set(fmt.Sprintf("dead%d", i), "v", 5*time.Second)
	}
	for i := 0; i < 50; i++ {
		_ = cache.Set(fmt.Sprintf("live%d", i), "v", time.Hour)
	}
	clock.Advance(10 * time.Second)

	cache.removeExpired()

	if cache.Size() != 50 {
		t.Errorf("Expected 50 live entries after sweep, got %d", cache.Size())
	}
	if got := cache.Stats().Expirations; got != 200 {
		t.Errorf("Expected 200 expirations, got %d", got)
	}
	for i := 0; i < 50; i++ {
		if !cache.Has(fmt.Sprintf("live%d", i)) {
			t.Fatalf("Expected live%d to survive sweep", i)
		}
	}
}

func TestRemoveExpiredSkipsRefreshedEntries(t *testing.T) {
	clock := NewManualClock(time.Unix(1000, 0))
	cache := newTestStore(t, 100, WithClock[string](clock))

	_ = cache.Set("key1", "old", 5*time.Second)
	clock.Advance(10 * time.Second)

	// Refreshed after its deadline passed: the sweep re-checks expiry at
	// removal time and must leave it alone
	_ = cache.Set("key1", "new", time.Hour)

	cache.removeExpired()

	if value, exists := cache.Get("key1"); !exists || value != "new" {
		t.Errorf("Expected refreshed entry to survive sweep, got value: %s, exists: %t", value, exists)
	}
	if got := cache.Stats().Expirations; got != 0 {
		t.Errorf("Expected no expirations, got %d", got)
	}
}

func TestCloseStopsSweeper(t *testing.T) {
	options := applyOptions[string]()
	store, err := newMemoryStore[string](context.Background(), 100, 10*time.Millisecond, options)
	if err != nil {
		t.Fatalf("Unexpected error creating store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("Unexpected error closing store: %v", err)
	}
	// Closing twice is safe
	if err := store.Close(); err != nil {
		t.Errorf("Unexpected error on second close: %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	cache := newTestStore(t, 500)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("key%d", i%50)
				switch i % 4 {
				case 0:
					_ = cache.Set(key, fmt.Sprintf("value%d-%d", id, i), time.Minute)
				case 1:
					cache.Get(key)
				case 2:
					cache.Has(key)
				case 3:
					if i%40 == 3 {
						_, _ = cache.Delete("key1*")
					}
				}
			}
		}(g)
	}
	wg.Wait()

	if size := cache.Size(); size > 500 {
		t.Errorf("Capacity bound violated: size %d", size)
	}
	// Counters stay coherent under concurrency
	snap := cache.Stats()
	if snap.Hits < 0 || snap.Misses < 0 {
		t.Error("Expected non-negative counters")
	}
}

func TestNewDisabledReturnsNoop(t *testing.T) {
	cfg := Config{Enabled: false, Capacity: 100, SweepInterval: 0}
	c, err := New[string](context.Background(), cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer c.Close()

	if err := c.Set("key1", "value1", time.Minute); err != nil {
		t.Fatalf("Unexpected error from noop Set: %v", err)
	}
	if _, exists := c.Get("key1"); exists {
		t.Error("Expected noop cache to always miss")
	}
	if c.Size() != 0 {
		t.Errorf("Expected noop size 0, got %d", c.Size())
	}
	count, err := c.Delete("key1")
	if err != nil || count != 0 {
		t.Errorf("Expected noop delete to return 0, got %d, err=%v", count, err)
	}
}
