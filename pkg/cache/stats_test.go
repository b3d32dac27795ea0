package cache

import (
	"sync"
	"testing"
)

func TestStatisticsCounters(t *testing.T) {
	stats := NewStatistics()

	stats.Hit()
	stats.Hit()
	stats.Miss()
	stats.Set()
	stats.Delete()
	stats.Eviction()
	stats.Expiration()

	if stats.Hits() != 2 {
		t.Errorf("Expected 2 hits, got %d", stats.Hits())
	}
	if stats.Misses() != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses())
	}
	if stats.Sets() != 1 || stats.Deletes() != 1 {
		t.Errorf("Expected 1 set and 1 delete, got %d/%d", stats.Sets(), stats.Deletes())
	}
	if stats.Evictions() != 1 || stats.Expirations() != 1 {
		t.Errorf("Expected 1 eviction and 1 expiration, got %d/%d", stats.Evictions(), stats.Expirations())
	}
}

func TestRatesWithNoTraffic(t *testing.T) {
	stats := NewStatistics()

	if rate := stats.HitRate(); rate != 0 {
		t.Errorf("Expected hit rate 0 with no traffic, got %v", rate)
	}
	if rate := stats.MissRate(); rate != 1 {
		t.Errorf("Expected miss rate 1 - hitRate, got %v", rate)
	}
}

func TestRatesSumToOne(t *testing.T) {
	stats := NewStatistics()

	stats.Hit()
	stats.Hit()
	stats.Hit()
	stats.Miss()

	if rate := stats.HitRate(); rate != 0.75 {
		t.Errorf("Expected hit rate 0.75, got %v", rate)
	}
	if sum := stats.HitRate() + stats.MissRate(); sum != 1.0 {
		t.Errorf("Expected rates to sum to 1, got %v", sum)
	}
}

func TestSnapshotCarriesOccupancy(t *testing.T) {
	stats := NewStatistics()
	stats.Hit()

	snap := stats.snapshot(42, 1024)
	if snap.TotalKeys != 42 {
		t.Errorf("Expected 42 total keys, got %d", snap.TotalKeys)
	}
	if snap.TotalSize != 1024 {
		t.Errorf("Expected total size 1024, got %d", snap.TotalSize)
	}
	if snap.Hits != 1 {
		t.Errorf("Expected 1 hit in snapshot, got %d", snap.Hits)
	}
	if snap.Uptime < 0 {
		t.Errorf("Expected non-negative uptime, got %v", snap.Uptime)
	}
}

func TestStatisticsConcurrent(t *testing.T) {
	stats := NewStatistics()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				stats.Hit()
				stats.Miss()
			}
		}()
	}
	wg.Wait()

	if stats.Hits() != 8000 {
		t.Errorf("Expected 8000 hits, got %d", stats.Hits())
	}
	if stats.Misses() != 8000 {
		t.Errorf("Expected 8000 misses, got %d", stats.Misses())
	}
	if rate := stats.HitRate(); rate != 0.5 {
		t.Errorf("Expected hit rate 0.5, got %v", rate)
	}
}
