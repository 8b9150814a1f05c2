package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/penwyp/go-sim-monitor/internal/core/model"
	"github.com/penwyp/go-sim-monitor/internal/util"
	"golang.org/x/sync/singleflight"
)

const loadKey = "records"

// Source loads the full record collection
type Source interface {
	Preload() ([]model.Simulation, error)
	Load(ctx context.Context) ([]model.Simulation, error)
}

// MemoryCacheEntry is one loaded record collection
type MemoryCacheEntry struct {
	Records      []model.Simulation
	LoadedAt     time.Time
	LastAccessed time.Time
}

// MemoryCache keeps the last collection loaded from a Source for a fixed TTL,
// so that bursts of requests share one fetch. It satisfies Source itself.
type MemoryCache struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	entry *MemoryCacheEntry
	group singleflight.Group

	hits   int64
	misses int64
}

// Stats is a snapshot of the hit and miss counters
type Stats struct {
	Hits   int64
	Misses int64
}

// HitRate returns hits as a fraction of all lookups
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func NewMemoryCache(source Source, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Preload passes through to the source; it is cheap and never cached
func (mc *MemoryCache) Preload() ([]model.Simulation, error) {
	return mc.source.Preload()
}

// Load returns the cached collection while it is fresh and loads it otherwise.
// Concurrent misses share a single load, run with the first caller's context.
func (mc *MemoryCache) Load(ctx context.Context) ([]model.Simulation, error) {
	if records, ok := mc.get(); ok {
		atomic.AddInt64(&mc.hits, 1)
		return records, nil
	}

	var loaded bool
	v, err, _ := mc.group.Do(loadKey, func() (interface{}, error) {
		// A load may have finished between the check above and this flight
		if records, ok := mc.get(); ok {
			return records, nil
		}
		loaded = true
		records, err := mc.source.Load(ctx)
		if err != nil {
			return nil, err
		}
		mc.Set(records)
		return records, nil
	})

	if loaded {
		atomic.AddInt64(&mc.misses, 1)
	} else if err == nil {
		atomic.AddInt64(&mc.hits, 1)
	}
	if err != nil {
		return nil, err
	}
	return v.([]model.Simulation), nil
}

// Set stores records as freshly loaded
func (mc *MemoryCache) Set(records []model.Simulation) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	mc.entry = &MemoryCacheEntry{Records: records, LoadedAt: now, LastAccessed: now}
}

// Get returns the cached entry regardless of age
func (mc *MemoryCache) Get() (*MemoryCacheEntry, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return mc.entry, mc.entry != nil
}

func (mc *MemoryCache) get() ([]model.Simulation, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.entry == nil {
		return nil, false
	}
	now := mc.now()
	if mc.ttl <= 0 || now.Sub(mc.entry.LoadedAt) >= mc.ttl {
		return nil, false
	}
	mc.entry.LastAccessed = now
	return mc.entry.Records, true
}

// Clear drops the cached collection
func (mc *MemoryCache) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.entry = nil
	util.LogInfo("MemoryCache: cleared")
}

func (mc *MemoryCache) Stats() Stats {
	return Stats{
		Hits:   atomic.LoadInt64(&mc.hits),
		Misses: atomic.LoadInt64(&mc.misses),
	}
}

// LogStats writes the counters to the application log
func (mc *MemoryCache) LogStats() {
	s := mc.Stats()
	util.LogInfo(fmt.Sprintf("Record cache: %d hits, %d misses (%.1f%% hit rate)",
		s.Hits, s.Misses, s.HitRate()*100))
}
