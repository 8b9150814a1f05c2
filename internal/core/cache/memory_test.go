package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/penwyp/go-sim-monitor/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	mu      sync.Mutex
	loads   int
	records []model.Simulation
	err     error
}

func (s *countingSource) Preload() ([]model.Simulation, error) { return nil, nil }

func (s *countingSource) Load(ctx context.Context) ([]model.Simulation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestCache(src Source, ttl time.Duration) (*MemoryCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(src, ttl)
	mc.now = clock.now
	return mc, clock
}

func TestMemoryCache_LoadWithinTTL(t *testing.T) {
	src := &countingSource{records: []model.Simulation{{UUID: "a"}}}
	mc, clock := newTestCache(src, 10*time.Second)

	for i := 0; i < 3; i++ {
		recs, err := mc.Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, recs, 1)
		clock.t = clock.t.Add(3 * time.Second)
	}

	assert.Equal(t, 1, src.loads)
	assert.Equal(t, Stats{Hits: 2, Misses: 1}, mc.Stats())
	assert.InDelta(t, 2.0/3, mc.Stats().HitRate(), 1e-9)
}

func TestMemoryCache_Expiry(t *testing.T) {
	src := &countingSource{records: []model.Simulation{{UUID: "a"}}}
	mc, clock := newTestCache(src, 10*time.Second)

	_, err := mc.Load(context.Background())
	require.NoError(t, err)
	clock.t = clock.t.Add(10 * time.Second)
	_, err = mc.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, src.loads)
	entry, ok := mc.Get()
	require.True(t, ok)
	assert.Equal(t, clock.t, entry.LoadedAt)
}

func TestMemoryCache_ZeroTTLNeverCaches(t *testing.T) {
	src := &countingSource{}
	mc, _ := newTestCache(src, 0)

	_, _ = mc.Load(context.Background())
	_, _ = mc.Load(context.Background())

	assert.Equal(t, 2, src.loads)
}

func TestMemoryCache_ErrorsAreNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("boom")}
	mc, _ := newTestCache(src, time.Minute)

	_, err := mc.Load(context.Background())
	assert.Error(t, err)

	src.err = nil
	src.records = []model.Simulation{{UUID: "a"}}
	recs, err := mc.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, 2, src.loads)
}

func TestMemoryCache_Clear(t *testing.T) {
	src := &countingSource{}
	mc, _ := newTestCache(src, time.Minute)
	mc.Set([]model.Simulation{{UUID: "a"}})

	mc.Clear()

	_, ok := mc.Get()
	assert.False(t, ok)
	_, err := mc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.loads)
}

func TestMemoryCache_ConcurrentMissesShareOneLoad(t *testing.T) {
	src := &countingSource{records: []model.Simulation{{UUID: "a"}}}
	mc := NewMemoryCache(src, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = mc.Load(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, src.loads)
	assert.Equal(t, Stats{Hits: 7, Misses: 1}, mc.Stats())
}

func TestMemoryCache_SharedLoadError(t *testing.T) {
	release := make(chan struct{})
	src := &blockingSource{release: release, started: make(chan struct{}), err: errors.New("boom")}
	mc := NewMemoryCache(src, time.Hour)

	errs := make(chan error, 2)
	go func() {
		_, err := mc.Load(context.Background())
		errs <- err
	}()
	<-src.started
	go func() {
		_, err := mc.Load(context.Background())
		errs <- err
	}()
	// Give the second caller a moment to join the flight
	time.Sleep(20 * time.Millisecond)
	close(release)

	assert.EqualError(t, <-errs, "boom")
	assert.EqualError(t, <-errs, "boom")
	assert.Zero(t, mc.Stats().Hits, "a failed load is never served as a hit")
}

type blockingSource struct {
	release chan struct{}
	started chan struct{}
	err     error
	once    sync.Once
}

func (s *blockingSource) Preload() ([]model.Simulation, error) { return nil, nil }

func (s *blockingSource) Load(ctx context.Context) ([]model.Simulation, error) {
	s.once.Do(func() { close(s.started) })
	<-s.release
	return nil, s.err
}
