package chart

import (
	"math"
	"testing"
	"time"

	"github.com/penwyp/go-sim-monitor/internal/core/model"
	"github.com/penwyp/go-sim-monitor/internal/data/aggregator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSurface struct {
	series    []aggregator.Bucket
	callback  func(start, end float64)
	destroyed bool
}

func (s *fakeSurface) OnRangeChanged(fn func(start, end float64)) { s.callback = fn }
func (s *fakeSurface) Destroy()                                   { s.destroyed = true }

type fakeChrome struct {
	calls []bool
}

func (c *fakeChrome) SetLoading(loading bool) { c.calls = append(c.calls, loading) }

type harness struct {
	ctrl       *Controller
	chrome     *fakeChrome
	scheduler  *TickScheduler
	surfaces   []*fakeSurface
	dispatched []model.SetFilter
}

func newHarness() *harness {
	h := &harness{chrome: &fakeChrome{}, scheduler: NewTickScheduler()}
	factory := SurfaceFactoryFunc(func(series []aggregator.Bucket) Surface {
		s := &fakeSurface{series: series}
		h.surfaces = append(h.surfaces, s)
		return s
	})
	h.ctrl = NewController(factory, h.chrome, func(f model.SetFilter) {
		h.dispatched = append(h.dispatched, f)
	}, h.scheduler)
	return h
}

func (h *harness) last() *fakeSurface {
	return h.surfaces[len(h.surfaces)-1]
}

func at(hour, minute int) model.Timestamp {
	return model.NewTimestamp(time.Date(2024, 1, 1, hour, minute, 0, 0, time.UTC))
}

func records(times ...model.Timestamp) []model.Simulation {
	out := make([]model.Simulation, len(times))
	for i, ts := range times {
		out[i] = model.Simulation{UUID: string(rune('a' + i)), Created: ts}
	}
	return out
}

func utcHour(h int) time.Time {
	return time.Date(2024, 1, 1, h, 0, 0, 0, time.UTC)
}

func TestController_MountBuildsImmediately(t *testing.T) {
	h := newHarness()

	h.ctrl.OnMount(records(at(10, 15), at(10, 45), at(12, 5)), false)

	require.Len(t, h.surfaces, 1)
	assert.Equal(t, PhaseReady, h.ctrl.State().Phase)
	assert.Equal(t, []aggregator.Bucket{
		{Start: utcHour(10), Count: 2},
		{Start: utcHour(11), Count: 0},
		{Start: utcHour(12), Count: 1},
	}, h.last().series)
	assert.NotNil(t, h.last().callback, "range callback must be registered")
	assert.Zero(t, h.scheduler.Len())
}

func TestController_MountWhileLoading(t *testing.T) {
	h := newHarness()

	h.ctrl.OnMount(nil, true)

	require.Len(t, h.surfaces, 1)
	assert.Empty(t, h.last().series)
	assert.Equal(t, PhaseLoading, h.ctrl.State().Phase)
	assert.Equal(t, []bool{true}, h.chrome.calls)
}

func TestController_NoRebuildWhileLoading(t *testing.T) {
	h := newHarness()
	h.ctrl.OnMount(records(at(10, 0)), false)

	h.ctrl.OnUpdate(records(at(10, 0), at(11, 0)), true)
	h.ctrl.OnUpdate(records(at(10, 0), at(11, 0), at(12, 0)), true)
	h.scheduler.RunPending()

	assert.Len(t, h.surfaces, 1)
	assert.False(t, h.last().destroyed)
	assert.Equal(t, PhaseLoading, h.ctrl.State().Phase)
	assert.Equal(t, []bool{true, true}, h.chrome.calls)
}

func TestController_UpdateRebuildIsDeferred(t *testing.T) {
	h := newHarness()
	h.ctrl.OnMount(nil, true)
	first := h.last()

	h.ctrl.OnUpdate(records(at(10, 15), at(12, 5)), false)

	assert.Len(t, h.surfaces, 1, "rebuild must not happen inside the update")
	assert.Equal(t, 1, h.scheduler.Len())
	assert.Equal(t, []bool{true, false}, h.chrome.calls)

	h.scheduler.RunPending()

	require.Len(t, h.surfaces, 2)
	assert.True(t, first.destroyed, "old surface is destroyed, not patched")
	assert.False(t, h.last().destroyed)
	assert.Len(t, h.last().series, 3)
	assert.False(t, h.ctrl.State().RebuildPending)
}

func TestController_RebuildsAreCoalesced(t *testing.T) {
	h := newHarness()
	h.ctrl.OnMount(nil, false)

	h.ctrl.OnUpdate(records(at(10, 0)), false)
	h.ctrl.OnUpdate(records(at(10, 0), at(11, 0)), false)
	h.ctrl.OnExternalResize()

	assert.Equal(t, 1, h.scheduler.Len())
	assert.Equal(t, 1, h.scheduler.RunPending())

	require.Len(t, h.surfaces, 2)
	assert.Equal(t, 2, aggregator.Total(h.last().series), "tick rebuilds from the latest records")
	assert.Zero(t, h.scheduler.RunPending())
}

func TestController_StaleTickAfterLoadingResumes(t *testing.T) {
	h := newHarness()
	h.ctrl.OnMount(nil, false)

	h.ctrl.OnUpdate(records(at(10, 0)), false)
	h.ctrl.OnUpdate(records(at(10, 0)), true)
	h.scheduler.RunPending()

	assert.Len(t, h.surfaces, 1)
	assert.False(t, h.ctrl.State().RebuildPending)

	h.ctrl.OnUpdate(records(at(10, 0)), false)
	h.scheduler.RunPending()
	assert.Len(t, h.surfaces, 2)
}

func TestController_ResizeAlwaysClearsFilter(t *testing.T) {
	tests := []struct {
		name    string
		loading bool
	}{
		{name: "ready", loading: false},
		{name: "loading", loading: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.ctrl.OnMount(records(at(10, 0), at(13, 0)), tt.loading)
			h.ctrl.OnRangeSelected(0.25, 0.5)
			require.Len(t, h.dispatched, 1)
			require.False(t, h.dispatched[0].Range().IsZero())

			h.ctrl.OnExternalResize()

			require.Len(t, h.dispatched, 2)
			assert.True(t, h.dispatched[1].Range().IsZero())

			h.scheduler.RunPending()
			if tt.loading {
				assert.Len(t, h.surfaces, 1)
			} else {
				assert.Len(t, h.surfaces, 2)
			}
		})
	}
}

func TestController_RangeSelected(t *testing.T) {
	// Extent 10:00 to 14:00, four buckets
	recs := records(at(10, 0), at(11, 30), at(13, 59))

	tests := []struct {
		name      string
		start     float64
		end       float64
		wantStart *time.Time
		wantEnd   *time.Time
	}{
		{name: "middle buckets", start: 0.25, end: 0.75, wantStart: ptr(utcHour(11)), wantEnd: ptr(utcHour(13))},
		{name: "widened to whole buckets", start: 0.3, end: 0.6, wantStart: ptr(utcHour(11)), wantEnd: ptr(utcHour(13))},
		{name: "first bucket", start: 0, end: 0.25, wantStart: ptr(utcHour(10)), wantEnd: ptr(utcHour(11))},
		{name: "full extent", start: 0, end: 1},
		{name: "beyond extent", start: -0.5, end: 1.5},
		{name: "empty", start: 0.5, end: 0.5},
		{name: "inverted", start: 0.75, end: 0.25},
		{name: "not a number", start: math.NaN(), end: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.ctrl.OnMount(recs, false)

			// The surface reports the selection through the registered callback
			h.last().callback(tt.start, tt.end)

			require.Len(t, h.dispatched, 1, "selection must always be dispatched")
			got := h.dispatched[0]
			if tt.wantStart == nil {
				assert.True(t, got.Range().IsZero())
				return
			}
			assert.True(t, got.Range().Equal(model.FilterRange{Start: tt.wantStart, End: tt.wantEnd}),
				"got %v", got.Range())
		})
	}
}

func TestSelectionToFilter_BucketEdgesSurviveRounding(t *testing.T) {
	series := []aggregator.Bucket{
		{Start: utcHour(10), Count: 1},
		{Start: utcHour(11), Count: 1},
		{Start: utcHour(12), Count: 1},
	}

	got := SelectionToFilter(series, 1.0/3, 2.0/3)

	require.NotNil(t, got.Start)
	require.NotNil(t, got.End)
	assert.Equal(t, utcHour(11), *got.Start)
	assert.Equal(t, utcHour(12), *got.End)
}

func TestController_RangeSelectedWithoutSeries(t *testing.T) {
	h := newHarness()
	h.ctrl.OnMount(nil, false)

	h.ctrl.OnRangeSelected(0.2, 0.4)

	require.Len(t, h.dispatched, 1)
	assert.True(t, h.dispatched[0].Range().IsZero())
}

func TestController_Unmount(t *testing.T) {
	h := newHarness()
	h.ctrl.OnMount(records(at(10, 0)), false)
	h.ctrl.OnUpdate(records(at(10, 0), at(11, 0)), false)

	h.ctrl.OnUnmount()

	assert.True(t, h.last().destroyed)
	assert.Nil(t, h.ctrl.Surface())
	assert.Equal(t, PhaseUnmounted, h.ctrl.State().Phase)

	// Events after teardown, including the queued tick, are ignored
	h.scheduler.RunPending()
	h.ctrl.OnUpdate(records(at(12, 0)), false)
	h.ctrl.OnExternalResize()
	h.ctrl.OnRangeSelected(0, 0.5)

	assert.Len(t, h.surfaces, 1)
	assert.Empty(t, h.dispatched)
	assert.Zero(t, h.scheduler.Len())
}

func TestTransition_IsPure(t *testing.T) {
	s := State{Phase: PhaseReady, Records: records(at(10, 0), at(12, 0))}
	ev := Event{Kind: EventRebuildTick}

	s1, e1 := Transition(s, ev)
	s2, e2 := Transition(s, ev)

	assert.Equal(t, s1, s2)
	assert.Equal(t, e1, e2)
	assert.Nil(t, s.Series, "input state is not modified")
	require.Len(t, e1, 2)
	assert.Equal(t, EffectDestroy, e1[0].Kind)
	assert.Equal(t, EffectBuild, e1[1].Kind)
}

func TestTransition_DoubleMountIgnored(t *testing.T) {
	s, effects := Transition(State{}, Event{Kind: EventMount})
	require.Len(t, effects, 1)

	next, effects := Transition(s, Event{Kind: EventMount})
	assert.Equal(t, s, next)
	assert.Empty(t, effects)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "unmounted", PhaseUnmounted.String())
	assert.Equal(t, "loading", PhaseLoading.String())
	assert.Equal(t, "ready", PhaseReady.String())
}

func ptr(t time.Time) *time.Time { return &t }
