package chart

import (
	"math"
	"time"

	"github.com/penwyp/go-sim-monitor/internal/core/model"
	"github.com/penwyp/go-sim-monitor/internal/data/aggregator"
	"github.com/penwyp/go-sim-monitor/internal/util"
)

// Phase is the lifecycle position of a chart controller
type Phase int

const (
	PhaseUnmounted Phase = iota
	PhaseLoading         // mounted, loading indicator shown
	PhaseReady           // mounted, rebuilds allowed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return "unmounted"
	}
}

// State is everything the transition function needs. Records is the latest
// collection delivered by the data source, Series what the current surface shows.
type State struct {
	Phase          Phase
	Records        []model.Simulation
	Series         []aggregator.Bucket
	RebuildPending bool
}

// Mounted reports whether a surface may exist
func (s State) Mounted() bool {
	return s.Phase != PhaseUnmounted
}

type EventKind int

const (
	EventMount EventKind = iota
	EventUpdate
	EventResize
	EventRangeSelected
	EventRebuildTick
	EventUnmount
)

// Event is an input to Transition. Records and Loading are used by mount and
// update, Start and End by range selection.
type Event struct {
	Kind    EventKind
	Records []model.Simulation
	Loading bool
	Start   float64
	End     float64
}

type EffectKind int

const (
	// EffectBuild creates a surface for Effect.Series
	EffectBuild EffectKind = iota
	// EffectDestroy tears down the current surface
	EffectDestroy
	// EffectScheduleRebuild queues an EventRebuildTick for the next tick
	EffectScheduleRebuild
	EffectShowLoading
	EffectHideLoading
	// EffectDispatch sends Effect.Filter to the store
	EffectDispatch
)

type Effect struct {
	Kind   EffectKind
	Series []aggregator.Bucket
	Filter model.SetFilter
}

// Transition maps (state, event) to the next state and the effects to run, in
// order. It has no side effects.
func Transition(s State, ev Event) (State, []Effect) {
	if !s.Mounted() && ev.Kind != EventMount {
		return s, nil
	}

	switch ev.Kind {
	case EventMount:
		if s.Mounted() {
			return s, nil
		}
		series := aggregator.Aggregate(ev.Records)
		next := State{Phase: PhaseReady, Records: ev.Records, Series: series}
		effects := []Effect{{Kind: EffectBuild, Series: series}}
		if ev.Loading {
			next.Phase = PhaseLoading
			effects = append(effects, Effect{Kind: EffectShowLoading})
		}
		return next, effects

	case EventUpdate:
		next := s
		next.Records = ev.Records
		if ev.Loading {
			next.Phase = PhaseLoading
			return next, []Effect{{Kind: EffectShowLoading}}
		}
		var effects []Effect
		if s.Phase == PhaseLoading {
			effects = append(effects, Effect{Kind: EffectHideLoading})
		}
		next.Phase = PhaseReady
		return scheduleRebuild(next, effects)

	case EventResize:
		effects := []Effect{{Kind: EffectDispatch, Filter: model.ClearFilter()}}
		if s.Phase != PhaseReady {
			return s, effects
		}
		return scheduleRebuild(s, effects)

	case EventRangeSelected:
		return s, []Effect{{Kind: EffectDispatch, Filter: SelectionToFilter(s.Series, ev.Start, ev.End)}}

	case EventRebuildTick:
		next := s
		next.RebuildPending = false
		if s.Phase != PhaseReady {
			return next, nil
		}
		next.Series = aggregator.Aggregate(s.Records)
		return next, []Effect{{Kind: EffectDestroy}, {Kind: EffectBuild, Series: next.Series}}

	case EventUnmount:
		effects := []Effect{{Kind: EffectDestroy}}
		if s.Phase == PhaseLoading {
			effects = append(effects, Effect{Kind: EffectHideLoading})
		}
		return State{Phase: PhaseUnmounted}, effects
	}

	return s, nil
}

// scheduleRebuild adds a deferred rebuild unless one is already queued; the
// queued tick reads the latest records when it fires.
func scheduleRebuild(s State, effects []Effect) (State, []Effect) {
	if s.RebuildPending {
		return s, effects
	}
	s.RebuildPending = true
	return s, append(effects, Effect{Kind: EffectScheduleRebuild})
}

// SelectionToFilter converts a selection given as fractions of the series
// extent into a filter. The bounds are widened to whole buckets. Empty,
// inverted, non-finite and full-extent selections give the null filter.
func SelectionToFilter(series []aggregator.Bucket, start, end float64) model.SetFilter {
	first, last, ok := aggregator.Extent(series)
	if !ok || math.IsNaN(start) || math.IsNaN(end) {
		return model.ClearFilter()
	}

	start = clampFraction(start)
	end = clampFraction(end)
	if end <= start {
		return model.ClearFilter()
	}

	span := last.Sub(first)
	from := aggregator.FloorHour(first.Add(fractionOf(span, start)))
	to := ceilHour(first.Add(fractionOf(span, end)))
	if from.Before(first) {
		from = first
	}
	if to.After(last) {
		to = last
	}

	if !from.Before(to) || (from.Equal(first) && to.Equal(last)) {
		return model.ClearFilter()
	}
	return model.SetFilter{Start: &from, End: &to}
}

func clampFraction(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// fractionOf scales span by f, rounded to the second so that a fraction
// landing on a bucket edge stays on it
func fractionOf(span time.Duration, f float64) time.Duration {
	return time.Duration(math.Round(f*span.Seconds())) * time.Second
}

func ceilHour(t time.Time) time.Time {
	floored := aggregator.FloorHour(t)
	if floored.Equal(t) {
		return floored
	}
	return floored.Add(time.Hour)
}

// Controller drives Transition: it owns the current surface and runs effects
// against the collaborators. All methods must be called from one goroutine.
type Controller struct {
	state     State
	factory   SurfaceFactory
	chrome    Chrome
	sink      FilterSink
	scheduler Scheduler
	surface   Surface
	builds    int
}

func NewController(factory SurfaceFactory, chrome Chrome, sink FilterSink, scheduler Scheduler) *Controller {
	return &Controller{
		factory:   factory,
		chrome:    chrome,
		sink:      sink,
		scheduler: scheduler,
	}
}

// OnMount performs the first render pass
func (c *Controller) OnMount(records []model.Simulation, loading bool) {
	c.apply(Event{Kind: EventMount, Records: records, Loading: loading})
}

// OnUpdate receives a new record collection and loading flag
func (c *Controller) OnUpdate(records []model.Simulation, loading bool) {
	c.apply(Event{Kind: EventUpdate, Records: records, Loading: loading})
}

// OnExternalResize clears any selection and rebuilds
func (c *Controller) OnExternalResize() {
	c.apply(Event{Kind: EventResize})
}

// OnRangeSelected forwards a completed selection from the surface
func (c *Controller) OnRangeSelected(start, end float64) {
	c.apply(Event{Kind: EventRangeSelected, Start: start, End: end})
}

// OnUnmount destroys the surface
func (c *Controller) OnUnmount() {
	c.apply(Event{Kind: EventUnmount})
}

// State returns the current controller state
func (c *Controller) State() State {
	return c.state
}

// Surface returns the live surface, nil when unmounted
func (c *Controller) Surface() Surface {
	return c.surface
}

// Builds counts surfaces created so far
func (c *Controller) Builds() int {
	return c.builds
}

func (c *Controller) apply(ev Event) {
	next, effects := Transition(c.state, ev)
	if next.Phase != c.state.Phase {
		util.LogDebugf("Chart controller %s -> %s", c.state.Phase, next.Phase)
	}
	c.state = next
	for _, eff := range effects {
		c.run(eff)
	}
}

func (c *Controller) run(eff Effect) {
	switch eff.Kind {
	case EffectBuild:
		c.destroySurface()
		c.surface = c.factory.NewSurface(eff.Series)
		c.builds++
		if c.surface == nil {
			util.LogWarn("Chart surface could not be built; waiting for the next rebuild")
			return
		}
		c.surface.OnRangeChanged(c.OnRangeSelected)
	case EffectDestroy:
		c.destroySurface()
	case EffectScheduleRebuild:
		c.scheduler.Schedule(func() {
			c.apply(Event{Kind: EventRebuildTick})
		})
	case EffectShowLoading:
		if c.chrome != nil {
			c.chrome.SetLoading(true)
		}
	case EffectHideLoading:
		if c.chrome != nil {
			c.chrome.SetLoading(false)
		}
	case EffectDispatch:
		if c.sink != nil {
			c.sink(eff.Filter)
		}
	}
}

func (c *Controller) destroySurface() {
	if c.surface != nil {
		c.surface.Destroy()
		c.surface = nil
	}
}
