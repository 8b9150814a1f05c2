package chart

import (
	"context"

	"github.com/penwyp/go-sim-monitor/internal/core/model"
	"github.com/penwyp/go-sim-monitor/internal/data/aggregator"
	"github.com/penwyp/go-sim-monitor/internal/presentation/interaction"
)

// Surface is one rendered chart instance. It is never patched: a new series
// means a new surface.
type Surface interface {
	// OnRangeChanged registers the callback fired when the user completes a
	// selection. start and end are fractions of the plotted extent.
	OnRangeChanged(fn func(start, end float64))
	// Destroy releases the surface; it must not render afterwards
	Destroy()
}

// SurfaceFactory builds a surface for a bucket series
type SurfaceFactory interface {
	NewSurface(series []aggregator.Bucket) Surface
}

// SurfaceFactoryFunc adapts a function to SurfaceFactory
type SurfaceFactoryFunc func(series []aggregator.Bucket) Surface

func (f SurfaceFactoryFunc) NewSurface(series []aggregator.Bucket) Surface {
	return f(series)
}

// Chrome shows the loading indicator around the chart
type Chrome interface {
	SetLoading(loading bool)
}

// FilterSink receives the outbound filter messages
type FilterSink func(model.SetFilter)

// Scheduler defers work to the next tick of the event loop
type Scheduler interface {
	Schedule(fn func())
}

// RecordSource loads the raw record collection
type RecordSource interface {
	// Preload returns records available without a network round trip
	Preload() ([]model.Simulation, error)
	// Load fetches the current records
	Load(ctx context.Context) ([]model.Simulation, error)
}

// InputHandler processes keyboard events
type InputHandler interface {
	// Events returns a channel of keyboard events
	Events() <-chan interaction.KeyEvent
	// Close cleans up input handler resources
	Close() error
}

// FileMonitor watches for file changes
type FileMonitor interface {
	// Events returns a channel of file change events
	Events() <-chan model.FileEvent
	// Close stops monitoring and cleans up resources
	Close() error
}
