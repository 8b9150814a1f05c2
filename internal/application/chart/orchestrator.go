package chart

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/penwyp/go-sim-monitor/internal/core/model"
	"github.com/penwyp/go-sim-monitor/internal/data/aggregator"
	"github.com/penwyp/go-sim-monitor/internal/data/watcher"
	"github.com/penwyp/go-sim-monitor/internal/presentation/display"
	"github.com/penwyp/go-sim-monitor/internal/presentation/interaction"
	"github.com/penwyp/go-sim-monitor/internal/presentation/layout"
	"github.com/penwyp/go-sim-monitor/internal/util"
	"golang.org/x/sys/unix"
)

const (
	uiRefreshInterval = 200 * time.Millisecond
	fetchingMessage   = "Fetching simulations..."
	filteringMessage  = "Applying filter..."
)

type loadResult struct {
	records []model.Simulation
	err     error
}

// Orchestrator coordinates all components for the chart command. Everything
// except the fetch itself runs on the goroutine that calls Run.
type Orchestrator struct {
	config *ChartConfig

	// Core components
	dataLoader   *DataLoader
	stateManager *StateManager
	scheduler    *TickScheduler
	controller   *Controller

	// UI components
	display  *display.TerminalDisplay
	chrome   *display.Chrome
	keyboard InputHandler
	sizer    *layout.Sizer

	// Monitoring
	watcher FileMonitor

	filters   chan model.SetFilter
	loads     chan loadResult
	loading   bool
	lastFetch time.Time
}

// NewOrchestrator creates a new Orchestrator instance
func NewOrchestrator(config *ChartConfig) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dataLoader, err := NewDataLoader(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create data loader: %w", err)
	}

	sizer := layout.CurrentSizer()
	o := &Orchestrator{
		config:       config,
		dataLoader:   dataLoader,
		stateManager: NewStateManager(),
		scheduler:    NewTickScheduler(),
		chrome:       display.NewChrome(),
		sizer:        sizer,
		filters:      make(chan model.SetFilter, 16),
		loads:        make(chan loadResult, 1),
	}
	o.display = display.NewTerminalDisplay(&display.DisplayConfig{
		Source: dataLoader.Source(),
		Width:  sizer.Width,
	})
	o.controller = NewController(SurfaceFactoryFunc(o.newSurface), o.chrome, o.dispatch, o.scheduler)

	return o, nil
}

// Run starts the orchestrator main loop
func (o *Orchestrator) Run(ctx context.Context) error {
	util.LogInfo("Starting simulation chart...")
	defer o.Close()

	if err := util.InitializeTimeProvider(o.config.Timezone); err != nil {
		return fmt.Errorf("failed to initialize timezone: %w", err)
	}

	keyboard, err := interaction.NewKeyboardReader()
	if err != nil {
		return fmt.Errorf("failed to initialize keyboard: %w", err)
	}
	o.keyboard = keyboard

	o.display.EnterAlternateScreen()
	defer o.display.ExitAlternateScreen()

	// Cached or on-disk records first so the chart is not empty while fetching
	records, err := o.dataLoader.Preload()
	if err != nil {
		return fmt.Errorf("preload failed: %w", err)
	}
	o.setRecords(records)

	fetch := !o.config.UseDirectory()
	if fetch {
		o.stateManager.SetLoadingState(true, fetchingMessage)
	}
	o.controller.OnMount(o.stateManager.Visible(), fetch)
	defer o.controller.OnUnmount()
	if fetch {
		o.fetch(ctx)
	}
	o.render()

	var fileEvents <-chan model.FileEvent
	if o.config.UseDirectory() {
		if err := o.startWatcher(); err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
		fileEvents = o.watcher.Events()
	}

	resize := make(chan os.Signal, 1)
	signal.Notify(resize, unix.SIGWINCH)
	defer signal.Stop(resize)

	uiTicker := time.NewTicker(uiRefreshInterval)
	defer uiTicker.Stop()

	dataTicker := time.NewTicker(o.config.RefreshInterval)
	defer dataTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Shutting down simulation chart...")
			return nil

		case <-uiTicker.C:
			if o.chrome.Loading() || !o.stateManager.GetInteractionState().IsPaused {
				o.render()
			}

		case <-dataTicker.C:
			state := o.stateManager.GetInteractionState()
			if !state.IsPaused || state.ForceRefresh {
				o.refresh(ctx)
			}

		case res := <-o.loads:
			o.handleLoad(res)
			o.render()

		case event := <-fileEvents:
			if !o.stateManager.GetInteractionState().IsPaused {
				o.handleFileChange(ctx, event)
			}

		case msg := <-o.filters:
			o.handleFilter(msg)
			o.render()

		case <-resize:
			o.handleResize(layout.CurrentSizer())
			o.render()

		case <-o.scheduler.Ready():
			o.scheduler.RunPending()
			o.render()

		case keyEvent := <-o.keyboard.Events():
			if o.handleKeyboard(ctx, keyEvent) {
				return nil
			}
			o.render()
		}
	}
}

// newSurface builds a terminal chart sized to the current terminal
func (o *Orchestrator) newSurface(series []aggregator.Bucket) Surface {
	labelWidth := len(strconv.Itoa(aggregator.Peak(series)))
	util.LogDebugf("Building chart for %d buckets", len(series))
	return display.NewTerminalChart(series, display.ChartOptions{
		Width:  o.sizer.PlotWidth(labelWidth),
		Height: o.sizer.PlotHeight(),
	})
}

// dispatch is the controller's filter sink. The controller calls it from the
// loop goroutine, so it must not block on the loop. A full queue drops the
// message rather than reorder it.
func (o *Orchestrator) dispatch(msg model.SetFilter) {
	select {
	case o.filters <- msg:
	default:
		util.LogWarn(fmt.Sprintf("Filter queue full (%d pending); dropping %s",
			len(o.filters), util.FormatRange(msg.Start, msg.End)))
	}
}

// setRecords stores a fresh record set and reports records the chart will
// leave out
func (o *Orchestrator) setRecords(records []model.Simulation) {
	o.stateManager.SetRecords(records)
	_, stats := aggregator.AggregateWithStats(records)
	stats.LogSkipped(o.dataLoader.Source())
}

// chart returns the live terminal chart, nil while none is mounted
func (o *Orchestrator) chart() *display.TerminalChart {
	if c, ok := o.controller.Surface().(*display.TerminalChart); ok {
		return c
	}
	return nil
}

func (o *Orchestrator) render() {
	o.display.Render(o.chart(), o.stateManager.GetInteractionState(), o.chrome)
}

// handleFilter stores a filter from the chart and feeds the recomputed
// visible records back to the controller
func (o *Orchestrator) handleFilter(msg model.SetFilter) {
	if !o.stateManager.ApplyFilter(msg) {
		return
	}
	util.LogDebug(fmt.Sprintf("Filter set to %s", util.FormatRange(msg.Start, msg.End)))

	if o.loading {
		// The pending fetch result will carry the new filter
		o.controller.OnUpdate(o.stateManager.Visible(), true)
		return
	}

	o.stateManager.SetLoadingState(true, filteringMessage)
	o.controller.OnUpdate(o.stateManager.Visible(), true)
	o.stateManager.SetLoadingState(false, "")
	o.controller.OnUpdate(o.stateManager.Visible(), false)
}

func (o *Orchestrator) handleResize(sizer *layout.Sizer) {
	o.sizer = sizer
	o.display.SetWidth(sizer.Width)
	o.display.ClearScreen()
	o.controller.OnExternalResize()
}

// refresh starts a fetch unless one is already running
func (o *Orchestrator) refresh(ctx context.Context) {
	if o.loading {
		return
	}
	o.stateManager.SetLoadingState(true, fetchingMessage)
	o.controller.OnUpdate(o.stateManager.Visible(), true)
	o.fetch(ctx)
}

// fetch loads records in the background; the result arrives on o.loads
func (o *Orchestrator) fetch(ctx context.Context) {
	o.loading = true
	o.lastFetch = time.Now()
	go func() {
		records, err := o.dataLoader.Load(ctx)
		o.loads <- loadResult{records: records, err: err}
	}()
}

func (o *Orchestrator) handleLoad(res loadResult) {
	o.loading = false
	o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
		s.ForceRefresh = false
	})

	if res.err != nil {
		util.LogError(fmt.Sprintf("Failed to refresh data: %v", res.err))
		o.stateManager.SetStatusMessage(fmt.Sprintf("Refresh failed: %v", res.err))
	} else {
		o.setRecords(res.records)
		o.stateManager.SetStatusMessage(fmt.Sprintf("%s simulations, updated %s (took %s)",
			util.FormatCount(len(res.records)),
			util.GetTimeProvider().Format(util.GetTimeProvider().Now(), "15:04:05"),
			util.FormatDuration(time.Since(o.lastFetch))))
	}

	o.stateManager.SetLoadingState(false, "")
	o.controller.OnUpdate(o.stateManager.Visible(), false)
}

// handleKeyboard handles keyboard events and reports whether to quit
func (o *Orchestrator) handleKeyboard(ctx context.Context, event interaction.KeyEvent) bool {
	state := o.stateManager.GetInteractionState()

	// Esc closes the help screen before it quits
	if state.ShowHelp && (event.Type == interaction.KeyEscape || (event.Type == interaction.KeyChar && event.Key == '?')) {
		o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
			s.ShowHelp = false
		})
		o.display.ClearScreen()
		return false
	}
	if event.IsQuit() {
		return true
	}

	if event.Type == interaction.KeyChar {
		switch event.Key {
		case '?':
			o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
				s.ShowHelp = true
			})
			o.display.ClearScreen()
			return false
		case 'r', 'R':
			o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
				s.ForceRefresh = true
			})
			o.refresh(ctx)
			return false
		case 'p', 'P':
			o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
				s.IsPaused = !s.IsPaused
			})
			return false
		}
	}

	if state.ShowHelp {
		return false
	}
	if c := o.chart(); c != nil {
		c.HandleKey(event)
	}
	return false
}

func (o *Orchestrator) startWatcher() error {
	fw, err := watcher.NewFileWatcher([]string{o.config.DataDir})
	if err != nil {
		return err
	}
	o.watcher = fw
	return nil
}

// handleFileChange reloads the snapshot directory after a file changed
func (o *Orchestrator) handleFileChange(ctx context.Context, event model.FileEvent) {
	util.LogDebug(fmt.Sprintf("File changed: %s (%s)", event.Path, event.Operation))

	if _, err := os.Stat(event.Path); os.IsNotExist(err) {
		o.dataLoader.Forget(event.Path)
	}
	o.refresh(ctx)
}

// Close cleans up all resources
func (o *Orchestrator) Close() error {
	if o.keyboard != nil {
		if err := o.keyboard.Close(); err != nil {
			util.LogError(fmt.Sprintf("Failed to restore terminal: %v", err))
		}
		o.keyboard = nil
	}

	if o.watcher != nil {
		if err := o.watcher.Close(); err != nil {
			return fmt.Errorf("failed to close file watcher: %w", err)
		}
		o.watcher = nil
	}

	return nil
}
