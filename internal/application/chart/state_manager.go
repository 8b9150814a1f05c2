package chart

import (
	"sync"
	"time"

	"github.com/penwyp/go-sim-monitor/internal/core/model"
)

// StateManager is the application store: the full record collection, the
// active filter, the loading flag and the interaction state. Safe for
// concurrent use.
type StateManager struct {
	mu sync.RWMutex

	records []model.Simulation

	// Loading state
	isLoading      bool
	loadingMessage string

	interactionState model.InteractionState

	lastDataUpdate int64
}

// NewStateManager creates a new StateManager instance
func NewStateManager() *StateManager {
	return &StateManager{
		records:          make([]model.Simulation, 0),
		interactionState: model.InteractionState{},
	}
}

// Records returns all records, unfiltered
func (sm *StateManager) Records() []model.Simulation {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	records := make([]model.Simulation, len(sm.records))
	copy(records, sm.records)
	return records
}

// SetRecords replaces the record collection
func (sm *StateManager) SetRecords(records []model.Simulation) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.records = records
	sm.lastDataUpdate = time.Now().Unix()
}

// Visible returns the records inside the active filter
func (sm *StateManager) Visible() []model.Simulation {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	visible := model.FilterSimulations(sm.records, sm.interactionState.Filter)
	out := make([]model.Simulation, len(visible))
	copy(out, visible)
	return out
}

// Filter returns the active filter
func (sm *StateManager) Filter() model.FilterRange {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.interactionState.Filter
}

// ApplyFilter stores the filter carried by msg and reports whether it changed
func (sm *StateManager) ApplyFilter(msg model.SetFilter) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	next := msg.Range()
	if sm.interactionState.Filter.Equal(next) {
		return false
	}
	sm.interactionState.Filter = next
	return true
}

// GetLoadingState returns current loading state and message
func (sm *StateManager) GetLoadingState() (bool, string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.isLoading, sm.loadingMessage
}

// SetLoadingState updates loading state and message
func (sm *StateManager) SetLoadingState(isLoading bool, message string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.isLoading = isLoading
	sm.loadingMessage = message
}

// GetInteractionState returns a copy of the interaction state with the
// loading fields filled in
func (sm *StateManager) GetInteractionState() model.InteractionState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	state := sm.interactionState
	state.IsLoading = sm.isLoading
	state.LoadingMessage = sm.loadingMessage
	return state
}

// UpdateInteractionState updates specific fields of interaction state
func (sm *StateManager) UpdateInteractionState(updateFunc func(*model.InteractionState)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	updateFunc(&sm.interactionState)
}

// SetStatusMessage sets the one-line message shown under the chart
func (sm *StateManager) SetStatusMessage(msg string) {
	sm.UpdateInteractionState(func(s *model.InteractionState) {
		s.StatusMessage = msg
	})
}

// GetLastDataUpdate returns timestamp of last successful data update
func (sm *StateManager) GetLastDataUpdate() int64 {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.lastDataUpdate
}
