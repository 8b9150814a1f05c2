package chart

import "sync"

// TickScheduler queues callbacks for the next iteration of the event loop.
// The loop selects on Ready and then calls RunPending.
type TickScheduler struct {
	mu      sync.Mutex
	pending []func()
	ready   chan struct{}
}

func NewTickScheduler() *TickScheduler {
	return &TickScheduler{ready: make(chan struct{}, 1)}
}

// Schedule queues fn. It never blocks and never runs fn inline.
func (s *TickScheduler) Schedule(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.pending = append(s.pending, fn)
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Ready is signalled whenever callbacks are queued
func (s *TickScheduler) Ready() <-chan struct{} {
	return s.ready
}

// RunPending runs the callbacks queued so far. Callbacks scheduled while
// running wait for the next tick.
func (s *TickScheduler) RunPending() int {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Len returns the number of queued callbacks
func (s *TickScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
