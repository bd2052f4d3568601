// Package reactor implements the refresh/render engine every bar-pulse
// module runs on: a condition-variable core holding the trigger flags and
// cached results, a signal bridge, a periodic scheduler, and the single
// worker goroutine that fetches, caches, renders, and emits.
package reactor

import (
	"sync"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

// State is the synchronization core. One mutex and one condition variable
// guard the two trigger flags, the format index, and the cached results.
// The worker goroutine is the only reader of the flags and the only
// writer of the results; wakers only ever set flags and notify.
type State[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	needsFetch  bool
	needsRedraw bool
	formatIndex int
	formats     int
	results     []status.Result[T]
	closed      bool
}

// NewState returns a State with both trigger flags raised, so the worker
// performs an initial fetch and render as soon as it starts. formats is
// the modulus for the display index and must be at least 1.
func NewState[T any](formats int) *State[T] {
	if formats < 1 {
		formats = 1
	}
	s := &State[T]{
		needsFetch:  true,
		needsRedraw: true,
		formats:     formats,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Wake raises the requested trigger flags and notifies the worker.
// Repeated wakes before the worker drains them collapse into a single
// pending trigger.
func (s *State[T]) Wake(fetch, redraw bool) {
	s.mu.Lock()
	s.needsFetch = s.needsFetch || fetch
	s.needsRedraw = s.needsRedraw || redraw
	s.mu.Unlock()
	s.cond.Signal()
}

// WaitAndDrain blocks until at least one trigger flag is raised or the
// state is closed, then atomically snapshots and clears both flags.
// ok is false once the state has been closed and no triggers remain.
func (s *State[T]) WaitAndDrain() (fetch, redraw, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !(s.needsFetch || s.needsRedraw || s.closed) {
		s.cond.Wait()
	}
	if s.closed && !s.needsFetch && !s.needsRedraw {
		return false, false, false
	}
	fetch, redraw = s.needsFetch, s.needsRedraw
	s.needsFetch = false
	s.needsRedraw = false
	return fetch, redraw, true
}

// Close releases the worker from WaitAndDrain. Pending triggers are still
// delivered once before ok turns false.
func (s *State[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// AdvanceFormat steps the display index one position, wrapping at the
// configured modulus, and returns the new index.
func (s *State[T]) AdvanceFormat() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.formatIndex = (s.formatIndex + 1) % s.formats
	return s.formatIndex
}

// FormatIndex returns the current display index.
func (s *State[T]) FormatIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.formatIndex
}

// SetFormatIndex restores a persisted display index. Out-of-range values
// are reduced modulo the configured format count.
func (s *State[T]) SetFormatIndex(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 {
		i = 0
	}
	s.formatIndex = i % s.formats
}

// Formats returns the display index modulus.
func (s *State[T]) Formats() int {
	return s.formats
}

// SetResults replaces the cached results in one step. Only the worker
// calls this; the cache is never exposed partially updated.
func (s *State[T]) SetResults(rs []status.Result[T]) {
	s.mu.Lock()
	s.results = rs
	s.mu.Unlock()
}

// Results returns the cached results. The slice is owned by the worker
// after a SetResults and must not be mutated by other callers.
func (s *State[T]) Results() []status.Result[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}
