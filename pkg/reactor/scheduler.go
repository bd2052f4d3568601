package reactor

import (
	"context"
	"time"
)

// scheduler wakes the worker for a fetch and redraw on a fixed interval.
// Downstream a tick is indistinguishable from a manual refresh signal,
// and does not need to be.
type scheduler[T any] struct {
	state    *State[T]
	interval time.Duration
}

func (s *scheduler[T]) run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.state.Wake(true, true)
		}
	}
}
