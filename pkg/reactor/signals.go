package reactor

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
)

// signalSource abstracts signal.Notify/Stop so tests can inject signals
// without raising them process-wide.
type signalSource interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

type osSignalSource struct{}

func (osSignalSource) Notify(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) }
func (osSignalSource) Stop(c chan<- os.Signal)                     { signal.Stop(c) }

// bridge translates asynchronous OS signals into wakes against the State.
// The Go runtime already defers delivery onto a channel, so the handler
// work (index advance, flag set) runs on the bridge goroutine with the
// ordinary lock, never in async-signal context.
type bridge[T any] struct {
	state   *State[T]
	refresh os.Signal
	toggle  os.Signal
	source  signalSource
	log     *slog.Logger

	// onFormatChange is invoked with the new index after each toggle,
	// outside the state lock. Used to persist the index across restarts.
	onFormatChange func(int)

	ch chan os.Signal
}

// install registers the signal channel. It must run before the worker
// starts so no early signal is lost.
func (b *bridge[T]) install() {
	b.ch = make(chan os.Signal, 8)
	b.source.Notify(b.ch, b.refresh, b.toggle)
}

// run consumes delivered signals until the context ends. A refresh wakes
// the worker for a fetch and redraw; a toggle advances the display index
// and wakes it for a redraw only.
func (b *bridge[T]) run(ctx context.Context) {
	defer b.source.Stop(b.ch)
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-b.ch:
			switch sig {
			case b.refresh:
				b.log.Info("refresh signal received, re-fetching", "signal", sig)
				b.state.Wake(true, true)
			case b.toggle:
				idx := b.state.AdvanceFormat()
				b.log.Info("toggle signal received, switching format", "signal", sig, "index", idx)
				if b.onFormatChange != nil {
					b.onFormatChange(idx)
				}
				b.state.Wake(false, true)
			}
		}
	}
}
