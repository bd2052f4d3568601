package reactor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

// Provider produces one Result per configured target. Implementations
// must return every failure mode as a Failure result; errors never cross
// this boundary any other way. Fetch may block for seconds (subprocess
// execution, network I/O) and must honor ctx cancellation.
type Provider[T any] interface {
	Fetch(ctx context.Context, targets []string) []status.Result[T]
}

// Renderer maps one Result and a display mode to a Record. Render must be
// pure: deterministic for identical inputs, no I/O, no clock reads beyond
// the Result's own timestamp.
type Renderer[T any] interface {
	Render(res status.Result[T], mode int) status.Record
}

// UnreachableMessage is the canned failure recorded when the pre-check
// short-circuits a fetch.
const UnreachableMessage = "the network is unreachable"

// defaultFetchTimeout bounds Provider.Fetch when none is configured, so a
// hung subprocess or request cannot stall the worker forever.
const defaultFetchTimeout = 30 * time.Second

// Config wires one module's provider/renderer pair into a Reactor.
type Config[T any] struct {
	// Targets is the ordered list of measurement units. At least one is
	// required; target order is stable for the process lifetime.
	Targets []string

	Provider Provider[T]
	Renderer Renderer[T]
	Emitter  *status.Emitter

	// Interval is the periodic refresh cadence.
	Interval time.Duration

	// FetchTimeout bounds a single Provider.Fetch. Zero selects the
	// default. A timed-out fetch surfaces as Failure results, not a hang.
	FetchTimeout time.Duration

	// Formats is the number of display modes the toggle signal cycles
	// through. Ignored when CycleTargets is set, where the modulus is the
	// target count.
	Formats int

	// CycleTargets makes the toggle signal cycle across targets (the
	// rendered result follows the index) instead of display modes.
	CycleTargets bool

	// Precheck, when set, runs before each fetch. A non-nil error skips
	// the provider entirely and caches canned unreachable failures.
	Precheck func(ctx context.Context) error

	// RefreshSignal and ToggleSignal default to SIGHUP and SIGUSR1.
	RefreshSignal os.Signal
	ToggleSignal  os.Signal

	// InitialFormat restores a persisted display index.
	InitialFormat int

	// OnFormatChange observes toggle-driven index changes.
	OnFormatChange func(int)

	// Loading builds the transient record emitted for a target with no
	// prior result while a fetch is in flight. Optional.
	Loading func(target string) status.Record

	// Pending is rendered when a redraw arrives before the first
	// completed fetch. Optional.
	Pending func() status.Record

	Logger *slog.Logger
}

// Reactor is the assembled refresh/render engine for one module: the
// shared state, the signal bridge, the scheduler, and the worker loop.
type Reactor[T any] struct {
	cfg    Config[T]
	state  *State[T]
	bridge *bridge[T]
	sched  *scheduler[T]
	log    *slog.Logger
}

// New validates cfg and assembles a Reactor. Zero targets, or a missing
// provider, renderer, or emitter, is a configuration error: fatal before
// the reactor ever runs.
func New[T any](cfg Config[T]) (*Reactor[T], error) {
	if len(cfg.Targets) == 0 {
		return nil, errors.New("reactor: no targets configured")
	}
	if cfg.Provider == nil {
		return nil, errors.New("reactor: nil provider")
	}
	if cfg.Renderer == nil {
		return nil, errors.New("reactor: nil renderer")
	}
	if cfg.Emitter == nil {
		return nil, errors.New("reactor: nil emitter")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("reactor: invalid interval %v", cfg.Interval)
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.RefreshSignal == nil {
		cfg.RefreshSignal = unix.SIGHUP
	}
	if cfg.ToggleSignal == nil {
		cfg.ToggleSignal = unix.SIGUSR1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	formats := cfg.Formats
	if cfg.CycleTargets {
		formats = len(cfg.Targets)
	}
	if formats < 1 {
		formats = 1
	}

	st := NewState[T](formats)
	st.SetFormatIndex(cfg.InitialFormat)

	r := &Reactor[T]{
		cfg:   cfg,
		state: st,
		log:   cfg.Logger,
	}
	r.bridge = &bridge[T]{
		state:          st,
		refresh:        cfg.RefreshSignal,
		toggle:         cfg.ToggleSignal,
		source:         osSignalSource{},
		log:            cfg.Logger,
		onFormatChange: cfg.OnFormatChange,
	}
	r.sched = &scheduler[T]{state: st, interval: cfg.Interval}
	return r, nil
}

// State exposes the synchronization core, primarily for tests.
func (r *Reactor[T]) State() *State[T] {
	return r.state
}

// Run installs the signal handlers, starts the scheduler, and runs the
// worker loop on the calling goroutine until ctx is canceled. The initial
// fetch and render fire immediately; ticks follow at the configured
// interval. Cancellation is the externally requested termination path and
// returns nil.
func (r *Reactor[T]) Run(ctx context.Context) error {
	r.bridge.install()
	go r.bridge.run(ctx)
	go r.sched.run(ctx)
	go func() {
		<-ctx.Done()
		r.state.Close()
	}()

	w := &worker[T]{cfg: &r.cfg, state: r.state, log: r.log}
	return w.run(ctx)
}

// RunOnce performs one synchronous fetch and render, bypassing the
// scheduler, signal bridge, and worker loop entirely. It backs the
// one-shot test mode.
func (r *Reactor[T]) RunOnce(ctx context.Context) error {
	w := &worker[T]{cfg: &r.cfg, state: r.state, log: r.log}
	if !w.fetch(ctx) {
		return errors.New("reactor: fetch produced no results")
	}
	return w.render()
}
