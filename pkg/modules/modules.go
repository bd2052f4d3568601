// Package modules defines the registry tying module names to the
// factories that assemble a provider/renderer pair into a runnable
// reactor. Implementations live in sub-packages (e.g.,
// pkg/modules/filesystem) and are registered by the CLI at startup.
package modules

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/config"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

// Runner is a fully wired module instance.
type Runner interface {
	// Run drives the module until ctx is canceled.
	Run(ctx context.Context) error

	// RunOnce performs one synchronous fetch and render, for test mode.
	RunOnce(ctx context.Context) error
}

// Options carries everything a factory needs to assemble a Runner.
type Options struct {
	// Label distinguishes multiple instances of the same module.
	Label string

	// Targets overrides the module's configured target list.
	Targets []string

	// Interval overrides the configured refresh cadence when positive.
	Interval time.Duration

	FetchTimeout time.Duration
	Emitter      *status.Emitter
	Logger       *slog.Logger

	// InitialFormat restores a persisted display index.
	InitialFormat int

	// OnFormatChange observes display index changes (statefile hook).
	OnFormatChange func(int)

	Config *config.Config
}

// ResolveInterval picks the effective refresh cadence: the flag
// override, then the module's config section, then the general default.
func (o Options) ResolveInterval(section config.Duration) time.Duration {
	if o.Interval > 0 {
		return o.Interval
	}
	if section.Duration > 0 {
		return section.Duration
	}
	return o.Config.General.Interval.Duration
}

// ResolveFetchTimeout picks the effective provider timeout.
func (o Options) ResolveFetchTimeout() time.Duration {
	if o.FetchTimeout > 0 {
		return o.FetchTimeout
	}
	return o.Config.General.FetchTimeout.Duration
}

// Factory builds a Runner from resolved options.
type Factory func(opts Options) (Runner, error)

// Registry manages the set of named module factories. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry ready for registration.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name. Registering the same name twice is
// an error.
func (r *Registry) Register(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("module %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// New assembles the named module.
func (r *Registry) New(name string, opts Options) (Runner, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown module %q (available: %v)", name, r.Names())
	}
	return f(opts)
}

// Names returns the sorted list of registered module names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
