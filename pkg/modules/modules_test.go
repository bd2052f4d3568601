package modules

import (
	"context"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/config"
)

type nopRunner struct{}

func (nopRunner) Run(ctx context.Context) error     { return nil }
func (nopRunner) RunOnce(ctx context.Context) error { return nil }

func nopFactory(opts Options) (Runner, error) {
	return nopRunner{}, nil
}

func TestRegisterAndNew(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("cpu", nopFactory); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	runner, err := r.New("cpu", Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if runner == nil {
		t.Fatal("New returned nil runner")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("cpu", nopFactory); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := r.Register("cpu", nopFactory); err == nil {
		t.Fatal("duplicate Register should fail")
	}
}

func TestNewUnknownModule(t *testing.T) {
	r := NewRegistry()
	if _, err := r.New("ghost", Options{}); err == nil {
		t.Fatal("unknown module should fail")
	}
}

func TestNamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"weather", "cpu", "memory"} {
		if err := r.Register(name, nopFactory); err != nil {
			t.Fatal(err)
		}
	}
	names := r.Names()
	want := []string{"cpu", "memory", "weather"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names = %v, want %v", names, want)
		}
	}
}

func TestResolveInterval(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := Options{Config: cfg}

	if got := opts.ResolveInterval(config.Duration{}); got != cfg.General.Interval.Duration {
		t.Errorf("general fallback = %v, want %v", got, cfg.General.Interval.Duration)
	}

	section := config.Duration{Duration: 5 * time.Second}
	if got := opts.ResolveInterval(section); got != 5*time.Second {
		t.Errorf("section value = %v, want 5s", got)
	}

	opts.Interval = time.Second
	if got := opts.ResolveInterval(section); got != time.Second {
		t.Errorf("flag override = %v, want 1s", got)
	}
}

func TestResolveFetchTimeout(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := Options{Config: cfg}

	if got := opts.ResolveFetchTimeout(); got != cfg.General.FetchTimeout.Duration {
		t.Errorf("general fallback = %v", got)
	}

	opts.FetchTimeout = 2 * time.Second
	if got := opts.ResolveFetchTimeout(); got != 2*time.Second {
		t.Errorf("override = %v, want 2s", got)
	}
}
