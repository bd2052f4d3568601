package reactor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

// mockProvider is a configurable Provider test double. It tracks call
// counts and in-flight concurrency so tests can assert that fetches are
// never re-entrant.
type mockProvider struct {
	// fetchFn overrides the default per-target success results.
	fetchFn func(ctx context.Context, targets []string) []status.Result[string]

	// delay makes each Fetch block, simulating slow I/O.
	delay time.Duration

	calls       atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (m *mockProvider) Fetch(ctx context.Context, targets []string) []status.Result[string] {
	m.calls.Add(1)
	cur := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		prev := m.maxInFlight.Load()
		if cur <= prev || m.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			out := make([]status.Result[string], 0, len(targets))
			for _, tgt := range targets {
				out = append(out, status.Failure[string](tgt, "fetch timed out"))
			}
			return out
		}
	}

	if m.fetchFn != nil {
		return m.fetchFn(ctx, targets)
	}
	out := make([]status.Result[string], 0, len(targets))
	for _, tgt := range targets {
		out = append(out, status.Success(tgt, "payload-"+tgt))
	}
	return out
}

// stubRenderer renders deterministically from the result alone.
type stubRenderer struct{}

func (stubRenderer) Render(res status.Result[string], mode int) status.Record {
	if !res.OK() {
		return status.Record{
			Text:    "! " + res.Err,
			Class:   status.ClassError,
			Tooltip: res.Target + " error",
		}
	}
	return status.Record{
		Text:    fmt.Sprintf("%s=%s mode=%d", res.Target, res.Payload, mode),
		Class:   status.ClassSuccess,
		Tooltip: res.Target,
	}
}

// syncBuffer is a goroutine-safe writer capturing emitted lines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := strings.TrimRight(b.buf.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func (b *syncBuffer) linesWith(substr string) []string {
	var out []string
	for _, line := range b.lines() {
		if strings.Contains(line, substr) {
			out = append(out, line)
		}
	}
	return out
}

// fakeSignalSource captures the registered channel so tests can inject
// signals without raising them process-wide.
type fakeSignalSource struct {
	mu sync.Mutex
	ch chan<- os.Signal
}

func (f *fakeSignalSource) Notify(c chan<- os.Signal, sig ...os.Signal) {
	f.mu.Lock()
	f.ch = c
	f.mu.Unlock()
}

func (f *fakeSignalSource) Stop(c chan<- os.Signal) {}

func (f *fakeSignalSource) send(sig os.Signal) {
	f.mu.Lock()
	ch := f.ch
	f.mu.Unlock()
	ch <- sig
}
