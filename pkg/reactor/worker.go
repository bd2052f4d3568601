package reactor

import (
	"context"
	"fmt"
	"log/slog"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

// worker is the single consumer of the State: the only caller of the
// provider, renderer, and emitter, and the only writer of the cache.
type worker[T any] struct {
	cfg   *Config[T]
	state *State[T]
	log   *slog.Logger
}

// run is the worker loop: wait for a trigger, fetch if asked, then render
// the cached results if asked. It returns nil once the state is closed.
// Provider failures are data and keep the loop running; only an
// unexpected internal failure escapes as an error.
func (w *worker[T]) run(ctx context.Context) error {
	for {
		fetch, redraw, ok := w.state.WaitAndDrain()
		if !ok {
			w.log.Debug("worker released, shutting down")
			return nil
		}
		w.log.Debug("worker woke", "fetch", fetch, "redraw", redraw)

		if fetch {
			if !w.fetch(ctx) {
				// Nothing cached and nothing fetched; wait for the
				// next trigger rather than rendering an empty cache.
				continue
			}
		}

		if redraw {
			if err := w.render(); err != nil {
				return fmt.Errorf("reactor: render: %w", err)
			}
		}
	}
}

// fetch runs the pre-check and provider, then replaces the cache in one
// step. It reports whether the cache holds any results afterwards.
func (w *worker[T]) fetch(ctx context.Context) bool {
	if w.cfg.Precheck != nil {
		if err := w.cfg.Precheck(ctx); err != nil {
			w.log.Warn("pre-check failed, skipping fetch", "error", err)
			failed := make([]status.Result[T], 0, len(w.cfg.Targets))
			for _, target := range w.cfg.Targets {
				failed = append(failed, status.Failure[T](target, UnreachableMessage))
			}
			w.state.SetResults(failed)
			return true
		}
	}

	w.emitLoading()

	fctx, cancel := context.WithTimeout(ctx, w.cfg.FetchTimeout)
	results := w.cfg.Provider.Fetch(fctx, w.cfg.Targets)
	cancel()

	if len(results) == 0 {
		w.log.Warn("provider returned no results")
		return false
	}
	w.state.SetResults(results)
	return true
}

// emitLoading keeps the bar non-blank while a possibly slow fetch runs:
// targets with a stale result re-render it under the loading class,
// targets with none get a generic fetching record.
func (w *worker[T]) emitLoading() {
	prior := w.state.Results()
	byTarget := make(map[string]status.Result[T], len(prior))
	for _, res := range prior {
		byTarget[res.Target] = res
	}

	mode := w.renderMode()
	for _, target := range w.cfg.Targets {
		var rec status.Record
		if stale, ok := byTarget[target]; ok && stale.OK() {
			rec = w.cfg.Renderer.Render(stale, mode)
			rec.Class = status.ClassLoading
		} else {
			rec = w.loadingRecord(target)
		}
		if err := w.cfg.Emitter.Emit(rec); err != nil {
			w.log.Error("emit loading record failed", "target", target, "error", err)
		}
	}
}

// render emits the record for the current display index. An empty cache
// (a redraw before the first completed fetch) renders a pending record
// rather than failing.
func (w *worker[T]) render() error {
	results := w.state.Results()
	if len(results) == 0 {
		return w.cfg.Emitter.Emit(w.pendingRecord())
	}

	idx := w.state.FormatIndex()
	var rec status.Record
	if w.cfg.CycleTargets {
		rec = w.cfg.Renderer.Render(results[idx%len(results)], 0)
	} else {
		rec = w.cfg.Renderer.Render(results[0], idx)
	}
	return w.cfg.Emitter.Emit(rec)
}

// renderMode returns the display mode stale results are re-rendered at.
func (w *worker[T]) renderMode() int {
	if w.cfg.CycleTargets {
		return 0
	}
	return w.state.FormatIndex()
}

func (w *worker[T]) loadingRecord(target string) status.Record {
	if w.cfg.Loading != nil {
		return w.cfg.Loading(target)
	}
	return status.Record{
		Text:    fmt.Sprintf("Fetching %s...", target),
		Class:   status.ClassLoading,
		Tooltip: fmt.Sprintf("Fetching %s...", target),
	}
}

func (w *worker[T]) pendingRecord() status.Record {
	if w.cfg.Pending != nil {
		return w.cfg.Pending()
	}
	return status.Record{Text: "waiting for data", Class: status.ClassLoading}
}
