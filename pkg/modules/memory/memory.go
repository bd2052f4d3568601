// Package memory implements the RAM and swap module. The toggle signal
// cycles between used/total, a percentage view, and swap.
package memory

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/format"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/glyphs"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/reactor"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

const modeCount = 3

// Metrics is one memory snapshot.
type Metrics struct {
	Total       uint64
	Used        uint64
	Available   uint64
	UsedPercent float64
	SwapTotal   uint64
	SwapUsed    uint64
	SwapPercent float64
}

type provider struct{}

func (provider) Fetch(ctx context.Context, targets []string) []status.Result[Metrics] {
	out := make([]status.Result[Metrics], 0, len(targets))
	for _, tgt := range targets {
		out = append(out, fetchOne(ctx, tgt))
	}
	return out
}

func fetchOne(ctx context.Context, target string) status.Result[Metrics] {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return status.Failure[Metrics](target, fmt.Sprintf("memory read failed: %v", err))
	}
	m := Metrics{
		Total:       vm.Total,
		Used:        vm.Used,
		Available:   vm.Available,
		UsedPercent: vm.UsedPercent,
	}
	if sw, err := mem.SwapMemoryWithContext(ctx); err == nil {
		m.SwapTotal, m.SwapUsed, m.SwapPercent = sw.Total, sw.Used, sw.UsedPercent
	}
	return status.Success(target, m)
}

type renderer struct{}

func (renderer) Render(res status.Result[Metrics], mode int) status.Record {
	if !res.OK() {
		return status.Record{
			Text:    glyphs.Memory + glyphs.IconSpacer + res.Err,
			Class:   status.ClassError,
			Tooltip: "Memory error",
		}
	}

	m := res.Payload
	var text string
	switch mode {
	case 1:
		text = fmt.Sprintf("%s%s%s used", glyphs.Memory, glyphs.IconSpacer, format.Percent(m.UsedPercent))
	case 2:
		if m.SwapTotal == 0 {
			text = glyphs.Memory + glyphs.IconSpacer + "no swap"
		} else {
			text = fmt.Sprintf("%s%sswap %s / %s", glyphs.Memory, glyphs.IconSpacer,
				format.Bytes(m.SwapUsed), format.Bytes(m.SwapTotal))
		}
	default:
		text = fmt.Sprintf("%s%s%s / %s", glyphs.Memory, glyphs.IconSpacer,
			format.Bytes(m.Used), format.Bytes(m.Total))
	}

	return status.Record{
		Text:    text,
		Class:   classFor(m.UsedPercent),
		Tooltip: tooltip(res),
	}
}

func classFor(usedPct float64) status.Class {
	switch {
	case usedPct >= 90:
		return status.ClassCritical
	case usedPct >= 75:
		return status.ClassWarning
	default:
		return status.ClassSuccess
	}
}

func tooltip(res status.Result[Metrics]) string {
	m := res.Payload
	pairs := [][2]string{
		{"Total", format.Bytes(m.Total)},
		{"Used", fmt.Sprintf("%s (%s)", format.Bytes(m.Used), format.Percent(m.UsedPercent))},
		{"Available", format.Bytes(m.Available)},
	}
	if m.SwapTotal > 0 {
		pairs = append(pairs,
			[2]string{"Swap", fmt.Sprintf("%s / %s", format.Bytes(m.SwapUsed), format.Bytes(m.SwapTotal))})
	}
	return format.AlignKeys(pairs) + "\n\nLast updated " + res.UpdatedAt.Format("15:04:05")
}

// Factory assembles the memory module.
func Factory(opts modules.Options) (modules.Runner, error) {
	return reactor.New(reactor.Config[Metrics]{
		Targets:        []string{"memory"},
		Provider:       provider{},
		Renderer:       renderer{},
		Emitter:        opts.Emitter,
		Interval:       opts.ResolveInterval(opts.Config.Modules.Memory.Interval),
		FetchTimeout:   opts.ResolveFetchTimeout(),
		Formats:        modeCount,
		InitialFormat:  opts.InitialFormat,
		OnFormatChange: opts.OnFormatChange,
		Logger:         opts.Logger,
		Loading: func(string) status.Record {
			return status.Record{
				Text:    glyphs.TimerOutline + glyphs.IconSpacer + "Reading memory...",
				Class:   status.ClassLoading,
				Tooltip: "Reading memory...",
			}
		},
	})
}
