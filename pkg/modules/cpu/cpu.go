// Package cpu implements the processor utilization module. It samples
// per-core usage, load averages, and host uptime via gopsutil; the
// toggle signal cycles between a usage summary, per-core detail, and
// load/uptime views.
package cpu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/format"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/glyphs"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/reactor"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

// sampleWindow is how long one utilization sample observes the CPUs.
const sampleWindow = time.Second

// Display modes: summary, per-core, load/uptime.
const modeCount = 3

// Metrics is one CPU snapshot.
type Metrics struct {
	Total     float64
	PerCore   []float64
	Load1     float64
	Load5     float64
	Load15    float64
	Model     string
	Cores     int
	UptimeSec uint64
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
	perCore, err := cpu.PercentWithContext(ctx, sampleWindow, true)
	if err != nil {
		return status.Failure[Metrics](target, fmt.Sprintf("cpu sample failed: %v", err))
	}
	if len(perCore) == 0 {
		return status.Failure[Metrics](target, "no cpu data")
	}

	var total float64
	for _, pct := range perCore {
		total += pct
	}
	total /= float64(len(perCore))

	m := Metrics{
		Total:   total,
		PerCore: perCore,
		Cores:   len(perCore),
	}

	// Load, uptime, and model are garnish; their failure does not fail
	// the sample.
	if avg, err := load.AvgWithContext(ctx); err == nil {
		m.Load1, m.Load5, m.Load15 = avg.Load1, avg.Load5, avg.Load15
	}
	if info, err := host.InfoWithContext(ctx); err == nil {
		m.UptimeSec = info.Uptime
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		m.Model = infos[0].ModelName
	}
	return status.Success(target, m)
}

type renderer struct{}

func (renderer) Render(res status.Result[Metrics], mode int) status.Record {
	if !res.OK() {
		return status.Record{
			Text:    glyphs.CPU64Bit + glyphs.IconSpacer + res.Err,
			Class:   status.ClassError,
			Tooltip: "CPU error",
		}
	}

	m := res.Payload
	var text string
	switch mode {
	case 1:
		cores := make([]string, 0, len(m.PerCore))
		for _, pct := range m.PerCore {
			cores = append(cores, fmt.Sprintf("%.0f", pct))
		}
		text = fmt.Sprintf("%s%s[%s]", glyphs.CPU64Bit, glyphs.IconSpacer, strings.Join(cores, " "))
	case 2:
		text = fmt.Sprintf("%s%sload %s %s %s, up %s",
			glyphs.CPU64Bit, glyphs.IconSpacer,
			format.PadFloat(m.Load1), format.PadFloat(m.Load5), format.PadFloat(m.Load15),
			format.Duration(m.UptimeSec))
	default:
		text = fmt.Sprintf("%s%s%s used", glyphs.CPU64Bit, glyphs.IconSpacer, format.Percent(m.Total))
	}

	return status.Record{
		Text:    text,
		Class:   classFor(m.Total),
		Tooltip: tooltip(res),
	}
}

func classFor(totalPct float64) status.Class {
	switch {
	case totalPct >= 90:
		return status.ClassCritical
	case totalPct >= 75:
		return status.ClassWarning
	default:
		return status.ClassSuccess
	}
}

func tooltip(res status.Result[Metrics]) string {
	m := res.Payload
	pairs := [][2]string{}
	if m.Model != "" {
		pairs = append(pairs, [2]string{"Model", m.Model})
	}
	pairs = append(pairs,
		[2]string{"Logical cores", fmt.Sprintf("%d", m.Cores)},
		[2]string{"Load", fmt.Sprintf("%s %s %s", format.PadFloat(m.Load1), format.PadFloat(m.Load5), format.PadFloat(m.Load15))},
		[2]string{"Uptime", format.Duration(m.UptimeSec)},
	)
	return format.AlignKeys(pairs) + "\n\nLast updated " + res.UpdatedAt.Format("15:04:05")
}

// Factory assembles the cpu module.
func Factory(opts modules.Options) (modules.Runner, error) {
	return reactor.New(reactor.Config[Metrics]{
		Targets:        []string{"cpu"},
		Provider:       provider{},
		Renderer:       renderer{},
		Emitter:        opts.Emitter,
		Interval:       opts.ResolveInterval(opts.Config.Modules.CPU.Interval),
		FetchTimeout:   opts.ResolveFetchTimeout(),
		Formats:        modeCount,
		InitialFormat:  opts.InitialFormat,
		OnFormatChange: opts.OnFormatChange,
		Logger:         opts.Logger,
		Loading: func(string) status.Record {
			return status.Record{
				Text:    glyphs.TimerOutline + glyphs.IconSpacer + "Sampling CPU...",
				Class:   status.ClassLoading,
				Tooltip: "Sampling CPU...",
			}
		},
	})
}
