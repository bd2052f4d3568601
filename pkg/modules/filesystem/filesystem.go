// Package filesystem implements the disk usage module. With a single
// mountpoint the toggle signal cycles display modes (free, used/total,
// percentage); with several it cycles between mountpoints.
package filesystem

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/format"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/glyphs"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/reactor"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

const modeCount = 3

// Metrics is one mountpoint snapshot.
type Metrics struct {
	Mountpoint  string
	Fstype      string
	Total       uint64
	Used        uint64
	Free        uint64
	UsedPercent float64
}

type provider struct{}

func (provider) Fetch(ctx context.Context, targets []string) []status.Result[Metrics] {
	out := make([]status.Result[Metrics], 0, len(targets))
	for _, mount := range targets {
		out = append(out, fetchOne(ctx, mount))
	}
	return out
}

func fetchOne(ctx context.Context, mount string) status.Result[Metrics] {
	usage, err := disk.UsageWithContext(ctx, mount)
	if err != nil {
		return status.Failure[Metrics](mount, fmt.Sprintf("stat %s failed: %v", mount, err))
	}
	return status.Success(mount, Metrics{
		Mountpoint:  mount,
		Fstype:      usage.Fstype,
		Total:       usage.Total,
		Used:        usage.Used,
		Free:        usage.Free,
		UsedPercent: usage.UsedPercent,
	})
}

type renderer struct{}

func (renderer) Render(res status.Result[Metrics], mode int) status.Record {
	if !res.OK() {
		return status.Record{
			Text:    glyphs.Harddisk + glyphs.IconSpacer + res.Err,
			Class:   status.ClassError,
			Tooltip: "Filesystem error",
		}
	}

	m := res.Payload
	var text string
	switch mode {
	case 1:
		text = fmt.Sprintf("%s%s%s %s / %s", glyphs.Harddisk, glyphs.IconSpacer,
			m.Mountpoint, format.Bytes(m.Used), format.Bytes(m.Total))
	case 2:
		text = fmt.Sprintf("%s%s%s %s used", glyphs.Harddisk, glyphs.IconSpacer,
			m.Mountpoint, format.Percent(m.UsedPercent))
	default:
		text = fmt.Sprintf("%s%s%s %s free", glyphs.Harddisk, glyphs.IconSpacer,
			m.Mountpoint, format.Bytes(m.Free))
	}

	return status.Record{
		Text:    text,
		Class:   classFor(100 - m.UsedPercent),
		Tooltip: tooltip(res),
	}
}

func classFor(freePct float64) status.Class {
	switch {
	case freePct < 20:
		return status.ClassCritical
	case freePct < 50:
		return status.ClassWarning
	default:
		return status.ClassGood
	}
}

func tooltip(res status.Result[Metrics]) string {
	m := res.Payload
	pairs := [][2]string{
		{"Mountpoint", m.Mountpoint},
		{"Filesystem", m.Fstype},
		{"Total", format.Bytes(m.Total)},
		{"Used", fmt.Sprintf("%s (%s)", format.Bytes(m.Used), format.Percent(m.UsedPercent))},
		{"Free", format.Bytes(m.Free)},
	}
	return format.AlignKeys(pairs) + "\n\nLast updated " + res.UpdatedAt.Format("15:04:05")
}

// Factory assembles the filesystem module. Targets default to the
// configured mountpoints, falling back to "/".
func Factory(opts modules.Options) (modules.Runner, error) {
	mounts := opts.Targets
	if len(mounts) == 0 {
		mounts = opts.Config.Modules.Filesystem.Mountpoints
	}
	if len(mounts) == 0 {
		mounts = []string{"/"}
	}

	cfg := reactor.Config[Metrics]{
		Targets:        mounts,
		Provider:       provider{},
		Renderer:       renderer{},
		Emitter:        opts.Emitter,
		Interval:       opts.ResolveInterval(opts.Config.Modules.Filesystem.Interval),
		FetchTimeout:   opts.ResolveFetchTimeout(),
		InitialFormat:  opts.InitialFormat,
		OnFormatChange: opts.OnFormatChange,
		Logger:         opts.Logger,
		Loading: func(mount string) status.Record {
			text := glyphs.TimerOutline + glyphs.IconSpacer + "Checking " + mount + "..."
			return status.Record{Text: text, Class: status.ClassLoading, Tooltip: text}
		},
	}
	if len(mounts) > 1 {
		cfg.CycleTargets = true
	} else {
		cfg.Formats = modeCount
	}
	return reactor.New(cfg)
}
