// Package updates implements the pending package update module. The
// count comes from the system package manager's own check command,
// executed under the fetch timeout.
package updates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/glyphs"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/reactor"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

// runner executes a package manager's check command. The indirection
// exists so tests can substitute canned output for a real subprocess.
type runner func(ctx context.Context, name string, args ...string) (string, error)

func execRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	return string(out), err
}

// manager describes one supported package manager: the binary to probe
// for, the check command, and how to count pending updates in its
// output.
type manager struct {
	name  string
	args  []string
	count func(output string) []string
}

// nonEmptyLines is the counting strategy shared by list-style check
// commands: one pending update per line.
func nonEmptyLines(output string) []string {
	var pkgs []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			pkgs = append(pkgs, line)
		}
	}
	return pkgs
}

var managers = []manager{
	{
		name: "apt",
		args: []string{"list", "--upgradable"},
		count: func(output string) []string {
			var pkgs []string
			for _, line := range nonEmptyLines(output) {
				if strings.Contains(line, "/") && strings.Contains(line, "upgradable") {
					pkgs = append(pkgs, strings.SplitN(line, "/", 2)[0])
				}
			}
			return pkgs
		},
	},
	{
		name: "dnf",
		args: []string{"check-update", "--quiet"},
		count: func(output string) []string {
			var pkgs []string
			for _, line := range nonEmptyLines(output) {
				fields := strings.Fields(line)
				if len(fields) >= 3 {
					pkgs = append(pkgs, fields[0])
				}
			}
			return pkgs
		},
	},
	{
		name: "pacman",
		args: []string{"-Qu"},
		count: func(output string) []string {
			var pkgs []string
			for _, line := range nonEmptyLines(output) {
				pkgs = append(pkgs, strings.Fields(line)[0])
			}
			return pkgs
		},
	},
	{
		name: "brew",
		args: []string{"outdated", "--quiet"},
		count: func(output string) []string {
			return nonEmptyLines(output)
		},
	},
}

// detect picks the first supported manager present on PATH.
func detect() (manager, error) {
	for _, m := range managers {
		if _, err := exec.LookPath(m.name); err == nil {
			return m, nil
		}
	}
	return manager{}, fmt.Errorf("updates: no supported package manager found")
}

// byName selects a configured manager instead of probing PATH.
func byName(name string) (manager, error) {
	for _, m := range managers {
		if m.name == name {
			return m, nil
		}
	}
	return manager{}, fmt.Errorf("updates: unsupported package manager %q", name)
}

// Pending is one check's outcome.
type Pending struct {
	Manager  string
	Packages []string
}

type provider struct {
	mgr manager
	run runner
	log *slog.Logger
}

func (p *provider) Fetch(ctx context.Context, targets []string) []status.Result[Pending] {
	out := make([]status.Result[Pending], 0, len(targets))
	for _, tgt := range targets {
		out = append(out, p.fetchOne(ctx, tgt))
	}
	return out
}

func (p *provider) fetchOne(ctx context.Context, target string) status.Result[Pending] {
	output, err := p.run(ctx, p.mgr.name, p.mgr.args...)
	if err != nil {
		// dnf check-update exits 100 when updates exist.
		var exitErr *exec.ExitError
		if p.mgr.name == "dnf" && errors.As(err, &exitErr) && exitErr.ExitCode() == 100 {
			err = nil
		}
	}
	if err != nil {
		p.log.Warn("update check failed", "manager", p.mgr.name, "error", err)
		return status.Failure[Pending](target, fmt.Sprintf("%s check failed: %v", p.mgr.name, err))
	}
	return status.Success(target, Pending{
		Manager:  p.mgr.name,
		Packages: p.mgr.count(output),
	})
}

type renderer struct{}

func (renderer) Render(res status.Result[Pending], mode int) status.Record {
	if !res.OK() {
		return status.Record{
			Text:    glyphs.PackageVariant + glyphs.IconSpacer + res.Err,
			Class:   status.ClassError,
			Tooltip: "Update check error",
		}
	}

	p := res.Payload
	n := len(p.Packages)
	text := fmt.Sprintf("%s%s%d updates", glyphs.PackageVariant, glyphs.IconSpacer, n)
	if n == 1 {
		text = glyphs.PackageVariant + glyphs.IconSpacer + "1 update"
	}

	class := status.ClassSuccess
	switch {
	case n >= 50:
		class = status.ClassCritical
	case n >= 10:
		class = status.ClassWarning
	}

	return status.Record{
		Text:    text,
		Class:   class,
		Tooltip: tooltip(res),
	}
}

func tooltip(res status.Result[Pending]) string {
	p := res.Payload
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d pending", p.Manager, len(p.Packages))
	for _, pkg := range p.Packages {
		b.WriteString("\n")
		b.WriteString(pkg)
	}
	b.WriteString("\n\nLast updated ")
	b.WriteString(res.UpdatedAt.Format("15:04:05"))
	return b.String()
}

// Factory assembles the updates module. The manager is taken from the
// config when set, otherwise detected from PATH.
func Factory(opts modules.Options) (modules.Runner, error) {
	mc := opts.Config.Modules.Updates

	var (
		mgr manager
		err error
	)
	if mc.Manager != "" {
		mgr, err = byName(mc.Manager)
	} else {
		mgr, err = detect()
	}
	if err != nil {
		return nil, err
	}

	return reactor.New(reactor.Config[Pending]{
		Targets:        []string{"updates"},
		Provider:       &provider{mgr: mgr, run: execRunner, log: opts.Logger},
		Renderer:       renderer{},
		Emitter:        opts.Emitter,
		Interval:       opts.ResolveInterval(mc.Interval),
		FetchTimeout:   opts.ResolveFetchTimeout(),
		InitialFormat:  opts.InitialFormat,
		OnFormatChange: opts.OnFormatChange,
		Logger:         opts.Logger,
		Loading: func(string) status.Record {
			text := glyphs.TimerOutline + glyphs.IconSpacer + "Checking for updates..."
			return status.Record{Text: text, Class: status.ClassLoading, Tooltip: text}
		},
	})
}
