// Package network implements the interface throughput module. Rates
// come from the delta between successive gopsutil IO counter reads;
// with several interfaces configured the toggle signal cycles between
// them.
package network

import (
	"context"
	"fmt"
	"sync"
	"time"

	gnet "github.com/shirou/gopsutil/v4/net"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/format"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/glyphs"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/netcheck"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/reactor"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

// Metrics is one interface snapshot.
type Metrics struct {
	Interface string
	Connected bool
	RxRate    float64
	TxRate    float64
	RxTotal   uint64
	TxTotal   uint64
	Addrs     []string
}

type sample struct {
	rx, tx uint64
	at     time.Time
}

// provider keeps the previous counter read per interface so it can
// report rates rather than raw totals. The first read for an interface
// reports zero rates.
type provider struct {
	mu   sync.Mutex
	prev map[string]sample
}

func newProvider() *provider {
	return &provider{prev: make(map[string]sample)}
}

func (p *provider) Fetch(ctx context.Context, targets []string) []status.Result[Metrics] {
	counters, err := gnet.IOCountersWithContext(ctx, true)
	if err != nil {
		out := make([]status.Result[Metrics], 0, len(targets))
		for _, iface := range targets {
			out = append(out, status.Failure[Metrics](iface, fmt.Sprintf("counter read failed: %v", err)))
		}
		return out
	}

	byName := make(map[string]gnet.IOCountersStat, len(counters))
	for _, c := range counters {
		byName[c.Name] = c
	}

	now := time.Now()
	out := make([]status.Result[Metrics], 0, len(targets))
	for _, iface := range targets {
		out = append(out, p.fetchOne(ctx, iface, byName, now))
	}
	return out
}

func (p *provider) fetchOne(ctx context.Context, iface string, byName map[string]gnet.IOCountersStat, now time.Time) status.Result[Metrics] {
	c, ok := byName[iface]
	if !ok {
		if !netcheck.InterfaceExists(iface) {
			return status.Failure[Metrics](iface, fmt.Sprintf("no such interface %s", iface))
		}
		return status.Failure[Metrics](iface, fmt.Sprintf("no counters for %s", iface))
	}

	m := Metrics{
		Interface: iface,
		Connected: netcheck.InterfaceConnected(iface),
		RxTotal:   c.BytesRecv,
		TxTotal:   c.BytesSent,
	}

	p.mu.Lock()
	if last, ok := p.prev[iface]; ok {
		elapsed := now.Sub(last.at).Seconds()
		if elapsed > 0 && c.BytesRecv >= last.rx && c.BytesSent >= last.tx {
			m.RxRate = float64(c.BytesRecv-last.rx) / elapsed
			m.TxRate = float64(c.BytesSent-last.tx) / elapsed
		}
	}
	p.prev[iface] = sample{rx: c.BytesRecv, tx: c.BytesSent, at: now}
	p.mu.Unlock()

	if addrs, err := gnet.InterfacesWithContext(ctx); err == nil {
		for _, a := range addrs {
			if a.Name != iface {
				continue
			}
			for _, ip := range a.Addrs {
				m.Addrs = append(m.Addrs, ip.Addr)
			}
		}
	}
	return status.Success(iface, m)
}

type renderer struct{}

func (renderer) Render(res status.Result[Metrics], mode int) status.Record {
	if !res.OK() {
		return status.Record{
			Text:    glyphs.NetworkOff + glyphs.IconSpacer + res.Err,
			Class:   status.ClassError,
			Tooltip: "Network error",
		}
	}

	m := res.Payload
	if !m.Connected {
		return status.Record{
			Text:    fmt.Sprintf("%s%s%s down", glyphs.NetworkOff, glyphs.IconSpacer, m.Interface),
			Class:   status.ClassCritical,
			Tooltip: tooltip(res),
		}
	}
	text := fmt.Sprintf("%s%s%s %s%s %s%s", glyphs.Network, glyphs.IconSpacer, m.Interface,
		glyphs.ArrowSmallDown, format.Rate(m.RxRate),
		glyphs.ArrowSmallUp, format.Rate(m.TxRate))
	return status.Record{
		Text:    text,
		Class:   status.ClassSuccess,
		Tooltip: tooltip(res),
	}
}

func tooltip(res status.Result[Metrics]) string {
	m := res.Payload
	state := "down"
	if m.Connected {
		state = "up"
	}
	pairs := [][2]string{
		{"Interface", m.Interface},
		{"State", state},
		{"Received", format.Bytes(m.RxTotal)},
		{"Sent", format.Bytes(m.TxTotal)},
	}
	for _, addr := range m.Addrs {
		pairs = append(pairs, [2]string{"Address", addr})
	}
	return format.AlignKeys(pairs) + "\n\nLast updated " + res.UpdatedAt.Format("15:04:05")
}

// Factory assembles the network module. Targets default to the
// configured interfaces.
func Factory(opts modules.Options) (modules.Runner, error) {
	ifaces := opts.Targets
	if len(ifaces) == 0 {
		ifaces = opts.Config.Modules.Network.Interfaces
	}
	if len(ifaces) == 0 {
		return nil, fmt.Errorf("network: no interfaces configured")
	}

	return reactor.New(reactor.Config[Metrics]{
		Targets:        ifaces,
		Provider:       newProvider(),
		Renderer:       renderer{},
		Emitter:        opts.Emitter,
		Interval:       opts.ResolveInterval(opts.Config.Modules.Network.Interval),
		FetchTimeout:   opts.ResolveFetchTimeout(),
		CycleTargets:   true,
		InitialFormat:  opts.InitialFormat,
		OnFormatChange: opts.OnFormatChange,
		Logger:         opts.Logger,
		Loading: func(iface string) status.Record {
			text := glyphs.TimerOutline + glyphs.IconSpacer + "Watching " + iface + "..."
			return status.Record{Text: text, Class: status.ClassLoading, Tooltip: text}
		},
	})
}
