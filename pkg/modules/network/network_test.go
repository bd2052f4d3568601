package network

import (
	"context"
	"strings"
	"testing"
	"time"

	gnet "github.com/shirou/gopsutil/v4/net"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

func upResult() status.Result[Metrics] {
	return status.Success("eth0", Metrics{
		Interface: "eth0",
		Connected: true,
		RxRate:    2048,
		TxRate:    512,
		RxTotal:   1 << 30,
		TxTotal:   1 << 28,
		Addrs:     []string{"192.0.2.10/24"},
	})
}

func TestRenderConnected(t *testing.T) {
	rec := renderer{}.Render(upResult(), 0)
	if !strings.Contains(rec.Text, "eth0") {
		t.Errorf("text = %q, want interface name", rec.Text)
	}
	if !strings.Contains(rec.Text, "2 KiB/s") {
		t.Errorf("text = %q, want rx rate", rec.Text)
	}
	if !strings.Contains(rec.Text, "512 B/s") {
		t.Errorf("text = %q, want tx rate", rec.Text)
	}
	if rec.Class != status.ClassSuccess {
		t.Errorf("class = %q, want success", rec.Class)
	}
}

func TestRenderDown(t *testing.T) {
	res := upResult()
	res.Payload.Connected = false
	rec := renderer{}.Render(res, 0)
	if !strings.Contains(rec.Text, "eth0 down") {
		t.Errorf("text = %q, want down marker", rec.Text)
	}
	if rec.Class != status.ClassCritical {
		t.Errorf("class = %q, want critical", rec.Class)
	}
}

func TestRenderError(t *testing.T) {
	rec := renderer{}.Render(status.Failure[Metrics]("wlan0", "no such interface wlan0"), 0)
	if rec.Class != status.ClassError {
		t.Errorf("class = %q, want error", rec.Class)
	}
}

func TestTooltipListsAddresses(t *testing.T) {
	rec := renderer{}.Render(upResult(), 0)
	if !strings.Contains(rec.Tooltip, "192.0.2.10/24") {
		t.Errorf("tooltip = %q, want address", rec.Tooltip)
	}
}

func TestRenderIsPure(t *testing.T) {
	res := upResult()
	res.Payload.Addrs = nil
	first := renderer{}.Render(res, 0)
	for i := 0; i < 5; i++ {
		if got := (renderer{}).Render(res, 0); got != first {
			t.Fatalf("render %d differs", i)
		}
	}
}

func TestProviderRateDelta(t *testing.T) {
	p := newProvider()
	now := time.Now()
	p.prev["eth-test"] = sample{rx: 1000, tx: 500, at: now.Add(-time.Second)}

	byName := map[string]gnet.IOCountersStat{
		"eth-test": {Name: "eth-test", BytesRecv: 3048, BytesSent: 1524},
	}
	res := p.fetchOne(context.Background(), "eth-test", byName, now)
	if !res.OK() {
		t.Fatalf("fetchOne failed: %s", res.Err)
	}
	if got := res.Payload.RxRate; got < 2040 || got > 2056 {
		t.Errorf("rx rate = %.1f, want ~2048", got)
	}
	if got := res.Payload.TxRate; got < 1016 || got > 1032 {
		t.Errorf("tx rate = %.1f, want ~1024", got)
	}
}

func TestProviderFirstSampleHasZeroRate(t *testing.T) {
	p := newProvider()
	byName := map[string]gnet.IOCountersStat{
		"eth-test": {Name: "eth-test", BytesRecv: 3048, BytesSent: 1524},
	}
	res := p.fetchOne(context.Background(), "eth-test", byName, time.Now())
	if !res.OK() {
		t.Fatalf("fetchOne failed: %s", res.Err)
	}
	if res.Payload.RxRate != 0 || res.Payload.TxRate != 0 {
		t.Errorf("first sample rates = %.1f/%.1f, want zero",
			res.Payload.RxRate, res.Payload.TxRate)
	}
}
