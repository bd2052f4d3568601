package memory

import (
	"strings"
	"testing"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

const gib = uint64(1) << 30

func metricsResult() status.Result[Metrics] {
	return status.Success("memory", Metrics{
		Total:       16 * gib,
		Used:        8 * gib,
		Available:   8 * gib,
		UsedPercent: 50,
		SwapTotal:   4 * gib,
		SwapUsed:    1 * gib,
		SwapPercent: 25,
	})
}

func TestRenderUsedTotalMode(t *testing.T) {
	rec := renderer{}.Render(metricsResult(), 0)
	if !strings.Contains(rec.Text, "8.0 GiB / 16 GiB") {
		t.Errorf("text = %q, want used/total", rec.Text)
	}
	if rec.Class != status.ClassSuccess {
		t.Errorf("class = %q, want success", rec.Class)
	}
}

func TestRenderPercentMode(t *testing.T) {
	rec := renderer{}.Render(metricsResult(), 1)
	if !strings.Contains(rec.Text, "50% used") {
		t.Errorf("text = %q, want percentage", rec.Text)
	}
}

func TestRenderSwapMode(t *testing.T) {
	rec := renderer{}.Render(metricsResult(), 2)
	if !strings.Contains(rec.Text, "swap 1.0 GiB / 4.0 GiB") {
		t.Errorf("text = %q, want swap figures", rec.Text)
	}

	res := metricsResult()
	res.Payload.SwapTotal = 0
	if rec := (renderer{}).Render(res, 2); !strings.Contains(rec.Text, "no swap") {
		t.Errorf("text = %q, want no-swap marker", rec.Text)
	}
}

func TestRenderClassThresholds(t *testing.T) {
	res := metricsResult()
	res.Payload.UsedPercent = 80
	if got := (renderer{}).Render(res, 0).Class; got != status.ClassWarning {
		t.Errorf("class at 80%% = %q, want warning", got)
	}
	res.Payload.UsedPercent = 95
	if got := (renderer{}).Render(res, 0).Class; got != status.ClassCritical {
		t.Errorf("class at 95%% = %q, want critical", got)
	}
}

func TestRenderError(t *testing.T) {
	rec := renderer{}.Render(status.Failure[Metrics]("memory", "memory read failed: boom"), 0)
	if rec.Class != status.ClassError {
		t.Errorf("class = %q, want error", rec.Class)
	}
}

func TestRenderIsPure(t *testing.T) {
	res := metricsResult()
	first := renderer{}.Render(res, 2)
	for i := 0; i < 5; i++ {
		if got := (renderer{}).Render(res, 2); got != first {
			t.Fatalf("render %d differs", i)
		}
	}
}
