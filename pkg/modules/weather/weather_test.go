package weather

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/glyphs"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/httpx"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

const forecastBody = `{
  "location": {"name": "Portland", "region": "Oregon", "country": "USA"},
  "current": {
    "temp_c": 18.5, "temp_f": 65.3,
    "feelslike_c": 17.0, "feelslike_f": 62.6,
    "is_day": 1, "humidity": 60, "cloud": 25,
    "wind_kph": 12.0, "wind_mph": 7.5, "wind_degree": 270,
    "uv": 4,
    "condition": {"text": "Partly cloudy", "code": 1003}
  },
  "forecast": {"forecastday": [{
    "day": {"maxtemp_c": 22, "maxtemp_f": 71.6, "mintemp_c": 11, "mintemp_f": 51.8},
    "astro": {"sunrise": "06:12 AM", "sunset": "08:34 PM", "moon_phase": "Waxing Gibbous"}
  }]}
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProviderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Portland, OR" {
			t.Errorf("q = %q, want location", got)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %q", got)
		}
		io.WriteString(w, forecastBody)
	}))
	defer srv.Close()

	p := &provider{client: httpx.NewClient(0), apiKey: "test-key", baseURL: srv.URL, log: discardLogger()}
	results := p.Fetch(context.Background(), []string{"Portland, OR"})
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	res := results[0]
	if !res.OK() {
		t.Fatalf("fetch failed: %s", res.Err)
	}
	if res.Payload.LocationShort != "Portland" {
		t.Errorf("location short = %q", res.Payload.LocationShort)
	}
	if res.Payload.ConditionCode != 1003 || !res.Payload.IsDay {
		t.Errorf("condition = %d day=%v", res.Payload.ConditionCode, res.Payload.IsDay)
	}
	if res.Payload.HighF != 71.6 || res.Payload.LowF != 51.8 {
		t.Errorf("high/low = %.1f/%.1f", res.Payload.HighF, res.Payload.LowF)
	}
}

func TestProviderFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such location", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := &provider{client: httpx.NewClient(0), apiKey: "test-key", baseURL: srv.URL, log: discardLogger()}
	res := p.Fetch(context.Background(), []string{"Nowhere"})[0]
	if res.OK() {
		t.Fatal("expected a failure result")
	}
	if res.Target != "Nowhere" {
		t.Errorf("target = %q", res.Target)
	}
}

func report() status.Result[Report] {
	return status.Success("Portland, OR", Report{
		Location:      "Portland, OR",
		LocationShort: "Portland",
		Condition:     "Partly cloudy",
		ConditionCode: 1003,
		IsDay:         true,
		TempC:         18.5,
		TempF:         65.3,
		HighF:         71.6,
		LowF:          51.8,
		Sunrise:       "06:12 AM",
		Sunset:        "08:34 PM",
	})
}

func TestRenderFahrenheit(t *testing.T) {
	rec := renderer{useCelsius: false}.Render(report(), 0)
	if !strings.Contains(rec.Text, "Portland 65.30°F") {
		t.Errorf("text = %q", rec.Text)
	}
	if rec.Class != status.ClassSuccess {
		t.Errorf("class = %q, want success", rec.Class)
	}
	if !strings.Contains(rec.Tooltip, "Sunrise") {
		t.Errorf("tooltip = %q, want astro lines", rec.Tooltip)
	}
}

func TestRenderCelsius(t *testing.T) {
	rec := renderer{useCelsius: true}.Render(report(), 0)
	if !strings.Contains(rec.Text, "Portland 18.50°C") {
		t.Errorf("text = %q", rec.Text)
	}
}

func TestRenderError(t *testing.T) {
	rec := renderer{}.Render(status.Failure[Report]("Portland, OR", "fetch failed: boom"), 0)
	if rec.Class != status.ClassError {
		t.Errorf("class = %q, want error", rec.Class)
	}
	if !strings.Contains(rec.Text, "Portland, OR") {
		t.Errorf("text = %q, want location", rec.Text)
	}
}

func TestIconDayNightVariants(t *testing.T) {
	if icon(1000, true) != glyphs.WeatherSunny {
		t.Error("clear day should use the sunny glyph")
	}
	if icon(1000, false) != glyphs.WeatherNight {
		t.Error("clear night should use the night glyph")
	}
	if icon(1003, false) != glyphs.WeatherNightPartlyCloudy {
		t.Error("partly cloudy night should use the night variant")
	}
	if icon(9999, true) != glyphs.WeatherHazy {
		t.Error("unknown codes should fall back to hazy")
	}
}

func TestRenderIsPure(t *testing.T) {
	res := report()
	r := renderer{useCelsius: true}
	first := r.Render(res, 0)
	for i := 0; i < 5; i++ {
		if got := r.Render(res, 0); got != first {
			t.Fatalf("render %d differs", i)
		}
	}
}
