// Package quakes implements the earthquake module backed by the USGS
// fdsnws event feed. The toggle signal switches between an event count
// and the strongest recent event.
package quakes

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/format"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/glyphs"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/httpx"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/netcheck"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/reactor"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

const queryURL = "https://earthquake.usgs.gov/fdsnws/event/1/query"

// Display modes: count, strongest.
const modeCount = 2

type apiResponse struct {
	Features []struct {
		Properties struct {
			Mag     float64 `json:"mag"`
			Place   string  `json:"place"`
			MagType string  `json:"magType"`
			Time    int64   `json:"time"`
		} `json:"properties"`
	} `json:"features"`
}

// Event is one earthquake.
type Event struct {
	Magnitude float64
	MagType   string
	Place     string
	At        time.Time
}

// Feed is the set of recent events near the configured point.
type Feed struct {
	Events []Event
}

// Strongest returns the highest-magnitude event and whether one exists.
func (f Feed) Strongest() (Event, bool) {
	if len(f.Events) == 0 {
		return Event{}, false
	}
	best := f.Events[0]
	for _, e := range f.Events[1:] {
		if e.Magnitude > best.Magnitude {
			best = e
		}
	}
	return best, true
}

type query struct {
	lat, lon     float64
	radiusKM     float64
	minMagnitude float64
	limit        int
}

type provider struct {
	client  *httpx.Client
	baseURL string
	q       query
	log     *slog.Logger
}

func (p *provider) Fetch(ctx context.Context, targets []string) []status.Result[Feed] {
	out := make([]status.Result[Feed], 0, len(targets))
	for _, tgt := range targets {
		out = append(out, p.fetchOne(ctx, tgt))
	}
	return out
}

func (p *provider) fetchOne(ctx context.Context, target string) status.Result[Feed] {
	params := url.Values{}
	params.Set("format", "geojson")
	params.Set("latitude", strconv.FormatFloat(p.q.lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(p.q.lon, 'f', -1, 64))
	params.Set("maxradiuskm", strconv.FormatFloat(p.q.radiusKM, 'f', -1, 64))
	params.Set("minmagnitude", strconv.FormatFloat(p.q.minMagnitude, 'f', -1, 64))
	params.Set("limit", strconv.Itoa(p.q.limit))
	params.Set("orderby", "time")

	var resp apiResponse
	if err := p.client.GetJSON(ctx, p.baseURL, params, &resp); err != nil {
		p.log.Warn("quake fetch failed", "error", err)
		return status.Failure[Feed](target, fmt.Sprintf("fetch failed: %v", err))
	}

	feed := Feed{Events: make([]Event, 0, len(resp.Features))}
	for _, f := range resp.Features {
		feed.Events = append(feed.Events, Event{
			Magnitude: f.Properties.Mag,
			MagType:   f.Properties.MagType,
			Place:     f.Properties.Place,
			At:        time.UnixMilli(f.Properties.Time),
		})
	}
	return status.Success(target, feed)
}

type renderer struct{}

func (renderer) Render(res status.Result[Feed], mode int) status.Record {
	if !res.OK() {
		return status.Record{
			Text:    glyphs.Alert + glyphs.IconSpacer + res.Err,
			Class:   status.ClassError,
			Tooltip: "Earthquake feed error",
		}
	}

	feed := res.Payload
	var text string
	switch mode {
	case 1:
		if e, ok := feed.Strongest(); ok {
			text = fmt.Sprintf("%s%sM%s %s", glyphs.Alert, glyphs.IconSpacer,
				format.PadFloat(e.Magnitude), e.Place)
		} else {
			text = glyphs.Alert + glyphs.IconSpacer + "no recent quakes"
		}
	default:
		text = fmt.Sprintf("%s%sEarthquakes: %d", glyphs.Alert, glyphs.IconSpacer, len(feed.Events))
	}

	return status.Record{
		Text:    text,
		Class:   classFor(feed),
		Tooltip: tooltip(res),
	}
}

func classFor(feed Feed) status.Class {
	e, ok := feed.Strongest()
	switch {
	case !ok:
		return status.ClassSuccess
	case e.Magnitude >= 5:
		return status.ClassCritical
	case e.Magnitude >= 3:
		return status.ClassWarning
	default:
		return status.ClassSuccess
	}
}

func tooltip(res status.Result[Feed]) string {
	feed := res.Payload
	if len(feed.Events) == 0 {
		return "No recent earthquakes\n\nLast updated " + res.UpdatedAt.Format("15:04:05")
	}
	pairs := make([][2]string, 0, len(feed.Events))
	for _, e := range feed.Events {
		key := fmt.Sprintf("M%s %s", format.PadFloat(e.Magnitude), e.At.Format("Jan 2 15:04"))
		pairs = append(pairs, [2]string{key, e.Place})
	}
	return format.AlignKeys(pairs) + "\n\nLast updated " + res.UpdatedAt.Format("15:04:05")
}

// Factory assembles the quakes module from the configured search point.
func Factory(opts modules.Options) (modules.Runner, error) {
	mc := opts.Config.Modules.Quakes
	if mc.RadiusKM <= 0 {
		return nil, fmt.Errorf("quakes: invalid radius %v", mc.RadiusKM)
	}

	p := &provider{
		client:  httpx.NewClient(0),
		baseURL: queryURL,
		q: query{
			lat:          mc.Latitude,
			lon:          mc.Longitude,
			radiusKM:     mc.RadiusKM,
			minMagnitude: mc.MinMagnitude,
			limit:        mc.Limit,
		},
		log: opts.Logger,
	}

	return reactor.New(reactor.Config[Feed]{
		Targets:        []string{"quakes"},
		Provider:       p,
		Renderer:       renderer{},
		Emitter:        opts.Emitter,
		Interval:       opts.ResolveInterval(mc.Interval),
		FetchTimeout:   opts.ResolveFetchTimeout(),
		Formats:        modeCount,
		Precheck:       netcheck.Reachable,
		InitialFormat:  opts.InitialFormat,
		OnFormatChange: opts.OnFormatChange,
		Logger:         opts.Logger,
		Loading: func(string) status.Record {
			text := glyphs.TimerOutline + glyphs.IconSpacer + "Checking USGS..."
			return status.Record{Text: text, Class: status.ClassLoading, Tooltip: text}
		},
	})
}
