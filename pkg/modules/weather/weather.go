// Package weather implements the weather module backed by the
// weatherapi.com forecast endpoint. The toggle signal cycles between
// the configured locations.
package weather

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/format"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/glyphs"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/httpx"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/netcheck"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/reactor"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

const forecastURL = "https://api.weatherapi.com/v1/forecast.json"

// apiResponse mirrors the slice of the weatherapi.com payload the
// module renders.
type apiResponse struct {
	Location struct {
		Name    string `json:"name"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC      float64 `json:"temp_c"`
		TempF      float64 `json:"temp_f"`
		FeelsLikeC float64 `json:"feelslike_c"`
		FeelsLikeF float64 `json:"feelslike_f"`
		IsDay      int     `json:"is_day"`
		Humidity   int     `json:"humidity"`
		Cloud      int     `json:"cloud"`
		WindKph    float64 `json:"wind_kph"`
		WindMph    float64 `json:"wind_mph"`
		WindDegree int     `json:"wind_degree"`
		UV         float64 `json:"uv"`
		Condition  struct {
			Text string `json:"text"`
			Code int    `json:"code"`
		} `json:"condition"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			Day struct {
				MaxTempC float64 `json:"maxtemp_c"`
				MaxTempF float64 `json:"maxtemp_f"`
				MinTempC float64 `json:"mintemp_c"`
				MinTempF float64 `json:"mintemp_f"`
			} `json:"day"`
			Astro struct {
				Sunrise   string `json:"sunrise"`
				Sunset    string `json:"sunset"`
				MoonPhase string `json:"moon_phase"`
			} `json:"astro"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// Report is one location's weather.
type Report struct {
	Location      string
	LocationShort string
	Condition     string
	ConditionCode int
	IsDay         bool
	TempC, TempF  float64
	FeelsC        float64
	FeelsF        float64
	HighC, HighF  float64
	LowC, LowF    float64
	WindKph       float64
	WindMph       float64
	WindDegree    int
	Humidity      int
	Cloud         int
	UV            float64
	Sunrise       string
	Sunset        string
	MoonPhase     string
}

type provider struct {
	client  *httpx.Client
	apiKey  string
	baseURL string
	log     *slog.Logger
}

func (p *provider) Fetch(ctx context.Context, targets []string) []status.Result[Report] {
	out := make([]status.Result[Report], 0, len(targets))
	for _, loc := range targets {
		out = append(out, p.fetchOne(ctx, loc))
	}
	return out
}

func (p *provider) fetchOne(ctx context.Context, location string) status.Result[Report] {
	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("q", location)
	params.Set("aqi", "no")
	params.Set("alerts", "no")

	var resp apiResponse
	if err := p.client.GetJSON(ctx, p.baseURL, params, &resp); err != nil {
		p.log.Warn("weather fetch failed", "location", location, "error", err)
		return status.Failure[Report](location, fmt.Sprintf("fetch failed: %v", err))
	}

	r := Report{
		Location:      location,
		LocationShort: resp.Location.Name,
		Condition:     resp.Current.Condition.Text,
		ConditionCode: resp.Current.Condition.Code,
		IsDay:         resp.Current.IsDay == 1,
		TempC:         resp.Current.TempC,
		TempF:         resp.Current.TempF,
		FeelsC:        resp.Current.FeelsLikeC,
		FeelsF:        resp.Current.FeelsLikeF,
		WindKph:       resp.Current.WindKph,
		WindMph:       resp.Current.WindMph,
		WindDegree:    resp.Current.WindDegree,
		Humidity:      resp.Current.Humidity,
		Cloud:         resp.Current.Cloud,
		UV:            resp.Current.UV,
	}
	if len(resp.Forecast.ForecastDay) > 0 {
		day := resp.Forecast.ForecastDay[0]
		r.HighC, r.HighF = day.Day.MaxTempC, day.Day.MaxTempF
		r.LowC, r.LowF = day.Day.MinTempC, day.Day.MinTempF
		r.Sunrise, r.Sunset = day.Astro.Sunrise, day.Astro.Sunset
		r.MoonPhase = day.Astro.MoonPhase
	}
	return status.Success(location, r)
}

// icon maps a weatherapi.com condition code to a nerd-font glyph, with
// day and night variants where the font has them.
func icon(code int, isDay bool) string {
	switch code {
	case 1000: // sunny / clear
		if isDay {
			return glyphs.WeatherSunny
		}
		return glyphs.WeatherNight
	case 1003: // partly cloudy
		if isDay {
			return glyphs.WeatherPartlyCloudy
		}
		return glyphs.WeatherNightPartlyCloudy
	case 1006, 1009: // cloudy, overcast
		return glyphs.WeatherCloudy
	case 1030, 1135, 1147: // mist, fog, freezing fog
		return glyphs.WeatherFog
	case 1063, 1240: // patchy rain, light shower
		if isDay {
			return glyphs.WeatherPartlyRainy
		}
		return glyphs.WeatherRainy
	case 1066, 1210, 1213, 1216, 1219: // patchy or light snow
		if isDay {
			return glyphs.WeatherPartlySnowy
		}
		return glyphs.WeatherSnowy
	case 1114, 1222, 1225: // blowing or heavy snow
		return glyphs.WeatherSnowy
	case 1087, 1273, 1276: // thunder
		return glyphs.WeatherLightning
	case 1186, 1189, 1192, 1195, 1243, 1246: // steady rain
		return glyphs.WeatherPouring
	case 1180, 1183: // light rain
		return glyphs.WeatherRainy
	case 1072, 1168, 1171, 1198, 1201: // freezing drizzle and rain
		return glyphs.WeatherRainy
	default:
		return glyphs.WeatherHazy
	}
}

type renderer struct {
	useCelsius bool
}

func (r renderer) Render(res status.Result[Report], mode int) status.Record {
	if !res.OK() {
		return status.Record{
			Text:    fmt.Sprintf("%s%s%s %s", glyphs.Alert, glyphs.IconSpacer, res.Target, res.Err),
			Class:   status.ClassError,
			Tooltip: res.Target + " error",
		}
	}

	w := res.Payload
	temp, unit := w.TempF, "F"
	if r.useCelsius {
		temp, unit = w.TempC, "C"
	}
	return status.Record{
		Text: fmt.Sprintf("%s%s%s %s°%s", icon(w.ConditionCode, w.IsDay), glyphs.IconSpacer,
			w.LocationShort, format.PadFloat(temp), unit),
		Class:   status.ClassSuccess,
		Tooltip: r.tooltip(res),
	}
}

func (r renderer) tooltip(res status.Result[Report]) string {
	w := res.Payload
	unit, speed := "F", "mph"
	feels, high, low, wind := w.FeelsF, w.HighF, w.LowF, w.WindMph
	if r.useCelsius {
		unit, speed = "C", "kph"
		feels, high, low, wind = w.FeelsC, w.HighC, w.LowC, w.WindKph
	}

	pairs := [][2]string{{"Location", w.Location}}
	if w.Condition != "" {
		pairs = append(pairs, [2]string{"Condition", w.Condition})
	}
	pairs = append(pairs,
		[2]string{"Feels Like", fmt.Sprintf("%s°%s", format.PadFloat(feels), unit)},
		[2]string{"High / Low", fmt.Sprintf("%s°%s / %s°%s", format.PadFloat(high), unit, format.PadFloat(low), unit)},
		[2]string{"Wind", fmt.Sprintf("%s %s @ %d°", format.PadFloat(wind), speed, w.WindDegree)},
		[2]string{"Cloud Cover", fmt.Sprintf("%d%%", w.Cloud)},
		[2]string{"Humidity", fmt.Sprintf("%d%%", w.Humidity)},
		[2]string{"UV Index", fmt.Sprintf("%s of 11", format.PadFloat(w.UV))},
	)
	if w.Sunrise != "" && w.Sunset != "" {
		pairs = append(pairs,
			[2]string{"Sunrise", w.Sunrise},
			[2]string{"Sunset", w.Sunset})
	}
	if w.MoonPhase != "" {
		pairs = append(pairs, [2]string{"Moon Phase", w.MoonPhase})
	}
	return format.AlignKeys(pairs) + "\n\nLast updated " + res.UpdatedAt.Format("15:04:05")
}

// Factory assembles the weather module. Locations come from -target
// flags or the config; the API key must be present in either the
// config or the WEATHER_API_KEY environment variable.
func Factory(opts modules.Options) (modules.Runner, error) {
	mc := opts.Config.Modules.Weather
	locations := opts.Targets
	if len(locations) == 0 {
		locations = mc.Locations
	}
	if len(locations) == 0 {
		return nil, fmt.Errorf("weather: no locations configured")
	}
	if mc.APIKey == "" {
		return nil, fmt.Errorf("weather: missing API key")
	}

	return reactor.New(reactor.Config[Report]{
		Targets:        locations,
		Provider:       &provider{client: httpx.NewClient(0), apiKey: mc.APIKey, baseURL: forecastURL, log: opts.Logger},
		Renderer:       renderer{useCelsius: mc.UseCelsius},
		Emitter:        opts.Emitter,
		Interval:       opts.ResolveInterval(mc.Interval),
		FetchTimeout:   opts.ResolveFetchTimeout(),
		CycleTargets:   true,
		Precheck:       netcheck.Reachable,
		InitialFormat:  opts.InitialFormat,
		OnFormatChange: opts.OnFormatChange,
		Logger:         opts.Logger,
	})
}
