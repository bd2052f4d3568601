// Package stocks implements the stock quote module backed by the Yahoo
// Finance quote endpoint. All symbols are fetched in one request; the
// toggle signal cycles between them.
package stocks

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/format"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/glyphs"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/httpx"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/netcheck"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/reactor"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

const quoteURL = "https://query1.finance.yahoo.com/v7/finance/quote"

type apiResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol           string  `json:"symbol"`
			LongName         string  `json:"longName"`
			Currency         string  `json:"currency"`
			ExchangeName     string  `json:"fullExchangeName"`
			Price            float64 `json:"regularMarketPrice"`
			PreviousClose    float64 `json:"regularMarketPreviousClose"`
			DayHigh          float64 `json:"regularMarketDayHigh"`
			DayLow           float64 `json:"regularMarketDayLow"`
			FiftyTwoWeekHigh float64 `json:"fiftyTwoWeekHigh"`
			FiftyTwoWeekLow  float64 `json:"fiftyTwoWeekLow"`
			MarketCap        uint64  `json:"marketCap"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

// Quote is one symbol's market snapshot.
type Quote struct {
	Symbol           string
	Company          string
	Currency         string
	Exchange         string
	Price            float64
	PreviousClose    float64
	DayHigh          float64
	DayLow           float64
	FiftyTwoWeekHigh float64
	FiftyTwoWeekLow  float64
	MarketCap        uint64
}

// Change is the movement against the previous close.
func (q Quote) Change() float64 {
	return q.Price - q.PreviousClose
}

// ChangePercent is the movement as a percentage of the previous close.
func (q Quote) ChangePercent() float64 {
	if q.PreviousClose == 0 {
		return 0
	}
	return q.Change() / q.PreviousClose * 100
}

type provider struct {
	client  *httpx.Client
	baseURL string
	log     *slog.Logger
}

func (p *provider) Fetch(ctx context.Context, targets []string) []status.Result[Quote] {
	params := url.Values{}
	params.Set("symbols", strings.Join(targets, ","))

	var resp apiResponse
	if err := p.client.GetJSON(ctx, p.baseURL, params, &resp); err != nil {
		p.log.Warn("quote fetch failed", "error", err)
		out := make([]status.Result[Quote], 0, len(targets))
		for _, sym := range targets {
			out = append(out, status.Failure[Quote](sym, fmt.Sprintf("fetch failed: %v", err)))
		}
		return out
	}

	bySymbol := make(map[string]Quote, len(resp.QuoteResponse.Result))
	for _, r := range resp.QuoteResponse.Result {
		bySymbol[r.Symbol] = Quote{
			Symbol:           r.Symbol,
			Company:          r.LongName,
			Currency:         r.Currency,
			Exchange:         r.ExchangeName,
			Price:            r.Price,
			PreviousClose:    r.PreviousClose,
			DayHigh:          r.DayHigh,
			DayLow:           r.DayLow,
			FiftyTwoWeekHigh: r.FiftyTwoWeekHigh,
			FiftyTwoWeekLow:  r.FiftyTwoWeekLow,
			MarketCap:        r.MarketCap,
		}
	}

	out := make([]status.Result[Quote], 0, len(targets))
	for _, sym := range targets {
		q, ok := bySymbol[sym]
		if !ok {
			out = append(out, status.Failure[Quote](sym, fmt.Sprintf("%s not in result set", sym)))
			continue
		}
		out = append(out, status.Success(sym, q))
	}
	return out
}

type renderer struct{}

func (renderer) Render(res status.Result[Quote], mode int) status.Record {
	if !res.OK() {
		return status.Record{
			Text:    fmt.Sprintf("%s%s%s %s", glyphs.Alert, glyphs.IconSpacer, res.Target, res.Err),
			Class:   status.ClassError,
			Tooltip: res.Target + " error",
		}
	}

	q := res.Payload
	arrow, sign := glyphs.ArrowSmallUp, "+"
	class := status.ClassSuccess
	if q.Change() < 0 {
		arrow, sign = glyphs.ArrowSmallDown, "-"
		class = status.ClassWarning
	}
	text := fmt.Sprintf("%s%s%s %s %s%s%s (%s%s%%)",
		glyphs.GraphLine, glyphs.IconSpacer, q.Symbol, format.PadFloat(q.Price),
		arrow, sign, format.PadFloat(abs(q.Change())),
		sign, format.PadFloat(abs(q.ChangePercent())))
	return status.Record{
		Text:    text,
		Class:   class,
		Tooltip: tooltip(res),
	}
}

func abs(n float64) float64 {
	if n < 0 {
		return -n
	}
	return n
}

func tooltip(res status.Result[Quote]) string {
	q := res.Payload
	pairs := [][2]string{}
	if q.Company != "" {
		pairs = append(pairs, [2]string{"Company", q.Company})
	}
	if q.Exchange != "" {
		pairs = append(pairs, [2]string{"Exchange", q.Exchange})
	}
	pairs = append(pairs,
		[2]string{"Price", format.PadFloat(q.Price) + " " + q.Currency},
		[2]string{"Previous Close", format.PadFloat(q.PreviousClose)},
		[2]string{"Day Range", fmt.Sprintf("%s - %s", format.PadFloat(q.DayLow), format.PadFloat(q.DayHigh))},
		[2]string{"52 Week Range", fmt.Sprintf("%s - %s", format.PadFloat(q.FiftyTwoWeekLow), format.PadFloat(q.FiftyTwoWeekHigh))},
	)
	if q.MarketCap > 0 {
		pairs = append(pairs, [2]string{"Market Cap", format.SI(float64(q.MarketCap))})
	}
	return format.AlignKeys(pairs) + "\n\nLast updated " + res.UpdatedAt.Format("15:04:05")
}

// Factory assembles the stocks module. Symbols come from -target flags
// or the config.
func Factory(opts modules.Options) (modules.Runner, error) {
	symbols := opts.Targets
	if len(symbols) == 0 {
		symbols = opts.Config.Modules.Stocks.Symbols
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("stocks: no symbols configured")
	}

	return reactor.New(reactor.Config[Quote]{
		Targets:        symbols,
		Provider:       &provider{client: httpx.NewClient(0), baseURL: quoteURL, log: opts.Logger},
		Renderer:       renderer{},
		Emitter:        opts.Emitter,
		Interval:       opts.ResolveInterval(opts.Config.Modules.Stocks.Interval),
		FetchTimeout:   opts.ResolveFetchTimeout(),
		CycleTargets:   true,
		Precheck:       netcheck.Reachable,
		InitialFormat:  opts.InitialFormat,
		OnFormatChange: opts.OnFormatChange,
		Logger:         opts.Logger,
	})
}
