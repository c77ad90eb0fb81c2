package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/chiaying/assetbook/date"
	"github.com/shopspring/decimal"
)

// Source identifies which upstream fetcher resolved a quote.
type Source string

const (
	SourceTWSE  Source = "twse"
	SourceYahoo Source = "yahoo-stooq"
	SourceFX    Source = "fx"
)

// Fetcher resolves one field out of a JSON document using a jsonpath
// expression, the pattern this package generalizes from a single
// hand-written scraper into a table of (source, endpoint, path) entries.
type Fetcher struct {
	Client      *http.Client
	RateLimiter *TWRateLimiter
}

// NewFetcher returns a Fetcher using http.DefaultClient and the process-wide
// TW rate limiter.
func NewFetcher() *Fetcher {
	return &Fetcher{Client: http.DefaultClient, RateLimiter: DefaultTWRateLimiter()}
}

// endpoint describes one upstream quote source: its URL template and the
// jsonpath expression used to pull the price field out of the response.
type endpoint struct {
	url  func(symbol string, on date.Date) string
	path string
}

var endpoints = map[Source]endpoint{
	SourceTWSE: {
		url: func(symbol string, on date.Date) string {
			return fmt.Sprintf("https://www.twse.com.tw/exchangeReport/STOCK_DAY?response=json&date=%s&stockNo=%s",
				on.Format("20060102"), symbol)
		},
		path: "$.data[-1:][6]",
	},
	SourceYahoo: {
		url: func(symbol string, on date.Date) string {
			return fmt.Sprintf("https://stooq.com/q/d/l/?s=%s&d1=%s&d2=%s&i=d",
				strings.ToLower(symbol), on.Format("20060102"), on.Format("20060102"))
		},
		path: "$.quote.close",
	},
	SourceFX: {
		url: func(pair string, on date.Date) string {
			return fmt.Sprintf("https://api.exchangerate.host/%s?base=%s", on.Format("2006-01-02"), pair)
		},
		path: "$.rates[0]",
	},
}

// FetchPrice resolves symbol's price on `on` from `src`, extracting the
// field with jsonpath per the endpoint table above. TW requests consult the
// process-wide rate limiter first.
func (f *Fetcher) FetchPrice(ctx context.Context, src Source, symbol string, on date.Date) (decimal.Decimal, error) {
	if src == SourceTWSE {
		if err := f.RateLimiter.Allow(); err != nil {
			return decimal.Decimal{}, err
		}
	}

	ep, ok := endpoints[src]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("unknown market-data source %q", src)
	}

	jobj, err := f.getJSON(ctx, ep.url(symbol, on))
	if err != nil {
		return decimal.Decimal{}, err
	}

	jval, err := jsonpath.Get(ep.path, jobj)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("extracting %q from %s response: %w", ep.path, src, err)
	}
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	return toDecimal(jval)
}

func toDecimal(jval any) (decimal.Decimal, error) {
	switch v := jval.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		s := strings.ReplaceAll(v, ",", "")
		return decimal.NewFromString(s)
	default:
		return decimal.Decimal{}, fmt.Errorf("unexpected quote value type %T", jval)
	}
}

func (f *Fetcher) getJSON(ctx context.Context, addr string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", addr, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	var jobj any
	if err := json.Unmarshal(buf.Bytes(), &jobj); err != nil {
		return nil, err
	}
	return jobj, nil
}
