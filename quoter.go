package assetbook

import (
	"context"
	"errors"

	"github.com/chiaying/assetbook/date"
	"github.com/chiaying/assetbook/marketdata"
	"github.com/shopspring/decimal"
)

// MarketDataQuoter implements PriceQuoter and FXQuoter over a
// marketdata.Resolver, mapping a StockMarket to the upstream source that
// quotes it: TW tickers resolve against the rate-limited TWSE endpoint,
// everything else against the Stooq facade. A quote the resolver cannot
// produce is reported as "missing" (ok=false), not as an error, except for
// RateLimitExceeded which the caller should surface distinctly.
type MarketDataQuoter struct {
	Resolver *marketdata.Resolver
}

// NewMarketDataQuoter wires a quoter over a fresh cache and fetcher.
func NewMarketDataQuoter() *MarketDataQuoter {
	return &MarketDataQuoter{Resolver: marketdata.NewResolver(marketdata.NewCache(), marketdata.NewFetcher())}
}

func (q *MarketDataQuoter) source(market StockMarket) marketdata.Source {
	if market == MarketTW {
		return marketdata.SourceTWSE
	}
	return marketdata.SourceYahoo
}

// Quote implements PriceQuoter.
func (q *MarketDataQuoter) Quote(ctx context.Context, ticker string, market StockMarket, on date.Date) (decimal.Decimal, string, bool, error) {
	entry, err := q.Resolver.ResolvePrice(ctx, q.source(market), ticker, on, "")
	if err != nil {
		var limited *marketdata.RateLimitExceeded
		if errors.As(err, &limited) {
			return decimal.Decimal{}, "", false, rateLimitedf("%s", limited.Error())
		}
		return decimal.Decimal{}, "", false, nil
	}
	return entry.Price, entry.Currency, true, nil
}

// Rate implements FXQuoter.
func (q *MarketDataQuoter) Rate(ctx context.Context, from, to string, on date.Date) (decimal.Decimal, bool, error) {
	rate, _, err := q.Resolver.ResolveFX(ctx, from, to, on)
	if err != nil {
		var limited *marketdata.RateLimitExceeded
		if errors.As(err, &limited) {
			return decimal.Decimal{}, false, rateLimitedf("%s", limited.Error())
		}
		return decimal.Decimal{}, false, nil
	}
	return rate, true, nil
}
