package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/chiaying/assetbook/date"
	"github.com/shopspring/decimal"
)

// Resolver combines the cache and the fetcher facade into the read path
// every caller should use: check cache, check negative marker, else fetch
// and write through. A timeout context returns "unavailable" without
// writing a negative marker, since a transient network blip should be retried.
type Resolver struct {
	Cache   *Cache
	Fetcher *Fetcher
}

// NewResolver wires a Cache to a Fetcher.
func NewResolver(cache *Cache, fetcher *Fetcher) *Resolver {
	return &Resolver{Cache: cache, Fetcher: fetcher}
}

// ResolvePrice returns the price of symbol on the nearest trading day on or
// before `on`, write-through caching both positive and negative results.
// ActualDate on the returned entry may differ from `on` over a weekend.
func (r *Resolver) ResolvePrice(ctx context.Context, src Source, symbol string, on date.Date, currency string) (PriceEntry, error) {
	if e, ok := r.Cache.GetPrice(symbol, on); ok {
		return e, nil
	}

	yearMonth := on.Format("2006-01")
	if r.Cache.IsUnavailable(symbol, yearMonth) {
		return PriceEntry{}, notAvailableError{symbol: symbol, on: on}
	}

	actual := on
	var price decimal.Decimal
	var err error
	for i := 0; i < 7; i++ {
		price, err = r.Fetcher.FetchPrice(ctx, src, symbol, actual)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			// Timed out or canceled: transient, do not write a negative marker.
			return PriceEntry{}, err
		}
		var limited *RateLimitExceeded
		if errors.As(err, &limited) {
			// Daily quota spent: surface it rather than caching a negative marker.
			return PriceEntry{}, err
		}
		actual = actual.Add(-1)
	}
	if err != nil {
		r.Cache.MarkUnavailable(symbol, yearMonth)
		return PriceEntry{}, notAvailableError{symbol: symbol, on: on}
	}

	entry := PriceEntry{Symbol: symbol, Date: on, Price: price, Currency: currency, ActualDate: actual}
	r.Cache.PutPrice(on, entry)
	return entry, nil
}

// ResolveFX returns the FX rate for (from, to) on the nearest available date
// on or before `on`. Valuation must use this actual-date rate, not the
// requested date, to avoid weekend mismatches.
func (r *Resolver) ResolveFX(ctx context.Context, from, to string, on date.Date) (decimal.Decimal, date.Date, error) {
	if from == to {
		return decimal.NewFromInt(1), on, nil
	}
	if rate, ok := r.Cache.GetFX(from, to, on); ok {
		return rate, on, nil
	}

	yearMonth := on.Format("2006-01")
	marketKey := from + "/" + to
	if r.Cache.IsUnavailable(marketKey, yearMonth) {
		return decimal.Decimal{}, date.Date{}, notAvailableError{symbol: marketKey, on: on}
	}

	actual := on
	var rate decimal.Decimal
	var err error
	for i := 0; i < 7; i++ {
		rate, err = r.Fetcher.FetchPrice(ctx, SourceFX, from+to, actual)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return decimal.Decimal{}, date.Date{}, err
		}
		actual = actual.Add(-1)
	}
	if err != nil {
		r.Cache.MarkUnavailable(marketKey, yearMonth)
		return decimal.Decimal{}, date.Date{}, notAvailableError{symbol: marketKey, on: on}
	}

	r.Cache.PutFX(from, to, actual, rate)
	return rate, actual, nil
}

type notAvailableError struct {
	symbol string
	on     date.Date
}

func (e notAvailableError) Error() string {
	return "no price data available for " + e.symbol + " on or before " + e.on.String()
}

// WithDeadline wraps ctx with a per-request market-data deadline.
func WithDeadline(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}
