// Package marketdata is the write-through cache and fetcher facade for
// historical prices and FX rates, fronting the Taiwan Stock Exchange,
// Yahoo/Stooq, and an FX source behind one interface. Every lookup is
// write-through cached keyed by (symbol, date) or (from, to, date); a
// fetch that comes back empty is recorded as a negative marker so later
// lookups return "unavailable" without hitting the network again.
package marketdata

import (
	"sync"

	"github.com/chiaying/assetbook/date"
	"github.com/shopspring/decimal"
)

// PriceEntry is the cache row for a historical security price. ActualDate is
// the trading day the price actually belongs to, which may precede the
// requested date over a weekend or holiday.
type PriceEntry struct {
	Symbol     string
	Date       date.Date
	Price      decimal.Decimal
	Currency   string
	ActualDate date.Date
}

// negativeMarker records "no data available" for a (marketKey, yearMonth)
// so repeat lookups short-circuit instead of refetching.
type negativeMarker struct {
	MarketKey string
	YearMonth string
}

// Cache is the persistent, write-through store of §4.I. A production
// deployment backs this with the relational schema of §6; in-process it
// keeps one date.History per symbol (and per currency pair) the way
// MarketData keeps one date.History[float64] per security, generalized to
// carry the richer PriceEntry this facade's multiple sources need. Every
// exported method is safe for concurrent use.
type Cache struct {
	mu        sync.RWMutex
	prices    map[string]*date.History[PriceEntry]
	fx        map[string]*date.History[decimal.Decimal]
	negatives map[negativeMarker]bool
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		prices:    make(map[string]*date.History[PriceEntry]),
		fx:        make(map[string]*date.History[decimal.Decimal]),
		negatives: make(map[negativeMarker]bool),
	}
}

func fxKey(from, to string) string { return from + "/" + to }

// PutPrice write-through stores a resolved price, keyed by the originally
// requested date (ActualDate on the entry may differ).
func (c *Cache) PutPrice(requested date.Date, e PriceEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.prices[e.Symbol]
	if !ok {
		h = &date.History[PriceEntry]{}
		c.prices[e.Symbol] = h
	}
	h.Append(requested, e)
}

// GetPrice returns the cached price for (symbol, date), or false if absent.
func (c *Cache) GetPrice(symbol string, on date.Date) (PriceEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.prices[symbol]
	if !ok {
		return PriceEntry{}, false
	}
	return h.Get(on)
}

// PutFX write-through stores a resolved FX rate for a currency pair on a date.
func (c *Cache) PutFX(from, to string, on date.Date, rate decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := fxKey(from, to)
	h, ok := c.fx[key]
	if !ok {
		h = &date.History[decimal.Decimal]{}
		c.fx[key] = h
	}
	h.Append(on, rate)
}

// GetFX returns the cached FX rate for (from, to, date), or false if absent.
func (c *Cache) GetFX(from, to string, on date.Date) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.fx[fxKey(from, to)]
	if !ok {
		return decimal.Decimal{}, false
	}
	return h.Get(on)
}

// MarkUnavailable records a negative marker for (marketKey, yearMonth), so
// IsUnavailable short-circuits future lookups in that window without refetching.
func (c *Cache) MarkUnavailable(marketKey string, yearMonth string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.negatives[negativeMarker{MarketKey: marketKey, YearMonth: yearMonth}] = true
}

// IsUnavailable reports whether a negative marker exists for (marketKey, yearMonth).
func (c *Cache) IsUnavailable(marketKey string, yearMonth string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.negatives[negativeMarker{MarketKey: marketKey, YearMonth: yearMonth}]
}

// Reconcile scans for (marketKey, yearMonth) combinations that have neither a
// positive price nor a negative marker and returns them, so a caller can
// backfill negative markers for windows that were never queried — the
// write-time analogue of the old migration-time negative-cache backfill.
func (c *Cache) Reconcile(expected []string, yearMonth string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var missing []string
	for _, key := range expected {
		if c.negatives[negativeMarker{MarketKey: key, YearMonth: yearMonth}] {
			continue
		}
		if h, ok := c.prices[key]; ok {
			covered := false
			for on := range h.Values() {
				if on.Format("2006-01") == yearMonth {
					covered = true
					break
				}
			}
			if covered {
				continue
			}
		}
		missing = append(missing, key)
	}
	return missing
}
