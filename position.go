package assetbook

import (
	"sort"
)

// PositionKey groups stock transactions: the same ticker on two exchanges is
// two distinct positions, each quoted strictly against its own market.
type PositionKey struct {
	Ticker string
	Market StockMarket
}

// Position is the folded state of every non-deleted transaction for one
// {ticker, market}, after split adjustment. TotalCostHome carries a moving
// weighted-average cost: a Sell reduces it by sharesSold*WAC, not by the
// realized sale proceeds.
type Position struct {
	Key            PositionKey
	Currency       string
	TotalShares    Quantity
	TotalCostHome  Money
	RealizedHome   Money
}

// AverageCostPerShareHome returns WAC = TotalCostHome/TotalShares, and false
// when TotalShares is zero (undefined).
func (p Position) AverageCostPerShareHome() (Money, bool) {
	if p.TotalShares.IsZero() {
		return Money{}, false
	}
	return p.TotalCostHome.Div(p.TotalShares), true
}

// HasHoldings reports whether this position still has open shares; positions
// at or below zero are excluded from holdings but retained in the returned
// map for realized P&L aggregation.
func (p Position) HasHoldings() bool { return p.TotalShares.IsPositive() }

// RecalculatePositions folds a transaction log and the split table into
// current positions, keyed by {ticker, market}. Deleted transactions are
// ignored. Transactions are folded in (date, createdAt) order, matching the
// ordering key the transaction log guarantees. homeCurrency is the
// portfolio's reporting currency (TWD by default, but never hard-coded here:
// a portfolio may declare any home currency per §3).
func RecalculatePositions(transactions []StockTransaction, splits []StockSplit, homeCurrency string) map[PositionKey]Position {
	ordered := make([]StockTransaction, 0, len(transactions))
	for _, t := range transactions {
		if !t.IsDeleted {
			ordered = append(ordered, t)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Date != ordered[j].Date {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	positions := make(map[PositionKey]Position)
	for _, t := range ordered {
		key := t.Key()
		pos, ok := positions[key]
		if !ok {
			pos = Position{
				Key:           key,
				Currency:      t.Currency,
				TotalShares:   Q(0),
				TotalCostHome: M(0, homeCurrency),
				RealizedHome:  M(0, homeCurrency),
			}
		}

		shares := adjustedShares(splits, t.Ticker, t.Market, t.Date, t.Shares)

		switch t.Type {
		case StockBuy:
			pos.TotalShares = pos.TotalShares.Add(shares)
			pos.TotalCostHome = pos.TotalCostHome.Add(M(t.TotalCostHome(), homeCurrency))
		case StockSell:
			wac, hasWAC := pos.AverageCostPerShareHome()
			costReduction := M(0, homeCurrency)
			if hasWAC {
				costReduction = wac.Mul(shares)
			}
			proceedsHome := M(t.TotalCostHome(), homeCurrency)
			pos.TotalShares = pos.TotalShares.Sub(shares)
			pos.TotalCostHome = pos.TotalCostHome.Sub(costReduction)
			pos.RealizedHome = pos.RealizedHome.Add(proceedsHome.Sub(costReduction))
		case StockAdjustment:
			pos.TotalShares = pos.TotalShares.Add(shares)
		case StockSplit:
			// Splits affecting this symbol/market are already folded into
			// adjustedShares; a StockSplit-typed row in the log itself (if any)
			// carries no share delta of its own.
		}

		positions[key] = pos
	}
	return positions
}

// HoldingKeys returns the keys of positions with TotalShares > 0, in a
// deterministic order suitable for iteration (sorted by ticker then market).
func HoldingKeys(positions map[PositionKey]Position) []PositionKey {
	var keys []PositionKey
	for k, p := range positions {
		if p.HasHoldings() {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Ticker != keys[j].Ticker {
			return keys[i].Ticker < keys[j].Ticker
		}
		return keys[i].Market < keys[j].Market
	})
	return keys
}
