package assetbook

import (
	"github.com/chiaying/assetbook/date"
	"github.com/shopspring/decimal"
)

// lifoLayer is a derived, never-persisted record of a past ExchangeBuy or
// InitialBalance, consumed top-of-stack on outflow. Correctness comes from
// re-deriving the stack on every read from the sorted transaction log, not
// from a cursor.
type lifoLayer struct {
	Remaining    decimal.Decimal
	ExchangeRate decimal.Decimal
	OriginDate   date.Date
}

// lifoResult is the derived stack plus the realized P&L accrued draining it,
// as of the point the projection was truncated.
type lifoResult struct {
	Layers       []lifoLayer
	RealizedHome decimal.Decimal
}

// deriveLIFO projects a ledger's non-deleted transactions (already sorted by
// date,createdAt) into the LIFO stack and accumulated realized P&L. It is a
// pure function of the transaction slice: no persisted state.
func deriveLIFO(transactions []CurrencyTransaction) lifoResult {
	var r lifoResult
	for _, t := range transactions {
		switch t.Type {
		case ExchangeBuy, InitialBalance:
			if t.HomeAmount == nil {
				continue
			}
			rate := t.ForeignAmount
			if rate.IsZero() {
				continue
			}
			layerRate := (*t.HomeAmount).Div(t.ForeignAmount)
			r.Layers = append(r.Layers, lifoLayer{
				Remaining:    t.ForeignAmount,
				ExchangeRate: layerRate,
				OriginDate:   t.Date,
			})
		case ExchangeSell, Spend:
			need := t.ForeignAmount
			txRate := decimal.Zero
			if t.ExchangeRate != nil {
				txRate = *t.ExchangeRate
			}
			for need.IsPositive() && len(r.Layers) > 0 {
				top := len(r.Layers) - 1
				layer := &r.Layers[top]
				consumed := need
				if layer.Remaining.LessThan(need) {
					consumed = layer.Remaining
				}
				layer.Remaining = layer.Remaining.Sub(consumed)
				need = need.Sub(consumed)
				if !txRate.IsZero() {
					r.RealizedHome = r.RealizedHome.Add(txRate.Sub(layer.ExchangeRate).Mul(consumed))
				}
				if layer.Remaining.IsZero() {
					r.Layers = r.Layers[:top]
				}
			}
		}
	}
	return r
}

// balanceAsOf returns Σ creditsForeign − Σ debitsForeign over transactions
// dated on or before day. Negative balances are permitted (margin).
func balanceAsOf(transactions []CurrencyTransaction, day date.Date) decimal.Decimal {
	balance := decimal.Zero
	for _, t := range transactions {
		if t.Date.After(day) {
			continue
		}
		balance = balance.Add(t.SignedForeign())
	}
	return balance
}
