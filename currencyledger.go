package assetbook

import (
	"sort"

	"github.com/chiaying/assetbook/date"
	"github.com/shopspring/decimal"
)

// CurrencyLedger is a per-user per-currency balance, backed by a log of
// CurrencyTransaction entries. At most one ledger may be active per
// (user, currency); when CurrencyCode equals HomeCurrency, every
// transaction's exchangeRate is forced to 1.
type CurrencyLedger struct {
	ID           string
	UserID       string
	CurrencyCode string
	HomeCurrency string
	Name         string
	IsActive     bool
}

// IsHomeLedger reports whether this ledger operates in the home currency.
func (l CurrencyLedger) IsHomeLedger() bool { return l.CurrencyCode == l.HomeCurrency }

// RateSource records how an effective exchange rate for a prospective Buy was derived.
type RateSource string

const (
	RateLIFO    RateSource = "lifo"
	RateBlended RateSource = "blended"
	RateMarket  RateSource = "market"
)

// RatePreview is the result of previewing the effective rate for a
// prospective purchase of `amount` foreign currency on `date`.
type RatePreview struct {
	Rate         decimal.Decimal
	Source       RateSource
	LIFORate     decimal.Decimal
	MarketRate   decimal.Decimal
	LIFOPortion  decimal.Decimal
	MarketPortion decimal.Decimal
}

// projection returns the non-deleted transactions for this ledger, sorted by
// (date asc, createdAt asc) — the ordering every ledger computation shares.
func projection(transactions []CurrencyTransaction) []CurrencyTransaction {
	var out []CurrencyTransaction
	for _, t := range transactions {
		if !t.IsDeleted {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Balance returns the ledger's foreign-currency balance as of day, from the
// full (unfiltered) transaction set.
func (l CurrencyLedger) Balance(transactions []CurrencyTransaction, day date.Date) decimal.Decimal {
	return balanceAsOf(projection(transactions), day)
}

// PreviewRate computes the effective rate for a prospective Buy of
// foreignAmount at the given date, per §4.E steps 1-5. marketRate is the
// caller-supplied current market FX rate, or nil if unavailable.
func (l CurrencyLedger) PreviewRate(transactions []CurrencyTransaction, day date.Date, foreignAmount decimal.Decimal, marketRate *decimal.Decimal) (RatePreview, error) {
	txs := projection(transactions)
	truncated := make([]CurrencyTransaction, 0, len(txs))
	for _, t := range txs {
		if !t.Date.After(day) {
			truncated = append(truncated, t)
		}
	}

	balance := balanceAsOf(truncated, day)
	lifo := deriveLIFO(truncated)

	if balance.GreaterThanOrEqual(foreignAmount) && len(lifo.Layers) > 0 {
		rate, consumed := weightedLIFORate(lifo.Layers, foreignAmount)
		if consumed.Equal(foreignAmount) {
			return RatePreview{Rate: rate, Source: RateLIFO, LIFORate: rate, LIFOPortion: foreignAmount}, nil
		}
	}

	if balance.IsPositive() && balance.LessThan(foreignAmount) && marketRate != nil {
		lifoPortion := balance
		marketPortion := foreignAmount.Sub(balance)
		lifoRate, _ := weightedLIFORate(lifo.Layers, lifoPortion)
		rate := lifoPortion.Mul(lifoRate).Add(marketPortion.Mul(*marketRate)).Div(foreignAmount)
		return RatePreview{
			Rate: rate, Source: RateBlended,
			LIFORate: lifoRate, MarketRate: *marketRate,
			LIFOPortion: lifoPortion, MarketPortion: marketPortion,
		}, nil
	}

	if len(lifo.Layers) == 0 && marketRate != nil {
		return RatePreview{Rate: *marketRate, Source: RateMarket, MarketRate: *marketRate, MarketPortion: foreignAmount}, nil
	}

	return RatePreview{}, rateUnavailablef("no LIFO depth and no market rate available for %s on %s", l.CurrencyCode, day)
}

// weightedLIFORate drains up to `need` of foreign currency from the top of
// the stack (without mutating it — this is a read-only preview) and returns
// the weighted-average rate of what it consumed, plus the amount consumed
// (which may be less than need if the stack runs dry).
func weightedLIFORate(layers []lifoLayer, need decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	remaining := need
	weightedSum := decimal.Zero
	consumed := decimal.Zero
	for i := len(layers) - 1; i >= 0 && remaining.IsPositive(); i-- {
		layer := layers[i]
		take := remaining
		if layer.Remaining.LessThan(take) {
			take = layer.Remaining
		}
		weightedSum = weightedSum.Add(take.Mul(layer.ExchangeRate))
		consumed = consumed.Add(take)
		remaining = remaining.Sub(take)
	}
	if consumed.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	return weightedSum.Div(consumed), consumed
}

// BalanceAction is the policy applied when linking a stock Buy to a ledger
// whose balance may be insufficient.
type BalanceAction string

const (
	BalanceNone   BalanceAction = "None"
	BalanceMargin BalanceAction = "Margin"
	BalanceTopUp  BalanceAction = "TopUp"
)

// ApplyBalanceAction checks whether a prospective debit of `amount` foreign
// currency at `day` is permitted under action, returning a synthesized
// top-up CurrencyTransaction when action is TopUp and a top-up is needed
// (nil otherwise). topUpType must be an income type; for ExchangeBuy it
// additionally requires marketRate.
func (l CurrencyLedger) ApplyBalanceAction(
	transactions []CurrencyTransaction, day date.Date, amount decimal.Decimal,
	action BalanceAction, topUpType CurrencyTransactionType, marketRate *decimal.Decimal,
) (*CurrencyTransaction, error) {
	balance := l.Balance(transactions, day)
	shortfall := amount.Sub(balance)
	if !shortfall.IsPositive() {
		return nil, nil
	}

	switch action {
	case BalanceNone:
		return nil, businessRulef("insufficient balance: need %s, have %s", amount, balance)
	case BalanceMargin:
		return nil, nil
	case BalanceTopUp:
		if !topUpType.IsIncomeType() {
			return nil, businessRulef("topUpTransactionType %q is not an income type", topUpType)
		}
		topUp := &CurrencyTransaction{
			LedgerID:      l.ID,
			Date:          day,
			Type:          topUpType,
			ForeignAmount: shortfall,
		}
		if topUpType == ExchangeBuy {
			if marketRate == nil {
				return nil, businessRulef("top-up via ExchangeBuy requires a market rate; please supply one")
			}
			home := shortfall.Mul(*marketRate)
			topUp.HomeAmount = &home
			topUp.ExchangeRate = marketRate
		}
		return topUp, nil
	default:
		return nil, businessRulef("unknown balance action %q", action)
	}
}
