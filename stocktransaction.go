package assetbook

import (
	"strings"
	"time"

	"github.com/chiaying/assetbook/date"
	"github.com/shopspring/decimal"
)

// StockMarket is the closed set of exchanges a StockTransaction can trade on.
type StockMarket string

const (
	MarketTW StockMarket = "TW"
	MarketUS StockMarket = "US"
	MarketUK StockMarket = "UK"
	MarketEU StockMarket = "EU"
)

// StockTransactionType is the closed set of stock transaction kinds.
type StockTransactionType string

const (
	StockBuy        StockTransactionType = "Buy"
	StockSell       StockTransactionType = "Sell"
	StockSplit      StockTransactionType = "Split"
	StockAdjustment StockTransactionType = "Adjustment"
)

// FundSource records whether a stock Buy draws from a bound currency ledger.
type FundSource string

const (
	FundNone           FundSource = "None"
	FundCurrencyLedger FundSource = "CurrencyLedger"
)

// StockTransaction is one entry in a portfolio's stock transaction log.
// exchangeRate is never set by a caller directly for a Buy linked to a
// ledger — it is derived by the currency ledger engine (see currencyledger.go)
// and persisted here so later reads don't need to recompute it.
type StockTransaction struct {
	ID              string
	PortfolioID     string
	Date            date.Date
	Ticker          string
	Market          StockMarket
	Type            StockTransactionType
	Shares          Quantity
	PricePerShare   decimal.Decimal
	ExchangeRate    decimal.Decimal
	Fees            decimal.Decimal
	Currency        string
	FundSource      FundSource
	CurrencyLedgerID string
	IsDeleted       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Key identifies the position this transaction folds into.
func (t StockTransaction) Key() PositionKey {
	return PositionKey{Ticker: t.Ticker, Market: t.Market}
}

// normalizeTicker uppercases and trims a ticker the way append/update requires.
func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// isTaiwanCostFloor reports whether the Taiwan-stock cost-floor rule applies:
// tickers that start with a digit (e.g. "2330").
func isTaiwanCostFloor(ticker string) bool {
	return len(ticker) > 0 && ticker[0] >= '0' && ticker[0] <= '9'
}

// TotalCostSource returns shares*price+fees in the transaction's own currency,
// applying the Taiwan floor rule to the shares*price term for digit-leading
// tickers. The floor rule does not extend to fees.
func (t StockTransaction) TotalCostSource() decimal.Decimal {
	gross := t.Shares.Decimal().Mul(t.PricePerShare)
	if isTaiwanCostFloor(t.Ticker) {
		gross = gross.Floor()
	}
	return gross.Add(t.Fees)
}

// TotalCostHome converts TotalCostSource using the transaction's stored exchange rate.
func (t StockTransaction) TotalCostHome() decimal.Decimal {
	return t.TotalCostSource().Mul(t.ExchangeRate)
}

// Validate checks the structural invariants §3 assigns to a StockTransaction,
// normalizing the ticker as a side effect. today is injected so callers (and
// tests) control the "today+1" boundary instead of reading the wall clock here.
func (t *StockTransaction) Validate(today date.Date) error {
	t.Ticker = normalizeTicker(t.Ticker)
	if t.Ticker == "" {
		return businessRulef("ticker is required")
	}
	if !t.Shares.IsPositive() {
		return businessRulef("shares must be > 0, got %s", t.Shares)
	}
	if t.PricePerShare.IsNegative() {
		return businessRulef("price must be >= 0, got %s", t.PricePerShare)
	}
	if !t.ExchangeRate.IsPositive() {
		return businessRulef("exchangeRate must be > 0, got %s", t.ExchangeRate)
	}
	if t.Fees.IsNegative() {
		return businessRulef("fees must be >= 0, got %s", t.Fees)
	}
	if t.Date.After(today.Add(1)) {
		return businessRulef("date %s is more than one day in the future", t.Date)
	}
	return nil
}
