package assetbook

import (
	"github.com/chiaying/assetbook/date"
	"github.com/shopspring/decimal"
)

// StockSplit is a globally-shared corporate action: a ratio applied to every
// historical share count recorded for {symbol, market} before splitDate.
type StockSplit struct {
	ID          string
	Symbol      string
	Market      StockMarket
	SplitDate   date.Date
	Ratio       decimal.Decimal
	Description string
}

// adjustedShares multiplies raw shares by the product of every split ratio
// whose SplitDate is strictly after txDate — splits that happened after the
// transaction inflate (or deflate) the historical share count. Cost basis is
// never touched by this projection.
func adjustedShares(splits []StockSplit, symbol string, market StockMarket, txDate date.Date, shares Quantity) Quantity {
	factor := decimal.NewFromInt(1)
	for _, s := range splits {
		if s.Symbol != symbol || s.Market != market {
			continue
		}
		if s.SplitDate.After(txDate) {
			factor = factor.Mul(s.Ratio)
		}
	}
	if factor.Equal(decimal.NewFromInt(1)) {
		return shares
	}
	return Quantity{value: shares.value.Mul(factor)}
}
