package assetbook

import (
	"context"
	"testing"

	"github.com/chiaying/assetbook/date"
	"github.com/shopspring/decimal"
)

type stubQuoter struct {
	prices map[string]decimal.Decimal
	rates  map[string]decimal.Decimal
}

func (q stubQuoter) Quote(ctx context.Context, ticker string, market StockMarket, on date.Date) (decimal.Decimal, string, bool, error) {
	p, ok := q.prices[ticker]
	return p, "USD", ok, nil
}

func (q stubQuoter) Rate(ctx context.Context, from, to string, on date.Date) (decimal.Decimal, bool, error) {
	if from == to {
		return decimal.NewFromInt(1), true, nil
	}
	r, ok := q.rates[from+"->"+to]
	return r, ok, nil
}

func newTestBook() *Book {
	quoter := stubQuoter{
		prices: map[string]decimal.Decimal{"AAPL": decimal.NewFromInt(150)},
		rates:  map[string]decimal.Decimal{"USD->TWD": decimal.NewFromInt(30)},
	}
	book := NewBook("u1", quoter, quoter)
	ledger := CurrencyLedger{ID: "ledger-usd", CurrencyCode: "USD", HomeCurrency: "TWD"}
	book.Ledgers["ledger-usd"] = NewCurrencyLedgerLog(ledger)
	book.Portfolios["p1"] = Portfolio{
		ID: "p1", UserID: "u1", BaseCurrency: "USD", HomeCurrency: "TWD",
		BoundCurrencyLedgerID: "ledger-usd",
	}
	return book
}

func TestBookClosedLoopInvariantHoldsAfterBuy(t *testing.T) {
	ctx := context.Background()
	book := newTestBook()
	today := date.MustParse("2026-1-10")

	_, err := book.CreateExternalCashFlow(ctx, CurrencyTransaction{
		LedgerID: "ledger-usd", Type: InitialBalance, Date: date.MustParse("2026-1-1"),
		ForeignAmount: decimal.NewFromInt(2000), HomeAmount: homeAmt(60000), ExchangeRate: rate("30"),
	}, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	buy := StockTransaction{
		PortfolioID: "p1", Ticker: "AAPL", Market: MarketUS, Date: date.MustParse("2026-1-2"),
		Shares: Q(decimal.NewFromInt(10)), PricePerShare: decimal.NewFromInt(150), Currency: "USD",
	}
	_, _, err = book.CreateStockBuy(ctx, buy, BalanceNone, "", today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	source, _, missing, err := book.ValueAt(ctx, "p1", date.MustParse("2026-1-15"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("unexpected missing prices: %v", missing)
	}
	// 10 shares @ 150 = 1500 stock value + (2000-1500) = 500 ledger balance = 2000
	if !source.Equal(M(2000, "USD")) {
		t.Fatalf("got value %v, want 2000 USD (closed-loop invariant)", source)
	}
}

func TestBookMarginBalanceGoesNegativeWithoutFlooring(t *testing.T) {
	ctx := context.Background()
	book := newTestBook()
	today := date.MustParse("2026-1-10")

	_, err := book.CreateExternalCashFlow(ctx, CurrencyTransaction{
		LedgerID: "ledger-usd", Type: InitialBalance, Date: date.MustParse("2026-1-1"),
		ForeignAmount: decimal.NewFromInt(100), HomeAmount: homeAmt(3000), ExchangeRate: rate("30"),
	}, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	buy := StockTransaction{
		PortfolioID: "p1", Ticker: "AAPL", Market: MarketUS, Date: date.MustParse("2026-1-2"),
		Shares: Q(decimal.NewFromInt(1)), PricePerShare: decimal.NewFromInt(150), Currency: "USD",
	}
	_, _, err = book.CreateStockBuy(ctx, buy, BalanceMargin, "", today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ledgerTxs := book.Ledgers["ledger-usd"].All()
	balance := balanceAsOf(projection(ledgerTxs), date.MustParse("2026-1-2"))
	if !balance.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("got ledger balance %v, want -50 (margin allowed, unfloored)", balance)
	}

	source, _, missing, err := book.ValueAt(ctx, "p1", date.MustParse("2026-1-15"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("unexpected missing prices: %v", missing)
	}
	// 1 share @ 150 = 150 stock value + (-50) ledger balance = 100
	if !source.Equal(M(100, "USD")) {
		t.Fatalf("got value %v, want 100 USD (margin balance never floored to zero)", source)
	}
}

func TestBookDeleteStockTransactionCascadesAndRestoresBalance(t *testing.T) {
	ctx := context.Background()
	book := newTestBook()
	today := date.MustParse("2026-1-10")

	_, err := book.CreateExternalCashFlow(ctx, CurrencyTransaction{
		LedgerID: "ledger-usd", Type: InitialBalance, Date: date.MustParse("2026-1-1"),
		ForeignAmount: decimal.NewFromInt(2000), HomeAmount: homeAmt(60000), ExchangeRate: rate("30"),
	}, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	buy := StockTransaction{
		PortfolioID: "p1", Ticker: "AAPL", Market: MarketUS, Date: date.MustParse("2026-1-2"),
		Shares: Q(decimal.NewFromInt(10)), PricePerShare: decimal.NewFromInt(150), Currency: "USD",
	}
	storedBuy, _, err := book.CreateStockBuy(ctx, buy, BalanceNone, "", today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := book.DeleteStockTransaction(storedBuy.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	source, _, _, err := book.ValueAt(ctx, "p1", date.MustParse("2026-1-15"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !source.Equal(M(2000, "USD")) {
		t.Fatalf("got value %v, want 2000 USD (deletion reverts stock and ledger balance)", source)
	}
}
