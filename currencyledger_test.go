package assetbook

import (
	"testing"

	"github.com/chiaying/assetbook/date"
	"github.com/shopspring/decimal"
)

func TestPreviewRateLIFOEstablishesRate(t *testing.T) {
	ledger := CurrencyLedger{ID: "l1", CurrencyCode: "USD", HomeCurrency: "TWD"}
	txs := []CurrencyTransaction{
		{Type: InitialBalance, Date: date.MustParse("2026-1-1"), ForeignAmount: decimal.NewFromInt(1000), HomeAmount: homeAmt(30000)},
		{Type: ExchangeBuy, Date: date.MustParse("2026-1-2"), ForeignAmount: decimal.NewFromInt(500), HomeAmount: homeAmt(15500)},
	}

	preview, err := ledger.PreviewRate(txs, date.MustParse("2026-2-1"), decimal.NewFromInt(1200), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if preview.Source != RateLIFO {
		t.Fatalf("got source %v, want lifo", preview.Source)
	}
	want := decimal.RequireFromString("36500").Div(decimal.NewFromInt(1200))
	if !preview.Rate.Round(8).Equal(want.Round(8)) {
		t.Fatalf("got rate %v, want %v (30.4166...)", preview.Rate, want)
	}
}

func TestPreviewRateBlendedWhenShort(t *testing.T) {
	ledger := CurrencyLedger{ID: "l1", CurrencyCode: "USD", HomeCurrency: "TWD"}
	// InitialBalance 200@30, ExchangeBuy 200@31 leaves balance=400 with layers
	// [(200@30),(200@31)], matching spec's "balance 400, layers [(200@31),(200@30)]" state.
	txs := []CurrencyTransaction{
		{Type: InitialBalance, Date: date.MustParse("2026-1-1"), ForeignAmount: decimal.NewFromInt(200), HomeAmount: homeAmt(6000)},
		{Type: ExchangeBuy, Date: date.MustParse("2026-1-2"), ForeignAmount: decimal.NewFromInt(200), HomeAmount: homeAmt(6200)},
	}
	market := decimal.RequireFromString("32.5")

	preview, err := ledger.PreviewRate(txs, date.MustParse("2026-2-1"), decimal.NewFromInt(1000), &market)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if preview.Source != RateBlended {
		t.Fatalf("got source %v, want blended", preview.Source)
	}
	if !preview.LIFOPortion.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("got lifoPortion %v, want 400", preview.LIFOPortion)
	}
	if !preview.MarketPortion.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("got marketPortion %v, want 600", preview.MarketPortion)
	}
	want := decimal.RequireFromString("31.7")
	if !preview.Rate.Round(4).Equal(want) {
		t.Fatalf("got rate %v, want 31.7", preview.Rate)
	}
}

func TestPreviewRateMarketOnlyWhenNoLIFODepth(t *testing.T) {
	ledger := CurrencyLedger{ID: "l1", CurrencyCode: "USD", HomeCurrency: "TWD"}
	market := decimal.NewFromInt(32)
	preview, err := ledger.PreviewRate(nil, date.MustParse("2026-1-1"), decimal.NewFromInt(100), &market)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if preview.Source != RateMarket || !preview.Rate.Equal(market) {
		t.Fatalf("got %v/%v, want market/32", preview.Source, preview.Rate)
	}
}

func TestPreviewRateUnavailableWithoutLIFOOrMarket(t *testing.T) {
	ledger := CurrencyLedger{ID: "l1", CurrencyCode: "USD", HomeCurrency: "TWD"}
	if _, err := ledger.PreviewRate(nil, date.MustParse("2026-1-1"), decimal.NewFromInt(100), nil); err == nil {
		t.Fatal("expected an error when neither LIFO depth nor market rate is available")
	} else if KindOf(err) != ExchangeRateUnavailable {
		t.Fatalf("got kind %v, want ExchangeRateUnavailable", KindOf(err))
	}
}

func TestApplyBalanceActionNoneRejectsShortfall(t *testing.T) {
	ledger := CurrencyLedger{ID: "l1", CurrencyCode: "USD", HomeCurrency: "TWD"}
	txs := []CurrencyTransaction{
		{Type: InitialBalance, Date: date.MustParse("2026-1-1"), ForeignAmount: decimal.NewFromInt(100), HomeAmount: homeAmt(3000)},
	}
	_, err := ledger.ApplyBalanceAction(txs, date.MustParse("2026-1-2"), decimal.NewFromInt(150), BalanceNone, "", nil)
	if err == nil {
		t.Fatal("expected insufficient-balance error")
	}
}

func TestApplyBalanceActionMarginAllowsNegativeWithoutTopUp(t *testing.T) {
	ledger := CurrencyLedger{ID: "l1", CurrencyCode: "USD", HomeCurrency: "TWD"}
	txs := []CurrencyTransaction{
		{Type: InitialBalance, Date: date.MustParse("2026-1-1"), ForeignAmount: decimal.NewFromInt(100), HomeAmount: homeAmt(3000)},
	}
	topUp, err := ledger.ApplyBalanceAction(txs, date.MustParse("2026-1-2"), decimal.NewFromInt(150), BalanceMargin, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if topUp != nil {
		t.Fatal("expected no synthesized top-up under Margin")
	}
}

func TestApplyBalanceActionTopUpSynthesizesShortfall(t *testing.T) {
	ledger := CurrencyLedger{ID: "l1", CurrencyCode: "USD", HomeCurrency: "TWD"}
	txs := []CurrencyTransaction{
		{Type: InitialBalance, Date: date.MustParse("2026-1-1"), ForeignAmount: decimal.NewFromInt(100), HomeAmount: homeAmt(3000)},
	}
	topUp, err := ledger.ApplyBalanceAction(txs, date.MustParse("2026-1-2"), decimal.NewFromInt(150), BalanceTopUp, Deposit, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if topUp == nil || !topUp.ForeignAmount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("got %v, want a 50-unit top-up", topUp)
	}
}

func TestApplyBalanceActionTopUpViaExchangeBuyRequiresMarketRate(t *testing.T) {
	ledger := CurrencyLedger{ID: "l1", CurrencyCode: "USD", HomeCurrency: "TWD"}
	_, err := ledger.ApplyBalanceAction(nil, date.MustParse("2026-1-2"), decimal.NewFromInt(150), BalanceTopUp, ExchangeBuy, nil)
	if err == nil {
		t.Fatal("expected error: ExchangeBuy top-up requires a market rate")
	}
}

func TestIsHomeLedgerForcesRateOne(t *testing.T) {
	ledger := CurrencyLedger{CurrencyCode: "TWD", HomeCurrency: "TWD"}
	if !ledger.IsHomeLedger() {
		t.Fatal("expected home ledger")
	}
	tx := CurrencyTransaction{Type: Deposit, ForeignAmount: decimal.NewFromInt(100)}
	if err := tx.Validate(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.ExchangeRate == nil || !tx.ExchangeRate.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("got rate %v, want forced 1", tx.ExchangeRate)
	}
}
