package assetbook

import (
	"testing"
	"time"

	"github.com/chiaying/assetbook/date"
	"github.com/shopspring/decimal"
)

func newBuy(ticker string, on date.Date, shares, price decimal.Decimal, seq int) StockTransaction {
	return StockTransaction{
		ID:            "t",
		Ticker:        ticker,
		Market:        MarketUS,
		Type:          StockBuy,
		Date:          on,
		Shares:        Q(shares),
		PricePerShare: price,
		ExchangeRate:  decimal.NewFromInt(1),
		Currency:      "USD",
		CreatedAt:     time.Unix(int64(seq), 0),
	}
}

func newSell(ticker string, on date.Date, shares, price decimal.Decimal, seq int) StockTransaction {
	t := newBuy(ticker, on, shares, price, seq)
	t.Type = StockSell
	return t
}

func TestRecalculatePositionsSingleBuy(t *testing.T) {
	txs := []StockTransaction{
		newBuy("AAPL", date.MustParse("2026-1-1"), decimal.NewFromInt(10), decimal.NewFromInt(100), 1),
	}
	positions := RecalculatePositions(txs, nil, "USD")
	pos := positions[PositionKey{Ticker: "AAPL", Market: MarketUS}]
	if !pos.TotalShares.Equal(Q(10)) {
		t.Fatalf("got %v shares, want 10", pos.TotalShares)
	}
	if !pos.TotalCostHome.Equal(M(1000, "USD")) {
		t.Fatalf("got cost %v, want 1000 USD", pos.TotalCostHome)
	}
}

func TestRecalculatePositionsSellReducesByWAC(t *testing.T) {
	// Buy 10 @ 100, buy 10 @ 200 => WAC = 150. Sell 5 @ 300.
	txs := []StockTransaction{
		newBuy("AAPL", date.MustParse("2026-1-1"), decimal.NewFromInt(10), decimal.NewFromInt(100), 1),
		newBuy("AAPL", date.MustParse("2026-1-2"), decimal.NewFromInt(10), decimal.NewFromInt(200), 2),
		newSell("AAPL", date.MustParse("2026-1-3"), decimal.NewFromInt(5), decimal.NewFromInt(300), 3),
	}
	positions := RecalculatePositions(txs, nil, "USD")
	pos := positions[PositionKey{Ticker: "AAPL", Market: MarketUS}]

	if !pos.TotalShares.Equal(Q(15)) {
		t.Fatalf("got %v shares, want 15", pos.TotalShares)
	}
	// cost was 3000, WAC=150, sell 5 reduces cost by 750 -> 2250
	if !pos.TotalCostHome.Equal(M(2250, "USD")) {
		t.Fatalf("got cost %v, want 2250 USD", pos.TotalCostHome)
	}
	// proceeds 1500, cost reduction 750, realized 750
	if !pos.RealizedHome.Equal(M(750, "USD")) {
		t.Fatalf("got realized %v, want 750 USD", pos.RealizedHome)
	}
}

func TestRecalculatePositionsIgnoresDeleted(t *testing.T) {
	deletedBuy := newBuy("AAPL", date.MustParse("2026-1-1"), decimal.NewFromInt(10), decimal.NewFromInt(100), 1)
	deletedBuy.IsDeleted = true
	txs := []StockTransaction{
		deletedBuy,
		newBuy("AAPL", date.MustParse("2026-1-2"), decimal.NewFromInt(5), decimal.NewFromInt(100), 2),
	}
	positions := RecalculatePositions(txs, nil, "USD")
	pos := positions[PositionKey{Ticker: "AAPL", Market: MarketUS}]
	if !pos.TotalShares.Equal(Q(5)) {
		t.Fatalf("got %v shares, want 5 (deleted buy excluded)", pos.TotalShares)
	}
}

func TestPositionAverageCostPerShareUndefinedWhenZeroShares(t *testing.T) {
	pos := Position{TotalShares: Q(0), TotalCostHome: M(0, "USD")}
	if _, ok := pos.AverageCostPerShareHome(); ok {
		t.Fatal("expected undefined average cost at zero shares")
	}
}

func TestHoldingKeysExcludesClosedPositions(t *testing.T) {
	txs := []StockTransaction{
		newBuy("AAPL", date.MustParse("2026-1-1"), decimal.NewFromInt(10), decimal.NewFromInt(100), 1),
		newSell("AAPL", date.MustParse("2026-1-2"), decimal.NewFromInt(10), decimal.NewFromInt(100), 2),
		newBuy("MSFT", date.MustParse("2026-1-1"), decimal.NewFromInt(5), decimal.NewFromInt(100), 3),
	}
	positions := RecalculatePositions(txs, nil, "USD")
	keys := HoldingKeys(positions)
	if len(keys) != 1 || keys[0].Ticker != "MSFT" {
		t.Fatalf("got %v, want only MSFT (AAPL fully closed)", keys)
	}
}

func TestRecalculatePositionsAppliesSplitAdjustment(t *testing.T) {
	splits := []StockSplit{
		{Symbol: "AAPL", Market: MarketUS, SplitDate: date.MustParse("2026-2-1"), Ratio: decimal.NewFromInt(2)},
	}
	txs := []StockTransaction{
		newBuy("AAPL", date.MustParse("2026-1-1"), decimal.NewFromInt(10), decimal.NewFromInt(100), 1),
	}
	positions := RecalculatePositions(txs, splits, "USD")
	pos := positions[PositionKey{Ticker: "AAPL", Market: MarketUS}]
	if !pos.TotalShares.Equal(Q(20)) {
		t.Fatalf("got %v shares, want 20 after 2:1 split", pos.TotalShares)
	}
}

func TestTaiwanCostFloorAppliesOnlyToShareCost(t *testing.T) {
	tx := StockTransaction{
		Ticker:        "2330",
		Shares:        Q(decimal.RequireFromString("1.5")),
		PricePerShare: decimal.RequireFromString("10.33"),
		Fees:          decimal.RequireFromString("0.75"),
	}
	// 1.5 * 10.33 = 15.495 -> floored to 15, + fees 0.75 = 15.75
	if got := tx.TotalCostSource(); !got.Equal(decimal.RequireFromString("15.75")) {
		t.Fatalf("got %v, want 15.75", got)
	}
}
