package assetbook

import (
	"context"
	"math"
	"testing"

	"github.com/chiaying/assetbook/date"
	"github.com/shopspring/decimal"
)

func TestSimpleReturnWithPositiveStart(t *testing.T) {
	start := decimal.NewFromInt(1000)
	end := decimal.NewFromInt(1200)
	contrib := decimal.NewFromInt(100)
	got := simpleReturn(start, end, contrib)
	// (1200-1000-100)/1000*100 = 10
	if !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("got %v, want 10", got)
	}
}

func TestModifiedDietzNoFlows(t *testing.T) {
	start := decimal.NewFromInt(1000)
	end := decimal.NewFromInt(1100)
	got := modifiedDietz(start, end, decimal.Zero, 365, nil)
	if !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("got %v, want 10", got)
	}
}

func TestModifiedDietzWeightsMidPeriodFlow(t *testing.T) {
	start := decimal.NewFromInt(1000)
	end := decimal.NewFromInt(1300)
	contrib := decimal.NewFromInt(200)
	flows := []weightedFlow{{amount: decimal.NewFromInt(200), daysRemaining: 182}}
	got := modifiedDietz(start, end, contrib, 365, flows)
	// denom = 1000 + 200*182/365 = 1099.726..., numerator = 1300-1000-200 = 100
	want := decimal.NewFromInt(100).Div(decimal.NewFromInt(1000).Add(
		decimal.NewFromInt(200).Mul(decimal.NewFromInt(182)).Div(decimal.NewFromInt(365)))).Mul(decimal.NewFromInt(100))
	if !got.Round(6).Equal(want.Round(6)) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTimeWeightedReturnSameDayFactorAppliedOnce(t *testing.T) {
	portfolioID := "p1"
	day := date.MustParse("2026-1-1")
	snapshots := []TransactionPortfolioSnapshot{
		{PortfolioID: portfolioID, TransactionID: "tx1", SnapshotDate: day, ValueBeforeSource: M(1000, "USD"), ValueAfterSource: M(2000, "USD")},
		{PortfolioID: portfolioID, TransactionID: "tx2", SnapshotDate: day, ValueBeforeSource: M(2000, "USD"), ValueAfterSource: M(2000, "USD")},
	}
	period := date.YearRange(2026)
	got := timeWeightedReturn(portfolioID, snapshots, period)
	// single factor of 2000/1000 = 2.0 -> +100%
	if !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("got %v%%, want 100%% (factor of 2.0 applied exactly once)", got)
	}
}

func TestTimeWeightedReturnMultipleDaysCompound(t *testing.T) {
	portfolioID := "p1"
	snapshots := []TransactionPortfolioSnapshot{
		{PortfolioID: portfolioID, SnapshotDate: date.MustParse("2026-1-1"), ValueBeforeSource: M(1000, "USD"), ValueAfterSource: M(1100, "USD")},
		{PortfolioID: portfolioID, SnapshotDate: date.MustParse("2026-6-1"), ValueBeforeSource: M(1100, "USD"), ValueAfterSource: M(1210, "USD")},
	}
	period := date.YearRange(2026)
	got := timeWeightedReturn(portfolioID, snapshots, period)
	// 1.1 * 1.1 = 1.21 -> +21%
	if !got.Round(2).Equal(decimal.NewFromFloat(21.0)) {
		t.Fatalf("got %v%%, want 21%%", got)
	}
}

type fixedValuer struct {
	startSource, endSource Money
	startHome, endHome     Money
}

func (v fixedValuer) ValueAt(ctx context.Context, portfolioID string, on date.Date) (Money, Money, []MissingPrice, error) {
	period := date.YearRange(on.Year())
	if on == period.From {
		return v.startSource, v.startHome, nil, nil
	}
	return v.endSource, v.endHome, nil, nil
}

func TestYearPerformanceForPortfolioComputesXIRR(t *testing.T) {
	valuer := fixedValuer{
		startSource: M(1000, "USD"), endSource: M(1100, "USD"),
		startHome: M(30000, "TWD"), endHome: M(33000, "TWD"),
	}
	perf, err := YearPerformanceForPortfolio(context.Background(), "p1", 2025, nil, nil, nil, valuer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if perf.XIRRSource == nil {
		t.Fatal("expected an XIRR to be computed from start/end value flows")
	}
	if math.Abs(*perf.XIRRSource-0.10) > 1e-2 {
		t.Fatalf("got xirr %v, want ~0.10", *perf.XIRRSource)
	}
}

func TestAggregateAcrossPortfoliosSumsValuesAndUnionsFlows(t *testing.T) {
	results := map[string]YearPerformance{
		"a": {PortfolioID: "a", StartValueHome: M(1000, "TWD"), EndValueHome: M(1100, "TWD")},
		"b": {PortfolioID: "b", StartValueHome: M(2000, "TWD"), EndValueHome: M(2300, "TWD")},
	}
	compute := func(ctx context.Context, portfolioID string) (YearPerformance, error) {
		return results[portfolioID], nil
	}
	agg, err := AggregateAcrossPortfolios(context.Background(), []string{"a", "b"}, 2026, "TWD", compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !agg.StartValueHome.Equal(M(3000, "TWD")) {
		t.Fatalf("got start %v, want 3000 TWD", agg.StartValueHome)
	}
	if !agg.EndValueHome.Equal(M(3400, "TWD")) {
		t.Fatalf("got end %v, want 3400 TWD", agg.EndValueHome)
	}
	if len(agg.PerPortfolio) != 2 {
		t.Fatalf("got %d per-portfolio results, want 2", len(agg.PerPortfolio))
	}
	if agg.XIRRHome == nil {
		t.Fatal("expected an aggregate XIRR over the unioned start/end cash flows")
	}
}

func TestAggregateAcrossPortfoliosPropagatesError(t *testing.T) {
	compute := func(ctx context.Context, portfolioID string) (YearPerformance, error) {
		return YearPerformance{}, notFoundf("boom")
	}
	if _, err := AggregateAcrossPortfolios(context.Background(), []string{"a"}, 2026, "TWD", compute); err == nil {
		t.Fatal("expected the per-portfolio error to propagate")
	}
}

func TestAggregateAcrossPortfoliosCollectsMissingPrices(t *testing.T) {
	compute := func(ctx context.Context, portfolioID string) (YearPerformance, error) {
		return YearPerformance{PortfolioID: portfolioID, MissingPrices: []MissingPrice{{Ticker: "AAPL"}}}, nil
	}
	agg, err := AggregateAcrossPortfolios(context.Background(), []string{"a"}, 2026, "TWD", compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agg.MissingPrices) != 1 {
		t.Fatalf("got %d missing prices, want 1", len(agg.MissingPrices))
	}
}

func TestAggregateAvailableYearsUnionsAcrossPortfolios(t *testing.T) {
	earliest := []date.Date{date.MustParse("2021-3-15"), date.MustParse("2019-11-1")}
	today := date.MustParse("2026-7-31")
	years := AggregateAvailableYears(earliest, today)
	want := []int{2026, 2025, 2024, 2023, 2022, 2021, 2020, 2019}
	if len(years) != len(want) {
		t.Fatalf("got %v, want %v", years, want)
	}
	for i := range want {
		if years[i] != want[i] {
			t.Fatalf("got %v, want %v", years, want)
		}
	}
}
