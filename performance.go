package assetbook

import (
	"context"
	"sort"
	"sync"

	"github.com/chiaying/assetbook/date"
	"github.com/shopspring/decimal"
)

// PriceType distinguishes which boundary of a year a missing price applies to.
type PriceType string

const (
	PriceYearStart PriceType = "YearStart"
	PriceYearEnd   PriceType = "YearEnd"
)

// MissingPrice identifies one unresolved price or FX quote needed to close a
// performance computation.
type MissingPrice struct {
	Ticker    string
	Date      date.Date
	PriceType PriceType
}

// YearPerformance is the §4.H per-portfolio, per-year result. When
// MissingPrices is non-empty, every field other than PortfolioID and Year is
// the zero value: the
// caller must supply the missing quotes and retry.
type YearPerformance struct {
	PortfolioID      string
	Year             int
	StartValueSource, EndValueSource Money
	StartValueHome, EndValueHome     Money
	NetContributionsSource, NetContributionsHome Money
	SimpleReturnPercent   decimal.Decimal
	ModifiedDietzPercent  decimal.Decimal
	TWRPercent            decimal.Decimal
	XIRRSource, XIRRHome  *float64
	MissingPrices         []MissingPrice
	// EarliestContributionDate is the first external-cash-flow date within
	// the year, used by aggregation to place that portfolio's contribution
	// cash flow in the union XIRR series (§4.H aggregation step 2).
	EarliestContributionDate date.Date
}

// portfolioValuer is supplied by the caller (it knows how to resolve prices
// and FX, backed by the market-data cache in §4.I) and answers "what is this
// portfolio worth, in source and home currency, at this instant".
type portfolioValuer interface {
	// ValueAt returns the portfolio's value in both currencies at `on`,
	// or the MissingPrice list blocking the computation.
	ValueAt(ctx context.Context, portfolioID string, on date.Date) (source, home Money, missing []MissingPrice, err error)
}

// YearPerformanceForPortfolio computes §4.H per-year performance for one
// portfolio, reading already-persisted snapshots rather than recomputing
// each event's effect from scratch.
func YearPerformanceForPortfolio(
	ctx context.Context,
	portfolioID string,
	year int,
	snapshots []TransactionPortfolioSnapshot,
	externalFlows []CurrencyTransaction, // InitialBalance/Deposit/Withdraw only
	stockTx []StockTransaction, // Buy/Sell only, within the year
	valuer portfolioValuer,
) (YearPerformance, error) {
	period := date.YearRange(year)

	startSource, startHome, missingStart, err := valuer.ValueAt(ctx, portfolioID, period.From)
	if err != nil {
		return YearPerformance{}, err
	}
	endSource, endHome, missingEnd, err := valuer.ValueAt(ctx, portfolioID, period.To)
	if err != nil {
		return YearPerformance{}, err
	}
	if len(missingStart) > 0 || len(missingEnd) > 0 {
		return YearPerformance{
			PortfolioID:   portfolioID,
			Year:          year,
			MissingPrices: append(missingStart, missingEnd...),
		}, nil
	}

	contribSource, contribHome := M(0, startSource.Currency()), M(0, startHome.Currency())
	var flowsSource []weightedFlow
	var earliestFlow date.Date
	for _, f := range externalFlows {
		if !f.IsExternalCashFlow() || !period.Contains(f.Date) {
			continue
		}
		if earliestFlow.IsZero() || f.Date.Before(earliestFlow) {
			earliestFlow = f.Date
		}
		signed := f.SignedForeign()
		contribSource = contribSource.Add(Money{value: signed, cur: startSource.Currency()})
		if f.HomeAmount != nil {
			signedHome := *f.HomeAmount
			if !f.Type.IsCredit() {
				signedHome = signedHome.Neg()
			}
			contribHome = contribHome.Add(Money{value: signedHome, cur: startHome.Currency()})
		}
		t := period.To.Sub(f.Date)
		flowsSource = append(flowsSource, weightedFlow{amount: signed, daysRemaining: t})
	}

	var xirrFlows, xirrHomeFlows []CashFlow
	if startSource.IsPositive() {
		xirrFlows = append(xirrFlows, CashFlow{Amount: toFloat(startSource.Decimal().Neg()), Date: period.From})
	}
	if startHome.IsPositive() {
		xirrHomeFlows = append(xirrHomeFlows, CashFlow{Amount: toFloat(startHome.Decimal().Neg()), Date: period.From})
	}
	for _, t := range stockTx {
		if !period.Contains(t.Date) {
			continue
		}
		switch t.Type {
		case StockBuy:
			xirrFlows = append(xirrFlows, CashFlow{Amount: -toFloat(t.TotalCostSource()), Date: t.Date})
			xirrHomeFlows = append(xirrHomeFlows, CashFlow{Amount: -toFloat(t.TotalCostHome()), Date: t.Date})
		case StockSell:
			xirrFlows = append(xirrFlows, CashFlow{Amount: toFloat(t.TotalCostSource()), Date: t.Date})
			xirrHomeFlows = append(xirrHomeFlows, CashFlow{Amount: toFloat(t.TotalCostHome()), Date: t.Date})
		}
	}
	if endSource.IsPositive() {
		xirrFlows = append(xirrFlows, CashFlow{Amount: toFloat(endSource.Decimal()), Date: period.To})
	}
	if endHome.IsPositive() {
		xirrHomeFlows = append(xirrHomeFlows, CashFlow{Amount: toFloat(endHome.Decimal()), Date: period.To})
	}

	var xirrSourcePtr, xirrHomePtr *float64
	if r, ok := XIRR(xirrFlows); ok {
		xirrSourcePtr = &r
	}
	if r, ok := XIRR(xirrHomeFlows); ok {
		xirrHomePtr = &r
	}

	simple := simpleReturn(startSource.Decimal(), endSource.Decimal(), contribSource.Decimal())
	dietz := modifiedDietz(startSource.Decimal(), endSource.Decimal(), contribSource.Decimal(), period.Days(), flowsSource)
	twr := timeWeightedReturn(portfolioID, snapshots, period)

	return YearPerformance{
		PortfolioID:             portfolioID,
		Year:                    year,
		StartValueSource:        startSource,
		EndValueSource:          endSource,
		StartValueHome:          startHome,
		EndValueHome:            endHome,
		NetContributionsSource:  contribSource,
		NetContributionsHome:    contribHome,
		SimpleReturnPercent:     simple,
		ModifiedDietzPercent:    dietz,
		TWRPercent:              twr,
		EarliestContributionDate: earliestFlow,
		XIRRSource:              xirrSourcePtr,
		XIRRHome:                xirrHomePtr,
	}, nil
}

type weightedFlow struct {
	amount        decimal.Decimal
	daysRemaining int
}

func simpleReturn(start, end, contrib decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	if start.IsPositive() {
		return end.Sub(start).Sub(contrib).Div(start).Mul(hundred)
	}
	if !contrib.IsZero() {
		return end.Sub(contrib).Div(contrib).Mul(hundred)
	}
	return decimal.Zero
}

// modifiedDietz implements §4.H step 7: (E-S-C) / (S + Σ C_i*(T-t_i)/T).
func modifiedDietz(start, end, contrib decimal.Decimal, periodDays int, flows []weightedFlow) decimal.Decimal {
	if periodDays == 0 {
		return decimal.Zero
	}
	T := decimal.NewFromInt(int64(periodDays))
	weighted := decimal.Zero
	for _, f := range flows {
		weighted = weighted.Add(f.amount.Mul(decimal.NewFromInt(int64(f.daysRemaining))).Div(T))
	}
	denominator := start.Add(weighted)
	if denominator.IsZero() {
		return decimal.Zero
	}
	return end.Sub(start).Sub(contrib).Div(denominator).Mul(decimal.NewFromInt(100))
}

// timeWeightedReturn implements §4.H step 8: the geometric product of each
// chain-normalized snapshot's return factor within the period, minus 1.
// Values are already normalized by the snapshot store, so same-day events
// contribute exactly one factor.
func timeWeightedReturn(portfolioID string, snapshots []TransactionPortfolioSnapshot, period date.Range) decimal.Decimal {
	var in []TransactionPortfolioSnapshot
	for _, s := range snapshots {
		if s.PortfolioID == portfolioID && period.Contains(s.SnapshotDate) {
			in = append(in, s)
		}
	}
	sort.Slice(in, func(i, j int) bool {
		if in[i].SnapshotDate != in[j].SnapshotDate {
			return in[i].SnapshotDate.Before(in[j].SnapshotDate)
		}
		return in[i].CreatedAt.Before(in[j].CreatedAt)
	})

	const epsilon = "0.0000001"
	eps, _ := decimal.NewFromString(epsilon)
	product := decimal.NewFromInt(1)
	for _, s := range in {
		before := s.ValueBeforeSource.Decimal()
		if before.LessThanOrEqual(decimal.Zero) {
			before = eps
		}
		factor := s.ValueAfterSource.Decimal().Div(before)
		product = product.Mul(factor)
	}
	return product.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// AggregatePerformance combines per-portfolio YearPerformance results per
// §4.H's aggregation rules: summed start/end/contributions, a unioned XIRR
// cash-flow series, Modified Dietz on the aggregate, and a value-weighted
// average TWR.
type AggregatePerformance struct {
	Year                    int
	StartValueHome, EndValueHome Money
	NetContributionsHome    Money
	XIRRHome                *float64
	ModifiedDietzPercent    decimal.Decimal
	TWRPercent              decimal.Decimal
	PerPortfolio            []YearPerformance
	MissingPrices           []MissingPrice
}

// AggregateAcrossPortfolios fans out YearPerformanceForPortfolio across
// portfolios with bounded concurrency (one goroutine per portfolio; the
// household typically has under ten), then recombines with no shared
// mutable state — each worker only returns its own result.
func AggregateAcrossPortfolios(
	ctx context.Context,
	portfolioIDs []string,
	year int,
	homeCurrency string,
	compute func(ctx context.Context, portfolioID string) (YearPerformance, error),
) (AggregatePerformance, error) {
	results := make([]YearPerformance, len(portfolioIDs))
	errs := make([]error, len(portfolioIDs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, len(portfolioIDs))
	for i, id := range portfolioIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i], errs[i] = compute(ctx, id)
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return AggregatePerformance{}, err
		}
	}

	agg := AggregatePerformance{Year: year}
	agg.StartValueHome, agg.EndValueHome = M(0, homeCurrency), M(0, homeCurrency)
	agg.NetContributionsHome = M(0, homeCurrency)

	var xirrFlows []CashFlow
	var dietzFlows []weightedFlow
	var twrWeighted, twrWeight decimal.Decimal
	period := date.YearRange(year)

	for _, r := range results {
		if len(r.MissingPrices) > 0 {
			agg.MissingPrices = append(agg.MissingPrices, r.MissingPrices...)
			continue
		}
		agg.PerPortfolio = append(agg.PerPortfolio, r)
		agg.StartValueHome = agg.StartValueHome.Add(r.StartValueHome)
		agg.EndValueHome = agg.EndValueHome.Add(r.EndValueHome)
		agg.NetContributionsHome = agg.NetContributionsHome.Add(r.NetContributionsHome)

		if r.StartValueHome.IsPositive() {
			xirrFlows = append(xirrFlows, CashFlow{Amount: -toFloat(r.StartValueHome.Decimal()), Date: period.From})
		}
		if !r.NetContributionsHome.IsZero() {
			contribDate := r.EarliestContributionDate
			if contribDate.IsZero() {
				contribDate = period.From.Add(1)
			}
			xirrFlows = append(xirrFlows, CashFlow{Amount: -toFloat(r.NetContributionsHome.Decimal()), Date: contribDate})
			dietzFlows = append(dietzFlows, weightedFlow{
				amount:        r.NetContributionsHome.Decimal(),
				daysRemaining: period.To.Sub(contribDate),
			})
		}
		if r.EndValueHome.IsPositive() {
			xirrFlows = append(xirrFlows, CashFlow{Amount: toFloat(r.EndValueHome.Decimal()), Date: period.To})
		}

		weight := r.StartValueHome.Decimal()
		if weight.IsZero() {
			weight = r.EndValueHome.Decimal()
		}
		twrWeighted = twrWeighted.Add(r.TWRPercent.Mul(weight))
		twrWeight = twrWeight.Add(weight)
	}

	if len(agg.MissingPrices) > 0 {
		return agg, nil
	}

	if r, ok := XIRR(xirrFlows); ok {
		agg.XIRRHome = &r
	}
	agg.ModifiedDietzPercent = modifiedDietz(
		agg.StartValueHome.Decimal(), agg.EndValueHome.Decimal(), agg.NetContributionsHome.Decimal(),
		period.Days(), dietzFlows)
	if twrWeight.IsPositive() {
		agg.TWRPercent = twrWeighted.Div(twrWeight)
	}
	return agg, nil
}

// AggregateAvailableYears returns the descending union of years from each
// portfolio's earliest transaction date through the current year.
func AggregateAvailableYears(earliestDates []date.Date, today date.Date) []int {
	currentYear := today.Year()
	minYear := currentYear
	for _, d := range earliestDates {
		if d.IsZero() {
			continue
		}
		if d.Year() < minYear {
			minYear = d.Year()
		}
	}
	years := make([]int, 0, currentYear-minYear+1)
	for y := currentYear; y >= minYear; y-- {
		years = append(years, y)
	}
	return years
}
