package assetbook

import (
	"context"
	"sort"

	"github.com/chiaying/assetbook/date"
	"github.com/shopspring/decimal"
)

// PriceQuoter resolves a security's price at a given date, in the currency
// it trades in — the interface the §4.I marketdata package satisfies for
// callers of this orchestration layer.
type PriceQuoter interface {
	Quote(ctx context.Context, ticker string, market StockMarket, on date.Date) (price decimal.Decimal, currency string, ok bool, err error)
}

// FXQuoter resolves an exchange rate between two currencies at a given date.
// Implementations treat from==to as rate 1 without being asked.
type FXQuoter interface {
	Rate(ctx context.Context, from, to string, on date.Date) (rate decimal.Decimal, ok bool, err error)
}

// Book is one user's complete ledger state: the portfolios they own, the
// shared stock transaction log, one CurrencyLedgerLog per currency ledger,
// the global split table, and the derived snapshot store. It is the single
// entry point binding §4.D-G together the way a production deployment would
// wrap them in one request handler and one database transaction.
type Book struct {
	UserID     string
	Portfolios map[string]Portfolio
	Stocks     *TransactionLog
	Ledgers    map[string]*CurrencyLedgerLog
	Splits     []StockSplit
	Snapshots  *SnapshotStore
	Prices     PriceQuoter
	FX         FXQuoter
}

// NewBook returns an empty Book for one user.
func NewBook(userID string, prices PriceQuoter, fx FXQuoter) *Book {
	return &Book{
		UserID:     userID,
		Portfolios: make(map[string]Portfolio),
		Stocks:     NewTransactionLog(),
		Ledgers:    make(map[string]*CurrencyLedgerLog),
		Snapshots:  NewSnapshotStore(),
		Prices:     prices,
		FX:         fx,
	}
}

// resolveLedgerID returns the ledger a Buy should draw from: the one named
// explicitly on the transaction, or the portfolio's bound ledger.
func resolveLedgerID(buy StockTransaction, portfolio Portfolio) string {
	if buy.CurrencyLedgerID != "" {
		return buy.CurrencyLedgerID
	}
	return portfolio.BoundCurrencyLedgerID
}

// CreateStockBuy performs the full §6 create-stock-transaction flow for a
// Buy: it resolves the effective exchange rate per §4.E, applies the
// requested BalanceAction (inserting a TopUp transaction first if needed),
// creates the linked Spend, and upserts the resulting snapshots. A Buy with
// no bound ledger keeps the caller-supplied exchange rate (e.g. funded from
// an account outside this system) as long as it is already positive.
func (b *Book) CreateStockBuy(
	ctx context.Context, buy StockTransaction, action BalanceAction,
	topUpType CurrencyTransactionType, today date.Date,
) (StockTransaction, *CurrencyTransaction, error) {
	portfolio, ok := b.Portfolios[buy.PortfolioID]
	if !ok {
		return StockTransaction{}, nil, notFoundf("portfolio %q not found", buy.PortfolioID)
	}
	buy.Type = StockBuy

	ledgerID := resolveLedgerID(buy, portfolio)
	if ledgerID == "" {
		stored, err := b.Stocks.Append(buy, today)
		if err != nil {
			return StockTransaction{}, nil, err
		}
		b.upsertStockSnapshot(ctx, portfolio, stored)
		return stored, nil, nil
	}

	ledgerLog, ok := b.Ledgers[ledgerID]
	if !ok {
		return StockTransaction{}, nil, notFoundf("currency ledger %q not found", ledgerID)
	}
	if buy.Currency != ledgerLog.Ledger.CurrencyCode {
		return StockTransaction{}, nil, businessRulef(
			"stock transaction currency %q does not match bound ledger currency %q", buy.Currency, ledgerLog.Ledger.CurrencyCode)
	}

	cost := buy.TotalCostSource()
	txs := ledgerLog.All()

	marketRate, err := b.marketRate(ctx, ledgerLog.Ledger.CurrencyCode, ledgerLog.Ledger.HomeCurrency, buy.Date)
	if err != nil {
		return StockTransaction{}, nil, err
	}

	preview, err := ledgerLog.Ledger.PreviewRate(txs, buy.Date, cost, marketRate)
	if err != nil {
		return StockTransaction{}, nil, err
	}

	topUp, err := ledgerLog.Ledger.ApplyBalanceAction(txs, buy.Date, cost, action, topUpType, marketRate)
	if err != nil {
		return StockTransaction{}, nil, err
	}

	var storedTopUp *CurrencyTransaction
	if topUp != nil {
		if err := topUp.Validate(ledgerLog.Ledger.IsHomeLedger()); err != nil {
			return StockTransaction{}, nil, err
		}
		t := ledgerLog.insert(*topUp)
		storedTopUp = &t
	}

	buy.ExchangeRate = preview.Rate
	linked := &LinkedStore{Stocks: b.Stocks, Ledgers: b.Ledgers}
	storedBuy, storedSpend, err := linked.CreateLinkedBuy(buy, ledgerID, today)
	if err != nil {
		if storedTopUp != nil {
			ledgerLog.byID[storedTopUp.ID].IsDeleted = true
		}
		return StockTransaction{}, nil, err
	}

	if storedTopUp != nil {
		b.upsertCurrencyFlowSnapshot(ctx, portfolio, *storedTopUp)
	}
	b.upsertStockSnapshot(ctx, portfolio, storedBuy)
	return storedBuy, &storedSpend, nil
}

// CreateStockSell appends a Sell (no ledger linking applies to Sells: the
// proceeds flow is recorded by the caller as a separate currency
// transaction, mirroring how §4.F only closes the loop for Buys) and
// upserts the resulting snapshot.
func (b *Book) CreateStockSell(ctx context.Context, sell StockTransaction, today date.Date) (StockTransaction, error) {
	portfolio, ok := b.Portfolios[sell.PortfolioID]
	if !ok {
		return StockTransaction{}, notFoundf("portfolio %q not found", sell.PortfolioID)
	}
	sell.Type = StockSell
	stored, err := b.Stocks.Append(sell, today)
	if err != nil {
		return StockTransaction{}, err
	}
	b.upsertStockSnapshot(ctx, portfolio, stored)
	return stored, nil
}

// UpdateStockBuy mutates a linked Buy, re-deriving its Spend's amount and
// date in lock-step, then re-upserts the snapshot.
func (b *Book) UpdateStockBuy(ctx context.Context, buy StockTransaction, today date.Date) (StockTransaction, error) {
	portfolio, ok := b.Portfolios[buy.PortfolioID]
	if !ok {
		return StockTransaction{}, notFoundf("portfolio %q not found", buy.PortfolioID)
	}
	linked := &LinkedStore{Stocks: b.Stocks, Ledgers: b.Ledgers}
	stored, err := linked.UpdateLinkedBuy(buy, today)
	if err != nil {
		return StockTransaction{}, err
	}
	b.upsertStockSnapshot(ctx, portfolio, stored)
	return stored, nil
}

// DeleteStockTransaction soft-deletes a stock transaction, cascading to any
// linked Spend per §4.F.
func (b *Book) DeleteStockTransaction(id string) error {
	linked := &LinkedStore{Stocks: b.Stocks, Ledgers: b.Ledgers}
	return linked.DeleteLinkedBuy(id)
}

// marketRate resolves an FX rate for (from, to) on `on`, returning nil
// (not an error) when the quoter has no opinion, so callers can tell
// "unavailable" apart from "not needed" (e.g. from==to).
func (b *Book) marketRate(ctx context.Context, from, to string, on date.Date) (*decimal.Decimal, error) {
	if from == to {
		one := decimal.NewFromInt(1)
		return &one, nil
	}
	if b.FX == nil {
		return nil, nil
	}
	rate, ok, err := b.FX.Rate(ctx, from, to, on)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &rate, nil
}

// convert converts amount into target currency on `on`, treating a
// same-currency conversion (or an untagged zero amount) as a no-op. ok is
// false when the rate could not be resolved at all.
func (b *Book) convert(ctx context.Context, amount Money, target string, on date.Date) (Money, bool, error) {
	if amount.Currency() == target || amount.Currency() == "" {
		return Money{value: amount.Decimal(), cur: target}, true, nil
	}
	rate, err := b.marketRate(ctx, amount.Currency(), target, on)
	if err != nil {
		return Money{}, false, err
	}
	if rate == nil {
		return Money{}, false, nil
	}
	converted, err := amount.ConvertTo(target, *rate)
	return converted, true, err
}

// ValueAt implements the closed-loop invariant of §4.F:
// V_t = Σ(shares·price·fx) + ledgerBalance_home(t), in both the portfolio's
// base (source) currency and its home currency. Negative ledger balances are
// included, never floored to zero.
func (b *Book) ValueAt(ctx context.Context, portfolioID string, on date.Date) (source, home Money, missing []MissingPrice, err error) {
	return b.valueAt(ctx, portfolioID, on, "", "")
}

func (b *Book) valueAt(ctx context.Context, portfolioID string, on date.Date, excludeStockID, excludeCurrencyID string) (Money, Money, []MissingPrice, error) {
	portfolio, ok := b.Portfolios[portfolioID]
	if !ok {
		return Money{}, Money{}, nil, notFoundf("portfolio %q not found", portfolioID)
	}

	var txs []StockTransaction
	for _, t := range b.Stocks.GetByPortfolio(portfolioID, false) {
		if t.ID == excludeStockID || t.Date.After(on) {
			continue
		}
		txs = append(txs, t)
	}
	positions := RecalculatePositions(txs, b.Splits, portfolio.HomeCurrency)

	var missing []MissingPrice
	stockSource := M(0, portfolio.BaseCurrency)
	stockHome := M(0, portfolio.HomeCurrency)

	for _, key := range HoldingKeys(positions) {
		pos := positions[key]
		price, currency, ok, err := b.Prices.Quote(ctx, key.Ticker, key.Market, on)
		if err != nil {
			return Money{}, Money{}, nil, err
		}
		if !ok {
			missing = append(missing, MissingPrice{Ticker: key.Ticker, Date: on, PriceType: PriceYearEnd})
			continue
		}
		native := Money{value: pos.TotalShares.Decimal().Mul(price), cur: currency}

		toSource, ok, err := b.convert(ctx, native, portfolio.BaseCurrency, on)
		if err != nil {
			return Money{}, Money{}, nil, err
		}
		if !ok {
			missing = append(missing, MissingPrice{Ticker: key.Ticker, Date: on, PriceType: PriceYearEnd})
			continue
		}
		toHome, ok, err := b.convert(ctx, native, portfolio.HomeCurrency, on)
		if err != nil {
			return Money{}, Money{}, nil, err
		}
		if !ok {
			missing = append(missing, MissingPrice{Ticker: key.Ticker, Date: on, PriceType: PriceYearEnd})
			continue
		}
		stockSource = stockSource.Add(toSource)
		stockHome = stockHome.Add(toHome)
	}

	if portfolio.BoundCurrencyLedgerID != "" {
		if ledgerLog, ok := b.Ledgers[portfolio.BoundCurrencyLedgerID]; ok {
			var ledgerTxs []CurrencyTransaction
			for _, t := range ledgerLog.All() {
				if !t.IsDeleted && t.ID != excludeCurrencyID {
					ledgerTxs = append(ledgerTxs, t)
				}
			}
			balance := balanceAsOf(projection(ledgerTxs), on)
			bal := Money{value: balance, cur: ledgerLog.Ledger.CurrencyCode}

			if toSource, ok, err := b.convert(ctx, bal, portfolio.BaseCurrency, on); err != nil {
				return Money{}, Money{}, nil, err
			} else if ok {
				stockSource = stockSource.Add(toSource)
			}
			if toHome, ok, err := b.convert(ctx, bal, portfolio.HomeCurrency, on); err != nil {
				return Money{}, Money{}, nil, err
			} else if ok {
				stockHome = stockHome.Add(toHome)
			}
		}
	}

	if len(missing) > 0 {
		return Money{}, Money{}, missing, nil
	}
	return stockSource, stockHome, nil, nil
}

// upsertStockSnapshot records the before/after portfolio value around a
// single stock transaction: before excludes it from the projection, after
// includes it, then the snapshot store's same-day chain-normalization
// collapses any other events sharing the date.
func (b *Book) upsertStockSnapshot(ctx context.Context, portfolio Portfolio, tx StockTransaction) {
	beforeSource, beforeHome, _, err := b.valueAt(ctx, portfolio.ID, tx.Date, tx.ID, "")
	if err != nil {
		return
	}
	afterSource, afterHome, _, err := b.valueAt(ctx, portfolio.ID, tx.Date, "", "")
	if err != nil {
		return
	}
	b.Snapshots.Upsert(portfolio.ID, tx.ID, tx.Date, beforeHome, afterHome, beforeSource, afterSource)
}

// upsertCurrencyFlowSnapshot is upsertStockSnapshot's analogue for an
// external-cash-flow currency transaction (InitialBalance/Deposit/Withdraw,
// or a TopUp synthesized from one of those types) on a portfolio bound to
// the affected ledger.
func (b *Book) upsertCurrencyFlowSnapshot(ctx context.Context, portfolio Portfolio, tx CurrencyTransaction) {
	beforeSource, beforeHome, _, err := b.valueAt(ctx, portfolio.ID, tx.Date, "", tx.ID)
	if err != nil {
		return
	}
	afterSource, afterHome, _, err := b.valueAt(ctx, portfolio.ID, tx.Date, "", "")
	if err != nil {
		return
	}
	b.Snapshots.Upsert(portfolio.ID, tx.ID, tx.Date, beforeHome, afterHome, beforeSource, afterSource)
}

// CreateExternalCashFlow records an InitialBalance/Deposit/Withdraw on a
// ledger and, for every portfolio bound to that ledger, upserts the
// resulting snapshot — these are the only currency transaction types that
// count as contributions for Modified Dietz / TWR (§3, §4.F).
func (b *Book) CreateExternalCashFlow(ctx context.Context, t CurrencyTransaction, today date.Date) (CurrencyTransaction, error) {
	ledgerLog, ok := b.Ledgers[t.LedgerID]
	if !ok {
		return CurrencyTransaction{}, notFoundf("currency ledger %q not found", t.LedgerID)
	}
	if !t.IsExternalCashFlow() {
		return CurrencyTransaction{}, businessRulef("%q is not an external cash flow type", t.Type)
	}
	if err := t.Validate(ledgerLog.Ledger.IsHomeLedger()); err != nil {
		return CurrencyTransaction{}, err
	}
	stored := ledgerLog.insert(t)

	for _, portfolio := range b.Portfolios {
		if portfolio.BoundCurrencyLedgerID == ledgerLog.Ledger.ID {
			b.upsertCurrencyFlowSnapshot(ctx, portfolio, stored)
		}
	}
	return stored, nil
}

// ExchangeRatePreview answers the §6 exchange-rate-preview endpoint's
// contract for a ledger, resolving the market rate itself from FX before
// delegating to CurrencyLedger.PreviewRate.
func (b *Book) ExchangeRatePreview(ctx context.Context, ledgerID string, on date.Date, amount decimal.Decimal) (RatePreview, error) {
	ledgerLog, ok := b.Ledgers[ledgerID]
	if !ok {
		return RatePreview{}, notFoundf("currency ledger %q not found", ledgerID)
	}
	marketRate, err := b.marketRate(ctx, ledgerLog.Ledger.CurrencyCode, ledgerLog.Ledger.HomeCurrency, on)
	if err != nil {
		return RatePreview{}, err
	}
	return ledgerLog.Ledger.PreviewRate(ledgerLog.All(), on, amount, marketRate)
}

// YearPerformance computes §4.H per-year performance for one of this
// book's portfolios, reading persisted snapshots and feeding this Book
// itself as the portfolioValuer (for the year-boundary valuations).
func (b *Book) YearPerformance(ctx context.Context, portfolioID string, year int) (YearPerformance, error) {
	portfolio, ok := b.Portfolios[portfolioID]
	if !ok {
		return YearPerformance{}, notFoundf("portfolio %q not found", portfolioID)
	}

	period := date.YearRange(year)
	var externalFlows []CurrencyTransaction
	if portfolio.BoundCurrencyLedgerID != "" {
		if ledgerLog, ok := b.Ledgers[portfolio.BoundCurrencyLedgerID]; ok {
			externalFlows = ledgerLog.All()
		}
	}

	var stockTx []StockTransaction
	for _, t := range b.Stocks.GetByPortfolio(portfolioID, false) {
		if period.Contains(t.Date) && (t.Type == StockBuy || t.Type == StockSell) {
			stockTx = append(stockTx, t)
		}
	}

	snapshots := b.Snapshots.ForPortfolio(portfolioID)
	return YearPerformanceForPortfolio(ctx, portfolioID, year, snapshots, externalFlows, stockTx, bookValuer{b})
}

// bookValuer adapts Book.ValueAt to the unexported portfolioValuer interface
// performance.go declares, keeping that interface private to the package
// while still letting Book satisfy it for its own calls.
type bookValuer struct{ book *Book }

func (v bookValuer) ValueAt(ctx context.Context, portfolioID string, on date.Date) (Money, Money, []MissingPrice, error) {
	return v.book.ValueAt(ctx, portfolioID, on)
}

// AggregatePerformance computes §4.H aggregate-across-portfolios performance
// for every portfolio this user owns, for the given year.
func (b *Book) AggregatePerformance(ctx context.Context, year int, homeCurrency string) (AggregatePerformance, error) {
	var ids []string
	for id := range b.Portfolios {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return AggregateAcrossPortfolios(ctx, ids, year, homeCurrency, func(ctx context.Context, id string) (YearPerformance, error) {
		return b.YearPerformance(ctx, id, year)
	})
}

// AvailableYears returns §4.H's descending union of years across every
// portfolio this user owns, from each portfolio's earliest transaction
// through the current year.
func (b *Book) AvailableYears(today date.Date) []int {
	var earliest []date.Date
	for id := range b.Portfolios {
		txs := b.Stocks.GetByPortfolio(id, false)
		if len(txs) > 0 {
			earliest = append(earliest, txs[0].Date)
		}
	}
	return AggregateAvailableYears(earliest, today)
}
