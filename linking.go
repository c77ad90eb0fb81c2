package assetbook

import (
	"strconv"
	"time"

	"github.com/chiaying/assetbook/date"
)

// Portfolio is a user's named collection of stock holdings, optionally bound
// to one CurrencyLedger that funds its Buys.
type Portfolio struct {
	ID                  string
	UserID              string
	BaseCurrency        string
	HomeCurrency        string
	BoundCurrencyLedgerID string
	DisplayName         string
}

// LinkedStore bundles the two logs a linked Buy/Spend pair spans, providing
// the atomic create/update/cascade-delete operations of §4.F. A concrete
// deployment would wrap these two calls plus snapshot upsert in a single
// database transaction; this in-memory version mutates both logs in one
// call, which is as close to atomic as a single process gets.
type LinkedStore struct {
	Stocks    *TransactionLog
	Ledgers   map[string]*CurrencyLedgerLog
}

// CurrencyLedgerLog is the per-ledger analogue of TransactionLog, scoped to
// CurrencyTransaction rows rather than stock rows.
type CurrencyLedgerLog struct {
	Ledger CurrencyLedger
	byID   map[string]*CurrencyTransaction
	seq    int
}

// NewCurrencyLedgerLog returns an empty log for the given ledger.
func NewCurrencyLedgerLog(ledger CurrencyLedger) *CurrencyLedgerLog {
	return &CurrencyLedgerLog{Ledger: ledger, byID: make(map[string]*CurrencyTransaction)}
}

func (l *CurrencyLedgerLog) nextID() string {
	l.seq++
	return "ctx-" + time.Now().UTC().Format("20060102150405") + "-" + strconv.Itoa(l.seq)
}

// All returns every non-deleted transaction in the log, unordered.
func (l *CurrencyLedgerLog) All() []CurrencyTransaction {
	var out []CurrencyTransaction
	for _, t := range l.byID {
		if t.IsDeleted {
			continue
		}
		out = append(out, *t)
	}
	return out
}

func (l *CurrencyLedgerLog) insert(t CurrencyTransaction) CurrencyTransaction {
	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = l.nextID()
	}
	t.CreatedAt, t.UpdatedAt = now, now
	cp := t
	l.byID[t.ID] = &cp
	return cp
}

// CreateLinkedBuy performs the §4.F closed-loop creation: insert the stock
// Buy row, then insert a Spend sized shares*price+fees in the ledger's
// currency, cross-linking the two by ID. The stock transaction's currency
// must equal the bound ledger's currency.
func (s *LinkedStore) CreateLinkedBuy(buy StockTransaction, ledgerID string, today date.Date) (StockTransaction, CurrencyTransaction, error) {
	ledgerLog, ok := s.Ledgers[ledgerID]
	if !ok {
		return StockTransaction{}, CurrencyTransaction{}, notFoundf("currency ledger %q not found", ledgerID)
	}
	if buy.Currency != ledgerLog.Ledger.CurrencyCode {
		return StockTransaction{}, CurrencyTransaction{}, businessRulef(
			"stock transaction currency %q does not match bound ledger currency %q", buy.Currency, ledgerLog.Ledger.CurrencyCode)
	}

	buy.Type = StockBuy
	buy.FundSource = FundCurrencyLedger
	buy.CurrencyLedgerID = ledgerID

	storedBuy, err := s.Stocks.Append(buy, today)
	if err != nil {
		return StockTransaction{}, CurrencyTransaction{}, err
	}

	spend := CurrencyTransaction{
		LedgerID:                 ledgerID,
		Date:                     storedBuy.Date,
		Type:                     Spend,
		ForeignAmount:            storedBuy.TotalCostSource(),
		RelatedStockTransactionID: storedBuy.ID,
	}
	if err := spend.Validate(ledgerLog.Ledger.IsHomeLedger()); err != nil {
		_ = s.Stocks.SoftDelete(storedBuy.ID)
		return StockTransaction{}, CurrencyTransaction{}, err
	}
	storedSpend := ledgerLog.insert(spend)
	return storedBuy, storedSpend, nil
}

// UpdateLinkedBuy updates a stock transaction and re-derives its matching
// Spend's foreignAmount and date in lock-step.
func (s *LinkedStore) UpdateLinkedBuy(buy StockTransaction, today date.Date) (StockTransaction, error) {
	storedBuy, err := s.Stocks.Update(buy, today)
	if err != nil {
		return StockTransaction{}, err
	}
	if storedBuy.CurrencyLedgerID == "" {
		return storedBuy, nil
	}
	ledgerLog, ok := s.Ledgers[storedBuy.CurrencyLedgerID]
	if !ok {
		return storedBuy, nil
	}
	for id, t := range ledgerLog.byID {
		if t.RelatedStockTransactionID == storedBuy.ID {
			t.ForeignAmount = storedBuy.TotalCostSource()
			t.Date = storedBuy.Date
			t.UpdatedAt = time.Now().UTC()
			ledgerLog.byID[id] = t
			break
		}
	}
	return storedBuy, nil
}

// DeleteLinkedBuy soft-deletes a stock transaction and cascades the deletion
// to its linked Spend, if any.
func (s *LinkedStore) DeleteLinkedBuy(stockID string) error {
	buy, ok := s.Stocks.Get(stockID)
	if !ok {
		return notFoundf("stock transaction %q not found", stockID)
	}
	if err := s.Stocks.SoftDelete(stockID); err != nil {
		return err
	}
	if buy.CurrencyLedgerID == "" {
		return nil
	}
	ledgerLog, ok := s.Ledgers[buy.CurrencyLedgerID]
	if !ok {
		return nil
	}
	for _, t := range ledgerLog.byID {
		if t.RelatedStockTransactionID == stockID {
			t.IsDeleted = true
			t.UpdatedAt = time.Now().UTC()
		}
	}
	return nil
}

// DeleteLinkedSpend soft-deletes a Spend and cascades to its bound stock Buy.
func (s *LinkedStore) DeleteLinkedSpend(ledgerID, spendID string) error {
	ledgerLog, ok := s.Ledgers[ledgerID]
	if !ok {
		return notFoundf("currency ledger %q not found", ledgerID)
	}
	t, ok := ledgerLog.byID[spendID]
	if !ok {
		return notFoundf("currency transaction %q not found", spendID)
	}
	t.IsDeleted = true
	t.UpdatedAt = time.Now().UTC()
	if t.RelatedStockTransactionID != "" {
		return s.Stocks.SoftDelete(t.RelatedStockTransactionID)
	}
	return nil
}
