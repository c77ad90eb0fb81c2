package assetbook

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/chiaying/assetbook/date"
)

// TransactionLog is an in-memory append/update/soft-delete store for a
// portfolio's stock transactions, ordered for folding by (date, createdAt).
// A persistent implementation would back this with a database transaction
// per write; this one is safe for concurrent use by a single process.
type TransactionLog struct {
	mu   sync.RWMutex
	byID map[string]*StockTransaction
	seq  int
}

// NewTransactionLog returns an empty log.
func NewTransactionLog() *TransactionLog {
	return &TransactionLog{byID: make(map[string]*StockTransaction)}
}

func (l *TransactionLog) nextID() string {
	l.seq++
	return "stx-" + time.Now().UTC().Format("20060102150405") + "-" + strconv.Itoa(l.seq)
}

// Append validates and inserts a new transaction, normalizing its ticker and
// stamping CreatedAt/UpdatedAt. today is the caller's notion of "now", used
// for validation; the timestamps come from the wall clock.
func (l *TransactionLog) Append(t StockTransaction, today date.Date) (StockTransaction, error) {
	if err := t.Validate(today); err != nil {
		return StockTransaction{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = l.nextID()
	}
	t.CreatedAt, t.UpdatedAt = now, now
	cp := t
	l.byID[t.ID] = &cp
	return cp, nil
}

// Update validates and replaces an existing transaction by ID, preserving
// CreatedAt and bumping UpdatedAt.
func (l *TransactionLog) Update(t StockTransaction, today date.Date) (StockTransaction, error) {
	if err := t.Validate(today); err != nil {
		return StockTransaction{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	existing, ok := l.byID[t.ID]
	if !ok {
		return StockTransaction{}, notFoundf("stock transaction %q not found", t.ID)
	}
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	cp := t
	l.byID[t.ID] = &cp
	return cp, nil
}

// SoftDelete marks a transaction deleted without removing it from the log.
func (l *TransactionLog) SoftDelete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.byID[id]
	if !ok {
		return notFoundf("stock transaction %q not found", id)
	}
	t.IsDeleted = true
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Get returns a single transaction by ID, including deleted ones.
func (l *TransactionLog) Get(id string) (StockTransaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.byID[id]
	if !ok {
		return StockTransaction{}, false
	}
	return *t, true
}

// GetByPortfolio returns every transaction for a portfolio, ordered by
// (date asc, createdAt asc). Deleted rows are excluded unless includeDeleted.
func (l *TransactionLog) GetByPortfolio(portfolioID string, includeDeleted bool) []StockTransaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []StockTransaction
	for _, t := range l.byID {
		if t.PortfolioID != portfolioID {
			continue
		}
		if t.IsDeleted && !includeDeleted {
			continue
		}
		out = append(out, *t)
	}
	sortTransactions(out)
	return out
}

// GetByLedger returns every non-deleted transaction linked to a currency
// ledger, ordered by (date asc, createdAt asc).
func (l *TransactionLog) GetByLedger(ledgerID string) []StockTransaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []StockTransaction
	for _, t := range l.byID {
		if t.CurrencyLedgerID != ledgerID || t.IsDeleted {
			continue
		}
		out = append(out, *t)
	}
	sortTransactions(out)
	return out
}

func sortTransactions(out []StockTransaction) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
}
