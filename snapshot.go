package assetbook

import (
	"sort"
	"strconv"
	"time"

	"github.com/chiaying/assetbook/date"
)

// TransactionPortfolioSnapshot records the portfolio value immediately
// before and immediately after a single triggering event, in both the
// portfolio's source currency and its home currency. Snapshots are upserted
// atomically with the write that triggers them and reused verbatim by the
// performance calculator rather than recomputed on each report.
type TransactionPortfolioSnapshot struct {
	ID             string
	PortfolioID    string
	TransactionID  string
	SnapshotDate   date.Date
	ValueBeforeHome   Money
	ValueAfterHome    Money
	ValueBeforeSource Money
	ValueAfterSource  Money
	CreatedAt      time.Time
}

// SnapshotStore holds every snapshot for a portfolio and applies the
// same-day chain-normalization invariant on upsert.
type SnapshotStore struct {
	byID map[string]*TransactionPortfolioSnapshot
	seq  int
}

// NewSnapshotStore returns an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{byID: make(map[string]*TransactionPortfolioSnapshot)}
}

// ForPortfolio returns every snapshot for a portfolio, ordered by
// (snapshotDate asc, createdAt asc) — the chronological order chaining relies on.
func (s *SnapshotStore) ForPortfolio(portfolioID string) []TransactionPortfolioSnapshot {
	var out []TransactionPortfolioSnapshot
	for _, snap := range s.byID {
		if snap.PortfolioID == portfolioID {
			out = append(out, *snap)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SnapshotDate != out[j].SnapshotDate {
			return out[i].SnapshotDate.Before(out[j].SnapshotDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Upsert records the before/after values for one transaction's effect on a
// portfolio, then applies same-day chain-normalization across every snapshot
// on that date for that portfolio: the day's start value is the earliest
// valueBefore, the day's end value is the latest valueAfter. The
// chronologically first same-day snapshot keeps its own valueBefore (the
// day's start) but has its valueAfter raised to dayEnd; every later same-day
// snapshot is normalized to {before=after=dayEnd}. So the day's return
// factor (dayEnd/dayStart) is carried entirely by the first snapshot and
// every other same-day snapshot contributes a neutral 1.0 factor.
func (s *SnapshotStore) Upsert(portfolioID, transactionID string, on date.Date, beforeHome, afterHome, beforeSource, afterSource Money) TransactionPortfolioSnapshot {
	var existing *TransactionPortfolioSnapshot
	for _, snap := range s.byID {
		if snap.PortfolioID == portfolioID && snap.TransactionID == transactionID {
			existing = snap
			break
		}
	}

	now := time.Now().UTC()
	if existing == nil {
		s.seq++
		existing = &TransactionPortfolioSnapshot{
			ID:            snapshotID(s.seq),
			PortfolioID:   portfolioID,
			TransactionID: transactionID,
			CreatedAt:     now,
		}
		s.byID[existing.ID] = existing
	}
	existing.SnapshotDate = on
	existing.ValueBeforeHome, existing.ValueAfterHome = beforeHome, afterHome
	existing.ValueBeforeSource, existing.ValueAfterSource = beforeSource, afterSource

	s.normalizeDay(portfolioID, on)
	return *existing
}

func snapshotID(seq int) string {
	return "snap-" + strconv.Itoa(seq)
}

// normalizeDay walks every snapshot for (portfolioID, on) in createdAt
// order, raises the first snapshot's valueAfter to dayEnd (valueBefore
// stays dayStart), and collapses every later snapshot to {before=after=dayEnd}.
func (s *SnapshotStore) normalizeDay(portfolioID string, on date.Date) {
	var same []*TransactionPortfolioSnapshot
	for _, snap := range s.byID {
		if snap.PortfolioID == portfolioID && snap.SnapshotDate == on {
			same = append(same, snap)
		}
	}
	if len(same) <= 1 {
		return
	}
	sort.Slice(same, func(i, j int) bool { return same[i].CreatedAt.Before(same[j].CreatedAt) })

	dayEndHome, dayEndSource := same[len(same)-1].ValueAfterHome, same[len(same)-1].ValueAfterSource

	for i, snap := range same {
		if i == 0 {
			snap.ValueAfterHome, snap.ValueAfterSource = dayEndHome, dayEndSource
			continue
		}
		snap.ValueBeforeHome, snap.ValueAfterHome = dayEndHome, dayEndHome
		snap.ValueBeforeSource, snap.ValueAfterSource = dayEndSource, dayEndSource
	}
}
