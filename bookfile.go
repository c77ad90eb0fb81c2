package assetbook

import (
	"encoding/json"
	"fmt"
	"io"
)

// bookFile is the on-disk shape of a Book: a single human-readable JSON
// document listing every portfolio, every stock transaction, every currency
// ledger and its transactions, and the split table. It plays the role the
// teacher's JSONL transaction log plays for a single ledger, generalized to
// a household spanning several ledgers and portfolios.
type bookFile struct {
	UserID       string                `json:"userId"`
	Portfolios   []Portfolio           `json:"portfolios"`
	Transactions []StockTransaction    `json:"transactions"`
	Ledgers      []bookFileLedger      `json:"ledgers"`
	Splits       []StockSplit          `json:"splits,omitempty"`
}

type bookFileLedger struct {
	Ledger       CurrencyLedger        `json:"ledger"`
	Transactions []CurrencyTransaction `json:"transactions"`
}

// EncodeBook writes a Book to w in the bookFile format.
func EncodeBook(w io.Writer, b *Book) error {
	out := bookFile{UserID: b.UserID, Splits: b.Splits}
	for _, p := range b.Portfolios {
		out.Portfolios = append(out.Portfolios, p)
	}
	// GetByPortfolio filters by a single portfolio ID; a household spans
	// several, so collect transactions portfolio by portfolio.
	for _, p := range out.Portfolios {
		out.Transactions = append(out.Transactions, b.Stocks.GetByPortfolio(p.ID, true)...)
	}
	for id, log := range b.Ledgers {
		entry := bookFileLedger{Ledger: log.Ledger}
		for _, t := range log.All() {
			entry.Transactions = append(entry.Transactions, t)
		}
		entry.Ledger.ID = id
		out.Ledgers = append(out.Ledgers, entry)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding book: %w", err)
	}
	return nil
}

// DecodeBook reads a Book previously written by EncodeBook. Prices and FX
// wiring are not part of the file; the caller attaches those after decoding.
func DecodeBook(r io.Reader, prices PriceQuoter, fx FXQuoter) (*Book, error) {
	var in bookFile
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decoding book: %w", err)
	}

	b := NewBook(in.UserID, prices, fx)
	b.Splits = in.Splits

	for _, p := range in.Portfolios {
		b.Portfolios[p.ID] = p
	}

	for _, entry := range in.Ledgers {
		log := NewCurrencyLedgerLog(entry.Ledger)
		for _, t := range entry.Transactions {
			log.byID[t.ID] = &t
			if n := seqSuffix(t.ID); n > log.seq {
				log.seq = n
			}
		}
		b.Ledgers[entry.Ledger.ID] = log
	}

	for _, t := range in.Transactions {
		cp := t
		b.Stocks.byID[t.ID] = &cp
		if n := seqSuffix(t.ID); n > b.Stocks.seq {
			b.Stocks.seq = n
		}
	}

	return b, nil
}

// seqSuffix extracts the trailing sequence counter from a generated ID
// ("ctx-20060102150405-3" -> 3), so a reloaded log keeps minting fresh IDs
// instead of colliding with ones restored from disk.
func seqSuffix(id string) int {
	i := len(id) - 1
	for i >= 0 && id[i] >= '0' && id[i] <= '9' {
		i--
	}
	n := 0
	for _, c := range id[i+1:] {
		n = n*10 + int(c-'0')
	}
	return n
}
