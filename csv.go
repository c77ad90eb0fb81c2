package assetbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/chiaying/assetbook/date"
	"github.com/shopspring/decimal"
)

// stockImportColumns is the §6 CSV row contract for stock-transaction import.
var stockImportColumns = []string{"Date", "Ticker", "Market", "Currency", "Type", "Shares", "Price", "Fees", "FundSource", "LedgerId"}

// RowError describes one rejected CSV row, matching §6's atomic-import error shape.
type RowError struct {
	RowNumber         int
	FieldName         string
	InvalidValue      string
	ErrorCode         string
	Message           string
	CorrectionGuidance string
}

// ImportSummary is the §6 response envelope for a CSV import.
type ImportSummary struct {
	Status       string
	TotalRows    int
	InsertedRows int
	RejectedRows int
	ErrorCount   int
	Errors       []RowError
}

// ImportStockTransactionsCSV parses rows per the §6 stock-import contract
// into validated StockTransaction values, in file order; rejected rows are
// reported in the summary by row number (1-based, header excluded). It does not itself append to a TransactionLog: the
// caller decides whether a partial import is acceptable for stock rows,
// unlike the currency-transaction import below which is all-or-nothing.
func ImportStockTransactionsCSV(r io.Reader, portfolioID string, today date.Date) ([]StockTransaction, ImportSummary) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, ImportSummary{Status: "failed", Errors: []RowError{{RowNumber: 0, ErrorCode: "EmptyFile", Message: err.Error()}}}
	}
	idx := columnIndex(header)

	var out []StockTransaction
	summary := ImportSummary{Status: "ok"}
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			summary.Errors = append(summary.Errors, RowError{RowNumber: rowNum, ErrorCode: "MalformedRow", Message: err.Error()})
			summary.RejectedRows++
			rowNum++
			continue
		}
		summary.TotalRows++

		tx, rowErrs := parseStockRow(record, idx, portfolioID, rowNum)
		if len(rowErrs) > 0 {
			summary.Errors = append(summary.Errors, rowErrs...)
			summary.RejectedRows++
			rowNum++
			continue
		}
		if err := tx.Validate(today); err != nil {
			summary.Errors = append(summary.Errors, RowError{
				RowNumber: rowNum, ErrorCode: "BusinessRule", Message: err.Error(),
				CorrectionGuidance: "check the row against the stock transaction invariants",
			})
			summary.RejectedRows++
			rowNum++
			continue
		}

		out = append(out, tx)
		summary.InsertedRows++
		rowNum++
	}
	summary.ErrorCount = len(summary.Errors)
	if summary.RejectedRows > 0 {
		summary.Status = "partial"
	}
	return out, summary
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	return idx
}

func field(record []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseStockRow(record []string, idx map[string]int, portfolioID string, rowNum int) (StockTransaction, []RowError) {
	var errs []RowError

	market := field(record, idx, "Market")
	currency := field(record, idx, "Currency")
	if market == "" {
		errs = append(errs, RowError{RowNumber: rowNum, FieldName: "Market", ErrorCode: "Required", Message: "Market is required"})
	}
	if currency == "" {
		errs = append(errs, RowError{RowNumber: rowNum, FieldName: "Currency", ErrorCode: "Required", Message: "Currency is required"})
	}

	on, err := date.Parse(field(record, idx, "Date"))
	if err != nil {
		errs = append(errs, RowError{RowNumber: rowNum, FieldName: "Date", InvalidValue: field(record, idx, "Date"), ErrorCode: "InvalidDate", Message: err.Error()})
	}

	typ := StockTransactionType(field(record, idx, "Type"))
	if typ != StockBuy && typ != StockSell {
		errs = append(errs, RowError{RowNumber: rowNum, FieldName: "Type", InvalidValue: string(typ), ErrorCode: "InvalidType", Message: "Type must be Buy or Sell", CorrectionGuidance: "use Buy or Sell"})
	}

	shares, sErr := decimal.NewFromString(field(record, idx, "Shares"))
	if sErr != nil {
		errs = append(errs, RowError{RowNumber: rowNum, FieldName: "Shares", InvalidValue: field(record, idx, "Shares"), ErrorCode: "InvalidNumber", Message: sErr.Error()})
	}
	price, pErr := decimal.NewFromString(field(record, idx, "Price"))
	if pErr != nil {
		errs = append(errs, RowError{RowNumber: rowNum, FieldName: "Price", InvalidValue: field(record, idx, "Price"), ErrorCode: "InvalidNumber", Message: pErr.Error()})
	}
	fees := decimal.Zero
	if raw := field(record, idx, "Fees"); raw != "" {
		fees, err = decimal.NewFromString(raw)
		if err != nil {
			errs = append(errs, RowError{RowNumber: rowNum, FieldName: "Fees", InvalidValue: raw, ErrorCode: "InvalidNumber", Message: err.Error()})
		}
	}

	fundSource := FundSource(field(record, idx, "FundSource"))
	if fundSource == "" {
		fundSource = FundNone
	}

	if len(errs) > 0 {
		return StockTransaction{}, errs
	}

	return StockTransaction{
		PortfolioID:      portfolioID,
		Date:             on,
		Ticker:           normalizeTicker(field(record, idx, "Ticker")),
		Market:           StockMarket(market),
		Type:             typ,
		Shares:           Q(shares),
		PricePerShare:    price,
		ExchangeRate:     decimal.NewFromInt(1),
		Fees:             fees,
		Currency:         currency,
		FundSource:       fundSource,
		CurrencyLedgerID: field(record, idx, "LedgerId"),
	}, nil
}

// ExportStockTransactionsCSV writes transactions in the §6 column order, the
// inverse of ImportStockTransactionsCSV (round-tripping row content, up to
// column order, is a testable property).
func ExportStockTransactionsCSV(w io.Writer, transactions []StockTransaction) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write(stockImportColumns); err != nil {
		return err
	}
	for _, t := range transactions {
		record := []string{
			t.Date.String(), t.Ticker, string(t.Market), t.Currency, string(t.Type),
			t.Shares.Decimal().String(), t.PricePerShare.String(), t.Fees.String(),
			string(t.FundSource), t.CurrencyLedgerID,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing stock transaction %q: %w", t.ID, err)
		}
	}
	return writer.Error()
}

// ImportCurrencyTransactionsCSV parses and validates every row before
// inserting any of them: §6 requires the import be atomic, zero rows
// committed if any row fails. insert is called once per row only after every
// row in the file has passed validation.
func ImportCurrencyTransactionsCSV(r io.Reader, ledgerID string, ledgerIsHome bool, insert func(CurrencyTransaction) error) ImportSummary {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return ImportSummary{Status: "failed", Errors: []RowError{{RowNumber: 0, ErrorCode: "EmptyFile", Message: err.Error()}}}
	}
	idx := columnIndex(header)

	var parsed []CurrencyTransaction
	summary := ImportSummary{Status: "ok"}
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			summary.Errors = append(summary.Errors, RowError{RowNumber: rowNum, ErrorCode: "MalformedRow", Message: err.Error()})
			rowNum++
			continue
		}
		summary.TotalRows++

		tx, rowErrs := parseCurrencyRow(record, idx, ledgerID, rowNum)
		if len(rowErrs) == 0 {
			if err := tx.Validate(ledgerIsHome); err != nil {
				rowErrs = append(rowErrs, RowError{RowNumber: rowNum, ErrorCode: "BusinessRule", Message: err.Error()})
			}
		}
		if len(rowErrs) > 0 {
			summary.Errors = append(summary.Errors, rowErrs...)
			rowNum++
			continue
		}
		parsed = append(parsed, tx)
		rowNum++
	}

	summary.RejectedRows = summary.TotalRows - len(parsed)
	summary.ErrorCount = len(summary.Errors)
	if summary.ErrorCount > 0 {
		summary.Status = "rejected"
		return summary
	}

	for _, tx := range parsed {
		if err := insert(tx); err != nil {
			summary.Status = "rejected"
			summary.Errors = append(summary.Errors, RowError{ErrorCode: "InsertFailed", Message: err.Error()})
			summary.RejectedRows = summary.TotalRows
			summary.ErrorCount = len(summary.Errors)
			return summary
		}
	}
	summary.InsertedRows = len(parsed)
	return summary
}

func parseCurrencyRow(record []string, idx map[string]int, ledgerID string, rowNum int) (CurrencyTransaction, []RowError) {
	var errs []RowError

	on, err := date.Parse(field(record, idx, "Date"))
	if err != nil {
		errs = append(errs, RowError{RowNumber: rowNum, FieldName: "Date", InvalidValue: field(record, idx, "Date"), ErrorCode: "InvalidDate", Message: err.Error()})
	}

	typ := CurrencyTransactionType(field(record, idx, "Type"))

	foreign, fErr := decimal.NewFromString(field(record, idx, "ForeignAmount"))
	if fErr != nil {
		errs = append(errs, RowError{RowNumber: rowNum, FieldName: "ForeignAmount", InvalidValue: field(record, idx, "ForeignAmount"), ErrorCode: "InvalidNumber", Message: fErr.Error()})
	}

	tx := CurrencyTransaction{LedgerID: ledgerID, Date: on, Type: typ, ForeignAmount: foreign}

	if raw := field(record, idx, "HomeAmount"); raw != "" {
		if home, err := decimal.NewFromString(raw); err == nil {
			tx.HomeAmount = &home
		} else {
			errs = append(errs, RowError{RowNumber: rowNum, FieldName: "HomeAmount", InvalidValue: raw, ErrorCode: "InvalidNumber", Message: err.Error()})
		}
	}
	if raw := field(record, idx, "ExchangeRate"); raw != "" {
		if rate, err := decimal.NewFromString(raw); err == nil {
			tx.ExchangeRate = &rate
		} else {
			errs = append(errs, RowError{RowNumber: rowNum, FieldName: "ExchangeRate", InvalidValue: raw, ErrorCode: "InvalidNumber", Message: err.Error()})
		}
	}

	if len(errs) > 0 {
		return CurrencyTransaction{}, errs
	}
	return tx, nil
}
