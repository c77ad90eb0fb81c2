package assetbook

import (
	"time"

	"github.com/chiaying/assetbook/date"
	"github.com/shopspring/decimal"
)

// CurrencyTransactionType is the closed set of currency-ledger entry kinds.
type CurrencyTransactionType string

const (
	ExchangeBuy    CurrencyTransactionType = "ExchangeBuy"
	ExchangeSell   CurrencyTransactionType = "ExchangeSell"
	Spend          CurrencyTransactionType = "Spend"
	Interest       CurrencyTransactionType = "Interest"
	InitialBalance CurrencyTransactionType = "InitialBalance"
	OtherIncome    CurrencyTransactionType = "OtherIncome"
	Deposit        CurrencyTransactionType = "Deposit"
	Withdraw       CurrencyTransactionType = "Withdraw"
	OtherExpense   CurrencyTransactionType = "OtherExpense"
)

// foreignCreditTypes records money flowing into the ledger's foreign balance.
var foreignCreditTypes = map[CurrencyTransactionType]bool{
	ExchangeBuy:    true,
	Interest:       true,
	InitialBalance: true,
	OtherIncome:    true,
	Deposit:        true,
}

// IsCredit reports whether t increases the ledger's foreign balance.
func (t CurrencyTransactionType) IsCredit() bool { return foreignCreditTypes[t] }

// IsIncomeType reports whether t is a valid TopUp source type (§4.E).
func (t CurrencyTransactionType) IsIncomeType() bool {
	switch t {
	case ExchangeBuy, Interest, InitialBalance, OtherIncome, Deposit:
		return true
	default:
		return false
	}
}

// foreignLedgerTypes and homeLedgerTypes are the §4.E validation matrix,
// chosen by whether the ledger's currency equals its home currency.
var foreignLedgerTypes = map[CurrencyTransactionType]bool{
	ExchangeBuy: true, ExchangeSell: true, Spend: true, Interest: true,
	InitialBalance: true, OtherIncome: true, OtherExpense: true,
}

var homeLedgerTypes = map[CurrencyTransactionType]bool{
	Deposit: true, Withdraw: true, Interest: true, Spend: true,
	OtherIncome: true, OtherExpense: true,
}

// CurrencyTransaction is one entry in a CurrencyLedger's transaction log.
type CurrencyTransaction struct {
	ID                      string
	LedgerID                string
	Date                    date.Date
	Type                    CurrencyTransactionType
	ForeignAmount           decimal.Decimal
	HomeAmount              *decimal.Decimal
	ExchangeRate            *decimal.Decimal
	RelatedStockTransactionID string
	IsDeleted               bool
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// SignedForeign returns ForeignAmount with the sign appropriate to whether
// this type credits or debits the ledger's foreign balance.
func (t CurrencyTransaction) SignedForeign() decimal.Decimal {
	if t.Type.IsCredit() {
		return t.ForeignAmount
	}
	return t.ForeignAmount.Neg()
}

// IsExternalCashFlow reports whether t counts as a contribution for Modified
// Dietz / TWR: only InitialBalance, Deposit, Withdraw (Buy cost is not one).
func (t CurrencyTransaction) IsExternalCashFlow() bool {
	switch t.Type {
	case InitialBalance, Deposit, Withdraw:
		return true
	default:
		return false
	}
}

// Validate enforces the §4.E validation matrix and the required-field rules
// for rate-bearing types, given whether the owning ledger's currency equals
// its home currency.
func (t *CurrencyTransaction) Validate(ledgerIsHome bool) error {
	if !t.ForeignAmount.IsPositive() {
		return businessRulef("foreignAmount must be > 0, got %s", t.ForeignAmount)
	}

	allowed := foreignLedgerTypes
	if ledgerIsHome {
		allowed = homeLedgerTypes
	}
	if !allowed[t.Type] {
		return businessRulef("transaction type %q is not permitted on this ledger", t.Type)
	}

	switch t.Type {
	case ExchangeBuy, ExchangeSell, InitialBalance:
		if t.HomeAmount == nil || t.HomeAmount.IsZero() {
			return businessRulef("%s requires a non-zero homeAmount", t.Type)
		}
		if t.ExchangeRate == nil || !t.ExchangeRate.IsPositive() {
			return businessRulef("%s requires a positive exchangeRate", t.Type)
		}
	}

	if ledgerIsHome {
		rate := decimal.NewFromInt(1)
		t.ExchangeRate = &rate
		t.HomeAmount = &t.ForeignAmount
	}
	return nil
}
