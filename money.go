package assetbook

import (
	"encoding/json"
	"fmt"

	money "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount tagged with an ISO-4217-ish currency
// code. All financial computation in this package works on Money/Quantity,
// never on float64 — the one exception is at the boundary with external
// price feeds (see marketdata), which convert to decimal.Decimal immediately
// on receipt.
type Money struct {
	value decimal.Decimal
	cur   string
}

// M constructs a Money value in the given currency.
func M[T numeric](value T, currency string) Money {
	return Money{value: toDecimal(value), cur: currency}
}

// numeric is the set of types money.M / quantity.Q accept as input.
type numeric interface {
	float32 | float64 | int | int32 | int64 | decimal.Decimal
}

func toDecimal[T numeric](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	default:
		panic("unsupported numeric type")
	}
}

// Currency returns the currency code.
func (m Money) Currency() string { return m.cur }

// Decimal returns the underlying exact decimal value.
func (m Money) Decimal() decimal.Decimal { return m.value }

// currency resolves the go-money Currency metadata (fraction digits,
// formatting) for this Money's currency code. go-money always returns a
// non-nil Currency, defaulting to 2 fraction digits for unknown codes.
func (m Money) currency() *money.Currency { return money.New(0, m.cur).Currency() }

// Fraction returns the number of minor-unit digits conventional for this
// currency (e.g. 2 for USD/TWD, 0 for JPY).
func (m Money) Fraction() int { return m.currency().Fraction }

func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) LessThan(n Money) bool           { return m.value.LessThan(mustSameCur(m, n).value) }
func (m Money) LessThanOrEqual(n Money) bool    { return m.value.LessThanOrEqual(mustSameCur(m, n).value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(mustSameCur(m, n).value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(mustSameCur(m, n).value) }

// Neg returns the additive inverse.
func (m Money) Neg() Money { return Money{value: m.value.Neg(), cur: m.cur} }

// Add returns m+n. Both must share a currency, or one of them must be the
// untagged zero Money (cur == ""), which is treated as currency-neutral —
// this mirrors how a freshly zero-valued Money accumulator picks up its
// currency from the first non-zero term it is added to.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }

// Sub returns m-n, under the same currency rule as Add.
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// Mul scales this Money by a dimensionless Quantity (shares, ratios).
func (m Money) Mul(q Quantity) Money { return Money{value: m.value.Mul(q.value), cur: m.cur} }

// Div divides this Money by a dimensionless Quantity.
func (m Money) Div(q Quantity) Money { return Money{value: m.value.Div(q.value), cur: m.cur} }

// DivMoney divides two same-currency Money values into a dimensionless ratio.
func (m Money) DivMoney(n Money) decimal.Decimal { return m.value.Div(mustSameCur(m, n).value) }

// ConvertTo converts this amount into another currency at the given rate,
// where rate is defined as "1 unit of m's currency is worth `rate` units of
// target". Rates must be strictly positive.
func (m Money) ConvertTo(target string, rate decimal.Decimal) (Money, error) {
	if !rate.IsPositive() {
		return Money{}, fmt.Errorf("exchange rate must be strictly positive, got %s", rate)
	}
	return Money{value: m.value.Mul(rate), cur: target}, nil
}

// Round returns a copy rounded to the currency's conventional fraction
// digits using banker's rounding (round-half-to-even), the rule used
// throughout this package for any value that crosses a display or
// persistence boundary.
func (m Money) Round() Money {
	return Money{value: m.value.RoundBank(int32(m.Fraction())), cur: m.cur}
}

// RoundTo rounds to an explicit scale using banker's rounding, for fields
// with a declared scale that differs from the currency's display fraction
// (e.g. exchangeRate:dec(6), fees:dec(2)).
func (m Money) RoundTo(scale int32) Money {
	return Money{value: m.value.RoundBank(scale), cur: m.cur}
}

// String renders the amount with its currency's conventional fraction digits.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Round().value.StringFixed(int32(m.Fraction())), m.cur)
}

func (m Money) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("amount", m.value)
	w.Optional("currency", m.cur)
	return w.MarshalJSON()
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var raw struct {
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	m.value, m.cur = raw.Amount, raw.Currency
	return nil
}

// cur resolves the result currency of a binary op, treating an empty/zero
// Money as currency-neutral. It panics on a genuine mismatch: by the time
// two tagged Money values reach an arithmetic op, validation upstream
// should already have rejected a cross-currency combination as a
// BusinessRule error — this panic guards an internal invariant, not user input.
func cur(a, b Money) string {
	if a.cur == "" {
		return b.cur
	}
	if b.cur == "" {
		return a.cur
	}
	if a.cur != b.cur {
		panic(fmt.Sprintf("currency mismatch: %s != %s", a.cur, b.cur))
	}
	return a.cur
}

func mustSameCur(a, b Money) Money {
	cur(a, b)
	return b
}
