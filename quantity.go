package assetbook

import "github.com/shopspring/decimal"

// Quantity is a dimensionless exact decimal, used for share counts and
// ratios (split numerators/denominators expressed as a quotient).
type Quantity struct {
	value decimal.Decimal
}

// Q constructs a Quantity.
func Q[T numeric](value T) Quantity {
	return Quantity{value: toDecimal(value)}
}

func (q Quantity) Decimal() decimal.Decimal { return q.value }

func (q Quantity) Equal(p Quantity) bool           { return q.value.Equal(p.value) }
func (q Quantity) LessThan(p Quantity) bool        { return q.value.LessThan(p.value) }
func (q Quantity) LessThanOrEqual(p Quantity) bool { return q.value.LessThanOrEqual(p.value) }
func (q Quantity) GreaterThan(p Quantity) bool     { return q.value.GreaterThan(p.value) }
func (q Quantity) IsNegative() bool                { return q.value.IsNegative() }
func (q Quantity) IsPositive() bool                { return q.value.IsPositive() }
func (q Quantity) IsZero() bool                    { return q.value.IsZero() }
func (q Quantity) Neg() Quantity                    { return Quantity{value: q.value.Neg()} }
func (q Quantity) Add(p Quantity) Quantity         { return Quantity{value: q.value.Add(p.value)} }
func (q Quantity) Sub(p Quantity) Quantity         { return Quantity{value: q.value.Sub(p.value)} }
func (q Quantity) Mul(p Quantity) Quantity         { return Quantity{value: q.value.Mul(p.value)} }
func (q Quantity) Div(p Quantity) Quantity         { return Quantity{value: q.value.Div(p.value)} }
func (q Quantity) String() string                  { return q.value.String() }

// RoundTo rounds to a declared scale using banker's rounding (e.g. shares:dec(4)).
func (q Quantity) RoundTo(scale int32) Quantity {
	return Quantity{value: q.value.RoundBank(scale)}
}

func (q Quantity) MarshalJSON() ([]byte, error) { return q.value.MarshalJSON() }
func (q *Quantity) UnmarshalJSON(b []byte) error { return q.value.UnmarshalJSON(b) }
