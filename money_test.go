package assetbook

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyArithmetic(t *testing.T) {
	testCases := []struct {
		name string
		a, b Money
		want Money
		op   func(a, b Money) Money
	}{
		{"add same currency", M(10, "USD"), M(5, "USD"), M(15, "USD"), Money.Add},
		{"sub same currency", M(10, "USD"), M(5, "USD"), M(5, "USD"), Money.Sub},
		{"add untagged zero", Money{}, M(5, "USD"), M(5, "USD"), Money.Add},
		{"add to untagged zero", M(5, "USD"), Money{}, M(5, "USD"), Money.Add},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.op(tc.a, tc.b)
			if !got.Equal(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMoneyAddMismatchedCurrencyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on currency mismatch")
		}
	}()
	M(1, "USD").Add(M(1, "TWD"))
}

func TestMoneyConvertTo(t *testing.T) {
	m := M(100, "USD")
	converted, err := m.ConvertTo("TWD", decimal.NewFromInt(32))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !converted.Equal(M(3200, "TWD")) {
		t.Fatalf("got %v, want 3200 TWD", converted)
	}

	if _, err := m.ConvertTo("TWD", decimal.Zero); err == nil {
		t.Fatal("expected error for non-positive rate")
	}
	if _, err := m.ConvertTo("TWD", decimal.NewFromInt(-1)); err == nil {
		t.Fatal("expected error for negative rate")
	}
}

func TestMoneyRoundingUsesFractionDigits(t *testing.T) {
	testCases := []struct {
		name     string
		m        Money
		wantStr  string
	}{
		{"USD rounds to 2 digits", M(decimal.RequireFromString("1.005"), "USD"), "1.00 USD"},
		{"JPY rounds to 0 digits", M(decimal.RequireFromString("100.6"), "JPY"), "101 JPY"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.m.String(); got != tc.wantStr {
				t.Fatalf("got %q, want %q", got, tc.wantStr)
			}
		})
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := M(decimal.RequireFromString("42.5"), "USD")
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Money
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Equal(m) {
		t.Fatalf("got %v, want %v", out, m)
	}
}

func TestMoneyComparisons(t *testing.T) {
	small, big := M(1, "USD"), M(2, "USD")
	if !small.LessThan(big) {
		t.Fatal("expected 1 < 2")
	}
	if !big.GreaterThan(small) {
		t.Fatal("expected 2 > 1")
	}
	if !small.LessThanOrEqual(small) {
		t.Fatal("expected 1 <= 1")
	}
}

func TestMoneyMulDivQuantity(t *testing.T) {
	price := M(decimal.RequireFromString("10.50"), "USD")
	shares := Q(decimal.RequireFromString("3"))
	total := price.Mul(shares)
	if !total.Equal(M(decimal.RequireFromString("31.50"), "USD")) {
		t.Fatalf("got %v, want 31.50 USD", total)
	}
	back := total.Div(shares)
	if !back.Equal(price) {
		t.Fatalf("got %v, want %v", back, price)
	}
}
