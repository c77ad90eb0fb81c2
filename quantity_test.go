package assetbook

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestQuantityArithmetic(t *testing.T) {
	a, b := Q(10), Q(4)
	if !a.Add(b).Equal(Q(14)) {
		t.Fatal("add mismatch")
	}
	if !a.Sub(b).Equal(Q(6)) {
		t.Fatal("sub mismatch")
	}
	if !a.Mul(b).Equal(Q(40)) {
		t.Fatal("mul mismatch")
	}
	if !a.Div(b).Equal(Q(decimal.RequireFromString("2.5"))) {
		t.Fatal("div mismatch")
	}
}

func TestQuantitySignChecks(t *testing.T) {
	if !Q(-1).IsNegative() {
		t.Fatal("expected -1 to be negative")
	}
	if !Q(1).IsPositive() {
		t.Fatal("expected 1 to be positive")
	}
	if !Q(0).IsZero() {
		t.Fatal("expected 0 to be zero")
	}
}

func TestQuantityRoundTo(t *testing.T) {
	q := Q(decimal.RequireFromString("1.23456"))
	rounded := q.RoundTo(4)
	if rounded.String() != "1.2346" {
		t.Fatalf("got %q, want 1.2346", rounded.String())
	}
}

func TestQuantityJSONRoundTrip(t *testing.T) {
	q := Q(decimal.RequireFromString("7.5"))
	b, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Quantity
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Equal(q) {
		t.Fatalf("got %v, want %v", out, q)
	}
}
