package marketdata

import (
	"testing"

	"github.com/chiaying/assetbook/date"
	"github.com/shopspring/decimal"
)

func TestCachePutGetPriceRoundTrip(t *testing.T) {
	c := NewCache()
	on := date.MustParse("2026-1-2")
	entry := PriceEntry{Symbol: "AAPL", Date: on, Price: decimal.NewFromInt(150), Currency: "USD", ActualDate: on}
	c.PutPrice(on, entry)

	got, ok := c.GetPrice("AAPL", on)
	if !ok {
		t.Fatal("expected cached price to be found")
	}
	if !got.Price.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("got price %v, want 150", got.Price)
	}
}

func TestCacheGetPriceMissReturnsFalse(t *testing.T) {
	c := NewCache()
	if _, ok := c.GetPrice("AAPL", date.MustParse("2026-1-2")); ok {
		t.Fatal("expected a miss on an empty cache")
	}
}

func TestCachePutGetFXRoundTrip(t *testing.T) {
	c := NewCache()
	on := date.MustParse("2026-1-2")
	c.PutFX("USD", "TWD", on, decimal.NewFromInt(30))

	got, ok := c.GetFX("USD", "TWD", on)
	if !ok {
		t.Fatal("expected cached FX rate to be found")
	}
	if !got.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("got rate %v, want 30", got)
	}
}

func TestCacheFXIsDirectional(t *testing.T) {
	c := NewCache()
	on := date.MustParse("2026-1-2")
	c.PutFX("USD", "TWD", on, decimal.NewFromInt(30))

	if _, ok := c.GetFX("TWD", "USD", on); ok {
		t.Fatal("expected USD->TWD cache entry not to satisfy a TWD->USD lookup")
	}
}

func TestCacheMarkAndIsUnavailable(t *testing.T) {
	c := NewCache()
	if c.IsUnavailable("AAPL", "2026-01") {
		t.Fatal("expected no negative marker before MarkUnavailable")
	}
	c.MarkUnavailable("AAPL", "2026-01")
	if !c.IsUnavailable("AAPL", "2026-01") {
		t.Fatal("expected negative marker after MarkUnavailable")
	}
	if c.IsUnavailable("AAPL", "2026-02") {
		t.Fatal("expected negative marker to be scoped to its yearMonth")
	}
}

func TestCacheReconcileReturnsUnqueriedKeys(t *testing.T) {
	c := NewCache()
	on := date.MustParse("2026-1-2")
	c.PutPrice(on, PriceEntry{Symbol: "AAPL", Date: on, Price: decimal.NewFromInt(150)})
	c.MarkUnavailable("MSFT", "2026-01")

	missing := c.Reconcile([]string{"AAPL", "MSFT", "GOOG"}, "2026-01")
	if len(missing) != 1 || missing[0] != "GOOG" {
		t.Fatalf("got %v, want only GOOG (AAPL has a price, MSFT has a negative marker)", missing)
	}
}
