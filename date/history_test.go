package date

import "testing"

func TestHistoryAppendAndGet(t *testing.T) {
	var h History[int]
	h.Append(MustParse("2026-1-2"), 20)
	h.Append(MustParse("2026-1-1"), 10)
	h.Append(MustParse("2026-1-3"), 30)

	if v, ok := h.Get(MustParse("2026-1-1")); !ok || v != 10 {
		t.Fatalf("got %v, %v, want 10, true", v, ok)
	}
	if _, ok := h.Get(MustParse("2026-1-5")); ok {
		t.Fatal("expected no value for unseen date")
	}
	if h.Len() != 3 {
		t.Fatalf("got len %d, want 3", h.Len())
	}
}

func TestHistoryAppendOverwritesExistingDate(t *testing.T) {
	var h History[int]
	h.Append(MustParse("2026-1-1"), 10)
	h.Append(MustParse("2026-1-1"), 99)
	if v, _ := h.Get(MustParse("2026-1-1")); v != 99 {
		t.Fatalf("got %d, want 99", v)
	}
	if h.Len() != 1 {
		t.Fatalf("got len %d, want 1", h.Len())
	}
}

func TestHistoryValuesIteratesChronologically(t *testing.T) {
	var h History[int]
	h.Append(MustParse("2026-1-3"), 3)
	h.Append(MustParse("2026-1-1"), 1)
	h.Append(MustParse("2026-1-2"), 2)

	var got []int
	for _, v := range h.Values() {
		got = append(got, v)
	}
	want := []int{1, 2, 3}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestHistoryValueAsOfExactAndNearestPrior(t *testing.T) {
	var h History[string]
	h.Append(MustParse("2026-1-1"), "mon")
	h.Append(MustParse("2026-1-5"), "fri")

	if v, actual, ok := h.ValueAsOf(MustParse("2026-1-5")); !ok || v != "fri" || actual != MustParse("2026-1-5") {
		t.Fatalf("exact match: got %v, %v, %v", v, actual, ok)
	}
	if v, actual, ok := h.ValueAsOf(MustParse("2026-1-3")); !ok || v != "mon" || actual != MustParse("2026-1-1") {
		t.Fatalf("nearest prior: got %v, %v, %v", v, actual, ok)
	}
	if _, _, ok := h.ValueAsOf(MustParse("2025-12-31")); ok {
		t.Fatal("expected no value before the earliest recorded date")
	}
}

func TestHistoryLatest(t *testing.T) {
	var h History[int]
	if _, _, ok := h.Latest(); ok {
		t.Fatal("expected no latest value on empty history")
	}
	h.Append(MustParse("2026-1-1"), 1)
	h.Append(MustParse("2026-1-10"), 10)
	day, v, ok := h.Latest()
	if !ok || v != 10 || day != MustParse("2026-1-10") {
		t.Fatalf("got %v, %v, %v", day, v, ok)
	}
}

func TestHistoryClear(t *testing.T) {
	var h History[int]
	h.Append(MustParse("2026-1-1"), 1)
	h.Clear()
	if h.Len() != 0 {
		t.Fatalf("got len %d, want 0", h.Len())
	}
	if _, ok := h.Get(MustParse("2026-1-1")); ok {
		t.Fatal("expected no value after clear")
	}
}
