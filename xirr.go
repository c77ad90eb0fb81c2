package assetbook

import (
	"math"

	"github.com/chiaying/assetbook/date"
)

// CashFlow is one dated amount in an XIRR series: negative for money out,
// positive for money in.
type CashFlow struct {
	Amount float64
	Date   date.Date
}

const (
	xirrGuess     = 0.1
	xirrTolerance = 1e-7
	xirrMaxIter   = 100
)

// XIRR finds the annualized rate r solving Σ cf_i/(1+r)^((d_i-d_0)/365) = 0,
// using Newton-Raphson from a 0.1 guess and falling back to bisection when
// Newton fails to converge or overshoots into r <= -1. Returns (0, false)
// when the series has no sign change (all cash flows same sign), in which
// case no rate exists.
func XIRR(flows []CashFlow) (float64, bool) {
	if !hasSignChange(flows) {
		return 0, false
	}
	d0 := flows[0].Date
	for _, f := range flows[1:] {
		if f.Date.Before(d0) {
			d0 = f.Date
		}
	}

	npv := func(r float64) float64 {
		sum := 0.0
		for _, f := range flows {
			years := float64(f.Date.Sub(d0)) / 365
			sum += f.Amount / math.Pow(1+r, years)
		}
		return sum
	}
	dnpv := func(r float64) float64 {
		sum := 0.0
		for _, f := range flows {
			years := float64(f.Date.Sub(d0)) / 365
			if years == 0 {
				continue
			}
			sum += -years * f.Amount / math.Pow(1+r, years+1)
		}
		return sum
	}

	r := xirrGuess
	for i := 0; i < xirrMaxIter; i++ {
		fr := npv(r)
		if math.Abs(fr) < xirrTolerance {
			return r, true
		}
		d := dnpv(r)
		if d == 0 {
			break
		}
		next := r - fr/d
		if next <= -1 || math.IsNaN(next) || math.IsInf(next, 0) {
			break
		}
		if math.Abs(next-r) < xirrTolerance {
			return next, true
		}
		r = next
	}

	if rate, ok := xirrBisect(npv); ok {
		return rate, true
	}
	return 0, false
}

// xirrBisect brackets a root of npv within a wide, economically plausible
// rate range and bisects until the tolerance is met or iterations exhaust.
func xirrBisect(npv func(float64) float64) (float64, bool) {
	lo, hi := -0.99, 10.0
	flo, fhi := npv(lo), npv(hi)
	if flo == 0 {
		return lo, true
	}
	if fhi == 0 {
		return hi, true
	}
	if (flo > 0) == (fhi > 0) {
		return 0, false
	}
	for i := 0; i < xirrMaxIter; i++ {
		mid := (lo + hi) / 2
		fmid := npv(mid)
		if math.Abs(fmid) < xirrTolerance || (hi-lo) < xirrTolerance {
			return mid, true
		}
		if (fmid > 0) == (flo > 0) {
			lo, flo = mid, fmid
		} else {
			hi, fhi = mid, fmid
		}
	}
	return (lo + hi) / 2, true
}

func hasSignChange(flows []CashFlow) bool {
	hasPos, hasNeg := false, false
	for _, f := range flows {
		if f.Amount > 0 {
			hasPos = true
		} else if f.Amount < 0 {
			hasNeg = true
		}
	}
	return hasPos && hasNeg
}
