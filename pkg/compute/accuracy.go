package compute

import (
	"math"

	"github.com/interday/reliastat/pkg/types"
)

// MedAE returns the median of |day1[i] - day2[i]|. It is symmetric in its
// sessions.
func MedAE(p types.PairedSample) float64 {
	abs := make([]float64, p.Len())
	for i := range abs {
		a, b := p.Pair(i)
		abs[i] = math.Abs(a - b)
	}
	return Median(abs)
}

// MdAPE returns the median of 100 * |day1[i] - day2[i]| / day1[i].
//
// The denominator is always the Day 1 value. A zero Day 1 value yields +Inf
// (or NaN when Day 2 is also zero) for that pair, which is kept in the median
// rather than filtered out; a single NaN therefore makes the result NaN.
// A negative Day 1 value yields a negative percentage for that pair.
func MdAPE(p types.PairedSample) float64 {
	pct := make([]float64, p.Len())
	for i := range pct {
		a, b := p.Pair(i)
		pct[i] = 100 * math.Abs(a-b) / a
	}
	return Median(pct)
}
