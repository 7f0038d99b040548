package compute

import (
	"math"
	"sort"
)

// Percentile returns the p-th percentile (0 ≤ p ≤ 100) of xs using linear
// interpolation between the order statistics at floor and ceil of
// p/100*(n-1). xs is not modified. Returns NaN for empty input or when xs
// holds a NaN.
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 || hasNaN(xs) {
		return math.NaN()
	}
	return percentileSorted(sortedCopy(xs), p)
}

// Median returns the middle order statistic of xs, or the mean of the two
// middle values when len(xs) is even. NaN anywhere in xs yields NaN.
func Median(xs []float64) float64 {
	if len(xs) == 0 || hasNaN(xs) {
		return math.NaN()
	}
	return medianSorted(sortedCopy(xs))
}

// IQR returns the interquartile range of xs: the 75th minus the 25th percentile.
// A single value has an IQR of 0.
func IQR(xs []float64) float64 {
	if len(xs) == 0 || hasNaN(xs) {
		return math.NaN()
	}
	s := sortedCopy(xs)
	return percentileSorted(s, 75) - percentileSorted(s, 25)
}

// CVIQR returns IQR(xs) / Median(xs) * 100, or NaN when the median is exactly 0.
func CVIQR(xs []float64) float64 {
	med := Median(xs)
	if med == 0 {
		return math.NaN()
	}
	return IQR(xs) / med * 100
}

// percentileSorted interpolates on an ascending slice. The lerp is evaluated
// from the nearer endpoint so that results agree bit-for-bit with the usual
// reference implementation of the linear method.
func percentileSorted(s []float64, p float64) float64 {
	n := len(s)
	if n == 1 {
		return s[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	frac := rank - float64(lo)
	return lerp(s[lo], s[hi], frac)
}

func lerp(a, b, t float64) float64 {
	if a == b {
		return a
	}
	d := b - a
	if t >= 0.5 {
		return b - d*(1-t)
	}
	return a + d*t
}

func medianSorted(s []float64) float64 {
	n := len(s)
	mid := n / 2
	if n%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

func sortedCopy(xs []float64) []float64 {
	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	return cp
}

func hasNaN(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
