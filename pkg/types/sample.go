package types

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedInput reports input that cannot be analysed: an empty sequence,
// sequences of different length, or a non-finite value.
var ErrMalformedInput = errors.New("malformed input")

// UserErrorPrefix opens every analysis failure shown to an end user.
const UserErrorPrefix = "Erro ao processar os dados"

// UserMessage formats err for display to an end user.
func UserMessage(err error) string {
	return UserErrorPrefix + ": " + err.Error()
}

// Sample is an ordered sequence of finite measurements from one session.
type Sample []float64

// Len returns the number of measurements.
func (s Sample) Len() int { return len(s) }

// Clone returns an independent copy of s.
func (s Sample) Clone() Sample {
	return append(Sample(nil), s...)
}

// PairedSample holds two sessions measured on the same subjects. Element i of
// Day1 pairs with element i of Day2.
type PairedSample struct {
	day1 Sample
	day2 Sample
}

// NewPairedSample validates and copies day1 and day2.
func NewPairedSample(day1, day2 []float64) (PairedSample, error) {
	switch {
	case len(day1) == 0:
		return PairedSample{}, fmt.Errorf("%w: day 1 has no values", ErrMalformedInput)
	case len(day2) == 0:
		return PairedSample{}, fmt.Errorf("%w: day 2 has no values", ErrMalformedInput)
	case len(day1) != len(day2):
		return PairedSample{}, fmt.Errorf("%w: day 1 has %d values but day 2 has %d",
			ErrMalformedInput, len(day1), len(day2))
	}
	if i, ok := firstNonFinite(day1); ok {
		return PairedSample{}, fmt.Errorf("%w: day 1 value %d is %v", ErrMalformedInput, i, day1[i])
	}
	if i, ok := firstNonFinite(day2); ok {
		return PairedSample{}, fmt.Errorf("%w: day 2 value %d is %v", ErrMalformedInput, i, day2[i])
	}
	return PairedSample{
		day1: Sample(day1).Clone(),
		day2: Sample(day2).Clone(),
	}, nil
}

// Len returns the number of pairs.
func (p PairedSample) Len() int { return len(p.day1) }

// Day1 returns a copy of the first session.
func (p PairedSample) Day1() Sample { return p.day1.Clone() }

// Day2 returns a copy of the second session.
func (p PairedSample) Day2() Sample { return p.day2.Clone() }

// Pair returns the i-th pair.
func (p PairedSample) Pair(i int) (float64, float64) { return p.day1[i], p.day2[i] }

// Differences returns Day1[i] - Day2[i] for every pair.
func (p PairedSample) Differences() Sample {
	out := make(Sample, len(p.day1))
	for i := range p.day1 {
		out[i] = p.day1[i] - p.day2[i]
	}
	return out
}

func firstNonFinite(xs []float64) (int, bool) {
	for i, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i, true
		}
	}
	return 0, false
}
