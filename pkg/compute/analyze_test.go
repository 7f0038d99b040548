package compute

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interday/reliastat/pkg/types"
)

var (
	exampleDay1 = []float64{10, 12, 11, 13, 15, 14, 16, 18, 17, 19}
	exampleDay2 = []float64{11, 13, 10, 14, 16, 13, 15, 17, 18, 20}
)

func TestAnalyze_EndToEnd(t *testing.T) {
	rs, err := Analyze(exampleDay1, exampleDay2, seeded(2024))
	require.NoError(t, err)
	require.True(t, rs.Complete())

	assert.Equal(t, 14.5, rs.Get(types.MedianDay1))
	assert.Equal(t, 14.5, rs.Get(types.MedianDay2))
	assert.InDelta(t, 4.5, rs.Get(types.IQRDay1), 1e-12)
	assert.InDelta(t, 3.75, rs.Get(types.IQRDay2), 1e-12)
	assert.InDelta(t, 4.5/14.5*100, rs.Get(types.CVDay1), 1e-9)
	assert.InDelta(t, 3.75/14.5*100, rs.Get(types.CVDay2), 1e-9)

	icc := rs.Get(types.ICC)
	assert.InDelta(t, 1-2/8.25, icc, 1e-12)
	assert.Less(t, icc, 1.0)
	assert.Greater(t, icc, -1.0)

	assert.Equal(t, 1.0, rs.Get(types.MedAE))
	assert.InDelta(t, (100.0/15+100.0/14)/2, rs.Get(types.MdAPE), 1e-9)

	for _, m := range []types.Metric{types.SEMedianDay1, types.SEMedianDay2, types.MDC} {
		v := rs.Get(m)
		assert.False(t, math.IsNaN(v), m.Name())
		assert.Greater(t, v, 0.0, m.Name())
	}
}

func TestAnalyze_SeedReproducible(t *testing.T) {
	a, err := Analyze(exampleDay1, exampleDay2, seeded(11))
	require.NoError(t, err)
	b, err := Analyze(exampleDay1, exampleDay2, seeded(11))
	require.NoError(t, err)
	assert.Equal(t, a.Entries(), b.Entries())
}

func TestAnalyze_MalformedInput(t *testing.T) {
	tests := []struct {
		name       string
		day1, day2 []float64
	}{
		{"empty", nil, nil},
		{"mismatched", []float64{1, 2, 3}, []float64{1, 2}},
		{"NaN", []float64{1, math.NaN()}, []float64{1, 2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rs, err := Analyze(tc.day1, tc.day2, DefaultOptions())
			assert.ErrorIs(t, err, types.ErrMalformedInput)
			assert.False(t, rs.Complete(), "no partial result on failure")
		})
	}
}

func TestAnalyze_UndefinedArithmeticDoesNotAbort(t *testing.T) {
	// Day 1 median is 0 and one Day 1 value is 0.
	day1 := []float64{-1, 0, 1}
	day2 := []float64{-2, 1, 3}

	rs, err := Analyze(day1, day2, seeded(1))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(rs.Get(types.CVDay1)))
	assert.False(t, math.IsNaN(rs.Get(types.CVDay2)))
	assert.False(t, math.IsNaN(rs.Get(types.ICC)))
	assert.False(t, math.IsNaN(rs.Get(types.MedAE)))
}

func TestAnalyze_InvalidOptions(t *testing.T) {
	o := DefaultOptions()
	o.Resamples = 0
	_, err := Analyze(exampleDay1, exampleDay2, o)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
