package compute

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spread returns a deterministic 41-value sample with many distinct values.
func spread() []float64 {
	xs := make([]float64, 41)
	for i := range xs {
		xs[i] = float64(i*37%41) + 0.5*float64(i%3)
	}
	return xs
}

func seeded(seed int64) Options {
	o := DefaultOptions()
	o.Rand = NewSeededRand(seed)
	return o
}

func TestZScore(t *testing.T) {
	assert.Equal(t, 1.96, ZScore(0.95, ZTable))
	assert.Equal(t, 1.64, ZScore(0.90, ZTable))
	assert.Equal(t, 1.64, ZScore(0.99, ZTable), "the table has two levels only")
	assert.InDelta(t, 1.959964, ZScore(0.95, ZContinuous), 1e-5)
	assert.InDelta(t, 2.575829, ZScore(0.99, ZContinuous), 1e-5)
}

func TestBootstrapSEMedian_ConstantSampleIsZero(t *testing.T) {
	se, err := BootstrapSEMedian([]float64{4, 4, 4, 4, 4}, seeded(1))
	require.NoError(t, err)
	assert.Equal(t, 0.0, se)
}

func TestBootstrapSEMedian_NonNegative(t *testing.T) {
	se, err := BootstrapSEMedian(spread(), seeded(2))
	require.NoError(t, err)
	assert.Greater(t, se, 0.0)
}

func TestBootstrapSEMedian_SeedReproducible(t *testing.T) {
	a, err := BootstrapSEMedian(spread(), seeded(42))
	require.NoError(t, err)
	b, err := BootstrapSEMedian(spread(), seeded(42))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBootstrapSEMedian_StableAcrossSeeds(t *testing.T) {
	// Resampled medians take few distinct values, so the SE needs more
	// resamples than the MDC to settle within 10%.
	opts := func(seed int64) Options {
		o := seeded(seed)
		o.Resamples = 4 * DefaultResamples
		return o
	}
	base, err := BootstrapSEMedian(spread(), opts(100))
	require.NoError(t, err)
	for seed := int64(101); seed < 105; seed++ {
		got, err := BootstrapSEMedian(spread(), opts(seed))
		require.NoError(t, err)
		assert.InEpsilon(t, base, got, 0.10, "seed %d", seed)
	}
}

func TestBootstrapMDC_ScalesWithDispersion(t *testing.T) {
	diffs := spread()
	base, err := BootstrapMDC(diffs, seeded(7))
	require.NoError(t, err)

	for _, k := range []float64{0.5, 3, 10} {
		scaled := make([]float64, len(diffs))
		for i, d := range diffs {
			scaled[i] = d * k
		}
		got, err := BootstrapMDC(scaled, seeded(7))
		require.NoError(t, err)
		assert.InEpsilon(t, base*k, got, 1e-9, "k=%v", k)
	}
}

func TestBootstrapMDC_ConfidenceTable(t *testing.T) {
	diffs := spread()
	at95, err := BootstrapMDC(diffs, seeded(3))
	require.NoError(t, err)

	o := seeded(3)
	o.Confidence = 0.90
	at90, err := BootstrapMDC(diffs, o)
	require.NoError(t, err)

	assert.InEpsilon(t, at95/1.96*1.64, at90, 1e-12)
}

func TestBootstrapMDC_StableAcrossSeeds(t *testing.T) {
	base, err := BootstrapMDC(spread(), seeded(200))
	require.NoError(t, err)
	for seed := int64(201); seed < 205; seed++ {
		got, err := BootstrapMDC(spread(), seeded(seed))
		require.NoError(t, err)
		assert.InEpsilon(t, base, got, 0.10, "seed %d", seed)
	}
}

func TestBootstrapMDC_SingleValueIsNaN(t *testing.T) {
	got, err := BootstrapMDC([]float64{3}, seeded(1))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got), "the SD of one value is undefined")
}

func TestBootstrap_WorkersDeterministic(t *testing.T) {
	par := func(seed int64) Options {
		o := seeded(seed)
		o.Workers = 4
		return o
	}

	a, err := BootstrapMDC(spread(), par(9))
	require.NoError(t, err)
	b, err := BootstrapMDC(spread(), par(9))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	serial, err := BootstrapMDC(spread(), seeded(9))
	require.NoError(t, err)
	assert.InEpsilon(t, serial, a, 0.10)
}

func TestBootstrap_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"one resample", func(o *Options) { o.Resamples = 1 }},
		{"confidence 1", func(o *Options) { o.Confidence = 1 }},
		{"confidence 0", func(o *Options) { o.Confidence = 0 }},
		{"negative workers", func(o *Options) { o.Workers = -1 }},
		{"unknown z mode", func(o *Options) { o.ZMode = ZMode(9) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := DefaultOptions()
			tc.mutate(&o)
			_, err := BootstrapSEMedian(spread(), o)
			assert.ErrorIs(t, err, ErrInvalidOptions)
			_, err = BootstrapMDC(spread(), o)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

func TestResample_ChunksCoverEveryIteration(t *testing.T) {
	out := resample([]float64{1, 2, 3}, 10, 3, NewSeededRand(1), func(xs []float64) float64 {
		return 1
	})
	require.Len(t, out, 10)
	for i, v := range out {
		assert.Equal(t, 1.0, v, "iteration %d not filled", i)
	}
}

func TestSettings_Options(t *testing.T) {
	seed := int64(5)
	s := DefaultSettings()
	s.Seed = &seed
	s.ZMode = "continuous"

	o, err := s.Options()
	require.NoError(t, err)
	assert.Equal(t, ZContinuous, o.ZMode)
	require.NotNil(t, o.Rand)
	assert.Equal(t, NewSeededRand(5).Int63(), o.Rand.Int63())

	s.ZMode = "gaussian"
	_, err = s.Options()
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
