package compute

import (
	"math"
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// BootstrapSEMedian estimates the standard error of the median of sample: the
// Bessel-corrected standard deviation of the medians of opts.Resamples
// with-replacement resamples of len(sample) values. A constant sample yields 0.
func BootstrapSEMedian(sample []float64, opts Options) (float64, error) {
	if err := opts.Validate(); err != nil {
		return 0, err
	}
	return seMedian(sample, opts, opts.rng()), nil
}

// BootstrapMDC estimates the minimal detectable change from paired differences:
//
//	mean(SD of each resample) * z * sqrt(2)
//
// where each SD is Bessel-corrected and z comes from opts.Confidence and
// opts.ZMode.
func BootstrapMDC(differences []float64, opts Options) (float64, error) {
	if err := opts.Validate(); err != nil {
		return 0, err
	}
	return mdc(differences, opts, opts.rng()), nil
}

// ZScore maps a confidence level to the z multiplier used by BootstrapMDC.
func ZScore(confidence float64, mode ZMode) float64 {
	if mode == ZContinuous {
		return distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
	}
	if confidence == 0.95 {
		return 1.96
	}
	return 1.64
}

func seMedian(sample []float64, opts Options, rng *rand.Rand) float64 {
	if len(sample) == 0 {
		return math.NaN()
	}
	medians := resample(sample, opts.Resamples, opts.Workers, rng, medianInPlace)
	return stat.StdDev(medians, nil)
}

func mdc(differences []float64, opts Options, rng *rand.Rand) float64 {
	if len(differences) == 0 {
		return math.NaN()
	}
	sds := resample(differences, opts.Resamples, opts.Workers, rng, func(xs []float64) float64 {
		return stat.StdDev(xs, nil)
	})
	meanSE := stat.Mean(sds, nil)
	return meanSE * ZScore(opts.Confidence, opts.ZMode) * math.Sqrt2
}

// resample draws k resamples of len(sample) values with replacement and
// returns fn applied to each. fn may reorder its argument.
//
// With workers > 1 the k iterations are split into contiguous chunks, each
// driven by its own source seeded from rng in chunk order, so a seeded rng
// gives the same output for the same worker count.
func resample(sample []float64, k, workers int, rng *rand.Rand, fn func([]float64) float64) []float64 {
	out := make([]float64, k)
	if workers <= 1 || k < 2 {
		draw(sample, out, rng, fn)
		return out
	}
	if workers > k {
		workers = k
	}

	chunk := (k + workers - 1) / workers
	var g errgroup.Group
	for start := 0; start < k; start += chunk {
		end := min(start+chunk, k)
		part := out[start:end]
		sub := rand.New(rand.NewSource(rng.Int63()))
		g.Go(func() error {
			draw(sample, part, sub, fn)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// draw fills out with fn over successive resamples, reusing one buffer.
func draw(sample, out []float64, rng *rand.Rand, fn func([]float64) float64) {
	n := len(sample)
	buf := make([]float64, n)
	for i := range out {
		for j := range buf {
			buf[j] = sample[rng.Intn(n)]
		}
		out[i] = fn(buf)
	}
}

func medianInPlace(xs []float64) float64 {
	if hasNaN(xs) {
		return math.NaN()
	}
	sort.Float64s(xs)
	return medianSorted(xs)
}
