package compute

import (
	"fmt"

	"github.com/interday/reliastat/pkg/types"
)

// Analyze validates day1 and day2 as a PairedSample and computes every metric.
// Malformed input returns an error wrapping types.ErrMalformedInput and no
// results.
func Analyze(day1, day2 []float64, opts Options) (types.ResultSet, error) {
	p, err := types.NewPairedSample(day1, day2)
	if err != nil {
		return types.ResultSet{}, err
	}
	return AnalyzePaired(p, opts)
}

// AnalyzePaired computes the twelve reliability metrics for p.
//
// Random draws are consumed in a fixed order (SE of Day 1, SE of Day 2, MDC),
// so a seeded opts.Rand reproduces the same ResultSet.
func AnalyzePaired(p types.PairedSample, opts Options) (types.ResultSet, error) {
	if err := opts.Validate(); err != nil {
		return types.ResultSet{}, fmt.Errorf("compute: %w", err)
	}
	rng := opts.rng()

	day1, day2 := p.Day1(), p.Day2()
	diffs := p.Differences()

	iqr1, iqr2 := IQR(day1), IQR(day2)

	se1 := seMedian(day1, opts, rng)
	se2 := seMedian(day2, opts, rng)
	mdcValue := mdc(diffs, opts, rng)

	values := map[types.Metric]float64{
		types.MedianDay1:   Median(day1),
		types.MedianDay2:   Median(day2),
		types.IQRDay1:      iqr1,
		types.IQRDay2:      iqr2,
		types.CVDay1:       CVIQR(day1),
		types.CVDay2:       CVIQR(day2),
		types.ICC:          iccFromIQRs(IQR(diffs), iqr1, iqr2),
		types.SEMedianDay1: se1,
		types.SEMedianDay2: se2,
		types.MDC:          mdcValue,
		types.MedAE:        MedAE(p),
		types.MdAPE:        MdAPE(p),
	}

	rs, err := types.NewResultSet(values)
	if err != nil {
		return types.ResultSet{}, fmt.Errorf("compute: %w", err)
	}
	return rs, nil
}
