package compute

import (
	"math"

	"github.com/interday/reliastat/pkg/types"
)

// NonparametricICC estimates inter-day reliability from the spread of the
// paired differences relative to the summed spread of both sessions:
//
//	icc = 1 - IQR(day1 - day2) / (IQR(day1) + IQR(day2))
//
// The estimate is bounded above by 1 and has no lower bound. It is NaN when
// both sessions have an IQR of 0.
func NonparametricICC(p types.PairedSample) float64 {
	return iccFromIQRs(IQR(p.Differences()), IQR(p.Day1()), IQR(p.Day2()))
}

func iccFromIQRs(iqrDiffs, iqrDay1, iqrDay2 float64) float64 {
	denom := iqrDay1 + iqrDay2
	if denom == 0 {
		return math.NaN()
	}
	return 1 - iqrDiffs/denom
}
