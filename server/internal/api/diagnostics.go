package api

import (
	"fmt"
	"math"
	"sort"

	"github.com/interday/reliastat/pkg/types"
)

// Hint levels, most severe first.
const (
	levelCritical = "critical"
	levelWarning  = "warning"
	levelInfo     = "info"
	levelOK       = "ok"
)

// smallSample is the pair count below which bootstrap estimates are flagged.
const smallSample = 10

// highCV is the CV (%) above which a day is flagged as widely dispersed.
const highCV = 50.0

// DiagnosticHint is one plain-language reading of an analysis result.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical".
	Level string `json:"level"`
	// Title is a short label.
	Title string `json:"title"`
	// Detail is the full explanation.
	Detail string `json:"detail"`
	// Value is the metric value the hint refers to, when finite.
	Value *float64 `json:"value,omitempty"`
}

// computeDiagnostics interprets the results of a. Hints are ordered critical
// first, then warnings, info and ok.
func computeDiagnostics(a types.Analysis) []DiagnosticHint {
	rs := a.Results
	var hints []DiagnosticHint

	icc := rs.Get(types.ICC)
	switch {
	case math.IsNaN(icc):
		hints = append(hints, DiagnosticHint{
			Key:   "icc_undefined",
			Level: levelCritical,
			Title: "ICC undefined",
			Detail: "Both days have an interquartile range of zero, so there is no spread " +
				"to compare the differences against. Reliability cannot be judged from this data.",
		})
	case icc < 0.5:
		hints = append(hints, iccHint("icc_poor", levelCritical, "Poor reliability", icc,
			"Differences between days are large relative to the spread of the measurements. "+
				"Values below 0.5 indicate poor test-retest reliability."))
	case icc < 0.75:
		hints = append(hints, iccHint("icc_moderate", levelWarning, "Moderate reliability", icc,
			"Values between 0.5 and 0.75 indicate moderate test-retest reliability."))
	case icc < 0.9:
		hints = append(hints, iccHint("icc_good", levelOK, "Good reliability", icc,
			"Values between 0.75 and 0.9 indicate good test-retest reliability."))
	default:
		hints = append(hints, iccHint("icc_excellent", levelOK, "Excellent reliability", icc,
			"Values above 0.9 indicate excellent test-retest reliability."))
	}

	if mdape := rs.Get(types.MdAPE); math.IsInf(mdape, 0) || math.IsNaN(mdape) {
		hints = append(hints, DiagnosticHint{
			Key:   "mdape_undefined",
			Level: levelWarning,
			Title: "MdAPE not finite",
			Detail: "Day 1 contains zero values, so the percentage error for those pairs is infinite " +
				"or undefined. Use MedAE to judge agreement in the original units.",
		})
	}

	for _, d := range []struct {
		m   types.Metric
		day int
	}{{types.CVDay1, 1}, {types.CVDay2, 2}} {
		cv := rs.Get(d.m)
		switch {
		case math.IsNaN(cv) || math.IsInf(cv, 0):
			hints = append(hints, DiagnosticHint{
				Key:    fmt.Sprintf("cv_day%d_undefined", d.day),
				Level:  levelInfo,
				Title:  fmt.Sprintf("CV Day %d undefined", d.day),
				Detail: fmt.Sprintf("The median of Day %d is zero, so its coefficient of variation is not defined.", d.day),
			})
		case cv > highCV:
			hints = append(hints, DiagnosticHint{
				Key:   fmt.Sprintf("cv_day%d_high", d.day),
				Level: levelInfo,
				Title: fmt.Sprintf("High dispersion Day %d", d.day),
				Detail: fmt.Sprintf("The interquartile range of Day %d is %.1f%% of its median. "+
					"Widely dispersed data make the MDC large.", d.day, cv),
				Value: ptr(cv),
			})
		}
	}

	if a.N < smallSample {
		hints = append(hints, DiagnosticHint{
			Key:   "small_sample",
			Level: levelWarning,
			Title: "Small sample",
			Detail: fmt.Sprintf("Only %d pairs were analysed. Bootstrap estimates of the standard error "+
				"and the MDC are unstable below %d pairs.", a.N, smallSample),
			Value: ptr(float64(a.N)),
		})
	}

	mdc, med := rs.Get(types.MDC), rs.Get(types.MedianDay1)
	if isFinite(mdc) && isFinite(med) && med != 0 {
		pct := mdc / math.Abs(med) * 100
		hints = append(hints, DiagnosticHint{
			Key:   "mdc_relative",
			Level: levelInfo,
			Title: "Smallest real change",
			Detail: fmt.Sprintf("A change smaller than %s (%.1f%% of the Day 1 median) is within "+
				"measurement error at %.0f%% confidence.", types.Value(mdc), pct, a.Params.Confidence*100),
			Value: ptr(pct),
		})
	}

	sort.SliceStable(hints, func(i, j int) bool {
		return levelRank(hints[i].Level) < levelRank(hints[j].Level)
	})
	return hints
}

func iccHint(key, level, title string, icc float64, detail string) DiagnosticHint {
	return DiagnosticHint{Key: key, Level: level, Title: title, Detail: detail, Value: ptr(icc)}
}

func levelRank(level string) int {
	switch level {
	case levelCritical:
		return 0
	case levelWarning:
		return 1
	case levelInfo:
		return 2
	default:
		return 3
	}
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func ptr(v float64) *float64 { return &v }
