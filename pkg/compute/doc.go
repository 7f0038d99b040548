// Package compute is the non-parametric inter-day reliability engine.
//
// dispersion.go holds the order-statistic primitives: Percentile (linear
// interpolation between order statistics), Median, IQR and CVIQR.
//
// reliability.go provides NonparametricICC, defined as
//
//	1 - IQR(day1 - day2) / (IQR(day1) + IQR(day2))
//
// accuracy.go provides MedAE and MdAPE. MdAPE always divides by the Day 1
// value, so argument order matters.
//
// bootstrap.go is the resampling engine: BootstrapSEMedian and BootstrapMDC
// draw Options.Resamples uniform with-replacement resamples from an injectable
// random source, optionally split across Options.Workers goroutines.
//
// analyze.go assembles all twelve metrics into a types.ResultSet.
//
// Zero denominators never fail: they produce NaN in the affected metric only.
package compute
