package types

import "fmt"

// Metric identifies one entry of a ResultSet. The declaration order is the
// display and export order.
type Metric int

const (
	MedianDay1 Metric = iota
	MedianDay2
	IQRDay1
	IQRDay2
	CVDay1
	CVDay2
	ICC
	SEMedianDay1
	SEMedianDay2
	MDC
	MedAE
	MdAPE

	metricCount
)

var metricNames = [metricCount]string{
	MedianDay1:   "Mediana Dia 1",
	MedianDay2:   "Mediana Dia 2",
	IQRDay1:      "IQR Dia 1",
	IQRDay2:      "IQR Dia 2",
	CVDay1:       "CV Dia 1 (%)",
	CVDay2:       "CV Dia 2 (%)",
	ICC:          "ICC Não Paramétrico",
	SEMedianDay1: "Erro padrão da Mediana Dia 1",
	SEMedianDay2: "Erro padrão da Mediana Dia 2",
	MDC:          "MDC Não Paramétrico",
	MedAE:        "MedAE",
	MdAPE:        "MdAPE (%)",
}

var metricSlugs = [metricCount]string{
	MedianDay1:   "median_day1",
	MedianDay2:   "median_day2",
	IQRDay1:      "iqr_day1",
	IQRDay2:      "iqr_day2",
	CVDay1:       "cv_day1_pct",
	CVDay2:       "cv_day2_pct",
	ICC:          "icc",
	SEMedianDay1: "se_median_day1",
	SEMedianDay2: "se_median_day2",
	MDC:          "mdc",
	MedAE:        "medae",
	MdAPE:        "mdape_pct",
}

// Metrics returns every metric in display order.
func Metrics() []Metric {
	out := make([]Metric, metricCount)
	for i := range out {
		out[i] = Metric(i)
	}
	return out
}

// Valid reports whether m is one of the declared metrics.
func (m Metric) Valid() bool { return m >= 0 && m < metricCount }

// Name returns the display key used in tables and CSV exports.
func (m Metric) Name() string {
	if !m.Valid() {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return metricNames[m]
}

// Slug returns the ASCII identifier used in rules, JSON and Prometheus names.
func (m Metric) Slug() string {
	if !m.Valid() {
		return fmt.Sprintf("metric_%d", int(m))
	}
	return metricSlugs[m]
}

func (m Metric) String() string { return m.Name() }

// ParseMetric resolves a display name or a slug.
func ParseMetric(s string) (Metric, bool) {
	for i := Metric(0); i < metricCount; i++ {
		if metricNames[i] == s || metricSlugs[i] == s {
			return i, true
		}
	}
	return 0, false
}
