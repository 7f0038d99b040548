package types

import "time"

// Params records the resampling settings an analysis ran with.
type Params struct {
	Resamples  int     `json:"resamples"`
	Confidence float64 `json:"confidence"`
	ZMode      string  `json:"z_mode"`
	Workers    int     `json:"workers,omitempty"`
	Seed       *int64  `json:"seed,omitempty"`
}

// Alert is a threshold rule that matched one analysis.
type Alert struct {
	AnalysisID string    `json:"analysis_id,omitempty"`
	Rule       string    `json:"rule"`
	Severity   string    `json:"severity"`
	Condition  string    `json:"condition"`
	Metric     string    `json:"metric"`
	Value      Value     `json:"value"`
	FiredAt    time.Time `json:"fired_at"`
}

// Analysis is a completed analysis as stored by the server and returned by
// its API.
type Analysis struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	N         int       `json:"n"`
	Params    Params    `json:"params"`
	Results   ResultSet `json:"results"`
	Alerts    []Alert   `json:"alerts,omitempty"`
}
