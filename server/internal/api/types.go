package api

import (
	"time"

	"github.com/interday/reliastat/pkg/types"
)

// AnalyzeRequest is the JSON body accepted by POST /api/v1/analyses.
// Day1 and Day2 are paired by position.
type AnalyzeRequest struct {
	Day1 []float64 `json:"day1" validate:"required"`
	Day2 []float64 `json:"day2" validate:"required"`
	Overrides
}

// Overrides are the per-request overrides of the configured bootstrap
// settings. They arrive in the JSON body or as query parameters on a CSV upload.
type Overrides struct {
	Resamples  *int     `json:"resamples,omitempty" validate:"omitempty,min=2"`
	Confidence *float64 `json:"confidence,omitempty" validate:"omitempty,gt=0,lt=1"`
	Seed       *int64   `json:"seed,omitempty"`
	ZMode      string   `json:"z_mode,omitempty" validate:"omitempty,oneof=table continuous"`
}

// AnalysisResponse is a stored analysis with its interpretation hints.
type AnalysisResponse struct {
	types.Analysis
	Diagnostics []DiagnosticHint `json:"diagnostics"`
}

// AnalysisSummary is one row of GET /api/v1/analyses.
type AnalysisSummary struct {
	ID         string      `json:"id"`
	CreatedAt  time.Time   `json:"created_at"`
	N          int         `json:"n"`
	ICC        types.Value `json:"icc"`
	MDC        types.Value `json:"mdc"`
	AlertCount int         `json:"alert_count"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status        string `json:"status"`
	AnalysisCount int    `json:"analysis_count"`
	RecentAlerts  int    `json:"recent_alerts"`
}

type errorResponse struct {
	Error string `json:"error"`
}
