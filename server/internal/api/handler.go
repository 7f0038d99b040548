package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/interday/reliastat/pkg/compute"
	"github.com/interday/reliastat/pkg/export"
	"github.com/interday/reliastat/pkg/ingest"
	"github.com/interday/reliastat/pkg/types"
	"github.com/interday/reliastat/server/internal/alerts"
	"github.com/interday/reliastat/server/internal/store"
)

const analysesPath = "/api/v1/analyses"

// Request outcomes recorded by reliastat_analyses_total.
const (
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

var (
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reliastat_analyses_total",
		Help: "Analysis requests by outcome (ok, invalid, rejected, error).",
	}, []string{"outcome"})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reliastat_analysis_duration_seconds",
		Help:    "Time spent computing one analysis, resampling included.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	})

	analysisPairs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reliastat_analysis_pairs",
		Help:    "Number of paired observations per analysis.",
		Buckets: prometheus.ExponentialBuckets(4, 2, 10),
	})
)

// Publisher receives every completed analysis. The WebSocket hub implements it.
type Publisher interface {
	Publish(a types.Analysis)
}

// Options are the request defaults and limits the handler applies.
type Options struct {
	Bootstrap    compute.Settings
	CSV          ingest.Options
	MaxBodyBytes int64
	MaxResamples int
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	store    *store.Store
	alerts   *alerts.Engine
	pub      Publisher
	mux      *http.ServeMux
	validate *validator.Validate

	mu   sync.RWMutex
	opts Options

	newID func() string
	now   func() time.Time
}

// New creates a Handler and registers all routes. eng and pub may be nil.
func New(st *store.Store, eng *alerts.Engine, pub Publisher, opts Options) *Handler {
	h := &Handler{
		store:    st,
		alerts:   eng,
		pub:      pub,
		mux:      http.NewServeMux(),
		validate: newValidator(),
		opts:     opts,
		newID:    uuid.NewString,
		now:      time.Now,
	}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc(analysesPath, h.analyses)
	h.mux.HandleFunc(analysesPath+"/", h.analysis) // subtree: {id}, {id}/export.csv, {id}/metrics
	h.mux.HandleFunc("/api/v1/alerts", h.recentAlerts)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// SetOptions replaces the request defaults, e.g. after a config reload.
func (h *Handler) SetOptions(opts Options) {
	h.mu.Lock()
	h.opts = opts
	h.mu.Unlock()
}

func (h *Handler) options() Options {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.opts
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	resp := HealthResponse{
		Status:        "ok",
		AnalysisCount: h.store.Count(),
	}
	if h.alerts != nil {
		resp.RecentAlerts = len(h.alerts.Recent(0))
	}
	jsonResp(w, http.StatusOK, resp)
}

// analyses serves GET (list) and POST (create) on /api/v1/analyses.
func (h *Handler) analyses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listAnalyses(w, r)
	case http.MethodPost:
		h.createAnalysis(w, r)
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// listAnalyses returns GET /api/v1/analyses?limit=N, newest first.
func (h *Handler) listAnalyses(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r.URL.Query())
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	list := h.store.List(limit)
	out := make([]AnalysisSummary, 0, len(list))
	for _, a := range list {
		out = append(out, AnalysisSummary{
			ID:         a.ID,
			CreatedAt:  a.CreatedAt,
			N:          a.N,
			ICC:        types.Value(a.Results.Get(types.ICC)),
			MDC:        types.Value(a.Results.Get(types.MDC)),
			AlertCount: len(a.Alerts),
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// analysis serves the /api/v1/analyses/{id} subtree.
func (h *Handler) analysis(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, analysesPath+"/")
	if rest == "" {
		h.analyses(w, r)
		return
	}
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, sub, _ := strings.Cut(rest, "/")
	a, ok := h.store.Get(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "analysis not found")
		return
	}

	switch sub {
	case "":
		jsonResp(w, http.StatusOK, AnalysisResponse{Analysis: a, Diagnostics: computeDiagnostics(a)})
	case "export.csv":
		h.exportCSV(w, a)
	case "metrics":
		h.exportMetrics(w, a)
	default:
		jsonErr(w, http.StatusNotFound, "not found")
	}
}

// recentAlerts returns GET /api/v1/alerts?limit=N, newest first.
func (h *Handler) recentAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit, err := queryLimit(r.URL.Query())
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	out := []types.Alert{}
	if h.alerts != nil {
		out = h.alerts.Recent(limit)
	}
	jsonResp(w, http.StatusOK, out)
}

// createAnalysis handles POST /api/v1/analyses. The body is either a CSV
// table with overrides in the query string, or an AnalyzeRequest.
func (h *Handler) createAnalysis(w http.ResponseWriter, r *http.Request) {
	opts := h.options()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, opts.MaxBodyBytes))
	if err != nil {
		analysesTotal.WithLabelValues(outcomeInvalid).Inc()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonErr(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		jsonErr(w, http.StatusBadRequest, "read request body: "+err.Error())
		return
	}

	var (
		pair types.PairedSample
		over Overrides
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var req AnalyzeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			analysesTotal.WithLabelValues(outcomeInvalid).Inc()
			jsonErr(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
		if err := h.validate.Struct(req); err != nil {
			analysesTotal.WithLabelValues(outcomeInvalid).Inc()
			jsonErr(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		over = req.Overrides
		pair, err = types.NewPairedSample(req.Day1, req.Day2)

	case "", "text/csv", "text/plain", "application/csv":
		if over, err = parseOverrides(r.URL.Query()); err != nil {
			analysesTotal.WithLabelValues(outcomeInvalid).Inc()
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.validate.Struct(over); err != nil {
			analysesTotal.WithLabelValues(outcomeInvalid).Inc()
			jsonErr(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		pair, err = ingest.ReadPaired(bytes.NewReader(body), opts.CSV)

	default:
		analysesTotal.WithLabelValues(outcomeInvalid).Inc()
		jsonErr(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported content type %q: want text/csv or application/json", mediaType))
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}

	settings := over.apply(opts.Bootstrap)
	if settings.Resamples > opts.MaxResamples {
		analysesTotal.WithLabelValues(outcomeInvalid).Inc()
		jsonErr(w, http.StatusBadRequest,
			fmt.Sprintf("resamples %d exceeds the limit of %d", settings.Resamples, opts.MaxResamples))
		return
	}
	copts, err := settings.Options()
	if err != nil {
		analysesTotal.WithLabelValues(outcomeInvalid).Inc()
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	rs, err := compute.AnalyzePaired(pair, copts)
	elapsed := time.Since(start)
	if err != nil {
		h.fail(w, err)
		return
	}
	analysisDuration.Observe(elapsed.Seconds())
	analysisPairs.Observe(float64(pair.Len()))

	a := types.Analysis{
		ID:        h.newID(),
		CreatedAt: h.now().UTC(),
		N:         pair.Len(),
		Params: types.Params{
			Resamples:  copts.Resamples,
			Confidence: copts.Confidence,
			ZMode:      copts.ZMode.String(),
			Workers:    copts.Workers,
			Seed:       settings.Seed,
		},
		Results: rs,
	}
	if h.alerts != nil {
		a.Alerts = h.alerts.Evaluate(&a)
	}
	h.store.Put(a)
	if h.pub != nil {
		h.pub.Publish(a)
	}
	analysesTotal.WithLabelValues(outcomeOK).Inc()

	slog.Info("api: analysis completed",
		"id", a.ID,
		"n", a.N,
		"resamples", a.Params.Resamples,
		"alerts", len(a.Alerts),
		"duration", elapsed,
	)

	w.Header().Set("Location", analysesPath+"/"+a.ID)
	jsonResp(w, http.StatusCreated, AnalysisResponse{Analysis: a, Diagnostics: computeDiagnostics(a)})
}

// fail maps an ingest or compute error to a response. Malformed data is the
// caller's problem (422); anything else is ours (500).
func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, types.ErrMalformedInput) {
		analysesTotal.WithLabelValues(outcomeRejected).Inc()
		slog.Debug("api: input rejected", "err", err)
		jsonErr(w, http.StatusUnprocessableEntity, types.UserMessage(err))
		return
	}
	analysesTotal.WithLabelValues(outcomeError).Inc()
	slog.Error("api: analysis failed", "err", err)
	jsonErr(w, http.StatusInternalServerError, "analysis failed")
}

func (h *Handler) exportCSV(w http.ResponseWriter, a types.Analysis) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, a.Results); err != nil {
		slog.Error("api: csv export failed", "id", a.ID, "err", err)
		jsonErr(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="reliastat-%s.csv"`, a.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

func (h *Handler) exportMetrics(w http.ResponseWriter, a types.Analysis) {
	var buf bytes.Buffer
	if err := export.WritePrometheus(&buf, a.Results, map[string]string{"analysis_id": a.ID}); err != nil {
		slog.Error("api: metrics export failed", "id", a.ID, "err", err)
		jsonErr(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// apply returns base with the non-empty overrides applied.
func (o Overrides) apply(base compute.Settings) compute.Settings {
	if o.Resamples != nil {
		base.Resamples = *o.Resamples
	}
	if o.Confidence != nil {
		base.Confidence = *o.Confidence
	}
	if o.Seed != nil {
		seed := *o.Seed
		base.Seed = &seed
	}
	if o.ZMode != "" {
		base.ZMode = o.ZMode
	}
	return base
}

// parseOverrides reads resamples, confidence, seed and z_mode from the query string.
func parseOverrides(q url.Values) (Overrides, error) {
	var o Overrides
	if s := q.Get("resamples"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return o, fmt.Errorf("resamples: %q is not an integer", s)
		}
		o.Resamples = &n
	}
	if s := q.Get("confidence"); s != "" {
		c, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return o, fmt.Errorf("confidence: %q is not a number", s)
		}
		o.Confidence = &c
	}
	if s := q.Get("seed"); s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return o, fmt.Errorf("seed: %q is not an integer", s)
		}
		o.Seed = &seed
	}
	o.ZMode = q.Get("z_mode")
	return o, nil
}

func queryLimit(q url.Values) (int, error) {
	s := q.Get("limit")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("limit: %q is not a non-negative integer", s)
	}
	return n, nil
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}
