package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interday/reliastat/cli/internal/config"
	"github.com/interday/reliastat/pkg/types"
)

func testResults(t *testing.T) types.ResultSet {
	t.Helper()
	values := make(map[types.Metric]float64)
	for _, m := range types.Metrics() {
		values[m] = float64(m)
	}
	rs, err := types.NewResultSet(values)
	require.NoError(t, err)
	return rs
}

func newTestClient(t *testing.T, endpoint string, retries int) *Client {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Endpoint = endpoint
	cfg.Server.Retries = retries
	cfg.Server.Auth = config.AuthConfig{Mode: "apikey", KeyEnv: "TEST_RELIASTAT_KEY"}
	t.Setenv("TEST_RELIASTAT_KEY", "s3cret")

	c, err := New(cfg)
	require.NoError(t, err)
	c.server.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)
	c.fetch.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)
	return c
}

func TestSubmit(t *testing.T) {
	rs := testResults(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/analyses", r.URL.Path)
		assert.Equal(t, "s3cret", r.Header.Get("x-api-key"))
		assert.Equal(t, "text/csv", r.Header.Get("Content-Type"))
		assert.Equal(t, "500", r.URL.Query().Get("resamples"))
		assert.Equal(t, "7", r.URL.Query().Get("seed"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "d1,d2\n1,2\n", string(body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(types.Analysis{ID: "a-1", N: 1, Results: rs})
	}))
	defer srv.Close()

	seed := int64(7)
	c := newTestClient(t, srv.URL, 0)
	got, err := c.Submit(context.Background(), []byte("d1,d2\n1,2\n"), SubmitParams{Resamples: 500, Seed: &seed})
	require.NoError(t, err)
	assert.Equal(t, "a-1", got.ID)
	assert.True(t, got.Results.Complete())
	assert.Equal(t, 6.0, got.Results.Get(types.ICC))
}

func TestSubmit_Unprocessable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"Erro ao processar os dados: malformed input: day 1 has no values"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	_, err := c.Submit(context.Background(), []byte("d1,d2\n"), SubmitParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMalformedInput))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "malformed input: day 1 has no values", apiErr.Message)
	assert.EqualValues(t, 1, calls.Load(), "422 must not be retried")
}

func TestSubmit_RetriesServerErrors(t *testing.T) {
	rs := testResults(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(types.Analysis{ID: "a-2", Results: rs})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	got, err := c.Submit(context.Background(), []byte("d1,d2\n1,2\n"), SubmitParams{})
	require.NoError(t, err)
	assert.Equal(t, "a-2", got.ID)
	assert.EqualValues(t, 3, calls.Load())
}

func TestGet_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/analyses/missing", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"analysis not found"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	_, err := c.Get(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.False(t, errors.Is(err, types.ErrMalformedInput))
}

func TestFetchCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.csv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("d1,d2\n3,4\n"))
	}))
	defer srv.Close()

	c := newTestClient(t, "http://localhost:8080", 0)
	body, err := c.FetchCSV(context.Background(), srv.URL+"/data.csv")
	require.NoError(t, err)
	assert.Equal(t, "d1,d2\n3,4\n", string(body))

	_, err = c.FetchCSV(context.Background(), srv.URL+"/absent.csv")
	assert.Error(t, err)
}

func TestBuildTLSConfig_MTLSMissingCert(t *testing.T) {
	_, err := buildTLSConfig(config.AuthConfig{Mode: "mtls", CertFile: "/nonexistent.crt", KeyFile: "/nonexistent.key"}, config.TLSConfig{})
	assert.Error(t, err)
}
