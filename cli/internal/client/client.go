package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/interday/reliastat/cli/internal/config"
	"github.com/interday/reliastat/pkg/types"
)

const (
	analysesPath   = "/api/v1/analyses"
	retryWait      = 1 * time.Second
	retryMaxWait   = 30 * time.Second
	userAgentValue = "reliastat-cli"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Unwrap maps 422 to types.ErrMalformedInput so callers can test for it.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnprocessableEntity {
		return types.ErrMalformedInput
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

// SubmitParams overrides the server's bootstrap settings for one analysis.
// Zero fields are left to the server.
type SubmitParams struct {
	Resamples  int
	Confidence float64
	Seed       *int64
}

// Client holds one resty client per destination.
type Client struct {
	server *resty.Client
	fetch  *resty.Client
}

// New builds a Client from cfg.
func New(cfg *config.Config) (*Client, error) {
	srv, err := newResty(cfg.Server.Auth, cfg.Server.TLS, cfg.Server.Timeout)
	if err != nil {
		return nil, fmt.Errorf("client: server: %w", err)
	}
	srv.SetBaseURL(strings.TrimRight(cfg.Server.Endpoint, "/")).
		SetRetryCount(cfg.Server.Retries).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(retryMaxWait).
		AddRetryCondition(retryable)

	fetch, err := newResty(cfg.Fetch.Auth, cfg.Fetch.TLS, cfg.Fetch.Timeout)
	if err != nil {
		return nil, fmt.Errorf("client: fetch: %w", err)
	}
	fetch.SetRetryCount(cfg.Server.Retries).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(retryMaxWait).
		AddRetryCondition(retryable)

	return &Client{server: srv, fetch: fetch}, nil
}

// Submit uploads a CSV body and returns the analysis the server stored.
func (c *Client) Submit(ctx context.Context, csv []byte, p SubmitParams) (*types.Analysis, error) {
	query := make(map[string]string)
	if p.Resamples > 0 {
		query["resamples"] = strconv.Itoa(p.Resamples)
	}
	if p.Confidence > 0 {
		query["confidence"] = strconv.FormatFloat(p.Confidence, 'g', -1, 64)
	}
	if p.Seed != nil {
		query["seed"] = strconv.FormatInt(*p.Seed, 10)
	}

	var out types.Analysis
	resp, err := c.server.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/csv").
		SetQueryParams(query).
		SetBody(csv).
		SetResult(&out).
		SetError(&errorBody{}).
		Post(analysesPath)
	if err != nil {
		return nil, fmt.Errorf("client: submit: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("client: submit: %w", apiError(resp))
	}
	slog.Debug("client: analysis submitted", "id", out.ID, "n", out.N, "attempts", resp.Request.Attempt)
	return &out, nil
}

// Get returns a stored analysis by ID.
func (c *Client) Get(ctx context.Context, id string) (*types.Analysis, error) {
	var out types.Analysis
	resp, err := c.server.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&out).
		SetError(&errorBody{}).
		Get(analysesPath + "/{id}")
	if err != nil {
		return nil, fmt.Errorf("client: get %s: %w", id, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("client: get %s: %w", id, apiError(resp))
	}
	return &out, nil
}

// FetchCSV downloads the file at url.
func (c *Client) FetchCSV(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.fetch.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("client: fetch %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("client: fetch %s: unexpected status %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}

func apiError(resp *resty.Response) error {
	e := &APIError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
		e.Message = strings.TrimPrefix(body.Error, types.UserErrorPrefix+": ")
	} else {
		e.Message = strings.TrimSpace(resp.String())
	}
	return e
}

// retryable reports whether a request should be attempted again: transport
// failures other than cancellation, throttling and server errors.
func retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// newResty builds a resty client for one auth and TLS configuration.
func newResty(auth config.AuthConfig, tlsOpts config.TLSConfig, timeout time.Duration) (*resty.Client, error) {
	tlsCfg, err := buildTLSConfig(auth, tlsOpts)
	if err != nil {
		return nil, err
	}

	rc := resty.New().
		SetTimeout(timeout).
		SetTLSClientConfig(tlsCfg).
		SetHeader("User-Agent", userAgentValue).
		SetLogger(slogLogger{})

	switch auth.Mode {
	case "apikey":
		header := auth.Header
		if header == "" {
			header = config.DefaultKeyHeader
		}
		rc.SetHeader(header, auth.Key())
	case "bearer":
		rc.SetAuthToken(auth.Token())
	case "basic":
		rc.SetBasicAuth(auth.Username, auth.Password())
	}
	return rc, nil
}

// buildTLSConfig loads the client certificate and CA for mtls mode.
func buildTLSConfig(auth config.AuthConfig, opts config.TLSConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // user-configured
	}
	if auth.Mode != "mtls" {
		return tlsCfg, nil
	}

	cert, err := tls.LoadX509KeyPair(auth.CertFile, auth.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load client cert: %w", err)
	}
	tlsCfg.Certificates = []tls.Certificate{cert}

	if auth.CAFile != "" {
		caPEM, err := os.ReadFile(auth.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("no valid certs found in ca file %q", auth.CAFile)
		}
		tlsCfg.RootCAs = pool
	}
	return tlsCfg, nil
}

// slogLogger routes resty's log output through slog.
type slogLogger struct{}

func (slogLogger) Errorf(format string, v ...interface{}) {
	slog.Error("client: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (slogLogger) Warnf(format string, v ...interface{}) {
	slog.Warn("client: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (slogLogger) Debugf(format string, v ...interface{}) {
	slog.Debug("client: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
}
