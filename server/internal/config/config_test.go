package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/interday/reliastat/pkg/compute"
	"github.com/interday/reliastat/pkg/ingest"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, "server: {}\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Server.Retention.TTL != DefaultRetentionTTL {
		t.Errorf("retention.ttl: got %v, want %v", cfg.Server.Retention.TTL, DefaultRetentionTTL)
	}
	if cfg.Server.Bootstrap.Resamples != compute.DefaultResamples {
		t.Errorf("bootstrap.resamples: got %d", cfg.Server.Bootstrap.Resamples)
	}
	if cfg.Server.CSV.Missing != ingest.MissingRows {
		t.Errorf("csv.missing: got %q", cfg.Server.CSV.Missing)
	}
	if cfg.Server.Limits.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Errorf("limits.max_body_bytes: got %d", cfg.Server.Limits.MaxBodyBytes)
	}
}

func TestLoad_FullServer(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 9091
  auth:
    mode: apikey
    key_env: MY_KEY
    header: x-reliastat-key
  retention:
    ttl: 2h
  bootstrap:
    resamples: 5000
    confidence: 0.90
    workers: 4
  csv:
    delimiter: ";"
  alerts:
    rules:
      - name: low-icc
        condition: "icc < 0.75"
        severity: critical
        cooldown: 1h
    webhooks:
      - type: slack
        url_env: SLACK_URL
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9091 {
		t.Errorf("http_port: got %d, want 9091", cfg.Server.HTTPPort)
	}
	if cfg.Server.Auth.EffectiveHeader() != "x-reliastat-key" {
		t.Errorf("header: got %q", cfg.Server.Auth.EffectiveHeader())
	}
	if cfg.Server.Retention.TTL != 2*time.Hour {
		t.Errorf("retention.ttl: got %v, want 2h", cfg.Server.Retention.TTL)
	}
	if cfg.Server.Bootstrap.Resamples != 5000 || cfg.Server.Bootstrap.Workers != 4 {
		t.Errorf("bootstrap: got %+v", cfg.Server.Bootstrap)
	}
	if cfg.Server.CSV.Delimiter != ";" {
		t.Errorf("csv.delimiter: got %q", cfg.Server.CSV.Delimiter)
	}
	if len(cfg.Server.Alerts.Rules) != 1 || cfg.Server.Alerts.Rules[0].Cooldown != time.Hour {
		t.Errorf("alerts.rules: got %+v", cfg.Server.Alerts.Rules)
	}
	if len(cfg.Server.Alerts.Webhooks) != 1 {
		t.Errorf("alerts.webhooks: got %+v", cfg.Server.Alerts.Webhooks)
	}
}

func TestLoad_DefaultHeader(t *testing.T) {
	p := writeConfig(t, `server:
  auth:
    mode: apikey
    key_env: K
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h := cfg.Server.Auth.EffectiveHeader(); h != "x-api-key" {
		t.Errorf("EffectiveHeader: got %q, want x-api-key", h)
	}
}

func TestLoad_KeyEnvResolution(t *testing.T) {
	t.Setenv("TEST_SERVER_KEY", "supersecret")
	p := writeConfig(t, `server:
  auth:
    mode: apikey
    key_env: TEST_SERVER_KEY
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if k := cfg.Server.Auth.Key(); k != "supersecret" {
		t.Errorf("Key(): got %q, want supersecret", k)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown auth mode", "server:\n  auth:\n    mode: oauth2\n"},
		{"apikey without key_env", "server:\n  auth:\n    mode: apikey\n"},
		{"port out of range", "server:\n  http_port: 70000\n"},
		{"negative ttl", "server:\n  retention:\n    ttl: -1m\n"},
		{"bad confidence", "server:\n  bootstrap:\n    confidence: 0\n"},
		{"bad delimiter", "server:\n  csv:\n    delimiter: \"ab\"\n"},
		{"bad rule", "server:\n  alerts:\n    rules:\n      - name: r\n        condition: \"drop_pct > 10\"\n"},
		{"bad webhook", "server:\n  alerts:\n    webhooks:\n      - type: smtp\n"},
		{"invalid yaml", "server: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.yaml)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestWatch_Reload(t *testing.T) {
	p := writeConfig(t, "server: {}\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := Watch(ctx, p, func(c *Config) { got <- c }); err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	// An invalid file is ignored.
	if err := os.WriteFile(p, []byte("server:\n  http_port: -1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-got:
		t.Fatalf("onChange called for invalid config: %+v", c.Server)
	case <-time.After(400 * time.Millisecond):
	}

	if err := os.WriteFile(p, []byte("server:\n  http_port: 9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-got:
		if c.Server.HTTPPort != 9999 {
			t.Errorf("reloaded http_port: got %d, want 9999", c.Server.HTTPPort)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	<-done
}
