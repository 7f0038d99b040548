package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/interday/reliastat/pkg/compute"
	"github.com/interday/reliastat/pkg/ingest"
	"github.com/interday/reliastat/server/internal/alerts"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort     = 8080
	DefaultRetentionTTL = 30 * time.Minute
	DefaultMaxBodyBytes = 10 << 20
	DefaultMaxResamples = 100000
)

// Config holds the server-side configuration parsed from the `server:` section
// of the config file.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API and WebSocket hub listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Auth configures how the server authenticates REST clients.
	Auth AuthConfig `yaml:"auth"`

	// Retention controls how long completed analyses stay in memory.
	Retention RetentionConfig `yaml:"retention"`

	// Bootstrap holds the default resampling settings. Requests may override
	// resamples, confidence and seed.
	Bootstrap compute.Settings `yaml:"bootstrap"`

	// CSV controls how text/csv request bodies are parsed.
	CSV ingest.Options `yaml:"csv"`

	// Limits bounds request sizes.
	Limits LimitsConfig `yaml:"limits"`

	// Alerts holds rule definitions and webhook delivery targets.
	Alerts alerts.Config `yaml:"alerts"`
}

// AuthConfig controls client authentication on the server side.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	// Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header to read the key from. Defaults to "x-api-key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// RetentionConfig controls in-memory analysis retention.
type RetentionConfig struct {
	// TTL is how long an analysis remains retrievable after it completes.
	// Default: 30m.
	TTL time.Duration `yaml:"ttl"`
}

// LimitsConfig bounds the work a single request can ask for.
type LimitsConfig struct {
	// MaxBodyBytes caps the request body size (default 10 MiB).
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// MaxResamples caps the resamples a request may override (default 100000).
	MaxResamples int `yaml:"max_resamples"`
}

// Load reads and parses the config file at path, returning the server configuration.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config pre-populated with default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Retention: RetentionConfig{
				TTL: DefaultRetentionTTL,
			},
			Bootstrap: compute.DefaultSettings(),
			CSV:       ingest.DefaultOptions(),
			Limits: LimitsConfig{
				MaxBodyBytes: DefaultMaxBodyBytes,
				MaxResamples: DefaultMaxResamples,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	switch s.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", s.Auth.Mode)
	}
	if s.Auth.Mode == "apikey" && s.Auth.KeyEnv == "" {
		return fmt.Errorf("server.auth.key_env is required when mode is apikey")
	}
	if s.Retention.TTL < 0 {
		return fmt.Errorf("server.retention.ttl must not be negative")
	}
	if _, err := s.Bootstrap.Options(); err != nil {
		return fmt.Errorf("server.bootstrap: %w", err)
	}
	if err := s.CSV.Validate(); err != nil {
		return fmt.Errorf("server.csv: %w", err)
	}
	if s.Limits.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.limits.max_body_bytes must be positive")
	}
	if s.Limits.MaxResamples < 2 {
		return fmt.Errorf("server.limits.max_resamples must be at least 2")
	}
	if err := s.Alerts.Validate(); err != nil {
		return fmt.Errorf("server.%w", err)
	}
	return nil
}
