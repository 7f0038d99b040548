package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/interday/reliastat/pkg/compute"
	"github.com/interday/reliastat/pkg/ingest"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultEndpoint  = "http://localhost:8080"
	DefaultTimeout   = 30 * time.Second
	DefaultRetries   = 3
	DefaultKeyHeader = "x-api-key"
)

// Config is the top-level CLI configuration.
type Config struct {
	// Bootstrap holds the resampling settings used by "analyze".
	Bootstrap compute.Settings `yaml:"bootstrap"`

	// CSV controls how input files are parsed.
	CSV ingest.Options `yaml:"csv"`

	// Server is the reliastat-server targeted by "submit".
	Server ServerConfig `yaml:"server"`

	// Fetch applies when the input is an http(s) URL.
	Fetch FetchConfig `yaml:"fetch"`
}

// ServerConfig describes the remote analysis server.
type ServerConfig struct {
	// Endpoint is the base URL, e.g. http://localhost:8080.
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds a single request.
	Timeout time.Duration `yaml:"timeout"`

	// Retries is how many times a failed request is retried.
	Retries int `yaml:"retries"`

	Auth AuthConfig `yaml:"auth"`
	TLS  TLSConfig  `yaml:"tls"`
}

// FetchConfig controls downloads of remote CSV files.
type FetchConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Auth    AuthConfig    `yaml:"auth"`
	TLS     TLSConfig     `yaml:"tls"`
}

// AuthConfig specifies how requests authenticate.
type AuthConfig struct {
	// Mode is one of: mtls | apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// mTLS fields, used when Mode == "mtls".
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`

	// Header is the HTTP header carrying the API key. Defaults to x-api-key.
	Header string `yaml:"header"`
	// KeyEnv names the environment variable holding the API key.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv names the environment variable holding a bearer token.
	TokenEnv string `yaml:"token_env"`

	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key resolved from the environment.
func (a AuthConfig) Key() string { return env(a.KeyEnv) }

// Token returns the bearer token resolved from the environment.
func (a AuthConfig) Token() string { return env(a.TokenEnv) }

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string { return env(a.PasswordEnv) }

func env(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// TLSConfig holds TLS dial options.
type TLSConfig struct {
	// InsecureSkipVerify disables certificate verification. Development only.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Bootstrap: compute.DefaultSettings(),
		CSV:       ingest.DefaultOptions(),
		Server: ServerConfig{
			Endpoint: DefaultEndpoint,
			Timeout:  DefaultTimeout,
			Retries:  DefaultRetries,
			Auth:     AuthConfig{Header: DefaultKeyHeader},
		},
		Fetch: FetchConfig{
			Timeout: DefaultTimeout,
			Auth:    AuthConfig{Header: DefaultKeyHeader},
		},
	}
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks enums and ranges. Flags applied after Load are validated
// again through this function.
func Validate(cfg *Config) error {
	if _, err := cfg.Bootstrap.Options(); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if err := cfg.CSV.Validate(); err != nil {
		return fmt.Errorf("csv: %w", err)
	}

	if u, err := url.Parse(cfg.Server.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.endpoint %q must be an absolute URL", cfg.Server.Endpoint)
	}
	if cfg.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	if cfg.Server.Retries < 0 {
		return fmt.Errorf("server.retries must not be negative")
	}
	if err := validateAuth("server.auth", cfg.Server.Auth); err != nil {
		return err
	}

	if cfg.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	return validateAuth("fetch.auth", cfg.Fetch.Auth)
}

func validateAuth(field string, a AuthConfig) error {
	switch a.Mode {
	case "apikey", "bearer", "basic", "none", "":
	case "mtls":
		if a.CertFile == "" || a.KeyFile == "" {
			return fmt.Errorf("%s: mtls requires cert_file and key_file", field)
		}
	default:
		return fmt.Errorf("%s: unknown mode %q", field, a.Mode)
	}
	return nil
}
