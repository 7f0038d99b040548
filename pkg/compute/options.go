package compute

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

// ErrInvalidOptions reports resampling options that cannot produce a result.
var ErrInvalidOptions = errors.New("invalid options")

// Resampling defaults.
const (
	DefaultResamples  = 1000
	DefaultConfidence = 0.95
	DefaultWorkers    = 1
)

// ZMode selects how the MDC z-score is derived from the confidence level.
type ZMode int

const (
	// ZTable uses 1.96 when the confidence is exactly 0.95 and 1.64 for any
	// other confidence. It matches previously reported MDC values.
	ZTable ZMode = iota

	// ZContinuous uses the two-sided standard normal quantile for the
	// confidence level.
	ZContinuous
)

func (z ZMode) String() string {
	switch z {
	case ZTable:
		return "table"
	case ZContinuous:
		return "continuous"
	default:
		return fmt.Sprintf("ZMode(%d)", int(z))
	}
}

// ParseZMode accepts "table", "continuous" or an empty string (table).
func ParseZMode(s string) (ZMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return ZTable, nil
	case "continuous":
		return ZContinuous, nil
	default:
		return 0, fmt.Errorf("%w: unknown z mode %q: want table|continuous", ErrInvalidOptions, s)
	}
}

// Options configures the resampling engine.
type Options struct {
	// Resamples is the number of bootstrap resamples per estimate. Minimum 2.
	Resamples int

	// Confidence is the MDC confidence level, in (0, 1).
	Confidence float64

	// ZMode selects the z-score mapping for Confidence.
	ZMode ZMode

	// Workers splits the resample loop across goroutines when greater than 1.
	// For a given seed, output is reproducible only for the same Workers value.
	Workers int

	// Rand is the random source. Nil means a source seeded from system entropy.
	// A *rand.Rand is not safe for concurrent use; do not share one between
	// concurrent Analyze calls.
	Rand *rand.Rand
}

// DefaultOptions returns 1000 resamples at 95% confidence with the z table,
// one worker and an entropy-seeded random source.
func DefaultOptions() Options {
	return Options{
		Resamples:  DefaultResamples,
		Confidence: DefaultConfidence,
		ZMode:      ZTable,
		Workers:    DefaultWorkers,
	}
}

// NewSeededRand returns a deterministic random source for seed.
func NewSeededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Validate checks that o can drive the resampling engine.
func (o Options) Validate() error {
	if o.Resamples < 2 {
		return fmt.Errorf("%w: resamples must be at least 2, got %d", ErrInvalidOptions, o.Resamples)
	}
	if !(o.Confidence > 0 && o.Confidence < 1) {
		return fmt.Errorf("%w: confidence must be in (0, 1), got %v", ErrInvalidOptions, o.Confidence)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidOptions, o.Workers)
	}
	if o.ZMode != ZTable && o.ZMode != ZContinuous {
		return fmt.Errorf("%w: unknown z mode %d", ErrInvalidOptions, int(o.ZMode))
	}
	return nil
}

func (o Options) rng() *rand.Rand {
	if o.Rand != nil {
		return o.Rand
	}
	return rand.New(rand.NewSource(rand.Int63()))
}

// Settings is the configuration-file form of Options.
type Settings struct {
	Resamples  int     `yaml:"resamples"`
	Confidence float64 `yaml:"confidence"`
	ZMode      string  `yaml:"z_mode"`
	Workers    int     `yaml:"workers"`

	// Seed fixes the random source when set.
	Seed *int64 `yaml:"seed"`
}

// DefaultSettings mirrors DefaultOptions.
func DefaultSettings() Settings {
	return Settings{
		Resamples:  DefaultResamples,
		Confidence: DefaultConfidence,
		ZMode:      ZTable.String(),
		Workers:    DefaultWorkers,
	}
}

// Options converts s into validated Options.
func (s Settings) Options() (Options, error) {
	mode, err := ParseZMode(s.ZMode)
	if err != nil {
		return Options{}, err
	}
	o := Options{
		Resamples:  s.Resamples,
		Confidence: s.Confidence,
		ZMode:      mode,
		Workers:    s.Workers,
	}
	if s.Seed != nil {
		o.Rand = NewSeededRand(*s.Seed)
	}
	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	return o, nil
}
