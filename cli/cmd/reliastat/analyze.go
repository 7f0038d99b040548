package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/interday/reliastat/cli/internal/client"
	"github.com/interday/reliastat/cli/internal/config"
	"github.com/interday/reliastat/cli/internal/render"
	"github.com/interday/reliastat/pkg/compute"
	"github.com/interday/reliastat/pkg/export"
	"github.com/interday/reliastat/pkg/ingest"
	"github.com/interday/reliastat/pkg/types"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

type analyzeOptions struct {
	resamples    int
	confidence   float64
	seed         int64
	workers      int
	zMode        string
	delimiter    string
	missing      string
	decimalComma bool

	format     string
	exportPath string
	promPath   string
	labels     map[string]string
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	o := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <file.csv|-|URL>",
		Short: "Compute reliability metrics for a two-column Day 1 / Day 2 CSV",
		Example: `  reliastat analyze sessions.csv
  reliastat analyze --seed 42 --export results.csv sessions.csv
  reliastat analyze --delimiter ';' --decimal-comma planilha.csv
  curl -s https://example.org/s.csv | reliastat analyze -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if err := o.apply(cmd, cfg); err != nil {
				return err
			}
			return o.run(cmd, cfg, args[0])
		},
	}

	f := cmd.Flags()
	f.IntVar(&o.resamples, "resamples", compute.DefaultResamples, "bootstrap resamples per estimate")
	f.Float64Var(&o.confidence, "confidence", compute.DefaultConfidence, "MDC confidence level in (0, 1)")
	f.Int64Var(&o.seed, "seed", 0, "fix the random source for reproducible results")
	f.IntVar(&o.workers, "workers", compute.DefaultWorkers, "goroutines used for resampling")
	f.StringVar(&o.zMode, "z-mode", compute.ZTable.String(), "z-score mapping: table|continuous")
	f.StringVar(&o.delimiter, "delimiter", ",", "CSV field delimiter")
	f.StringVar(&o.missing, "missing", ingest.MissingRows, "missing-value policy: rows|columns")
	f.BoolVar(&o.decimalComma, "decimal-comma", false, `parse "1,5" as 1.5 (needs a non-comma delimiter)`)
	f.StringVarP(&o.format, "format", "o", formatTable, "output format: table|json|csv")
	f.StringVar(&o.exportPath, "export", "", "also write the Métrica,Valor CSV to this path")
	f.StringVar(&o.promPath, "prom", "", "also write a Prometheus text exposition to this path")
	f.StringToStringVar(&o.labels, "label", nil, "constant label for --prom output (repeatable, key=value)")
	return cmd
}

// apply overlays explicitly set flags on cfg and validates the result.
func (o *analyzeOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("resamples") {
		cfg.Bootstrap.Resamples = o.resamples
	}
	if f.Changed("confidence") {
		cfg.Bootstrap.Confidence = o.confidence
	}
	if f.Changed("seed") {
		seed := o.seed
		cfg.Bootstrap.Seed = &seed
	}
	if f.Changed("workers") {
		cfg.Bootstrap.Workers = o.workers
	}
	if f.Changed("z-mode") {
		cfg.Bootstrap.ZMode = o.zMode
	}
	if f.Changed("delimiter") {
		cfg.CSV.Delimiter = o.delimiter
	}
	if f.Changed("missing") {
		cfg.CSV.Missing = o.missing
	}
	if f.Changed("decimal-comma") {
		cfg.CSV.DecimalComma = o.decimalComma
	}
	switch o.format {
	case formatTable, formatJSON, formatCSV:
	default:
		return fmt.Errorf("unknown --format %q: want table|json|csv", o.format)
	}
	return config.Validate(cfg)
}

func (o *analyzeOptions) run(cmd *cobra.Command, cfg *config.Config, input string) error {
	ctx := cmd.Context()
	opts, err := cfg.Bootstrap.Options()
	if err != nil {
		return err
	}
	c, err := client.New(cfg)
	if err != nil {
		return err
	}

	data, err := readInput(ctx, input, cmd.InOrStdin(), c)
	if err != nil {
		return err
	}

	start := time.Now()
	rs, err := analyzeCSV(data, cfg.CSV, opts)
	if err != nil {
		render.New(cmd.ErrOrStderr()).Error(err)
		return errReported
	}
	slog.Info("analysis complete", "input", input, "resamples", opts.Resamples,
		"workers", opts.Workers, "duration", time.Since(start))

	out := cmd.OutOrStdout()
	switch o.format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rs); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case formatCSV:
		if err := export.WriteCSV(out, rs); err != nil {
			return err
		}
	default:
		render.New(out).Results(rs)
	}

	if o.exportPath != "" {
		if err := writeFile(o.exportPath, func(buf *bytes.Buffer) error { return export.WriteCSV(buf, rs) }); err != nil {
			return err
		}
		slog.Info("csv export written", "path", o.exportPath)
	}
	if o.promPath != "" {
		if err := writeFile(o.promPath, func(buf *bytes.Buffer) error {
			return export.WritePrometheus(buf, rs, o.labels)
		}); err != nil {
			return err
		}
		slog.Info("prometheus export written", "path", o.promPath)
	}
	return nil
}

// analyzeCSV parses data and runs the engine. Every error it returns is an
// analysis failure to be shown to the user.
func analyzeCSV(data []byte, csvOpts ingest.Options, opts compute.Options) (types.ResultSet, error) {
	p, err := ingest.ReadPaired(bytes.NewReader(data), csvOpts)
	if err != nil {
		return types.ResultSet{}, err
	}
	return compute.AnalyzePaired(p, opts)
}

// writeFile renders into memory first so a failed encode leaves no partial file.
func writeFile(path string, fill func(*bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := fill(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
