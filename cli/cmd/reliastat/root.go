package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/interday/reliastat/cli/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// errReported marks a failure whose message was already printed.
var errReported = errors.New("reported")

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "reliastat",
		Short: "Non-parametric inter-day reliability statistics",
		Long: `reliastat compares two measurement sessions taken on the same subjects
(Day 1 and Day 2) and reports medians, IQRs, CV(IQR), a non-parametric ICC,
bootstrap standard errors of the median, the minimal detectable change and
median-based agreement errors.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(opts.logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to an optional YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug|info|warn|error")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newSubmitCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// setupLogging installs a JSON slog handler on stderr as the default logger.
func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig returns the file config when --config is set, defaults otherwise.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	slog.Debug("config loaded", "path", o.configPath)
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the reliastat version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "reliastat", version)
		},
	}
}
