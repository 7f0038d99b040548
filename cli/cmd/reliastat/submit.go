package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/interday/reliastat/cli/internal/client"
	"github.com/interday/reliastat/cli/internal/render"
	"github.com/interday/reliastat/pkg/types"
)

type submitOptions struct {
	server     string
	resamples  int
	confidence float64
	seed       int64
}

func newSubmitCmd(root *rootOptions) *cobra.Command {
	o := &submitOptions{}
	cmd := &cobra.Command{
		Use:   "submit <file.csv|-|URL>",
		Short: "Send a CSV to a reliastat server and print the stored analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("server") {
				cfg.Server.Endpoint = o.server
			}
			c, err := client.New(cfg)
			if err != nil {
				return err
			}

			data, err := readInput(cmd.Context(), args[0], cmd.InOrStdin(), c)
			if err != nil {
				return err
			}

			params := client.SubmitParams{Resamples: o.resamples, Confidence: o.confidence}
			if cmd.Flags().Changed("seed") {
				params.Seed = &o.seed
			}
			a, err := c.Submit(cmd.Context(), data, params)
			if errors.Is(err, types.ErrMalformedInput) {
				render.New(cmd.ErrOrStderr()).Error(err)
				return errReported
			}
			if err != nil {
				return err
			}
			render.New(cmd.OutOrStdout()).Analysis(a)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.server, "server", "", "server base URL (overrides server.endpoint)")
	f.IntVar(&o.resamples, "resamples", 0, "bootstrap resamples (0 keeps the server default)")
	f.Float64Var(&o.confidence, "confidence", 0, "MDC confidence level (0 keeps the server default)")
	f.Int64Var(&o.seed, "seed", 0, "fix the server's random source for this analysis")
	return cmd
}
