package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/interday/reliastat/cli/internal/client"
)

// readInput returns the bytes named by arg: "-" for stdin, an http(s) URL
// fetched through c, or a local file path.
func readInput(ctx context.Context, arg string, stdin io.Reader, c *client.Client) ([]byte, error) {
	switch {
	case arg == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	case strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://"):
		return c.FetchCSV(ctx, arg)
	default:
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		return data, nil
	}
}
