package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/interday/reliastat/server/internal/alerts"
	"github.com/interday/reliastat/server/internal/api"
	"github.com/interday/reliastat/server/internal/auth"
	"github.com/interday/reliastat/server/internal/config"
	"github.com/interday/reliastat/server/internal/store"
	"github.com/interday/reliastat/server/internal/ws"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// shutdownTimeout bounds how long in-flight requests get to finish.
const shutdownTimeout = 15 * time.Second

type options struct {
	configPath string
	uiDir      string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "reliastat-server",
		Short: "HTTP API for inter-day reliability analyses",
		Long: `reliastat-server accepts paired Day 1 / Day 2 measurements over HTTP, runs the
reliability analysis, keeps the results in memory for the retention period and
streams completed analyses to WebSocket clients.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := setupLogging(opts.logLevel); err != nil {
				return err
			}
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to the YAML config file; empty uses defaults and disables hot reload")
	cmd.Flags().StringVar(&opts.uiDir, "ui-dir", "", "serve static UI files from this directory; leave empty to disable")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	cmd.Version = version
	return cmd
}

// setupLogging installs a JSON slog handler on stdout as the default logger.
func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
	return nil
}

func run(ctx context.Context, opts *options) error {
	slog.Info("reliastat-server starting", "version", version, "config", opts.configPath)

	cfg := config.Defaults()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return err
		}
	}
	sc := cfg.Server
	if sc.Auth.Mode == "apikey" && sc.Auth.Key() == "" {
		slog.Warn("auth: mode is apikey but $"+sc.Auth.KeyEnv+" is empty; requests are not authenticated",
			"key_env", sc.Auth.KeyEnv)
	}

	slog.Info("config loaded",
		"http_port", sc.HTTPPort,
		"auth_mode", sc.Auth.Mode,
		"retention_ttl", sc.Retention.TTL,
		"resamples", sc.Bootstrap.Resamples,
		"alert_rules", len(sc.Alerts.Rules),
	)

	// Analysis store with background TTL eviction.
	st := store.New(sc.Retention.TTL)
	go st.Run(ctx)

	engine, err := alerts.New(sc.Alerts)
	if err != nil {
		return err
	}
	defer engine.Wait()

	hub := ws.New(st, ws.DefaultSnapshotSize)
	go hub.Run(ctx)

	handler := api.New(st, engine, hub, apiOptions(sc))

	if opts.configPath != "" {
		go func() {
			err := config.Watch(ctx, opts.configPath, func(next *config.Config) {
				if err := engine.SetConfig(next.Server.Alerts); err != nil {
					slog.Error("config: alert rules not applied", "err", err)
					return
				}
				handler.SetOptions(apiOptions(next.Server))
				if next.Server.HTTPPort != sc.HTTPPort || next.Server.Auth != sc.Auth || next.Server.Retention != sc.Retention {
					slog.Warn("config: port, auth and retention changes take effect after a restart")
				}
			})
			if err != nil {
				slog.Error("config: hot reload disabled", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", sc.HTTPPort),
		Handler:           newMux(sc.Auth, handler, hub, opts.uiDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", sc.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	slog.Info("reliastat-server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server: shutdown: %w", err)
	}
	return nil
}

// apiOptions extracts the per-request defaults from the server config.
func apiOptions(sc config.ServerConfig) api.Options {
	return api.Options{
		Bootstrap:    sc.Bootstrap,
		CSV:          sc.CSV,
		MaxBodyBytes: sc.Limits.MaxBodyBytes,
		MaxResamples: sc.Limits.MaxResamples,
	}
}

// newMux mounts the REST API and the WebSocket hub behind the auth
// middleware, the service metrics and, when uiDir is set, the static UI.
func newMux(ac config.AuthConfig, apiHandler, hub http.Handler, uiDir string) *http.ServeMux {
	mux := http.NewServeMux()
	requireKey := auth.APIKeyMiddleware(ac.Mode, ac.EffectiveHeader(), ac.Key())
	mux.Handle("/api/", requireKey(apiHandler))
	mux.Handle("/ws/stream", requireKey(hub))
	mux.Handle("/metrics", promhttp.Handler())

	if uiDir != "" {
		mux.Handle("/", spaHandler(uiDir))
		slog.Info("serving UI static files", "dir", uiDir)
	}
	return mux
}

// spaHandler serves files from dir and falls back to index.html for unknown
// paths so client-side routes resolve.
func spaHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	})
}
