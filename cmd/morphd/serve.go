package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/morph/internal/config"
	"github.com/vango-dev/morph/internal/demo"
	"github.com/vango-dev/morph/internal/errors"
	"github.com/vango-dev/morph/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		app        string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
		Long: `Start the HTTP and websocket server for one application.

Configuration is read from --config (morph.yaml or morph.json) and then
from MORPH_* environment variables. Flags override both.

Examples:
  morphd serve
  morphd serve --app todo --addr :9000
  MORPH_REDIS_ADDR=localhost:6379 morphd serve --config morph.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, configPath, addr, app)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to morph.yaml or morph.json")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&app, "app", "", fmt.Sprintf("Application to serve (default %q)", config.DefaultApp))

	return cmd
}

// loadConfig loads the configuration and applies the flag overrides.
func loadConfig(path, addr, app string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if app != "" {
		cfg.App = app
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cobra.Command, path, addr, app string) error {
	cfg, err := loadConfig(path, addr, app)
	if err != nil {
		return err
	}
	entry, err := demo.Lookup(cfg.App)
	if err != nil {
		return err
	}

	logger := cfg.Logger(cmd.ErrOrStderr()).With("component", "morphd")
	store, err := cfg.OpenStore(ctx)
	if err != nil {
		return err
	}
	// The server does not own a store it was given.
	defer store.Close()

	srv := entry.NewServer(cfg.ServerConfig(store),
		server.WithLogger(logger),
		server.WithMetrics(cfg.MetricsOptions()...),
	)

	out := cmd.OutOrStdout()
	printBanner(out)
	success(out, "Serving %s on %s", entry.Name, cfg.Server.Addr)
	info(out, "store: %s", cfg.Store.Driver)
	if cfg.Path() != "" {
		info(out, "config: %s", cfg.Path())
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		return errors.FromError(err, errors.CodeListenFailed)
	}
	success(out, "Stopped")
	return nil
}
