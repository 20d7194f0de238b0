package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/visitor-desk/internal/config"
	"github.com/evcraddock/visitor-desk/internal/db"
	"github.com/evcraddock/visitor-desk/internal/images"
	"github.com/evcraddock/visitor-desk/internal/logging"
	"github.com/evcraddock/visitor-desk/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		configFile string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the visitor-desk HTTP API server. Settings come from a TOML file and VD_* environment variables.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if flagDB != "" {
				cfg.Database.Path = flagDB
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "path to a TOML config file")
	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logging.Setup(cfg.DevMode)

	if cfg.AdminEmail == "" {
		slog.Warn("no admin email configured; only users added with 'vd users add' can log in")
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer closeDB(database)

	store, err := images.Open(ctx, cfg, database)
	if err != nil {
		return fmt.Errorf("opening image store: %w", err)
	}

	srv, err := web.NewServer(cfg, database, store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting server",
		"port", cfg.Port,
		"base_url", cfg.BaseURL,
		"db", cfg.Database.Path,
		"images", cfg.Images.Backend,
	)
	return srv.ListenAndServe(ctx, cfg.Port)
}
