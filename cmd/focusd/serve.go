package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/focusd/internal/config"
	"github.com/sandeepkv93/focusd/internal/server"
	"github.com/sandeepkv93/focusd/internal/storage"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the focusd HTTP server",
	Long: `Start the focusd HTTP server.

Migrations run automatically at startup, so a fresh database file
works out of the box.

Examples:
  focusd serve
  focusd serve --addr :9090
  focusd serve --config focusd.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	repo, err := storage.OpenSQLite(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()

	if err := storage.MigrateUp(repo.DB()); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	srv := server.New(repo, cfg.Timer, logger)
	logger.Info("starting server", "addr", cfg.Server.Addr, "database", cfg.Database.Path)
	return srv.Run(cfg.Server.Addr)
}
