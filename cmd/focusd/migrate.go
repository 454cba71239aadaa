package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/focusd/internal/config"
	"github.com/sandeepkv93/focusd/internal/storage"
)

var (
	migrateDown   bool
	migrateStatus bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or inspect database migrations",
	Long: `Apply or inspect database migrations.

Examples:
  focusd migrate
  focusd migrate --status
  focusd migrate --down`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back the most recent migration")
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print each migration and whether it is applied")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	repo, err := storage.OpenSQLite(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()

	switch {
	case migrateStatus:
		statuses, err := storage.MigrationStatuses(repo.DB())
		if err != nil {
			return err
		}
		for _, st := range statuses {
			state := "pending"
			if st.Applied {
				state = "applied"
			}
			fmt.Printf("%-8s %s\n", state, st.Name)
		}
		return nil
	case migrateDown:
		if err := storage.MigrateDown(repo.DB()); err != nil {
			return err
		}
		fmt.Println("rolled back one migration")
		return nil
	default:
		if err := storage.MigrateUp(repo.DB()); err != nil {
			return err
		}
		fmt.Println("migrations applied")
		return nil
	}
}
