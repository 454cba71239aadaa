package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`

type MigrationStatus struct {
	Name    string
	Applied bool
}

// MigrateUp applies every pending .up.sql migration in lexical order.
// Already-applied migrations are skipped, so it is safe to run at every
// process start.
func MigrateUp(db *sql.DB) error {
	applied, err := appliedMigrations(db)
	if err != nil {
		return err
	}
	entries, err := migrationEntries(".up.sql")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := migrationName(entry, ".up.sql")
		if applied[name] {
			continue
		}
		if err := execMigration(db, entry); err != nil {
			return err
		}
		if _, err := db.Exec(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`,
			name, time.Now().UTC().Format(sqliteTimeLayout)); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

// MigrateDown rolls back every applied migration in reverse lexical order.
func MigrateDown(db *sql.DB) error {
	applied, err := appliedMigrations(db)
	if err != nil {
		return err
	}
	entries, err := migrationEntries(".down.sql")
	if err != nil {
		return err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		name := migrationName(entries[i], ".down.sql")
		if !applied[name] {
			continue
		}
		if err := execMigration(db, entries[i]); err != nil {
			return err
		}
		if _, err := db.Exec(`DELETE FROM schema_migrations WHERE name = ?`, name); err != nil {
			return fmt.Errorf("unrecord migration %s: %w", name, err)
		}
	}
	return nil
}

func MigrationStatuses(db *sql.DB) ([]MigrationStatus, error) {
	applied, err := appliedMigrations(db)
	if err != nil {
		return nil, err
	}
	entries, err := migrationEntries(".up.sql")
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, 0, len(entries))
	for _, entry := range entries {
		name := migrationName(entry, ".up.sql")
		out = append(out, MigrationStatus{Name: name, Applied: applied[name]})
	}
	return out, nil
}

func migrationEntries(suffix string) ([]string, error) {
	entries, err := fs.Glob(migrationFiles, "migrations/*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(entries)
	return entries, nil
}

func migrationName(entry, suffix string) string {
	return strings.TrimSuffix(strings.TrimPrefix(entry, "migrations/"), suffix)
}

func execMigration(db *sql.DB, entry string) error {
	sqlBytes, err := migrationFiles.ReadFile(entry)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", entry, err)
	}
	if _, err := db.Exec(string(sqlBytes)); err != nil {
		return fmt.Errorf("apply migration %s: %w", entry, err)
	}
	return nil
}

func appliedMigrations(db *sql.DB) (map[string]bool, error) {
	if _, err := db.Exec(createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	rows, err := db.Query(`SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = true
	}
	return out, rows.Err()
}
