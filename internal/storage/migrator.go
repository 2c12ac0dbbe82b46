package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/bfquery/assets"
)

const migrationsDir = "migrations"

// runMigrations applies every embedded migration not yet recorded in
// schema_migrations, in file name order, each in its own transaction.
func runMigrations(db *sql.DB) error {
	const migrationTableSchema = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME
	);`

	if _, err := db.Exec(migrationTableSchema); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	files, err := migrationFiles()
	if err != nil {
		return err
	}

	for _, file := range files {
		applied, err := isApplied(db, file)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		log.Info().Str("file", file).Msg("Applying database migration...")
		if err := applyMigration(db, file); err != nil {
			return err
		}
	}

	return nil
}

// migrationFiles lists the embedded .sql files sorted by name.
func migrationFiles() ([]string, error) {
	entries, err := assets.ReadDir(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	return files, nil
}

func isApplied(db *sql.DB, version string) (bool, error) {
	var exists int
	err := db.QueryRow("SELECT 1 FROM schema_migrations WHERE version = ?", version).Scan(&exists)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
}

func applyMigration(db *sql.DB, file string) error {
	content, err := assets.ReadFile(path.Join(migrationsDir, file))
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", file, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(string(content)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to exec migration %s: %w", file, err)
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", file, time.Now()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to record migration %s: %w", file, err)
	}

	return tx.Commit()
}
