// Package migrations holds the schema of the SQL-backed key/value stores.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationFS embed.FS

// RunSQLiteMigrations executes all SQLite migrations in order.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	return run("sqlite", func(stmt string) error {
		_, err := db.ExecContext(ctx, stmt)
		return err
	})
}

// RunPostgresMigrations executes all PostgreSQL migrations in order.
func RunPostgresMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	return run("postgres", func(stmt string) error {
		_, err := pool.Exec(ctx, stmt)
		return err
	})
}

// UpFiles lists the .up.sql files of dialect in execution order.
func UpFiles(dialect string) ([]string, error) {
	entries, err := migrationFS.ReadDir(dialect)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s migrations: %w", dialect, err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)
	return upFiles, nil
}

// run executes each migration of dialect. Migrations are written to be
// idempotent (CREATE ... IF NOT EXISTS), so they run on every open.
func run(dialect string, exec func(stmt string) error) error {
	upFiles, err := UpFiles(dialect)
	if err != nil {
		return err
	}

	for _, file := range upFiles {
		migration, err := migrationFS.ReadFile(dialect + "/" + file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if err := exec(string(migration)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}
	return nil
}
