package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// DefaultMigrationsDir is read relative to the working directory.
const DefaultMigrationsDir = "migrations"

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    name       TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// RunMigrations applies each .sql file in dir that is not yet recorded in
// schema_migrations. Every file runs in its own transaction.
func RunMigrations(ctx context.Context, pg *Postgres, dir string, logger *zap.Logger) error {
	if dir == "" {
		dir = DefaultMigrationsDir
	}
	files, err := migrationFiles(dir)
	if err != nil {
		return err
	}
	if _, err := pg.PoolHandle().Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := appliedMigrations(ctx, pg)
	if err != nil {
		return err
	}

	count := 0
	for _, name := range pendingMigrations(files, applied) {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		logger.Info("applying migration", zap.String("file", name))
		err = pg.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(content)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		count++
	}

	logger.Info("migrations applied", zap.Int("count", count), zap.Int("known", len(files)))
	return nil
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func appliedMigrations(ctx context.Context, pg *Postgres) (map[string]bool, error) {
	rows, err := pg.PoolHandle().Query(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	applied := make(map[string]bool, len(names))
	for _, name := range names {
		applied[name] = true
	}
	return applied, nil
}

func pendingMigrations(files []string, applied map[string]bool) []string {
	pending := make([]string, 0, len(files))
	for _, name := range files {
		if !applied[name] {
			pending = append(pending, name)
		}
	}
	return pending
}
