// Package warehouse owns the clearvue analytical schema: migrations, the load
// log and the fact and dimension loaders.
package warehouse

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fincal/internal/db"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Schema is the Postgres schema holding every warehouse table.
const Schema = "clearvue"

// migrationLockID keys the advisory lock held while migrations run.
const migrationLockID = 20250125

// Migrate applies pending migrations in file-name order. Each migration and its
// bookkeeping row commit together.
func Migrate(ctx context.Context, pool db.Pool) error {
	log := zap.L().With(zap.String("component", "warehouse.migrate"))

	if _, err := pool.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return eris.Wrap(err, "warehouse: acquire migration advisory lock")
	}
	defer func() {
		if _, err := pool.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID); err != nil {
			log.Warn("warehouse: failed to release migration advisory lock", zap.Error(err))
		}
	}()

	if err := ensureMigrationTable(ctx, pool); err != nil {
		return err
	}

	names, err := migrationNames()
	if err != nil {
		return err
	}

	applied, err := appliedMigrations(ctx, pool)
	if err != nil {
		return err
	}

	for _, name := range names {
		if applied[name] {
			continue
		}
		if err := applyMigration(ctx, pool, name); err != nil {
			return err
		}
		log.Info("migration applied", zap.String("file", name))
	}

	return nil
}

func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: read migration dir")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func applyMigration(ctx context.Context, pool db.Pool, name string) error {
	data, err := migrationFS.ReadFile("migrations/" + name)
	if err != nil {
		return eris.Wrapf(err, "warehouse: read migration %s", name)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return eris.Wrapf(err, "warehouse: begin migration %s", name)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, string(data)); err != nil {
		return eris.Wrapf(err, "warehouse: apply migration %s", name)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO clearvue.schema_migrations (filename, applied_at) VALUES ($1, now())",
		name,
	); err != nil {
		return eris.Wrapf(err, "warehouse: record migration %s", name)
	}
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrapf(err, "warehouse: commit migration %s", name)
	}
	return nil
}

func ensureMigrationTable(ctx context.Context, pool db.Pool) error {
	sql := `
		CREATE SCHEMA IF NOT EXISTS clearvue;
		CREATE TABLE IF NOT EXISTS clearvue.schema_migrations (
			id         SERIAL PRIMARY KEY,
			filename   TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`
	if _, err := pool.Exec(ctx, sql); err != nil {
		return eris.Wrap(err, "warehouse: ensure migration table")
	}
	return nil
}

func appliedMigrations(ctx context.Context, pool db.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, "SELECT filename FROM clearvue.schema_migrations")
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: query applied migrations")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "warehouse: scan migration row")
		}
		applied[name] = true
	}
	return applied, rows.Err()
}
