package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

// MigrationsFS holds the embedded migration files. The migrations
// package registers its embed.FS here from an init function so the
// schema ships inside the binary.
var MigrationsFS embed.FS

// MigrationsDir is the directory within MigrationsFS holding the
// migration files ("." when they sit at the root of the embed).
var MigrationsDir = "migrations"

// migration is one versioned schema step. Files pair as
// <version>_<name>.up.sql / <version>_<name>.down.sql, with version
// formatted YYYYMMDD_HHMMSS so lexical order is chronological.
type migration struct {
	version string
	name    string
	up      string
	down    string
}

// Migrate applies every pending migration in version order, each in
// its own transaction. A failed step rolls back and stops the run;
// earlier steps stay committed and a rerun continues from the failure.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`,
	); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("applying migration %s (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

// MigrateDown rolls back the most recently applied migration. Used in
// development; the service itself never calls it.
func (db *DB) MigrateDown(ctx context.Context) error {
	var latest string
	err := db.QueryRowContext(ctx,
		"SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1",
	).Scan(&latest)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("finding latest migration: %w", err)
	}

	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	for _, m := range migrations {
		if m.version != latest {
			continue
		}
		if m.down == "" {
			return fmt.Errorf("migration %s has no down SQL", latest)
		}
		return db.runInTx(ctx, m.down,
			"DELETE FROM schema_migrations WHERE version = ?", m.version)
	}
	return fmt.Errorf("migration %s not found in filesystem", latest)
}

// appliedVersions returns the set of versions already recorded.
func (db *DB) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scanning migration row: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating migrations: %w", err)
	}
	return applied, nil
}

// applyMigration runs one up script and records it atomically.
func (db *DB) applyMigration(ctx context.Context, m migration) error {
	return db.runInTx(ctx, m.up,
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		m.version, time.Now().UTC().Format(time.RFC3339))
}

// runInTx executes a migration script plus its bookkeeping statement in
// a single transaction.
func (db *DB) runInTx(ctx context.Context, script, bookkeeping string, args ...any) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("executing SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, args...); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}
	return nil
}

// loadMigrations reads the embedded *.up.sql files and their optional
// down pairs, sorted oldest first.
func loadMigrations() ([]migration, error) {
	var empty embed.FS
	if MigrationsFS == empty {
		return nil, nil
	}

	upFiles, err := fs.Glob(MigrationsFS, path.Join(MigrationsDir, "*.up.sql"))
	if err != nil {
		return nil, err
	}

	migrations := make([]migration, 0, len(upFiles))
	for _, upFile := range upFiles {
		version, name, ok := splitMigrationFilename(path.Base(upFile))
		if !ok {
			continue
		}

		up, err := fs.ReadFile(MigrationsFS, upFile)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", upFile, err)
		}

		m := migration{version: version, name: name, up: string(up)}

		downFile := strings.TrimSuffix(upFile, ".up.sql") + ".down.sql"
		if down, err := fs.ReadFile(MigrationsFS, downFile); err == nil {
			m.down = string(down)
		}

		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})
	return migrations, nil
}

// splitMigrationFilename takes "20260801_120000_initial_schema.up.sql"
// apart into version "20260801_120000" and name "initial_schema".
func splitMigrationFilename(base string) (version, name string, ok bool) {
	base = strings.TrimSuffix(base, ".up.sql")

	date, rest, found := strings.Cut(base, "_")
	if !found {
		return "", "", false
	}
	clock, name, found := strings.Cut(rest, "_")
	if !found {
		return "", "", false
	}
	return date + "_" + clock, name, true
}
