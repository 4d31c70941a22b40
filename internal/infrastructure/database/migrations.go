package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"
)

// MigrationsFS holds the embedded schema files. The migrations package
// registers itself here from its init function.
var MigrationsFS embed.FS

// MigrationsDir is the directory within MigrationsFS holding the files.
var MigrationsDir = "migrations"

// migration is one forward-only schema step, read from a file named
// YYYYMMDD_HHMMSS_name.sql.
type migration struct {
	version string
	name    string
	sql     string
}

// Migrate brings the schema up to date. Each step commits on its own, so
// a failure leaves earlier steps applied and a rerun resumes at the
// failed one.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	steps, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(steps))
	for _, m := range steps {
		known[m.version] = true
	}
	for _, v := range applied {
		if !known[v] {
			return fmt.Errorf("%w: unknown migration %s", ErrSchemaAhead, v)
		}
	}

	for _, m := range steps {
		if slices.Contains(applied, m.version) {
			continue
		}
		if err := db.apply(ctx, m); err != nil {
			return fmt.Errorf("applying migration %s (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

// SchemaVersion returns the newest applied migration version, or "" for
// an unmigrated database.
func (db *DB) SchemaVersion(ctx context.Context) (string, error) {
	applied, err := db.appliedVersions(ctx)
	if err != nil || len(applied) == 0 {
		return "", err
	}
	return applied[len(applied)-1], nil
}

// appliedVersions lists recorded versions, oldest first.
func (db *DB) appliedVersions(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("querying migrations: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning migration row: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (db *DB) apply(ctx context.Context, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("executing SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
		m.version, m.name, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	return tx.Commit()
}

// loadMigrations reads every well-named file in MigrationsDir, oldest
// first. Other files are ignored.
func loadMigrations() ([]migration, error) {
	if MigrationsFS == (embed.FS{}) {
		return nil, nil
	}
	entries, err := fs.ReadDir(MigrationsFS, MigrationsDir)
	if err != nil {
		return nil, nil //nolint:nilerr // no directory means no migrations
	}

	var steps []migration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		version, name, ok := parseMigrationFilename(e.Name())
		if !ok {
			continue
		}
		body, err := fs.ReadFile(MigrationsFS, path.Join(MigrationsDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		steps = append(steps, migration{version: version, name: name, sql: string(body)})
	}

	slices.SortFunc(steps, func(a, b migration) int { return strings.Compare(a.version, b.version) })
	return steps, nil
}

// parseMigrationFilename splits "20261019_120000_devices.sql" into its
// version "20261019_120000" and name "devices".
func parseMigrationFilename(file string) (version, name string, ok bool) {
	base, isSQL := strings.CutSuffix(file, ".sql")
	if !isSQL {
		return "", "", false
	}
	date, rest, ok := strings.Cut(base, "_")
	if !ok {
		return "", "", false
	}
	clock, name, ok := strings.Cut(rest, "_")
	if !ok || name == "" || !allDigits(date) || !allDigits(clock) {
		return "", "", false
	}
	return date + "_" + clock, name, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
