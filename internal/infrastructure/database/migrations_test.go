package database

import (
	"context"
	"embed"
	"errors"
	"testing"
)

//go:embed testdata/*.sql
var testMigrationsFS embed.FS

func TestMigrate(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // test cleanup
	ctx := context.Background()

	if v, err := db.SchemaVersion(ctx); err == nil || v != "" {
		t.Errorf("SchemaVersion() before Migrate = %q, %v; want error for missing table", v, err)
	}

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	var tableName string
	if err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='test_units'",
	).Scan(&tableName); err != nil {
		t.Fatalf("table test_units not created: %v", err)
	}

	var name string
	if err := db.QueryRowContext(ctx,
		"SELECT name FROM schema_migrations WHERE version = '20261001_090000'",
	).Scan(&name); err != nil || name != "test_units" {
		t.Errorf("recorded name = %q, %v", name, err)
	}

	if v, err := db.SchemaVersion(ctx); err != nil || v != "20261001_090000" {
		t.Errorf("SchemaVersion() = %q, %v", v, err)
	}

	// A rerun applies nothing; re-executing the CREATE TABLE would fail.
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateNoMigrations(t *testing.T) {
	useTestMigrations(t)
	MigrationsFS = embed.FS{}
	MigrationsDir = "."

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // test cleanup
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() with no migrations error = %v", err)
	}
	if v, err := db.SchemaVersion(ctx); err != nil || v != "" {
		t.Errorf("SchemaVersion() = %q, %v; want empty", v, err)
	}
}

func TestMigrateSchemaAhead(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // test cleanup
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if _, err := db.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name, applied_at) VALUES ('20991231_000000', 'future', '2099-12-31T00:00:00Z')",
	); err != nil {
		t.Fatalf("insert future migration: %v", err)
	}

	if err := db.Migrate(ctx); !errors.Is(err, ErrSchemaAhead) {
		t.Errorf("Migrate() error = %v, want ErrSchemaAhead", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantOk      bool
	}{
		{"20261019_120000_devices.sql", "20261019_120000", "devices", true},
		{"20261101_080000_add_swing_to_devices.sql", "20261101_080000", "add_swing_to_devices", true},
		{"readme.txt", "", "", false},
		{"20261019_120000.sql", "", "", false},
		{"20261019_120000_.sql", "", "", false},
		{"invalid.sql", "", "", false},
		{"2026101a_120000_devices.sql", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if version != tt.wantVersion || name != tt.wantName {
				t.Errorf("got %q/%q, want %q/%q", version, name, tt.wantVersion, tt.wantName)
			}
		})
	}
}

// useTestMigrations swaps in the testdata migrations for one test.
func useTestMigrations(t *testing.T) {
	t.Helper()

	origFS, origDir := MigrationsFS, MigrationsDir
	t.Cleanup(func() {
		MigrationsFS = origFS
		MigrationsDir = origDir
	})
	MigrationsFS = testMigrationsFS
	MigrationsDir = "testdata"
}
