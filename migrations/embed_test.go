package migrations

import (
	"context"
	"testing"

	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/database"
)

func openMigrated(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{Path: ":memory:", BusyTimeout: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func tableExists(t *testing.T, db *database.DB, name string) bool {
	t.Helper()

	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return count == 1
}

func TestSchemaApplies(t *testing.T) {
	db := openMigrated(t)

	for _, table := range []string{"devices", "state_history"} {
		if !tableExists(t, db, table) {
			t.Errorf("table %s missing after Migrate", table)
		}
	}

	version, err := db.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != "20261019_120100" {
		t.Errorf("SchemaVersion() = %q, want 20261019_120100", version)
	}
}

func TestSchemaMigrateIsIdempotent(t *testing.T) {
	db := openMigrated(t)

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	var count int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 2 {
		t.Errorf("schema_migrations rows = %d, want 2", count)
	}
}

func TestHistoryCascadesOnDeviceDelete(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	const now = "2026-10-19T12:00:00Z"
	if _, err := db.ExecContext(ctx,
		`INSERT INTO devices (id, name, mac, unique_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		"living-room", "Living Room", "f4911e3a5b6c", "com.gree2.f4911e3a5b6c", now, now,
	); err != nil {
		t.Fatalf("insert device: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO state_history (device_id, state, created_at) VALUES (?, ?, ?)`,
		"living-room", `{"hvac_mode":"cool"}`, now,
	); err != nil {
		t.Fatalf("insert history: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, "living-room"); err != nil {
		t.Fatalf("delete device: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM state_history").Scan(&count); err != nil {
		t.Fatalf("count history: %v", err)
	}
	if count != 0 {
		t.Errorf("history rows = %d after device delete, want 0", count)
	}
}
