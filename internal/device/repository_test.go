package device

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/database"
	_ "github.com/nerrad567/gray-logic-gree/migrations"
)

// setupTestDB opens a migrated in-memory store.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{Path: ":memory:", BusyTimeout: 1})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db.DB
}

// testDevice creates a device for testing.
func testDevice(id, name, mac string) *Device {
	return &Device{
		ID:       id,
		Name:     name,
		MAC:      mac,
		UniqueID: "com.gree2." + mac,
		Host:     "192.168.1.50",
		Port:     7000,
		State:    State{},
	}
}

func TestSQLiteRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(r *SQLiteRepository)
		device  *Device
		wantErr error
	}{
		{
			name:   "new device",
			device: testDevice("ac-living", "Living Room", "f4911e3a5b6c"),
		},
		{
			name: "duplicate id",
			setup: func(r *SQLiteRepository) {
				_ = r.Create(ctx, testDevice("ac-living", "Living Room", "f4911e3a5b6c"))
			},
			device:  testDevice("ac-living", "Other", "c8f742000001"),
			wantErr: ErrDeviceExists,
		},
		{
			name: "duplicate mac",
			setup: func(r *SQLiteRepository) {
				_ = r.Create(ctx, testDevice("ac-living", "Living Room", "f4911e3a5b6c"))
			},
			device:  testDevice("ac-other", "Other", "f4911e3a5b6c"),
			wantErr: ErrDeviceExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewSQLiteRepository(setupTestDB(t))
			if tt.setup != nil {
				tt.setup(repo)
			}

			err := repo.Create(ctx, tt.device)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			got, err := repo.GetByID(ctx, tt.device.ID)
			if err != nil {
				t.Fatalf("GetByID() error = %v", err)
			}
			if got.MAC != tt.device.MAC || got.UniqueID != tt.device.UniqueID || got.Port != 7000 {
				t.Errorf("GetByID() = %+v", got)
			}
			if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
				t.Error("timestamps not set")
			}
			if got.Available || got.LastSeen != nil {
				t.Error("new device should be unavailable and never seen")
			}
		})
	}
}

func TestSQLiteRepository_GetByID(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupTestDB(t))

	devices, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(devices) != 0 {
		t.Fatalf("List() on empty store = %d devices", len(devices))
	}

	for _, d := range []*Device{
		testDevice("ac-study", "Study", "000000000003"),
		testDevice("ac-bedroom", "Bedroom", "000000000002"),
		testDevice("ac-living", "Living Room", "000000000001"),
	} {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create(%s) error = %v", d.ID, err)
		}
	}

	devices, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"ac-bedroom", "ac-living", "ac-study"}
	if len(devices) != len(want) {
		t.Fatalf("List() returned %d devices, want %d", len(devices), len(want))
	}
	for i, id := range want {
		if devices[i].ID != id {
			t.Errorf("devices[%d] = %s, want %s", i, devices[i].ID, id)
		}
	}
}

func TestSQLiteRepository_Delete(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	history := NewSQLiteStateHistoryRepository(db)

	if err := repo.Create(ctx, testDevice("ac-living", "Living Room", "f4911e3a5b6c")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := history.RecordState(ctx, "ac-living", map[string]any{"power": true}); err != nil {
		t.Fatalf("RecordState() error = %v", err)
	}

	if err := repo.Delete(ctx, "ac-living"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, "ac-living"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByID after delete error = %v", err)
	}

	entries, err := history.GetHistory(ctx, "ac-living", 0)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("history not cascaded: %d entries", len(entries))
	}

	if err := repo.Delete(ctx, "ac-living"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("second Delete() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepository_UpdateState(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupTestDB(t))

	if err := repo.Create(ctx, testDevice("ac-living", "Living Room", "f4911e3a5b6c")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	state := State{"power": true, "hvac_mode": "cool", "target_temperature": 22.5}
	if err := repo.UpdateState(ctx, "ac-living", state); err != nil {
		t.Fatalf("UpdateState() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "ac-living")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.State["hvac_mode"] != "cool" || got.State["power"] != true || got.State["target_temperature"] != 22.5 {
		t.Errorf("State = %v", got.State)
	}
	if got.StateUpdatedAt == nil {
		t.Error("StateUpdatedAt not set")
	}

	// Full replace: keys absent from the new state are dropped.
	if err := repo.UpdateState(ctx, "ac-living", State{"power": false}); err != nil {
		t.Fatalf("UpdateState() error = %v", err)
	}
	got, _ = repo.GetByID(ctx, "ac-living")
	if _, ok := got.State["hvac_mode"]; ok {
		t.Errorf("State after replace = %v", got.State)
	}

	if err := repo.UpdateState(ctx, "missing", state); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("UpdateState(missing) error = %v", err)
	}
}

func TestSQLiteRepository_UpdateAvailability(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupTestDB(t))

	if err := repo.Create(ctx, testDevice("ac-living", "Living Room", "f4911e3a5b6c")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	seen := time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)
	if err := repo.UpdateAvailability(ctx, "ac-living", true, seen); err != nil {
		t.Fatalf("UpdateAvailability() error = %v", err)
	}

	got, _ := repo.GetByID(ctx, "ac-living")
	if !got.Available {
		t.Error("Available = false, want true")
	}
	if got.LastSeen == nil || !got.LastSeen.Equal(seen) {
		t.Errorf("LastSeen = %v, want %v", got.LastSeen, seen)
	}

	// A zero time keeps the last contact.
	if err := repo.UpdateAvailability(ctx, "ac-living", false, time.Time{}); err != nil {
		t.Fatalf("UpdateAvailability() error = %v", err)
	}
	got, _ = repo.GetByID(ctx, "ac-living")
	if got.Available {
		t.Error("Available = true, want false")
	}
	if got.LastSeen == nil || !got.LastSeen.Equal(seen) {
		t.Errorf("LastSeen = %v, want unchanged %v", got.LastSeen, seen)
	}

	if err := repo.UpdateAvailability(ctx, "missing", true, seen); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("UpdateAvailability(missing) error = %v", err)
	}
}
