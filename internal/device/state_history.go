package device

import (
	"context"
	"time"
)

// State history source values.
const (
	StateHistorySourceDevice  = "device"
	StateHistorySourceCommand = "command"
	StateHistorySourceSensor  = "sensor"
)

// StateHistoryEntry represents a single rendered climate state.
//
// Each entry stores the full state map the bridge published. This provides a
// local record even when InfluxDB is not configured.
type StateHistoryEntry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// DeviceID is the configured unit identifier.
	DeviceID string `json:"device_id"`

	// State is the published state snapshot.
	State State `json:"state"`

	// Source identifies what triggered the render (device, command, sensor).
	Source string `json:"source"`

	// CreatedAt is the time the state was recorded (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// StateHistoryRepository stores and retrieves climate state history.
//
// Implementations must be thread-safe and use UTC timestamps.
type StateHistoryRepository interface {
	// RecordStateChange records a rendered state for a device.
	// An empty source defaults to StateHistorySourceDevice.
	RecordStateChange(ctx context.Context, deviceID string, state State, source string) error

	// GetHistory returns recent entries for the device, newest first.
	// A limit of zero or less uses the default; larger limits are clamped.
	GetHistory(ctx context.Context, deviceID string, limit int) ([]StateHistoryEntry, error)

	// PruneHistory deletes entries older than the retention window and
	// returns the number of rows removed.
	PruneHistory(ctx context.Context, retention time.Duration) (int64, error)
}
