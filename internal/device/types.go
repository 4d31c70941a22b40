package device

import "time"

// Device is the persisted record of one Gree unit.
// This matches the devices table in migrations/20261019_120000_devices.sql.
type Device struct {
	// Identity
	ID       string `json:"id"`
	Name     string `json:"name"`
	MAC      string `json:"mac"`
	UniqueID string `json:"unique_id"`

	// LAN location, relayed to the gateway operator.
	Host string `json:"host,omitempty"`
	Port int    `json:"port"`

	// TempSensor is the MQTT topic of an external room sensor, if any.
	TempSensor string `json:"temp_sensor,omitempty"`

	// Last published state
	State          State      `json:"state"`
	StateUpdatedAt *time.Time `json:"state_updated_at,omitempty"`

	// Reachability
	Available bool       `json:"available"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State is the semantic climate state as published on the bus:
// available, power, hvac_mode, fan_mode, preset_mode, target and current
// temperature.
type State map[string]any

// DeepCopy creates a complete independent copy of the Device.
// Modifications to the copy do not affect the original, which keeps
// cached records isolated from callers.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d
	cpy.State = deepCopyMap(d.State)
	if d.StateUpdatedAt != nil {
		t := *d.StateUpdatedAt
		cpy.StateUpdatedAt = &t
	}
	if d.LastSeen != nil {
		t := *d.LastSeen
		cpy.LastSeen = &t
	}
	return &cpy
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case State:
		return State(deepCopyMap(val))
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		return v
	}
}
