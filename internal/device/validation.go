package device

import (
	"fmt"
	"strings"
)

// Validation constants.
const (
	maxNameLength = 100
	maxIDLength   = 64
	macHexLength  = 12
	maxStateKeys  = 32
	maxPort       = 65535
)

// ValidateDevice checks a record before it is persisted.
// Returns an error describing the first validation failure found.
func ValidateDevice(d *Device) error {
	if d == nil {
		return fmt.Errorf("%w: device is nil", ErrInvalidDevice)
	}
	if d.ID == "" || len(d.ID) > maxIDLength {
		return fmt.Errorf("%w: id must be 1-%d characters", ErrInvalidDevice, maxIDLength)
	}
	if strings.ContainsAny(d.ID, "/+#") {
		return fmt.Errorf("%w: id %q contains MQTT topic characters", ErrInvalidDevice, d.ID)
	}
	if err := ValidateName(d.Name); err != nil {
		return err
	}
	if err := ValidateMAC(d.MAC); err != nil {
		return err
	}
	if d.UniqueID == "" {
		return fmt.Errorf("%w: unique_id is required", ErrInvalidDevice)
	}
	if d.Port < 1 || d.Port > maxPort {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidDevice, d.Port)
	}
	if len(d.State) > maxStateKeys {
		return fmt.Errorf("%w: state has %d keys (max %d)", ErrInvalidState, len(d.State), maxStateKeys)
	}
	return nil
}

// ValidateName checks a display name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateMAC checks a MAC in the gateway's form: 12 lowercase hex digits.
func ValidateMAC(mac string) error {
	if len(mac) != macHexLength {
		return fmt.Errorf("%w: %q", ErrInvalidMAC, mac)
	}
	for i := 0; i < len(mac); i++ {
		c := mac[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%w: %q", ErrInvalidMAC, mac)
		}
	}
	return nil
}
