package gree

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-gree/internal/climate"
)

// DefaultDevicePort is the UDP port Gree units listen on.
const DefaultDevicePort = 7000

// macHexLen is the number of hex digits in a MAC address.
const macHexLen = 12

// Config is the root configuration for the Gree bridge.
// Loaded from YAML with environment variable overrides.
type Config struct {
	Bridge  BridgeConfig   `yaml:"bridge"`
	Devices []DeviceConfig `yaml:"devices"`
}

// BridgeConfig contains bridge identity and operational settings.
type BridgeConfig struct {
	// ID uniquely identifies this bridge instance in health reports.
	ID string `yaml:"id"`

	// HealthInterval is how often to publish health status (seconds).
	// Default: 30 seconds.
	HealthInterval int `yaml:"health_interval"`

	// ScanInterval is how often every unit is polled for status (seconds).
	// Default: 60 seconds.
	ScanInterval int `yaml:"scan_interval"`

	// UnavailableAfter is the number of scan intervals without a status
	// packet after which a unit is marked unavailable. 0 disables the watchdog.
	// Default: 3.
	UnavailableAfter int `yaml:"unavailable_after"`

	// TemperatureUnit is the unit temperatures are reported in: celsius,
	// fahrenheit or kelvin. Default: celsius.
	TemperatureUnit string `yaml:"temperature_unit"`

	// OutboxSize bounds the packets queued for the gateway.
	// Default: 64.
	OutboxSize int `yaml:"outbox_size"`
}

// DeviceConfig defines one air conditioner.
type DeviceConfig struct {
	// ID is the Gray Logic device identifier used in bus topics.
	ID string `yaml:"id"`

	// Name is the display name. Default: ID.
	Name string `yaml:"name"`

	// MAC is the unit's MAC address, with or without separators.
	MAC string `yaml:"mac"`

	// Host and Port locate the unit on the LAN for the gateway.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// TempSensor is an optional MQTT topic carrying room temperature
	// readings that replace the unit's own current temperature.
	TempSensor string `yaml:"temp_sensor"`

	// SensorUnit is the unit TempSensor readings arrive in.
	// Default: the bridge temperature unit.
	SensorUnit string `yaml:"sensor_unit"`

	// TempStep is the target temperature step offered to clients.
	// Default: 1.
	TempStep float64 `yaml:"temp_step"`
}

// LoadConfig reads configuration from a YAML file.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern GREE_BRIDGE_KEY, for example
// GREE_BRIDGE_ID or GREE_BRIDGE_SCAN_INTERVAL.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	cfg.normalise()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			ID:               "gree-bridge-01",
			HealthInterval:   30,
			ScanInterval:     60,
			UnavailableAfter: 3,
			TemperatureUnit:  string(climate.Celsius),
			OutboxSize:       64,
		},
		Devices: []DeviceConfig{},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("GREE_BRIDGE_ID"); v != "" {
		cfg.Bridge.ID = v
	}
	if v := os.Getenv("GREE_BRIDGE_TEMPERATURE_UNIT"); v != "" {
		cfg.Bridge.TemperatureUnit = v
	}

	intOverrides := []struct {
		env    string
		target *int
	}{
		{"GREE_BRIDGE_HEALTH_INTERVAL", &cfg.Bridge.HealthInterval},
		{"GREE_BRIDGE_SCAN_INTERVAL", &cfg.Bridge.ScanInterval},
		{"GREE_BRIDGE_UNAVAILABLE_AFTER", &cfg.Bridge.UnavailableAfter},
	}
	for _, o := range intOverrides {
		v := os.Getenv(o.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", o.env, err)
		}
		*o.target = n
	}
	return nil
}

// normalise fills per-device defaults and canonicalises MAC addresses.
func (c *Config) normalise() {
	for i := range c.Devices {
		dev := &c.Devices[i]
		dev.MAC = NormaliseMAC(dev.MAC)
		if dev.Name == "" {
			dev.Name = dev.ID
		}
		if dev.Port == 0 {
			dev.Port = DefaultDevicePort
		}
		if dev.TempStep == 0 {
			dev.TempStep = 1
		}
	}
}

// NormaliseMAC lowercases mac and strips ':' and '-' separators, the form
// the gateway uses in topics and packets.
func NormaliseMAC(mac string) string {
	mac = strings.ToLower(strings.TrimSpace(mac))
	return strings.NewReplacer(":", "", "-", "").Replace(mac)
}

func isMAC(s string) bool {
	if len(s) != macHexLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	errs = append(errs, c.validateBridge()...)
	errs = append(errs, c.validateDevices()...)

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validateBridge validates bridge settings.
func (c *Config) validateBridge() []string {
	var errs []string
	if c.Bridge.ID == "" {
		errs = append(errs, "bridge.id is required")
	}
	if c.Bridge.HealthInterval < 1 {
		errs = append(errs, "bridge.health_interval must be at least 1 second")
	}
	if c.Bridge.ScanInterval < 1 {
		errs = append(errs, "bridge.scan_interval must be at least 1 second")
	}
	if c.Bridge.UnavailableAfter < 0 {
		errs = append(errs, "bridge.unavailable_after cannot be negative")
	}
	if c.Bridge.OutboxSize < 1 {
		errs = append(errs, "bridge.outbox_size must be at least 1")
	}
	if _, err := climate.ParseUnit(c.Bridge.TemperatureUnit); err != nil {
		errs = append(errs, fmt.Sprintf("bridge.temperature_unit %q is invalid", c.Bridge.TemperatureUnit))
	}
	return errs
}

// validateDevices validates device configurations.
func (c *Config) validateDevices() []string {
	var errs []string
	ids := make(map[string]bool)
	macs := make(map[string]bool)

	for i, dev := range c.Devices {
		if dev.ID == "" {
			errs = append(errs, fmt.Sprintf("devices[%d].id is required", i))
		} else {
			if ids[dev.ID] {
				errs = append(errs, fmt.Sprintf("devices[%d].id %q is duplicate", i, dev.ID))
			}
			ids[dev.ID] = true
			if strings.ContainsAny(dev.ID, "/+#") {
				errs = append(errs, fmt.Sprintf("devices[%d].id %q must not contain MQTT topic characters", i, dev.ID))
			}
		}

		switch {
		case dev.MAC == "":
			errs = append(errs, fmt.Sprintf("devices[%d].mac is required", i))
		case !isMAC(dev.MAC):
			errs = append(errs, fmt.Sprintf("devices[%d].mac %q is invalid", i, dev.MAC))
		case macs[dev.MAC]:
			errs = append(errs, fmt.Sprintf("devices[%d].mac %q is duplicate", i, dev.MAC))
		default:
			macs[dev.MAC] = true
		}

		if dev.Port < 1 || dev.Port > 65535 {
			errs = append(errs, fmt.Sprintf("devices[%d].port %d is out of range", i, dev.Port))
		}
		if dev.TempStep <= 0 {
			errs = append(errs, fmt.Sprintf("devices[%d].temp_step must be positive", i))
		}
		if dev.SensorUnit != "" {
			if _, err := climate.ParseUnit(dev.SensorUnit); err != nil {
				errs = append(errs, fmt.Sprintf("devices[%d].sensor_unit %q is invalid", i, dev.SensorUnit))
			}
		}
	}

	return errs
}

// GetHealthInterval returns the health reporting interval as a Duration.
func (c *Config) GetHealthInterval() time.Duration {
	return time.Duration(c.Bridge.HealthInterval) * time.Second
}

// GetScanInterval returns the status poll interval as a Duration.
func (c *Config) GetScanInterval() time.Duration {
	return time.Duration(c.Bridge.ScanInterval) * time.Second
}

// GetUnavailableTimeout returns how long a unit may stay silent before it is
// marked unavailable, or 0 when the watchdog is disabled.
func (c *Config) GetUnavailableTimeout() time.Duration {
	return time.Duration(c.Bridge.UnavailableAfter) * c.GetScanInterval()
}

// Unit returns the parsed bridge temperature unit. Validate guarantees it parses.
func (c *Config) Unit() climate.Unit {
	u, err := climate.ParseUnit(c.Bridge.TemperatureUnit)
	if err != nil {
		return climate.Celsius
	}
	return u
}
