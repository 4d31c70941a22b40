package gree

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-gree/internal/climate"
	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/mqtt"
)

// Protocol is the protocol identifier used in bus topics and messages.
const Protocol = "gree"

// Command names accepted on the bus and the API.
const (
	CommandTurnOn         = "turn_on"
	CommandTurnOff        = "turn_off"
	CommandSetTemperature = "set_temperature"
	CommandSetHVACMode    = "set_hvac_mode"
	CommandSetFanMode     = "set_fan_mode"
	CommandSetPresetMode  = "set_preset_mode"
	CommandSync           = "sync"
)

// Command parameter keys.
const (
	ParamTemperature = "temperature"
	ParamHVACMode    = "hvac_mode"
	ParamFanMode     = "fan_mode"
	ParamPresetMode  = "preset_mode"
)

// CommandMessage is sent from Core to the bridge to change a unit.
// Topic: graylogic/command/gree/{device_id}
type CommandMessage struct {
	// ID correlates the command with its acknowledgement.
	ID string `json:"id"`

	// Timestamp is when the command was issued (UTC, RFC 3339).
	Timestamp time.Time `json:"timestamp"`

	// DeviceID is the Gray Logic device identifier.
	DeviceID string `json:"device_id"`

	// Command is one of the Command* names.
	Command string `json:"command"`

	// Parameters carries command values, e.g. {"temperature": 22.5}.
	Parameters map[string]any `json:"parameters,omitempty"`

	// Source indicates where the command originated: "api", "automation", "voice".
	Source string `json:"source"`

	// UserID is the user who triggered the command, if any.
	UserID string `json:"user_id,omitempty"`
}

// AckStatus represents the acknowledgement status of a command.
type AckStatus string

const (
	// AckAccepted indicates the packet was queued for the gateway.
	AckAccepted AckStatus = "accepted"

	// AckIgnored indicates the command was valid but not sent because the
	// unit is off.
	AckIgnored AckStatus = "ignored"

	// AckFailed indicates the command could not be executed.
	AckFailed AckStatus = "failed"
)

// AckMessage is sent from the bridge to Core to acknowledge a command.
// Topic: graylogic/ack/gree/{device_id}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	Status    AckStatus `json:"status"`
	Protocol  string    `json:"protocol"`
	MAC       string    `json:"mac,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Error     *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed commands.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes for command failures.
const (
	ErrCodeDeviceUnreachable = "DEVICE_UNREACHABLE"
	ErrCodeInvalidCommand    = "INVALID_COMMAND"
	ErrCodeInvalidParameters = "INVALID_PARAMETERS"
	ErrCodeNotConfigured     = "NOT_CONFIGURED"
	ErrCodeBridgeError       = "BRIDGE_ERROR"
)

// StateMessage is published when a unit's semantic state changes.
// Topic: graylogic/state/gree/{device_id}
// QoS: 1, Retained: Yes
type StateMessage struct {
	DeviceID  string         `json:"device_id"`
	Timestamp time.Time      `json:"timestamp"`
	State     map[string]any `json:"state"`
	Protocol  string         `json:"protocol"`
	MAC       string         `json:"mac"`
	UniqueID  string         `json:"unique_id"`
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthOffline  HealthStatus = "offline"
	HealthStarting HealthStatus = "starting"
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports the bridge's operational status.
// Topic: graylogic/health/gree
// QoS: 1, Retained: Yes
type HealthMessage struct {
	Bridge           string            `json:"bridge"`
	Timestamp        time.Time         `json:"timestamp"`
	Status           HealthStatus      `json:"status"`
	Version          string            `json:"version,omitempty"`
	UptimeSeconds    int64             `json:"uptime_seconds"`
	Statistics       *BridgeStatistics `json:"statistics,omitempty"`
	DevicesManaged   int               `json:"devices_managed"`
	DevicesAvailable int               `json:"devices_available"`
	Reason           string            `json:"reason,omitempty"`
}

// BridgeStatistics contains operational counters.
type BridgeStatistics struct {
	PacketsReceived  uint64 `json:"packets_received"`
	PacketsSent      uint64 `json:"packets_sent"`
	PacketsMalformed uint64 `json:"packets_malformed"`
	CommandsHandled  uint64 `json:"commands_handled"`
	Errors           uint64 `json:"errors"`
}

// MarshalJSON writes the timestamp in RFC 3339.
func (m *CommandMessage) MarshalJSON() ([]byte, error) {
	type Alias CommandMessage
	return json.Marshal(&struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias:     (*Alias)(m),
		Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
	})
}

// UnmarshalJSON accepts an RFC 3339 timestamp or none.
func (m *CommandMessage) UnmarshalJSON(data []byte) error {
	type Alias CommandMessage
	aux := &struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias: (*Alias)(m),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return fmt.Errorf("unmarshal command message: %w", err)
	}
	if aux.Timestamp != "" {
		t, err := time.Parse(time.RFC3339, aux.Timestamp)
		if err != nil {
			return fmt.Errorf("parse timestamp: %w", err)
		}
		m.Timestamp = t
	}
	return nil
}

// NewAckMessage creates an acknowledgement for a command.
func NewAckMessage(cmd CommandMessage, status AckStatus, mac string) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		DeviceID:  cmd.DeviceID,
		Status:    status,
		Protocol:  Protocol,
		MAC:       mac,
	}
}

// NewAckError creates a failed acknowledgement with error details.
func NewAckError(cmd CommandMessage, mac, code, message string) AckMessage {
	ack := NewAckMessage(cmd, AckFailed, mac)
	ack.Error = &AckError{Code: code, Message: message}
	return ack
}

// NewStateMessage creates a state message from a unit snapshot.
func NewStateMessage(deviceID string, snap climate.Snapshot) StateMessage {
	return StateMessage{
		DeviceID:  deviceID,
		Timestamp: time.Now().UTC(),
		State:     snap.StateMap(),
		Protocol:  Protocol,
		MAC:       snap.MAC,
		UniqueID:  snap.UniqueID,
	}
}

// NewLWTMessage creates the health message the broker publishes if the
// bridge disconnects unexpectedly.
func NewLWTMessage(bridgeID string) HealthMessage {
	return HealthMessage{
		Bridge:    bridgeID,
		Timestamp: time.Now().UTC(),
		Status:    HealthOffline,
		Reason:    "unexpected_disconnect",
	}
}

var topics = mqtt.Topics{}

// CommandTopic returns the topic commands for deviceID arrive on.
func CommandTopic(deviceID string) string { return topics.BridgeCommand(Protocol, deviceID) }

// AckTopic returns the topic acknowledgements for deviceID are published on.
func AckTopic(deviceID string) string { return topics.BridgeAck(Protocol, deviceID) }

// StateTopic returns the retained state topic of deviceID.
func StateTopic(deviceID string) string { return topics.BridgeState(Protocol, deviceID) }

// HealthTopic returns the retained bridge health topic.
func HealthTopic() string { return topics.BridgeHealth(Protocol) }

// CommandSubscribeTopic matches every command for the bridge.
func CommandSubscribeTopic() string { return topics.BridgeCommands(Protocol) }

// GatewayInSubscribeTopic matches inbound packets of every unit.
func GatewayInSubscribeTopic() string { return topics.AllGatewayIn(Protocol) }

// GatewayOutTopic returns the topic outbound packets for mac are published on.
func GatewayOutTopic(mac string) string { return topics.GatewayOut(Protocol, mac) }
