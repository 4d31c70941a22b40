package main

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-gree/internal/bridges/gree"
	"github.com/nerrad567/gray-logic-gree/internal/climate"
	"github.com/nerrad567/gray-logic-gree/internal/device"
	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/mqtt"
)

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. The difference is the Subscribe handler signature:
//   - Infrastructure mqtt: func(topic, payload []byte) error
//   - Gree bridge expects:  func(topic, payload []byte)
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements gree.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements gree.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// Unsubscribe implements gree.MQTTClient.
func (a *mqttBridgeAdapter) Unsubscribe(topic string) error {
	return a.client.Unsubscribe(topic)
}

// IsConnected implements gree.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}

// deviceRegistry is the part of device.Registry the bridge persists through.
type deviceRegistry interface {
	CreateDeviceIfNotExists(ctx context.Context, dev *device.Device) (bool, error)
	SetDeviceState(ctx context.Context, id string, state device.State) error
	SetDeviceAvailability(ctx context.Context, id string, available bool, lastSeen time.Time) error
}

// registryAdapter adapts the device registry to gree.DeviceRegistry.
type registryAdapter struct {
	registry deviceRegistry
}

// CreateDeviceIfNotExists implements gree.DeviceRegistry.
func (a *registryAdapter) CreateDeviceIfNotExists(ctx context.Context, seed gree.DeviceSeed) error {
	_, err := a.registry.CreateDeviceIfNotExists(ctx, seedToDevice(seed))
	return err
}

// SetDeviceState implements gree.DeviceRegistry.
func (a *registryAdapter) SetDeviceState(ctx context.Context, id string, state map[string]any) error {
	return a.registry.SetDeviceState(ctx, id, device.State(state))
}

// SetDeviceAvailability implements gree.DeviceRegistry.
func (a *registryAdapter) SetDeviceAvailability(ctx context.Context, id string, available bool, lastSeen time.Time) error {
	return a.registry.SetDeviceAvailability(ctx, id, available, lastSeen)
}

// seedToDevice builds the initial record for a configured unit.
// It starts unavailable until the first status packet arrives.
func seedToDevice(seed gree.DeviceSeed) *device.Device {
	return &device.Device{
		ID:         seed.ID,
		Name:       seed.Name,
		MAC:        seed.MAC,
		UniqueID:   seed.UniqueID,
		Host:       seed.Host,
		Port:       seed.Port,
		TempSensor: seed.TempSensor,
		State:      device.State{},
	}
}

// climateWriter is the part of the InfluxDB client used for telemetry.
type climateWriter interface {
	WriteClimateState(sample influxdb.ClimateSample)
}

// telemetryAdapter adapts the InfluxDB client to gree.Telemetry.
type telemetryAdapter struct {
	client climateWriter
}

// WriteClimateState implements gree.Telemetry.
func (a *telemetryAdapter) WriteClimateState(deviceID string, snap climate.Snapshot) {
	a.client.WriteClimateState(climateSample(deviceID, snap))
}

// climateSample converts a snapshot to a telemetry sample.
// ModeIndex is the device mode index, or -1 for an unknown mode.
func climateSample(deviceID string, snap climate.Snapshot) influxdb.ClimateSample {
	modeIndex, ok := climate.HVACModeIndex(snap.HVACMode)
	if !ok {
		modeIndex = -1
	}
	return influxdb.ClimateSample{
		DeviceID:           deviceID,
		Available:          snap.Available,
		Power:              snap.HVACMode != climate.HVACOff,
		HVACMode:           string(snap.HVACMode),
		ModeIndex:          modeIndex,
		FanMode:            string(snap.FanMode),
		PresetMode:         string(snap.PresetMode),
		TargetTemperature:  snap.TargetTemperature,
		CurrentTemperature: snap.CurrentTemperature,
		Unit:               string(snap.Unit),
	}
}
