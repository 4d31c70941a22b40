package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementClimate is the measurement every climate state point is written to.
const MeasurementClimate = "climate_state"

// ClimateSample is one rendered state of an air conditioner.
type ClimateSample struct {
	DeviceID           string
	Available          bool
	Power              bool
	HVACMode           string
	ModeIndex          int
	FanMode            string
	PresetMode         string
	TargetTemperature  float64
	CurrentTemperature float64
	Unit               string
}

// WriteClimateState records a climate sample.
//
// Tags stay low cardinality (device, mode names, unit); temperatures and
// flags are fields. The write is non-blocking and silently dropped when
// the client is disconnected.
//
//	client.WriteClimateState(influxdb.ClimateSample{
//	    DeviceID: "living-room", Power: true, HVACMode: "cool",
//	    TargetTemperature: 22, CurrentTemperature: 24.5,
//	})
func (c *Client) WriteClimateState(sample ClimateSample) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(climatePoint(sample, time.Now()))
}

// climatePoint builds the line-protocol point for a sample.
func climatePoint(sample ClimateSample, ts time.Time) *write.Point {
	tags := map[string]string{
		"device_id": sample.DeviceID,
		"hvac_mode": sample.HVACMode,
		"fan_mode":  sample.FanMode,
	}
	if sample.PresetMode != "" {
		tags["preset_mode"] = sample.PresetMode
	}
	if sample.Unit != "" {
		tags["unit"] = sample.Unit
	}

	fields := map[string]any{
		"target_temperature":  sample.TargetTemperature,
		"current_temperature": sample.CurrentTemperature,
		"power":               sample.Power,
		"available":           sample.Available,
		"mode_index":          int64(sample.ModeIndex),
	}

	return write.NewPoint(MeasurementClimate, tags, fields, ts)
}
