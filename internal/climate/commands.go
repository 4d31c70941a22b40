package climate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Action enumerates the semantic intents a caller can issue.
type Action int

// Supported actions.
const (
	ActionTurnOn Action = iota + 1
	ActionTurnOff
	ActionSetTemperature
	ActionSetFanMode
	ActionSetHVACMode
	ActionSetPresetMode
)

// String returns the command name used on the bus and in the API.
func (a Action) String() string {
	switch a {
	case ActionTurnOn:
		return "turn_on"
	case ActionTurnOff:
		return "turn_off"
	case ActionSetTemperature:
		return "set_temperature"
	case ActionSetFanMode:
		return "set_fan_mode"
	case ActionSetHVACMode:
		return "set_hvac_mode"
	case ActionSetPresetMode:
		return "set_preset_mode"
	default:
		return "unknown"
	}
}

// Intent is a caller's request to change semantic state.
// Temperature is only read for ActionSetTemperature and may be nil, in which
// case the intent is a no-op. Mode carries the fan, HVAC or preset name.
type Intent struct {
	Action      Action
	Temperature *float64
	Mode        string
}

// TurnOn returns an intent powering the unit on.
func TurnOn() Intent { return Intent{Action: ActionTurnOn} }

// TurnOff returns an intent powering the unit off.
func TurnOff() Intent { return Intent{Action: ActionTurnOff} }

// SetTemperature returns an intent changing the target temperature.
func SetTemperature(t float64) Intent {
	return Intent{Action: ActionSetTemperature, Temperature: &t}
}

// SetFanMode returns an intent changing the fan speed.
func SetFanMode(m FanMode) Intent {
	return Intent{Action: ActionSetFanMode, Mode: string(m)}
}

// SetHVACMode returns an intent changing the operation mode.
func SetHVACMode(m HVACMode) Intent {
	return Intent{Action: ActionSetHVACMode, Mode: string(m)}
}

// SetPresetMode returns an intent changing the preset.
func SetPresetMode(p PresetMode) Intent {
	return Intent{Action: ActionSetPresetMode, Mode: string(p)}
}

// FieldValue is one entry of an outbound option delta.
type FieldValue struct {
	Field Field
	Value int
}

// Delta is an ordered set of option changes sent as one command.
type Delta []FieldValue

// Get returns the value carried for f.
func (d Delta) Get(f Field) (int, bool) {
	for _, fv := range d {
		if fv.Field == f {
			return fv.Value, true
		}
	}
	return 0, false
}

// BuildCommand translates intent into an option delta against the current
// options o. ok is false when the intent is suppressed: temperature, fan and
// preset changes are not sent to a unit that is powered off, and a
// temperature intent without a value is dropped. Mode changes always go out
// and power the unit on.
func BuildCommand(o Options, intent Intent) (Delta, bool, error) {
	switch intent.Action {
	case ActionTurnOn:
		return Delta{{FieldPower, 1}}, true, nil

	case ActionTurnOff:
		return Delta{{FieldPower, 0}}, true, nil

	case ActionSetTemperature:
		if intent.Temperature == nil || o.Power == 0 {
			return nil, false, nil
		}
		whole, decimal, err := splitTemperature(*intent.Temperature)
		if err != nil {
			return nil, false, err
		}
		return Delta{{FieldSetTemperature, whole}, {FieldTemperatureDecimal, decimal}}, true, nil

	case ActionSetFanMode:
		if o.Power == 0 {
			return nil, false, nil
		}
		idx, found := FanModeIndex(FanMode(intent.Mode))
		if !found {
			return nil, false, fmt.Errorf("%w: unknown fan mode %q", ErrInvalidArgument, intent.Mode)
		}
		return Delta{{FieldFanSpeed, idx}}, true, nil

	case ActionSetHVACMode:
		mode := HVACMode(intent.Mode)
		if mode == HVACOff {
			return Delta{{FieldPower, 0}}, true, nil
		}
		idx, found := HVACModeIndex(mode)
		if !found {
			return nil, false, fmt.Errorf("%w: unknown hvac mode %q", ErrInvalidArgument, intent.Mode)
		}
		return Delta{{FieldMode, idx}, {FieldPower, 1}}, true, nil

	case ActionSetPresetMode:
		if o.Power == 0 {
			return nil, false, nil
		}
		if PresetMode(intent.Mode) == PresetSleep {
			return Delta{{FieldSleep, 1}, {FieldQuiet, 1}}, true, nil
		}
		return Delta{{FieldSleep, 0}, {FieldQuiet, 0}}, true, nil

	default:
		return nil, false, fmt.Errorf("%w: unknown action %d", ErrInvalidArgument, intent.Action)
	}
}

// splitTemperature splits t into its integer part and first decimal digit,
// the only precision the device can represent. Further digits are truncated.
func splitTemperature(t float64) (whole, decimal int, err error) {
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return 0, 0, fmt.Errorf("%w: temperature %v", ErrInvalidArgument, t)
	}

	text := strconv.FormatFloat(t, 'f', -1, 64)
	intPart, fracPart, _ := strings.Cut(text, ".")

	whole, err = strconv.Atoi(intPart)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: temperature %v", ErrInvalidArgument, t)
	}
	if fracPart != "" {
		decimal = int(fracPart[0] - '0')
	}
	return whole, decimal, nil
}
