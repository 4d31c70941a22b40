package gree

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/nerrad567/gray-logic-gree/internal/climate"
)

// IntentFromCommand translates a bus command into an engine intent.
// CommandSync has no intent; callers handle it before translation.
func IntentFromCommand(cmd CommandMessage) (climate.Intent, error) {
	switch cmd.Command {
	case CommandTurnOn:
		return climate.TurnOn(), nil

	case CommandTurnOff:
		return climate.TurnOff(), nil

	case CommandSetTemperature:
		t, err := floatParam(cmd.Parameters, ParamTemperature)
		if err != nil {
			return climate.Intent{}, err
		}
		if t < climate.MinTemperature || t > climate.MaxTemperature {
			return climate.Intent{}, fmt.Errorf("%w: temperature %v outside %d-%d",
				ErrInvalidParameters, t, climate.MinTemperature, climate.MaxTemperature)
		}
		return climate.SetTemperature(t), nil

	case CommandSetHVACMode:
		m, err := stringParam(cmd.Parameters, ParamHVACMode)
		if err != nil {
			return climate.Intent{}, err
		}
		return climate.SetHVACMode(climate.HVACMode(m)), nil

	case CommandSetFanMode:
		m, err := stringParam(cmd.Parameters, ParamFanMode)
		if err != nil {
			return climate.Intent{}, err
		}
		return climate.SetFanMode(climate.FanMode(m)), nil

	case CommandSetPresetMode:
		m, err := stringParam(cmd.Parameters, ParamPresetMode)
		if err != nil {
			return climate.Intent{}, err
		}
		// Any preset other than sleep clears sleep.
		return climate.SetPresetMode(climate.PresetMode(m)), nil

	default:
		return climate.Intent{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Command)
	}
}

// floatParam reads a finite number, accepting JSON numbers and numeric strings.
func floatParam(params map[string]any, key string) (float64, error) {
	raw, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidParameters, key)
	}

	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case int:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrInvalidParameters, key, err)
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidParameters, key)
		}
		v = f
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidParameters, key)
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be finite", ErrInvalidParameters, key)
	}
	return v, nil
}

func stringParam(params map[string]any, key string) (string, error) {
	raw, ok := params[key]
	if !ok {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidParameters, key)
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidParameters, key)
	}
	return s, nil
}
