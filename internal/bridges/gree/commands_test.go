package gree

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/nerrad567/gray-logic-gree/internal/climate"
)

func TestIntentFromCommand(t *testing.T) {
	tests := []struct {
		name       string
		command    string
		params     map[string]any
		wantAction climate.Action
		wantMode   string
		wantTemp   float64
		wantErr    error
	}{
		{name: "turn on", command: CommandTurnOn, wantAction: climate.ActionTurnOn},
		{name: "turn off", command: CommandTurnOff, wantAction: climate.ActionTurnOff},
		{
			name:       "temperature float",
			command:    CommandSetTemperature,
			params:     map[string]any{ParamTemperature: 22.5},
			wantAction: climate.ActionSetTemperature,
			wantTemp:   22.5,
		},
		{
			name:       "temperature int",
			command:    CommandSetTemperature,
			params:     map[string]any{ParamTemperature: 21},
			wantAction: climate.ActionSetTemperature,
			wantTemp:   21,
		},
		{
			name:       "temperature json number",
			command:    CommandSetTemperature,
			params:     map[string]any{ParamTemperature: json.Number("16")},
			wantAction: climate.ActionSetTemperature,
			wantTemp:   16,
		},
		{
			name:       "temperature string",
			command:    CommandSetTemperature,
			params:     map[string]any{ParamTemperature: "30"},
			wantAction: climate.ActionSetTemperature,
			wantTemp:   30,
		},
		{name: "temperature too low", command: CommandSetTemperature, params: map[string]any{ParamTemperature: 15.9}, wantErr: ErrInvalidParameters},
		{name: "temperature too high", command: CommandSetTemperature, params: map[string]any{ParamTemperature: 30.5}, wantErr: ErrInvalidParameters},
		{name: "temperature NaN", command: CommandSetTemperature, params: map[string]any{ParamTemperature: math.NaN()}, wantErr: ErrInvalidParameters},
		{name: "temperature not a number", command: CommandSetTemperature, params: map[string]any{ParamTemperature: "warm"}, wantErr: ErrInvalidParameters},
		{name: "temperature wrong type", command: CommandSetTemperature, params: map[string]any{ParamTemperature: true}, wantErr: ErrInvalidParameters},
		{name: "temperature missing", command: CommandSetTemperature, wantErr: ErrInvalidParameters},
		{
			name:       "hvac mode",
			command:    CommandSetHVACMode,
			params:     map[string]any{ParamHVACMode: "heat"},
			wantAction: climate.ActionSetHVACMode,
			wantMode:   "heat",
		},
		{name: "hvac mode empty", command: CommandSetHVACMode, params: map[string]any{ParamHVACMode: ""}, wantErr: ErrInvalidParameters},
		{
			name:       "fan mode",
			command:    CommandSetFanMode,
			params:     map[string]any{ParamFanMode: "medium-high"},
			wantAction: climate.ActionSetFanMode,
			wantMode:   "medium-high",
		},
		{name: "fan mode wrong type", command: CommandSetFanMode, params: map[string]any{ParamFanMode: 3}, wantErr: ErrInvalidParameters},
		{
			name:       "preset sleep",
			command:    CommandSetPresetMode,
			params:     map[string]any{ParamPresetMode: "sleep"},
			wantAction: climate.ActionSetPresetMode,
			wantMode:   "sleep",
		},
		{
			name:       "preset passed through",
			command:    CommandSetPresetMode,
			params:     map[string]any{ParamPresetMode: "boost"},
			wantAction: climate.ActionSetPresetMode,
			wantMode:   "boost",
		},
		{name: "preset empty", command: CommandSetPresetMode, params: map[string]any{ParamPresetMode: ""}, wantErr: ErrInvalidParameters},
		{name: "unknown command", command: "defrost", wantErr: ErrUnknownCommand},
		{name: "sync has no intent", command: CommandSync, wantErr: ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := IntentFromCommand(CommandMessage{Command: tt.command, Parameters: tt.params})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("IntentFromCommand() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("IntentFromCommand() error = %v", err)
			}
			if intent.Action != tt.wantAction {
				t.Errorf("Action = %v, want %v", intent.Action, tt.wantAction)
			}
			if tt.wantMode != "" && intent.Mode != tt.wantMode {
				t.Errorf("Mode = %q, want %q", intent.Mode, tt.wantMode)
			}
			if tt.wantTemp != 0 {
				if intent.Temperature == nil || *intent.Temperature != tt.wantTemp {
					t.Errorf("Temperature = %v, want %v", intent.Temperature, tt.wantTemp)
				}
			}
		})
	}
}
