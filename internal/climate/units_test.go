package climate

import (
	"errors"
	"math"
	"testing"
)

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    Unit
		wantErr bool
	}{
		{"", Celsius, false},
		{"C", Celsius, false},
		{"°C", Celsius, false},
		{"celsius", Celsius, false},
		{"F", Fahrenheit, false},
		{" °F ", Fahrenheit, false},
		{"Kelvin", Kelvin, false},
		{"rankine", "", true},
	}

	for _, tt := range tests {
		got, err := ParseUnit(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseUnit(%q) error = %v", tt.in, err)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ParseUnit(%q) error = %v, want ErrInvalidArgument", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseUnit(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConvertTemperature(t *testing.T) {
	tests := []struct {
		v        float64
		from, to Unit
		want     float64
	}{
		{21, Celsius, Celsius, 21},
		{100, Celsius, Fahrenheit, 212},
		{32, Fahrenheit, Celsius, 0},
		{0, Celsius, Kelvin, 273.15},
		{273.15, Kelvin, Fahrenheit, 32},
	}

	for _, tt := range tests {
		if got := ConvertTemperature(tt.v, tt.from, tt.to); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ConvertTemperature(%v, %s, %s) = %v, want %v", tt.v, tt.from, tt.to, got, tt.want)
		}
	}
}
