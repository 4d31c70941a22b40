package climate

import (
	"fmt"
	"strings"
)

// Unit is a temperature unit.
type Unit string

// Supported temperature units.
const (
	Celsius    Unit = "celsius"
	Fahrenheit Unit = "fahrenheit"
	Kelvin     Unit = "kelvin"
)

// Fixed target temperature bounds of the device, in Celsius.
const (
	MinTemperature = 16
	MaxTemperature = 30
)

// ParseUnit accepts the long names and the usual symbols ("C", "°F", "K").
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "°")) {
	case "", "c", "celsius":
		return Celsius, nil
	case "f", "fahrenheit":
		return Fahrenheit, nil
	case "k", "kelvin":
		return Kelvin, nil
	default:
		return "", fmt.Errorf("%w: unknown temperature unit %q", ErrInvalidArgument, s)
	}
}

// ConvertTemperature converts v from one unit to another.
func ConvertTemperature(v float64, from, to Unit) float64 {
	if from == to {
		return v
	}
	return fromCelsius(toCelsius(v, from), to)
}

func toCelsius(v float64, u Unit) float64 {
	switch u {
	case Fahrenheit:
		return (v - 32) * 5 / 9
	case Kelvin:
		return v - 273.15
	default:
		return v
	}
}

func fromCelsius(v float64, u Unit) float64 {
	switch u {
	case Fahrenheit:
		return v*9/5 + 32
	case Kelvin:
		return v + 273.15
	default:
		return v
	}
}
