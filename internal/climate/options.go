package climate

import "fmt"

// DefaultSetTemperature is the set-point assumed before the device reports one.
const DefaultSetTemperature = 26

// Options mirrors the raw option state of one unit, one integer per
// protocol column. It is the single source of truth the semantic state is
// projected from.
type Options struct {
	Power              int
	Mode               int
	SetTemperature     int
	FanSpeed           int
	Air                int
	Blow               int
	Health             int
	Sleep              int
	Swing              int
	Quiet              int
	SaveEnergy         int
	TemperatureDecimal int
}

// DefaultOptions returns the option state of a freshly created engine.
func DefaultOptions() Options {
	return Options{SetTemperature: DefaultSetTemperature}
}

// ref returns a pointer to the storage of f, or nil for an unknown field.
func (o *Options) ref(f Field) *int {
	switch f {
	case FieldPower:
		return &o.Power
	case FieldMode:
		return &o.Mode
	case FieldSetTemperature:
		return &o.SetTemperature
	case FieldFanSpeed:
		return &o.FanSpeed
	case FieldAir:
		return &o.Air
	case FieldBlow:
		return &o.Blow
	case FieldHealth:
		return &o.Health
	case FieldSleep:
		return &o.Sleep
	case FieldSwing:
		return &o.Swing
	case FieldQuiet:
		return &o.Quiet
	case FieldSaveEnergy:
		return &o.SaveEnergy
	case FieldTemperatureDecimal:
		return &o.TemperatureDecimal
	default:
		return nil
	}
}

// Get returns the value of f. Unknown fields read as 0.
func (o Options) Get(f Field) int {
	if p := o.ref(f); p != nil {
		return *p
	}
	return 0
}

// Set overwrites the value of f and reports whether f was known.
func (o *Options) Set(f Field, v int) bool {
	p := o.ref(f)
	if p == nil {
		return false
	}
	*p = v
	return true
}

// Validate checks that every field holds a value the sanitiser could have
// produced. The projector resets to safe defaults when this fails.
func (o Options) Validate() error {
	for _, f := range Fields() {
		if v := o.Get(f); v < 0 {
			return fmt.Errorf("%w: %s=%d", ErrInvalidOptions, f, v)
		}
	}
	return nil
}

// Map returns the options keyed by wire column name.
func (o Options) Map() map[string]int {
	m := make(map[string]int, fieldCount)
	for _, f := range Fields() {
		m[f.String()] = o.Get(f)
	}
	return m
}
