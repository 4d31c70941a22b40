package climate

// Safe defaults applied when the option store cannot be projected.
const (
	SafeTargetTemperature = float64(DefaultSetTemperature)
	SafeHVACMode          = HVACOff
	SafeFanMode           = FanAuto
)

// decimalStep is the weight of one unit of the temperature decimal flag.
const decimalStep = 0.1

// Projection is the semantic view derived from an option store.
type Projection struct {
	TargetTemperature float64
	HVACMode          HVACMode
	FanMode           FanMode
}

// SafeProjection returns the projection reported when derivation fails as a whole.
func SafeProjection() Projection {
	return Projection{
		TargetTemperature: SafeTargetTemperature,
		HVACMode:          SafeHVACMode,
		FanMode:           SafeFanMode,
	}
}

// Fallback records a derivation that could not use the stored value.
type Fallback struct {
	Field Field
	Value int
}

// ProjectTargetTemperature derives the target temperature. The device sends
// the first decimal digit in a separate flag column.
func ProjectTargetTemperature(o Options) float64 {
	t := float64(o.SetTemperature)
	if o.TemperatureDecimal != 0 {
		t += float64(o.TemperatureDecimal) * decimalStep
	}
	return t
}

// ProjectHVACMode derives the HVAC mode. ok is false when the stored mode
// index was unusable and the COOL fallback was applied.
//
// A powered unit never projects to OFF, so an index naming OFF while the
// power flag is set falls back too.
func ProjectHVACMode(o Options) (mode HVACMode, ok bool) {
	if o.Power == 0 {
		return HVACOff, true
	}
	m, found := HVACModeAt(o.Mode)
	if !found || m == HVACOff {
		return HVACCool, false
	}
	return m, true
}

// ProjectFanMode derives the fan mode. ok is false when the stored index was
// out of range and AUTO was applied.
func ProjectFanMode(o Options) (mode FanMode, ok bool) {
	m, found := FanModeAt(o.FanSpeed)
	if !found {
		return FanAuto, false
	}
	return m, true
}

// ProjectPreset derives the preset from the sleep flag.
func ProjectPreset(o Options) PresetMode {
	if o.Sleep != 0 {
		return PresetSleep
	}
	return PresetNone
}

// Project derives the full projection from o. Each derivation falls back on
// its own; an option store failing validation yields SafeProjection and the
// validation error.
func Project(o Options) (Projection, []Fallback, error) {
	if err := o.Validate(); err != nil {
		return SafeProjection(), nil, err
	}

	var fallbacks []Fallback
	p := Projection{TargetTemperature: ProjectTargetTemperature(o)}

	mode, ok := ProjectHVACMode(o)
	if !ok {
		fallbacks = append(fallbacks, Fallback{Field: FieldMode, Value: o.Mode})
	}
	p.HVACMode = mode

	fan, ok := ProjectFanMode(o)
	if !ok {
		fallbacks = append(fallbacks, Fallback{Field: FieldFanSpeed, Value: o.FanSpeed})
	}
	p.FanMode = fan

	return p, fallbacks, nil
}
