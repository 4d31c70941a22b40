package climate

// HVACMode is the semantic operation mode of a unit.
type HVACMode string

// HVAC modes in device index order.
const (
	HVACAuto    HVACMode = "auto"
	HVACCool    HVACMode = "cool"
	HVACDry     HVACMode = "dry"
	HVACFanOnly HVACMode = "fan_only"
	HVACHeat    HVACMode = "heat"
	HVACOff     HVACMode = "off"
)

// FanMode is the semantic fan speed of a unit.
type FanMode string

// Fan modes in device index order.
const (
	FanAuto       FanMode = "auto"
	FanLow        FanMode = "low"
	FanMediumLow  FanMode = "medium-low"
	FanMedium     FanMode = "medium"
	FanMediumHigh FanMode = "medium-high"
	FanHigh       FanMode = "high"
)

// PresetMode is the semantic preset of a unit.
type PresetMode string

// Presets supported by the device.
const (
	PresetNone  PresetMode = "none"
	PresetSleep PresetMode = "sleep"
)

// The device encodes mode and fan as positions in these tables.
// They are arrays so callers only ever receive copies.
var (
	hvacModeTable = [...]HVACMode{HVACAuto, HVACCool, HVACDry, HVACFanOnly, HVACHeat, HVACOff}
	fanModeTable  = [...]FanMode{FanAuto, FanLow, FanMediumLow, FanMedium, FanMediumHigh, FanHigh}
	presetTable   = [...]PresetMode{PresetNone, PresetSleep}
)

// HVACModes returns the supported HVAC modes in device index order.
func HVACModes() []HVACMode {
	out := make([]HVACMode, len(hvacModeTable))
	copy(out, hvacModeTable[:])
	return out
}

// FanModes returns the supported fan modes in device index order.
func FanModes() []FanMode {
	out := make([]FanMode, len(fanModeTable))
	copy(out, fanModeTable[:])
	return out
}

// PresetModes returns the supported presets.
func PresetModes() []PresetMode {
	out := make([]PresetMode, len(presetTable))
	copy(out, presetTable[:])
	return out
}

// HVACModeAt returns the mode stored at device index i.
func HVACModeAt(i int) (HVACMode, bool) {
	if i < 0 || i >= len(hvacModeTable) {
		return "", false
	}
	return hvacModeTable[i], true
}

// HVACModeIndex returns the device index of m.
func HVACModeIndex(m HVACMode) (int, bool) {
	for i, v := range hvacModeTable {
		if v == m {
			return i, true
		}
	}
	return 0, false
}

// FanModeAt returns the fan mode stored at device index i.
func FanModeAt(i int) (FanMode, bool) {
	if i < 0 || i >= len(fanModeTable) {
		return "", false
	}
	return fanModeTable[i], true
}

// FanModeIndex returns the device index of m.
func FanModeIndex(m FanMode) (int, bool) {
	for i, v := range fanModeTable {
		if v == m {
			return i, true
		}
	}
	return 0, false
}
