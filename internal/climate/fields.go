package climate

// Field identifies one column of the Gree option protocol.
// The vocabulary is closed: packets naming any other column are not merged.
type Field int

// Protocol fields in status-request column order.
const (
	FieldPower Field = iota
	FieldMode
	FieldSetTemperature
	FieldFanSpeed
	FieldAir
	FieldBlow
	FieldHealth
	FieldSleep
	FieldSwing
	FieldQuiet
	FieldSaveEnergy
	FieldTemperatureDecimal

	fieldCount
)

// fieldNames maps each Field to its wire column name.
var fieldNames = [fieldCount]string{
	FieldPower:              "Pow",
	FieldMode:               "Mod",
	FieldSetTemperature:     "SetTem",
	FieldFanSpeed:           "WdSpd",
	FieldAir:                "Air",
	FieldBlow:               "Blo",
	FieldHealth:             "Health",
	FieldSleep:              "SwhSlp",
	FieldSwing:              "SwingLfRig",
	FieldQuiet:              "Quiet",
	FieldSaveEnergy:         "SvSt",
	FieldTemperatureDecimal: "Add0.1",
}

// fieldsByName is the reverse lookup of fieldNames, built once.
var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		m[fieldNames[f]] = f
	}
	return m
}()

// String returns the wire column name, or "" for an unknown field.
func (f Field) String() string {
	if !f.Valid() {
		return ""
	}
	return fieldNames[f]
}

// Valid reports whether f belongs to the protocol vocabulary.
func (f Field) Valid() bool {
	return f >= 0 && f < fieldCount
}

// ParseField resolves a wire column name. Names are case sensitive,
// matching the device firmware.
func ParseField(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// Fields returns every protocol field in status-request column order.
func Fields() []Field {
	out := make([]Field, fieldCount)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// StatusColumns returns the wire column names requested by a status poll.
func StatusColumns() []string {
	out := make([]string, fieldCount)
	copy(out, fieldNames[:])
	return out
}
