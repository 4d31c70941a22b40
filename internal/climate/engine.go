package climate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

// UniqueIDPrefix prefixes the MAC in a unit's stable identifier.
const UniqueIDPrefix = "com.gree2."

// defaultTemperatureStep is used when the configuration leaves the step unset.
const defaultTemperatureStep = 1.0

// Supported feature names reported in snapshots.
const (
	FeatureTargetTemperature = "target_temperature"
	FeatureFanMode           = "fan_mode"
	FeaturePresetMode        = "preset_mode"
	FeatureTurnOn            = "turn_on"
	FeatureTurnOff           = "turn_off"
)

// Transport hands outbound packets to the gateway. Implementations must not
// block on network I/O; delivery is best effort.
type Transport interface {
	Send(pkt Outbound) error
}

// Logger is the logging interface used by the engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// EngineConfig holds what an engine needs from its host.
type EngineConfig struct {
	// Name is the display name of the unit.
	Name string

	// MAC addresses the unit on the gateway. Required.
	MAC string

	// Transport receives outbound packets. Required.
	Transport Transport

	// Unit is the unit current temperature is reported in. Default Celsius.
	Unit Unit

	// SensorUnit is the unit external sensor readings arrive in.
	// Default: same as Unit.
	SensorUnit Unit

	// TemperatureStep is the target temperature granularity offered to
	// callers. Default 1.
	TemperatureStep float64

	// OnRender is invoked, outside the engine lock, whenever the semantic
	// state may have changed. Coalescing is the host's concern.
	OnRender func()

	// Logger is optional.
	Logger Logger
}

// MergeResult reports what one ingested packet did to the option store.
type MergeResult struct {
	// Merged counts values written to the store, including rejected values
	// written as 0.
	Merged int

	// Ignored counts columns outside the protocol vocabulary.
	Ignored int

	// Rejected counts values the sanitiser replaced with 0.
	Rejected int

	// Truncated is true when the column and value arrays differed in length.
	Truncated bool

	// Malformed is true when the packet lacked its arrays and nothing was merged.
	Malformed bool
}

// Snapshot is a consistent read of an engine's semantic state.
type Snapshot struct {
	UniqueID              string       `json:"unique_id"`
	Name                  string       `json:"name"`
	MAC                   string       `json:"mac"`
	Available             bool         `json:"available"`
	TargetTemperature     float64      `json:"target_temperature"`
	CurrentTemperature    float64      `json:"current_temperature"`
	HVACMode              HVACMode     `json:"hvac_mode"`
	FanMode               FanMode      `json:"fan_mode"`
	PresetMode            PresetMode   `json:"preset_mode"`
	Unit                  Unit         `json:"temperature_unit"`
	TargetTemperatureStep float64      `json:"target_temperature_step"`
	MinTemperature        float64      `json:"min_temp"`
	MaxTemperature        float64      `json:"max_temp"`
	HVACModes             []HVACMode   `json:"hvac_modes"`
	FanModes              []FanMode    `json:"fan_modes"`
	PresetModes           []PresetMode `json:"preset_modes"`
	SupportedFeatures     []string     `json:"supported_features"`
	Options               Options      `json:"-"`
	LastSeen              time.Time    `json:"last_seen,omitempty"`
}

// StateMap returns the semantic fields published on the bus.
func (s Snapshot) StateMap() map[string]any {
	return map[string]any{
		"available":           s.Available,
		"power":               s.HVACMode != HVACOff,
		"target_temperature":  s.TargetTemperature,
		"current_temperature": s.CurrentTemperature,
		"hvac_mode":           string(s.HVACMode),
		"fan_mode":            string(s.FanMode),
		"preset_mode":         string(s.PresetMode),
	}
}

// Engine keeps one unit's raw options and semantic state in sync.
//
// Thread Safety: all methods are safe for concurrent use. Inbound packets,
// sensor readings and issued commands serialise on one mutex; render
// callbacks and transport sends run after it is released.
type Engine struct {
	name       string
	mac        string
	unit       Unit
	sensorUnit Unit
	step       float64
	transport  Transport
	onRender   func()
	logger     Logger
	now        func() time.Time

	mu          sync.Mutex
	opts        Options
	projection  Projection
	available   bool
	currentTemp float64
	lastSeen    time.Time
}

// NewEngine creates an engine in its initial state: unavailable, target and
// current temperature 26, mode OFF, fan AUTO.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.MAC == "" {
		return nil, fmt.Errorf("%w: mac is required", ErrInvalidArgument)
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("%w: transport is required", ErrInvalidArgument)
	}

	unit := cfg.Unit
	if unit == "" {
		unit = Celsius
	}
	sensorUnit := cfg.SensorUnit
	if sensorUnit == "" {
		sensorUnit = unit
	}
	step := cfg.TemperatureStep
	if step <= 0 {
		step = defaultTemperatureStep
	}
	var logger Logger = noopLogger{}
	if cfg.Logger != nil {
		logger = cfg.Logger
	}

	return &Engine{
		name:        cfg.Name,
		mac:         cfg.MAC,
		unit:        unit,
		sensorUnit:  sensorUnit,
		step:        step,
		transport:   cfg.Transport,
		onRender:    cfg.OnRender,
		logger:      logger,
		now:         time.Now,
		opts:        DefaultOptions(),
		projection:  SafeProjection(),
		currentTemp: DefaultSetTemperature,
	}, nil
}

// UniqueID returns the stable identifier of the unit.
func (e *Engine) UniqueID() string {
	return UniqueIDPrefix + e.mac
}

// MAC returns the unit's MAC.
func (e *Engine) MAC() string {
	return e.mac
}

// Name returns the display name.
func (e *Engine) Name() string {
	return e.name
}

// IngestStatus merges a full status snapshot (cols/dat) into the option
// store. The unit is marked available as soon as a non-nil packet arrives,
// before its shape is checked. A packet without both arrays merges nothing
// and renders only if it made the unit available.
func (e *Engine) IngestStatus(p Packet) MergeResult {
	return e.ingest(p, keyStatusColumns, keyStatusData, true)
}

// IngestAck merges a command acknowledgement (opt/val). It follows the
// status contract but leaves availability alone.
func (e *Engine) IngestAck(p Packet) MergeResult {
	return e.ingest(p, keyAckOptions, keyAckValues, false)
}

func (e *Engine) ingest(p Packet, colKey, valKey string, marksAvailable bool) MergeResult {
	if p == nil {
		return MergeResult{}
	}

	e.mu.Lock()
	becameAvailable := false
	if marksAvailable {
		becameAvailable = !e.available
		e.available = true
		e.lastSeen = e.now()
	}

	cols, vals, err := p.columnsAndValues(colKey, valKey)
	if err != nil {
		e.mu.Unlock()
		e.logger.Warn("invalid packet structure", "device", e.name, "mac", e.mac, "error", err)
		// The options are untouched; only reachability is news.
		if becameAvailable {
			e.render()
		}
		return MergeResult{Malformed: true}
	}

	res := e.merge(cols, vals)
	e.reproject()
	opts := e.opts
	e.mu.Unlock()

	e.logger.Debug("packet merged",
		"device", e.name,
		"merged", res.Merged,
		"ignored", res.Ignored,
		"rejected", res.Rejected,
		"options", opts.Map())
	e.render()
	return res
}

// merge writes the overlapping prefix of cols/vals. Caller holds e.mu.
func (e *Engine) merge(cols, vals []any) MergeResult {
	n := min(len(cols), len(vals))
	res := MergeResult{Truncated: len(cols) != len(vals)}
	if res.Truncated {
		e.logger.Warn("packet length mismatch",
			"device", e.name, "columns", len(cols), "values", len(vals))
	}

	for i := 0; i < n; i++ {
		name, _ := cols[i].(string) //nolint:errcheck // non-string columns fail ParseField below
		f, ok := ParseField(name)
		if !ok {
			res.Ignored++
			e.logger.Debug("ignoring unknown column", "device", e.name, "column", cols[i])
			continue
		}

		v, verdict := Sanitize(f, vals[i])
		if verdict == VerdictRejected {
			res.Rejected++
			e.logger.Warn("non-numeric value replaced with 0",
				"device", e.name, "field", f.String(), "value", vals[i])
		}
		e.opts.Set(f, v)
		res.Merged++
	}
	return res
}

// reproject recomputes derived state from the option store. Caller holds e.mu.
func (e *Engine) reproject() {
	p, fallbacks, err := Project(e.opts)
	if err != nil {
		e.logger.Error("state projection failed, using safe defaults", "device", e.name, "error", err)
	}
	for _, fb := range fallbacks {
		e.logger.Warn("option value out of range, using default",
			"device", e.name, "field", fb.Field.String(), "value", fb.Value)
	}
	e.projection = p
}

// Issue translates intent into a command packet and hands it to the
// transport. sent is false when the intent was suppressed because the unit is
// off or no temperature was given. The option store is not touched; the
// unit's acknowledgement updates it.
func (e *Engine) Issue(intent Intent) (sent bool, err error) {
	e.mu.Lock()
	delta, ok, err := BuildCommand(e.opts, intent)
	e.mu.Unlock()

	if err != nil {
		return false, err
	}
	if !ok {
		e.logger.Debug("command suppressed", "device", e.name, "action", intent.Action.String())
		return false, nil
	}

	pkt := NewCommandPacket(e.mac, delta)
	e.logger.Info("sending command",
		"device", e.name, "action", intent.Action.String(), "opt", pkt.Options, "p", pkt.Values)
	if err := e.transport.Send(pkt); err != nil {
		return false, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return true, nil
}

// RequestStatus asks the unit for a full status snapshot.
func (e *Engine) RequestStatus() error {
	if err := e.transport.Send(NewStatusRequest(e.mac)); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return nil
}

// OnSensorReading stores an external temperature reading as the current
// temperature. Readings that are not finite numbers are ignored. It reports
// whether the reading was accepted.
func (e *Engine) OnSensorReading(raw string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		e.logger.Debug("ignoring non-numeric sensor reading", "device", e.name, "value", raw)
		return false
	}

	e.mu.Lock()
	e.currentTemp = ConvertTemperature(v, e.sensorUnit, e.unit)
	e.mu.Unlock()

	e.render()
	return true
}

// MarkAvailable records that the unit is reachable. Used by the host when a
// payload arrives that cannot be routed to an ingestor.
func (e *Engine) MarkAvailable() {
	e.mu.Lock()
	changed := !e.available
	e.available = true
	e.lastSeen = e.now()
	e.mu.Unlock()

	if changed {
		e.render()
	}
}

// MarkUnavailable is reserved for the host's connectivity watchdog. Packet
// processing never calls it.
func (e *Engine) MarkUnavailable() {
	e.mu.Lock()
	changed := e.available
	e.available = false
	e.mu.Unlock()

	if changed {
		e.logger.Warn("device marked unavailable", "device", e.name, "mac", e.mac)
		e.render()
	}
}

// LastSeen returns when the last status packet arrived, or the zero time.
func (e *Engine) LastSeen() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSeen
}

// Options returns a copy of the raw option store.
func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// Snapshot returns a consistent copy of the semantic state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	opts := e.opts
	proj := e.projection
	available := e.available
	current := e.currentTemp
	lastSeen := e.lastSeen
	e.mu.Unlock()

	return Snapshot{
		UniqueID:              e.UniqueID(),
		Name:                  e.name,
		MAC:                   e.mac,
		Available:             available,
		TargetTemperature:     proj.TargetTemperature,
		CurrentTemperature:    current,
		HVACMode:              proj.HVACMode,
		FanMode:               proj.FanMode,
		PresetMode:            ProjectPreset(opts),
		Unit:                  e.unit,
		TargetTemperatureStep: e.step,
		MinTemperature:        MinTemperature,
		MaxTemperature:        MaxTemperature,
		HVACModes:             HVACModes(),
		FanModes:              FanModes(),
		PresetModes:           PresetModes(),
		SupportedFeatures: []string{
			FeatureTargetTemperature, FeatureFanMode, FeaturePresetMode, FeatureTurnOn, FeatureTurnOff,
		},
		Options:  opts,
		LastSeen: lastSeen,
	}
}

func (e *Engine) render() {
	if e.onRender != nil {
		e.onRender()
	}
}
