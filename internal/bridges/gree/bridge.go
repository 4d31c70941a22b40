package gree

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-gree/internal/climate"
)

// Bridge operation constants.
const (
	// minTopicParts is the minimum number of parts in a command topic.
	minTopicParts = 3

	// topicDeviceIndex is the position of the device id in a command topic.
	topicDeviceIndex = 3

	// unknownDeviceTopic is used for acks of commands with no device id.
	unknownDeviceTopic = "_unknown"
)

// Bridge connects Gree units, reached through a packet gateway on MQTT, to
// the Gray Logic bus. It handles:
//   - Gateway packets: status and ack ingestion into one engine per unit
//   - Commands from Core, translated into outbound packets
//   - Retained state publication, persistence and telemetry on change
//   - Periodic status polls, the availability watchdog and health reporting
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	cfg       *Config
	mqtt      MQTTClient
	health    *HealthReporter
	registry  DeviceRegistry
	history   StateHistory
	telemetry Telemetry
	outbox    *outbox

	// Units are fixed after NewBridge and read without locking.
	units map[string]*unit
	byMAC map[string]*unit
	order []string

	listeners   []StateListener
	listenersMu sync.RWMutex

	// State cache for change detection
	stateCache   map[string]map[string]any
	stateCacheMu sync.Mutex

	subscriptions   []string
	subscriptionsMu sync.Mutex

	packetsReceived  atomic.Uint64
	packetsMalformed atomic.Uint64
	commandsHandled  atomic.Uint64
	errorsTotal      atomic.Uint64

	startedAt atomic.Int64

	// Shutdown coordination
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc

	logger   Logger
	loggerMu sync.RWMutex
}

// unit pairs a configured device with its engine.
type unit struct {
	cfg    DeviceConfig
	engine *climate.Engine

	// renderMu orders renders of this unit so publications leave in the
	// same order as the snapshots they carry.
	renderMu sync.Mutex
}

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// MQTTClient is the interface for MQTT operations.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// DeviceRegistry persists device records and their last state.
// Optional: if nil, the bridge operates without persistence.
type DeviceRegistry interface {
	// CreateDeviceIfNotExists seeds a record from bridge config.
	// No-op if the device already exists.
	CreateDeviceIfNotExists(ctx context.Context, seed DeviceSeed) error

	// SetDeviceState stores the latest published state.
	SetDeviceState(ctx context.Context, id string, state map[string]any) error

	// SetDeviceAvailability stores reachability and when the unit was last heard.
	SetDeviceAvailability(ctx context.Context, id string, available bool, lastSeen time.Time) error
}

// StateHistory records every published state. Optional.
type StateHistory interface {
	RecordState(ctx context.Context, deviceID string, state map[string]any) error
}

// Telemetry receives every published state for time-series storage. Optional.
type Telemetry interface {
	WriteClimateState(deviceID string, snap climate.Snapshot)
}

// StateListener is called after a changed state was published.
type StateListener func(deviceID string, snap climate.Snapshot)

// DeviceSeed holds device fields derivable from bridge config.
type DeviceSeed struct {
	ID         string
	Name       string
	MAC        string
	UniqueID   string
	Host       string
	Port       int
	TempSensor string
}

// DeviceView is a unit's snapshot keyed by its Gray Logic id.
type DeviceView struct {
	ID string `json:"id"`
	climate.Snapshot
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	// Config is the loaded bridge configuration.
	Config *Config

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Version is reported in health messages.
	Version string

	// Logger is optional structured logger.
	Logger Logger

	// Registry, History and Telemetry are optional sinks for published state.
	Registry  DeviceRegistry
	History   StateHistory
	Telemetry Telemetry
}

// NewBridge creates a bridge and one engine per configured unit.
// Call Start to begin operation.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}

	ctx, ctxCancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	b := &Bridge{
		cfg:        opts.Config,
		mqtt:       opts.MQTTClient,
		registry:   opts.Registry,
		history:    opts.History,
		telemetry:  opts.Telemetry,
		outbox:     newOutbox(opts.Config.Bridge.OutboxSize, done),
		units:      make(map[string]*unit, len(opts.Config.Devices)),
		byMAC:      make(map[string]*unit, len(opts.Config.Devices)),
		stateCache: make(map[string]map[string]any),
		done:       done,
		ctx:        ctx,
		ctxCancel:  ctxCancel,
		logger:     opts.Logger,
	}

	for _, dev := range opts.Config.Devices {
		if err := b.addUnit(dev, opts.Logger); err != nil {
			ctxCancel()
			return nil, fmt.Errorf("device %s: %w", dev.ID, err)
		}
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		BridgeID:  opts.Config.Bridge.ID,
		Version:   opts.Version,
		Interval:  opts.Config.GetHealthInterval(),
		Publisher: opts.MQTTClient,
		Stats:     b.healthStats,
	})
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}

	return b, nil
}

func (b *Bridge) addUnit(dev DeviceConfig, logger Logger) error {
	unitOfMeasure := b.cfg.Unit()
	sensorUnit := unitOfMeasure
	if dev.SensorUnit != "" {
		parsed, err := climate.ParseUnit(dev.SensorUnit)
		if err != nil {
			return err
		}
		sensorUnit = parsed
	}

	var engineLogger climate.Logger
	if logger != nil {
		engineLogger = logger
	}

	id := dev.ID
	engine, err := climate.NewEngine(climate.EngineConfig{
		Name:            dev.Name,
		MAC:             dev.MAC,
		Transport:       b.outbox,
		Unit:            unitOfMeasure,
		SensorUnit:      sensorUnit,
		TemperatureStep: dev.TempStep,
		OnRender:        func() { b.onRender(id) },
		Logger:          engineLogger,
	})
	if err != nil {
		return err
	}

	u := &unit{cfg: dev, engine: engine}
	b.units[dev.ID] = u
	b.byMAC[dev.MAC] = u
	b.order = append(b.order, dev.ID)
	return nil
}

// Start begins bridge operation.
// This seeds the registry, subscribes to gateway, command and sensor
// topics, and starts the outbox, poller and health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	b.startedAt.Store(time.Now().UnixNano())

	b.seedRegistry(ctx)

	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.outbox.run(b.publishPacket, func(err error) {
			b.errorsTotal.Add(1)
			b.logError("gateway publish failed", err)
		})
	}()

	if err := b.subscribe(GatewayInSubscribeTopic(), b.handleGatewayMessage); err != nil {
		return fmt.Errorf("subscribe to gateway: %w", err)
	}
	if err := b.subscribe(CommandSubscribeTopic(), b.handleMQTTMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}

	for _, id := range b.order {
		u := b.units[id]
		if u.cfg.TempSensor == "" {
			continue
		}
		if err := b.subscribe(u.cfg.TempSensor, b.sensorHandler(u)); err != nil {
			// The unit keeps working on its own temperature.
			b.logError("failed to subscribe to temperature sensor", err)
		}
	}

	// Publish the initial state of every unit.
	for _, id := range b.order {
		b.onRender(id)
	}

	b.health.Start(ctx)

	b.wg.Add(1)
	go b.pollLoop(ctx)

	b.logInfo("bridge started",
		"bridge_id", b.cfg.Bridge.ID,
		"devices", len(b.order))

	return nil
}

// Stop gracefully shuts down the bridge. Safe to call more than once.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.ctxCancel()

		b.subscriptionsMu.Lock()
		subs := b.subscriptions
		b.subscriptions = nil
		b.subscriptionsMu.Unlock()
		for _, topic := range subs {
			if err := b.mqtt.Unsubscribe(topic); err != nil {
				b.logDebug("unsubscribe failed", "topic", topic, "error", err)
			}
		}

		b.health.Stop()
		b.wg.Wait()

		b.logInfo("bridge stopped")
	})
}

func (b *Bridge) subscribe(topic string, handler func(topic string, payload []byte)) error {
	if err := b.mqtt.Subscribe(topic, 1, handler); err != nil {
		return err
	}
	b.subscriptionsMu.Lock()
	b.subscriptions = append(b.subscriptions, topic)
	b.subscriptionsMu.Unlock()
	b.logInfo("subscribed", "topic", topic)
	return nil
}

// seedRegistry creates a registry record for every configured unit.
func (b *Bridge) seedRegistry(ctx context.Context) {
	if b.registry == nil {
		return
	}
	for _, id := range b.order {
		u := b.units[id]
		seed := DeviceSeed{
			ID:         u.cfg.ID,
			Name:       u.cfg.Name,
			MAC:        u.cfg.MAC,
			UniqueID:   u.engine.UniqueID(),
			Host:       u.cfg.Host,
			Port:       u.cfg.Port,
			TempSensor: u.cfg.TempSensor,
		}
		if err := b.registry.CreateDeviceIfNotExists(ctx, seed); err != nil {
			b.logError("failed to seed device", err)
		}
	}
}

func (b *Bridge) publishPacket(topic string, payload []byte) error {
	return b.mqtt.Publish(topic, payload, 1, false)
}

// handleGatewayMessage routes a gateway packet to the addressed unit's engine.
func (b *Bridge) handleGatewayMessage(topic string, payload []byte) {
	mac, ok := topics.GatewayDevice(Protocol, topic)
	if !ok {
		b.logDebug("ignoring non-gateway topic", "topic", topic)
		return
	}
	u, ok := b.byMAC[NormaliseMAC(mac)]
	if !ok {
		b.logDebug("packet for unconfigured unit", "mac", mac)
		return
	}

	b.packetsReceived.Add(1)

	pkt, err := climate.DecodePacket(payload)
	if err != nil {
		b.packetsMalformed.Add(1)
		b.logWarn("undecodable gateway packet", "device_id", u.cfg.ID, "error", err)
		return
	}
	if pkt == nil {
		return
	}

	var res climate.MergeResult
	switch {
	case pkt.IsStatus():
		res = u.engine.IngestStatus(pkt)
	case pkt.IsAck():
		res = u.engine.IngestAck(pkt)
	default:
		// Any other reply still proves the unit is reachable.
		u.engine.MarkAvailable()
		return
	}
	if res.Malformed {
		b.packetsMalformed.Add(1)
	}
}

// handleMQTTMessage routes bus messages to the appropriate handler.
func (b *Bridge) handleMQTTMessage(topic string, payload []byte) {
	parts := strings.Split(topic, "/")
	if len(parts) < minTopicParts {
		b.logError("invalid topic format", fmt.Errorf("topic: %s", topic))
		return
	}

	switch parts[1] {
	case "command":
		topicDevice := ""
		if len(parts) > topicDeviceIndex {
			topicDevice = parts[topicDeviceIndex]
		}
		b.handleCommand(payload, topicDevice)
	default:
		b.logError("unknown message type", fmt.Errorf("type: %s", parts[1]))
	}
}

// handleCommand processes a command message from Core.
func (b *Bridge) handleCommand(payload []byte, topicDevice string) {
	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.errorsTotal.Add(1)
		b.logError("failed to parse command", err)
		return
	}
	if cmd.DeviceID == "" {
		cmd.DeviceID = topicDevice
	}

	b.Execute(cmd)
}

// Execute runs a command against its unit, publishes the acknowledgement
// and returns it. Commands without an id are given one.
func (b *Bridge) Execute(cmd CommandMessage) AckMessage {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	if cmd.Timestamp.IsZero() {
		cmd.Timestamp = time.Now().UTC()
	}
	b.commandsHandled.Add(1)

	b.logInfo("received command",
		"command_id", cmd.ID,
		"device_id", cmd.DeviceID,
		"command", cmd.Command,
		"source", cmd.Source)

	ack := b.execute(cmd)
	b.publishAck(ack)
	return ack
}

func (b *Bridge) execute(cmd CommandMessage) AckMessage {
	select {
	case <-b.done:
		return NewAckError(cmd, "", ErrCodeBridgeError, ErrStopped.Error())
	default:
	}

	u, ok := b.units[cmd.DeviceID]
	if !ok {
		return NewAckError(cmd, "", ErrCodeNotConfigured,
			fmt.Sprintf("device %s not configured", cmd.DeviceID))
	}
	mac := u.cfg.MAC

	if cmd.Command == CommandSync {
		if err := u.engine.RequestStatus(); err != nil {
			return NewAckError(cmd, mac, sendErrorCode(err), err.Error())
		}
		return NewAckMessage(cmd, AckAccepted, mac)
	}

	intent, err := IntentFromCommand(cmd)
	if err != nil {
		code := ErrCodeInvalidParameters
		if errors.Is(err, ErrUnknownCommand) {
			code = ErrCodeInvalidCommand
		}
		return NewAckError(cmd, mac, code, err.Error())
	}

	sent, err := u.engine.Issue(intent)
	switch {
	case errors.Is(err, climate.ErrInvalidArgument):
		return NewAckError(cmd, mac, ErrCodeInvalidParameters, err.Error())
	case err != nil:
		return NewAckError(cmd, mac, sendErrorCode(err), err.Error())
	case !sent:
		ack := NewAckMessage(cmd, AckIgnored, mac)
		ack.Reason = "device is off"
		return ack
	}

	return NewAckMessage(cmd, AckAccepted, mac)
}

// sendErrorCode maps a transport failure to an ack error code.
func sendErrorCode(err error) string {
	if errors.Is(err, ErrStopped) || errors.Is(err, ErrOutboxFull) {
		return ErrCodeBridgeError
	}
	return ErrCodeDeviceUnreachable
}

// publishAck publishes a command acknowledgement.
func (b *Bridge) publishAck(ack AckMessage) {
	if ack.Error != nil {
		b.errorsTotal.Add(1)
		b.logWarn("command failed",
			"command_id", ack.CommandID,
			"device_id", ack.DeviceID,
			"code", ack.Error.Code,
			"message", ack.Error.Message)
	}

	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("failed to marshal ack", err)
		return
	}

	deviceID := ack.DeviceID
	if deviceID == "" {
		deviceID = unknownDeviceTopic
	}
	if err := b.mqtt.Publish(AckTopic(deviceID), payload, 1, false); err != nil {
		b.logError("failed to publish ack", err)
	}
}

// sensorHandler forwards temperature sensor readings to a unit's engine.
func (b *Bridge) sensorHandler(u *unit) func(topic string, payload []byte) {
	return func(_ string, payload []byte) {
		if !u.engine.OnSensorReading(sensorReading(payload)) {
			b.logDebug("ignored sensor reading", "device_id", u.cfg.ID, "payload", string(payload))
		}
	}
}

// sensorReading extracts the reading from a sensor payload: either a bare
// value or a JSON object with a "temperature" or "value" key.
func sensorReading(payload []byte) string {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return string(trimmed)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return string(trimmed)
	}
	for _, key := range []string{"temperature", "value"} {
		switch v := obj[key].(type) {
		case json.Number:
			return v.String()
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// onRender publishes a unit's state when it differs from the last publication.
func (b *Bridge) onRender(deviceID string) {
	u, ok := b.units[deviceID]
	if !ok {
		return
	}
	u.renderMu.Lock()
	defer u.renderMu.Unlock()

	snap := u.engine.Snapshot()
	state := snap.StateMap()

	changed, availabilityChanged := b.updateStateCache(deviceID, state)
	if !changed {
		return
	}

	msg := NewStateMessage(deviceID, snap)
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("failed to marshal state", err)
		return
	}
	if err := b.mqtt.Publish(StateTopic(deviceID), payload, 1, true); err != nil {
		b.errorsTotal.Add(1)
		b.logError("failed to publish state", err)
	}

	if b.registry != nil {
		if err := b.registry.SetDeviceState(b.ctx, deviceID, state); err != nil {
			b.logError("failed to persist state", err)
		}
		if availabilityChanged {
			if err := b.registry.SetDeviceAvailability(b.ctx, deviceID, snap.Available, snap.LastSeen); err != nil {
				b.logError("failed to persist availability", err)
			}
		}
	}
	if b.history != nil {
		if err := b.history.RecordState(b.ctx, deviceID, state); err != nil {
			b.logError("failed to record state history", err)
		}
	}
	if b.telemetry != nil {
		b.telemetry.WriteClimateState(deviceID, snap)
	}

	b.listenersMu.RLock()
	listeners := b.listeners
	b.listenersMu.RUnlock()
	for _, l := range listeners {
		l(deviceID, snap)
	}
}

// updateStateCache stores state and reports whether it differs from the
// cached state, and whether availability changed with it.
func (b *Bridge) updateStateCache(deviceID string, state map[string]any) (changed, availabilityChanged bool) {
	b.stateCacheMu.Lock()
	defer b.stateCacheMu.Unlock()

	prev, ok := b.stateCache[deviceID]
	if ok && statesEqual(prev, state) {
		return false, false
	}
	b.stateCache[deviceID] = state
	return true, !ok || prev["available"] != state["available"]
}

// statesEqual compares state maps of comparable scalar values.
func statesEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || av != bv {
			return false
		}
	}
	return true
}

// AddStateListener registers fn to be called after every published state change.
func (b *Bridge) AddStateListener(fn StateListener) {
	if fn == nil {
		return
	}
	b.listenersMu.Lock()
	b.listeners = append(b.listeners, fn)
	b.listenersMu.Unlock()
}

// Devices returns every unit's view in configuration order.
func (b *Bridge) Devices() []DeviceView {
	views := make([]DeviceView, 0, len(b.order))
	for _, id := range b.order {
		views = append(views, DeviceView{ID: id, Snapshot: b.units[id].engine.Snapshot()})
	}
	return views
}

// Device returns one unit's view.
func (b *Bridge) Device(id string) (DeviceView, error) {
	u, ok := b.units[id]
	if !ok {
		return DeviceView{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return DeviceView{ID: id, Snapshot: u.engine.Snapshot()}, nil
}

// RequestStatus polls one unit immediately.
func (b *Bridge) RequestStatus(id string) error {
	u, ok := b.units[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return u.engine.RequestStatus()
}

// BridgeMetrics contains metrics data for the API health endpoint.
type BridgeMetrics struct {
	Connected        bool   `json:"connected"`
	DevicesManaged   int    `json:"devices_managed"`
	DevicesAvailable int    `json:"devices_available"`
	PacketsReceived  uint64 `json:"packets_received"`
	PacketsSent      uint64 `json:"packets_sent"`
	PacketsMalformed uint64 `json:"packets_malformed"`
	CommandsHandled  uint64 `json:"commands_handled"`
	Errors           uint64 `json:"errors"`
}

// GetMetrics returns current bridge metrics.
func (b *Bridge) GetMetrics() BridgeMetrics {
	stats, managed, available := b.healthStats()
	return BridgeMetrics{
		Connected:        b.mqtt.IsConnected(),
		DevicesManaged:   managed,
		DevicesAvailable: available,
		PacketsReceived:  stats.PacketsReceived,
		PacketsSent:      stats.PacketsSent,
		PacketsMalformed: stats.PacketsMalformed,
		CommandsHandled:  stats.CommandsHandled,
		Errors:           stats.Errors,
	}
}

func (b *Bridge) healthStats() (stats BridgeStatistics, managed, available int) {
	for _, u := range b.units {
		if u.engine.Snapshot().Available {
			available++
		}
	}
	return BridgeStatistics{
		PacketsReceived:  b.packetsReceived.Load(),
		PacketsSent:      b.outbox.sent.Load(),
		PacketsMalformed: b.packetsMalformed.Load(),
		CommandsHandled:  b.commandsHandled.Load(),
		Errors:           b.errorsTotal.Load() + b.outbox.fails.Load(),
	}, len(b.units), available
}

// SetLogger replaces the bridge logger. Engines keep the logger they were
// created with.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
	b.health.SetLogger(logger)
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

// logInfo logs an info message if logger is set.
func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning if logger is set.
func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (b *Bridge) logError(msg string, err error) {
	if logger := b.getLogger(); logger != nil {
		logger.Error(msg, "error", err)
	}
}

// logDebug logs a debug message if logger is set.
func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}
