package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "graylogic-gree-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// mockLogger implements Logger for testing.
type mockLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
	infos  []string
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	l.infos = append(l.infos, msg)
	l.mu.Unlock()
}

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"BridgeState", topics.BridgeState("gree", "living-room"), "graylogic/state/gree/living-room"},
		{"BridgeCommand", topics.BridgeCommand("gree", "living-room"), "graylogic/command/gree/living-room"},
		{"BridgeAck", topics.BridgeAck("gree", "living-room"), "graylogic/ack/gree/living-room"},
		{"BridgeHealth", topics.BridgeHealth("gree"), "graylogic/health/gree"},
		{"BridgeCommands", topics.BridgeCommands("gree"), "graylogic/command/gree/#"},
		{"GatewayIn", topics.GatewayIn("gree", "f4911e3a5b6c"), "graylogic/gateway/gree/f4911e3a5b6c/in"},
		{"GatewayOut", topics.GatewayOut("gree", "f4911e3a5b6c"), "graylogic/gateway/gree/f4911e3a5b6c/out"},
		{"AllGatewayIn", topics.AllGatewayIn("gree"), "graylogic/gateway/gree/+/in"},
		{"ServiceStatus", topics.ServiceStatus("graylogic-gree"), "graylogic/system/status/graylogic-gree"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

func TestGatewayDevice(t *testing.T) {
	tests := []struct {
		topic  string
		device string
		ok     bool
	}{
		{"graylogic/gateway/gree/f4911e3a5b6c/in", "f4911e3a5b6c", true},
		{"graylogic/gateway/gree/f4911e3a5b6c/out", "f4911e3a5b6c", true},
		{"graylogic/gateway/gree//in", "", false},
		{"graylogic/gateway/gree/f4911e3a5b6c", "", false},
		{"graylogic/gateway/knx/1.1.1/in", "", false},
		{"graylogic/state/gree/living-room", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			device, ok := Topics{}.GatewayDevice("gree", tt.topic)
			if device != tt.device || ok != tt.ok {
				t.Errorf("GatewayDevice(%q) = (%q, %v), want (%q, %v)", tt.topic, device, ok, tt.device, tt.ok)
			}
		})
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "gree", Password: "secret"}

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.ClientID != "graylogic-gree-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "gree" || opts.Password != "secret" {
		t.Error("credentials not applied")
	}
	if !opts.AutoReconnect || !opts.ConnectRetry {
		t.Error("reconnect not enabled")
	}
	if opts.MaxReconnectInterval != 5*time.Second {
		t.Errorf("MaxReconnectInterval = %v", opts.MaxReconnectInterval)
	}
	if !opts.Order {
		t.Error("expected ordered delivery")
	}
	if opts.TLSConfig != nil && opts.TLSConfig.MinVersion != 0 {
		t.Error("TLS configured without broker.tls")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if opts.Servers[0].String() != "ssl://127.0.0.1:8883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("expected TLS 1.2 minimum")
	}
	if opts.Username != "" {
		t.Error("anonymous config should not set a username")
	}
}

func TestConfigureLWT(t *testing.T) {
	c := newClient(testConfig())

	if !c.options.WillEnabled {
		t.Fatal("expected will to be enabled")
	}
	if c.options.WillTopic != "graylogic/system/status/graylogic-gree-test" {
		t.Errorf("WillTopic = %q", c.options.WillTopic)
	}
	if !c.options.WillRetained {
		t.Error("will must be retained")
	}

	var status statusPayload
	if err := json.Unmarshal(c.options.WillPayload, &status); err != nil {
		t.Fatalf("will payload: %v", err)
	}
	if status.Status != statusOffline || status.Reason != reasonUnexpected {
		t.Errorf("will = %+v", status)
	}
}

func TestWithWill(t *testing.T) {
	c := newClient(testConfig(), WithWill("graylogic/health/gree", []byte(`{"status":"offline"}`)))

	if c.options.WillTopic != "graylogic/health/gree" {
		t.Errorf("WillTopic = %q", c.options.WillTopic)
	}
	if string(c.options.WillPayload) != `{"status":"offline"}` {
		t.Errorf("WillPayload = %s", c.options.WillPayload)
	}
	if !c.options.WillRetained || c.options.WillQos != 1 {
		t.Errorf("will retained/qos = %v/%d, want true/1", c.options.WillRetained, c.options.WillQos)
	}
}

func TestBuildStatusPayload(t *testing.T) {
	var status statusPayload
	if err := json.Unmarshal([]byte(buildStatusPayload("svc", statusOnline, "")), &status); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if status.Status != statusOnline || status.ClientID != "svc" {
		t.Errorf("status = %+v", status)
	}
	if status.Reason != "" {
		t.Errorf("reason = %q, want empty", status.Reason)
	}
	if _, err := time.Parse(time.RFC3339, status.Timestamp); err != nil {
		t.Errorf("timestamp %q: %v", status.Timestamp, err)
	}
}

func TestUnconnectedClient(t *testing.T) {
	c := newClient(testConfig())

	if c.IsConnected() {
		t.Fatal("new client reports connected")
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}
	if err := c.Publish("graylogic/test", []byte("x"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() = %v, want ErrNotConnected", err)
	}
	if err := c.PublishJSON("graylogic/test", map[string]int{"a": 1}, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishJSON() = %v, want ErrNotConnected", err)
	}
	noop := func(string, []byte) error { return nil }
	if err := c.Subscribe("graylogic/test", 1, noop); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() = %v, want ErrNotConnected", err)
	}
	if err := c.Unsubscribe("graylogic/test"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() = %v, want ErrNotConnected", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Error("failed subscribe must not be tracked")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on undialled client = %v", err)
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	c := newClient(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() = %v, want context.Canceled", err)
	}
}

func TestValidation(t *testing.T) {
	c := newClient(testConfig())
	noop := func(string, []byte) error { return nil }

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"publish empty topic", c.Publish("", []byte("x"), 1, false), ErrInvalidTopic},
		{"publish bad qos", c.Publish("t", []byte("x"), 3, false), ErrInvalidQoS},
		{"publish oversized", c.Publish("t", make([]byte, maxPayloadSize+1), 1, false), ErrPublishFailed},
		{"publish json unmarshalable", c.PublishJSON("t", make(chan int), false), ErrPublishFailed},
		{"subscribe empty topic", c.Subscribe("", 1, noop), ErrInvalidTopic},
		{"subscribe bad qos", c.Subscribe("t", 3, noop), ErrInvalidQoS},
		{"subscribe nil handler", c.Subscribe("t", 1, nil), ErrSubscribeFailed},
		{"unsubscribe empty topic", c.Unsubscribe(""), ErrInvalidTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("error = %v, want %v", tt.err, tt.want)
			}
		})
	}
}

func TestSubscriptionTracking(t *testing.T) {
	c := newClient(testConfig())
	noop := func(string, []byte) error { return nil }

	c.track("graylogic/gateway/gree/+/in", 1, noop)
	c.track("graylogic/command/gree/#", 1, noop)
	c.track("graylogic/command/gree/#", 0, noop)

	if c.SubscriptionCount() != 2 {
		t.Errorf("SubscriptionCount() = %d, want 2", c.SubscriptionCount())
	}
	if !c.HasSubscription("graylogic/command/gree/#") {
		t.Error("expected command subscription")
	}
	if c.HasSubscription("graylogic/command/gree/living-room") {
		t.Error("wildcards must not be expanded")
	}

	c.untrack("graylogic/command/gree/#")
	if c.HasSubscription("graylogic/command/gree/#") || c.SubscriptionCount() != 1 {
		t.Error("untrack did not remove subscription")
	}
}

func TestDispatch(t *testing.T) {
	c := newClient(testConfig())
	logger := &mockLogger{}
	c.SetLogger(logger)

	var received string
	c.dispatch(func(topic string, payload []byte) error {
		received = topic + "=" + string(payload)
		return nil
	}, "a/b", []byte("1"))
	if received != "a/b=1" {
		t.Errorf("received = %q", received)
	}

	c.dispatch(func(string, []byte) error { return errors.New("bad packet") }, "a/b", nil)
	c.dispatch(func(string, []byte) error { panic("boom") }, "a/b", nil)

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.warns) != 1 || !strings.Contains(logger.warns[0], "returned error") {
		t.Errorf("warns = %v", logger.warns)
	}
	if len(logger.errors) != 1 || !strings.Contains(logger.errors[0], "panic") {
		t.Errorf("errors = %v", logger.errors)
	}
}

func TestDispatchWithoutLogger(t *testing.T) {
	c := newClient(testConfig())
	c.dispatch(func(string, []byte) error { panic("boom") }, "a/b", nil)
}

func TestCallbacks(t *testing.T) {
	c := newClient(testConfig())

	var disconnectErr error
	c.SetOnDisconnect(func(err error) { disconnectErr = err })

	lost := errors.New("connection reset")
	c.handleDisconnect(lost)

	if !errors.Is(disconnectErr, lost) {
		t.Errorf("disconnect callback err = %v", disconnectErr)
	}
	if c.IsConnected() {
		t.Error("client connected after disconnect")
	}

	c.SetLogger(nil)
	if c.getLogger() != nil {
		t.Error("getLogger() should be nil after SetLogger(nil)")
	}
}
