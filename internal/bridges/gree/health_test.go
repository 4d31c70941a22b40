package gree

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// mockPublisher implements HealthPublisher for testing.
type mockPublisher struct {
	mu        sync.Mutex
	connected bool
	messages  []publishedMessage
}

type publishedMessage struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

func newMockPublisher(connected bool) *mockPublisher {
	return &mockPublisher{connected: connected}
}

func (m *mockPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, publishedMessage{
		topic:    topic,
		payload:  payload,
		qos:      qos,
		retained: retained,
	})
	return nil
}

func (m *mockPublisher) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockPublisher) getMessages() []publishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]publishedMessage, len(m.messages))
	copy(result, m.messages)
	return result
}

func fixedStats(managed, available int) StatsFunc {
	return func() (BridgeStatistics, int, int) {
		return BridgeStatistics{PacketsReceived: 12, PacketsSent: 4, Errors: 1}, managed, available
	}
}

func decodeHealth(t *testing.T, msg publishedMessage) HealthMessage {
	t.Helper()
	var h HealthMessage
	if err := json.Unmarshal(msg.payload, &h); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	return h
}

func TestNewHealthReporter(t *testing.T) {
	hr := NewHealthReporter(HealthReporterConfig{
		BridgeID:  "test-bridge",
		Version:   "1.0.0",
		Interval:  5 * time.Second,
		Publisher: newMockPublisher(true),
	})

	if hr.bridgeID != "test-bridge" {
		t.Errorf("bridgeID = %q, want test-bridge", hr.bridgeID)
	}
	if hr.interval != 5*time.Second {
		t.Errorf("interval = %v, want 5s", hr.interval)
	}

	if d := NewHealthReporter(HealthReporterConfig{}); d.interval != defaultHealthInterval {
		t.Errorf("default interval = %v, want %v", d.interval, defaultHealthInterval)
	}
}

func TestHealthReporterDetermineStatus(t *testing.T) {
	tests := []struct {
		name       string
		connected  bool
		stats      StatsFunc
		wantStatus HealthStatus
	}{
		{"healthy", true, fixedStats(2, 1), HealthHealthy},
		{"mqtt down", false, fixedStats(2, 2), HealthDegraded},
		{"no units available", true, fixedStats(2, 0), HealthDegraded},
		{"no units configured", true, fixedStats(0, 0), HealthHealthy},
		{"no stats", true, nil, HealthHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hr := NewHealthReporter(HealthReporterConfig{
				BridgeID:  "b",
				Publisher: newMockPublisher(tt.connected),
				Stats:     tt.stats,
			})
			status, reason := hr.determineStatus()
			if status != tt.wantStatus {
				t.Errorf("status = %s, want %s", status, tt.wantStatus)
			}
			if status == HealthDegraded && reason == "" {
				t.Error("degraded status without reason")
			}
		})
	}
}

func TestHealthReporterPublishNow(t *testing.T) {
	pub := newMockPublisher(true)
	hr := NewHealthReporter(HealthReporterConfig{
		BridgeID:  "gree-01",
		Version:   "1.2.3",
		Publisher: pub,
		Stats:     fixedStats(3, 2),
	})

	if err := hr.PublishNow(); err != nil {
		t.Fatalf("PublishNow() error = %v", err)
	}

	msgs := pub.getMessages()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if msgs[0].topic != HealthTopic() || msgs[0].qos != 1 || !msgs[0].retained {
		t.Errorf("message = %s qos=%d retained=%v", msgs[0].topic, msgs[0].qos, msgs[0].retained)
	}

	h := decodeHealth(t, msgs[0])
	if h.Bridge != "gree-01" || h.Version != "1.2.3" || h.Status != HealthHealthy {
		t.Errorf("health = %+v", h)
	}
	if h.DevicesManaged != 3 || h.DevicesAvailable != 2 {
		t.Errorf("devices = %d/%d, want 3/2", h.DevicesManaged, h.DevicesAvailable)
	}
	if h.Statistics == nil || h.Statistics.PacketsReceived != 12 {
		t.Errorf("Statistics = %+v", h.Statistics)
	}
}

func TestHealthReporterStartStop(t *testing.T) {
	pub := newMockPublisher(true)
	hr := NewHealthReporter(HealthReporterConfig{
		BridgeID:  "gree-01",
		Interval:  10 * time.Millisecond,
		Publisher: pub,
	})

	if err := hr.PublishStarting(); err != nil {
		t.Fatalf("PublishStarting() error = %v", err)
	}
	hr.Start(context.Background())

	waitFor(t, "periodic health", func() bool { return len(pub.getMessages()) >= 3 })

	hr.Stop()
	hr.Stop()

	msgs := pub.getMessages()
	if first := decodeHealth(t, msgs[0]); first.Status != HealthStarting {
		t.Errorf("first status = %s, want starting", first.Status)
	}
	if last := decodeHealth(t, msgs[len(msgs)-1]); last.Status != HealthStopping {
		t.Errorf("last status = %s, want stopping", last.Status)
	}
}

func TestHealthReporterContextCancel(t *testing.T) {
	pub := newMockPublisher(true)
	hr := NewHealthReporter(HealthReporterConfig{Interval: time.Hour, Publisher: pub})

	ctx, cancel := context.WithCancel(context.Background())
	hr.Start(ctx)
	cancel()

	finished := make(chan struct{})
	go func() {
		hr.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("report loop did not exit on context cancel")
	}
}

func TestHealthReporterLWT(t *testing.T) {
	hr := NewHealthReporter(HealthReporterConfig{BridgeID: "gree-01"})

	if hr.GetLWTTopic() != HealthTopic() {
		t.Errorf("GetLWTTopic() = %s", hr.GetLWTTopic())
	}
	payload, err := hr.GetLWTPayload()
	if err != nil {
		t.Fatalf("GetLWTPayload() error = %v", err)
	}
	h := decodeHealth(t, publishedMessage{payload: payload})
	if h.Status != HealthOffline || h.Bridge != "gree-01" {
		t.Errorf("LWT = %+v", h)
	}
}

func TestHealthReporterNoPublisher(t *testing.T) {
	hr := NewHealthReporter(HealthReporterConfig{BridgeID: "b"})
	if err := hr.PublishNow(); err != nil {
		t.Errorf("PublishNow() without publisher error = %v", err)
	}
}
