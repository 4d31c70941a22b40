//go:build integration

package mqtt

import (
	"sync/atomic"
	"testing"
	"time"
)

// These tests require a running MQTT broker at 127.0.0.1:1883.
//
//	go test -tags=integration -count=1 -v ./internal/infrastructure/mqtt/...

func TestIntegration_ConnectAndClose(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "graylogic-gree-int-connect"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
}

func TestIntegration_GatewayRoundtrip(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "graylogic-gree-int-roundtrip"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topics := Topics{}
	received := make(chan string, 1)
	err = client.Subscribe(topics.AllGatewayIn("gree"), 1, func(topic string, payload []byte) error {
		device, ok := topics.GatewayDevice("gree", topic)
		if ok {
			received <- device + ":" + string(payload)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !client.HasSubscription(topics.AllGatewayIn("gree")) {
		t.Error("subscription not tracked")
	}

	packet := `{"t":"dat","cols":["Pow"],"dat":[1]}`
	if err := client.PublishString(topics.GatewayIn("gree", "f4911e3a5b6c"), packet, 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if got != "f4911e3a5b6c:"+packet {
			t.Errorf("received %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for gateway packet")
	}

	if err := client.Unsubscribe(topics.AllGatewayIn("gree")); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
}

func TestIntegration_OnConnectCallback(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "graylogic-gree-int-callback"

	var calls atomic.Int32
	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()
	client.SetOnConnect(func() { calls.Add(1) })

	// The initial connect fired before the callback was set; a manual
	// handleConnect simulates a reconnect.
	client.handleConnect()
	if calls.Load() != 1 {
		t.Errorf("onConnect calls = %d, want 1", calls.Load())
	}
}
