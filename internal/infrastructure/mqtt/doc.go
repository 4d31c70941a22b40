// Package mqtt provides MQTT client connectivity for the Gree climate service.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions restored after reconnects
//   - A retained service status with a Last Will for crash detection
//
// # Architecture
//
// The broker is the only path to the air conditioners. A gateway relays
// raw Gree packets between the LAN and the bus; the Gree bridge consumes
// them and publishes state for the rest of Gray Logic.
//
//	A/C units ↔ Gree gateway ↔ MQTT Broker ↔ Gree bridge ↔ Gray Logic
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{}
//	err = client.Subscribe(topics.AllGatewayIn("gree"), 1, handler)
//	err = client.PublishJSON(topics.BridgeState("gree", "living-room"), state, true)
//
// TLS should be enabled outside development (mqtt.broker.tls: true).
package mqtt
