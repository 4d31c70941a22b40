package mqtt

import "fmt"

// Topic prefixes of the Gray Logic bus.
//
// Bridge topics use the flat scheme graylogic/{category}/{protocol}/{id}.
// Gateway topics carry raw device packets between a protocol gateway and
// its bridge: graylogic/gateway/{protocol}/{device}/{in|out}.
const (
	TopicPrefixBridge  = "graylogic"
	TopicPrefixGateway = "graylogic/gateway"
	TopicPrefixSystem  = "graylogic/system"
)

// Topics provides builders for Gray Logic MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.BridgeState("gree", "living-room")
//	// Returns: "graylogic/state/gree/living-room"
type Topics struct{}

// BridgeState returns the topic for device state updates from a bridge.
//
// Example: graylogic/state/gree/living-room
func (Topics) BridgeState(protocol, deviceID string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefixBridge, protocol, deviceID)
}

// BridgeCommand returns the topic for commands to a bridge device.
//
// Example: graylogic/command/gree/living-room
func (Topics) BridgeCommand(protocol, deviceID string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefixBridge, protocol, deviceID)
}

// BridgeAck returns the topic for command acknowledgements from a bridge.
//
// Example: graylogic/ack/gree/living-room
func (Topics) BridgeAck(protocol, deviceID string) string {
	return fmt.Sprintf("%s/ack/%s/%s", TopicPrefixBridge, protocol, deviceID)
}

// BridgeHealth returns the topic for bridge health status.
//
// Example: graylogic/health/gree
func (Topics) BridgeHealth(protocol string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefixBridge, protocol)
}

// BridgeCommands returns a pattern matching every command for one protocol.
//
// Pattern: graylogic/command/gree/#
func (Topics) BridgeCommands(protocol string) string {
	return fmt.Sprintf("%s/command/%s/#", TopicPrefixBridge, protocol)
}

// GatewayIn returns the topic a gateway publishes a device's packets on.
//
// Example: graylogic/gateway/gree/f4911e3a5b6c/in
func (Topics) GatewayIn(protocol, device string) string {
	return fmt.Sprintf("%s/%s/%s/in", TopicPrefixGateway, protocol, device)
}

// GatewayOut returns the topic a bridge publishes a device's outbound packets on.
//
// Example: graylogic/gateway/gree/f4911e3a5b6c/out
func (Topics) GatewayOut(protocol, device string) string {
	return fmt.Sprintf("%s/%s/%s/out", TopicPrefixGateway, protocol, device)
}

// AllGatewayIn returns a pattern matching inbound packets of every device.
//
// Pattern: graylogic/gateway/gree/+/in
func (Topics) AllGatewayIn(protocol string) string {
	return fmt.Sprintf("%s/%s/+/in", TopicPrefixGateway, protocol)
}

// ServiceStatus returns the retained online/offline topic of one client.
//
// Example: graylogic/system/status/graylogic-gree
func (Topics) ServiceStatus(clientID string) string {
	return fmt.Sprintf("%s/status/%s", TopicPrefixSystem, clientID)
}

// GatewayDevice extracts the device segment of a gateway topic.
// ok is false if topic is not a gateway topic of protocol.
func (Topics) GatewayDevice(protocol, topic string) (device string, ok bool) {
	prefix := fmt.Sprintf("%s/%s/", TopicPrefixGateway, protocol)
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return "", false
	}
	rest := topic[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			if i == 0 {
				return "", false
			}
			return rest[:i], true
		}
	}
	return "", false
}
