// Package gree implements the Gree air conditioner bridge for Gray Logic.
//
// Units are not reached directly. A packet gateway owns the LAN side (UDP
// discovery, encryption, the device key) and relays each unit's plaintext
// JSON packets over MQTT. The bridge keeps one climate engine per unit and
// translates between those packets and Gray Logic bus messages.
//
// # Architecture
//
//	┌─────────────────┐          ┌─────────────────┐          ┌──────────┐
//	│   Gray Logic    │   MQTT   │   Gree Bridge   │   MQTT   │  Packet  │   UDP
//	│      Core       │◄────────►│   (this pkg)    │◄────────►│  Gateway │◄──────► Units
//	└─────────────────┘          └─────────────────┘          └──────────┘
//
// # Topics
//
//	graylogic/gateway/gree/{mac}/in    packets from a unit (subscribed)
//	graylogic/gateway/gree/{mac}/out   packets to a unit (published)
//	graylogic/command/gree/{device_id} commands from Core (subscribed)
//	graylogic/ack/gree/{device_id}     command acknowledgements
//	graylogic/state/gree/{device_id}   retained semantic state
//	graylogic/health/gree              retained bridge health
//
// State is only published when it differs from the last publication.
// Every published state is also handed to the optional registry, history
// and telemetry sinks and to registered listeners.
//
// # Thread Safety
//
// All exported types are safe for concurrent use from multiple goroutines.
package gree
