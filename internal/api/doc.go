// Package api implements the HTTP REST API and WebSocket server of the Gree
// climate service.
//
// This package provides:
//   - REST endpoints for live unit state, commands, status syncs and history
//   - WebSocket hub broadcasting climate.state_changed events
//   - Bearer token authentication with role checks
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// Commands are executed directly on the bridge, which acknowledges them
// synchronously: the response carries the same AckMessage the bridge
// publishes on the bus. State changes flow from the bridge's state listener
// to WebSocket clients.
//
// # Security
//
// Every route except /api/v1/health requires a bearer token minted with
// the token command. Commands and syncs need the operator or admin role.
// WebSocket connections use single-use tickets to keep tokens out of URLs.
//
// # Graceful Degradation
//
// The server runs without a bridge: device reads fall back to the last
// state stored in the registry and commands return 503.
package api
