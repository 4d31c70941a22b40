// Package climate keeps the raw option state of a Gree air conditioner in
// sync with its semantic climate state.
//
// A unit reports its state as parallel arrays of column names and integer
// values. The engine merges those reports into a fixed option record, projects
// the record into semantic state (target temperature, HVAC mode, fan mode,
// preset) and turns semantic intents back into option deltas.
//
// # Architecture
//
//	  gateway packets              sensor readings
//	        │                             │
//	        ▼                             ▼
//	┌───────────────┐             ┌───────────────┐
//	│  IngestStatus │             │OnSensorReading│
//	│  IngestAck    │             └───────┬───────┘
//	└───────┬───────┘                     │
//	        ▼                             │
//	   Sanitize ──▶ Options ──▶ Project ──┴──▶ render
//	                   │
//	                   ▼
//	  Intent ──▶ BuildCommand ──▶ Transport.Send
//
// # Key Types
//
//   - Options: one integer per protocol column, the single source of truth
//   - Projection: semantic state derived from Options
//   - Intent: a caller's requested change
//   - Engine: ties the above together for one unit
//
// # Thread Safety
//
// Engine methods are safe for concurrent use. The option store is only
// written by the ingestors; issuing a command never updates it, the unit's
// acknowledgement does.
package climate
