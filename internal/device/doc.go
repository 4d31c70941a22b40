// Package device stores the configured Gree units and their climate state.
//
// The bridge seeds one record per configured unit on start, then writes
// every state it publishes. The REST API reads from the same records, so
// the last known state of each unit survives restarts.
//
// # Architecture
//
//	┌──────────────────┐    ┌──────────────────┐    ┌──────────────────┐
//	│     Registry     │    │    Repository    │    │ StateHistory     │
//	│   (registry.go)  │───▶│  (repository.go) │    │ (state_history_  │
//	│                  │    │                  │    │   sqlite.go)     │
//	│ • In-memory cache│    │ • devices table  │    │ • state_history  │
//	│ • Thread safety  │    │ • JSON state     │    │ • limit / prune  │
//	└──────────────────┘    └──────────────────┘    └──────────────────┘
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db.DB)
//	registry := device.NewRegistry(repo)
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//
//	history := device.NewSQLiteStateHistoryRepository(db.DB)
//	entries, err := history.GetHistory(ctx, "ac-living", 20)
//
// Returned devices are deep copies; callers may modify them freely.
package device
