// Package database provides SQLite storage for the Gree climate service.
//
// This package manages:
//   - Database connection with WAL mode for concurrent reads
//   - Embedded schema migrations with up and down files
//   - A single-writer connection pool
//
// The store holds the device registry and the rendered state history.
// All queries use parameterised statements and the file is created 0600.
//
// Usage:
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are forward-only files named YYYYMMDD_HHMMSS_description.sql.
// New columns must be NULLABLE or carry a DEFAULT.
package database
