package database

import "errors"

// ErrNoPath is returned by Open when no database path is configured.
var ErrNoPath = errors.New("database: path is required")

// ErrSchemaAhead is returned by Migrate when the database holds a
// migration this binary does not ship, usually after a downgrade.
var ErrSchemaAhead = errors.New("database: schema is newer than this build")
