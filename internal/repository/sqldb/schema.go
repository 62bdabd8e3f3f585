package sqldb

import (
	"context"
	"fmt"
)

// Bootstrap DDL shared by SQLite and PostgreSQL. Timestamps are Unix
// nanoseconds so both backends round-trip them exactly.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS parking_spots (
	id              TEXT PRIMARY KEY,
	latitude        DOUBLE PRECISION NOT NULL CHECK (latitude BETWEEN -90 AND 90),
	longitude       DOUBLE PRECISION NOT NULL CHECK (longitude BETWEEN -180 AND 180),
	capacity        INTEGER NOT NULL CHECK (capacity >= 0),
	available_count INTEGER NOT NULL CHECK (available_count >= 0 AND available_count <= capacity),
	lot_type        TEXT NOT NULL DEFAULT 'C',
	address         TEXT NOT NULL DEFAULT '',
	source          TEXT NOT NULL,
	active          BOOLEAN NOT NULL DEFAULT TRUE,
	last_updated_at BIGINT NOT NULL DEFAULT 0
)`

const activeIndexSQL = `CREATE INDEX IF NOT EXISTS idx_parking_spots_active ON parking_spots (active)`

// EnsureSchema creates the catalog table if it is missing. It does not
// migrate existing tables.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{schemaSQL, activeIndexSQL} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
