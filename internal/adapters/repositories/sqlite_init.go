package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"logistics-dashboard-service/internal/platform/db"
)

// Initialize the schema for the collection store and the geo caches.
func InitSchema(ctx context.Context, conn *sql.DB, dialect db.Dialect) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// REAL is single precision in Postgres; coordinates need double.
	floatType := "REAL"
	if dialect == db.Postgres {
		floatType = "DOUBLE PRECISION"
	}

	createCollectionsQuery := `
	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		payload TEXT NOT NULL
	);
	`

	createGeocodeCacheQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lat %[1]s NOT NULL,
		lng %[1]s NOT NULL
	);
	`, floatType)

	createRouteCacheQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS route_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		distance_km %[1]s NOT NULL,
		duration_min %[1]s NOT NULL,
		path TEXT NOT NULL,
		PRIMARY KEY (origin, destination)
	);
	`, floatType)

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_route_cache_destination_origin
	ON route_cache(destination, origin);
	`

	statements := []string{
		createCollectionsQuery,
		createGeocodeCacheQuery,
		createRouteCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
