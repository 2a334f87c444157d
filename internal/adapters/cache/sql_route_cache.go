package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"logistics-dashboard-service/internal/domain"
	"logistics-dashboard-service/internal/platform/db"
	"logistics-dashboard-service/internal/platform/obs"
	"logistics-dashboard-service/internal/ports"
	"strconv"
)

// SQLRouteCache is a SQL-backed cache for origin->destination road paths.
// Only real road paths are cached; fallback results are never stored.
type SQLRouteCache struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLRouteCache(conn *sql.DB, dialect db.Dialect) *SQLRouteCache {
	return &SQLRouteCache{DB: conn, Dialect: dialect}
}

// CoordKey renders a point as a stable cache key (~1m precision).
func CoordKey(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', 5, 64) + "," + strconv.FormatFloat(c.Lng, 'f', 5, 64)
}

// Get returns the cached path between two points.
func (s *SQLRouteCache) Get(
	ctx context.Context,
	from, to domain.Coordinates,
) (_ ports.RoadPath, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if s.DB == nil {
		return ports.RoadPath{}, false, errors.New("route cache: db is nil")
	}

	q := s.Dialect.Rebind(`
	SELECT distance_km, duration_min, path
	FROM route_cache
	WHERE origin = ?
		AND destination = ?;
	`)

	var (
		p       ports.RoadPath
		rawPath string
	)
	err = s.DB.QueryRowContext(ctx, q, CoordKey(from), CoordKey(to)).Scan(&p.DistanceKm, &p.DurationMin, &rawPath)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.RoadPath{}, false, nil
	}
	if err != nil {
		return ports.RoadPath{}, false, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	if err := json.Unmarshal([]byte(rawPath), &p.Coordinates); err != nil {
		return ports.RoadPath{}, false, fmt.Errorf("get route cache: decode path: %w", err)
	}

	return p, true, nil
}

// Put stores a road path between two points.
func (s *SQLRouteCache) Put(ctx context.Context, from, to domain.Coordinates, p ports.RoadPath) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}
	if p.Fallback || len(p.Coordinates) == 0 {
		return nil
	}

	rawPath, err := json.Marshal(p.Coordinates)
	if err != nil {
		return fmt.Errorf("insert route cache: encode path: %w", err)
	}

	q := s.Dialect.Rebind(`
	INSERT INTO route_cache (origin, destination, distance_km, duration_min, path)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_km = EXCLUDED.distance_km,
		duration_min = EXCLUDED.duration_min,
		path = EXCLUDED.path;
	`)

	if _, err := s.DB.ExecContext(ctx, q, CoordKey(from), CoordKey(to), p.DistanceKm, p.DurationMin, string(rawPath)); err != nil {
		return fmt.Errorf("insert route cache origin=%q destination=%q: %w", CoordKey(from), CoordKey(to), err)
	}

	return nil
}
