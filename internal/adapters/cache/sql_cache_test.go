package cache

import (
	"context"
	"database/sql"
	"logistics-dashboard-service/internal/adapters/repositories"
	"logistics-dashboard-service/internal/domain"
	"logistics-dashboard-service/internal/platform/db"
	"logistics-dashboard-service/internal/ports"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := repositories.InitSchema(context.Background(), conn, db.SQLite); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return conn
}

func TestGeocodeCachePutThenGet(t *testing.T) {
	ctx := context.Background()
	c := NewSQLGeocodeCache(openTestDB(t), db.SQLite)

	err := c.PutMany(ctx, map[string]domain.Coordinates{
		"Москва, Тверская 1": {Lat: 55.757, Lng: 37.614},
		"Казань":             {Lat: 55.796, Lng: 49.106},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := c.GetMany(ctx, []string{"Казань", " Казань ", "Тула", ""})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1: %+v", len(got), got)
	}
	if got["Казань"].Lng != 49.106 {
		t.Fatalf("Казань = %+v", got["Казань"])
	}
}

func TestGeocodeCacheRejectsEmptyKey(t *testing.T) {
	c := NewSQLGeocodeCache(openTestDB(t), db.SQLite)

	err := c.PutMany(context.Background(), map[string]domain.Coordinates{" ": {Lat: 1, Lng: 1}})
	if err == nil {
		t.Fatalf("expected error for empty address")
	}
}

func TestRouteCacheStoresRoadPathsOnly(t *testing.T) {
	ctx := context.Background()
	c := NewSQLRouteCache(openTestDB(t), db.SQLite)

	from := domain.Coordinates{Lat: 55.75, Lng: 37.61}
	to := domain.Coordinates{Lat: 59.93, Lng: 30.33}

	if err := c.Put(ctx, from, to, ports.RoadPath{Fallback: true, Coordinates: [][2]float64{{1, 2}}}); err != nil {
		t.Fatalf("put fallback: %v", err)
	}
	if _, ok, err := c.Get(ctx, from, to); err != nil || ok {
		t.Fatalf("fallback cached: ok=%v err=%v", ok, err)
	}

	want := ports.RoadPath{
		Coordinates: [][2]float64{{55.75, 37.61}, {57.0, 34.0}, {59.93, 30.33}},
		DistanceKm:  705.3,
		DurationMin: 512,
	}
	if err := c.Put(ctx, from, to, want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := c.Get(ctx, from, to)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.DistanceKm != want.DistanceKm || len(got.Coordinates) != 3 || got.Coordinates[1] != want.Coordinates[1] {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	// Direction matters.
	if _, ok, _ := c.Get(ctx, to, from); ok {
		t.Fatalf("reverse direction unexpectedly cached")
	}
}
