package services

import (
	"context"
	"errors"
	"logistics-dashboard-service/internal/domain"
	"logistics-dashboard-service/internal/ports"
	"logistics-dashboard-service/internal/store"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildMarkers(t *testing.T) {
	geo := &fakeGeocoder{results: map[string]domain.Coordinates{
		"Казань": {Lat: 55.796, Lng: 49.106},
	}}

	snap := store.Snapshot{
		Warehouses: []domain.Warehouse{
			{ID: 1, Name: "Склад А", Location: "Москва", Lat: ptr(55.75), Lng: ptr(37.61),
				Products: []domain.ProductSeries{series("Бензин АИ-95", january, 100)}},
			{ID: 2, Name: "Склад Б", Location: "Нигде"},
		},
		Enterprises: []domain.Enterprise{
			{ID: 3, Name: "Завод В", Location: "Казань",
				Consumed: []domain.ProductSeries{series("Нефть", january, 280)},
				Storage: []domain.StorageEntry{
					{Product: "Нефть", Type: domain.StorageRaw, MonthlyData: []domain.MonthlyVolume{{Month: january, Volume: 50}}},
				}},
		},
	}

	view, err := NewMapBuilder(geo, nil).Build(context.Background(), snap)
	require.NoError(t, err)

	require.Len(t, view.Markers, 2, "unresolved address is omitted")
	require.Equal(t, "warehouse-1", view.Markers[0].ID)
	require.Equal(t, 55.75, view.Markers[0].Lat)
	require.Equal(t, []domain.ProductVolume{{Product: "Бензин АИ-95", Volume: 100}}, view.Markers[0].Volumes)

	ent := view.Markers[1]
	require.Equal(t, "enterprise-3", ent.ID)
	require.Equal(t, MarkerEnterprise, ent.Type)
	require.Equal(t, 49.106, ent.Lng)
	require.NotNil(t, ent.Storage)
	require.Len(t, ent.Storage.Raw, 1)
	require.Empty(t, ent.Storage.Finished)

	require.ElementsMatch(t, []string{"Нигде", "Казань"}, geo.asked, "stored coordinates are never geocoded")
}

func TestBuildOverlaysSolidAndDashed(t *testing.T) {
	a := domain.Coordinates{Lat: 55.75, Lng: 37.61}
	b := domain.Coordinates{Lat: 59.93, Lng: 30.33}
	c := domain.Coordinates{Lat: 54.19, Lng: 37.61}

	router := &fakeRouter{route: func(_ context.Context, from, to domain.Coordinates) (ports.RoadPath, error) {
		switch to {
		case b:
			return ports.RoadPath{Coordinates: [][2]float64{from.LatLng(), {57, 34}, to.LatLng()}, DistanceKm: 705.3, DurationMin: 512}, nil
		case c:
			return ports.RoadPath{Coordinates: [][2]float64{{1, 1}, {2, 2}}, DistanceKm: 999, Fallback: true}, nil
		}
		return ports.RoadPath{}, errors.New("osrm: NoRoute")
	}}

	routes := []domain.Route{
		domain.Route{From: "A", To: "B", Product: "P", Volume: 10, Distance: 700}.WithEndpoints(a, b),
		domain.Route{From: "A", To: "C", Product: "P", Volume: 5, Distance: 190}.WithEndpoints(a, c),
		{From: "A", To: "?", Product: "P", Volume: 1, Distance: 1},
		domain.Route{From: "C", To: "A", Product: "P", Volume: 2, Distance: 191}.WithEndpoints(c, a),
	}

	view, err := NewMapBuilder(nil, router).Build(context.Background(), store.Snapshot{Routes: routes})
	require.NoError(t, err)
	require.Len(t, view.Overlays, 3, "route without endpoints is skipped")

	solid := view.Overlays[0]
	require.Equal(t, OverlaySolid, solid.Style)
	require.Equal(t, 705.3, solid.DistanceKm)
	require.NotNil(t, solid.DurationMin)
	require.Equal(t, float64(512), *solid.DurationMin)
	require.Len(t, solid.Path, 3)

	for _, ov := range view.Overlays[1:] {
		require.Equal(t, OverlayDashed, ov.Style)
		require.Nil(t, ov.DurationMin)
		require.Len(t, ov.Path, 2)
	}
	// Fallback: straight line between stored endpoints with the stored distance.
	require.Equal(t, [][2]float64{a.LatLng(), c.LatLng()}, view.Overlays[1].Path)
	require.Equal(t, float64(190), view.Overlays[1].DistanceKm)
	// Error: same degradation, route order preserved.
	require.Equal(t, "C", view.Overlays[2].From)
	require.Equal(t, [][2]float64{c.LatLng(), a.LatLng()}, view.Overlays[2].Path)
}

func TestBuildOverlaysBoundedConcurrency(t *testing.T) {
	var inFlight, peak int32
	router := &fakeRouter{route: func(_ context.Context, from, to domain.Coordinates) (ports.RoadPath, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return ports.RoadPath{Coordinates: [][2]float64{from.LatLng(), to.LatLng()}, DistanceKm: 1, DurationMin: 1}, nil
	}}

	routes := make([]domain.Route, 0, 20)
	for i := 0; i < 20; i++ {
		from := domain.Coordinates{Lat: 50 + float64(i)/100, Lng: 30}
		routes = append(routes, domain.Route{From: "A", To: "B", Product: "P", Volume: float64(i)}.WithEndpoints(from, domain.Coordinates{Lat: 51, Lng: 31}))
	}

	view, err := NewMapBuilder(nil, router).Build(context.Background(), store.Snapshot{Routes: routes})
	require.NoError(t, err)
	require.Len(t, view.Overlays, 20)
	for i, ov := range view.Overlays {
		require.Equal(t, float64(i), ov.Volume)
	}
	require.LessOrEqual(t, atomic.LoadInt32(&peak), int32(lookupConcurrency))
}

func TestBuildWithoutCollaborators(t *testing.T) {
	snap := store.Snapshot{
		Warehouses: []domain.Warehouse{{ID: 1, Name: "А", Location: "Москва"}},
		Routes: []domain.Route{
			domain.Route{From: "A", To: "B", Product: "P", Distance: 5}.WithEndpoints(
				domain.Coordinates{Lat: 1, Lng: 1}, domain.Coordinates{Lat: 2, Lng: 2}),
		},
	}

	view, err := NewMapBuilder(nil, nil).Build(context.Background(), snap)
	require.NoError(t, err)
	require.Empty(t, view.Markers)
	require.Len(t, view.Overlays, 1)
	require.Equal(t, OverlayDashed, view.Overlays[0].Style)
}
