package services

import (
	"context"
	"logistics-dashboard-service/internal/domain"
	"logistics-dashboard-service/internal/ports"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRendererRebuildsOnChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, b := newTestStore(t)
	r := NewRenderer(st, NewMapBuilder(nil, nil), b)

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		v, err := r.Current(ctx)
		return err == nil && len(v.Markers) == 0
	}, time.Second, 10*time.Millisecond)

	_, err := st.Warehouses().Create(ctx, domain.Warehouse{Name: "Склад А", Location: "Москва", Lat: ptr(55.75), Lng: ptr(37.61)})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		v, err := r.Current(ctx)
		return err == nil && len(v.Markers) == 1 && v.Markers[0].ID == "warehouse-1"
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("renderer did not stop")
	}
}

func TestRendererDropsSupersededRender(t *testing.T) {
	ctx := context.Background()
	st, b := newTestStore(t)

	require.NoError(t, st.Routes().ReplaceAll(ctx, []domain.Route{
		domain.Route{From: "A", To: "B", Product: "P", Distance: 5}.WithEndpoints(
			domain.Coordinates{Lat: 1, Lng: 1}, domain.Coordinates{Lat: 2, Lng: 2}),
	}))

	firstStarted := make(chan struct{})
	firstCanceled := make(chan struct{})
	var calls int
	router := &fakeRouter{route: func(rctx context.Context, from, to domain.Coordinates) (ports.RoadPath, error) {
		calls++
		if calls == 1 {
			close(firstStarted)
			<-rctx.Done()
			close(firstCanceled)
			return ports.RoadPath{}, rctx.Err()
		}
		return ports.RoadPath{Coordinates: [][2]float64{from.LatLng(), to.LatLng()}, DistanceKm: 5, DurationMin: 3}, nil
	}}

	r := NewRenderer(st, NewMapBuilder(nil, router), b)

	r.Invalidate(ctx)
	<-firstStarted
	r.Invalidate(ctx)

	select {
	case <-firstCanceled:
	case <-time.After(time.Second):
		t.Fatal("first render was not canceled")
	}

	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.current != nil
	}, time.Second, 10*time.Millisecond)

	v, err := r.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), v.Generation)
	require.Equal(t, OverlaySolid, v.Overlays[0].Style)
}

func TestAffectsMap(t *testing.T) {
	require.True(t, affectsMap(ports.CollectionRoutes))
	require.True(t, affectsMap(ports.CollectionWarehouses))
	require.False(t, affectsMap(ports.CollectionVehicles))
	require.False(t, affectsMap(ports.CollectionProducts))
}

