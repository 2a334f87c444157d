package services

import (
	"context"
	"logistics-dashboard-service/internal/adapters/broker"
	"logistics-dashboard-service/internal/adapters/repositories"
	"logistics-dashboard-service/internal/domain"
	"logistics-dashboard-service/internal/ports"
	"logistics-dashboard-service/internal/store"
	"sync"
	"sync/atomic"
	"testing"
)

type fakeOptimizer struct {
	calls int32
	last  ports.OptimizationRequest
	resp  ports.OptimizationResponse
	err   error
}

func (f *fakeOptimizer) Optimize(_ context.Context, req ports.OptimizationRequest) (ports.OptimizationResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	f.last = req
	return f.resp, f.err
}

type fakeGeocoder struct {
	mu      sync.Mutex
	results map[string]domain.Coordinates
	asked   []string
}

func (f *fakeGeocoder) Geocode(_ context.Context, address string) (domain.Coordinates, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.asked = append(f.asked, address)
	c, ok := f.results[address]
	if !ok {
		return domain.Coordinates{}, ports.ErrNoGeocodeResult
	}
	return c, nil
}

type fakeRouter struct {
	route func(ctx context.Context, from, to domain.Coordinates) (ports.RoadPath, error)
}

func (f *fakeRouter) Route(ctx context.Context, from, to domain.Coordinates) (ports.RoadPath, error) {
	return f.route(ctx, from, to)
}

func newTestStore(t *testing.T) (*store.Store, *broker.MemoryBroker) {
	t.Helper()

	b := broker.NewMemoryBroker()
	return store.New(repositories.NewMemoryCollectionStore(), b), b
}

func ptr(v float64) *float64 { return &v }

func series(product, month string, volume float64) domain.ProductSeries {
	return domain.ProductSeries{
		Product:     product,
		MonthlyData: []domain.MonthlyVolume{{Month: month, Volume: volume}},
	}
}
