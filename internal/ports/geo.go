package ports

import (
	"context"
	"errors"
	"logistics-dashboard-service/internal/domain"
)

// ErrNoGeocodeResult means the address could not be resolved.
var ErrNoGeocodeResult = errors.New("no geocode result")

// Contract for resolving a free-text address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}

// Road-network path between two points.
// Fallback marks an approximate result the caller must not present as a road path.
type RoadPath struct {
	Coordinates [][2]float64
	DistanceKm  float64
	DurationMin float64
	Fallback    bool
}

// Contract for requesting a road-network path between two coordinates.
type RoadRouter interface {
	Route(ctx context.Context, from, to domain.Coordinates) (RoadPath, error)
}
