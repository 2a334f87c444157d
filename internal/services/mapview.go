package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"logistics-dashboard-service/internal/domain"
	"logistics-dashboard-service/internal/platform/metrics"
	"logistics-dashboard-service/internal/ports"
	"logistics-dashboard-service/internal/store"
	"sync"
	"time"
)

// Marker kinds.
const (
	MarkerWarehouse  = "warehouse"
	MarkerEnterprise = "enterprise"
)

// Overlay styles. Dashed marks a straight line drawn because no road path
// was available; its distance is the one stored on the route.
const (
	OverlaySolid  = "solid"
	OverlayDashed = "dashed"
)

const lookupConcurrency = 5

type StorageView struct {
	Raw      []domain.ProductSeries `json:"raw"`
	Finished []domain.ProductSeries `json:"finished"`
}

// Marker is one location pin with the data shown in its info panel.
type Marker struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Type    string  `json:"type"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	// Volumes are the latest month's figures per product: stock for a
	// warehouse, consumption for an enterprise.
	Volumes  []domain.ProductVolume `json:"volumes"`
	Month    string                 `json:"month,omitempty"`
	Consumed []domain.ProductSeries `json:"consumed,omitempty"`
	Produced []domain.ProductSeries `json:"produced,omitempty"`
	Storage  *StorageView           `json:"storage,omitempty"`
}

// Overlay is a drawn route between two markers.
type Overlay struct {
	From        string       `json:"from"`
	To          string       `json:"to"`
	Product     string       `json:"product"`
	Volume      float64      `json:"volume"`
	Vehicle     string       `json:"vehicle,omitempty"`
	Style       string       `json:"style"`
	Path        [][2]float64 `json:"path"`
	DistanceKm  float64      `json:"distanceKm"`
	DurationMin *float64     `json:"durationMin,omitempty"`
}

type MapView struct {
	Generation uint64    `json:"generation"`
	BuiltAt    time.Time `json:"builtAt"`
	Markers    []Marker  `json:"markers"`
	Overlays   []Overlay `json:"overlays"`
}

// MapBuilder turns a store snapshot into markers and route overlays.
// Either collaborator may be nil: without a geocoder only records with stored
// coordinates get markers, without a router every overlay is dashed.
type MapBuilder struct {
	geocoder ports.Geocoder
	router   ports.RoadRouter
}

func NewMapBuilder(geocoder ports.Geocoder, router ports.RoadRouter) *MapBuilder {
	return &MapBuilder{geocoder: geocoder, router: router}
}

type markerInput struct {
	marker Marker
	coords domain.Coordinates
	stored bool
}

// Build renders a complete view. Collaborator failures degrade the view
// (omitted markers, dashed overlays) and never fail the build; only
// cancellation does.
func (b *MapBuilder) Build(ctx context.Context, snap store.Snapshot) (MapView, error) {
	inputs := make([]markerInput, 0, len(snap.Warehouses)+len(snap.Enterprises))

	for _, w := range snap.Warehouses {
		c, ok := w.Coordinates()
		inputs = append(inputs, markerInput{
			marker: Marker{
				ID:      fmt.Sprintf("%s-%d", MarkerWarehouse, w.ID),
				Name:    w.Name,
				Address: w.Location,
				Type:    MarkerWarehouse,
				Volumes: domain.LatestVolumes(w.Products),
				Month:   domain.LatestMonth(w.Products),
			},
			coords: c,
			stored: ok,
		})
	}

	for _, e := range snap.Enterprises {
		c, ok := e.Coordinates()
		raw, finished := e.StorageSeries()
		m := Marker{
			ID:       fmt.Sprintf("%s-%d", MarkerEnterprise, e.ID),
			Name:     e.Name,
			Address:  e.Location,
			Type:     MarkerEnterprise,
			Volumes:  domain.LatestVolumes(e.Consumed),
			Month:    domain.LatestMonth(e.Consumed),
			Consumed: e.Consumed,
			Produced: e.Produced,
		}
		if len(raw) > 0 || len(finished) > 0 {
			m.Storage = &StorageView{Raw: nonNil(raw), Finished: nonNil(finished)}
		}
		inputs = append(inputs, markerInput{marker: m, coords: c, stored: ok})
	}

	markers := b.resolveMarkers(ctx, inputs)
	overlays := b.buildOverlays(ctx, snap.Routes)

	if err := ctx.Err(); err != nil {
		return MapView{}, err
	}

	return MapView{
		BuiltAt:  time.Now().UTC(),
		Markers:  markers,
		Overlays: overlays,
	}, nil
}

func (b *MapBuilder) resolveMarkers(ctx context.Context, inputs []markerInput) []Marker {
	resolved := make([]*Marker, len(inputs))

	sem := make(chan struct{}, lookupConcurrency)
	var wg sync.WaitGroup

	for i, in := range inputs {
		if in.stored {
			m := in.marker
			m.Lat, m.Lng = in.coords.Lat, in.coords.Lng
			resolved[i] = &m
			metrics.GeocodeLookups.WithLabelValues("stored").Inc()
			continue
		}
		if b.geocoder == nil {
			metrics.GeocodeLookups.WithLabelValues("omitted").Inc()
			continue
		}

		wg.Add(1)
		go func(i int, in markerInput) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			c, err := b.geocoder.Geocode(ctx, in.marker.Address)
			if err != nil || !c.Valid() {
				if err != nil && !errors.Is(err, ports.ErrNoGeocodeResult) && ctx.Err() == nil {
					log.Printf("map: geocode marker=%s address=%q: %v", in.marker.ID, in.marker.Address, err)
				}
				metrics.GeocodeLookups.WithLabelValues("omitted").Inc()
				return
			}

			m := in.marker
			m.Lat, m.Lng = c.Lat, c.Lng
			resolved[i] = &m
			metrics.GeocodeLookups.WithLabelValues("resolved").Inc()
		}(i, in)
	}

	wg.Wait()

	out := make([]Marker, 0, len(inputs))
	for _, m := range resolved {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}

func (b *MapBuilder) buildOverlays(ctx context.Context, routes []domain.Route) []Overlay {
	results := make([]*Overlay, len(routes))

	sem := make(chan struct{}, lookupConcurrency)
	var wg sync.WaitGroup

	for i, r := range routes {
		from, to, ok := r.Endpoints()
		if !ok {
			continue
		}

		wg.Add(1)
		go func(i int, r domain.Route) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			ov := b.overlay(ctx, r, from, to)
			metrics.RouteOverlays.WithLabelValues(ov.Style).Inc()
			results[i] = &ov
		}(i, r)
	}

	wg.Wait()

	out := make([]Overlay, 0, len(routes))
	for _, ov := range results {
		if ov != nil {
			out = append(out, *ov)
		}
	}
	return out
}

func (b *MapBuilder) overlay(ctx context.Context, r domain.Route, from, to domain.Coordinates) Overlay {
	ov := Overlay{
		From:    r.From,
		To:      r.To,
		Product: r.Product,
		Volume:  r.Volume,
		Vehicle: r.Vehicle,
	}

	dashed := func() Overlay {
		ov.Style = OverlayDashed
		ov.Path = [][2]float64{from.LatLng(), to.LatLng()}
		ov.DistanceKm = r.Distance
		ov.DurationMin = nil
		return ov
	}

	if b.router == nil {
		return dashed()
	}

	p, err := b.router.Route(ctx, from, to)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("map: road path %q -> %q unavailable, drawing straight line: %v", r.From, r.To, err)
		}
		return dashed()
	}
	if p.Fallback || len(p.Coordinates) < 2 {
		return dashed()
	}

	duration := p.DurationMin
	ov.Style = OverlaySolid
	ov.Path = p.Coordinates
	ov.DistanceKm = p.DistanceKm
	ov.DurationMin = &duration
	return ov
}

func nonNil(s []domain.ProductSeries) []domain.ProductSeries {
	if s == nil {
		return []domain.ProductSeries{}
	}
	return s
}
