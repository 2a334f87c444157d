package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"logistics-dashboard-service/internal/adapters/cache"
	"logistics-dashboard-service/internal/domain"
	"logistics-dashboard-service/internal/platform/obs"
	"logistics-dashboard-service/internal/ports"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var errNoRoute = errors.New("no route")

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// OSRMRouter implements ports.RoadRouter against an OSRM route service.
// Successful paths are cached by rounded endpoint coordinates.
type OSRMRouter struct {
	client  *httpClient
	baseURL string
	cache   *cache.SQLRouteCache
}

func NewOSRMRouter(baseURL string, timeout time.Duration, routeCache *cache.SQLRouteCache) *OSRMRouter {
	if baseURL == "" {
		baseURL = "https://router.project-osrm.org"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &OSRMRouter{
		client:  newHTTPClient(timeout, 2, nil),
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   routeCache,
	}
}

// Route returns the driving path between two points as [lat, lng] pairs,
// distance in km (one decimal) and duration in whole minutes.
// An OK response with an empty geometry is reported as a fallback.
func (o *OSRMRouter) Route(ctx context.Context, from, to domain.Coordinates) (_ ports.RoadPath, err error) {
	defer obs.Time(ctx, "osrm.Route")(&err)

	if !from.Valid() || !to.Valid() {
		return ports.RoadPath{}, errors.New("osrm route: invalid endpoint coordinates")
	}

	if o.cache != nil {
		p, ok, err := o.cache.Get(ctx, from, to)
		if err != nil {
			log.Printf("osrm route: cache lookup failed, querying service: %v", err)
		} else if ok {
			return p, nil
		}
	}

	endpoint := fmt.Sprintf("%s/route/v1/driving/%s,%s;%s,%s?overview=full&geometries=geojson",
		o.baseURL,
		formatCoord(from.Lng), formatCoord(from.Lat),
		formatCoord(to.Lng), formatCoord(to.Lat),
	)

	resp, err := o.client.doWithRetry(ctx, func() (*http.Request, error) {
		return o.client.newRequest(ctx, http.MethodGet, endpoint)
	})
	if err != nil {
		return ports.RoadPath{}, fmt.Errorf("osrm route: execute request: %w", err)
	}
	defer resp.Body.Close()

	var decoded osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.RoadPath{}, fmt.Errorf("osrm route: decode response: %w", err)
	}

	if decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		return ports.RoadPath{}, fmt.Errorf("osrm route: code=%q: %w", decoded.Code, errNoRoute)
	}

	route := decoded.Routes[0]
	path := ports.RoadPath{
		Coordinates: make([][2]float64, 0, len(route.Geometry.Coordinates)),
		DistanceKm:  math.Round(route.Distance/100) / 10,
		DurationMin: math.Round(route.Duration / 60),
	}
	for _, c := range route.Geometry.Coordinates {
		if len(c) < 2 {
			continue
		}
		// GeoJSON is [lng, lat]; overlays are [lat, lng].
		path.Coordinates = append(path.Coordinates, [2]float64{c[1], c[0]})
	}
	path.Fallback = len(path.Coordinates) < 2

	if o.cache != nil && !path.Fallback {
		if err := o.cache.Put(ctx, from, to, path); err != nil {
			log.Printf("osrm route: cache store failed: %v", err)
		}
	}

	return path, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
