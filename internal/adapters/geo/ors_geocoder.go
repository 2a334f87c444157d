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
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORSGeocoder implements ports.Geocoder using OpenRouteService (/geocode/search).
//
// Lookups go through the persistent geocode cache first; misses are
// throttled to the configured request rate. Safe for concurrent use.
type ORSGeocoder struct {
	client  *httpClient
	baseURL string
	country string
	limiter *rate.Limiter
	cache   *cache.SQLGeocodeCache
}

type ORSGeocoderConfig struct {
	APIKey  string
	BaseURL string
	Country string
	RPS     float64
	Timeout time.Duration
}

func NewORSGeocoder(cfg ORSGeocoderConfig, geocodeCache *cache.SQLGeocodeCache) (*ORSGeocoder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openrouteservice.org"
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &ORSGeocoder{
		client:  newHTTPClient(cfg.Timeout, 4, map[string]string{"Authorization": cfg.APIKey}),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		country: cfg.Country,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), 1),
		cache:   geocodeCache,
	}, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Geocode resolves one address to coordinates.
// Returns ports.ErrNoGeocodeResult when the service has no match.
func (g *ORSGeocoder) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	norm := normalize(address)
	if norm == "" {
		return domain.Coordinates{}, ports.ErrNoGeocodeResult
	}

	if g.cache != nil {
		hits, err := g.cache.GetMany(ctx, []string{norm})
		if err != nil {
			log.Printf("ors geocode: cache lookup failed, querying service: %v", err)
		} else if c, ok := hits[norm]; ok {
			return c, nil
		}
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: wait for rate limit: %w", norm, err)
	}

	endpoint := g.baseURL + "/geocode/search"
	resp, err := g.client.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := g.client.newRequest(ctx, http.MethodGet, endpoint)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		if g.country != "" {
			q.Set("boundary.country", g.country)
		}
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: execute request: %w", norm, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: decode response: %w", norm, err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", norm, ports.ErrNoGeocodeResult)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: invalid coordinate format", norm)
	}

	c := domain.Coordinates{Lat: coords[1], Lng: coords[0]}
	if !c.Valid() {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", norm, ports.ErrNoGeocodeResult)
	}

	if g.cache != nil {
		if err := g.cache.PutMany(ctx, map[string]domain.Coordinates{norm: c}); err != nil {
			log.Printf("ors geocode: cache store failed address=%q: %v", norm, err)
		}
	}

	return c, nil
}
