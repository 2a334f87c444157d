package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration read from the environment.
// A .env file, when present, is loaded by the composition root before Load.
type Config struct {
	Port        string
	DBPath      string
	DatabaseURL string
	RedisURL    string
	SeedPath    string

	OptimizerURL     string
	OptimizerTimeout time.Duration

	ORSAPIKey      string
	ORSBaseURL     string
	GeocodeCountry string
	GeocodeRPS     float64
	GeocodeTimeout time.Duration

	OSRMBaseURL    string
	RoutingTimeout time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		Port:           Get("PORT", "8080"),
		DBPath:         Get("DB_PATH", "data/app.db"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:       strings.TrimSpace(os.Getenv("REDIS_URL")),
		SeedPath:       Get("SEED_PATH", "data/seeds/dashboard.yaml"),
		OptimizerURL:   strings.TrimSpace(os.Getenv("OPTIMIZER_URL")),
		ORSAPIKey:      strings.TrimSpace(os.Getenv("ORS_API_KEY")),
		ORSBaseURL:     Get("ORS_BASE_URL", "https://api.openrouteservice.org"),
		GeocodeCountry: Get("GEOCODE_COUNTRY", "RU"),
		OSRMBaseURL:    Get("OSRM_BASE_URL", "https://router.project-osrm.org"),
	}

	var err error
	if cfg.OptimizerTimeout, err = duration("OPTIMIZER_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RoutingTimeout, err = duration("ROUTING_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.GeocodeTimeout, err = duration("GEOCODE_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}

	cfg.GeocodeRPS = 1
	if v := os.Getenv("GEOCODE_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps <= 0 {
			return Config{}, fmt.Errorf("load config: GEOCODE_RPS must be a positive number, got %q", v)
		}
		cfg.GeocodeRPS = rps
	}

	return cfg, nil
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("load config: %s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
