package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"logistics-dashboard-service/internal/adapters/broker"
	"logistics-dashboard-service/internal/adapters/cache"
	"logistics-dashboard-service/internal/adapters/geo"
	"logistics-dashboard-service/internal/adapters/optimizer"
	"logistics-dashboard-service/internal/adapters/repositories"
	"logistics-dashboard-service/internal/api"
	"logistics-dashboard-service/internal/api/handlers"
	"logistics-dashboard-service/internal/config"
	"logistics-dashboard-service/internal/platform/db"
	"logistics-dashboard-service/internal/platform/metrics"
	"logistics-dashboard-service/internal/ports"
	"logistics-dashboard-service/internal/services"
	"logistics-dashboard-service/internal/store"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, ORS, OSRM, optimizer) behind ports
// and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	metrics.Register()

	conn, dialect, err := openDB(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		log.Fatal(err)
	}

	checks := map[string]handlers.Pinger{"database": conn}

	var changes ports.ChangeBroker
	if cfg.RedisURL != "" {
		rb, err := broker.NewRedisBroker(cfg.RedisURL)
		if err != nil {
			log.Fatal(err)
		}
		defer rb.Close()
		changes = rb
		checks["redis"] = handlers.PingFunc(rb.Ping)
	} else {
		changes = broker.NewMemoryBroker()
	}

	st := store.New(repositories.NewSQLCollectionStore(conn, dialect), changes)

	var geocoder ports.Geocoder
	if cfg.ORSAPIKey != "" {
		g, err := geo.NewORSGeocoder(geo.ORSGeocoderConfig{
			APIKey:  cfg.ORSAPIKey,
			BaseURL: cfg.ORSBaseURL,
			Country: cfg.GeocodeCountry,
			RPS:     cfg.GeocodeRPS,
			Timeout: cfg.GeocodeTimeout,
		}, cache.NewSQLGeocodeCache(conn, dialect))
		if err != nil {
			log.Fatal(err)
		}
		geocoder = g
	} else {
		log.Println("ORS_API_KEY not set: markers without stored coordinates are omitted")
	}
	router := geo.NewOSRMRouter(cfg.OSRMBaseURL, cfg.RoutingTimeout, cache.NewSQLRouteCache(conn, dialect))

	var client ports.RouteOptimizer
	if cfg.OptimizerURL != "" {
		o, err := optimizer.NewHTTPOptimizer(cfg.OptimizerURL, cfg.OptimizerTimeout)
		if err != nil {
			log.Fatal(err)
		}
		client = o
	} else {
		log.Println("OPTIMIZER_URL not set: optimization requests will fail")
	}

	renderer := services.NewRenderer(st, services.NewMapBuilder(geocoder, router), changes)
	go renderer.Run(ctx)

	handler := api.NewRouter(api.Deps{
		Store:        st,
		Broker:       changes,
		Optimizer:    services.NewOptimizer(st, client),
		Renderer:     renderer,
		HealthChecks: checks,
	})

	// WriteTimeout stays off: the events stream is long-lived and optimization
	// may wait on the optimizer for up to OPTIMIZER_TIMEOUT.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Server listening addr=:%s db=%s", cfg.Port, dialect)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// openDB prefers Postgres when DATABASE_URL is set and falls back to a local
// SQLite file.
func openDB(cfg config.Config) (*sql.DB, db.Dialect, error) {
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		return conn, db.Postgres, err
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, db.SQLite, fmt.Errorf("openDB: create data dir %q: %w", dir, err)
		}
	}
	conn, err := db.OpenSQLite(cfg.DBPath)
	return conn, db.SQLite, err
}
