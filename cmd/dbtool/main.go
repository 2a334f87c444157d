package main

import (
	"context"
	"database/sql"
	"log"
	"logistics-dashboard-service/internal/adapters/repositories"
	"logistics-dashboard-service/internal/config"
	"logistics-dashboard-service/internal/platform/db"
	"logistics-dashboard-service/internal/store"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"
)

// dbtool prepares the schema and loads the demo network into empty collections.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var (
		conn    *sql.DB
		dialect db.Dialect
	)
	if cfg.DatabaseURL != "" {
		conn, err = db.Open(cfg.DatabaseURL)
		dialect = db.Postgres
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			log.Fatalf("create data dir: %v", err)
		}
		conn, err = db.OpenSQLite(cfg.DBPath)
		dialect = db.SQLite
	}
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := initAndSeed(context.Background(), conn, dialect, cfg.SeedPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect db.Dialect, seedPath string) error {
	log.Printf("Initializing database schema... db=%s", dialect)
	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	data, err := store.LoadSeedFile(seedPath)
	if err != nil {
		return err
	}

	log.Println("Seeding database...")
	st := store.New(repositories.NewSQLCollectionStore(conn, dialect), nil)
	counts, err := st.Seed(ctx, data)
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Printf(
		"Seeding complete. products=%d warehouses=%d enterprises=%d vehicles=%d",
		counts.Products, counts.Warehouses, counts.Enterprises, counts.Vehicles,
	)

	return nil
}
