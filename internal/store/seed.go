package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"logistics-dashboard-service/internal/domain"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedData is the demo network loaded by the db tool.
// Records pass through the same JSON decoding as stored data, so legacy
// shapes are accepted in seed files too.
type SeedData struct {
	Products    []domain.Product    `json:"products"`
	Warehouses  []domain.Warehouse  `json:"warehouses"`
	Enterprises []domain.Enterprise `json:"enterprises"`
	Vehicles    []domain.Vehicle    `json:"vehicles"`
}

// SeedCounts reports how many records each collection received.
type SeedCounts struct {
	Products, Warehouses, Enterprises, Vehicles int
}

func LoadSeedFile(path string) (SeedData, error) {
	f, err := os.Open(path)
	if err != nil {
		return SeedData{}, fmt.Errorf("load seed: open %q: %w", path, err)
	}
	defer f.Close()

	data, err := DecodeSeed(f)
	if err != nil {
		return SeedData{}, fmt.Errorf("load seed %q: %w", path, err)
	}
	return data, nil
}

// DecodeSeed reads a YAML document and converts it through JSON.
func DecodeSeed(r io.Reader) (SeedData, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return SeedData{}, nil
		}
		return SeedData{}, fmt.Errorf("decode yaml: %w", err)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return SeedData{}, fmt.Errorf("convert yaml: %w", err)
	}

	var data SeedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return SeedData{}, fmt.Errorf("decode seed records: %w", err)
	}
	return data, nil
}

// Seed fills each empty collection from data. Collections that already hold
// records are left alone.
func (s *Store) Seed(ctx context.Context, data SeedData) (SeedCounts, error) {
	var (
		counts SeedCounts
		err    error
	)
	if counts.Products, err = s.Products().Seed(ctx, data.Products); err != nil {
		return counts, err
	}
	if counts.Warehouses, err = s.Warehouses().Seed(ctx, data.Warehouses); err != nil {
		return counts, err
	}
	if counts.Enterprises, err = s.Enterprises().Seed(ctx, data.Enterprises); err != nil {
		return counts, err
	}
	if counts.Vehicles, err = s.Vehicles().Seed(ctx, data.Vehicles); err != nil {
		return counts, err
	}
	return counts, nil
}
