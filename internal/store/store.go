package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"logistics-dashboard-service/internal/domain"
	"logistics-dashboard-service/internal/platform/metrics"
	"logistics-dashboard-service/internal/ports"
	"sync"
	"time"
)

var ErrNotFound = errors.New("record not found")

// Entity is a record kept in a typed collection.
type Entity[T any] interface {
	EntityID() int
	WithID(id int) T
	DisplayName() string
}

// Store is the single write path for every persisted collection.
//
// Each mutation reads the whole collection, applies the change, writes the
// whole collection back and then publishes one ChangeEvent. Mutations are
// serialized within the process; across processes the last write wins.
type Store struct {
	kv     ports.CollectionStore
	broker ports.ChangeBroker
	now    func() time.Time

	mu sync.Mutex
}

func New(kv ports.CollectionStore, broker ports.ChangeBroker) *Store {
	return &Store{kv: kv, broker: broker, now: time.Now}
}

func (s *Store) Products() *Collection[domain.Product] {
	return &Collection[domain.Product]{s: s, name: ports.CollectionProducts}
}

func (s *Store) Warehouses() *Collection[domain.Warehouse] {
	return &Collection[domain.Warehouse]{s: s, name: ports.CollectionWarehouses}
}

func (s *Store) Enterprises() *Collection[domain.Enterprise] {
	return &Collection[domain.Enterprise]{s: s, name: ports.CollectionEnterprises}
}

func (s *Store) Vehicles() *Collection[domain.Vehicle] {
	return &Collection[domain.Vehicle]{s: s, name: ports.CollectionVehicles}
}

func (s *Store) Routes() *Routes {
	return &Routes{s: s}
}

// Snapshot is a point-in-time read of every collection.
type Snapshot struct {
	Products    []domain.Product
	Warehouses  []domain.Warehouse
	Enterprises []domain.Enterprise
	Vehicles    []domain.Vehicle
	Routes      []domain.Route
}

func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Products, err = s.Products().List(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Warehouses, err = s.Warehouses().List(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Enterprises, err = s.Enterprises().List(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Vehicles, err = s.Vehicles().List(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Routes, err = s.Routes().List(ctx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func load[T any](ctx context.Context, s *Store, collection string) ([]T, error) {
	payload, err := s.kv.Get(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}

	out := []T{}
	if len(payload) == 0 {
		return out, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("load %s: decode payload: %w", collection, err)
	}

	// A record that cannot be coerced is skipped so the rest of the
	// collection stays usable.
	for i, rec := range records {
		var v T
		if err := json.Unmarshal(rec, &v); err != nil {
			log.Printf("load %s: skip record #%d: %v", collection, i+1, err)
			metrics.SkippedRecords.WithLabelValues(collection).Inc()
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// save writes the collection and announces it. Callers hold s.mu.
func save[T any](ctx context.Context, s *Store, collection string, items []T) error {
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("save %s: encode payload: %w", collection, err)
	}
	if err := s.kv.Set(ctx, collection, payload); err != nil {
		return fmt.Errorf("save %s: %w", collection, err)
	}

	metrics.StoreWrites.WithLabelValues(collection).Inc()
	if s.broker != nil {
		s.broker.Publish(ctx, ports.ChangeEvent{Collection: collection, Count: len(items), At: s.now().UTC()})
	}
	return nil
}
