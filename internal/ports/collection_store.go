package ports

import "context"

// Persisted collection keys.
const (
	CollectionWarehouses  = "warehouses"
	CollectionEnterprises = "enterprises"
	CollectionVehicles    = "vehicles"
	CollectionProducts    = "products"
	CollectionRoutes      = "optimizedRoutes"
)

// Port: a key-value store holding one JSON-encoded array per collection key.
type CollectionStore interface {
	// Return the stored payload, or nil when the key has never been written.
	Get(ctx context.Context, collection string) ([]byte, error)
	// Replace the whole payload for a key.
	Set(ctx context.Context, collection string, payload []byte) error
}
