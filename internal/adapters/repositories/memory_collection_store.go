package repositories

import (
	"context"
	"sync"
)

// MemoryCollectionStore keeps collections in process memory. Used by tests;
// the server always persists to SQL.
type MemoryCollectionStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryCollectionStore() *MemoryCollectionStore {
	return &MemoryCollectionStore{items: map[string][]byte{}}
}

func (m *MemoryCollectionStore) Get(ctx context.Context, collection string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.items[collection]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryCollectionStore) Set(ctx context.Context, collection string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[collection] = append([]byte(nil), payload...)
	return nil
}
