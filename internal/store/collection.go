package store

import (
	"context"
	"fmt"
	"logistics-dashboard-service/internal/domain"
	"logistics-dashboard-service/internal/ports"
)

// Collection is a typed view over one persisted entity collection.
type Collection[T Entity[T]] struct {
	s    *Store
	name string
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	return load[T](ctx, c.s, c.name)
}

func (c *Collection[T]) Get(ctx context.Context, id int) (T, error) {
	var zero T

	items, err := c.List(ctx)
	if err != nil {
		return zero, err
	}
	for _, it := range items {
		if it.EntityID() == id {
			return it, nil
		}
	}
	return zero, fmt.Errorf("get %s id=%d: %w", c.name, id, ErrNotFound)
}

// Create assigns the next free id and appends the record.
func (c *Collection[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	if err := validateRecord(v); err != nil {
		return zero, err
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	items, err := c.List(ctx)
	if err != nil {
		return zero, err
	}
	items = assignIDs(items)

	created := v.WithID(nextID(items))
	items = append(items, created)

	if err := save(ctx, c.s, c.name, items); err != nil {
		return zero, fmt.Errorf("create %s: %w", c.name, err)
	}
	return created, nil
}

// Update replaces the record with the given id in full.
func (c *Collection[T]) Update(ctx context.Context, id int, v T) (T, error) {
	var zero T
	if err := validateRecord(v); err != nil {
		return zero, err
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	items, err := c.List(ctx)
	if err != nil {
		return zero, err
	}

	pos := indexOf(items, id)
	if pos < 0 {
		return zero, fmt.Errorf("update %s id=%d: %w", c.name, id, ErrNotFound)
	}

	updated := v.WithID(id)
	items[pos] = updated
	items = assignIDs(items)

	if err := save(ctx, c.s, c.name, items); err != nil {
		return zero, fmt.Errorf("update %s id=%d: %w", c.name, id, err)
	}
	return updated, nil
}

// Delete removes exactly the record with the given id. References held by
// other records are left as they are.
func (c *Collection[T]) Delete(ctx context.Context, id int) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	items, err := c.List(ctx)
	if err != nil {
		return err
	}

	pos := indexOf(items, id)
	if pos < 0 {
		return fmt.Errorf("delete %s id=%d: %w", c.name, id, ErrNotFound)
	}
	items = append(items[:pos], items[pos+1:]...)
	items = assignIDs(items)

	if err := save(ctx, c.s, c.name, items); err != nil {
		return fmt.Errorf("delete %s id=%d: %w", c.name, id, err)
	}
	return nil
}

// Seed writes items only when the collection is empty. Returns the number written.
func (c *Collection[T]) Seed(ctx context.Context, items []T) (int, error) {
	for i, it := range items {
		if err := validateRecord(it); err != nil {
			return 0, fmt.Errorf("seed %s #%d: %w", c.name, i+1, err)
		}
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	existing, err := c.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 || len(items) == 0 {
		return 0, nil
	}

	items = assignIDs(items)
	if err := save(ctx, c.s, c.name, items); err != nil {
		return 0, fmt.Errorf("seed %s: %w", c.name, err)
	}
	return len(items), nil
}

// Routes holds the optimizer's latest result. Routes are never edited one by
// one; each successful optimization replaces the whole list.
type Routes struct {
	s *Store
}

func (r *Routes) List(ctx context.Context) ([]domain.Route, error) {
	return load[domain.Route](ctx, r.s, ports.CollectionRoutes)
}

// ReplaceAll overwrites the route list with one write and one broadcast.
func (r *Routes) ReplaceAll(ctx context.Context, routes []domain.Route) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := save(ctx, r.s, ports.CollectionRoutes, routes); err != nil {
		return fmt.Errorf("replace routes: %w", err)
	}
	return nil
}

func indexOf[T Entity[T]](items []T, id int) int {
	for i, it := range items {
		if it.EntityID() == id {
			return i
		}
	}
	return -1
}

func nextID[T Entity[T]](items []T) int {
	highest := 0
	for _, it := range items {
		if id := it.EntityID(); id > highest {
			highest = id
		}
	}
	return highest + 1
}

// assignIDs gives fresh ids to records loaded without a usable one, and to
// every record after the first that repeats an id.
func assignIDs[T Entity[T]](items []T) []T {
	next := nextID(items)
	seen := make(map[int]struct{}, len(items))
	for i, it := range items {
		id := it.EntityID()
		if _, dup := seen[id]; id <= 0 || dup {
			items[i] = it.WithID(next)
			id = next
			next++
		}
		seen[id] = struct{}{}
	}
	return items
}
