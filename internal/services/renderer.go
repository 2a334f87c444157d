package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"logistics-dashboard-service/internal/ports"
	"logistics-dashboard-service/internal/store"
	"sync"
)

// Renderer keeps the current map view in step with the store.
//
// Every change to warehouses, enterprises or routes discards the previous
// view and starts a rebuild from scratch. A newer change cancels the
// in-flight rebuild, and a rebuild only publishes its view while it is still
// the latest generation.
type Renderer struct {
	store   *store.Store
	builder *MapBuilder
	broker  ports.ChangeBroker

	mu         sync.Mutex
	generation uint64
	current    *MapView
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewRenderer(st *store.Store, builder *MapBuilder, broker ports.ChangeBroker) *Renderer {
	return &Renderer{store: st, builder: builder, broker: broker}
}

// affectsMap reports whether a collection change alters the map.
func affectsMap(collection string) bool {
	switch collection {
	case ports.CollectionWarehouses, ports.CollectionEnterprises, ports.CollectionRoutes:
		return true
	}
	return false
}

// Run renders once and then re-renders on every relevant change until ctx
// is done. In-flight rebuilds are canceled and awaited before it returns.
func (r *Renderer) Run(ctx context.Context) {
	sub := r.broker.Subscribe()
	defer r.broker.Unsubscribe(sub)

	r.Invalidate(ctx)

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			if r.cancel != nil {
				r.cancel()
			}
			r.mu.Unlock()
			r.wg.Wait()
			return
		case evt, ok := <-sub:
			if !ok {
				r.wg.Wait()
				return
			}
			if affectsMap(evt.Collection) {
				r.Invalidate(ctx)
			}
		}
	}
}

// Invalidate drops the current view and starts a new rebuild.
func (r *Renderer) Invalidate(ctx context.Context) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.generation++
	gen := r.generation
	r.current = nil

	rctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer cancel()

		view, err := r.build(rctx, gen)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("map: render generation=%d: %v", gen, err)
			}
			return
		}
		r.commit(view)
	}()
}

// Current returns the latest view, building one synchronously when none is
// available yet.
func (r *Renderer) Current(ctx context.Context) (MapView, error) {
	r.mu.Lock()
	if r.current != nil {
		view := *r.current
		r.mu.Unlock()
		return view, nil
	}
	gen := r.generation
	r.mu.Unlock()

	view, err := r.build(ctx, gen)
	if err != nil {
		return MapView{}, err
	}
	r.commit(view)
	return view, nil
}

func (r *Renderer) build(ctx context.Context, gen uint64) (MapView, error) {
	snap, err := r.store.Snapshot(ctx)
	if err != nil {
		return MapView{}, fmt.Errorf("render map: load snapshot: %w", err)
	}

	view, err := r.builder.Build(ctx, snap)
	if err != nil {
		return MapView{}, fmt.Errorf("render map: %w", err)
	}
	view.Generation = gen
	return view, nil
}

// commit publishes a view unless a newer generation has started since it began.
func (r *Renderer) commit(view MapView) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if view.Generation != r.generation {
		return
	}
	if r.current != nil && r.current.Generation > view.Generation {
		return
	}
	r.current = &view
}
