package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"logistics-dashboard-service/internal/domain"
	"logistics-dashboard-service/internal/platform/metrics"
	"logistics-dashboard-service/internal/ports"
	"logistics-dashboard-service/internal/store"
)

// Precondition failures, detected before any call to the optimizer.
var (
	ErrUnknownMonth     = errors.New("unknown month")
	ErrInsufficientData = errors.New("insufficient data")
	ErrNoMonthData      = errors.New("no data for the selected month")
)

// Remediation returns the operator hint for a precondition error, or "".
func Remediation(err error) string {
	switch {
	case errors.Is(err, ErrUnknownMonth):
		return "Choose one of the months listed at /v1/months."
	case errors.Is(err, ErrInsufficientData):
		return "Add warehouses and enterprises to calculate routes."
	case errors.Is(err, ErrNoMonthData):
		return "Fill in warehouse stock and enterprise consumption for the selected month."
	}
	return ""
}

// OptimizationFailedError wraps any collaborator failure: transport errors,
// non-2xx statuses and responses that break the route contract.
type OptimizationFailedError struct {
	Err error
}

func (e *OptimizationFailedError) Error() string {
	return "optimization failed: " + e.Err.Error()
}

func (e *OptimizationFailedError) Unwrap() error { return e.Err }

// OptimizationResult is the outcome of a completed optimizer call.
// Diagnostic is set only when the optimizer returned no routes.
type OptimizationResult struct {
	Month      string         `json:"month"`
	Routes     []domain.Route `json:"routes"`
	Diagnostic string         `json:"diagnostic,omitempty"`
}

// BuildOptimizationRequest assembles the per-month stock and need matrices.
// Every warehouse and enterprise is sent, even when its map is empty.
func BuildOptimizationRequest(
	month string,
	warehouses []domain.Warehouse,
	enterprises []domain.Enterprise,
	vehicles []domain.Vehicle,
) (ports.OptimizationRequest, error) {
	if !domain.IsMonth(month) {
		return ports.OptimizationRequest{}, fmt.Errorf("build optimization request: %q: %w", month, ErrUnknownMonth)
	}
	if len(warehouses) == 0 || len(enterprises) == 0 {
		return ports.OptimizationRequest{}, fmt.Errorf(
			"build optimization request: %d warehouses, %d enterprises: %w",
			len(warehouses), len(enterprises), ErrInsufficientData,
		)
	}

	req := ports.OptimizationRequest{
		Month:       month,
		Warehouses:  make([]ports.WarehouseStock, 0, len(warehouses)),
		Enterprises: make([]ports.EnterpriseNeed, 0, len(enterprises)),
		Vehicles:    make([]ports.VehicleSnapshot, 0, len(vehicles)),
	}

	for _, w := range warehouses {
		req.Warehouses = append(req.Warehouses, ports.WarehouseStock{
			ID:       w.ID,
			Name:     w.Name,
			Location: w.Location,
			Lat:      w.Lat,
			Lng:      w.Lng,
			Stocks:   domain.VolumeMap(w.Products, month),
		})
	}

	for _, e := range enterprises {
		req.Enterprises = append(req.Enterprises, ports.EnterpriseNeed{
			ID:       e.ID,
			Name:     e.Name,
			Location: e.Location,
			Lat:      e.Lat,
			Lng:      e.Lng,
			Needs:    domain.VolumeMap(e.Consumed, month),
		})
	}

	for _, v := range vehicles {
		types := v.ProductTypes
		if types == nil {
			types = []string{}
		}
		req.Vehicles = append(req.Vehicles, ports.VehicleSnapshot{
			ID:           v.ID,
			Brand:        v.Brand,
			Volume:       v.Volume,
			ProductTypes: types,
			Enterprise:   v.Enterprise,
			Status:       v.Status,
		})
	}

	withStock, withNeeds := dataCounts(req)
	if withStock == 0 || withNeeds == 0 {
		return ports.OptimizationRequest{}, fmt.Errorf(
			"build optimization request: month %q: %d warehouses with stock, %d enterprises with needs: %w",
			month, withStock, withNeeds, ErrNoMonthData,
		)
	}

	return req, nil
}

func dataCounts(req ports.OptimizationRequest) (warehousesWithData, enterprisesWithData int) {
	for _, w := range req.Warehouses {
		if len(w.Stocks) > 0 {
			warehousesWithData++
		}
	}
	for _, e := range req.Enterprises {
		if len(e.Needs) > 0 {
			enterprisesWithData++
		}
	}
	return warehousesWithData, enterprisesWithData
}

// Optimizer runs one optimization round trip against the external optimizer
// and persists its routes.
type Optimizer struct {
	store  *store.Store
	client ports.RouteOptimizer
}

// NewOptimizer wires the requester. A nil client makes every run fail with
// OptimizationFailedError after the preconditions pass.
func NewOptimizer(st *store.Store, client ports.RouteOptimizer) *Optimizer {
	return &Optimizer{store: st, client: client}
}

func (o *Optimizer) Run(ctx context.Context, month string) (OptimizationResult, error) {
	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return OptimizationResult{}, fmt.Errorf("run optimization: load snapshot: %w", err)
	}

	req, err := BuildOptimizationRequest(month, snap.Warehouses, snap.Enterprises, snap.Vehicles)
	if err != nil {
		metrics.Optimizations.WithLabelValues("precondition").Inc()
		return OptimizationResult{}, err
	}

	if o.client == nil {
		metrics.Optimizations.WithLabelValues("failed").Inc()
		return OptimizationResult{}, &OptimizationFailedError{Err: errors.New("optimizer is not configured")}
	}

	resp, err := o.client.Optimize(ctx, req)
	if err != nil {
		metrics.Optimizations.WithLabelValues("failed").Inc()
		return OptimizationResult{}, &OptimizationFailedError{Err: err}
	}

	if len(resp.Routes) == 0 {
		metrics.Optimizations.WithLabelValues("empty").Inc()
		diag := Diagnose(month, req, resp.Debug)
		log.Printf("optimization month=%q routes=0 diagnostic=%q", month, diag)
		return OptimizationResult{Month: month, Routes: []domain.Route{}, Diagnostic: diag}, nil
	}

	routes := fillEndpoints(resp.Routes, req)
	if err := o.store.Routes().ReplaceAll(ctx, routes); err != nil {
		metrics.Optimizations.WithLabelValues("failed").Inc()
		return OptimizationResult{}, fmt.Errorf("run optimization: persist routes: %w", err)
	}

	metrics.Optimizations.WithLabelValues("routes").Inc()
	log.Printf("optimization month=%q routes=%d", month, len(routes))
	return OptimizationResult{Month: month, Routes: routes}, nil
}

// Diagnose explains an empty route list. Counts reported by the optimizer
// take precedence over counts derived from the request.
func Diagnose(month string, req ports.OptimizationRequest, debug *ports.OptimizationDebug) string {
	withStock, withNeeds := dataCounts(req)
	if debug != nil {
		if debug.WarehousesWithData != nil {
			withStock = *debug.WarehousesWithData
		}
		if debug.EnterprisesWithData != nil {
			withNeeds = *debug.EnterprisesWithData
		}
	}

	switch {
	case withStock == 0:
		return fmt.Sprintf("No routes for %s: none of %d warehouses has stock for this month.", month, len(req.Warehouses))
	case withNeeds == 0:
		return fmt.Sprintf("No routes for %s: none of %d enterprises has consumption for this month.", month, len(req.Enterprises))
	}
	return fmt.Sprintf(
		"No routes for %s: %d of %d warehouses have stock and %d of %d enterprises have consumption, but no product matches between them.",
		month, withStock, len(req.Warehouses), withNeeds, len(req.Enterprises),
	)
}

// fillEndpoints copies missing endpoint coordinates from the request's
// warehouses (from) and enterprises (to), matched by name.
func fillEndpoints(routes []domain.Route, req ports.OptimizationRequest) []domain.Route {
	origins := make(map[string]domain.Coordinates, len(req.Warehouses))
	for _, w := range req.Warehouses {
		if c, ok := domain.CoordinatesFrom(w.Lat, w.Lng); ok {
			origins[w.Name] = c
		}
	}
	targets := make(map[string]domain.Coordinates, len(req.Enterprises))
	for _, e := range req.Enterprises {
		if c, ok := domain.CoordinatesFrom(e.Lat, e.Lng); ok {
			targets[e.Name] = c
		}
	}

	out := make([]domain.Route, 0, len(routes))
	for _, r := range routes {
		from, fromOK := domain.CoordinatesFrom(r.FromLat, r.FromLng)
		to, toOK := domain.CoordinatesFrom(r.ToLat, r.ToLng)
		if !fromOK {
			from, fromOK = origins[r.From]
		}
		if !toOK {
			to, toOK = targets[r.To]
		}
		if fromOK && toOK {
			r = r.WithEndpoints(from, to)
		}
		out = append(out, r)
	}
	return out
}
