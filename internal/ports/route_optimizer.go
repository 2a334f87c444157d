package ports

import (
	"context"
	"logistics-dashboard-service/internal/domain"
)

// Warehouse snapshot for one month: product name -> stock volume.
type WarehouseStock struct {
	ID       int                `json:"id"`
	Name     string             `json:"name"`
	Location string             `json:"location"`
	Lat      *float64           `json:"lat"`
	Lng      *float64           `json:"lng"`
	Stocks   map[string]float64 `json:"stocks"`
}

// Enterprise snapshot for one month: product name -> needed volume.
type EnterpriseNeed struct {
	ID       int                `json:"id"`
	Name     string             `json:"name"`
	Location string             `json:"location"`
	Lat      *float64           `json:"lat"`
	Lng      *float64           `json:"lng"`
	Needs    map[string]float64 `json:"needs"`
}

type VehicleSnapshot struct {
	ID           int      `json:"id"`
	Brand        string   `json:"brand"`
	Volume       float64  `json:"volume"`
	ProductTypes []string `json:"productTypes"`
	Enterprise   string   `json:"enterprise"`
	Status       string   `json:"status"`
}

// Request body sent to the external optimization function.
type OptimizationRequest struct {
	Month       string            `json:"month"`
	Warehouses  []WarehouseStock  `json:"warehouses"`
	Enterprises []EnterpriseNeed  `json:"enterprises"`
	Vehicles    []VehicleSnapshot `json:"vehicles"`
}

// Optional diagnostics returned with an empty route list.
type OptimizationDebug struct {
	WarehousesWithData  *int `json:"warehousesWithData,omitempty"`
	EnterprisesWithData *int `json:"enterprisesWithData,omitempty"`
}

type OptimizationResponse struct {
	Routes []domain.Route     `json:"routes"`
	Debug  *OptimizationDebug `json:"debug,omitempty"`
}

// Contract for the external black-box route optimizer.
type RouteOptimizer interface {
	Optimize(ctx context.Context, req OptimizationRequest) (OptimizationResponse, error)
}
