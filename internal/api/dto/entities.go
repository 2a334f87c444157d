package dto

import "logistics-dashboard-service/internal/domain"

// Derived totals are computed on every read and only ever appear in responses.

type WarehouseResponse struct {
	domain.Warehouse
	TotalVolume float64 `json:"totalVolume"`
}

type EnterpriseResponse struct {
	domain.Enterprise
	MonthlyConsumption float64 `json:"monthlyConsumption"`
	MonthlyProduction  float64 `json:"monthlyProduction"`
}

func NewWarehouseResponse(w domain.Warehouse) WarehouseResponse {
	return WarehouseResponse{Warehouse: w, TotalVolume: w.TotalVolume()}
}

func NewEnterpriseResponse(e domain.Enterprise) EnterpriseResponse {
	return EnterpriseResponse{
		Enterprise:         e,
		MonthlyConsumption: e.MonthlyConsumption(),
		MonthlyProduction:  e.MonthlyProduction(),
	}
}

type ListResponse[T any] struct {
	Items []T `json:"items"`
}
