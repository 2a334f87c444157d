package services

import (
	"logistics-dashboard-service/internal/domain"
	"logistics-dashboard-service/internal/store"
	"math"
)

type Stats struct {
	Month       string `json:"month"`
	Products    int    `json:"products"`
	Warehouses  int    `json:"warehouses"`
	Enterprises int    `json:"enterprises"`

	Vehicles            int     `json:"vehicles"`
	ActiveVehicles      int     `json:"activeVehicles"`
	MaintenanceVehicles int     `json:"maintenanceVehicles"`
	FleetCapacity       float64 `json:"fleetCapacity"`

	StockVolume       float64 `json:"stockVolume"`
	ConsumptionVolume float64 `json:"consumptionVolume"`
	ProductionVolume  float64 `json:"productionVolume"`

	Routes        int     `json:"routes"`
	RouteVolume   float64 `json:"routeVolume"`
	RouteDistance float64 `json:"routeDistance"`
	// LoadPercent is planned route volume over active fleet capacity.
	LoadPercent float64 `json:"loadPercent"`
}

// ComputeStats summarizes a snapshot. When month is empty the latest month
// with any warehouse stock is used.
func ComputeStats(snap store.Snapshot, month string) Stats {
	if month == "" {
		month = latestStockMonth(snap.Warehouses)
	}

	s := Stats{
		Month:       month,
		Products:    len(snap.Products),
		Warehouses:  len(snap.Warehouses),
		Enterprises: len(snap.Enterprises),
		Vehicles:    len(snap.Vehicles),
		Routes:      len(snap.Routes),
	}

	for _, v := range snap.Vehicles {
		if !v.Active() {
			s.MaintenanceVehicles++
			continue
		}
		s.ActiveVehicles++
		s.FleetCapacity += v.Volume
	}

	if month != "" {
		for _, w := range snap.Warehouses {
			s.StockVolume += sumVolumes(domain.VolumesFor(w.Products, month))
		}
		for _, e := range snap.Enterprises {
			s.ConsumptionVolume += sumVolumes(domain.VolumesFor(e.Consumed, month))
			s.ProductionVolume += sumVolumes(domain.VolumesFor(e.Produced, month))
		}
	}

	for _, r := range snap.Routes {
		s.RouteVolume += r.Volume
		s.RouteDistance += r.Distance
	}
	s.RouteDistance = math.Round(s.RouteDistance*10) / 10

	if s.FleetCapacity > 0 {
		s.LoadPercent = math.Round(s.RouteVolume / s.FleetCapacity * 100)
	}

	return s
}

func latestStockMonth(warehouses []domain.Warehouse) string {
	latest := -1
	for _, w := range warehouses {
		if idx := domain.MonthIndex(domain.LatestMonth(w.Products)); idx > latest {
			latest = idx
		}
	}
	if latest < 0 {
		return ""
	}
	return domain.Months[latest]
}

func sumVolumes(vs []domain.ProductVolume) float64 {
	var total float64
	for _, v := range vs {
		total += v.Volume
	}
	return total
}
