package api

import (
	"logistics-dashboard-service/internal/api/dto"
	"logistics-dashboard-service/internal/api/handlers"
	"logistics-dashboard-service/internal/domain"
	"logistics-dashboard-service/internal/platform/metrics"
	"logistics-dashboard-service/internal/ports"
	"logistics-dashboard-service/internal/services"
	"logistics-dashboard-service/internal/store"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Store        *store.Store
	Broker       ports.ChangeBroker
	Optimizer    *services.Optimizer
	Renderer     *services.Renderer
	HealthChecks map[string]handlers.Pinger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	products := &handlers.EntityHandler[domain.Product]{Collection: d.Store.Products()}
	warehouses := &handlers.EntityHandler[domain.Warehouse]{
		Collection: d.Store.Warehouses(),
		Present:    func(w domain.Warehouse) any { return dto.NewWarehouseResponse(w) },
	}
	enterprises := &handlers.EntityHandler[domain.Enterprise]{
		Collection: d.Store.Enterprises(),
		Present:    func(e domain.Enterprise) any { return dto.NewEnterpriseResponse(e) },
	}
	vehicles := &handlers.EntityHandler[domain.Vehicle]{Collection: d.Store.Vehicles()}

	registerEntity(mux, "products", products)
	registerEntity(mux, "warehouses", warehouses)
	registerEntity(mux, "enterprises", enterprises)
	registerEntity(mux, "vehicles", vehicles)

	optimizeHandler := &handlers.OptimizeHandler{Optimizer: d.Optimizer, Store: d.Store}
	mapHandler := &handlers.MapHandler{Renderer: d.Renderer}
	reportHandler := &handlers.ReportHandler{Store: d.Store}
	importHandler := &handlers.ImportHandler{Store: d.Store}
	eventsHandler := &handlers.EventsHandler{Broker: d.Broker}
	healthHandler := &handlers.HealthHandler{Checks: d.HealthChecks}

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /v1/months", handlers.Months)
	mux.HandleFunc("GET /v1/routes", optimizeHandler.Routes)
	mux.HandleFunc("GET /v1/routes/export", optimizeHandler.ExportRoutes)
	mux.HandleFunc("POST /v1/optimize", optimizeHandler.Optimize)
	mux.HandleFunc("GET /v1/schemas/optimization", handlers.Schemas)
	mux.HandleFunc("GET /v1/map", mapHandler.View)
	mux.HandleFunc("GET /v1/stats", reportHandler.Stats)
	mux.HandleFunc("GET /v1/integrity", reportHandler.Integrity)
	mux.HandleFunc("POST /v1/vehicles/import", importHandler.ImportVehicles)
	mux.HandleFunc("GET /v1/events", eventsHandler.Stream)

	return requestIDMiddleware(loggingMiddleware(mux))
}

type entityRoutes interface {
	List(http.ResponseWriter, *http.Request)
	Get(http.ResponseWriter, *http.Request)
	Create(http.ResponseWriter, *http.Request)
	Replace(http.ResponseWriter, *http.Request)
	Delete(http.ResponseWriter, *http.Request)
}

func registerEntity(mux *http.ServeMux, name string, h entityRoutes) {
	base := "/v1/" + name
	mux.HandleFunc("GET "+base, h.List)
	mux.HandleFunc("POST "+base, h.Create)
	mux.HandleFunc("GET "+base+"/{id}", h.Get)
	mux.HandleFunc("PUT "+base+"/{id}", h.Replace)
	mux.HandleFunc("DELETE "+base+"/{id}", h.Delete)
}
