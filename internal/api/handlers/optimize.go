package handlers

import (
	"log"
	"logistics-dashboard-service/internal/adapters/optimizer"
	"logistics-dashboard-service/internal/api/dto"
	"logistics-dashboard-service/internal/domain"
	"logistics-dashboard-service/internal/platform/obs"
	"logistics-dashboard-service/internal/services"
	"logistics-dashboard-service/internal/store"
	"net/http"
	"strings"
)

type OptimizeHandler struct {
	Optimizer *services.Optimizer
	Store     *store.Store
}

// Optimize runs one optimization for the requested month. A result without
// routes is a 200 carrying a diagnostic, not an error.
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req dto.OptimizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.Optimizer.Run(r.Context(), strings.TrimSpace(req.Month))
	if err != nil {
		writeServiceError(w, r, "optimize", err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *OptimizeHandler) Routes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.Store.Routes().List(r.Context())
	if err != nil {
		writeServiceError(w, r, "list routes", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.RoutesResponse{Routes: routes})
}

// ExportRoutes downloads the current routes as an .xlsx workbook.
func (h *OptimizeHandler) ExportRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.Store.Routes().List(r.Context())
	if err != nil {
		writeServiceError(w, r, "export routes", err)
		return
	}

	f, err := services.ExportRoutes(routes)
	if err != nil {
		writeServiceError(w, r, "export routes", err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="routes.xlsx"`)
	if _, err := f.WriteTo(w); err != nil {
		log.Printf("req_id=%s export routes: write workbook: %v", obs.RequestID(r.Context()), err)
	}
}

func Months(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, dto.MonthsResponse{Months: domain.Months})
}

// Schemas serves the optimizer contract as JSON Schema.
func Schemas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, optimizer.ContractSchemas())
}
