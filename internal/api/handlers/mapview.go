package handlers

import (
	"logistics-dashboard-service/internal/services"
	"net/http"
)

type MapHandler struct {
	Renderer *services.Renderer
}

func (h *MapHandler) View(w http.ResponseWriter, r *http.Request) {
	view, err := h.Renderer.Current(r.Context())
	if err != nil {
		writeServiceError(w, r, "render map", err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}
