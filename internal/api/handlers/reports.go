package handlers

import (
	"errors"
	"log"
	"logistics-dashboard-service/internal/api/dto"
	"logistics-dashboard-service/internal/domain"
	"logistics-dashboard-service/internal/platform/obs"
	"logistics-dashboard-service/internal/services"
	"logistics-dashboard-service/internal/store"
	"net/http"
	"strings"
)

type ReportHandler struct {
	Store *store.Store
}

// Stats summarizes every collection; ?month= selects the volume month.
func (h *ReportHandler) Stats(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month != "" && !domain.IsMonth(month) {
		writeServiceError(w, r, "stats", services.ErrUnknownMonth)
		return
	}

	snap, err := h.Store.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, r, "stats", err)
		return
	}
	writeJSON(w, r, http.StatusOK, services.ComputeStats(snap, month))
}

func (h *ReportHandler) Integrity(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Store.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, r, "integrity", err)
		return
	}
	writeJSON(w, r, http.StatusOK, services.CheckIntegrity(snap))
}

type ImportHandler struct {
	Store *store.Store
}

const maxUploadBytes = 10 << 20

// ImportVehicles accepts a multipart upload with the workbook in field "file".
func (h *ImportHandler) ImportVehicles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "expected multipart form with an .xlsx file")
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, `missing "file" field`)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(hdr.Filename), ".xlsx") {
		writeError(w, r, http.StatusBadRequest, "only .xlsx files are supported")
		return
	}

	res, err := services.ImportVehicles(r.Context(), file, h.Store.Vehicles())
	if errors.Is(err, services.ErrNoHeaderRow) {
		writeJSON(w, r, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error: err.Error(),
			Hint:  "The first sheet needs a header row with a Марка/Brand column.",
		})
		return
	}
	if err != nil {
		// Rows created before the failure stay created and are reported.
		log.Printf("req_id=%s import vehicles file=%q created=%d: %v", obs.RequestID(r.Context()), hdr.Filename, len(res.Created), err)
		if len(res.Created) == 0 {
			writeError(w, r, http.StatusBadRequest, "could not read workbook")
			return
		}
	}
	writeJSON(w, r, http.StatusOK, res)
}
