package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"logistics-dashboard-service/internal/api/dto"
	"logistics-dashboard-service/internal/platform/obs"
	"logistics-dashboard-service/internal/services"
	"logistics-dashboard-service/internal/store"
	"net/http"
	"strconv"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: msg})
}

// writeServiceError maps domain and service errors onto HTTP statuses.
// Unexpected errors are logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		verr   *store.ValidationError
		failed *services.OptimizationFailedError
	)

	switch {
	case errors.As(err, &verr):
		res := dto.ErrorResponse{Error: "validation failed", Fields: make([]dto.FieldError, 0, len(verr.Fields))}
		for _, f := range verr.Fields {
			res.Fields = append(res.Fields, dto.FieldError{Field: f.Field, Rule: f.Rule})
		}
		writeJSON(w, r, http.StatusBadRequest, res)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case services.Remediation(err) != "":
		writeJSON(w, r, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error: preconditionMessage(err),
			Hint:  services.Remediation(err),
		})
	case errors.As(err, &failed):
		log.Printf("req_id=%s %s failed: %v", obs.RequestID(r.Context()), op, err)
		writeJSON(w, r, http.StatusBadGateway, dto.ErrorResponse{
			Error: "could not calculate routes",
			Hint:  "Check the optimizer settings and try again.",
		})
	default:
		log.Printf("req_id=%s %s failed: %v", obs.RequestID(r.Context()), op, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func preconditionMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrUnknownMonth):
		return services.ErrUnknownMonth.Error()
	case errors.Is(err, services.ErrInsufficientData):
		return services.ErrInsufficientData.Error()
	}
	return services.ErrNoMonthData.Error()
}

// decodeJSON reads exactly one JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
