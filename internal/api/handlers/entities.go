package handlers

import (
	"logistics-dashboard-service/internal/api/dto"
	"logistics-dashboard-service/internal/store"
	"net/http"
)

// EntityHandler exposes list/get/create/replace/delete for one collection.
// Present shapes a stored record for responses; nil returns it as is.
type EntityHandler[T store.Entity[T]] struct {
	Collection *store.Collection[T]
	Present    func(T) any
}

func (h *EntityHandler[T]) present(v T) any {
	if h.Present == nil {
		return v
	}
	return h.Present(v)
}

func (h *EntityHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Collection.List(r.Context())
	if err != nil {
		writeServiceError(w, r, "list "+h.Collection.Name(), err)
		return
	}

	res := dto.ListResponse[any]{Items: make([]any, 0, len(items))}
	for _, it := range items {
		res.Items = append(res.Items, h.present(it))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *EntityHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	v, err := h.Collection.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get "+h.Collection.Name(), err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.present(v))
}

func (h *EntityHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	var v T
	if !decodeJSON(w, r, &v) {
		return
	}

	created, err := h.Collection.Create(r.Context(), v)
	if err != nil {
		writeServiceError(w, r, "create "+h.Collection.Name(), err)
		return
	}
	writeJSON(w, r, http.StatusCreated, h.present(created))
}

// Replace overwrites the record in full; the id in the body is ignored.
func (h *EntityHandler[T]) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var v T
	if !decodeJSON(w, r, &v) {
		return
	}

	updated, err := h.Collection.Update(r.Context(), id, v)
	if err != nil {
		writeServiceError(w, r, "update "+h.Collection.Name(), err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.present(updated))
}

// Delete requires ?confirm=true. Nothing referencing the record is touched.
func (h *EntityHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("confirm") != "true" {
		writeJSON(w, r, http.StatusConflict, dto.ErrorResponse{
			Error: "deletion not confirmed",
			Hint:  "Repeat the request with ?confirm=true.",
		})
		return
	}

	if err := h.Collection.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, "delete "+h.Collection.Name(), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
