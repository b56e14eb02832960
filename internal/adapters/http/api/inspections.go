package api

import (
	"net/http"

	repository "github.com/okian/cadettracker/internal/adapters/repository"
	"github.com/okian/cadettracker/internal/domain/model"
)

// InspectionHandler serves /api/inspections.
type InspectionHandler struct {
	responder
	deps repository.InspectionStore
}

// NewInspectionHandler creates a new inspection handler.
func NewInspectionHandler(deps repository.InspectionStore, rs responder) *InspectionHandler {
	return &InspectionHandler{responder: rs, deps: deps}
}

// HandleCreate handles POST /api/inspections. The score row, the inspection
// and the cadet link are written in one transaction.
func (h *InspectionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewInspection
	if err := decodeValid(r, &in); err != nil {
		h.fail(w, r, "inspection", err)
		return
	}
	id, err := h.deps.CreateInspection(r.Context(), in)
	if err != nil {
		h.fail(w, r, "inspection", err)
		return
	}
	writeCreated(w, "inspection_id", id)
}

// HandleGet handles GET /api/inspections/{id}.
func (h *InspectionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "inspection", err)
		return
	}
	in, err := h.deps.GetInspection(r.Context(), id)
	if err != nil {
		h.fail(w, r, "inspection", err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

// HandleDelete handles DELETE /api/inspections/{id}.
func (h *InspectionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "inspection", err)
		return
	}
	n, err := h.deps.DeleteInspection(r.Context(), id)
	if err != nil {
		h.fail(w, r, "inspection", err)
		return
	}
	writeCount(w, n)
}

// HandleForCadet handles GET /api/cadets/{id}/inspections.
func (h *InspectionHandler) HandleForCadet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	out, err := h.deps.CadetInspections(r.Context(), id)
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
