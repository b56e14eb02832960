package api

import (
	"context"
	"net/http"

	repository "github.com/okian/cadettracker/internal/adapters/repository"
	"github.com/okian/cadettracker/internal/domain/model"
)

type positionDeps interface {
	repository.PositionStore
	CadetPositions(ctx context.Context, id int64) ([]model.Position, error)
}

// PositionHandler serves /api/positions and cadet assignments.
type PositionHandler struct {
	responder
	deps positionDeps
}

// NewPositionHandler creates a new position handler.
func NewPositionHandler(deps positionDeps, rs responder) *PositionHandler {
	return &PositionHandler{responder: rs, deps: deps}
}

// HandleList handles GET /api/positions.
func (h *PositionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.ListPositions(r.Context())
	if err != nil {
		h.fail(w, r, "position", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /api/positions/{id}.
func (h *PositionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "position", err)
		return
	}
	p, err := h.deps.GetPosition(r.Context(), id)
	if err != nil {
		h.fail(w, r, "position", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleCreate handles POST /api/positions.
func (h *PositionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewPosition
	if err := decodeValid(r, &in); err != nil {
		h.fail(w, r, "position", err)
		return
	}
	id, err := h.deps.CreatePosition(r.Context(), in)
	if err != nil {
		h.fail(w, r, "position", err)
		return
	}
	writeCreated(w, "position_id", id)
}

// HandleUpdate handles PUT /api/positions/{id}.
func (h *PositionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "position", err)
		return
	}
	var p model.PositionPatch
	if err := decodeJSON(r, &p); err != nil {
		h.fail(w, r, "position", err)
		return
	}
	n, err := h.deps.UpdatePosition(r.Context(), id, p)
	if err != nil {
		h.fail(w, r, "position", err)
		return
	}
	writeCount(w, n)
}

// HandleDelete handles DELETE /api/positions/{id}. Assignments go first, in
// the same transaction.
func (h *PositionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "position", err)
		return
	}
	n, err := h.deps.DeletePosition(r.Context(), id)
	if err != nil {
		h.fail(w, r, "position", err)
		return
	}
	writeCount(w, n)
}

// HandleAssign handles POST /api/positions/{id}/cadets.
func (h *PositionHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "assignment", err)
		return
	}
	var in model.Assignment
	if err := decodeValid(r, &in); err != nil {
		h.fail(w, r, "assignment", err)
		return
	}
	n, err := h.deps.AssignCadet(r.Context(), id, in.CadetID)
	if err != nil {
		h.fail(w, r, "assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, countResponse{AffectedRows: n})
}

// HandleUnassign handles DELETE /api/positions/{id}/cadets/{cadetID}.
func (h *PositionHandler) HandleUnassign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "assignment", err)
		return
	}
	cadetID, err := pathID(r, "cadetID")
	if err != nil {
		h.fail(w, r, "assignment", err)
		return
	}
	n, err := h.deps.UnassignCadet(r.Context(), id, cadetID)
	if err != nil {
		h.fail(w, r, "assignment", err)
		return
	}
	writeCount(w, n)
}

// HandleForCadet handles GET /api/cadets/{id}/positions.
func (h *PositionHandler) HandleForCadet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	out, err := h.deps.CadetPositions(r.Context(), id)
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
