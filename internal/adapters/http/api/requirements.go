package api

import (
	"fmt"
	"net/http"
	"time"

	repository "github.com/okian/cadettracker/internal/adapters/repository"
	"github.com/okian/cadettracker/internal/domain/model"
)

// RequirementHandler serves /api/requirements and cadet completions.
type RequirementHandler struct {
	responder
	deps repository.RequirementStore
}

// NewRequirementHandler creates a new requirement handler.
func NewRequirementHandler(deps repository.RequirementStore, rs responder) *RequirementHandler {
	return &RequirementHandler{responder: rs, deps: deps}
}

// HandleList handles GET /api/requirements?rank_id=. rank_id is mandatory.
func (h *RequirementHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	rankID, err := queryID(r, "rank_id")
	if err != nil {
		h.fail(w, r, "requirement", err)
		return
	}
	out, err := h.deps.RequirementsForRank(r.Context(), rankID)
	if err != nil {
		h.fail(w, r, "requirement", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleCreate handles POST /api/requirements. A rank_id in the body links
// the new requirement in the same transaction.
func (h *RequirementHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewRequirement
	if err := decodeValid(r, &in); err != nil {
		h.fail(w, r, "requirement", err)
		return
	}
	id, err := h.deps.CreateRequirement(r.Context(), in)
	if err != nil {
		h.fail(w, r, "requirement", err)
		return
	}
	writeCreated(w, "requirement_id", id)
}

// HandleUpdate handles PUT /api/requirements/{id}.
func (h *RequirementHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "requirement", err)
		return
	}
	var p model.RequirementPatch
	if err := decodeJSON(r, &p); err != nil {
		h.fail(w, r, "requirement", err)
		return
	}
	n, err := h.deps.UpdateRequirement(r.Context(), id, p)
	if err != nil {
		h.fail(w, r, "requirement", err)
		return
	}
	writeCount(w, n)
}

// HandleDelete handles DELETE /api/requirements/{id}.
func (h *RequirementHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "requirement", err)
		return
	}
	n, err := h.deps.DeleteRequirement(r.Context(), id)
	if err != nil {
		h.fail(w, r, "requirement", err)
		return
	}
	writeCount(w, n)
}

// HandleLink handles POST /api/requirements/link?rank_id=&req_id=.
func (h *RequirementHandler) HandleLink(w http.ResponseWriter, r *http.Request) {
	rankID, reqID, err := linkParams(r)
	if err != nil {
		h.fail(w, r, "requirement", err)
		return
	}
	n, err := h.deps.LinkRequirement(r.Context(), rankID, reqID)
	if err != nil {
		h.fail(w, r, "requirement", err)
		return
	}
	writeCount(w, n)
}

// HandleUnlink handles DELETE /api/requirements/unlink?rank_id=&req_id=.
func (h *RequirementHandler) HandleUnlink(w http.ResponseWriter, r *http.Request) {
	rankID, reqID, err := linkParams(r)
	if err != nil {
		h.fail(w, r, "requirement", err)
		return
	}
	n, err := h.deps.UnlinkRequirement(r.Context(), rankID, reqID)
	if err != nil {
		h.fail(w, r, "requirement", err)
		return
	}
	writeCount(w, n)
}

// HandleCompletions handles GET /api/cadets/{id}/requirements.
func (h *RequirementHandler) HandleCompletions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	out, err := h.deps.Completions(r.Context(), id)
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleComplete handles POST /api/cadets/{id}/requirements/{reqID}. The
// completion is dated today.
func (h *RequirementHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	cadetID, reqID, err := completionParams(r)
	if err != nil {
		h.fail(w, r, "completion", err)
		return
	}
	n, err := h.deps.CompleteRequirement(r.Context(), cadetID, reqID, time.Time{})
	if err != nil {
		h.fail(w, r, "completion", err)
		return
	}
	writeJSON(w, http.StatusCreated, countResponse{AffectedRows: n})
}

// HandleUncomplete handles DELETE /api/cadets/{id}/requirements/{reqID}.
func (h *RequirementHandler) HandleUncomplete(w http.ResponseWriter, r *http.Request) {
	cadetID, reqID, err := completionParams(r)
	if err != nil {
		h.fail(w, r, "completion", err)
		return
	}
	n, err := h.deps.UncompleteRequirement(r.Context(), cadetID, reqID)
	if err != nil {
		h.fail(w, r, "completion", err)
		return
	}
	writeCount(w, n)
}

func linkParams(r *http.Request) (rankID, reqID int64, err error) {
	rankID, rerr := queryID(r, "rank_id")
	reqID, qerr := queryID(r, "req_id")
	if rerr != nil || qerr != nil {
		return 0, 0, fmt.Errorf("%w: rank_id and req_id are required positive integers", ErrBadRequest)
	}
	return rankID, reqID, nil
}

func completionParams(r *http.Request) (cadetID, reqID int64, err error) {
	if cadetID, err = pathID(r, "id"); err != nil {
		return 0, 0, err
	}
	if reqID, err = pathID(r, "reqID"); err != nil {
		return 0, 0, err
	}
	return cadetID, reqID, nil
}
