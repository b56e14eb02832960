package api

import (
	"net/http"

	repository "github.com/okian/cadettracker/internal/adapters/repository"
	"github.com/okian/cadettracker/internal/domain/model"
)

// RankHandler serves /api/ranks and the ranks a cadet holds.
type RankHandler struct {
	responder
	deps repository.RankStore
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps repository.RankStore, rs responder) *RankHandler {
	return &RankHandler{responder: rs, deps: deps}
}

// HandleList handles GET /api/ranks in rank_order.
func (h *RankHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.ListRanks(r.Context())
	if err != nil {
		h.fail(w, r, "rank", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleForCadet handles GET /api/cadets/{id}/ranks.
func (h *RankHandler) HandleForCadet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	out, err := h.deps.CadetRanks(r.Context(), id)
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleAward handles POST /api/cadets/{id}/ranks. Awarding a held rank
// again moves its date_received.
func (h *RankHandler) HandleAward(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "rank", err)
		return
	}
	var in model.RankAward
	if err := decodeValid(r, &in); err != nil {
		h.fail(w, r, "rank", err)
		return
	}
	n, err := h.deps.AwardRank(r.Context(), id, in.RankID, in.DateReceived.Time)
	if err != nil {
		h.fail(w, r, "rank", err)
		return
	}
	writeJSON(w, http.StatusCreated, countResponse{AffectedRows: n})
}
