package api

import (
	"context"
	"net/http"
	"strings"

	repository "github.com/okian/cadettracker/internal/adapters/repository"
	"github.com/okian/cadettracker/internal/domain/model"
)

type cadetDeps interface {
	repository.CadetStore
	Profile(ctx context.Context, cadetID int64) (model.Profile, error)
	Promotion(ctx context.Context, cadetID int64) (model.PromotionStatus, error)
}

// CadetHandler serves /api/cadets.
type CadetHandler struct {
	responder
	deps cadetDeps
}

// NewCadetHandler creates a new cadet handler.
func NewCadetHandler(deps cadetDeps, rs responder) *CadetHandler {
	return &CadetHandler{responder: rs, deps: deps}
}

// HandleList handles GET /api/cadets.
func (h *CadetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.ListCadets(r.Context())
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSearch handles GET /api/cadets/search?q=. An empty q lists everyone.
func (h *CadetHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	var (
		out []model.Cadet
		err error
	)
	if q == "" {
		out, err = h.deps.ListCadets(r.Context())
	} else {
		out, err = h.deps.SearchCadets(r.Context(), q)
	}
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /api/cadets/{id}.
func (h *CadetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	c, err := h.deps.GetCadet(r.Context(), id)
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleCreate handles POST /api/cadets.
func (h *CadetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewCadet
	if err := decodeValid(r, &in); err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	id, err := h.deps.CreateCadet(r.Context(), in)
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	writeCreated(w, "cadet_id", id)
}

// HandleUpdate handles PUT /api/cadets/{id}.
func (h *CadetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	var p model.CadetPatch
	if err := decodeJSON(r, &p); err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	n, err := h.deps.UpdateCadet(r.Context(), id, p)
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	writeCount(w, n)
}

// HandleDelete handles DELETE /api/cadets/{id}.
func (h *CadetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	n, err := h.deps.DeleteCadet(r.Context(), id)
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	writeCount(w, n)
}

// HandleProfile handles GET /api/cadets/{id}/profile.
func (h *CadetHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	p, err := h.deps.Profile(r.Context(), id)
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandlePromotion handles GET /api/cadets/{id}/promotion.
func (h *CadetHandler) HandlePromotion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	st, err := h.deps.Promotion(r.Context(), id)
	if err != nil {
		h.fail(w, r, "cadet", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
