package api

import (
	"context"
	"net/http"

	"github.com/okian/cadettracker/internal/domain/model"
)

// serviceName identifies the API at GET /.
const serviceName = "cadet-tracker"

type rootDeps interface {
	Ping(ctx context.Context) error
	Diagnose(ctx context.Context) (model.Diagnostics, error)
}

// RootHandler serves the identity and connectivity probe endpoints.
type RootHandler struct {
	responder
	deps    rootDeps
	version string
}

// NewRootHandler creates a new root handler.
func NewRootHandler(deps rootDeps, rs responder, version string) *RootHandler {
	return &RootHandler{responder: rs, deps: deps, version: version}
}

// HandleRoot handles GET /. It never touches the database.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": serviceName,
		"version": h.version,
	})
}

// HandleTest handles GET /api/test with a SELECT 1 round trip.
func (h *RootHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Ping(r.Context()); err != nil {
		h.fail(w, r, "database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"ok": 1})
}

// HandleDiag handles GET /api/diag.
func (h *RootHandler) HandleDiag(w http.ResponseWriter, r *http.Request) {
	d, err := h.deps.Diagnose(r.Context())
	if err != nil {
		h.fail(w, r, "database", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
