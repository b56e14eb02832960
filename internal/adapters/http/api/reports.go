package api

import (
	"net/http"

	repository "github.com/okian/cadettracker/internal/adapters/repository"
	"github.com/okian/cadettracker/internal/domain/model"
)

// ReportHandler serves /api/reports.
type ReportHandler struct {
	responder
	deps repository.ReportStore
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps repository.ReportStore, rs responder) *ReportHandler {
	return &ReportHandler{responder: rs, deps: deps}
}

// HandleList handles GET /api/reports, newest incident first.
func (h *ReportHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.ListReports(r.Context())
	if err != nil {
		h.fail(w, r, "report", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /api/reports/{id}.
func (h *ReportHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "report", err)
		return
	}
	rep, err := h.deps.GetReport(r.Context(), id)
	if err != nil {
		h.fail(w, r, "report", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleCreate handles POST /api/reports.
func (h *ReportHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewReport
	if err := decodeValid(r, &in); err != nil {
		h.fail(w, r, "report", err)
		return
	}
	id, err := h.deps.CreateReport(r.Context(), in)
	if err != nil {
		h.fail(w, r, "report", err)
		return
	}
	writeCreated(w, "report_id", id)
}

// HandleUpdate handles PUT /api/reports/{id}.
func (h *ReportHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "report", err)
		return
	}
	var p model.ReportPatch
	if err := decodeJSON(r, &p); err != nil {
		h.fail(w, r, "report", err)
		return
	}
	n, err := h.deps.UpdateReport(r.Context(), id, p)
	if err != nil {
		h.fail(w, r, "report", err)
		return
	}
	writeCount(w, n)
}

// HandleDelete handles DELETE /api/reports/{id}.
func (h *ReportHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "report", err)
		return
	}
	n, err := h.deps.DeleteReport(r.Context(), id)
	if err != nil {
		h.fail(w, r, "report", err)
		return
	}
	writeCount(w, n)
}
