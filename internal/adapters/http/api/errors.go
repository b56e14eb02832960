package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	repository "github.com/okian/cadettracker/internal/adapters/repository"
	"github.com/okian/cadettracker/internal/validation"
	"github.com/okian/cadettracker/pkg/logger"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrEmptyBody  = fmt.Errorf("%w: request body required", ErrBadRequest)
)

// classify maps an error kind to a status and a machine-readable code.
func classify(err error) (int, string) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNoFields):
		return http.StatusBadRequest, "no_fields"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// responder writes error envelopes and logs what the client is not told.
type responder struct {
	logger logger.Logger
}

// fail answers with the status for err's kind. what names the resource.
// Server-side details are logged, never echoed.
func (rs responder) fail(w http.ResponseWriter, r *http.Request, what string, err error) {
	ctx := r.Context()
	reqID := logger.String("request_id", chimiddleware.GetReqID(ctx))
	if ctx.Err() != nil {
		// The timeout middleware answers once the deadline passes; a
		// cancelled request has no one left to answer.
		rs.logger.Warn(ctx, "request ended before completion", logger.String("resource", what), reqID, logger.Error(err))
		return
	}

	status, code := classify(err)

	var msg string
	switch code {
	case "validation_error", "bad_request":
		msg = err.Error()
	case "no_fields":
		msg = repository.ErrNoFields.Error()
	case "not_found":
		msg = what + " not found"
	case "conflict":
		rs.logger.Warn(ctx, "constraint violation", logger.String("resource", what), reqID, logger.Error(err))
		msg = what + " conflicts with existing data"
	default:
		rs.logger.Error(ctx, "request failed", logger.String("resource", what), reqID, logger.Error(err))
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
