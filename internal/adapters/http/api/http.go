// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	repository "github.com/okian/cadettracker/internal/adapters/repository"
	"github.com/okian/cadettracker/internal/domain/model"
	"github.com/okian/cadettracker/internal/validation"
	"github.com/okian/cadettracker/pkg/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	repository.CadetStore
	repository.ReportStore
	repository.PositionStore
	repository.RankStore
	repository.RequirementStore
	repository.InspectionStore

	Ping(ctx context.Context) error
	Diagnose(ctx context.Context) (model.Diagnostics, error)
	Profile(ctx context.Context, cadetID int64) (model.Profile, error)
	Promotion(ctx context.Context, cadetID int64) (model.PromotionStatus, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	rootHandler        *RootHandler
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	cadetHandler       *CadetHandler
	reportHandler      *ReportHandler
	positionHandler    *PositionHandler
	rankHandler        *RankHandler
	requirementHandler *RequirementHandler
	inspectionHandler  *InspectionHandler

	logger         logger.Logger
	middleware     *MiddlewareConfig
	requestTimeout time.Duration
	version        string
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger used for request logs and server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMiddlewareConfig sets CORS and rate limit settings.
func WithMiddlewareConfig(cfg *MiddlewareConfig) Option {
	return func(s *Server) {
		if cfg != nil {
			s.middleware = cfg
		}
	}
}

// WithRequestTimeout bounds every /api request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithVersion sets the version reported at GET /.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		logger:         logger.Nop(),
		middleware:     DefaultMiddlewareConfig(),
		requestTimeout: 15 * time.Second,
		version:        "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	rs := responder{logger: s.logger}
	s.rootHandler = NewRootHandler(deps, rs, s.version)
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.cadetHandler = NewCadetHandler(deps, rs)
	s.reportHandler = NewReportHandler(deps, rs)
	s.positionHandler = NewPositionHandler(deps, rs)
	s.rankHandler = NewRankHandler(deps, rs)
	s.requirementHandler = NewRequirementHandler(deps, rs)
	s.inspectionHandler = NewInspectionHandler(deps, rs)
	return s
}

// Routes builds the router. More routes may be added to the result, but no
// further middleware.
func (s *Server) Routes() chi.Router {
	mw := NewChiMiddleware(s.middleware)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(MetricsMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	r.Get("/", s.rootHandler.HandleRoot)
	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Handle("/metrics", s.healthHandler.MetricsHandler())

	r.Route("/api", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(chimiddleware.Timeout(s.requestTimeout))

		r.Get("/test", s.rootHandler.HandleTest)
		r.Get("/diag", s.rootHandler.HandleDiag)
		r.Get("/stats", s.statsHandler.HandleStats)

		r.Route("/cadets", func(r chi.Router) {
			r.Get("/", s.cadetHandler.HandleList)
			r.Post("/", s.cadetHandler.HandleCreate)
			r.Get("/search", s.cadetHandler.HandleSearch)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.cadetHandler.HandleGet)
				r.Put("/", s.cadetHandler.HandleUpdate)
				r.Delete("/", s.cadetHandler.HandleDelete)
				r.Get("/profile", s.cadetHandler.HandleProfile)
				r.Get("/promotion", s.cadetHandler.HandlePromotion)
				r.Get("/positions", s.positionHandler.HandleForCadet)
				r.Get("/ranks", s.rankHandler.HandleForCadet)
				r.Post("/ranks", s.rankHandler.HandleAward)
				r.Get("/requirements", s.requirementHandler.HandleCompletions)
				r.Post("/requirements/{reqID}", s.requirementHandler.HandleComplete)
				r.Delete("/requirements/{reqID}", s.requirementHandler.HandleUncomplete)
				r.Get("/inspections", s.inspectionHandler.HandleForCadet)
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", s.reportHandler.HandleList)
			r.Post("/", s.reportHandler.HandleCreate)
			r.Get("/{id}", s.reportHandler.HandleGet)
			r.Put("/{id}", s.reportHandler.HandleUpdate)
			r.Delete("/{id}", s.reportHandler.HandleDelete)
		})

		r.Route("/positions", func(r chi.Router) {
			r.Get("/", s.positionHandler.HandleList)
			r.Post("/", s.positionHandler.HandleCreate)
			r.Get("/{id}", s.positionHandler.HandleGet)
			r.Put("/{id}", s.positionHandler.HandleUpdate)
			r.Delete("/{id}", s.positionHandler.HandleDelete)
			r.Post("/{id}/cadets", s.positionHandler.HandleAssign)
			r.Delete("/{id}/cadets/{cadetID}", s.positionHandler.HandleUnassign)
		})

		r.Get("/ranks", s.rankHandler.HandleList)

		r.Route("/requirements", func(r chi.Router) {
			r.Get("/", s.requirementHandler.HandleList)
			r.Post("/", s.requirementHandler.HandleCreate)
			r.Post("/link", s.requirementHandler.HandleLink)
			r.Delete("/unlink", s.requirementHandler.HandleUnlink)
			r.Put("/{id}", s.requirementHandler.HandleUpdate)
			r.Delete("/{id}", s.requirementHandler.HandleDelete)
		})

		r.Route("/inspections", func(r chi.Router) {
			r.Post("/", s.inspectionHandler.HandleCreate)
			r.Get("/{id}", s.inspectionHandler.HandleGet)
			r.Delete("/{id}", s.inspectionHandler.HandleDelete)
		})
	})

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type countResponse struct {
	AffectedRows int64 `json:"affected_rows"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeCreated answers a create with {"<entity>_id": id}.
func writeCreated(w http.ResponseWriter, key string, id int64) {
	writeJSON(w, http.StatusCreated, map[string]int64{key: id})
}

func writeCount(w http.ResponseWriter, n int64) {
	writeJSON(w, http.StatusOK, countResponse{AffectedRows: n})
}

// decodeJSON reads one JSON value from the body.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrEmptyBody
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		if errors.Is(err, model.ErrInvalidDate) || errors.Is(err, model.ErrInvalidFlag) {
			return fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		return fmt.Errorf("%w: malformed JSON body", ErrBadRequest)
	}
	return nil
}

// decodeValid decodes the body and runs presence checks.
func decodeValid(r *http.Request, v any) error {
	if err := decodeJSON(r, v); err != nil {
		return err
	}
	return validation.Struct(v)
}

func pathID(r *http.Request, name string) (int64, error) {
	return positiveID(chi.URLParam(r, name), name)
}

func queryID(r *http.Request, name string) (int64, error) {
	return positiveID(r.URL.Query().Get(name), name)
}

func positiveID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrBadRequest, name)
	}
	return id, nil
}
