// Package service provides the business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	repository "github.com/okian/cadettracker/internal/adapters/repository"
	"github.com/okian/cadettracker/internal/domain/model"
	"github.com/okian/cadettracker/internal/domain/promotion"
	"github.com/okian/cadettracker/pkg/logger"
	"github.com/okian/cadettracker/pkg/metrics"
)

// ErrStoreUnavailable is returned by Start when the database cannot be reached.
var ErrStoreUnavailable = errors.New("database unavailable")

// Service implements the API dependencies for the cadet tracker.
// Entity operations are served directly by the embedded store.
type Service struct {
	repository.Store

	mu        sync.RWMutex
	version   string
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVersion sets the version reported by diagnostics.
func WithVersion(v string) Option {
	return func(s *Service) {
		if v != "" {
			s.version = v
		}
	}
}

// New constructs a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		Store:   store,
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start verifies database connectivity. The server must not listen until it
// returns nil.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "checking database connection...")
	if err := s.Store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	metrics.UpdatePoolStats(s.Store.Stats())

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "database connection ok", logger.String("version", s.version))
	return nil
}

// Stop closes the store. It is safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.Store.Close(); err != nil {
		s.logger.Error(context.Background(), "close store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "cadet tracker service stopped")
}

// Profile returns the cadet with its report count, reports and positions.
// A missing cadet is repository.ErrNotFound.
func (s *Service) Profile(ctx context.Context, cadetID int64) (model.Profile, error) {
	summary, err := s.Store.CadetSummary(ctx, cadetID)
	if err != nil {
		return model.Profile{}, err
	}
	p := model.Profile{Profile: summary}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p.Reports, err = s.Store.CadetReports(gctx, cadetID)
		return err
	})
	g.Go(func() error {
		var err error
		p.Positions, err = s.Store.CadetPositions(gctx, cadetID)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

// Promotion reports the cadet's next rank and progress toward it.
func (s *Service) Promotion(ctx context.Context, cadetID int64) (model.PromotionStatus, error) {
	if _, err := s.Store.GetCadet(ctx, cadetID); err != nil {
		return model.PromotionStatus{}, err
	}

	var (
		ranks []model.Rank
		held  []model.CadetRank
		done  []model.Completion
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { ranks, err = s.Store.ListRanks(gctx); return err })
	g.Go(func() (err error) { held, err = s.Store.CadetRanks(gctx, cadetID); return err })
	g.Go(func() (err error) { done, err = s.Store.Completions(gctx, cadetID); return err })
	if err := g.Wait(); err != nil {
		return model.PromotionStatus{}, err
	}

	current, next := promotion.Next(ranks, held)
	var reqs []model.Requirement
	if next != nil {
		var err error
		if reqs, err = s.Store.RequirementsForRank(ctx, next.ID); err != nil {
			return model.PromotionStatus{}, err
		}
	}
	return promotion.Evaluate(cadetID, current, next, reqs, done), nil
}

// Diagnose runs the connectivity probe behind /api/diag.
func (s *Service) Diagnose(ctx context.Context) (model.Diagnostics, error) {
	name, err := s.Store.Database(ctx)
	if err != nil {
		return model.Diagnostics{}, err
	}
	return model.Diagnostics{OK: true, Database: name, Version: s.version}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started": s.started,
		"version": s.version,
	}
	if !s.started {
		return stats
	}

	db := s.Store.Stats()
	metrics.UpdatePoolStats(db)
	stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	stats["maxOpenConnections"] = db.MaxOpenConnections
	stats["openConnections"] = db.OpenConnections
	stats["inUse"] = db.InUse
	stats["idle"] = db.Idle
	stats["waitCount"] = db.WaitCount
	stats["waitDurationMs"] = db.WaitDuration.Milliseconds()
	return stats
}
