package smoke

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/cadettracker/pkg/logger"
)

// percentageMultiplier converts a ratio to a percentage.
const percentageMultiplier = 100

// Run checks the service is up and then runs the default scenarios.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	return RunScenarios(ctx, cfg, DefaultScenarios())
}

// RunScenarios runs every scenario cfg.Rounds times with at most cfg.Workers
// in flight. It returns an error when any run failed.
func RunScenarios(ctx context.Context, cfg *Config, scenarios []Scenario) (*Stats, error) {
	log := logger.Get()
	stats := &Stats{StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting cadet tracker smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("scenarios", len(scenarios)),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", cfg.Workers))

	if err := checkService(ctx, client); err != nil {
		return stats, fmt.Errorf("service check failed: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))

	for round := 1; round <= max(cfg.Rounds, 1); round++ {
		for _, sc := range scenarios {
			g.Go(func() error {
				start := time.Now()
				err := sc.Run(gctx, client)
				res := Result{Scenario: sc.Name, Round: round, Err: err, Elapsed: time.Since(start)}

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					stats.Failed++
					stats.Failures = append(stats.Failures, res)
					log.Error(gctx, "scenario failed", logger.String("scenario", sc.Name), logger.Int("round", round), logger.Error(err))
					return nil
				}
				stats.Passed++
				if cfg.Verbose {
					log.Info(gctx, "scenario passed", logger.String("scenario", sc.Name), logger.Int("round", round), logger.Duration("elapsed", res.Elapsed))
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d of %d scenario runs failed", stats.Failed, stats.Failed+stats.Passed)
	}
	return stats, nil
}

// checkService requires /api/test to answer, which proves the database is up.
func checkService(ctx context.Context, c *Client) error {
	var out map[string]int
	if err := c.Do(ctx, http.MethodGet, "/api/test", nil, &out); err != nil {
		return err
	}
	if out["ok"] != 1 {
		return fmt.Errorf("%w: /api/test answered %v", errMismatch, out)
	}
	return nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate float64
	if total := stats.Passed + stats.Failed; total > 0 {
		successRate = float64(stats.Passed) / float64(total) * percentageMultiplier
	}
	log.Info(ctx, "final statistics",
		logger.Int("passed", stats.Passed),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
		logger.Any("successRate", successRate))
}
