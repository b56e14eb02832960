package repository

import (
	"time"

	"github.com/okian/cadettracker/pkg/logger"
)

// Option applies a configuration option to the MySQLStore.
type Option func(*MySQLStore)

// WithPoolStatsInterval sets how often pool statistics are published as
// metrics. Zero disables the background updater.
func WithPoolStatsInterval(interval time.Duration) Option {
	return func(s *MySQLStore) {
		if interval > 0 {
			s.poolStatsInterval = interval
		}
	}
}

// WithLogger sets the logger used for rollback and close failures.
func WithLogger(l logger.Logger) Option {
	return func(s *MySQLStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for default dates.
func WithClock(now func() time.Time) Option {
	return func(s *MySQLStore) {
		if now != nil {
			s.now = now
		}
	}
}
