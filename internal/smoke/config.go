// Package smoke drives a running cadet tracker through end-to-end scenarios.
package smoke

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL string        // Base URL of the service
	Rounds  int           // Times each scenario runs
	Workers int           // Scenarios in flight at once
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Log every scenario result
}

// Result is the outcome of one scenario run.
type Result struct {
	Scenario string
	Round    int
	Err      error
	Elapsed  time.Duration
}

// Stats summarizes a smoke run.
type Stats struct {
	Passed    int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Failures  []Result
}
