package smoke

import "os"

// ShowHelp prints usage information for the smoke runner.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Cadet Tracker Smoke Runner
==========================

Drives a running cadet tracker through create, read, update and delete
scenarios and reports a summary. Every row it creates is removed again.

Usage:
  go run ./cmd/smoke [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:5057")
  -rounds int
        Times each scenario runs (default 3)
  -workers int
        Scenarios in flight at once (default CPU cores)
  -timeout duration
        HTTP request timeout (default 10s)
  -verbose
        Log every passing scenario
  -help
        Show this help message
`)
}
