package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/cadettracker/internal/smoke"
	"github.com/okian/cadettracker/pkg/logger"
)

// Default configuration constants.
const (
	defaultRounds      = 3
	defaultTimeout     = 10 * time.Second
	defaultTestTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:5057", "Base URL of the service")
		rounds    = flag.Int("rounds", defaultRounds, "Times each scenario runs")
		workers   = flag.Int("workers", runtime.NumCPU(), "Scenarios in flight at once")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFormat = flag.String("log-format", "text", "Log format: text or json")
		verbose   = flag.Bool("verbose", false, "Log every passing scenario")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoke.ShowHelp()
		return
	}

	if err := logger.InitWithWriter(os.Stdout, *logFormat); err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
	defer cancel()

	_, err := smoke.Run(ctx, &smoke.Config{
		BaseURL: *baseURL,
		Rounds:  *rounds,
		Workers: *workers,
		Timeout: *timeout,
		Verbose: *verbose,
	})
	if err != nil {
		_, _ = os.Stderr.WriteString("smoke run failed: " + err.Error() + "\n")
		cancel()
		stop()
		os.Exit(1)
	}
}
