package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/cadettracker/internal/adapters/http/api"
	"github.com/okian/cadettracker/internal/adapters/http/swagger"
	repository "github.com/okian/cadettracker/internal/adapters/repository"
	service "github.com/okian/cadettracker/internal/app"
	"github.com/okian/cadettracker/internal/config"
	"github.com/okian/cadettracker/pkg/logger"
	"github.com/okian/cadettracker/pkg/metrics"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		// The logger may not exist yet.
		_, _ = os.Stderr.WriteString("cadet tracker: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// run loads configuration, verifies the database and serves until ctx ends.
// It returns before listening when the database is unreachable.
func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := repository.Open(ctx, storeSettings(cfg),
		repository.WithLogger(log.Named("store")),
		repository.WithPoolStatsInterval(cfg.PoolStatsInterval),
	)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	svc := service.New(store,
		service.WithLogger(log.Named("service")),
		service.WithVersion(version),
	)
	startCtx, cancelStart := context.WithTimeout(ctx, cfg.DBConnectTimeout+time.Second)
	err = svc.Start(startCtx)
	cancelStart()
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           buildHandler(ctx, cfg, svc, log.Named("http")),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// storeSettings maps process configuration onto the store's connection settings.
func storeSettings(cfg *config.Config) repository.Settings {
	return repository.Settings{
		Addr:            cfg.DBAddr(),
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		Name:            cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnectTimeout:  cfg.DBConnectTimeout,
	}
}

func middlewareConfig(cfg *config.Config) *api.MiddlewareConfig {
	mc := api.DefaultMiddlewareConfig()
	if len(cfg.CORSAllowedOrigins) > 0 {
		mc.CORSAllowedOrigins = cfg.CORSAllowedOrigins
	}
	mc.RateLimitRequests = cfg.RateLimitRequests
	mc.RateLimitWindow = cfg.RateLimitWindow
	mc.RateLimitDisabled = cfg.RateLimitDisabled
	return mc
}

// buildHandler wires the business API and the docs onto one router.
func buildHandler(ctx context.Context, cfg *config.Config, svc *service.Service, log logger.Logger) http.Handler {
	apiServer := api.NewServer(svc, svc,
		api.WithLogger(log),
		api.WithMiddlewareConfig(middlewareConfig(cfg)),
		api.WithRequestTimeout(cfg.RequestTimeout),
		api.WithVersion(version),
	)
	router := apiServer.Routes()

	// Register ReDoc under /api-docs
	swagger.Register(ctx, router)
	return router
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Calculate average GC pause time
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
