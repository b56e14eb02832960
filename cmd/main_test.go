package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/smartystreets/goconvey/convey"

	repository "github.com/okian/cadettracker/internal/adapters/repository"
	service "github.com/okian/cadettracker/internal/app"
	"github.com/okian/cadettracker/internal/config"
	"github.com/okian/cadettracker/pkg/logger"
)

func testConfig() *config.Config {
	cfg := config.New()
	cfg.DBUser = "tracker"
	cfg.DBPassword = "secret"
	return cfg
}

func TestStoreSettings(t *testing.T) {
	convey.Convey("Given a loaded configuration", t, func() {
		cfg := testConfig()
		cfg.DBHost = "db.internal"
		cfg.DBPort = 3307

		convey.Convey("Then the store settings carry the connection and pool values", func() {
			s := storeSettings(cfg)
			convey.So(s.Addr, convey.ShouldEqual, "db.internal:3307")
			convey.So(s.User, convey.ShouldEqual, "tracker")
			convey.So(s.Password, convey.ShouldEqual, "secret")
			convey.So(s.Name, convey.ShouldEqual, "cadet_tracker")
			convey.So(s.MaxOpenConns, convey.ShouldEqual, cfg.DBMaxOpenConns)
			convey.So(s.ConnectTimeout, convey.ShouldEqual, cfg.DBConnectTimeout)
		})

		convey.Convey("Then the middleware config follows the rate limit and CORS settings", func() {
			cfg.CORSAllowedOrigins = []string{"https://squadron.example"}
			cfg.RateLimitRequests = 10
			cfg.RateLimitDisabled = true

			mc := middlewareConfig(cfg)
			convey.So(mc.CORSAllowedOrigins, convey.ShouldResemble, []string{"https://squadron.example"})
			convey.So(mc.RateLimitRequests, convey.ShouldEqual, 10)
			convey.So(mc.RateLimitDisabled, convey.ShouldBeTrue)
		})
	})
}

func TestBuildHandler(t *testing.T) {
	convey.Convey("Given a started service over a mocked database", t, func() {
		db, mock, err := sqlmock.New()
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = db.Close() }()

		ctx := context.Background()
		svc := service.New(repository.New(ctx, db), service.WithLogger(logger.Nop()))
		mock.ExpectQuery(`SELECT 1`).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)

		h := buildHandler(ctx, testConfig(), svc, logger.Nop())

		convey.Convey("Then the API and the docs share one router", func() {
			for _, path := range []string{"/", "/healthz", "/api-docs", "/openapi.yaml", "/api/stats"} {
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then /api/test reaches the database", func() {
			mock.ExpectQuery(`SELECT 1`).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/test", http.NoBody))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(mock.ExpectationsWereMet(), convey.ShouldBeNil)
		})
	})
}

func TestRunStartupContract(t *testing.T) {
	convey.Convey("Given no database credentials", t, func() {
		t.Setenv("CADET_DB_USER", "")
		t.Setenv("CADET_DB_PASSWORD", "")

		convey.Convey("Then run fails before opening the database", func() {
			err := run(context.Background())
			convey.So(errors.Is(err, config.ErrMissingCredentials), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given an unreachable database", t, func() {
		t.Setenv("CADET_DB_USER", "tracker")
		t.Setenv("CADET_DB_PASSWORD", "secret")
		t.Setenv("CADET_DB_HOST", "127.0.0.1")
		t.Setenv("CADET_DB_PORT", "1")
		t.Setenv("CADET_DB_CONNECT_TIMEOUT", "200ms")
		t.Setenv("CADET_ADDR", "127.0.0.1:0")

		convey.Convey("Then run returns without serving", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			err := run(ctx)
			convey.So(errors.Is(err, service.ErrStoreUnavailable), convey.ShouldBeTrue)
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop exits when its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("metrics updater did not stop")
			}
		})
	})
}
