package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"

	repository "github.com/okian/cadettracker/internal/adapters/repository"
)

func newRouter(deps *fakeDeps, opts ...Option) chi.Router {
	return NewServer(deps, fakeStats{}, opts...).Routes()
}

// headerCounter counts WriteHeader calls reaching the outermost writer.
type headerCounter struct {
	*httptest.ResponseRecorder
	headers int
}

func (c *headerCounter) WriteHeader(code int) {
	c.headers++
	c.ResponseRecorder.WriteHeader(code)
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(rec *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(rec.Body.Bytes(), v), ShouldBeNil)
}

func errorCode(rec *httptest.ResponseRecorder) string {
	var e errorResponse
	decode(rec, &e)
	return e.Code
}

func TestRootEndpoints(t *testing.T) {
	Convey("Given a server", t, func() {
		deps := newFakeDeps()
		h := newRouter(deps, WithVersion("1.4.0"))

		Convey("GET / returns the service identity without touching the database", func() {
			deps.pingErr = errors.New("down")
			rec := do(h, http.MethodGet, "/", "")
			So(rec.Code, ShouldEqual, http.StatusOK)

			var body map[string]string
			decode(rec, &body)
			So(body["service"], ShouldEqual, "cadet-tracker")
			So(body["version"], ShouldEqual, "1.4.0")
		})

		Convey("GET /healthz is JSON", func() {
			rec := do(h, http.MethodGet, "/healthz", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
		})

		Convey("GET /api/test answers ok 1", func() {
			rec := do(h, http.MethodGet, "/api/test", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(rec.Body.String()), ShouldEqual, `{"ok":1}`)
		})

		Convey("GET /api/test with the database down is a 500 that hides the cause", func() {
			deps.pingErr = errors.New("dial tcp 10.0.0.5:3306: connection refused")
			rec := do(h, http.MethodGet, "/api/test", "")
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(errorCode(rec), ShouldEqual, "internal_error")
			So(rec.Body.String(), ShouldNotContainSubstring, "10.0.0.5")
		})

		Convey("GET /api/diag reports the schema and version", func() {
			rec := do(h, http.MethodGet, "/api/diag", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"database":"cadet_tracker"`)
		})

		Convey("GET /api/stats returns provider stats", func() {
			rec := do(h, http.MethodGet, "/api/stats", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"openConnections":2`)
		})

		Convey("GET /metrics exposes request counters", func() {
			do(h, http.MethodGet, "/api/test", "")
			rec := do(h, http.MethodGet, "/metrics", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "cadet_api_http_requests_total")
			So(rec.Body.String(), ShouldContainSubstring, `endpoint="/api/test"`)
		})

		Convey("Unknown routes are 404", func() {
			rec := do(h, http.MethodGet, "/api/nope", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestCadetEndpoints(t *testing.T) {
	Convey("Given a server with an empty roster", t, func() {
		deps := newFakeDeps()
		h := newRouter(deps)

		Convey("When a cadet is created", func() {
			rec := do(h, http.MethodPost, "/api/cadets",
				`{"cap_id":"612345","first_name":"Ada","last_name":"Lovelace","date_of_birth":"2009-12-10"}`)
			So(rec.Code, ShouldEqual, http.StatusCreated)

			var created map[string]int64
			decode(rec, &created)
			id := created["cadet_id"]
			So(id, ShouldBeGreaterThan, 0)

			Convey("Then fetching it returns the submitted fields", func() {
				rec := do(h, http.MethodGet, fmt.Sprintf("/api/cadets/%d", id), "")
				So(rec.Code, ShouldEqual, http.StatusOK)

				var got map[string]any
				decode(rec, &got)
				So(got["cadet_id"], ShouldEqual, float64(id))
				So(got["cap_id"], ShouldEqual, "612345")
				So(got["first_name"], ShouldEqual, "Ada")
				So(got["last_name"], ShouldEqual, "Lovelace")
				So(got["date_of_birth"], ShouldEqual, "2009-12-10")
			})

			Convey("Then a partial update keeps the fields it does not name", func() {
				rec := do(h, http.MethodPut, fmt.Sprintf("/api/cadets/%d", id), `{"first_name":"Augusta"}`)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(rec.Body.String()), ShouldEqual, `{"affected_rows":1}`)

				c := deps.cadets[id]
				So(c.FirstName, ShouldEqual, "Augusta")
				So(c.LastName, ShouldEqual, "Lovelace")
				So(c.CapID, ShouldEqual, "612345")
			})

			Convey("Then an update with no fields is a 400", func() {
				rec := do(h, http.MethodPut, fmt.Sprintf("/api/cadets/%d", id), `{}`)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(rec), ShouldEqual, "no_fields")
			})

			Convey("Then search by CAP id finds it", func() {
				rec := do(h, http.MethodGet, "/api/cadets/search?q=612345", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "Lovelace")
			})

			Convey("Then the profile and promotion status resolve", func() {
				So(do(h, http.MethodGet, fmt.Sprintf("/api/cadets/%d/profile", id), "").Code, ShouldEqual, http.StatusOK)
				So(do(h, http.MethodGet, fmt.Sprintf("/api/cadets/%d/promotion", id), "").Code, ShouldEqual, http.StatusOK)
			})

			Convey("Then deleting it twice reports one row then zero", func() {
				rec := do(h, http.MethodDelete, fmt.Sprintf("/api/cadets/%d", id), "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(rec.Body.String()), ShouldEqual, `{"affected_rows":1}`)

				rec = do(h, http.MethodDelete, fmt.Sprintf("/api/cadets/%d", id), "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(rec.Body.String()), ShouldEqual, `{"affected_rows":0}`)
			})
		})

		Convey("An empty search lists everyone", func() {
			do(h, http.MethodPost, "/api/cadets", `{"cap_id":"1","first_name":"A","last_name":"B"}`)
			do(h, http.MethodPost, "/api/cadets", `{"cap_id":"2","first_name":"C","last_name":"D"}`)

			var out []map[string]any
			rec := do(h, http.MethodGet, "/api/cadets/search?q=", "")
			decode(rec, &out)
			So(out, ShouldHaveLength, 2)
		})

		Convey("An empty roster lists as an empty array", func() {
			rec := do(h, http.MethodGet, "/api/cadets", "")
			So(strings.TrimSpace(rec.Body.String()), ShouldEqual, "[]")
		})

		Convey("A missing cadet is a 404", func() {
			rec := do(h, http.MethodGet, "/api/cadets/999", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(rec), ShouldEqual, "not_found")

			So(do(h, http.MethodGet, "/api/cadets/999/profile", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(h, http.MethodGet, "/api/cadets/999/promotion", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("A non-numeric or non-positive id is a 400", func() {
			So(do(h, http.MethodGet, "/api/cadets/abc", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/api/cadets/0", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A create missing a required field is a validation error", func() {
			rec := do(h, http.MethodPost, "/api/cadets", `{"cap_id":"612345","last_name":"Lovelace"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(rec), ShouldEqual, "validation_error")
			So(rec.Body.String(), ShouldContainSubstring, "first_name is required")
		})

		Convey("A malformed or empty body is a bad request", func() {
			rec := do(h, http.MethodPost, "/api/cadets", `{"cap_id":`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(rec), ShouldEqual, "bad_request")

			rec = do(h, http.MethodPost, "/api/cadets", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(rec), ShouldEqual, "bad_request")
		})
	})
}

func TestRequirementEndpoints(t *testing.T) {
	Convey("Given a server", t, func() {
		deps := newFakeDeps()
		h := newRouter(deps)

		Convey("Listing requirements needs a positive rank_id", func() {
			So(do(h, http.MethodGet, "/api/requirements", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/api/requirements?rank_id=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/api/requirements?rank_id=x", "").Code, ShouldEqual, http.StatusBadRequest)

			rec := do(h, http.MethodGet, "/api/requirements?rank_id=2", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.lastRankID, ShouldEqual, 2)
		})

		Convey("Creating passes the optional rank link through", func() {
			rec := do(h, http.MethodPost, "/api/requirements", `{"requirement_name":"Drill test","rank_id":3}`)
			So(rec.Code, ShouldEqual, http.StatusCreated)
			So(strings.TrimSpace(rec.Body.String()), ShouldEqual, `{"requirement_id":4}`)
			So(deps.lastRankID, ShouldEqual, 3)

			rec = do(h, http.MethodPost, "/api/requirements", `{"requirement_name":"Essay"}`)
			So(rec.Code, ShouldEqual, http.StatusCreated)
			So(deps.lastRankID, ShouldEqual, 0)
		})

		Convey("Unlink needs both ids", func() {
			So(do(h, http.MethodDelete, "/api/requirements/unlink?rank_id=1", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodDelete, "/api/requirements/unlink?req_id=1", "").Code, ShouldEqual, http.StatusBadRequest)

			rec := do(h, http.MethodDelete, "/api/requirements/unlink?rank_id=1&req_id=5", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.lastRankID, ShouldEqual, 1)
			So(deps.lastReqID, ShouldEqual, 5)
		})

		Convey("Link needs both ids", func() {
			So(do(h, http.MethodPost, "/api/requirements/link?rank_id=1", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/api/requirements/link?rank_id=1&req_id=2", "").Code, ShouldEqual, http.StatusOK)
		})

		Convey("Completing a requirement leaves the date to the store", func() {
			rec := do(h, http.MethodPost, "/api/cadets/1/requirements/6", "")
			So(rec.Code, ShouldEqual, http.StatusCreated)
			So(deps.lastReqID, ShouldEqual, 6)
			So(deps.lastOn.IsZero(), ShouldBeTrue)

			So(do(h, http.MethodDelete, "/api/cadets/1/requirements/6", "").Code, ShouldEqual, http.StatusOK)
		})

		Convey("Awarding a rank requires rank_id", func() {
			So(do(h, http.MethodPost, "/api/cadets/1/ranks", `{}`).Code, ShouldEqual, http.StatusBadRequest)

			rec := do(h, http.MethodPost, "/api/cadets/1/ranks", `{"rank_id":2,"date_received":"2024-03-01"}`)
			So(rec.Code, ShouldEqual, http.StatusCreated)
			So(deps.lastRankID, ShouldEqual, 2)
			So(deps.lastOn.Format("2006-01-02"), ShouldEqual, "2024-03-01")
		})
	})
}

func TestOtherEntityEndpoints(t *testing.T) {
	Convey("Given a server", t, func() {
		deps := newFakeDeps()
		h := newRouter(deps)

		Convey("Reports use their wire names", func() {
			rec := do(h, http.MethodPost, "/api/reports", `{"cadet_cadet_id":1,"report_type":"uniform","Incident_date":"2024-05-01"}`)
			So(rec.Code, ShouldEqual, http.StatusCreated)
			So(strings.TrimSpace(rec.Body.String()), ShouldEqual, `{"report_id":7}`)

			rec = do(h, http.MethodPost, "/api/reports", `{"report_type":"uniform"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)

			So(do(h, http.MethodGet, "/api/reports/7", "").Code, ShouldEqual, http.StatusOK)
			So(do(h, http.MethodPut, "/api/reports/7", `{"resolved":true}`).Code, ShouldEqual, http.StatusOK)
			So(do(h, http.MethodDelete, "/api/reports/7", "").Code, ShouldEqual, http.StatusOK)
		})

		Convey("Reports accept resolved as 0/1 or a boolean", func() {
			rec := do(h, http.MethodPost, "/api/reports", `{"cadet_cadet_id":1,"report_type":"uniform","resolved":1}`)
			So(rec.Code, ShouldEqual, http.StatusCreated)
			So(bool(deps.lastReport.Resolved), ShouldBeTrue)

			rec = do(h, http.MethodPost, "/api/reports", `{"cadet_cadet_id":1,"report_type":"uniform","resolved":0}`)
			So(rec.Code, ShouldEqual, http.StatusCreated)
			So(bool(deps.lastReport.Resolved), ShouldBeFalse)

			So(do(h, http.MethodPut, "/api/reports/7", `{"resolved":1}`).Code, ShouldEqual, http.StatusOK)
			So(deps.lastReportPatch.Resolved, ShouldNotBeNil)
			So(bool(*deps.lastReportPatch.Resolved), ShouldBeTrue)

			So(do(h, http.MethodPut, "/api/reports/7", `{"resolved":false}`).Code, ShouldEqual, http.StatusOK)
			So(bool(*deps.lastReportPatch.Resolved), ShouldBeFalse)

			rec = do(h, http.MethodPut, "/api/reports/7", `{"resolved":2}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(rec.Body.String(), ShouldContainSubstring, "expected 0, 1, true or false")
		})

		Convey("Dates from other clients are accepted", func() {
			for _, dob := range []string{"2005-01-01T00:00:00", "2005-01-01T00:00:00.000"} {
				rec := do(h, http.MethodPost, "/api/cadets", `{"cap_id":"555","first_name":"Ann","last_name":"Lee","date_of_birth":"`+dob+`"}`)
				So(rec.Code, ShouldEqual, http.StatusCreated)
			}
		})

		Convey("A malformed date names the expected format", func() {
			rec := do(h, http.MethodPost, "/api/cadets", `{"cap_id":"555","first_name":"Ann","last_name":"Lee","date_of_birth":"01/02/2005"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(rec.Body.String(), ShouldContainSubstring, "YYYY-MM-DD")
			So(rec.Body.String(), ShouldNotContainSubstring, "malformed JSON body")
		})

		Convey("Positions support assignment", func() {
			So(do(h, http.MethodPost, "/api/positions", `{"position_name":"Flight Sergeant","line":1}`).Code, ShouldEqual, http.StatusCreated)
			So(do(h, http.MethodPost, "/api/positions/3/cadets", `{"cadet_id":1}`).Code, ShouldEqual, http.StatusCreated)
			So(do(h, http.MethodPost, "/api/positions/3/cadets", `{}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodDelete, "/api/positions/3/cadets/1", "").Code, ShouldEqual, http.StatusOK)
			So(do(h, http.MethodDelete, "/api/positions/3", "").Code, ShouldEqual, http.StatusOK)

			rec := do(h, http.MethodGet, "/api/cadets/1/positions", "")
			So(rec.Body.String(), ShouldContainSubstring, `"position_name":"Flight Sergeant"`)
		})

		Convey("Inspections round trip", func() {
			rec := do(h, http.MethodPost, "/api/inspections", `{"cadet_id":1,"total_score":97.5,"rating":"excellent"}`)
			So(rec.Code, ShouldEqual, http.StatusCreated)
			So(strings.TrimSpace(rec.Body.String()), ShouldEqual, `{"inspection_id":9}`)

			rec = do(h, http.MethodGet, "/api/inspections/9", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"rating":"excellent"`)

			So(do(h, http.MethodDelete, "/api/inspections/9", "").Code, ShouldEqual, http.StatusOK)
			So(do(h, http.MethodGet, "/api/cadets/1/inspections", "").Code, ShouldEqual, http.StatusOK)
		})

		Convey("Ranks list in order", func() {
			rec := do(h, http.MethodGet, "/api/ranks", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"rank_order":1`)
		})
	})
}

func TestErrorMapping(t *testing.T) {
	Convey("Given a store that fails", t, func() {
		deps := newFakeDeps()
		h := newRouter(deps)

		cases := []struct {
			err    error
			status int
			code   string
		}{
			{fmt.Errorf("delete_report: %w", repository.ErrNotFound), http.StatusNotFound, "not_found"},
			{fmt.Errorf("create_report: %w: Cannot add or update a child row", repository.ErrConflict), http.StatusConflict, "conflict"},
			{fmt.Errorf("list_reports: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout"},
			{errors.New("Error 1064: You have an error in your SQL syntax"), http.StatusInternalServerError, "internal_error"},
		}
		for _, tc := range cases {
			deps.err = tc.err
			rec := do(h, http.MethodGet, "/api/reports", "")
			So(rec.Code, ShouldEqual, tc.status)
			So(errorCode(rec), ShouldEqual, tc.code)
			So(rec.Body.String(), ShouldNotContainSubstring, "Error 10")
		}
	})

	Convey("Given a store slower than the request timeout", t, func() {
		deps := newFakeDeps()
		deps.block = true
		h := newRouter(deps, WithRequestTimeout(20*time.Millisecond))

		rec := &headerCounter{ResponseRecorder: httptest.NewRecorder()}
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil))

		Convey("Then the status is written once, by the timeout", func() {
			So(rec.Code, ShouldEqual, http.StatusGatewayTimeout)
			So(rec.headers, ShouldEqual, 1)
		})
	})

	Convey("Given status codes", t, func() {
		So(getErrorType(504), ShouldEqual, "timeout")
		So(getErrorType(500), ShouldEqual, "server_error")
		So(getErrorType(429), ShouldEqual, "rate_limit")
		So(getErrorType(409), ShouldEqual, "conflict")
		So(getErrorType(404), ShouldEqual, "not_found")
		So(getErrorType(400), ShouldEqual, "client_error")
		So(getErrorSeverity(503), ShouldEqual, "high")
		So(getErrorSeverity(404), ShouldEqual, "medium")
		So(getErrorSeverity(200), ShouldEqual, "low")
	})
}

func TestChiMiddleware(t *testing.T) {
	Convey("Given a rate limit of one request per minute", t, func() {
		cfg := DefaultMiddlewareConfig()
		cfg.RateLimitRequests = 1
		cfg.RateLimitWindow = time.Minute
		h := newRouter(newFakeDeps(), WithMiddlewareConfig(cfg))

		Convey("The second /api request is rejected", func() {
			So(do(h, http.MethodGet, "/api/test", "").Code, ShouldEqual, http.StatusOK)
			rec := do(h, http.MethodGet, "/api/test", "")
			So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
			So(errorCode(rec), ShouldEqual, "rate_limited")
		})

		Convey("Health checks are not limited", func() {
			for i := 0; i < 3; i++ {
				So(do(h, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
			}
		})
	})

	Convey("Given rate limiting is disabled", t, func() {
		cfg := DefaultMiddlewareConfig()
		cfg.RateLimitRequests = 1
		cfg.RateLimitDisabled = true
		h := newRouter(newFakeDeps(), WithMiddlewareConfig(cfg))

		for i := 0; i < 3; i++ {
			So(do(h, http.MethodGet, "/api/test", "").Code, ShouldEqual, http.StatusOK)
		}
	})

	Convey("Given a CORS preflight from any origin", t, func() {
		h := newRouter(newFakeDeps())
		req := httptest.NewRequest(http.MethodOptions, "/api/cadets", nil)
		req.Header.Set("Origin", "https://squadron.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
		req.Header.Set("Access-Control-Request-Headers", "Authorization, X-Client-Version")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		So(rec.Header().Get("Access-Control-Allow-Methods"), ShouldContainSubstring, http.MethodPut)
		So(rec.Header().Get("Access-Control-Allow-Headers"), ShouldContainSubstring, "Authorization")
		So(rec.Header().Get("Access-Control-Allow-Headers"), ShouldContainSubstring, "X-Client-Version")
	})
}
