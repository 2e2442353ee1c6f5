package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newOpsRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware("/healthz"))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/v1/profiles/{id}", func(r chi.Router) {
		r.Get("/pending", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"pending":[]}`))
		})
		r.Get("/relationships", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
	})
	return r
}

func serve(h http.Handler, method, path string) int {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, http.NoBody))
	return rr.Code
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	h := newOpsRouter()
	const route = "/v1/profiles/{id}/pending"
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", route, "200"))

	for _, id := range []string{"a", "b", "c"} {
		if code := serve(h, "GET", "/v1/profiles/"+id+"/pending"); code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", route, "200")) - before
	if got != 3 {
		t.Errorf("expected 3 requests under one route label, got %v", got)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected duration observations")
	}
}

func TestMiddleware_RecordsErrorStatus(t *testing.T) {
	h := newOpsRouter()
	const route = "/v1/profiles/{id}/relationships"
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", route, "500"))

	serve(h, "GET", "/v1/profiles/x/relationships")

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", route, "500")) - before; got != 1 {
		t.Errorf("expected one 500 sample, got %v", got)
	}
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	h := newOpsRouter()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", RouteUnmatched, "404"))

	if code := serve(h, "GET", "/nope/123"); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", RouteUnmatched, "404")) - before; got != 1 {
		t.Errorf("expected unmatched sample, got %v", got)
	}
}

func TestMiddleware_SkipsHealthChecks(t *testing.T) {
	h := newOpsRouter()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/healthz", "200"))

	serve(h, "GET", "/healthz")

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/healthz", "200")); got != before {
		t.Errorf("health check must not be measured, counter moved %v -> %v", before, got)
	}
}

func TestMiddleware_InFlightReturnsToZero(t *testing.T) {
	h := newOpsRouter()
	serve(h, "GET", "/v1/profiles/a/pending")

	if v := testutil.ToFloat64(httpInFlight); v != 0 {
		t.Errorf("expected in-flight 0 after request, got %v", v)
	}
}

func TestRegisterHTTPMetrics_Idempotent(t *testing.T) {
	RegisterHTTPMetrics()
	RegisterHTTPMetrics()
}
