package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, "impact_http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, "impact_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestObserveBackendCall(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveBackendCall("users.list", "ok", 20*time.Millisecond)
	metrics.ObserveBackendCall("users.list", "not_found", time.Millisecond)
	metrics.ObserveBackendCall("", "transport", time.Millisecond)

	body := scrape(t, metrics)
	for _, want := range []string{
		`impact_backend_calls_total{op="users.list",outcome="ok"} 1`,
		`impact_backend_calls_total{op="users.list",outcome="not_found"} 1`,
		`impact_backend_calls_total{op="unknown",outcome="transport"} 1`,
		`impact_backend_call_duration_seconds_count{op="users.list"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in: %s", want, body)
		}
	}
}

func TestObserveCache(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveCache("stats", true)
	metrics.ObserveCache("stats", false)
	metrics.ObserveCache("stats", false)

	body := scrape(t, metrics)
	if !strings.Contains(body, `impact_cache_lookups_total{cache="stats",result="miss"} 2`) {
		t.Fatalf("cache misses not recorded: %s", body)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveBackendCall("x", "ok", time.Second)
	metrics.ObserveCache("x", true)
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
