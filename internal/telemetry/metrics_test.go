package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDecision(t *testing.T) {
	before := testutil.ToFloat64(decisions.WithLabelValues("deny", "BLACKLIST_MATCH"))
	RecordDecision(false, "BLACKLIST_MATCH")
	RecordDecision(false, "BLACKLIST_MATCH")
	after := testutil.ToFloat64(decisions.WithLabelValues("deny", "BLACKLIST_MATCH"))
	if after-before != 2 {
		t.Fatalf("deny counter delta = %v, want 2", after-before)
	}

	before = testutil.ToFloat64(decisions.WithLabelValues("allow", "PRIVILEGED"))
	RecordDecision(true, "PRIVILEGED")
	if got := testutil.ToFloat64(decisions.WithLabelValues("allow", "PRIVILEGED")) - before; got != 1 {
		t.Fatalf("allow counter delta = %v, want 1", got)
	}
}

func TestRecordEditCommand(t *testing.T) {
	before := testutil.ToFloat64(editCommands.WithLabelValues("add", "ok"))
	RecordEditCommand("add", "ok")
	if got := testutil.ToFloat64(editCommands.WithLabelValues("add", "ok")) - before; got != 1 {
		t.Fatalf("counter delta = %v, want 1", got)
	}
}

func TestActiveSessionsGauge(t *testing.T) {
	t.Cleanup(func() { SetActiveSessionsSource(nil) })

	if got := testutil.ToFloat64(activeSessions); got != 0 {
		t.Fatalf("gauge without source = %v, want 0", got)
	}
	n := 3
	SetActiveSessionsSource(func() int { return n })
	if got := testutil.ToFloat64(activeSessions); got != 3 {
		t.Fatalf("gauge = %v, want 3", got)
	}
	n = 1
	if got := testutil.ToFloat64(activeSessions); got != 1 {
		t.Fatalf("gauge after change = %v, want 1", got)
	}
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/v1/rulesets/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpReqs.WithLabelValues("/v1/rulesets/{id}", "GET", "Not Found"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/rulesets/17", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	after := testutil.ToFloat64(httpReqs.WithLabelValues("/v1/rulesets/{id}", "GET", "Not Found"))
	if after-before != 1 {
		t.Fatalf("request counter delta = %v, want 1", after-before)
	}
}

func TestInit_Idempotent(t *testing.T) {
	Init()
	Init()
}
