package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObservePlugin("ens", "found", time.Millisecond)
	m.IncResolution("hit")
	m.ObserveScore(80)
	m.IncAlert("email", "sent")
	m.IncRevalidation("successful")
	if m.Registry() != nil {
		t.Fatalf("nil registry expected")
	}
	h := m.Instrument(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(204) }))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != 204 {
		t.Fatalf("Instrument on nil should pass through")
	}
}

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.ObservePlugin("dns", "found", 30*time.Millisecond)
	m.ObservePlugin("dns", "found", 40*time.Millisecond)
	m.IncResolution("not_found")
	m.IncAlert("webhook", "failed")

	if got := testutil.ToFloat64(m.PluginResults.WithLabelValues("dns", "found")); got != 2 {
		t.Fatalf("plugin results = %v", got)
	}
	if got := testutil.ToFloat64(m.Resolutions.WithLabelValues("not_found")); got != 1 {
		t.Fatalf("resolutions = %v", got)
	}

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	for _, want := range []string{"payalias_plugin_duration_seconds", `payalias_alert_deliveries_total{channel="webhook",status="failed"} 1`, "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q", want)
		}
	}
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.IncResolution("hit")
	if got := testutil.ToFloat64(b.Resolutions.WithLabelValues("hit")); got != 0 {
		t.Fatalf("registries should not share state, got %v", got)
	}
}
