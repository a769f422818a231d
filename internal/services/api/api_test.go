package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"payalias/internal/platform/config"
	"payalias/internal/platform/metrics"
	phttp "payalias/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func mount(t *testing.T) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := phttp.AdaptChi(chi.NewRouter())
	root := config.New()
	mods := Mount(ctx, r, Options{
		Root:          root,
		Config:        root.Prefix("CORE_API_"),
		Metrics:       metrics.New(),
		EnableMetrics: true,
	})
	if len(mods) != 3 {
		t.Fatalf("mounted %d modules, want 3", len(mods))
	}
	return r.Mux()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMountServesProbesAndMeta(t *testing.T) {
	h := mount(t)

	if rec := do(h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("/health = %d", rec.Code)
	}
	rec := do(h, http.MethodGet, "/api/v1/meta/version", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/meta/version = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), ServiceName) {
		t.Fatalf("version body missing service name: %s", rec.Body.String())
	}
	if rec := do(h, http.MethodGet, "/metrics", ""); rec.Code != http.StatusOK {
		t.Fatalf("/metrics = %d", rec.Code)
	}
}

func TestMountValidatesModuleRoutes(t *testing.T) {
	h := mount(t)

	if rec := do(h, http.MethodPost, "/api/v1/resolve", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("/resolve empty body = %d", rec.Code)
	}
	if rec := do(h, http.MethodPost, "/api/v1/verify", `{"domain":"example.com"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("/verify without addresses = %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/api/v1/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route = %d", rec.Code)
	}
}
