package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"payalias/internal/platform/config"
)

func TestAdaptChiRouteAndGroup(t *testing.T) {
	srv := NewServer(config.New())
	r := srv.Router()

	r.Route("/api/v1", func(api Router) {
		api.Use(func(next stdhttp.Handler) stdhttp.Handler {
			return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
				w.Header().Set("X-Scope", "v1")
				next.ServeHTTP(w, req)
			})
		})
		api.Group(func(g Router) {
			g.Post("/resolve", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { w.WriteHeader(201) })
		})
		api.Get("/meta/version", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { _, _ = w.Write([]byte("v")) })
	})
	r.Handle("/metrics", stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { w.WriteHeader(204) }))

	do := func(method, path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		r.Mux().ServeHTTP(rr, httptest.NewRequest(method, path, nil))
		return rr
	}
	if rr := do(stdhttp.MethodPost, "/api/v1/resolve"); rr.Code != 201 || rr.Header().Get("X-Scope") != "v1" {
		t.Fatalf("resolve = %d %v", rr.Code, rr.Header())
	}
	if rr := do(stdhttp.MethodGet, "/api/v1/meta/version"); rr.Body.String() != "v" {
		t.Fatalf("version body = %q", rr.Body.String())
	}
	if rr := do(stdhttp.MethodGet, "/metrics"); rr.Code != 204 {
		t.Fatalf("metrics = %d", rr.Code)
	}
	if rr := do(stdhttp.MethodGet, "/api/v1/resolve"); rr.Code != stdhttp.StatusMethodNotAllowed {
		t.Fatalf("wrong verb = %d", rr.Code)
	}
	if srv.Addr() != ":4000" {
		t.Fatalf("default addr = %q", srv.Addr())
	}
}

func TestMountProfiler(t *testing.T) {
	srv := NewServer(config.New())
	r := srv.Router()
	MountProfiler(r, "/debug", false)
	rr := httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, httptest.NewRequest(stdhttp.MethodGet, "/debug/pprof/", nil))
	if rr.Code != stdhttp.StatusNotFound {
		t.Fatalf("disabled profiler should 404, got %d", rr.Code)
	}

	r = NewServer(config.New()).Router()
	MountProfiler(r, "/debug", true)
	rr = httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, httptest.NewRequest(stdhttp.MethodGet, "/debug/pprof/cmdline", nil))
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("profiler cmdline = %d", rr.Code)
	}
}
