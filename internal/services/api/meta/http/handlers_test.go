package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	phttp "payalias/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

var started = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func get(t *testing.T, d Deps, path string, out any) {
	t.Helper()
	mux := chi.NewRouter()
	Register(phttp.AdaptChi(mux), d)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("%s: status %d: %s", path, rr.Code, rr.Body.String())
	}
	env := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s: %v", path, err)
	}
}

func deps() Deps {
	return Deps{
		ServiceName: "payalias-api",
		StartedAt:   started,
		Now:         func() time.Time { return started.Add(90 * time.Second) },
	}
}

func TestReady(t *testing.T) {
	cases := []struct {
		name  string
		pg    any
		redis any
		want  string
	}{
		{"all ok", pinger{}, pinger{}, "ok"},
		{"redis optional", pinger{}, nil, "degraded"},
		{"pg down", pinger{err: errors.New("refused")}, pinger{}, "fail"},
		{"not a pinger", struct{}{}, pinger{}, "degraded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := deps()
			d.PG, d.Redis = tc.pg, tc.redis
			var got ReadyResponse
			get(t, d, "/ready", &got)
			if got.Status != tc.want || len(got.Checks) != 2 {
				t.Fatalf("ready = %+v, want %s", got, tc.want)
			}
		})
	}
}

func TestServiceAndVersion(t *testing.T) {
	var svc ServiceResponse
	get(t, deps(), "/service", &svc)
	if svc.Uptime != 90 || svc.Name != "payalias-api" {
		t.Fatalf("service = %+v", svc)
	}

	var v map[string]string
	get(t, deps(), "/version", &v)
	if v["service"] != "payalias-api" || v["version"] == "" {
		t.Fatalf("version = %v", v)
	}

	var h HealthResponse
	get(t, deps(), "/health", &h)
	if !h.OK || h.Started != "2026-03-01T12:00:00Z" {
		t.Fatalf("health = %+v", h)
	}
}
