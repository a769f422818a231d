package http

import (
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "payalias/internal/platform/errors"
	pnet "payalias/internal/platform/net"
)

func serve(h Handler, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(stdhttp.MethodPost, "/x", strings.NewReader(body))
	r = r.WithContext(pnet.WithRequestID(r.Context(), "rid"))
	rr := httptest.NewRecorder()
	h(rr, r)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return env
}

type scoreIn struct {
	Domain string `json:"domain" validate:"required"`
}

func TestJSONHandlerSuccess(t *testing.T) {
	h := JSONHandler(func(_ *stdhttp.Request, in scoreIn) (any, error) {
		return map[string]string{"domain": in.Domain}, nil
	})
	rr := serve(h, `{"domain":"pay.example"}`)
	env := decode(t, rr)
	if rr.Code != 200 || env.StatusCode != 200 || env.RequestID != "rid" {
		t.Fatalf("envelope = %+v", env)
	}
	if !strings.Contains(rr.Body.String(), `"domain":"pay.example"`) {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestJSONHandlerErrors(t *testing.T) {
	called := false
	h := JSONHandler(func(_ *stdhttp.Request, _ scoreIn) (any, error) {
		called = true
		return nil, perr.Upstreamf("doh down")
	})

	rr := serve(h, `{}`)
	env := decode(t, rr)
	if rr.Code != stdhttp.StatusBadRequest || env.Code != perr.ErrorCodeValidation || env.Field != "domain" {
		t.Fatalf("validation envelope = %d %+v", rr.Code, env)
	}
	if called {
		t.Fatalf("handler ran on invalid input")
	}

	rr = serve(h, `{"domain":"x"}`)
	env = decode(t, rr)
	if rr.Code != stdhttp.StatusBadGateway || env.Error != "doh down" {
		t.Fatalf("upstream envelope = %d %+v", rr.Code, env)
	}
}

func TestNoBodyHandlerPassesResponse(t *testing.T) {
	h := NoBodyHandler(func(*stdhttp.Request) (any, error) { return NoContent(), nil })
	if rr := serve(h, ""); rr.Code != stdhttp.StatusNoContent || rr.Body.Len() != 0 {
		t.Fatalf("got %d %q", rr.Code, rr.Body.String())
	}
	h = NoBodyHandler(func(*stdhttp.Request) (any, error) { return nil, errors.New("plain") })
	if rr := serve(h, ""); rr.Code != stdhttp.StatusInternalServerError {
		t.Fatalf("plain error status = %d", rr.Code)
	}
}

func TestResponseHeaders(t *testing.T) {
	h := Handle(func(*stdhttp.Request) Response {
		return Response{Status: stdhttp.StatusAccepted, Body: "queued", Header: stdhttp.Header{"X-Cache": {"hit"}}}
	})
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(stdhttp.MethodGet, "/", nil))
	if rr.Code != stdhttp.StatusAccepted || rr.Header().Get("X-Cache") != "hit" {
		t.Fatalf("got %d %v", rr.Code, rr.Header())
	}
}
