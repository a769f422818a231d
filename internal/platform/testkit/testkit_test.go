package testkit

import (
	"io"
	"net/http"
	"testing"
)

var addFn = func(a, b int) int { return a + b }

func TestSwapRestores(t *testing.T) {
	t.Run("swap", func(t *testing.T) {
		Swap(t, &addFn, func(int, int) int { return 99 })
		if addFn(1, 2) != 99 {
			t.Fatalf("swap not applied")
		}
	})
	if addFn(1, 2) != 3 {
		t.Fatalf("swap not restored")
	}
}

func TestServerRoutes(t *testing.T) {
	srv := Server(t, Routes{
		"GET /.well-known/alias.json": JSON(http.StatusOK, map[string]any{"addresses": map[string]string{}}),
		"/plain":                      Text(http.StatusOK, "oa1:btc"),
	})

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}

	if code, body := get("/.well-known/alias.json"); code != 200 {
		t.Fatalf("json route = %d %s", code, body)
	} else {
		MustContain(t, body, `"addresses"`)
	}
	if code, body := get("/plain"); code != 200 || body != "oa1:btc" {
		t.Fatalf("text route = %d %q", code, body)
	}
	if code, _ := get("/missing"); code != http.StatusNotFound {
		t.Fatalf("missing route = %d", code)
	}
}

func TestMustPanic(t *testing.T) {
	MustPanic(t, func() { panic("x") })
}
