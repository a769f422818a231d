package strings

import (
	"testing"

	"payalias/internal/platform/testkit"
)

func TestMustPrefix(t *testing.T) {
	cases := map[string]string{
		"resolve":     "/resolve",
		"/resolve/":   "/resolve",
		"  /trust  ":  "/trust",
		"api/v1/meta": "/api/v1/meta",
	}
	for in, want := range cases {
		if got := MustPrefix(in); got != want {
			t.Fatalf("MustPrefix(%q) = %q, want %q", in, got, want)
		}
	}
	testkit.MustPanic(t, func() { MustPrefix(" / ") })
}

func TestNullIfBlank(t *testing.T) {
	if NullIfBlank("  ") != nil {
		t.Fatalf("blank should be nil")
	}
	if NullIfBlank("x") != "x" {
		t.Fatalf("non blank should pass through")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty("", " ", "rule-secret", "global"); got != "rule-secret" {
		t.Fatalf("FirstNonEmpty = %q", got)
	}
	if FirstNonEmpty() != "" {
		t.Fatalf("no args should be empty")
	}
}
