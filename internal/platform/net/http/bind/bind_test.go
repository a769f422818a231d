package bind

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "payalias/internal/platform/errors"
)

type resolveIn struct {
	Alias string `json:"alias" validate:"required,max=16"`
	Chain string `json:"chain,omitempty" validate:"omitempty,testchain"`
}

func init() {
	if err := RegisterTag("testchain", "{0} must be a supported chain", func(fl FieldLevel) bool {
		return fl.Field().String() == "bitcoin"
	}); err != nil {
		panic(err)
	}
}

func req(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/resolve", strings.NewReader(body))
}

func TestParseJSONOK(t *testing.T) {
	got, err := ParseJSON[resolveIn](req(`{"alias":"pay.example","chain":"bitcoin"}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if got.Alias != "pay.example" || got.Chain != "bitcoin" {
		t.Fatalf("got %+v", got)
	}
}

func TestParseJSONDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"empty":    ``,
		"broken":   `{`,
		"unknown":  `{"alias":"a","extra":1}`,
		"trailing": `{"alias":"a"}{"alias":"b"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJSON[resolveIn](req(body))
			if !perr.IsCode(err, perr.ErrorCodeJSON) {
				t.Fatalf("want json code, got %v", err)
			}
		})
	}
}

func TestParseJSONValidation(t *testing.T) {
	_, err := ParseJSON[resolveIn](req(`{"alias":""}`))
	e, ok := perr.As(err)
	if !ok || e.Code() != perr.ErrorCodeValidation || e.Field() != "alias" {
		t.Fatalf("want validation on alias, got %v", err)
	}

	_, err = ParseJSON[resolveIn](req(`{"alias":"aaaaaaaaaaaaaaaaaaaa"}`))
	if !strings.Contains(err.Error(), "alias must be at most 16") {
		t.Fatalf("short max message, got %q", err.Error())
	}

	_, err = ParseJSON[resolveIn](req(`{"alias":"a","chain":"dogecoin"}`))
	if err == nil || err.Error() != "chain must be a supported chain" {
		t.Fatalf("custom tag message, got %v", err)
	}
}

func TestParseJSONMaxBytes(t *testing.T) {
	_, err := ParseJSON[resolveIn](req(`{"alias":"abcdef"}`), Options{MaxBytes: 5})
	if !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("truncated body should be a json error, got %v", err)
	}
}
