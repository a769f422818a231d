package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"payalias/internal/adapters/upstream"
	perr "payalias/internal/platform/errors"
	"payalias/internal/platform/testkit"
)

func TestSignVerify(t *testing.T) {
	body := []byte(`{"event":"address.changed"}`)
	sig := Sign("s3cret", body)
	if !strings.HasPrefix(sig, "sha256=") || len(sig) != len("sha256=")+64 {
		t.Fatalf("unexpected signature format: %s", sig)
	}
	if !Verify("s3cret", body, sig) || Verify("other", body, sig) || Verify("s3cret", append(body, ' '), sig) {
		t.Fatal("verify mismatch")
	}
}

func TestWebhookPostSigned(t *testing.T) {
	var got Payload
	var headers http.Header
	srv := testkit.Server(t, testkit.Routes{
		"POST /hook": func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			headers = r.Header.Clone()
			if !Verify("k", body, r.Header.Get(HeaderSignature)) {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.Unmarshal(body, &got)
			w.WriteHeader(http.StatusNoContent)
		},
	})

	wh := NewWebhook(upstream.New("t", upstream.Options{}))
	wh.newID = func() string { return "d-1" }
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d, err := wh.Post(context.Background(), srv.URL+"/hook", "k", Payload{
		Event: EventAddressChanged, Alias: "pay.example.com", OldAddress: "a", NewAddress: "b", Currency: "BTC", Timestamp: ts,
	})
	if err != nil || !d.Signed || d.ID != "d-1" || d.Status != http.StatusNoContent {
		t.Fatalf("delivery: %+v %v", d, err)
	}
	if got.OldAddress != "a" || got.NewAddress != "b" || !got.Timestamp.Equal(ts) {
		t.Fatalf("payload mismatch: %+v", got)
	}
	if headers.Get(HeaderEvent) != EventAddressChanged || headers.Get(HeaderDelivery) != "d-1" || headers.Get(HeaderTimestamp) != "1767323045" {
		t.Fatalf("headers: %v", headers)
	}
}

func TestWebhookUnsignedAndRejected(t *testing.T) {
	srv := testkit.Server(t, testkit.Routes{
		"POST /ok": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(HeaderSignature) != "" {
				w.WriteHeader(http.StatusBadRequest)
			}
		},
		"POST /gone": testkit.Text(http.StatusGone, "gone"),
	})
	wh := NewWebhook(nil)
	d, err := wh.Post(context.Background(), srv.URL+"/ok", "", Payload{Event: EventTrustAlert})
	if err != nil || d.Signed {
		t.Fatalf("unsigned delivery: %+v %v", d, err)
	}
	if _, err := wh.Post(context.Background(), srv.URL+"/gone", "k", Payload{Event: EventTrustAlert}); !perr.IsCode(err, perr.ErrorCodeUpstream) {
		t.Fatalf("410 should be an upstream error: %v", err)
	}
}

func TestEmailer(t *testing.T) {
	if NewEmailer(SMTPConfig{}) != nil {
		t.Fatal("empty addr should disable email")
	}
	var nilMailer *Emailer
	if err := nilMailer.Send(context.Background(), "a@b.c", Payload{}); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("nil emailer: %v", err)
	}

	e := NewEmailer(SMTPConfig{Addr: "smtp.example.com:587", Username: "u", Password: "p"})
	var sent struct {
		addr, from string
		to         []string
		msg        string
		auth       bool
	}
	e.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent.addr, sent.from, sent.to, sent.msg, sent.auth = addr, from, to, string(msg), a != nil
		return nil
	}
	err := e.Send(context.Background(), "ops@example.com", Payload{
		Event: EventTrustAlert, Alias: "pay.example.com", TrustScore: 50, PreviousScore: 90, Threshold: 70,
		Reasons: []string{"score dropped by 40"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent.addr != "smtp.example.com:587" || !sent.auth || sent.to[0] != "ops@example.com" {
		t.Fatalf("smtp call: %+v", sent)
	}
	testkit.MustContain(t, sent.msg, "Subject: [payalias] trust alert for pay.example.com")
	testkit.MustContain(t, sent.msg, "Trust score: 50 (previously 90)")
	testkit.MustContain(t, sent.msg, "- score dropped by 40")

	if err := e.Send(context.Background(), "evil@example.com\r\nBcc: x@y", Payload{}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("header injection should be rejected: %v", err)
	}
	e.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay down") }
	if err := e.Send(context.Background(), "ops@example.com", Payload{}); !perr.IsCode(err, perr.ErrorCodeUpstream) {
		t.Fatalf("relay failure: %v", err)
	}
}
