package service

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"payalias/internal/adapters/doh"
	"payalias/internal/adapters/upstream"
	"payalias/internal/adapters/wellknown"
	"payalias/internal/platform/testkit"
	"payalias/internal/services/verification/domain"

	"github.com/benbjohnson/clock"
	"github.com/miekg/dns"
)

const (
	btcAddr = "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"
	ethAddr = "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"
)

// site fakes the DoH provider and the domain's web server on one httptest server
type site struct {
	txt      []string
	ad       bool
	dohFails bool
	doc      http.HandlerFunc
	text     http.HandlerFunc
}

func (s site) routes(t *testing.T) testkit.Routes {
	r := testkit.Routes{
		"POST /dns-query": func(w http.ResponseWriter, r *http.Request) {
			if s.dohFails {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			body, _ := io.ReadAll(r.Body)
			q := new(dns.Msg)
			if err := q.Unpack(body); err != nil {
				t.Errorf("unpack: %v", err)
				return
			}
			resp := new(dns.Msg)
			resp.SetReply(q)
			resp.AuthenticatedData = s.ad
			for _, v := range s.txt {
				resp.Answer = append(resp.Answer, &dns.TXT{
					Hdr: dns.RR_Header{Name: q.Question[0].Name, Rrtype: dns.TypeTXT, Class: dns.ClassINET, Ttl: 60},
					Txt: []string{v},
				})
			}
			out, _ := resp.Pack()
			w.Header().Set("Content-Type", "application/dns-message")
			_, _ = w.Write(out)
		},
	}
	if s.doc != nil {
		r["GET "+wellknown.AliasJSONPath] = s.doc
	}
	if s.text != nil {
		r["GET "+wellknown.OpenAliasTextPath] = s.text
	}
	return r
}

var checkedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, s site, fallback bool) *Engine {
	t.Helper()
	srv := testkit.Server(t, s.routes(t))
	hc := upstream.New("verify-test", upstream.Options{})
	mock := clock.NewMock()
	mock.Set(checkedAt)
	return NewEngine(doh.New(srv.URL+"/dns-query", hc), hc, fallback,
		WithEngineClock(mock),
		WithDocumentBase(func(string) string { return srv.URL }),
	)
}

func aliasDoc(addrs map[string]string) http.HandlerFunc {
	return testkit.JSON(http.StatusOK, wellknown.Document{Addresses: addrs})
}

func hasMessage(list []string, part string) bool {
	for _, m := range list {
		if strings.Contains(m, part) {
			return true
		}
	}
	return false
}

func TestCheckBothVerified(t *testing.T) {
	e := newEngine(t, site{
		txt: []string{"oa1:btc recipient_address=" + btcAddr + "; recipient_name=Pay;"},
		ad:  true,
		doc: aliasDoc(map[string]string{"bitcoin": btcAddr}),
	}, true)

	res := e.Check(context.Background(), "Pay.Example.com.", domain.MethodBoth, map[string]string{"btc": btcAddr})
	if !res.Success || !res.DNSVerified || !res.HTTPSVerified || !res.DNSSECEnabled {
		t.Fatalf("result = %+v", res)
	}
	if res.TrustScore != 100 {
		t.Fatalf("score = %d, want 100", res.TrustScore)
	}
	if len(res.Errors) != 0 || len(res.Warnings) != 0 {
		t.Fatalf("errors=%v warnings=%v", res.Errors, res.Warnings)
	}
	if res.Domain != "pay.example.com" || !res.CheckedAt.Equal(checkedAt) || res.Observed["BTC"] != btcAddr {
		t.Fatalf("result = %+v", res)
	}
}

func TestCheckDNSMismatchIsHardError(t *testing.T) {
	e := newEngine(t, site{
		txt: []string{"oa1:btc recipient_address=bc1qsomeoneelse;"},
		ad:  true,
		doc: aliasDoc(map[string]string{"btc": btcAddr}),
	}, true)

	res := e.Check(context.Background(), "pay.example.com", domain.MethodBoth, map[string]string{"btc": btcAddr})
	if res.DNSVerified || !res.HTTPSVerified || res.Success {
		t.Fatalf("result = %+v", res)
	}
	if !hasMessage(res.Errors, "dns: BTC address mismatch") {
		t.Fatalf("errors = %v", res.Errors)
	}
	// dnssec still counts; the mismatch only fails the dns channel
	if res.TrustScore != 50+10+15 {
		t.Fatalf("score = %d", res.TrustScore)
	}
}

func TestCheckMismatchBeatsMatch(t *testing.T) {
	e := newEngine(t, site{
		doc: aliasDoc(map[string]string{"btc": btcAddr, "eth": "0x0000000000000000000000000000000000000001"}),
	}, true)
	res := e.Check(context.Background(), "pay.example.com", domain.MethodHTTPS,
		map[string]string{"btc": btcAddr, "eth": ethAddr})
	if res.HTTPSVerified || !hasMessage(res.Errors, "https: ETH address mismatch") {
		t.Fatalf("result = %+v", res)
	}
}

func TestCheckChannelsFailIndependently(t *testing.T) {
	e := newEngine(t, site{
		dohFails: true,
		doc:      aliasDoc(map[string]string{"btc": btcAddr}),
	}, true)
	res := e.Check(context.Background(), "pay.example.com", domain.MethodBoth, map[string]string{"btc": btcAddr})
	if res.DNSVerified || !res.HTTPSVerified {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Errors) != 1 || !strings.HasPrefix(res.Errors[0], "dns: TXT lookup") {
		t.Fatalf("errors = %v", res.Errors)
	}
	if res.TrustScore != 65 {
		t.Fatalf("score = %d", res.TrustScore)
	}
	if hasMessage(res.Warnings, "DNSSEC is not enabled") {
		t.Fatalf("failed lookup should not warn about DNSSEC: %v", res.Warnings)
	}
}

func TestCheckMissingChainIsWarning(t *testing.T) {
	e := newEngine(t, site{
		txt: []string{"oa1:btc recipient_address=" + btcAddr + ";"},
	}, true)
	res := e.Check(context.Background(), "pay.example.com", domain.MethodDNS,
		map[string]string{"btc": btcAddr, "ethereum": ethAddr})
	if !res.Success || !res.DNSVerified || res.DNSSECEnabled {
		t.Fatalf("result = %+v", res)
	}
	if !hasMessage(res.Warnings, "no ETH address published") || !hasMessage(res.Warnings, "DNSSEC is not enabled") {
		t.Fatalf("warnings = %v", res.Warnings)
	}
	if res.TrustScore != 70 {
		t.Fatalf("score = %d", res.TrustScore)
	}
}

func TestCheckNothingPublished(t *testing.T) {
	e := newEngine(t, site{}, true)
	res := e.Check(context.Background(), "pay.example.com", domain.MethodBoth, map[string]string{"btc": btcAddr})
	if res.Success || res.DNSVerified || res.HTTPSVerified || res.TrustScore != 50 {
		t.Fatalf("result = %+v", res)
	}
	if !hasMessage(res.Errors, "dns: none of the expected addresses") ||
		!hasMessage(res.Errors, "https: no well-known document") {
		t.Fatalf("errors = %v", res.Errors)
	}
}

func TestCheckWellKnownTextFallback(t *testing.T) {
	s := site{text: testkit.Text(http.StatusOK, "oa1:btc recipient_address="+btcAddr+";\n")}

	res := newEngine(t, s, true).Check(context.Background(), "pay.example.com", domain.MethodHTTPS,
		map[string]string{"btc": btcAddr})
	if !res.HTTPSVerified || res.DNSSECEnabled || len(res.Warnings) != 0 {
		t.Fatalf("fallback result = %+v", res)
	}

	res = newEngine(t, s, false).Check(context.Background(), "pay.example.com", domain.MethodHTTPS,
		map[string]string{"btc": btcAddr})
	if res.HTTPSVerified || !hasMessage(res.Errors, "no well-known document") {
		t.Fatalf("no fallback result = %+v", res)
	}
}
