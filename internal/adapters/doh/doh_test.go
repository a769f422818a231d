package doh

import (
	"context"
	"io"
	"net/http"
	"testing"

	"payalias/internal/adapters/upstream"
	perr "payalias/internal/platform/errors"
	"payalias/internal/platform/testkit"

	"github.com/miekg/dns"
)

// zone answers TXT queries from a map, names absent from the map are NXDOMAIN
func zone(t *testing.T, records map[string][]string, ad bool, rcode int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != mediaType {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}
		body, _ := io.ReadAll(r.Body)
		q := new(dns.Msg)
		if err := q.Unpack(body); err != nil {
			t.Errorf("unpack query: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if q.Id != 0 || q.Question[0].Qtype != dns.TypeTXT || q.IsEdns0() == nil || !q.IsEdns0().Do() {
			t.Errorf("unexpected query shape: %v", q)
		}

		resp := new(dns.Msg)
		resp.SetReply(q)
		resp.AuthenticatedData = ad
		name := q.Question[0].Name
		txts, ok := records[name]
		switch {
		case rcode != dns.RcodeSuccess:
			resp.Rcode = rcode
		case !ok:
			resp.Rcode = dns.RcodeNameError
		}
		for _, s := range txts {
			resp.Answer = append(resp.Answer, &dns.TXT{
				Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeTXT, Class: dns.ClassINET, Ttl: 300},
				Txt: splitChunks(s),
			})
		}
		out, err := resp.Pack()
		if err != nil {
			t.Errorf("pack reply: %v", err)
			return
		}
		w.Header().Set("Content-Type", mediaType)
		_, _ = w.Write(out)
	}
}

func splitChunks(s string) []string {
	var out []string
	for len(s) > 40 {
		out = append(out, s[:40])
		s = s[40:]
	}
	return append(out, s)
}

func client(url string) *Client {
	return New(url, upstream.New("doh-test", upstream.Options{}))
}

func TestTXT(t *testing.T) {
	long := "oa1:btc recipient_address=bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq; recipient_name=Tips;"
	srv := testkit.Server(t, testkit.Routes{
		"POST /dns-query": zone(t, map[string][]string{"pay.example.com.": {long, "v=spf1 -all"}}, true, dns.RcodeSuccess),
	})

	ans, err := client(srv.URL+"/dns-query").TXT(context.Background(), "pay.example.com")
	if err != nil {
		t.Fatalf("TXT: %v", err)
	}
	if !ans.Authenticated || ans.NXDomain || len(ans.Records) != 2 || ans.Records[0] != long {
		t.Fatalf("unexpected answer: %+v", ans)
	}
}

func TestTXTNXDomainAndFailures(t *testing.T) {
	srv := testkit.Server(t, testkit.Routes{
		"POST /ok":       zone(t, map[string][]string{}, false, dns.RcodeSuccess),
		"POST /servfail": zone(t, nil, false, dns.RcodeServerFailure),
		"POST /garbage":  testkit.Text(http.StatusOK, "not dns"),
	})

	ans, err := client(srv.URL+"/ok").TXT(context.Background(), "missing.example")
	if err != nil || !ans.NXDomain || ans.Authenticated {
		t.Fatalf("expected NXDOMAIN without error: %+v %v", ans, err)
	}
	if _, err := client(srv.URL+"/servfail").TXT(context.Background(), "x.example"); !perr.IsCode(err, perr.ErrorCodeUpstream) {
		t.Fatalf("servfail should be upstream error: %v", err)
	}
	if _, err := client(srv.URL+"/garbage").TXT(context.Background(), "x.example"); !perr.IsCode(err, perr.ErrorCodeUpstream) {
		t.Fatalf("garbage should be upstream error: %v", err)
	}
	if _, err := client(srv.URL+"/missing").TXT(context.Background(), "x.example"); !perr.IsCode(err, perr.ErrorCodeUpstream) {
		t.Fatalf("404 should be upstream error: %v", err)
	}
	if _, err := client(srv.URL+"/ok").TXT(context.Background(), " "); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("empty name should be invalid: %v", err)
	}
}

func TestDefaultURL(t *testing.T) {
	if New("", nil).URL() != DefaultURL {
		t.Fatal("default url not applied")
	}
}
