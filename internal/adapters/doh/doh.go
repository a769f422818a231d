// Package doh queries TXT records over DNS-over-HTTPS (RFC 8484 wire format)
package doh

import (
	"context"
	"net/http"
	"strings"

	"payalias/internal/adapters/upstream"
	perr "payalias/internal/platform/errors"

	"github.com/miekg/dns"
)

// DefaultURL is the public resolver used when none is configured
const DefaultURL = "https://cloudflare-dns.com/dns-query"

const mediaType = "application/dns-message"

// Answer is the TXT data for one name
type Answer struct {
	Records []string
	// Authenticated is the AD flag: the upstream resolver validated the answer with DNSSEC
	Authenticated bool
	// NXDomain is true when the name does not exist
	NXDomain bool
}

// Client sends DoH queries through an upstream.Client
type Client struct {
	url  string
	http *upstream.Client
}

// New returns a DoH client for url; an empty url uses DefaultURL
func New(url string, hc *upstream.Client) *Client {
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	if hc == nil {
		hc = upstream.New("doh", upstream.Options{MaxRetries: 1})
	}
	return &Client{url: url, http: hc}
}

// URL returns the resolver endpoint
func (c *Client) URL() string { return c.url }

// TXT returns the TXT strings for name, multi string records are joined
func (c *Client) TXT(ctx context.Context, name string) (Answer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Answer{}, perr.InvalidArgf("doh: empty name")
	}

	q := new(dns.Msg)
	q.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	q.Id = 0
	q.RecursionDesired = true
	q.AuthenticatedData = true
	q.SetEdns0(4096, true)

	wire, err := q.Pack()
	if err != nil {
		return Answer{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "doh: pack query for %s", name)
	}

	resp, err := c.http.Do(ctx, http.MethodPost, c.url, http.Header{
		"Content-Type": {mediaType},
		"Accept":       {mediaType},
	}, wire)
	if err != nil {
		return Answer{}, err
	}
	if !resp.OK() {
		return Answer{}, perr.Upstreamf("doh: resolver returned status %d", resp.Status)
	}

	msg := new(dns.Msg)
	if err := msg.Unpack(resp.Body); err != nil {
		return Answer{}, perr.Wrapf(err, perr.ErrorCodeUpstream, "doh: unpack answer for %s", name)
	}
	return parse(msg)
}

func parse(msg *dns.Msg) (Answer, error) {
	ans := Answer{Authenticated: msg.AuthenticatedData}
	switch msg.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		ans.NXDomain = true
		return ans, nil
	default:
		return Answer{}, perr.Upstreamf("doh: rcode %s", dns.RcodeToString[msg.Rcode])
	}
	for _, rr := range msg.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			ans.Records = append(ans.Records, strings.Join(txt.Txt, ""))
		}
	}
	return ans, nil
}
