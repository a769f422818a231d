package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"payalias/internal/adapters/doh"
	"payalias/internal/adapters/upstream"
	"payalias/internal/adapters/wellknown"
	"payalias/internal/core/address"
	"payalias/internal/core/openalias"
	"payalias/internal/core/trust"
	perr "payalias/internal/platform/errors"
	"payalias/internal/platform/logger"
	"payalias/internal/services/verification/domain"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"
)

// Engine runs the DNS and HTTPS ownership checks for a domain
type Engine struct {
	dns      *doh.Client
	http     *upstream.Client
	fallback bool
	base     func(host string) string
	clock    clock.Clock
}

// EngineOption tunes an Engine
type EngineOption func(*Engine)

// WithEngineClock overrides the clock stamping CheckedAt
func WithEngineClock(c clock.Clock) EngineOption { return func(e *Engine) { e.clock = c } }

// WithDocumentBase overrides how the well-known origin is derived from a domain
func WithDocumentBase(fn func(host string) string) EngineOption {
	return func(e *Engine) { e.base = fn }
}

// NewEngine builds an Engine; fallback allows openalias.txt when alias.json is missing
func NewEngine(dns *doh.Client, hc *upstream.Client, fallback bool, opts ...EngineOption) *Engine {
	e := &Engine{dns: dns, http: hc, fallback: fallback, base: wellknown.HTTPSBase, clock: clock.New()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// channel is the outcome of one check, merged in a fixed order afterwards
type channel struct {
	verified bool
	// answered is set once the TXT query itself succeeded
	answered bool
	dnssec   bool
	errors   []string
	warnings []string
	observed map[string]string
}

// Check runs the requested checks concurrently; each channel fails on its own
func (e *Engine) Check(ctx context.Context, host, method string, expected map[string]string) domain.Result {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	want := normalizeExpected(expected)

	var dnsRes, httpsRes *channel
	g, gctx := errgroup.WithContext(ctx)
	if method == domain.MethodDNS || method == domain.MethodBoth {
		dnsRes = &channel{}
		g.Go(func() error { *dnsRes = e.checkDNS(gctx, host, want); return nil })
	}
	if method == domain.MethodHTTPS || method == domain.MethodBoth {
		httpsRes = &channel{}
		g.Go(func() error { *httpsRes = e.checkHTTPS(gctx, host, want); return nil })
	}
	_ = g.Wait()

	res := domain.Result{
		Domain:    host,
		Method:    method,
		Errors:    []string{},
		Warnings:  []string{},
		Observed:  map[string]string{},
		CheckedAt: e.clock.Now().UTC(),
	}
	for _, ch := range []*channel{dnsRes, httpsRes} {
		if ch == nil {
			continue
		}
		res.Errors = append(res.Errors, ch.errors...)
		res.Warnings = append(res.Warnings, ch.warnings...)
		for cur, addr := range ch.observed {
			if _, seen := res.Observed[cur]; !seen {
				res.Observed[cur] = addr
			}
		}
	}
	if dnsRes != nil {
		res.DNSVerified = dnsRes.verified
		res.DNSSECEnabled = dnsRes.dnssec
		if dnsRes.answered && !dnsRes.dnssec {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("dns: DNSSEC is not enabled for %s; sign the zone to earn the DNSSEC bonus", host))
		}
	}
	if httpsRes != nil {
		res.HTTPSVerified = httpsRes.verified
	}
	res.TrustScore = trust.Score(res.Proofs())
	res.Success = len(res.Errors) == 0 && (res.DNSVerified || res.HTTPSVerified)
	return res
}

func (e *Engine) checkDNS(ctx context.Context, host string, want map[string]string) channel {
	ans, err := e.dns.TXT(ctx, host)
	if err != nil {
		logger.C(ctx).Debug().Err(err).Str("domain", host).Msg("verification dns lookup failed")
		return channel{errors: []string{fmt.Sprintf("dns: TXT lookup for %s failed: %v", host, err)}}
	}
	found := map[string]string{}
	for cur := range want {
		if addr, ok := openalias.Find(ans.Records, cur); ok {
			found[cur] = addr
		}
	}
	ch := compare("dns", "oa1 TXT record", found, want)
	ch.answered = true
	ch.dnssec = ans.Authenticated
	return ch
}

func (e *Engine) checkHTTPS(ctx context.Context, host string, want map[string]string) channel {
	base := e.base(host)
	addrs, doc, err := wellknown.Fetch(ctx, e.http, base, e.fallback)
	if err != nil {
		logger.C(ctx).Debug().Err(err).Str("domain", host).Msg("verification https fetch failed")
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return channel{errors: []string{
				fmt.Sprintf("https: no well-known document at %s%s", base, wellknown.AliasJSONPath),
			}}
		}
		return channel{errors: []string{fmt.Sprintf("https: fetching %s%s failed: %v", base, wellknown.AliasJSONPath, err)}}
	}
	found := map[string]string{}
	for k, v := range addrs {
		cur, ok := address.NormalizeChain(k)
		if !ok || cur == address.All {
			continue
		}
		if _, seen := found[cur]; !seen {
			found[cur] = strings.TrimSpace(v)
		}
	}
	return compare("https", doc, found, want)
}

// compare applies the match rule: verified iff at least one exact match and no mismatch
func compare(name, where string, found, want map[string]string) channel {
	ch := channel{observed: found}
	matched, mismatched := 0, 0
	for _, cur := range sortedKeys(want) {
		got, ok := found[cur]
		switch {
		case !ok:
			ch.warnings = append(ch.warnings, fmt.Sprintf("%s: no %s address published in %s", name, cur, where))
		case got == want[cur]:
			matched++
		default:
			mismatched++
			ch.errors = append(ch.errors,
				fmt.Sprintf("%s: %s address mismatch: expected %s, found %s", name, cur, want[cur], got))
		}
	}
	if matched == 0 && mismatched == 0 {
		ch.errors = append(ch.errors, fmt.Sprintf("%s: none of the expected addresses are published in %s", name, where))
	}
	ch.verified = matched > 0 && mismatched == 0
	return ch
}

// normalizeExpected maps chain aliases to currency codes; unknown chains are kept verbatim upper cased
func normalizeExpected(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		cur, ok := address.NormalizeChain(k)
		if !ok || cur == address.All {
			cur = strings.ToUpper(strings.TrimSpace(k))
		}
		out[cur] = strings.TrimSpace(v)
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
