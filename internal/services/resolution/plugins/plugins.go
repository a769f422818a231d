// Package plugins implements the naming system backends fanned out to by the orchestrator
package plugins

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"payalias/internal/adapters/doh"
	"payalias/internal/adapters/ens"
	"payalias/internal/adapters/upstream"
	"payalias/internal/core/address"
	"payalias/internal/core/normalize"
	perr "payalias/internal/platform/errors"
	"payalias/internal/platform/logger"
	"payalias/internal/services/resolution/domain"
)

// Plugin names, also the source_type of their candidates
const (
	NameENS         = "ens"
	NameUnstoppable = "unstoppable"
	NameZNS         = "zns"
	NameBNS         = "bns"
	NameCNS         = "cns"
	NameHandshake   = "handshake"
	NameNamecoin    = "namecoin"
	NameDNS         = "dns"
	NameWellKnown   = "wellknown"
	NameWebFinger   = "webfinger"
	NameNostr       = "nostr"
	NameLightning   = "lightning"
	NamePayString   = "paystring"
	NameFIO         = "fio"
)

// Confidence per source, ordered by authority of the naming system
const (
	ConfENS         = 0.95
	ConfUnstoppable = 0.92
	ConfZNS         = 0.90
	ConfBNS         = 0.88
	ConfCNS         = 0.87
	ConfHandshake   = 0.86
	ConfNamecoin    = 0.85
	ConfDNS         = 0.82
	ConfWellKnown   = 0.80
	ConfWebFinger   = 0.78
	ConfNostr       = 0.76
	ConfStub        = 0.70
)

// Config holds the external endpoints; empty values select public defaults
type Config struct {
	DoHURL          string
	HandshakeDoHURL string
	EthRPCURL       string
	UDAPIURL        string
	UDAPIKey        string
	ZNSAPIURL       string
	BNSAPIURL       string
	CNSAPIURL       string
	NamecoinAPIURL  string
	// WellKnownFallbackTXT enables openalias.txt when alias.json is absent
	WellKnownFallbackTXT bool
}

// Deps are the shared clients plugins use
type Deps struct {
	HTTP *upstream.Client
	DoH  *doh.Client
	// HNS is the Handshake aware resolver
	HNS *doh.Client
	// ENS is nil when no RPC endpoint is configured
	ENS *ens.Client
}

// NewDeps builds clients from cfg
func NewDeps(cfg Config, hc *upstream.Client) Deps {
	if hc == nil {
		hc = upstream.New("resolver", upstream.Options{MaxRetries: 1})
	}
	hnsURL := cfg.HandshakeDoHURL
	if hnsURL == "" {
		hnsURL = defaultHandshakeDoH
	}
	d := Deps{
		HTTP: hc,
		DoH:  doh.New(cfg.DoHURL, hc),
		HNS:  doh.New(hnsURL, hc),
	}
	if cfg.EthRPCURL != "" {
		d.ENS = ens.New(cfg.EthRPCURL)
	}
	return d
}

// Registry returns every plugin in dispatch order; the order is also the tie-break order
func Registry(cfg Config, d Deps) []domain.Plugin {
	return []domain.Plugin{
		NewENS(d.ENS),
		NewUnstoppable(cfg.UDAPIURL, cfg.UDAPIKey, d.HTTP),
		NewZNS(cfg.ZNSAPIURL, cfg.UDAPIKey, d.HTTP),
		NewBNS(cfg.BNSAPIURL, d.HTTP),
		NewCNS(cfg.CNSAPIURL, d.HTTP),
		NewHandshake(d.HNS),
		NewNamecoin(cfg.NamecoinAPIURL, d.HTTP),
		NewDNS(d.DoH),
		NewWellKnown(d.HTTP, cfg.WellKnownFallbackTXT),
		NewWebFinger(d.HTTP),
		NewNostr(d.HTTP),
		NewLightning(),
		NewPayString(),
		NewFIO(),
	}
}

// registrySuffixes are TLDs owned by a naming registry rather than ICANN DNS
// .id is also the Indonesian ccTLD, so BNS shares those names with the DNS plugins
var registrySuffixes = []string{
	".eth", ".crypto", ".nft", ".wallet", ".x", ".bitcoin", ".dao", ".888", ".blockchain", ".polygon", ".klever",
	".zil", ".btc", ".ada", ".hns", ".bit",
}

var (
	hostRe  = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z][a-z0-9-]{0,62}$`)
	localRe = regexp.MustCompile(`^[a-z0-9._%+\-]{1,64}$`)
)

func hasSuffix(alias string, suffixes ...string) bool {
	return slices.ContainsFunc(suffixes, func(s string) bool {
		return strings.HasSuffix(alias, s) && len(alias) > len(s)
	})
}

// isHostname is a bare DNS name
func isHostname(s string) bool {
	return len(s) <= 253 && hostRe.MatchString(s)
}

// isDNSHost is a DNS name that no registry plugin claims
func isDNSHost(s string) bool {
	return isHostname(s) && !hasSuffix(s, registrySuffixes...)
}

// splitUserHost accepts user@host and acct:user@host
func splitUserHost(alias string) (user, host string, ok bool) {
	alias = strings.TrimPrefix(alias, "acct:")
	if strings.Count(alias, "@") != 1 {
		return "", "", false
	}
	user, host, _ = strings.Cut(alias, "@")
	if !localRe.MatchString(user) || !isHostname(host) {
		return "", "", false
	}
	return user, host, true
}

// emit validates addr for currency and builds a candidate
func emit(source, currency, addr string, conf float64, raw map[string]any) (domain.Candidate, bool) {
	cur, ok := address.NormalizeChain(currency)
	addr = strings.TrimSpace(addr)
	if !ok || cur == address.All || addr == "" || !address.Validate(cur, addr) {
		return domain.Candidate{}, false
	}
	return domain.Candidate{
		SourceType: source,
		Currency:   cur,
		Address:    addr,
		RawData:    raw,
		Confidence: conf,
	}, true
}

// fromMap emits one candidate per valid currency/address pair in a stable order
func fromMap(source string, conf float64, m map[string]string, raw func(cur string) map[string]any) []domain.Candidate {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var out []domain.Candidate
	for _, k := range keys {
		var r map[string]any
		if raw != nil {
			r = raw(k)
		}
		if c, ok := emit(source, k, m[k], conf, r); ok {
			out = append(out, c)
		}
	}
	return out
}

// absorb logs a plugin failure; not found is silent and turns it into an empty result
func absorb(ctx context.Context, plugin, alias string, err error) ([]domain.Candidate, error) {
	if err == nil || ctx.Err() != nil || perr.IsCode(err, perr.ErrorCodeNotFound) {
		return nil, nil
	}
	logger.C(ctx).Warn().Err(err).Str("plugin", plugin).Str("alias", alias).Msg("resolver plugin failed")
	return nil, nil
}

// hostOf returns the DNS host of an alias for the identity and DNS plugins
func hostOf(alias string) string { return normalize.Host(alias) }
