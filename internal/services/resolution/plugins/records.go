package plugins

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"payalias/internal/adapters/upstream"
	"payalias/internal/services/resolution/domain"
)

const (
	defaultUDAPI  = "https://api.unstoppabledomains.com/resolve/domains/"
	defaultZNSAPI = "https://api.unstoppabledomains.com/resolve/domains/"
)

var (
	udSuffixes  = []string{".crypto", ".nft", ".wallet", ".x", ".bitcoin", ".dao", ".888", ".blockchain", ".polygon", ".klever"}
	znsSuffixes = []string{".zil"}
)

// recordsDoc is the UD resolution API shape, also served for .zil names
type recordsDoc struct {
	Meta struct {
		Owner string `json:"owner"`
	} `json:"meta"`
	Records map[string]string `json:"records"`
}

// Records resolves registry names through a `crypto.<TICKER>.address` record map
type Records struct {
	name     string
	conf     float64
	base     string
	key      string
	suffixes []string
	http     *upstream.Client
}

// NewUnstoppable returns the Unstoppable Domains plugin
func NewUnstoppable(base, apiKey string, hc *upstream.Client) *Records {
	return &Records{name: NameUnstoppable, conf: ConfUnstoppable, base: or(base, defaultUDAPI), key: apiKey, suffixes: udSuffixes, http: hc}
}

// NewZNS returns the Zilliqa Name Service plugin
func NewZNS(base, apiKey string, hc *upstream.Client) *Records {
	return &Records{name: NameZNS, conf: ConfZNS, base: or(base, defaultZNSAPI), key: apiKey, suffixes: znsSuffixes, http: hc}
}

// Name implements domain.Plugin
func (p *Records) Name() string { return p.name }

// CanResolve implements domain.Plugin
func (p *Records) CanResolve(alias string) bool {
	return !strings.ContainsAny(alias, "@$/") && hasSuffix(alias, p.suffixes...)
}

// Resolve implements domain.Plugin
func (p *Records) Resolve(ctx context.Context, alias, _ string) ([]domain.Candidate, error) {
	h := http.Header{}
	if p.key != "" {
		h.Set("Authorization", "Bearer "+p.key)
	}
	var doc recordsDoc
	if err := p.http.GetJSON(ctx, joinURL(p.base, url.PathEscape(alias)), h, &doc); err != nil {
		return absorb(ctx, p.name, alias, err)
	}

	addrs := map[string]string{}
	keys := map[string]string{}
	for k, v := range doc.Records {
		cur, ok := recordTicker(k)
		if !ok {
			continue
		}
		addrs[cur], keys[cur] = v, k
	}
	return fromMap(p.name, p.conf, addrs, func(cur string) map[string]any {
		return map[string]any{"record": keys[cur], "owner": doc.Meta.Owner}
	}), nil
}

// recordTicker extracts BTC from crypto.BTC.address; multi-chain token keys are skipped
func recordTicker(key string) (string, bool) {
	parts := strings.Split(key, ".")
	if len(parts) != 3 || parts[0] != "crypto" || parts[2] != "address" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func or(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
