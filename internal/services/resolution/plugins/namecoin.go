package plugins

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"payalias/internal/adapters/upstream"
	"payalias/internal/services/resolution/domain"
)

// namecoinName is the name API response; Value holds the d/ namespace JSON as a string
type namecoinName struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// namecoinValue is the d/ value fields that carry payment addresses
type namecoinValue struct {
	Wallet  map[string]string `json:"wallet"`
	Payment map[string]string `json:"payment"`
}

// Namecoin resolves .bit names from the d/ namespace
// there is no public name API to default to, so the plugin is inert until a base URL is configured
type Namecoin struct {
	base string
	http *upstream.Client
}

// NewNamecoin returns the plugin
func NewNamecoin(base string, hc *upstream.Client) *Namecoin {
	return &Namecoin{base: strings.TrimSpace(base), http: hc}
}

// Name implements domain.Plugin
func (p *Namecoin) Name() string { return NameNamecoin }

// CanResolve implements domain.Plugin
func (p *Namecoin) CanResolve(alias string) bool {
	return p.base != "" && !strings.ContainsAny(alias, "@$/") && hasSuffix(alias, ".bit")
}

// Resolve implements domain.Plugin; sub.example.bit resolves through d/example
func (p *Namecoin) Resolve(ctx context.Context, alias, _ string) ([]domain.Candidate, error) {
	labels := strings.Split(strings.TrimSuffix(alias, ".bit"), ".")
	key := "d/" + labels[len(labels)-1]

	var doc namecoinName
	if err := p.http.GetJSON(ctx, joinURL(p.base, url.PathEscape(key)), nil, &doc); err != nil {
		return absorb(ctx, NameNamecoin, alias, err)
	}
	var val namecoinValue
	if err := json.Unmarshal([]byte(doc.Value), &val); err != nil {
		return absorb(ctx, NameNamecoin, alias, err)
	}

	addrs := map[string]string{}
	for k, v := range val.Payment {
		addrs[k] = v
	}
	// wallet is the older field and wins on conflict with payment
	for k, v := range val.Wallet {
		addrs[k] = v
	}
	return fromMap(NameNamecoin, ConfNamecoin, addrs, func(string) map[string]any {
		return map[string]any{"name": key}
	}), nil
}
