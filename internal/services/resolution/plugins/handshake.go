package plugins

import (
	"context"
	"strings"

	"payalias/internal/adapters/doh"
	"payalias/internal/core/openalias"
	"payalias/internal/services/resolution/domain"
)

const defaultHandshakeDoH = "https://query.hdns.io/dns-query"

// Handshake resolves Handshake names through a HNS aware DoH resolver
type Handshake struct{ dns *doh.Client }

// NewHandshake returns the plugin
func NewHandshake(c *doh.Client) *Handshake { return &Handshake{dns: c} }

// Name implements domain.Plugin
func (p *Handshake) Name() string { return NameHandshake }

// CanResolve implements domain.Plugin: a .hns name or any name with a trailing slash
func (p *Handshake) CanResolve(alias string) bool {
	if strings.ContainsAny(alias, "@$") {
		return false
	}
	if name, ok := strings.CutSuffix(alias, "/"); ok {
		return name != "" && !strings.Contains(name, "/")
	}
	return hasSuffix(alias, ".hns")
}

// Resolve implements domain.Plugin
func (p *Handshake) Resolve(ctx context.Context, alias, _ string) ([]domain.Candidate, error) {
	name := strings.TrimSuffix(alias, "/")
	ans, err := p.dns.TXT(ctx, name)
	if err != nil {
		return absorb(ctx, NameHandshake, alias, err)
	}
	return fromMap(NameHandshake, ConfHandshake, openalias.All(ans.Records), func(string) map[string]any {
		return map[string]any{"name": name, "resolver": p.dns.URL(), "dnssec": ans.Authenticated}
	}), nil
}
