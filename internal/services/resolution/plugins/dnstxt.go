package plugins

import (
	"context"

	"payalias/internal/adapters/doh"
	"payalias/internal/core/openalias"
	"payalias/internal/services/resolution/domain"
)

// DNS reads payment records from the TXT set of a DNS name
type DNS struct{ dns *doh.Client }

// NewDNS returns the plugin
func NewDNS(c *doh.Client) *DNS { return &DNS{dns: c} }

// Name implements domain.Plugin
func (p *DNS) Name() string { return NameDNS }

// CanResolve implements domain.Plugin
func (p *DNS) CanResolve(alias string) bool { return isDNSHost(alias) }

// Resolve implements domain.Plugin
func (p *DNS) Resolve(ctx context.Context, alias, _ string) ([]domain.Candidate, error) {
	ans, err := p.dns.TXT(ctx, alias)
	if err != nil {
		return absorb(ctx, NameDNS, alias, err)
	}
	if ans.NXDomain {
		return nil, nil
	}
	return fromMap(NameDNS, ConfDNS, openalias.All(ans.Records), func(string) map[string]any {
		return map[string]any{"record": "TXT", "dnssec": ans.Authenticated}
	}), nil
}
