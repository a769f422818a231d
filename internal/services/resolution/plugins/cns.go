package plugins

import (
	"context"
	"net/url"
	"strings"

	"payalias/internal/adapters/upstream"
	"payalias/internal/services/resolution/domain"
)

const defaultCNSAPI = "https://api.handle.me/handles/"

// cnsHandle is the handle API document
type cnsHandle struct {
	Name              string            `json:"name"`
	Holder            string            `json:"holder"`
	ResolvedAddresses map[string]string `json:"resolved_addresses"`
}

// CNS resolves Cardano names: .ada domains and $handles
type CNS struct {
	base string
	http *upstream.Client
}

// NewCNS returns the plugin
func NewCNS(base string, hc *upstream.Client) *CNS {
	return &CNS{base: or(base, defaultCNSAPI), http: hc}
}

// Name implements domain.Plugin
func (p *CNS) Name() string { return NameCNS }

// CanResolve implements domain.Plugin
func (p *CNS) CanResolve(alias string) bool {
	if h, ok := strings.CutPrefix(alias, "$"); ok {
		return h != "" && !strings.ContainsAny(h, "$@/.")
	}
	return !strings.ContainsAny(alias, "@$/") && hasSuffix(alias, ".ada")
}

// Resolve implements domain.Plugin
func (p *CNS) Resolve(ctx context.Context, alias, _ string) ([]domain.Candidate, error) {
	handle := strings.TrimPrefix(alias, "$")
	var doc cnsHandle
	if err := p.http.GetJSON(ctx, joinURL(p.base, url.PathEscape(handle)), nil, &doc); err != nil {
		return absorb(ctx, NameCNS, alias, err)
	}
	return fromMap(NameCNS, ConfCNS, doc.ResolvedAddresses, func(string) map[string]any {
		return map[string]any{"handle": handle, "holder": doc.Holder}
	}), nil
}
