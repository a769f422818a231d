package plugins

import (
	"context"

	"payalias/internal/adapters/upstream"
	"payalias/internal/adapters/wellknown"
	"payalias/internal/services/resolution/domain"
)

// WellKnown resolves a domain from its well-known payment document
type WellKnown struct {
	http     *upstream.Client
	fallback bool
	base     func(host string) string
}

// NewWellKnown returns the plugin; fallback enables openalias.txt when alias.json is missing
func NewWellKnown(hc *upstream.Client, fallback bool) *WellKnown {
	return &WellKnown{http: hc, fallback: fallback, base: wellknown.HTTPSBase}
}

// Name implements domain.Plugin
func (p *WellKnown) Name() string { return NameWellKnown }

// CanResolve implements domain.Plugin
func (p *WellKnown) CanResolve(alias string) bool { return isDNSHost(alias) }

// Resolve implements domain.Plugin
func (p *WellKnown) Resolve(ctx context.Context, alias, _ string) ([]domain.Candidate, error) {
	addrs, doc, err := wellknown.Fetch(ctx, p.http, p.base(alias), p.fallback)
	if err != nil {
		return absorb(ctx, NameWellKnown, alias, err)
	}
	return fromMap(NameWellKnown, ConfWellKnown, addrs, func(string) map[string]any {
		return map[string]any{"document": doc}
	}), nil
}
