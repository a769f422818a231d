package plugins

import (
	"context"
	"encoding/hex"
	"net/url"

	"payalias/internal/adapters/upstream"
	"payalias/internal/adapters/wellknown"
	"payalias/internal/core/address"
	"payalias/internal/services/resolution/domain"
)

// CurrencyNostr tags the NIP-05 public key candidate
const CurrencyNostr = "NOSTR"

// nip05 is the nostr.json document; lud16 is a per name lightning address some providers add
type nip05 struct {
	Names  map[string]string   `json:"names"`
	Relays map[string][]string `json:"relays"`
	LUD16  map[string]string   `json:"lud16"`
}

// Nostr resolves NIP-05 identifiers
type Nostr struct {
	http *upstream.Client
	base func(host string) string
}

// NewNostr returns the plugin
func NewNostr(hc *upstream.Client) *Nostr {
	return &Nostr{http: hc, base: wellknown.HTTPSBase}
}

// Name implements domain.Plugin
func (p *Nostr) Name() string { return NameNostr }

// CanResolve implements domain.Plugin
func (p *Nostr) CanResolve(alias string) bool {
	_, _, ok := splitUserHost(alias)
	return ok
}

// Resolve implements domain.Plugin
func (p *Nostr) Resolve(ctx context.Context, alias, _ string) ([]domain.Candidate, error) {
	user, host, ok := splitUserHost(alias)
	if !ok {
		return nil, nil
	}
	var doc nip05
	if err := p.http.GetJSON(ctx, p.base(host)+"/.well-known/nostr.json?name="+url.QueryEscape(user), nil, &doc); err != nil {
		return absorb(ctx, NameNostr, alias, err)
	}

	pub := doc.Names[user]
	if b, err := hex.DecodeString(pub); err != nil || len(b) != 32 {
		return nil, nil
	}
	raw := map[string]any{"pubkey": pub, "relays": doc.Relays[pub]}
	out := []domain.Candidate{{SourceType: NameNostr, Currency: CurrencyNostr, Address: pub, RawData: raw, Confidence: ConfNostr}}
	if c, ok := emit(NameNostr, address.LN, doc.LUD16[user], ConfNostr, raw); ok {
		out = append(out, c)
	}
	return out, nil
}
