package plugins

import (
	"context"
	"strings"

	"payalias/internal/adapters/ens"
	"payalias/internal/core/address"
	"payalias/internal/services/resolution/domain"

	"github.com/ethereum/go-ethereum/common"
)

// ensReader is the part of ens.Client the plugin uses
type ensReader interface {
	Lookup(ctx context.Context, name string, coins ...int64) (ens.Records, error)
}

var ensCoins = map[string]int64{
	address.BTC:  ens.CoinBTC,
	address.LTC:  ens.CoinLTC,
	address.DOGE: ens.CoinDOGE,
}

// ENS resolves .eth names through the registry and public resolver
type ENS struct{ r ensReader }

// NewENS returns the plugin; a nil client makes Resolve report domain.ErrNotImplemented
func NewENS(c *ens.Client) *ENS {
	if c == nil {
		return &ENS{}
	}
	return &ENS{r: c}
}

// Name implements domain.Plugin
func (p *ENS) Name() string { return NameENS }

// CanResolve implements domain.Plugin
func (p *ENS) CanResolve(alias string) bool { return hasSuffix(alias, ".eth") }

// Resolve implements domain.Plugin
func (p *ENS) Resolve(ctx context.Context, alias, chain string) ([]domain.Candidate, error) {
	if p.r == nil {
		return nil, domain.ErrNotImplemented
	}
	want, _ := address.NormalizeChain(chain)

	var coins []int64
	for cur, coin := range ensCoins {
		if want == address.All || want == cur {
			coins = append(coins, coin)
		}
	}
	rec, err := p.r.Lookup(ctx, alias, coins...)
	if err != nil {
		return absorb(ctx, NameENS, alias, err)
	}

	raw := func(record string) map[string]any { return map[string]any{"name": alias, "record": record} }
	var out []domain.Candidate
	if rec.ETH != (common.Address{}) {
		if c, ok := emit(NameENS, address.ETH, rec.ETH.Hex(), ConfENS, raw("addr")); ok {
			out = append(out, c)
		}
	}
	for _, cur := range []string{address.BTC, address.LTC, address.DOGE} {
		script, ok := rec.Coins[ensCoins[cur]]
		if !ok {
			continue
		}
		addr, ok := address.FromScript(cur, script)
		if !ok {
			continue
		}
		if c, ok := emit(NameENS, cur, addr, ConfENS, raw("addr:"+strings.ToLower(cur))); ok {
			out = append(out, c)
		}
	}
	if ln := strings.TrimSpace(rec.Lightning); ln != "" {
		if c, ok := emit(NameENS, address.LN, strings.TrimPrefix(strings.ToLower(ln), "lightning:"), ConfENS, raw("text:lightning")); ok {
			out = append(out, c)
		}
	}
	return out, nil
}
