package plugins

import (
	"bufio"
	"context"
	"net/url"
	"slices"
	"strings"

	"payalias/internal/adapters/upstream"
	"payalias/internal/core/address"
	"payalias/internal/core/openalias"
	"payalias/internal/services/resolution/domain"
)

const defaultBNSAPI = "https://api.hiro.so/v1/names/"

// bnsName is the Stacks names API document
type bnsName struct {
	Address  string `json:"address"`
	Zonefile string `json:"zonefile"`
	Status   string `json:"status"`
}

// BNS resolves Bitcoin Name System names: the owner STX address plus TXT entries in the zonefile
type BNS struct {
	base string
	http *upstream.Client
}

// NewBNS returns the plugin
func NewBNS(base string, hc *upstream.Client) *BNS {
	return &BNS{base: or(base, defaultBNSAPI), http: hc}
}

// Name implements domain.Plugin
func (p *BNS) Name() string { return NameBNS }

// CanResolve implements domain.Plugin
func (p *BNS) CanResolve(alias string) bool {
	return !strings.ContainsAny(alias, "@$/") && hasSuffix(alias, ".btc", ".id")
}

// Resolve implements domain.Plugin
func (p *BNS) Resolve(ctx context.Context, alias, _ string) ([]domain.Candidate, error) {
	var doc bnsName
	if err := p.http.GetJSON(ctx, joinURL(p.base, url.PathEscape(alias)), nil, &doc); err != nil {
		return absorb(ctx, NameBNS, alias, err)
	}

	var out []domain.Candidate
	if c, ok := emit(NameBNS, address.STX, doc.Address, ConfBNS, map[string]any{"record": "owner", "status": doc.Status}); ok {
		out = append(out, c)
	}
	found := openalias.All(zonefileTXT(doc.Zonefile))
	delete(found, address.STX)
	out = append(out, fromMap(NameBNS, ConfBNS, found, func(string) map[string]any {
		return map[string]any{"record": "zonefile"}
	})...)
	return out, nil
}

// zonefileTXT pulls the quoted strings of TXT records out of a zonefile, joining multi string records
func zonefileTXT(zone string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(zone))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, ';'); i >= 0 && !strings.Contains(line[:i], `"`) {
			line = line[:i]
		}
		if !slices.ContainsFunc(strings.Fields(line), func(f string) bool { return strings.EqualFold(f, "TXT") }) {
			continue
		}
		// names never contain quotes so every quoted run is record data
		rest := line
		var parts []string
		for {
			start := strings.IndexByte(rest, '"')
			if start < 0 {
				break
			}
			end := strings.IndexByte(rest[start+1:], '"')
			if end < 0 {
				break
			}
			parts = append(parts, rest[start+1:start+1+end])
			rest = rest[start+end+2:]
		}
		if len(parts) > 0 {
			out = append(out, strings.Join(parts, ""))
		}
	}
	return out
}
