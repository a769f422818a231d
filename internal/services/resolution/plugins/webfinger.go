package plugins

import (
	"context"
	"net/url"
	"path"
	"strings"

	"payalias/internal/adapters/upstream"
	"payalias/internal/adapters/wellknown"
	"payalias/internal/core/address"
	"payalias/internal/services/resolution/domain"
)

// jrd is a WebFinger JSON resource descriptor
type jrd struct {
	Subject    string            `json:"subject"`
	Properties map[string]string `json:"properties"`
	Links      []jrdLink         `json:"links"`
}

type jrdLink struct {
	Rel        string            `json:"rel"`
	Type       string            `json:"type"`
	Href       string            `json:"href"`
	Properties map[string]string `json:"properties"`
}

// WebFinger resolves acct: identities from payment links and properties in their JRD
type WebFinger struct {
	http *upstream.Client
	base func(host string) string
}

// NewWebFinger returns the plugin
func NewWebFinger(hc *upstream.Client) *WebFinger {
	return &WebFinger{http: hc, base: wellknown.HTTPSBase}
}

// Name implements domain.Plugin
func (p *WebFinger) Name() string { return NameWebFinger }

// CanResolve implements domain.Plugin
func (p *WebFinger) CanResolve(alias string) bool {
	_, _, ok := splitUserHost(alias)
	return ok
}

// Resolve implements domain.Plugin
func (p *WebFinger) Resolve(ctx context.Context, alias, _ string) ([]domain.Candidate, error) {
	user, host, ok := splitUserHost(alias)
	if !ok {
		return nil, nil
	}
	resource := "acct:" + user + "@" + host
	u := p.base(host) + "/.well-known/webfinger?resource=" + url.QueryEscape(resource)

	var doc jrd
	if err := p.http.GetJSON(ctx, u, nil, &doc); err != nil {
		return absorb(ctx, NameWebFinger, alias, err)
	}

	addrs := map[string]string{}
	rels := map[string]string{}
	put := func(cur, addr, rel string) {
		if _, seen := addrs[cur]; !seen && addr != "" {
			addrs[cur], rels[cur] = addr, rel
		}
	}
	for _, l := range doc.Links {
		if cur, addr, ok := paymentURI(l.Href); ok {
			put(cur, addr, l.Rel)
		}
		for k, v := range l.Properties {
			if cur, ok := propertyChain(k); ok {
				put(cur, v, l.Rel)
			}
		}
	}
	for k, v := range doc.Properties {
		if cur, ok := propertyChain(k); ok {
			put(cur, v, "properties")
		}
	}
	return fromMap(NameWebFinger, ConfWebFinger, addrs, func(cur string) map[string]any {
		return map[string]any{"subject": doc.Subject, "rel": rels[cur]}
	}), nil
}

// paymentURI decodes bitcoin:, ethereum:, lightning: style URIs and payto://<chain>/<addr>
func paymentURI(href string) (string, string, bool) {
	scheme, rest, ok := strings.Cut(strings.TrimSpace(href), ":")
	if !ok {
		return "", "", false
	}
	if strings.EqualFold(scheme, "payto") {
		target, _, _ := strings.Cut(strings.TrimPrefix(rest, "//"), "?")
		scheme, rest, ok = strings.Cut(target, "/")
		if !ok {
			return "", "", false
		}
	}
	cur, ok := address.KnownChain(scheme)
	if !ok {
		return "", "", false
	}
	addr, _, _ := strings.Cut(strings.TrimPrefix(rest, "//"), "?")
	if cur == address.ETH {
		// eip-681 target@chainId/function
		addr, _, _ = strings.Cut(addr, "/")
		addr, _, _ = strings.Cut(addr, "@")
	}
	return cur, addr, addr != ""
}

// propertyChain accepts bare chain keys and URI keys ending in a chain name
func propertyChain(key string) (string, bool) {
	if cur, ok := address.KnownChain(key); ok {
		return cur, true
	}
	if strings.Contains(key, "/") {
		return address.KnownChain(path.Base(strings.TrimSuffix(key, "/")))
	}
	return "", false
}
