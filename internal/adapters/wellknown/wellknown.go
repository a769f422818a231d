// Package wellknown fetches the payment documents a domain serves under /.well-known
package wellknown

import (
	"context"
	"strings"

	"payalias/internal/adapters/upstream"
	"payalias/internal/core/openalias"
	perr "payalias/internal/platform/errors"
)

// Document paths
const (
	AliasJSONPath     = "/.well-known/alias.json"
	OpenAliasTextPath = "/.well-known/openalias.txt"
)

// Document is the alias.json shape: currency to address
type Document struct {
	Addresses map[string]string `json:"addresses"`
}

// Fetch loads alias.json under base and, when fallback is set, openalias.txt on 404
// it returns the addresses and the path they came from
func Fetch(ctx context.Context, hc *upstream.Client, base string, fallback bool) (map[string]string, string, error) {
	var doc Document
	err := hc.GetJSON(ctx, base+AliasJSONPath, nil, &doc)
	if err == nil {
		if doc.Addresses == nil {
			doc.Addresses = map[string]string{}
		}
		return doc.Addresses, AliasJSONPath, nil
	}
	if !fallback || !perr.IsCode(err, perr.ErrorCodeNotFound) {
		return nil, "", err
	}
	body, err := hc.GetText(ctx, base+OpenAliasTextPath)
	if err != nil {
		return nil, "", err
	}
	return openalias.All(strings.Split(body, "\n")), OpenAliasTextPath, nil
}

// HTTPSBase is the document origin for host
func HTTPSBase(host string) string { return "https://" + strings.TrimSuffix(host, ".") }
