package modkit

import (
	"net/http"
	"strings"
)

// Option adjusts how a module is mounted
type Option func(*Built)

// Built is the resolved mount configuration of a module
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
}

// Build applies opts over the module's defaults
func Build(name, prefix string, opts ...Option) Built {
	b := Built{Name: name, Prefix: prefix}
	for _, o := range opts {
		if o != nil {
			o(&b)
		}
	}
	if b.Prefix != "" && !strings.HasPrefix(b.Prefix, "/") {
		b.Prefix = "/" + b.Prefix
	}
	b.Prefix = strings.TrimSuffix(b.Prefix, "/")
	return b
}

// WithPrefix overrides the mount prefix
func WithPrefix(prefix string) Option {
	return func(b *Built) { b.Prefix = prefix }
}

// WithMiddlewares appends per module middleware in order
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}
