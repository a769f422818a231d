package plugins

import (
	"context"
	"strings"

	"payalias/internal/services/resolution/domain"
)

// stub claims an alias shape but has no backend yet; it resolves to nothing
type stub struct {
	name string
	can  func(string) bool
}

func (s stub) Name() string                 { return s.name }
func (s stub) CanResolve(alias string) bool { return s.can(alias) }

func (s stub) Resolve(context.Context, string, string) ([]domain.Candidate, error) {
	return nil, nil
}

// NewLightning claims lightning addresses; LNURL-pay is not followed
func NewLightning() domain.Plugin {
	return stub{name: NameLightning, can: func(a string) bool {
		_, _, ok := splitUserHost(a)
		return ok && !strings.HasPrefix(a, "acct:")
	}}
}

// NewPayString claims user$domain
func NewPayString() domain.Plugin {
	return stub{name: NamePayString, can: func(a string) bool {
		user, host, ok := strings.Cut(a, "$")
		return ok && user != "" && localRe.MatchString(user) && isHostname(host)
	}}
}

// NewFIO claims user@domain where domain is a FIO domain, not a DNS name
func NewFIO() domain.Plugin {
	return stub{name: NameFIO, can: func(a string) bool {
		user, dom, ok := strings.Cut(a, "@")
		return ok && user != "" && dom != "" &&
			!strings.ContainsAny(dom, "@.$/") && !strings.ContainsAny(user, "$/:")
	}}
}
