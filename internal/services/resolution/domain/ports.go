package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotImplemented is returned by a plugin that cannot run in this deployment; the orchestrator
// surfaces it when nothing else resolved
var ErrNotImplemented = errors.New("resolver not implemented")

// Plugin is one naming system backend
// CanResolve must not do I/O; Resolve returns (nil, nil) for not found and for absorbed failures
type Plugin interface {
	Name() string
	CanResolve(alias string) bool
	Resolve(ctx context.Context, alias, chain string) ([]Candidate, error)
}

// CachePort stores outcomes by (alias, chain)
type CachePort interface {
	Get(ctx context.Context, alias, chain string) (Outcome, bool)
	Set(ctx context.Context, alias, chain string, o Outcome, ttl time.Duration)
	Clear(ctx context.Context, alias, chain string)
	ClearAll(ctx context.Context)
	Cleanup(ctx context.Context) int
}

// ResolverPort is the resolution entry point other modules and the CLI use
type ResolverPort interface {
	Resolve(ctx context.Context, q Query) (Outcome, error)
}

// LookupLogPort records lookups for auditing
type LookupLogPort interface {
	Insert(ctx context.Context, l LookupLog) error
}
