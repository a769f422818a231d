// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"context"
	"time"

	"payalias/internal/modkit"
	"payalias/internal/modkit/httpkit"
	metahttp "payalias/internal/services/api/meta/http"

	"github.com/redis/go-redis/v9"
)

// Module implements the modkit.Module interface
type Module struct {
	b         modkit.Built
	deps      metahttp.Deps
	startedAt time.Time
}

// New constructs a meta module mounted under /meta
func New(deps modkit.Deps, service string, opts ...modkit.Option) *Module {
	m := &Module{b: modkit.Build("meta", "/meta", opts...), startedAt: time.Now()}
	m.deps = metahttp.Deps{ServiceName: service, StartedAt: m.startedAt}
	if deps.PG != nil {
		m.deps.PG = deps.PG
	}
	if deps.Redis != nil {
		m.deps.Redis = redisPinger{deps.Redis}
	}
	return m
}

// redisPinger adapts go-redis's command style Ping to metahttp.Pinger
type redisPinger struct{ c *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.c.Ping(ctx).Err() }

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.b.Prefix, m.b.Mw, func(rr httpkit.Router) {
		metahttp.Register(rr, m.deps)
	})
}

// MountRoot mounts the unversioned /health probe
func (m *Module) MountRoot(r httpkit.Router) { metahttp.RegisterRoot(r, m.deps) }

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.b.Name }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
