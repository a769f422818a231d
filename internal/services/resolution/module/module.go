// Package module wires resolution into the API using modkit
package module

import (
	"context"

	"payalias/internal/adapters/upstream"
	"payalias/internal/modkit"
	"payalias/internal/modkit/httpkit"
	"payalias/internal/platform/logger"
	"payalias/internal/services/resolution/cache"
	"payalias/internal/services/resolution/domain"
	rhttp "payalias/internal/services/resolution/http"
	"payalias/internal/services/resolution/plugins"
	"payalias/internal/services/resolution/repo"
	"payalias/internal/services/resolution/service"
)

// Ports exposed by the resolution module
type Ports struct {
	Resolver domain.ResolverPort
	Cache    domain.CachePort
}

// Module implements modkit.Module
type Module struct {
	b      modkit.Built
	opts   Options
	ports  Ports
	memory *cache.Memory
}

// New constructs the module from deps; opts override mount settings
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	return NewWith(deps, FromConfig(deps.Cfg), opts...)
}

// NewWith is New with explicit Options, used by the CLI
func NewWith(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	m := &Module{b: modkit.Build("resolution", "", opts...), opts: o}
	log := logger.Named("resolution")

	hc := upstream.New("resolver", upstream.Options{UserAgent: o.UserAgent, Timeout: o.HTTPTimeout, MaxRetries: 1})
	registry := plugins.Registry(o.Plugins, plugins.NewDeps(o.Plugins, hc))

	var store domain.CachePort
	switch {
	case o.CacheBackend == CacheRedis && deps.Redis != nil:
		store = cache.NewRedis(deps.Redis, "")
	default:
		if o.CacheBackend == CacheRedis {
			log.Warn().Msg("redis cache requested but no redis connection; using memory")
		}
		m.memory = cache.NewMemory(nil)
		store = m.memory
	}

	svcOpts := []service.Option{service.WithMetrics(deps.Metrics)}
	if o.LookupLog && deps.HasPG() {
		svcOpts = append(svcOpts, service.WithLookupLog(repo.NewPG().Bind(deps.PG)))
	}
	svc := service.New(registry, store, service.Config{
		TTL:           o.CacheTTL,
		NegativeTTL:   o.NegativeTTL,
		PluginTimeout: o.PluginTimeout,
	}, svcOpts...)
	if eff := svc.Config(); eff.NegativeTTL != o.NegativeTTL && o.NegativeTTL > 0 {
		log.Warn().Dur("negative_ttl", eff.NegativeTTL).Msg("negative cache ttl clamped below the positive ttl")
	}

	m.ports = Ports{Resolver: svc, Cache: store}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.b.Prefix, m.b.Mw, func(rr httpkit.Router) {
		rhttp.Register(rr, m.ports.Resolver)
	})
}

// Start satisfies modkit.Background: the in process cache sweeper
func (m *Module) Start(ctx context.Context) {
	if m.memory != nil {
		go m.memory.Run(ctx, m.opts.SweepEvery)
	}
}
