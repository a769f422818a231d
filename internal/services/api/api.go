// Package api composes the payalias HTTP surface from its modules
package api

import (
	"context"
	"net/http"
	"time"

	"payalias/internal/modkit"
	"payalias/internal/modkit/httpkit"
	"payalias/internal/modkit/swaggerkit"
	"payalias/internal/platform/config"
	"payalias/internal/platform/logger"
	"payalias/internal/platform/metrics"
	phttp "payalias/internal/platform/net/http"
	"payalias/internal/platform/store"

	metamod "payalias/internal/services/api/meta/module"
	resolutionmod "payalias/internal/services/resolution/module"
	verificationmod "payalias/internal/services/verification/module"

	"github.com/redis/go-redis/v9"
)

// ServiceName is reported by /meta/version and the health probes
const ServiceName = "payalias-api"

// Options are the API options
type Options struct {
	// Root is the unprefixed config; modules read their own prefixes from it
	Root config.Conf
	// Config is the CORE_API_ scoped view
	Config         config.Conf
	Store          *store.Store
	Redis          *redis.Client
	Metrics        *metrics.Metrics
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
	EnableMetrics  bool
}

// Mount wires every module onto r and starts background loops bound to ctx
func Mount(ctx context.Context, r phttp.Router, opt Options) []modkit.Module {
	deps := modkit.Deps{
		Cfg:     opt.Root,
		Redis:   opt.Redis,
		Metrics: opt.Metrics,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil && opt.Store.PG != nil {
		deps.PG = opt.Store.PG
	}

	meta := metamod.New(deps, ServiceName)
	mods := []modkit.Module{
		meta,
		resolutionmod.New(deps),
		verificationmod.New(deps),
	}

	// root level surface: probes, docs, profiler, scrape endpoint
	meta.MountRoot(r)
	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
	if opt.EnableMetrics && opt.Metrics != nil {
		r.Handle("/metrics", opt.Metrics.Handler())
	}

	stack := httpkit.CommonStack(httpkit.StackOptions{
		Timeout:        opt.Config.MayDuration("REQUEST_TIMEOUT", 30*time.Second),
		SlowRequest:    opt.Config.MayDuration("SLOW_REQUEST", 2*time.Second),
		AllowedOrigins: opt.Config.MayCSV("CORS_ORIGINS", nil),
		Extra:          []func(http.Handler) http.Handler{opt.Metrics.Instrument},
	})
	httpkit.MountAPIV1(r, stack, func(v1 httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(v1)
		}
	})

	for _, m := range mods {
		if bg, ok := m.(modkit.Background); ok {
			bg.Start(ctx)
		}
	}
	return mods
}
