// @title         payalias API
// @version       0.1.0
// @description   Resolve payment aliases to crypto addresses and verify domain ownership

package main

import (
	"context"
	"os/signal"
	"syscall"

	"payalias/internal/platform/config"
	"payalias/internal/platform/logger"
	"payalias/internal/platform/metrics"
	phttp "payalias/internal/platform/net/http"
	"payalias/internal/platform/redis"
	"payalias/internal/platform/store"

	"payalias/internal/services/api"

	goredis "github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_") // optional; without it results are not persisted

	l := logger.Get()

	// postgres is optional for the API: resolution and verification still answer without it
	dbURL := pgCfg.MayString("DBURL", "")
	st, err := store.Open(ctx, store.Config{
		AppName: api.ServiceName,
		PG: store.PGConfig{
			Enabled:     dbURL != "",
			URL:         dbURL,
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// redis only backs the shared result cache; resolution falls back to memory without it
	rc, err := redis.New(ctx, redis.FromConfig(root.Prefix("SERVICE_REDIS_")))
	if err != nil {
		l.Warn().Err(err).Msg("redis unavailable")
	}
	var rdb *goredis.Client
	if rc != nil {
		rdb = rc.Client
		defer func() { _ = rc.Close() }()
	}

	// http server (reads CORE_API_PORT / CORE_API_ADDR)
	srv := phttp.NewServer(apiCfg)

	api.Mount(ctx, srv.Router(), api.Options{
		Root:           root,
		Config:         apiCfg,
		Store:          st,
		Redis:          rdb,
		Metrics:        metrics.New(),
		Logger:         l,
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
		EnableMetrics:  apiCfg.MayBool("METRICS", true),
	})

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
