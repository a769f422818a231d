package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"payalias/internal/modkit"
	"payalias/internal/modkit/module"
	"payalias/internal/platform/config"
	"payalias/internal/platform/logger"
	"payalias/internal/platform/metrics"
	"payalias/internal/platform/store"

	revalmod "payalias/internal/services/revalidation/module"
	verifmod "payalias/internal/services/verification/module"
)

func main() {
	var (
		fMode  = flag.String("mode", "worker", "revalidator mode: once | worker")
		fBatch = flag.Int("batch", 0, "records per pass (0 = REVALIDATION_BATCH)")
		fConc  = flag.Int("concurrency", 0, "concurrent rechecks (0 = REVALIDATION_CONCURRENCY)")
	)
	flag.Parse()

	l := logger.Get()
	if *fMode != "once" && *fMode != "worker" {
		l.Fatal().Str("mode", *fMode).Msg("unknown -mode, want once or worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := config.New()
	dbCfg := root.Prefix("SERVICE_PGSQL_")

	st, err := store.Open(ctx, store.Config{
		AppName: "payalias-revalidator",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         dbCfg.MustString("DBURL"),
			MaxConns:    int32(dbCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: dbCfg.MayInt("SLOW_MS", 500),
			LogSQL:      dbCfg.MayBool("LOG_SQL", false),
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

	deps := modkit.Deps{
		Cfg:     root,
		PG:      st.PG,
		Log:     *l,
		Metrics: metrics.New(),
	}

	vm := verifmod.New(deps)
	recheck := module.MustPortsOf[verifmod.Ports](vm).Recheck

	rm := revalmod.New(deps, recheck, revalmod.Options{Batch: *fBatch, Concurrency: *fConc})
	worker := module.MustPortsOf[revalmod.Ports](rm).Worker

	switch *fMode {
	case "once":
		sum, err := worker.RunOnce(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("revalidation pass failed")
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(sum)

	case "worker":
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			l.Fatal().Err(err).Msg("revalidation worker failed")
		}
	}
}
