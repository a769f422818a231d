// Package modkit wires service modules onto shared dependencies and the API router
package modkit

import (
	"context"

	"payalias/internal/modkit/repokit"
	"payalias/internal/platform/config"
	"payalias/internal/platform/logger"
	"payalias/internal/platform/metrics"
	phttp "payalias/internal/platform/net/http"

	"github.com/redis/go-redis/v9"
)

// Deps holds the process wide dependencies handed to every module
// PG, Redis and Metrics may be nil; modules degrade instead of failing
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	PG      repokit.TxRunner
	Redis   *redis.Client
	Metrics *metrics.Metrics
}

// HasPG reports whether persistence is wired
func (d Deps) HasPG() bool { return d.PG != nil }

// Module is the surface main composes: routes plus a port bundle for cross wiring
type Module interface {
	Name() string
	Ports() any
	MountRoutes(r phttp.Router)
}

// Background is implemented by modules that own housekeeping loops; main starts them with the process context
type Background interface {
	Start(ctx context.Context)
}
