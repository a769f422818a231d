// Package module wires verification into the API using modkit
package module

import (
	"payalias/internal/adapters/doh"
	"payalias/internal/adapters/upstream"
	"payalias/internal/modkit"
	"payalias/internal/modkit/httpkit"
	"payalias/internal/platform/logger"
	"payalias/internal/services/verification/domain"
	vhttp "payalias/internal/services/verification/http"
	"payalias/internal/services/verification/repo"
	"payalias/internal/services/verification/service"
)

// Ports exposed by the verification module
type Ports struct {
	Verifier domain.ServicePort
	Recheck  domain.RecheckPort
}

// Module implements modkit.Module
type Module struct {
	b     modkit.Built
	ports Ports
}

// New constructs the module from deps
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	return NewWith(deps, FromConfig(deps.Cfg), opts...)
}

// NewWith is New with explicit Options, used by the CLI and the revalidator
func NewWith(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	m := &Module{b: modkit.Build("verification", "", opts...)}

	hc := upstream.New("verifier", upstream.Options{UserAgent: o.UserAgent, Timeout: o.HTTPTimeout, MaxRetries: 1})
	engine := service.NewEngine(doh.New(o.DoHURL, hc), hc, o.WellKnownFallbackTXT)

	svcOpts := []service.Option{service.WithMetrics(deps.Metrics)}
	if deps.HasPG() {
		svcOpts = append(svcOpts, service.WithRecords(repo.NewPG().Bind(deps.PG)))
	} else {
		logger.Named("verification").Warn().Msg("no database; verification results are not persisted")
	}
	svc := service.New(engine, svcOpts...)

	m.ports = Ports{Verifier: svc, Recheck: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.b.Prefix, m.b.Mw, func(rr httpkit.Router) {
		vhttp.Register(rr, m.ports.Verifier)
	})
}
