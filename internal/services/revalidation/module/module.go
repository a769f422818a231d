// Package module wires the revalidation worker and exposes its ports
package module

import (
	"payalias/internal/adapters/notify"
	"payalias/internal/adapters/upstream"
	"payalias/internal/modkit"
	"payalias/internal/modkit/httpkit"
	"payalias/internal/platform/logger"
	"payalias/internal/services/revalidation/domain"
	"payalias/internal/services/revalidation/repo"
	"payalias/internal/services/revalidation/service"
	vdomain "payalias/internal/services/verification/domain"
)

// Ports exposed by the revalidation module
type Ports struct {
	Worker domain.WorkerPort
}

// Module defines the revalidation worker module
type Module struct {
	ports Ports
}

// New constructs the worker; zero fields in overrides keep the configured values
func New(deps modkit.Deps, recheck vdomain.RecheckPort, overrides Options) *Module {
	if !deps.HasPG() {
		panic("revalidation requires a database (SERVICE_PGSQL_DBURL)")
	}
	opts := FromConfig(deps.Cfg)
	if overrides.Interval != 0 {
		opts.Interval = overrides.Interval
	}
	if overrides.Batch != 0 {
		opts.Batch = overrides.Batch
	}
	if overrides.Concurrency != 0 {
		opts.Concurrency = overrides.Concurrency
	}

	hook := notify.NewWebhook(upstream.New("webhook", upstream.Options{Timeout: opts.WebhookTimeout}))
	svcOpts := []service.Option{service.WithPoster(hook), service.WithMetrics(deps.Metrics)}
	if mailer := notify.NewEmailer(notify.SMTPConfig{
		Addr: opts.SMTPAddr, Username: opts.SMTPUser, Password: opts.SMTPPass, From: opts.SMTPFrom,
	}); mailer != nil {
		svcOpts = append(svcOpts, service.WithMailer(mailer))
	} else {
		logger.Named("revalidation").Info().Msg("no smtp relay configured; email alerts are skipped")
	}
	if opts.WebhookSecret == "" {
		logger.Named("revalidation").Info().Msg("REVALIDATION_WEBHOOK_SECRET unset; webhooks without their own secret go unsigned")
	}

	svc := service.New(repo.NewPG().Bind(deps.PG), recheck, service.Config{
		Interval:      opts.Interval,
		Batch:         opts.Batch,
		StaleAfter:    opts.StaleAfter,
		Concurrency:   opts.Concurrency,
		ScoreDrop:     opts.ScoreDrop,
		WebhookSecret: opts.WebhookSecret,
		RetryBase:     opts.RetryBase,
	}, svcOpts...)

	return &Module{ports: Ports{Worker: svc}}
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "revalidation" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
