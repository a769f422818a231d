// Package service runs the periodic trust revalidation and alert fan out
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"payalias/internal/adapters/notify"
	"payalias/internal/core/address"
	perr "payalias/internal/platform/errors"
	"payalias/internal/platform/logger"
	"payalias/internal/platform/metrics"
	pstrings "payalias/internal/platform/strings"
	"payalias/internal/services/revalidation/domain"
	vdomain "payalias/internal/services/verification/domain"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"
)

// Defaults
const (
	DefaultInterval    = time.Hour
	DefaultBatch       = 50
	DefaultStaleAfter  = 24 * time.Hour
	DefaultConcurrency = 2
	DefaultScoreDrop   = 20
	maxAttempts        = 3
)

// Revalidation result labels
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Alert delivery labels
const (
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
)

// Config controls the scheduler
type Config struct {
	Interval    time.Duration
	Batch       int
	StaleAfter  time.Duration
	Concurrency int
	ScoreDrop   int
	// WebhookSecret signs deliveries that have neither a registration nor a rule secret
	WebhookSecret string
	RetryBase     time.Duration
}

func (c Config) normalized() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Batch <= 0 {
		c.Batch = DefaultBatch
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = DefaultStaleAfter
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.ScoreDrop <= 0 {
		c.ScoreDrop = DefaultScoreDrop
	}
	if c.RetryBase < 0 {
		c.RetryBase = 0
	}
	return c
}

// Svc implements domain.WorkerPort
type Svc struct {
	cfg      Config
	store    domain.Store
	verifier vdomain.RecheckPort
	mailer   notify.Mailer
	poster   notify.Poster
	metrics  *metrics.Metrics
	clock    clock.Clock
	log      logger.Logger
}

// Option tunes Svc
type Option func(*Svc)

// WithMailer enables the email channel
func WithMailer(m notify.Mailer) Option { return func(s *Svc) { s.mailer = m } }

// WithPoster sets the webhook sender
func WithPoster(p notify.Poster) Option { return func(s *Svc) { s.poster = p } }

// WithMetrics records revalidation and alert counters
func WithMetrics(m *metrics.Metrics) Option { return func(s *Svc) { s.metrics = m } }

// WithClock overrides the clock driving staleness and the ticker
func WithClock(c clock.Clock) Option { return func(s *Svc) { s.clock = c } }

// New constructs the scheduler
func New(store domain.Store, verifier vdomain.RecheckPort, cfg Config, opts ...Option) *Svc {
	if store == nil {
		panic("revalidation.Service requires a non nil Store")
	}
	if verifier == nil {
		panic("revalidation.Service requires a non nil RecheckPort")
	}
	s := &Svc{
		cfg:      cfg.normalized(),
		store:    store,
		verifier: verifier,
		clock:    clock.New(),
		log:      *logger.Named("revalidation"),
	}
	for _, o := range opts {
		o(s)
	}
	if s.poster == nil {
		s.poster = notify.NewWebhook(nil)
	}
	return s
}

// Config returns the effective configuration
func (s *Svc) Config() Config { return s.cfg }

// Run ticks every Interval until ctx is done; the first pass runs immediately
func (s *Svc) Run(ctx context.Context) error {
	ticker := s.clock.Ticker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		sum, err := s.RunOnce(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			s.log.Error().Err(err).Bool("retryable", perr.IsRetryable(err)).Msg("revalidation pass failed")
		default:
			s.log.Info().
				Int("processed", sum.Processed).
				Int("successful", sum.Successful).
				Int("failed", sum.Failed).
				Int("alerts_sent", sum.AlertsSent).
				Msg("revalidation pass complete")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// tally is shared by the batch workers
type tally struct {
	processed, successful, failed, alerts atomic.Int64
}

func (t *tally) summary() domain.Summary {
	return domain.Summary{
		Processed:  int(t.processed.Load()),
		Successful: int(t.successful.Load()),
		Failed:     int(t.failed.Load()),
		AlertsSent: int(t.alerts.Load()),
	}
}

// RunOnce re-verifies one batch of stale records; only a failure to load the batch is returned
func (s *Svc) RunOnce(ctx context.Context) (domain.Summary, error) {
	cutoff := s.clock.Now().Add(-s.cfg.StaleAfter)
	recs, err := s.store.Stale(ctx, cutoff, s.cfg.Batch)
	if err != nil {
		return domain.Summary{}, err
	}

	var t tally
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, rec := range recs {
		g.Go(func() error {
			s.process(ctx, rec, &t)
			return nil
		})
	}
	_ = g.Wait()
	return t.summary(), nil
}

func (s *Svc) process(ctx context.Context, rec vdomain.AliasRecord, t *tally) {
	t.processed.Add(1)
	ctx = logger.WithAlias(ctx, rec.Alias)

	res, err := s.recheck(ctx, rec)
	if err != nil {
		t.failed.Add(1)
		s.metrics.IncRevalidation(ResultFailed)
		logger.C(ctx).Warn().Err(err).Str("alias_id", rec.ID.String()).Msg("revalidation failed")
		return
	}
	t.successful.Add(1)
	s.metrics.IncRevalidation(ResultOK)

	ev := evaluate(rec, res, s.cfg.ScoreDrop)
	if !ev.trigger {
		return
	}

	rules, err := s.store.Rules(ctx, rec.ID)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("load monitoring rules failed")
	}
	var regs []domain.Registration
	if ev.changed || len(rules) > 0 {
		if regs, err = s.store.Registrations(ctx, rec.ID); err != nil {
			logger.C(ctx).Warn().Err(err).Msg("load webhook registrations failed")
		}
	}

	if ev.changed {
		t.alerts.Add(int64(s.addressChanged(ctx, rec, res, ev, rules, regs)))
	}
	for _, rule := range rules {
		if res.TrustScore >= rule.TrustThreshold {
			continue
		}
		t.alerts.Add(int64(s.alert(ctx, rec, res, ev, rule, regs)))
	}
}

// recheck retries transient database failures with linear backoff
func (s *Svc) recheck(ctx context.Context, rec vdomain.AliasRecord) (vdomain.Result, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err := s.verifier.Recheck(ctx, rec)
		if err == nil || !perr.IsRetryable(err) {
			return res, err
		}
		lastErr = err
		if attempt < maxAttempts {
			if err := sleepCtx(ctx, s.cfg.RetryBase*time.Duration(attempt)); err != nil {
				return vdomain.Result{}, err
			}
		}
	}
	return vdomain.Result{}, lastErr
}

// evaluation is the alert decision for one re-checked record
type evaluation struct {
	trigger    bool
	changed    bool
	currency   string
	newAddress string
	reasons    []string
}

// evaluate applies the trigger: a score drop of at least drop, a zero score, or a changed address
func evaluate(rec vdomain.AliasRecord, res vdomain.Result, drop int) evaluation {
	ev := evaluation{currency: rec.CurrentCurrency, newAddress: rec.CurrentAddress}
	if cur, ok := address.NormalizeChain(rec.CurrentCurrency); ok && cur != address.All {
		ev.currency = cur
	}
	if rec.TrustScore-res.TrustScore >= drop {
		ev.reasons = append(ev.reasons, "trust_score_drop")
	}
	if res.TrustScore == 0 {
		ev.reasons = append(ev.reasons, "trust_score_zero")
	}
	if seen, ok := res.Observed[ev.currency]; ok && seen != "" && !address.Same(seen, rec.CurrentAddress) {
		ev.changed = true
		ev.newAddress = seen
		ev.reasons = append(ev.reasons, "address_changed")
	}
	ev.trigger = len(ev.reasons) > 0
	return ev
}

func (s *Svc) payload(event string, rec vdomain.AliasRecord, res vdomain.Result, ev evaluation) notify.Payload {
	return notify.Payload{
		Event:         event,
		Alias:         rec.Alias,
		OldAddress:    rec.CurrentAddress,
		NewAddress:    ev.newAddress,
		Currency:      ev.currency,
		Timestamp:     res.CheckedAt,
		TrustScore:    res.TrustScore,
		PreviousScore: rec.TrustScore,
		Reasons:       ev.reasons,
	}
}

// alert fans one rule out to email and webhook; a failure in one channel never skips the other
func (s *Svc) alert(ctx context.Context, rec vdomain.AliasRecord, res vdomain.Result, ev evaluation,
	rule domain.Rule, regs []domain.Registration,
) int {
	p := s.payload(notify.EventTrustAlert, rec, res, ev)
	p.Threshold = rule.TrustThreshold
	log := logger.C(ctx).With().Str("rule_id", rule.ID.String()).Logger()

	var wg sync.WaitGroup
	var sent atomic.Int64
	if rule.AlertEmail {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch {
			case rule.EmailAddress == "" || s.mailer == nil:
				s.metrics.IncAlert(ChannelEmail, StatusSkipped)
				log.Warn().Msg("email alert skipped: no recipient or no smtp relay")
			default:
				if err := s.mailer.Send(ctx, rule.EmailAddress, p); err != nil {
					s.metrics.IncAlert(ChannelEmail, StatusFailed)
					log.Warn().Err(err).Msg("email alert failed")
					return
				}
				s.metrics.IncAlert(ChannelEmail, StatusSent)
				sent.Add(1)
			}
		}()
	}
	if rule.WebhookURL != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			secret := pstrings.FirstNonEmpty(registrationSecret(regs, rule.WebhookURL), rule.WebhookSecret, s.cfg.WebhookSecret)
			if s.post(ctx, rule.WebhookURL, secret, p) {
				sent.Add(1)
			}
		}()
	}
	wg.Wait()
	return int(sent.Load())
}

// addressChanged notifies every active registration of the alias
func (s *Svc) addressChanged(ctx context.Context, rec vdomain.AliasRecord, res vdomain.Result, ev evaluation,
	rules []domain.Rule, regs []domain.Registration,
) int {
	p := s.payload(notify.EventAddressChanged, rec, res, ev)
	ruleSecret := ""
	for _, r := range rules {
		if r.WebhookSecret != "" {
			ruleSecret = r.WebhookSecret
			break
		}
	}
	sent := 0
	for _, reg := range regs {
		secret := pstrings.FirstNonEmpty(reg.Secret, ruleSecret, s.cfg.WebhookSecret)
		ok, status := s.postStatus(ctx, reg.CallbackURL, secret, p)
		if ok {
			sent++
		}
		if err := s.store.MarkDelivery(ctx, reg.ID, status, s.clock.Now().UTC()); err != nil {
			logger.C(ctx).Warn().Err(err).Str("webhook_id", reg.ID.String()).Msg("record webhook delivery failed")
		}
	}
	return sent
}

func (s *Svc) post(ctx context.Context, url, secret string, p notify.Payload) bool {
	ok, _ := s.postStatus(ctx, url, secret, p)
	return ok
}

func (s *Svc) postStatus(ctx context.Context, url, secret string, p notify.Payload) (bool, int) {
	d, err := s.poster.Post(ctx, url, secret, p)
	if err != nil {
		s.metrics.IncAlert(ChannelWebhook, StatusFailed)
		logger.C(ctx).Warn().Err(err).Str("event", p.Event).Str("delivery_id", d.ID).Int("status", d.Status).
			Msg("webhook delivery failed")
		return false, d.Status
	}
	s.metrics.IncAlert(ChannelWebhook, StatusSent)
	return true, d.Status
}

func registrationSecret(regs []domain.Registration, url string) string {
	for _, r := range regs {
		if r.CallbackURL == url && r.Secret != "" {
			return r.Secret
		}
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
