// Package service is the resolution orchestrator: cache, fan out to plugins, merge, select
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"payalias/internal/core/address"
	"payalias/internal/core/normalize"
	perr "payalias/internal/platform/errors"
	"payalias/internal/platform/logger"
	"payalias/internal/platform/metrics"
	"payalias/internal/services/resolution/domain"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"
)

// Defaults
const (
	DefaultTTL           = 5 * time.Minute
	DefaultNegativeTTL   = 60 * time.Second
	DefaultPluginTimeout = 5 * time.Second
)

// Metric labels for resolution outcomes
const (
	ResultHit          = "hit"
	ResultResolved     = "resolved"
	ResultNotFound     = "not_found"
	ResultUnresolvable = "unresolvable"
	ResultUnavailable  = "unavailable"
)

// Config tunes the orchestrator
type Config struct {
	TTL           time.Duration
	NegativeTTL   time.Duration
	PluginTimeout time.Duration
}

// normalized fills defaults and keeps negative results expiring before positive ones
func (c Config) normalized() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.NegativeTTL <= 0 {
		c.NegativeTTL = DefaultNegativeTTL
	}
	if c.NegativeTTL >= c.TTL {
		c.NegativeTTL = c.TTL / 2
	}
	if c.PluginTimeout <= 0 {
		c.PluginTimeout = DefaultPluginTimeout
	}
	return c
}

// Service implements domain.ResolverPort
type Service struct {
	plugins []domain.Plugin
	cache   domain.CachePort
	logs    domain.LookupLogPort
	metrics *metrics.Metrics
	clock   clock.Clock
	cfg     Config
}

// Option customizes a Service
type Option func(*Service)

// WithLookupLog records every lookup through l; failures are logged only
func WithLookupLog(l domain.LookupLogPort) Option { return func(s *Service) { s.logs = l } }

// WithMetrics records plugin latency and outcomes
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithClock replaces the wall clock used for lookup timestamps and plugin latency
func WithClock(c clock.Clock) Option { return func(s *Service) { s.clock = c } }

// New returns an orchestrator over plugins in their tie-break order
func New(plugins []domain.Plugin, cache domain.CachePort, cfg Config, opts ...Option) *Service {
	s := &Service{plugins: plugins, cache: cache, cfg: cfg.normalized(), clock: clock.New()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Config returns the effective configuration after defaults and clamping
func (s *Service) Config() Config { return s.cfg }

// Resolve implements domain.ResolverPort
// resolution failures are reported in Outcome.Error; the returned error is for invalid input only
func (s *Service) Resolve(ctx context.Context, q domain.Query) (domain.Outcome, error) {
	alias, err := normalize.Alias(q.Alias)
	if err != nil {
		return domain.Outcome{}, perr.WithField(perr.InvalidArgf("invalid alias: %v", err), "alias")
	}
	chain, ok := address.NormalizeChain(q.Chain)
	if !ok {
		return domain.Outcome{}, perr.WithField(perr.InvalidArgf("unknown chain %q", q.Chain), "chain")
	}
	ctx = logger.WithAlias(ctx, alias)

	if o, hit := s.cache.Get(ctx, alias, chain); hit {
		o.Cached = true
		s.metrics.IncResolution(ResultHit)
		s.record(ctx, o, "")
		return o, nil
	}

	out := domain.Outcome{Alias: alias, Chain: chain, Resolved: []domain.Candidate{}}

	eligible := s.eligible(alias)
	if len(eligible) == 0 {
		out.Error = domain.MsgUnresolvable
		s.metrics.IncResolution(ResultUnresolvable)
		s.record(ctx, out, "")
		return out, nil
	}

	resolved, unavailable := s.fanOut(ctx, eligible, alias, chain)
	switch {
	case len(resolved) == 0 && unavailable:
		out.Error = domain.MsgENSMissing
		s.metrics.IncResolution(ResultUnavailable)
	case len(resolved) == 0:
		out.Error = domain.MsgNotFound
		s.cache.Set(ctx, alias, chain, out, s.cfg.NegativeTTL)
		s.metrics.IncResolution(ResultNotFound)
	default:
		out.Resolved = resolved
		out.SourcesConflict = Conflicts(resolved)
		out.Chosen = Choose(resolved, chain)
		s.cache.Set(ctx, alias, chain, out, s.cfg.TTL)
		s.metrics.IncResolution(ResultResolved)
	}
	s.record(ctx, out, eligible[0].Name())
	return out, nil
}

func (s *Service) eligible(alias string) []domain.Plugin {
	var out []domain.Plugin
	for _, p := range s.plugins {
		if p.CanResolve(alias) {
			out = append(out, p)
		}
	}
	return out
}

// fanOut calls every plugin concurrently and concatenates results in plugin order
// unavailable is true when a plugin reported domain.ErrNotImplemented
func (s *Service) fanOut(ctx context.Context, plugins []domain.Plugin, alias, chain string) ([]domain.Candidate, bool) {
	slots := make([][]domain.Candidate, len(plugins))
	missing := make([]bool, len(plugins))

	var g errgroup.Group
	for i, p := range plugins {
		g.Go(func() error {
			slots[i], missing[i] = s.call(ctx, p, alias, chain)
			return nil
		})
	}
	_ = g.Wait()

	var out []domain.Candidate
	unavailable := false
	for i := range plugins {
		out = append(out, slots[i]...)
		unavailable = unavailable || missing[i]
	}
	return out, unavailable
}

// call runs one plugin under its own deadline; errors and panics become an empty result
func (s *Service) call(ctx context.Context, p domain.Plugin, alias, chain string) (cs []domain.Candidate, notImpl bool) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PluginTimeout)
	defer cancel()

	start := s.clock.Now()
	result := "ok"
	defer func() {
		if r := recover(); r != nil {
			logger.C(ctx).Error().
				Str("plugin", p.Name()).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("resolver plugin panicked")
			cs, notImpl, result = nil, false, "panic"
		}
		s.metrics.ObservePlugin(p.Name(), result, s.clock.Since(start))
	}()

	cs, err := p.Resolve(ctx, alias, chain)
	switch {
	case errors.Is(err, domain.ErrNotImplemented):
		result = ResultUnavailable
		return nil, true
	case err != nil:
		result = "error"
		if ctx.Err() != nil {
			result = "timeout"
		}
		logger.C(ctx).Warn().Err(err).Str("plugin", p.Name()).Msg("resolver plugin failed")
		return nil, false
	case ctx.Err() != nil:
		result = "timeout"
		return nil, false
	case len(cs) == 0:
		result = "empty"
	}
	return cs, false
}

// Conflicts reports whether any currency has candidates with differing addresses
func Conflicts(cs []domain.Candidate) bool {
	seen := map[string]string{}
	for _, c := range cs {
		addr := strings.ToLower(c.Address)
		if prev, ok := seen[c.Currency]; ok && prev != addr {
			return true
		}
		seen[c.Currency] = addr
	}
	return false
}

// Choose returns the highest confidence candidate, the first one on ties
// a specific chain narrows the pool to its currency when any candidate matches
func Choose(cs []domain.Candidate, chain string) *domain.Candidate {
	pool := cs
	if want, ok := address.NormalizeChain(chain); ok && want != address.All {
		var filtered []domain.Candidate
		for _, c := range cs {
			if c.Currency == want {
				filtered = append(filtered, c)
			}
		}
		if len(filtered) > 0 {
			pool = filtered
		}
	}
	if len(pool) == 0 {
		return nil
	}
	best := pool[0]
	for _, c := range pool[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return &best
}

// record writes the lookup log row; it never fails the request
func (s *Service) record(ctx context.Context, o domain.Outcome, fallbackType string) {
	if s.logs == nil {
		return
	}
	row := domain.LookupLog{
		Alias:        o.Alias,
		Chain:        o.Chain,
		AliasType:    fallbackType,
		ErrorMessage: o.Error,
		CreatedAt:    s.clock.Now().UTC(),
	}
	if o.Chosen != nil {
		row.ResolvedAddress = o.Chosen.Address
		row.AliasType = o.Chosen.SourceType
		row.Confidence = o.Chosen.Confidence
		row.ProofMetadata = map[string]any{
			"currency":         o.Chosen.Currency,
			"raw":              o.Chosen.RawData,
			"candidates":       len(o.Resolved),
			"sources_conflict": o.SourcesConflict,
		}
	}
	if err := s.logs.Insert(ctx, row); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("lookup log write failed")
	}
}
