// Package service contains the verification engine and the verify and trust report workflows
package service

import (
	"context"
	"strings"

	"payalias/internal/core/trust"
	perr "payalias/internal/platform/errors"
	"payalias/internal/platform/logger"
	"payalias/internal/platform/metrics"
	"payalias/internal/services/verification/domain"

	"github.com/google/uuid"
)

// Svc implements domain.ServicePort and domain.RecheckPort
type Svc struct {
	engine  domain.Checker
	records domain.RecordStore
	metrics *metrics.Metrics
}

// Option tunes Svc
type Option func(*Svc)

// WithRecords enables persistence; without it Verify only checks
func WithRecords(r domain.RecordStore) Option { return func(s *Svc) { s.records = r } }

// WithMetrics records score observations
func WithMetrics(m *metrics.Metrics) Option { return func(s *Svc) { s.metrics = m } }

// New constructs the service
func New(engine domain.Checker, opts ...Option) *Svc {
	if engine == nil {
		panic("verification.Service requires a non nil Checker")
	}
	s := &Svc{engine: engine}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Verify runs the requested checks and persists the proofs on the owning alias record
// with an aliasId the record must exist; with only a domain an unknown domain is checked but not persisted
func (s *Svc) Verify(ctx context.Context, in domain.VerifyInput) (domain.Result, error) {
	in.Domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(in.Domain)), ".")
	if in.Domain == "" {
		return domain.Result{}, perr.WithField(perr.InvalidArgf("domain is required"), "domain")
	}
	if len(in.ExpectedAddresses) == 0 {
		return domain.Result{}, perr.WithField(perr.InvalidArgf("at least one expected address is required"), "expectedAddresses")
	}
	switch in.VerificationMethod {
	case domain.MethodDNS, domain.MethodHTTPS, domain.MethodBoth:
	default:
		return domain.Result{}, perr.WithField(perr.InvalidArgf("verificationMethod must be dns, https or both"), "verificationMethod")
	}

	rec, found, err := s.lookup(ctx, in.AliasID, in.Domain)
	if err != nil {
		return domain.Result{}, err
	}

	res := s.engine.Check(ctx, in.Domain, in.VerificationMethod, in.ExpectedAddresses)
	s.metrics.ObserveScore(res.TrustScore)
	if !found {
		if s.records != nil {
			res.Warnings = append(res.Warnings, "no alias record is registered for "+in.Domain+"; result was not saved")
		}
		return res, nil
	}
	if err := s.persist(ctx, rec.ID, &res); err != nil {
		return domain.Result{}, err
	}
	return res, nil
}

// Recheck verifies rec against its own current address using its stored method, then persists
func (s *Svc) Recheck(ctx context.Context, rec domain.AliasRecord) (domain.Result, error) {
	host := rec.Domain
	if host == "" {
		return domain.Result{}, perr.WithField(perr.InvalidArgf("alias record %s has no domain", rec.ID), "domain")
	}
	method := rec.VerificationMethod
	if method == "" {
		method = domain.MethodBoth
	}
	res := s.engine.Check(ctx, host, method, rec.Expected())
	s.metrics.ObserveScore(res.TrustScore)
	if s.records == nil {
		return res, nil
	}
	if err := s.persist(ctx, rec.ID, &res); err != nil {
		return domain.Result{}, err
	}
	return res, nil
}

// TrustReport projects the stored proofs through the trust formula without re-checking
func (s *Svc) TrustReport(ctx context.Context, in domain.ReportInput) (trust.Report, error) {
	if s.records == nil {
		return trust.Report{}, perr.Unavailablef("trust reports need a database")
	}
	if in.AliasID == "" && strings.TrimSpace(in.Domain) == "" {
		return trust.Report{}, perr.WithField(perr.InvalidArgf("aliasId or domain is required"), "aliasId")
	}
	rec, found, err := s.lookup(ctx, in.AliasID, strings.ToLower(strings.TrimSpace(in.Domain)))
	if err != nil {
		return trust.Report{}, err
	}
	if !found {
		return trust.Report{}, perr.NotFoundf("no alias record for %s", in.Domain)
	}
	return trust.NewReport(rec.Alias, rec.VerificationMethod, rec.Proofs()), nil
}

// lookup resolves the record by id, else by domain; found is false only for a domain miss
func (s *Svc) lookup(ctx context.Context, aliasID, host string) (domain.AliasRecord, bool, error) {
	if s.records == nil {
		return domain.AliasRecord{}, false, nil
	}
	if aliasID != "" {
		id, err := uuid.Parse(aliasID)
		if err != nil {
			return domain.AliasRecord{}, false, perr.WithField(perr.InvalidArgf("aliasId is not a uuid"), "aliasId")
		}
		rec, err := s.records.ByID(ctx, id)
		if err != nil {
			return domain.AliasRecord{}, false, err
		}
		return rec, true, nil
	}
	rec, err := s.records.ByDomain(ctx, host)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.AliasRecord{}, false, nil
	}
	if err != nil {
		return domain.AliasRecord{}, false, err
	}
	return rec, true, nil
}

func (s *Svc) persist(ctx context.Context, id uuid.UUID, res *domain.Result) error {
	if s.records == nil {
		return nil
	}
	if err := s.records.SaveVerification(ctx, id, res.Proofs(), res.TrustScore, res.CheckedAt); err != nil {
		logger.C(ctx).Error().Err(err).Str("alias_id", id.String()).Msg("persist verification failed")
		return err
	}
	res.Persisted = true
	return nil
}
