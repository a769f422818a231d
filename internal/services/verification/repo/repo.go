// Package repo reads alias records and writes their verification columns
package repo

import (
	"context"
	"errors"
	"time"

	"payalias/internal/core/trust"
	"payalias/internal/modkit/repokit"
	perr "payalias/internal/platform/errors"
	"payalias/internal/platform/store"
	"payalias/internal/services/verification/domain"

	"github.com/google/uuid"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG returns the Postgres binder
func NewPG() repokit.Binder[domain.RecordStore] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) domain.RecordStore { return &pg{q: q} }

// Columns is the alias_records projection shared with revalidation
const Columns = `id, alias, domain, current_currency, current_address, verification_method,
	dns_verified, https_verified, dnssec_enabled, trust_score, last_verification_at`

// Scan reads one row in Columns order
func Scan(row repokit.Row) (domain.AliasRecord, error) {
	var a domain.AliasRecord
	var score int16
	err := row.Scan(&a.ID, &a.Alias, &a.Domain, &a.CurrentCurrency, &a.CurrentAddress, &a.VerificationMethod,
		&a.DNSVerified, &a.HTTPSVerified, &a.DNSSECEnabled, &score, &a.LastVerificationAt)
	a.TrustScore = int(score)
	return a, err
}

// ByID implements domain.RecordStore
func (s *pg) ByID(ctx context.Context, id uuid.UUID) (domain.AliasRecord, error) {
	a, err := store.One(ctx, s.q, Scan, `SELECT `+Columns+` FROM alias_records WHERE id = $1`, id)
	return a, notFound(err, "alias record %s", id)
}

// ByDomain implements domain.RecordStore; the oldest registration wins when a domain carries several aliases
func (s *pg) ByDomain(ctx context.Context, host string) (domain.AliasRecord, error) {
	const sql = `SELECT ` + Columns + ` FROM alias_records WHERE lower(domain) = lower($1) ORDER BY created_at LIMIT 1`
	a, err := store.One(ctx, s.q, Scan, sql, host)
	return a, notFound(err, "alias record for %s", host)
}

// SaveVerification implements domain.RecordStore
func (s *pg) SaveVerification(ctx context.Context, id uuid.UUID, p trust.Proofs, score int, at time.Time) error {
	const sql = `
		UPDATE alias_records
		SET dns_verified = $2, https_verified = $3, dnssec_enabled = $4,
		    trust_score = $5, last_verification_at = $6, updated_at = now()
		WHERE id = $1`
	err := store.ExecOne(ctx, s.q, sql, id, p.DNSVerified, p.HTTPSVerified, p.DNSSECEnabled, score, at)
	if errors.Is(err, store.ErrNoRowsAffected) {
		return perr.NotFoundf("alias record %s", id)
	}
	return perr.FromPostgres(err, "save verification")
}

func notFound(err error, format string, a ...any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, perr.ErrNotFound):
		return perr.NotFoundf(format, a...)
	default:
		return perr.FromPostgres(err, "load alias record")
	}
}
