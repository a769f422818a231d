// Package repo reads stale alias records, monitoring rules and webhook registrations
package repo

import (
	"context"
	"time"

	"payalias/internal/modkit/repokit"
	perr "payalias/internal/platform/errors"
	"payalias/internal/platform/store"
	"payalias/internal/services/revalidation/domain"
	vdomain "payalias/internal/services/verification/domain"
	vrepo "payalias/internal/services/verification/repo"

	"github.com/google/uuid"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG returns the Postgres binder
func NewPG() repokit.Binder[domain.Store] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) domain.Store { return &pg{q: q} }

// Stale implements domain.Store
func (s *pg) Stale(ctx context.Context, cutoff time.Time, limit int) ([]vdomain.AliasRecord, error) {
	const sql = `SELECT ` + vrepo.Columns + `
		FROM alias_records
		WHERE last_verification_at IS NULL OR last_verification_at < $1
		ORDER BY last_verification_at NULLS FIRST, id
		LIMIT $2`
	out, err := store.Many(ctx, s.q, vrepo.Scan, sql, cutoff, limit)
	return out, perr.FromPostgres(err, "list stale alias records")
}

// Rules implements domain.Store; disabled rules are filtered here
func (s *pg) Rules(ctx context.Context, aliasID uuid.UUID) ([]domain.Rule, error) {
	const sql = `
		SELECT id, alias_id, trust_threshold, alert_email, COALESCE(alert_email_address, ''),
			COALESCE(alert_webhook_url, ''), COALESCE(webhook_secret, '')
		FROM monitoring_rules
		WHERE alias_id = $1 AND enabled
		ORDER BY created_at, id`
	out, err := store.Many(ctx, s.q, func(row repokit.Row) (domain.Rule, error) {
		var r domain.Rule
		var threshold int16
		err := row.Scan(&r.ID, &r.AliasID, &threshold, &r.AlertEmail, &r.EmailAddress, &r.WebhookURL, &r.WebhookSecret)
		r.TrustThreshold = int(threshold)
		return r, err
	}, sql, aliasID)
	return out, perr.FromPostgres(err, "list monitoring rules")
}

// Registrations implements domain.Store; inactive webhooks are filtered here
func (s *pg) Registrations(ctx context.Context, aliasID uuid.UUID) ([]domain.Registration, error) {
	const sql = `
		SELECT id, alias_id, callback_url, COALESCE(secret, '')
		FROM webhooks
		WHERE alias_id = $1 AND active
		ORDER BY created_at, id`
	out, err := store.Many(ctx, s.q, func(row repokit.Row) (domain.Registration, error) {
		var r domain.Registration
		err := row.Scan(&r.ID, &r.AliasID, &r.CallbackURL, &r.Secret)
		return r, err
	}, sql, aliasID)
	return out, perr.FromPostgres(err, "list webhooks")
}

// MarkDelivery implements domain.Store; status 0 means the receiver was unreachable
func (s *pg) MarkDelivery(ctx context.Context, webhookID uuid.UUID, status int, at time.Time) error {
	const sql = `UPDATE webhooks SET last_delivery_at = $2, last_status = NULLIF($3, 0) WHERE id = $1`
	_, err := s.q.Exec(ctx, sql, webhookID, at, status)
	return perr.FromPostgres(err, "mark webhook delivery")
}
