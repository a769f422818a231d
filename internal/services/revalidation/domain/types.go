// Package domain holds the revalidation types and ports
package domain

import (
	"context"
	"time"

	vdomain "payalias/internal/services/verification/domain"

	"github.com/google/uuid"
)

// Rule is an enabled monitoring rule of one alias
type Rule struct {
	ID             uuid.UUID
	AliasID        uuid.UUID
	TrustThreshold int
	AlertEmail     bool
	EmailAddress   string
	WebhookURL     string
	WebhookSecret  string
}

// Registration is an active webhook subscription of one alias
type Registration struct {
	ID          uuid.UUID
	AliasID     uuid.UUID
	CallbackURL string
	Secret      string
}

// Summary reports one pass
type Summary struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	AlertsSent int `json:"alertsSent"`
}

// Store is the revalidation persistence surface
type Store interface {
	// Stale lists records never verified or last verified before cutoff, oldest first
	Stale(ctx context.Context, cutoff time.Time, limit int) ([]vdomain.AliasRecord, error)
	Rules(ctx context.Context, aliasID uuid.UUID) ([]Rule, error)
	Registrations(ctx context.Context, aliasID uuid.UUID) ([]Registration, error)
	MarkDelivery(ctx context.Context, webhookID uuid.UUID, status int, at time.Time) error
}

// WorkerPort is implemented by the scheduler
type WorkerPort interface {
	RunOnce(ctx context.Context) (Summary, error)
	Run(ctx context.Context) error
}
