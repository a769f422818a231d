package domain

import (
	"context"
	"time"

	"payalias/internal/core/trust"

	"github.com/google/uuid"
)

// Checker runs the DNS and HTTPS checks without touching storage
type Checker interface {
	Check(ctx context.Context, domain, method string, expected map[string]string) Result
}

// RecordStore reads alias records and writes their verification columns
type RecordStore interface {
	ByID(ctx context.Context, id uuid.UUID) (AliasRecord, error)
	ByDomain(ctx context.Context, domain string) (AliasRecord, error)
	SaveVerification(ctx context.Context, id uuid.UUID, p trust.Proofs, score int, at time.Time) error
}

// ServicePort is implemented by the verification service
type ServicePort interface {
	Verify(ctx context.Context, in VerifyInput) (Result, error)
	TrustReport(ctx context.Context, in ReportInput) (trust.Report, error)
}

// RecheckPort is what revalidation needs: verify a stored record against its own address and persist
type RecheckPort interface {
	Recheck(ctx context.Context, rec AliasRecord) (Result, error)
}
