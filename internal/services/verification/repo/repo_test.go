package repo

import (
	"context"
	"testing"
	"time"

	"payalias/internal/core/trust"
	"payalias/internal/modkit/repokit"
	perr "payalias/internal/platform/errors"
	"payalias/internal/platform/testkit"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type recorder struct {
	sql  string
	args []any
	tag  string
	err  error
}

func (r *recorder) Exec(_ context.Context, sql string, args ...any) (repokit.CommandTag, error) {
	r.sql, r.args = sql, args
	return pgconn.NewCommandTag(r.tag), r.err
}

func (r *recorder) Query(_ context.Context, sql string, args ...any) (repokit.Rows, error) {
	r.sql, r.args = sql, args
	return nil, r.err
}

func (r *recorder) QueryRow(context.Context, string, ...any) repokit.Row { return nil }

var id = uuid.MustParse("6f1f1d5e-7a53-4a8a-9b0e-0c1d2e3f4a5b")

func TestSaveVerification(t *testing.T) {
	rec := &recorder{tag: "UPDATE 1"}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := trust.Proofs{DNSVerified: true, DNSSECEnabled: true}
	if err := NewPG().Bind(rec).SaveVerification(context.Background(), id, p, 80, at); err != nil {
		t.Fatalf("save: %v", err)
	}
	testkit.MustContain(t, rec.sql, "UPDATE alias_records")
	testkit.MustContain(t, rec.sql, "last_verification_at = $6")
	if rec.args[0] != id || rec.args[1] != true || rec.args[2] != false || rec.args[3] != true ||
		rec.args[4] != 80 || rec.args[5] != at {
		t.Fatalf("args = %v", rec.args)
	}
}

func TestSaveVerificationMissingRow(t *testing.T) {
	rec := &recorder{tag: "UPDATE 0"}
	err := NewPG().Bind(rec).SaveVerification(context.Background(), id, trust.Proofs{}, 50, time.Now())
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestLoadWrapsDBErrors(t *testing.T) {
	rec := &recorder{err: &pgconn.PgError{Code: "57P03"}}
	_, err := NewPG().Bind(rec).ByID(context.Background(), id)
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}
	testkit.MustContain(t, rec.sql, "FROM alias_records WHERE id = $1")

	_, err = NewPG().Bind(rec).ByDomain(context.Background(), "pay.example.com")
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}
	testkit.MustContain(t, rec.sql, "lower(domain) = lower($1)")
}
