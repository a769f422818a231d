package repo

import (
	"context"
	"testing"
	"time"

	"payalias/internal/modkit/repokit"
	perr "payalias/internal/platform/errors"
	"payalias/internal/platform/testkit"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type recorder struct {
	sql  string
	args []any
	err  error
}

func (r *recorder) Exec(_ context.Context, sql string, args ...any) (repokit.CommandTag, error) {
	r.sql, r.args = sql, args
	return pgconn.NewCommandTag("UPDATE 1"), r.err
}

func (r *recorder) Query(_ context.Context, sql string, args ...any) (repokit.Rows, error) {
	r.sql, r.args = sql, args
	return nil, r.err
}

func (r *recorder) QueryRow(context.Context, string, ...any) repokit.Row { return nil }

func TestStaleQuery(t *testing.T) {
	rec := &recorder{err: &pgconn.PgError{Code: "40P01"}}
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := NewPG().Bind(rec).Stale(context.Background(), cutoff, 50)
	if !perr.IsRetryable(err) {
		t.Fatalf("deadlock should stay retryable through the wrap: %v", err)
	}
	testkit.MustContain(t, rec.sql, "last_verification_at IS NULL OR last_verification_at < $1")
	testkit.MustContain(t, rec.sql, "NULLS FIRST")
	if rec.args[0] != cutoff || rec.args[1] != 50 {
		t.Fatalf("args = %v", rec.args)
	}
}

func TestFiltersInSQL(t *testing.T) {
	rec := &recorder{err: &pgconn.PgError{Code: "XX000"}}
	id := uuid.New()
	if _, err := NewPG().Bind(rec).Rules(context.Background(), id); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("rules: %v", err)
	}
	testkit.MustContain(t, rec.sql, "AND enabled")
	if _, err := NewPG().Bind(rec).Registrations(context.Background(), id); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("registrations: %v", err)
	}
	testkit.MustContain(t, rec.sql, "AND active")
}

func TestMarkDelivery(t *testing.T) {
	rec := &recorder{}
	id := uuid.New()
	at := time.Now()
	if err := NewPG().Bind(rec).MarkDelivery(context.Background(), id, 0, at); err != nil {
		t.Fatal(err)
	}
	testkit.MustContain(t, rec.sql, "NULLIF($3, 0)")
	if rec.args[0] != id || rec.args[1] != at || rec.args[2] != 0 {
		t.Fatalf("args = %v", rec.args)
	}
}
