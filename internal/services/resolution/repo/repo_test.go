package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"payalias/internal/modkit/repokit"
	perr "payalias/internal/platform/errors"
	"payalias/internal/platform/testkit"
	"payalias/internal/services/resolution/domain"

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
	return pgconn.NewCommandTag("INSERT 0 1"), r.err
}

func (r *recorder) Query(context.Context, string, ...any) (repokit.Rows, error) {
	return nil, errors.New("not used")
}

func (r *recorder) QueryRow(context.Context, string, ...any) repokit.Row { return nil }

func TestInsertArgs(t *testing.T) {
	id := uuid.MustParse("0b6f4a8e-7d3c-4c55-9a43-3f0f2d1b6a11")
	testkit.Swap(t, &newID, func() uuid.UUID { return id })

	rec := &recorder{}
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	err := NewPG().Bind(rec).Insert(context.Background(), domain.LookupLog{
		Alias:           "pay.example.com",
		Chain:           "all",
		ResolvedAddress: "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
		AliasType:       "dns",
		Confidence:      0.82,
		ProofMetadata:   map[string]any{"currency": "BTC"},
		CreatedAt:       at,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	testkit.MustContain(t, rec.sql, "INSERT INTO lookup_logs")
	if rec.args[0] != id || rec.args[5] != 0.82 || rec.args[8] != at {
		t.Fatalf("args = %v", rec.args)
	}
	if s, _ := rec.args[6].(string); !strings.Contains(s, `"currency":"BTC"`) {
		t.Fatalf("proof metadata = %v", rec.args[6])
	}
}

func TestInsertNotFoundRow(t *testing.T) {
	rec := &recorder{}
	if err := NewPG().Bind(rec).Insert(context.Background(), domain.LookupLog{Alias: "x", Chain: "all", ErrorMessage: domain.MsgNotFound}); err != nil {
		t.Fatal(err)
	}
	if rec.args[3] != nil || rec.args[4] != nil || rec.args[5] != nil || rec.args[6] != nil {
		t.Fatalf("address, type, confidence and metadata should be NULL: %v", rec.args)
	}
	if rec.args[7] != domain.MsgNotFound {
		t.Fatalf("error message = %v", rec.args[7])
	}
}

func TestInsertWrapsDBErrors(t *testing.T) {
	rec := &recorder{err: &pgconn.PgError{Code: "57P01"}}
	err := NewPG().Bind(rec).Insert(context.Background(), domain.LookupLog{Alias: "x"})
	if err == nil || perr.CodeOf(err) == perr.ErrorCodeUnknown {
		t.Fatalf("want coded error, got %v", err)
	}
}
