package repokit

import (
	"context"
	"errors"
	"testing"

	"payalias/internal/platform/store"
	"payalias/internal/platform/testkit"
)

type fakeQ struct{ tag string }

func (f *fakeQ) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (f *fakeQ) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (f *fakeQ) QueryRow(context.Context, string, ...any) store.Row            { return nil }

type fakeTx struct {
	fakeQ
	inTx *fakeQ
}

func (f *fakeTx) Tx(_ context.Context, fn func(store.RowQuerier) error) error { return fn(f.inTx) }

type repo struct{ q Queryer }

var binder = BindFunc[repo](func(q Queryer) repo { return repo{q: q} })

func TestMustBind(t *testing.T) {
	q := &fakeQ{tag: "pool"}
	if r := MustBind[repo](binder, q); r.q != q {
		t.Fatal("bind should pass the queryer through")
	}
	testkit.MustPanic(t, func() { MustBind[repo](binder, nil) })
}

func TestWithTxBindsTransaction(t *testing.T) {
	tx := &fakeTx{fakeQ: fakeQ{tag: "pool"}, inTx: &fakeQ{tag: "tx"}}
	var seen string
	err := WithTx(context.Background(), tx, binder, func(r repo) error {
		seen = r.q.(*fakeQ).tag
		return errors.New("rollback")
	})
	if err == nil || seen != "tx" {
		t.Fatalf("fn must run with the tx queryer and propagate its error: seen=%q err=%v", seen, err)
	}
}

type guard struct{ err error }

func (g guard) Guard(context.Context) error { return g.err }

func TestMustGuard(t *testing.T) {
	MustGuard(context.Background(), guard{})
	testkit.MustPanic(t, func() { MustGuard(context.Background(), guard{err: errors.New("down")}) })
}
