package store

import (
	"context"
	"errors"
	"time"

	"payalias/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgAdapter implements TxRunner over a pgx pool
type pgAdapter struct {
	p *pg.PG
	t traceSink
}

func newPGAdapter(p *pg.PG) *pgAdapter {
	return &pgAdapter{p: p, t: traceSink{tracer: p.Tracer, slowUS: int64(p.SlowMs) * 1000}}
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.p == nil {
		return errors.New("pg: nil adapter")
	}
	return a.p.Pool.Ping(ctx)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

func (a *pgAdapter) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := a.p.Pool.Exec(ctx, sql, args...)
	a.t.emit(ctx, sql, args, start, err)
	return ct, err
}

func (a *pgAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := a.p.Pool.Query(ctx, sql, args...)
	a.t.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func (a *pgAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	return tracedRow{r: a.p.Pool.QueryRow(ctx, sql, args...), done: func(err error) {
		a.t.emit(ctx, sql, args, start, err)
	}}
}

func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(txQuerier{tx: tx, t: a.t}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// txQuerier traces queries issued inside a transaction the same way
type txQuerier struct {
	tx pgx.Tx
	t  traceSink
}

func (q txQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := q.tx.Exec(ctx, sql, args...)
	q.t.emit(ctx, sql, args, start, err)
	return ct, err
}

func (q txQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := q.tx.Query(ctx, sql, args...)
	q.t.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func (q txQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	return tracedRow{r: q.tx.QueryRow(ctx, sql, args...), done: func(err error) {
		q.t.emit(ctx, sql, args, start, err)
	}}
}

// tracedRow emits after Scan so the scan error is captured
type tracedRow struct {
	r    pgx.Row
	done func(error)
}

func (x tracedRow) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	x.done(err)
	return err
}

type traceSink struct {
	tracer pg.QueryTracer
	slowUS int64
}

func (s traceSink) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if s.tracer == nil {
		return
	}
	elapsed := time.Since(start).Microseconds()
	s.tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: elapsed,
		Err:       err,
		Slow:      s.slowUS > 0 && elapsed >= s.slowUS,
	})
}

var (
	_ CommandTag = pgconn.CommandTag{}
	_ Rows       = pgx.Rows(nil)
)
