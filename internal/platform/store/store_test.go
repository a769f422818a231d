package store

import (
	"context"
	"errors"
	"testing"
)

type pingTx struct {
	fakeQuerier
	pingErr error
	closed  bool
}

func (p *pingTx) Ping(context.Context) error { return p.pingErr }
func (p *pingTx) Close() error               { p.closed = true; return nil }
func (p *pingTx) Tx(ctx context.Context, fn func(RowQuerier) error) error {
	return fn(p)
}

func TestOpenWithoutBackends(t *testing.T) {
	s, err := Open(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.PG != nil {
		t.Fatalf("PG should be nil when disabled")
	}
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("Guard with no backends: %v", err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenOptionError(t *testing.T) {
	bad := func(*Store) error { return errors.New("bad option") }
	if _, err := Open(context.Background(), Config{}, bad); err == nil {
		t.Fatalf("option error should surface")
	}
}

func TestGuardAndClose(t *testing.T) {
	p := &pingTx{pingErr: errors.New("down")}
	s := &Store{PG: p}
	if err := s.Guard(context.Background()); err == nil {
		t.Fatalf("Guard should report ping failure")
	}
	p.pingErr = nil
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("Guard: %v", err)
	}
	_ = s.Close(context.Background())
	if !p.closed {
		t.Fatalf("Close should close PG")
	}

	var nilStore *Store
	if nilStore.Guard(context.Background()) == nil {
		t.Fatalf("nil store Guard should error")
	}
}

func TestSleepHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleep(ctx, 1<<40); !errors.Is(err, context.Canceled) {
		t.Fatalf("want canceled, got %v", err)
	}
}
