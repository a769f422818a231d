package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"payalias/internal/services/resolution/domain"

	"github.com/benbjohnson/clock"
)

func outcome(addr string) domain.Outcome {
	c := domain.Candidate{SourceType: "dns", Currency: "BTC", Address: addr, Confidence: 0.82}
	return domain.Outcome{Alias: "pay.example.com", Chain: "all", Resolved: []domain.Candidate{c}, Chosen: &c}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	m := NewMemory(mock)

	m.Set(ctx, "Pay.Example.com", "", outcome("a"), time.Minute)
	got, ok := m.Get(ctx, "pay.example.com", "ALL")
	if !ok || got.Chosen.Address != "a" {
		t.Fatalf("get after set = %+v %v", got, ok)
	}

	mock.Add(59 * time.Second)
	if _, ok := m.Get(ctx, "pay.example.com", "all"); !ok {
		t.Fatalf("expired early")
	}
	mock.Add(time.Second)
	if _, ok := m.Get(ctx, "pay.example.com", "all"); ok {
		t.Fatalf("entry outlived its ttl")
	}
	if m.Len() != 1 {
		t.Fatalf("expired entry removed before cleanup")
	}
	if n := m.Cleanup(ctx); n != 1 || m.Len() != 0 {
		t.Fatalf("cleanup removed %d, %d left", n, m.Len())
	}
}

func TestMemoryChainIsPartOfKey(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(clock.NewMock())
	m.Set(ctx, "a.eth", "btc", outcome("btc"), time.Minute)
	m.Set(ctx, "a.eth", "eth", outcome("eth"), time.Minute)

	if o, _ := m.Get(ctx, "a.eth", "btc"); o.Chosen.Address != "btc" {
		t.Fatalf("btc = %+v", o)
	}
	m.Clear(ctx, "a.eth", "btc")
	if _, ok := m.Get(ctx, "a.eth", "btc"); ok {
		t.Fatalf("clear left btc")
	}
	if _, ok := m.Get(ctx, "a.eth", "eth"); !ok {
		t.Fatalf("clear removed eth")
	}
	m.ClearAll(ctx)
	if m.Len() != 0 {
		t.Fatalf("clear all left %d", m.Len())
	}
}

func TestMemoryIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(clock.NewMock())
	o := outcome("a")
	m.Set(ctx, "x.eth", "", o, time.Minute)
	o.Resolved[0].Address = "mutated"
	o.Chosen.Address = "mutated"

	got, _ := m.Get(ctx, "x.eth", "")
	got.Resolved[0].Address = "again"
	again, _ := m.Get(ctx, "x.eth", "")
	if again.Resolved[0].Address != "a" || again.Chosen.Address != "a" {
		t.Fatalf("cache shares memory with callers: %+v", again)
	}
}

func TestMemoryZeroTTL(t *testing.T) {
	m := NewMemory(clock.NewMock())
	m.Set(context.Background(), "x.eth", "", outcome("a"), 0)
	if m.Len() != 0 {
		t.Fatalf("zero ttl stored")
	}
}

func TestMemoryRunSweeps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := clock.NewMock()
	m := NewMemory(mock)
	m.Set(ctx, "x.eth", "", outcome("a"), time.Minute)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); m.Run(ctx, DefaultSweep) }()

	// let Run register its ticker before moving time
	time.Sleep(10 * time.Millisecond)
	mock.Add(DefaultSweep)
	deadline := time.Now().Add(time.Second)
	for m.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	wg.Wait()
	if m.Len() != 0 {
		t.Fatalf("sweep did not run")
	}
}

func TestMemoryConcurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				m.Set(ctx, "x.eth", "", outcome("a"), time.Minute)
				m.Get(ctx, "x.eth", "")
				m.Cleanup(ctx)
			}
		}()
	}
	wg.Wait()
}
