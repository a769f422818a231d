// Package cache stores resolution outcomes for a bounded time, in process or in redis
package cache

import (
	"context"
	"sync"
	"time"

	"payalias/internal/platform/logger"
	"payalias/internal/services/resolution/domain"

	"github.com/benbjohnson/clock"
)

// DefaultSweep is how often Run purges expired entries
const DefaultSweep = 10 * time.Minute

type entry struct {
	o       domain.Outcome
	expires time.Time
}

// Memory is a map cache with per entry expiry; there is no size bound, Run keeps it from growing with dead keys
type Memory struct {
	mu    sync.RWMutex
	items map[string]entry
	clock clock.Clock
}

// NewMemory returns an empty cache; a nil clock uses the wall clock
func NewMemory(c clock.Clock) *Memory {
	if c == nil {
		c = clock.New()
	}
	return &Memory{items: map[string]entry{}, clock: c}
}

// Get implements domain.CachePort
func (m *Memory) Get(_ context.Context, alias, chain string) (domain.Outcome, bool) {
	m.mu.RLock()
	e, ok := m.items[domain.CacheKey(alias, chain)]
	m.mu.RUnlock()
	if !ok || !m.clock.Now().Before(e.expires) {
		return domain.Outcome{}, false
	}
	return e.o.Clone(), true
}

// Set implements domain.CachePort; a non positive ttl is a no-op
func (m *Memory) Set(_ context.Context, alias, chain string, o domain.Outcome, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	e := entry{o: o.Clone(), expires: m.clock.Now().Add(ttl)}
	m.mu.Lock()
	m.items[domain.CacheKey(alias, chain)] = e
	m.mu.Unlock()
}

// Clear implements domain.CachePort
func (m *Memory) Clear(_ context.Context, alias, chain string) {
	m.mu.Lock()
	delete(m.items, domain.CacheKey(alias, chain))
	m.mu.Unlock()
}

// ClearAll implements domain.CachePort
func (m *Memory) ClearAll(context.Context) {
	m.mu.Lock()
	m.items = map[string]entry{}
	m.mu.Unlock()
}

// Cleanup implements domain.CachePort and returns the number of entries removed
func (m *Memory) Cleanup(context.Context) int {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.items {
		if !now.Before(e.expires) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

// Len is the number of stored entries, expired or not
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Run sweeps expired entries every interval until ctx is done
func (m *Memory) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = DefaultSweep
	}
	log := logger.Named("resolution-cache")
	t := m.clock.Ticker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Cleanup(ctx); n > 0 {
				log.Debug().Int("removed", n).Msg("cache sweep")
			}
		}
	}
}
