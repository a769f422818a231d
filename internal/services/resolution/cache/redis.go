package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"payalias/internal/platform/logger"
	"payalias/internal/services/resolution/domain"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces cache keys in a shared redis
const DefaultPrefix = "payalias:resolve:"

// Redis shares outcomes between API replicas; expiry is left to the server
type Redis struct {
	c      redis.UniversalClient
	prefix string
}

// NewRedis returns a cache over c; an empty prefix uses DefaultPrefix
func NewRedis(c redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Redis{c: c, prefix: prefix}
}

func (r *Redis) key(alias, chain string) string { return r.prefix + domain.CacheKey(alias, chain) }

// Get implements domain.CachePort; redis errors read as a miss
func (r *Redis) Get(ctx context.Context, alias, chain string) (domain.Outcome, bool) {
	b, err := r.c.Get(ctx, r.key(alias, chain)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.C(ctx).Warn().Err(err).Msg("cache get failed")
		}
		return domain.Outcome{}, false
	}
	var o domain.Outcome
	if err := json.Unmarshal(b, &o); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("cache entry undecodable")
		return domain.Outcome{}, false
	}
	return o, true
}

// Set implements domain.CachePort
func (r *Redis) Set(ctx context.Context, alias, chain string, o domain.Outcome, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	b, err := json.Marshal(o)
	if err != nil {
		return
	}
	if err := r.c.Set(ctx, r.key(alias, chain), b, ttl).Err(); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("cache set failed")
	}
}

// Clear implements domain.CachePort
func (r *Redis) Clear(ctx context.Context, alias, chain string) {
	if err := r.c.Del(ctx, r.key(alias, chain)).Err(); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("cache clear failed")
	}
}

// ClearAll implements domain.CachePort by scanning the key prefix
func (r *Redis) ClearAll(ctx context.Context) {
	it := r.c.Scan(ctx, 0, r.prefix+"*", 500).Iterator()
	var batch []string
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := r.c.Del(ctx, batch...).Err(); err != nil {
			logger.C(ctx).Warn().Err(err).Msg("cache clear all failed")
		}
		batch = batch[:0]
	}
	for it.Next(ctx) {
		batch = append(batch, it.Val())
		if len(batch) == 500 {
			flush()
		}
	}
	flush()
	if err := it.Err(); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("cache scan failed")
	}
}

// Cleanup implements domain.CachePort; redis expires keys itself
func (r *Redis) Cleanup(context.Context) int { return 0 }
