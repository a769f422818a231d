// Package redis opens the optional shared cache connection
package redis

import (
	"context"
	"fmt"
	"time"

	"payalias/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// Config configures the connection; an empty URL disables redis
type Config struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromConfig reads URL, POOL_SIZE, MIN_IDLE and the timeouts under cfg's prefix
func FromConfig(cfg config.Conf) Config {
	return Config{
		URL:          cfg.MayString("URL", ""),
		PoolSize:     cfg.MayInt("POOL_SIZE", 10),
		MinIdleConns: cfg.MayInt("MIN_IDLE", 2),
		DialTimeout:  cfg.MayDuration("DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  cfg.MayDuration("READ_TIMEOUT", 3*time.Second),
		WriteTimeout: cfg.MayDuration("WRITE_TIMEOUT", 3*time.Second),
	}
}

// Client wraps go-redis with a health check
type Client struct {
	*redis.Client
}

// New connects and pings; it returns nil, nil when cfg.URL is empty
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: c}, nil
}

// Ping reports connection health for store guards
func (c *Client) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}
