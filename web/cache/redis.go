// Package cache keeps the recent posts list in Redis. With no address
// configured it runs an embedded server in-process.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/inkwell-blog/inkwell/config"
	"github.com/inkwell-blog/inkwell/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	rdb  *redis.Client
	mini *miniredis.Miniredis
}

// Open connects to the configured Redis, or starts an embedded one when
// cfg.Addr is empty.
func Open(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.Addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("failed to start embedded Redis: %w", err)
		}
		logger.Info("Embedded Redis started on", mr.Addr())
		return &Client{
			rdb:  redis.NewClient(&redis.Options{Addr: mr.Addr()}),
			mini: mr,
		}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	logger.Info("Connected to Redis at", cfg.Addr)
	return &Client{rdb: rdb}, nil
}

func (c *Client) IsEmbedded() bool {
	return c.mini != nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	err := c.rdb.Close()
	if c.mini != nil {
		c.mini.Close()
	}
	return err
}

// Incr bumps a counter and starts its expiry on the first increment.
func (c *Client) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}
