package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/creamcommerce/commerce-backend/pkg/config"
)

const (
	keyNamespace  = "cream"
	rankingPrefix = "ranking"
)

// RankingKeySales scores products by units sold.
const RankingKeySales = "product_sales"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	ZIncrBy(context.Context, string, float64, string) *redis.FloatCmd
	ZRevRangeWithScores(context.Context, string, int64, int64) *redis.ZSliceCmd
	Publish(context.Context, string, any) *redis.IntCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client wraps the redis connection helpers needed by the platform.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// RankedProduct is one member of a ranking sorted set.
type RankedProduct struct {
	ProductID string
	Score     float64
}

// New bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{store: raw, raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// IncrementRanking adds delta to the product's score in the named ranking.
func (c *Client) IncrementRanking(ctx context.Context, ranking, productID string, delta float64) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.ZIncrBy(ctx, c.RankingKey(ranking), delta, productID).Err()
}

// TopRanked returns the highest-scored products in the named ranking.
func (c *Client) TopRanked(ctx context.Context, ranking string, limit int64) ([]RankedProduct, error) {
	if c.store == nil {
		return nil, errors.New("redis client not initialized")
	}
	if limit <= 0 {
		limit = 10
	}
	members, err := c.store.ZRevRangeWithScores(ctx, c.RankingKey(ranking), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	ranked := make([]RankedProduct, 0, len(members))
	for _, member := range members {
		id, ok := member.Member.(string)
		if !ok {
			continue
		}
		ranked = append(ranked, RankedProduct{ProductID: id, Score: member.Score})
	}
	return ranked, nil
}

// Publish sends a message to the named channel.
func (c *Client) Publish(ctx context.Context, channel string, payload any) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Publish(ctx, channel, payload).Err()
}

// RankingKey returns a namespaced key for ranking sorted sets.
func (c *Client) RankingKey(name string) string {
	return c.buildKey(rankingPrefix, name)
}

// Del removes the provided keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Del(ctx, keys...).Err()
}

// Ping verifies the connection.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) buildKey(parts ...string) string {
	if len(parts) == 0 {
		return keyNamespace
	}
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part == "" {
			continue
		}
		clean = append(clean, strings.TrimSpace(part))
	}
	return strings.Join(clean, ":")
}
