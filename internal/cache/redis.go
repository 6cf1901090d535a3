package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/maltedev/wholesale-crawler/internal/models"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisHash = "crawler:detail-cache"

// RedisClient is the subset of go-redis used here (for testing)
type RedisClient interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HLen(ctx context.Context, key string) *redis.IntCmd
	Close() error
}

// RedisCache stores every product as one field of a single hash, so the
// entry count is a plain HLEN and nothing expires.
type RedisCache struct {
	client RedisClient
	hash   string
}

func NewRedisCache(client RedisClient, hash string) *RedisCache {
	if hash == "" {
		hash = DefaultRedisHash
	}
	return &RedisCache{client: client, hash: hash}
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ConnectRedis opens a client and verifies it with PING.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (models.EnrichedProduct, error) {
	data, err := c.client.HGet(ctx, c.hash, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.EnrichedProduct{}, ErrCacheMiss
	}
	if err != nil {
		return models.EnrichedProduct{}, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var product models.EnrichedProduct
	if err := json.Unmarshal(data, &product); err != nil {
		return models.EnrichedProduct{}, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return product, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, product models.EnrichedProduct) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.client.HSet(ctx, c.hash, key, data).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *RedisCache) Len(ctx context.Context) (int, error) {
	n, err := c.client.HLen(ctx, c.hash).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
