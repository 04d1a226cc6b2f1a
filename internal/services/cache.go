package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const quoteKeyPrefix = "ledger-analyzer:quote:"

// RedisQuoteCache keeps market quotes in Redis.
type RedisQuoteCache struct {
	client *redis.Client
}

// NewRedisQuoteCache connects to redisURL and verifies the connection.
func NewRedisQuoteCache(ctx context.Context, redisURL string) (*RedisQuoteCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisQuoteCache{client: client}, nil
}

// Get returns the cached quote for key, reporting false on a miss.
func (c *RedisQuoteCache) Get(ctx context.Context, key string) (decimal.Decimal, bool, error) {
	raw, err := c.client.Get(ctx, quoteKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("corrupt cached quote %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores a quote for ttl.
func (c *RedisQuoteCache) Set(ctx context.Context, key string, value decimal.Decimal, ttl time.Duration) error {
	return c.client.Set(ctx, quoteKeyPrefix+key, value.String(), ttl).Err()
}

// Close releases the connection pool.
func (c *RedisQuoteCache) Close() error {
	return c.client.Close()
}
