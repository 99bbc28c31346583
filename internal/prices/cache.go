package prices

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const latestKeyPrefix = "price:latest:"

// Cache is a Redis cache for latest asset prices. Cache failures are treated
// as misses; the price path must keep working with Redis down.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache connects a price cache to Redis.
func NewCache(addr, password string, db int, ttl time.Duration) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Cache{client: client, ttl: ttl}
}

// GetLatest returns the cached latest price for a symbol, or false on a miss.
func (c *Cache) GetLatest(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	val, err := c.client.Get(ctx, latestKeyPrefix+symbol).Result()
	if err != nil {
		return decimal.Zero, false
	}
	price, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}

// SetLatest caches the latest price for a symbol. Best effort.
func (c *Cache) SetLatest(ctx context.Context, symbol string, price decimal.Decimal) {
	c.client.Set(ctx, latestKeyPrefix+symbol, price.String(), c.ttl)
}

// Invalidate drops the cached latest price for a symbol.
func (c *Cache) Invalidate(ctx context.Context, symbol string) {
	c.client.Del(ctx, latestKeyPrefix+symbol)
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
