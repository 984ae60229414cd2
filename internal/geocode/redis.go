package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/skypulse/internal/logger"
	"github.com/i474232898/skypulse/internal/weather"
)

const redisKeyPrefix = "skypulse:geocode:"

// RedisCache shares resolved coordinates between processes. Capacity is left to the
// server's maxmemory eviction policy; every key carries the TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl, prefix: redisKeyPrefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (weather.Coordinates, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.GetLogger().Warnw("Geocode cache read failed", "key", key, "error", err)
		}
		return weather.Coordinates{}, false
	}

	var coords weather.Coordinates
	if err := json.Unmarshal([]byte(raw), &coords); err != nil {
		logger.GetLogger().Warnw("Discarding malformed geocode cache entry", "key", key, "error", err)
		return weather.Coordinates{}, false
	}
	return coords, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value weather.Coordinates) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, string(data), c.ttl).Err(); err != nil {
		logger.GetLogger().Warnw("Geocode cache write failed", "key", key, "error", err)
	}
}

func (c *RedisCache) Len(ctx context.Context) int {
	keys, err := c.client.Keys(ctx, c.prefix+"*").Result()
	if err != nil {
		logger.GetLogger().Warnw("Geocode cache size lookup failed", "error", err)
		return 0
	}
	return len(keys)
}

func (c *RedisCache) Purge(ctx context.Context) {
	keys, err := c.client.Keys(ctx, c.prefix+"*").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.GetLogger().Warnw("Geocode cache purge failed", "error", err)
	}
}
