package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/weather-summary/internal/weather"
)

const redisKeyPrefix = "weather:summary:"

// RedisCache stores summaries in Redis with a per-key TTL.
// Capacity is bounded by the server's maxmemory policy rather than by this type.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache constructs a RedisCache. A non-positive ttl falls back to DefaultTTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// ConnectRedis parses redisURL, creates a client, and verifies connectivity with a ping.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// Keys are case-sensitive, matching the in-memory cache.
func redisKey(city string) string {
	return redisKeyPrefix + city
}

// Get retrieves a summary. A miss is reported as ok=false with a nil error.
func (c *RedisCache) Get(ctx context.Context, city string) (weather.WeatherSummary, bool, error) {
	val, err := c.client.Get(ctx, redisKey(city)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return weather.WeatherSummary{}, false, nil
		}
		return weather.WeatherSummary{}, false, fmt.Errorf("cache get for city %s: %w", city, err)
	}

	var summary weather.WeatherSummary
	if err := json.Unmarshal(val, &summary); err != nil {
		return weather.WeatherSummary{}, false, fmt.Errorf("unmarshaling cached summary for city %s: %w", city, err)
	}

	return summary, true, nil
}

// Set stores a summary with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, city string, summary weather.WeatherSummary) error {
	b, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling summary for city %s: %w", city, err)
	}

	if err := c.client.Set(ctx, redisKey(city), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for city %s: %w", city, err)
	}

	return nil
}

// Ping reports whether Redis is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
