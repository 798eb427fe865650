// Package cache provides an optional Redis-backed cache for forecast
// results. Caching is an optimization only: any Redis failure disables it
// silently and requests fall through to the engine.
package cache

import (
	"context"
	"fmt"
	"time"

	"demand-forecast-engine/config"
	"demand-forecast-engine/forecast"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// ForecastCache stores forecast results keyed by request parameters
type ForecastCache interface {
	Get(ctx context.Context, key string) (forecast.Result, bool)
	Set(ctx context.Context, key string, result forecast.Result)
}

// Key builds a cache key from the forecast request parameters
func Key(model, product string, store, days int) string {
	if model == "" {
		model = "default"
	}
	return fmt.Sprintf("forecast:%s:%s:%d:%d", model, product, store, days)
}

// New returns a Redis cache when enabled and reachable, else the disabled
// cache. Connection failure is a warning, never an error.
func New(cfg config.CacheConfig) ForecastCache {
	if !cfg.Enabled {
		return Disabled{}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithField("component", "cache").WithError(err).
			Warn("redis unreachable, forecast caching disabled")
		return Disabled{}
	}

	return &RedisCache{
		log:    logrus.WithField("component", "cache"),
		client: client,
		ttl:    cfg.TTL.Duration,
	}
}

// Disabled is the no-op cache used when caching is off or Redis is down
type Disabled struct{}

func (Disabled) Get(context.Context, string) (forecast.Result, bool) {
	return forecast.Result{}, false
}

func (Disabled) Set(context.Context, string, forecast.Result) {}

// RedisCache stores JSON-encoded forecast results with a TTL
type RedisCache struct {
	log    *logrus.Entry
	client *redis.Client
	ttl    time.Duration
}

func (c *RedisCache) Get(ctx context.Context, key string) (forecast.Result, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return forecast.Result{}, false
	}
	var result forecast.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return forecast.Result{}, false
	}
	return result, true
}

func (c *RedisCache) Set(ctx context.Context, key string, result forecast.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.WithError(err).Debug("forecast cache write failed")
	}
}
