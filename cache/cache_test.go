package cache

import (
	"context"
	"testing"

	"demand-forecast-engine/config"
	"demand-forecast-engine/forecast"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name    string
		model   string
		product string
		store   int
		days    int
		want    string
	}{
		{"named model", "random_forest", "Rice", 44, 7, "forecast:random_forest:Rice:44:7"},
		{"default model", "", "all", 44, 30, "forecast:default:all:44:30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.model, tt.product, tt.store, tt.days))
		})
	}
}

func TestDisabledCache(t *testing.T) {
	c := Disabled{}
	ctx := context.Background()

	_, hit := c.Get(ctx, "forecast:default:all:44:7")
	assert.False(t, hit)

	// Set is a no-op; a subsequent Get still misses.
	c.Set(ctx, "forecast:default:all:44:7", forecast.Result{Model: "fallback", Mode: forecast.ModeDegraded})
	_, hit = c.Get(ctx, "forecast:default:all:44:7")
	assert.False(t, hit)
}

func TestNewDisabledWhenCachingOff(t *testing.T) {
	fc := New(config.CacheConfig{Enabled: false})
	assert.IsType(t, Disabled{}, fc)
}

func TestNewFallsBackWhenRedisUnreachable(t *testing.T) {
	fc := New(config.CacheConfig{Enabled: true, Addr: "127.0.0.1:1"})
	assert.IsType(t, Disabled{}, fc)
}
