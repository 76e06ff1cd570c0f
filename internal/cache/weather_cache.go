package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/redis/go-redis/v9"
)

const weatherKeyPrefix = "weather"

type WeatherCache interface {
	Get(ctx context.Context, city, units string) (*domain.Weather, bool, error)
	Set(ctx context.Context, city, units string, w *domain.Weather) error
}

type redisWeatherCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopWeatherCache struct{}

func NewWeatherCache(client *redis.Client, ttlSeconds int) WeatherCache {
	if client == nil {
		return &noopWeatherCache{}
	}
	return &redisWeatherCache{client: client, ttl: ttlOrDefault(ttlSeconds)}
}

func NewNoopWeatherCache() WeatherCache {
	return &noopWeatherCache{}
}

func (c *redisWeatherCache) Get(ctx context.Context, city, units string) (*domain.Weather, bool, error) {
	payload, err := c.client.Get(ctx, buildWeatherKey(city, units)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var w domain.Weather
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, false, fmt.Errorf("decode weather cache: %w", err)
	}
	return &w, true, nil
}

func (c *redisWeatherCache) Set(ctx context.Context, city, units string, w *domain.Weather) error {
	payload, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode weather cache: %w", err)
	}
	if err := c.client.Set(ctx, buildWeatherKey(city, units), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopWeatherCache) Get(ctx context.Context, city, units string) (*domain.Weather, bool, error) {
	return nil, false, nil
}

func (n *noopWeatherCache) Set(ctx context.Context, city, units string, w *domain.Weather) error {
	return nil
}

func buildWeatherKey(city, units string) string {
	return fmt.Sprintf("%s:%s:%s", weatherKeyPrefix,
		strings.ToLower(strings.TrimSpace(city)),
		strings.ToLower(strings.TrimSpace(units)))
}
