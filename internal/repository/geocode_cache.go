package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/alertabh/internal/geocoding"
)

type GeocodeCache struct {
	redisClient *redis.Client
}

func NewGeocodeCache(redisClient *redis.Client) geocoding.Cache {
	return &GeocodeCache{redisClient: redisClient}
}

func geocodeKey(query string) string {
	return fmt.Sprintf("alertabh:geocode:%s", query)
}

// GetGeocode пытается получить результаты поиска из Redis
func (c *GeocodeCache) GetGeocode(ctx context.Context, query string) ([]geocoding.Candidate, error) {
	val, err := c.redisClient.Get(ctx, geocodeKey(query)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get geocode from cache: %w", err)
	}

	var candidates []geocoding.Candidate
	if err := json.Unmarshal(val, &candidates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal geocode from cache: %w", err)
	}
	return candidates, nil
}

// SetGeocode сохраняет результаты поиска в Redis
func (c *GeocodeCache) SetGeocode(ctx context.Context, query string, candidates []geocoding.Candidate, ttl time.Duration) error {
	val, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("failed to marshal geocode for cache: %w", err)
	}
	if err := c.redisClient.Set(ctx, geocodeKey(query), val, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set geocode in cache: %w", err)
	}
	return nil
}
