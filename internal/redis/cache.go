package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"dispatch/internal/domain"
)

const geocodeCachePrefix = "cache:geocode:"

// GeocodeStore is the shared tier of the geocode cache. Entries never
// expire; a stop address resolves to the same point for the life of the
// deployment.
type GeocodeStore struct {
	client *redis.Client
}

// NewGeocodeStore creates a new GeocodeStore.
func NewGeocodeStore(client *redis.Client) *GeocodeStore {
	return &GeocodeStore{client: client}
}

type cachedCoordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GetCoordinate retrieves a resolved coordinate. A miss returns (nil, nil).
func (s *GeocodeStore) GetCoordinate(ctx context.Context, key string) (*domain.Coordinate, error) {
	data, err := s.client.Get(ctx, geocodeCachePrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached cachedCoordinate
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &domain.Coordinate{Lat: cached.Lat, Lon: cached.Lon}, nil
}

// SetCoordinate stores a resolved coordinate.
func (s *GeocodeStore) SetCoordinate(ctx context.Context, key string, c domain.Coordinate) error {
	data, err := json.Marshal(cachedCoordinate{Lat: c.Lat, Lon: c.Lon})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, geocodeCachePrefix+key, data, 0).Err()
}

// InvalidateCoordinate removes a cached coordinate.
func (s *GeocodeStore) InvalidateCoordinate(ctx context.Context, key string) error {
	return s.client.Del(ctx, geocodeCachePrefix+key).Err()
}
