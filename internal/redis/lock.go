package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func vehicleLockKey(vehicleID string) string {
	return fmt.Sprintf("lock:vehicle:%s", vehicleID)
}

// AcquireVehicleLock attempts to acquire a lock for the given vehicle.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireVehicleLock(ctx context.Context, vehicleID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, vehicleLockKey(vehicleID), "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseVehicleLock releases the lock for the given vehicle.
func (s *LockStore) ReleaseVehicleLock(ctx context.Context, vehicleID string) error {
	return s.client.Del(ctx, vehicleLockKey(vehicleID)).Err()
}
