package redis

import (
	"context"
	"time"

	"dispatch/internal/geocoding"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireVehicleLock(ctx context.Context, vehicleID string, ttl time.Duration) (bool, error)
	ReleaseVehicleLock(ctx context.Context, vehicleID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ geocoding.Store    = (*GeocodeStore)(nil)
	_ LockStoreInterface = (*LockStore)(nil)
)
