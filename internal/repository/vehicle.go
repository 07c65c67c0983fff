package repository

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// VehicleRepository defines the persistence operations for vehicles.
type VehicleRepository interface {
	// GetByID retrieves a vehicle by ID.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// GetAll retrieves all vehicles.
	GetAll(ctx context.Context) ([]*domain.Vehicle, error)

	// UpdateStatus sets the status of a vehicle. A nil freeAt clears it.
	UpdateStatus(ctx context.Context, id string, status domain.VehicleStatus, freeAt *time.Time) error
}
