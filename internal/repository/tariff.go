package repository

import (
	"context"

	"dispatch/internal/domain"
)

// TariffRepository defines the persistence operations for tariffs.
type TariffRepository interface {
	// GetActive retrieves the tariff currently in force.
	GetActive(ctx context.Context) (*domain.Tariff, error)
}
