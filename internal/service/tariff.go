package service

import (
	"context"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// TariffService reads the active tariff and prices standalone quotes.
type TariffService struct {
	tariffRepo repository.TariffRepository
	pricer     *TariffPricer
}

// NewTariffService creates a new TariffService.
func NewTariffService(tariffRepo repository.TariffRepository, pricer *TariffPricer) *TariffService {
	return &TariffService{tariffRepo: tariffRepo, pricer: pricer}
}

// Active returns the tariff currently in force.
func (s *TariffService) Active(ctx context.Context) (*domain.Tariff, error) {
	return s.tariffRepo.GetActive(ctx)
}

// Quote prices a ride against the given tariff, or the active one when
// tariff is nil.
func (s *TariffService) Quote(ctx context.Context, req PriceRequest, tariff *domain.Tariff) (int, error) {
	if req.DistanceKm < 0 {
		return 0, ErrInvalidDistance
	}
	if req.Passengers <= 0 {
		return 0, ErrInvalidPassengers
	}
	if tariff == nil {
		active, err := s.tariffRepo.GetActive(ctx)
		if err != nil {
			return 0, err
		}
		tariff = active
	}
	return s.pricer.Price(req, *tariff), nil
}
