package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// TariffRepository is a PostgreSQL implementation of repository.TariffRepository.
// Flat-rate and time-window rules are stored as JSONB arrays.
type TariffRepository struct {
	q Querier
}

var _ repository.TariffRepository = (*TariffRepository)(nil)

// NewTariffRepository creates a new PostgreSQL tariff repository.
func NewTariffRepository(db *sql.DB) *TariffRepository {
	return &TariffRepository{q: db}
}

type flatRateRow struct {
	Name     string  `json:"name"`
	Keyword  string  `json:"keyword"`
	PriceCar float64 `json:"priceCar"`
	PriceVan float64 `json:"priceVan"`
}

type timeRuleRow struct {
	Name          string  `json:"name"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	StartingFee   float64 `json:"startingFee"`
	PricePerKmCar float64 `json:"pricePerKmCar"`
	PricePerKmVan float64 `json:"pricePerKmVan"`
}

// GetActive retrieves the most recently updated active tariff.
func (r *TariffRepository) GetActive(ctx context.Context) (*domain.Tariff, error) {
	query := `SELECT starting_fee, price_per_km_car, price_per_km_van,
		COALESCE(van_passenger_threshold, 0),
		COALESCE(flat_rates, '[]'::jsonb), COALESCE(time_rules, '[]'::jsonb)
		FROM tariffs WHERE active ORDER BY updated_at DESC LIMIT 1`

	var (
		tariff    domain.Tariff
		flatRates []byte
		timeRules []byte
	)
	err := r.q.QueryRowContext(ctx, query).Scan(
		&tariff.StartingFee,
		&tariff.PricePerKmCar,
		&tariff.PricePerKmVan,
		&tariff.VanPassengerThreshold,
		&flatRates,
		&timeRules,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var flat []flatRateRow
	if err := json.Unmarshal(flatRates, &flat); err != nil {
		return nil, fmt.Errorf("decode flat rates: %w", err)
	}
	for _, f := range flat {
		tariff.FlatRates = append(tariff.FlatRates, domain.FlatRateRule{
			Name:     f.Name,
			Keyword:  f.Keyword,
			PriceCar: f.PriceCar,
			PriceVan: f.PriceVan,
		})
	}

	var windows []timeRuleRow
	if err := json.Unmarshal(timeRules, &windows); err != nil {
		return nil, fmt.Errorf("decode time rules: %w", err)
	}
	for _, w := range windows {
		tariff.TimeRules = append(tariff.TimeRules, domain.TimeWindowRule{
			Name:          w.Name,
			Start:         w.Start,
			End:           w.End,
			StartingFee:   w.StartingFee,
			PricePerKmCar: w.PricePerKmCar,
			PricePerKmVan: w.PricePerKmVan,
		})
	}

	return &tariff, nil
}
