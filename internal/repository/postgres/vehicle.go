package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
type VehicleRepository struct {
	q Querier
}

var _ repository.VehicleRepository = (*VehicleRepository)(nil)

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

// NewVehicleRepositoryWithTx creates a vehicle repository using a transaction.
func NewVehicleRepositoryWithTx(tx *sql.Tx) *VehicleRepository {
	return &VehicleRepository{q: tx}
}

const vehicleColumns = `id, COALESCE(name, ''), COALESCE(license_plate, ''), type, status,
	COALESCE(location, ''), capacity, COALESCE(driver_id, ''), free_at,
	COALESCE(fuel_type, ''), COALESCE(fuel_consumption, 0)`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanVehicle converts a row into a Vehicle. Type and status strings are
// parsed leniently so legacy spellings are accepted.
func scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	var (
		v           domain.Vehicle
		vehicleType string
		status      string
		freeAt      sql.NullTime
		fuelType    string
	)
	err := row.Scan(
		&v.ID,
		&v.Name,
		&v.LicensePlate,
		&vehicleType,
		&status,
		&v.Location,
		&v.Capacity,
		&v.DriverID,
		&freeAt,
		&fuelType,
		&v.FuelConsumption,
	)
	if err != nil {
		return nil, err
	}

	if v.Type, err = domain.ParseVehicleType(vehicleType); err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", v.ID, err)
	}
	if v.Status, err = domain.ParseVehicleStatus(status); err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", v.ID, err)
	}
	if freeAt.Valid {
		v.FreeAt = freeAt.Time
	}
	if v.FuelType, err = domain.ParseFuelType(fuelType); err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", v.ID, err)
	}
	return &v, nil
}

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

	vehicle, err := scanVehicle(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return vehicle, nil
}

// GetAll retrieves all vehicles.
func (r *VehicleRepository) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY name, id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, rows.Err()
}

// UpdateStatus sets the status of a vehicle. A nil freeAt clears it.
func (r *VehicleRepository) UpdateStatus(ctx context.Context, id string, status domain.VehicleStatus, freeAt *time.Time) error {
	query := `UPDATE vehicles SET status = $1, free_at = $2 WHERE id = $3`

	var free sql.NullTime
	if freeAt != nil {
		free = sql.NullTime{Time: *freeAt, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query, string(status), free, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
