package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dispatch/internal/domain"
	"dispatch/internal/logger"
	"dispatch/internal/repository"
)

// acceptLockTTL bounds how long an acceptance may hold a vehicle.
const acceptLockTTL = 10 * time.Second

// VehicleLocker serializes concurrent acceptances of the same vehicle.
type VehicleLocker interface {
	AcquireVehicleLock(ctx context.Context, vehicleID string, ttl time.Duration) (bool, error)
	ReleaseVehicleLock(ctx context.Context, vehicleID string) error
}

// VehicleService handles the dispatcher-side vehicle mutations that follow
// an assignment.
type VehicleService struct {
	vehicleRepo repository.VehicleRepository
	locks       VehicleLocker
	now         func() time.Time
	log         *zap.Logger
}

// NewVehicleService creates a new VehicleService. A nil clock uses time.Now
// and a nil locker disables acceptance locking.
func NewVehicleService(vehicleRepo repository.VehicleRepository, locks VehicleLocker, now func() time.Time, log *zap.Logger) *VehicleService {
	if now == nil {
		now = time.Now
	}
	return &VehicleService{vehicleRepo: vehicleRepo, locks: locks, now: now, log: logger.OrNop(log)}
}

// List returns the whole fleet.
func (s *VehicleService) List(ctx context.Context) ([]*domain.Vehicle, error) {
	return s.vehicleRepo.GetAll(ctx)
}

// Snapshot returns the fleet as values for an assignment call.
func (s *VehicleService) Snapshot(ctx context.Context) ([]domain.Vehicle, error) {
	vehicles, err := s.vehicleRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, *v)
	}
	return out, nil
}

// UpdateStatus sets a vehicle's status. Statuses other than Busy clear
// the projected free time.
func (s *VehicleService) UpdateStatus(ctx context.Context, vehicleID string, status domain.VehicleStatus) (*domain.Vehicle, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	var freeAt *time.Time
	if status == domain.VehicleStatusBusy {
		current, err := s.vehicleRepo.GetByID(ctx, vehicleID)
		if err != nil {
			return nil, err
		}
		if !current.FreeAt.IsZero() {
			freeAt = &current.FreeAt
		}
	}

	if err := s.vehicleRepo.UpdateStatus(ctx, vehicleID, status, freeAt); err != nil {
		return nil, err
	}
	s.log.Info("vehicle status updated",
		logger.String("vehicle_id", vehicleID),
		logger.String("status", string(status)))

	return s.vehicleRepo.GetByID(ctx, vehicleID)
}

// AcceptRequest contains the parameters for accepting a recommendation.
type AcceptRequest struct {
	VehicleID    string
	ETA          int // Minutes until pickup
	RideDuration int // Minutes
}

// Accept marks the vehicle Busy until it has reached the pickup and
// finished the ride.
func (s *VehicleService) Accept(ctx context.Context, req AcceptRequest) (*domain.Vehicle, error) {
	if req.VehicleID == "" {
		return nil, ErrInvalidVehicleID
	}
	if req.ETA < 0 || req.RideDuration < 0 {
		return nil, ErrInvalidAcceptance
	}

	if s.locks != nil {
		acquired, err := s.locks.AcquireVehicleLock(ctx, req.VehicleID, acceptLockTTL)
		if err != nil {
			return nil, err
		}
		if !acquired {
			return nil, ErrVehicleLocked
		}
		defer func() {
			if err := s.locks.ReleaseVehicleLock(ctx, req.VehicleID); err != nil {
				s.log.Warn("failed to release vehicle lock", logger.String("vehicle_id", req.VehicleID), logger.Err(err))
			}
		}()
	}

	freeAt := s.now().Add(time.Duration(req.ETA+req.RideDuration) * time.Minute)
	if err := s.vehicleRepo.UpdateStatus(ctx, req.VehicleID, domain.VehicleStatusBusy, &freeAt); err != nil {
		return nil, err
	}
	s.log.Info("assignment accepted",
		logger.String("vehicle_id", req.VehicleID),
		logger.Int("eta", req.ETA),
		logger.Int("ride_duration", req.RideDuration))

	return s.vehicleRepo.GetByID(ctx, req.VehicleID)
}
