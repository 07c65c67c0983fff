package domain

import (
	"fmt"
	"strings"
	"time"
)

// VehicleType represents the fare class of a vehicle.
type VehicleType string

const (
	VehicleTypeCar VehicleType = "CAR"
	VehicleTypeVan VehicleType = "VAN"
)

// ParseVehicleType converts a wire value into a VehicleType, ignoring case.
func ParseVehicleType(s string) (VehicleType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CAR":
		return VehicleTypeCar, nil
	case "VAN":
		return VehicleTypeVan, nil
	default:
		return "", fmt.Errorf("unknown vehicle type %q", s)
	}
}

// VehicleStatus represents the current operational status of a vehicle.
type VehicleStatus string

const (
	VehicleStatusAvailable       VehicleStatus = "AVAILABLE"
	VehicleStatusBusy            VehicleStatus = "BUSY"
	VehicleStatusOutOfService    VehicleStatus = "OUT_OF_SERVICE"
	VehicleStatusNotDrivingToday VehicleStatus = "NOT_DRIVING_TODAY"
)

// ParseVehicleStatus converts a wire value into a VehicleStatus.
// Matching ignores case, underscores, dashes and spaces, so "Busy",
// "out_of_service" and "NotDrivingToday" are all accepted.
func ParseVehicleStatus(s string) (VehicleStatus, error) {
	normalized := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch normalized {
	case "available":
		return VehicleStatusAvailable, nil
	case "busy":
		return VehicleStatusBusy, nil
	case "outofservice":
		return VehicleStatusOutOfService, nil
	case "notdrivingtoday":
		return VehicleStatusNotDrivingToday, nil
	default:
		return "", fmt.Errorf("unknown vehicle status %q", s)
	}
}

// InService reports whether a vehicle with this status can take rides.
func (s VehicleStatus) InService() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusBusy:
		return true
	case VehicleStatusOutOfService, VehicleStatusNotDrivingToday:
		return false
	default:
		return false
	}
}

// FuelType represents the fuel a vehicle runs on.
type FuelType string

const (
	FuelTypePetrol   FuelType = "PETROL"
	FuelTypeDiesel   FuelType = "DIESEL"
	FuelTypeLPG      FuelType = "LPG"
	FuelTypeElectric FuelType = "ELECTRIC"
)

// ParseFuelType converts a wire value into a FuelType, ignoring case.
// An empty value means the fuel type is not recorded.
func ParseFuelType(s string) (FuelType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "PETROL":
		return FuelTypePetrol, nil
	case "DIESEL":
		return FuelTypeDiesel, nil
	case "LPG":
		return FuelTypeLPG, nil
	case "ELECTRIC":
		return FuelTypeElectric, nil
	default:
		return "", fmt.Errorf("unknown fuel type %q", s)
	}
}

// Vehicle represents a fleet vehicle as seen by the dispatcher.
type Vehicle struct {
	ID           string
	Name         string
	LicensePlate string
	Type         VehicleType
	Status       VehicleStatus
	Location     string // Free-text address of the current position
	Capacity     int
	DriverID     string
	FreeAt       time.Time // Projected free time; only meaningful while Busy

	FuelType        FuelType
	FuelConsumption float64 // Litres (or kWh) per 100 km
}

// WaitUntilFree returns how long the vehicle stays busy after now.
// It is zero for vehicles that are not Busy or whose FreeAt has passed.
func (v Vehicle) WaitUntilFree(now time.Time) time.Duration {
	if v.Status != VehicleStatusBusy || v.FreeAt.IsZero() {
		return 0
	}
	if wait := v.FreeAt.Sub(now); wait > 0 {
		return wait
	}
	return 0
}
