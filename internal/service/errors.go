package service

import "errors"

var (
	// ErrInvalidRideRequest is returned when a ride has fewer than two stops or an empty stop.
	ErrInvalidRideRequest = errors.New("ride request needs a pickup and at least one destination")

	// ErrInvalidPassengers is returned when the passenger count is not positive.
	ErrInvalidPassengers = errors.New("invalid passenger count")

	// ErrInvalidVehicleID is returned when vehicle ID is empty.
	ErrInvalidVehicleID = errors.New("invalid vehicle id")

	// ErrInvalidVehicleStatus is returned when a status update names an unknown status.
	ErrInvalidVehicleStatus = errors.New("invalid vehicle status")

	// ErrInvalidVehicleType is returned when a quote or inline vehicle names an unknown vehicle type.
	ErrInvalidVehicleType = errors.New("invalid vehicle type")

	// ErrInvalidFuelType is returned when an inline vehicle names an unknown fuel type.
	ErrInvalidFuelType = errors.New("invalid fuel type")

	// ErrInvalidAcceptance is returned when an accepted assignment carries negative durations.
	ErrInvalidAcceptance = errors.New("invalid assignment acceptance")

	// ErrInvalidDistance is returned when a quote has a negative distance.
	ErrInvalidDistance = errors.New("invalid distance")

	// ErrVehicleLocked is returned when another acceptance for the vehicle is in flight.
	ErrVehicleLocked = errors.New("vehicle is being assigned")
)

// ErrorResult is a fatal, localizable assignment failure. MessageKey is a
// catalog key; Message carries an optional raw detail.
type ErrorResult struct {
	MessageKey string
	Message    string
}

func (e *ErrorResult) Error() string {
	if e.Message == "" {
		return e.MessageKey
	}
	return e.MessageKey + ": " + e.Message
}

func errorResult(key, message string) *ErrorResult {
	return &ErrorResult{MessageKey: key, Message: message}
}

// AsErrorResult extracts an ErrorResult from err.
func AsErrorResult(err error) (*ErrorResult, bool) {
	var res *ErrorResult
	if errors.As(err, &res) {
		return res, true
	}
	return nil, false
}
