package geocoding

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by a provider that has no result for a query.
var ErrNotFound = errors.New("no geocoding result")

// GeocodingError is returned when every provider failed for an address.
type GeocodingError struct {
	Address string
	Err     error
}

func (e *GeocodingError) Error() string {
	return fmt.Sprintf("geocoding %q failed: %v", e.Address, e.Err)
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

// ErrEmptyAddress is returned for an address with neither text nor place id.
var ErrEmptyAddress = errors.New("empty address")
