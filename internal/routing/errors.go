package routing

import "errors"

var (
	// ErrNoRoute is returned when the routing provider finds no route.
	ErrNoRoute = errors.New("no route found")

	// ErrTooFewPoints is returned when a route is requested for fewer than two points.
	ErrTooFewPoints = errors.New("route needs at least two points")
)
