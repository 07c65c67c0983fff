package domain

import "strings"

// PickupTimeASAP is the sentinel pickup time meaning "as soon as possible".
const PickupTimeASAP = "ihned"

// placeIDSeparator separates a display address from an optional provider place id.
const placeIDSeparator = "|"

// RideRequest represents a multi-stop ride to be dispatched.
// Stops[0] is the pickup; the rest are destinations in travel order.
type RideRequest struct {
	Stops         []string
	CustomerName  string
	CustomerPhone string
	Passengers    int
	PickupTime    string // PickupTimeASAP or a parseable timestamp
	Notes         string
}

// Pickup returns the pickup stop.
func (r RideRequest) Pickup() string {
	if len(r.Stops) == 0 {
		return ""
	}
	return r.Stops[0]
}

// Destination returns the final stop.
func (r RideRequest) Destination() string {
	if len(r.Stops) == 0 {
		return ""
	}
	return r.Stops[len(r.Stops)-1]
}

// SplitAddress separates an address string of the form "text|placeId".
// The place id is empty when the address carries no suffix.
func SplitAddress(address string) (text, placeID string) {
	idx := strings.LastIndex(address, placeIDSeparator)
	if idx < 0 {
		return strings.TrimSpace(address), ""
	}
	return strings.TrimSpace(address[:idx]), strings.TrimSpace(address[idx+1:])
}

// DisplayAddress returns the address without any place id suffix.
func DisplayAddress(address string) string {
	text, _ := SplitAddress(address)
	return text
}
