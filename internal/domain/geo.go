package domain

// Coordinate is a WGS-84 position.
type Coordinate struct {
	Lat float64
	Lon float64
}
