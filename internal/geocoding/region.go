package geocoding

import (
	"github.com/golang/geo/s2"

	"dispatch/internal/config"
	"dispatch/internal/domain"
)

// Region is a lat/lon rectangle used to prefer nearby geocoding candidates.
// The zero Region contains nothing.
type Region struct {
	rect  s2.Rect
	valid bool
}

// NewRegion builds a Region from a bounding box. An all-zero box yields
// an empty Region.
func NewRegion(box config.BoundingBox) Region {
	if box == (config.BoundingBox{}) {
		return Region{}
	}
	rect := s2.RectFromLatLng(s2.LatLngFromDegrees(box.MinLat, box.MinLon)).
		AddPoint(s2.LatLngFromDegrees(box.MaxLat, box.MaxLon))
	return Region{rect: rect, valid: true}
}

// Contains reports whether c lies inside the region.
func (r Region) Contains(c domain.Coordinate) bool {
	if !r.valid {
		return false
	}
	return r.rect.ContainsLatLng(s2.LatLngFromDegrees(c.Lat, c.Lon))
}

// pickCandidate applies the three-tier preference: home region, then home
// country, then the first candidate.
func pickCandidate(candidates []domain.Coordinate, home, country Region) (domain.Coordinate, bool) {
	if len(candidates) == 0 {
		return domain.Coordinate{}, false
	}
	for _, c := range candidates {
		if home.Contains(c) {
			return c, true
		}
	}
	for _, c := range candidates {
		if country.Contains(c) {
			return c, true
		}
	}
	return candidates[0], true
}
