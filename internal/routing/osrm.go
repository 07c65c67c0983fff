package routing

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"dispatch/internal/domain"
	"dispatch/internal/httpx"
)

// Route is the distance and duration of a driven path.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// DistanceKm returns the route length in kilometres.
func (r Route) DistanceKm() float64 {
	return r.DistanceMeters / 1000
}

// DurationMinutes returns the route duration in minutes.
func (r Route) DurationMinutes() float64 {
	return r.DurationSeconds / 60
}

// OSRM is a client for the OSRM route service.
type OSRM struct {
	client  *http.Client
	baseURL string
}

// NewOSRM creates an OSRM client for the driving profile.
func NewOSRM(client *http.Client, baseURL string) *OSRM {
	return &OSRM{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Route returns the route visiting points in the given order.
func (o *OSRM) Route(ctx context.Context, points []domain.Coordinate) (*Route, error) {
	if len(points) < 2 {
		return nil, ErrTooFewPoints
	}

	coords := make([]string, len(points))
	for i, p := range points {
		// OSRM expects lon,lat.
		coords[i] = strconv.FormatFloat(p.Lon, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64)
	}
	url := o.baseURL + "/route/v1/driving/" + strings.Join(coords, ";") + "?overview=false"

	var resp osrmResponse
	if err := httpx.GetJSON(ctx, o.client, url, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Code != "Ok" || len(resp.Routes) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNoRoute, resp.Code, resp.Message)
	}

	best := resp.Routes[0]
	return &Route{DistanceMeters: best.Distance, DurationSeconds: best.Duration}, nil
}
