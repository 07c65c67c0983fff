package geocoding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"dispatch/internal/domain"
	"dispatch/internal/httpx"
)

// GooglePlaces resolves place ids through the Places Details API.
type GooglePlaces struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewGooglePlaces creates a Places Details client.
func NewGooglePlaces(client *http.Client, baseURL, apiKey string) *GooglePlaces {
	return &GooglePlaces{client: client, baseURL: baseURL, apiKey: apiKey}
}

type placeDetailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"result"`
}

func (g *GooglePlaces) Name() string { return "google-places" }

// Detail returns the location of a place id.
func (g *GooglePlaces) Detail(ctx context.Context, placeID, language string) (domain.Coordinate, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", "geometry")
	q.Set("language", language)
	q.Set("key", g.apiKey)

	var resp placeDetailsResponse
	if err := httpx.GetJSON(ctx, g.client, g.baseURL+"?"+q.Encode(), nil, &resp); err != nil {
		return domain.Coordinate{}, err
	}

	switch resp.Status {
	case "OK":
		loc := resp.Result.Geometry.Location
		return domain.Coordinate{Lat: loc.Lat, Lon: loc.Lng}, nil
	case "ZERO_RESULTS", "NOT_FOUND":
		return domain.Coordinate{}, ErrNotFound
	default:
		return domain.Coordinate{}, fmt.Errorf("places status %s: %s", resp.Status, resp.ErrorMessage)
	}
}
