package geocoding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"dispatch/internal/domain"
	"dispatch/internal/httpx"
)

// Nominatim is the secondary geocoder (OpenStreetMap search).
type Nominatim struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewNominatim creates a Nominatim client. The public instance requires
// an identifying User-Agent.
func NewNominatim(client *http.Client, baseURL, userAgent string) *Nominatim {
	return &Nominatim{client: client, baseURL: baseURL, userAgent: userAgent}
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (n *Nominatim) Name() string { return "nominatim" }

// Search returns the candidates for a free-text query.
func (n *Nominatim) Search(ctx context.Context, query, language string) ([]domain.Coordinate, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("limit", strconv.Itoa(searchLimit))
	q.Set("accept-language", language)

	header := http.Header{}
	header.Set("User-Agent", n.userAgent)

	var places []nominatimPlace
	if err := httpx.GetJSON(ctx, n.client, n.baseURL+"?"+q.Encode(), header, &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, ErrNotFound
	}

	out := make([]domain.Coordinate, 0, len(places))
	for _, p := range places {
		lat, err := strconv.ParseFloat(p.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("parse latitude %q: %w", p.Lat, err)
		}
		lon, err := strconv.ParseFloat(p.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("parse longitude %q: %w", p.Lon, err)
		}
		out = append(out, domain.Coordinate{Lat: lat, Lon: lon})
	}
	return out, nil
}
