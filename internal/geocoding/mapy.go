package geocoding

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"dispatch/internal/domain"
	"dispatch/internal/httpx"
)

const searchLimit = 5

// Mapy is the primary text-search geocoder (api.mapy.cz).
type Mapy struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewMapy creates a Mapy geocoding client.
func NewMapy(client *http.Client, baseURL, apiKey string) *Mapy {
	return &Mapy{client: client, baseURL: baseURL, apiKey: apiKey}
}

type mapyResponse struct {
	Items []struct {
		Name     string `json:"name"`
		Position struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"position"`
	} `json:"items"`
}

func (m *Mapy) Name() string { return "mapy" }

// Search returns the candidates for a free-text query.
func (m *Mapy) Search(ctx context.Context, query, language string) ([]domain.Coordinate, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("lang", language)
	q.Set("limit", strconv.Itoa(searchLimit))

	header := http.Header{}
	header.Set("X-Mapy-Api-Key", m.apiKey)

	var resp mapyResponse
	if err := httpx.GetJSON(ctx, m.client, m.baseURL+"?"+q.Encode(), header, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, ErrNotFound
	}

	out := make([]domain.Coordinate, 0, len(resp.Items))
	for _, item := range resp.Items {
		out = append(out, domain.Coordinate{Lat: item.Position.Lat, Lon: item.Position.Lon})
	}
	return out, nil
}
