package shortener

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"dispatch/internal/httpx"
)

// ErrInvalidShortURL is returned when the service answers with something
// that is not a URL.
var ErrInvalidShortURL = errors.New("shortener returned an invalid url")

// Client shortens URLs through an is.gd compatible endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// NewClient creates a shortener client.
func NewClient(httpClient *http.Client, endpoint string) *Client {
	return &Client{httpClient: httpClient, endpoint: endpoint}
}

// Shorten returns the short form of longURL.
func (c *Client) Shorten(ctx context.Context, longURL string) (string, error) {
	q := url.Values{}
	q.Set("format", "simple")
	q.Set("url", longURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	body, err := httpx.Do(c.httpClient, req)
	if err != nil {
		return "", err
	}

	short := strings.TrimSpace(string(body))
	if !strings.HasPrefix(short, "http://") && !strings.HasPrefix(short, "https://") {
		return "", ErrInvalidShortURL
	}
	return short, nil
}
