package service

import (
	"net/url"
	"strings"

	"dispatch/internal/domain"
)

// NavigationURL builds a directions link from the vehicle's location
// through every stop. An empty origin starts at the pickup.
func NavigationURL(baseURL, origin string, stops []string) string {
	segments := make([]string, 0, len(stops)+1)
	if o := domain.DisplayAddress(origin); o != "" {
		segments = append(segments, url.PathEscape(o))
	}
	for _, s := range stops {
		segments = append(segments, url.PathEscape(domain.DisplayAddress(s)))
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + strings.Join(segments, "/")
}
