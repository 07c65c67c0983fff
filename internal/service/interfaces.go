package service

import (
	"dispatch/internal/geocoding"
	"dispatch/internal/llm"
	"dispatch/internal/routing"
	"dispatch/internal/shortener"
)

// Ensure the production collaborators implement the ports used here.
var (
	_ Geocoder     = (*geocoding.Resolver)(nil)
	_ RouteService = (*routing.MatrixBuilder)(nil)
	_ Assistant    = (*llm.Client)(nil)
	_ URLShortener = (*shortener.Client)(nil)
)
