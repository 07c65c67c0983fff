package geocoding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dispatch/internal/domain"
	"dispatch/internal/logger"
)

// Provider geocodes free text into candidate coordinates.
type Provider interface {
	Name() string
	Search(ctx context.Context, query, language string) ([]domain.Coordinate, error)
}

// DetailProvider resolves a provider place id into an exact coordinate.
type DetailProvider interface {
	Name() string
	Detail(ctx context.Context, placeID, language string) (domain.Coordinate, error)
}

// Attempt is one step of a provider chain.
type Attempt struct {
	Name   string
	Lookup func(ctx context.Context) (domain.Coordinate, error)
}

// FirstSuccess runs attempts in order and returns the first coordinate
// found together with the name of the attempt that produced it.
func FirstSuccess(ctx context.Context, attempts []Attempt) (domain.Coordinate, string, error) {
	var errs []error
	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			return domain.Coordinate{}, "", err
		}
		c, err := a.Lookup(ctx)
		if err == nil {
			return c, a.Name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", a.Name, err))
	}
	if len(errs) == 0 {
		return domain.Coordinate{}, "", ErrNotFound
	}
	return domain.Coordinate{}, "", errors.Join(errs...)
}

// Resolver resolves addresses through a chain of providers with caching.
type Resolver struct {
	detail    DetailProvider
	providers []Provider
	cache     Cache
	home      Region
	country   Region
	log       *zap.Logger
}

// NewResolver creates a Resolver. Providers are tried in the given order
// after the detail lookup. A nil cache gets a fresh MemoryCache.
func NewResolver(cache Cache, detail DetailProvider, providers []Provider, home, country Region, log *zap.Logger) *Resolver {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Resolver{
		detail:    detail,
		providers: providers,
		cache:     cache,
		home:      home,
		country:   country,
		log:       logger.OrNop(log),
	}
}

// Resolve returns the coordinate of address. The cache is consulted before
// any provider; successful lookups are cached for the process lifetime.
func (r *Resolver) Resolve(ctx context.Context, address, language string) (domain.Coordinate, error) {
	key := CacheKey(address, language)
	if c, ok := r.cache.Get(ctx, key); ok {
		return c, nil
	}

	c, err := r.resolve(ctx, address, language, make(map[string]struct{}))
	if err != nil {
		return domain.Coordinate{}, &GeocodingError{Address: domain.DisplayAddress(address), Err: err}
	}

	r.cache.Set(ctx, key, c)
	return c, nil
}

func (r *Resolver) resolve(ctx context.Context, address, language string, visited map[string]struct{}) (domain.Coordinate, error) {
	text, placeID := domain.SplitAddress(address)
	if text == "" && placeID == "" {
		return domain.Coordinate{}, ErrEmptyAddress
	}
	visited[strings.ToLower(text)] = struct{}{}

	c, source, err := FirstSuccess(ctx, r.attempts(text, placeID, language))
	if err == nil {
		r.log.Debug("address resolved",
			logger.String("address", text),
			logger.String("provider", source))
		return c, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.Coordinate{}, ctxErr
	}

	for _, variant := range shortenedVariants(text) {
		if _, seen := visited[strings.ToLower(variant)]; seen {
			continue
		}
		r.log.Debug("retrying with shortened address",
			logger.String("address", text),
			logger.String("variant", variant))
		if c, vErr := r.resolve(ctx, variant, language, visited); vErr == nil {
			return c, nil
		}
	}
	return domain.Coordinate{}, err
}

func (r *Resolver) attempts(text, placeID, language string) []Attempt {
	attempts := make([]Attempt, 0, len(r.providers)+1)
	if placeID != "" && r.detail != nil {
		detail := r.detail
		attempts = append(attempts, Attempt{
			Name: detail.Name(),
			Lookup: func(ctx context.Context) (domain.Coordinate, error) {
				return detail.Detail(ctx, placeID, language)
			},
		})
	}
	if text == "" {
		return attempts
	}
	for _, p := range r.providers {
		provider := p
		attempts = append(attempts, Attempt{
			Name: provider.Name(),
			Lookup: func(ctx context.Context) (domain.Coordinate, error) {
				candidates, err := provider.Search(ctx, text, language)
				if err != nil {
					return domain.Coordinate{}, err
				}
				c, ok := pickCandidate(candidates, r.home, r.country)
				if !ok {
					return domain.Coordinate{}, ErrNotFound
				}
				return c, nil
			},
		})
	}
	return attempts
}
