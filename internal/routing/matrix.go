package routing

import (
	"context"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"dispatch/internal/domain"
	"dispatch/internal/logger"
)

const defaultMaxInFlight = 8

// Unit selects the value a matrix cell holds.
type Unit int

const (
	Minutes Unit = iota
	Seconds
)

// Sentinel is the cost substituted for a pair without a route.
func (u Unit) Sentinel() float64 {
	if u == Seconds {
		return 99999 * 60
	}
	return 99999
}

// Of converts a route into the unit's cost. A nil route costs Sentinel.
func (u Unit) Of(r *Route) float64 {
	if r == nil {
		return u.Sentinel()
	}
	if u == Seconds {
		return r.DurationSeconds
	}
	return r.DurationMinutes()
}

// Missing reports whether v is a sentinel or otherwise unusable cost.
func (u Unit) Missing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v >= u.Sentinel()
}

// Router computes a route through an ordered list of points.
type Router interface {
	Route(ctx context.Context, points []domain.Coordinate) (*Route, error)
}

// MatrixBuilder computes routes and travel-time matrices. Every request to
// the router goes through a shared semaphore that caps in-flight calls.
type MatrixBuilder struct {
	router Router
	sem    *semaphore.Weighted
	log    *zap.Logger
}

// NewMatrixBuilder creates a MatrixBuilder. maxInFlight <= 0 uses the default of 8.
func NewMatrixBuilder(router Router, maxInFlight int64, log *zap.Logger) *MatrixBuilder {
	if maxInFlight <= 0 {
		maxInFlight = defaultMaxInFlight
	}
	return &MatrixBuilder{
		router: router,
		sem:    semaphore.NewWeighted(maxInFlight),
		log:    logger.OrNop(log),
	}
}

// RouteThrough returns the route visiting points in order.
func (b *MatrixBuilder) RouteThrough(ctx context.Context, points []domain.Coordinate) (*Route, error) {
	if len(points) < 2 {
		return nil, ErrTooFewPoints
	}
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer b.sem.Release(1)

	return b.router.Route(ctx, points)
}

// Route returns the route from origin to destination, or nil when it
// cannot be computed. Callers treat nil as the worst case.
func (b *MatrixBuilder) Route(ctx context.Context, origin, destination domain.Coordinate) *Route {
	route, err := b.RouteThrough(ctx, []domain.Coordinate{origin, destination})
	if err != nil {
		b.log.Warn("route lookup failed", logger.Err(err))
		return nil
	}
	return route
}

// Matrix builds the N×N cost matrix of points. The diagonal is zero and
// pairs without a route hold unit.Sentinel().
func (b *MatrixBuilder) Matrix(ctx context.Context, points []domain.Coordinate, unit Unit) [][]float64 {
	n := len(points)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	var g errgroup.Group
	for i := range points {
		for j := range points {
			if i == j {
				continue
			}
			g.Go(func() error {
				matrix[i][j] = unit.Of(b.Route(ctx, points[i], points[j]))
				return nil
			})
		}
	}
	_ = g.Wait()

	return matrix
}

// RoutesTo computes the route from every origin to destination. Entries
// are nil where the lookup failed.
func (b *MatrixBuilder) RoutesTo(ctx context.Context, origins []domain.Coordinate, destination domain.Coordinate) []*Route {
	routes := make([]*Route, len(origins))

	var g errgroup.Group
	for i, origin := range origins {
		g.Go(func() error {
			routes[i] = b.Route(ctx, origin, destination)
			return nil
		})
	}
	_ = g.Wait()

	return routes
}
