package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dispatch/internal/domain"
	"dispatch/internal/i18n"
	"dispatch/internal/logger"
	"dispatch/internal/routing"
)

const defaultETASentinel = 999

// Geocoder resolves addresses to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, address, language string) (domain.Coordinate, error)
}

// RouteService computes routes and travel-time matrices.
type RouteService interface {
	RouteThrough(ctx context.Context, points []domain.Coordinate) (*routing.Route, error)
	RoutesTo(ctx context.Context, origins []domain.Coordinate, destination domain.Coordinate) []*routing.Route
	Matrix(ctx context.Context, points []domain.Coordinate, unit routing.Unit) [][]float64
}

// Assistant is the optional language model used in assisted mode.
type Assistant interface {
	Generator
	Configured() bool
}

// URLShortener shortens navigation links.
type URLShortener interface {
	Shorten(ctx context.Context, longURL string) (string, error)
}

// Stage is a step of an assignment call.
type Stage string

const (
	StageInit                 Stage = "init"
	StageGeocodingStops       Stage = "geocoding_stops"
	StageOptimizingRoute      Stage = "optimizing_route"
	StageComputingMainRoute   Stage = "computing_main_route"
	StageComputingVehicleETAs Stage = "computing_vehicle_etas"
	StagePricing              Stage = "pricing"
	StageRanking              Stage = "ranking"
	StageSelecting            Stage = "selecting"
	StageFinalizing           Stage = "finalizing"
	StageDone                 Stage = "done"
	StageFailed               Stage = "failed"
)

// AssignmentConfig holds the engine defaults.
type AssignmentConfig struct {
	DefaultLanguage   string
	ETASentinel       int // Minutes used when a vehicle's ETA cannot be computed
	NavigationBaseURL string
	CallTimeout       time.Duration  // Bounds one FindBestVehicle call; 0 means no bound
	Location          *time.Location // Office time zone for tariff windows and SMS times; nil means time.Local
	VanThreshold      int            // Van pricing threshold for tariffs without one
	Now               func() time.Time
}

// AssignmentRequest is one call to FindBestVehicle.
type AssignmentRequest struct {
	Ride                 domain.RideRequest
	Vehicles             []domain.Vehicle
	Tariff               domain.Tariff
	Optimize             bool
	AssistedOptimization bool
	AssistedSelection    bool
	Language             string
}

func (r AssignmentRequest) assisted() bool {
	return r.AssistedOptimization || r.AssistedSelection
}

// AssignmentService finds the best vehicle for a ride.
type AssignmentService struct {
	geocoder  Geocoder
	routes    RouteService
	assistant Assistant
	shortener URLShortener

	pricer            *TariffPricer
	ranker            *VehicleRanker
	heuristic         StopOptimizer
	assistedOptimizer StopOptimizer
	etaSelector       VehicleSelector
	assistedSelector  VehicleSelector

	cfg AssignmentConfig
	now func() time.Time
	log *zap.Logger
}

// NewAssignmentService creates a new AssignmentService. assistant and
// shortener may be nil.
func NewAssignmentService(
	geocoder Geocoder,
	routes RouteService,
	assistant Assistant,
	shortener URLShortener,
	cfg AssignmentConfig,
	log *zap.Logger,
) *AssignmentService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if cfg.ETASentinel <= 0 {
		cfg.ETASentinel = defaultETASentinel
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	log = logger.OrNop(log)

	s := &AssignmentService{
		geocoder:    geocoder,
		routes:      routes,
		assistant:   assistant,
		shortener:   shortener,
		pricer:      NewTariffPricer(now, PricerConfig{Location: cfg.Location, VanThreshold: cfg.VanThreshold}),
		ranker:      NewVehicleRanker(now),
		heuristic:   HeuristicOptimizer{},
		etaSelector: ETASelector{},
		cfg:         cfg,
		now:         now,
		log:         log,
	}
	if assistant != nil {
		s.assistedOptimizer = NewAssistedOptimizer(assistant, log)
		s.assistedSelector = NewAssistedSelector(assistant, log)
	}
	return s
}

// assignment carries the state of one call between stages.
type assignment struct {
	req      AssignmentRequest
	language string
	stage    Stage

	stops     []string
	coords    []domain.Coordinate
	optimized bool

	vehicles   []domain.Vehicle
	route      *routing.Route
	travel     []int
	candidates []Candidate
	ranked     []domain.AssignmentAlternative
	winner     int
}

// FindBestVehicle runs the assignment pipeline. Fatal outcomes are returned
// as *ErrorResult; malformed requests return a validation error.
func (s *AssignmentService) FindBestVehicle(ctx context.Context, req AssignmentRequest) (*domain.AssignmentResult, error) {
	if err := validateRide(req.Ride); err != nil {
		return nil, err
	}

	if s.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}

	a := &assignment{req: req, language: req.Language, stage: StageInit}
	if strings.TrimSpace(a.language) == "" {
		a.language = s.cfg.DefaultLanguage
	}

	result, err := s.run(ctx, a)
	if err != nil {
		if res, ok := AsErrorResult(err); ok {
			s.log.Info("assignment failed",
				logger.String("stage", string(a.stage)),
				logger.String("message_key", res.MessageKey),
				logger.String("message", res.Message))
		}
		a.stage = StageFailed
		return nil, err
	}
	a.stage = StageDone
	s.log.Info("assignment completed",
		logger.String("assignment_id", result.ID),
		logger.String("vehicle_id", result.Recommended.Vehicle.ID),
		logger.Int("eta", result.Recommended.ETA),
		logger.Int("alternatives", len(result.Alternatives)))
	return result, nil
}

func (s *AssignmentService) run(ctx context.Context, a *assignment) (*domain.AssignmentResult, error) {
	if a.req.assisted() && (s.assistant == nil || !s.assistant.Configured()) {
		return nil, errorResult(i18n.ErrMissingAPIKey, "")
	}

	inService := make([]domain.Vehicle, 0, len(a.req.Vehicles))
	for _, v := range a.req.Vehicles {
		if v.Status.InService() {
			inService = append(inService, v)
		}
	}
	if len(inService) == 0 {
		return nil, errorResult(i18n.ErrNoVehiclesInService, "")
	}

	feasible, err := FilterByCapacity(inService, a.req.Ride.Passengers)
	if err != nil {
		return nil, err
	}
	a.vehicles = feasible

	steps := []struct {
		stage Stage
		run   func(context.Context, *assignment) error
	}{
		{StageGeocodingStops, s.geocodeStops},
		{StageOptimizingRoute, s.optimizeRoute},
		{StageComputingMainRoute, s.computeMainRoute},
		{StageComputingVehicleETAs, s.computeVehicleETAs},
		{StagePricing, s.price},
		{StageRanking, s.rank},
		{StageSelecting, s.selectVehicle},
	}
	for _, step := range steps {
		a.stage = step.stage
		s.log.Debug("assignment stage", logger.String("stage", string(a.stage)))
		if err := step.run(ctx, a); err != nil {
			return nil, err
		}
	}

	a.stage = StageFinalizing
	return s.finalize(ctx, a), nil
}

func (s *AssignmentService) geocodeStops(ctx context.Context, a *assignment) error {
	a.stops = append([]string(nil), a.req.Ride.Stops...)
	a.coords = make([]domain.Coordinate, len(a.stops))

	// Siblings run to completion after a failure; only the first error is kept.
	var g errgroup.Group
	for i, stop := range a.stops {
		g.Go(func() error {
			c, err := s.geocoder.Resolve(ctx, stop, a.language)
			if err != nil {
				return err
			}
			a.coords[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errorResult(i18n.ErrGeocodingFailed, err.Error())
	}
	return nil
}

func (s *AssignmentService) optimizeRoute(ctx context.Context, a *assignment) error {
	if !a.req.Optimize || len(a.stops) <= 2 {
		return nil
	}

	optimizer := s.heuristic
	if a.req.AssistedOptimization && s.assistedOptimizer != nil {
		optimizer = s.assistedOptimizer
	}

	matrix := s.routes.Matrix(ctx, a.coords, routing.Minutes)
	order := optimizer.Optimize(ctx, a.stops, matrix)
	if len(order) != len(a.stops) || order[0] != 0 {
		order = identityOrder(len(a.stops))
	}

	stops := make([]string, len(order))
	coords := make([]domain.Coordinate, len(order))
	for i, idx := range order {
		stops[i] = a.stops[idx]
		coords[i] = a.coords[idx]
	}
	a.stops, a.coords, a.optimized = stops, coords, true
	return nil
}

func (s *AssignmentService) computeMainRoute(ctx context.Context, a *assignment) error {
	route, err := s.routes.RouteThrough(ctx, a.coords)
	if err != nil || route == nil {
		detail := ""
		if err != nil {
			detail = err.Error()
		}
		return errorResult(i18n.ErrMainRouteCalculationFailed, detail)
	}
	a.route = route
	return nil
}

// computeVehicleETAs never fails: a vehicle whose position or route is
// unknown gets the sentinel ETA and sorts last. Positions are resolved
// concurrently, then routed to the pickup in one batch.
func (s *AssignmentService) computeVehicleETAs(ctx context.Context, a *assignment) error {
	a.travel = make([]int, len(a.vehicles))
	positions := make([]*domain.Coordinate, len(a.vehicles))

	var g errgroup.Group
	for i, v := range a.vehicles {
		g.Go(func() error {
			positions[i] = s.vehiclePosition(ctx, v, a.language)
			return nil
		})
	}
	_ = g.Wait()

	var (
		origins []domain.Coordinate
		routed  []int
	)
	for i, pos := range positions {
		if pos == nil {
			a.travel[i] = s.cfg.ETASentinel
			continue
		}
		origins = append(origins, *pos)
		routed = append(routed, i)
	}
	if len(origins) == 0 {
		return nil
	}

	routes := s.routes.RoutesTo(ctx, origins, a.coords[0])
	for k, i := range routed {
		if k >= len(routes) || routes[k] == nil {
			s.log.Warn("vehicle route not found, using sentinel ETA", logger.String("vehicle_id", a.vehicles[i].ID))
			a.travel[i] = s.cfg.ETASentinel
			continue
		}
		a.travel[i] = int(math.Round(routes[k].DurationMinutes()))
	}
	return nil
}

// vehiclePosition resolves a vehicle's location, or returns nil when it is
// blank or cannot be geocoded.
func (s *AssignmentService) vehiclePosition(ctx context.Context, v domain.Vehicle, language string) *domain.Coordinate {
	if strings.TrimSpace(v.Location) == "" {
		s.log.Warn("vehicle has no location, using sentinel ETA", logger.String("vehicle_id", v.ID))
		return nil
	}
	pos, err := s.geocoder.Resolve(ctx, v.Location, language)
	if err != nil {
		s.log.Warn("vehicle location not resolved, using sentinel ETA",
			logger.String("vehicle_id", v.ID), logger.Err(err))
		return nil
	}
	return &pos
}

func (s *AssignmentService) price(_ context.Context, a *assignment) error {
	ride := a.req.Ride
	a.candidates = make([]Candidate, len(a.vehicles))
	for i, v := range a.vehicles {
		a.candidates[i] = Candidate{
			Vehicle:       v,
			TravelMinutes: a.travel[i],
			Price: s.pricer.Price(PriceRequest{
				Pickup:      a.stops[0],
				Destination: a.stops[len(a.stops)-1],
				DistanceKm:  a.route.DistanceKm(),
				VehicleType: v.Type,
				Passengers:  ride.Passengers,
			}, a.req.Tariff),
		}
	}
	return nil
}

func (s *AssignmentService) rank(_ context.Context, a *assignment) error {
	ranked, err := s.ranker.Rank(a.req.Ride.Passengers, a.candidates)
	if err != nil {
		return err
	}
	a.ranked = ranked
	return nil
}

func (s *AssignmentService) selectVehicle(ctx context.Context, a *assignment) error {
	selector := s.etaSelector
	if a.req.AssistedSelection && s.assistedSelector != nil {
		selector = s.assistedSelector
	}
	idx := selector.Select(ctx, a.req.Ride, a.ranked)
	if idx < 0 || idx >= len(a.ranked) {
		idx = 0
	}
	a.winner = idx
	return nil
}

func (s *AssignmentService) finalize(ctx context.Context, a *assignment) *domain.AssignmentResult {
	winner := a.ranked[a.winner]

	alternatives := make([]domain.AssignmentAlternative, 0, len(a.ranked)-1)
	for i, alt := range a.ranked {
		if i != a.winner {
			alternatives = append(alternatives, alt)
		}
	}

	navURL := s.navigationURL(ctx, winner.Vehicle.Location, a.stops)

	ride := a.req.Ride
	ride.Stops = a.stops

	result := &domain.AssignmentResult{
		ID:            uuid.New().String(),
		Recommended:   winner,
		RideDuration:  int(math.Round(a.route.DurationMinutes())),
		RideDistance:  math.Round(a.route.DistanceKm()*10) / 10,
		SMSText:       BuildSMS(ride, navURL, a.language, s.cfg.Location),
		NavigationURL: navURL,
		Alternatives:  alternatives,
	}
	if a.optimized {
		result.OptimizedStops = a.stops
	}
	return result
}

// navigationURL returns the shortened link, or the long one when
// shortening is disabled or fails.
func (s *AssignmentService) navigationURL(ctx context.Context, origin string, stops []string) string {
	long := NavigationURL(s.cfg.NavigationBaseURL, origin, stops)
	if s.shortener == nil {
		return long
	}
	short, err := s.shortener.Shorten(ctx, long)
	if err != nil {
		s.log.Warn("url shortening failed, using full url", logger.Err(err))
		return long
	}
	return short
}

func validateRide(ride domain.RideRequest) error {
	if len(ride.Stops) < 2 {
		return ErrInvalidRideRequest
	}
	for _, s := range ride.Stops {
		text, placeID := domain.SplitAddress(s)
		if text == "" && placeID == "" {
			return ErrInvalidRideRequest
		}
	}
	if ride.Passengers <= 0 {
		return ErrInvalidPassengers
	}
	return nil
}
