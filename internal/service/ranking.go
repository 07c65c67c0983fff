package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"dispatch/internal/domain"
	"dispatch/internal/i18n"
	"dispatch/internal/llm"
	"dispatch/internal/logger"
)

// Candidate is a feasible vehicle with its travel time to the pickup and
// the price of the ride in its fare class.
type Candidate struct {
	Vehicle       domain.Vehicle
	TravelMinutes int
	Price         int
}

// VehicleRanker turns candidates into alternatives ordered by effective ETA.
type VehicleRanker struct {
	now func() time.Time
}

// NewVehicleRanker creates a VehicleRanker. A nil clock uses time.Now.
func NewVehicleRanker(now func() time.Time) *VehicleRanker {
	if now == nil {
		now = time.Now
	}
	return &VehicleRanker{now: now}
}

// FilterByCapacity keeps vehicles that seat at least passengers. An empty
// result is an InsufficientCapacity ErrorResult.
func FilterByCapacity(vehicles []domain.Vehicle, passengers int) ([]domain.Vehicle, error) {
	feasible := make([]domain.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if v.Capacity >= passengers {
			feasible = append(feasible, v)
		}
	}
	if len(feasible) == 0 {
		return nil, errorResult(i18n.ErrInsufficientCapacity, strconv.Itoa(passengers))
	}
	return feasible, nil
}

// Rank filters candidates by capacity, folds busy wait time into each ETA
// and sorts ascending by ETA. Equal ETAs keep their input order.
func (r *VehicleRanker) Rank(passengers int, candidates []Candidate) ([]domain.AssignmentAlternative, error) {
	now := r.now()

	alternatives := make([]domain.AssignmentAlternative, 0, len(candidates))
	for _, c := range candidates {
		if c.Vehicle.Capacity < passengers {
			continue
		}
		wait := waitMinutes(c.Vehicle, now)
		alternatives = append(alternatives, domain.AssignmentAlternative{
			Vehicle:        c.Vehicle,
			ETA:            c.TravelMinutes + wait,
			WaitTime:       wait,
			EstimatedPrice: c.Price,
		})
	}
	if len(alternatives) == 0 {
		return nil, errorResult(i18n.ErrInsufficientCapacity, strconv.Itoa(passengers))
	}

	sort.SliceStable(alternatives, func(i, j int) bool {
		return alternatives[i].ETA < alternatives[j].ETA
	})
	return alternatives, nil
}

func waitMinutes(v domain.Vehicle, now time.Time) int {
	wait := v.WaitUntilFree(now)
	if wait <= 0 {
		return 0
	}
	return int(math.Ceil(wait.Minutes()))
}

// VehicleSelector picks the recommended alternative and returns its index.
// Alternatives are non-empty and sorted by ETA.
type VehicleSelector interface {
	Select(ctx context.Context, ride domain.RideRequest, alternatives []domain.AssignmentAlternative) int
}

var (
	_ VehicleSelector = ETASelector{}
	_ VehicleSelector = (*AssistedSelector)(nil)
)

// ETASelector picks the lowest-ETA alternative.
type ETASelector struct{}

func (ETASelector) Select(_ context.Context, _ domain.RideRequest, _ []domain.AssignmentAlternative) int {
	return 0
}

// AssistedSelector lets a language model choose a vehicle id and falls
// back to ETASelector when the id matches no alternative.
type AssistedSelector struct {
	generator Generator
	fallback  ETASelector
	log       *zap.Logger
}

// NewAssistedSelector creates an AssistedSelector.
func NewAssistedSelector(generator Generator, log *zap.Logger) *AssistedSelector {
	return &AssistedSelector{generator: generator, log: logger.OrNop(log)}
}

var selectionSchema = &llm.Schema{
	Type: "OBJECT",
	Properties: map[string]*llm.Schema{
		"vehicleId": {Type: "STRING", Description: "Id of the chosen vehicle"},
	},
	Required: []string{"vehicleId"},
}

func (s *AssistedSelector) Select(ctx context.Context, ride domain.RideRequest, alternatives []domain.AssignmentAlternative) int {
	var resp struct {
		VehicleID string `json:"vehicleId"`
	}
	if err := s.generator.GenerateJSON(ctx, selectionPrompt(ride, alternatives), selectionSchema, &resp); err != nil {
		s.log.Warn("assisted selection failed, using lowest ETA", logger.Err(err))
		return s.fallback.Select(ctx, ride, alternatives)
	}

	for i, alt := range alternatives {
		if alt.Vehicle.ID == resp.VehicleID {
			return i
		}
	}
	s.log.Warn("assisted selection returned an unknown vehicle, using lowest ETA",
		logger.String("vehicle_id", resp.VehicleID))
	return s.fallback.Select(ctx, ride, alternatives)
}

func selectionPrompt(ride domain.RideRequest, alternatives []domain.AssignmentAlternative) string {
	var b strings.Builder
	b.WriteString("You dispatch taxis. Choose the vehicle that reaches the pickup soonest.\n")
	fmt.Fprintf(&b, "Pickup: %s\nPassengers: %d\n", domain.DisplayAddress(ride.Pickup()), ride.Passengers)
	b.WriteString("Candidates (eta and wait in minutes):\n")
	for _, alt := range alternatives {
		v := alt.Vehicle
		fmt.Fprintf(&b, "- id=%s name=%s type=%s capacity=%d status=%s eta=%d wait=%d price=%d\n",
			v.ID, v.Name, v.Type, v.Capacity, v.Status, alt.ETA, alt.WaitTime, alt.EstimatedPrice)
	}
	b.WriteString("Answer with the id of exactly one candidate.")
	return b.String()
}
