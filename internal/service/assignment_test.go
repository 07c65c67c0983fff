package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/domain"
	"dispatch/internal/i18n"
)

const (
	pickupAddr  = "Náměstí, Mikulov"
	destAddr    = "Dukelské náměstí, Hustopeče"
	nearAddr    = "Nádražní, Mikulov"
	valticeAddr = "Valtice"
	brnoAddr    = "Brno"
)

// Leg costs to the pickup under mockRoutes: near 1 min, Valtice 18 min,
// Brno 42 min. The main route is 23 min and 23 km.
var testAddresses = map[string]domain.Coordinate{
	pickupAddr:  {Lat: 48.8056, Lon: 16.6378},
	destAddr:    {Lat: 48.9356, Lon: 16.7378},
	nearAddr:    {Lat: 48.8100, Lon: 16.6400},
	valticeAddr: {Lat: 48.7406, Lon: 16.7553},
	brnoAddr:    {Lat: 49.1951, Lon: 16.6068},
}

func newTestAddresses() map[string]domain.Coordinate {
	out := make(map[string]domain.Coordinate, len(testAddresses))
	for k, v := range testAddresses {
		out[k] = v
	}
	return out
}

func testConfig() AssignmentConfig {
	return AssignmentConfig{
		DefaultLanguage:   "cs",
		ETASentinel:       999,
		NavigationBaseURL: "https://www.google.com/maps/dir/",
		Location:          time.UTC,
		Now:               fixedClock(rankNow),
	}
}

func baseTariff() domain.Tariff {
	return domain.Tariff{StartingFee: 50, PricePerKmCar: 30, PricePerKmVan: 45}
}

func twoStopRide(passengers int) domain.RideRequest {
	return domain.RideRequest{
		Stops:         []string{pickupAddr, destAddr},
		CustomerName:  "Jana",
		CustomerPhone: "777123456",
		Passengers:    passengers,
		PickupTime:    domain.PickupTimeASAP,
	}
}

func car(id, location string) domain.Vehicle {
	return domain.Vehicle{ID: id, Name: "Octavia " + id, Type: domain.VehicleTypeCar, Status: domain.VehicleStatusAvailable, Location: location, Capacity: 4}
}

func busyVan(id, location string, freeIn time.Duration) domain.Vehicle {
	return domain.Vehicle{ID: id, Name: "Transit " + id, Type: domain.VehicleTypeVan, Status: domain.VehicleStatusBusy, Location: location, Capacity: 6, FreeAt: rankNow.Add(freeIn)}
}

type testEnv struct {
	geocoder  *mockGeocoder
	routes    *mockRoutes
	assistant *mockAssistant
	service   *AssignmentService
}

func newTestEnv(assistant *mockAssistant, shortener URLShortener) *testEnv {
	env := &testEnv{
		geocoder:  newMockGeocoder(newTestAddresses()),
		routes:    newMockRoutes(),
		assistant: assistant,
	}
	var a Assistant
	if assistant != nil {
		a = assistant
	}
	env.service = NewAssignmentService(env.geocoder, env.routes, a, shortener, testConfig(), nil)
	return env
}

func requireErrorResult(t *testing.T, err error, key string) *ErrorResult {
	t.Helper()
	res, ok := AsErrorResult(err)
	require.True(t, ok, "expected ErrorResult, got %v", err)
	assert.Equal(t, key, res.MessageKey)
	return res
}

func TestFindBestVehicle_AvailableCarBeatsBusyVan(t *testing.T) {
	env := newTestEnv(nil, nil)

	result, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{
		Ride:     twoStopRide(1),
		Vehicles: []domain.Vehicle{car("car-1", nearAddr), busyVan("van-1", valticeAddr, 10*time.Minute)},
		Tariff:   baseTariff(),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "car-1", result.Recommended.Vehicle.ID)
	assert.Equal(t, 1, result.Recommended.ETA)
	assert.Equal(t, 0, result.Recommended.WaitTime)
	assert.Equal(t, 740, result.Recommended.EstimatedPrice)

	require.Len(t, result.Alternatives, 1)
	assert.Equal(t, "van-1", result.Alternatives[0].Vehicle.ID)
	assert.Equal(t, 28, result.Alternatives[0].ETA)
	assert.Equal(t, 10, result.Alternatives[0].WaitTime)
	assert.Equal(t, 1085, result.Alternatives[0].EstimatedPrice)

	assert.Equal(t, 23, result.RideDuration)
	assert.Equal(t, 23.0, result.RideDistance)
	assert.Nil(t, result.OptimizedStops)
	assert.True(t, strings.HasPrefix(result.NavigationURL, "https://www.google.com/maps/dir/N%C3%A1dra%C5%BEn%C3%AD"))
}

func TestFindBestVehicle_BusyVanWinsWhenCarIsFar(t *testing.T) {
	env := newTestEnv(nil, nil)

	result, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{
		Ride:     twoStopRide(1),
		Vehicles: []domain.Vehicle{car("car-1", brnoAddr), busyVan("van-1", nearAddr, 10*time.Minute)},
		Tariff:   baseTariff(),
	})
	require.NoError(t, err)

	assert.Equal(t, "van-1", result.Recommended.Vehicle.ID)
	assert.Equal(t, 11, result.Recommended.ETA)
	require.Len(t, result.Alternatives, 1)
	assert.Equal(t, "car-1", result.Alternatives[0].Vehicle.ID)
	assert.Equal(t, 42, result.Alternatives[0].ETA)
}

func TestFindBestVehicle_HeuristicOptimization(t *testing.T) {
	env := newTestEnv(nil, nil)
	pickup := testAddresses[pickupAddr]
	env.geocoder.addresses["Stop A"] = domain.Coordinate{Lat: pickup.Lat + 0.3, Lon: pickup.Lon}
	env.geocoder.addresses["Stop B"] = domain.Coordinate{Lat: pickup.Lat + 0.1, Lon: pickup.Lon}
	env.geocoder.addresses["Stop C"] = domain.Coordinate{Lat: pickup.Lat + 0.2, Lon: pickup.Lon}

	ride := twoStopRide(2)
	ride.Stops = []string{pickupAddr, "Stop A", "Stop B", "Stop C"}

	result, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{
		Ride:     ride,
		Vehicles: []domain.Vehicle{car("car-1", nearAddr)},
		Tariff:   baseTariff(),
		Optimize: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{pickupAddr, "Stop B", "Stop C", "Stop A"}, result.OptimizedStops)
	assert.ElementsMatch(t, ride.Stops, result.OptimizedStops)
	assert.Equal(t, int32(1), env.routes.MatrixCallCount)
	assert.True(t, strings.HasPrefix(result.SMSText, pickupAddr+" → Stop B → Stop C → Stop A\n"))
	assert.Equal(t, []string{pickupAddr, "Stop A", "Stop B", "Stop C"}, ride.Stops, "request must not be mutated")
}

func TestFindBestVehicle_TwoStopsNeverOptimized(t *testing.T) {
	env := newTestEnv(nil, nil)

	result, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{
		Ride:     twoStopRide(1),
		Vehicles: []domain.Vehicle{car("car-1", nearAddr)},
		Tariff:   baseTariff(),
		Optimize: true,
	})
	require.NoError(t, err)

	assert.Nil(t, result.OptimizedStops)
	assert.Equal(t, int32(0), env.routes.MatrixCallCount)
}

func TestFindBestVehicle_AssistedOptimizationFallsBackToOriginalOrder(t *testing.T) {
	assistant := &mockAssistant{configured: true, Err: errors.New("service unreachable")}
	env := newTestEnv(assistant, nil)
	env.geocoder.addresses["Stop A"] = testAddresses[brnoAddr]
	env.geocoder.addresses["Stop B"] = testAddresses[valticeAddr]

	ride := twoStopRide(1)
	ride.Stops = []string{pickupAddr, "Stop A", "Stop B", destAddr}

	result, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{
		Ride:                 ride,
		Vehicles:             []domain.Vehicle{car("car-1", nearAddr)},
		Tariff:               baseTariff(),
		Optimize:             true,
		AssistedOptimization: true,
	})
	require.NoError(t, err)

	assert.Equal(t, ride.Stops, result.OptimizedStops)
	assert.Equal(t, int32(1), assistant.CallCount)
}

func TestFindBestVehicle_AssistedOptimizationUsesModelOrder(t *testing.T) {
	assistant := &mockAssistant{configured: true, Response: `{"order":[2,1,3]}`}
	env := newTestEnv(assistant, nil)
	env.geocoder.addresses["Stop A"] = testAddresses[brnoAddr]
	env.geocoder.addresses["Stop B"] = testAddresses[valticeAddr]

	ride := twoStopRide(1)
	ride.Stops = []string{pickupAddr, "Stop A", "Stop B", destAddr}

	result, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{
		Ride:                 ride,
		Vehicles:             []domain.Vehicle{car("car-1", nearAddr)},
		Tariff:               baseTariff(),
		Optimize:             true,
		AssistedOptimization: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{pickupAddr, "Stop B", "Stop A", destAddr}, result.OptimizedStops)
}

func TestFindBestVehicle_InsufficientCapacity(t *testing.T) {
	env := newTestEnv(nil, nil)

	_, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{
		Ride:     twoStopRide(5),
		Vehicles: []domain.Vehicle{car("car-1", nearAddr), car("car-2", valticeAddr)},
		Tariff:   baseTariff(),
	})

	res := requireErrorResult(t, err, "error.insufficientCapacity")
	assert.Equal(t, "5", res.Message)
	assert.Equal(t, int32(0), env.geocoder.CallCount)
}

func TestFindBestVehicle_NoVehiclesInService(t *testing.T) {
	outOfService := car("car-1", nearAddr)
	outOfService.Status = domain.VehicleStatusOutOfService
	notDriving := car("car-2", nearAddr)
	notDriving.Status = domain.VehicleStatusNotDrivingToday

	tests := []struct {
		name     string
		vehicles []domain.Vehicle
	}{
		{"empty fleet", nil},
		{"nobody in service", []domain.Vehicle{outOfService, notDriving}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(nil, nil)

			_, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{
				Ride:     twoStopRide(1),
				Vehicles: tt.vehicles,
				Tariff:   baseTariff(),
			})

			res := requireErrorResult(t, err, "error.noVehiclesInService")
			assert.Empty(t, res.Message)
		})
	}
}

func TestFindBestVehicle_MissingAPIKey(t *testing.T) {
	tests := []struct {
		name      string
		assistant *mockAssistant
		req       AssignmentRequest
	}{
		{"no assistant", nil, AssignmentRequest{AssistedSelection: true}},
		{"assistant without key", &mockAssistant{}, AssignmentRequest{AssistedOptimization: true, Optimize: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(tt.assistant, nil)
			req := tt.req
			req.Ride = twoStopRide(1)
			req.Vehicles = []domain.Vehicle{car("car-1", nearAddr)}

			_, err := env.service.FindBestVehicle(context.Background(), req)

			requireErrorResult(t, err, i18n.ErrMissingAPIKey)
			assert.Equal(t, int32(0), env.geocoder.CallCount)
		})
	}
}

func TestFindBestVehicle_StopGeocodingFailed(t *testing.T) {
	env := newTestEnv(nil, nil)
	ride := twoStopRide(1)
	ride.Stops = []string{pickupAddr, "Atlantis"}

	_, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{
		Ride:     ride,
		Vehicles: []domain.Vehicle{car("car-1", nearAddr)},
		Tariff:   baseTariff(),
	})

	res := requireErrorResult(t, err, "error.geocodingFailed")
	assert.Contains(t, res.Message, "Atlantis")
}

func TestFindBestVehicle_MainRouteFailed(t *testing.T) {
	env := newTestEnv(nil, nil)
	env.routes.RouteThroughError = errors.New("no route found")

	_, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{
		Ride:     twoStopRide(1),
		Vehicles: []domain.Vehicle{car("car-1", nearAddr)},
		Tariff:   baseTariff(),
	})

	requireErrorResult(t, err, "error.mainRouteCalculationFailed")
}

func TestFindBestVehicle_VehicleLookupFailuresSortLast(t *testing.T) {
	env := newTestEnv(nil, nil)
	env.routes.FailRoute(testAddresses[brnoAddr], testAddresses[pickupAddr])

	unknown := car("lost", "Nowhere 12")
	noLocation := car("silent", "")
	noRoute := car("island", brnoAddr)
	nearby := car("near", valticeAddr)

	result, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{
		Ride:     twoStopRide(1),
		Vehicles: []domain.Vehicle{unknown, noLocation, noRoute, nearby},
		Tariff:   baseTariff(),
	})
	require.NoError(t, err)

	assert.Equal(t, "near", result.Recommended.Vehicle.ID)
	require.Len(t, result.Alternatives, 3)
	for _, alt := range result.Alternatives {
		assert.Equal(t, 999, alt.ETA, alt.Vehicle.ID)
	}
	assert.Equal(t, "lost", result.Alternatives[0].Vehicle.ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&env.routes.RoutesToCallCount), "vehicle ETAs are routed in one batch")
}

func TestFindBestVehicle_NoVehiclePositionsSkipsRouting(t *testing.T) {
	env := newTestEnv(nil, nil)

	result, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{
		Ride:     twoStopRide(1),
		Vehicles: []domain.Vehicle{car("lost", "Nowhere 12"), car("silent", "")},
		Tariff:   baseTariff(),
	})
	require.NoError(t, err)

	assert.Equal(t, 999, result.Recommended.ETA)
	assert.Zero(t, atomic.LoadInt32(&env.routes.RoutesToCallCount))
}

func TestFindBestVehicle_CapacityAndOrderProperties(t *testing.T) {
	env := newTestEnv(nil, nil)
	small := car("small", nearAddr)
	small.Capacity = 2
	vehicles := []domain.Vehicle{
		small,
		car("car-brno", brnoAddr),
		busyVan("van-near", nearAddr, 25*time.Minute),
		busyVan("van-valtice", valticeAddr, 0),
		car("car-valtice", valticeAddr),
	}

	result, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{
		Ride:     twoStopRide(3),
		Vehicles: vehicles,
		Tariff:   baseTariff(),
	})
	require.NoError(t, err)

	all := append([]domain.AssignmentAlternative{result.Recommended}, result.Alternatives...)
	require.Len(t, all, 4)
	for i, alt := range all {
		assert.GreaterOrEqual(t, alt.Vehicle.Capacity, 3, alt.Vehicle.ID)
		if i > 0 {
			assert.LessOrEqual(t, all[i-1].ETA, alt.ETA)
		}
	}
	assert.Equal(t, "van-valtice", result.Recommended.Vehicle.ID, "equal ETAs keep fleet order")
}

func TestFindBestVehicle_AssistedSelection(t *testing.T) {
	assistant := &mockAssistant{configured: true, Response: `{"vehicleId":"van-1"}`}
	env := newTestEnv(assistant, nil)

	result, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{
		Ride:              twoStopRide(1),
		Vehicles:          []domain.Vehicle{car("car-1", nearAddr), busyVan("van-1", valticeAddr, 10*time.Minute)},
		Tariff:            baseTariff(),
		AssistedSelection: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "van-1", result.Recommended.Vehicle.ID)
	require.Len(t, result.Alternatives, 1)
	assert.Equal(t, "car-1", result.Alternatives[0].Vehicle.ID)
}

func TestFindBestVehicle_ShortensNavigationURL(t *testing.T) {
	shortener := &mockShortener{Short: "https://is.gd/xyz"}
	env := newTestEnv(nil, shortener)

	result, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{
		Ride:     twoStopRide(1),
		Vehicles: []domain.Vehicle{car("car-1", nearAddr)},
		Tariff:   baseTariff(),
	})
	require.NoError(t, err)

	assert.Equal(t, "https://is.gd/xyz", result.NavigationURL)
	assert.True(t, strings.HasPrefix(shortener.LastLong, "https://www.google.com/maps/dir/"))
	assert.True(t, strings.HasSuffix(result.SMSText, "\nNavigace: https://is.gd/xyz"))
}

func TestFindBestVehicle_ShortenerFailureKeepsLongURL(t *testing.T) {
	shortener := &mockShortener{Err: errors.New("rate limited")}
	env := newTestEnv(nil, shortener)

	result, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{
		Ride:     twoStopRide(1),
		Vehicles: []domain.Vehicle{car("car-1", nearAddr)},
		Tariff:   baseTariff(),
		Language: "en",
	})
	require.NoError(t, err)

	assert.Equal(t, shortener.LastLong, result.NavigationURL)
	assert.Contains(t, result.SMSText, "\nPickup: ASAP\n")
}

func TestFindBestVehicle_Validation(t *testing.T) {
	env := newTestEnv(nil, nil)
	vehicles := []domain.Vehicle{car("car-1", nearAddr)}

	oneStop := twoStopRide(1)
	oneStop.Stops = []string{pickupAddr}
	_, err := env.service.FindBestVehicle(context.Background(), AssignmentRequest{Ride: oneStop, Vehicles: vehicles})
	assert.ErrorIs(t, err, ErrInvalidRideRequest)

	blank := twoStopRide(1)
	blank.Stops = []string{pickupAddr, "  "}
	_, err = env.service.FindBestVehicle(context.Background(), AssignmentRequest{Ride: blank, Vehicles: vehicles})
	assert.ErrorIs(t, err, ErrInvalidRideRequest)

	_, err = env.service.FindBestVehicle(context.Background(), AssignmentRequest{Ride: twoStopRide(0), Vehicles: vehicles})
	assert.ErrorIs(t, err, ErrInvalidPassengers)
}

func TestFindBestVehicle_RepeatableRanking(t *testing.T) {
	env := newTestEnv(nil, nil)
	req := AssignmentRequest{
		Ride:     twoStopRide(1),
		Vehicles: []domain.Vehicle{car("car-1", brnoAddr), busyVan("van-1", nearAddr, 5*time.Minute), car("car-2", valticeAddr)},
		Tariff:   baseTariff(),
	}

	first, err := env.service.FindBestVehicle(context.Background(), req)
	require.NoError(t, err)
	second, err := env.service.FindBestVehicle(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Recommended, second.Recommended)
	assert.Equal(t, first.Alternatives, second.Alternatives)
}
