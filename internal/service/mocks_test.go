package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/geocoding"
	"dispatch/internal/llm"
	"dispatch/internal/repository"
	"dispatch/internal/routing"
)

// ──────────────────────────────────────────────
// MOCK GEOCODER
// ──────────────────────────────────────────────

// mockGeocoder resolves addresses from a fixed table.
type mockGeocoder struct {
	mu        sync.RWMutex
	addresses map[string]domain.Coordinate

	CallCount int32
}

func newMockGeocoder(addresses map[string]domain.Coordinate) *mockGeocoder {
	return &mockGeocoder{addresses: addresses}
}

func (m *mockGeocoder) Resolve(ctx context.Context, address, language string) (domain.Coordinate, error) {
	atomic.AddInt32(&m.CallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.addresses[address]
	if !ok {
		return domain.Coordinate{}, &geocoding.GeocodingError{Address: address, Err: geocoding.ErrNotFound}
	}
	return c, nil
}

// ──────────────────────────────────────────────
// MOCK ROUTE SERVICE
// ──────────────────────────────────────────────

// mockRoutes prices a leg at one minute per 0.01 degree of latitude plus
// longitude difference, and one kilometre per minute.
type mockRoutes struct {
	mu       sync.Mutex
	failures map[[2]domain.Coordinate]bool

	MatrixCallCount   int32
	RoutesToCallCount int32

	// Error injection
	RouteThroughError error
}

func newMockRoutes() *mockRoutes {
	return &mockRoutes{failures: make(map[[2]domain.Coordinate]bool)}
}

func legMinutes(a, b domain.Coordinate) float64 {
	return (math.Abs(a.Lat-b.Lat) + math.Abs(a.Lon-b.Lon)) * 100
}

func (m *mockRoutes) FailRoute(from, to domain.Coordinate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[[2]domain.Coordinate{from, to}] = true
}

func (m *mockRoutes) RouteThrough(ctx context.Context, points []domain.Coordinate) (*routing.Route, error) {
	if m.RouteThroughError != nil {
		return nil, m.RouteThroughError
	}
	var minutes float64
	for i := 1; i < len(points); i++ {
		minutes += legMinutes(points[i-1], points[i])
	}
	return &routing.Route{DistanceMeters: minutes * 1000, DurationSeconds: minutes * 60}, nil
}

func (m *mockRoutes) Route(ctx context.Context, origin, destination domain.Coordinate) *routing.Route {
	m.mu.Lock()
	failed := m.failures[[2]domain.Coordinate{origin, destination}]
	m.mu.Unlock()
	if failed {
		return nil
	}
	minutes := legMinutes(origin, destination)
	return &routing.Route{DistanceMeters: minutes * 1000, DurationSeconds: minutes * 60}
}

func (m *mockRoutes) RoutesTo(ctx context.Context, origins []domain.Coordinate, destination domain.Coordinate) []*routing.Route {
	atomic.AddInt32(&m.RoutesToCallCount, 1)
	routes := make([]*routing.Route, len(origins))
	for i, origin := range origins {
		routes[i] = m.Route(ctx, origin, destination)
	}
	return routes
}

func (m *mockRoutes) Matrix(ctx context.Context, points []domain.Coordinate, unit routing.Unit) [][]float64 {
	atomic.AddInt32(&m.MatrixCallCount, 1)
	matrix := make([][]float64, len(points))
	for i := range points {
		matrix[i] = make([]float64, len(points))
		for j := range points {
			if i != j {
				matrix[i][j] = unit.Of(m.Route(ctx, points[i], points[j]))
			}
		}
	}
	return matrix
}

// ──────────────────────────────────────────────
// MOCK ASSISTANT
// ──────────────────────────────────────────────

// mockAssistant answers every prompt with Response.
type mockAssistant struct {
	configured bool
	Response   string
	Prompts    []string

	CallCount int32

	// Error injection
	Err error
}

func (m *mockAssistant) Configured() bool { return m.configured }

func (m *mockAssistant) GenerateJSON(ctx context.Context, prompt string, schema *llm.Schema, out any) error {
	atomic.AddInt32(&m.CallCount, 1)
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return m.Err
	}
	if err := json.Unmarshal([]byte(m.Response), out); err != nil {
		return errors.Join(llm.ErrInvalidResponse, err)
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK SHORTENER
// ──────────────────────────────────────────────

type mockShortener struct {
	Short    string
	LastLong string

	// Error injection
	Err error
}

func (m *mockShortener) Shorten(ctx context.Context, longURL string) (string, error) {
	m.LastLong = longURL
	if m.Err != nil {
		return "", m.Err
	}
	return m.Short, nil
}

// ──────────────────────────────────────────────
// MOCK VEHICLE REPOSITORY
// ──────────────────────────────────────────────

// mockVehicleRepository is a mock implementation of VehicleRepository.
type mockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle

	UpdateStatusCallCount int32

	// Error injection
	GetAllError       error
	UpdateStatusError error
}

func newMockVehicleRepository(vehicles ...domain.Vehicle) *mockVehicleRepository {
	m := &mockVehicleRepository{vehicles: make(map[string]*domain.Vehicle)}
	for _, v := range vehicles {
		m.vehicles[v.ID] = &v
	}
	return m
}

func (m *mockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *v
	return &copy, nil
}

func (m *mockVehicleRepository) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	if m.GetAllError != nil {
		return nil, m.GetAllError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		copy := *v
		out = append(out, &copy)
	}
	return out, nil
}

func (m *mockVehicleRepository) UpdateStatus(ctx context.Context, id string, status domain.VehicleStatus, freeAt *time.Time) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok {
		return repository.ErrNotFound
	}
	v.Status = status
	v.FreeAt = time.Time{}
	if freeAt != nil {
		v.FreeAt = *freeAt
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK TARIFF REPOSITORY
// ──────────────────────────────────────────────

type mockTariffRepository struct {
	tariff *domain.Tariff

	GetActiveCallCount int32
}

func (m *mockTariffRepository) GetActive(ctx context.Context) (*domain.Tariff, error) {
	atomic.AddInt32(&m.GetActiveCallCount, 1)
	if m.tariff == nil {
		return nil, repository.ErrNotFound
	}
	copy := *m.tariff
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK VEHICLE LOCKER
// ──────────────────────────────────────────────

type mockLocker struct {
	mu   sync.Mutex
	held map[string]bool

	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]bool)}
}

func (m *mockLocker) AcquireVehicleLock(ctx context.Context, vehicleID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[vehicleID] {
		return false, nil
	}
	m.held[vehicleID] = true
	return true, nil
}

func (m *mockLocker) ReleaseVehicleLock(ctx context.Context, vehicleID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, vehicleID)
	return nil
}

func (m *mockLocker) hold(vehicleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[vehicleID] = true
}
