package handler

import (
	"context"
	"sync"
	"sync/atomic"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// ──────────────────────────────────────────────
// MOCK ASSIGNMENT FINDER
// ──────────────────────────────────────────────

type mockFinder struct {
	mu       sync.Mutex
	requests []service.AssignmentRequest

	Result *domain.AssignmentResult
	Err    error
}

func (m *mockFinder) FindBestVehicle(ctx context.Context, req service.AssignmentRequest) (*domain.AssignmentResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

func (m *mockFinder) lastRequest() service.AssignmentRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

// ──────────────────────────────────────────────
// MOCK FLEET
// ──────────────────────────────────────────────

type mockFleet struct {
	mu       sync.Mutex
	vehicles []domain.Vehicle
	accepted []service.AcceptRequest

	SnapshotCallCount int32

	// Error injection
	SnapshotError error
	AcceptError   error
	UpdateError   error
}

func (m *mockFleet) List(ctx context.Context) ([]*domain.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Vehicle, 0, len(m.vehicles))
	for i := range m.vehicles {
		v := m.vehicles[i]
		out = append(out, &v)
	}
	return out, nil
}

func (m *mockFleet) Snapshot(ctx context.Context) ([]domain.Vehicle, error) {
	atomic.AddInt32(&m.SnapshotCallCount, 1)
	if m.SnapshotError != nil {
		return nil, m.SnapshotError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Vehicle(nil), m.vehicles...), nil
}

func (m *mockFleet) UpdateStatus(ctx context.Context, vehicleID string, status domain.VehicleStatus) (*domain.Vehicle, error) {
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.vehicles {
		if m.vehicles[i].ID == vehicleID {
			m.vehicles[i].Status = status
			v := m.vehicles[i]
			return &v, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockFleet) Accept(ctx context.Context, req service.AcceptRequest) (*domain.Vehicle, error) {
	if m.AcceptError != nil {
		return nil, m.AcceptError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accepted = append(m.accepted, req)
	for i := range m.vehicles {
		if m.vehicles[i].ID == req.VehicleID {
			m.vehicles[i].Status = domain.VehicleStatusBusy
			v := m.vehicles[i]
			return &v, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ──────────────────────────────────────────────
// MOCK TARIFFS
// ──────────────────────────────────────────────

type mockTariffs struct {
	mu     sync.Mutex
	tariff *domain.Tariff
	quotes []service.PriceRequest
	inline []*domain.Tariff

	ActiveCallCount int32

	Price      int
	QuoteError error
}

func (m *mockTariffs) Active(ctx context.Context) (*domain.Tariff, error) {
	atomic.AddInt32(&m.ActiveCallCount, 1)
	if m.tariff == nil {
		return nil, repository.ErrNotFound
	}
	t := *m.tariff
	return &t, nil
}

func (m *mockTariffs) Quote(ctx context.Context, req service.PriceRequest, tariff *domain.Tariff) (int, error) {
	m.mu.Lock()
	m.quotes = append(m.quotes, req)
	m.inline = append(m.inline, tariff)
	m.mu.Unlock()
	if m.QuoteError != nil {
		return 0, m.QuoteError
	}
	return m.Price, nil
}
