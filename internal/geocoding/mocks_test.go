package geocoding

import (
	"context"
	"sync"
	"sync/atomic"

	"dispatch/internal/domain"
)

// mockProvider is a mock implementation of Provider.
type mockProvider struct {
	mu      sync.Mutex
	name    string
	results map[string][]domain.Coordinate
	queries []string

	// Error injection
	Err error
}

func newMockProvider(name string) *mockProvider {
	return &mockProvider{name: name, results: make(map[string][]domain.Coordinate)}
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Search(ctx context.Context, query, language string) ([]domain.Coordinate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.Err != nil {
		return nil, m.Err
	}
	if r, ok := m.results[query]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

func (m *mockProvider) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// mockDetailProvider is a mock implementation of DetailProvider.
type mockDetailProvider struct {
	places    map[string]domain.Coordinate
	CallCount int32
}

func (m *mockDetailProvider) Name() string { return "detail" }

func (m *mockDetailProvider) Detail(ctx context.Context, placeID, language string) (domain.Coordinate, error) {
	atomic.AddInt32(&m.CallCount, 1)
	if c, ok := m.places[placeID]; ok {
		return c, nil
	}
	return domain.Coordinate{}, ErrNotFound
}

// mockStore is a mock implementation of Store.
type mockStore struct {
	mu      sync.Mutex
	entries map[string]domain.Coordinate

	GetError error
	SetError error
}

func newMockStore() *mockStore {
	return &mockStore{entries: make(map[string]domain.Coordinate)}
}

func (m *mockStore) GetCoordinate(ctx context.Context, key string) (*domain.Coordinate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	c, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *mockStore) SetCoordinate(ctx context.Context, key string, c domain.Coordinate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetError != nil {
		return m.SetError
	}
	m.entries[key] = c
	return nil
}
