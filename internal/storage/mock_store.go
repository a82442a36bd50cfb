package storage

import (
	"context"
	"sort"
	"sync"
)

// MockStore is an in-memory Store for testing.
type MockStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	calls   MockCalls

	// PutErr, when set, is returned by every Put.
	PutErr error
}

// MockCalls tracks method invocations for test verification.
type MockCalls struct {
	Get    int
	Put    int
	Delete int
	List   int
	Clear  int
}

// NewMockStore creates a new in-memory record store.
func NewMockStore() *MockStore {
	return &MockStore{records: make(map[string]*Record)}
}

func (m *MockStore) Get(_ context.Context, origin string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Get++

	rec, ok := m.records[origin]
	if !ok {
		return nil, ErrNotFound{Origin: origin}
	}
	return rec.Clone(), nil
}

func (m *MockStore) Put(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Put++

	if m.PutErr != nil {
		return m.PutErr
	}
	m.records[rec.Origin] = rec.Clone()
	return nil
}

func (m *MockStore) Delete(_ context.Context, origin string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Delete++

	if _, ok := m.records[origin]; !ok {
		return ErrNotFound{Origin: origin}
	}
	delete(m.records, origin)
	return nil
}

func (m *MockStore) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.List++

	origins := make([]string, 0, len(m.records))
	for origin := range m.records {
		origins = append(origins, origin)
	}
	sort.Strings(origins)
	return origins, nil
}

func (m *MockStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Clear++

	m.records = make(map[string]*Record)
	return nil
}

func (m *MockStore) Close() error { return nil }

// Calls returns a snapshot of the invocation counters.
func (m *MockStore) Calls() MockCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}
