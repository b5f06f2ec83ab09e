// ABOUTME: Mock ProfileStore implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject persistence failures

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory ProfileStore implementation for testing.
type MockStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile // keyed by profile ID
	err      error
	closed   bool
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		profiles: make(map[string]*Profile),
	}
}

// FailWith makes every subsequent operation return a PersistenceError
// wrapping err. Pass nil to clear.
func (m *MockStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockStore) failure(op string) error {
	if m.err != nil {
		return persistErr(op, m.err)
	}
	if m.closed {
		return persistErr(op, fmt.Errorf("store closed"))
	}
	return nil
}

// InitSchema is a no-op.
func (m *MockStore) InitSchema(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.failure("init schema")
}

// UpsertBatch stores copies of the profiles.
func (m *MockStore) UpsertBatch(ctx context.Context, profiles []*Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("upsert"); err != nil {
		return err
	}
	for _, p := range profiles {
		if p == nil {
			return fmt.Errorf("upsert: nil profile")
		}
		if !p.Variant.IsKnown() {
			return fmt.Errorf("upsert %q: %w: %q", p.Name, ErrUnknownVariant, p.Variant)
		}
	}

	now := time.Now()
	for _, p := range profiles {
		p.EnsureID()
		if p.LastUpdated == 0 {
			p.Touch(now)
		}
		m.profiles[p.ID] = p.Clone()
	}
	return nil
}

// LoadAll returns copies of every profile ordered by name, then id.
func (m *MockStore) LoadAll(ctx context.Context) ([]*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("load all"); err != nil {
		return nil, err
	}
	out := make([]*Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetByID retrieves a copy of a profile.
func (m *MockStore) GetByID(ctx context.Context, id string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("get"); err != nil {
		return nil, err
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// Exists reports whether id is stored.
func (m *MockStore) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("exists"); err != nil {
		return false, err
	}
	_, ok := m.profiles[id]
	return ok, nil
}

// Delete removes a profile.
func (m *MockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("delete"); err != nil {
		return err
	}
	if _, ok := m.profiles[id]; !ok {
		return ErrNotFound
	}
	delete(m.profiles, id)
	return nil
}

// Close marks the store closed.
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
