package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It uses a map for storage and RWMutex for thread-safe concurrent access.
// This implementation is suitable for development, testing, or single-instance deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	sets   map[int64]RuleSet // id -> RuleSet
	nextID int64
	now    func() time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sets:   make(map[int64]RuleSet),
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Query returns matching rule sets ordered by id.
func (m *MemoryStore) Query(ctx context.Context, filter Filter) ([]RuleSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]RuleSet, 0, len(m.sets))
	for _, rs := range m.sets {
		if filter.Matches(rs) {
			result = append(result, rs.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Create stores a new rule set with the next id.
func (m *MemoryStore) Create(ctx context.Context, params CreateParams) (RuleSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	params = params.normalize()
	now := m.now()
	rs := RuleSet{
		ID:        m.nextID,
		Name:      params.Name,
		Mode:      params.Mode,
		Rule:      params.Rule,
		Enabled:   params.Enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.nextID++
	m.sets[rs.ID] = rs
	return rs.Clone(), nil
}

// Update patches every matching rule set in place.
func (m *MemoryStore) Update(ctx context.Context, filter Filter, patch Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	matched := 0
	for id, rs := range m.sets {
		if !filter.Matches(rs) {
			continue
		}
		patch.Apply(&rs)
		rs.UpdatedAt = now
		m.sets[id] = rs
		matched++
	}
	if matched == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes every matching rule set.
func (m *MemoryStore) Delete(ctx context.Context, filter Filter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, rs := range m.sets {
		if filter.Matches(rs) {
			delete(m.sets, id)
		}
	}
	return nil
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}
