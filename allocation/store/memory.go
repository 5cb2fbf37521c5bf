// Package store provides an in-memory allocation.Store used as the store
// double in tests.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/unit-finance/allocation"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	sets  map[allocation.Owner]allocation.Set
	names map[allocation.Owner]string
}

func NewMemory() *Memory {
	return &Memory{
		sets:  make(map[allocation.Owner]allocation.Set),
		names: make(map[allocation.Owner]string),
	}
}

// Create registers an owner with its initial set.
func (m *Memory) Create(owner allocation.Owner, name string, set allocation.Set) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[owner] = set.Clone()
	m.names[owner] = name
}

// Delete drops the owner and its set.
func (m *Memory) Delete(owner allocation.Owner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sets, owner)
	delete(m.names, owner)
}

func (m *Memory) LoadSet(_ context.Context, owner allocation.Owner) (allocation.Set, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.sets[owner]
	if !ok {
		return allocation.Set{}, allocation.ErrNotFound
	}
	return set.Clone(), nil
}

func (m *Memory) SaveSet(_ context.Context, owner allocation.Owner, set allocation.Set) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sets[owner]; !ok {
		return allocation.ErrNotFound
	}
	m.sets[owner] = set.Clone()
	return nil
}

// ListSets returns every set of the period, ordered by owner.
func (m *Memory) ListSets(_ context.Context, period allocation.Period) ([]allocation.OwnedSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []allocation.OwnedSet
	for owner, set := range m.sets {
		if set.Period() != period {
			continue
		}
		result = append(result, allocation.OwnedSet{Owner: owner, Name: m.names[owner], Set: set.Clone()})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Owner.String() < result[j].Owner.String()
	})
	return result, nil
}

var (
	_ allocation.Store  = (*Memory)(nil)
	_ allocation.Lister = (*Memory)(nil)
)
