package store

import "sync"

// Mirror keeps the last published snapshot of a collection per owner
// namespace. Replace swaps the whole per-owner set; there is no diffing
// and no per-record mutation, matching the hub's full-replacement
// semantics.
type Mirror[T any] struct {
	mu      sync.RWMutex
	byOwner map[string][]T
	key     func(T) string
}

// NewMirror builds a mirror whose Find uses key to identify records.
func NewMirror[T any](key func(T) string) *Mirror[T] {
	return &Mirror[T]{
		byOwner: make(map[string][]T),
		key:     key,
	}
}

// Replace installs snapshot as the owner's entire record set.
func (m *Mirror[T]) Replace(owner string, snapshot []T) {
	cp := make([]T, len(snapshot))
	copy(cp, snapshot)

	m.mu.Lock()
	m.byOwner[owner] = cp
	m.mu.Unlock()
}

// Snapshot returns a copy of the owner's current record set and whether
// the owner has ever been mirrored. An owner that was mirrored with an
// empty set yields an empty slice and true.
func (m *Mirror[T]) Snapshot(owner string) ([]T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.byOwner[owner]
	if !ok {
		return nil, false
	}
	cp := make([]T, len(set))
	copy(cp, set)
	return cp, true
}

// Find looks a record up by identifier within the owner's set.
func (m *Mirror[T]) Find(owner, id string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.byOwner[owner] {
		if m.key(rec) == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}
