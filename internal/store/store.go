// Package store provides the in-memory snapshot collections backing the
// dashboard tables. The backend stays authoritative: every write here only
// mirrors a fetched or returned server state, and each update swaps in a
// fresh backing slice so previously returned snapshots never mutate.
package store

import "sync"

// Store holds one entity collection keyed by a caller-supplied id function.
type Store[T any] struct {
	mu    sync.RWMutex
	items []T
	id    func(T) int64
}

// New constructs an empty Store using id to identify items.
func New[T any](id func(T) int64) *Store[T] {
	return &Store[T]{id: id}
}

// List returns the current snapshot. The returned slice is a copy.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the item with the given id.
func (s *Store[T]) Get(id int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if s.id(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// ReplaceAll swaps the whole collection for a freshly fetched one.
func (s *Store[T]) ReplaceAll(items []T) {
	next := make([]T, len(items))
	copy(next, items)
	s.mu.Lock()
	s.items = next
	s.mu.Unlock()
}

// Upsert replaces the item with a matching id in place, preserving table
// order, or appends when the id is new.
func (s *Store[T]) Upsert(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]T, len(s.items), len(s.items)+1)
	copy(next, s.items)
	for i := range next {
		if s.id(next[i]) == s.id(item) {
			next[i] = item
			s.items = next
			return
		}
	}
	s.items = append(next, item)
}

// Update replaces the item with a matching id, reporting whether it was
// present. Unlike Upsert it never appends.
func (s *Store[T]) Update(item T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]T, len(s.items))
	copy(next, s.items)
	for i := range next {
		if s.id(next[i]) == s.id(item) {
			next[i] = item
			s.items = next
			return true
		}
	}
	return false
}

// RemoveByID drops the item with the given id, if present.
func (s *Store[T]) RemoveByID(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if s.id(item) != id {
			next = append(next, item)
		}
	}
	s.items = next
}

// Len reports the current collection size.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
