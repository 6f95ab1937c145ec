package tle

import (
	"sort"
	"time"
)

// Store holds an immutable collection of element records sorted ascending by
// epoch. It is built once at load time and is safe for concurrent readers.
type Store struct {
	entries []Entry
}

// NewStore sorts the entries by epoch (stable, so equal epochs keep their
// input order) and returns the store.
func NewStore(entries []Entry) *Store {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Epoch.Before(sorted[j].Epoch)
	})
	return &Store{entries: sorted}
}

// Len returns the number of records in the store.
func (s *Store) Len() int { return len(s.entries) }

// At returns the record at index i.
func (s *Store) At(i int) Entry { return s.entries[i] }

// Select returns the index of the record whose epoch is nearest to t, and
// false only when the store is empty. Queries before the first or after the
// last epoch clamp to the boundary record; when t falls between two epochs
// the closer one wins, with the earlier record taking exact-distance ties.
func (s *Store) Select(t time.Time) (int, bool) {
	if len(s.entries) == 0 {
		return 0, false
	}

	// First index with epoch >= t.
	i := sort.Search(len(s.entries), func(i int) bool {
		return !s.entries[i].Epoch.Before(t)
	})

	if i == 0 {
		return 0, true
	}
	if i == len(s.entries) {
		return len(s.entries) - 1, true
	}
	if s.entries[i].Epoch.Equal(t) {
		return i, true
	}

	before := t.Sub(s.entries[i-1].Epoch)
	after := s.entries[i].Epoch.Sub(t)
	if before <= after {
		return i - 1, true
	}
	return i, true
}
