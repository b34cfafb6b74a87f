// Package store holds the reference set of confirmed merchant categories.
package store

import (
	"github.com/Veraticus/cardsort/internal/model"
)

// Store is an ordered set of reference entries with unique merchant keys.
// It is not safe for concurrent mutation.
type Store struct {
	index   map[string]int
	entries []model.ReferenceEntry
}

// New returns an empty store.
func New() *Store {
	return &Store{index: make(map[string]int)}
}

// Lookup returns the category for an exact merchant key.
func (s *Store) Lookup(merchant string) (string, bool) {
	i, ok := s.index[merchant]
	if !ok {
		return "", false
	}
	return s.entries[i].Category, true
}

// Upsert inserts the entry or overwrites the existing category in place.
// It reports whether a new key was added.
func (s *Store) Upsert(entry model.ReferenceEntry) bool {
	if i, ok := s.index[entry.Merchant]; ok {
		s.entries[i].Category = entry.Category
		return false
	}
	s.index[entry.Merchant] = len(s.entries)
	s.entries = append(s.entries, entry)
	return true
}

// Entries returns a copy of the entries in insertion order.
func (s *Store) Entries() []model.ReferenceEntry {
	out := make([]model.ReferenceEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Keys returns merchant keys in insertion order.
func (s *Store) Keys() []string {
	keys := make([]string, len(s.entries))
	for i, e := range s.entries {
		keys[i] = e.Merchant
	}
	return keys
}

// Categories returns distinct categories in order of first appearance.
func (s *Store) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, e := range s.entries {
		if !seen[e.Category] {
			seen[e.Category] = true
			cats = append(cats, e.Category)
		}
	}
	return cats
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Clone returns an independent copy.
func (s *Store) Clone() *Store {
	c := &Store{
		index:   make(map[string]int, len(s.index)),
		entries: s.Entries(),
	}
	for k, v := range s.index {
		c.index[k] = v
	}
	return c
}
