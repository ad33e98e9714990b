package verify

import (
	"maps"
	"slices"

	"github.com/couchcryptid/rfw-verification/internal/domain"
)

// KeySet is a set of occurrence keys.
type KeySet map[domain.OccurrenceKey]struct{}

// NewKeySet builds a set from keys, collapsing duplicates.
func NewKeySet(keys ...domain.OccurrenceKey) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s KeySet) Add(k domain.OccurrenceKey)    { s[k] = struct{}{} }
func (s KeySet) Remove(k domain.OccurrenceKey) { delete(s, k) }

func (s KeySet) Contains(k domain.OccurrenceKey) bool {
	_, ok := s[k]
	return ok
}

func (s KeySet) Len() int { return len(s) }

// Clone returns an independent copy.
func (s KeySet) Clone() KeySet {
	if s == nil {
		return KeySet{}
	}
	return maps.Clone(s)
}

// Sorted returns the keys ordered by date, then zone.
func (s KeySet) Sorted() []domain.OccurrenceKey {
	keys := slices.Collect(maps.Keys(s))
	slices.SortFunc(keys, domain.OccurrenceKey.Compare)
	return keys
}
