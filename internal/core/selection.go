package core

import "slices"

// Selection is the caller-owned, ordered set of distributions picked for
// multiplication. It is transient UI state and is never persisted.
type Selection struct {
	ids []DistributionID
}

// NewSelection returns a selection holding ids in order, duplicates dropped.
func NewSelection(ids ...DistributionID) *Selection {
	s := &Selection{}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add appends id unless already selected.
func (s *Selection) Add(id DistributionID) {
	if !s.Contains(id) {
		s.ids = append(s.ids, id)
	}
}

// Remove drops id, keeping the order of the rest.
func (s *Selection) Remove(id DistributionID) {
	s.ids = slices.DeleteFunc(s.ids, func(v DistributionID) bool { return v == id })
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id DistributionID) bool {
	return s != nil && slices.Contains(s.ids, id)
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []DistributionID {
	if s == nil {
		return nil
	}
	return slices.Clone(s.ids)
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	if s != nil {
		s.ids = nil
	}
}

// Prune drops ids for which exists reports false.
func (s *Selection) Prune(exists func(DistributionID) bool) {
	if s == nil {
		return
	}
	s.ids = slices.DeleteFunc(s.ids, func(id DistributionID) bool { return !exists(id) })
}
