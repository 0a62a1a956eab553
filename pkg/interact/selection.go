package interact

import (
	"cmp"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/matzehuels/treeize/pkg/treeize"
)

// Selection is the set of selected nodes.
type Selection struct {
	set mapset.Set[treeize.NodeID]
}

func newSelection() *Selection {
	return &Selection{set: mapset.NewThreadUnsafeSet[treeize.NodeID]()}
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id treeize.NodeID) bool { return s.set.Contains(id) }

// Len returns the number of selected nodes.
func (s *Selection) Len() int { return s.set.Cardinality() }

// IDs returns the selected nodes ordered by slot.
func (s *Selection) IDs() []treeize.NodeID {
	ids := s.set.ToSlice()
	slices.SortFunc(ids, func(a, b treeize.NodeID) int { return cmp.Compare(a.Index, b.Index) })
	return ids
}

// Select adds id, first clearing the selection when reset is set.
func (s *Selection) Select(id treeize.NodeID, reset bool) {
	if reset {
		s.set.Clear()
	}
	s.set.Add(id)
}

// SelectMany adds ids, first clearing the selection when reset is set.
func (s *Selection) SelectMany(ids []treeize.NodeID, reset bool) {
	if reset {
		s.set.Clear()
	}
	for _, id := range ids {
		s.set.Add(id)
	}
}

// Deselect removes id.
func (s *Selection) Deselect(id treeize.NodeID) { s.set.Remove(id) }

// DeselectMany removes ids.
func (s *Selection) DeselectMany(ids []treeize.NodeID) {
	for _, id := range ids {
		s.set.Remove(id)
	}
}

// Clear empties the selection.
func (s *Selection) Clear() { s.set.Clear() }

// retain drops every node for which keep returns false.
func (s *Selection) retain(keep func(treeize.NodeID) bool) {
	for _, id := range s.set.ToSlice() {
		if !keep(id) {
			s.set.Remove(id)
		}
	}
}
