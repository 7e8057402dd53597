package core

import (
	"slices"
	"testing"
)

func TestSelectionOrderAndMembership(t *testing.T) {
	sel := NewSelection(3, 1, 3, 2)
	if got := sel.IDs(); !slices.Equal(got, []DistributionID{3, 1, 2}) {
		t.Fatalf("expected duplicates dropped in order, got %v", got)
	}
	sel.Remove(1)
	if sel.Contains(1) {
		t.Fatalf("removed id still selected")
	}
	sel.Add(1)
	sel.Add(1)
	if got := sel.IDs(); !slices.Equal(got, []DistributionID{3, 2, 1}) {
		t.Fatalf("expected reselected id appended, got %v", got)
	}

	ids := sel.IDs()
	ids[0] = 99
	if sel.Contains(99) {
		t.Fatalf("IDs must return a copy")
	}

	sel.Prune(func(id DistributionID) bool { return id != 2 })
	if sel.Contains(2) || sel.Len() != 2 {
		t.Fatalf("prune left %v", sel.IDs())
	}
	sel.Clear()
	if sel.Len() != 0 {
		t.Fatalf("expected empty selection after clear")
	}
}

func TestNilSelectionReads(t *testing.T) {
	var sel *Selection
	if sel.Len() != 0 || sel.Contains(1) || sel.IDs() != nil {
		t.Fatalf("nil selection must read as empty")
	}
	sel.Clear()
	sel.Prune(func(DistributionID) bool { return false })
}
