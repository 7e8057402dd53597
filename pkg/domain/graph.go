package domain

import "sort"

// ProductOrder returns the ids of every product in dists ordered so that a
// product appears after any product it references. Missing parents and leaf
// parents impose no ordering. Ties are broken by ascending id so the order is
// deterministic. A cycle yields a CycleError naming the unordered products.
func ProductOrder(dists map[DistributionID]Distribution) ([]DistributionID, error) {
	indegree := make(map[DistributionID]int)
	dependents := make(map[DistributionID][]DistributionID)
	for id, d := range dists {
		if !d.IsProduct() {
			continue
		}
		indegree[id] += 0
		seen := make(map[DistributionID]bool, len(d.ParentIDs))
		for _, pid := range d.ParentIDs {
			parent, ok := dists[pid]
			if !ok || !parent.IsProduct() || seen[pid] {
				continue
			}
			seen[pid] = true
			indegree[id]++
			dependents[pid] = append(dependents[pid], id)
		}
	}

	ready := make([]DistributionID, 0, len(indegree))
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sortIDs(ready)

	order := make([]DistributionID, 0, len(indegree))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		next := dependents[id]
		sortIDs(next)
		for _, child := range next {
			indegree[child]--
			if indegree[child] == 0 {
				ready = insertSorted(ready, child)
			}
		}
	}

	if len(order) != len(indegree) {
		var stuck []DistributionID
		for id, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		sortIDs(stuck)
		return nil, CycleError{IDs: stuck}
	}
	return order, nil
}

// Dependents returns the ids of products that list id among their parents,
// ascending.
func Dependents(dists map[DistributionID]Distribution, id DistributionID) []DistributionID {
	var out []DistributionID
	for did, d := range dists {
		if !d.IsProduct() {
			continue
		}
		for _, pid := range d.ParentIDs {
			if pid == id {
				out = append(out, did)
				break
			}
		}
	}
	sortIDs(out)
	return out
}

// MissingParents returns the parent ids of d that are absent from dists.
func MissingParents(dists map[DistributionID]Distribution, d Distribution) []DistributionID {
	var out []DistributionID
	for _, pid := range d.ParentIDs {
		if _, ok := dists[pid]; !ok {
			out = append(out, pid)
		}
	}
	return out
}

func sortIDs(ids []DistributionID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func insertSorted(ids []DistributionID, id DistributionID) []DistributionID {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}
