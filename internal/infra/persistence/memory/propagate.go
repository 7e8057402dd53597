package memory

import (
	"context"

	"pdfcore/pkg/domain"
	"pdfcore/pkg/gaussian"
)

// propagate recomputes every product whose parents all exist, visiting
// products in dependency order so chains settle in one pass. Products with a
// missing parent keep their last values. Running it twice without an
// intervening edit changes nothing.
func (tx *transaction) propagate() (PropagationReport, error) {
	order, err := domain.ProductOrder(tx.state.distributions)
	if err != nil {
		return PropagationReport{}, err
	}
	report := PropagationReport{Recomputed: []DistributionID{}, Stale: []DistributionID{}}
	for _, id := range order {
		current := tx.state.distributions[id]
		params := make([]gaussian.Params, 0, len(current.ParentIDs))
		complete := true
		for _, pid := range current.ParentIDs {
			parent, ok := tx.state.distributions[pid]
			if !ok {
				complete = false
				break
			}
			params = append(params, parent.Params())
		}
		if !complete {
			report.Stale = append(report.Stale, id)
			continue
		}
		product := gaussian.Product(params...)
		report.Recomputed = append(report.Recomputed, id)
		if product.Mean == current.Mean && product.StdDev == current.StdDev {
			continue
		}
		before := current.Clone()
		current.Mean = product.Mean
		current.StdDev = product.StdDev
		tx.state.distributions[id] = current
		tx.recordChange(Change{Entity: domain.EntityDistribution, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	}
	return report, nil
}

// Propagate runs an explicit pass over the committed state. Rules are
// evaluated when the pass changed anything.
func (s *Store) Propagate(ctx context.Context) (PropagationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: s.state.clone()}
	report, err := tx.propagate()
	if err != nil {
		return PropagationReport{}, err
	}
	if len(tx.changes) > 0 && s.engine != nil {
		res, err := s.engine.Evaluate(ctx, newTransactionView(&tx.state), tx.changes)
		if err != nil {
			return PropagationReport{}, err
		}
		if res.HasBlocking() {
			return PropagationReport{}, domain.RuleViolationError{Result: res}
		}
	}
	s.state = tx.state
	s.last = report
	return cloneReport(report), nil
}
