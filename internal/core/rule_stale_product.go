package core

import (
	"context"
	"fmt"
)

const staleProductRuleName = "stale_products"

// StaleProductRule warns about products that reference a deleted parent.
// Such products keep their last computed parameters and stop following
// edits, which is easy to miss on screen.
type StaleProductRule struct{}

// NewStaleProductRule constructs the rule.
func NewStaleProductRule() Rule { return StaleProductRule{} }

// Name implements Rule.
func (StaleProductRule) Name() string { return staleProductRuleName }

// Evaluate implements Rule.
func (StaleProductRule) Evaluate(_ context.Context, view RuleView, _ []Change) (Result, error) {
	var result Result
	for _, d := range view.ListDistributions() {
		if !d.IsProduct() {
			continue
		}
		var missing []DistributionID
		for _, pid := range d.ParentIDs {
			if _, ok := view.FindDistribution(pid); !ok {
				missing = append(missing, pid)
			}
		}
		if len(missing) == 0 {
			continue
		}
		result.Violations = append(result.Violations, Violation{
			Rule:     staleProductRuleName,
			Severity: SeverityWarn,
			Message:  fmt.Sprintf("%s is frozen: parents %v were deleted", d.Name, missing),
			Entity:   EntityDistribution,
			EntityID: d.ID,
		})
	}
	return result, nil
}
