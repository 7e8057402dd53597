// Package bounds warns when a leaf is edited outside the parameter ranges
// the interactive editor exposes. Values outside the range are still
// committed; the warning only tells the caller the slider cannot show them.
package bounds

import (
	"context"
	"fmt"

	"pdfcore/internal/core"
)

const ruleName = "parameter_range_warning"

// Range is an inclusive interval.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies in the interval.
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Editor slider ranges.
var (
	DefaultMeanRange   = Range{Min: -10, Max: 10}
	DefaultStdDevRange = Range{Min: 0.1, Max: 5}
)

// Plugin contributes the range rule and a schema for distribution records.
type Plugin struct {
	mean   Range
	stdDev Range
}

// New constructs a plugin with the default editor ranges.
func New() Plugin {
	return Plugin{mean: DefaultMeanRange, stdDev: DefaultStdDevRange}
}

// NewWithRanges constructs a plugin with custom ranges.
func NewWithRanges(mean, stdDev Range) (Plugin, error) {
	if mean.Min >= mean.Max {
		return Plugin{}, fmt.Errorf("mean range [%v, %v] is empty", mean.Min, mean.Max)
	}
	if stdDev.Min <= 0 || stdDev.Min >= stdDev.Max {
		return Plugin{}, fmt.Errorf("std_dev range [%v, %v] must be positive and non-empty", stdDev.Min, stdDev.Max)
	}
	return Plugin{mean: mean, stdDev: stdDev}, nil
}

// Name returns the plugin identifier.
func (Plugin) Name() string { return "bounds" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "0.1.0" }

// Register wires the schema fragment and the range rule.
func (p Plugin) Register(registry *core.PluginRegistry) error {
	registry.RegisterSchema("distribution", map[string]any{
		"$id":  "pdfcore:bounds:distribution",
		"type": "object",
		"properties": map[string]any{
			"mean": map[string]any{
				"type":        "number",
				"minimum":     p.mean.Min,
				"maximum":     p.mean.Max,
				"description": "Editable mean range",
			},
			"std_dev": map[string]any{
				"type":        "number",
				"minimum":     p.stdDev.Min,
				"maximum":     p.stdDev.Max,
				"description": "Editable standard deviation range",
			},
		},
	})
	registry.RegisterRule(rangeRule{mean: p.mean, stdDev: p.stdDev})
	return nil
}

type rangeRule struct {
	mean   Range
	stdDev Range
}

func (rangeRule) Name() string { return ruleName }

// Evaluate only inspects leaves touched by the transaction so an old
// out-of-range leaf does not warn on every later commit.
func (r rangeRule) Evaluate(_ context.Context, _ core.RuleView, changes []core.Change) (core.Result, error) {
	var result core.Result
	for _, change := range changes {
		if change.Entity != core.EntityDistribution || change.Action == core.ActionDelete {
			continue
		}
		d, ok := change.After.(core.Distribution)
		if !ok || d.IsProduct() {
			continue
		}
		if !r.mean.Contains(d.Mean) {
			result.Violations = append(result.Violations, r.violation(d, "mean", d.Mean, r.mean))
		}
		if !r.stdDev.Contains(d.StdDev) {
			result.Violations = append(result.Violations, r.violation(d, "std_dev", d.StdDev, r.stdDev))
		}
	}
	return result, nil
}

func (rangeRule) violation(d core.Distribution, field string, value float64, want Range) core.Violation {
	return core.Violation{
		Rule:     ruleName,
		Severity: core.SeverityWarn,
		Message:  fmt.Sprintf("%s %s %v outside editor range [%v, %v]", d.Name, field, value, want.Min, want.Max),
		Entity:   core.EntityDistribution,
		EntityID: d.ID,
	}
}
