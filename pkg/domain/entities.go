// Package domain defines the persistent distribution records, display
// settings, and rule evaluation primitives shared by the pdfcore stores,
// codec, and service.
package domain

import (
	"strconv"

	"pdfcore/pkg/gaussian"
)

// DistributionID is the stable handle of a distribution inside a session.
// Handles are allocated by the store and never reissued.
type DistributionID uint32

func (id DistributionID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Kind distinguishes directly edited distributions from derived ones.
type Kind string

// Distribution kinds.
const (
	// KindLeaf marks a distribution whose parameters are set by the user.
	KindLeaf Kind = "leaf"
	// KindProduct marks a distribution derived by multiplying its parents.
	KindProduct Kind = "product"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindLeaf || k == KindProduct
}

// EntityType identifies the record touched by a Change.
type EntityType string

// Entity types recorded in transaction changes.
const (
	EntityDistribution EntityType = "distribution"
	EntitySettings     EntityType = "settings"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Distribution is a single Gaussian PDF tracked by the store.
type Distribution struct {
	ID        DistributionID   `json:"id"`
	Name      string           `json:"name"`
	Mean      float64          `json:"mean"`
	StdDev    float64          `json:"std_dev"`
	ParentIDs []DistributionID `json:"parent_ids"`
	Kind      Kind             `json:"kind"`
}

// IsProduct reports whether the distribution is derived from parents.
func (d Distribution) IsProduct() bool { return d.Kind == KindProduct }

// Params returns the distribution parameters for the algebra.
func (d Distribution) Params() gaussian.Params {
	return gaussian.Params{Mean: d.Mean, StdDev: d.StdDev}
}

// Variance returns StdDev squared.
func (d Distribution) Variance() float64 { return d.StdDev * d.StdDev }

// Clone returns a deep copy. ParentIDs is always non-nil in the copy.
func (d Distribution) Clone() Distribution {
	out := d
	out.ParentIDs = append(make([]DistributionID, 0, len(d.ParentIDs)), d.ParentIDs...)
	return out
}

// DisplaySettings are the session-wide rendering toggles persisted with the
// distributions.
type DisplaySettings struct {
	ShowShading    bool    `json:"show_shading"`
	ShadingOpacity float64 `json:"shading_opacity"`
	ShowStdMarkers bool    `json:"show_std_markers"`
}

// DefaultDisplaySettings returns the settings of a fresh session.
func DefaultDisplaySettings() DisplaySettings {
	return DisplaySettings{ShowShading: true, ShadingOpacity: 0.3, ShowStdMarkers: true}
}

// Validate ensures the opacity lies in [0,1].
func (s DisplaySettings) Validate() error {
	if !(s.ShadingOpacity >= 0 && s.ShadingOpacity <= 1) {
		return InvalidParameterError{Field: "shading_opacity", Value: s.ShadingOpacity, Reason: "must lie in [0,1]"}
	}
	return nil
}

// Change describes a mutation applied during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID DistributionID
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// BySeverity returns the violations carrying the given severity.
func (r Result) BySeverity(sev Severity) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == sev {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	blocking := e.Result.BySeverity(SeverityBlock)
	if len(blocking) == 0 {
		return "transaction blocked by rules"
	}
	return "transaction blocked by rules: " + blocking[0].Rule + ": " + blocking[0].Message
}
