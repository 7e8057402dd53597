package domain

import (
	"fmt"
	"sort"

	"pdfcore/pkg/gaussian"
)

// Snapshot is the persisted unit of a session: every distribution record,
// the allocator position, and the display settings. Transient UI state such
// as selections and view bounds never appears here.
type Snapshot struct {
	Distributions map[DistributionID]Distribution
	NextID        DistributionID
	Settings      DisplaySettings
}

// NewSnapshot returns an empty session with default settings.
func NewSnapshot() Snapshot {
	return Snapshot{
		Distributions: make(map[DistributionID]Distribution),
		Settings:      DefaultDisplaySettings(),
	}
}

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Distributions: make(map[DistributionID]Distribution, len(s.Distributions)),
		NextID:        s.NextID,
		Settings:      s.Settings,
	}
	for id, d := range s.Distributions {
		out.Distributions[id] = d.Clone()
	}
	return out
}

// Sorted returns the distributions ordered by id.
func (s Snapshot) Sorted() []Distribution {
	out := make([]Distribution, 0, len(s.Distributions))
	for _, d := range s.Distributions {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Validate checks the structural invariants a snapshot must satisfy before it
// can replace a live store.
func (s Snapshot) Validate() error {
	for key, d := range s.Distributions {
		if key != d.ID {
			return fmt.Errorf("distribution keyed %s carries id %s", key, d.ID)
		}
		if d.ID >= s.NextID {
			return fmt.Errorf("next id %s does not exceed distribution id %s", s.NextID, d.ID)
		}
		if err := ValidateParameters(d.Mean, d.StdDev); err != nil {
			return fmt.Errorf("distribution %s: %w", d.ID, err)
		}
		switch d.Kind {
		case KindLeaf:
			if len(d.ParentIDs) != 0 {
				return fmt.Errorf("leaf distribution %s lists parents", d.ID)
			}
		case KindProduct:
			if len(d.ParentIDs) < 2 {
				return fmt.Errorf("product distribution %s: %w", d.ID, InsufficientParentsError{Requested: len(d.ParentIDs), Resolved: len(d.ParentIDs)})
			}
		default:
			return fmt.Errorf("distribution %s has unknown kind %q", d.ID, d.Kind)
		}
	}
	if err := s.Settings.Validate(); err != nil {
		return err
	}
	if _, err := ProductOrder(s.Distributions); err != nil {
		return err
	}
	return nil
}

// ValidateParameters rejects a non-finite mean or a non-positive std dev.
func ValidateParameters(mean, stdDev float64) error {
	p := gaussian.Params{Mean: mean, StdDev: stdDev}
	if err := p.Validate(); err != nil {
		field, value := "std_dev", stdDev
		if (gaussian.Params{Mean: mean, StdDev: 1}).Validate() != nil {
			field, value = "mean", mean
		}
		return InvalidParameterError{Field: field, Value: value, Reason: err.Error()}
	}
	return nil
}
