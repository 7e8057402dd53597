package domain

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is against the typed errors below.
var (
	ErrInsufficientParents = errors.New("insufficient parents")
	ErrUnknownID           = errors.New("unknown distribution id")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrCyclicDependency    = errors.New("cyclic product dependency")
	// ErrIDsExhausted is returned once the allocator has no id left that
	// it could issue without wrapping.
	ErrIDsExhausted        = errors.New("distribution ids exhausted")
)

// UnknownIDError reports a reference to an id that is not in the store.
type UnknownIDError struct {
	ID DistributionID
}

func (e UnknownIDError) Error() string {
	return fmt.Sprintf("distribution %s not found", e.ID)
}

// Is matches ErrUnknownID.
func (e UnknownIDError) Is(target error) bool { return target == ErrUnknownID }

// InsufficientParentsError is returned when a product would have fewer than
// two resolvable parents.
type InsufficientParentsError struct {
	Requested int
	Resolved  int
}

func (e InsufficientParentsError) Error() string {
	return fmt.Sprintf("product needs at least 2 resolvable parents, got %d of %d", e.Resolved, e.Requested)
}

// Is matches ErrInsufficientParents.
func (e InsufficientParentsError) Is(target error) bool { return target == ErrInsufficientParents }

// InvalidParameterError rejects a parameter edit.
type InvalidParameterError struct {
	ID     DistributionID
	Field  string
	Value  float64
	Reason string
}

func (e InvalidParameterError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("distribution %s: %s", e.ID, e.Reason)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Is matches ErrInvalidParameter.
func (e InvalidParameterError) Is(target error) bool { return target == ErrInvalidParameter }

// CycleError lists the products that could not be ordered.
type CycleError struct {
	IDs []DistributionID
}

func (e CycleError) Error() string {
	return fmt.Sprintf("cyclic product dependency involving %v", e.IDs)
}

// Is matches ErrCyclicDependency.
func (e CycleError) Is(target error) bool { return target == ErrCyclicDependency }
