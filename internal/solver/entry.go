package solver

import (
	"github.com/funvibe/gradient/internal/typesystem"
)

// ConstraintEntry holds the accumulated bounds for one variable within one
// constraint set. Invariant: whenever both bounds are present, the upper
// bound is assignable from the lower bound.
type ConstraintEntry struct {
	TypeVar *typesystem.TypeVarType

	// LowerBound widens as covariant assignments arrive.
	LowerBound typesystem.Type

	// UpperBound narrows as contravariant assignments arrive.
	UpperBound typesystem.Type

	// RetainLiterals keeps literal types in the final solution instead of
	// widening them at candidate-selection time.
	RetainLiterals bool
}

// Clone returns an independent copy (bounds are immutable and shared).
func (e *ConstraintEntry) Clone() *ConstraintEntry {
	c := *e
	return &c
}

// IsSame reports whether two entries constrain the same variable with
// type-equal bounds.
func (e *ConstraintEntry) IsSame(other *ConstraintEntry) bool {
	if e.TypeVar.Key() != other.TypeVar.Key() {
		return false
	}
	if e.RetainLiterals != other.RetainLiterals {
		return false
	}
	if (e.LowerBound == nil) != (other.LowerBound == nil) ||
		(e.UpperBound == nil) != (other.UpperBound == nil) {
		return false
	}
	if e.LowerBound != nil && !typesystem.Same(e.LowerBound, other.LowerBound) {
		return false
	}
	if e.UpperBound != nil && !typesystem.Same(e.UpperBound, other.UpperBound) {
		return false
	}
	return true
}
