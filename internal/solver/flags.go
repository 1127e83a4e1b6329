package solver

import (
	"github.com/funvibe/gradient/internal/typesystem"
)

// AssignFlags modify the behavior of AssignType / AssignTypeVar.
type AssignFlags int

const (
	// AssignDefault is covariant assignment with literal widening.
	AssignDefault AssignFlags = 0

	// AssignInvariant requires exact type match rather than subtyping.
	AssignInvariant AssignFlags = 1 << iota

	// AssignContravariant reverses the direction: the type variable's
	// upper bound is narrowed instead of its lower bound widened.
	AssignContravariant

	// AssignPopulateExpectedType records expected-type bounds without
	// overwriting existing entries.
	AssignPopulateExpectedType

	// AssignSkipPopulateUnknownExpectedType makes PopulateExpectedType a
	// no-op when the incoming type is Unknown.
	AssignSkipPopulateUnknownExpectedType

	// AssignAllowUnspecifiedTypeArgs leaves implicit type arguments
	// unfilled instead of synthesizing Unknown.
	AssignAllowUnspecifiedTypeArgs

	// AssignRetainLiteralsForTypeVar keeps literal types in recorded
	// bounds instead of widening them at solve time.
	AssignRetainLiteralsForTypeVar

	// AssignOverloadOverlap is set while checking whether two overloads
	// overlap.
	AssignOverloadOverlap

	// AssignPartialOverloadOverlap is set for the partial-overlap variant
	// of the overload check.
	AssignPartialOverloadOverlap

	// AssignSkipReturnTypeCheck compares callables by parameters only.
	AssignSkipReturnTypeCheck
)

// IsInvariantRequest reports whether the effective assignment is
// invariant.
func (f AssignFlags) IsInvariantRequest() bool { return f&AssignInvariant != 0 }

// IsContravariantRequest reports whether the effective assignment is
// contravariant.
func (f AssignFlags) IsContravariantRequest() bool { return f&AssignContravariant != 0 }

func (f AssignFlags) isInvariant() bool     { return f.IsInvariantRequest() }
func (f AssignFlags) isContravariant() bool { return f.IsContravariantRequest() }

// retainsLiterals reports whether recorded bounds keep literal types.
func (f AssignFlags) retainsLiterals() bool {
	return f&(AssignPopulateExpectedType|AssignRetainLiteralsForTypeVar) != 0
}

// FlagsForVariance returns the assignment flags matching a declared
// parameter variance.
func FlagsForVariance(v typesystem.Variance) AssignFlags {
	switch v {
	case typesystem.VarianceCovariant:
		return AssignDefault
	case typesystem.VarianceContravariant:
		return AssignContravariant
	}
	return AssignInvariant
}
