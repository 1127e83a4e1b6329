package typesystem

import (
	"github.com/funvibe/gradient/internal/config"
)

// ComplexityScore maps a type to a value in [0, 1]. When several candidate
// types solve the same variable, the solver prefers the one with the lower
// score; completeness (number of variables solved) dominates the
// comparison, the score only breaks ties.
func ComplexityScore(t Type) float64 {
	return complexityScore(t, 0)
}

func complexityScore(t Type, recursionCount int) float64 {
	if t == nil {
		return 1.0
	}
	if recursionCount > config.MaxTypeRecursionCount {
		return 1.0
	}
	recursionCount++

	switch t := t.(type) {
	case *AnyType, *UnknownType:
		return 0.5

	case *TypeVarType:
		if t.Instantiable {
			return 0.55
		}
		return 0.5

	case *FunctionType:
		if t.Instantiable {
			return 0.85
		}
		return 0.8

	case *OverloadedType:
		return 0.8

	case *UnionType:
		// Huge unions are treated as no more complex than a scalar so
		// the cap-collapse rule does not get outscored by its inputs.
		if len(t.Subtypes) >= 16 {
			return 0.5
		}
		max := 0.0
		for _, s := range t.Subtypes {
			if score := complexityScore(s, recursionCount); score > max {
				max = score
			}
		}
		return max

	case *ClassType:
		score := 0.5
		if t.Instantiable {
			score += 0.05
		}
		if len(t.TypeArgs) > 0 {
			sum := 0.0
			for _, arg := range t.TypeArgs {
				sum += complexityScore(arg, recursionCount)
			}
			score += 0.25 * (sum / float64(len(t.TypeArgs)))
		}
		return score
	}

	// Never, Unbound, Module
	return 1.0
}
