package solver

import (
	"fmt"

	"github.com/funvibe/gradient/internal/typesystem"
)

// SeedFromExpectedType seeds bounds for target's type parameters such that
// target becomes assignable to expected. target is the concrete
// (possibly unspecialized) class a constructor call or comprehension is
// about to produce; expected is the type the surrounding context wants.
func SeedFromExpectedType(ev Evaluator, target *typesystem.ClassType, expected typesystem.Type, tracker *ConstraintTracker, liveScopes []string) bool {
	if tracker != nil && len(liveScopes) > 0 {
		tracker.AddSolveForScope(liveScopes...)
	}

	// An Any or Unknown expected type matches everything; pin every
	// parameter to that expected type.
	if typesystem.IsAnyOrUnknown(expected) {
		if tracker != nil {
			for _, param := range target.Details.TypeParams {
				tracker.RecordEntry(&ConstraintEntry{
					TypeVar:    param,
					LowerBound: expected,
					UpperBound: expected,
				})
			}
		}
		return true
	}

	if expectedVar, ok := expected.(*typesystem.TypeVarType); ok {
		if expectedVar.IsSelf() && expectedVar.Details.Bound != nil {
			expected = expectedVar.Details.Bound
		}
	}

	expectedClass, ok := expected.(*typesystem.ClassType)
	if !ok {
		return false
	}

	if expectedClass.TypeArgs == nil {
		// An unspecialized expected type has nothing to read off; let the
		// generic assignability populate what it can.
		return ev.AssignType(expectedClass, target.CloneAsInstance(), nil, tracker,
			AssignPopulateExpectedType|AssignSkipPopulateUnknownExpectedType, 0)
	}

	if expectedClass.Details == target.Details {
		// Same generic class: read the expected arguments directly,
		// directed by each parameter's declared variance.
		if tracker == nil {
			return true
		}
		for i, param := range target.Details.TypeParams {
			if i >= len(expectedClass.TypeArgs) {
				break
			}
			arg := expectedClass.TypeArgs[i]
			entry := &ConstraintEntry{TypeVar: param, RetainLiterals: true}
			switch param.Details.Variance {
			case typesystem.VarianceCovariant:
				entry.LowerBound = arg
			case typesystem.VarianceContravariant:
				entry.UpperBound = arg
			default:
				entry.LowerBound = arg
				entry.UpperBound = arg
			}
			tracker.RecordEntry(entry)
		}
		return true
	}

	return seedViaSynthesizedVars(ev, target, expectedClass, tracker)
}

// seedViaSynthesizedVars handles the derived-class case: target derives
// from (or otherwise relates to) expected's class. Placeholder variables
// on both sides let the ordinary assignability machinery discover which
// target parameter feeds which expected argument, and the discovered
// mapping is replayed against the real parameters.
func seedViaSynthesizedVars(ev Evaluator, target *typesystem.ClassType, expected *typesystem.ClassType, tracker *ConstraintTracker) bool {
	synthScope := typesystem.NewScopeID()

	destVars := make([]*typesystem.TypeVarType, len(expected.Details.TypeParams))
	for i := range destVars {
		destVars[i] = typesystem.NewTypeVar(fmt.Sprintf("__dest%d", i), synthScope, typesystem.VarianceInvariant)
		destVars[i].Details.Flags |= typesystem.TypeVarSynthesized
	}
	srcVars := make([]*typesystem.TypeVarType, len(target.Details.TypeParams))
	for i := range srcVars {
		srcVars[i] = typesystem.NewTypeVar(fmt.Sprintf("__source%d", i), synthScope, typesystem.VarianceInvariant)
		srcVars[i].Details.Flags |= typesystem.TypeVarSynthesized
	}

	genericExpected := expected.CloneWithTypeArgs(typeSlice(destVars))
	genericTarget := target.CloneWithTypeArgs(typeSlice(srcVars)).CloneAsInstance()

	synthTracker := NewConstraintTracker(synthScope)
	if !ev.AssignType(genericExpected.CloneAsInstance(), genericTarget, nil, synthTracker, AssignDefault, 0) {
		return false
	}

	srcIndex := func(v *typesystem.TypeVarType) int {
		for j, sv := range srcVars {
			if sv.Key() == v.Key() {
				return j
			}
		}
		return -1
	}

	matchedAny := false
	mainSet := synthTracker.MainSet()
	for i, dv := range destVars {
		entry := mainSet.Entry(dv)
		if entry == nil {
			continue
		}
		binding := entry.LowerBound
		if binding == nil {
			binding = entry.UpperBound
		}
		if binding == nil {
			continue
		}

		// The binding identifies the target parameter when it mentions
		// exactly one synthesized source variable.
		var sourceVar *typesystem.TypeVarType
		var extraSubtypes []typesystem.Type
		valid := true
		typesystem.DoForEachSubtype(binding, func(sub typesystem.Type, _ int) {
			if sv, ok := sub.(*typesystem.TypeVarType); ok && srcIndex(sv) >= 0 {
				if sourceVar != nil {
					valid = false
					return
				}
				sourceVar = sv
				return
			}
			extraSubtypes = append(extraSubtypes, sub)
		})
		if !valid || sourceVar == nil {
			continue
		}

		j := srcIndex(sourceVar)
		value := expected.TypeArgs[i]
		if len(extraSubtypes) > 0 {
			value = typesystem.Combine(append(extraSubtypes, value))
		}
		if AssignTypeVar(ev, target.Details.TypeParams[j], value, nil, tracker,
			AssignRetainLiteralsForTypeVar, 0) {
			matchedAny = true
		}
	}
	return matchedAny
}

func typeSlice(vars []*typesystem.TypeVarType) []typesystem.Type {
	out := make([]typesystem.Type, len(vars))
	for i, v := range vars {
		out[i] = v
	}
	return out
}
