package solver

import (
	"github.com/funvibe/gradient/internal/diagnostics"
	"github.com/funvibe/gradient/internal/typesystem"
)

// assignToConstrainedTypeVar handles a variable declared with an
// explicit list of value constraints. Every unconditional subtype of the
// source must map onto the same constraint index; conditionally-tagged
// subtypes may map anywhere.
func assignToConstrainedTypeVar(ev Evaluator, dest *typesystem.TypeVarType, src typesystem.Type, diag *diagnostics.Diag, tracker *ConstraintTracker, flags AssignFlags, recursionCount int) bool {
	constraints := dest.Details.Constraints
	concrete := ev.Concretize(src)

	type match struct {
		result typesystem.Type
		index  int
	}

	var matches []match
	unconditionalIndex := -1
	indexConflict := false
	failed := false

	typesystem.DoForEachSubtype(concrete, func(sub typesystem.Type, _ int) {
		if failed || indexConflict {
			return
		}
		if typesystem.IsAnyOrUnknown(sub) {
			// Gradual subtypes satisfy any constraint without committing
			// to an index.
			matches = append(matches, match{result: sub, index: -1})
			return
		}

		isConditional := conditionIndexFor(sub, dest) >= 0 || len(typesystem.GetCondition(sub)) > 0

		idx := narrowestConstraintIndex(ev, constraints, sub, recursionCount)
		if idx < 0 && flags.isContravariant() {
			// In contravariant context the source may be wider than the
			// constraint.
			for i, c := range constraints {
				if ev.AssignType(sub, c, nil, nil, AssignDefault, recursionCount) {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			failed = true
			return
		}

		result := typesystem.AddCondition(constraints[idx], typesystem.GetCondition(sub))
		result = typesystem.AddCondition(result, []typesystem.Condition{{Var: dest, ConstraintIndex: idx}})
		matches = append(matches, match{result: result, index: idx})

		if !isConditional {
			if unconditionalIndex >= 0 && unconditionalIndex != idx {
				indexConflict = true
				return
			}
			unconditionalIndex = idx
		}
	})

	if indexConflict {
		if !dest.IsSynthesized() {
			diag.Addf(diagnostics.ConstrainedMismatch,
				"subtypes of %s map to different constraints of %s", ev.PrintType(src), dest.String())
		}
		return false
	}

	if failed {
		// Retry the union as a whole: a union source may match one
		// constraint even when its members individually do not.
		matches = nil
		if _, isUnion := concrete.(*typesystem.UnionType); isUnion {
			if idx := narrowestConstraintIndex(ev, constraints, concrete, recursionCount); idx >= 0 {
				result := typesystem.AddCondition(constraints[idx], []typesystem.Condition{{Var: dest, ConstraintIndex: idx}})
				matches = append(matches, match{result: result, index: idx})
				failed = false
			}
		}
	}
	if failed || len(matches) == 0 {
		if !dest.IsSynthesized() {
			diag.Addf(diagnostics.ConstrainedMismatch,
				"%s is not compatible with the constraints of %s", ev.PrintType(src), dest.String())
		}
		return false
	}

	parts := make([]typesystem.Type, len(matches))
	for i, m := range matches {
		parts[i] = m.result
	}
	resultType := typesystem.Combine(parts)
	retainLiterals := typesystem.IsLiteralLike(resultType)

	if tracker == nil {
		return true
	}
	tracker.assertMutable()

	ok := true
	for _, set := range tracker.Sets() {
		cur := set.Entry(dest)
		if cur == nil || cur.LowerBound == nil {
			set.RecordEntry(&ConstraintEntry{
				TypeVar:        dest,
				LowerBound:     resultType,
				RetainLiterals: retainLiterals,
			})
			continue
		}
		existing := cur.LowerBound
		switch {
		case typesystem.Same(existing, resultType):
			// no change
		case ev.AssignType(resultType, existing, nil, nil, AssignDefault, recursionCount):
			// The new result is wider; replace.
			set.RecordEntry(&ConstraintEntry{
				TypeVar:        dest,
				LowerBound:     resultType,
				RetainLiterals: retainLiterals || cur.RetainLiterals,
			})
		case ev.AssignType(existing, resultType, nil, nil, AssignDefault, recursionCount):
			// The existing bound already covers the new result.
		default:
			if !dest.IsSynthesized() {
				diag.Addf(diagnostics.ConstrainedMismatch,
					"constraint %s conflicts with previously matched %s for %s",
					ev.PrintType(resultType), ev.PrintType(existing), dest.String())
			}
			ok = false
		}
	}
	return ok
}

// narrowestConstraintIndex returns the index of the narrowest constraint
// that accepts sub, or -1.
func narrowestConstraintIndex(ev Evaluator, constraints []typesystem.Type, sub typesystem.Type, recursionCount int) int {
	best := -1
	for i, c := range constraints {
		if !ev.AssignType(c, sub, nil, nil, AssignDefault, recursionCount) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		// Prefer c when it is narrower than the current best.
		if ev.AssignType(constraints[best], c, nil, nil, AssignDefault, recursionCount) &&
			!ev.AssignType(c, constraints[best], nil, nil, AssignDefault, recursionCount) {
			best = i
		}
	}
	return best
}

// conditionIndexFor returns the constraint index already attached to sub
// for the given variable, or -1.
func conditionIndexFor(sub typesystem.Type, v *typesystem.TypeVarType) int {
	for _, cond := range typesystem.GetCondition(sub) {
		if cond.Var != nil && cond.Var.Key() == v.Key() {
			return cond.ConstraintIndex
		}
	}
	return -1
}
