package solver

import (
	"github.com/funvibe/gradient/internal/config"
	"github.com/funvibe/gradient/internal/diagnostics"
	"github.com/funvibe/gradient/internal/typesystem"
)

// AssignTypeVar records the obligation "assign src to dest" into the
// tracker, updating dest's bounds according to the variance encoded in
// flags. It returns false when the obligation conflicts with bounds
// already accumulated. A nil tracker runs the same checks in
// validation-only mode.
func AssignTypeVar(ev Evaluator, dest *typesystem.TypeVarType, src typesystem.Type, diag *diagnostics.Diag, tracker *ConstraintTracker, flags AssignFlags, recursionCount int) bool {
	if ev.CancelCheck() {
		diag.Add(diagnostics.Cancelled, "operation cancelled")
		return false
	}
	if recursionCount > config.MaxTypeRecursionCount {
		return true
	}
	recursionCount++

	// A variable with no scope id was never registered with a generic
	// definition; another layer diagnoses that, we just don't record.
	if dest.Details.ScopeID == "" {
		return true
	}

	// Normalize variadic forms before dispatch.
	if dest.IsUnpacked && dest.IsTypeVarTuple() {
		if srcVar, ok := src.(*typesystem.TypeVarType); ok && srcVar.IsUnpacked && srcVar.IsTypeVarTuple() {
			// Both sides unpacked: compare the inner sequences.
			dest = dest.CloneAsPacked()
			src = srcVar.CloneAsPacked()
		} else if srcClass, ok := src.(*typesystem.ClassType); ok && srcClass.IsUnpackedTuple {
			dest = dest.CloneAsPacked()
		} else {
			// A concrete type assigned to *Ts stands for a
			// single-element sequence.
			dest = dest.CloneAsPacked()
			src = makeUnpackedTuple(ev, []typesystem.TupleElement{{Type: src}})
		}
	} else if srcVar, ok := src.(*typesystem.TypeVarType); ok && srcVar.IsUnpacked && srcVar.IsTypeVarTuple() && !dest.IsTypeVarTuple() {
		// An unpacked tuple variable flowing into an ordinary variable
		// behaves like the union of its elements.
		packed := srcVar.CloneAsPacked()
		packed = packed.CloneAsUnion()
		src = packed
	}

	// Identity assignments carry no information.
	if srcVar, ok := src.(*typesystem.TypeVarType); ok && typesystem.Same(dest, srcVar) {
		return true
	}

	if isBoundTypeVar(dest, tracker) && !dest.IsUnification() {
		return assignToBoundTypeVar(ev, dest, src, diag, flags, recursionCount)
	}
	if dest.IsParamSpec() {
		return assignToParamSpec(ev, dest, src, diag, tracker, flags, recursionCount)
	}
	if dest.HasConstraints() {
		return assignToConstrainedTypeVar(ev, dest, src, diag, tracker, flags, recursionCount)
	}
	return assignToUnconstrainedTypeVar(ev, dest, src, diag, tracker, flags, recursionCount)
}

// isBoundTypeVar reports whether the tracker treats dest as fixed by the
// enclosing context.
func isBoundTypeVar(dest *typesystem.TypeVarType, tracker *ConstraintTracker) bool {
	if dest.Details.IsBound {
		return true
	}
	if tracker != nil && len(tracker.SolveForScopes()) > 0 {
		return !tracker.IsSolveForScope(dest.Details.ScopeID)
	}
	return false
}

// assignToBoundTypeVar handles a destination fixed by the enclosing
// context: a bound variable cannot be further
// constrained, but a handful of gradual sources still succeed.
func assignToBoundTypeVar(ev Evaluator, dest *typesystem.TypeVarType, src typesystem.Type, diag *diagnostics.Diag, flags AssignFlags, recursionCount int) bool {
	if typesystem.IsAnyOrUnknown(src) {
		return true
	}
	if srcClass, ok := src.(*typesystem.ClassType); ok {
		if srcClass.Details.Flags&typesystem.ClassDerivesFromAny != 0 {
			return true
		}
	}
	if typesystem.IsNever(src) && !flags.isInvariant() {
		return true
	}
	if dest.IsParamSpec() {
		if fn, ok := src.(*typesystem.FunctionType); ok && fn.IsGradualCallable() {
			return true
		}
	}

	if !dest.IsSynthesized() {
		diag.Addf(diagnostics.AssignmentMismatch,
			"type variable %s is bound and cannot be assigned %s", dest.String(), ev.PrintType(src))
	}
	return false
}

// assignToUnconstrainedTypeVar handles the ordinary (optionally
// upper-bounded) variable. Bounds are updated per set.
func assignToUnconstrainedTypeVar(ev Evaluator, dest *typesystem.TypeVarType, src typesystem.Type, diag *diagnostics.Diag, tracker *ConstraintTracker, flags AssignFlags, recursionCount int) bool {
	if tracker == nil {
		return assignUnconstrainedInSet(ev, dest, src, nil, diag, tracker, flags, recursionCount)
	}
	ok := true
	for _, set := range tracker.Sets() {
		if !assignUnconstrainedInSet(ev, dest, src, set, diag, tracker, flags, recursionCount) {
			ok = false
		}
	}
	return ok
}

func assignUnconstrainedInSet(ev Evaluator, dest *typesystem.TypeVarType, src typesystem.Type, set *ConstraintSet, diag *diagnostics.Diag, tracker *ConstraintTracker, flags AssignFlags, recursionCount int) bool {
	var cur *ConstraintEntry
	if set != nil {
		cur = set.Entry(dest)
	}

	var curLower, curUpper typesystem.Type
	retainLiterals := flags.retainsLiterals()
	if cur != nil {
		curLower = cur.LowerBound
		curUpper = cur.UpperBound
		retainLiterals = retainLiterals || cur.RetainLiterals
	}
	// The declared bound stands in for a missing upper bound, except for
	// Self, whose bound is the enclosing class and not a real constraint.
	upperFromDecl := false
	if curUpper == nil && dest.Details.Bound != nil && !dest.IsSelf() {
		curUpper = dest.Details.Bound
		upperFromDecl = true
	}

	// Adjust the source before comparison.
	if flags&AssignAllowUnspecifiedTypeArgs == 0 {
		if srcClass, ok := src.(*typesystem.ClassType); ok {
			if srcClass.TypeArgs == nil && len(srcClass.Details.TypeParams) > 0 {
				src = fillImplicitTypeArgs(srcClass)
			}
		}
	}
	if dest.Instantiable {
		inst, ok := convertSourceToInstance(ev, src)
		if !ok {
			if !dest.IsSynthesized() {
				diag.Addf(diagnostics.AssignmentMismatch,
					"%s is not an instantiable type and cannot satisfy %s", ev.PrintType(src), dest.String())
			}
			return false
		}
		src = inst
	}
	if srcVar, ok := src.(*typesystem.TypeVarType); ok {
		if srcVar.Instantiable && typesystem.SameIgnoringFlags(srcVar, dest) {
			// type[T] assigned to T would produce a circular lower bound.
			if !dest.IsSynthesized() {
				diag.Addf(diagnostics.AssignmentMismatch,
					"cannot assign %s to its own type variable %s", ev.PrintType(src), dest.String())
			}
			return false
		}
	}

	record := func(lower, upper typesystem.Type) {
		if set == nil {
			return
		}
		tracker.assertMutable()
		set.RecordEntry(&ConstraintEntry{
			TypeVar:        dest,
			LowerBound:     lower,
			UpperBound:     upper,
			RetainLiterals: retainLiterals,
		})
	}

	// Expected-type population never overwrites an observed entry.
	if flags&AssignPopulateExpectedType != 0 {
		if flags&AssignSkipPopulateUnknownExpectedType != 0 && src.Category() == typesystem.CategoryUnknown {
			return true
		}
		if cur != nil {
			return true
		}
		switch {
		case flags.isInvariant():
			record(src, src)
		case flags.isContravariant():
			record(src, nil)
		default:
			record(nil, src)
		}
		return true
	}

	if flags.isContravariant() {
		// Contravariant assignment narrows the upper bound.
		newUpper := src
		switch {
		case curUpper == nil || typesystem.Same(curUpper, dest):
			newUpper = src
		case ev.AssignType(curUpper, ev.Concretize(src), nil, nil, AssignDefault, recursionCount):
			// src is narrower.
			newUpper = src
		case ev.AssignType(src, curUpper, nil, nil, AssignDefault, recursionCount):
			newUpper = curUpper
		default:
			if !dest.IsSynthesized() {
				diag.Addf(diagnostics.AssignmentMismatch,
					"%s is incompatible with the upper bound %s of %s",
					ev.PrintType(src), ev.PrintType(curUpper), dest.String())
			}
			return false
		}
		if curLower != nil && !ev.AssignType(newUpper, curLower, nil, nil, AssignDefault, recursionCount) {
			if !dest.IsSynthesized() {
				diag.Addf(diagnostics.AssignmentMismatch,
					"upper bound %s of %s no longer fits its lower bound %s",
					ev.PrintType(newUpper), dest.String(), ev.PrintType(curLower))
			}
			return false
		}
		return finalizeBounds(ev, dest, curLower, newUpper, diag, flags, record, recursionCount)
	}

	// Covariant (default): widen the lower bound.
	newLower := curLower
	switch {
	case curLower == nil || typesystem.Same(curLower, dest):
		newLower = src

	case typesystem.Same(curLower, src):
		if flags.isInvariant() && curUpper == nil && !retainLiterals {
			newLower = typesystem.StripLiteralValue(curLower)
		}

	default:
		widened := false
		if ev.AssignType(curLower, src, nil, nil, AssignDefault, recursionCount) {
			// The current bound already covers src. Prefer the fully
			// known side when the bound is partly unknown.
			newLower = curLower
			if typesystem.IsPartlyUnknown(curLower) && !typesystem.IsPartlyUnknown(src) &&
				ev.AssignType(src, curLower, nil, nil, AssignDefault, recursionCount) {
				newLower = src
			}
			widened = true
		}
		if !widened {
			if lowerVar, ok := curLower.(*typesystem.TypeVarType); ok && isForeignTypeVar(lowerVar, tracker) {
				if ev.AssignType(ev.Concretize(curLower), src, nil, nil, AssignDefault, recursionCount) {
					newLower = src
					widened = true
				}
			}
		}
		if !widened {
			if _, srcIsVar := src.(*typesystem.TypeVarType); !srcIsVar {
				if ev.AssignType(src, curLower, nil, nil, AssignDefault, recursionCount) {
					newLower = src
					widened = true
				}
			}
		}
		if !widened && dest.IsTypeVarTuple() {
			if joint, ok := widenTupleBoundsTogether(curLower, src); ok {
				newLower = joint
				widened = true
			} else {
				// Union widening is invalid for variadic sequences.
				if !dest.IsSynthesized() {
					diag.Addf(diagnostics.AssignmentMismatch,
						"tuple sequence %s cannot be widened with %s for %s",
						ev.PrintType(curLower), ev.PrintType(src), dest.String())
				}
				return false
			}
		}
		if !widened {
			newLower = typesystem.Combine([]typesystem.Type{curLower, src})
			if typesystem.SubtypeCount(newLower) > config.MaxSubtypesForInferredType && dest.Details.Bound != nil {
				// Pathological lower-bound growth collapses to object
				// when the declared bound can absorb it.
				if obj := ev.GetBuiltInType(config.ObjectTypeName); obj != nil {
					newLower = obj
				}
			}
		}
	}

	if flags.isInvariant() && !ev.AssignType(src, newLower, nil, nil, AssignDefault, recursionCount) {
		if !dest.IsSynthesized() {
			diag.Addf(diagnostics.AssignmentMismatch,
				"%s is not invariant-compatible with the bound %s of %s",
				ev.PrintType(src), ev.PrintType(newLower), dest.String())
		}
		return false
	}
	// The sandwich invariant holds at every observable state: a widened
	// lower bound must still fit under the accumulated upper bound. The
	// declared-bound fallback is checked separately during finalization.
	if !upperFromDecl && curUpper != nil && newLower != nil && !ev.AssignType(curUpper, newLower, nil, nil, AssignDefault, recursionCount) {
		if !dest.IsSynthesized() {
			diag.Addf(diagnostics.AssignmentMismatch,
				"%s does not fit the upper bound %s of %s",
				ev.PrintType(newLower), ev.PrintType(curUpper), dest.String())
		}
		return false
	}

	finalUpper := curUpper
	if upperFromDecl {
		// The declared bound is a validity check, not an accumulated
		// constraint; don't record it as the entry's upper bound.
		finalUpper = nil
		if cur != nil {
			finalUpper = cur.UpperBound
		}
	}
	if flags.isInvariant() && finalUpper == nil {
		finalUpper = newLower
	}
	return finalizeBounds(ev, dest, newLower, finalUpper, diag, flags, record, recursionCount)
}

// finalizeBounds verifies the declared bound and records the entry.
func finalizeBounds(ev Evaluator, dest *typesystem.TypeVarType, lower, upper typesystem.Type, diag *diagnostics.Diag, flags AssignFlags, record func(lower, upper typesystem.Type), recursionCount int) bool {
	if dest.Details.Bound != nil && dest.Details.Flags&typesystem.TypeVarExemptFromBoundCheck == 0 {
		check := lower
		if check == nil {
			check = upper
		}
		if check != nil && !typesystem.Same(check, dest.Details.Bound) {
			if !ev.AssignType(dest.Details.Bound, ev.Concretize(check), nil, nil, AssignDefault, recursionCount) {
				if !dest.IsSynthesized() {
					diag.Addf(diagnostics.BoundViolation,
						"%s violates the declared bound %s of %s",
						ev.PrintType(check), ev.PrintType(dest.Details.Bound), dest.String())
				}
				return false
			}
		}
	}
	record(lower, upper)
	return true
}

// isForeignTypeVar reports whether v belongs to a scope the tracker is not
// solving for.
func isForeignTypeVar(v *typesystem.TypeVarType, tracker *ConstraintTracker) bool {
	if v.Details.IsBound {
		return true
	}
	if tracker == nil || len(tracker.SolveForScopes()) == 0 {
		return false
	}
	return !tracker.IsSolveForScope(v.Details.ScopeID)
}

// fillImplicitTypeArgs specializes an unspecialized generic class with
// Unknown arguments.
func fillImplicitTypeArgs(c *typesystem.ClassType) *typesystem.ClassType {
	args := make([]typesystem.Type, len(c.Details.TypeParams))
	for i := range args {
		args[i] = typesystem.Unknown
	}
	filled := c.CloneWithTypeArgs(args)
	filled.IsImplicitTypeArgs = true
	return filled
}

// convertSourceToInstance converts src to the instance form required when
// the destination variable is instantiable (type[T]). Top-level free
// variables are concretized first; a source with no instantiable form
// fails.
func convertSourceToInstance(ev Evaluator, src typesystem.Type) (typesystem.Type, bool) {
	switch src := src.(type) {
	case *typesystem.AnyType, *typesystem.UnknownType, *typesystem.NeverType:
		return src, true
	case *typesystem.ClassType:
		if src.Instantiable {
			return src.CloneAsInstance(), true
		}
	case *typesystem.TypeVarType:
		if src.Instantiable {
			return src.CloneAsInstance(), true
		}
		concrete := ev.Concretize(src)
		if !typesystem.Same(concrete, src) {
			return convertSourceToInstance(ev, concrete)
		}
	case *typesystem.UnionType:
		out := make([]typesystem.Type, 0, len(src.Subtypes))
		for _, s := range src.Subtypes {
			inst, ok := convertSourceToInstance(ev, s)
			if !ok {
				return nil, false
			}
			out = append(out, inst)
		}
		return typesystem.Combine(out), true
	}
	return nil, false
}

// makeUnpackedTuple builds an unpacked tuple type with the given elements.
// When the builtin tuple class is unavailable (minimal test universes),
// a synthesized tuple declaration stands in.
func makeUnpackedTuple(ev Evaluator, elements []typesystem.TupleElement) typesystem.Type {
	var tupleClass *typesystem.ClassType
	if builtin := ev.GetBuiltInType(config.TupleTypeName); builtin != nil {
		if c, ok := builtin.(*typesystem.ClassType); ok {
			tupleClass = c
		}
	}
	if tupleClass == nil {
		tupleClass = typesystem.NewClass(config.TupleTypeName, "builtins.tuple", typesystem.ClassTupleClass, nil)
		tupleClass = tupleClass.CloneAsInstance()
	}
	t := *tupleClass
	t.Instantiable = false
	t.TupleElements = elements
	t.IsUnpackedTuple = true
	return &t
}
