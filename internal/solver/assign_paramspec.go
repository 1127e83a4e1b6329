package solver

import (
	"github.com/funvibe/gradient/internal/diagnostics"
	"github.com/funvibe/gradient/internal/typesystem"
)

// assignToParamSpec handles ParamSpec destinations. A ParamSpec is solved independently
// per constraint set; matching an overloaded callable forks the sets, one
// per overload, which is the reason the tracker is a sequence of sets at
// all.
func assignToParamSpec(ev Evaluator, dest *typesystem.TypeVarType, src typesystem.Type, diag *diagnostics.Diag, tracker *ConstraintTracker, flags AssignFlags, recursionCount int) bool {
	switch src := src.(type) {
	case *typesystem.AnyType, *typesystem.UnknownType:
		// Gradual sources are accepted without touching the entries.
		return true

	case *typesystem.TypeVarType:
		if !src.IsParamSpec() {
			break
		}
		sig := &typesystem.FunctionType{
			ParamSpecTail: src,
			Flags:         typesystem.FunctionSynthesized,
		}
		return recordParamSpecSignature(ev, dest, sig, diag, tracker, recursionCount)

	case *typesystem.FunctionType:
		return recordParamSpecSignature(ev, dest, toParamSpecForm(src), diag, tracker, recursionCount)

	case *typesystem.OverloadedType:
		if tracker == nil {
			// Validation only: any overload shape is acceptable.
			return len(src.Overloads) > 0
		}
		tracker.assertMutable()
		var forked []*ConstraintSet
		for _, set := range tracker.Sets() {
			for _, overload := range src.Overloads {
				clone := set.Clone()
				if recordParamSpecInSet(ev, dest, toParamSpecForm(overload), clone, recursionCount) {
					forked = append(forked, clone)
				}
			}
		}
		if len(forked) == 0 {
			if !dest.IsSynthesized() {
				diag.Addf(diagnostics.ParamSpecMismatch,
					"no overload of %s is compatible with %s", ev.PrintType(src), dest.String())
			}
			return false
		}
		tracker.ReplaceSets(forked)
		return true
	}

	if !dest.IsSynthesized() {
		diag.Addf(diagnostics.ParamSpecMismatch,
			"%s cannot be assigned to parameter specification %s", ev.PrintType(src), dest.String())
	}
	return false
}

func recordParamSpecSignature(ev Evaluator, dest *typesystem.TypeVarType, sig *typesystem.FunctionType, diag *diagnostics.Diag, tracker *ConstraintTracker, recursionCount int) bool {
	if tracker == nil {
		return true
	}
	tracker.assertMutable()
	ok := true
	for _, set := range tracker.Sets() {
		if !recordParamSpecInSet(ev, dest, sig, set, recursionCount) {
			if !dest.IsSynthesized() {
				var existing typesystem.Type
				if cur := set.Entry(dest); cur != nil {
					existing = cur.LowerBound
				}
				diag.Addf(diagnostics.ParamSpecMismatch,
					"parameter list %s is incompatible with previously matched %s for %s",
					ev.PrintType(sig), ev.PrintType(existing), dest.String())
			}
			ok = false
		}
	}
	return ok
}

func recordParamSpecInSet(ev Evaluator, dest *typesystem.TypeVarType, sig *typesystem.FunctionType, set *ConstraintSet, recursionCount int) bool {
	cur := set.Entry(dest)
	if cur == nil || cur.LowerBound == nil {
		set.RecordEntry(&ConstraintEntry{TypeVar: dest, LowerBound: sig})
		return true
	}

	existing, ok := cur.LowerBound.(*typesystem.FunctionType)
	if !ok {
		if typesystem.IsAnyOrUnknown(cur.LowerBound) {
			set.RecordEntry(&ConstraintEntry{TypeVar: dest, LowerBound: sig})
			return true
		}
		return false
	}

	// Compare signatures ignoring return types.
	flags := AssignSkipReturnTypeCheck
	existingAcceptsNew := ev.AssignType(existing, sig, nil, nil, flags, recursionCount)
	newAcceptsExisting := ev.AssignType(sig, existing, nil, nil, flags, recursionCount)

	switch {
	case existingAcceptsNew && newAcceptsExisting:
		// Mutually assignable: prefer the non-gradual form.
		if existing.IsGradualCallable() && !sig.IsGradualCallable() {
			set.RecordEntry(&ConstraintEntry{TypeVar: dest, LowerBound: sig})
		}
	case newAcceptsExisting:
		// The new signature is wider; widen.
		set.RecordEntry(&ConstraintEntry{TypeVar: dest, LowerBound: sig})
	case existingAcceptsNew:
		// Keep the existing, wider signature.
	default:
		return false
	}
	return true
}

// toParamSpecForm strips a trailing ParamSpec args/kwargs pair so the
// signature captures only the directly declared parameters.
func toParamSpecForm(fn *typesystem.FunctionType) *typesystem.FunctionType {
	n := len(fn.Params)
	if n >= 2 &&
		fn.Params[n-2].Category == typesystem.ParamArgsList &&
		fn.Params[n-1].Category == typesystem.ParamKwargsDict {
		argsVar, aOK := fn.Params[n-2].Type.(*typesystem.TypeVarType)
		kwargsVar, kOK := fn.Params[n-1].Type.(*typesystem.TypeVarType)
		if aOK && kOK && argsVar.IsParamSpec() && kwargsVar.IsParamSpec() {
			c := fn.Clone()
			c.Params = c.Params[:n-2]
			return c
		}
	}
	return fn
}
