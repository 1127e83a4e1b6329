package protocol

import (
	"github.com/funvibe/gradient/internal/diagnostics"
	"github.com/funvibe/gradient/internal/solver"
	"github.com/funvibe/gradient/internal/typesystem"
)

// Property accessor member names inside a property class.
var accessorSlots = []struct {
	name  string
	label string
}{
	{"fget", "getter"},
	{"fset", "setter"},
	{"fdel", "deleter"},
}

// compareProperties compares two property classes accessor-by-accessor.
// Every accessor the destination declares must have a compatible
// counterpart on the source; extra source accessors are fine (read-only
// asymmetry runs the other way).
func compareProperties(ev solver.Evaluator, m *Matcher, destProp, srcProp *typesystem.ClassType, selfType typesystem.Type, memberName string, diag *diagnostics.Diag, tracker *solver.ConstraintTracker, recursionCount int) bool {
	ok := true
	for _, slot := range accessorSlots {
		destFn := accessorFunction(ev, destProp, slot.name)
		if destFn == nil {
			continue
		}
		srcFn := accessorFunction(ev, srcProp, slot.name)
		if srcFn == nil {
			diag.Addf(diagnostics.ProtocolMemberWritability,
				"property %q is missing the %s required by the protocol", memberName, slot.label)
			ok = false
			continue
		}

		destBound := ev.BindFunctionToClassOrObject(selfType, destFn)
		srcBound := ev.BindFunctionToClassOrObject(selfType, srcFn)
		if destBound == nil || srcBound == nil {
			diag.Addf(diagnostics.ProtocolMemberTypeMismatch,
				"property %q %s cannot be bound for comparison", memberName, slot.label)
			ok = false
			continue
		}

		if !ev.AssignType(destBound, srcBound, nil, tracker, solver.AssignDefault, recursionCount) {
			diag.Addf(diagnostics.ProtocolMemberTypeMismatch,
				"property %q has incompatible %s: %s is not assignable to %s",
				memberName, slot.label, ev.PrintType(srcBound), ev.PrintType(destBound))
			ok = false
		}
	}
	return ok
}

// accessorFunction fetches the function stored in a property accessor
// slot, or nil when the slot is absent or not callable.
func accessorFunction(ev solver.Evaluator, prop *typesystem.ClassType, slot string) *typesystem.FunctionType {
	sym := prop.Details.Fields.Get(slot)
	if sym == nil {
		return nil
	}
	t := ev.GetEffectiveTypeOfSymbol(sym)
	fn, _ := t.(*typesystem.FunctionType)
	return fn
}
