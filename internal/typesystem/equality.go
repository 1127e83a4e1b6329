package typesystem

import (
	"github.com/funvibe/gradient/internal/config"
)

// SameOptions tune deep structural equality.
type SameOptions struct {
	// IgnoreFlags compares variables and classes while ignoring the
	// per-use bits (instantiable, unpacked, union membership).
	IgnoreFlags bool
	// IgnoreConditions skips the condition-tag comparison.
	IgnoreConditions bool
	// TreatAnySameAsUnknown makes Any and Unknown compare equal.
	TreatAnySameAsUnknown bool
}

// Same reports deep structural equality of two types.
func Same(a, b Type) bool {
	return SameWithOptions(a, b, SameOptions{}, 0)
}

// SameIgnoringFlags compares two types while ignoring per-use flag bits.
func SameIgnoringFlags(a, b Type) bool {
	return SameWithOptions(a, b, SameOptions{IgnoreFlags: true}, 0)
}

// SameWithOptions is the configurable entry point. recursionCount guards
// self-referential types; saturation answers true conservatively.
func SameWithOptions(a, b Type, opts SameOptions, recursionCount int) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if recursionCount > config.MaxTypeRecursionCount {
		return true
	}
	recursionCount++

	catA, catB := a.Category(), b.Category()
	if catA != catB {
		if opts.TreatAnySameAsUnknown {
			if (catA == CategoryAny && catB == CategoryUnknown) ||
				(catA == CategoryUnknown && catB == CategoryAny) {
				return true
			}
		}
		return false
	}

	switch a := a.(type) {
	case *AnyType, *UnknownType, *NeverType, *UnboundType:
		return true

	case *ClassType:
		b := b.(*ClassType)
		if a.Details.FullName != b.Details.FullName {
			return false
		}
		if !opts.IgnoreFlags {
			if a.Instantiable != b.Instantiable || a.IsUnpackedTuple != b.IsUnpackedTuple {
				return false
			}
		}
		if a.LiteralValue != b.LiteralValue {
			return false
		}
		if !opts.IgnoreConditions && !sameConditions(a.Condition, b.Condition) {
			return false
		}
		if (a.TypeArgs == nil) != (b.TypeArgs == nil) || len(a.TypeArgs) != len(b.TypeArgs) {
			return false
		}
		for i := range a.TypeArgs {
			if !SameWithOptions(a.TypeArgs[i], b.TypeArgs[i], opts, recursionCount) {
				return false
			}
		}
		if len(a.TupleElements) != len(b.TupleElements) {
			return false
		}
		for i := range a.TupleElements {
			ea, eb := a.TupleElements[i], b.TupleElements[i]
			if ea.IsUnbounded != eb.IsUnbounded || ea.IsOptional != eb.IsOptional {
				return false
			}
			if !SameWithOptions(ea.Type, eb.Type, opts, recursionCount) {
				return false
			}
		}
		return true

	case *FunctionType:
		b := b.(*FunctionType)
		if a.IsGradualCallable() != b.IsGradualCallable() {
			return false
		}
		if len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			pa, pb := a.Params[i], b.Params[i]
			if pa.Category != pb.Category || pa.Name != pb.Name || pa.HasDefault != pb.HasDefault {
				return false
			}
			if (pa.Type == nil) != (pb.Type == nil) {
				return false
			}
			if pa.Type != nil && !SameWithOptions(pa.Type, pb.Type, opts, recursionCount) {
				return false
			}
		}
		if (a.ParamSpecTail == nil) != (b.ParamSpecTail == nil) {
			return false
		}
		if a.ParamSpecTail != nil && a.ParamSpecTail.Key() != b.ParamSpecTail.Key() {
			return false
		}
		if (a.ReturnType == nil) != (b.ReturnType == nil) {
			return false
		}
		if a.ReturnType != nil && !SameWithOptions(a.ReturnType, b.ReturnType, opts, recursionCount) {
			return false
		}
		return true

	case *OverloadedType:
		b := b.(*OverloadedType)
		if len(a.Overloads) != len(b.Overloads) {
			return false
		}
		for i := range a.Overloads {
			if !SameWithOptions(a.Overloads[i], b.Overloads[i], opts, recursionCount) {
				return false
			}
		}
		return true

	case *ModuleType:
		return a.Name == b.(*ModuleType).Name

	case *UnionType:
		b := b.(*UnionType)
		// Union equality is set equality, order-independent.
		if len(a.Subtypes) != len(b.Subtypes) {
			return false
		}
		matched := make([]bool, len(b.Subtypes))
		for _, sa := range a.Subtypes {
			found := false
			for j, sb := range b.Subtypes {
				if matched[j] {
					continue
				}
				if SameWithOptions(sa, sb, opts, recursionCount) {
					matched[j] = true
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true

	case *TypeVarType:
		b := b.(*TypeVarType)
		if a.Details.Name != b.Details.Name || a.Details.ScopeID != b.Details.ScopeID {
			return false
		}
		if a.Details.Kind != b.Details.Kind {
			return false
		}
		if !opts.IgnoreFlags {
			if a.Instantiable != b.Instantiable || a.IsUnpacked != b.IsUnpacked || a.IsInUnion != b.IsInUnion {
				return false
			}
		}
		if !opts.IgnoreConditions && !sameConditions(a.Condition, b.Condition) {
			return false
		}
		return true
	}

	return false
}
