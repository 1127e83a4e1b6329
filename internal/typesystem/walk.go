package typesystem

import (
	"github.com/funvibe/gradient/internal/config"
)

// ApplySolution walks t replacing every free variable that is resolved in
// sol with its resolution. Variables with a sentinel (nil) resolution are
// left in place. Self-referential solutions terminate via the recursion
// cap, mirroring the cycle checks of substitution application.
func ApplySolution(t Type, sol *Solution) Type {
	return applySolution(t, sol, 0)
}

func applySolution(t Type, sol *Solution, recursionCount int) Type {
	if t == nil || sol == nil || sol.Len() == 0 {
		return t
	}
	if recursionCount > config.MaxTypeRecursionCount {
		return t
	}
	recursionCount++

	switch t := t.(type) {
	case *TypeVarType:
		if t.Details.IsBound {
			return t
		}
		resolved, ok := sol.Lookup(t)
		if !ok || resolved == nil {
			return t
		}
		// Resolutions may themselves mention solved variables.
		resolved = applySolution(resolved, sol, recursionCount)
		if t.Instantiable {
			resolved = convertToInstantiable(resolved)
		}
		return AddCondition(resolved, t.Condition)

	case *ClassType:
		changed := false
		var newArgs []Type
		if t.TypeArgs != nil {
			newArgs = make([]Type, len(t.TypeArgs))
			for i, arg := range t.TypeArgs {
				newArgs[i] = applySolution(arg, sol, recursionCount)
				if newArgs[i] != arg {
					changed = true
				}
			}
		}
		var newElems []TupleElement
		if t.TupleElements != nil {
			newElems = make([]TupleElement, len(t.TupleElements))
			for i, el := range t.TupleElements {
				newElems[i] = el
				newElems[i].Type = applySolution(el.Type, sol, recursionCount)
				if newElems[i].Type != el.Type {
					changed = true
				}
			}
		}
		if !changed {
			return t
		}
		c := *t
		c.TypeArgs = newArgs
		c.TupleElements = newElems
		return &c

	case *FunctionType:
		changed := false
		newParams := make([]FuncParam, len(t.Params))
		for i, p := range t.Params {
			newParams[i] = p
			if p.Type != nil {
				newParams[i].Type = applySolution(p.Type, sol, recursionCount)
				if newParams[i].Type != p.Type {
					changed = true
				}
			}
		}
		newRet := t.ReturnType
		if newRet != nil {
			newRet = applySolution(newRet, sol, recursionCount)
			if newRet != t.ReturnType {
				changed = true
			}
		}
		// A solved ParamSpec tail expands into the signature.
		newTail := t.ParamSpecTail
		var tailExpansion *FunctionType
		if newTail != nil && !newTail.Details.IsBound {
			if resolved, ok := sol.Lookup(newTail); ok && resolved != nil {
				if fn, ok := resolved.(*FunctionType); ok {
					tailExpansion = fn
					newTail = nil
					changed = true
				}
			}
		}
		if !changed {
			return t
		}
		c := *t
		c.Params = newParams
		c.ReturnType = newRet
		c.ParamSpecTail = newTail
		if tailExpansion != nil {
			if tailExpansion.IsGradualCallable() {
				c.Flags |= FunctionGradualCallable
			} else {
				c.Params = append(c.Params, tailExpansion.Params...)
				c.ParamSpecTail = tailExpansion.ParamSpecTail
			}
		}
		return &c

	case *OverloadedType:
		changed := false
		newOverloads := make([]*FunctionType, len(t.Overloads))
		for i, o := range t.Overloads {
			applied := applySolution(o, sol, recursionCount)
			if fn, ok := applied.(*FunctionType); ok {
				newOverloads[i] = fn
			} else {
				newOverloads[i] = o
			}
			if newOverloads[i] != o {
				changed = true
			}
		}
		if !changed {
			return t
		}
		return &OverloadedType{Overloads: newOverloads}

	case *UnionType:
		changed := false
		newSubtypes := make([]Type, len(t.Subtypes))
		for i, s := range t.Subtypes {
			newSubtypes[i] = applySolution(s, sol, recursionCount)
			if newSubtypes[i] != s {
				changed = true
			}
		}
		if !changed {
			return t
		}
		return Combine(newSubtypes)
	}

	return t
}

// convertToInstantiable lifts a resolution into class-object form when it
// is substituted for a `type[T]` use.
func convertToInstantiable(t Type) Type {
	switch t := t.(type) {
	case *ClassType:
		return t.CloneAsInstantiable()
	case *TypeVarType:
		return t.CloneAsInstantiable()
	case *UnionType:
		newSubtypes := make([]Type, len(t.Subtypes))
		for i, s := range t.Subtypes {
			newSubtypes[i] = convertToInstantiable(s)
		}
		return Combine(newSubtypes)
	}
	return t
}

// TransformTypeVars rewrites every type-variable use in t through f. A nil
// result from f keeps the variable unchanged. Used for Self substitution
// and other wholesale variable rewrites where no Solution exists.
func TransformTypeVars(t Type, f func(v *TypeVarType) Type) Type {
	return transformTypeVars(t, f, 0)
}

func transformTypeVars(t Type, f func(v *TypeVarType) Type, recursionCount int) Type {
	if t == nil || recursionCount > config.MaxTypeRecursionCount {
		return t
	}
	recursionCount++

	switch t := t.(type) {
	case *TypeVarType:
		if replacement := f(t); replacement != nil {
			return replacement
		}
		return t

	case *ClassType:
		changed := false
		var newArgs []Type
		if t.TypeArgs != nil {
			newArgs = make([]Type, len(t.TypeArgs))
			for i, arg := range t.TypeArgs {
				newArgs[i] = transformTypeVars(arg, f, recursionCount)
				if newArgs[i] != arg {
					changed = true
				}
			}
		}
		var newElems []TupleElement
		if t.TupleElements != nil {
			newElems = make([]TupleElement, len(t.TupleElements))
			for i, el := range t.TupleElements {
				newElems[i] = el
				newElems[i].Type = transformTypeVars(el.Type, f, recursionCount)
				if newElems[i].Type != el.Type {
					changed = true
				}
			}
		}
		if !changed {
			return t
		}
		c := *t
		c.TypeArgs = newArgs
		c.TupleElements = newElems
		return &c

	case *FunctionType:
		changed := false
		newParams := make([]FuncParam, len(t.Params))
		for i, p := range t.Params {
			newParams[i] = p
			if p.Type != nil {
				newParams[i].Type = transformTypeVars(p.Type, f, recursionCount)
				if newParams[i].Type != p.Type {
					changed = true
				}
			}
		}
		newRet := t.ReturnType
		if newRet != nil {
			newRet = transformTypeVars(newRet, f, recursionCount)
			if newRet != t.ReturnType {
				changed = true
			}
		}
		if !changed {
			return t
		}
		c := *t
		c.Params = newParams
		c.ReturnType = newRet
		return &c

	case *OverloadedType:
		changed := false
		newOverloads := make([]*FunctionType, len(t.Overloads))
		for i, o := range t.Overloads {
			transformed := transformTypeVars(o, f, recursionCount)
			if fn, ok := transformed.(*FunctionType); ok {
				newOverloads[i] = fn
			} else {
				newOverloads[i] = o
			}
			if newOverloads[i] != o {
				changed = true
			}
		}
		if !changed {
			return t
		}
		return &OverloadedType{Overloads: newOverloads}

	case *UnionType:
		changed := false
		newSubtypes := make([]Type, len(t.Subtypes))
		for i, s := range t.Subtypes {
			newSubtypes[i] = transformTypeVars(s, f, recursionCount)
			if newSubtypes[i] != s {
				changed = true
			}
		}
		if !changed {
			return t
		}
		return Combine(newSubtypes)
	}
	return t
}

// FreeTypeVars returns the free variables transitively reachable through
// type arguments, tuple elements, overloads and function signatures,
// deduplicated by scoped key in discovery order.
func FreeTypeVars(t Type) []*TypeVarType {
	seen := make(map[string]bool)
	var out []*TypeVarType
	collectFreeTypeVars(t, seen, &out, 0)
	return out
}

func collectFreeTypeVars(t Type, seen map[string]bool, out *[]*TypeVarType, recursionCount int) {
	if t == nil || recursionCount > config.MaxTypeRecursionCount {
		return
	}
	recursionCount++

	switch t := t.(type) {
	case *TypeVarType:
		if t.Details.IsBound {
			return
		}
		if key := t.Key(); !seen[key] {
			seen[key] = true
			*out = append(*out, t)
		}

	case *ClassType:
		for _, arg := range t.TypeArgs {
			collectFreeTypeVars(arg, seen, out, recursionCount)
		}
		for _, el := range t.TupleElements {
			collectFreeTypeVars(el.Type, seen, out, recursionCount)
		}

	case *FunctionType:
		for _, p := range t.Params {
			collectFreeTypeVars(p.Type, seen, out, recursionCount)
		}
		if t.ParamSpecTail != nil {
			collectFreeTypeVars(t.ParamSpecTail, seen, out, recursionCount)
		}
		collectFreeTypeVars(t.ReturnType, seen, out, recursionCount)

	case *OverloadedType:
		for _, o := range t.Overloads {
			collectFreeTypeVars(o, seen, out, recursionCount)
		}

	case *UnionType:
		for _, s := range t.Subtypes {
			collectFreeTypeVars(s, seen, out, recursionCount)
		}
	}
}

// ContainsFreeTypeVar reports whether t mentions any free variable.
func ContainsFreeTypeVar(t Type) bool {
	return len(FreeTypeVars(t)) > 0
}

// MapSubtypes applies f to each union alternative of t (or to t itself for
// non-unions) and recombines the non-nil results. Condition tags on the
// input alternative are carried onto its replacement.
func MapSubtypes(t Type, f func(sub Type) Type) Type {
	if u, ok := t.(*UnionType); ok {
		newSubtypes := make([]Type, 0, len(u.Subtypes))
		changed := false
		for _, s := range u.Subtypes {
			mapped := f(s)
			if mapped == nil {
				changed = true
				continue
			}
			if mapped != s {
				changed = true
				mapped = AddCondition(mapped, GetCondition(s))
			}
			newSubtypes = append(newSubtypes, mapped)
		}
		if !changed {
			return t
		}
		return Combine(newSubtypes)
	}

	mapped := f(t)
	if mapped == nil {
		return Never
	}
	if mapped != t {
		mapped = AddCondition(mapped, GetCondition(t))
	}
	return mapped
}
