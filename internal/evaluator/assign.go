package evaluator

import (
	"github.com/funvibe/gradient/internal/config"
	"github.com/funvibe/gradient/internal/diagnostics"
	"github.com/funvibe/gradient/internal/solver"
	"github.com/funvibe/gradient/internal/typesystem"
)

// AssignType is the general assignability relation: can a value of type
// src be assigned to a slot of type dest? When dest (or, contravariantly,
// src) contains a free type variable, the check delegates to the solver so
// the obligation lands in the tracker.
func (e *TypeEvaluator) AssignType(dest, src typesystem.Type, diag *diagnostics.Diag, tracker *solver.ConstraintTracker, flags solver.AssignFlags, recursionCount int) bool {
	if e.CancelCheck() {
		diag.Add(diagnostics.Cancelled, "operation cancelled")
		return false
	}
	if recursionCount > config.MaxTypeRecursionCount {
		return true
	}
	recursionCount++

	if dest == src {
		return true
	}

	// Free type variables route through the constraint solver.
	if destVar, ok := dest.(*typesystem.TypeVarType); ok {
		if srcVar, ok := src.(*typesystem.TypeVarType); ok && typesystem.Same(destVar, srcVar) {
			return true
		}
		return solver.AssignTypeVar(e, destVar, src, diag, tracker, flags, recursionCount)
	}
	if srcVar, ok := src.(*typesystem.TypeVarType); ok {
		if flags.IsContravariantRequest() && !srcVar.Details.IsBound {
			return solver.AssignTypeVar(e, srcVar, dest, diag, tracker, flags, recursionCount)
		}
		// A residual variable on the source side stands for its bound.
		src = e.Concretize(src)
	}

	// Gradual types absorb in both directions.
	if typesystem.IsAnyOrUnknown(dest) {
		return true
	}
	if typesystem.IsAnyOrUnknown(src) {
		return true
	}

	if typesystem.IsNever(src) {
		if flags.IsInvariantRequest() {
			return typesystem.IsNever(dest)
		}
		return true
	}
	if typesystem.IsNever(dest) {
		if !typesystem.IsNever(src) {
			diag.Addf(diagnostics.AssignmentMismatch, "%s is not assignable to Never", e.PrintType(src))
			return false
		}
		return true
	}

	// Every alternative of a union source must be accepted.
	if srcUnion, ok := src.(*typesystem.UnionType); ok {
		for _, sub := range srcUnion.Subtypes {
			if !e.AssignType(dest, sub, diag, tracker, flags, recursionCount) {
				return false
			}
		}
		return true
	}

	// A union destination accepts via any alternative; speculative
	// attempts run against a tracker clone so failed branches leave no
	// residue.
	if destUnion, ok := dest.(*typesystem.UnionType); ok {
		for _, sub := range destUnion.Subtypes {
			if tracker == nil {
				if e.AssignType(sub, src, nil, nil, flags, recursionCount) {
					return true
				}
				continue
			}
			speculative := tracker.Clone()
			if e.AssignType(sub, src, nil, speculative, flags, recursionCount) {
				tracker.CopyFrom(speculative)
				return true
			}
		}
		diag.Addf(diagnostics.AssignmentMismatch,
			"%s is not assignable to any alternative of %s", e.PrintType(src), e.PrintType(dest))
		return false
	}

	switch dest := dest.(type) {
	case *typesystem.ClassType:
		return e.assignToClass(dest, src, diag, tracker, flags, recursionCount)

	case *typesystem.FunctionType:
		switch src := src.(type) {
		case *typesystem.FunctionType:
			return e.assignFunction(dest, src, diag, tracker, flags, recursionCount)
		case *typesystem.OverloadedType:
			for _, overload := range src.Overloads {
				if e.assignFunction(dest, overload, nil, tracker, flags, recursionCount) {
					return true
				}
			}
			diag.Addf(diagnostics.AssignmentMismatch,
				"no overload of %s matches %s", e.PrintType(src), e.PrintType(dest))
			return false
		case *typesystem.ClassType:
			// A class with __call__ is assignable where a callable is
			// expected.
			if callType := e.memberAsCallable(src, "__call__"); callType != nil {
				return e.AssignType(dest, callType, diag, tracker, flags, recursionCount)
			}
			if src.Instantiable {
				// The class object itself is callable (its constructor).
				ctor := e.constructorSignature(src)
				return e.assignFunction(dest, ctor, diag, tracker, flags, recursionCount)
			}
		}

	case *typesystem.OverloadedType:
		for _, overload := range dest.Overloads {
			if !e.AssignType(overload, src, diag, tracker, flags, recursionCount) {
				return false
			}
		}
		return true

	case *typesystem.ModuleType:
		if srcMod, ok := src.(*typesystem.ModuleType); ok {
			return srcMod.Name == dest.Name
		}
	}

	diag.Addf(diagnostics.AssignmentMismatch,
		"%s is not assignable to %s", e.PrintType(src), e.PrintType(dest))
	return false
}

// assignToClass handles a class destination.
func (e *TypeEvaluator) assignToClass(dest *typesystem.ClassType, src typesystem.Type, diag *diagnostics.Diag, tracker *solver.ConstraintTracker, flags solver.AssignFlags, recursionCount int) bool {
	// object is the top of the instance lattice.
	if !flags.IsInvariantRequest() && dest.Details.FullName == "builtins.object" && !dest.Instantiable {
		return true
	}

	switch src := src.(type) {
	case *typesystem.ClassType:
		return e.assignClassToClass(dest, src, diag, tracker, flags, recursionCount)

	case *typesystem.ModuleType:
		if dest.IsProtocol() {
			return e.matcher.AssignModuleToProtocol(e, dest, src, diag, tracker, flags, recursionCount)
		}

	case *typesystem.FunctionType, *typesystem.OverloadedType:
		// Functions satisfy callback protocols through __call__.
		if dest.IsProtocol() {
			if callSym := dest.Details.Fields.Get("__call__"); callSym != nil {
				declared := e.GetDeclaredTypeOfSymbol(callSym)
				if declaredFn, ok := declared.(*typesystem.FunctionType); ok {
					bound := e.BindFunctionToClassOrObject(dest.CloneAsInstance(), declaredFn)
					if bound != nil {
						return e.AssignType(bound, src, diag, tracker, flags, recursionCount)
					}
				}
			}
		}
	}

	diag.Addf(diagnostics.AssignmentMismatch,
		"%s is not assignable to %s", e.PrintType(src), e.PrintType(dest))
	return false
}

func (e *TypeEvaluator) assignClassToClass(dest, src *typesystem.ClassType, diag *diagnostics.Diag, tracker *solver.ConstraintTracker, flags solver.AssignFlags, recursionCount int) bool {
	// A class deriving from Any is compatible with everything.
	if src.Details.Flags&typesystem.ClassDerivesFromAny != 0 {
		return true
	}

	// Literal destinations admit only the same literal.
	if dest.LiteralValue != nil {
		if src.LiteralValue == dest.LiteralValue && src.Details.FullName == dest.Details.FullName {
			return true
		}
		diag.Addf(diagnostics.AssignmentMismatch,
			"%s is not the literal %s", e.PrintType(src), e.PrintType(dest))
		return false
	}

	if flags.IsInvariantRequest() {
		if dest.Details != src.Details || dest.Instantiable != src.Instantiable ||
			src.LiteralValue != dest.LiteralValue {
			// A protocol destination still matches invariantly when the
			// types are deeply equal; anything else fails.
			if !typesystem.Same(dest, src) {
				diag.Addf(diagnostics.AssignmentMismatch,
					"%s is not identical to %s", e.PrintType(src), e.PrintType(dest))
				return false
			}
			return true
		}
		return e.compareTypeArgs(dest, src, src, diag, tracker, flags, recursionCount)
	}

	// A class object is assignable to an instance of type (and object).
	if src.Instantiable && !dest.Instantiable {
		if dest.Details.FullName == "builtins.type" || dest.Details.FullName == "builtins.object" {
			return true
		}
		if dest.IsProtocol() {
			return e.matcher.AssignClassToProtocol(e, dest, src, diag, tracker, flags, recursionCount)
		}
		diag.Addf(diagnostics.AssignmentMismatch,
			"class object %s is not assignable to %s", e.PrintType(src), e.PrintType(dest))
		return false
	}
	if dest.Instantiable && !src.Instantiable {
		diag.Addf(diagnostics.AssignmentMismatch,
			"%s is an instance, %s requires a class object", e.PrintType(src), e.PrintType(dest))
		return false
	}

	// Tuple destinations match element-wise.
	if len(dest.TupleElements) > 0 {
		return e.assignTupleElements(dest, src, diag, tracker, flags, recursionCount)
	}

	// Nominal path: find dest's declaration in src's MRO.
	for _, entry := range src.Details.Mro {
		entryClass, ok := entry.(*typesystem.ClassType)
		if !ok {
			continue
		}
		if entryClass.Details != dest.Details {
			continue
		}
		specialized := specializeThroughClass(src, entryClass)
		if dest.TypeArgs == nil {
			return true
		}
		return e.compareTypeArgs(dest, specialized, src, diag, tracker, flags, recursionCount)
	}

	// Structural fallback for protocol destinations.
	if dest.IsProtocol() {
		return e.matcher.AssignClassToProtocol(e, dest, src, diag, tracker, flags, recursionCount)
	}

	diag.Addf(diagnostics.AssignmentMismatch,
		"%s does not derive from %s", e.PrintType(src), e.PrintType(dest))
	return false
}

// compareTypeArgs compares dest's and src's type arguments, each directed
// by the declared variance of the corresponding parameter (all invariant
// under an invariant request).
func (e *TypeEvaluator) compareTypeArgs(dest, src *typesystem.ClassType, originalSrc *typesystem.ClassType, diag *diagnostics.Diag, tracker *solver.ConstraintTracker, flags solver.AssignFlags, recursionCount int) bool {
	if dest.TypeArgs == nil || src.TypeArgs == nil {
		return true
	}
	for i, param := range dest.Details.TypeParams {
		if i >= len(dest.TypeArgs) || i >= len(src.TypeArgs) {
			break
		}
		argFlags := solver.FlagsForVariance(param.Details.Variance)
		if flags.IsInvariantRequest() {
			argFlags = solver.AssignInvariant
		}
		destArg, srcArg := dest.TypeArgs[i], src.TypeArgs[i]
		var ok bool
		if argFlags.IsContravariantRequest() {
			ok = e.AssignType(srcArg, destArg, nil, tracker, argFlags, recursionCount)
		} else {
			ok = e.AssignType(destArg, srcArg, nil, tracker, argFlags, recursionCount)
		}
		if !ok {
			diag.Addf(diagnostics.AssignmentMismatch,
				"type argument %d of %s (%s) is incompatible with %s",
				i+1, e.PrintType(originalSrc), e.PrintType(srcArg), e.PrintType(destArg))
			return false
		}
	}
	return true
}

// assignTupleElements matches tuple specializations element-wise. A
// destination with a single unbounded element accepts any arity.
func (e *TypeEvaluator) assignTupleElements(dest, src *typesystem.ClassType, diag *diagnostics.Diag, tracker *solver.ConstraintTracker, flags solver.AssignFlags, recursionCount int) bool {
	if len(src.TupleElements) == 0 {
		// src is an unparameterized tuple; nothing to check against.
		if src.Details.Flags&typesystem.ClassTupleClass != 0 {
			return true
		}
		diag.Addf(diagnostics.AssignmentMismatch,
			"%s is not a tuple", e.PrintType(src))
		return false
	}

	if len(dest.TupleElements) == 1 && dest.TupleElements[0].IsUnbounded {
		for _, el := range src.TupleElements {
			if !e.AssignType(dest.TupleElements[0].Type, el.Type, diag, tracker, flags, recursionCount) {
				return false
			}
		}
		return true
	}

	if len(dest.TupleElements) != len(src.TupleElements) {
		diag.Addf(diagnostics.AssignmentMismatch,
			"tuple length mismatch: %d vs %d", len(dest.TupleElements), len(src.TupleElements))
		return false
	}
	for i, destEl := range dest.TupleElements {
		srcEl := src.TupleElements[i]
		if destEl.IsUnbounded != srcEl.IsUnbounded {
			diag.Addf(diagnostics.AssignmentMismatch,
				"tuple element %d mixes bounded and unbounded forms", i+1)
			return false
		}
		if !e.AssignType(destEl.Type, srcEl.Type, diag, tracker, flags, recursionCount) {
			return false
		}
	}
	return true
}

// assignFunction compares two signatures: parameters contravariantly,
// return types covariantly.
func (e *TypeEvaluator) assignFunction(dest, src *typesystem.FunctionType, diag *diagnostics.Diag, tracker *solver.ConstraintTracker, flags solver.AssignFlags, recursionCount int) bool {
	paramsOK := true

	switch {
	case dest.IsGradualCallable() || src.IsGradualCallable():
		// Unspecified parameter lists match anything.

	case dest.ParamSpecTail != nil && !dest.ParamSpecTail.Details.IsBound:
		// The destination captures its tail through a ParamSpec: match
		// the declared prefix, hand the remainder to the solver.
		prefix := len(dest.Params)
		if len(src.Params) < prefix {
			paramsOK = false
			break
		}
		for i := range dest.Params {
			if !e.assignParam(dest.Params[i], src.Params[i], tracker, flags, recursionCount) {
				paramsOK = false
				break
			}
		}
		if paramsOK {
			remainder := src.Clone()
			remainder.Params = remainder.Params[prefix:]
			paramsOK = solver.AssignTypeVar(e, dest.ParamSpecTail, remainder, diag, tracker, flags, recursionCount)
		}

	default:
		paramsOK = e.assignParamLists(dest, src, tracker, flags, recursionCount)
	}

	if !paramsOK {
		diag.Addf(diagnostics.AssignmentMismatch,
			"parameters of %s are incompatible with %s", e.PrintType(src), e.PrintType(dest))
		return false
	}

	if flags&solver.AssignSkipReturnTypeCheck == 0 {
		destRet, srcRet := dest.ReturnType, src.ReturnType
		if destRet != nil && srcRet != nil {
			retFlags := flags &^ solver.AssignContravariant
			if !e.AssignType(destRet, srcRet, nil, tracker, retFlags, recursionCount) {
				diag.Addf(diagnostics.AssignmentMismatch,
					"return type %s is not assignable to %s", e.PrintType(srcRet), e.PrintType(destRet))
				return false
			}
		}
	}
	return true
}

// assignParamLists matches positional parameter lists, honoring *args
// absorption and defaulted parameters on the source side.
func (e *TypeEvaluator) assignParamLists(dest, src *typesystem.FunctionType, tracker *solver.ConstraintTracker, flags solver.AssignFlags, recursionCount int) bool {
	srcIndex := 0
	for _, destParam := range dest.Params {
		if destParam.Category == typesystem.ParamKwargsDict {
			continue
		}
		var srcParam *typesystem.FuncParam
		for srcIndex < len(src.Params) {
			p := &src.Params[srcIndex]
			if p.Category == typesystem.ParamKwargsDict {
				srcIndex++
				continue
			}
			srcParam = p
			break
		}
		if srcParam == nil {
			return false
		}
		if !e.assignParam(destParam, *srcParam, tracker, flags, recursionCount) {
			return false
		}
		// An unbounded *args parameter keeps absorbing.
		if srcParam.Category != typesystem.ParamArgsList {
			srcIndex++
		}
	}
	// Remaining source parameters must be optional.
	for ; srcIndex < len(src.Params); srcIndex++ {
		p := src.Params[srcIndex]
		if p.Category == typesystem.ParamSimple && !p.HasDefault {
			return false
		}
	}
	return true
}

// assignParam compares one parameter pair contravariantly.
func (e *TypeEvaluator) assignParam(destParam, srcParam typesystem.FuncParam, tracker *solver.ConstraintTracker, flags solver.AssignFlags, recursionCount int) bool {
	if destParam.Type == nil || srcParam.Type == nil {
		return true
	}
	return e.AssignType(srcParam.Type, destParam.Type, nil, tracker, flags|solver.AssignContravariant, recursionCount)
}

// memberAsCallable returns the bound callable form of a member, or nil.
func (e *TypeEvaluator) memberAsCallable(cls *typesystem.ClassType, name string) typesystem.Type {
	for _, entry := range cls.Details.Mro {
		entryClass, ok := entry.(*typesystem.ClassType)
		if !ok {
			continue
		}
		sym := entryClass.Details.Fields.Get(name)
		if sym == nil {
			continue
		}
		fn, ok := e.GetEffectiveTypeOfSymbol(sym).(*typesystem.FunctionType)
		if !ok {
			return nil
		}
		specialized := typesystem.PartialSpecialize(fn, specializeThroughClass(cls, entryClass))
		if specializedFn, ok := specialized.(*typesystem.FunctionType); ok {
			fn = specializedFn
		}
		bound := e.BindFunctionToClassOrObject(cls.CloneAsInstance(), fn)
		if bound == nil {
			return nil
		}
		return bound
	}
	return nil
}

// constructorSignature synthesizes the callable form of a class object
// from its __init__, or a gradual signature when none is declared.
func (e *TypeEvaluator) constructorSignature(cls *typesystem.ClassType) *typesystem.FunctionType {
	instance := cls.CloneAsInstance()
	for _, entry := range cls.Details.Mro {
		entryClass, ok := entry.(*typesystem.ClassType)
		if !ok || entryClass.Details.FullName == "builtins.object" {
			continue
		}
		sym := entryClass.Details.Fields.Get("__init__")
		if sym == nil {
			continue
		}
		if fn, ok := e.GetEffectiveTypeOfSymbol(sym).(*typesystem.FunctionType); ok {
			bound := e.BindFunctionToClassOrObject(instance, fn)
			if bound != nil {
				ctor := bound.Clone()
				ctor.ReturnType = instance
				return ctor
			}
		}
	}
	return &typesystem.FunctionType{
		Flags:      typesystem.FunctionGradualCallable | typesystem.FunctionSynthesized,
		ReturnType: instance,
	}
}

// specializeThroughClass views an MRO entry through the specialization of
// the class being examined.
func specializeThroughClass(cls *typesystem.ClassType, entry *typesystem.ClassType) *typesystem.ClassType {
	if cls.TypeArgs == nil || len(cls.Details.TypeParams) == 0 {
		return entry
	}
	sol := typesystem.NewSolution()
	for i, param := range cls.Details.TypeParams {
		if i < len(cls.TypeArgs) {
			sol.Set(param, cls.TypeArgs[i])
		}
	}
	if specialized, ok := typesystem.ApplySolution(entry, sol).(*typesystem.ClassType); ok {
		return specialized
	}
	return entry
}
