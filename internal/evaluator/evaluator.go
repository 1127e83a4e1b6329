// Package evaluator implements the collaborator surface the solver
// consumes: the general assignability relation, concretization, builtin
// lookup and method binding. The solver delegates back into it for every
// nested comparison, so the two packages form the mutually recursive core
// of the checker.
package evaluator

import (
	"github.com/funvibe/gradient/internal/diagnostics"
	"github.com/funvibe/gradient/internal/prettyprinter"
	"github.com/funvibe/gradient/internal/protocol"
	"github.com/funvibe/gradient/internal/solver"
	"github.com/funvibe/gradient/internal/symbols"
	"github.com/funvibe/gradient/internal/typesystem"
)

// TypeEvaluator is the concrete Evaluator. One instance belongs to one
// analysis worker; it owns the protocol matcher (and through it the
// compatibility caches and recursion stack).
type TypeEvaluator struct {
	builtins map[string]typesystem.Type
	matcher  *protocol.Matcher
	cancel   func() bool
}

// New creates an evaluator with the standard builtin universe.
func New() *TypeEvaluator {
	e := &TypeEvaluator{
		builtins: make(map[string]typesystem.Type),
		matcher:  protocol.NewMatcher(),
	}
	e.registerStandardBuiltins()
	return e
}

// NewEmpty creates an evaluator with no builtin universe. Tests that build
// their own minimal class worlds start here.
func NewEmpty() *TypeEvaluator {
	return &TypeEvaluator{
		builtins: make(map[string]typesystem.Type),
		matcher:  protocol.NewMatcher(),
	}
}

// Matcher exposes the protocol matcher (cache invalidation lives there).
func (e *TypeEvaluator) Matcher() *protocol.Matcher { return e.matcher }

// RegisterBuiltin adds or replaces a builtin type.
func (e *TypeEvaluator) RegisterBuiltin(name string, t typesystem.Type) {
	e.builtins[name] = t
}

// SetCancelCheck installs the cooperative cancellation poll.
func (e *TypeEvaluator) SetCancelCheck(f func() bool) {
	e.cancel = f
}

// CancelCheck polls for cancellation.
func (e *TypeEvaluator) CancelCheck() bool {
	return e.cancel != nil && e.cancel()
}

// GetBuiltInType returns the registered builtin instance type, or nil.
func (e *TypeEvaluator) GetBuiltInType(name string) typesystem.Type {
	return e.builtins[name]
}

// GetTypedDictClassType returns the synthesized TypedDict base, or nil.
func (e *TypeEvaluator) GetTypedDictClassType() typesystem.Type {
	return e.builtins["TypedDict"]
}

// PrintType renders a type for diagnostics.
func (e *TypeEvaluator) PrintType(t typesystem.Type) string {
	return prettyprinter.PrintType(t)
}

// StripLiteralValue widens literal types to their classes.
func (e *TypeEvaluator) StripLiteralValue(t typesystem.Type) typesystem.Type {
	return typesystem.StripLiteralValue(t)
}

// Concretize replaces top-level free variables with their declared bounds,
// or Unknown when unbounded.
func (e *TypeEvaluator) Concretize(t typesystem.Type) typesystem.Type {
	return typesystem.MapSubtypes(t, func(sub typesystem.Type) typesystem.Type {
		v, ok := sub.(*typesystem.TypeVarType)
		if !ok || v.Details.IsBound {
			return sub
		}
		if v.IsParamSpec() {
			return typesystem.NewUnknownParamSpecSignature()
		}
		bound := v.Details.Bound
		if bound == nil {
			return typesystem.Unknown
		}
		if v.Instantiable {
			if c, ok := bound.(*typesystem.ClassType); ok {
				return c.CloneAsInstantiable()
			}
			return typesystem.Unknown
		}
		return bound
	})
}

// BindFunctionToClassOrObject returns the descriptor-bound form of fn:
// the receiver parameter is dropped and recorded. Static methods bind
// without a receiver strip. A signature with no parameter to strip fails.
func (e *TypeEvaluator) BindFunctionToClassOrObject(self typesystem.Type, fn *typesystem.FunctionType) *typesystem.FunctionType {
	if fn.BoundTo != nil {
		return fn
	}
	bound := fn.Clone()
	bound.BoundTo = self
	if fn.Flags&typesystem.FunctionStaticMethod != 0 {
		return bound
	}
	if fn.IsGradualCallable() {
		return bound
	}
	if len(bound.Params) == 0 {
		return nil
	}
	receiver := bound.Params[0]
	if receiver.Category != typesystem.ParamSimple {
		// *args-style first parameter absorbs the receiver.
		return bound
	}
	bound.Params = bound.Params[1:]
	return bound
}

// GetGetterTypeFromProperty returns the type a property read produces.
func (e *TypeEvaluator) GetGetterTypeFromProperty(prop *typesystem.ClassType) typesystem.Type {
	sym := prop.Details.Fields.Get("fget")
	if sym == nil {
		return nil
	}
	fn, ok := e.GetEffectiveTypeOfSymbol(sym).(*typesystem.FunctionType)
	if !ok {
		return nil
	}
	return fn.ReturnType
}

// GetEffectiveTypeOfSymbol returns the symbol's type as member accesses
// see it.
func (e *TypeEvaluator) GetEffectiveTypeOfSymbol(sym *symbols.Symbol) typesystem.Type {
	if sym.DeclaredType == nil {
		return typesystem.Unknown
	}
	if t, ok := sym.DeclaredType.(typesystem.Type); ok {
		return t
	}
	return typesystem.Unknown
}

// GetDeclaredTypeOfSymbol returns the declared type, or nil for
// undeclared symbols.
func (e *TypeEvaluator) GetDeclaredTypeOfSymbol(sym *symbols.Symbol) typesystem.Type {
	if sym.DeclaredType == nil {
		return nil
	}
	if t, ok := sym.DeclaredType.(typesystem.Type); ok {
		return t
	}
	return nil
}

// AssignClassToProtocol is the structural check entry point, re-exported
// for callers that hold an evaluator rather than the matcher.
func (e *TypeEvaluator) AssignClassToProtocol(dest, src *typesystem.ClassType, diag *diagnostics.Diag, tracker *solver.ConstraintTracker, flags solver.AssignFlags, recursionCount int) bool {
	return e.matcher.AssignClassToProtocol(e, dest, src, diag, tracker, flags, recursionCount)
}

// AssignModuleToProtocol checks a module against a protocol.
func (e *TypeEvaluator) AssignModuleToProtocol(dest *typesystem.ClassType, src *typesystem.ModuleType, diag *diagnostics.Diag, tracker *solver.ConstraintTracker, flags solver.AssignFlags, recursionCount int) bool {
	return e.matcher.AssignModuleToProtocol(e, dest, src, diag, tracker, flags, recursionCount)
}
