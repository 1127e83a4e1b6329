package solver

import (
	"github.com/funvibe/gradient/internal/diagnostics"
	"github.com/funvibe/gradient/internal/symbols"
	"github.com/funvibe/gradient/internal/typesystem"
)

// Evaluator is the collaborator surface the solver consumes. The general
// assignability relation lives behind it; the solver invokes it but does
// not implement it, which keeps the two mutually recursive halves in
// separate packages.
type Evaluator interface {
	// AssignType is the general assignability relation. It must be
	// consistent with the solver's fixed points: when dest contains free
	// type variables it delegates back to AssignTypeVar with the same
	// tracker.
	AssignType(dest, src typesystem.Type, diag *diagnostics.Diag, tracker *ConstraintTracker, flags AssignFlags, recursionCount int) bool

	// Concretize replaces top-level free variables with their declared
	// bounds, or Unknown when unbounded.
	Concretize(t typesystem.Type) typesystem.Type

	// StripLiteralValue widens literal types to their classes.
	StripLiteralValue(t typesystem.Type) typesystem.Type

	// PrintType renders a type for diagnostics.
	PrintType(t typesystem.Type) string

	// GetBuiltInType returns a well-known builtin class instance
	// ("object", "type", "tuple"), or nil when the builtin universe does
	// not provide it.
	GetBuiltInType(name string) typesystem.Type

	// GetTypedDictClassType returns the synthesized TypedDict base, or
	// nil.
	GetTypedDictClassType() typesystem.Type

	// BindFunctionToClassOrObject returns the descriptor-bound form of a
	// method, or nil when binding fails.
	BindFunctionToClassOrObject(self typesystem.Type, fn *typesystem.FunctionType) *typesystem.FunctionType

	// GetGetterTypeFromProperty returns the type a property read
	// produces, or nil.
	GetGetterTypeFromProperty(prop *typesystem.ClassType) typesystem.Type

	// GetEffectiveTypeOfSymbol returns the symbol's type as seen by
	// member accesses.
	GetEffectiveTypeOfSymbol(sym *symbols.Symbol) typesystem.Type

	// GetDeclaredTypeOfSymbol returns the symbol's declared type, or nil
	// when the symbol has no declaration.
	GetDeclaredTypeOfSymbol(sym *symbols.Symbol) typesystem.Type

	// CancelCheck is the cooperative cancellation poll. It is invoked at
	// recursion boundaries; returning true makes the current operation
	// unwind with a Cancelled diagnostic.
	CancelCheck() bool
}
