package typesystem

import (
	"fmt"
	"strings"

	"github.com/funvibe/gradient/internal/symbols"
)

// Category discriminates the type variants. Exhaustive switches over
// Category replace virtual dispatch on the variant structs.
type Category int

const (
	CategoryUnbound Category = iota
	CategoryUnknown
	CategoryAny
	CategoryNever
	CategoryFunction
	CategoryOverloaded
	CategoryClass
	CategoryModule
	CategoryUnion
	CategoryTypeVar
)

// Type is the interface for all types in the system. Structural operations
// (equality, substitution, free-variable collection) are package-level
// switch functions rather than methods so the recursion caps live in one
// place.
type Type interface {
	Category() Category
	String() string
}

// --- Gradual / bottom sentinels ---

// AnyType is the explicit dynamic type.
type AnyType struct {
	// Ellipsis marks the `...` form used inside callable annotations.
	Ellipsis bool
}

func (t *AnyType) Category() Category { return CategoryAny }
func (t *AnyType) String() string {
	if t.Ellipsis {
		return "..."
	}
	return "Any"
}

// UnknownType is the implicit dynamic type: an Any that arose from a
// missing annotation or an inference failure rather than an explicit `Any`.
type UnknownType struct{}

func (t *UnknownType) Category() Category { return CategoryUnknown }
func (t *UnknownType) String() string     { return "Unknown" }

// NeverType is the bottom type.
type NeverType struct{}

func (t *NeverType) Category() Category { return CategoryNever }
func (t *NeverType) String() string     { return "Never" }

// UnboundType marks a name before its first binding. The solver never
// produces it; it participates in the model for completeness.
type UnboundType struct{}

func (t *UnboundType) Category() Category { return CategoryUnbound }
func (t *UnboundType) String() string     { return "Unbound" }

// Shared singletons for the parameterless variants.
var (
	Any     = &AnyType{}
	Unknown = &UnknownType{}
	Never   = &NeverType{}
	Unbound = &UnboundType{}
)

// --- Classes ---

// ClassFlags carry the nominal properties of a class declaration.
type ClassFlags int

const (
	ClassProtocol ClassFlags = 1 << iota
	ClassTypedDict
	ClassDataClass
	ClassFrozenDataClass
	ClassPropertyClass
	ClassReadOnlyInstanceVariables
	ClassDerivesFromAny // class lists Any/Unknown among its bases
	ClassTupleClass
)

// ClassDetails is the per-declaration payload shared by every
// specialization of a class. Mutating it (incremental reanalysis) requires
// clearing any compatibility cache keyed by it.
type ClassDetails struct {
	Name       string
	FullName   string
	ModuleName string
	Flags      ClassFlags

	// TypeParams lists the declared type parameters in order; each carries
	// its declared variance.
	TypeParams []*TypeVarType

	// Mro is the linearized method-resolution order. The first entry is
	// the class itself (self-specialized); later entries are base classes.
	Mro []Type

	// Fields maps member name to symbol.
	Fields *symbols.SymbolTable

	// Metaclass, if declared.
	Metaclass Type
}

// TupleElement is one element of a tuple specialization.
type TupleElement struct {
	Type Type
	// IsUnbounded marks a `*tuple[X, ...]` style element that matches any
	// number of occurrences.
	IsUnbounded bool
	// IsOptional marks an element that may be absent.
	IsOptional bool
}

// ClassType is one specialization of a class declaration, either the
// instantiable form (the class object) or an instance.
type ClassType struct {
	Details *ClassDetails

	// TypeArgs is the explicit type-argument vector; nil means the class
	// is unspecialized (generic form).
	TypeArgs []Type

	// IsImplicitTypeArgs is set when TypeArgs were synthesized (filled
	// with Unknown) rather than written by the user.
	IsImplicitTypeArgs bool

	// TupleElements is the ordered element vector for tuple classes.
	TupleElements []TupleElement

	// IsUnpackedTuple marks the `*tuple[...]` form used inside variadic
	// contexts.
	IsUnpackedTuple bool

	// Instantiable distinguishes the class object (`type[C]`) from an
	// instance of C.
	Instantiable bool

	// LiteralValue restricts instances to a single value (Literal[1]).
	// nil means no literal restriction.
	LiteralValue any

	// Condition tags attached after matching a value-constrained
	// variable.
	Condition []Condition

	// IncludeSubclasses marks a `type[C]`/instance that stands for C and
	// every subclass of C rather than exactly C.
	IncludeSubclasses bool
}

func (t *ClassType) Category() Category { return CategoryClass }

func (t *ClassType) String() string {
	var b strings.Builder
	if t.Instantiable {
		b.WriteString("type[")
	}
	if t.LiteralValue != nil {
		fmt.Fprintf(&b, "Literal[%s]", formatLiteral(t.LiteralValue))
	} else {
		b.WriteString(t.Details.Name)
		if len(t.TupleElements) > 0 {
			b.WriteString("[")
			for i, el := range t.TupleElements {
				if i > 0 {
					b.WriteString(", ")
				}
				if el.IsUnbounded {
					b.WriteString("*tuple[")
					b.WriteString(el.Type.String())
					b.WriteString(", ...]")
				} else {
					b.WriteString(el.Type.String())
				}
			}
			b.WriteString("]")
		} else if len(t.TypeArgs) > 0 {
			b.WriteString("[")
			for i, arg := range t.TypeArgs {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(arg.String())
			}
			b.WriteString("]")
		}
	}
	if t.Instantiable {
		b.WriteString("]")
	}
	return b.String()
}

func formatLiteral(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}

// IsProtocol reports whether the class declaration is marked Protocol.
func (t *ClassType) IsProtocol() bool { return t.Details.Flags&ClassProtocol != 0 }

// IsGeneric reports whether the class declares type parameters but has no
// explicit type arguments yet.
func (t *ClassType) IsGeneric() bool {
	return len(t.Details.TypeParams) > 0 && t.TypeArgs == nil
}

// CloneAsInstance returns the instance form of a class object.
func (t *ClassType) CloneAsInstance() *ClassType {
	if !t.Instantiable {
		return t
	}
	c := *t
	c.Instantiable = false
	return &c
}

// CloneAsInstantiable returns the class-object form of an instance.
func (t *ClassType) CloneAsInstantiable() *ClassType {
	if t.Instantiable {
		return t
	}
	c := *t
	c.Instantiable = true
	return &c
}

// CloneWithTypeArgs specializes the class with the given argument vector.
func (t *ClassType) CloneWithTypeArgs(typeArgs []Type) *ClassType {
	c := *t
	c.TypeArgs = typeArgs
	c.IsImplicitTypeArgs = false
	return &c
}

// CloneWithLiteral attaches (or strips, when v is nil) a literal value.
func (t *ClassType) CloneWithLiteral(v any) *ClassType {
	c := *t
	c.LiteralValue = v
	return &c
}

// CloneWithCondition returns a copy carrying the given condition tags.
func (t *ClassType) CloneWithCondition(cond []Condition) *ClassType {
	c := *t
	c.Condition = cond
	return &c
}

// SelfSpecialize returns the class specialized with its own type
// parameters (C[T1, T2, ...]). Used for generic-form cache probes and MRO
// construction.
func (t *ClassType) SelfSpecialize() *ClassType {
	if len(t.Details.TypeParams) == 0 {
		return t
	}
	args := make([]Type, len(t.Details.TypeParams))
	for i, p := range t.Details.TypeParams {
		args[i] = p
	}
	return t.CloneWithTypeArgs(args)
}

// --- Functions ---

// ParamCategory distinguishes positional parameters from *args/**kwargs.
type ParamCategory int

const (
	ParamSimple ParamCategory = iota
	ParamArgsList
	ParamKwargsDict
)

// FuncParam is one declared parameter of a function signature.
type FuncParam struct {
	Category   ParamCategory
	Name       string
	Type       Type
	HasDefault bool
}

// FunctionFlags carry signature-level properties.
type FunctionFlags int

const (
	// FunctionGradualCallable marks the `Callable[..., X]` form whose
	// parameter list is unspecified.
	FunctionGradualCallable FunctionFlags = 1 << iota
	FunctionStaticMethod
	FunctionClassMethod
	FunctionInstanceMethod
	FunctionSynthesized
)

// FunctionType is a single callable signature.
type FunctionType struct {
	Name       string
	Params     []FuncParam
	ReturnType Type
	Flags      FunctionFlags

	// ParamSpecTail names a ParamSpec variable whose parameters complete
	// this signature (`(x: int, *args: P.args, **kwargs: P.kwargs)`).
	ParamSpecTail *TypeVarType

	// BoundTo records the receiver the function was bound to, if any.
	BoundTo Type

	Instantiable bool
	Condition    []Condition
}

func (t *FunctionType) Category() Category { return CategoryFunction }

func (t *FunctionType) String() string {
	var b strings.Builder
	b.WriteString("(")
	if t.Flags&FunctionGradualCallable != 0 {
		b.WriteString("...")
	} else {
		for i, p := range t.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			switch p.Category {
			case ParamArgsList:
				b.WriteString("*")
			case ParamKwargsDict:
				b.WriteString("**")
			}
			if p.Name != "" {
				b.WriteString(p.Name)
				b.WriteString(": ")
			}
			if p.Type != nil {
				b.WriteString(p.Type.String())
			}
		}
		if t.ParamSpecTail != nil {
			if len(t.Params) > 0 {
				b.WriteString(", ")
			}
			b.WriteString("**")
			b.WriteString(t.ParamSpecTail.Details.Name)
		}
	}
	b.WriteString(") -> ")
	if t.ReturnType != nil {
		b.WriteString(t.ReturnType.String())
	} else {
		b.WriteString("Unknown")
	}
	return b.String()
}

// IsGradualCallable reports whether the parameter list is unspecified.
func (t *FunctionType) IsGradualCallable() bool {
	return t.Flags&FunctionGradualCallable != 0
}

// Clone returns a shallow copy with its own parameter slice.
func (t *FunctionType) Clone() *FunctionType {
	c := *t
	c.Params = append([]FuncParam(nil), t.Params...)
	return &c
}

// OverloadedType is an ordered set of overload signatures.
type OverloadedType struct {
	Overloads []*FunctionType
}

func (t *OverloadedType) Category() Category { return CategoryOverloaded }

func (t *OverloadedType) String() string {
	parts := make([]string, len(t.Overloads))
	for i, o := range t.Overloads {
		parts[i] = o.String()
	}
	return "Overload[" + strings.Join(parts, ", ") + "]"
}

// --- Modules ---

// ModuleType represents an imported module used as a value.
type ModuleType struct {
	Name   string
	Fields *symbols.SymbolTable
}

func (t *ModuleType) Category() Category { return CategoryModule }
func (t *ModuleType) String() string     { return "Module(\"" + t.Name + "\")" }

// --- Unions ---

// UnionType is a set of alternatives. Construction goes through Combine,
// which flattens and deduplicates; code must not build unions by hand.
type UnionType struct {
	Subtypes []Type
}

func (t *UnionType) Category() Category { return CategoryUnion }

func (t *UnionType) String() string {
	parts := make([]string, len(t.Subtypes))
	for i, s := range t.Subtypes {
		parts[i] = s.String()
	}
	return strings.Join(parts, " | ")
}

// --- Helpers over the closed variant set ---

// IsAnyOrUnknown reports whether t is a top-level gradual type.
func IsAnyOrUnknown(t Type) bool {
	switch t.Category() {
	case CategoryAny, CategoryUnknown:
		return true
	}
	return false
}

// IsNever reports whether t is the bottom type.
func IsNever(t Type) bool { return t.Category() == CategoryNever }

// IsInstantiableClass reports whether t is a class-object type.
func IsInstantiableClass(t Type) bool {
	c, ok := t.(*ClassType)
	return ok && c.Instantiable
}

// IsClassInstance reports whether t is an instance of a class.
func IsClassInstance(t Type) bool {
	c, ok := t.(*ClassType)
	return ok && !c.Instantiable
}

// IsLiteralType reports whether t is a class instance restricted to one
// value.
func IsLiteralType(t Type) bool {
	c, ok := t.(*ClassType)
	return ok && c.LiteralValue != nil
}

// IsLiteralLike reports whether t is a literal or a union of literals.
func IsLiteralLike(t Type) bool {
	if u, ok := t.(*UnionType); ok {
		for _, s := range u.Subtypes {
			if !IsLiteralType(s) {
				return false
			}
		}
		return len(u.Subtypes) > 0
	}
	return IsLiteralType(t)
}

// SubtypeCount returns the number of union alternatives (1 for non-unions).
func SubtypeCount(t Type) int {
	if u, ok := t.(*UnionType); ok {
		return len(u.Subtypes)
	}
	return 1
}

// DoForEachSubtype invokes f once per union alternative (once for a
// non-union).
func DoForEachSubtype(t Type, f func(sub Type, index int)) {
	if u, ok := t.(*UnionType); ok {
		for i, s := range u.Subtypes {
			f(s, i)
		}
		return
	}
	f(t, 0)
}
