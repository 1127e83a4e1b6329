package typesystem

import (
	"github.com/google/uuid"
)

// TypeVarKind distinguishes the three variable species.
type TypeVarKind int

const (
	TypeVarKindOrdinary TypeVarKind = iota
	TypeVarKindParamSpec
	TypeVarKindTypeVarTuple
)

// Variance of a declared type parameter.
type Variance int

const (
	VarianceInvariant Variance = iota
	VarianceCovariant
	VarianceContravariant
)

func (v Variance) String() string {
	switch v {
	case VarianceCovariant:
		return "covariant"
	case VarianceContravariant:
		return "contravariant"
	}
	return "invariant"
}

// TypeVarFlags carry declaration-level properties of a variable.
type TypeVarFlags int

const (
	// TypeVarSelf marks the built-in Self variable.
	TypeVarSelf TypeVarFlags = 1 << iota
	// TypeVarSynthesized marks solver-internal variables; failures on
	// them never surface user-visible messages.
	TypeVarSynthesized
	// TypeVarUnification marks a variable that may be assigned even when
	// its scope says it is bound.
	TypeVarUnification
	// TypeVarExemptFromBoundCheck suppresses the declared-bound
	// verification during finalization.
	TypeVarExemptFromBoundCheck
)

// TypeVarDetails is the per-declaration payload shared by every flag
// variant of a variable.
type TypeVarDetails struct {
	Name    string
	Kind    TypeVarKind
	ScopeID string
	// Variance declared on the parameter.
	Variance Variance
	// Bound is the declared upper bound, if any.
	Bound Type
	// Constraints is the ordered value-constraint list; non-empty only
	// for ordinary constrained variables.
	Constraints []Type
	Flags       TypeVarFlags
	// IsBound is set when the enclosing context fixed the variable's
	// value; the solver may no longer constrain it.
	IsBound bool
}

// TypeVarType is one use of a type variable. Per-use bits (unpackedness,
// union membership, instantiability) live here; the declaration lives in
// Details.
type TypeVarType struct {
	Details *TypeVarDetails

	// IsUnpacked marks `*Ts` uses of a TypeVarTuple.
	IsUnpacked bool
	// IsInUnion marks `Union[*Ts]` uses.
	IsInUnion bool

	Instantiable bool
	Condition    []Condition
}

func (t *TypeVarType) Category() Category { return CategoryTypeVar }

func (t *TypeVarType) String() string {
	name := t.Details.Name
	if t.IsUnpacked {
		name = "*" + name
	}
	if t.Instantiable {
		return "type[" + name + "]"
	}
	return name
}

// Key returns the scoped name used to key tracker entries and solutions.
func (t *TypeVarType) Key() string {
	return t.Details.Name + "." + t.Details.ScopeID
}

// IsParamSpec reports whether the variable is a parameter specification.
func (t *TypeVarType) IsParamSpec() bool { return t.Details.Kind == TypeVarKindParamSpec }

// IsTypeVarTuple reports whether the variable is a variadic tuple.
func (t *TypeVarType) IsTypeVarTuple() bool { return t.Details.Kind == TypeVarKindTypeVarTuple }

// IsSelf reports whether the variable is the built-in Self.
func (t *TypeVarType) IsSelf() bool { return t.Details.Flags&TypeVarSelf != 0 }

// IsSynthesized reports whether the variable is solver-internal.
func (t *TypeVarType) IsSynthesized() bool { return t.Details.Flags&TypeVarSynthesized != 0 }

// IsUnification reports whether the variable bypasses bound-scope checks.
func (t *TypeVarType) IsUnification() bool { return t.Details.Flags&TypeVarUnification != 0 }

// HasConstraints reports whether the variable is value-constrained.
func (t *TypeVarType) HasConstraints() bool { return len(t.Details.Constraints) > 0 }

// CloneAsInstance returns the instance form of an instantiable variable.
func (t *TypeVarType) CloneAsInstance() *TypeVarType {
	if !t.Instantiable {
		return t
	}
	c := *t
	c.Instantiable = false
	return &c
}

// CloneAsInstantiable returns the `type[T]` form.
func (t *TypeVarType) CloneAsInstantiable() *TypeVarType {
	if t.Instantiable {
		return t
	}
	c := *t
	c.Instantiable = true
	return &c
}

// CloneAsPacked clears the unpacked bit.
func (t *TypeVarType) CloneAsPacked() *TypeVarType {
	if !t.IsUnpacked {
		return t
	}
	c := *t
	c.IsUnpacked = false
	return &c
}

// CloneAsUnpacked sets the unpacked bit.
func (t *TypeVarType) CloneAsUnpacked() *TypeVarType {
	if t.IsUnpacked {
		return t
	}
	c := *t
	c.IsUnpacked = true
	return &c
}

// CloneAsUnion marks the variable as standing for the union of its
// sequence elements (`Union[*Ts]`).
func (t *TypeVarType) CloneAsUnion() *TypeVarType {
	if t.IsInUnion {
		return t
	}
	c := *t
	c.IsInUnion = true
	return &c
}

// NewScopeID returns a fresh unique scope identifier. Scope ids key
// tracker entries, so uniqueness per generic definition is what keeps
// same-named variables from different scopes apart.
func NewScopeID() string {
	return uuid.NewString()
}

// NewTypeVar declares a fresh ordinary variable in the given scope.
func NewTypeVar(name, scopeID string, variance Variance) *TypeVarType {
	return &TypeVarType{
		Details: &TypeVarDetails{
			Name:     name,
			Kind:     TypeVarKindOrdinary,
			ScopeID:  scopeID,
			Variance: variance,
		},
	}
}

// NewParamSpec declares a fresh parameter-specification variable.
func NewParamSpec(name, scopeID string) *TypeVarType {
	return &TypeVarType{
		Details: &TypeVarDetails{
			Name:    name,
			Kind:    TypeVarKindParamSpec,
			ScopeID: scopeID,
		},
	}
}

// NewTypeVarTuple declares a fresh variadic tuple variable.
func NewTypeVarTuple(name, scopeID string) *TypeVarType {
	return &TypeVarType{
		Details: &TypeVarDetails{
			Name:    name,
			Kind:    TypeVarKindTypeVarTuple,
			ScopeID: scopeID,
		},
	}
}

// NewSynthesizedTypeVar declares a solver-internal variable with a fresh
// scope.
func NewSynthesizedTypeVar(name string) *TypeVarType {
	v := NewTypeVar(name, NewScopeID(), VarianceInvariant)
	v.Details.Flags |= TypeVarSynthesized
	return v
}
