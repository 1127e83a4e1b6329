package typesystem

import (
	"github.com/funvibe/gradient/internal/symbols"
)

// NewClass declares a fresh class. The returned type is the instantiable
// (class object) form with an MRO containing only itself; callers add base
// classes through AddBaseClass before use.
func NewClass(name, fullName string, flags ClassFlags, typeParams []*TypeVarType) *ClassType {
	details := &ClassDetails{
		Name:       name,
		FullName:   fullName,
		Flags:      flags,
		TypeParams: typeParams,
	}
	details.Fields = symbols.NewSymbolTable()
	cls := &ClassType{Details: details, Instantiable: true}
	details.Mro = []Type{cls.SelfSpecialize()}
	return cls
}

// AddBaseClass appends base (and its MRO tail) to the class's linearized
// MRO. Bases are appended in declaration order; duplicates already present
// are skipped. This is the simple C3-free linearization the test fixtures
// use; a full binder computes the true C3 order before handing classes to
// the solver.
func AddBaseClass(cls *ClassType, base *ClassType) {
	appendMroEntry := func(entry Type) {
		entryClass, ok := entry.(*ClassType)
		if !ok {
			cls.Details.Mro = append(cls.Details.Mro, entry)
			return
		}
		for _, existing := range cls.Details.Mro {
			if ec, ok := existing.(*ClassType); ok && ec.Details == entryClass.Details {
				return
			}
		}
		cls.Details.Mro = append(cls.Details.Mro, entry)
	}

	for _, entry := range base.Details.Mro {
		appendMroEntry(entry)
	}
	if base.Details.Flags&ClassDerivesFromAny != 0 {
		cls.Details.Flags |= ClassDerivesFromAny
	}
}

// AddMember declares a member symbol on the class.
func AddMember(cls *ClassType, name string, declaredType Type, flags symbols.SymbolFlags) {
	cls.Details.Fields.Set(&symbols.Symbol{
		Name:         name,
		DeclaredType: declaredType,
		Flags:        flags | symbols.ClassMember,
	})
}

// DerivesFrom reports whether cls (or one of its MRO entries) is the same
// class declaration as base.
func DerivesFrom(cls, base *ClassType) bool {
	if cls.Details == base.Details {
		return true
	}
	for _, entry := range cls.Details.Mro {
		if ec, ok := entry.(*ClassType); ok && ec.Details == base.Details {
			return true
		}
	}
	return false
}

// PartialSpecialize maps the declared type parameters of the class the
// given specialization belongs to onto its type arguments and applies that
// mapping to t. Used to view a member declared on an MRO entry through the
// specialization actually being matched.
func PartialSpecialize(t Type, contextClass *ClassType) Type {
	if contextClass == nil || contextClass.TypeArgs == nil || len(contextClass.Details.TypeParams) == 0 {
		return t
	}
	sol := NewSolution()
	for i, param := range contextClass.Details.TypeParams {
		if i < len(contextClass.TypeArgs) {
			sol.Set(param, contextClass.TypeArgs[i])
		}
	}
	return ApplySolution(t, sol)
}
