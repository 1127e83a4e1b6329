package evaluator

import (
	"github.com/funvibe/gradient/internal/config"
	"github.com/funvibe/gradient/internal/typesystem"
)

// registerStandardBuiltins constructs the minimal builtin class universe
// the solver needs: object/type/tuple plus the scalar classes the test
// fixtures and literal handling rely on. Registered values are instance
// forms; callers clone to the instantiable form when needed.
func (e *TypeEvaluator) registerStandardBuiltins() {
	object := typesystem.NewClass("object", "builtins.object", 0, nil)

	newBuiltin := func(name string, flags typesystem.ClassFlags, bases ...*typesystem.ClassType) *typesystem.ClassType {
		cls := typesystem.NewClass(name, "builtins."+name, flags, nil)
		for _, base := range bases {
			typesystem.AddBaseClass(cls, base)
		}
		return cls
	}

	typeClass := newBuiltin(config.TypeTypeName, 0, object)
	tuple := newBuiltin(config.TupleTypeName, typesystem.ClassTupleClass, object)
	intClass := newBuiltin("int", 0, object)
	floatClass := newBuiltin("float", 0, object)
	strClass := newBuiltin("str", 0, object)
	bytesClass := newBuiltin("bytes", 0, object)
	boolClass := newBuiltin("bool", 0, intClass)

	listScope := typesystem.NewScopeID()
	listParam := typesystem.NewTypeVar("_T", listScope, typesystem.VarianceInvariant)
	list := typesystem.NewClass("list", "builtins.list", 0, []*typesystem.TypeVarType{listParam})
	typesystem.AddBaseClass(list, object)

	dictScope := typesystem.NewScopeID()
	dictKey := typesystem.NewTypeVar("_KT", dictScope, typesystem.VarianceInvariant)
	dictValue := typesystem.NewTypeVar("_VT", dictScope, typesystem.VarianceInvariant)
	dict := typesystem.NewClass("dict", "builtins.dict", 0, []*typesystem.TypeVarType{dictKey, dictValue})
	typesystem.AddBaseClass(dict, object)

	for name, cls := range map[string]*typesystem.ClassType{
		config.ObjectTypeName: object,
		config.TypeTypeName:   typeClass,
		config.TupleTypeName:  tuple,
		"int":                 intClass,
		"float":               floatClass,
		"str":                 strClass,
		"bytes":               bytesClass,
		"bool":                boolClass,
		"list":                list,
		"dict":                dict,
	} {
		e.builtins[name] = cls.CloneAsInstance()
	}
}
