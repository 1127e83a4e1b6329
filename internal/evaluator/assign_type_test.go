package evaluator_test

import (
	"testing"

	"github.com/funvibe/gradient/internal/diagnostics"
	"github.com/funvibe/gradient/internal/evaluator"
	"github.com/funvibe/gradient/internal/solver"
	"github.com/funvibe/gradient/internal/typesystem"
)

func builtin(t *testing.T, ev *evaluator.TypeEvaluator, name string) *typesystem.ClassType {
	t.Helper()
	cls, ok := ev.GetBuiltInType(name).(*typesystem.ClassType)
	if !ok {
		t.Fatalf("builtin %s is not a class", name)
	}
	return cls
}

func TestAssignTypeBasics(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")
	boolType := builtin(t, ev, "bool")
	strType := builtin(t, ev, "str")
	objType := builtin(t, ev, "object")

	tests := []struct {
		name string
		dest typesystem.Type
		src  typesystem.Type
		want bool
	}{
		{name: "reflexive", dest: intType, src: intType, want: true},
		{name: "subclass", dest: intType, src: boolType, want: true},
		{name: "superclass", dest: boolType, src: intType, want: false},
		{name: "unrelated", dest: intType, src: strType, want: false},
		{name: "object top", dest: objType, src: strType, want: true},
		{name: "any dest", dest: typesystem.Any, src: strType, want: true},
		{name: "any src", dest: intType, src: typesystem.Any, want: true},
		{name: "unknown src", dest: intType, src: typesystem.Unknown, want: true},
		{name: "never src", dest: intType, src: typesystem.Never, want: true},
		{name: "never dest", dest: typesystem.Never, src: intType, want: false},
		{name: "literal widens", dest: intType, src: intType.CloneWithLiteral(3), want: true},
		{name: "literal narrows", dest: intType.CloneWithLiteral(3), src: intType, want: false},
		{name: "same literal", dest: intType.CloneWithLiteral(3), src: intType.CloneWithLiteral(3), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ev.AssignType(tt.dest, tt.src, nil, nil, solver.AssignDefault, 0)
			if got != tt.want {
				t.Errorf("AssignType(%s, %s) = %v, want %v", tt.dest.String(), tt.src.String(), got, tt.want)
			}
		})
	}
}

func TestAssignTypeUnions(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")
	strType := builtin(t, ev, "str")
	floatType := builtin(t, ev, "float")

	intOrStr := typesystem.Combine([]typesystem.Type{intType, strType})

	if !ev.AssignType(intOrStr, intType, nil, nil, solver.AssignDefault, 0) {
		t.Errorf("int not assignable to int | str")
	}
	if ev.AssignType(intOrStr, floatType, nil, nil, solver.AssignDefault, 0) {
		t.Errorf("float assignable to int | str")
	}
	if !ev.AssignType(intOrStr, intOrStr, nil, nil, solver.AssignDefault, 0) {
		t.Errorf("int | str not assignable to itself")
	}
	if ev.AssignType(intType, intOrStr, nil, nil, solver.AssignDefault, 0) {
		t.Errorf("int | str assignable to int")
	}
}

func TestAssignTypeInvariantGenerics(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")
	boolType := builtin(t, ev, "bool")
	listType := builtin(t, ev, "list")

	listOfInt := listType.CloneWithTypeArgs([]typesystem.Type{intType})
	listOfBool := listType.CloneWithTypeArgs([]typesystem.Type{boolType})

	if !ev.AssignType(listOfInt, listOfInt, nil, nil, solver.AssignDefault, 0) {
		t.Errorf("list[int] not assignable to itself")
	}
	// list's parameter is invariant, so the subclass element type fails.
	if ev.AssignType(listOfInt, listOfBool, nil, nil, solver.AssignDefault, 0) {
		t.Errorf("list[bool] assignable to list[int] despite invariance")
	}
}

func TestAssignTypeFunctions(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")
	boolType := builtin(t, ev, "bool")
	objType := builtin(t, ev, "object")

	sig := func(ret typesystem.Type, params ...typesystem.Type) *typesystem.FunctionType {
		fn := &typesystem.FunctionType{ReturnType: ret}
		for _, p := range params {
			fn.Params = append(fn.Params, typesystem.FuncParam{Category: typesystem.ParamSimple, Name: "x", Type: p})
		}
		return fn
	}

	// Parameters are contravariant, returns covariant.
	if !ev.AssignType(sig(intType, intType), sig(boolType, objType), nil, nil, solver.AssignDefault, 0) {
		t.Errorf("(object) -> bool not assignable to (int) -> int")
	}
	if ev.AssignType(sig(intType, objType), sig(intType, intType), nil, nil, solver.AssignDefault, 0) {
		t.Errorf("(int) -> int assignable to (object) -> int despite narrower param")
	}
	if ev.AssignType(sig(boolType, intType), sig(intType, intType), nil, nil, solver.AssignDefault, 0) {
		t.Errorf("(int) -> int assignable to (int) -> bool despite wider return")
	}

	gradual := &typesystem.FunctionType{Flags: typesystem.FunctionGradualCallable, ReturnType: intType}
	if !ev.AssignType(sig(intType, intType, intType), gradual, nil, nil, solver.AssignDefault, 0) {
		t.Errorf("(...) -> int not assignable to a concrete signature")
	}
}

func TestAssignTypeTuples(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")
	boolType := builtin(t, ev, "bool")
	strType := builtin(t, ev, "str")
	tupleType := builtin(t, ev, "tuple")

	pair := func(a, b typesystem.Type) *typesystem.ClassType {
		c := *tupleType
		c.TupleElements = []typesystem.TupleElement{{Type: a}, {Type: b}}
		return &c
	}
	unbounded := func(el typesystem.Type) *typesystem.ClassType {
		c := *tupleType
		c.TupleElements = []typesystem.TupleElement{{Type: el, IsUnbounded: true}}
		return &c
	}

	if !ev.AssignType(pair(intType, strType), pair(boolType, strType), nil, nil, solver.AssignDefault, 0) {
		t.Errorf("tuple[bool, str] not assignable to tuple[int, str]")
	}
	if ev.AssignType(pair(intType, strType), pair(strType, strType), nil, nil, solver.AssignDefault, 0) {
		t.Errorf("tuple[str, str] assignable to tuple[int, str]")
	}
	if !ev.AssignType(unbounded(intType), pair(intType, boolType), nil, nil, solver.AssignDefault, 0) {
		t.Errorf("tuple[int, bool] not assignable to tuple[int, ...]")
	}
	if ev.AssignType(unbounded(intType), pair(intType, strType), nil, nil, solver.AssignDefault, 0) {
		t.Errorf("tuple[int, str] assignable to tuple[int, ...]")
	}
}

func TestAssignTypeClassObjects(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")
	typeType := builtin(t, ev, "type")
	objType := builtin(t, ev, "object")

	intClass := intType.CloneAsInstantiable()
	if !ev.AssignType(typeType, intClass, nil, nil, solver.AssignDefault, 0) {
		t.Errorf("type[int] not assignable to type")
	}
	if !ev.AssignType(objType, intClass, nil, nil, solver.AssignDefault, 0) {
		t.Errorf("type[int] not assignable to object")
	}
	if ev.AssignType(intType, intClass, nil, nil, solver.AssignDefault, 0) {
		t.Errorf("type[int] assignable to int instance")
	}
	if !ev.AssignType(intClass, builtin(t, ev, "bool").CloneAsInstantiable(), nil, nil, solver.AssignDefault, 0) {
		t.Errorf("type[bool] not assignable to type[int]")
	}
}

func TestAssignTypeDiagnostics(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")
	strType := builtin(t, ev, "str")

	var diag diagnostics.Diag
	if ev.AssignType(intType, strType, &diag, nil, solver.AssignDefault, 0) {
		t.Fatalf("str assignable to int")
	}
	if !diag.HasKind(diagnostics.AssignmentMismatch) {
		t.Errorf("missing AssignmentMismatch diagnostic, got %q", diag.String())
	}
}

func TestAssignTypeCancellation(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")
	ev.SetCancelCheck(func() bool { return true })

	var diag diagnostics.Diag
	if ev.AssignType(intType, intType, &diag, nil, solver.AssignDefault, 0) {
		t.Fatalf("cancelled assignment reported success")
	}
	if !diag.HasKind(diagnostics.Cancelled) {
		t.Errorf("missing Cancelled diagnostic, got %q", diag.String())
	}
}

func TestConcretize(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")

	scope := typesystem.NewScopeID()
	bounded := typesystem.NewTypeVar("N", scope, typesystem.VarianceInvariant)
	bounded.Details.Bound = intType
	unbounded := typesystem.NewTypeVar("T", scope, typesystem.VarianceInvariant)

	if got := ev.Concretize(bounded); !typesystem.Same(got, intType) {
		t.Errorf("Concretize(N) = %s, want int", got.String())
	}
	if got := ev.Concretize(unbounded); got.Category() != typesystem.CategoryUnknown {
		t.Errorf("Concretize(T) = %s, want Unknown", got.String())
	}
}

func TestBindFunctionToClassOrObject(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")

	fn := &typesystem.FunctionType{
		Flags:      typesystem.FunctionInstanceMethod,
		ReturnType: intType,
		Params: []typesystem.FuncParam{
			{Category: typesystem.ParamSimple, Name: "self"},
			{Category: typesystem.ParamSimple, Name: "x", Type: intType},
		},
	}
	bound := ev.BindFunctionToClassOrObject(intType, fn)
	if bound == nil {
		t.Fatalf("binding failed")
	}
	if len(bound.Params) != 1 || bound.Params[0].Name != "x" {
		t.Errorf("bound params = %v, want [x]", bound.Params)
	}

	empty := &typesystem.FunctionType{ReturnType: intType}
	if got := ev.BindFunctionToClassOrObject(intType, empty); got != nil {
		t.Errorf("binding a parameterless function succeeded")
	}
}
