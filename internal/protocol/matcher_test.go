package protocol_test

import (
	"testing"

	"github.com/funvibe/gradient/internal/diagnostics"
	"github.com/funvibe/gradient/internal/evaluator"
	"github.com/funvibe/gradient/internal/solver"
	"github.com/funvibe/gradient/internal/symbols"
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

// method builds an instance-method signature (self, ...) -> ret.
func method(ret typesystem.Type, params ...typesystem.Type) *typesystem.FunctionType {
	fn := &typesystem.FunctionType{
		Flags:      typesystem.FunctionInstanceMethod,
		ReturnType: ret,
	}
	fn.Params = append(fn.Params, typesystem.FuncParam{Category: typesystem.ParamSimple, Name: "self"})
	for _, p := range params {
		fn.Params = append(fn.Params, typesystem.FuncParam{Category: typesystem.ParamSimple, Name: "x", Type: p})
	}
	return fn
}

// newProtocol declares a protocol class with one generic parameter when
// paramName is non-empty.
func newProtocol(ev *evaluator.TypeEvaluator, name string, paramName string) (*typesystem.ClassType, *typesystem.TypeVarType) {
	object, _ := ev.GetBuiltInType("object").(*typesystem.ClassType)
	var params []*typesystem.TypeVarType
	var param *typesystem.TypeVarType
	if paramName != "" {
		param = typesystem.NewTypeVar(paramName, typesystem.NewScopeID(), typesystem.VarianceInvariant)
		params = []*typesystem.TypeVarType{param}
	}
	proto := typesystem.NewClass(name, "test."+name, typesystem.ClassProtocol, params)
	if object != nil {
		typesystem.AddBaseClass(proto, object.CloneAsInstantiable())
	}
	return proto, param
}

func newImpl(ev *evaluator.TypeEvaluator, name string) *typesystem.ClassType {
	object, _ := ev.GetBuiltInType("object").(*typesystem.ClassType)
	cls := typesystem.NewClass(name, "test."+name, 0, nil)
	if object != nil {
		typesystem.AddBaseClass(cls, object.CloneAsInstantiable())
	}
	return cls
}

func TestProtocolGenericInference(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")

	proto, param := newProtocol(ev, "HasF", "T")
	typesystem.AddMember(proto, "f", method(param), 0)

	impl := newImpl(ev, "C")
	typesystem.AddMember(impl, "f", method(intType), 0)

	callerScope := typesystem.NewScopeID()
	callerVar := typesystem.NewTypeVar("T1", callerScope, typesystem.VarianceInvariant)
	tracker := solver.NewConstraintTracker(callerScope)

	dest := proto.CloneWithTypeArgs([]typesystem.Type{callerVar}).CloneAsInstance()
	if !ev.AssignClassToProtocol(dest, impl.CloneAsInstance(), nil, tracker, solver.AssignDefault, 0) {
		t.Fatalf("C does not satisfy HasF[T1]")
	}

	sol := solver.SolveConstraints(ev, tracker, nil)
	resolved, _ := sol.Lookup(callerVar)
	if resolved == nil || !typesystem.Same(resolved, intType) {
		t.Errorf("T1 = %v, want int", resolved)
	}
}

func TestProtocolReflexivity(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")

	proto, _ := newProtocol(ev, "Closeable", "")
	typesystem.AddMember(proto, "close", method(intType), 0)

	if !ev.AssignClassToProtocol(proto.CloneAsInstance(), proto.CloneAsInstance(), nil, nil, solver.AssignDefault, 0) {
		t.Errorf("protocol is not assignable to itself")
	}
}

func TestProtocolMissingMember(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")

	proto, _ := newProtocol(ev, "HasClose", "")
	typesystem.AddMember(proto, "close", method(intType), 0)

	impl := newImpl(ev, "NoClose")
	var diag diagnostics.Diag
	if ev.AssignClassToProtocol(proto.CloneAsInstance(), impl.CloneAsInstance(), &diag, nil, solver.AssignDefault, 0) {
		t.Fatalf("class without close satisfies HasClose")
	}
	if !diag.HasKind(diagnostics.ProtocolMemberMissing) {
		t.Errorf("missing ProtocolMemberMissing diagnostic, got %q", diag.String())
	}
}

func TestProtocolMemberTypeMismatch(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")
	strType := builtin(t, ev, "str")

	proto, _ := newProtocol(ev, "Counts", "")
	typesystem.AddMember(proto, "count", method(intType), 0)

	impl := newImpl(ev, "StrCounter")
	typesystem.AddMember(impl, "count", method(strType), 0)

	var diag diagnostics.Diag
	if ev.AssignClassToProtocol(proto.CloneAsInstance(), impl.CloneAsInstance(), &diag, nil, solver.AssignDefault, 0) {
		t.Fatalf("incompatible member accepted")
	}
	if !diag.HasKind(diagnostics.ProtocolMemberTypeMismatch) {
		t.Errorf("missing ProtocolMemberTypeMismatch diagnostic, got %q", diag.String())
	}
}

func TestProtocolMutableAttributeInvariance(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")
	boolType := builtin(t, ev, "bool")

	proto, _ := newProtocol(ev, "HasValue", "")
	typesystem.AddMember(proto, "value", intType, 0)

	// bool is a subtype of int, but a writable attribute must match
	// invariantly.
	impl := newImpl(ev, "BoolHolder")
	typesystem.AddMember(impl, "value", boolType, 0)

	var diag diagnostics.Diag
	if ev.AssignClassToProtocol(proto.CloneAsInstance(), impl.CloneAsInstance(), &diag, nil, solver.AssignDefault, 0) {
		t.Fatalf("covariant mutable attribute accepted")
	}
	if !diag.HasKind(diagnostics.ProtocolMemberInvariance) {
		t.Errorf("missing ProtocolMemberInvariance diagnostic, got %q", diag.String())
	}

	// The same attribute as read-only compares covariantly.
	roProto, _ := newProtocol(ev, "ReadsValue", "")
	typesystem.AddMember(roProto, "value", intType, symbols.ReadOnly)
	if !ev.AssignClassToProtocol(roProto.CloneAsInstance(), impl.CloneAsInstance(), nil, nil, solver.AssignDefault, 0) {
		t.Errorf("read-only attribute rejected a subtype")
	}
}

func TestProtocolWritability(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")

	proto, _ := newProtocol(ev, "WritesValue", "")
	typesystem.AddMember(proto, "value", intType, 0)

	impl := newImpl(ev, "FrozenHolder")
	typesystem.AddMember(impl, "value", intType, symbols.ReadOnly)

	var diag diagnostics.Diag
	if ev.AssignClassToProtocol(proto.CloneAsInstance(), impl.CloneAsInstance(), &diag, nil, solver.AssignDefault, 0) {
		t.Fatalf("read-only implementation satisfies a writable protocol member")
	}
	if !diag.HasKind(diagnostics.ProtocolMemberWritability) {
		t.Errorf("missing ProtocolMemberWritability diagnostic, got %q", diag.String())
	}
}

func TestProtocolCacheReuse(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")

	proto, _ := newProtocol(ev, "HasPing", "")
	typesystem.AddMember(proto, "ping", method(intType), 0)

	impl := newImpl(ev, "Pinger")
	typesystem.AddMember(impl, "ping", method(intType), 0)

	dest := proto.CloneAsInstance()
	src := impl.CloneAsInstance()
	if !ev.AssignClassToProtocol(dest, src, nil, nil, solver.AssignDefault, 0) {
		t.Fatalf("first check failed")
	}
	// Cached path must return the same verdict.
	if !ev.AssignClassToProtocol(dest, src, nil, nil, solver.AssignDefault, 0) {
		t.Errorf("cached positive result differs from fresh result")
	}

	// Invalidating after a symbol-table mutation re-runs the walk.
	impl.Details.Fields.Set(&symbols.Symbol{Name: "ping", DeclaredType: method(builtin(t, ev, "str"))})
	ev.Matcher().InvalidateCache(impl.Details)
	if ev.AssignClassToProtocol(dest, src, nil, nil, solver.AssignDefault, 0) {
		t.Errorf("stale verdict survived cache invalidation")
	}
}

func TestProtocolNegativeCacheShortCircuit(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")

	proto, _ := newProtocol(ev, "NeedsPong", "")
	typesystem.AddMember(proto, "pong", method(intType), 0)

	impl := newImpl(ev, "Silent")
	dest := proto.CloneAsInstance()
	src := impl.CloneAsInstance()

	if ev.AssignClassToProtocol(dest, src, nil, nil, solver.AssignDefault, 0) {
		t.Fatalf("first check unexpectedly succeeded")
	}
	if ev.AssignClassToProtocol(dest, src, nil, nil, solver.AssignDefault, 0) {
		t.Errorf("cached negative result differs from fresh result")
	}
}

func TestProtocolInvariantRequestRequiresIdentity(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")

	proto, _ := newProtocol(ev, "Ident", "")
	typesystem.AddMember(proto, "f", method(intType), 0)

	impl := newImpl(ev, "Impl")
	typesystem.AddMember(impl, "f", method(intType), 0)

	if ev.AssignClassToProtocol(proto.CloneAsInstance(), impl.CloneAsInstance(), nil, nil, solver.AssignInvariant, 0) {
		t.Errorf("invariant protocol request accepted a structurally-equal but distinct class")
	}
	if !ev.AssignClassToProtocol(proto.CloneAsInstance(), proto.CloneAsInstance(), nil, nil, solver.AssignInvariant, 0) {
		t.Errorf("invariant protocol request rejected the identical class")
	}
}

func TestModuleToProtocol(t *testing.T) {
	ev := evaluator.New()
	intType := builtin(t, ev, "int")

	proto, _ := newProtocol(ev, "HasVersion", "")
	typesystem.AddMember(proto, "version", intType, symbols.ReadOnly)

	fields := symbols.NewSymbolTable()
	fields.Set(&symbols.Symbol{Name: "version", DeclaredType: intType})
	mod := &typesystem.ModuleType{Name: "mymod", Fields: fields}

	if !ev.AssignModuleToProtocol(proto.CloneAsInstance(), mod, nil, nil, solver.AssignDefault, 0) {
		t.Errorf("module with matching member rejected")
	}

	empty := &typesystem.ModuleType{Name: "empty", Fields: symbols.NewSymbolTable()}
	var diag diagnostics.Diag
	if ev.AssignModuleToProtocol(proto.CloneAsInstance(), empty, &diag, nil, solver.AssignDefault, 0) {
		t.Errorf("empty module satisfies the protocol")
	}
}

func TestProtocolSelfReferential(t *testing.T) {
	ev := evaluator.New()

	// A protocol whose method returns the protocol itself must not
	// recurse forever.
	proto, _ := newProtocol(ev, "Chainable", "")
	typesystem.AddMember(proto, "next", method(proto.CloneAsInstance()), 0)

	impl := newImpl(ev, "Chain")
	typesystem.AddMember(impl, "next", method(impl.CloneAsInstance()), 0)

	if !ev.AssignClassToProtocol(proto.CloneAsInstance(), impl.CloneAsInstance(), nil, nil, solver.AssignDefault, 0) {
		t.Errorf("self-referential protocol rejected a structurally valid implementation")
	}
}
