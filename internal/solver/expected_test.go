package solver_test

import (
	"testing"

	"github.com/funvibe/gradient/internal/evaluator"
	"github.com/funvibe/gradient/internal/solver"
	"github.com/funvibe/gradient/internal/typesystem"
)

// makeBaseAndDerived builds B[X] and C[X, Y](B[X]).
func makeBaseAndDerived(t *testing.T, ev *evaluator.TypeEvaluator) (*typesystem.ClassType, *typesystem.ClassType) {
	t.Helper()
	object := builtinClass(t, ev, "object").CloneAsInstantiable()

	baseScope := typesystem.NewScopeID()
	baseParam := typesystem.NewTypeVar("X", baseScope, typesystem.VarianceInvariant)
	base := typesystem.NewClass("B", "test.B", 0, []*typesystem.TypeVarType{baseParam})
	typesystem.AddBaseClass(base, object)

	derivedScope := typesystem.NewScopeID()
	derivedX := typesystem.NewTypeVar("X", derivedScope, typesystem.VarianceInvariant)
	derivedY := typesystem.NewTypeVar("Y", derivedScope, typesystem.VarianceInvariant)
	derived := typesystem.NewClass("C", "test.C", 0, []*typesystem.TypeVarType{derivedX, derivedY})
	// C derives from B[X] where X is C's first parameter.
	baseAsSeen := base.CloneWithTypeArgs([]typesystem.Type{derivedX})
	derived.Details.Mro = append(derived.Details.Mro, baseAsSeen, object.SelfSpecialize())
	return base, derived
}

func TestSeedFromExpectedBaseClass(t *testing.T) {
	ev := evaluator.New()
	intType := builtinClass(t, ev, "int")
	base, derived := makeBaseAndDerived(t, ev)

	derivedScope := derived.Details.TypeParams[0].Details.ScopeID
	tracker := solver.NewConstraintTracker(derivedScope)

	expected := base.CloneWithTypeArgs([]typesystem.Type{intType}).CloneAsInstance()
	if !solver.SeedFromExpectedType(ev, derived, expected, tracker, nil) {
		t.Fatalf("seeding from B[int] failed")
	}

	sol := solver.SolveConstraints(ev, tracker, nil)
	x, _ := sol.Lookup(derived.Details.TypeParams[0])
	if x == nil || !typesystem.Same(x, intType) {
		t.Errorf("X = %v, want int", x)
	}
	if resolved, seen := sol.Lookup(derived.Details.TypeParams[1]); seen && resolved != nil {
		t.Errorf("Y = %s, want unresolved", resolved.String())
	}
}

func TestSeedRecoversIdentity(t *testing.T) {
	ev := evaluator.New()
	intType := builtinClass(t, ev, "int")
	strType := builtinClass(t, ev, "str")
	_, derived := makeBaseAndDerived(t, ev)

	derivedScope := derived.Details.TypeParams[0].Details.ScopeID
	tracker := solver.NewConstraintTracker(derivedScope)

	// Seeding C[int, str] from itself must solve every parameter to its
	// own argument.
	expected := derived.CloneWithTypeArgs([]typesystem.Type{intType, strType}).CloneAsInstance()
	if !solver.SeedFromExpectedType(ev, derived, expected, tracker, nil) {
		t.Fatalf("seeding from C[int, str] failed")
	}

	sol := solver.SolveConstraints(ev, tracker, nil)
	wants := []typesystem.Type{intType, strType}
	for i, param := range derived.Details.TypeParams {
		resolved, _ := sol.Lookup(param)
		if resolved == nil || !typesystem.Same(resolved, wants[i]) {
			t.Errorf("param %d = %v, want %s", i, resolved, wants[i].String())
		}
	}
}

func TestSeedFromAny(t *testing.T) {
	ev := evaluator.New()
	_, derived := makeBaseAndDerived(t, ev)

	derivedScope := derived.Details.TypeParams[0].Details.ScopeID
	tracker := solver.NewConstraintTracker(derivedScope)

	if !solver.SeedFromExpectedType(ev, derived, typesystem.Any, tracker, nil) {
		t.Fatalf("seeding from Any failed")
	}
	sol := solver.SolveConstraints(ev, tracker, nil)
	for i, param := range derived.Details.TypeParams {
		resolved, _ := sol.Lookup(param)
		if resolved == nil || !typesystem.IsAnyOrUnknown(resolved) {
			t.Errorf("param %d = %v, want Any", i, resolved)
		}
	}
}

func TestSeedFromNonClassFails(t *testing.T) {
	ev := evaluator.New()
	_, derived := makeBaseAndDerived(t, ev)
	tracker := solver.NewConstraintTracker(derived.Details.TypeParams[0].Details.ScopeID)

	fn := &typesystem.FunctionType{ReturnType: typesystem.Unknown}
	if solver.SeedFromExpectedType(ev, derived, fn, tracker, nil) {
		t.Errorf("seeding from a function type succeeded")
	}
}

func TestSeedVarianceDirectsBounds(t *testing.T) {
	ev := evaluator.New()
	intType := builtinClass(t, ev, "int")
	object := builtinClass(t, ev, "object").CloneAsInstantiable()

	scope := typesystem.NewScopeID()
	covParam := typesystem.NewTypeVar("T_co", scope, typesystem.VarianceCovariant)
	contraParam := typesystem.NewTypeVar("T_contra", scope, typesystem.VarianceContravariant)
	cls := typesystem.NewClass("Pipe", "test.Pipe", 0, []*typesystem.TypeVarType{covParam, contraParam})
	typesystem.AddBaseClass(cls, object)

	tracker := solver.NewConstraintTracker(scope)
	expected := cls.CloneWithTypeArgs([]typesystem.Type{intType, intType}).CloneAsInstance()
	if !solver.SeedFromExpectedType(ev, cls, expected, tracker, nil) {
		t.Fatalf("seeding Pipe[int, int] failed")
	}

	covEntry := tracker.MainSet().Entry(covParam)
	if covEntry == nil || covEntry.LowerBound == nil || covEntry.UpperBound != nil {
		t.Errorf("covariant param: got %+v, want lower bound only", covEntry)
	}
	contraEntry := tracker.MainSet().Entry(contraParam)
	if contraEntry == nil || contraEntry.UpperBound == nil || contraEntry.LowerBound != nil {
		t.Errorf("contravariant param: got %+v, want upper bound only", contraEntry)
	}
}
