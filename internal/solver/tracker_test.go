package solver_test

import (
	"testing"

	"github.com/funvibe/gradient/internal/config"
	"github.com/funvibe/gradient/internal/evaluator"
	"github.com/funvibe/gradient/internal/solver"
	"github.com/funvibe/gradient/internal/typesystem"
)

func TestLockedTrackerPanicsOnMutation(t *testing.T) {
	ev := evaluator.New()
	scope := typesystem.NewScopeID()
	tv := typesystem.NewTypeVar("T", scope, typesystem.VarianceInvariant)
	tracker := solver.NewConstraintTracker(scope)
	tracker.Lock()

	defer func() {
		if recover() == nil {
			t.Errorf("mutation of a locked tracker did not panic")
		}
	}()
	solver.AssignTypeVar(ev, tv, builtinClass(t, ev, "int"), nil, tracker, solver.AssignDefault, 0)
}

func TestLockedTrackerStillSolves(t *testing.T) {
	ev := evaluator.New()
	intType := builtinClass(t, ev, "int")
	scope := typesystem.NewScopeID()
	tv := typesystem.NewTypeVar("T", scope, typesystem.VarianceInvariant)
	tracker := solver.NewConstraintTracker(scope)
	solver.AssignTypeVar(ev, tv, intType, nil, tracker, solver.AssignDefault, 0)

	tracker.Lock()
	sol := solver.SolveConstraints(ev, tracker, nil)
	resolved, _ := sol.Lookup(tv)
	if !typesystem.Same(resolved, intType) {
		t.Errorf("solving a locked tracker: T = %v, want int", resolved)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	ev := evaluator.New()
	intType := builtinClass(t, ev, "int")
	strType := builtinClass(t, ev, "str")

	scope := typesystem.NewScopeID()
	tv := typesystem.NewTypeVar("T", scope, typesystem.VarianceInvariant)
	tracker := solver.NewConstraintTracker(scope)
	solver.AssignTypeVar(ev, tv, intType, nil, tracker, solver.AssignDefault, 0)

	clone := tracker.Clone()
	solver.AssignTypeVar(ev, tv, strType, nil, clone, solver.AssignDefault, 0)

	original := tracker.MainSet().Entry(tv).LowerBound
	if !typesystem.Same(original, intType) {
		t.Errorf("original tracker mutated through clone: %s", original.String())
	}
	cloned := clone.MainSet().Entry(tv).LowerBound
	if typesystem.SubtypeCount(cloned) != 2 {
		t.Errorf("clone lower bound = %s, want int | str", cloned.String())
	}

	// A committed speculative branch merges back.
	tracker.CopyFrom(clone)
	merged := tracker.MainSet().Entry(tv).LowerBound
	if !typesystem.Same(merged, cloned) {
		t.Errorf("CopyFrom did not adopt the clone's entries")
	}
}

func TestConstraintSetEquality(t *testing.T) {
	ev := evaluator.New()
	intType := builtinClass(t, ev, "int")

	scope := typesystem.NewScopeID()
	tv := typesystem.NewTypeVar("T", scope, typesystem.VarianceInvariant)

	a := solver.NewConstraintTracker(scope)
	b := solver.NewConstraintTracker(scope)
	solver.AssignTypeVar(ev, tv, intType, nil, a, solver.AssignDefault, 0)
	solver.AssignTypeVar(ev, tv, intType, nil, b, solver.AssignDefault, 0)

	if !a.MainSet().IsSame(b.MainSet()) {
		t.Errorf("sets with identical entries compare unequal")
	}

	b.MainSet().AddScopeID("overload-1")
	if a.MainSet().IsSame(b.MainSet()) {
		t.Errorf("sets with different scope-id tags compare equal")
	}
}

func TestReplaceSetsCap(t *testing.T) {
	tracker := solver.NewConstraintTracker()
	sets := make([]*solver.ConstraintSet, config.MaxConstraintSets+10)
	for i := range sets {
		sets[i] = solver.NewConstraintSet()
	}
	tracker.ReplaceSets(sets)
	if got := len(tracker.Sets()); got != config.MaxConstraintSets {
		t.Errorf("tracker holds %d sets, want cap %d", got, config.MaxConstraintSets)
	}
}
