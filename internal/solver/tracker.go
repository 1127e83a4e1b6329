package solver

import (
	"github.com/funvibe/gradient/internal/config"
	"github.com/funvibe/gradient/internal/typesystem"
)

// ConstraintTracker accumulates constraints for one call site (or one
// class body). It holds one or more parallel constraint sets; matching a
// ParamSpec against an overloaded callable forks the sets, one per
// overload.
type ConstraintTracker struct {
	sets           []*ConstraintSet
	solveForScopes []string
	locked         bool
}

// NewConstraintTracker creates a tracker with a single empty set, solving
// for the given generic-definition scopes.
func NewConstraintTracker(scopeIDs ...string) *ConstraintTracker {
	return &ConstraintTracker{
		sets:           []*ConstraintSet{NewConstraintSet()},
		solveForScopes: append([]string(nil), scopeIDs...),
	}
}

// assertMutable panics when a mutator runs against a locked tracker. A
// locked tracker reaching a mutator is a programming error, not an
// ordinary solver failure.
func (t *ConstraintTracker) assertMutable() {
	if t.locked {
		panic("constraint tracker is locked; mutation is not allowed")
	}
}

// Lock forbids further mutation. Hand a locked tracker to code that must
// only read it.
func (t *ConstraintTracker) Lock() { t.locked = true }

// IsLocked reports the lock state.
func (t *ConstraintTracker) IsLocked() bool { return t.locked }

// AddSolveForScope registers additional scopes the tracker solves for.
func (t *ConstraintTracker) AddSolveForScope(scopeIDs ...string) {
	t.assertMutable()
	for _, id := range scopeIDs {
		if !t.IsSolveForScope(id) {
			t.solveForScopes = append(t.solveForScopes, id)
		}
	}
}

// IsSolveForScope reports whether a variable from the given scope is free
// for this tracker.
func (t *ConstraintTracker) IsSolveForScope(scopeID string) bool {
	if t == nil {
		return false
	}
	for _, id := range t.solveForScopes {
		if id == scopeID {
			return true
		}
	}
	return false
}

// SolveForScopes returns the registered scopes.
func (t *ConstraintTracker) SolveForScopes() []string { return t.solveForScopes }

// Sets returns the parallel constraint sets. The sequence is never empty.
func (t *ConstraintTracker) Sets() []*ConstraintSet { return t.sets }

// MainSet returns the first constraint set.
func (t *ConstraintTracker) MainSet() *ConstraintSet { return t.sets[0] }

// ReplaceSets installs a new set sequence, truncating at the global cap.
// ParamSpec overload forking goes through here; the cap prevents
// exponential combinations.
func (t *ConstraintTracker) ReplaceSets(sets []*ConstraintSet) {
	t.assertMutable()
	if len(sets) == 0 {
		sets = []*ConstraintSet{NewConstraintSet()}
	}
	if len(sets) > config.MaxConstraintSets {
		sets = sets[:config.MaxConstraintSets]
	}
	t.sets = sets
}

// RecordEntry writes an entry into every constraint set.
func (t *ConstraintTracker) RecordEntry(e *ConstraintEntry) {
	t.assertMutable()
	for _, s := range t.sets {
		s.RecordEntry(e.Clone())
	}
}

// Clone returns an independent deep copy for speculative branches.
func (t *ConstraintTracker) Clone() *ConstraintTracker {
	c := &ConstraintTracker{
		sets:           make([]*ConstraintSet, len(t.sets)),
		solveForScopes: append([]string(nil), t.solveForScopes...),
	}
	for i, s := range t.sets {
		c.sets[i] = s.Clone()
	}
	return c
}

// CopyFrom adopts the state of another tracker (typically a clone whose
// speculative branch committed).
func (t *ConstraintTracker) CopyFrom(other *ConstraintTracker) {
	t.assertMutable()
	t.sets = make([]*ConstraintSet, len(other.sets))
	for i, s := range other.sets {
		t.sets[i] = s.Clone()
	}
	t.solveForScopes = append([]string(nil), other.solveForScopes...)
}

// ApplySourceSolution substitutes already-solved variables inside every
// bound in every set. Used when an outer call's solution feeds an inner
// call's constraints.
func ApplySourceSolution(t *ConstraintTracker, src *typesystem.Solution) {
	if t == nil || src == nil || src.Len() == 0 {
		return
	}
	t.assertMutable()
	for _, s := range t.sets {
		s.ForEach(func(e *ConstraintEntry) {
			if e.LowerBound != nil {
				e.LowerBound = typesystem.ApplySolution(e.LowerBound, src)
			}
			if e.UpperBound != nil {
				e.UpperBound = typesystem.ApplySolution(e.UpperBound, src)
			}
		})
	}
}
