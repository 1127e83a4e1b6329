package solver

import (
	"github.com/funvibe/gradient/internal/config"
	"github.com/funvibe/gradient/internal/typesystem"
)

// SolveOptions tune constraint solving.
type SolveOptions struct {
	// UseLowerBoundOnly leaves a variable with no lower bound unresolved
	// instead of falling back to its upper bound.
	UseLowerBoundOnly bool
}

// SolveConstraints resolves every variable in the tracker to a concrete
// type, or to the unresolved sentinel where the bounds say nothing. When
// the tracker holds several sets (ParamSpec overload forks), each set is
// solved and the best solution wins: most variables resolved first,
// lowest total complexity as the tie-breaker.
func SolveConstraints(ev Evaluator, tracker *ConstraintTracker, opts *SolveOptions) *typesystem.Solution {
	if opts == nil {
		opts = &SolveOptions{}
	}
	if ev.CancelCheck() {
		return typesystem.NewSolution()
	}

	var best *typesystem.Solution
	bestScore := 0.0
	for _, set := range tracker.Sets() {
		sol := typesystem.NewSolution()
		set.ForEach(func(e *ConstraintEntry) {
			solveVar(ev, e.TypeVar, set, sol, opts, 0)
		})
		if best == nil {
			best, bestScore = sol, solutionComplexity(sol)
			continue
		}
		switch {
		case sol.ResolvedCount() > best.ResolvedCount():
			best, bestScore = sol, solutionComplexity(sol)
		case sol.ResolvedCount() == best.ResolvedCount():
			if score := solutionComplexity(sol); score < bestScore {
				best, bestScore = sol, score
			}
		}
	}
	return best
}

// solveVar resolves one variable within one set, recursing into the
// variables its candidate depends on. The nil sentinel pre-seeded into the
// solution breaks dependency cycles.
func solveVar(ev Evaluator, v *typesystem.TypeVarType, set *ConstraintSet, sol *typesystem.Solution, opts *SolveOptions, recursionCount int) typesystem.Type {
	if t, seen := sol.Lookup(v); seen {
		return t
	}
	if recursionCount > config.MaxTypeRecursionCount {
		return nil
	}
	recursionCount++

	sol.Set(v, nil)

	entry := set.Entry(v)
	if entry == nil {
		return nil
	}
	candidate := chooseCandidate(ev, entry, opts, recursionCount)
	if candidate == nil {
		return nil
	}

	// Resolve dependent variables mentioned by the candidate, then
	// substitute them in.
	deps := typesystem.FreeTypeVars(candidate)
	if len(deps) > 0 {
		depSol := typesystem.NewSolution()
		for _, dep := range deps {
			if dep.Details.IsBound {
				continue
			}
			// A dependency that is this variable under different flag
			// bits would recurse forever; short-circuit it.
			if typesystem.SameIgnoringFlags(dep, v) {
				continue
			}
			if set.Entry(dep) == nil {
				continue
			}
			if resolved := solveVar(ev, dep, set, sol, opts, recursionCount); resolved != nil {
				depSol.Set(dep, resolved)
			}
		}
		if depSol.Len() > 0 {
			candidate = typesystem.ApplySolution(candidate, depSol)
		}
	}

	sol.Set(v, candidate)
	return candidate
}

// chooseCandidate picks the resolution for one entry.
func chooseCandidate(ev Evaluator, entry *ConstraintEntry, opts *SolveOptions, recursionCount int) typesystem.Type {
	v := entry.TypeVar

	if v.IsParamSpec() {
		if entry.LowerBound == nil {
			return nil
		}
		if fn, ok := entry.LowerBound.(*typesystem.FunctionType); ok {
			return fn
		}
		if typesystem.IsAnyOrUnknown(entry.LowerBound) {
			return typesystem.NewUnknownParamSpecSignature()
		}
		return nil
	}

	lower := entry.LowerBound
	if lower != nil && !entry.RetainLiterals {
		// Literal stripping happens at candidate selection, never inside
		// already-recorded bounds: the recorded state stays faithful to
		// what was observed.
		var lowerNoLit typesystem.Type
		if v.IsTypeVarTuple() {
			lowerNoLit = typesystem.StripLiteralValueTupleWise(lower)
		} else {
			lowerNoLit = typesystem.StripLiteralValue(lower)
		}
		if !typesystem.Same(lowerNoLit, lower) {
			fitsUpper := entry.UpperBound == nil ||
				ev.AssignType(entry.UpperBound, lowerNoLit, nil, nil, AssignDefault, recursionCount)
			fitsConstraints := true
			if v.HasConstraints() {
				fitsConstraints = false
				for _, c := range v.Details.Constraints {
					if typesystem.Same(c, lowerNoLit) {
						fitsConstraints = true
						break
					}
				}
			}
			if fitsUpper && fitsConstraints {
				lower = lowerNoLit
			}
		}
	}

	if lower != nil {
		return lower
	}
	if !opts.UseLowerBoundOnly {
		return entry.UpperBound
	}
	return nil
}

// solutionComplexity sums the complexity scores of the resolved types.
func solutionComplexity(sol *typesystem.Solution) float64 {
	total := 0.0
	for _, v := range sol.Vars() {
		if t, _ := sol.Lookup(v); t != nil {
			total += typesystem.ComplexityScore(t)
		}
	}
	return total
}
