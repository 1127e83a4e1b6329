package typesystem

// Solution is the read-only result of solving one constraint tracker. It
// maps variable keys to resolved types; a nil resolved type means the
// variable was seen but left unresolved (the cycle-breaking sentinel).
type Solution struct {
	keys    []string
	vars    map[string]*TypeVarType
	resolve map[string]Type
}

func NewSolution() *Solution {
	return &Solution{
		vars:    make(map[string]*TypeVarType),
		resolve: make(map[string]Type),
	}
}

// Set records the resolved type for a variable. t may be nil (sentinel for
// "seen but unresolved").
func (s *Solution) Set(v *TypeVarType, t Type) {
	key := v.Key()
	if _, seen := s.vars[key]; !seen {
		s.keys = append(s.keys, key)
	}
	s.vars[key] = v
	s.resolve[key] = t
}

// Lookup returns the resolved type for v and whether v was seen at all.
// A (nil, true) result is the unresolved sentinel.
func (s *Solution) Lookup(v *TypeVarType) (Type, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.resolve[v.Key()]
	return t, ok
}

// Has reports whether v was seen (resolved or sentinel).
func (s *Solution) Has(v *TypeVarType) bool {
	if s == nil {
		return false
	}
	_, ok := s.resolve[v.Key()]
	return ok
}

// Vars returns the variables in first-seen order.
func (s *Solution) Vars() []*TypeVarType {
	if s == nil {
		return nil
	}
	out := make([]*TypeVarType, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.vars[k])
	}
	return out
}

// Len returns the number of seen variables.
func (s *Solution) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// ResolvedCount returns the number of variables with a non-nil resolution.
func (s *Solution) ResolvedCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, k := range s.keys {
		if s.resolve[k] != nil {
			n++
		}
	}
	return n
}

// NewUnknownParamSpecSignature returns the sentinel signature standing for
// a ParamSpec resolved to an unknown parameter list.
func NewUnknownParamSpecSignature() *FunctionType {
	return &FunctionType{
		Flags:      FunctionGradualCallable | FunctionSynthesized,
		ReturnType: Unknown,
	}
}
