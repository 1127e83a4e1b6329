package protocol

import (
	"github.com/funvibe/gradient/internal/config"
	"github.com/funvibe/gradient/internal/diagnostics"
	"github.com/funvibe/gradient/internal/solver"
	"github.com/funvibe/gradient/internal/symbols"
	"github.com/funvibe/gradient/internal/typesystem"
)

// Matcher performs structural (protocol) subtype checks. One Matcher
// belongs to one analysis worker: it owns the recursion stack and the
// per-class compatibility caches, so no locking is needed.
type Matcher struct {
	stack  []stackEntry
	caches map[*typesystem.ClassDetails]*classCache
}

type stackEntry struct {
	dest *typesystem.ClassType
	src  typesystem.Type
}

func NewMatcher() *Matcher {
	return &Matcher{caches: make(map[*typesystem.ClassDetails]*classCache)}
}

// InvalidateCache drops the memoized results for a class whose symbol
// table was mutated by incremental reanalysis.
func (m *Matcher) InvalidateCache(details *typesystem.ClassDetails) {
	delete(m.caches, details)
}

// AssignClassToProtocol reports whether src (a class instance or class
// object) structurally satisfies the protocol dest. Inferred bounds for
// dest's type parameters feed back into the caller's tracker.
func (m *Matcher) AssignClassToProtocol(ev solver.Evaluator, dest *typesystem.ClassType, src *typesystem.ClassType, diag *diagnostics.Diag, tracker *solver.ConstraintTracker, flags solver.AssignFlags, recursionCount int) bool {
	if ev.CancelCheck() {
		diag.Add(diagnostics.Cancelled, "operation cancelled")
		return false
	}
	if recursionCount > config.MaxTypeRecursionCount {
		return true
	}
	recursionCount++

	// Literals never change protocol matching; cache on the stripped
	// form.
	if src.LiteralValue != nil {
		src = src.CloneWithLiteral(nil)
	}

	if flags.IsInvariantRequest() {
		return typesystem.Same(dest, src)
	}

	// Self-referential protocols succeed co-inductively.
	if m.isOnStack(dest, src) {
		return true
	}

	// A positive result for a generic protocol also feeds inferred type
	// arguments into the caller's tracker; that side effect cannot be
	// replayed from a memo, so those calls bypass the cache.
	useCache := tracker == nil || len(dest.Details.TypeParams) == 0

	pre := snapshotPreConstraints(dest, tracker)
	cache := m.caches[src.Details]
	if useCache {
		if result, hit := cache.lookup(dest, src, flags, pre); hit {
			if !result && diag == nil {
				// Cached negative with no detailed diagnostic requested.
				return false
			}
			if result {
				return true
			}
		}
	}

	m.stack = append(m.stack, stackEntry{dest: dest, src: src})
	defer func() {
		m.stack = m.stack[:len(m.stack)-1]
	}()

	compatible := m.matchAgainstMembers(ev, dest, src, diag, tracker, flags, recursionCount)

	if cache == nil {
		cache = &classCache{}
		m.caches[src.Details] = cache
	}
	if useCache {
		cache.store(&cacheEntry{
			DestType:       dest,
			SrcType:        src,
			Flags:          flags,
			PreConstraints: pre,
			IsCompatible:   compatible,
		})
	}

	if !compatible {
		// Probe the generic forms once; when even they fail, the pair is
		// incompatible under every specialization and the cache can
		// short-circuit all of them.
		genericDest := dest.CloneWithTypeArgs(nil).SelfSpecialize()
		genericSrc := src.CloneWithTypeArgs(nil).SelfSpecialize()
		if !typesystem.Same(genericDest, dest) || !typesystem.Same(genericSrc, src) {
			genericOK := m.matchAgainstMembers(ev, genericDest, genericSrc, nil, nil, flags, recursionCount)
			if !genericOK {
				cache.store(&cacheEntry{DestType: dest, Flags: flags, IsCompatible: false})
			}
		}
	}
	return compatible
}

// AssignModuleToProtocol reports whether a module's symbol table satisfies
// the protocol dest.
func (m *Matcher) AssignModuleToProtocol(ev solver.Evaluator, dest *typesystem.ClassType, src *typesystem.ModuleType, diag *diagnostics.Diag, tracker *solver.ConstraintTracker, flags solver.AssignFlags, recursionCount int) bool {
	if ev.CancelCheck() {
		diag.Add(diagnostics.Cancelled, "operation cancelled")
		return false
	}
	if recursionCount > config.MaxTypeRecursionCount {
		return true
	}
	recursionCount++

	lookup := func(name string) (*symbols.Symbol, *typesystem.ClassType) {
		return src.Fields.Get(name), nil
	}
	return m.walkProtocolMembers(ev, dest, src, lookup, src, false, diag, tracker, flags, recursionCount)
}

func (m *Matcher) isOnStack(dest *typesystem.ClassType, src typesystem.Type) bool {
	for _, e := range m.stack {
		if typesystem.Same(e.dest, dest) && typesystem.Same(e.src, src) {
			return true
		}
	}
	return false
}

// matchAgainstMembers runs the member walk for a class source.
func (m *Matcher) matchAgainstMembers(ev solver.Evaluator, dest *typesystem.ClassType, src *typesystem.ClassType, diag *diagnostics.Diag, tracker *solver.ConstraintTracker, flags solver.AssignFlags, recursionCount int) bool {
	srcIsClassObject := src.Instantiable
	selfType := typesystem.Type(src.CloneAsInstance())

	lookup := func(name string) (*symbols.Symbol, *typesystem.ClassType) {
		if sym, declaring := lookUpClassMember(src, name); sym != nil {
			return sym, declaring
		}
		if srcIsClassObject && src.Details.Metaclass != nil {
			if meta, ok := src.Details.Metaclass.(*typesystem.ClassType); ok {
				return lookUpClassMember(meta, name)
			}
		}
		return nil, nil
	}
	return m.walkProtocolMembers(ev, dest, src, lookup, selfType, srcIsClassObject, diag, tracker, flags, recursionCount)
}

// walkProtocolMembers walks the protocol's MRO leaves-first, comparing
// each protocol member against the source's member of the same name, then
// feeds the inferred protocol type arguments back into the caller's
// tracker.
func (m *Matcher) walkProtocolMembers(ev solver.Evaluator, dest *typesystem.ClassType, src typesystem.Type, lookup func(name string) (*symbols.Symbol, *typesystem.ClassType), selfType typesystem.Type, srcIsClassObject bool, diag *diagnostics.Diag, tracker *solver.ConstraintTracker, flags solver.AssignFlags, recursionCount int) bool {
	var protocolScopes []string
	for _, param := range dest.Details.TypeParams {
		found := false
		for _, s := range protocolScopes {
			if s == param.Details.ScopeID {
				found = true
				break
			}
		}
		if !found {
			protocolScopes = append(protocolScopes, param.Details.ScopeID)
		}
	}
	protocolTracker := solver.NewConstraintTracker(protocolScopes...)

	compatible := true
	checked := make(map[string]bool)

	for _, mroEntry := range dest.Details.Mro {
		if ev.CancelCheck() {
			diag.Add(diagnostics.Cancelled, "operation cancelled")
			return false
		}
		entryClass, ok := mroEntry.(*typesystem.ClassType)
		if !ok || !entryClass.IsProtocol() {
			continue
		}
		for _, name := range entryClass.Details.Fields.Names() {
			if checked[name] {
				continue
			}
			checked[name] = true

			destSym := entryClass.Details.Fields.Get(name)
			if destSym.IsIgnored() {
				continue
			}
			if name == config.SlotsName {
				continue
			}
			if name == config.ClassGetItemName && !srcIsClassObject {
				// __class_getitem__ participates only when the source is
				// matched as a class object.
				continue
			}

			srcSym, srcDeclaring := lookup(name)
			if srcSym == nil {
				diag.Addf(diagnostics.ProtocolMemberMissing,
					"%s does not implement protocol member %q of %s", ev.PrintType(src), name, dest.Details.Name)
				compatible = false
				continue
			}

			destMemberType := ev.GetDeclaredTypeOfSymbol(destSym)
			if destMemberType == nil {
				continue
			}
			// MRO entries are stored in terms of the leaf protocol's own
			// parameters; the feedback step maps those onto the caller's
			// type arguments afterwards.
			destMemberType = typesystem.PartialSpecialize(destMemberType, entryClass)
			destMemberType = substituteSelf(destMemberType, selfType)

			srcMemberType := ev.GetEffectiveTypeOfSymbol(srcSym)
			if srcMemberType == nil {
				continue
			}
			srcMemberType = typesystem.PartialSpecialize(srcMemberType, srcDeclaring)
			srcMemberType = substituteSelf(srcMemberType, selfType)

			if !m.checkMember(ev, dest, name, destSym, destMemberType, srcSym, srcMemberType, selfType, srcIsClassObject, diag, protocolTracker, recursionCount) {
				compatible = false
			}
		}
	}

	if compatible && len(dest.Details.TypeParams) > 0 {
		compatible = m.applyInferredTypeArgs(ev, dest, protocolTracker, diag, tracker, recursionCount)
	}
	return compatible
}

// checkMember compares one protocol member against its implementation.
func (m *Matcher) checkMember(ev solver.Evaluator, dest *typesystem.ClassType, name string, destSym *symbols.Symbol, destMemberType typesystem.Type, srcSym *symbols.Symbol, srcMemberType typesystem.Type, selfType typesystem.Type, srcIsClassObject bool, diag *diagnostics.Diag, protocolTracker *solver.ConstraintTracker, recursionCount int) bool {
	// Method binding: instance/class methods are compared in bound form.
	if destFn, ok := destMemberType.(*typesystem.FunctionType); ok {
		if bound := bindMember(ev, destFn, selfType, srcIsClassObject); bound != nil {
			destMemberType = bound
		}
	}
	if srcFn, ok := srcMemberType.(*typesystem.FunctionType); ok {
		// Module-level functions have no receiver to strip.
		if _, isModule := selfType.(*typesystem.ModuleType); !isModule {
			if bound := bindMember(ev, srcFn, selfType, srcIsClassObject); bound != nil {
				srcMemberType = bound
			}
		}
	}

	// Property members compare accessor-by-accessor.
	if destProp, ok := destMemberType.(*typesystem.ClassType); ok && destProp.Details.Flags&typesystem.ClassPropertyClass != 0 {
		if srcProp, ok := srcMemberType.(*typesystem.ClassType); ok && srcProp.Details.Flags&typesystem.ClassPropertyClass != 0 {
			return compareProperties(ev, m, destProp, srcProp, selfType, name, diag, protocolTracker, recursionCount)
		}
		// A plain attribute can satisfy a read-only property when its
		// type matches the getter.
		getter := ev.GetGetterTypeFromProperty(destProp)
		if getter == nil {
			return true
		}
		if !ev.AssignType(getter, srcMemberType, nil, protocolTracker, solver.AssignDefault, recursionCount) {
			diag.Addf(diagnostics.ProtocolMemberTypeMismatch,
				"member %q has type %s, protocol getter requires %s",
				name, ev.PrintType(srcMemberType), ev.PrintType(getter))
			return false
		}
		return true
	}

	// Final-ness must agree in both directions.
	if destSym.IsFinal() && !srcSym.IsFinal() {
		diag.Addf(diagnostics.ProtocolMemberFinalNotIn,
			"member %q is Final in protocol %s but not in the implementation", name, dest.Details.Name)
		return false
	}
	if !destSym.IsFinal() && srcSym.IsFinal() {
		diag.Addf(diagnostics.ProtocolMemberFinalIn,
			"member %q is Final in the implementation but not in protocol %s", name, dest.Details.Name)
		return false
	}

	// A ClassVar member requires class-level storage on the source.
	if destSym.IsClassVar() && !srcIsClassObject && srcSym.IsInstanceMember() && !srcSym.IsClassVar() {
		diag.Addf(diagnostics.ProtocolMemberClassVarMismatch,
			"member %q is ClassVar in protocol %s but an instance member in the implementation", name, dest.Details.Name)
		return false
	}

	compareFlags := solver.AssignDefault
	if isMutableMember(destSym, destMemberType) {
		// Mutable attributes are invariant; anything else would let a
		// write through the protocol violate the implementation's type.
		compareFlags |= solver.AssignInvariant
		if srcSym.IsReadOnly() || srcSym.IsFinal() {
			diag.Addf(diagnostics.ProtocolMemberWritability,
				"member %q is writable in protocol %s but read-only in the implementation", name, dest.Details.Name)
			return false
		}
	}

	if !ev.AssignType(destMemberType, srcMemberType, nil, protocolTracker, compareFlags, recursionCount) {
		if compareFlags.IsInvariantRequest() {
			diag.Addf(diagnostics.ProtocolMemberInvariance,
				"mutable member %q has type %s, protocol requires exactly %s",
				name, ev.PrintType(srcMemberType), ev.PrintType(destMemberType))
		} else {
			diag.Addf(diagnostics.ProtocolMemberTypeMismatch,
				"member %q has type %s, protocol requires %s",
				name, ev.PrintType(srcMemberType), ev.PrintType(destMemberType))
		}
		return false
	}
	return true
}

// applyInferredTypeArgs solves the protocol-level tracker and feeds the
// result back into the caller's tracker.
func (m *Matcher) applyInferredTypeArgs(ev solver.Evaluator, dest *typesystem.ClassType, protocolTracker *solver.ConstraintTracker, diag *diagnostics.Diag, tracker *solver.ConstraintTracker, recursionCount int) bool {
	sol := solver.SolveConstraints(ev, protocolTracker, nil)

	if dest.TypeArgs == nil {
		// Unspecialized protocol: hand the raw bindings to the caller.
		if tracker != nil {
			protocolTracker.MainSet().ForEach(func(e *solver.ConstraintEntry) {
				tracker.RecordEntry(e.Clone())
			})
		}
		return true
	}

	ok := true
	for i, param := range dest.Details.TypeParams {
		if i >= len(dest.TypeArgs) {
			break
		}
		value, _ := sol.Lookup(param)
		if value == nil {
			value = typesystem.Unknown
		}
		varianceFlags := solver.FlagsForVariance(param.Details.Variance)
		if !ev.AssignType(dest.TypeArgs[i], value, diag, tracker, varianceFlags, recursionCount) {
			ok = false
		}
	}
	return ok
}

// bindMember binds a method to the class object or instance form as its
// decorator kind requires.
func bindMember(ev solver.Evaluator, fn *typesystem.FunctionType, selfType typesystem.Type, srcIsClassObject bool) *typesystem.FunctionType {
	if fn.Flags&typesystem.FunctionStaticMethod != 0 {
		return fn
	}
	receiver := selfType
	if fn.Flags&typesystem.FunctionClassMethod != 0 {
		if c, ok := selfType.(*typesystem.ClassType); ok {
			receiver = c.CloneAsInstantiable()
		}
	}
	return ev.BindFunctionToClassOrObject(receiver, fn)
}

// isMutableMember reports whether the protocol member is a writable
// attribute rather than a method or read-only slot.
func isMutableMember(sym *symbols.Symbol, declaredType typesystem.Type) bool {
	switch declaredType.Category() {
	case typesystem.CategoryFunction, typesystem.CategoryOverloaded:
		return false
	}
	return !sym.IsReadOnly() && !sym.IsFinal()
}

// lookUpClassMember walks the class MRO for a member, returning the symbol
// and the specialized MRO class that declares it.
func lookUpClassMember(cls *typesystem.ClassType, name string) (*symbols.Symbol, *typesystem.ClassType) {
	for _, entry := range cls.Details.Mro {
		entryClass, ok := entry.(*typesystem.ClassType)
		if !ok {
			continue
		}
		if sym := entryClass.Details.Fields.Get(name); sym != nil {
			return sym, specializeMroEntry(cls, entryClass)
		}
	}
	return nil, nil
}

// specializeMroEntry views an MRO entry through the specialization of the
// class being matched: the declaring class's parameters are replaced with
// cls's actual type arguments.
func specializeMroEntry(cls *typesystem.ClassType, entry *typesystem.ClassType) *typesystem.ClassType {
	if cls.TypeArgs == nil || len(cls.Details.TypeParams) == 0 {
		return entry
	}
	sol := typesystem.NewSolution()
	for i, param := range cls.Details.TypeParams {
		if i < len(cls.TypeArgs) {
			sol.Set(param, cls.TypeArgs[i])
		}
	}
	specialized := typesystem.ApplySolution(entry, sol)
	if c, ok := specialized.(*typesystem.ClassType); ok {
		return c
	}
	return entry
}

// substituteSelf replaces uses of the Self variable with the source type.
func substituteSelf(t typesystem.Type, selfType typesystem.Type) typesystem.Type {
	return typesystem.TransformTypeVars(t, func(v *typesystem.TypeVarType) typesystem.Type {
		if !v.IsSelf() {
			return nil
		}
		if v.Instantiable {
			if c, ok := selfType.(*typesystem.ClassType); ok {
				return c.CloneAsInstantiable()
			}
		}
		return selfType
	})
}
