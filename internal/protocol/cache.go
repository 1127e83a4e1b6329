package protocol

import (
	"github.com/funvibe/gradient/internal/config"
	"github.com/funvibe/gradient/internal/solver"
	"github.com/funvibe/gradient/internal/typesystem"
)

// cacheEntry memoizes one protocol compatibility result. A nil SrcType
// marks the "always incompatible" form: the destination protocol rejects
// the source class regardless of specialization.
type cacheEntry struct {
	DestType *typesystem.ClassType
	SrcType  typesystem.Type
	Flags    solver.AssignFlags

	// PreConstraints is the snapshot of the caller tracker's bounds for
	// the protocol's type parameters at lookup time. Keying compares these
	// bounds by type equality only (ConstraintEntry.IsSame); which tracker
	// presented them is not part of the key.
	PreConstraints []*solver.ConstraintEntry

	IsCompatible bool
}

// classCache is the per-source-class compatibility memo, keyed by
// destination protocol full name.
type classCache struct {
	byDest map[string][]*cacheEntry
}

// snapshotPreConstraints captures the caller tracker's current bounds for
// the protocol's type parameters.
func snapshotPreConstraints(dest *typesystem.ClassType, tracker *solver.ConstraintTracker) []*solver.ConstraintEntry {
	if tracker == nil || len(dest.Details.TypeParams) == 0 {
		return nil
	}
	out := make([]*solver.ConstraintEntry, len(dest.Details.TypeParams))
	set := tracker.MainSet()
	for i, param := range dest.Details.TypeParams {
		if e := set.Entry(param); e != nil {
			out[i] = e.Clone()
		}
	}
	return out
}

func samePreConstraints(a, b []*solver.ConstraintEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if (a[i] == nil) != (b[i] == nil) {
			return false
		}
		if a[i] != nil && !a[i].IsSame(b[i]) {
			return false
		}
	}
	return true
}

// lookup returns the memoized result for (dest, src, flags, pre), if any.
func (c *classCache) lookup(dest *typesystem.ClassType, src typesystem.Type, flags solver.AssignFlags, pre []*solver.ConstraintEntry) (bool, bool) {
	if c == nil {
		return false, false
	}
	entries := c.byDest[dest.Details.FullName]
	for _, e := range entries {
		if e.Flags != flags {
			continue
		}
		if e.SrcType == nil {
			// Always-incompatible shortcut: any specialization of the
			// destination matches.
			return false, true
		}
		if !typesystem.Same(e.DestType, dest) {
			continue
		}
		if !typesystem.Same(e.SrcType, src) {
			continue
		}
		if !samePreConstraints(e.PreConstraints, pre) {
			continue
		}
		return e.IsCompatible, true
	}
	return false, false
}

// store records a result, evicting FIFO past the per-destination cap.
func (c *classCache) store(entry *cacheEntry) {
	if c.byDest == nil {
		c.byDest = make(map[string][]*cacheEntry)
	}
	key := entry.DestType.Details.FullName
	entries := append(c.byDest[key], entry)
	if max := config.MaxProtocolCompatibilityCacheEntries; len(entries) > max {
		entries = entries[len(entries)-max:]
	}
	c.byDest[key] = entries
}
