package solver

import (
	"github.com/funvibe/gradient/internal/typesystem"
)

// widenTupleBoundsTogether attempts to widen two variadic bounds jointly: two
// candidate unpacked tuple forms widen together only when both have the
// same number of elements and become structurally equal after element-wise
// literal stripping. Anything else fails, and the caller must not fall
// back to union widening for variadic sequences.
func widenTupleBoundsTogether(a, b typesystem.Type) (typesystem.Type, bool) {
	aClass, aOK := a.(*typesystem.ClassType)
	bClass, bOK := b.(*typesystem.ClassType)
	if !aOK || !bOK {
		return nil, false
	}
	if !aClass.IsUnpackedTuple || !bClass.IsUnpackedTuple {
		return nil, false
	}
	if len(aClass.TupleElements) != len(bClass.TupleElements) {
		return nil, false
	}

	aStripped := typesystem.StripLiteralValueTupleWise(aClass)
	bStripped := typesystem.StripLiteralValueTupleWise(bClass)
	if !typesystem.Same(aStripped, bStripped) {
		return nil, false
	}
	return aStripped, true
}
