package typesystem

// Combine builds a union from the given subtypes: nested unions are
// flattened, Never is dropped, duplicates (by structural equality) are
// collapsed, and a top-level Any/Unknown absorbs everything else. Code
// must build unions through Combine so union equality stays set equality.
func Combine(subtypes []Type) Type {
	var flat []Type
	var gradual Type
	for _, t := range subtypes {
		if t == nil {
			continue
		}
		switch t := t.(type) {
		case *NeverType:
			// identity element
		case *AnyType, *UnknownType:
			if gradual == nil || t.Category() == CategoryUnknown {
				gradual = t
			}
		case *UnionType:
			for _, s := range t.Subtypes {
				flat = append(flat, s)
			}
		default:
			flat = append(flat, t)
		}
	}
	if gradual != nil {
		return gradual
	}

	var dedup []Type
	for _, t := range flat {
		found := false
		for _, existing := range dedup {
			if Same(existing, t) {
				found = true
				break
			}
		}
		if !found {
			dedup = append(dedup, t)
		}
	}

	switch len(dedup) {
	case 0:
		return Never
	case 1:
		return dedup[0]
	}
	return &UnionType{Subtypes: dedup}
}

// StripLiteralValue removes literal restrictions, widening Literal[1] to
// int, element-wise across unions.
func StripLiteralValue(t Type) Type {
	return MapSubtypes(t, func(sub Type) Type {
		if c, ok := sub.(*ClassType); ok && c.LiteralValue != nil {
			return c.CloneWithLiteral(nil)
		}
		return sub
	})
}

// StripLiteralValueTupleWise strips literals inside the elements of an
// unpacked tuple form as well as at the top level. Used when widening
// TypeVarTuple bounds.
func StripLiteralValueTupleWise(t Type) Type {
	if c, ok := t.(*ClassType); ok && len(c.TupleElements) > 0 {
		changed := false
		newElems := make([]TupleElement, len(c.TupleElements))
		for i, el := range c.TupleElements {
			newElems[i] = el
			newElems[i].Type = StripLiteralValue(el.Type)
			if newElems[i].Type != el.Type {
				changed = true
			}
		}
		if !changed {
			return t
		}
		cc := *c
		cc.TupleElements = newElems
		return &cc
	}
	return StripLiteralValue(t)
}

// IsPartlyUnknown reports whether t is Unknown or contains Unknown in its
// type arguments, tuple elements, or signature.
func IsPartlyUnknown(t Type) bool {
	return isPartlyUnknown(t, 0)
}

func isPartlyUnknown(t Type, recursionCount int) bool {
	if t == nil || recursionCount > 16 {
		return false
	}
	recursionCount++

	switch t := t.(type) {
	case *UnknownType:
		return true
	case *ClassType:
		if t.IsImplicitTypeArgs {
			return true
		}
		for _, arg := range t.TypeArgs {
			if isPartlyUnknown(arg, recursionCount) {
				return true
			}
		}
		for _, el := range t.TupleElements {
			if isPartlyUnknown(el.Type, recursionCount) {
				return true
			}
		}
	case *FunctionType:
		for _, p := range t.Params {
			if isPartlyUnknown(p.Type, recursionCount) {
				return true
			}
		}
		return isPartlyUnknown(t.ReturnType, recursionCount)
	case *UnionType:
		for _, s := range t.Subtypes {
			if isPartlyUnknown(s, recursionCount) {
				return true
			}
		}
	}
	return false
}
