package runtime

import "bytes"

// Equal implements structural equality. Collections compare element-wise;
// maps ignore entry order; numbers compare across integer/float; channels,
// atoms, scopes, streams, and closures compare by handle identity.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case NilValue:
		_, ok := b.(NilValue)
		return ok
	case BoolValue:
		bv, ok := b.(BoolValue)
		return ok && av.Val == bv.Val
	case IntegerValue:
		switch bv := b.(type) {
		case IntegerValue:
			return av.Val == bv.Val
		case FloatValue:
			return float64(av.Val) == bv.Val
		}
		return false
	case FloatValue:
		switch bv := b.(type) {
		case FloatValue:
			return av.Val == bv.Val
		case IntegerValue:
			return av.Val == float64(bv.Val)
		}
		return false
	case StringValue:
		bv, ok := b.(StringValue)
		return ok && av.Val == bv.Val
	case BytesValue:
		bv, ok := b.(BytesValue)
		return ok && bytes.Equal(av.Val, bv.Val)
	case SymbolValue:
		bv, ok := b.(SymbolValue)
		return ok && av.Name == bv.Name
	case KeywordValue:
		bv, ok := b.(KeywordValue)
		return ok && av.Name == bv.Name
	case UvarValue:
		bv, ok := b.(UvarValue)
		return ok && av.ID == bv.ID
	case *ListValue:
		return sequenceEqual(a, b)
	case *VectorValue:
		return sequenceEqual(a, b)
	case *MapValue:
		bv, ok := b.(*MapValue)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, entry := range av.Entries {
			other, ok := bv.Get(entry.Key)
			if !ok || !Equal(entry.Value, other) {
				return false
			}
		}
		return true
	case ErrorValue:
		bv, ok := b.(ErrorValue)
		return ok && av.Code == bv.Code && av.Message == bv.Message
	default:
		// Handle identity for channels, atoms, scopes, streams, closures.
		return a == b
	}
}

// sequenceEqual compares lists and vectors element-wise. List and Vector are
// distinct tags; a list never equals a vector.
func sequenceEqual(a, b Value) bool {
	var as, bs []Value
	switch v := a.(type) {
	case *ListValue:
		lb, ok := b.(*ListValue)
		if !ok {
			return false
		}
		as, bs = v.Elements, lb.Elements
	case *VectorValue:
		vb, ok := b.(*VectorValue)
		if !ok {
			return false
		}
		as, bs = v.Elements, vb.Elements
	default:
		return false
	}
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if !Equal(as[i], bs[i]) {
			return false
		}
	}
	return true
}

// SequenceElements extracts the elements of a list or vector.
func SequenceElements(v Value) ([]Value, bool) {
	switch s := v.(type) {
	case *ListValue:
		return s.Elements, true
	case *VectorValue:
		return s.Elements, true
	default:
		return nil, false
	}
}
