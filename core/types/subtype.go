package types

import "fmt"

// IsSubtype reports whether every value of a is also a value of b.
func IsSubtype(a, b Type) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case Void, Boolean:
		return true
	case Integer:
		bi := b.(Integer)
		return bi.Low.Cmp(a.Low) <= 0 && a.High.Cmp(bi.High) <= 0
	case Text:
		bt := b.(Text)
		return IsSubtype(a.Length, bt.Length) && (a.ASCII || !bt.ASCII)
	case List:
		return memberSubtype(a.Member, b.(List).Member)
	case Array:
		ba := b.(Array)
		return a.Length == ba.Length && memberSubtype(a.Member, ba.Member)
	case Table:
		bt := b.(Table)
		return memberSubtype(a.Key, bt.Key) && memberSubtype(a.Value, bt.Value)
	default:
		panic(fmt.Sprintf("unknown type %T", a))
	}
}

// memberSubtype treats a Void member, the member type of an empty literal,
// as a subtype of anything.
func memberSubtype(a, b Type) bool {
	return a.Kind() == KindVoid || IsSubtype(a, b)
}

// Equal reports structural equality.
func Equal(a, b Type) bool {
	return IsSubtype(a, b) && IsSubtype(b, a)
}

// Union returns the least type containing both a and b. It returns an error
// when the kinds are incompatible.
func Union(a, b Type) (Type, error) {
	if a.Kind() == KindVoid {
		return b, nil
	}
	if b.Kind() == KindVoid {
		return a, nil
	}
	if a.Kind() != b.Kind() {
		return nil, fmt.Errorf("no union of %s and %s", a, b)
	}
	switch a := a.(type) {
	case Boolean:
		return a, nil
	case Integer:
		bi := b.(Integer)
		return Integer{Low: MinBound(a.Low, bi.Low), High: MaxBound(a.High, bi.High)}, nil
	case Text:
		bt := b.(Text)
		length, _ := Union(a.Length, bt.Length)
		return Text{Length: length.(Integer), ASCII: a.ASCII && bt.ASCII}, nil
	case List:
		m, err := Union(a.Member, b.(List).Member)
		if err != nil {
			return nil, err
		}
		return List{Member: m}, nil
	case Array:
		ba := b.(Array)
		if a.Length != ba.Length {
			return nil, fmt.Errorf("no union of %s and %s", a, b)
		}
		m, err := Union(a.Member, ba.Member)
		if err != nil {
			return nil, err
		}
		return Array{Member: m, Length: a.Length}, nil
	case Table:
		bt := b.(Table)
		k, err := Union(a.Key, bt.Key)
		if err != nil {
			return nil, err
		}
		v, err := Union(a.Value, bt.Value)
		if err != nil {
			return nil, err
		}
		return Table{Key: k, Value: v}, nil
	default:
		panic(fmt.Sprintf("unknown type %T", a))
	}
}

// Intersect narrows an inferred type by an annotation. Only integer and text
// length intervals are narrowed; for other kinds the annotation wins.
func Intersect(inferred, annotated Type) (Type, error) {
	if inferred.Kind() != annotated.Kind() {
		return nil, fmt.Errorf("type %s does not match annotation %s", inferred, annotated)
	}
	switch a := inferred.(type) {
	case Integer:
		b := annotated.(Integer)
		low := MaxBound(a.Low, b.Low)
		high := MinBound(a.High, b.High)
		if low.Cmp(high) > 0 {
			return nil, fmt.Errorf("type %s does not match annotation %s", inferred, annotated)
		}
		return Integer{Low: low, High: high}, nil
	case Text:
		b := annotated.(Text)
		length, err := Intersect(a.Length, b.Length)
		if err != nil {
			return nil, err
		}
		return Text{Length: length.(Integer), ASCII: a.ASCII || b.ASCII}, nil
	default:
		return annotated, nil
	}
}
