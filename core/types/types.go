// Package types implements the IR type algebra: bounded integers, text,
// booleans, void and the list/array/table containers, together with the
// structural subtype relation used to gate sound rewrites.
//
// Types are values and are compared structurally, never by identity.
package types

import (
	"fmt"
	"math"
	"math/big"

	"github.com/opal-lang/golfc/core/invariant"
)

// Kind identifies the variant of a Type.
type Kind int

const (
	KindVoid Kind = iota
	KindBoolean
	KindInteger
	KindText
	KindList
	KindArray
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "Void"
	case KindBoolean:
		return "Bool"
	case KindInteger:
		return "Int"
	case KindText:
		return "Text"
	case KindList:
		return "List"
	case KindArray:
		return "Array"
	case KindTable:
		return "Table"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Type is a closed union over the structs in this package.
type Type interface {
	fmt.Stringer
	Kind() Kind
	isType()
}

// Void is the type of statements and of the members of empty collections.
type Void struct{}

// Boolean is the truth value type.
type Boolean struct{}

// Integer is an inclusive interval of integers.
type Integer struct {
	Low, High Bound
}

// Text is a string type, refined by the interval of its length and by whether
// every character is ASCII.
type Text struct {
	Length Integer
	ASCII  bool
}

// List is a variable-length sequence.
type List struct {
	Member Type
}

// Array is a sequence with a statically known length.
type Array struct {
	Member Type
	Length int
}

// Table is a map from keys to values.
type Table struct {
	Key, Value Type
}

func (Void) Kind() Kind    { return KindVoid }
func (Boolean) Kind() Kind { return KindBoolean }
func (Integer) Kind() Kind { return KindInteger }
func (Text) Kind() Kind    { return KindText }
func (List) Kind() Kind    { return KindList }
func (Array) Kind() Kind   { return KindArray }
func (Table) Kind() Kind   { return KindTable }

func (Void) isType()    {}
func (Boolean) isType() {}
func (Integer) isType() {}
func (Text) isType()    {}
func (List) isType()    {}
func (Array) isType()   {}
func (Table) isType()   {}

func (Void) String() string    { return "Void" }
func (Boolean) String() string { return "Bool" }

func (t Integer) String() string {
	if t.Low.IsNegInf() && t.High.IsPosInf() {
		return "Int"
	}
	return t.Low.String() + ".." + t.High.String()
}

func (t Text) String() string {
	name := "Text"
	if t.ASCII {
		name = "Ascii"
	}
	if t.Length.Equal(Nat()) {
		return name
	}
	return "(" + name + " " + t.Length.String() + ")"
}

func (t List) String() string  { return "(List " + t.Member.String() + ")" }
func (t Array) String() string { return fmt.Sprintf("(Array %s %d)", t.Member, t.Length) }
func (t Table) String() string { return "(Table " + t.Key.String() + " " + t.Value.String() + ")" }

// IntegerType builds an interval type. The interval must not be empty.
func IntegerType(low, high Bound) Integer {
	invariant.Precondition(!low.IsPosInf() && !high.IsNegInf(), "invalid integer bounds %s..%s", low, high)
	invariant.Precondition(low.Cmp(high) <= 0, "empty integer interval %s..%s", low, high)
	return Integer{Low: low, High: high}
}

// IntRange builds the interval low..high.
func IntRange(low, high int64) Integer { return IntegerType(Int(low), Int(high)) }

// IntConst is the singleton interval holding v.
func IntConst(v *big.Int) Integer { return Integer{Low: Finite(v), High: Finite(v)} }

// Unbounded is the type of all integers.
func Unbounded() Integer { return Integer{Low: NegInf(), High: PosInf()} }

// AtLeast is low..oo.
func AtLeast(low int64) Integer { return Integer{Low: Int(low), High: PosInf()} }

// Int64 is the range of a two's complement 64 bit integer.
func Int64() Integer { return IntRange(math.MinInt64, math.MaxInt64) }

// Int53 is the range of integers exactly representable by an IEEE double.
func Int53() Integer { return IntRange(-(1<<53 - 1), 1<<53-1) }

// Exceeds reports whether a finite bound of t lies outside repr. An
// unbounded side stands for a value of unknown size, such as a parsed input,
// and is taken to fit.
func Exceeds(t, repr Integer) bool {
	return t.Low.IsFinite() && t.Low.Cmp(repr.Low) < 0 ||
		t.High.IsFinite() && t.High.Cmp(repr.High) > 0
}

// Nat is the non-negative integers.
func Nat() Integer { return AtLeast(0) }

// TextType is text of any length and charset.
func TextType() Text { return Text{Length: Nat()} }

// AsciiType is ASCII text of any length.
func AsciiType() Text { return Text{Length: Nat(), ASCII: true} }

// TextOfLength is text whose length is exactly n.
func TextOfLength(n int64, ascii bool) Text {
	return Text{Length: IntRange(n, n), ASCII: ascii}
}

func ListOf(member Type) List {
	invariant.NotNil(member, "list member type")
	return List{Member: member}
}

func ArrayOf(member Type, length int) Array {
	invariant.NotNil(member, "array member type")
	invariant.Precondition(length >= 0, "array length must be non-negative, got %d", length)
	return Array{Member: member, Length: length}
}

func TableOf(key, value Type) Table {
	invariant.NotNil(key, "table key type")
	invariant.NotNil(value, "table value type")
	return Table{Key: key, Value: value}
}

// Contains reports whether v lies in the interval.
func (t Integer) Contains(v *big.Int) bool {
	return t.Low.CmpInt(v) <= 0 && t.High.CmpInt(v) >= 0
}

// Constant returns the single value of a singleton interval.
func (t Integer) Constant() (*big.Int, bool) {
	if t.Low.IsFinite() && t.Low.Cmp(t.High) == 0 {
		return t.Low.Value(), true
	}
	return nil, false
}

// IsFinite reports whether both ends are finite.
func (t Integer) IsFinite() bool { return t.Low.IsFinite() && t.High.IsFinite() }

func (t Integer) Equal(o Integer) bool {
	return t.Low.Cmp(o.Low) == 0 && t.High.Cmp(o.High) == 0
}
