package types

import (
	"math/big"

	"github.com/opal-lang/golfc/core/invariant"
)

// Bound is one inclusive end of an integer interval: an arbitrary precision
// value or an infinity. Bounds are immutable; every operation allocates.
type Bound struct {
	inf   int8 // -1 for -oo, +1 for oo, 0 when finite
	value *big.Int
}

// NegInf returns the -oo bound.
func NegInf() Bound { return Bound{inf: -1} }

// PosInf returns the oo bound.
func PosInf() Bound { return Bound{inf: 1} }

// Finite returns a bound holding a copy of v.
func Finite(v *big.Int) Bound {
	invariant.NotNil(v, "bound value")
	return Bound{value: new(big.Int).Set(v)}
}

// Int returns a finite bound for v.
func Int(v int64) Bound { return Bound{value: big.NewInt(v)} }

func (b Bound) IsFinite() bool { return b.inf == 0 }
func (b Bound) IsNegInf() bool { return b.inf < 0 }
func (b Bound) IsPosInf() bool { return b.inf > 0 }

// Value returns a copy of a finite bound's value.
func (b Bound) Value() *big.Int {
	invariant.Precondition(b.IsFinite(), "Value called on infinite bound %s", b)
	return new(big.Int).Set(b.value)
}

// Sign returns -1, 0 or +1.
func (b Bound) Sign() int {
	if b.inf != 0 {
		return int(b.inf)
	}
	return b.value.Sign()
}

// Cmp compares two bounds with -oo < every finite value < oo.
func (b Bound) Cmp(o Bound) int {
	if b.inf != 0 || o.inf != 0 {
		switch {
		case b.inf == o.inf:
			return 0
		case b.inf < o.inf:
			return -1
		default:
			return 1
		}
	}
	return b.value.Cmp(o.value)
}

// CmpInt compares the bound with a finite value.
func (b Bound) CmpInt(v *big.Int) int { return b.Cmp(Bound{value: v}) }

func (b Bound) Neg() Bound {
	if b.inf != 0 {
		return Bound{inf: -b.inf}
	}
	return Bound{value: new(big.Int).Neg(b.value)}
}

// Add sums two bounds. Adding opposite infinities is a caller bug: interval
// arithmetic only ever adds two lower or two upper ends.
func (b Bound) Add(o Bound) Bound {
	invariant.Precondition(b.inf == 0 || o.inf == 0 || b.inf == o.inf, "cannot add %s and %s", b, o)
	if b.inf != 0 {
		return b
	}
	if o.inf != 0 {
		return o
	}
	return Bound{value: new(big.Int).Add(b.value, o.value)}
}

func (b Bound) AddInt(v int64) Bound { return b.Add(Int(v)) }

// Mul multiplies two bounds; zero times an infinity is zero.
func (b Bound) Mul(o Bound) Bound {
	if b.inf == 0 && o.inf == 0 {
		return Bound{value: new(big.Int).Mul(b.value, o.value)}
	}
	s := b.Sign() * o.Sign()
	if s == 0 {
		return Int(0)
	}
	return Bound{inf: int8(s)}
}

func (b Bound) Abs() Bound {
	if b.Sign() < 0 {
		return b.Neg()
	}
	return b
}

func (b Bound) String() string {
	switch {
	case b.inf < 0:
		return "-oo"
	case b.inf > 0:
		return "oo"
	default:
		return b.value.String()
	}
}

// MinBound returns the smaller of the bounds.
func MinBound(bs ...Bound) Bound {
	invariant.Precondition(len(bs) > 0, "MinBound needs at least one bound")
	m := bs[0]
	for _, b := range bs[1:] {
		if b.Cmp(m) < 0 {
			m = b
		}
	}
	return m
}

// MaxBound returns the larger of the bounds.
func MaxBound(bs ...Bound) Bound {
	invariant.Precondition(len(bs) > 0, "MaxBound needs at least one bound")
	m := bs[0]
	for _, b := range bs[1:] {
		if b.Cmp(m) > 0 {
			m = b
		}
	}
	return m
}
