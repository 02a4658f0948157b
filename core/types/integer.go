package types

import "math/big"

// Interval arithmetic over Integer. Every function returns a sound (possibly
// loose) interval containing every result of the operation on members of the
// operands.

// maxShift caps exponents and shift amounts that are evaluated exactly.
const maxShift = 1024

func Add(a, b Integer) Integer {
	return Integer{Low: a.Low.Add(b.Low), High: a.High.Add(b.High)}
}

func Sub(a, b Integer) Integer {
	return Add(a, Neg(b))
}

func Neg(a Integer) Integer {
	return Integer{Low: a.High.Neg(), High: a.Low.Neg()}
}

func Mul(a, b Integer) Integer {
	corners := []Bound{a.Low.Mul(b.Low), a.Low.Mul(b.High), a.High.Mul(b.Low), a.High.Mul(b.High)}
	return Integer{Low: MinBound(corners...), High: MaxBound(corners...)}
}

func Abs(a Integer) Integer {
	switch {
	case a.Low.Sign() >= 0:
		return a
	case a.High.Sign() <= 0:
		return Neg(a)
	default:
		return Integer{Low: Int(0), High: MaxBound(a.Low.Neg(), a.High)}
	}
}

// Succ is a+1.
func Succ(a Integer) Integer { return Add(a, IntRange(1, 1)) }

// Pred is a-1.
func Pred(a Integer) Integer { return Add(a, IntRange(-1, -1)) }

func Min(a, b Integer) Integer {
	return Integer{Low: MinBound(a.Low, b.Low), High: MinBound(a.High, b.High)}
}

func Max(a, b Integer) Integer {
	return Integer{Low: MaxBound(a.Low, b.Low), High: MaxBound(a.High, b.High)}
}

// magnitude is the largest absolute value in the interval.
func magnitude(a Integer) Bound {
	return MaxBound(a.Low.Abs(), a.High.Abs())
}

func containsZero(a Integer) bool {
	return a.Low.Sign() <= 0 && a.High.Sign() >= 0
}

// division implements floor and truncating division.
func division(a, b Integer, floor bool) Integer {
	if containsZero(b) {
		return Unbounded()
	}
	if a.IsFinite() && b.IsFinite() {
		var corners []Bound
		for _, x := range []Bound{a.Low, a.High} {
			for _, y := range []Bound{b.Low, b.High} {
				q := new(big.Int)
				if floor {
					m := new(big.Int)
					q.DivMod(x.value, y.value, m)
					// DivMod is Euclidean; adjust to floor for negative divisors.
					if m.Sign() != 0 && y.value.Sign() < 0 {
						q.Sub(q, big.NewInt(1))
					}
				} else {
					q.Quo(x.value, y.value)
				}
				corners = append(corners, Bound{value: q})
			}
		}
		return Integer{Low: MinBound(corners...), High: MaxBound(corners...)}
	}
	m := MaxBound(magnitude(a), Int(1))
	return Integer{Low: m.Neg(), High: m}
}

// FloorDiv is division rounding towards -oo.
func FloorDiv(a, b Integer) Integer { return division(a, b, true) }

// TruncDiv is division rounding towards zero.
func TruncDiv(a, b Integer) Integer { return division(a, b, false) }

// Mod is the remainder taking the sign of the divisor.
func Mod(a, b Integer) Integer {
	switch {
	case b.Low.Sign() > 0:
		high := b.High.AddInt(-1)
		if a.Low.Sign() >= 0 {
			high = MinBound(high, a.High)
		}
		return Integer{Low: Int(0), High: high}
	case b.High.Sign() < 0:
		low := b.Low.AddInt(1)
		if a.High.Sign() <= 0 {
			low = MaxBound(low, a.Low)
		}
		return Integer{Low: low, High: Int(0)}
	default:
		m := magnitude(b)
		if m.IsFinite() {
			m = m.AddInt(-1)
		}
		return Integer{Low: MinBound(m.Neg(), Int(0)), High: MaxBound(m, Int(0))}
	}
}

// Rem is the remainder taking the sign of the dividend.
func Rem(a, b Integer) Integer {
	m := magnitude(b)
	if m.IsFinite() {
		m = MaxBound(m.AddInt(-1), Int(0))
	}
	switch {
	case a.Low.Sign() >= 0:
		return Integer{Low: Int(0), High: MinBound(a.High, m)}
	case a.High.Sign() <= 0:
		return Integer{Low: MaxBound(a.Low, m.Neg()), High: Int(0)}
	default:
		return Integer{Low: MaxBound(a.Low, m.Neg()), High: MinBound(a.High, m)}
	}
}

// Pow is exponentiation with a non-negative exponent; negative exponents give
// an unbounded result.
func Pow(a, b Integer) Integer {
	if b.Low.Sign() < 0 {
		return Unbounded()
	}
	exact := b.High.IsFinite() && b.High.CmpInt(big.NewInt(maxShift)) <= 0
	if a.Low.Sign() >= 0 {
		low := Int(0)
		if a.Low.Sign() > 0 {
			low = a.Low
			if b.Low.CmpInt(big.NewInt(maxShift)) <= 0 {
				low = Bound{value: new(big.Int).Exp(a.Low.value, b.Low.value, nil)}
			}
		}
		if !exact || !a.High.IsFinite() {
			return Integer{Low: low, High: PosInf()}
		}
		high := Bound{value: new(big.Int).Exp(a.High.value, b.High.value, nil)}
		return Integer{Low: low, High: MaxBound(high, Int(1))}
	}
	m := magnitude(a)
	if !exact || !m.IsFinite() {
		return Unbounded()
	}
	p := Bound{value: new(big.Int).Exp(m.value, b.High.value, nil)}
	p = MaxBound(p, Int(1))
	return Integer{Low: p.Neg(), High: p}
}

func BitNot(a Integer) Integer {
	return Integer{Low: a.High.Neg().AddInt(-1), High: a.Low.Neg().AddInt(-1)}
}

func BitAnd(a, b Integer) Integer {
	switch {
	case a.Low.Sign() >= 0 && b.Low.Sign() >= 0:
		return Integer{Low: Int(0), High: MinBound(a.High, b.High)}
	case a.Low.Sign() >= 0:
		return Integer{Low: Int(0), High: a.High}
	case b.Low.Sign() >= 0:
		return Integer{Low: Int(0), High: b.High}
	default:
		return Unbounded()
	}
}

// BitOr covers both or and xor.
func BitOr(a, b Integer) Integer {
	if a.Low.Sign() < 0 || b.Low.Sign() < 0 {
		return Unbounded()
	}
	top := MaxBound(a.High, b.High)
	if !top.IsFinite() {
		return Integer{Low: Int(0), High: PosInf()}
	}
	// all ones up to the bit length of the larger operand
	limit := new(big.Int).Lsh(big.NewInt(1), uint(top.value.BitLen()))
	return Integer{Low: Int(0), High: Bound{value: limit.Sub(limit, big.NewInt(1))}}
}

func powerOfTwo(b Integer) (Integer, bool) {
	if b.Low.Sign() < 0 || !b.High.IsFinite() || b.High.CmpInt(big.NewInt(maxShift)) > 0 {
		return Integer{}, false
	}
	low := new(big.Int).Lsh(big.NewInt(1), uint(b.Low.value.Int64()))
	high := new(big.Int).Lsh(big.NewInt(1), uint(b.High.value.Int64()))
	return Integer{Low: Bound{value: low}, High: Bound{value: high}}, true
}

func ShiftLeft(a, b Integer) Integer {
	p, ok := powerOfTwo(b)
	if !ok {
		return Unbounded()
	}
	return Mul(a, p)
}

func ShiftRight(a, b Integer) Integer {
	if b.Low.Sign() < 0 {
		return Unbounded()
	}
	if p, ok := powerOfTwo(b); ok {
		return FloorDiv(a, p)
	}
	if a.Low.Sign() >= 0 {
		return Integer{Low: Int(0), High: a.High}
	}
	return Integer{Low: a.Low, High: MaxBound(a.High, Int(0))}
}

// Gcd is always non-negative and bounded by the larger magnitude.
func Gcd(a, b Integer) Integer {
	return Integer{Low: Int(0), High: MaxBound(magnitude(a), magnitude(b))}
}
