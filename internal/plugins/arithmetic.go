package plugins

import (
	"fmt"
	"math/big"

	"github.com/opal-lang/golfc/core/infer"
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/spine"
	"github.com/opal-lang/golfc/core/types"
)

// Literals smaller than this are left alone: no decomposition can beat
// four digits.
var decomposeFloor = big.NewInt(1000)

// Factor pairs are only searched below this value.
var factorCeiling = big.NewInt(10_000_000_000)

// DecomposeIntLiteral offers shorter spellings of large positive literals:
// m*10^k, 2^k, 1<<k and the factor pair closest to the square root.
var DecomposeIntLiteral = plugin.NewMulti("decomposeIntLiteral", func(s *spine.Spine) []ir.Node {
	lit, ok := s.Node().(*ir.Integer)
	if !ok || lit.Value.Cmp(decomposeFloor) < 0 {
		return nil
	}
	v := lit.Value
	var alts []ir.Node

	if m, k := stripFactor(v, 10); k >= 3 {
		ten := ir.NewOp(ir.OpPow, ir.NewInt(10), ir.NewInt(int64(k)))
		if m.Cmp(big.NewInt(1)) == 0 {
			alts = append(alts, ten)
		} else {
			alts = append(alts, ir.NewOp(ir.OpMul, ir.NewBigInt(m), ten))
		}
	}
	if m, k := stripFactor(v, 2); k >= 7 && m.Cmp(big.NewInt(1)) == 0 {
		alts = append(alts,
			ir.NewOp(ir.OpPow, ir.NewInt(2), ir.NewInt(int64(k))),
			ir.NewOp(ir.OpBitShiftLeft, ir.NewInt(1), ir.NewInt(int64(k))),
		)
	}
	if a, b, ok := closestFactors(v); ok {
		alts = append(alts, ir.NewOp(ir.OpMul, ir.NewBigInt(a), ir.NewBigInt(b)))
	}
	return alts
})

// stripFactor divides f out of v as often as possible.
func stripFactor(v *big.Int, f int64) (*big.Int, int) {
	m := new(big.Int).Set(v)
	div := big.NewInt(f)
	rem := new(big.Int)
	k := 0
	for m.Sign() != 0 {
		q, r := new(big.Int).QuoRem(m, div, rem)
		if r.Sign() != 0 {
			break
		}
		m = q
		k++
	}
	return m, k
}

// closestFactors finds a*b == v with 1 < a <= b and a as large as possible.
func closestFactors(v *big.Int) (*big.Int, *big.Int, bool) {
	if v.Cmp(factorCeiling) >= 0 {
		return nil, nil, false
	}
	n := v.Int64()
	for a := new(big.Int).Sqrt(v).Int64(); a > 1; a-- {
		if n%a == 0 {
			return big.NewInt(a), big.NewInt(n / a), true
		}
	}
	return nil, nil, false
}

// fits reports whether the integer computed at s, shifted by delta, stays in
// repr. Inference failures count as not fitting.
func fits(s *spine.Spine, delta int64, repr types.Integer) bool {
	t, ok := infer.IntegerType(s)
	if !ok {
		return false
	}
	shifted := types.Add(t, types.IntRange(delta, delta))
	return types.IsSubtype(shifted, repr)
}

func opChild(s *spine.Spine, i int) *spine.Spine {
	return s.Child(ir.Indexed("args", i))
}

// LeqToLt rewrites a<=b as a<b+1 or a-1<b. Each alternative is offered only
// when the shifted operand provably stays inside repr.
func LeqToLt(repr types.Integer) plugin.Plugin {
	return plugin.NewMulti("leqToLt", func(s *spine.Spine) []ir.Node {
		op, ok := s.Node().(*ir.Op)
		if !ok || op.Op != ir.OpLeq {
			return nil
		}
		var alts []ir.Node
		if fits(opChild(s, 1), 1, repr) {
			alts = append(alts, ir.NewOp(ir.OpLt, op.Args[0], ir.Succ(op.Args[1])))
		}
		if fits(opChild(s, 0), -1, repr) {
			alts = append(alts, ir.NewOp(ir.OpLt, ir.Pred(op.Args[0]), op.Args[1]))
		}
		return alts
	})
}

// GeqToGt rewrites a>=b as a>b-1 or a+1>b, under the same guard as LeqToLt.
func GeqToGt(repr types.Integer) plugin.Plugin {
	return plugin.NewMulti("geqToGt", func(s *spine.Spine) []ir.Node {
		op, ok := s.Node().(*ir.Op)
		if !ok || op.Op != ir.OpGeq {
			return nil
		}
		var alts []ir.Node
		if fits(opChild(s, 1), -1, repr) {
			alts = append(alts, ir.NewOp(ir.OpGt, op.Args[0], ir.Pred(op.Args[1])))
		}
		if fits(opChild(s, 0), 1, repr) {
			alts = append(alts, ir.NewOp(ir.OpGt, ir.Succ(op.Args[0]), op.Args[1]))
		}
		return alts
	})
}

// EqualityToInequality turns a comparison against an extreme value of the
// other operand's range into a one-sided test: with x in a..b, x==b becomes
// x>b-1 and x!=b becomes x<b.
var EqualityToInequality = plugin.New("equalityToInequality", func(s *spine.Spine) ir.Node {
	op, ok := s.Node().(*ir.Op)
	if !ok || (op.Op != ir.OpEqInt && op.Op != ir.OpNeqInt) {
		return nil
	}
	for i := range 2 {
		lit, ok := op.Args[1-i].(*ir.Integer)
		if !ok {
			continue
		}
		t, ok := infer.IntegerType(opChild(s, i))
		if !ok {
			continue
		}
		x := op.Args[i]
		c := lit.Value
		atHigh := t.High.IsFinite() && t.High.CmpInt(c) == 0
		atLow := t.Low.IsFinite() && t.Low.CmpInt(c) == 0
		if atHigh == atLow {
			continue // a constant or unrelated value
		}
		switch {
		case op.Op == ir.OpEqInt && atHigh:
			return ir.NewOp(ir.OpGt, x, ir.Pred(lit))
		case op.Op == ir.OpEqInt && atLow:
			return ir.NewOp(ir.OpLt, x, ir.Succ(lit))
		case atHigh:
			return ir.NewOp(ir.OpLt, x, lit)
		default:
			return ir.NewOp(ir.OpGt, x, lit)
		}
	}
	return nil
})

var dual = map[ir.OpCode]ir.OpCode{ir.OpAnd: ir.OpOr, ir.OpOr: ir.OpAnd}

// ApplyDeMorgans moves negation across and/or in whichever direction the
// current shape allows, and cancels double negation.
var ApplyDeMorgans = plugin.New("applyDeMorgans", func(s *spine.Spine) ir.Node {
	op, ok := s.Node().(*ir.Op)
	if !ok {
		return nil
	}
	switch op.Op {
	case ir.OpNot:
		inner, ok := op.Args[0].(*ir.Op)
		if !ok {
			return nil
		}
		if inner.Op == ir.OpNot {
			return inner.Args[0]
		}
		if d, ok := dual[inner.Op]; ok {
			return ir.NewOp(d, ir.NewOp(ir.OpNot, inner.Args[0]), ir.NewOp(ir.OpNot, inner.Args[1]))
		}
	case ir.OpAnd, ir.OpOr:
		if ir.IsOp(op.Args[0], ir.OpNot) && ir.IsOp(op.Args[1], ir.OpNot) {
			a := op.Args[0].(*ir.Op).Args[0]
			b := op.Args[1].(*ir.Op).Args[0]
			return ir.NewOp(ir.OpNot, ir.NewOp(dual[op.Op], a, b))
		}
	}
	return nil
})

// IncrementToBitNot rewrites x+1 as -~x.
var IncrementToBitNot = plugin.New("incrementToBitNot", func(s *spine.Spine) ir.Node {
	if x, ok := plusConstant(s.Node(), 1); ok {
		return ir.NewOp(ir.OpNeg, ir.NewOp(ir.OpBitNot, x))
	}
	return nil
})

// DecrementToBitNot rewrites x-1 as ~-x.
var DecrementToBitNot = plugin.New("decrementToBitNot", func(s *spine.Spine) ir.Node {
	if x, ok := plusConstant(s.Node(), -1); ok {
		return ir.NewOp(ir.OpBitNot, ir.NewOp(ir.OpNeg, x))
	}
	return nil
})

// BitNotPlugins are the two's-complement increment and decrement tricks.
func BitNotPlugins() []plugin.Plugin {
	return []plugin.Plugin{IncrementToBitNot, DecrementToBitNot}
}

// plusConstant matches x+c, c+x and, for negative c, x-|c|.
func plusConstant(n ir.Node, c int64) (ir.Node, bool) {
	op, ok := n.(*ir.Op)
	if !ok {
		return nil, false
	}
	switch op.Op {
	case ir.OpAdd:
		if ir.IsIntLiteral(op.Args[1], c) {
			return op.Args[0], true
		}
		if ir.IsIntLiteral(op.Args[0], c) {
			return op.Args[1], true
		}
	case ir.OpSub:
		if ir.IsIntLiteral(op.Args[1], -c) {
			return op.Args[0], true
		}
	}
	return nil, false
}

// BitShiftToMulOrDiv converts shifts by a literal into multiplication or
// floor division by a power of two, and back.
var BitShiftToMulOrDiv = plugin.New("bitShiftToMulOrDiv", func(s *spine.Spine) ir.Node {
	op, ok := s.Node().(*ir.Op)
	if !ok || len(op.Args) != 2 {
		return nil
	}
	lit, ok := op.Args[1].(*ir.Integer)
	if !ok {
		return nil
	}
	switch op.Op {
	case ir.OpBitShiftLeft, ir.OpBitShiftRight:
		if lit.Value.Sign() < 0 || !lit.Value.IsInt64() || lit.Value.Int64() > 64 {
			return nil
		}
		p := ir.NewBigInt(new(big.Int).Lsh(big.NewInt(1), uint(lit.Value.Int64())))
		if op.Op == ir.OpBitShiftLeft {
			return ir.NewOp(ir.OpMul, op.Args[0], p)
		}
		return ir.NewOp(ir.OpDiv, op.Args[0], p)
	case ir.OpMul, ir.OpDiv:
		m, k := stripFactor(lit.Value, 2)
		if k == 0 || m.Cmp(big.NewInt(1)) != 0 {
			return nil
		}
		code := ir.OpBitShiftLeft
		if op.Op == ir.OpDiv {
			code = ir.OpBitShiftRight
		}
		return ir.NewOp(code, op.Args[0], ir.NewInt(int64(k)))
	}
	return nil
})

// FlipBinaryOps swaps the operands of commutative ops and mirrors
// comparisons.
var FlipBinaryOps = plugin.New("flipBinaryOps", func(s *spine.Spine) ir.Node {
	op, ok := s.Node().(*ir.Op)
	if !ok || len(op.Args) != 2 {
		return nil
	}
	flipped, ok := op.Op.Flipped()
	if !ok {
		return nil
	}
	return ir.NewOp(flipped, op.Args[1], op.Args[0])
})

// AssertIntRepr rejects integer literals, integer-valued ops and variable
// declarations whose type provably leaves repr, the target's only integer
// representation. Nodes of unknown type or size pass.
func AssertIntRepr(repr types.Integer) plugin.Plugin {
	return plugin.NewCheck("assertIntRepr", func(s *spine.Spine) *plugin.Rejection {
		var t types.Type
		op := ""
		switch n := s.Node().(type) {
		case *ir.VarDeclaration:
			t = n.VariableType
		case *ir.Integer:
			t = types.IntConst(n.Value)
		case *ir.Op:
			it, ok := infer.IntegerType(s)
			if !ok {
				return nil
			}
			t, op = it, n.Op.String()
		default:
			return nil
		}
		it, ok := t.(types.Integer)
		if !ok || !types.Exceeds(it, repr) {
			return nil
		}
		return &plugin.Rejection{Op: op, Reason: fmt.Sprintf("integer of type %s does not fit %s", it, repr)}
	})
}

// MulToPow rewrites x*x as x^2.
var MulToPow = plugin.New("mulToPow", func(s *spine.Spine) ir.Node {
	op, ok := s.Node().(*ir.Op)
	if !ok || op.Op != ir.OpMul || len(op.Args) != 2 || !ir.Equal(op.Args[0], op.Args[1]) || !pure(op.Args[0]) {
		return nil
	}
	return ir.NewOp(ir.OpPow, op.Args[0], ir.NewInt(2))
})

// PowToMul rewrites x^2 as x*x when x is a plain variable.
var PowToMul = plugin.New("powToMul", func(s *spine.Spine) ir.Node {
	op, ok := s.Node().(*ir.Op)
	if !ok || op.Op != ir.OpPow || !ir.IsIntLiteral(op.Args[1], 2) {
		return nil
	}
	if _, ok := identName(op.Args[0]); !ok {
		return nil
	}
	return ir.NewOp(ir.OpMul, op.Args[0], op.Args[0])
})

// PowPlugins convert between squaring by multiplication and by exponent.
func PowPlugins() []plugin.Plugin {
	return []plugin.Plugin{MulToPow, PowToMul}
}

// lowBitsMask returns k when v is 2^k with k >= 1.
func lowBitsMask(v *big.Int) (int, bool) {
	m, k := stripFactor(v, 2)
	return k, k >= 1 && m.Cmp(big.NewInt(1)) == 0
}

// LowBitsPlugins convert between x mod 2^k and x & (2^k-1), which agree on
// every integer in two's complement. bitwise is the range the target's
// bitwise operators are exact on.
func LowBitsPlugins(bitwise types.Integer) []plugin.Plugin {
	modToBitAnd := plugin.New("modToBitAnd", func(s *spine.Spine) ir.Node {
		op, ok := s.Node().(*ir.Op)
		if !ok || op.Op != ir.OpMod {
			return nil
		}
		lit, ok := op.Args[1].(*ir.Integer)
		if !ok {
			return nil
		}
		if _, ok := lowBitsMask(lit.Value); !ok {
			return nil
		}
		if t, ok := infer.IntegerType(opChild(s, 0)); !ok || !types.IsSubtype(t, bitwise) {
			return nil
		}
		mask := new(big.Int).Sub(lit.Value, big.NewInt(1))
		return ir.NewOp(ir.OpBitAnd, op.Args[0], ir.NewBigInt(mask))
	})
	bitAndToMod := plugin.New("bitAndToMod", func(s *spine.Spine) ir.Node {
		op, ok := s.Node().(*ir.Op)
		if !ok || op.Op != ir.OpBitAnd || len(op.Args) != 2 {
			return nil
		}
		for i, arg := range op.Args {
			lit, ok := arg.(*ir.Integer)
			if !ok {
				continue
			}
			m := new(big.Int).Add(lit.Value, big.NewInt(1))
			if _, ok := lowBitsMask(m); ok {
				return ir.NewOp(ir.OpMod, op.Args[1-i], ir.NewBigInt(m))
			}
		}
		return nil
	})
	return []plugin.Plugin{modToBitAnd, bitAndToMod}
}

// UseIntegerTruthiness drops comparisons with zero where only the truth of
// the result is read: x!=0 becomes x and x==0 becomes !x.
var UseIntegerTruthiness = plugin.New("useIntegerTruthiness", func(s *spine.Spine) ir.Node {
	op, ok := s.Node().(*ir.Op)
	if !ok || (op.Op != ir.OpEqInt && op.Op != ir.OpNeqInt) || !truthTested(s) {
		return nil
	}
	var x ir.Node
	switch {
	case ir.IsIntLiteral(op.Args[1], 0):
		x = op.Args[0]
	case ir.IsIntLiteral(op.Args[0], 0):
		x = op.Args[1]
	default:
		return nil
	}
	b := ir.NewOp(ir.OpIntToBool, x)
	if op.Op == ir.OpEqInt {
		return ir.NewOp(ir.OpNot, b)
	}
	return b
})

// truthTested reports whether the boolean at s is only used as a condition.
func truthTested(s *spine.Spine) bool {
	for ; !s.IsRoot(); s = s.Parent() {
		switch p := s.Parent().Node().(type) {
		case *ir.If, *ir.While:
			return s.PathFragment().Field == "condition"
		case *ir.Op:
			if p.Op != ir.OpAnd && p.Op != ir.OpOr && p.Op != ir.OpNot {
				return false
			}
		default:
			return false
		}
	}
	return false
}
