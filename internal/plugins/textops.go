package plugins

import (
	"fmt"
	"math/big"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/opal-lang/golfc/core/invariant"
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/spine"
)

// Text ops come in three flavours: [Ascii] for text known to be ASCII and
// [byte] / [codepoint] for the two ways a target can index general text.

// UsePrimaryTextOps implements each [Ascii] op by its [byte] or [codepoint]
// variant, whichever the target indexes text by.
func UsePrimaryTextOps(char string) plugin.Plugin {
	return plugin.New(fmt.Sprintf("usePrimaryTextOps(%q)", char), func(s *spine.Spine) ir.Node {
		op, ok := s.Node().(*ir.Op)
		if !ok {
			return nil
		}
		if code, ok := op.Op.Variant("Ascii", char); ok {
			return ir.NewOp(code, op.Args...)
		}
		return nil
	})
}

func composeOp(outer, inner ir.OpCode) OpRule {
	return func(a []ir.Node) ir.Node { return ir.NewOp(outer, ir.NewOp(inner, a...)) }
}

// TextGetToIntToTextGet splits ord_at into ord of at.
var TextGetToIntToTextGet = MapOps("textGetToIntToTextGet", map[ir.OpCode]OpRule{
	ir.OpOrdAtAscii:         composeOp(ir.OpOrdAscii, ir.OpAtAscii),
	ir.OpOrdAtByte:          composeOp(ir.OpOrdByte, ir.OpAtByte),
	ir.OpOrdAtCodepoint:     composeOp(ir.OpOrdCodepoint, ir.OpAtCodepoint),
	ir.OpOrdAtBackAscii:     composeOp(ir.OpOrdAscii, ir.OpAtBackAscii),
	ir.OpOrdAtBackByte:      composeOp(ir.OpOrdByte, ir.OpAtBackByte),
	ir.OpOrdAtBackCodepoint: composeOp(ir.OpOrdCodepoint, ir.OpAtBackCodepoint),
})

func fuseOrd(at, ordAt ir.OpCode) OpRule {
	return func(a []ir.Node) ir.Node {
		if inner, ok := a[0].(*ir.Op); ok && inner.Op == at {
			return ir.NewOp(ordAt, inner.Args...)
		}
		return nil
	}
}

// TextToIntToTextGetToInt fuses ord(at(s, i)) into ord_at(s, i).
var TextToIntToTextGetToInt = MapOps("textToIntToTextGetToInt", map[ir.OpCode]OpRule{
	ir.OpOrdByte:      fuseOrd(ir.OpAtByte, ir.OpOrdAtByte),
	ir.OpOrdCodepoint: fuseOrd(ir.OpAtCodepoint, ir.OpOrdAtCodepoint),
})

// TextGetToTextGetToIntToText reads a character as char(ord_at(s, i)).
var TextGetToTextGetToIntToText = MapOps("textGetToTextGetToIntToText", map[ir.OpCode]OpRule{
	ir.OpAtByte:      composeOp(ir.OpCharByte, ir.OpOrdAtByte),
	ir.OpAtCodepoint: composeOp(ir.OpCharCodepoint, ir.OpOrdAtCodepoint),
})

func ordAtZero(code ir.OpCode) OpRule {
	return func(a []ir.Node) ir.Node { return ir.NewOp(code, a[0], ir.NewInt(0)) }
}

// TextToIntToFirstIndexTextGetToInt reads ord(s) as ord_at(s, 0).
var TextToIntToFirstIndexTextGetToInt = MapOps("textToIntToFirstIndexTextGetToInt", map[ir.OpCode]OpRule{
	ir.OpOrdAscii:     ordAtZero(ir.OpOrdAtAscii),
	ir.OpOrdByte:      ordAtZero(ir.OpOrdAtByte),
	ir.OpOrdCodepoint: ordAtZero(ir.OpOrdAtCodepoint),
})

// UseMultireplace merges nested replacements of text literals into one
// text_multireplace, provided no replacement can see the output of an
// earlier one. With singleCharInputsOnly every searched text must be a
// single character.
func UseMultireplace(singleCharInputsOnly bool) plugin.Plugin {
	return plugin.New("useMultireplace", func(s *spine.Spine) ir.Node {
		outer, ok := s.Node().(*ir.Op)
		if !ok || !isReplace(outer) {
			return nil
		}
		inner, ok := outer.Args[0].(*ir.Op)
		if !ok || !isReplace(inner) {
			return nil
		}
		a, okA := textValues(inner.Args[1:])
		b, okB := textValues(outer.Args[1:])
		if !okA || !okB {
			return nil
		}
		aIn, aOut := evensOdds(a)
		bIn, bOut := evensOdds(b)
		if singleCharInputsOnly {
			for _, x := range append(slices.Clone(aIn), bIn...) {
				if utf8.RuneCountInString(x) != 1 {
					return nil
				}
			}
		}
		if overlaps(aIn, bIn) || overlaps(bIn, aOut) || overlaps(aIn, bOut) {
			return nil
		}
		args := append(slices.Clone(inner.Args), outer.Args[1:]...)
		return ir.NewOp(ir.OpTextMultireplace, args...)
	})
}

func isReplace(op *ir.Op) bool {
	return op.Op == ir.OpReplace || op.Op == ir.OpTextMultireplace
}

func textValues(ns []ir.Node) ([]string, bool) {
	out := make([]string, len(ns))
	for i, n := range ns {
		t, ok := n.(*ir.Text)
		if !ok {
			return nil, false
		}
		out[i] = t.Value
	}
	return out, true
}

func evensOdds(xs []string) (evens, odds []string) {
	for i, x := range xs {
		if i%2 == 0 {
			evens = append(evens, x)
		} else {
			odds = append(odds, x)
		}
	}
	return evens, odds
}

// overlaps reports whether any character of xs occurs in ys.
func overlaps(xs, ys []string) bool {
	joined := strings.Join(ys, "")
	for _, x := range xs {
		if strings.ContainsAny(joined, x) {
			return true
		}
	}
	return false
}

// ReplaceToSplitAndJoin spells replace(x, y, z) as join(split(x, y), z).
var ReplaceToSplitAndJoin = MapOps("replaceToSplitAndJoin", map[ir.OpCode]OpRule{
	ir.OpReplace: func(a []ir.Node) ir.Node {
		return ir.NewOp(ir.OpJoin, ir.NewOp(ir.OpSplit, a[0], a[1]), a[2])
	},
})

// StartsWithEndsWithToSliceEquality compares a prefix or suffix slice of
// the text with the searched text.
func StartsWithEndsWithToSliceEquality(char string) plugin.Plugin {
	slice, ok1 := ir.OpSliceAscii.Variant("Ascii", char)
	sliceBack, ok2 := ir.OpSliceBackAscii.Variant("Ascii", char)
	size, ok3 := ir.OpSizeAscii.Variant("Ascii", char)
	invariant.Precondition(ok1 && ok2 && ok3, "no text ops indexed by %q", char)
	return MapOps(fmt.Sprintf("startsWithEndsWithToSliceEquality(%q)", char), map[ir.OpCode]OpRule{
		ir.OpStartsWith: func(a []ir.Node) ir.Node {
			return ir.NewOp(ir.OpEqText, ir.NewOp(slice, a[0], ir.NewInt(0), ir.NewOp(size, a[1])), a[1])
		},
		ir.OpEndsWith: func(a []ir.Node) ir.Node {
			n := ir.NewOp(size, a[1])
			return ir.NewOp(ir.OpEqText, ir.NewOp(sliceBack, a[0], ir.NewOp(ir.OpNeg, n), n), a[1])
		},
	})
}

type backwardsIndex struct {
	back, size ir.OpCode
}

var backwardsIndexes = map[ir.OpCode]backwardsIndex{
	ir.OpAtByte:         {ir.OpAtBackByte, ir.OpSizeByte},
	ir.OpAtCodepoint:    {ir.OpAtBackCodepoint, ir.OpSizeCodepoint},
	ir.OpAtAscii:        {ir.OpAtBackAscii, ir.OpSizeAscii},
	ir.OpOrdAtByte:      {ir.OpOrdAtBackByte, ir.OpSizeByte},
	ir.OpOrdAtCodepoint: {ir.OpOrdAtBackCodepoint, ir.OpSizeCodepoint},
	ir.OpOrdAtAscii:     {ir.OpOrdAtBackAscii, ir.OpSizeAscii},
	ir.OpAtList:         {ir.OpAtBackList, ir.OpSizeList},
	ir.OpWithAtList:     {ir.OpWithAtBackList, ir.OpSizeList},
}

// UseBackwardsIndex rewrites x[size(x)-k] as the backwards index x[-k]. Only
// the listed forward ops are rewritten, so a target names those whose
// backwards variant it can render.
func UseBackwardsIndex(ops ...ir.OpCode) plugin.Plugin {
	for _, code := range ops {
		_, ok := backwardsIndexes[code]
		invariant.Precondition(ok, "%s has no backwards variant", code)
	}
	return plugin.New("useBackwardsIndex", func(s *spine.Spine) ir.Node {
		op, ok := s.Node().(*ir.Op)
		if !ok || !slices.Contains(ops, op.Op) {
			return nil
		}
		bi := backwardsIndexes[op.Op]
		k, ok := distanceFromEnd(op.Args[1], bi.size, op.Args[0])
		if !ok {
			return nil
		}
		args := slices.Clone(op.Args)
		args[1] = k
		return ir.NewOp(bi.back, args...)
	})
}

// distanceFromEnd matches size(coll)-k and size(coll)+(-k) and returns -k.
func distanceFromEnd(index ir.Node, size ir.OpCode, coll ir.Node) (ir.Node, bool) {
	op, ok := index.(*ir.Op)
	if !ok || len(op.Args) != 2 || !pure(coll) {
		return nil, false
	}
	s, ok := op.Args[0].(*ir.Op)
	if !ok || s.Op != size || !ir.Equal(s.Args[0], coll) {
		return nil, false
	}
	k := op.Args[1]
	lit, isLit := k.(*ir.Integer)
	switch op.Op {
	case ir.OpSub:
		if isLit {
			if lit.Value.Sign() <= 0 {
				return nil, false
			}
			return ir.NewBigInt(new(big.Int).Neg(lit.Value)), true
		}
		return ir.NewOp(ir.OpNeg, k), true
	case ir.OpAdd:
		if isLit && lit.Value.Sign() < 0 {
			return k, true
		}
	}
	return nil, false
}

// listDelimiters are tried in order when packing a text list into one text.
var listDelimiters = []string{" ", ",", ";", "|", "/", ".", "-", "_", "#"}

// GolfStringListLiteral spells a list of text literals as one text split
// on a delimiter none of them contains. With whitespace set it also offers
// splitting on whitespace when no element is empty or contains any.
func GolfStringListLiteral(whitespace bool) plugin.Plugin {
	return plugin.NewMulti("golfStringListLiteral", func(s *spine.Spine) []ir.Node {
		l, ok := s.Node().(*ir.List)
		if !ok || len(l.Exprs) < 2 {
			return nil
		}
		values, ok := textValues(l.Exprs)
		if !ok {
			return nil
		}
		var alts []ir.Node
		if whitespace && !slices.ContainsFunc(values, func(v string) bool {
			return v == "" || strings.ContainsFunc(v, unicode.IsSpace)
		}) {
			alts = append(alts, ir.NewOp(ir.OpSplitWhitespace, ir.NewText(strings.Join(values, " "))))
		}
		for _, d := range listDelimiters {
			if !slices.ContainsFunc(values, func(v string) bool { return strings.Contains(v, d) }) {
				alts = append(alts, ir.NewOp(ir.OpSplit, ir.NewText(strings.Join(values, d)), ir.NewText(d)))
				break
			}
		}
		return alts
	})
}
