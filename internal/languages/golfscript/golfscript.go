// Package golfscript targets GolfScript, a stack language whose programs
// are written in postfix and whose final stack is printed implicitly.
package golfscript

import (
	"math/big"

	"github.com/opal-lang/golfc/core/emit"
	"github.com/opal-lang/golfc/core/engine"
	"github.com/opal-lang/golfc/core/infer"
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/spine"
	"github.com/opal-lang/golfc/core/types"
	"github.com/opal-lang/golfc/internal/plugins"
)

// Builtin words a renamed variable must not shadow.
var reserved = []string{
	"n", "p", "and", "or", "xor", "not", "if", "do", "while", "until",
	"print", "puts", "rand", "abs", "zip", "base",
}

// Language returns the GolfScript backend.
func Language() engine.Language {
	return engine.Language{
		Name:        "GolfScript",
		Extension:   "gs",
		Phases:      phases(),
		Emitter:     emit.EmitterFunc(Emit),
		Detokenizer: emit.DefaultDetokenizer(NeedsSpace),
	}
}

func phases() []plugin.Phase {
	search := []plugin.Plugin{
		plugins.GolfLastPrint,
		plugins.FlipBinaryOps,
		plugins.EqualityToInequality,
		plugins.ForArgvToForEach,
	}
	search = append(search, plugins.BitNotPlugins()...)
	search = append(search, plugins.PowPlugins()...)
	search = append(search, plugins.LowBitsPlugins(types.Unbounded())...)
	search = append(search,
		plugins.ApplyDeMorgans,
		plugins.InlineVariables,
		plugins.MergePrint,
		plugins.PrintConcatToMultiPrint,
		plugins.BitShiftToMulOrDiv,
		plugins.DecomposeIntLiteral,
		plugins.ForRangeToForDifferenceRange,
	)

	return []plugin.Phase{
		plugin.NewRequired(plugins.PrintIntToPrint, plugins.UsePrimaryTextOps("byte")),
		plugin.NewSearch(search...),
		plugin.NewRequired(
			plugins.UseBackwardsIndex(ir.OpAtByte, ir.OpOrdAtByte, ir.OpAtList),
			plugins.RemoveUnusedForVar,
			negativeStartToDifferenceRange,
			plugins.ReplaceToSplitAndJoin,
			plugins.StartsWithEndsWithToSliceEquality("byte"),
			plugins.ImplicitlyConvertPrintArg,
			plugins.PrintlnToPrint,
			plugins.PrintToImplicitOutput,
		),
		plugin.NewRequired(
			plugins.MapOps("golfscriptOps", opRules),
			plugins.MapOpsToIndex(map[ir.OpCode]int{ir.OpAtList: 0, ir.OpAtArray: 0, ir.OpAtTable: 0}),
			plugins.TextGetToTextGetToIntToText,
			plugins.MapOps("golfscriptFuncs", funcRules()),
			plugins.MapOps("golfscriptNegations", negationRules),
		),
		plugin.NewRequired(
			plugins.RenameIdents(reserved...),
			plugins.RemoveImplicitConversions,
		),
	}
}

// negativeStartToDifferenceRange rewrites range loops whose start may be
// negative: `end,start>` only drops a prefix when start is not.
var negativeStartToDifferenceRange = plugin.New("negativeStartToDifferenceRange", func(s *spine.Spine) ir.Node {
	if _, ok := s.Node().(*ir.ForRange); !ok {
		return nil
	}
	if t, ok := infer.IntegerType(s.Child(ir.Field("start"))); ok && types.IsSubtype(t, types.Nat()) {
		return nil
	}
	if alts := plugins.ForRangeToForDifferenceRange.Rewrite(s); len(alts) > 0 {
		return alts[0]
	}
	return nil
})

func call(name string, args ...ir.Node) ir.Node { return ir.NewFunctionCall(name, args...) }

// sliceOf takes length elements from start; `x a>` drops a prefix (or keeps
// a suffix when a is negative) and `n<` keeps the first n.
func sliceOf(a []ir.Node) ir.Node {
	x := a[0]
	if !ir.IsIntLiteral(a[1], 0) {
		x = call(">", x, a[1])
	}
	return call("<", x, a[2])
}

var opRules = map[ir.OpCode]plugins.OpRule{
	ir.OpTrue:  func([]ir.Node) ir.Node { return ir.NewInt(1) },
	ir.OpFalse: func([]ir.Node) ir.Node { return ir.NewInt(0) },

	ir.OpSliceByte:     sliceOf,
	ir.OpSliceList:     sliceOf,
	ir.OpSliceBackByte: sliceOf,
	ir.OpSliceBackList: sliceOf,
	ir.OpAtBackList:    func(a []ir.Node) ir.Node { return ir.NewOp(ir.OpAtList, a...) },
	ir.OpAtBackByte:    func(a []ir.Node) ir.Node { return ir.NewOp(ir.OpAtByte, a...) },
	ir.OpOrdAtBackByte: func(a []ir.Node) ir.Node { return ir.NewOp(ir.OpOrdAtByte, a...) },
	ir.OpIntToBool:     func(a []ir.Node) ir.Node { return ir.NewImplicitConversion(ir.OpIntToBool, a[0]) },
	ir.OpBoolToInt:     func(a []ir.Node) ir.Node { return ir.NewImplicitConversion(ir.OpBoolToInt, a[0]) },
	ir.OpAppend:        func(a []ir.Node) ir.Node { return ir.NewOp(ir.OpConcatList, a[0], ir.NewList(a[1])) },
	ir.OpGcd:           func(a []ir.Node) ir.Node { return call("{.}{.@@%}while;", a...) },
	ir.OpRightAlign:    func(a []ir.Node) ir.Node { return call(`1$,-.0>*" "*\+`, a...) },
	ir.OpBitCount:      func(a []ir.Node) ir.Node { return call("2base 0+{+}*", a[0]) },

	ir.OpNeg: func(a []ir.Node) ir.Node {
		if lit, ok := a[0].(*ir.Integer); ok {
			return ir.NewBigInt(new(big.Int).Neg(lit.Value))
		}
		return ir.NewOp(ir.OpSub, ir.NewInt(0), a[0])
	},
	ir.OpMax: func(a []ir.Node) ir.Node {
		return ir.NewOp(ir.OpAtList, ir.NewOp(ir.OpSortedInt, ir.NewList(a...)), ir.NewInt(1))
	},
	ir.OpMin: func(a []ir.Node) ir.Node {
		return ir.NewOp(ir.OpAtList, ir.NewOp(ir.OpSortedInt, ir.NewList(a...)), ir.NewInt(0))
	},
	ir.OpIntToBin: func(a []ir.Node) ir.Node {
		return call("*", call("base", a[0], ir.NewInt(2)), ir.NewText(""))
	},
	ir.OpIntToHex: func(a []ir.Node) ir.Node {
		return call("+", call("{.9>39*+48+}%", call("base", a[0], ir.NewInt(16))), ir.NewText(""))
	},
	ir.OpIntToHexUpper: func(a []ir.Node) ir.Node {
		return call("+", call("{.9>7*+48+}%", call("base", a[0], ir.NewInt(16))), ir.NewText(""))
	},
	ir.OpSplitWhitespace: func(a []ir.Node) ir.Node {
		return ir.NewOp(ir.OpSplit, call(`{...9<\13>+*\32if}%`, a[0]), ir.NewText(" "))
	},

	// Integers are unbounded, so shifting a comparison by one is always sound.
	ir.OpLeq: func(a []ir.Node) ir.Node {
		if _, ok := a[0].(*ir.Integer); ok {
			return ir.NewOp(ir.OpLt, ir.Pred(a[0]), a[1])
		}
		return ir.NewOp(ir.OpLt, a[0], ir.Succ(a[1]))
	},
	ir.OpGeq: func(a []ir.Node) ir.Node {
		if _, ok := a[0].(*ir.Integer); ok {
			return ir.NewOp(ir.OpGt, ir.Succ(a[0]), a[1])
		}
		return ir.NewOp(ir.OpGt, a[0], ir.Pred(a[1]))
	},
	ir.OpContainsText: func(a []ir.Node) ir.Node {
		return ir.NewImplicitConversion(ir.OpIntToBool, ir.NewOp(ir.OpAdd, ir.NewOp(ir.OpFindByte, a...), ir.NewInt(1)))
	},
	ir.OpContainsList: func(a []ir.Node) ir.Node {
		return ir.NewImplicitConversion(ir.OpIntToBool, ir.NewOp(ir.OpAdd, ir.NewOp(ir.OpFindList, a...), ir.NewInt(1)))
	},
}

// builtins maps ops to the GolfScript word applied to their operands.
var builtins = map[ir.OpCode]string{
	ir.OpNot:         "!",
	ir.OpBitNot:      "~",
	ir.OpMul:         "*",
	ir.OpDiv:         "/",
	ir.OpMod:         "%",
	ir.OpBitAnd:      "&",
	ir.OpAdd:         "+",
	ir.OpSub:         "-",
	ir.OpBitOr:       "|",
	ir.OpBitXor:      "^",
	ir.OpConcatText:  "+",
	ir.OpConcatList:  "+",
	ir.OpLt:          "<",
	ir.OpEqInt:       "=",
	ir.OpEqText:      "=",
	ir.OpGt:          ">",
	ir.OpAnd:         "and",
	ir.OpOr:          "or",
	ir.OpOrdAtByte:   "=",
	ir.OpSizeByte:    ",",
	ir.OpOrdByte:     ")",
	ir.OpIntToDec:    "`",
	ir.OpSplit:       "/",
	ir.OpRepeat:      "*",
	ir.OpPow:         "?",
	ir.OpDecToInt:    "~",
	ir.OpAbs:         "abs",
	ir.OpSizeList:    ",",
	ir.OpJoin:        "*",
	ir.OpSortedInt:   "$",
	ir.OpSortedAscii: "$",
	ir.OpFindByte:    "?",
	ir.OpFindList:    "?",
	ir.OpPrintText:   "print",
}

// funcRules applies binary words left to right over variadic operands, so
// `a b c` concatenated is `a b+c+`.
func funcRules() map[ir.OpCode]plugins.OpRule {
	rules := make(map[ir.OpCode]plugins.OpRule, len(builtins))
	for code, word := range builtins {
		rules[code] = func(a []ir.Node) ir.Node {
			if len(a) <= 2 {
				return call(word, a...)
			}
			out := call(word, a[0], a[1])
			for _, x := range a[2:] {
				out = call(word, out, x)
			}
			return out
		}
	}
	return rules
}

var negationRules = map[ir.OpCode]plugins.OpRule{
	ir.OpNeqInt:       func(a []ir.Node) ir.Node { return call("!", call("=", a...)) },
	ir.OpNeqText:      func(a []ir.Node) ir.Node { return call("!", call("=", a...)) },
	ir.OpReversedByte: func(a []ir.Node) ir.Node { return call("%", a[0], ir.NewInt(-1)) },
	ir.OpReversedList: func(a []ir.Node) ir.Node { return call("%", a[0], ir.NewInt(-1)) },
	ir.OpCharByte:     func(a []ir.Node) ir.Node { return call("+", ir.NewList(a[0]), ir.NewText("")) },
}

// NeedsSpace separates word characters, and a minus from a following digit
// that would otherwise lex as a negative literal.
func NeedsSpace(prev, next string) bool {
	return emit.AlphanumericAdjacency(prev, next) ||
		(prev[len(prev)-1] == '-' && '0' <= next[0] && next[0] <= '9')
}

// Tokenize splits GolfScript source the way the interpreter's scanner does.
var Tokenize = emit.RegexpTokenizer(`[A-Za-z_][A-Za-z0-9_]*|"(?:\\.|[^"\\])*"|-?[0-9]+|.`)

