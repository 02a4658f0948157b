// Package javascript targets JavaScript as run by the d8 and SpiderMonkey
// shells, where print writes a line and write does not.
package javascript

import (
	"math"
	"strings"

	"github.com/opal-lang/golfc/core/emit"
	"github.com/opal-lang/golfc/core/engine"
	"github.com/opal-lang/golfc/core/infer"
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/spine"
	"github.com/opal-lang/golfc/core/types"
	"github.com/opal-lang/golfc/internal/plugins"
)

// Language returns the JavaScript backend.
func Language() engine.Language {
	return engine.Language{
		Name:        "JavaScript",
		Extension:   "js",
		Phases:      phases(),
		Emitter:     emit.EmitterFunc(Emit),
		Detokenizer: Detokenize,
	}
}

func phases() []plugin.Phase {
	// Numbers are doubles: only integers in the safe range are exact, and
	// bitwise operators work on 32 bits.
	repr := types.Int53()
	bitwise := types.IntRange(math.MinInt32, math.MaxInt32)

	search := []plugin.Plugin{
		plugins.GolfLastPrint,
		plugins.MergePrint,
		plugins.ForRangeToForEach,
		plugins.EqualityToInequality,
		plugins.TextToIntToTextGetToInt,
		plugins.GolfStringListLiteral(false),
		plugins.ForArgvToForEach,
		plugins.UseIntegerTruthiness,
	}
	search = append(search, plugins.BitNotPlugins()...)
	search = append(search, plugins.LowBitsPlugins(bitwise)...)
	search = append(search,
		plugins.ApplyDeMorgans,
		plugins.InlineVariables,
		plugins.TempVarToMultipleAssignment,
		plugins.ReplaceToSplitAndJoin,
		plugins.DecomposeIntLiteral,
		plugins.LeqToLt(repr),
		plugins.GeqToGt(repr),
	)

	return []plugin.Phase{
		plugin.NewRequired(plugins.PrintIntToPrint),
		plugin.NewSearch(search...),
		plugin.NewRequired(newUseBigints()),
		plugin.NewRequired(
			plugins.ForRangeToForCLike,
			plugins.MapOpsToBuiltin(map[ir.OpCode]string{ir.OpTrue: "true", ir.OpFalse: "false", ir.OpArgv: "arguments"}),
			plugins.MapOps("javascriptArgv", map[ir.OpCode]plugins.OpRule{
				ir.OpAtArgv: func(a []ir.Node) ir.Node { return ir.NewIndexCall(ir.NewBuiltin("arguments"), a[0]) },
			}),
			plugins.MapMutationToIndex(map[ir.OpCode]int{ir.OpWithAtArray: 0, ir.OpWithAtList: 0, ir.OpWithAtTable: 0}),
			plugins.MapOpsToIndex(map[ir.OpCode]int{ir.OpAtArray: 0, ir.OpAtList: 0, ir.OpAtTable: 0}),
			floorModToRem,
			plugins.ImplicitlyConvertPrintArg,
			plugins.TextToIntToFirstIndexTextGetToInt,
			plugins.MapOps("javascriptOps", opRules),
			plugins.MapMutationToInfix(mutations),
			incrementToPrefix,
			plugins.MapOpsToMethod(methods),
			plugins.MapOpsToFunc(functions),
			plugins.MapOpsToInfix(infixes),
			plugins.MapOpsToPrefix(map[ir.OpCode]string{ir.OpNeg: "-", ir.OpBitNot: "~", ir.OpNot: "!"}),
		),
		plugin.NewRequired(
			plugins.RenameIdents("do", "if", "in"),
			plugins.RemoveImplicitConversions,
		),
	}
}

// floorModToRem uses the truncating % when both operands are known to be
// non-negative, where it agrees with the floored modulo.
var floorModToRem = plugin.New("floorModToRem", func(s *spine.Spine) ir.Node {
	op, ok := s.Node().(*ir.Op)
	if !ok || op.Op != ir.OpMod {
		return nil
	}
	for i := range op.Args {
		t, ok := infer.IntegerType(s.Child(ir.Indexed("args", i)))
		if !ok || t.Low.Sign() < 0 {
			return nil
		}
	}
	return ir.NewOp(ir.OpRem, op.Args...)
})

// incrementToPrefix shortens x+=1 and x-=1.
var incrementToPrefix = plugin.New("incrementToPrefix", func(s *spine.Spine) ir.Node {
	m, ok := s.Node().(*ir.MutatingInfix)
	if !ok || !ir.IsIntLiteral(m.Right, 1) {
		return nil
	}
	switch m.Name {
	case "+=":
		return ir.NewPrefix("++", m.Variable)
	case "-=":
		return ir.NewPrefix("--", m.Variable)
	}
	return nil
})

func method(object ir.Node, name string, args ...ir.Node) ir.Node {
	return ir.NewMethodCall(object, name, args...)
}

func slice(a []ir.Node) ir.Node {
	return method(a[0], "slice", a[1], ir.NewOp(ir.OpAdd, a[1], a[2]))
}

func reverseText(a []ir.Node) ir.Node {
	return method(method(ir.NewList(ir.NewPrefix("...", a[0])), "reverse"), "join", ir.NewText(""))
}

var opRules = map[ir.OpCode]plugins.OpRule{
	ir.OpAtAscii:       func(a []ir.Node) ir.Node { return ir.NewIndexCall(a[0], a[1]) },
	ir.OpSliceList:     slice,
	ir.OpSliceAscii:    slice,
	ir.OpCharAscii:     func(a []ir.Node) ir.Node { return ir.NewFunctionCall("String.fromCharCode", a[0]) },
	ir.OpDiv:           func(a []ir.Node) ir.Node { return ir.NewFunctionCall("Math.floor", ir.NewInfix("/", a[0], a[1])) },
	ir.OpTruncDiv:      func(a []ir.Node) ir.Node { return ir.NewFunctionCall("Math.trunc", ir.NewInfix("/", a[0], a[1])) },
	ir.OpIntToBin:      func(a []ir.Node) ir.Node { return method(a[0], "toString", ir.NewInt(2)) },
	ir.OpIntToHex:      func(a []ir.Node) ir.Node { return method(a[0], "toString", ir.NewInt(16)) },
	ir.OpIntToHexUpper: func(a []ir.Node) ir.Node { return method(method(a[0], "toString", ir.NewInt(16)), "toUpperCase") },
	ir.OpSizeList:      func(a []ir.Node) ir.Node { return ir.NewPropertyCall(a[0], "length") },
	ir.OpSizeAscii:     func(a []ir.Node) ir.Node { return ir.NewPropertyCall(a[0], "length") },
	ir.OpSizeTable:     func(a []ir.Node) ir.Node { return ir.NewPropertyCall(ir.NewFunctionCall("Object.keys", a[0]), "length") },
	ir.OpRightAlign:    func(a []ir.Node) ir.Node { return method(a[0], "padStart", a[1]) },
	ir.OpReversedList:  func(a []ir.Node) ir.Node { return method(a[0], "reverse") },
	ir.OpReversedAscii: reverseText,
	ir.OpSortedAscii:   func(a []ir.Node) ir.Node { return method(a[0], "sort") },
	ir.OpAppend:        func(a []ir.Node) ir.Node { return ir.NewOp(ir.OpConcatList, a[0], ir.NewList(a[1])) },
	ir.OpBoolToInt:     func(a []ir.Node) ir.Node { return ir.NewPrefix("+", a[0]) },
	ir.OpIntToBool:     func(a []ir.Node) ir.Node { return ir.NewImplicitConversion(ir.OpIntToBool, a[0]) },
	ir.OpContainsTable: func(a []ir.Node) ir.Node { return ir.NewInfix("in", a[1], a[0]) },
	ir.OpReadLine:      func([]ir.Node) ir.Node { return ir.NewFunctionCall("readline") },

	ir.OpJoin: func(a []ir.Node) ir.Node {
		if sep, ok := a[1].(*ir.Text); ok && sep.Value == "," {
			return method(a[0], "join")
		}
		return method(a[0], "join", a[1])
	},
	ir.OpIntToDec: func(a []ir.Node) ir.Node {
		return ir.NewOp(ir.OpConcatText, ir.NewText(""), ir.NewImplicitConversion(ir.OpIntToDec, a[0]))
	},
	ir.OpDecToInt: func(a []ir.Node) ir.Node {
		return ir.NewOp(ir.OpBitNot, ir.NewOp(ir.OpBitNot, ir.NewImplicitConversion(ir.OpDecToInt, a[0])))
	},
	// The sign of % follows the dividend; adding the divisor back floors it.
	ir.OpMod: func(a []ir.Node) ir.Node {
		return ir.NewOp(ir.OpRem, ir.NewOp(ir.OpAdd, ir.NewOp(ir.OpRem, a[0], a[1]), a[1]), a[1])
	},
	ir.OpBitCount: func(a []ir.Node) ir.Node {
		bits := method(a[0], "toString", ir.NewInt(2))
		return ir.NewPropertyCall(method(bits, "replace", ir.NewBuiltin("/0/g"), ir.NewText("")), "length")
	},
}

var mutations = map[ir.OpCode]string{
	ir.OpPow:           "**=",
	ir.OpMul:           "*=",
	ir.OpRem:           "%=",
	ir.OpAdd:           "+=",
	ir.OpConcatText:    "+=",
	ir.OpSub:           "-=",
	ir.OpBitShiftLeft:  "<<=",
	ir.OpBitShiftRight: ">>=",
	ir.OpBitAnd:        "&=",
	ir.OpBitXor:        "^=",
	ir.OpBitOr:         "|=",
}

var methods = map[ir.OpCode]string{
	ir.OpOrdAtAscii:    "charCodeAt",
	ir.OpContainsList:  "includes",
	ir.OpContainsArray: "includes",
	ir.OpContainsText:  "includes",
	ir.OpFindList:      "indexOf",
	ir.OpFindAscii:     "indexOf",
	ir.OpConcatList:    "concat",
	ir.OpSplit:         "split",
	ir.OpReplace:       "replaceAll",
	ir.OpRepeat:        "repeat",
	ir.OpStartsWith:    "startsWith",
	ir.OpEndsWith:      "endsWith",
}

var functions = map[ir.OpCode]string{
	ir.OpAbs:         "Math.abs",
	ir.OpMax:         "Math.max",
	ir.OpMin:         "Math.min",
	ir.OpPrintlnText: "print",
	ir.OpPrintText:   "write",
}

var infixes = map[ir.OpCode]string{
	ir.OpPow:           "**",
	ir.OpRem:           "%",
	ir.OpAdd:           "+",
	ir.OpConcatText:    "+",
	ir.OpSub:           "-",
	ir.OpMul:           "*",
	ir.OpBitShiftLeft:  "<<",
	ir.OpBitShiftRight: ">>",
	ir.OpBitAnd:        "&",
	ir.OpBitXor:        "^",
	ir.OpBitOr:         "|",
	ir.OpLt:            "<",
	ir.OpLeq:           "<=",
	ir.OpEqInt:         "==",
	ir.OpEqText:        "==",
	ir.OpNeqInt:        "!=",
	ir.OpNeqText:       "!=",
	ir.OpGeq:           ">=",
	ir.OpGt:            ">",
	ir.OpAnd:           "&&",
	ir.OpOr:            "||",
}

// glued lists the character pairs that start a longer operator or a
// comment, so the tokens ending and starting with them must be kept apart.
var glued = map[string]bool{
	"++": true, "--": true, "**": true, "&&": true, "||": true, "<<": true, ">>": true,
	"==": true, "!=": true, "<=": true, ">=": true, "=>": true, "+=": true, "-=": true,
	"*=": true, "/=": true, "%=": true, "&=": true, "|=": true, "^=": true,
	"//": true, "/*": true, "?.": true, "??": true, "..": true,
}

// NeedsSpace separates identifiers and numbers, and operators that would
// otherwise fuse into a different one.
func NeedsSpace(prev, next string) bool {
	if prev == "\n" || next == "\n" {
		return false
	}
	if emit.AlphanumericAdjacency(prev, next) {
		return true
	}
	return glued[string([]byte{prev[len(prev)-1], next[0]})]
}

// Detokenize joins statements with newlines, except before a token that
// would continue the previous statement, where a semicolon is required.
func Detokenize(tokens []string) string {
	var b strings.Builder
	prev := ""
	for i, tok := range tokens {
		if tok == "" {
			continue
		}
		if tok == "\n" {
			if next := nextToken(tokens[i+1:]); next != "" && strings.ContainsRune("([`+-/", rune(next[0])) {
				tok = ";"
			}
		}
		if prev != "" && NeedsSpace(prev, tok) {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
		prev = tok
	}
	return b.String()
}

func nextToken(tokens []string) string {
	for _, t := range tokens {
		if t != "" {
			return t
		}
	}
	return ""
}

// Tokenize splits JavaScript source into identifiers, numbers, strings and
// operators.
var Tokenize = emit.RegexpTokenizer(strings.Join([]string{
	`[A-Za-z_$][A-Za-z0-9_$]*`,
	`[0-9]+n?`,
	`"(?:\\.|[^"\\])*"`,
	`>>>=|\*\*=|<<=|>>=|>>>|===|!==|\.\.\.|&&=|\|\|=|\?\?=`,
	`\*\*|\+\+|--|&&|\|\||<<|>>|==|!=|<=|>=|=>|\+=|-=|\*=|/=|%=|&=|\|=|\^=|\?\?|\?\.|//|/\*`,
	`.`,
}, "|"))
