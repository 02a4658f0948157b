// Package nim targets Nim 2. Integers are 64-bit, text is indexed by byte
// and most of the text library lives in strutils, so the phases end by
// declaring variables and importing the modules the mapped calls need.
package nim

import (
	"math/big"
	"strings"
	"unicode"

	"github.com/opal-lang/golfc/core/emit"
	"github.com/opal-lang/golfc/core/engine"
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/types"
	"github.com/opal-lang/golfc/internal/plugins"
)

// Keywords short enough to be picked as variable names.
var reserved = []string{"as", "do", "if", "in", "is", "of", "or"}

// Language returns the Nim backend.
func Language() engine.Language {
	return engine.Language{
		Name:        "Nim",
		Extension:   "nim",
		Phases:      phases(),
		Emitter:     emit.EmitterFunc(Emit),
		Detokenizer: emit.DefaultDetokenizer(NeedsSpace),
	}
}

func phases() []plugin.Phase {
	repr := types.Int64()

	search := []plugin.Plugin{
		plugins.GolfLastPrint,
		plugins.MergePrint,
		plugins.FlipBinaryOps,
		plugins.TempVarToMultipleAssignment,
		plugins.EqualityToInequality,
		plugins.ShiftRangeOneUp,
		plugins.ForRangeToForRangeInclusive,
		plugins.GolfStringListLiteral(true),
		plugins.ForArgvToForEach,
	}
	search = append(search, plugins.BitNotPlugins()...)
	search = append(search, plugins.LowBitsPlugins(repr)...)
	search = append(search,
		plugins.ApplyDeMorgans,
		plugins.TextToIntToTextGetToInt,
		plugins.UseMultireplace(false),
		plugins.InlineVariables,
		plugins.DecomposeIntLiteral,
		plugins.LeqToLt(repr),
		plugins.GeqToGt(repr),
		plugins.ForRangeToForEach,
	)

	return []plugin.Phase{
		plugin.NewRequired(plugins.PrintIntToPrint, plugins.UsePrimaryTextOps("byte")),
		plugin.NewSearch(search...),
		plugin.NewRequired(
			plugins.AssertIntRepr(repr),
			plugins.ForArgvToForEach,
			plugins.UseBackwardsIndex(ir.OpAtByte, ir.OpOrdAtByte, ir.OpAtList),
			addVarDeclarations,
			plugins.MapOpsToBuiltin(map[ir.OpCode]string{ir.OpTrue: "true", ir.OpFalse: "false"}),
			plugins.MapMutationToIndex(map[ir.OpCode]int{ir.OpWithAtList: 0, ir.OpWithAtArray: 0, ir.OpWithAtTable: 0}),
			plugins.MapOpsToIndex(map[ir.OpCode]int{ir.OpAtList: 0, ir.OpAtArray: 0, ir.OpAtTable: 0}),
			plugins.ImplicitlyConvertPrintArg,
			plugins.MapOps("nimOps", opRules),
			plugins.MapMutationToInfix(mutations),
			plugins.MapOpsToMethod(methods),
			plugins.MapOpsToFunc(functions),
			plugins.MapOpsToInfix(infixes),
			plugins.MapOpsToPrefix(map[ir.OpCode]string{
				ir.OpNeg:      "-",
				ir.OpBitNot:   "not",
				ir.OpNot:      "not",
				ir.OpIntToDec: "$",
			}),
			tableToConstructor,
		),
		plugin.NewRequired(
			plugins.RenameIdents(reserved...),
			AddImports,
			plugins.RemoveImplicitConversions,
		),
		plugin.NewSearch(plugins.UseUFCS),
	}
}

func method(object ir.Node, name string, args ...ir.Node) ir.Node {
	return ir.NewMethodCall(object, name, args...)
}

// fromBack turns a negative index into Nim's backwards index ^n.
func fromBack(index ir.Node) ir.Node {
	switch n := index.(type) {
	case *ir.Integer:
		return ir.NewPrefix("^", ir.NewBigInt(new(big.Int).Neg(n.Value)))
	case *ir.Op:
		if n.Op == ir.OpNeg {
			return ir.NewPrefix("^", n.Args[0])
		}
	}
	return ir.NewPrefix("^", ir.NewOp(ir.OpNeg, index))
}

// slice maps slice(x, start, length) to x[start..<start+length].
func slice(a []ir.Node) ir.Node {
	return ir.NewRangeIndexCall(a[0], a[1], ir.NewOp(ir.OpAdd, a[1], a[2]), ir.NewInt(1))
}

func ord(char ir.Node) ir.Node { return method(char, "ord") }

func membership(a []ir.Node) ir.Node { return ir.NewInfix("in", a[1], a[0]) }

// Indexing text yields a char; $ turns it back into a string.
var opRules = map[ir.OpCode]plugins.OpRule{
	ir.OpAtByte:          func(a []ir.Node) ir.Node { return ir.NewPrefix("$", ir.NewIndexCall(a[0], a[1])) },
	ir.OpAtBackByte:      func(a []ir.Node) ir.Node { return ir.NewPrefix("$", ir.NewIndexCall(a[0], fromBack(a[1]))) },
	ir.OpAtBackList:      func(a []ir.Node) ir.Node { return ir.NewIndexCall(a[0], fromBack(a[1])) },
	ir.OpOrdAtByte:       func(a []ir.Node) ir.Node { return ord(ir.NewIndexCall(a[0], a[1])) },
	ir.OpOrdAtBackByte:   func(a []ir.Node) ir.Node { return ord(ir.NewIndexCall(a[0], fromBack(a[1]))) },
	ir.OpOrdByte:         func(a []ir.Node) ir.Node { return ord(ir.NewIndexCall(a[0], ir.NewInt(0))) },
	ir.OpCharByte:        func(a []ir.Node) ir.Node { return ir.NewPrefix("$", ir.NewFunctionCall("chr", a[0])) },
	ir.OpSliceByte:       slice,
	ir.OpSliceList:       slice,
	ir.OpAtArgv:          func(a []ir.Node) ir.Node { return ir.NewFunctionCall("paramStr", ir.NewOp(ir.OpAdd, a[0], ir.NewInt(1))) },
	ir.OpArgv:            func([]ir.Node) ir.Node { return ir.NewFunctionCall("commandLineParams") },
	ir.OpReadLine:        func([]ir.Node) ir.Node { return ir.NewFunctionCall("readLine", ir.NewBuiltin("stdin")) },
	ir.OpPrintText:       func(a []ir.Node) ir.Node { return method(ir.NewBuiltin("stdout"), "write", a[0]) },
	ir.OpReversedByte:    func(a []ir.Node) ir.Node { return method(method(a[0], "reversed"), "join") },
	ir.OpIntToBool:       func(a []ir.Node) ir.Node { return ir.NewOp(ir.OpNeqInt, a[0], ir.NewInt(0)) },
	ir.OpBoolToInt:       func(a []ir.Node) ir.Node { return method(a[0], "int") },
	ir.OpContainsList:    membership,
	ir.OpContainsArray:   membership,
	ir.OpSplitWhitespace: func(a []ir.Node) ir.Node { return method(a[0], "split") },

	ir.OpJoin: func(a []ir.Node) ir.Node {
		if sep, ok := a[1].(*ir.Text); ok && sep.Value == "" {
			return method(a[0], "join")
		}
		return method(a[0], "join", a[1])
	},
	// multiReplace takes its pairs as an array of tuples, which the {k:v}
	// constructor spells.
	ir.OpTextMultireplace: func(a []ir.Node) ir.Node {
		var kvs []ir.Node
		for i := 1; i+1 < len(a); i += 2 {
			kvs = append(kvs, ir.NewKeyValue(a[i], a[i+1]))
		}
		return method(a[0], "multiReplace", ir.NewTable(kvs...))
	},
}

var mutations = map[ir.OpCode]string{
	ir.OpAdd:        "+=",
	ir.OpSub:        "-=",
	ir.OpMul:        "*=",
	ir.OpConcatText: "&=",
	ir.OpConcatList: "&=",
}

var methods = map[ir.OpCode]string{
	ir.OpSizeByte:      "len",
	ir.OpSizeList:      "len",
	ir.OpSizeTable:     "len",
	ir.OpDecToInt:      "parseInt",
	ir.OpReplace:       "replace",
	ir.OpSplit:         "split",
	ir.OpRepeat:        "repeat",
	ir.OpStartsWith:    "startsWith",
	ir.OpEndsWith:      "endsWith",
	ir.OpContainsText:  "contains",
	ir.OpContainsTable: "hasKey",
	ir.OpFindByte:      "find",
	ir.OpFindList:      "find",
	ir.OpRightAlign:    "align",
	ir.OpBitCount:      "popcount",
	ir.OpSortedInt:     "sorted",
	ir.OpSortedAscii:   "sorted",
	ir.OpReversedList:  "reversed",
}

var functions = map[ir.OpCode]string{
	ir.OpPrintlnText: "echo",
	ir.OpAbs:         "abs",
	ir.OpMax:         "max",
	ir.OpMin:         "min",
	ir.OpGcd:         "gcd",
	ir.OpDiv:         "floorDiv",
	ir.OpMod:         "floorMod",
}

var infixes = map[ir.OpCode]string{
	ir.OpPow:           "^",
	ir.OpMul:           "*",
	ir.OpTruncDiv:      "div",
	ir.OpRem:           "mod",
	ir.OpBitShiftLeft:  "shl",
	ir.OpBitShiftRight: "shr",
	ir.OpAdd:           "+",
	ir.OpSub:           "-",
	ir.OpConcatText:    "&",
	ir.OpConcatList:    "&",
	ir.OpAppend:        "&",
	ir.OpLt:            "<",
	ir.OpLeq:           "<=",
	ir.OpEqInt:         "==",
	ir.OpEqText:        "==",
	ir.OpNeqInt:        "!=",
	ir.OpNeqText:       "!=",
	ir.OpGeq:           ">=",
	ir.OpGt:            ">",
	ir.OpBitAnd:        "and",
	ir.OpAnd:           "and",
	ir.OpBitOr:         "or",
	ir.OpOr:            "or",
	ir.OpBitXor:        "xor",
}

const operatorChars = `=+-*/<>@$~&%|!?^.:\`

func isOperatorChar(c byte) bool { return strings.IndexByte(operatorChars, c) >= 0 }

func isIdentifier(tok string) bool {
	if tok == "" || (!unicode.IsLetter(rune(tok[0])) && tok[0] != '_') {
		return false
	}
	for i := range len(tok) {
		if !emit.IsWordChar(tok[i]) {
			return false
		}
	}
	return true
}

// NeedsSpace separates words, runs of operator characters, which Nim lexes
// as a single operator, and an identifier from a following string or
// parenthesis, which would otherwise read as a raw string literal or a call.
func NeedsSpace(prev, next string) bool {
	if strings.HasPrefix(prev, "\n") || strings.HasPrefix(next, "\n") {
		return false
	}
	if emit.AlphanumericAdjacency(prev, next) {
		return true
	}
	if isOperatorChar(prev[len(prev)-1]) && isOperatorChar(next[0]) {
		return true
	}
	return isIdentifier(prev) && (next[0] == '"' || next == "(")
}

// Tokenize splits Nim source into identifiers, numbers, strings and
// operator runs.
var Tokenize = emit.RegexpTokenizer(strings.Join([]string{
	`[A-Za-z_][A-Za-z0-9_]*`,
	`[0-9]+`,
	`"(?:\\.|[^"\\])*"`,
	`[=+\-*/<>@$~&%|!?^.:\\]+`,
	`.`,
}, "|"))
