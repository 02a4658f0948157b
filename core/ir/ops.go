package ir

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/opal-lang/golfc/core/types"
)

// OpCode is the closed vocabulary of abstract operations. Every code has
// exactly one entry in opTable, which is the single source of truth for its
// textual tag, arity, operand classes and result type.
type OpCode int

const (
	OpInvalid OpCode = iota

	// nullary
	OpArgv
	OpTrue
	OpFalse
	OpReadLine

	// integer arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpTruncDiv
	OpMod
	OpRem
	OpPow
	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitShiftLeft
	OpBitShiftRight
	OpGcd
	OpMin
	OpMax
	OpNeg
	OpAbs
	OpBitNot
	OpBitCount

	// comparison and logic
	OpLt
	OpLeq
	OpGeq
	OpGt
	OpEqInt
	OpNeqInt
	OpEqText
	OpNeqText
	OpAnd
	OpOr
	OpNot

	// conversions
	OpIntToDec
	OpIntToBin
	OpIntToHex
	OpIntToHexUpper
	OpDecToInt
	OpIntToBool
	OpBoolToInt

	// text
	OpConcatText
	OpRepeat
	OpSizeByte
	OpSizeCodepoint
	OpSizeAscii
	OpAtByte
	OpAtCodepoint
	OpAtAscii
	OpAtBackByte
	OpAtBackCodepoint
	OpAtBackAscii
	OpOrdByte
	OpOrdCodepoint
	OpOrdAscii
	OpOrdAtByte
	OpOrdAtCodepoint
	OpOrdAtAscii
	OpOrdAtBackByte
	OpOrdAtBackCodepoint
	OpOrdAtBackAscii
	OpCharByte
	OpCharCodepoint
	OpCharAscii
	OpSliceByte
	OpSliceCodepoint
	OpSliceAscii
	OpSliceBackByte
	OpSliceBackCodepoint
	OpSliceBackAscii
	OpReversedByte
	OpReversedCodepoint
	OpReversedAscii
	OpFindByte
	OpFindCodepoint
	OpFindAscii
	OpContainsText
	OpSplit
	OpSplitWhitespace
	OpJoin
	OpReplace
	OpTextMultireplace
	OpStartsWith
	OpEndsWith
	OpRightAlign

	// collections
	OpAtList
	OpAtArray
	OpAtTable
	OpAtBackList
	OpAtArgv
	OpWithAtList
	OpWithAtArray
	OpWithAtTable
	OpWithAtBackList
	OpSizeList
	OpSizeTable
	OpAppend
	OpConcatList
	OpContainsList
	OpContainsArray
	OpContainsTable
	OpFindList
	OpSliceList
	OpSliceBackList
	OpSortedInt
	OpSortedAscii
	OpReversedList

	// output
	OpPrintText
	OpPrintlnText
	OpPrintInt
	OpPrintlnInt

	opCount
)

// ArgClass is the coarse shape an operand must have.
type ArgClass int

const (
	AnyArg ArgClass = iota
	IntArg
	TextArg
	BoolArg
	ListArg
	ArrayArg
	TableArg
)

// Accepts reports whether t has the shape required by the class.
func (c ArgClass) Accepts(t types.Type) bool {
	switch c {
	case IntArg:
		return t.Kind() == types.KindInteger
	case TextArg:
		return t.Kind() == types.KindText
	case BoolArg:
		return t.Kind() == types.KindBoolean
	case ListArg:
		return t.Kind() == types.KindList
	case ArrayArg:
		return t.Kind() == types.KindArray
	case TableArg:
		return t.Kind() == types.KindTable
	default:
		return true
	}
}

// OpInfo describes one operation.
type OpInfo struct {
	Name        string
	MinArity    int
	MaxArity    int        // -1 when variadic
	Params      []ArgClass // for variadic ops the last class repeats
	Commutative bool
	Result      func(args []types.Type) (types.Type, error)
}

func (i OpInfo) paramClass(idx int) ArgClass {
	if len(i.Params) == 0 {
		return AnyArg
	}
	if idx >= len(i.Params) {
		return i.Params[len(i.Params)-1]
	}
	return i.Params[idx]
}

var (
	boolT types.Type = types.Boolean{}
	voidT types.Type = types.Void{}
	textT types.Type = types.TextType()
)

func fixed(t types.Type) func([]types.Type) (types.Type, error) {
	return func([]types.Type) (types.Type, error) { return t, nil }
}

func intUnary(f func(types.Integer) types.Integer) func([]types.Type) (types.Type, error) {
	return func(a []types.Type) (types.Type, error) { return f(a[0].(types.Integer)), nil }
}

func intBinary(f func(a, b types.Integer) types.Integer) func([]types.Type) (types.Type, error) {
	return func(a []types.Type) (types.Type, error) {
		return f(a[0].(types.Integer), a[1].(types.Integer)), nil
	}
}

func divisionResult(f func(a, b types.Integer) types.Integer) func([]types.Type) (types.Type, error) {
	return func(a []types.Type) (types.Type, error) {
		b := a[1].(types.Integer)
		if v, ok := b.Constant(); ok && v.Sign() == 0 {
			return nil, fmt.Errorf("division by constant zero")
		}
		return f(a[0].(types.Integer), b), nil
	}
}

func sameAsFirst(a []types.Type) (types.Type, error) { return a[0], nil }

func textOfOne(ascii bool) func([]types.Type) (types.Type, error) {
	return fixed(types.TextOfLength(1, ascii))
}

func sizeOf(a []types.Type) (types.Type, error) {
	t := a[0].(types.Text)
	return t.Length, nil
}

func byteSize(a []types.Type) (types.Type, error) {
	t := a[0].(types.Text)
	if t.ASCII {
		return t.Length, nil
	}
	return types.Mul(t.Length, types.IntRange(1, 4)), nil
}

func concatText(a []types.Type) (types.Type, error) {
	length := types.IntRange(0, 0)
	ascii := true
	for _, t := range a {
		tt := t.(types.Text)
		length = types.Add(length, tt.Length)
		ascii = ascii && tt.ASCII
	}
	return types.Text{Length: length, ASCII: ascii}, nil
}

func textLike(a []types.Type) (types.Type, error) {
	t := a[0].(types.Text)
	return types.Text{Length: types.AtLeast(0), ASCII: t.ASCII}, nil
}

func memberOf(a []types.Type) (types.Type, error) {
	switch c := a[0].(type) {
	case types.List:
		return c.Member, nil
	case types.Array:
		return c.Member, nil
	case types.Table:
		return c.Value, nil
	}
	return nil, fmt.Errorf("%s is not a collection", a[0])
}

func appendResult(a []types.Type) (types.Type, error) {
	l := a[0].(types.List)
	m, err := types.Union(l.Member, a[1])
	if err != nil {
		return nil, err
	}
	return types.ListOf(m), nil
}

func concatList(a []types.Type) (types.Type, error) {
	var member types.Type = voidT
	for _, t := range a {
		m, err := types.Union(member, t.(types.List).Member)
		if err != nil {
			return nil, err
		}
		member = m
	}
	return types.ListOf(member), nil
}

func textMultireplace(a []types.Type) (types.Type, error) {
	if len(a)%2 == 0 {
		return nil, fmt.Errorf("text_multireplace needs an odd number of arguments, got %d", len(a))
	}
	return textLike(a)
}

var (
	intT      = types.Unbounded()
	natT      = types.AtLeast(0)
	findT     = types.AtLeast(-1)
	byteT     = types.IntRange(0, 255)
	asciiCode = types.IntRange(0, 127)
	codepoint = types.IntRange(0, 0x10FFFF)
)

var opTable = [opCount]OpInfo{
	OpInvalid: {Name: "<invalid>"},

	OpArgv:     {Name: "argv", Result: fixed(types.ListOf(textT))},
	OpTrue:     {Name: "true", Result: fixed(boolT)},
	OpFalse:    {Name: "false", Result: fixed(boolT)},
	OpReadLine: {Name: "read[line]", Result: fixed(textT)},

	OpAdd:           {Name: "add", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Commutative: true, Result: intBinary(types.Add)},
	OpSub:           {Name: "sub", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Result: intBinary(types.Sub)},
	OpMul:           {Name: "mul", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Commutative: true, Result: intBinary(types.Mul)},
	OpDiv:           {Name: "div", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Result: divisionResult(types.FloorDiv)},
	OpTruncDiv:      {Name: "trunc_div", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Result: divisionResult(types.TruncDiv)},
	OpMod:           {Name: "mod", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Result: divisionResult(types.Mod)},
	OpRem:           {Name: "rem", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Result: divisionResult(types.Rem)},
	OpPow:           {Name: "pow", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Result: intBinary(types.Pow)},
	OpBitAnd:        {Name: "bit_and", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Commutative: true, Result: intBinary(types.BitAnd)},
	OpBitOr:         {Name: "bit_or", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Commutative: true, Result: intBinary(types.BitOr)},
	OpBitXor:        {Name: "bit_xor", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Commutative: true, Result: intBinary(types.BitOr)},
	OpBitShiftLeft:  {Name: "bit_shift_left", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Result: intBinary(types.ShiftLeft)},
	OpBitShiftRight: {Name: "bit_shift_right", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Result: intBinary(types.ShiftRight)},
	OpGcd:           {Name: "gcd", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Commutative: true, Result: intBinary(types.Gcd)},
	OpMin:           {Name: "min", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Commutative: true, Result: intBinary(types.Min)},
	OpMax:           {Name: "max", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Commutative: true, Result: intBinary(types.Max)},
	OpNeg:           {Name: "neg", MinArity: 1, MaxArity: 1, Params: []ArgClass{IntArg}, Result: intUnary(types.Neg)},
	OpAbs:           {Name: "abs", MinArity: 1, MaxArity: 1, Params: []ArgClass{IntArg}, Result: intUnary(types.Abs)},
	OpBitNot:        {Name: "bit_not", MinArity: 1, MaxArity: 1, Params: []ArgClass{IntArg}, Result: intUnary(types.BitNot)},
	OpBitCount:      {Name: "bit_count", MinArity: 1, MaxArity: 1, Params: []ArgClass{IntArg}, Result: fixed(natT)},

	OpLt:      {Name: "lt", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Result: fixed(boolT)},
	OpLeq:     {Name: "leq", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Result: fixed(boolT)},
	OpGeq:     {Name: "geq", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Result: fixed(boolT)},
	OpGt:      {Name: "gt", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Result: fixed(boolT)},
	OpEqInt:   {Name: "eq[Int]", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Commutative: true, Result: fixed(boolT)},
	OpNeqInt:  {Name: "neq[Int]", MinArity: 2, MaxArity: 2, Params: []ArgClass{IntArg, IntArg}, Commutative: true, Result: fixed(boolT)},
	OpEqText:  {Name: "eq[Text]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, TextArg}, Commutative: true, Result: fixed(boolT)},
	OpNeqText: {Name: "neq[Text]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, TextArg}, Commutative: true, Result: fixed(boolT)},
	OpAnd:     {Name: "and", MinArity: 2, MaxArity: 2, Params: []ArgClass{BoolArg, BoolArg}, Commutative: true, Result: fixed(boolT)},
	OpOr:      {Name: "or", MinArity: 2, MaxArity: 2, Params: []ArgClass{BoolArg, BoolArg}, Commutative: true, Result: fixed(boolT)},
	OpNot:     {Name: "not", MinArity: 1, MaxArity: 1, Params: []ArgClass{BoolArg}, Result: fixed(boolT)},

	OpIntToDec:      {Name: "int_to_dec", MinArity: 1, MaxArity: 1, Params: []ArgClass{IntArg}, Result: fixed(types.Text{Length: types.AtLeast(1), ASCII: true})},
	OpIntToBin:      {Name: "int_to_bin", MinArity: 1, MaxArity: 1, Params: []ArgClass{IntArg}, Result: fixed(types.Text{Length: types.AtLeast(1), ASCII: true})},
	OpIntToHex:      {Name: "int_to_hex", MinArity: 1, MaxArity: 1, Params: []ArgClass{IntArg}, Result: fixed(types.Text{Length: types.AtLeast(1), ASCII: true})},
	OpIntToHexUpper: {Name: "int_to_Hex", MinArity: 1, MaxArity: 1, Params: []ArgClass{IntArg}, Result: fixed(types.Text{Length: types.AtLeast(1), ASCII: true})},
	OpDecToInt:      {Name: "dec_to_int", MinArity: 1, MaxArity: 1, Params: []ArgClass{TextArg}, Result: fixed(intT)},
	OpIntToBool:     {Name: "int_to_bool", MinArity: 1, MaxArity: 1, Params: []ArgClass{IntArg}, Result: fixed(boolT)},
	OpBoolToInt:     {Name: "bool_to_int", MinArity: 1, MaxArity: 1, Params: []ArgClass{BoolArg}, Result: fixed(types.IntRange(0, 1))},

	OpConcatText:         {Name: "concat[Text]", MinArity: 2, MaxArity: -1, Params: []ArgClass{TextArg}, Result: concatText},
	OpRepeat:             {Name: "repeat", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, IntArg}, Result: textLike},
	OpSizeByte:           {Name: "size[byte]", MinArity: 1, MaxArity: 1, Params: []ArgClass{TextArg}, Result: byteSize},
	OpSizeCodepoint:      {Name: "size[codepoint]", MinArity: 1, MaxArity: 1, Params: []ArgClass{TextArg}, Result: sizeOf},
	OpSizeAscii:          {Name: "size[Ascii]", MinArity: 1, MaxArity: 1, Params: []ArgClass{TextArg}, Result: sizeOf},
	OpAtByte:             {Name: "at[byte]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, IntArg}, Result: textOfOne(false)},
	OpAtCodepoint:        {Name: "at[codepoint]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, IntArg}, Result: textOfOne(false)},
	OpAtAscii:            {Name: "at[Ascii]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, IntArg}, Result: textOfOne(true)},
	OpAtBackByte:         {Name: "at_back[byte]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, IntArg}, Result: textOfOne(false)},
	OpAtBackCodepoint:    {Name: "at_back[codepoint]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, IntArg}, Result: textOfOne(false)},
	OpAtBackAscii:        {Name: "at_back[Ascii]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, IntArg}, Result: textOfOne(true)},
	OpOrdByte:            {Name: "ord[byte]", MinArity: 1, MaxArity: 1, Params: []ArgClass{TextArg}, Result: fixed(byteT)},
	OpOrdCodepoint:       {Name: "ord[codepoint]", MinArity: 1, MaxArity: 1, Params: []ArgClass{TextArg}, Result: fixed(codepoint)},
	OpOrdAscii:           {Name: "ord[Ascii]", MinArity: 1, MaxArity: 1, Params: []ArgClass{TextArg}, Result: fixed(asciiCode)},
	OpOrdAtByte:          {Name: "ord_at[byte]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, IntArg}, Result: fixed(byteT)},
	OpOrdAtCodepoint:     {Name: "ord_at[codepoint]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, IntArg}, Result: fixed(codepoint)},
	OpOrdAtAscii:         {Name: "ord_at[Ascii]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, IntArg}, Result: fixed(asciiCode)},
	OpOrdAtBackByte:      {Name: "ord_at_back[byte]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, IntArg}, Result: fixed(byteT)},
	OpOrdAtBackCodepoint: {Name: "ord_at_back[codepoint]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, IntArg}, Result: fixed(codepoint)},
	OpOrdAtBackAscii:     {Name: "ord_at_back[Ascii]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, IntArg}, Result: fixed(asciiCode)},
	OpCharByte:           {Name: "char[byte]", MinArity: 1, MaxArity: 1, Params: []ArgClass{IntArg}, Result: textOfOne(false)},
	OpCharCodepoint:      {Name: "char[codepoint]", MinArity: 1, MaxArity: 1, Params: []ArgClass{IntArg}, Result: textOfOne(false)},
	OpCharAscii:          {Name: "char[Ascii]", MinArity: 1, MaxArity: 1, Params: []ArgClass{IntArg}, Result: textOfOne(true)},
	OpSliceByte:          {Name: "slice[byte]", MinArity: 3, MaxArity: 3, Params: []ArgClass{TextArg, IntArg, IntArg}, Result: textLike},
	OpSliceCodepoint:     {Name: "slice[codepoint]", MinArity: 3, MaxArity: 3, Params: []ArgClass{TextArg, IntArg, IntArg}, Result: textLike},
	OpSliceAscii:         {Name: "slice[Ascii]", MinArity: 3, MaxArity: 3, Params: []ArgClass{TextArg, IntArg, IntArg}, Result: textLike},
	OpSliceBackByte:      {Name: "slice_back[byte]", MinArity: 3, MaxArity: 3, Params: []ArgClass{TextArg, IntArg, IntArg}, Result: textLike},
	OpSliceBackCodepoint: {Name: "slice_back[codepoint]", MinArity: 3, MaxArity: 3, Params: []ArgClass{TextArg, IntArg, IntArg}, Result: textLike},
	OpSliceBackAscii:     {Name: "slice_back[Ascii]", MinArity: 3, MaxArity: 3, Params: []ArgClass{TextArg, IntArg, IntArg}, Result: textLike},
	OpReversedByte:       {Name: "reversed[byte]", MinArity: 1, MaxArity: 1, Params: []ArgClass{TextArg}, Result: sameAsFirst},
	OpReversedCodepoint:  {Name: "reversed[codepoint]", MinArity: 1, MaxArity: 1, Params: []ArgClass{TextArg}, Result: sameAsFirst},
	OpReversedAscii:      {Name: "reversed[Ascii]", MinArity: 1, MaxArity: 1, Params: []ArgClass{TextArg}, Result: sameAsFirst},
	OpFindByte:           {Name: "find[byte]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, TextArg}, Result: fixed(findT)},
	OpFindCodepoint:      {Name: "find[codepoint]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, TextArg}, Result: fixed(findT)},
	OpFindAscii:          {Name: "find[Ascii]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, TextArg}, Result: fixed(findT)},
	OpContainsText:       {Name: "contains[Text]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, TextArg}, Result: fixed(boolT)},
	OpSplit:              {Name: "split", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, TextArg}, Result: func(a []types.Type) (types.Type, error) { return types.ListOf(a[0]), nil }},
	OpSplitWhitespace:    {Name: "split_whitespace", MinArity: 1, MaxArity: 1, Params: []ArgClass{TextArg}, Result: func(a []types.Type) (types.Type, error) { return types.ListOf(a[0]), nil }},
	OpJoin:               {Name: "join", MinArity: 2, MaxArity: 2, Params: []ArgClass{ListArg, TextArg}, Result: fixed(textT)},
	OpReplace:            {Name: "replace", MinArity: 3, MaxArity: 3, Params: []ArgClass{TextArg, TextArg, TextArg}, Result: textLike},
	OpTextMultireplace:   {Name: "text_multireplace", MinArity: 3, MaxArity: -1, Params: []ArgClass{TextArg}, Result: textMultireplace},
	OpStartsWith:         {Name: "starts_with", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, TextArg}, Result: fixed(boolT)},
	OpEndsWith:           {Name: "ends_with", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, TextArg}, Result: fixed(boolT)},
	OpRightAlign:         {Name: "right_align", MinArity: 2, MaxArity: 2, Params: []ArgClass{TextArg, IntArg}, Result: textLike},

	OpAtList:         {Name: "at[List]", MinArity: 2, MaxArity: 2, Params: []ArgClass{ListArg, IntArg}, Result: memberOf},
	OpAtArray:        {Name: "at[Array]", MinArity: 2, MaxArity: 2, Params: []ArgClass{ArrayArg, IntArg}, Result: memberOf},
	OpAtTable:        {Name: "at[Table]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TableArg, AnyArg}, Result: memberOf},
	OpAtBackList:     {Name: "at_back[List]", MinArity: 2, MaxArity: 2, Params: []ArgClass{ListArg, IntArg}, Result: memberOf},
	OpAtArgv:         {Name: "at[argv]", MinArity: 1, MaxArity: 1, Params: []ArgClass{IntArg}, Result: fixed(textT)},
	OpWithAtList:     {Name: "with_at[List]", MinArity: 3, MaxArity: 3, Params: []ArgClass{ListArg, IntArg, AnyArg}, Result: fixed(voidT)},
	OpWithAtArray:    {Name: "with_at[Array]", MinArity: 3, MaxArity: 3, Params: []ArgClass{ArrayArg, IntArg, AnyArg}, Result: fixed(voidT)},
	OpWithAtTable:    {Name: "with_at[Table]", MinArity: 3, MaxArity: 3, Params: []ArgClass{TableArg, AnyArg, AnyArg}, Result: fixed(voidT)},
	OpWithAtBackList: {Name: "with_at_back[List]", MinArity: 3, MaxArity: 3, Params: []ArgClass{ListArg, IntArg, AnyArg}, Result: fixed(voidT)},
	OpSizeList:       {Name: "size[List]", MinArity: 1, MaxArity: 1, Params: []ArgClass{ListArg}, Result: fixed(natT)},
	OpSizeTable:      {Name: "size[Table]", MinArity: 1, MaxArity: 1, Params: []ArgClass{TableArg}, Result: fixed(natT)},
	OpAppend:         {Name: "append", MinArity: 2, MaxArity: 2, Params: []ArgClass{ListArg, AnyArg}, Result: appendResult},
	OpConcatList:     {Name: "concat[List]", MinArity: 2, MaxArity: -1, Params: []ArgClass{ListArg}, Result: concatList},
	OpContainsList:   {Name: "contains[List]", MinArity: 2, MaxArity: 2, Params: []ArgClass{ListArg, AnyArg}, Result: fixed(boolT)},
	OpContainsArray:  {Name: "contains[Array]", MinArity: 2, MaxArity: 2, Params: []ArgClass{ArrayArg, AnyArg}, Result: fixed(boolT)},
	OpContainsTable:  {Name: "contains[Table]", MinArity: 2, MaxArity: 2, Params: []ArgClass{TableArg, AnyArg}, Result: fixed(boolT)},
	OpFindList:       {Name: "find[List]", MinArity: 2, MaxArity: 2, Params: []ArgClass{ListArg, AnyArg}, Result: fixed(findT)},
	OpSliceList:      {Name: "slice[List]", MinArity: 3, MaxArity: 3, Params: []ArgClass{ListArg, IntArg, IntArg}, Result: sameAsFirst},
	OpSliceBackList:  {Name: "slice_back[List]", MinArity: 3, MaxArity: 3, Params: []ArgClass{ListArg, IntArg, IntArg}, Result: sameAsFirst},
	OpSortedInt:      {Name: "sorted[Int]", MinArity: 1, MaxArity: 1, Params: []ArgClass{ListArg}, Result: sameAsFirst},
	OpSortedAscii:    {Name: "sorted[Ascii]", MinArity: 1, MaxArity: 1, Params: []ArgClass{ListArg}, Result: sameAsFirst},
	OpReversedList:   {Name: "reversed[List]", MinArity: 1, MaxArity: 1, Params: []ArgClass{ListArg}, Result: sameAsFirst},

	OpPrintText:   {Name: "print[Text]", MinArity: 1, MaxArity: 1, Params: []ArgClass{TextArg}, Result: fixed(voidT)},
	OpPrintlnText: {Name: "println[Text]", MinArity: 1, MaxArity: 1, Params: []ArgClass{TextArg}, Result: fixed(voidT)},
	OpPrintInt:    {Name: "print[Int]", MinArity: 1, MaxArity: 1, Params: []ArgClass{IntArg}, Result: fixed(voidT)},
	OpPrintlnInt:  {Name: "println[Int]", MinArity: 1, MaxArity: 1, Params: []ArgClass{IntArg}, Result: fixed(voidT)},
}

var opByName = func() map[string]OpCode {
	m := make(map[string]OpCode, opCount)
	for code := OpInvalid + 1; code < opCount; code++ {
		info := opTable[code]
		if info.Name == "" || info.Result == nil {
			panic(fmt.Sprintf("op table entry %d is incomplete", code))
		}
		if _, dup := m[info.Name]; dup {
			panic(fmt.Sprintf("duplicate op tag %q", info.Name))
		}
		m[info.Name] = code
	}
	return m
}()

// UnknownOpError reports a tag outside the op vocabulary.
type UnknownOpError struct {
	Tag        string
	Suggestion string
}

func (e *UnknownOpError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unrecognized operation %q (did you mean %q?)", e.Tag, e.Suggestion)
	}
	return fmt.Sprintf("unrecognized operation %q", e.Tag)
}

// ParseOpCode resolves a textual tag such as "at[List]".
func ParseOpCode(tag string) (OpCode, error) {
	if code, ok := opByName[tag]; ok {
		return code, nil
	}
	return OpInvalid, &UnknownOpError{Tag: tag, Suggestion: closestOp(tag)}
}

func closestOp(tag string) string {
	ranks := fuzzy.RankFindFold(tag, OpNames())
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

// OpNames lists every tag in declaration order.
func OpNames() []string {
	names := make([]string, 0, opCount-1)
	for code := OpInvalid + 1; code < opCount; code++ {
		names = append(names, opTable[code].Name)
	}
	return names
}

// Valid reports whether c is a member of the vocabulary.
func (c OpCode) Valid() bool { return c > OpInvalid && c < opCount }

func (c OpCode) String() string {
	if c < 0 || c >= opCount {
		return fmt.Sprintf("OpCode(%d)", int(c))
	}
	return opTable[c].Name
}

// Info returns the table entry for c.
func (c OpCode) Info() OpInfo {
	if !c.Valid() {
		panic(fmt.Sprintf("invalid op code %d", int(c)))
	}
	return opTable[c]
}

// Variant swaps the bracketed qualifier of the tag, e.g. at[Ascii] to at[byte].
// It reports false when the resulting tag is not in the vocabulary.
func (c OpCode) Variant(from, to string) (OpCode, bool) {
	name := c.String()
	suffix := "[" + from + "]"
	if len(name) < len(suffix) || name[len(name)-len(suffix):] != suffix {
		return OpInvalid, false
	}
	code, ok := opByName[name[:len(name)-len(suffix)]+"["+to+"]"]
	return code, ok
}

// ResultType checks operand shapes and computes the result type.
func (c OpCode) ResultType(args []types.Type) (types.Type, error) {
	info := c.Info()
	if len(args) < info.MinArity || (info.MaxArity >= 0 && len(args) > info.MaxArity) {
		return nil, fmt.Errorf("%s: wrong number of operands %d", info.Name, len(args))
	}
	for i, a := range args {
		if !info.paramClass(i).Accepts(a) {
			return nil, fmt.Errorf("%s: operand %d has type %s", info.Name, i, a)
		}
	}
	t, err := info.Result(args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", info.Name, err)
	}
	return t, nil
}

// Flipped returns the op that computes the same result with the two operands
// swapped: the op itself when commutative, the mirrored comparison otherwise.
func (c OpCode) Flipped() (OpCode, bool) {
	switch c {
	case OpLt:
		return OpGt, true
	case OpGt:
		return OpLt, true
	case OpLeq:
		return OpGeq, true
	case OpGeq:
		return OpLeq, true
	}
	if c.Valid() && opTable[c].Commutative {
		return c, true
	}
	return OpInvalid, false
}

// Negated returns the op computing the boolean negation of c.
func (c OpCode) Negated() (OpCode, bool) {
	switch c {
	case OpLt:
		return OpGeq, true
	case OpGeq:
		return OpLt, true
	case OpGt:
		return OpLeq, true
	case OpLeq:
		return OpGt, true
	case OpEqInt:
		return OpNeqInt, true
	case OpNeqInt:
		return OpEqInt, true
	case OpEqText:
		return OpNeqText, true
	case OpNeqText:
		return OpEqText, true
	}
	return OpInvalid, false
}
