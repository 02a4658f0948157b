package ir_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/types"
)

func TestParseOpCode(t *testing.T) {
	code, err := ir.ParseOpCode("at[List]")
	require.NoError(t, err)
	assert.Equal(t, ir.OpAtList, code)
	assert.Equal(t, "at[List]", code.String())

	_, err = ir.ParseOpCode("at[list]")
	var unknown *ir.UnknownOpError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "at[List]", unknown.Suggestion)
	assert.Contains(t, err.Error(), `did you mean "at[List]"`)
}

func TestOpNamesRoundTrip(t *testing.T) {
	for _, name := range ir.OpNames() {
		code, err := ir.ParseOpCode(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, code.String())
	}
}

func TestOpResultType(t *testing.T) {
	tests := []struct {
		name    string
		op      ir.OpCode
		args    []types.Type
		want    string
		wantErr bool
	}{
		{"add", ir.OpAdd, []types.Type{types.IntRange(0, 10), types.IntRange(1, 1)}, "1..11", false},
		{"concat", ir.OpConcatText, []types.Type{types.TextOfLength(2, true), types.TextOfLength(3, true)}, "(Ascii 5..5)", false},
		{"at list", ir.OpAtList, []types.Type{types.ListOf(types.Boolean{}), types.IntRange(0, 3)}, "Bool", false},
		{"wrong class", ir.OpAdd, []types.Type{types.TextType(), types.IntRange(0, 1)}, "", true},
		{"wrong arity", ir.OpNeg, []types.Type{types.IntRange(0, 1), types.IntRange(0, 1)}, "", true},
		{"constant zero divisor", ir.OpDiv, []types.Type{types.IntRange(0, 1), types.IntRange(0, 0)}, "", true},
		{"even multireplace", ir.OpTextMultireplace, []types.Type{types.TextType(), types.TextType(), types.TextType(), types.TextType()}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op.ResultType(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestOpRelations(t *testing.T) {
	flipped, ok := ir.OpLeq.Flipped()
	require.True(t, ok)
	assert.Equal(t, ir.OpGeq, flipped)

	flipped, ok = ir.OpMul.Flipped()
	require.True(t, ok)
	assert.Equal(t, ir.OpMul, flipped)

	_, ok = ir.OpSub.Flipped()
	assert.False(t, ok)

	neg, ok := ir.OpLt.Negated()
	require.True(t, ok)
	assert.Equal(t, ir.OpGeq, neg)

	v, ok := ir.OpAtAscii.Variant("Ascii", "byte")
	require.True(t, ok)
	assert.Equal(t, ir.OpAtByte, v)

	_, ok = ir.OpAdd.Variant("Ascii", "byte")
	assert.False(t, ok)
}

func TestNewOpArity(t *testing.T) {
	assert.Panics(t, func() { ir.NewOp(ir.OpAdd, ir.NewInt(1)) })
	assert.Panics(t, func() { ir.NewOp(ir.OpInvalid) })
	assert.NotPanics(t, func() { ir.NewOp(ir.OpConcatText, ir.NewText("a"), ir.NewText("b"), ir.NewText("c")) })
}

func TestNewOpComputesTypeFromAnnotatedArgs(t *testing.T) {
	x := ir.WithType(ir.NewIdent("x"), types.IntRange(0, 100))
	op := ir.NewOp(ir.OpAdd, x, ir.WithType(ir.NewInt(1), types.IntRange(1, 1)))
	require.NotNil(t, op.Type)
	assert.Equal(t, "1..101", op.Type.String())

	assert.Nil(t, ir.NewOp(ir.OpAdd, ir.NewIdent("y"), ir.NewInt(1)).Type)
}

func TestChildrenAndWithChild(t *testing.T) {
	left := ir.NewIdent("x")
	right := ir.NewInt(2)
	op := ir.NewOp(ir.OpMul, left, right)

	var frags []string
	for _, e := range ir.Children(op) {
		frags = append(frags, e.Fragment.String())
	}
	if diff := cmp.Diff([]string{"args[0]", "args[1]"}, frags); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}

	replaced := ir.WithChild(op, ir.Indexed("args", 1), ir.NewInt(3)).(*ir.Op)
	assert.Same(t, left, replaced.Args[0], "untouched child is shared")
	assert.True(t, ir.IsIntLiteral(op.Args[1], 2), "original is not mutated")
	assert.True(t, ir.IsIntLiteral(replaced.Args[1], 3))
}

func TestCountOnlyLoopHasNoVariableEdge(t *testing.T) {
	loop := ir.NewForRange(nil, ir.NewInt(0), ir.NewInt(5), ir.NewInt(1), ir.NewBlock(), false)
	for _, e := range ir.Children(loop) {
		assert.NotEqual(t, "variable", e.Fragment.Field)
	}
	assert.Nil(t, ir.ChildAt(loop, ir.Field("variable")))
}

func TestWithChildRejectsUnknownFragment(t *testing.T) {
	assert.Panics(t, func() { ir.WithChild(ir.NewPrefix("-", ir.NewInt(1)), ir.Field("left"), ir.NewInt(2)) })
	assert.Panics(t, func() { ir.WithChild(ir.NewBlock(ir.NewInt(1)), ir.Indexed("children", 4), ir.NewInt(2)) })
}

func TestHashFollowsRewrites(t *testing.T) {
	op := ir.NewOp(ir.OpAdd, ir.NewIdent("x"), ir.NewInt(1))
	before := ir.Hash(op)
	assert.Equal(t, before, ir.Hash(op), "hash is stable")

	replaced := ir.WithChild(op, ir.Indexed("args", 1), ir.NewInt(2))
	assert.NotEqual(t, before, ir.Hash(replaced))
	assert.Equal(t, ir.Hash(ir.NewOp(ir.OpAdd, ir.NewIdent("x"), ir.NewInt(2))), ir.Hash(replaced))
	assert.Equal(t, before, ir.Hash(op), "original keeps its hash")

	typed := ir.WithType(op, types.IntRange(1, 1))
	assert.NotEqual(t, before, ir.Hash(typed))
	assert.Equal(t, ir.Hash(typed), ir.Hash(ir.WithType(ir.NewOp(ir.OpAdd, ir.NewIdent("x"), ir.NewInt(1)), types.IntRange(1, 1))))

	block := ir.NewBlock(op, op)
	wider := ir.WithChild(block, ir.Indexed("children", 0), replaced)
	assert.NotEqual(t, ir.Hash(block), ir.Hash(wider))
}

func BenchmarkHashSharedSubtrees(b *testing.B) {
	stmts := make([]ir.Node, 80)
	for i := range stmts {
		stmts[i] = ir.NewOp(ir.OpPrintlnInt, ir.NewOp(ir.OpMul, ir.NewIdent("x"), ir.NewInt(int64(i))))
	}
	tree := ir.NewBlock(stmts...)
	ir.Hash(tree)
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		next := ir.WithChild(tree, ir.Indexed("children", i%len(stmts)), ir.NewOp(ir.OpPrintlnInt, ir.NewInt(int64(i))))
		ir.Hash(next)
	}
}

func TestHashIsStructural(t *testing.T) {
	a := ir.NewOp(ir.OpAdd, ir.NewIdent("x"), ir.NewInt(1))
	b := ir.NewOp(ir.OpAdd, ir.NewIdent("x"), ir.NewInt(1))
	c := ir.NewOp(ir.OpAdd, ir.NewIdent("x"), ir.NewInt(2))

	assert.Equal(t, ir.Hash(a), ir.Hash(b))
	assert.True(t, ir.Equal(a, b))
	assert.False(t, ir.Equal(a, c))
	assert.False(t, ir.Equal(ir.NewIdent("x"), ir.NewBuiltin("x")))
	assert.False(t, ir.Equal(a, ir.WithType(a, types.Unbounded())))

	count := ir.NewForRange(nil, ir.NewInt(0), ir.NewInt(5), ir.NewInt(1), ir.NewBlock(), false)
	inclusive := ir.NewForRange(nil, ir.NewInt(0), ir.NewInt(5), ir.NewInt(1), ir.NewBlock(), true)
	assert.False(t, ir.Equal(count, inclusive))
}

func TestSuccPred(t *testing.T) {
	assert.True(t, ir.IsIntLiteral(ir.Succ(ir.NewInt(4)), 5))
	assert.True(t, ir.IsIntLiteral(ir.Pred(ir.NewInt(0)), -1))

	x := ir.NewIdent("x")
	succ := ir.Succ(x)
	assert.True(t, ir.IsOp(succ, ir.OpAdd))
	assert.True(t, ir.IsOp(ir.Pred(x), ir.OpSub))

	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	got := ir.Succ(ir.NewBigInt(huge)).(*ir.Integer)
	assert.Equal(t, "123456789012345678901234567891", got.Value.String())
}

func TestIsAbstract(t *testing.T) {
	assert.True(t, ir.IsAbstract(ir.NewOp(ir.OpNeg, ir.NewInt(1))))
	assert.True(t, ir.IsAbstract(ir.NewImplicitConversion(ir.OpIntToDec, ir.NewInt(1))))
	assert.False(t, ir.IsAbstract(ir.NewFunctionCall("print", ir.NewInt(1))))
}

func TestSizeOrdersObviousRewrites(t *testing.T) {
	long := ir.NewOp(ir.OpAdd, ir.NewIdent("x"), ir.NewInt(1))
	short := ir.NewPrefix("-~", ir.NewIdent("x"))
	assert.Less(t, ir.Size(short), ir.Size(long))
}
