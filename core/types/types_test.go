package types_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/golfc/core/types"
)

func TestIsSubtype(t *testing.T) {
	tests := []struct {
		name string
		a, b types.Type
		want bool
	}{
		{"int reflexive", types.IntRange(0, 100), types.IntRange(0, 100), true},
		{"int contained", types.IntRange(1, 5), types.IntRange(0, 100), true},
		{"int overlapping", types.IntRange(-1, 5), types.IntRange(0, 100), false},
		{"int in unbounded", types.IntRange(-1, 5), types.Unbounded(), true},
		{"unbounded in int64", types.Unbounded(), types.Int64(), false},
		{"ascii in text", types.AsciiType(), types.TextType(), true},
		{"text in ascii", types.TextType(), types.AsciiType(), false},
		{"fixed length text", types.TextOfLength(3, true), types.TextType(), true},
		{"list covariant", types.ListOf(types.IntRange(0, 1)), types.ListOf(types.IntRange(0, 9)), true},
		{"list not contravariant", types.ListOf(types.IntRange(0, 9)), types.ListOf(types.IntRange(0, 1)), false},
		{"empty list", types.ListOf(types.Void{}), types.ListOf(types.TextType()), true},
		{"array length mismatch", types.ArrayOf(types.Boolean{}, 2), types.ArrayOf(types.Boolean{}, 3), false},
		{"table covariant", types.TableOf(types.AsciiType(), types.IntRange(0, 1)), types.TableOf(types.TextType(), types.Unbounded()), true},
		{"kind mismatch", types.Boolean{}, types.IntRange(0, 1), false},
		{"void reflexive", types.Void{}, types.Void{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, types.IsSubtype(tt.a, tt.b))
		})
	}
}

func TestUnion(t *testing.T) {
	u, err := types.Union(types.IntRange(0, 3), types.IntRange(-5, 1))
	require.NoError(t, err)
	assert.Equal(t, "-5..3", u.String())

	u, err = types.Union(types.Void{}, types.AsciiType())
	require.NoError(t, err)
	assert.True(t, types.Equal(u, types.AsciiType()))

	_, err = types.Union(types.Boolean{}, types.TextType())
	assert.Error(t, err)
}

func TestIntersect(t *testing.T) {
	got, err := types.Intersect(types.Unbounded(), types.IntRange(0, 10))
	require.NoError(t, err)
	assert.Equal(t, "0..10", got.String())

	_, err = types.Intersect(types.IntRange(20, 30), types.IntRange(0, 10))
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	tests := []struct {
		typ  types.Type
		want string
	}{
		{types.Unbounded(), "Int"},
		{types.AtLeast(0), "0..oo"},
		{types.IntRange(-3, 3), "-3..3"},
		{types.TextType(), "Text"},
		{types.TextOfLength(1, true), "(Ascii 1..1)"},
		{types.ListOf(types.Boolean{}), "(List Bool)"},
		{types.ArrayOf(types.Unbounded(), 4), "(Array Int 4)"},
		{types.TableOf(types.TextType(), types.IntRange(0, 1)), "(Table Text 0..1)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.String())
	}
}

func TestIntervalArithmetic(t *testing.T) {
	r := types.IntRange
	tests := []struct {
		name string
		got  types.Integer
		want string
	}{
		{"add", types.Add(r(0, 10), r(-1, 1)), "-1..11"},
		{"sub", types.Sub(r(0, 10), r(-1, 1)), "-1..11"},
		{"mul signs", types.Mul(r(-2, 3), r(-5, 4)), "-15..12"},
		{"mul infinite", types.Mul(types.AtLeast(0), r(0, 0)), "0..0"},
		{"neg", types.Neg(r(1, 5)), "-5..-1"},
		{"abs mixed", types.Abs(r(-7, 3)), "0..7"},
		{"pred", types.Pred(r(0, 100)), "-1..99"},
		{"floor div", types.FloorDiv(r(-7, 7), r(2, 2)), "-4..3"},
		{"floor div negative divisor", types.FloorDiv(r(7, 7), r(-2, -2)), "-4..-4"},
		{"trunc div", types.TruncDiv(r(-7, 7), r(2, 2)), "-3..3"},
		{"div by range with zero", types.FloorDiv(r(1, 2), r(-1, 1)), "Int"},
		{"mod positive", types.Mod(r(-100, 100), r(1, 10)), "0..9"},
		{"mod small dividend", types.Mod(r(0, 3), r(10, 10)), "0..3"},
		{"rem", types.Rem(r(-100, 100), r(10, 10)), "-9..9"},
		{"pow", types.Pow(r(2, 3), r(0, 4)), "1..81"},
		{"pow zero base", types.Pow(r(0, 0), r(0, 2)), "0..1"},
		{"bit not", types.BitNot(r(0, 5)), "-6..-1"},
		{"bit and", types.BitAnd(r(0, 12), r(-5, 5)), "0..12"},
		{"bit or", types.BitOr(r(0, 5), r(0, 2)), "0..7"},
		{"shift left", types.ShiftLeft(r(1, 3), r(0, 2)), "1..12"},
		{"shift right", types.ShiftRight(r(0, 100), r(1, 1)), "0..50"},
		{"gcd", types.Gcd(r(-4, 2), r(0, 3)), "0..4"},
		{"min", types.Min(r(0, 10), r(5, 6)), "0..6"},
		{"max", types.Max(r(0, 10), r(5, 6)), "5..10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got.String())
		})
	}
}

func TestInt64Boundaries(t *testing.T) {
	i64 := types.Int64()
	assert.True(t, i64.Contains(big.NewInt(math.MinInt64)))
	assert.True(t, i64.Contains(big.NewInt(math.MaxInt64)))

	below := new(big.Int).Sub(big.NewInt(math.MinInt64), big.NewInt(1))
	assert.False(t, i64.Contains(below))

	// pred of a value at the representable minimum leaves the range
	atMin := types.IntegerType(types.Int(math.MinInt64), types.Int(0))
	assert.False(t, types.IsSubtype(types.Pred(atMin), i64))
	assert.True(t, types.IsSubtype(types.Pred(types.IntRange(0, 100)), i64))
}

func TestExceeds(t *testing.T) {
	tests := []struct {
		name string
		t    types.Integer
		want bool
	}{
		{"inside", types.IntRange(-5, 5), false},
		{"largest safe", types.IntRange(0, 1<<53-1), false},
		{"one past the top", types.IntRange(0, 1<<53), true},
		{"below the bottom", types.IntRange(-(1 << 53), 0), true},
		{"unknown size", types.Unbounded(), false},
		{"unknown low, large high", types.Integer{Low: types.NegInf(), High: types.Int(1 << 60)}, true},
		{"large low, unknown high", types.AtLeast(1 << 60), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, types.Exceeds(tt.t, types.Int53()))
		})
	}
}

func TestConstant(t *testing.T) {
	v, ok := types.IntConst(big.NewInt(7)).Constant()
	require.True(t, ok)
	assert.Equal(t, int64(7), v.Int64())

	_, ok = types.IntRange(0, 1).Constant()
	assert.False(t, ok)
}

func TestIntegerTypePanicsOnEmptyInterval(t *testing.T) {
	assert.Panics(t, func() { types.IntRange(3, 2) })
}
