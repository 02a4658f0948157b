package golfscript_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/golfc/core/emit"
	"github.com/opal-lang/golfc/core/engine"
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/internal/irtext"
	"github.com/opal-lang/golfc/internal/languages/golfscript"
)

func compile(t *testing.T, src string) (string, error) {
	t.Helper()
	prog, err := irtext.Parse(src)
	require.NoError(t, err)
	res, err := engine.Compile(prog, golfscript.Language(), engine.DefaultConfig())
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"final print is implicit", `(println[Text] "Hello")`, `"Hello"`},
		{"counted loop", `(for $i 0 5 1 {(println[Int] $i)})`, `5,{:a;a n+print}/`},
		{"count-only loop repeats a block", `(for $i 0 3 1 {(print[Text] "x")})`, `3{"x"print}*`},
		{"assignment pops", `(assignment $count 7); (println[Int] (mul $count $count))`, `7:a;a a*`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := compile(t, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNegativeStartUsesDifferenceRange(t *testing.T) {
	got, err := compile(t, `(for $i -3 3 1 {(println[Int] $i)})`)
	require.NoError(t, err)
	assert.Contains(t, got, "{-3+:a;")
}

func TestUnmappedOpIsUnsupported(t *testing.T) {
	_, err := compile(t, `(println[Text] (text_multireplace "abc" "a" "b" "c" "d"))`)
	var unsupported *engine.UnsupportedConstructError
	require.True(t, errors.As(err, &unsupported), "got %v", err)
	assert.Equal(t, "text_multireplace", unsupported.Op)
}

func TestEmitRejectsInfix(t *testing.T) {
	_, err := golfscript.Emit(ir.NewBlock(ir.NewInfix("+", ir.NewInt(1), ir.NewInt(2))))
	var unsupported *emit.UnsupportedNodeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, ir.KindInfix, unsupported.Kind)
	assert.Equal(t, "+", unsupported.Op)
}

func TestEmitManyToManyStoresInReverse(t *testing.T) {
	prog := ir.NewBlock(ir.NewManyToManyAssignment(
		[]ir.Node{ir.NewIdent("a"), ir.NewIdent("b")},
		[]ir.Node{ir.NewIdent("b"), ir.NewIdent("a")},
	))
	got, err := golfscript.Language().Render(prog)
	require.NoError(t, err)
	assert.Equal(t, "b a:b;:a;", got)
}

func TestNeedsSpace(t *testing.T) {
	assert.True(t, golfscript.NeedsSpace("-", "1"), "minus then digit lexes as a negative literal")
	assert.False(t, golfscript.NeedsSpace("1", "-1"))
	assert.True(t, golfscript.NeedsSpace("a", "n"))
	assert.False(t, golfscript.NeedsSpace(`"x"`, "n"))
}

func TestAdjacencyAgreesWithTokenizer(t *testing.T) {
	tokens := []string{
		"a", "b1", "12", "-3", "-", "+", ":", ";", "{", "}", "[", "]",
		",", "=", "<", ">", "%", "/", "`", `"x"`, "print", "n",
	}
	for _, a := range tokens {
		for _, b := range tokens {
			assert.NoError(t, emit.CheckAdjacency(golfscript.Tokenize, golfscript.NeedsSpace, a, b))
		}
	}
}
