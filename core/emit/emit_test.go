package emit_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/golfc/core/emit"
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/spine"
)

func TestDefaultDetokenizer(t *testing.T) {
	detok := emit.DefaultDetokenizer(emit.AlphanumericAdjacency)
	tests := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"call with negative literal", []string{"print", "(", "-", "1", ")"}, "print(-1)"},
		{"keyword meets identifier", []string{"for", "i", "in", "x"}, "for i in x"},
		{"empty tokens dropped", []string{"a", "", "b"}, "a b"},
		{"symbols never separated", []string{"x", "+=", "-", "y"}, "x+=-y"},
		{"nothing", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detok(tt.tokens))
		})
	}
}

func TestDetokenizerHonorsPredicate(t *testing.T) {
	// a language where an identifier directly before "(" is a different call form
	spaceBeforeParen := func(prev, next string) bool {
		return emit.AlphanumericAdjacency(prev, next) || (emit.IsWordChar(prev[len(prev)-1]) && next == "(")
	}
	got := emit.DefaultDetokenizer(spaceBeforeParen)([]string{"print", "(", "-", "1", ")"})
	assert.Equal(t, "print (-1)", got)
}

func TestCheckAdjacency(t *testing.T) {
	tokenize := emit.RegexpTokenizer(`[A-Za-z_][A-Za-z0-9_]*|[0-9]+|[-+*/=]+|.`)
	assert.Equal(t, []string{"x", "+=", "12", "foo", ";"}, tokenize("x+=12 foo;"))

	assert.NoError(t, emit.CheckAdjacency(tokenize, emit.AlphanumericAdjacency, "foo", "bar"))
	assert.NoError(t, emit.CheckAdjacency(tokenize, emit.AlphanumericAdjacency, "foo", "("))

	never := func(string, string) bool { return false }
	assert.Error(t, emit.CheckAdjacency(tokenize, never, "foo", "bar"))
	// "+" followed by "=" merges into one operator unless separated
	assert.Error(t, emit.CheckAdjacency(tokenize, emit.AlphanumericAdjacency, "+", "="))
}

func TestUnsupportedNodeError(t *testing.T) {
	root := ir.NewBlock(ir.NewOp(ir.OpNeg, ir.NewInt(1)))
	s := spine.New(root).Child(ir.Indexed("children", 0))
	err := error(emit.Unsupported(s))

	var unsupported *emit.UnsupportedNodeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, ir.KindOp, unsupported.Kind)
	assert.Equal(t, `unsupported node Op "neg" at children[0]`, err.Error())
}

func TestRender(t *testing.T) {
	e := emit.EmitterFunc(func(program ir.Node) ([]string, error) {
		if lit, ok := program.(*ir.Integer); ok {
			return []string{"print", lit.Value.String()}, nil
		}
		return nil, &emit.UnsupportedNodeError{Kind: program.Kind()}
	})
	out, err := emit.Render(e, emit.DefaultDetokenizer(emit.AlphanumericAdjacency), ir.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, "print 5", out)

	_, err = emit.Render(e, emit.DefaultDetokenizer(emit.AlphanumericAdjacency), ir.NewText("x"))
	assert.Error(t, err)
}
