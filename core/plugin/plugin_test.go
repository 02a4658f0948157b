package plugin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/spine"
)

var negToPrefix = plugin.New("negToPrefix", func(s *spine.Spine) ir.Node {
	if op, ok := s.Node().(*ir.Op); ok && op.Op == ir.OpNeg {
		return ir.NewPrefix("-", op.Args[0])
	}
	return nil
})

var identity = plugin.New("identity", func(s *spine.Spine) ir.Node {
	return s.Node()
})

func TestNewAdaptsSingleResult(t *testing.T) {
	s := spine.New(ir.NewOp(ir.OpNeg, ir.NewInt(3)))
	alts := negToPrefix.Rewrite(s)
	require.Len(t, alts, 1)
	assert.Equal(t, ir.KindPrefix, alts[0].Kind())

	assert.Nil(t, negToPrefix.Rewrite(spine.New(ir.NewInt(3))))
}

func TestMatchesDropsNoOpRewrites(t *testing.T) {
	s := spine.New(ir.NewInt(3))
	assert.Len(t, identity.Rewrite(s), 1)
	assert.Empty(t, plugin.Matches(identity, s))

	rebuilt := plugin.New("rebuilt", func(s *spine.Spine) ir.Node { return ir.NewInt(3) })
	assert.Empty(t, plugin.Matches(rebuilt, s), "structurally equal replacement is no match")
}

func TestRewriteIsReferentiallyTransparent(t *testing.T) {
	s := spine.New(ir.NewOp(ir.OpNeg, ir.NewIdent("x")))
	first := negToPrefix.Rewrite(s)
	second := negToPrefix.Rewrite(s)
	require.Len(t, second, len(first))
	for i := range first {
		assert.True(t, ir.Equal(first[i], second[i]))
	}
}

func TestCompose(t *testing.T) {
	p := plugin.Compose("both", identity, negToPrefix)
	alts := p.Rewrite(spine.New(ir.NewOp(ir.OpNeg, ir.NewInt(1))))
	require.Len(t, alts, 1)
	assert.Equal(t, ir.KindOp, alts[0].Kind(), "first matching plugin wins")
}

func TestNewCheckRejectsWithoutRewriting(t *testing.T) {
	p := plugin.NewCheck("noNeg", func(s *spine.Spine) *plugin.Rejection {
		if op, ok := s.Node().(*ir.Op); ok && op.Op == ir.OpNeg {
			return &plugin.Rejection{Op: op.Op.String(), Reason: "no negation"}
		}
		return nil
	})
	c, ok := p.(plugin.Checker)
	require.True(t, ok)

	s := spine.New(ir.NewOp(ir.OpNeg, ir.NewInt(3)))
	assert.Nil(t, p.Rewrite(s))
	rej := c.Check(s)
	require.NotNil(t, rej)
	assert.Equal(t, "no negation", rej.Reason)
	assert.Empty(t, rej.At)

	assert.Nil(t, c.Check(spine.New(ir.NewInt(3))))
}

func TestDiscipline(t *testing.T) {
	for _, d := range []plugin.Discipline{plugin.Required, plugin.SimpleGolf, plugin.Search} {
		got, err := plugin.ParseDiscipline(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err := plugin.ParseDiscipline("greedy")
	assert.Error(t, err)

	phase := plugin.NewSearch(negToPrefix, identity)
	assert.Equal(t, plugin.Search, phase.Discipline)
	assert.Equal(t, []string{"negToPrefix", "identity"}, phase.Names())
}
