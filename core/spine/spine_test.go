package spine_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/spine"
)

// program: { x = 1 + 2; print(x) }
func sample() (*ir.Block, *ir.Assignment, *ir.FunctionCall) {
	assign := ir.NewAssignment(ir.NewIdent("x"), ir.NewOp(ir.OpAdd, ir.NewInt(1), ir.NewInt(2)))
	call := ir.NewFunctionCall("print", ir.NewIdent("x"))
	return ir.NewBlock(assign, call), assign, call
}

func describe(s *spine.Spine) string {
	n := s.Node()
	switch n := n.(type) {
	case *ir.Identifier:
		return "id:" + n.Name
	case *ir.Integer:
		return "int:" + n.Value.String()
	}
	return n.Kind().String()
}

func TestWithDescendantsPreOrder(t *testing.T) {
	root, _, _ := sample()
	var got []string
	for s := range spine.New(root).WithDescendants() {
		got = append(got, describe(s))
	}
	want := []string{"Block", "Assignment", "id:x", "Op", "int:1", "int:2", "FunctionCall", "id:x"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("visit order mismatch (-want +got):\n%s", diff)
	}
}

func TestWithDescendantsStopsEarly(t *testing.T) {
	root, _, _ := sample()
	count := 0
	for range spine.New(root).WithDescendants() {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestNavigation(t *testing.T) {
	root, assign, _ := sample()
	s := spine.New(root)
	assert.True(t, s.IsRoot())
	assert.Nil(t, s.Parent())

	child := s.Child(ir.Indexed("children", 0))
	require.NotNil(t, child)
	assert.Same(t, assign, child.Node())

	lit := child.Child(ir.Field("expr")).Child(ir.Indexed("args", 1))
	require.NotNil(t, lit)
	assert.Equal(t, 3, lit.Depth())
	assert.Equal(t, "children[0].expr.args[1]", lit.PathString())
	assert.Same(t, root, lit.Root())

	kind, ok := lit.ParentKind()
	require.True(t, ok)
	assert.Equal(t, ir.KindOp, kind)
	assert.True(t, lit.IsDescendantOf(ir.KindAssignment))
	assert.False(t, lit.IsDescendantOf(ir.KindWhile))

	assert.Nil(t, s.Child(ir.Indexed("children", 7)))
	assert.Same(t, lit.Node(), s.At(lit.Path()).Node())
}

func TestReplaceSharesSiblings(t *testing.T) {
	root, assign, call := sample()
	lit := spine.New(root).
		Child(ir.Indexed("children", 0)).
		Child(ir.Field("expr")).
		Child(ir.Indexed("args", 1))

	replaced := lit.Replace(ir.NewInt(40))
	newRoot := replaced.Root().(*ir.Block)

	assert.NotSame(t, root, newRoot)
	assert.Same(t, call, newRoot.Children[1], "sibling subtree is shared")
	assert.NotSame(t, assign, newRoot.Children[0], "ancestor is rebuilt")
	assert.Same(t, assign.Variable, newRoot.Children[0].(*ir.Assignment).Variable)

	// the old tree is untouched
	assert.True(t, ir.IsIntLiteral(assign.Expr.(*ir.Op).Args[1], 2))
	assert.True(t, ir.IsIntLiteral(replaced.Node(), 40))
	assert.Equal(t, lit.Path(), replaced.Path())
	assert.Same(t, lit.Root(), root)
}

func TestReplaceAtRoot(t *testing.T) {
	root, _, _ := sample()
	s := spine.New(root).Replace(ir.NewBlock())
	assert.True(t, s.IsRoot())
	assert.Empty(t, s.Node().(*ir.Block).Children)
}

func TestAncestors(t *testing.T) {
	root, _, _ := sample()
	lit := spine.New(root).At([]ir.PathFragment{ir.Indexed("children", 0), ir.Field("expr"), ir.Indexed("args", 0)})
	require.NotNil(t, lit)
	var kinds []ir.Kind
	for a := range lit.Ancestors() {
		kinds = append(kinds, a.Node().Kind())
	}
	assert.Equal(t, []ir.Kind{ir.KindOp, ir.KindAssignment, ir.KindBlock}, kinds)
}
