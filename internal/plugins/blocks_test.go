package plugins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/spine"
	"github.com/opal-lang/golfc/internal/irtext"
	"github.com/opal-lang/golfc/internal/plugins"
)

func TestInlineVariables(t *testing.T) {
	runRewriteCases(t, plugins.InlineVariables, []rewriteCase{
		{
			"used once in the next statement",
			`(assignment $t (add $x 1)); (println[Int] (mul $t 2))`,
			[]string{"(println[Int] (mul (add $x 1) 2));\n"},
		},
		{
			"used inside a loop",
			`(assignment $t 1); (for _ 0 3 1 {(println[Int] $t)})`,
			nil,
		},
		{
			"effectful value",
			`(assignment $t (read[line])); (println[Text] $t)`,
			nil,
		},
		{
			"operand overwritten",
			`(assignment $t $x); (assignment $x (add $t 1))`,
			nil,
		},
		{
			"used twice",
			`(assignment $t 1); (println[Int] (add $t $t))`,
			nil,
		},
	})
}

func TestTempVarToMultipleAssignment(t *testing.T) {
	runRewriteCases(t, plugins.TempVarToMultipleAssignment, []rewriteCase{
		{
			"swap",
			`(assignment $t $a); (assignment $a $b); (assignment $b $t)`,
			[]string{"(many_to_many_assignment [$a $b] [$b $a]);\n"},
		},
		{
			"temporary read later",
			`(assignment $t $a); (assignment $a $b); (assignment $b $t); (println[Int] $t)`,
			nil,
		},
	})
}

func TestAddManyToManyAssignments(t *testing.T) {
	runRewriteCases(t, plugins.AddManyToManyAssignments, []rewriteCase{
		{
			"independent",
			`(assignment $a 1); (assignment $b 2); (assignment $c 3)`,
			[]string{"(many_to_many_assignment [$a $b] [1 2]);\n(assignment $c 3);\n"},
		},
		{
			"extends a parallel assignment",
			`(many_to_many_assignment [$a $b] [1 2]); (assignment $c 3)`,
			[]string{"(many_to_many_assignment [$a $b $c] [1 2 3]);\n"},
		},
		{"reads the earlier variable", `(assignment $a 1); (assignment $b $a)`, nil},
		{"same variable", `(assignment $a 1); (assignment $a 2)`, nil},
	})
}

func TestRenameIdents(t *testing.T) {
	rename := plugins.RenameIdents("a")
	runRewriteCases(t, rename, []rewriteCase{
		{
			"first appearance order",
			`(assignment $count 1); (println[Int] (add $count $total))`,
			[]string{"(assignment $b 1);\n(println[Int] (add $b $c));\n"},
		},
		{
			"builtins are taken",
			`(assignment $x (at[List] @b 0))`,
			[]string{"(assignment $c (at[List] @b 0));\n"},
		},
	})
}

func TestRenameIdentsIsIdempotent(t *testing.T) {
	rename := plugins.RenameIdents("a")
	prog, err := irtext.Parse(`(for $index 0 $n 1 {(println[Int] (mul $index $n))})`)
	require.NoError(t, err)

	once := rename.Rewrite(spine.New(prog))
	require.Len(t, once, 1)
	assert.Equal(t, "(for $b 0 $c 1 {\n  (println[Int] (mul $b $c));\n});\n", irtext.Print(once[0]))
	assert.Empty(t, plugin.Matches(rename, spine.New(once[0])))
}
