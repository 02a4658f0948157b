package plugins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/spine"
	"github.com/opal-lang/golfc/internal/irtext"
	"github.com/opal-lang/golfc/internal/plugins"
)

func TestRemoveUnusedForVar(t *testing.T) {
	runRewriteCases(t, plugins.RemoveUnusedForVar, []rewriteCase{
		{
			"unused",
			`(for $i 0 $n 1 {(println[Text] "x")})`,
			[]string{"(for _ 0 $n 1 {\n  (println[Text] \"x\");\n})"},
		},
		{"inclusive", `(for_inclusive $i 1 10 2 {})`, []string{`(for_inclusive _ 1 10 2 {})`}},
		{"used", `(for $i 0 $n 1 {(println[Int] $i)})`, nil},
		{"already count-only", `(for _ 0 $n 1 {})`, nil},
	})
}

func TestRemoveUnusedForVarKeepsIterationCount(t *testing.T) {
	prog, err := irtext.Parse(`(for $i 3 (mul $n 2) 2 {(println[Text] "x")})`)
	require.NoError(t, err)
	s := spine.New(prog).Child(ir.Indexed("children", 0))
	alts := plugins.RemoveUnusedForVar.Rewrite(s)
	require.Len(t, alts, 1)

	before := s.Node().(*ir.ForRange)
	after, ok := alts[0].(*ir.ForRange)
	require.True(t, ok)
	assert.Nil(t, after.Variable)
	assert.Equal(t, before.Inclusive, after.Inclusive)
	for _, pair := range [][2]ir.Node{
		{before.Start, after.Start},
		{before.End, after.End},
		{before.Increment, after.Increment},
		{before.Body, after.Body},
	} {
		assert.True(t, ir.Equal(pair[0], pair[1]))
	}
	assert.NotNil(t, before.Variable, "input must be left untouched")
}

func TestForRangeToForRangeInclusive(t *testing.T) {
	runRewriteCases(t, plugins.ForRangeToForRangeInclusive, []rewriteCase{
		{"literal end", `(for $i 0 10 1 {})`, []string{`(for_inclusive $i 0 9 1 {})`}},
		{"variable end", `(for $i 1 $n 2 {})`, []string{`(for_inclusive $i 1 (sub $n 1) 2 {})`}},
		{"negative step", `(for $i 10 0 -1 {})`, nil},
		{"already inclusive", `(for_inclusive $i 0 9 1 {})`, nil},
	})
}

func TestForRangeToForDifferenceRange(t *testing.T) {
	runRewriteCases(t, plugins.ForRangeToForDifferenceRange, []rewriteCase{
		{"from zero", `(for $i 0 $n 1 {})`, []string{`(for_difference $i 0 $n 1 {})`}},
		{"from elsewhere", `(for $i 2 $n 1 {})`, []string{`(for_difference $i 2 (sub $n 2) 1 {})`}},
		{"count-only", `(for _ 0 $n 1 {})`, nil},
	})
}

func TestForRangeToForEach(t *testing.T) {
	runRewriteCases(t, plugins.ForRangeToForEach, []rewriteCase{
		{
			"index only used to read",
			`(for $i 0 (size[List] $xs) 1 {(println[Int] (at[List] $xs $i))})`,
			[]string{"(for_each $i $xs {\n  (println[Int] $i);\n})"},
		},
		{
			"index used on its own",
			`(for $i 0 (size[List] $xs) 1 {(println[Int] (add (at[List] $xs $i) $i))})`,
			nil,
		},
		{
			"collection written in the body",
			`(for $i 0 (size[List] $xs) 1 {(println[Int] (at[List] $xs $i)); (assignment $xs $ys)})`,
			nil,
		},
		{
			"index rebound by a nested loop",
			`(for $i 0 (size[List] $xs) 1 {(println[Int] (at[List] $xs $i)); (for $i 0 3 1 {})})`,
			nil,
		},
		{"not from zero", `(for $i 1 (size[List] $xs) 1 {(println[Int] (at[List] $xs $i))})`, nil},
	})
}

func TestForRangeToForCLike(t *testing.T) {
	runRewriteCases(t, plugins.ForRangeToForCLike, []rewriteCase{
		{
			"exclusive",
			`(for $i 0 $n 1 {})`,
			[]string{`(for_c_like (assignment $i 0) (lt $i $n) (assignment $i (add $i 1)) {})`},
		},
		{
			"inclusive",
			`(for_inclusive $i 1 $n 3 {})`,
			[]string{`(for_c_like (assignment $i 1) (leq $i $n) (assignment $i (add $i 3)) {})`},
		},
		{"count-only", `(for _ 0 $n 1 {})`, nil},
		{"variable assigned", `(for $i 0 $n 1 {(assignment $i 5)})`, nil},
		{"variable updated in place", `(for $i 0 $n 1 {(mutating_infix "+" $i 2)})`, nil},
		{"bound assigned", `(for $i 0 (add $n 1) 1 {(assignment $n 0)})`, nil},
	})
}

func TestShiftRangeOneUp(t *testing.T) {
	runRewriteCases(t, plugins.ShiftRangeOneUp, []rewriteCase{
		{
			"every use is a successor",
			`(for $i 0 10 1 {(println[Int] (add $i 1))})`,
			[]string{"(for $i 1 11 1 {\n  (println[Int] $i);\n})"},
		},
		{
			"most uses are successors",
			`(for $i 0 $n 1 {(println[Int] (add $i 1)); (println[Int] (add 1 $i)); (println[Int] $i)})`,
			[]string{"(for $i 1 (add $n 1) 1 {\n  (println[Int] $i);\n  (println[Int] $i);\n  (println[Int] (sub $i 1));\n})"},
		},
		{"no successor", `(for $i 0 10 1 {(println[Int] $i)})`, nil},
		{
			"half the uses",
			`(for $i 0 10 1 {(println[Int] (add $i 1)); (println[Int] $i)})`,
			nil,
		},
		{"variable assigned", `(for $i 0 10 1 {(println[Int] (add $i 1)); (assignment $i 5)})`, nil},
	})
}

func TestForArgvToForEach(t *testing.T) {
	runRewriteCases(t, plugins.ForArgvToForEach, []rewriteCase{
		{
			"argument read by index",
			`(for $i 0 (size[List] (argv)) 1 {(println[Text] (at[argv] $i))})`,
			[]string{"(for_each $i (argv) {\n  (println[Text] $i);\n})"},
		},
		{
			"argument read from the list",
			`(for $i 0 (size[List] (argv)) 1 {(println[Text] (at[List] (argv) $i))})`,
			[]string{"(for_each $i (argv) {\n  (println[Text] $i);\n})"},
		},
		{
			"index printed",
			`(for $i 0 (size[List] (argv)) 1 {(println[Text] (at[argv] $i)); (println[Int] $i)})`,
			nil,
		},
		{"other list", `(for $i 0 (size[List] $xs) 1 {(println[Int] (at[List] $xs $i))})`, nil},
		{"offset start", `(for $i 1 (size[List] (argv)) 1 {(println[Text] (at[argv] $i))})`, nil},
	})
}
