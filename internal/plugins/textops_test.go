package plugins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/internal/plugins"
)

func TestUsePrimaryTextOps(t *testing.T) {
	runRewriteCases(t, plugins.UsePrimaryTextOps("byte"), []rewriteCase{
		{"ascii size", `(size[Ascii] $s)`, []string{`(size[byte] $s)`}},
		{"ascii slice", `(slice[Ascii] $s 0 2)`, []string{`(slice[byte] $s 0 2)`}},
		{"already primary", `(size[byte] $s)`, nil},
	})
	runRewriteCases(t, plugins.UsePrimaryTextOps("codepoint"), []rewriteCase{
		{"codepoint", `(at[Ascii] $s 1)`, []string{`(at[codepoint] $s 1)`}},
	})
}

func TestCharacterAccessRewrites(t *testing.T) {
	runRewriteCases(t, plugins.TextGetToIntToTextGet, []rewriteCase{
		{"split ord_at", `(ord_at[byte] $s 0)`, []string{`(ord[byte] (at[byte] $s 0))`}},
		{"from the back", `(ord_at_back[Ascii] $s 1)`, []string{`(ord[Ascii] (at_back[Ascii] $s 1))`}},
	})
	runRewriteCases(t, plugins.TextToIntToTextGetToInt, []rewriteCase{
		{"fuse", `(ord[byte] (at[byte] $s $i))`, []string{`(ord_at[byte] $s $i)`}},
		{"mismatched flavour", `(ord[byte] (at[codepoint] $s $i))`, nil},
	})
	runRewriteCases(t, plugins.TextGetToTextGetToIntToText, []rewriteCase{
		{"via ord", `(at[codepoint] $s 1)`, []string{`(char[codepoint] (ord_at[codepoint] $s 1))`}},
	})
	runRewriteCases(t, plugins.TextToIntToFirstIndexTextGetToInt, []rewriteCase{
		{"first character", `(ord[Ascii] $s)`, []string{`(ord_at[Ascii] $s 0)`}},
	})
}

func TestUseMultireplace(t *testing.T) {
	runRewriteCases(t, plugins.UseMultireplace(false), []rewriteCase{
		{
			"independent replacements",
			`(replace (replace $s "a" "b") "c" "d")`,
			[]string{`(text_multireplace $s "a" "b" "c" "d")`},
		},
		{
			"extends a multireplace",
			`(replace (text_multireplace $s "a" "b" "c" "d") "e" "f")`,
			[]string{`(text_multireplace $s "a" "b" "c" "d" "e" "f")`},
		},
		{"second sees the first's output", `(replace (replace $s "a" "b") "b" "c")`, nil},
		{"first sees the second's output", `(replace (replace $s "a" "b") "c" "a")`, nil},
		{"non-literal", `(replace (replace $s $x "b") "c" "d")`, nil},
		{"longer inputs", `(replace (replace $s "ab" "x") "cd" "y")`, []string{`(text_multireplace $s "ab" "x" "cd" "y")`}},
	})
	runRewriteCases(t, plugins.UseMultireplace(true), []rewriteCase{
		{"longer inputs", `(replace (replace $s "ab" "x") "cd" "y")`, nil},
	})
}

func TestReplaceToSplitAndJoin(t *testing.T) {
	runRewriteCases(t, plugins.ReplaceToSplitAndJoin, []rewriteCase{
		{"replace", `(replace $s "a" "b")`, []string{`(join (split $s "a") "b")`}},
	})
}

func TestStartsWithEndsWithToSliceEquality(t *testing.T) {
	runRewriteCases(t, plugins.StartsWithEndsWithToSliceEquality("byte"), []rewriteCase{
		{"prefix", `(starts_with $s $p)`, []string{`(eq[Text] (slice[byte] $s 0 (size[byte] $p)) $p)`}},
		{
			"suffix",
			`(ends_with $s $p)`,
			[]string{`(eq[Text] (slice_back[byte] $s (neg (size[byte] $p)) (size[byte] $p)) $p)`},
		},
	})
	assert.Panics(t, func() { plugins.StartsWithEndsWithToSliceEquality("nibble") })
}

func TestUseBackwardsIndex(t *testing.T) {
	runRewriteCases(t, plugins.UseBackwardsIndex(ir.OpAtList, ir.OpOrdAtAscii), []rewriteCase{
		{"last element", `(at[List] $xs (sub (size[List] $xs) 1))`, []string{`(at_back[List] $xs -1)`}},
		{"negative addend", `(ord_at[Ascii] $s (add (size[Ascii] $s) -2))`, []string{`(ord_at_back[Ascii] $s -2)`}},
		{"variable distance", `(at[List] $xs (sub (size[List] $xs) $k))`, []string{`(at_back[List] $xs (neg $k))`}},
		{"size of another list", `(at[List] $xs (sub (size[List] $ys) 1))`, nil},
		{"zero distance", `(at[List] $xs (sub (size[List] $xs) 0))`, nil},
		{"op not listed", `(at[Ascii] $s (sub (size[Ascii] $s) 1))`, nil},
	})
}

func TestGolfStringListLiteral(t *testing.T) {
	runRewriteCases(t, plugins.GolfStringListLiteral(true), []rewriteCase{
		{
			"words",
			`(list "ab" "cd" "e")`,
			[]string{`(split_whitespace "ab cd e")`, `(split "ab cd e" " ")`},
		},
		{
			"elements with spaces",
			`(list "a b" "c,d" "e")`,
			[]string{`(split "a b;c,d;e" ";")`},
		},
		{"single element", `(list "ab")`, nil},
		{"not all text", `(list "ab" $x)`, nil},
	})
	runRewriteCases(t, plugins.GolfStringListLiteral(false), []rewriteCase{
		{"empty element", `(list "ab" "")`, []string{`(split "ab " " ")`}},
	})
}
