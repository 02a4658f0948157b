package plugins_test

import (
	"testing"

	"github.com/opal-lang/golfc/internal/plugins"
)

func TestPrintIntToPrint(t *testing.T) {
	runRewriteCases(t, plugins.PrintIntToPrint, []rewriteCase{
		{"println", `(println[Int] $x)`, []string{`(println[Text] (int_to_dec $x))`}},
		{"print", `(print[Int] 7)`, []string{`(print[Text] (int_to_dec 7))`}},
		{"text", `(print[Text] "7")`, nil},
	})
}

func TestGolfLastPrint(t *testing.T) {
	runRewriteCases(t, plugins.GolfLastPrint, []rewriteCase{
		{"only the last", `(println[Text] "a"); (println[Text] "b")`, []string{`(print[Text] "b")`}},
		{"int", `(println[Int] 1)`, []string{`(print[Int] 1)`}},
		{"nested", `(for _ 0 3 1 {(println[Text] "a")}); (assignment $x 1)`, nil},
	})
}

func TestMergePrint(t *testing.T) {
	runRewriteCases(t, plugins.MergePrint, []rewriteCase{
		{
			"print then println",
			`(print[Text] "a"); (println[Text] "b"); (print[Text] "c")`,
			[]string{"(println[Text] (concat[Text] \"a\" \"b\"));\n(print[Text] \"c\");\n"},
		},
		{
			"println first",
			`(println[Text] "a"); (print[Text] "b")`,
			nil,
		},
	})
}

func TestPrintlnToPrint(t *testing.T) {
	runRewriteCases(t, plugins.PrintlnToPrint, []rewriteCase{
		{"newline appended", `(println[Text] $s)`, []string{`(print[Text] (concat[Text] $s "\n"))`}},
		{"print untouched", `(print[Text] $s)`, nil},
	})
}

func TestImplicitlyConvertPrintArg(t *testing.T) {
	runRewriteCases(t, plugins.ImplicitlyConvertPrintArg, []rewriteCase{
		{
			"decimal",
			`(print[Text] (int_to_dec $x))`,
			[]string{`(print[Text] (implicit_conversion "int_to_dec" $x))`},
		},
		{"other text", `(println[Text] (int_to_bin $x))`, nil},
	})
}

func TestPrintToImplicitOutput(t *testing.T) {
	runRewriteCases(t, plugins.PrintToImplicitOutput, []rewriteCase{
		{"last print", `(println[Text] "a"); (print[Text] "b")`, []string{`"b"`}},
		{"trailing newline kept", `(println[Text] "a")`, nil},
	})
}

func TestPrintConcatToMultiPrint(t *testing.T) {
	runRewriteCases(t, plugins.PrintConcatToMultiPrint, []rewriteCase{
		{
			"println of three parts",
			`(println[Text] (concat[Text] "a" $s "b")); (print[Text] "c")`,
			[]string{"(print[Text] \"a\");\n(print[Text] $s);\n(println[Text] \"b\");\n(print[Text] \"c\");\n"},
		},
		{"plain text", `(println[Text] "ab")`, nil},
	})
}
