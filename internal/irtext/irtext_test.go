package irtext_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/types"
	"github.com/opal-lang/golfc/internal/irtext"
)

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, src := range []string{
		`(implicit_conversion "dec_to_int" "1")`,
		`(var_declaration $x:Int)`,
		`(var_declaration $x:(List (Ascii 1..1)))`,
		`(var_declaration $t:(Table Text 0..9))`,
		`(var_declaration $a:(Array Bool 3))`,
		`(var_declaration_with_assignment (assignment $x 0))`,
		`(var_declaration_block (var_declaration $x:Int) (var_declaration $y:-oo..0))`,
		`(many_to_many_assignment [$x $y] ["x" "y"])`,
		`(one_to_many_assignment [$x $y] "x")`,
		`(mutating_infix "+=" $x 1)`,
		`(index_call $x $y)`,
		`(range_index_call $x $y $z $w)`,
		`(method_call $o "name" $x $y)`,
		`(property_call $o "name")`,
		`(infix "name" $x $y)`,
		`(prefix "name" $x)`,
		`(builtin "name")`,
		`@print`,
		`(id "name!")`,
		`(import "name" "x" "y")`,
		`(for_inclusive $x $s $e 1 $body)`,
		`(for_difference $x $s $d 1 $body)`,
		`(for _ 0 $e 2 $body)`,
		`(for $i 0 $e 2 {(println[Int] $i); (assignment $e (sub $e 1))})`,
		`(for_each $x $col {})`,
		`(for_each_key $x $col $body)`,
		`(for_each_pair $k $v $col $body)`,
		`(for_c_like (assignment $i 0) (lt $i 10) (assignment $i (add $i 1)) $body)`,
		`(named_arg "name" $x)`,
		`(annotate 1 1..1 "int")`,
		`(annotate "a" _ "char")`,
		`(if (true) {(print[Text] "y")} {(print[Text] "n")})`,
		`(while (lt $x 10) {(assignment $x (add $x 1))})`,
		`(list 1 2 3); (array "a"); (table (key_value "k" -7))`,
		`(text_multireplace "abc" "a" "b" "c" "d")`,
		"# comment\n(println[Text] \"tab\\there\") # trailing\n",
	} {
		t.Run(src, func(t *testing.T) {
			once, err := irtext.Normalize(src)
			require.NoError(t, err)
			twice, err := irtext.Normalize(once)
			require.NoError(t, err)
			if diff := cmp.Diff(once, twice); diff != "" {
				t.Errorf("normalize not idempotent (-once +twice):\n%s", diff)
			}
		})
	}
}

func TestParseBuildsNodes(t *testing.T) {
	prog, err := irtext.Parse(`(var_declaration $n:0..100); (for $i 0 $n 1 {(println[Int] (mul $i $i))})`)
	require.NoError(t, err)

	want := ir.NewBlock(
		ir.NewVarDeclaration(ir.NewIdent("n"), types.IntRange(0, 100)),
		ir.NewForRange(ir.NewIdent("i"), ir.NewInt(0), ir.NewIdent("n"), ir.NewInt(1),
			ir.NewBlock(ir.NewOp(ir.OpPrintlnInt, ir.NewOp(ir.OpMul, ir.NewIdent("i"), ir.NewIdent("i")))), false),
	)
	assert.True(t, ir.Equal(want, prog), "got:\n%s", irtext.Print(prog))
}

func TestPrintLayout(t *testing.T) {
	prog := ir.NewBlock(
		ir.NewAssignment(ir.NewIdent("x"), ir.NewText("a\"b")),
		ir.NewWhile(ir.NewOp(ir.OpTrue), ir.NewBlock(ir.NewOp(ir.OpPrintText, ir.NewIdent("x")))),
		ir.NewForRange(nil, ir.NewInt(0), ir.NewInt(3), ir.NewInt(1), ir.NewBlock(), true),
	)
	want := "(assignment $x \"a\\\"b\");\n" +
		"(while (true) {\n" +
		"  (print[Text] $x);\n" +
		"});\n" +
		"(for_inclusive _ 0 3 1 {});\n"
	if diff := cmp.Diff(want, irtext.Print(prog)); diff != "" {
		t.Errorf("Print mismatch (-want +got):\n%s", diff)
	}
}

func TestParseExpr(t *testing.T) {
	n, err := irtext.ParseExpr(`(add $x:0..9 -3)`)
	require.NoError(t, err)
	op, ok := n.(*ir.Op)
	require.True(t, ok)
	assert.Equal(t, ir.OpAdd, op.Op)
	assert.Equal(t, "0..9", op.Args[0].NodeInfo().Type.String())
	assert.True(t, ir.IsIntLiteral(op.Args[1], -3))

	_, err = irtext.ParseExpr(`1; 2`)
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`(ad 1 2)`, `unrecognized operation "ad"`},
		{`(add 1 2`, "unclosed ("},
		{`(add 1 2) (add 3 4)`, "expected ; or EOF"},
		{`(neg 1 2)`, "PRECONDITION"},
		{`"open`, "unterminated text literal"},
		{`(var_declaration $x)`, "needs an annotated variable"},
		{`(var_declaration $x:5..1)`, "empty integer interval"},
		{`%`, "unexpected character"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := irtext.Parse(tt.src)
			var pe *irtext.ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Contains(t, pe.Error(), tt.want)
		})
	}
}

func TestLexerTokens(t *testing.T) {
	l := irtext.NewLexer(`(at[List] $xs:(List Int) @argv "q") ;`)
	var got []irtext.TokenType
	var values []string
	for {
		tok := l.Next()
		if tok.Type == irtext.EOF {
			break
		}
		got = append(got, tok.Type)
		values = append(values, tok.Value)
	}
	assert.Equal(t, []irtext.TokenType{
		irtext.LPAREN, irtext.ATOM, irtext.VARIABLE, irtext.COLON, irtext.LPAREN, irtext.ATOM, irtext.ATOM,
		irtext.RPAREN, irtext.BUILTIN, irtext.TEXT, irtext.RPAREN, irtext.SEMICOLON,
	}, got)
	assert.Equal(t, []string{"(", "at[List]", "xs", ":", "(", "List", "Int", ")", "argv", "q", ")", ";"}, values)
}
