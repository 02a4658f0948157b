// Package irtext reads and writes programs in a compact S-expression
// notation of the IR:
//
//	(var_declaration $n:0..100);
//	(assignment $n 10);
//	(for $i 0 $n 1 {
//	  (println[Int] (mul $i $i))
//	});
//
// A program is a list of statements separated by semicolons. Operations
// are written by their tag; other node kinds have a keyword of their own.
// Variables are $name, optionally annotated with a type, builtins are @name
// and `_` marks an omitted optional child.
package irtext

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/types"
)

// ParseError is a syntax or construction error with its position.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message)
}

// Parse reads a whole program. The result is always a block.
func Parse(src string) (prog ir.Node, err error) {
	p := &parser{lex: NewLexer(src)}
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(*ParseError)
			if !ok {
				// constructor invariants reject malformed nodes by panicking
				pe = &ParseError{Line: p.tok.Line, Column: p.tok.Column, Message: fmt.Sprint(r)}
			}
			prog, err = nil, pe
		}
	}()
	p.next()
	stmts := p.statements(EOF)
	return ir.NewBlock(stmts...), nil
}

// ParseExpr reads a single expression.
func ParseExpr(src string) (expr ir.Node, err error) {
	prog, err := Parse(src)
	if err != nil {
		return nil, err
	}
	b := prog.(*ir.Block)
	if len(b.Children) != 1 {
		return nil, &ParseError{Line: 1, Column: 1, Message: fmt.Sprintf("expected one expression, found %d", len(b.Children))}
	}
	return b.Children[0], nil
}

type parser struct {
	lex *Lexer
	tok Token
}

func (p *parser) next() {
	p.tok = p.lex.Next()
	if p.tok.Type == ILLEGAL {
		p.fail("%s", p.tok.Value)
	}
}

func (p *parser) fail(format string, args ...any) {
	panic(&ParseError{Line: p.tok.Line, Column: p.tok.Column, Message: fmt.Sprintf(format, args...)})
}

func (p *parser) expect(t TokenType) Token {
	tok := p.tok
	if tok.Type != t {
		p.fail("expected %s, found %s %q", t, tok.Type, tok.Value)
	}
	p.next()
	return tok
}

// statements reads `;`-separated expressions up to end.
func (p *parser) statements(end TokenType) []ir.Node {
	var out []ir.Node
	for p.tok.Type != end {
		out = append(out, p.expr())
		if p.tok.Type == SEMICOLON {
			p.next()
			continue
		}
		if p.tok.Type != end {
			p.fail("expected ; or %s, found %s %q", end, p.tok.Type, p.tok.Value)
		}
	}
	return out
}

func (p *parser) expr() ir.Node {
	switch p.tok.Type {
	case TEXT:
		v := p.tok.Value
		p.next()
		return ir.NewText(v)
	case VARIABLE:
		return p.variable()
	case BUILTIN:
		name := p.tok.Value
		p.next()
		return ir.NewBuiltin(name)
	case ATOM:
		v, ok := new(big.Int).SetString(p.tok.Value, 10)
		if !ok {
			p.fail("unexpected %q", p.tok.Value)
		}
		p.next()
		return ir.NewBigInt(v)
	case LBRACE:
		p.next()
		stmts := p.statements(RBRACE)
		p.next()
		return ir.NewBlock(stmts...)
	case LPAREN:
		return p.application()
	}
	p.fail("unexpected %s %q", p.tok.Type, p.tok.Value)
	return nil
}

func (p *parser) variable() ir.Node {
	id := ir.NewIdent(p.expect(VARIABLE).Value)
	if p.tok.Type != COLON {
		return id
	}
	p.next()
	return ir.WithType(id, p.typ())
}

// ident reads a variable, or `_` when optional is set.
func (p *parser) ident(optional bool) *ir.Identifier {
	if optional && p.tok.Type == ATOM && p.tok.Value == "_" {
		p.next()
		return nil
	}
	if p.tok.Type != VARIABLE {
		p.fail("expected a variable, found %s %q", p.tok.Type, p.tok.Value)
	}
	return p.variable().(*ir.Identifier)
}

func (p *parser) text() string {
	return p.expect(TEXT).Value
}

// group reads `[e ...]`.
func (p *parser) group() []ir.Node {
	p.expect(LBRACKET)
	var out []ir.Node
	for p.tok.Type != RBRACKET {
		out = append(out, p.expr())
	}
	p.next()
	return out
}

// rest reads expressions up to the closing parenthesis.
func (p *parser) rest() []ir.Node {
	var out []ir.Node
	for p.tok.Type != RPAREN {
		if p.tok.Type == EOF {
			p.fail("unclosed (")
		}
		out = append(out, p.expr())
	}
	return out
}

func (p *parser) application() ir.Node {
	p.expect(LPAREN)
	head := p.expect(ATOM).Value
	n := p.form(head)
	p.expect(RPAREN)
	return n
}

func (p *parser) form(head string) ir.Node {
	switch head {
	case "list":
		return ir.NewList(p.rest()...)
	case "array":
		return ir.NewArray(p.rest()...)
	case "table":
		return ir.NewTable(p.rest()...)
	case "key_value":
		return ir.NewKeyValue(p.expr(), p.expr())
	case "var_declaration":
		v := p.ident(false)
		t := v.NodeInfo().Type
		if t == nil {
			p.fail("var_declaration needs an annotated variable")
		}
		return ir.NewVarDeclaration(ir.NewIdent(v.Name), t)
	case "var_declaration_with_assignment":
		return ir.NewVarDeclarationWithAssignment(p.expr())
	case "var_declaration_block":
		return ir.NewVarDeclarationBlock(p.rest()...)
	case "assignment":
		return ir.NewAssignment(p.expr(), p.expr())
	case "many_to_many_assignment":
		return ir.NewManyToManyAssignment(p.group(), p.group())
	case "one_to_many_assignment":
		return ir.NewOneToManyAssignment(p.group(), p.expr())
	case "mutating_infix":
		name := p.text()
		return ir.NewMutatingInfix(name, p.expr(), p.expr())
	case "func":
		name := p.text()
		return ir.NewFunctionCall(name, p.rest()...)
	case "method_call":
		obj := p.expr()
		name := p.text()
		return ir.NewMethodCall(obj, name, p.rest()...)
	case "property_call":
		obj := p.expr()
		return ir.NewPropertyCall(obj, p.text())
	case "index_call":
		return ir.NewIndexCall(p.expr(), p.expr())
	case "range_index_call":
		return ir.NewRangeIndexCall(p.expr(), p.expr(), p.expr(), p.expr())
	case "infix":
		name := p.text()
		return ir.NewInfix(name, p.expr(), p.expr())
	case "prefix":
		name := p.text()
		return ir.NewPrefix(name, p.expr())
	case "if":
		cond, cons := p.expr(), p.expr()
		var alt ir.Node
		if p.tok.Type != RPAREN {
			alt = p.expr()
		}
		return ir.NewIf(cond, cons, alt)
	case "while":
		return ir.NewWhile(p.expr(), p.expr())
	case "for", "for_inclusive":
		v := p.ident(true)
		return ir.NewForRange(v, p.expr(), p.expr(), p.expr(), p.expr(), head == "for_inclusive")
	case "for_difference":
		v := p.ident(false)
		return ir.NewForDifferenceRange(v, p.expr(), p.expr(), p.expr(), p.expr())
	case "for_each":
		v := p.ident(false)
		return ir.NewForEach(v, p.expr(), p.expr())
	case "for_each_key":
		v := p.ident(false)
		return ir.NewForEachKey(v, p.expr(), p.expr())
	case "for_each_pair":
		k := p.ident(false)
		v := p.ident(false)
		return ir.NewForEachPair(k, v, p.expr(), p.expr())
	case "for_c_like":
		return ir.NewForCLike(p.expr(), p.expr(), p.expr(), p.expr())
	case "implicit_conversion":
		code := p.opCode(p.text())
		return ir.NewImplicitConversion(code, p.expr())
	case "import":
		name := p.text()
		var modules []string
		for p.tok.Type == TEXT {
			modules = append(modules, p.text())
		}
		return ir.NewImport(name, modules...)
	case "named_arg":
		name := p.text()
		return ir.NewNamedArg(name, p.expr())
	case "id":
		return ir.NewIdent(p.text())
	case "builtin":
		return ir.NewBuiltin(p.text())
	case "annotate":
		n := p.expr()
		var info ir.Info
		if p.tok.Type == ATOM && p.tok.Value == "_" {
			p.next()
		} else {
			info.Type = p.typ()
		}
		if p.tok.Type == TEXT {
			info.TargetType = p.text()
		}
		return ir.WithInfo(n, info)
	}
	return ir.NewOp(p.opCode(head), p.rest()...)
}

func (p *parser) opCode(tag string) ir.OpCode {
	code, err := ir.ParseOpCode(tag)
	if err != nil {
		p.fail("%v", err)
	}
	return code
}

// typ reads a type: Int, Bool, Void, Text, Ascii, lo..hi or a
// parenthesized (Text lo..hi), (List T), (Array T n), (Table K V).
func (p *parser) typ() types.Type {
	if p.tok.Type == LPAREN {
		p.next()
		head := p.expect(ATOM).Value
		var t types.Type
		switch head {
		case "Text", "Ascii":
			t = types.Text{Length: p.intType(), ASCII: head == "Ascii"}
		case "List":
			t = types.ListOf(p.typ())
		case "Array":
			member := p.typ()
			n, err := strconv.Atoi(p.expect(ATOM).Value)
			if err != nil || n < 0 {
				p.fail("bad array length")
			}
			t = types.ArrayOf(member, n)
		case "Table":
			t = types.TableOf(p.typ(), p.typ())
		default:
			p.fail("unknown type constructor %q", head)
		}
		p.expect(RPAREN)
		return t
	}
	switch p.tok.Value {
	case "Bool":
		p.next()
		return types.Boolean{}
	case "Void":
		p.next()
		return types.Void{}
	case "Text":
		p.next()
		return types.TextType()
	case "Ascii":
		p.next()
		return types.AsciiType()
	}
	return p.intType()
}

func (p *parser) intType() types.Integer {
	tok := p.expect(ATOM)
	if tok.Value == "Int" {
		return types.Unbounded()
	}
	lo, hi, ok := strings.Cut(tok.Value, "..")
	if !ok {
		p.fail("bad integer type %q", tok.Value)
	}
	low, okLo := bound(lo, "-oo")
	high, okHi := bound(hi, "oo")
	if !okLo || !okHi {
		p.fail("bad integer type %q", tok.Value)
	}
	return types.IntegerType(low, high)
}

func bound(s, inf string) (types.Bound, bool) {
	switch s {
	case inf:
		if inf == "oo" {
			return types.PosInf(), true
		}
		return types.NegInf(), true
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return types.Bound{}, false
	}
	return types.Finite(v), true
}
