package irtext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/types"
)

// Print writes n in IR notation. A block at the top level prints as one
// statement per line; nested blocks are indented by two spaces.
func Print(n ir.Node) string {
	var p printer
	if b, ok := n.(*ir.Block); ok {
		for _, c := range b.Children {
			p.node(c)
			p.WriteString(";\n")
		}
	} else {
		p.node(n)
	}
	return p.String()
}

// Normalize parses and reprints src.
func Normalize(src string) (string, error) {
	prog, err := Parse(src)
	if err != nil {
		return "", err
	}
	return Print(prog), nil
}

type printer struct {
	strings.Builder
	indent int
}

func (p *printer) form(head string, parts ...func()) {
	p.WriteByte('(')
	p.WriteString(head)
	for _, part := range parts {
		p.WriteByte(' ')
		part()
	}
	p.WriteByte(')')
}

func (p *printer) sub(n ir.Node) func() { return func() { p.node(n) } }

func (p *printer) quoted(s string) func() { return func() { p.WriteString(strconv.Quote(s)) } }

func (p *printer) word(s string) func() { return func() { p.WriteString(s) } }

func (p *printer) subs(ns []ir.Node) []func() {
	out := make([]func(), len(ns))
	for i, n := range ns {
		out[i] = p.sub(n)
	}
	return out
}

func (p *printer) group(ns []ir.Node) func() {
	return func() {
		p.WriteByte('[')
		for i, n := range ns {
			if i > 0 {
				p.WriteByte(' ')
			}
			p.node(n)
		}
		p.WriteByte(']')
	}
}

func (p *printer) ident(id *ir.Identifier) func() {
	if id == nil {
		return p.word("_")
	}
	return p.sub(id)
}

func (p *printer) variable(name string, t types.Type) {
	p.WriteByte('$')
	p.WriteString(name)
	if t != nil {
		p.WriteByte(':')
		p.WriteString(t.String())
	}
}

func (p *printer) block(b *ir.Block) {
	if len(b.Children) == 0 {
		p.WriteString("{}")
		return
	}
	p.WriteString("{\n")
	p.indent++
	for _, c := range b.Children {
		p.WriteString(strings.Repeat("  ", p.indent))
		p.node(c)
		p.WriteString(";\n")
	}
	p.indent--
	p.WriteString(strings.Repeat("  ", p.indent))
	p.WriteByte('}')
}

// plainName matches the names $x and @x can spell.
var plainName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func (p *printer) node(n ir.Node) {
	info := n.NodeInfo()
	_, isIdent := n.(*ir.Identifier)
	_, isInt := n.(*ir.Integer)
	_, isText := n.(*ir.Text)
	if info.TargetType != "" || (info.Type != nil && (isInt || isText)) {
		p.annotated(n, info)
		return
	}
	if isIdent && !plainName.MatchString(n.(*ir.Identifier).Name) {
		id := n.(*ir.Identifier)
		head := "id"
		if id.Builtin {
			head = "builtin"
		}
		p.form(head, p.quoted(id.Name))
		return
	}
	p.bare(n)
}

// annotated prints n with its type and target representation.
func (p *printer) annotated(n ir.Node, info ir.Info) {
	bare := ir.WithInfo(n, ir.Info{})
	parts := []func(){p.sub(bare), p.word("_")}
	if info.Type != nil {
		parts[1] = p.word(info.Type.String())
	}
	if info.TargetType != "" {
		parts = append(parts, p.quoted(info.TargetType))
	}
	p.form("annotate", parts...)
}

func (p *printer) bare(n ir.Node) {
	switch n := n.(type) {
	case *ir.Integer:
		p.WriteString(n.Value.String())
	case *ir.Text:
		p.WriteString(strconv.Quote(n.Value))
	case *ir.Identifier:
		if n.Builtin {
			p.WriteByte('@')
			p.WriteString(n.Name)
			return
		}
		p.variable(n.Name, n.Type)
	case *ir.List:
		p.form("list", p.subs(n.Exprs)...)
	case *ir.Array:
		p.form("array", p.subs(n.Exprs)...)
	case *ir.Table:
		p.form("table", p.subs(n.Kvs)...)
	case *ir.KeyValue:
		p.form("key_value", p.sub(n.Key), p.sub(n.Value))
	case *ir.VarDeclaration:
		p.form("var_declaration", func() { p.variable(n.Variable.Name, n.VariableType) })
	case *ir.VarDeclarationWithAssignment:
		p.form("var_declaration_with_assignment", p.sub(n.Assignment))
	case *ir.VarDeclarationBlock:
		p.form("var_declaration_block", p.subs(n.Children)...)
	case *ir.Assignment:
		p.form("assignment", p.sub(n.Variable), p.sub(n.Expr))
	case *ir.ManyToManyAssignment:
		p.form("many_to_many_assignment", p.group(n.Variables), p.group(n.Exprs))
	case *ir.OneToManyAssignment:
		p.form("one_to_many_assignment", p.group(n.Variables), p.sub(n.Expr))
	case *ir.MutatingInfix:
		p.form("mutating_infix", p.quoted(n.Name), p.sub(n.Variable), p.sub(n.Right))
	case *ir.Op:
		p.form(n.Op.String(), p.subs(n.Args)...)
	case *ir.FunctionCall:
		p.form("func", append([]func(){p.quoted(n.Name)}, p.subs(n.Args)...)...)
	case *ir.MethodCall:
		p.form("method_call", append([]func(){p.sub(n.Object), p.quoted(n.Name)}, p.subs(n.Args)...)...)
	case *ir.PropertyCall:
		p.form("property_call", p.sub(n.Object), p.quoted(n.Name))
	case *ir.IndexCall:
		p.form("index_call", p.sub(n.Collection), p.sub(n.Index))
	case *ir.RangeIndexCall:
		p.form("range_index_call", p.sub(n.Collection), p.sub(n.Low), p.sub(n.High), p.sub(n.Step))
	case *ir.Infix:
		p.form("infix", p.quoted(n.Name), p.sub(n.Left), p.sub(n.Right))
	case *ir.Prefix:
		p.form("prefix", p.quoted(n.Name), p.sub(n.Arg))
	case *ir.Block:
		p.block(n)
	case *ir.If:
		parts := []func(){p.sub(n.Condition), p.sub(n.Consequent)}
		if n.Alternate != nil {
			parts = append(parts, p.sub(n.Alternate))
		}
		p.form("if", parts...)
	case *ir.While:
		p.form("while", p.sub(n.Condition), p.sub(n.Body))
	case *ir.ForRange:
		head := "for"
		if n.Inclusive {
			head = "for_inclusive"
		}
		p.form(head, p.ident(n.Variable), p.sub(n.Start), p.sub(n.End), p.sub(n.Increment), p.sub(n.Body))
	case *ir.ForDifferenceRange:
		p.form("for_difference", p.ident(n.Variable), p.sub(n.Start), p.sub(n.Difference), p.sub(n.Increment), p.sub(n.Body))
	case *ir.ForEach:
		p.form("for_each", p.ident(n.Variable), p.sub(n.Collection), p.sub(n.Body))
	case *ir.ForEachKey:
		p.form("for_each_key", p.ident(n.Variable), p.sub(n.Table), p.sub(n.Body))
	case *ir.ForEachPair:
		p.form("for_each_pair", p.ident(n.KeyVariable), p.ident(n.ValueVariable), p.sub(n.Table), p.sub(n.Body))
	case *ir.ForCLike:
		p.form("for_c_like", p.sub(n.Init), p.sub(n.Condition), p.sub(n.Append), p.sub(n.Body))
	case *ir.ImplicitConversion:
		p.form("implicit_conversion", p.quoted(n.Behavior.String()), p.sub(n.Expr))
	case *ir.Import:
		parts := []func(){p.quoted(n.Name)}
		for _, m := range n.Modules {
			parts = append(parts, p.quoted(m))
		}
		p.form("import", parts...)
	case *ir.NamedArg:
		p.form("named_arg", p.quoted(n.Name), p.sub(n.Value))
	default:
		panic(fmt.Sprintf("irtext: cannot print %s", n.Kind()))
	}
}
