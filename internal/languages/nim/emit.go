package nim

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/opal-lang/golfc/core/emit"
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/spine"
	"github.com/opal-lang/golfc/core/types"
)

const (
	precLowest  = 0
	precPrefix  = 11
	precPostfix = 12
	precAtom    = 13
)

// Nim ranks binary operators by their first character; `^` is the only
// right-associative one in use.
var infixPrecedence = map[string]int{
	"or": 3, "xor": 3,
	"and": 4,
	"==": 5, "!=": 5, "<": 5, "<=": 5, ">": 5, ">=": 5, "in": 5,
	"..": 6, "..<": 6,
	"&": 7,
	"+": 8, "-": 8,
	"*": 9, "div": 9, "mod": 9, "shl": 9, "shr": 9,
	"^": 10,
}

// Emit renders program as Nim tokens. Line breaks are tokens of a newline
// followed by the indentation of the next line.
func Emit(program ir.Node) ([]string, error) {
	e := &emitter{}
	if err := e.emitStatement(spine.New(program)); err != nil {
		return nil, err
	}
	return e.tokens, nil
}

type emitter struct {
	tokens []string
	level  int
}

func (e *emitter) write(tokens ...string) { e.tokens = append(e.tokens, tokens...) }

func (e *emitter) newline() { e.write("\n" + strings.Repeat(" ", e.level)) }

func (e *emitter) emitStatement(s *spine.Spine) error {
	switch n := s.Node().(type) {
	case *ir.Block:
		for i := range n.Children {
			if i > 0 {
				e.newline()
			}
			if err := e.emitStatement(s.Child(ir.Indexed("children", i))); err != nil {
				return err
			}
		}
		return nil
	case *ir.Import:
		e.write(n.Name)
		for i, m := range n.Modules {
			if i > 0 {
				e.write(",")
			}
			e.write(m)
		}
		return nil
	case *ir.VarDeclaration:
		name, err := typeName(n.VariableType)
		if err != nil {
			return emit.Unsupported(s)
		}
		e.write("var", n.Variable.Name, ":", name)
		return nil
	case *ir.VarDeclarationWithAssignment:
		e.write("var")
		return e.emitStatement(s.Child(ir.Field("assignment")))
	case *ir.Assignment:
		if err := e.emitExpr(s.Child(ir.Field("variable")), precPostfix); err != nil {
			return err
		}
		e.write("=")
		return e.emitExpr(s.Child(ir.Field("expr")), precLowest)
	case *ir.ManyToManyAssignment:
		if err := e.emitSequence(s, "(", "variables", len(n.Variables), ")"); err != nil {
			return err
		}
		e.write("=")
		return e.emitSequence(s, "(", "exprs", len(n.Exprs), ")")
	case *ir.MutatingInfix:
		if err := e.emitExpr(s.Child(ir.Field("variable")), precPostfix); err != nil {
			return err
		}
		e.write(n.Name)
		return e.emitExpr(s.Child(ir.Field("right")), precLowest)
	case *ir.If:
		return e.emitIf(s, n, "if")
	case *ir.While:
		e.write("while")
		if err := e.emitExpr(s.Child(ir.Field("condition")), precLowest); err != nil {
			return err
		}
		return e.emitBody(s.Child(ir.Field("body")))
	case *ir.ForRange:
		return e.emitForRange(s, n)
	case *ir.ForEach:
		e.write("for", n.Variable.Name, "in")
		if err := e.emitExpr(s.Child(ir.Field("collection")), precLowest); err != nil {
			return err
		}
		return e.emitBody(s.Child(ir.Field("body")))
	case *ir.ForEachKey:
		e.write("for", n.Variable.Name, "in")
		if err := e.emitExpr(s.Child(ir.Field("table")), precPostfix); err != nil {
			return err
		}
		e.write(".", "keys")
		return e.emitBody(s.Child(ir.Field("body")))
	case *ir.ForEachPair:
		e.write("for", n.KeyVariable.Name, ",", n.ValueVariable.Name, "in")
		if err := e.emitExpr(s.Child(ir.Field("table")), precPostfix); err != nil {
			return err
		}
		e.write(".", "pairs")
		return e.emitBody(s.Child(ir.Field("body")))
	case *ir.FunctionCall, *ir.MethodCall:
		return e.emitCommand(s)
	default:
		return e.emitExpr(s, precLowest)
	}
}

// emitCommand writes a call statement with one argument in command syntax,
// `echo x`, when the argument starts with a word or a string.
func (e *emitter) emitCommand(s *spine.Spine) error {
	var args []ir.Node
	switch n := s.Node().(type) {
	case *ir.FunctionCall:
		args = n.Args
	case *ir.MethodCall:
		args = n.Args
	}
	if len(args) != 1 {
		return e.emitExpr(s, precLowest)
	}
	arg := &emitter{level: e.level}
	if err := arg.emitExpr(s.Child(ir.Indexed("args", 0)), precLowest); err != nil {
		return err
	}
	if first := arg.tokens[0][0]; !emit.IsWordChar(first) && first != '"' {
		return e.emitExpr(s, precLowest)
	}
	switch n := s.Node().(type) {
	case *ir.FunctionCall:
		e.write(n.Name)
	case *ir.MethodCall:
		if err := e.emitReceiver(s); err != nil {
			return err
		}
		e.write(".", n.Name)
	}
	e.write(arg.tokens...)
	return nil
}

func (e *emitter) emitIf(s *spine.Spine, n *ir.If, keyword string) error {
	e.write(keyword)
	if err := e.emitExpr(s.Child(ir.Field("condition")), precLowest); err != nil {
		return err
	}
	if err := e.emitBody(s.Child(ir.Field("consequent"))); err != nil {
		return err
	}
	if n.Alternate == nil {
		return nil
	}
	alt := s.Child(ir.Field("alternate"))
	if b, ok := alt.Node().(*ir.Block); ok && len(b.Children) == 1 && b.Children[0].Kind() == ir.KindIf {
		alt = alt.Child(ir.Indexed("children", 0))
	}
	e.newline()
	if nested, ok := alt.Node().(*ir.If); ok {
		return e.emitIf(alt, nested, "elif")
	}
	e.write("else")
	return e.emitBody(alt)
}

// emitBody writes `:` and the body, on the same line when it is a single
// simple statement and indented below otherwise.
func (e *emitter) emitBody(s *spine.Spine) error {
	e.write(":")
	stmts := []*spine.Spine{s}
	if b, ok := s.Node().(*ir.Block); ok {
		stmts = stmts[:0]
		for i := range b.Children {
			stmts = append(stmts, s.Child(ir.Indexed("children", i)))
		}
	}
	switch {
	case len(stmts) == 0:
		e.write("discard")
		return nil
	case len(stmts) == 1 && !isCompound(stmts[0].Node()):
		return e.emitStatement(stmts[0])
	}
	e.level++
	defer func() { e.level-- }()
	for _, st := range stmts {
		e.newline()
		if err := e.emitStatement(st); err != nil {
			return err
		}
	}
	return nil
}

func isCompound(n ir.Node) bool {
	switch n.Kind() {
	case ir.KindIf, ir.KindWhile, ir.KindForRange, ir.KindForEach, ir.KindForEachKey, ir.KindForEachPair:
		return true
	}
	return false
}

// emitForRange writes `for i in a..<b` and `for i in a..b`, or countup for
// steps other than one. A loop without a variable binds `_`.
func (e *emitter) emitForRange(s *spine.Spine, n *ir.ForRange) error {
	name := "_"
	if n.Variable != nil {
		name = n.Variable.Name
	}
	e.write("for", name, "in")
	if ir.IsIntLiteral(n.Increment, 1) {
		if err := e.emitExpr(s.Child(ir.Field("start")), infixPrecedence[".."]+1); err != nil {
			return err
		}
		if n.Inclusive {
			e.write("..")
		} else {
			e.write("..<")
		}
		if err := e.emitExpr(s.Child(ir.Field("end")), infixPrecedence[".."]+1); err != nil {
			return err
		}
		return e.emitBody(s.Child(ir.Field("body")))
	}

	step, ok := n.Increment.(*ir.Integer)
	if !ok || step.Value.Sign() <= 0 {
		return emit.Unsupported(s)
	}
	last := n.End
	if !n.Inclusive {
		last = lastBefore(n.End)
	}
	e.write("countup(")
	if err := e.emitExpr(s.Child(ir.Field("start")), precLowest); err != nil {
		return err
	}
	e.write(",")
	if err := e.emitExpr(spine.New(last), precLowest); err != nil {
		return err
	}
	e.write(",", step.Value.String(), ")")
	return e.emitBody(s.Child(ir.Field("body")))
}

// lastBefore is end-1, folded for literals.
func lastBefore(end ir.Node) ir.Node {
	if lit, ok := end.(*ir.Integer); ok {
		return ir.NewBigInt(new(big.Int).Sub(lit.Value, big.NewInt(1)))
	}
	return ir.NewInfix("-", end, ir.NewInt(1))
}

func precedence(n ir.Node) int {
	switch n := n.(type) {
	case *ir.Integer:
		if n.Value.Sign() < 0 {
			return precPrefix
		}
		return precAtom
	case *ir.Infix:
		return infixPrecedence[n.Name]
	case *ir.Prefix:
		return precPrefix
	case *ir.FunctionCall, *ir.MethodCall, *ir.PropertyCall, *ir.IndexCall, *ir.RangeIndexCall:
		return precPostfix
	case *ir.Identifier, *ir.Text, *ir.List, *ir.Array, *ir.Table:
		return precAtom
	}
	return precLowest
}

func (e *emitter) emitExpr(s *spine.Spine, minPrec int) error {
	paren := precedence(s.Node()) < minPrec
	if paren {
		e.write("(")
	}
	if err := e.emitOperand(s); err != nil {
		return err
	}
	if paren {
		e.write(")")
	}
	return nil
}

func (e *emitter) emitOperand(s *spine.Spine) error {
	switch n := s.Node().(type) {
	case *ir.Integer:
		if n.Value.Sign() < 0 {
			e.write("-", strings.TrimPrefix(n.Value.String(), "-"))
		} else {
			e.write(n.Value.String())
		}
	case *ir.Text:
		e.write(quote(n.Value))
	case *ir.Identifier:
		e.write(n.Name)
	case *ir.List:
		e.write("@")
		return e.emitSequence(s, "[", "exprs", len(n.Exprs), "]")
	case *ir.Array:
		return e.emitSequence(s, "[", "exprs", len(n.Exprs), "]")
	case *ir.Table:
		return e.emitSequence(s, "{", "kvs", len(n.Kvs), "}")
	case *ir.KeyValue:
		if err := e.emitExpr(s.Child(ir.Field("key")), precLowest); err != nil {
			return err
		}
		e.write(":")
		return e.emitExpr(s.Child(ir.Field("value")), precLowest)
	case *ir.Infix:
		p, ok := infixPrecedence[n.Name]
		if !ok {
			return emit.Unsupported(s)
		}
		left, right := p, p+1
		if n.Name == "^" {
			left, right = p+1, p
		}
		if err := e.emitExpr(s.Child(ir.Field("left")), left); err != nil {
			return err
		}
		e.write(n.Name)
		return e.emitExpr(s.Child(ir.Field("right")), right)
	case *ir.Prefix:
		e.write(n.Name)
		return e.emitExpr(s.Child(ir.Field("arg")), precPrefix)
	case *ir.FunctionCall:
		return e.emitSequence(s, n.Name+"(", "args", len(n.Args), ")")
	case *ir.MethodCall:
		if err := e.emitReceiver(s); err != nil {
			return err
		}
		e.write(".")
		if len(n.Args) == 0 {
			e.write(n.Name)
			return nil
		}
		return e.emitSequence(s, n.Name+"(", "args", len(n.Args), ")")
	case *ir.PropertyCall:
		if err := e.emitReceiver(s); err != nil {
			return err
		}
		e.write(".", n.Name)
	case *ir.IndexCall:
		if err := e.emitExpr(s.Child(ir.Field("collection")), precPostfix); err != nil {
			return err
		}
		e.write("[")
		if err := e.emitExpr(s.Child(ir.Field("index")), precLowest); err != nil {
			return err
		}
		e.write("]")
	case *ir.RangeIndexCall:
		if !ir.IsIntLiteral(n.Step, 1) {
			return emit.Unsupported(s)
		}
		if err := e.emitExpr(s.Child(ir.Field("collection")), precPostfix); err != nil {
			return err
		}
		e.write("[")
		if err := e.emitExpr(s.Child(ir.Field("low")), infixPrecedence[".."]+1); err != nil {
			return err
		}
		e.write("..<")
		if err := e.emitExpr(s.Child(ir.Field("high")), infixPrecedence[".."]+1); err != nil {
			return err
		}
		e.write("]")
	default:
		return emit.Unsupported(s)
	}
	return nil
}

// emitReceiver writes the object of a dotted call. Number literals are
// parenthesized so the dot cannot start a fraction.
func (e *emitter) emitReceiver(s *spine.Spine) error {
	obj := s.Child(ir.Field("object"))
	if _, ok := obj.Node().(*ir.Integer); ok {
		return e.emitExpr(obj, precAtom+1)
	}
	return e.emitExpr(obj, precPostfix)
}

func (e *emitter) emitSequence(s *spine.Spine, open, field string, count int, close string) error {
	e.write(open)
	for i := range count {
		if i > 0 {
			e.write(",")
		}
		if err := e.emitExpr(s.Child(ir.Indexed(field, i)), precLowest); err != nil {
			return err
		}
	}
	e.write(close)
	return nil
}

func typeName(t types.Type) (string, error) {
	switch t := t.(type) {
	case types.Integer:
		return "int", nil
	case types.Text:
		return "string", nil
	case types.Boolean:
		return "bool", nil
	case types.List:
		m, err := typeName(t.Member)
		return "seq[" + m + "]", err
	case types.Array:
		m, err := typeName(t.Member)
		return fmt.Sprintf("array[%d,%s]", t.Length, m), err
	case types.Table:
		k, err := typeName(t.Key)
		if err != nil {
			return "", err
		}
		v, err := typeName(t.Value)
		return "Table[" + k + "," + v + "]", err
	}
	return "", fmt.Errorf("no Nim type for %s", t)
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

func quote(text string) string { return `"` + escaper.Replace(text) + `"` }
