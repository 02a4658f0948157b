package javascript

import (
	"strings"

	"github.com/opal-lang/golfc/core/emit"
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/spine"
)

// Binding strength of expression forms; higher binds tighter.
const (
	precLowest  = 0
	precSpread  = 1
	precPrefix  = 14
	precPostfix = 17
	precAtom    = 18
)

var infixPrecedence = map[string]int{
	"||": 4,
	"&&": 5,
	"|":  6,
	"^":  7,
	"&":  8,
	"==": 9, "!=": 9,
	"<": 10, "<=": 10, ">": 10, ">=": 10, "in": 10,
	"<<": 11, ">>": 11,
	"+": 12, "-": 12,
	"*": 13, "/": 13, "%": 13,
	"**": 15,
}

// Emit renders program as JavaScript tokens. Statements are separated by
// "\n" tokens, which the detokenizer may turn into semicolons.
func Emit(program ir.Node) ([]string, error) {
	e := &emitter{}
	if err := e.emitStatement(spine.New(program)); err != nil {
		return nil, err
	}
	return e.tokens, nil
}

type emitter struct {
	tokens []string
}

func (e *emitter) write(tokens ...string) { e.tokens = append(e.tokens, tokens...) }

func (e *emitter) emitStatement(s *spine.Spine) error {
	switch n := s.Node().(type) {
	case *ir.Block:
		return e.emitStatements(s, len(n.Children))
	case *ir.VarDeclaration:
		return nil
	case *ir.VarDeclarationWithAssignment:
		return e.emitStatement(s.Child(ir.Field("assignment")))
	case *ir.Assignment:
		if err := e.emitExpr(s.Child(ir.Field("variable")), precPostfix); err != nil {
			return err
		}
		e.write("=")
		return e.emitExpr(s.Child(ir.Field("expr")), precLowest)
	case *ir.ManyToManyAssignment:
		if err := e.emitSequence(s, "[", "variables", len(n.Variables), "]"); err != nil {
			return err
		}
		e.write("=")
		return e.emitSequence(s, "[", "exprs", len(n.Exprs), "]")
	case *ir.MutatingInfix:
		if err := e.emitExpr(s.Child(ir.Field("variable")), precPostfix); err != nil {
			return err
		}
		e.write(n.Name)
		return e.emitExpr(s.Child(ir.Field("right")), precLowest)
	case *ir.If:
		return e.emitIf(s, n)
	case *ir.While:
		e.write("while", "(")
		if err := e.emitExpr(s.Child(ir.Field("condition")), precLowest); err != nil {
			return err
		}
		e.write(")")
		return e.emitBody(s.Child(ir.Field("body")), false)
	case *ir.ForCLike:
		return e.emitForCLike(s, n)
	case *ir.ForEach:
		return e.emitForIn(s, "of", "collection", n.Variable)
	case *ir.ForEachKey:
		return e.emitForIn(s, "in", "table", n.Variable)
	default:
		return e.emitExpr(s, precLowest)
	}
}

// emitStatements writes the children of a block, skipping separators around
// statements that render to nothing.
func (e *emitter) emitStatements(s *spine.Spine, count int) error {
	separate := false
	for i := range count {
		mark := len(e.tokens)
		if separate {
			e.write("\n")
		}
		start := len(e.tokens)
		if err := e.emitStatement(s.Child(ir.Indexed("children", i))); err != nil {
			return err
		}
		if len(e.tokens) == start {
			e.tokens = e.tokens[:mark]
			continue
		}
		separate = true
	}
	return nil
}

// bodyStatements returns the statements of a control body that produce
// output.
func bodyStatements(s *spine.Spine) []*spine.Spine {
	b, ok := s.Node().(*ir.Block)
	if !ok {
		return []*spine.Spine{s}
	}
	var out []*spine.Spine
	for i, c := range b.Children {
		if c.Kind() != ir.KindVarDeclaration {
			out = append(out, s.Child(ir.Indexed("children", i)))
		}
	}
	return out
}

func isCompound(n ir.Node) bool {
	switch n.Kind() {
	case ir.KindIf, ir.KindWhile, ir.KindForCLike, ir.KindForEach, ir.KindForEachKey:
		return true
	}
	return false
}

// emitBody writes a loop or branch body, bracing it unless it is a single
// statement. beforeElse also braces compound statements, which could
// otherwise capture the else.
func (e *emitter) emitBody(s *spine.Spine, beforeElse bool) error {
	stmts := bodyStatements(s)
	if len(stmts) == 1 && !(beforeElse && isCompound(stmts[0].Node())) {
		if err := e.emitStatement(stmts[0]); err != nil {
			return err
		}
		if beforeElse {
			e.write(";")
		}
		return nil
	}
	e.write("{")
	if err := e.emitStatement(s); err != nil {
		return err
	}
	e.write("}")
	return nil
}

func (e *emitter) emitIf(s *spine.Spine, n *ir.If) error {
	e.write("if", "(")
	if err := e.emitExpr(s.Child(ir.Field("condition")), precLowest); err != nil {
		return err
	}
	e.write(")")
	if err := e.emitBody(s.Child(ir.Field("consequent")), n.Alternate != nil); err != nil {
		return err
	}
	if n.Alternate == nil {
		return nil
	}
	e.write("else")
	return e.emitBody(s.Child(ir.Field("alternate")), false)
}

func (e *emitter) emitForCLike(s *spine.Spine, n *ir.ForCLike) error {
	e.write("for", "(")
	if n.Init != nil {
		if err := e.emitStatement(s.Child(ir.Field("init"))); err != nil {
			return err
		}
	}
	e.write(";")
	if err := e.emitExpr(s.Child(ir.Field("condition")), precLowest); err != nil {
		return err
	}
	e.write(";")
	if n.Append != nil {
		if err := e.emitStatement(s.Child(ir.Field("append"))); err != nil {
			return err
		}
	}
	e.write(")")
	return e.emitBody(s.Child(ir.Field("body")), false)
}

// emitForIn writes for(v of xs) and for(k in t).
func (e *emitter) emitForIn(s *spine.Spine, keyword, field string, v *ir.Identifier) error {
	e.write("for", "(", v.Name, keyword)
	if err := e.emitExpr(s.Child(ir.Field(field)), precLowest); err != nil {
		return err
	}
	e.write(")")
	return e.emitBody(s.Child(ir.Field("body")), false)
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
		if n.Name == "..." {
			return precSpread
		}
		return precPrefix
	case *ir.FunctionCall, *ir.MethodCall, *ir.PropertyCall, *ir.IndexCall:
		return precPostfix
	case *ir.Identifier, *ir.Text, *ir.List, *ir.Array, *ir.Table:
		return precAtom
	}
	return precLowest
}

// emitExpr writes an expression, parenthesized when it binds looser than
// its position requires.
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
		digits := n.Value.String()
		if n.TargetType == bigintTarget {
			digits += "n"
		}
		if n.Value.Sign() < 0 {
			e.write("-", strings.TrimPrefix(digits, "-"))
		} else {
			e.write(digits)
		}
	case *ir.Text:
		e.write(quote(n.Value))
	case *ir.Identifier:
		e.write(n.Name)
	case *ir.List:
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
		if n.Name == "**" {
			left, right = p+1, p
		}
		if err := e.emitExpr(s.Child(ir.Field("left")), left); err != nil {
			return err
		}
		e.write(n.Name)
		return e.emitExpr(s.Child(ir.Field("right")), right)
	case *ir.Prefix:
		e.write(n.Name)
		if n.Name == "..." {
			return e.emitExpr(s.Child(ir.Field("arg")), precLowest)
		}
		return e.emitExpr(s.Child(ir.Field("arg")), precPrefix)
	case *ir.FunctionCall:
		e.write(n.Name)
		return e.emitSequence(s, "(", "args", len(n.Args), ")")
	case *ir.MethodCall:
		if err := e.emitReceiver(s); err != nil {
			return err
		}
		e.write(".", n.Name)
		return e.emitSequence(s, "(", "args", len(n.Args), ")")
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
	default:
		return emit.Unsupported(s)
	}
	return nil
}

// emitReceiver writes the object of a member access. A number literal is
// parenthesized since its dot would read as a decimal point.
func (e *emitter) emitReceiver(s *spine.Spine) error {
	obj := s.Child(ir.Field("object"))
	if _, ok := obj.Node().(*ir.Integer); ok {
		return e.emitExpr(obj, precAtom+1)
	}
	return e.emitExpr(obj, precPostfix)
}

// emitSequence writes comma-separated children between delimiters.
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

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)

func quote(text string) string { return `"` + escaper.Replace(text) + `"` }
