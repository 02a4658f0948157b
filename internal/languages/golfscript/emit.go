package golfscript

import (
	"strings"

	"github.com/opal-lang/golfc/core/emit"
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/spine"
)

// Emit renders program in postfix order. Every rewritten op is a
// FunctionCall naming the GolfScript word that consumes its operands.
func Emit(program ir.Node) ([]string, error) {
	e := &emitter{}
	if err := e.emitNode(spine.New(program)); err != nil {
		return nil, err
	}
	return e.tokens, nil
}

type emitter struct {
	tokens []string
}

func (e *emitter) write(tokens ...string) { e.tokens = append(e.tokens, tokens...) }

func (e *emitter) emitNode(s *spine.Spine) error {
	switch n := s.Node().(type) {
	case *ir.Block:
		return e.emitEach(s, "children", len(n.Children))
	case *ir.VarDeclaration:
		return nil
	case *ir.VarDeclarationWithAssignment:
		return e.emitNode(s.Child(ir.Field("assignment")))
	case *ir.Assignment:
		if err := e.emitNode(s.Child(ir.Field("expr"))); err != nil {
			return err
		}
		return e.store(s.Child(ir.Field("variable")))
	case *ir.ManyToManyAssignment:
		if err := e.emitEach(s, "exprs", len(n.Exprs)); err != nil {
			return err
		}
		// The last value is on top of the stack.
		for i := len(n.Variables) - 1; i >= 0; i-- {
			if err := e.store(s.Child(ir.Indexed("variables", i))); err != nil {
				return err
			}
		}
		return nil
	case *ir.Integer:
		e.write(n.Value.String())
	case *ir.Text:
		e.write(quote(n.Value))
	case *ir.Identifier:
		e.write(n.Name)
	case *ir.List:
		e.write("[")
		if err := e.emitEach(s, "exprs", len(n.Exprs)); err != nil {
			return err
		}
		e.write("]")
	case *ir.FunctionCall:
		if err := e.emitEach(s, "args", len(n.Args)); err != nil {
			return err
		}
		e.write(n.Name)
	case *ir.IndexCall:
		if err := e.emitFields(s, "collection", "index"); err != nil {
			return err
		}
		e.write("=")
	case *ir.If:
		return e.emitIf(s, n)
	case *ir.While:
		e.write("{")
		if err := e.emitNode(s.Child(ir.Field("condition"))); err != nil {
			return err
		}
		e.write("}", "{")
		if err := e.emitNode(s.Child(ir.Field("body"))); err != nil {
			return err
		}
		e.write("}", "while")
	case *ir.ForRange:
		return e.emitForRange(s, n)
	case *ir.ForDifferenceRange:
		return e.emitForDifferenceRange(s, n)
	case *ir.ForEach:
		if err := e.emitNode(s.Child(ir.Field("collection"))); err != nil {
			return err
		}
		return e.emitLoopBody(s, n.Variable, nil)
	default:
		return emit.Unsupported(s)
	}
	return nil
}

func (e *emitter) emitEach(s *spine.Spine, field string, count int) error {
	for i := range count {
		if err := e.emitNode(s.Child(ir.Indexed(field, i))); err != nil {
			return err
		}
	}
	return nil
}

func (e *emitter) emitFields(s *spine.Spine, fields ...string) error {
	for _, f := range fields {
		if err := e.emitNode(s.Child(ir.Field(f))); err != nil {
			return err
		}
	}
	return nil
}

// store pops the top of the stack into a variable.
func (e *emitter) store(target *spine.Spine) error {
	id, ok := target.Node().(*ir.Identifier)
	if !ok {
		return emit.Unsupported(target)
	}
	e.write(":", id.Name, ";")
	return nil
}

func (e *emitter) emitIf(s *spine.Spine, n *ir.If) error {
	if err := e.emitNode(s.Child(ir.Field("condition"))); err != nil {
		return err
	}
	e.write("{")
	if err := e.emitNode(s.Child(ir.Field("consequent"))); err != nil {
		return err
	}
	e.write("}", "{")
	if n.Alternate != nil {
		if err := e.emitNode(s.Child(ir.Field("alternate"))); err != nil {
			return err
		}
	}
	e.write("}", "if")
	return nil
}

// emitForRange builds the range as an array: `end,` is 0..end-1, `start>`
// drops the values below start and `step%` keeps every step-th one.
func (e *emitter) emitForRange(s *spine.Spine, n *ir.ForRange) error {
	step, ok := n.Increment.(*ir.Integer)
	if !ok || step.Value.Sign() <= 0 {
		return emit.Unsupported(s)
	}
	fromZero := ir.IsIntLiteral(n.Start, 0)
	unitStep := ir.IsIntLiteral(n.Increment, 1)

	if err := e.emitNode(s.Child(ir.Field("end"))); err != nil {
		return err
	}
	if n.Inclusive {
		e.write(")")
	}
	if n.Variable == nil && fromZero && unitStep {
		// An integer times a block runs it that many times.
		e.write("{")
		if err := e.emitNode(s.Child(ir.Field("body"))); err != nil {
			return err
		}
		e.write("}", "*")
		return nil
	}
	e.write(",")
	if !fromZero {
		if err := e.emitNode(s.Child(ir.Field("start"))); err != nil {
			return err
		}
		e.write(">")
	}
	if !unitStep {
		e.write(step.Value.String(), "%")
	}
	return e.emitLoopBody(s, n.Variable, nil)
}

// emitForDifferenceRange iterates 0..difference-1 and adds start back inside
// the block.
func (e *emitter) emitForDifferenceRange(s *spine.Spine, n *ir.ForDifferenceRange) error {
	step, ok := n.Increment.(*ir.Integer)
	if !ok || step.Value.Sign() <= 0 {
		return emit.Unsupported(s)
	}
	if err := e.emitNode(s.Child(ir.Field("difference"))); err != nil {
		return err
	}
	e.write(",")
	if !ir.IsIntLiteral(n.Increment, 1) {
		e.write(step.Value.String(), "%")
	}
	var offset *spine.Spine
	if !ir.IsIntLiteral(n.Start, 0) {
		offset = s.Child(ir.Field("start"))
	}
	return e.emitLoopBody(s, n.Variable, offset)
}

// emitLoopBody writes `{:v;body}/`, mapping the block over the array on the
// stack. offset, when present, is added to each element before it is stored.
func (e *emitter) emitLoopBody(s *spine.Spine, v *ir.Identifier, offset *spine.Spine) error {
	e.write("{")
	if offset != nil {
		if err := e.emitNode(offset); err != nil {
			return err
		}
		e.write("+")
	}
	if v == nil {
		e.write(";")
	} else {
		e.write(":", v.Name, ";")
	}
	if err := e.emitNode(s.Child(ir.Field("body"))); err != nil {
		return err
	}
	e.write("}", "/")
	return nil
}

// quote writes a string literal. The newline has a one-letter builtin.
func quote(text string) string {
	if text == "\n" {
		return "n"
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range text {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
