package plugins

import (
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/spine"
)

// PrintIntToPrint prints integers through their decimal text.
var PrintIntToPrint = MapOps("printIntToPrint", map[ir.OpCode]OpRule{
	ir.OpPrintInt: func(a []ir.Node) ir.Node {
		return ir.NewOp(ir.OpPrintText, ir.NewOp(ir.OpIntToDec, a[0]))
	},
	ir.OpPrintlnInt: func(a []ir.Node) ir.Node {
		return ir.NewOp(ir.OpPrintlnText, ir.NewOp(ir.OpIntToDec, a[0]))
	},
})

// isLastStatement reports whether s is the program's final top-level
// statement.
func isLastStatement(s *spine.Spine) bool {
	if s.IsRoot() {
		return true
	}
	p := s.Parent()
	b, ok := p.Node().(*ir.Block)
	return ok && p.IsRoot() && s.PathFragment().Index == len(b.Children)-1
}

// GolfLastPrint drops the newline of the program's final println.
var GolfLastPrint = plugin.New("golfLastPrint", func(s *spine.Spine) ir.Node {
	op, ok := s.Node().(*ir.Op)
	if !ok || !isLastStatement(s) {
		return nil
	}
	switch op.Op {
	case ir.OpPrintlnText:
		return ir.NewOp(ir.OpPrintText, op.Args[0])
	case ir.OpPrintlnInt:
		return ir.NewOp(ir.OpPrintInt, op.Args[0])
	}
	return nil
})

// MergePrint joins two adjacent text prints. The second print decides
// whether a newline follows.
var MergePrint = blockRule("mergePrint", func(children []ir.Node) []ir.Node {
	for i := 0; i+1 < len(children); i++ {
		first, ok := children[i].(*ir.Op)
		if !ok || first.Op != ir.OpPrintText {
			continue
		}
		second, ok := children[i+1].(*ir.Op)
		if !ok || (second.Op != ir.OpPrintText && second.Op != ir.OpPrintlnText) {
			continue
		}
		merged := ir.NewOp(second.Op, ir.NewOp(ir.OpConcatText, first.Args[0], second.Args[0]))
		out := append([]ir.Node{}, children[:i]...)
		out = append(out, merged)
		return append(out, children[i+2:]...)
	}
	return nil
})

// ImplicitlyConvertPrintArg marks int_to_dec under a text print as a
// conversion the target's print performs by itself.
var ImplicitlyConvertPrintArg = plugin.New("implicitlyConvertPrintArg", func(s *spine.Spine) ir.Node {
	op, ok := s.Node().(*ir.Op)
	if !ok || (op.Op != ir.OpPrintText && op.Op != ir.OpPrintlnText) {
		return nil
	}
	conv, ok := op.Args[0].(*ir.Op)
	if !ok || conv.Op != ir.OpIntToDec {
		return nil
	}
	return ir.NewOp(op.Op, ir.NewImplicitConversion(ir.OpIntToDec, conv.Args[0]))
})

// PrintToImplicitOutput leaves the final printed value as the program's
// result, for targets that output it implicitly.
var PrintToImplicitOutput = plugin.New("printToImplicitOutput", func(s *spine.Spine) ir.Node {
	op, ok := s.Node().(*ir.Op)
	if !ok || !isLastStatement(s) {
		return nil
	}
	if op.Op == ir.OpPrintText || op.Op == ir.OpPrintInt {
		return op.Args[0]
	}
	return nil
})

// PrintlnToPrint spells a println as a print of the text and a newline.
var PrintlnToPrint = MapOps("printlnToPrint", map[ir.OpCode]OpRule{
	ir.OpPrintlnText: func(a []ir.Node) ir.Node {
		return ir.NewOp(ir.OpPrintText, ir.NewOp(ir.OpConcatText, a[0], ir.NewText("\n")))
	},
})

// PrintConcatToMultiPrint prints each part of a concatenation on its own,
// the last one with the original print.
var PrintConcatToMultiPrint = blockRule("printConcatToMultiPrint", func(children []ir.Node) []ir.Node {
	for i, c := range children {
		op, ok := c.(*ir.Op)
		if !ok || (op.Op != ir.OpPrintText && op.Op != ir.OpPrintlnText) {
			continue
		}
		concat, ok := op.Args[0].(*ir.Op)
		if !ok || concat.Op != ir.OpConcatText {
			continue
		}
		out := append([]ir.Node{}, children[:i]...)
		last := len(concat.Args) - 1
		for _, part := range concat.Args[:last] {
			out = append(out, ir.NewOp(ir.OpPrintText, part))
		}
		out = append(out, ir.NewOp(op.Op, concat.Args[last]))
		return append(out, children[i+1:]...)
	}
	return nil
})
