package plugins

import (
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/spine"
)

// RemoveUnusedForVar turns a range loop whose body never mentions the loop
// variable into a count-only loop over the same bounds.
var RemoveUnusedForVar = plugin.New("removeUnusedForVar", func(s *spine.Spine) ir.Node {
	f, ok := s.Node().(*ir.ForRange)
	if !ok || f.Variable == nil || references(f.Body, f.Variable.Name) > 0 {
		return nil
	}
	out := *f
	out.Variable = nil
	return &out
})

func positiveLiteral(n ir.Node) bool {
	lit, ok := n.(*ir.Integer)
	return ok && lit.Value.Sign() > 0
}

// ForRangeToForRangeInclusive rewrites a..<b as a..b-1 for positive
// literal steps.
var ForRangeToForRangeInclusive = plugin.New("forRangeToForRangeInclusive", func(s *spine.Spine) ir.Node {
	f, ok := s.Node().(*ir.ForRange)
	if !ok || f.Inclusive || !positiveLiteral(f.Increment) {
		return nil
	}
	return ir.NewForRange(f.Variable, f.Start, ir.Pred(f.End), f.Increment, f.Body, true)
})

// ForRangeToForDifferenceRange expresses an exclusive range by its length.
var ForRangeToForDifferenceRange = plugin.New("forRangeToForDifferenceRange", func(s *spine.Spine) ir.Node {
	f, ok := s.Node().(*ir.ForRange)
	if !ok || f.Inclusive || f.Variable == nil || !positiveLiteral(f.Increment) {
		return nil
	}
	var diff ir.Node
	if a, ok := f.Start.(*ir.Integer); ok && a.Value.Sign() == 0 {
		diff = f.End
	} else {
		diff = ir.NewOp(ir.OpSub, f.End, f.Start)
	}
	return ir.NewForDifferenceRange(f.Variable, f.Start, diff, f.Increment, f.Body)
})

// ForRangeToForEach rewrites `for i in 0..<size(xs)` whose body only uses i
// to read xs[i] into a loop over the elements of xs.
var ForRangeToForEach = plugin.New("forRangeToForEach", func(s *spine.Spine) ir.Node {
	f, ok := s.Node().(*ir.ForRange)
	if !ok || f.Inclusive || f.Variable == nil || !ir.IsIntLiteral(f.Start, 0) || !ir.IsIntLiteral(f.Increment, 1) {
		return nil
	}
	size, ok := f.End.(*ir.Op)
	if !ok || size.Op != ir.OpSizeList {
		return nil
	}
	coll, ok := identName(size.Args[0])
	if !ok {
		return nil
	}
	v := f.Variable.Name
	if assigns(f.Body, coll) || assigns(f.Body, v) || binds(f.Body, v) {
		return nil
	}

	reads := 0
	body := transform(f.Body, func(n ir.Node) ir.Node {
		if op, ok := n.(*ir.Op); ok && op.Op == ir.OpAtList && isIdent(op.Args[0], coll) && isIdent(op.Args[1], v) {
			reads++
			return f.Variable
		}
		return n
	})
	// every remaining mention of v would change meaning
	if reads == 0 || references(body, v) != reads {
		return nil
	}
	return ir.NewForEach(f.Variable, size.Args[0], body)
})

// ForArgvToForEach rewrites a loop over the argument indices whose body only
// uses the index to read the argument into a loop over the arguments.
var ForArgvToForEach = plugin.New("forArgvToForEach", func(s *spine.Spine) ir.Node {
	f, ok := s.Node().(*ir.ForRange)
	if !ok || f.Inclusive || f.Variable == nil || !ir.IsIntLiteral(f.Start, 0) || !ir.IsIntLiteral(f.Increment, 1) {
		return nil
	}
	size, ok := f.End.(*ir.Op)
	if !ok || size.Op != ir.OpSizeList || !isArgv(size.Args[0]) {
		return nil
	}
	v := f.Variable.Name
	if assigns(f.Body, v) || binds(f.Body, v) {
		return nil
	}

	reads := 0
	body := transform(f.Body, func(n ir.Node) ir.Node {
		op, ok := n.(*ir.Op)
		if !ok {
			return n
		}
		if op.Op == ir.OpAtArgv && isIdent(op.Args[0], v) ||
			op.Op == ir.OpAtList && isArgv(op.Args[0]) && isIdent(op.Args[1], v) {
			reads++
			return f.Variable
		}
		return n
	})
	if reads == 0 || references(body, v) != reads {
		return nil
	}
	return ir.NewForEach(f.Variable, size.Args[0], body)
})

func isArgv(n ir.Node) bool {
	op, ok := n.(*ir.Op)
	return ok && op.Op == ir.OpArgv
}

// ForRangeToForCLike spells a range loop as init; condition; step.
var ForRangeToForCLike = plugin.New("forRangeToForCLike", func(s *spine.Spine) ir.Node {
	f, ok := s.Node().(*ir.ForRange)
	if !ok || f.Variable == nil || !positiveLiteral(f.Increment) {
		return nil
	}
	// a C-like loop reads its variable and re-evaluates its bound on every
	// iteration, so the body must write neither
	if assigns(f.Body, f.Variable.Name) {
		return nil
	}
	for d := range spine.New(f.End).WithDescendants() {
		if id, ok := d.Node().(*ir.Identifier); ok && assigns(f.Body, id.Name) {
			return nil
		}
	}
	cmp := ir.OpLt
	if f.Inclusive {
		cmp = ir.OpLeq
	}
	return ir.NewForCLike(
		ir.NewAssignment(f.Variable, f.Start),
		ir.NewOp(cmp, f.Variable, f.End),
		ir.NewAssignment(f.Variable, ir.NewOp(ir.OpAdd, f.Variable, f.Increment)),
		f.Body,
	)
})

// ShiftRangeOneUp iterates over a+1..b+1 instead of a..b when the body
// mostly needs i+1: each i+1 becomes i and each other i becomes i-1.
var ShiftRangeOneUp = plugin.New("shiftRangeOneUp", func(s *spine.Spine) ir.Node {
	f, ok := s.Node().(*ir.ForRange)
	if !ok || f.Variable == nil || !positiveLiteral(f.Increment) {
		return nil
	}
	v := f.Variable.Name
	if assigns(f.Body, v) || binds(f.Body, v) {
		return nil
	}

	succs := 0
	body := transform(f.Body, func(n ir.Node) ir.Node {
		if x, ok := plusConstant(n, 1); ok && isIdent(x, v) {
			succs++
			return marker
		}
		return n
	})
	if succs == 0 || succs*2 <= references(f.Body, v) {
		return nil
	}
	body = replaceIdent(body, v, ir.Pred(f.Variable))
	body = transform(body, func(n ir.Node) ir.Node {
		if n == marker {
			return f.Variable
		}
		return n
	})
	return ir.NewForRange(f.Variable, ir.Succ(f.Start), ir.Succ(f.End), f.Increment, body, f.Inclusive)
})

// marker stands in for rewritten uses while a body is being transformed.
var marker = ir.NewBuiltin("\x00")
