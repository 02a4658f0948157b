// Package plugins holds the rewrite rules shared by the target languages.
//
// Every exported value is either a plugin.Plugin or a constructor returning
// one. Rules that only make sense for some targets are parameterized (op
// mapping tables, representable integer ranges, reserved words) and the
// language packages decide which phase each rule belongs to.
package plugins

import (
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/spine"
)

// OpRule builds the replacement for one op application or returns nil to
// decline.
type OpRule func(args []ir.Node) ir.Node

// MapOps rewrites op applications whose code has a rule.
func MapOps(name string, rules map[ir.OpCode]OpRule) plugin.Plugin {
	return plugin.New(name, func(s *spine.Spine) ir.Node {
		op, ok := s.Node().(*ir.Op)
		if !ok {
			return nil
		}
		if rule, ok := rules[op.Op]; ok {
			return rule(op.Args)
		}
		return nil
	})
}

// transform rebuilds n bottom-up, replacing every node by fn(node). fn sees
// nodes whose children are already transformed.
func transform(n ir.Node, fn func(ir.Node) ir.Node) ir.Node {
	for _, e := range ir.Children(n) {
		if c := transform(e.Node, fn); c != e.Node {
			n = ir.WithChild(n, e.Fragment, c)
		}
	}
	return fn(n)
}

// identName returns the name of a user identifier.
func identName(n ir.Node) (string, bool) {
	id, ok := n.(*ir.Identifier)
	if !ok || id.Builtin {
		return "", false
	}
	return id.Name, true
}

func isIdent(n ir.Node, name string) bool {
	got, ok := identName(n)
	return ok && got == name
}

// references counts user identifiers named name in n, binding sites
// included.
func references(n ir.Node, name string) int {
	count := 0
	for d := range spine.New(n).WithDescendants() {
		if isIdent(d.Node(), name) {
			count++
		}
	}
	return count
}

// assigns reports whether n contains a write to name.
func assigns(n ir.Node, name string) bool {
	for d := range spine.New(n).WithDescendants() {
		switch a := d.Node().(type) {
		case *ir.Assignment:
			if isIdent(a.Variable, name) {
				return true
			}
		case *ir.MutatingInfix:
			if isIdent(a.Variable, name) {
				return true
			}
		case *ir.ManyToManyAssignment:
			for _, v := range a.Variables {
				if isIdent(v, name) {
					return true
				}
			}
		case *ir.OneToManyAssignment:
			for _, v := range a.Variables {
				if isIdent(v, name) {
					return true
				}
			}
		}
	}
	return false
}

// replaceIdent substitutes with for every use of name in n.
func replaceIdent(n ir.Node, name string, with ir.Node) ir.Node {
	return transform(n, func(m ir.Node) ir.Node {
		if isIdent(m, name) {
			return with
		}
		return m
	})
}

// pure reports whether evaluating n has no effects, so it may be moved or
// duplicated.
func pure(n ir.Node) bool {
	for d := range spine.New(n).WithDescendants() {
		switch x := d.Node().(type) {
		case *ir.Op:
			switch x.Op {
			case ir.OpReadLine, ir.OpPrintText, ir.OpPrintlnText, ir.OpPrintInt, ir.OpPrintlnInt,
				ir.OpWithAtList, ir.OpWithAtArray, ir.OpWithAtTable, ir.OpWithAtBackList:
				return false
			}
		case *ir.FunctionCall, *ir.MethodCall, *ir.Assignment, *ir.MutatingInfix,
			*ir.ManyToManyAssignment, *ir.OneToManyAssignment:
			return false
		}
	}
	return true
}

// blockRule adapts a rewrite of a block's statement list.
func blockRule(name string, fn func(children []ir.Node) []ir.Node) plugin.Plugin {
	return plugin.New(name, func(s *spine.Spine) ir.Node {
		b, ok := s.Node().(*ir.Block)
		if !ok {
			return nil
		}
		if out := fn(b.Children); out != nil {
			return ir.WithInfo(ir.NewBlock(out...), b.NodeInfo())
		}
		return nil
	})
}

// binds reports whether a loop inside n declares its own variable named
// name.
func binds(n ir.Node, name string) bool {
	for d := range spine.New(n).WithDescendants() {
		var vars []*ir.Identifier
		switch l := d.Node().(type) {
		case *ir.ForRange:
			vars = append(vars, l.Variable)
		case *ir.ForDifferenceRange:
			vars = append(vars, l.Variable)
		case *ir.ForEach:
			vars = append(vars, l.Variable)
		case *ir.ForEachKey:
			vars = append(vars, l.Variable)
		case *ir.ForEachPair:
			vars = append(vars, l.KeyVariable, l.ValueVariable)
		}
		for _, v := range vars {
			if v != nil && v.Name == name {
				return true
			}
		}
	}
	return false
}
