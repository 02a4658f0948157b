package plugins

import (
	"strings"

	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/spine"
)

// The MapOpsTo* constructors turn a language's op table into a required
// plugin that replaces each abstract op by a concrete node of one shape.

// MapOpsToFunc renders ops as calls of the named function.
func MapOpsToFunc(table map[ir.OpCode]string) plugin.Plugin {
	rules := make(map[ir.OpCode]OpRule, len(table))
	for code, name := range table {
		rules[code] = func(a []ir.Node) ir.Node { return ir.NewFunctionCall(name, a...) }
	}
	return MapOps("mapOpsToFunc", rules)
}

// MapOpsToInfix renders ops as binary operators; variadic ops fold to the
// left.
func MapOpsToInfix(table map[ir.OpCode]string) plugin.Plugin {
	rules := make(map[ir.OpCode]OpRule, len(table))
	for code, name := range table {
		rules[code] = func(a []ir.Node) ir.Node {
			if len(a) < 2 {
				return nil
			}
			out := ir.Node(ir.NewInfix(name, a[0], a[1]))
			for _, x := range a[2:] {
				out = ir.NewInfix(name, out, x)
			}
			return out
		}
	}
	return MapOps("mapOpsToInfix", rules)
}

// MapOpsToPrefix renders unary ops as prefix operators.
func MapOpsToPrefix(table map[ir.OpCode]string) plugin.Plugin {
	rules := make(map[ir.OpCode]OpRule, len(table))
	for code, name := range table {
		rules[code] = func(a []ir.Node) ir.Node {
			if len(a) != 1 {
				return nil
			}
			return ir.NewPrefix(name, a[0])
		}
	}
	return MapOps("mapOpsToPrefix", rules)
}

// MapOpsToMethod renders ops as methods called on their first operand.
func MapOpsToMethod(table map[ir.OpCode]string) plugin.Plugin {
	rules := make(map[ir.OpCode]OpRule, len(table))
	for code, name := range table {
		rules[code] = func(a []ir.Node) ir.Node {
			if len(a) == 0 {
				return nil
			}
			return ir.NewMethodCall(a[0], name, a[1:]...)
		}
	}
	return MapOps("mapOpsToMethod", rules)
}

// MapOpsToProperty renders unary ops as a property of their operand.
func MapOpsToProperty(table map[ir.OpCode]string) plugin.Plugin {
	rules := make(map[ir.OpCode]OpRule, len(table))
	for code, name := range table {
		rules[code] = func(a []ir.Node) ir.Node {
			if len(a) != 1 {
				return nil
			}
			return ir.NewPropertyCall(a[0], name)
		}
	}
	return MapOps("mapOpsToProperty", rules)
}

// MapOpsToIndex renders binary ops as collection[index + offset].
func MapOpsToIndex(table map[ir.OpCode]int) plugin.Plugin {
	rules := make(map[ir.OpCode]OpRule, len(table))
	for code, offset := range table {
		rules[code] = func(a []ir.Node) ir.Node {
			if len(a) != 2 {
				return nil
			}
			index := a[1]
			if offset != 0 {
				index = ir.NewOp(ir.OpAdd, index, ir.NewInt(int64(offset)))
			}
			return ir.NewIndexCall(a[0], index)
		}
	}
	return MapOps("mapOpsToIndex", rules)
}

// MapOpsToBuiltin renders nullary ops as builtin identifiers.
func MapOpsToBuiltin(table map[ir.OpCode]string) plugin.Plugin {
	rules := make(map[ir.OpCode]OpRule, len(table))
	for code, name := range table {
		rules[code] = func(a []ir.Node) ir.Node {
			if len(a) != 0 {
				return nil
			}
			return ir.NewBuiltin(name)
		}
	}
	return MapOps("mapOpsToBuiltin", rules)
}

// MapMutationToIndex turns with_at(collection, index, value) into the
// assignment collection[index + offset] = value.
func MapMutationToIndex(table map[ir.OpCode]int) plugin.Plugin {
	rules := make(map[ir.OpCode]OpRule, len(table))
	for code, offset := range table {
		rules[code] = func(a []ir.Node) ir.Node {
			if len(a) != 3 {
				return nil
			}
			index := a[1]
			if offset != 0 {
				index = ir.NewOp(ir.OpAdd, index, ir.NewInt(int64(offset)))
			}
			return ir.NewAssignment(ir.NewIndexCall(a[0], index), a[2])
		}
	}
	return MapOps("mapMutationToIndex", rules)
}

// MapMutationToInfix turns x = op(x, y) into the compound assignment x op= y.
// For commutative ops x = op(y, x) qualifies too.
func MapMutationToInfix(table map[ir.OpCode]string) plugin.Plugin {
	return plugin.New("mapMutationToInfix", func(s *spine.Spine) ir.Node {
		a, ok := s.Node().(*ir.Assignment)
		if !ok {
			return nil
		}
		name, ok := identName(a.Variable)
		if !ok {
			return nil
		}
		op, ok := a.Expr.(*ir.Op)
		if !ok || len(op.Args) != 2 {
			return nil
		}
		infix, ok := table[op.Op]
		if !ok {
			return nil
		}
		switch {
		case isIdent(op.Args[0], name):
			return ir.NewMutatingInfix(infix, a.Variable, op.Args[1])
		case op.Op.Info().Commutative && isIdent(op.Args[1], name):
			return ir.NewMutatingInfix(infix, a.Variable, op.Args[0])
		}
		return nil
	})
}

// RemoveImplicitConversions drops conversions the target performs by itself.
var RemoveImplicitConversions = plugin.New("removeImplicitConversions", func(s *spine.Spine) ir.Node {
	if c, ok := s.Node().(*ir.ImplicitConversion); ok {
		return c.Expr
	}
	return nil
})

// UseUFCS rewrites f(x, ...) as x.f(...) and f(x) as x.f, for targets where
// any call may be written as a method of its first argument. Statements keep
// their call form and qualified names are left alone.
var UseUFCS = plugin.New("useUFCS", func(s *spine.Spine) ir.Node {
	call, ok := s.Node().(*ir.FunctionCall)
	if !ok || len(call.Args) == 0 || strings.Contains(call.Name, ".") {
		return nil
	}
	if kind, ok := s.ParentKind(); !ok || kind == ir.KindBlock {
		return nil
	}
	switch call.Args[0].(type) {
	case *ir.Identifier, *ir.Text, *ir.FunctionCall, *ir.MethodCall, *ir.PropertyCall, *ir.IndexCall:
	default:
		return nil
	}
	if len(call.Args) == 1 {
		return ir.NewPropertyCall(call.Args[0], call.Name)
	}
	return ir.NewMethodCall(call.Args[0], call.Name, call.Args[1:]...)
})
