package ir

import (
	"math/big"
	"unicode/utf8"

	"github.com/opal-lang/golfc/core/invariant"
	"github.com/opal-lang/golfc/core/types"
)

// Constructors validate shape and panic on malformed input; a malformed tree
// is a bug in the producer, never a user error.

func NewInt(v int64) *Integer { return seal(&Integer{Value: big.NewInt(v)}) }

func NewBigInt(v *big.Int) *Integer {
	invariant.NotNil(v, "integer value")
	return seal(&Integer{Value: new(big.Int).Set(v)})
}

func NewText(s string) *Text { return seal(&Text{Value: s}) }

func NewIdent(name string) *Identifier {
	invariant.Precondition(name != "", "identifier name must not be empty")
	return seal(&Identifier{Name: name})
}

func NewBuiltin(name string) *Identifier {
	invariant.Precondition(name != "", "builtin name must not be empty")
	return seal(&Identifier{Name: name, Builtin: true})
}

func NewList(exprs ...Node) *List   { return seal(&List{Exprs: nonNil("list", exprs)}) }
func NewArray(exprs ...Node) *Array { return seal(&Array{Exprs: nonNil("array", exprs)}) }

func NewTable(kvs ...Node) *Table {
	for _, kv := range kvs {
		invariant.Precondition(kv != nil && kv.Kind() == KindKeyValue, "table entries must be key-value pairs")
	}
	return seal(&Table{Kvs: kvs})
}

func NewKeyValue(key, value Node) *KeyValue {
	invariant.NotNil(key, "key")
	invariant.NotNil(value, "value")
	return seal(&KeyValue{Key: key, Value: value})
}

func NewVarDeclaration(v *Identifier, t types.Type) *VarDeclaration {
	invariant.NotNil(v, "declared variable")
	invariant.NotNil(t, "declared type")
	return seal(&VarDeclaration{Variable: v, VariableType: t})
}

func NewVarDeclarationWithAssignment(a Node) *VarDeclarationWithAssignment {
	invariant.NotNil(a, "assignment")
	k := a.Kind()
	invariant.Precondition(k == KindAssignment || k == KindManyToManyAssignment,
		"declaration requires an assignment, got %s", k)
	return seal(&VarDeclarationWithAssignment{Assignment: a})
}

func NewVarDeclarationBlock(children ...Node) *VarDeclarationBlock {
	return seal(&VarDeclarationBlock{Children: nonNil("declaration block", children)})
}

func NewAssignment(variable, expr Node) *Assignment {
	invariant.NotNil(variable, "assignment target")
	invariant.NotNil(expr, "assigned expression")
	return seal(&Assignment{Variable: variable, Expr: expr})
}

func NewManyToManyAssignment(variables, exprs []Node) *ManyToManyAssignment {
	invariant.Precondition(len(variables) == len(exprs),
		"many-to-many assignment of %d variables from %d expressions", len(variables), len(exprs))
	invariant.Precondition(len(variables) > 1, "many-to-many assignment needs at least 2 variables")
	return seal(&ManyToManyAssignment{Variables: nonNil("variables", variables), Exprs: nonNil("exprs", exprs)})
}

func NewOneToManyAssignment(variables []Node, expr Node) *OneToManyAssignment {
	invariant.Precondition(len(variables) > 1, "one-to-many assignment needs at least 2 variables")
	invariant.NotNil(expr, "assigned expression")
	return seal(&OneToManyAssignment{Variables: nonNil("variables", variables), Expr: expr})
}

func NewMutatingInfix(name string, variable, right Node) *MutatingInfix {
	invariant.Precondition(name != "", "operator name must not be empty")
	invariant.NotNil(variable, "mutated variable")
	invariant.NotNil(right, "right operand")
	return seal(&MutatingInfix{Name: name, Variable: variable, Right: right})
}

// NewOp builds an abstract operation. Arity is checked against the op table.
// When every argument already carries a type the result type is computed and
// attached.
func NewOp(code OpCode, args ...Node) *Op {
	invariant.Precondition(code.Valid(), "invalid op code %d", int(code))
	info := code.Info()
	invariant.Arity(info.Name, len(args), info.MinArity, info.MaxArity)
	op := seal(&Op{Op: code, Args: nonNil(info.Name, args)})
	argTypes := make([]types.Type, 0, len(args))
	for _, a := range args {
		t := a.NodeInfo().Type
		if t == nil {
			return op
		}
		argTypes = append(argTypes, t)
	}
	if t, err := code.ResultType(argTypes); err == nil {
		op.Type = t
	}
	return op
}

func NewFunctionCall(name string, args ...Node) *FunctionCall {
	invariant.Precondition(name != "", "function name must not be empty")
	return seal(&FunctionCall{Name: name, Args: nonNil(name, args)})
}

func NewMethodCall(object Node, name string, args ...Node) *MethodCall {
	invariant.NotNil(object, "method receiver")
	invariant.Precondition(name != "", "method name must not be empty")
	return seal(&MethodCall{Object: object, Name: name, Args: nonNil(name, args)})
}

func NewPropertyCall(object Node, name string) *PropertyCall {
	invariant.NotNil(object, "property receiver")
	invariant.Precondition(name != "", "property name must not be empty")
	return seal(&PropertyCall{Object: object, Name: name})
}

func NewIndexCall(collection, index Node) *IndexCall {
	invariant.NotNil(collection, "indexed collection")
	invariant.NotNil(index, "index")
	return seal(&IndexCall{Collection: collection, Index: index})
}

func NewRangeIndexCall(collection, low, high, step Node) *RangeIndexCall {
	invariant.NotNil(collection, "indexed collection")
	invariant.NotNil(low, "range low")
	invariant.NotNil(high, "range high")
	invariant.NotNil(step, "range step")
	return seal(&RangeIndexCall{Collection: collection, Low: low, High: high, Step: step})
}

func NewInfix(name string, left, right Node) *Infix {
	invariant.Precondition(name != "", "operator name must not be empty")
	invariant.NotNil(left, "left operand")
	invariant.NotNil(right, "right operand")
	return seal(&Infix{Name: name, Left: left, Right: right})
}

func NewPrefix(name string, arg Node) *Prefix {
	invariant.Precondition(name != "", "operator name must not be empty")
	invariant.NotNil(arg, "operand")
	return seal(&Prefix{Name: name, Arg: arg})
}

func NewBlock(children ...Node) *Block { return seal(&Block{Children: nonNil("block", children)}) }

// NewIf accepts a nil alternate.
func NewIf(cond, consequent, alternate Node) *If {
	invariant.NotNil(cond, "condition")
	invariant.NotNil(consequent, "consequent")
	return seal(&If{Condition: cond, Consequent: consequent, Alternate: alternate})
}

func NewWhile(cond, body Node) *While {
	invariant.NotNil(cond, "condition")
	invariant.NotNil(body, "loop body")
	return seal(&While{Condition: cond, Body: body})
}

// NewForRange accepts a nil variable for a count-only loop.
func NewForRange(v *Identifier, start, end, increment, body Node, inclusive bool) *ForRange {
	invariant.NotNil(start, "range start")
	invariant.NotNil(end, "range end")
	invariant.NotNil(increment, "range increment")
	invariant.NotNil(body, "loop body")
	return seal(&ForRange{Variable: v, Start: start, End: end, Increment: increment, Body: body, Inclusive: inclusive})
}

func NewForDifferenceRange(v *Identifier, start, difference, increment, body Node) *ForDifferenceRange {
	invariant.NotNil(v, "loop variable")
	invariant.NotNil(start, "range start")
	invariant.NotNil(difference, "range difference")
	invariant.NotNil(increment, "range increment")
	invariant.NotNil(body, "loop body")
	return seal(&ForDifferenceRange{Variable: v, Start: start, Difference: difference, Increment: increment, Body: body})
}

func NewForEach(v *Identifier, collection, body Node) *ForEach {
	invariant.NotNil(v, "loop variable")
	invariant.NotNil(collection, "iterated collection")
	invariant.NotNil(body, "loop body")
	return seal(&ForEach{Variable: v, Collection: collection, Body: body})
}

func NewForEachKey(v *Identifier, table, body Node) *ForEachKey {
	invariant.NotNil(v, "loop variable")
	invariant.NotNil(table, "iterated table")
	invariant.NotNil(body, "loop body")
	return seal(&ForEachKey{Variable: v, Table: table, Body: body})
}

func NewForEachPair(k, v *Identifier, table, body Node) *ForEachPair {
	invariant.NotNil(k, "key variable")
	invariant.NotNil(v, "value variable")
	invariant.NotNil(table, "iterated table")
	invariant.NotNil(body, "loop body")
	return seal(&ForEachPair{KeyVariable: k, ValueVariable: v, Table: table, Body: body})
}

func NewForCLike(init, cond, step, body Node) *ForCLike {
	invariant.NotNil(init, "loop init")
	invariant.NotNil(cond, "loop condition")
	invariant.NotNil(step, "loop append")
	invariant.NotNil(body, "loop body")
	return seal(&ForCLike{Init: init, Condition: cond, Append: step, Body: body})
}

func NewImplicitConversion(behavior OpCode, expr Node) *ImplicitConversion {
	invariant.Precondition(behavior.Valid(), "invalid conversion op %d", int(behavior))
	invariant.Precondition(behavior.Info().MinArity == 1, "conversion %s is not unary", behavior)
	invariant.NotNil(expr, "converted expression")
	return seal(&ImplicitConversion{Behavior: behavior, Expr: expr})
}

func NewImport(name string, modules ...string) *Import {
	invariant.Precondition(name != "", "import name must not be empty")
	invariant.Precondition(len(modules) > 0, "import %q lists no modules", name)
	return seal(&Import{Name: name, Modules: modules})
}

func NewNamedArg(name string, value Node) *NamedArg {
	invariant.Precondition(name != "", "argument name must not be empty")
	invariant.NotNil(value, "argument value")
	return seal(&NamedArg{Name: name, Value: value})
}

func nonNil(what string, ns []Node) []Node {
	for i, n := range ns {
		invariant.Precondition(n != nil, "%s: element %d is nil", what, i)
	}
	return ns
}

// Succ is x+1, folded when x is a literal.
func Succ(x Node) Node {
	if lit, ok := x.(*Integer); ok {
		return seal(&Integer{Value: new(big.Int).Add(lit.Value, big.NewInt(1))})
	}
	return NewOp(OpAdd, x, NewInt(1))
}

// Pred is x-1, folded when x is a literal.
func Pred(x Node) Node {
	if lit, ok := x.(*Integer); ok {
		return seal(&Integer{Value: new(big.Int).Sub(lit.Value, big.NewInt(1))})
	}
	return NewOp(OpSub, x, NewInt(1))
}

// IsAbstract reports whether n must be rewritten away before emission.
func IsAbstract(n Node) bool {
	switch n.Kind() {
	case KindOp, KindImplicitConversion:
		return true
	}
	return false
}

// IsIntLiteral reports whether n is the literal v.
func IsIntLiteral(n Node, v int64) bool {
	lit, ok := n.(*Integer)
	return ok && lit.Value.IsInt64() && lit.Value.Int64() == v
}

// IsOp reports whether n is an application of one of codes.
func IsOp(n Node, codes ...OpCode) bool {
	op, ok := n.(*Op)
	if !ok {
		return false
	}
	for _, c := range codes {
		if op.Op == c {
			return true
		}
	}
	return false
}

// Size is a structural proxy for emitted length, used when a tree cannot be
// emitted yet.
func Size(n Node) int {
	size := 1
	switch n := n.(type) {
	case *Integer:
		size += len(n.Value.String())
	case *Text:
		size += utf8.RuneCountInString(n.Value) + 2
	case *Identifier:
		size += len(n.Name)
	case *FunctionCall:
		size += len(n.Name)
	case *MethodCall:
		size += len(n.Name)
	case *PropertyCall:
		size += len(n.Name)
	case *Infix:
		size += len(n.Name)
	case *Prefix:
		size += len(n.Name)
	case *Op:
		size += 2
	case *ImplicitConversion:
		size--
	}
	for _, e := range n.edges() {
		size += Size(e.Node)
	}
	return size
}
