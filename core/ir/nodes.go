package ir

import (
	"math/big"

	"github.com/opal-lang/golfc/core/invariant"
	"github.com/opal-lang/golfc/core/types"
)

// Literals

// Integer is an arbitrary precision integer literal.
type Integer struct {
	Info
	Value *big.Int
}

// Text is a string literal.
type Text struct {
	Info
	Value string
}

// List is a list literal.
type List struct {
	Info
	Exprs []Node
}

// Array is a fixed-length array literal.
type Array struct {
	Info
	Exprs []Node
}

// Table is a table literal; every entry is a *KeyValue.
type Table struct {
	Info
	Kvs []Node
}

type KeyValue struct {
	Info
	Key, Value Node
}

// Identifier names a variable. Builtin identifiers refer to target language
// names and are never renamed.
type Identifier struct {
	Info
	Name    string
	Builtin bool
}

// Declarations and assignments

type VarDeclaration struct {
	Info
	Variable     *Identifier
	VariableType types.Type
}

// VarDeclarationWithAssignment wraps an *Assignment or *ManyToManyAssignment
// that also declares its variables.
type VarDeclarationWithAssignment struct {
	Info
	Assignment Node
}

type VarDeclarationBlock struct {
	Info
	Children []Node
}

// Assignment stores Expr into Variable, an *Identifier or an *IndexCall.
type Assignment struct {
	Info
	Variable Node
	Expr     Node
}

type ManyToManyAssignment struct {
	Info
	Variables []Node
	Exprs     []Node
}

type OneToManyAssignment struct {
	Info
	Variables []Node
	Expr      Node
}

// MutatingInfix is a compound assignment such as x+=1.
type MutatingInfix struct {
	Info
	Name     string
	Variable Node
	Right    Node
}

// Operations and calls

// Op is an abstract operation from the op vocabulary. It must be mapped to a
// concrete call or operator before emission.
type Op struct {
	Info
	Op   OpCode
	Args []Node
}

type FunctionCall struct {
	Info
	Name string
	Args []Node
}

type MethodCall struct {
	Info
	Object Node
	Name   string
	Args   []Node
}

type PropertyCall struct {
	Info
	Object Node
	Name   string
}

type IndexCall struct {
	Info
	Collection Node
	Index      Node
}

type RangeIndexCall struct {
	Info
	Collection Node
	Low        Node
	High       Node
	Step       Node
}

type Infix struct {
	Info
	Name        string
	Left, Right Node
}

type Prefix struct {
	Info
	Name string
	Arg  Node
}

// Control flow

type Block struct {
	Info
	Children []Node
}

// If has a nil Alternate when there is no else branch.
type If struct {
	Info
	Condition  Node
	Consequent Node
	Alternate  Node
}

type While struct {
	Info
	Condition Node
	Body      Node
}

// ForRange iterates Variable from Start to End by Increment. A nil Variable
// makes it a count-only loop.
type ForRange struct {
	Info
	Variable  *Identifier
	Start     Node
	End       Node
	Increment Node
	Body      Node
	Inclusive bool
}

// ForDifferenceRange iterates Variable over Start..Start+Difference.
type ForDifferenceRange struct {
	Info
	Variable   *Identifier
	Start      Node
	Difference Node
	Increment  Node
	Body       Node
}

type ForEach struct {
	Info
	Variable   *Identifier
	Collection Node
	Body       Node
}

type ForEachKey struct {
	Info
	Variable *Identifier
	Table    Node
	Body     Node
}

type ForEachPair struct {
	Info
	KeyVariable   *Identifier
	ValueVariable *Identifier
	Table         Node
	Body          Node
}

type ForCLike struct {
	Info
	Init      Node
	Condition Node
	Append    Node
	Body      Node
}

// Miscellaneous

// ImplicitConversion marks Expr as converted by Behavior without any
// emitted syntax.
type ImplicitConversion struct {
	Info
	Behavior OpCode
	Expr     Node
}

type Import struct {
	Info
	Name    string
	Modules []string
}

type NamedArg struct {
	Info
	Name  string
	Value Node
}

func (*Integer) Kind() Kind                      { return KindInteger }
func (*Text) Kind() Kind                         { return KindText }
func (*List) Kind() Kind                         { return KindList }
func (*Array) Kind() Kind                        { return KindArray }
func (*Table) Kind() Kind                        { return KindTable }
func (*KeyValue) Kind() Kind                     { return KindKeyValue }
func (*Identifier) Kind() Kind                   { return KindIdentifier }
func (*VarDeclaration) Kind() Kind               { return KindVarDeclaration }
func (*VarDeclarationWithAssignment) Kind() Kind { return KindVarDeclarationWithAssignment }
func (*VarDeclarationBlock) Kind() Kind          { return KindVarDeclarationBlock }
func (*Assignment) Kind() Kind                   { return KindAssignment }
func (*ManyToManyAssignment) Kind() Kind         { return KindManyToManyAssignment }
func (*OneToManyAssignment) Kind() Kind          { return KindOneToManyAssignment }
func (*MutatingInfix) Kind() Kind                { return KindMutatingInfix }
func (*Op) Kind() Kind                           { return KindOp }
func (*FunctionCall) Kind() Kind                 { return KindFunctionCall }
func (*MethodCall) Kind() Kind                   { return KindMethodCall }
func (*PropertyCall) Kind() Kind                 { return KindPropertyCall }
func (*IndexCall) Kind() Kind                    { return KindIndexCall }
func (*RangeIndexCall) Kind() Kind               { return KindRangeIndexCall }
func (*Infix) Kind() Kind                        { return KindInfix }
func (*Prefix) Kind() Kind                       { return KindPrefix }
func (*Block) Kind() Kind                        { return KindBlock }
func (*If) Kind() Kind                           { return KindIf }
func (*While) Kind() Kind                        { return KindWhile }
func (*ForRange) Kind() Kind                     { return KindForRange }
func (*ForDifferenceRange) Kind() Kind           { return KindForDifferenceRange }
func (*ForEach) Kind() Kind                      { return KindForEach }
func (*ForEachKey) Kind() Kind                   { return KindForEachKey }
func (*ForEachPair) Kind() Kind                  { return KindForEachPair }
func (*ForCLike) Kind() Kind                     { return KindForCLike }
func (*ImplicitConversion) Kind() Kind           { return KindImplicitConversion }
func (*Import) Kind() Kind                       { return KindImport }
func (*NamedArg) Kind() Kind                     { return KindNamedArg }

// clone

func (n *Integer) clone() Node                      { c := *n; c.freshDigest(); return &c }
func (n *Text) clone() Node                         { c := *n; c.freshDigest(); return &c }
func (n *List) clone() Node                         { c := *n; c.freshDigest(); return &c }
func (n *Array) clone() Node                        { c := *n; c.freshDigest(); return &c }
func (n *Table) clone() Node                        { c := *n; c.freshDigest(); return &c }
func (n *KeyValue) clone() Node                     { c := *n; c.freshDigest(); return &c }
func (n *Identifier) clone() Node                   { c := *n; c.freshDigest(); return &c }
func (n *VarDeclaration) clone() Node               { c := *n; c.freshDigest(); return &c }
func (n *VarDeclarationWithAssignment) clone() Node { c := *n; c.freshDigest(); return &c }
func (n *VarDeclarationBlock) clone() Node          { c := *n; c.freshDigest(); return &c }
func (n *Assignment) clone() Node                   { c := *n; c.freshDigest(); return &c }
func (n *ManyToManyAssignment) clone() Node         { c := *n; c.freshDigest(); return &c }
func (n *OneToManyAssignment) clone() Node          { c := *n; c.freshDigest(); return &c }
func (n *MutatingInfix) clone() Node                { c := *n; c.freshDigest(); return &c }
func (n *Op) clone() Node                           { c := *n; c.freshDigest(); return &c }
func (n *FunctionCall) clone() Node                 { c := *n; c.freshDigest(); return &c }
func (n *MethodCall) clone() Node                   { c := *n; c.freshDigest(); return &c }
func (n *PropertyCall) clone() Node                 { c := *n; c.freshDigest(); return &c }
func (n *IndexCall) clone() Node                    { c := *n; c.freshDigest(); return &c }
func (n *RangeIndexCall) clone() Node               { c := *n; c.freshDigest(); return &c }
func (n *Infix) clone() Node                        { c := *n; c.freshDigest(); return &c }
func (n *Prefix) clone() Node                       { c := *n; c.freshDigest(); return &c }
func (n *Block) clone() Node                        { c := *n; c.freshDigest(); return &c }
func (n *If) clone() Node                           { c := *n; c.freshDigest(); return &c }
func (n *While) clone() Node                        { c := *n; c.freshDigest(); return &c }
func (n *ForRange) clone() Node                     { c := *n; c.freshDigest(); return &c }
func (n *ForDifferenceRange) clone() Node           { c := *n; c.freshDigest(); return &c }
func (n *ForEach) clone() Node                      { c := *n; c.freshDigest(); return &c }
func (n *ForEachKey) clone() Node                   { c := *n; c.freshDigest(); return &c }
func (n *ForEachPair) clone() Node                  { c := *n; c.freshDigest(); return &c }
func (n *ForCLike) clone() Node                     { c := *n; c.freshDigest(); return &c }
func (n *ImplicitConversion) clone() Node           { c := *n; c.freshDigest(); return &c }
func (n *Import) clone() Node                       { c := *n; c.freshDigest(); return &c }
func (n *NamedArg) clone() Node                     { c := *n; c.freshDigest(); return &c }

// edges

func (*Integer) edges() []Edge    { return nil }
func (*Text) edges() []Edge       { return nil }
func (*Identifier) edges() []Edge { return nil }
func (*Import) edges() []Edge     { return nil }

func (n *List) edges() []Edge  { var l edgeList; l.many("exprs", n.Exprs); return l }
func (n *Array) edges() []Edge { var l edgeList; l.many("exprs", n.Exprs); return l }
func (n *Table) edges() []Edge { var l edgeList; l.many("kvs", n.Kvs); return l }

func (n *KeyValue) edges() []Edge {
	var l edgeList
	l.one("key", n.Key)
	l.one("value", n.Value)
	return l
}

func (n *VarDeclaration) edges() []Edge {
	var l edgeList
	l.ident("variable", n.Variable)
	return l
}

func (n *VarDeclarationWithAssignment) edges() []Edge {
	var l edgeList
	l.one("assignment", n.Assignment)
	return l
}

func (n *VarDeclarationBlock) edges() []Edge {
	var l edgeList
	l.many("children", n.Children)
	return l
}

func (n *Assignment) edges() []Edge {
	var l edgeList
	l.one("variable", n.Variable)
	l.one("expr", n.Expr)
	return l
}

func (n *ManyToManyAssignment) edges() []Edge {
	var l edgeList
	l.many("variables", n.Variables)
	l.many("exprs", n.Exprs)
	return l
}

func (n *OneToManyAssignment) edges() []Edge {
	var l edgeList
	l.many("variables", n.Variables)
	l.one("expr", n.Expr)
	return l
}

func (n *MutatingInfix) edges() []Edge {
	var l edgeList
	l.one("variable", n.Variable)
	l.one("right", n.Right)
	return l
}

func (n *Op) edges() []Edge           { var l edgeList; l.many("args", n.Args); return l }
func (n *FunctionCall) edges() []Edge { var l edgeList; l.many("args", n.Args); return l }

func (n *MethodCall) edges() []Edge {
	var l edgeList
	l.one("object", n.Object)
	l.many("args", n.Args)
	return l
}

func (n *PropertyCall) edges() []Edge {
	var l edgeList
	l.one("object", n.Object)
	return l
}

func (n *IndexCall) edges() []Edge {
	var l edgeList
	l.one("collection", n.Collection)
	l.one("index", n.Index)
	return l
}

func (n *RangeIndexCall) edges() []Edge {
	var l edgeList
	l.one("collection", n.Collection)
	l.one("low", n.Low)
	l.one("high", n.High)
	l.one("step", n.Step)
	return l
}

func (n *Infix) edges() []Edge {
	var l edgeList
	l.one("left", n.Left)
	l.one("right", n.Right)
	return l
}

func (n *Prefix) edges() []Edge { var l edgeList; l.one("arg", n.Arg); return l }
func (n *Block) edges() []Edge  { var l edgeList; l.many("children", n.Children); return l }

func (n *If) edges() []Edge {
	var l edgeList
	l.one("condition", n.Condition)
	l.one("consequent", n.Consequent)
	l.one("alternate", n.Alternate)
	return l
}

func (n *While) edges() []Edge {
	var l edgeList
	l.one("condition", n.Condition)
	l.one("body", n.Body)
	return l
}

func (n *ForRange) edges() []Edge {
	var l edgeList
	l.ident("variable", n.Variable)
	l.one("start", n.Start)
	l.one("end", n.End)
	l.one("increment", n.Increment)
	l.one("body", n.Body)
	return l
}

func (n *ForDifferenceRange) edges() []Edge {
	var l edgeList
	l.ident("variable", n.Variable)
	l.one("start", n.Start)
	l.one("difference", n.Difference)
	l.one("increment", n.Increment)
	l.one("body", n.Body)
	return l
}

func (n *ForEach) edges() []Edge {
	var l edgeList
	l.ident("variable", n.Variable)
	l.one("collection", n.Collection)
	l.one("body", n.Body)
	return l
}

func (n *ForEachKey) edges() []Edge {
	var l edgeList
	l.ident("variable", n.Variable)
	l.one("table", n.Table)
	l.one("body", n.Body)
	return l
}

func (n *ForEachPair) edges() []Edge {
	var l edgeList
	l.ident("keyVariable", n.KeyVariable)
	l.ident("valueVariable", n.ValueVariable)
	l.one("table", n.Table)
	l.one("body", n.Body)
	return l
}

func (n *ForCLike) edges() []Edge {
	var l edgeList
	l.one("init", n.Init)
	l.one("condition", n.Condition)
	l.one("append", n.Append)
	l.one("body", n.Body)
	return l
}

func (n *ImplicitConversion) edges() []Edge { var l edgeList; l.one("expr", n.Expr); return l }
func (n *NamedArg) edges() []Edge           { var l edgeList; l.one("value", n.Value); return l }

func (l *edgeList) ident(name string, id *Identifier) {
	if id != nil {
		*l = append(*l, Edge{Fragment: Field(name), Node: id})
	}
}

// with

func asIdent(n Node) *Identifier {
	id, ok := n.(*Identifier)
	invariant.Precondition(ok, "identifier slot requires *Identifier, got %s", n.Kind())
	return id
}

func (n *Integer) with(f PathFragment, _ Node) Node    { return badFragment(n, f) }
func (n *Text) with(f PathFragment, _ Node) Node       { return badFragment(n, f) }
func (n *Identifier) with(f PathFragment, _ Node) Node { return badFragment(n, f) }
func (n *Import) with(f PathFragment, _ Node) Node     { return badFragment(n, f) }

func (n *List) with(f PathFragment, c Node) Node {
	if f.Field != "exprs" {
		return badFragment(n, f)
	}
	r := *n
	r.freshDigest()
	r.Exprs = replaceAt(n.Exprs, f, c)
	return &r
}

func (n *Array) with(f PathFragment, c Node) Node {
	if f.Field != "exprs" {
		return badFragment(n, f)
	}
	r := *n
	r.freshDigest()
	r.Exprs = replaceAt(n.Exprs, f, c)
	return &r
}

func (n *Table) with(f PathFragment, c Node) Node {
	if f.Field != "kvs" {
		return badFragment(n, f)
	}
	r := *n
	r.freshDigest()
	r.Kvs = replaceAt(n.Kvs, f, c)
	return &r
}

func (n *KeyValue) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "key":
		r.Key = c
	case "value":
		r.Value = c
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *VarDeclaration) with(f PathFragment, c Node) Node {
	if f.Field != "variable" {
		return badFragment(n, f)
	}
	r := *n
	r.freshDigest()
	r.Variable = asIdent(c)
	return &r
}

func (n *VarDeclarationWithAssignment) with(f PathFragment, c Node) Node {
	if f.Field != "assignment" {
		return badFragment(n, f)
	}
	r := *n
	r.freshDigest()
	r.Assignment = c
	return &r
}

func (n *VarDeclarationBlock) with(f PathFragment, c Node) Node {
	if f.Field != "children" {
		return badFragment(n, f)
	}
	r := *n
	r.freshDigest()
	r.Children = replaceAt(n.Children, f, c)
	return &r
}

func (n *Assignment) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "variable":
		r.Variable = c
	case "expr":
		r.Expr = c
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *ManyToManyAssignment) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "variables":
		r.Variables = replaceAt(n.Variables, f, c)
	case "exprs":
		r.Exprs = replaceAt(n.Exprs, f, c)
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *OneToManyAssignment) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "variables":
		r.Variables = replaceAt(n.Variables, f, c)
	case "expr":
		r.Expr = c
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *MutatingInfix) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "variable":
		r.Variable = c
	case "right":
		r.Right = c
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *Op) with(f PathFragment, c Node) Node {
	if f.Field != "args" {
		return badFragment(n, f)
	}
	r := *n
	r.freshDigest()
	r.Args = replaceAt(n.Args, f, c)
	return &r
}

func (n *FunctionCall) with(f PathFragment, c Node) Node {
	if f.Field != "args" {
		return badFragment(n, f)
	}
	r := *n
	r.freshDigest()
	r.Args = replaceAt(n.Args, f, c)
	return &r
}

func (n *MethodCall) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "object":
		r.Object = c
	case "args":
		r.Args = replaceAt(n.Args, f, c)
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *PropertyCall) with(f PathFragment, c Node) Node {
	if f.Field != "object" {
		return badFragment(n, f)
	}
	r := *n
	r.freshDigest()
	r.Object = c
	return &r
}

func (n *IndexCall) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "collection":
		r.Collection = c
	case "index":
		r.Index = c
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *RangeIndexCall) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "collection":
		r.Collection = c
	case "low":
		r.Low = c
	case "high":
		r.High = c
	case "step":
		r.Step = c
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *Infix) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "left":
		r.Left = c
	case "right":
		r.Right = c
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *Prefix) with(f PathFragment, c Node) Node {
	if f.Field != "arg" {
		return badFragment(n, f)
	}
	r := *n
	r.freshDigest()
	r.Arg = c
	return &r
}

func (n *Block) with(f PathFragment, c Node) Node {
	if f.Field != "children" {
		return badFragment(n, f)
	}
	r := *n
	r.freshDigest()
	r.Children = replaceAt(n.Children, f, c)
	return &r
}

func (n *If) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "condition":
		r.Condition = c
	case "consequent":
		r.Consequent = c
	case "alternate":
		r.Alternate = c
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *While) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "condition":
		r.Condition = c
	case "body":
		r.Body = c
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *ForRange) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "variable":
		r.Variable = asIdent(c)
	case "start":
		r.Start = c
	case "end":
		r.End = c
	case "increment":
		r.Increment = c
	case "body":
		r.Body = c
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *ForDifferenceRange) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "variable":
		r.Variable = asIdent(c)
	case "start":
		r.Start = c
	case "difference":
		r.Difference = c
	case "increment":
		r.Increment = c
	case "body":
		r.Body = c
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *ForEach) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "variable":
		r.Variable = asIdent(c)
	case "collection":
		r.Collection = c
	case "body":
		r.Body = c
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *ForEachKey) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "variable":
		r.Variable = asIdent(c)
	case "table":
		r.Table = c
	case "body":
		r.Body = c
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *ForEachPair) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "keyVariable":
		r.KeyVariable = asIdent(c)
	case "valueVariable":
		r.ValueVariable = asIdent(c)
	case "table":
		r.Table = c
	case "body":
		r.Body = c
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *ForCLike) with(f PathFragment, c Node) Node {
	r := *n
	r.freshDigest()
	switch f.Field {
	case "init":
		r.Init = c
	case "condition":
		r.Condition = c
	case "append":
		r.Append = c
	case "body":
		r.Body = c
	default:
		return badFragment(n, f)
	}
	return &r
}

func (n *ImplicitConversion) with(f PathFragment, c Node) Node {
	if f.Field != "expr" {
		return badFragment(n, f)
	}
	r := *n
	r.freshDigest()
	r.Expr = c
	return &r
}

func (n *NamedArg) with(f PathFragment, c Node) Node {
	if f.Field != "value" {
		return badFragment(n, f)
	}
	r := *n
	r.freshDigest()
	r.Value = c
	return &r
}
