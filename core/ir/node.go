// Package ir defines the language-agnostic intermediate representation every
// target backend consumes: a closed set of immutable node kinds, the closed
// operation vocabulary, and structural identity (canonical encoding + hash).
//
// Nodes are never mutated after construction. Rewrites build new nodes and
// share untouched subtrees by reference.
package ir

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/opal-lang/golfc/core/invariant"
	"github.com/opal-lang/golfc/core/types"
)

// Kind identifies a node variant.
type Kind int

const (
	KindInteger Kind = iota
	KindText
	KindList
	KindArray
	KindTable
	KindKeyValue
	KindIdentifier
	KindVarDeclaration
	KindVarDeclarationWithAssignment
	KindVarDeclarationBlock
	KindAssignment
	KindManyToManyAssignment
	KindOneToManyAssignment
	KindMutatingInfix
	KindOp
	KindFunctionCall
	KindMethodCall
	KindPropertyCall
	KindIndexCall
	KindRangeIndexCall
	KindInfix
	KindPrefix
	KindBlock
	KindIf
	KindWhile
	KindForRange
	KindForDifferenceRange
	KindForEach
	KindForEachKey
	KindForEachPair
	KindForCLike
	KindImplicitConversion
	KindImport
	KindNamedArg
	kindCount
)

var kindNames = [kindCount]string{
	KindInteger:                      "Integer",
	KindText:                         "Text",
	KindList:                         "List",
	KindArray:                        "Array",
	KindTable:                        "Table",
	KindKeyValue:                     "KeyValue",
	KindIdentifier:                   "Identifier",
	KindVarDeclaration:               "VarDeclaration",
	KindVarDeclarationWithAssignment: "VarDeclarationWithAssignment",
	KindVarDeclarationBlock:          "VarDeclarationBlock",
	KindAssignment:                   "Assignment",
	KindManyToManyAssignment:         "ManyToManyAssignment",
	KindOneToManyAssignment:          "OneToManyAssignment",
	KindMutatingInfix:                "MutatingInfix",
	KindOp:                           "Op",
	KindFunctionCall:                 "FunctionCall",
	KindMethodCall:                   "MethodCall",
	KindPropertyCall:                 "PropertyCall",
	KindIndexCall:                    "IndexCall",
	KindRangeIndexCall:               "RangeIndexCall",
	KindInfix:                        "Infix",
	KindPrefix:                       "Prefix",
	KindBlock:                        "Block",
	KindIf:                           "If",
	KindWhile:                        "While",
	KindForRange:                     "ForRange",
	KindForDifferenceRange:           "ForDifferenceRange",
	KindForEach:                      "ForEach",
	KindForEachKey:                   "ForEachKey",
	KindForEachPair:                  "ForEachPair",
	KindForCLike:                     "ForCLike",
	KindImplicitConversion:           "ImplicitConversion",
	KindImport:                       "Import",
	KindNamedArg:                     "NamedArg",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Info holds the annotations every node may carry.
type Info struct {
	Type       types.Type // annotated type; nil when unknown
	TargetType string     // backend representation tag such as "char" or "bigint"

	digest *digestCell
}

// NodeInfo returns the annotations.
func (i Info) NodeInfo() Info { return i }

func (i *Info) setInfo(v Info) {
	*i = v
	i.freshDigest()
}

// freshDigest gives a newly built node its own digest cell. Every copy made
// by a rewrite gets a fresh one, so a cached digest never outlives the
// content it was computed from.
func (i *Info) freshDigest() { i.digest = new(digestCell) }

// Node is a closed union over the node structs of this package.
type Node interface {
	Kind() Kind
	NodeInfo() Info

	edges() []Edge
	with(f PathFragment, child Node) Node
	clone() Node
	setInfo(Info)
	freshDigest()
}

// seal finishes construction of a node.
func seal[N Node](n N) N {
	n.freshDigest()
	return n
}

// PathFragment names how a node is reached from its parent: a field name and,
// for sequence fields, an index.
type PathFragment struct {
	Field string
	Index int // -1 for scalar fields
}

// Field is the fragment of a scalar child field.
func Field(name string) PathFragment { return PathFragment{Field: name, Index: -1} }

// Indexed is the fragment of element i of a sequence field.
func Indexed(name string, i int) PathFragment { return PathFragment{Field: name, Index: i} }

func (f PathFragment) IsIndexed() bool { return f.Index >= 0 }

func (f PathFragment) String() string {
	if f.Index < 0 {
		return f.Field
	}
	return f.Field + "[" + strconv.Itoa(f.Index) + "]"
}

// Edge is one child of a node.
type Edge struct {
	Fragment PathFragment
	Node     Node
}

// Children lists the children of n in declaration order. Absent optional
// children (a count-only loop's variable, an if without else) are omitted.
func Children(n Node) []Edge { return n.edges() }

// WithChild returns a copy of n whose child at f is replaced by child.
// Only n itself is copied; every other child is shared.
func WithChild(n Node, f PathFragment, child Node) Node {
	invariant.NotNil(child, "replacement child")
	return n.with(f, child)
}

// ChildAt returns the child at f, or nil.
func ChildAt(n Node, f PathFragment) Node {
	for _, e := range n.edges() {
		if e.Fragment == f {
			return e.Node
		}
	}
	return nil
}

// WithInfo returns a copy of n carrying info.
func WithInfo(n Node, info Info) Node {
	c := n.clone()
	c.setInfo(info)
	return c
}

// WithType returns a copy of n annotated with t.
func WithType(n Node, t types.Type) Node {
	info := n.NodeInfo()
	info.Type = t
	return WithInfo(n, info)
}

// WithTargetType returns a copy of n carrying the backend representation tag.
func WithTargetType(n Node, target string) Node {
	info := n.NodeInfo()
	info.TargetType = target
	return WithInfo(n, info)
}

type edgeList []Edge

func (l *edgeList) one(name string, n Node) {
	if n != nil {
		*l = append(*l, Edge{Fragment: Field(name), Node: n})
	}
}

func (l *edgeList) many(name string, ns []Node) {
	for i, n := range ns {
		*l = append(*l, Edge{Fragment: Indexed(name, i), Node: n})
	}
}

func replaceAt(ns []Node, f PathFragment, child Node) []Node {
	invariant.Precondition(f.Index >= 0 && f.Index < len(ns), "fragment %s out of range (len %d)", f, len(ns))
	out := slices.Clone(ns)
	out[f.Index] = child
	return out
}

func badFragment(n Node, f PathFragment) Node {
	panic(fmt.Sprintf("INVARIANT VIOLATION: %s has no child %s", n.Kind(), f))
}
