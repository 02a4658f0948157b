// Package spine provides an immutable cursor into an IR tree.
//
// A Spine is a node together with the chain of ancestors that reaches it from
// the root. Replacing the node at a spine rebuilds exactly the ancestors on
// that chain and returns a spine over the new root; every sibling subtree is
// shared with the old tree.
package spine

import (
	"iter"
	"strings"

	"github.com/opal-lang/golfc/core/invariant"
	"github.com/opal-lang/golfc/core/ir"
)

// Spine is a position in a tree. The zero value is not usable; start from New.
type Spine struct {
	node   ir.Node
	parent *Spine
	frag   ir.PathFragment
	depth  int
}

// New returns the spine at the root of tree.
func New(root ir.Node) *Spine {
	invariant.NotNil(root, "root")
	return &Spine{node: root}
}

func (s *Spine) Node() ir.Node { return s.node }

// Parent returns the spine of the enclosing node, or nil at the root.
func (s *Spine) Parent() *Spine { return s.parent }

func (s *Spine) IsRoot() bool { return s.parent == nil }

// PathFragment is how this node is reached from its parent. It is the zero
// fragment at the root.
func (s *Spine) PathFragment() ir.PathFragment { return s.frag }

// Depth is 0 at the root.
func (s *Spine) Depth() int { return s.depth }

// Root returns the root node of the tree this spine points into.
func (s *Spine) Root() ir.Node {
	r := s
	for r.parent != nil {
		r = r.parent
	}
	return r.node
}

// RootSpine returns the spine at the root.
func (s *Spine) RootSpine() *Spine {
	r := s
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Path lists the fragments from the root down to this node.
func (s *Spine) Path() []ir.PathFragment {
	path := make([]ir.PathFragment, s.depth)
	for r := s; r.parent != nil; r = r.parent {
		path[r.depth-1] = r.frag
	}
	return path
}

// PathString renders the path as "body.children[2].args[0]".
func (s *Spine) PathString() string {
	path := s.Path()
	parts := make([]string, len(path))
	for i, f := range path {
		parts[i] = f.String()
	}
	return strings.Join(parts, ".")
}

// Child returns the spine of the child at f, or nil when there is none.
func (s *Spine) Child(f ir.PathFragment) *Spine {
	c := ir.ChildAt(s.node, f)
	if c == nil {
		return nil
	}
	return s.child(f, c)
}

func (s *Spine) child(f ir.PathFragment, n ir.Node) *Spine {
	return &Spine{node: n, parent: s, frag: f, depth: s.depth + 1}
}

// Children returns a spine for every child in declaration order.
func (s *Spine) Children() []*Spine {
	edges := ir.Children(s.node)
	out := make([]*Spine, len(edges))
	for i, e := range edges {
		out[i] = s.child(e.Fragment, e.Node)
	}
	return out
}

// Replace returns the spine at the same position in a new tree where this
// node is replaced by n. The receiver and its tree are unchanged.
func (s *Spine) Replace(n ir.Node) *Spine {
	invariant.NotNil(n, "replacement")
	if s.parent == nil {
		return New(n)
	}
	parent := s.parent.Replace(ir.WithChild(s.parent.node, s.frag, n))
	return parent.child(s.frag, n)
}

// ReplaceChild is Replace on the child at f.
func (s *Spine) ReplaceChild(f ir.PathFragment, n ir.Node) *Spine {
	return s.Replace(ir.WithChild(s.node, f, n))
}

// At follows path from this spine. It returns nil when the path does not
// exist in this tree.
func (s *Spine) At(path []ir.PathFragment) *Spine {
	cur := s
	for _, f := range path {
		cur = cur.Child(f)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// WithDescendants yields this spine and every descendant spine in pre-order,
// children in declaration order.
func (s *Spine) WithDescendants() iter.Seq[*Spine] {
	return func(yield func(*Spine) bool) {
		stack := []*Spine{s}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(cur) {
				return
			}
			children := cur.Children()
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		}
	}
}

// Ancestors yields the parent, grandparent and so on up to the root.
func (s *Spine) Ancestors() iter.Seq[*Spine] {
	return func(yield func(*Spine) bool) {
		for p := s.parent; p != nil; p = p.parent {
			if !yield(p) {
				return
			}
		}
	}
}

// IsDescendantOf reports whether some ancestor has one of the given kinds.
func (s *Spine) IsDescendantOf(kinds ...ir.Kind) bool {
	for p := range s.Ancestors() {
		for _, k := range kinds {
			if p.node.Kind() == k {
				return true
			}
		}
	}
	return false
}

// ParentKind is the kind of the parent node; ok is false at the root.
func (s *Spine) ParentKind() (ir.Kind, bool) {
	if s.parent == nil {
		return 0, false
	}
	return s.parent.node.Kind(), true
}
