package plugins

import (
	"slices"

	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/spine"
)

var loopKinds = []ir.Kind{
	ir.KindWhile, ir.KindForRange, ir.KindForDifferenceRange, ir.KindForEach,
	ir.KindForEachKey, ir.KindForEachPair, ir.KindForCLike,
}

// InlineVariables substitutes a variable that is assigned a pure value and
// read exactly once, in the next statement, outside any loop.
var InlineVariables = plugin.New("inlineVariables", func(s *spine.Spine) ir.Node {
	b, ok := s.Node().(*ir.Block)
	if !ok {
		return nil
	}
	root := s.Root()
	for i := 0; i+1 < len(b.Children); i++ {
		a, ok := b.Children[i].(*ir.Assignment)
		if !ok {
			continue
		}
		name, ok := identName(a.Variable)
		if !ok || !pure(a.Expr) || references(root, name) != 2 {
			continue
		}
		next := b.Children[i+1]
		if !readOnceOutsideLoops(next, name) || writesAny(next, freeNames(a.Expr)) {
			continue
		}
		out := slices.Clone(b.Children[:i])
		out = append(out, replaceIdent(next, name, a.Expr))
		out = append(out, b.Children[i+2:]...)
		return ir.WithInfo(ir.NewBlock(out...), b.NodeInfo())
	}
	return nil
})

func readOnceOutsideLoops(n ir.Node, name string) bool {
	found := false
	for d := range spine.New(n).WithDescendants() {
		if !isIdent(d.Node(), name) {
			continue
		}
		if found || d.IsDescendantOf(loopKinds...) {
			return false
		}
		found = true
	}
	return found
}

func freeNames(n ir.Node) []string {
	var names []string
	for d := range spine.New(n).WithDescendants() {
		if name, ok := identName(d.Node()); ok && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

func writesAny(n ir.Node, names []string) bool {
	for _, name := range names {
		if assigns(n, name) {
			return true
		}
	}
	return false
}

// TempVarToMultipleAssignment replaces a swap through a temporary,
// t=a; a=e; b=t, by the parallel assignment a,b=e,a.
var TempVarToMultipleAssignment = plugin.New("tempVarToMultipleAssignment", func(s *spine.Spine) ir.Node {
	b, ok := s.Node().(*ir.Block)
	if !ok {
		return nil
	}
	root := s.Root()
	for i := 0; i+2 < len(b.Children); i++ {
		first, ok1 := b.Children[i].(*ir.Assignment)
		second, ok2 := b.Children[i+1].(*ir.Assignment)
		third, ok3 := b.Children[i+2].(*ir.Assignment)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		tmp, ok := identName(first.Variable)
		if !ok || references(root, tmp) != 2 || !isIdent(third.Expr, tmp) {
			continue
		}
		a, ok := identName(first.Expr)
		if !ok || !isIdent(second.Variable, a) {
			continue
		}
		target, ok := identName(third.Variable)
		if !ok || target == a {
			continue
		}
		swap := ir.NewManyToManyAssignment(
			[]ir.Node{second.Variable, third.Variable},
			[]ir.Node{second.Expr, first.Expr},
		)
		out := slices.Clone(b.Children[:i])
		out = append(out, swap)
		out = append(out, b.Children[i+3:]...)
		return ir.WithInfo(ir.NewBlock(out...), b.NodeInfo())
	}
	return nil
})

// AddManyToManyAssignments merges adjacent independent assignments into a
// parallel assignment.
var AddManyToManyAssignments = blockRule("addManyToManyAssignments", func(children []ir.Node) []ir.Node {
	for i := 0; i+1 < len(children); i++ {
		vars, exprs, ok := assignmentParts(children[i])
		if !ok {
			continue
		}
		next, ok := children[i+1].(*ir.Assignment)
		if !ok {
			continue
		}
		name, ok := identName(next.Variable)
		if !ok || !independent(vars, name, next.Expr) {
			continue
		}
		merged := ir.NewManyToManyAssignment(
			append(slices.Clone(vars), next.Variable),
			append(slices.Clone(exprs), next.Expr),
		)
		out := slices.Clone(children[:i])
		out = append(out, merged)
		return append(out, children[i+2:]...)
	}
	return nil
})

func assignmentParts(n ir.Node) ([]ir.Node, []ir.Node, bool) {
	switch a := n.(type) {
	case *ir.Assignment:
		if _, ok := identName(a.Variable); ok {
			return []ir.Node{a.Variable}, []ir.Node{a.Expr}, true
		}
	case *ir.ManyToManyAssignment:
		for _, v := range a.Variables {
			if _, ok := identName(v); !ok {
				return nil, nil, false
			}
		}
		return a.Variables, a.Exprs, true
	}
	return nil, nil, false
}

// independent reports whether name=expr may run in parallel with
// assignments to vars.
func independent(vars []ir.Node, name string, expr ir.Node) bool {
	for _, v := range vars {
		prev, _ := identName(v)
		if prev == name || references(expr, prev) > 0 {
			return false
		}
	}
	return true
}

// RenameIdents gives user identifiers the shortest names available, in
// order of first appearance, avoiding reserved words and builtins. It only
// rewrites at the root.
func RenameIdents(reserved ...string) plugin.Plugin {
	return plugin.New("renameIdents", func(s *spine.Spine) ir.Node {
		if !s.IsRoot() {
			return nil
		}
		root := s.Node()
		taken := map[string]bool{}
		for _, r := range reserved {
			taken[r] = true
		}
		var order []string
		for d := range spine.New(root).WithDescendants() {
			id, ok := d.Node().(*ir.Identifier)
			if !ok {
				continue
			}
			if id.Builtin {
				taken[id.Name] = true
			} else if !slices.Contains(order, id.Name) {
				order = append(order, id.Name)
			}
		}
		if len(order) == 0 {
			return nil
		}

		names := shortNames(taken)
		mapping := make(map[string]string, len(order))
		for _, old := range order {
			mapping[old] = names()
		}
		return transform(root, func(n ir.Node) ir.Node {
			id, ok := n.(*ir.Identifier)
			if !ok || id.Builtin || mapping[id.Name] == id.Name {
				return n
			}
			return ir.WithInfo(ir.NewIdent(mapping[id.Name]), id.NodeInfo())
		})
	})
}

const identAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// shortNames yields a, b, ..., Z, aa, ab, ... skipping taken names.
func shortNames(taken map[string]bool) func() string {
	next := 0
	return func() string {
		for {
			name := nthName(next)
			next++
			if !taken[name] {
				return name
			}
		}
	}
}

func nthName(i int) string {
	base := len(identAlphabet)
	var out []byte
	for {
		out = append(out, identAlphabet[i%base])
		i = i/base - 1
		if i < 0 {
			break
		}
	}
	slices.Reverse(out)
	return string(out)
}
