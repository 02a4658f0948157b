// Package infer computes the types of IR nodes.
//
// Inference needs a spine rather than a bare node: the type of an identifier
// comes from the declaration, assignment or loop header that binds it, which
// is found through the node's ancestors and the tree root.
package infer

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/spine"
	"github.com/opal-lang/golfc/core/types"
)

// TypeInferenceError reports a node whose type cannot be determined. Plugins
// that need the type treat it as "no match".
type TypeInferenceError struct {
	Kind   ir.Kind
	Path   string
	Reason string
}

func (e *TypeInferenceError) Error() string {
	where := e.Path
	if where == "" {
		where = "root"
	}
	return fmt.Sprintf("cannot infer type of %s at %s: %s", e.Kind, where, e.Reason)
}

// GetType returns the type of the node at s.
func GetType(s *spine.Spine) (types.Type, error) {
	in := &inferer{visiting: make(map[string]bool)}
	return in.typeOf(s)
}

// IntegerType returns the integer type of the node at s. ok is false when the
// type is unknown or not an integer.
func IntegerType(s *spine.Spine) (types.Integer, bool) {
	t, err := GetType(s)
	if err != nil {
		return types.Integer{}, false
	}
	it, ok := t.(types.Integer)
	return it, ok
}

// TypeOfChild is GetType on the child of s at f.
func TypeOfChild(s *spine.Spine, f ir.PathFragment) (types.Type, error) {
	c := s.Child(f)
	if c == nil {
		return nil, &TypeInferenceError{Kind: s.Node().Kind(), Path: s.PathString(), Reason: "missing child " + f.String()}
	}
	return GetType(c)
}

// inferer guards against cycles through self-referencing assignments.
type inferer struct {
	visiting map[string]bool
}

func fail(s *spine.Spine, format string, args ...any) error {
	return &TypeInferenceError{Kind: s.Node().Kind(), Path: s.PathString(), Reason: fmt.Sprintf(format, args...)}
}

func (in *inferer) typeOf(s *spine.Spine) (types.Type, error) {
	annotated := s.Node().NodeInfo().Type
	inferred, err := in.infer(s)
	if annotated == nil {
		return inferred, err
	}
	if err != nil {
		return annotated, nil
	}
	t, err := types.Intersect(inferred, annotated)
	if err != nil {
		return nil, fail(s, "%v", err)
	}
	return t, nil
}

func (in *inferer) child(s *spine.Spine, f ir.PathFragment) (types.Type, error) {
	c := s.Child(f)
	if c == nil {
		return nil, fail(s, "missing child %s", f)
	}
	return in.typeOf(c)
}

func (in *inferer) children(s *spine.Spine, field string, n int) ([]types.Type, error) {
	out := make([]types.Type, n)
	for i := range n {
		t, err := in.child(s, ir.Indexed(field, i))
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func union(ts []types.Type) (types.Type, error) {
	var acc types.Type = types.Void{}
	for _, t := range ts {
		u, err := types.Union(acc, t)
		if err != nil {
			return nil, err
		}
		acc = u
	}
	return acc, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func (in *inferer) infer(s *spine.Spine) (types.Type, error) {
	switch n := s.Node().(type) {
	case *ir.Integer:
		return types.IntConst(n.Value), nil
	case *ir.Text:
		return types.TextOfLength(int64(utf8.RuneCountInString(n.Value)), isASCII(n.Value)), nil

	case *ir.List:
		members, err := in.children(s, "exprs", len(n.Exprs))
		if err != nil {
			return nil, err
		}
		m, err := union(members)
		if err != nil {
			return nil, fail(s, "heterogeneous list: %v", err)
		}
		return types.ListOf(m), nil
	case *ir.Array:
		members, err := in.children(s, "exprs", len(n.Exprs))
		if err != nil {
			return nil, err
		}
		m, err := union(members)
		if err != nil {
			return nil, fail(s, "heterogeneous array: %v", err)
		}
		return types.ArrayOf(m, len(n.Exprs)), nil
	case *ir.Table:
		var keys, values []types.Type
		for _, kv := range s.Children() {
			k, err := in.child(kv, ir.Field("key"))
			if err != nil {
				return nil, err
			}
			v, err := in.child(kv, ir.Field("value"))
			if err != nil {
				return nil, err
			}
			keys, values = append(keys, k), append(values, v)
		}
		k, err := union(keys)
		if err != nil {
			return nil, fail(s, "heterogeneous table keys: %v", err)
		}
		v, err := union(values)
		if err != nil {
			return nil, fail(s, "heterogeneous table values: %v", err)
		}
		return types.TableOf(k, v), nil

	case *ir.Identifier:
		if n.Builtin {
			return nil, fail(s, "builtin %q has no IR type", n.Name)
		}
		return in.variable(s, n.Name)

	case *ir.Op:
		args, err := in.children(s, "args", len(n.Args))
		if err != nil {
			return nil, err
		}
		t, err := n.Op.ResultType(args)
		if err != nil {
			return nil, fail(s, "%v", err)
		}
		return t, nil
	case *ir.ImplicitConversion:
		arg, err := in.child(s, ir.Field("expr"))
		if err != nil {
			return nil, err
		}
		t, err := n.Behavior.ResultType([]types.Type{arg})
		if err != nil {
			return nil, fail(s, "%v", err)
		}
		return t, nil

	case *ir.IndexCall:
		coll, err := in.child(s, ir.Field("collection"))
		if err != nil {
			return nil, err
		}
		switch c := coll.(type) {
		case types.List:
			return c.Member, nil
		case types.Array:
			return c.Member, nil
		case types.Table:
			return c.Value, nil
		case types.Text:
			return types.TextOfLength(1, c.ASCII), nil
		}
		return nil, fail(s, "%s is not indexable", coll)
	case *ir.RangeIndexCall:
		coll, err := in.child(s, ir.Field("collection"))
		if err != nil {
			return nil, err
		}
		if t, ok := coll.(types.Text); ok {
			return types.Text{Length: types.AtLeast(0), ASCII: t.ASCII}, nil
		}
		if a, ok := coll.(types.Array); ok {
			return types.ListOf(a.Member), nil
		}
		return coll, nil
	case *ir.NamedArg:
		return in.child(s, ir.Field("value"))

	case *ir.Block, *ir.VarDeclaration, *ir.VarDeclarationWithAssignment, *ir.VarDeclarationBlock,
		*ir.Assignment, *ir.ManyToManyAssignment, *ir.OneToManyAssignment, *ir.MutatingInfix,
		*ir.If, *ir.While, *ir.ForRange, *ir.ForDifferenceRange, *ir.ForEach, *ir.ForEachKey,
		*ir.ForEachPair, *ir.ForCLike, *ir.Import:
		return types.Void{}, nil
	}
	return nil, fail(s, "target-specific node has no IR type")
}

// variable resolves the type of a named variable: a loop header binding it
// among the ancestors, else a declaration anywhere in the tree, else the union
// of every expression assigned to it. A loop variable written in the loop body
// and an undeclared variable updated in place have no inferable type.
func (in *inferer) variable(s *spine.Spine, name string) (types.Type, error) {
	if in.visiting[name] {
		return nil, fail(s, "type of %q depends on itself", name)
	}
	in.visiting[name] = true
	defer delete(in.visiting, name)

	for a := range s.Ancestors() {
		t, ok, err := in.loopBinding(a, name)
		if !ok {
			continue
		}
		if err == nil {
			if w := written(a.Child(ir.Field("body")), name, true); w != nil {
				return nil, fail(s, "loop variable %q is reassigned at %s", name, w.PathString())
			}
		}
		return t, err
	}

	root := s.RootSpine()
	for d := range root.WithDescendants() {
		if n, ok := d.Node().(*ir.VarDeclaration); ok && n.Variable.Name == name {
			return n.VariableType, nil
		}
	}
	if w := written(root, name, false); w != nil {
		return nil, fail(s, "variable %q is updated in place at %s", name, w.PathString())
	}

	var assigned []types.Type
	for d := range root.WithDescendants() {
		switch n := d.Node().(type) {
		case *ir.Assignment:
			if id, ok := n.Variable.(*ir.Identifier); ok && id.Name == name {
				t, err := in.child(d, ir.Field("expr"))
				if err != nil {
					return nil, err
				}
				assigned = append(assigned, t)
			}
		case *ir.ManyToManyAssignment:
			for i, v := range n.Variables {
				if isName(v, name) {
					t, err := in.child(d, ir.Indexed("exprs", i))
					if err != nil {
						return nil, err
					}
					assigned = append(assigned, t)
				}
			}
		case *ir.OneToManyAssignment:
			if slices.ContainsFunc(n.Variables, func(v ir.Node) bool { return isName(v, name) }) {
				t, err := in.child(d, ir.Field("expr"))
				if err != nil {
					return nil, err
				}
				assigned = append(assigned, t)
			}
		}
	}
	if len(assigned) == 0 {
		return nil, fail(s, "variable %q is never declared or assigned", name)
	}
	t, err := union(assigned)
	if err != nil {
		return nil, fail(s, "variable %q: %v", name, err)
	}
	return t, nil
}

func isName(n ir.Node, name string) bool {
	id, ok := n.(*ir.Identifier)
	return ok && id.Name == name
}

// written finds a write to name under s that the assignment union cannot
// account for: an in-place update, or with all set any write at all.
func written(s *spine.Spine, name string, all bool) *spine.Spine {
	if s == nil {
		return nil
	}
	for d := range s.WithDescendants() {
		switch n := d.Node().(type) {
		case *ir.MutatingInfix:
			if isName(n.Variable, name) {
				return d
			}
		case *ir.Assignment:
			if all && isName(n.Variable, name) {
				return d
			}
		case *ir.ManyToManyAssignment:
			if all && slices.ContainsFunc(n.Variables, func(v ir.Node) bool { return isName(v, name) }) {
				return d
			}
		case *ir.OneToManyAssignment:
			if all && slices.ContainsFunc(n.Variables, func(v ir.Node) bool { return isName(v, name) }) {
				return d
			}
		}
	}
	return nil
}

// loopBinding reports whether loop spine a binds name and, if so, its type.
func (in *inferer) loopBinding(a *spine.Spine, name string) (types.Type, bool, error) {
	binds := func(id *ir.Identifier) bool { return id != nil && id.Name == name }
	switch n := a.Node().(type) {
	case *ir.ForRange:
		if !binds(n.Variable) {
			return nil, false, nil
		}
		t, err := in.rangeType(a, "start", "end", n.Inclusive, false)
		return t, true, err
	case *ir.ForDifferenceRange:
		if !binds(n.Variable) {
			return nil, false, nil
		}
		t, err := in.rangeType(a, "start", "difference", false, true)
		return t, true, err
	case *ir.ForEach:
		if !binds(n.Variable) {
			return nil, false, nil
		}
		coll, err := in.child(a, ir.Field("collection"))
		if err != nil {
			return nil, true, err
		}
		switch c := coll.(type) {
		case types.List:
			return c.Member, true, nil
		case types.Array:
			return c.Member, true, nil
		case types.Text:
			return types.TextOfLength(1, c.ASCII), true, nil
		}
		return nil, true, fail(a, "cannot iterate %s", coll)
	case *ir.ForEachKey:
		if !binds(n.Variable) {
			return nil, false, nil
		}
		t, err := in.tableType(a)
		if err != nil {
			return nil, true, err
		}
		return t.Key, true, nil
	case *ir.ForEachPair:
		switch {
		case binds(n.KeyVariable):
			t, err := in.tableType(a)
			if err != nil {
				return nil, true, err
			}
			return t.Key, true, nil
		case binds(n.ValueVariable):
			t, err := in.tableType(a)
			if err != nil {
				return nil, true, err
			}
			return t.Value, true, nil
		}
	}
	return nil, false, nil
}

func (in *inferer) tableType(a *spine.Spine) (types.Table, error) {
	t, err := in.child(a, ir.Field("table"))
	if err != nil {
		return types.Table{}, err
	}
	table, ok := t.(types.Table)
	if !ok {
		return types.Table{}, fail(a, "%s is not a table", t)
	}
	return table, nil
}

// rangeType is the type of a range loop variable. For difference ranges the
// end is start+difference.
func (in *inferer) rangeType(a *spine.Spine, startField, endField string, inclusive, difference bool) (types.Type, error) {
	st, err := in.child(a, ir.Field(startField))
	if err != nil {
		return nil, err
	}
	et, err := in.child(a, ir.Field(endField))
	if err != nil {
		return nil, err
	}
	start, ok1 := st.(types.Integer)
	end, ok2 := et.(types.Integer)
	if !ok1 || !ok2 {
		return nil, fail(a, "range bounds must be integers")
	}
	if difference {
		end = types.Add(start, end)
	}
	if !inclusive {
		end = types.Pred(end)
	}
	low := start.Low
	high := types.MaxBound(end.High, start.Low)
	return types.IntegerType(low, high), nil
}
