package nim

import (
	"slices"

	"github.com/opal-lang/golfc/core/infer"
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/spine"
)

// moduleOf names the module that defines each library call the mappings
// produce. Calls missing here are in system.
var moduleOf = map[string]string{
	"parseInt":          "strutils",
	"replace":           "strutils",
	"multiReplace":      "strutils",
	"split":             "strutils",
	"join":              "strutils",
	"repeat":            "strutils",
	"startsWith":        "strutils",
	"endsWith":          "strutils",
	"contains":          "strutils",
	"find":              "strutils",
	"align":             "strutils",
	"gcd":               "math",
	"floorDiv":          "math",
	"floorMod":          "math",
	"^":                 "math",
	"sorted":            "algorithm",
	"reversed":          "algorithm",
	"popcount":          "bitops",
	"hasKey":            "tables",
	"toTable":           "tables",
	"paramStr":          "os",
	"commandLineParams": "os",
}

func calledName(n ir.Node) string {
	switch n := n.(type) {
	case *ir.FunctionCall:
		return n.Name
	case *ir.MethodCall:
		return n.Name
	case *ir.PropertyCall:
		return n.Name
	case *ir.Infix:
		return n.Name
	}
	return ""
}

// AddImports puts a single import of every module the program calls into
// at the top of the root block.
var AddImports = plugin.New("addImports", func(s *spine.Spine) ir.Node {
	if !s.IsRoot() {
		return nil
	}
	b, ok := s.Node().(*ir.Block)
	if !ok {
		return nil
	}
	var modules []string
	for d := range s.WithDescendants() {
		if m, ok := moduleOf[calledName(d.Node())]; ok && !slices.Contains(modules, m) {
			modules = append(modules, m)
		}
	}
	slices.Sort(modules)

	children := slices.DeleteFunc(slices.Clone(b.Children), func(c ir.Node) bool {
		return c.Kind() == ir.KindImport
	})
	if len(modules) > 0 {
		children = slices.Insert(children, 0, ir.Node(ir.NewImport("import", modules...)))
	}
	out := ir.NewBlock(children...)
	if ir.Equal(out, b) {
		return nil
	}
	return out
})

// tableToConstructor builds Table values from {k:v} literals, which are
// otherwise arrays of pairs.
var tableToConstructor = plugin.New("tableToConstructor", func(s *spine.Spine) ir.Node {
	if s.Node().Kind() != ir.KindTable {
		return nil
	}
	if p := s.Parent(); p != nil {
		if m, ok := p.Node().(*ir.MethodCall); ok && (m.Name == "toTable" || m.Name == "multiReplace") {
			return nil
		}
	}
	return ir.NewMethodCall(s.Node(), "toTable")
})

// addVarDeclarations declares every assigned variable. A top-level
// assignment that is the first mention of its variable becomes `var x=e`;
// the remaining variables are declared with their inferred type after the
// imports. Types are only known before ops are mapped, so it has to run
// ahead of the mapping rules.
var addVarDeclarations = plugin.New("addVarDeclarations", func(s *spine.Spine) ir.Node {
	if !s.IsRoot() {
		return nil
	}
	b, ok := s.Node().(*ir.Block)
	if !ok {
		return nil
	}
	declared := declaredNames(b)
	mentioned := map[string]bool{}
	children := slices.Clone(b.Children)
	changed := false
	for i, c := range children {
		if vars, exprs, ok := assignment(c); ok && fresh(vars, exprs, declared, mentioned) {
			children[i] = ir.NewVarDeclarationWithAssignment(c)
			for _, v := range vars {
				declared[v] = true
			}
			changed = true
		}
		for name := range identNames(c) {
			mentioned[name] = true
		}
	}

	tree := ir.NewBlock(children...)
	var hoisted []ir.Node
	for d := range spine.New(tree).WithDescendants() {
		vars, _, ok := assignment(d.Node())
		if !ok {
			continue
		}
		for i, v := range vars {
			if declared[v] {
				continue
			}
			t, err := infer.TypeOfChild(d, targetField(d.Node(), i))
			if err != nil {
				continue
			}
			hoisted = append(hoisted, ir.NewVarDeclaration(ir.NewIdent(v), t))
			declared[v] = true
		}
	}
	if !changed && len(hoisted) == 0 {
		return nil
	}
	at := 0
	for at < len(children) && children[at].Kind() == ir.KindImport {
		at++
	}
	return ir.NewBlock(slices.Insert(children, at, hoisted...)...)
})

// assignment returns the variable names and values of a plain or parallel
// assignment to identifiers.
func assignment(n ir.Node) ([]string, []ir.Node, bool) {
	var targets, exprs []ir.Node
	switch a := n.(type) {
	case *ir.Assignment:
		targets, exprs = []ir.Node{a.Variable}, []ir.Node{a.Expr}
	case *ir.ManyToManyAssignment:
		targets, exprs = a.Variables, a.Exprs
	default:
		return nil, nil, false
	}
	names := make([]string, len(targets))
	for i, t := range targets {
		id, ok := t.(*ir.Identifier)
		if !ok || id.Builtin {
			return nil, nil, false
		}
		names[i] = id.Name
	}
	return names, exprs, true
}

func targetField(n ir.Node, i int) ir.PathFragment {
	if n.Kind() == ir.KindManyToManyAssignment {
		return ir.Indexed("variables", i)
	}
	return ir.Field("variable")
}

// fresh reports whether an assignment can declare all its variables: none
// is declared or mentioned earlier, and no value reads one.
func fresh(vars []string, exprs []ir.Node, declared, mentioned map[string]bool) bool {
	for _, v := range vars {
		if declared[v] || mentioned[v] {
			return false
		}
		for _, e := range exprs {
			if identNames(e)[v] {
				return false
			}
		}
	}
	return true
}

func identNames(n ir.Node) map[string]bool {
	names := map[string]bool{}
	for d := range spine.New(n).WithDescendants() {
		if id, ok := d.Node().(*ir.Identifier); ok && !id.Builtin {
			names[id.Name] = true
		}
	}
	return names
}

// declaredNames collects variables that already have a declaration or are
// bound by a loop.
func declaredNames(root ir.Node) map[string]bool {
	names := map[string]bool{}
	add := func(id *ir.Identifier) {
		if id != nil {
			names[id.Name] = true
		}
	}
	for d := range spine.New(root).WithDescendants() {
		switch n := d.Node().(type) {
		case *ir.VarDeclaration:
			add(n.Variable)
		case *ir.VarDeclarationWithAssignment:
			vars, _, _ := assignment(n.Assignment)
			for _, v := range vars {
				names[v] = true
			}
		case *ir.ForRange:
			add(n.Variable)
		case *ir.ForDifferenceRange:
			add(n.Variable)
		case *ir.ForEach:
			add(n.Variable)
		case *ir.ForEachKey:
			add(n.Variable)
		case *ir.ForEachPair:
			add(n.KeyVariable)
			add(n.ValueVariable)
		}
	}
	return names
}
