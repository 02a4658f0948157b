package javascript

import (
	"fmt"
	"sync"

	"github.com/opal-lang/golfc/core/infer"
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/spine"
	"github.com/opal-lang/golfc/core/types"
)

// Numbers are doubles, so integers that may leave the safe range are
// computed as BigInts. Every literal, variable and arithmetic op joined to
// such a value by arithmetic, assignment or a range loop header is tagged
// bigint. Numbers flowing into that group are converted with BigInt(x), and
// BigInts flowing out to something that needs a Number with Number(x).
// Whatever cannot be converted exactly is rejected.

const bigintTarget = "bigint"

// bigintArith combine operands and result in one representation.
var bigintArith = map[ir.OpCode]bool{
	ir.OpAdd: true, ir.OpSub: true, ir.OpMul: true, ir.OpDiv: true, ir.OpTruncDiv: true,
	ir.OpMod: true, ir.OpRem: true, ir.OpPow: true, ir.OpNeg: true, ir.OpBitNot: true,
	ir.OpBitAnd: true, ir.OpBitOr: true, ir.OpBitXor: true,
	ir.OpBitShiftLeft: true, ir.OpBitShiftRight: true,
}

// bigintAccepted take a BigInt operand as readily as a Number.
var bigintAccepted = map[ir.OpCode]bool{
	ir.OpLt: true, ir.OpLeq: true, ir.OpGt: true, ir.OpGeq: true, ir.OpEqInt: true, ir.OpNeqInt: true,
	ir.OpIntToDec: true, ir.OpIntToBin: true, ir.OpIntToHex: true, ir.OpIntToHexUpper: true,
	ir.OpIntToBool: true,
}

// useBigints runs once per tree at the root. Plans are cached by digest so
// the check and the rewrite of one sweep share the analysis.
type useBigints struct {
	mu    sync.Mutex
	plans map[ir.Digest]*bigintPlan
}

const bigintPlanCache = 64

func newUseBigints() *useBigints { return &useBigints{plans: make(map[ir.Digest]*bigintPlan)} }

func (*useBigints) Name() string { return "useBigints" }

func (u *useBigints) Check(s *spine.Spine) *plugin.Rejection {
	if !s.IsRoot() {
		return nil
	}
	return u.plan(s).rejection
}

func (u *useBigints) Rewrite(s *spine.Spine) []ir.Node {
	if !s.IsRoot() {
		return nil
	}
	p := u.plan(s)
	if p.rejection != nil || len(p.actions) == 0 {
		return nil
	}
	return []ir.Node{p.rebuild(s)}
}

func (u *useBigints) plan(s *spine.Spine) *bigintPlan {
	h := ir.Hash(s.Node())
	u.mu.Lock()
	p, ok := u.plans[h]
	u.mu.Unlock()
	if ok {
		return p
	}
	p = analyzeBigints(s)
	u.mu.Lock()
	if len(u.plans) >= bigintPlanCache {
		clear(u.plans)
	}
	u.plans[h] = p
	u.mu.Unlock()
	return p
}

type bigintAction struct {
	tag      bool // set the bigint target type
	divide   bool // floor or truncating division becomes the BigInt /
	toBigint bool // wrap in BigInt(...)
	toNumber bool // wrap in Number(...)
	typ      types.Integer
}

type bigintPlan struct {
	actions   map[string]*bigintAction // by path
	rejection *plugin.Rejection
}

// bigintGroups is a union-find over node paths and "$name" variable keys.
type bigintGroups map[string]string

func (g bigintGroups) find(k string) string {
	for {
		p, ok := g[k]
		if !ok || p == k {
			return k
		}
		g[k] = g[p]
		k = p
	}
}

func (g bigintGroups) union(a, b string) { g[g.find(a)] = g.find(b) }

func analyzeBigints(root *spine.Spine) *bigintPlan {
	covered := coveredVariables(root)
	groups := bigintGroups{}
	big := map[string]bool{}
	// nodes that may join a group, in the order they are first seen so the
	// reported rejection does not depend on map order
	members := map[string]*spine.Spine{}
	var order []string
	member := func(d *spine.Spine) {
		k := d.PathString()
		if _, ok := members[k]; !ok {
			members[k] = d
			order = append(order, k)
		}
	}
	seed := func(k string) { big[k] = true }

	join := func(a, b *spine.Spine) {
		member(a)
		member(b)
		groups.union(a.PathString(), b.PathString())
	}
	field := func(d *spine.Spine, name string) *spine.Spine { return d.Child(ir.Field(name)) }
	index := func(d *spine.Spine, name string, i int) *spine.Spine { return d.Child(ir.Indexed(name, i)) }

	for d := range root.WithDescendants() {
		k := d.PathString()
		n := d.Node()
		if n.NodeInfo().TargetType == bigintTarget {
			member(d)
			seed(k)
		}
		switch n := n.(type) {
		case *ir.Integer:
			member(d)
			if types.Exceeds(types.IntConst(n.Value), types.Int53()) {
				seed(k)
			}
		case *ir.Identifier:
			if n.Builtin {
				continue
			}
			member(d)
			if covered[n.Name] {
				groups.union(k, "$"+n.Name)
			}
		case *ir.VarDeclaration:
			if t, ok := n.VariableType.(types.Integer); ok && types.Exceeds(t, types.Int53()) {
				seed(field(d, "variable").PathString())
			}
		case *ir.Op:
			if !bigintArith[n.Op] {
				continue
			}
			for i := range n.Args {
				join(d, index(d, "args", i))
			}
			if t, ok := infer.IntegerType(d); ok && types.Exceeds(t, types.Int53()) {
				member(d)
				seed(k)
			}
		case *ir.Assignment:
			join(field(d, "variable"), field(d, "expr"))
		case *ir.ManyToManyAssignment:
			for i := range n.Variables {
				join(index(d, "variables", i), index(d, "exprs", i))
			}
		case *ir.OneToManyAssignment:
			for i := range n.Variables {
				join(index(d, "variables", i), field(d, "expr"))
			}
		case *ir.MutatingInfix:
			join(field(d, "variable"), field(d, "right"))
		case *ir.ForRange, *ir.ForDifferenceRange:
			var header []*spine.Spine
			for _, c := range d.Children() {
				if c.PathFragment().Field != "body" {
					header = append(header, c)
				}
			}
			for i := 1; i < len(header); i++ {
				join(header[0], header[i])
			}
		}
	}

	bigGroup := map[string]bool{}
	for k := range big {
		bigGroup[groups.find(k)] = true
	}

	p := &bigintPlan{actions: map[string]*bigintAction{}}
	reject := func(d *spine.Spine, format string, args ...any) {
		if p.rejection != nil {
			return
		}
		op := ""
		if o, ok := d.Node().(*ir.Op); ok {
			op = o.Op.String()
		}
		p.rejection = &plugin.Rejection{At: d.Path(), Op: op, Reason: fmt.Sprintf(format, args...)}
	}
	action := func(k string) *bigintAction {
		a, ok := p.actions[k]
		if !ok {
			a = &bigintAction{}
			p.actions[k] = a
		}
		return a
	}
	// safe is the type of a node that is converted between representations.
	safe := func(d *spine.Spine) (types.Integer, bool) {
		t, ok := infer.IntegerType(d)
		return t, ok && types.IsSubtype(t, types.Int53())
	}

	for _, k := range order {
		d := members[k]
		if !bigGroup[groups.find(k)] {
			continue
		}
		n := d.Node()
		tagged := n.NodeInfo().TargetType == bigintTarget

		switch n := n.(type) {
		case *ir.Integer:
			if !tagged {
				action(k).tag = true
			}
		case *ir.Identifier:
			switch {
			case covered[n.Name]:
				if !tagged {
					action(k).tag = true
				}
			case binding(d):
				reject(d, "%s is bound to values outside the safe integer range", n.Name)
			default:
				t, ok := safe(d)
				if !ok {
					reject(d, "%s may exceed the safe integer range", n.Name)
					continue
				}
				a := action(k)
				a.toBigint, a.typ = true, t
			}
		default:
			if tagged {
				break
			}
			if op, ok := n.(*ir.Op); ok && bigintArith[op.Op] {
				a := action(k)
				a.tag = true
				if op.Op == ir.OpDiv || op.Op == ir.OpTruncDiv {
					if op.Op == ir.OpDiv && !nonNegativeDivision(d) {
						reject(d, "floor division of BigInts with possibly negative operands")
						continue
					}
					t, _ := infer.IntegerType(d)
					a.divide, a.typ = true, t
				}
				break
			}
			t, ok := safe(d)
			if !ok {
				reject(d, "%s may exceed the safe integer range", n.Kind())
				continue
			}
			a := action(k)
			a.toBigint, a.typ = true, t
		}

		if acceptsBigint(d) {
			continue
		}
		t, ok := safe(d)
		if !ok {
			reject(d, "a value outside the safe integer range is used where a Number is required")
			continue
		}
		a := action(k)
		a.toNumber, a.typ = true, t
	}
	if p.rejection != nil {
		p.actions = nil
	}
	return p
}

// coveredVariables are the variables every value of which is produced in the
// program by an assignment or a range loop header. Their occurrences share
// one representation.
func coveredVariables(root *spine.Spine) map[string]bool {
	written := map[string]bool{}
	foreign := map[string]bool{}
	mark := func(m map[string]bool, ns ...ir.Node) {
		for _, n := range ns {
			if id, ok := n.(*ir.Identifier); ok && id != nil && !id.Builtin {
				m[id.Name] = true
			}
		}
	}
	for d := range root.WithDescendants() {
		switch n := d.Node().(type) {
		case *ir.Assignment:
			mark(written, n.Variable)
		case *ir.ManyToManyAssignment:
			mark(written, n.Variables...)
		case *ir.OneToManyAssignment:
			mark(written, n.Variables...)
		case *ir.MutatingInfix:
			mark(written, n.Variable)
		case *ir.ForRange:
			mark(written, n.Variable)
		case *ir.ForDifferenceRange:
			mark(written, n.Variable)
		case *ir.ForEach:
			mark(foreign, n.Variable)
		case *ir.ForEachKey:
			mark(foreign, n.Variable)
		case *ir.ForEachPair:
			mark(foreign, n.KeyVariable, n.ValueVariable)
		}
	}
	for name := range foreign {
		delete(written, name)
	}
	return written
}

// binding reports whether the identifier at d is written rather than read.
func binding(d *spine.Spine) bool {
	kind, ok := d.ParentKind()
	if !ok {
		return false
	}
	f := d.PathFragment().Field
	switch kind {
	case ir.KindAssignment, ir.KindMutatingInfix, ir.KindForRange, ir.KindForDifferenceRange,
		ir.KindForEach, ir.KindForEachKey, ir.KindVarDeclaration:
		return f == "variable"
	case ir.KindManyToManyAssignment, ir.KindOneToManyAssignment:
		return f == "variables"
	case ir.KindForEachPair:
		return f == "keyVariable" || f == "valueVariable"
	}
	return false
}

// acceptsBigint reports whether the parent of d can take a BigInt there.
func acceptsBigint(d *spine.Spine) bool {
	if d.IsRoot() {
		return true
	}
	switch p := d.Parent().Node().(type) {
	case *ir.Op:
		return bigintArith[p.Op] || bigintAccepted[p.Op]
	case *ir.FunctionCall:
		return p.Name == "BigInt" || p.Name == "Number"
	case *ir.Infix:
		return p.TargetType == bigintTarget
	case *ir.Assignment, *ir.ManyToManyAssignment, *ir.OneToManyAssignment, *ir.MutatingInfix,
		*ir.ForRange, *ir.ForDifferenceRange, *ir.VarDeclaration, *ir.Block, *ir.If, *ir.While:
		return true
	}
	return false
}

// nonNegativeDivision reports whether floor and truncating division agree
// for the div op at d.
func nonNegativeDivision(d *spine.Spine) bool {
	a, ok1 := infer.IntegerType(d.Child(ir.Indexed("args", 0)))
	b, ok2 := infer.IntegerType(d.Child(ir.Indexed("args", 1)))
	return ok1 && ok2 && a.Low.Sign() >= 0 && b.Low.Sign() > 0
}

func (p *bigintPlan) rebuild(s *spine.Spine) ir.Node {
	n := s.Node()
	for _, c := range s.Children() {
		if nc := p.rebuild(c); nc != c.Node() {
			n = ir.WithChild(n, c.PathFragment(), nc)
		}
	}
	a, ok := p.actions[s.PathString()]
	if !ok {
		return n
	}
	if a.divide {
		op := n.(*ir.Op)
		n = ir.WithType(ir.NewInfix("/", op.Args[0], op.Args[1]), a.typ)
	}
	if a.tag {
		n = ir.WithTargetType(n, bigintTarget)
	}
	if a.toBigint {
		n = ir.WithInfo(ir.NewFunctionCall("BigInt", n), ir.Info{Type: a.typ, TargetType: bigintTarget})
	}
	if a.toNumber {
		n = ir.WithType(ir.NewFunctionCall("Number", n), a.typ)
	}
	return n
}
