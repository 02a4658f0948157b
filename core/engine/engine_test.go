package engine_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/golfc/core/emit"
	"github.com/opal-lang/golfc/core/engine"
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/spine"
)

// toyEmit renders a tiny C-like language.
func toyEmit(n ir.Node) ([]string, error) {
	switch n := n.(type) {
	case *ir.Integer:
		return []string{n.Value.String()}, nil
	case *ir.Identifier:
		return []string{n.Name}, nil
	case *ir.Infix:
		l, err := toyEmit(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := toyEmit(n.Right)
		if err != nil {
			return nil, err
		}
		return append(append(l, n.Name), r...), nil
	case *ir.Prefix:
		a, err := toyEmit(n.Arg)
		if err != nil {
			return nil, err
		}
		return append([]string{n.Name}, a...), nil
	case *ir.FunctionCall:
		out := []string{n.Name, "("}
		for i, a := range n.Args {
			if i > 0 {
				out = append(out, ",")
			}
			toks, err := toyEmit(a)
			if err != nil {
				return nil, err
			}
			out = append(out, toks...)
		}
		return append(out, ")"), nil
	case *ir.Block:
		var out []string
		for i, c := range n.Children {
			if i > 0 {
				out = append(out, "\n")
			}
			toks, err := toyEmit(c)
			if err != nil {
				return nil, err
			}
			out = append(out, toks...)
		}
		return out, nil
	}
	return nil, &emit.UnsupportedNodeError{Kind: n.Kind(), Op: emit.OpName(n)}
}

func opTo(code ir.OpCode, build func(args []ir.Node) ir.Node) plugin.Plugin {
	return plugin.New("map "+code.String(), func(s *spine.Spine) ir.Node {
		if op, ok := s.Node().(*ir.Op); ok && op.Op == code {
			return build(op.Args)
		}
		return nil
	})
}

func infix(name string) func([]ir.Node) ir.Node {
	return func(a []ir.Node) ir.Node { return ir.NewInfix(name, a[0], a[1]) }
}

var mapping = plugin.NewRequired(
	opTo(ir.OpAdd, infix("+")),
	opTo(ir.OpMul, infix("*")),
	opTo(ir.OpPow, infix("^")),
	opTo(ir.OpNeg, func(a []ir.Node) ir.Node { return ir.NewPrefix("-", a[0]) }),
	opTo(ir.OpPrintlnInt, func(a []ir.Node) ir.Node { return ir.NewFunctionCall("p", a...) }),
)

// decompose offers 10^k as a product of two powers of ten and as a power.
var decompose = plugin.NewMulti("decompose", func(s *spine.Spine) []ir.Node {
	lit, ok := s.Node().(*ir.Integer)
	if !ok {
		return nil
	}
	digits := lit.Value.String()
	k := len(digits) - 1
	if k < 4 || lit.Value.Cmp(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(k)), nil)) != 0 {
		return nil
	}
	pow10 := func(e int) ir.Node { return ir.NewBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(e)), nil)) }
	return []ir.Node{
		ir.NewOp(ir.OpMul, pow10(k/2), pow10(k-k/2)),
		ir.NewOp(ir.OpPow, ir.NewInt(10), ir.NewInt(int64(k))),
	}
})

// addZero only makes programs longer.
var addZero = plugin.New("addZero", func(s *spine.Spine) ir.Node {
	if _, ok := s.Node().(*ir.Integer); ok && s.Depth() < 3 {
		return ir.NewOp(ir.OpAdd, s.Node(), ir.NewInt(0))
	}
	return nil
})

func toyLanguage(name string, phases ...plugin.Phase) engine.Language {
	return engine.Language{
		Name:        name,
		Extension:   "toy",
		Phases:      phases,
		Emitter:     emit.EmitterFunc(toyEmit),
		Detokenizer: emit.DefaultDetokenizer(emit.AlphanumericAdjacency),
	}
}

func printMillion() ir.Node {
	return ir.NewOp(ir.OpPrintlnInt, ir.NewInt(1000000))
}

func TestRequiredPhaseReachesFixpoint(t *testing.T) {
	lang := toyLanguage("toy", mapping)
	prog := ir.NewBlock(
		ir.NewOp(ir.OpPrintlnInt, ir.NewOp(ir.OpAdd, ir.NewIdent("x"), ir.NewOp(ir.OpNeg, ir.NewInt(2)))),
		ir.NewOp(ir.OpPrintlnInt, ir.NewInt(7)),
	)
	res, err := engine.Compile(prog, lang, engine.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "p(x+-2)\np(7)", res.Output)

	again, err := engine.Compile(res.Program, lang, engine.DefaultConfig())
	require.NoError(t, err)
	assert.True(t, ir.Equal(res.Program, again.Program), "second run of a required phase is a no-op")
}

func TestRequiredPhaseDivergence(t *testing.T) {
	swap := plugin.New("swap", func(s *spine.Spine) ir.Node {
		if in, ok := s.Node().(*ir.Infix); ok {
			return ir.NewInfix(in.Name, in.Right, in.Left)
		}
		return nil
	})
	cfg := engine.DefaultConfig()
	cfg.MaxSweeps = 5

	_, err := engine.Compile(ir.NewInfix("+", ir.NewInt(1), ir.NewInt(2)), toyLanguage("toy", plugin.NewRequired(swap)), cfg)
	var ce *engine.CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 0, ce.Phase)
	assert.Contains(t, ce.Error(), "no fixpoint after 5 sweeps")
}

func TestUnmappedOpIsUnsupportedConstruct(t *testing.T) {
	prog := ir.NewOp(ir.OpPrintlnInt, ir.NewOp(ir.OpGcd, ir.NewInt(4), ir.NewInt(6)))
	_, err := engine.Compile(prog, toyLanguage("toy", mapping), engine.DefaultConfig())

	var uc *engine.UnsupportedConstructError
	require.True(t, errors.As(err, &uc))
	assert.Equal(t, "gcd", uc.Op)
	assert.Equal(t, "args[0]", uc.Path)
	assert.Equal(t, ir.KindOp, uc.Kind)
}

func TestCheckRejectionIsUnsupportedConstruct(t *testing.T) {
	unlucky := plugin.NewCheck("unlucky", func(s *spine.Spine) *plugin.Rejection {
		if ir.IsIntLiteral(s.Node(), 13) {
			return &plugin.Rejection{Reason: "13 is not representable"}
		}
		return nil
	})
	lang := toyLanguage("toy", plugin.NewRequired(append([]plugin.Plugin{unlucky}, mapping.Plugins...)...))

	prog := ir.NewBlock(printMillion(), ir.NewOp(ir.OpPrintlnInt, ir.NewInt(13)))
	_, err := engine.Compile(prog, lang, engine.DefaultConfig())
	var uc *engine.UnsupportedConstructError
	require.True(t, errors.As(err, &uc))
	assert.Equal(t, ir.KindInteger, uc.Kind)
	assert.Equal(t, "children[1].args[0]", uc.Path)
	assert.Equal(t, `toy: unsupported construct Integer at children[1].args[0]: 13 is not representable`, err.Error())

	res, err := engine.Compile(printMillion(), lang, engine.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "p(1000000)", res.Output)
}

func TestEmitterFailureSurfacesAsUnsupportedNode(t *testing.T) {
	prog := ir.NewWhile(ir.NewIdent("x"), ir.NewBlock())
	_, err := engine.Compile(prog, toyLanguage("toy"), engine.DefaultConfig())

	var un *emit.UnsupportedNodeError
	require.True(t, errors.As(err, &un))
	assert.Equal(t, ir.KindWhile, un.Kind)
}

func TestSimpleGolfKeepsCheapestAlternative(t *testing.T) {
	asProduct := plugin.New("product", func(s *spine.Spine) ir.Node {
		if ir.IsIntLiteral(s.Node(), 1000000) {
			return ir.NewInfix("*", ir.NewInt(1000), ir.NewInt(1000))
		}
		return nil
	})
	asPower := plugin.New("power", func(s *spine.Spine) ir.Node {
		if ir.IsIntLiteral(s.Node(), 1000000) {
			return ir.NewInfix("^", ir.NewInt(10), ir.NewInt(6))
		}
		return nil
	})
	lengthen := plugin.New("lengthen", func(s *spine.Spine) ir.Node {
		if ir.IsIntLiteral(s.Node(), 7) {
			return ir.NewInfix("+", ir.NewInt(3), ir.NewInt(4))
		}
		return nil
	})
	lang := toyLanguage("toy", mapping, plugin.NewSimpleGolf(asProduct, asPower, lengthen))
	prog := ir.NewBlock(printMillion(), ir.NewOp(ir.OpPrintlnInt, ir.NewInt(7)))

	res, err := engine.Compile(prog, lang, engine.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "p(10^6)\np(7)", res.Output)
}

func TestSearchChoosesShortestDecomposition(t *testing.T) {
	lang := toyLanguage("toy", plugin.NewSearch(decompose), mapping)
	res, err := engine.Compile(printMillion(), lang, engine.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "p(10^6)", res.Output)
}

func TestSearchKeepsUnchangedLiteralWhenShorter(t *testing.T) {
	productOnly := plugin.NewMulti("product", func(s *spine.Spine) []ir.Node {
		if alts := decompose.Rewrite(s); len(alts) > 0 {
			return alts[:1]
		}
		return nil
	})
	lang := toyLanguage("toy", plugin.NewSearch(productOnly), mapping)
	res, err := engine.Compile(printMillion(), lang, engine.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "p(1000000)", res.Output)
}

func TestSearchNeverWorseThanInput(t *testing.T) {
	prog := ir.NewBlock(ir.NewOp(ir.OpPrintlnInt, ir.NewInt(5)), ir.NewOp(ir.OpPrintlnInt, ir.NewInt(6)))
	plain, err := engine.Compile(prog, toyLanguage("toy", mapping), engine.DefaultConfig())
	require.NoError(t, err)

	searched, err := engine.Compile(prog, toyLanguage("toy", plugin.NewSearch(addZero), mapping), engine.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, plain.Output, searched.Output)
}

func TestSearchIsDeterministicAcrossWorkers(t *testing.T) {
	prog := ir.NewBlock(printMillion(), ir.NewOp(ir.OpPrintlnInt, ir.NewInt(100000000)), ir.NewOp(ir.OpPrintlnInt, ir.NewInt(3)))
	lang := toyLanguage("toy", plugin.NewSearch(decompose, addZero), mapping)

	cfg := engine.DefaultConfig()
	cfg.Search.Workers = 1
	sequential, err := engine.Compile(prog, lang, cfg)
	require.NoError(t, err)

	cfg.Search.Workers = 8
	parallel, err := engine.Compile(prog, lang, cfg)
	require.NoError(t, err)

	assert.Equal(t, sequential.Output, parallel.Output)
	assert.True(t, ir.Equal(sequential.Program, parallel.Program))
	assert.Equal(t, "p(10^6)\np(10^8)\np(3)", sequential.Output)
}

func TestSearchBudgetExhaustionIsNotAnError(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Telemetry = engine.TelemetryBasic
	cfg.Search.MaxEvaluations = 2

	lang := toyLanguage("toy", plugin.NewSearch(decompose, addZero), mapping)
	res, err := engine.Compile(printMillion(), lang, cfg)
	require.NoError(t, err)
	require.NotNil(t, res.Telemetry)

	search := res.Telemetry.Phases[0]
	assert.Equal(t, plugin.Search, search.Discipline)
	assert.True(t, search.BudgetExceeded)
	assert.LessOrEqual(t, search.Evaluations, 2)
}

func TestEmitOnlyScoring(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Scoring = engine.ScoreEmitOnly
	lang := toyLanguage("toy", mapping, plugin.NewSearch(plugin.New("power", func(s *spine.Spine) ir.Node {
		if ir.IsIntLiteral(s.Node(), 1000000) {
			return ir.NewInfix("^", ir.NewInt(10), ir.NewInt(6))
		}
		return nil
	})))
	res, err := engine.Compile(printMillion(), lang, cfg)
	require.NoError(t, err)
	assert.Equal(t, "p(10^6)", res.Output)
}

func TestEmitOnlyRanksRenderableAheadOfAbstract(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Scoring = engine.ScoreEmitOnly
	show := plugin.New("show", func(s *spine.Spine) ir.Node {
		if op, ok := s.Node().(*ir.Op); ok && op.Op == ir.OpPrintlnInt {
			return ir.NewFunctionCall("show", op.Args...)
		}
		return nil
	})
	// The abstract input is structurally smaller than the 13 characters of
	// show(1000000), but only the call can be measured in characters.
	lang := toyLanguage("toy", plugin.NewSearch(show), mapping)
	res, err := engine.Compile(printMillion(), lang, cfg)
	require.NoError(t, err)
	assert.Equal(t, "show(1000000)", res.Output)
}

func TestCompileAllIsolatesFailures(t *testing.T) {
	good := toyLanguage("good", mapping)
	bad := toyLanguage("bad")
	outcomes := engine.CompileAll(printMillion(), []engine.Language{bad, good}, engine.DefaultConfig())
	require.Len(t, outcomes, 2)

	assert.Equal(t, "bad", outcomes[0].Language)
	var uc *engine.UnsupportedConstructError
	assert.True(t, errors.As(outcomes[0].Err, &uc))

	require.NoError(t, outcomes[1].Err)
	assert.Equal(t, "p(1000000)", outcomes[1].Result.Output)
}

func TestTelemetryAndDebugEvents(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Telemetry = engine.TelemetryTiming
	cfg.Debug = engine.DebugRewrites

	res, err := engine.Compile(printMillion(), toyLanguage("toy", mapping), cfg)
	require.NoError(t, err)
	require.Len(t, res.Telemetry.Phases, 1)
	phase := res.Telemetry.Phases[0]
	assert.Equal(t, 1, phase.Rewrites)
	assert.Equal(t, 1, phase.PluginHits["map println[Int]"])
	assert.Equal(t, 2, phase.Sweeps)

	var names []string
	for _, e := range res.DebugEvents {
		names = append(names, e.Event)
	}
	assert.Equal(t, []string{"enter", "map println[Int]", "exit"}, names)
}
