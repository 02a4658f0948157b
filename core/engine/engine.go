// Package engine drives a program through a language's phases and renders
// the result.
//
// Three disciplines are supported:
//
//	required    sweep every node, apply the first matching plugin, repeat
//	            until a sweep changes nothing
//	simplegolf  one bottom-up pass keeping the cheapest local rewrite
//	search      bounded beam search over competing rewrites, scored by the
//	            size of the rendered output
//
// All rewriting is pure computation over immutable trees. Only candidate
// scoring may run concurrently, and its results are merged in a fixed order
// so output never depends on scheduling.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/opal-lang/golfc/core/emit"
	"github.com/opal-lang/golfc/core/invariant"
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/spine"
)

// Compile runs program through every phase of lang and renders it.
func Compile(program ir.Node, lang Language, cfg Config) (*Result, error) {
	invariant.NotNil(program, "program")
	invariant.NotNil(lang.Emitter, "language emitter")
	invariant.NotNil(lang.Detokenizer, "language detokenizer")
	if cfg.MaxSweeps <= 0 {
		cfg.MaxSweeps = DefaultConfig().MaxSweeps
	}

	start := time.Now()
	c := newCompiler(lang, cfg)
	c.log.Debug("compile start", "language", lang.Name, "phases", len(lang.Phases))

	tree, err := c.pipeline(program, 0, false)
	if err != nil {
		return nil, err
	}
	out, err := c.render(tree)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Language:    lang.Name,
		Output:      out,
		Program:     tree,
		CompileTime: time.Since(start),
		Telemetry:   c.telemetry,
		DebugEvents: c.events,
	}
	c.log.Debug("compile done", "language", lang.Name, "chars", len([]rune(out)), "time", res.CompileTime)
	return res, nil
}

// Outcome is the per-language result of CompileAll.
type Outcome struct {
	Language string
	Result   *Result
	Err      error
}

// CompileAll compiles program for every language. A failure for one
// language is recorded in its Outcome and never affects the others.
func CompileAll(program ir.Node, langs []Language, cfg Config) []Outcome {
	out := make([]Outcome, len(langs))
	for i, lang := range langs {
		res, err := Compile(program, lang, cfg)
		out[i] = Outcome{Language: lang.Name, Result: res, Err: err}
		if err != nil {
			cfg.logger().Warn("compile failed", "language", lang.Name, "error", err)
		}
	}
	return out
}

type compiler struct {
	lang      Language
	cfg       Config
	log       *slog.Logger
	telemetry *Telemetry
	events    []DebugEvent
	scores    *scoreCache
}

func newCompiler(lang Language, cfg Config) *compiler {
	c := &compiler{lang: lang, cfg: cfg, log: cfg.logger(), scores: newScoreCache()}
	if cfg.Telemetry > TelemetryOff {
		c.telemetry = &Telemetry{}
	}
	return c
}

func (c *compiler) debug(level DebugLevel, phase int, event, context string) {
	if c.cfg.Debug < level {
		return
	}
	c.events = append(c.events, DebugEvent{Timestamp: time.Now(), Event: event, Phase: phase, Context: context})
}

// pipeline runs phases from index `from` on. Quiet runs are the ones made
// while scoring search candidates: they record nothing and apply later
// search phases greedily.
func (c *compiler) pipeline(tree ir.Node, from int, quiet bool) (ir.Node, error) {
	for i := from; i < len(c.lang.Phases); i++ {
		r := &phaseRun{c: c, idx: i, phase: c.lang.Phases[i], quiet: quiet}
		start := time.Now()
		r.begin()

		var err error
		switch r.phase.Discipline {
		case plugin.Required:
			tree, err = r.required(tree)
		case plugin.SimpleGolf:
			tree = r.simpleGolf(tree)
		case plugin.Search:
			if quiet {
				tree = r.simpleGolf(tree)
			} else {
				tree = r.search(tree)
			}
		default:
			invariant.Invariant(false, "unknown discipline %d", int(r.phase.Discipline))
		}
		if err != nil {
			return nil, err
		}
		r.end(start)
	}
	return tree, nil
}

// phaseRun is one execution of one phase.
type phaseRun struct {
	c        *compiler
	idx      int
	phase    plugin.Phase
	quiet    bool
	metrics  *PhaseMetrics // nil when quiet or telemetry is off
	rejected *UnsupportedConstructError
}

func (r *phaseRun) begin() {
	if r.quiet {
		return
	}
	r.c.debug(DebugPhases, r.idx, "enter", r.phase.Discipline.String())
	if r.c.telemetry != nil {
		r.metrics = &PhaseMetrics{Index: r.idx, Discipline: r.phase.Discipline, PluginHits: make(map[string]int)}
		r.c.telemetry.Phases = append(r.c.telemetry.Phases, r.metrics)
	}
}

func (r *phaseRun) end(start time.Time) {
	if r.quiet {
		return
	}
	r.c.debug(DebugPhases, r.idx, "exit", r.phase.Discipline.String())
	if r.metrics != nil && r.c.cfg.Telemetry >= TelemetryTiming {
		r.metrics.Time = time.Since(start)
	}
	r.c.log.Debug("phase done", "language", r.c.lang.Name, "phase", r.idx, "discipline", r.phase.Discipline.String())
}

// applied records a rewrite by the named plugin at path.
func (r *phaseRun) applied(name string, s *spine.Spine) {
	if r.quiet {
		return
	}
	r.metrics.hit(name)
	r.c.debug(DebugRewrites, r.idx, name, s.PathString())
}

// required sweeps to a fixpoint. A checker rejecting any node ends the phase
// with an UnsupportedConstructError.
func (r *phaseRun) required(tree ir.Node) (ir.Node, error) {
	maxSweeps := r.c.cfg.MaxSweeps
	for sweep := 1; ; sweep++ {
		if sweep > maxSweeps {
			return nil, &CompileError{
				Language:   r.c.lang.Name,
				Phase:      r.idx,
				Discipline: r.phase.Discipline,
				Message:    fmt.Sprintf("no fixpoint after %d sweeps", maxSweeps),
			}
		}
		changed := false
		s := r.requiredVisit(spine.New(tree), &changed)
		if r.metrics != nil {
			r.metrics.Sweeps = sweep
		}
		if r.rejected != nil {
			return nil, r.rejected
		}
		if !changed {
			return tree, nil
		}
		tree = s.Root()
	}
}

// requiredVisit applies the first matching plugin at s, then descends into
// the (possibly replaced) node's children. It returns the spine at the same
// position in the updated tree.
func (r *phaseRun) requiredVisit(s *spine.Spine, changed *bool) *spine.Spine {
	if r.check(s) {
		return s
	}
	for _, pl := range r.phase.Plugins {
		if alts := plugin.Matches(pl, s); len(alts) > 0 {
			s = s.Replace(alts[0])
			*changed = true
			r.applied(pl.Name(), s)
			break
		}
	}
	for _, e := range ir.Children(s.Node()) {
		child := r.requiredVisit(s.Child(e.Fragment), changed)
		s = child.Parent()
		if r.rejected != nil {
			break
		}
	}
	return s
}

// check runs the phase's checkers at s and records the first rejection.
func (r *phaseRun) check(s *spine.Spine) bool {
	for _, pl := range r.phase.Plugins {
		ck, ok := pl.(plugin.Checker)
		if !ok {
			continue
		}
		if rej := ck.Check(s); rej != nil {
			at := s
			if t := s.At(rej.At); t != nil {
				at = t
			}
			r.rejected = &UnsupportedConstructError{
				Language: r.c.lang.Name,
				Kind:     at.Node().Kind(),
				Op:       rej.Op,
				Path:     at.PathString(),
				Count:    1,
				Reason:   rej.Reason,
			}
			if !r.quiet {
				r.c.debug(DebugRewrites, r.idx, pl.Name(), "rejected "+s.PathString())
			}
			return true
		}
	}
	return false
}

// simpleGolf makes one post-order pass; children are settled before their
// parent is considered.
func (r *phaseRun) simpleGolf(tree ir.Node) ir.Node {
	return r.simpleGolfVisit(spine.New(tree)).Root()
}

func (r *phaseRun) simpleGolfVisit(s *spine.Spine) *spine.Spine {
	for _, e := range ir.Children(s.Node()) {
		child := r.simpleGolfVisit(s.Child(e.Fragment))
		s = child.Parent()
	}

	best := s.Node()
	bestName := ""
	for _, pl := range r.phase.Plugins {
		for _, alt := range plugin.Matches(pl, s) {
			if r.c.cheaper(alt, best) {
				best, bestName = alt, pl.Name()
			}
		}
	}
	if bestName == "" {
		return s
	}
	s = s.Replace(best)
	r.applied(bestName, s)
	return s
}

// cheaper compares the rendered length of two nodes when both render, and
// their structural size otherwise.
func (c *compiler) cheaper(a, b ir.Node) bool {
	la, okA := c.renderedLength(a)
	lb, okB := c.renderedLength(b)
	if okA && okB {
		return la < lb
	}
	return ir.Size(a) < ir.Size(b)
}

func (c *compiler) renderedLength(n ir.Node) (int, bool) {
	if hasAbstract(n) {
		return 0, false
	}
	out, err := c.lang.Render(n)
	if err != nil {
		return 0, false
	}
	return len([]rune(out)), true
}

func hasAbstract(n ir.Node) bool {
	for s := range spine.New(n).WithDescendants() {
		if ir.IsAbstract(s.Node()) {
			return true
		}
	}
	return false
}

// render checks that no abstract node is left, then emits.
func (c *compiler) render(tree ir.Node) (string, error) {
	var first *spine.Spine
	count := 0
	for s := range spine.New(tree).WithDescendants() {
		if ir.IsAbstract(s.Node()) {
			if first == nil {
				first = s
			}
			count++
		}
	}
	if first != nil {
		return "", &UnsupportedConstructError{
			Language: c.lang.Name,
			Kind:     first.Node().Kind(),
			Op:       emit.OpName(first.Node()),
			Path:     first.PathString(),
			Count:    count,
		}
	}
	out, err := c.lang.Render(tree)
	if err != nil {
		return "", fmt.Errorf("%s: emit: %w", c.lang.Name, err)
	}
	return out, nil
}
