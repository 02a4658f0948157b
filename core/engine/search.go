package engine

import (
	"cmp"
	"math"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
	"github.com/opal-lang/golfc/core/spine"
)

// unrenderable is the score of a candidate whose downstream pipeline fails.
const unrenderable = math.MaxInt

// abstractTier offsets emit-only scores of trees that cannot be rendered
// yet. Characters and structural size are never compared with each other:
// every renderable tree ranks ahead of every abstract one, and abstract
// trees rank among themselves by size.
const abstractTier = math.MaxInt / 2

// patience is how many expansion steps may pass without improving on the
// best candidate before the search is considered converged.
const patience = 3

type candidate struct {
	tree  ir.Node
	hash  ir.Digest
	score int
	via   string // plugin that produced it
}

type scoreKey struct {
	phase int
	hash  ir.Digest
}

// scoreCache memoizes scores by phase and structural hash. It is shared by
// concurrent scorers.
type scoreCache struct {
	mu sync.Mutex
	m  map[scoreKey]int
}

func newScoreCache() *scoreCache { return &scoreCache{m: make(map[scoreKey]int)} }

func (sc *scoreCache) get(k scoreKey) (int, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	v, ok := sc.m[k]
	return v, ok
}

func (sc *scoreCache) put(k scoreKey, v int) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.m[k] = v
}

func normalizeBudget(b SearchBudget) SearchBudget {
	d := DefaultSearchBudget()
	if b.BeamWidth <= 0 {
		b.BeamWidth = d.BeamWidth
	}
	if b.MaxSteps <= 0 {
		b.MaxSteps = d.MaxSteps
	}
	if b.MaxEvaluations <= 0 {
		b.MaxEvaluations = d.MaxEvaluations
	}
	if b.MaxAlternatives <= 0 {
		b.MaxAlternatives = d.MaxAlternatives
	}
	if b.Workers <= 0 {
		b.Workers = 1
	}
	return b
}

// search runs a beam search: expand every frontier tree by every applicable
// rewrite, score the new trees, keep the best BeamWidth of them, repeat. The
// input tree is the initial best, so the result never scores worse.
func (r *phaseRun) search(tree ir.Node) ir.Node {
	budget := normalizeBudget(r.c.cfg.Search)

	rootHash := ir.Hash(tree)
	best := candidate{tree: tree, hash: rootHash, score: r.c.score(tree, rootHash, r.idx)}
	seen := map[ir.Digest]bool{rootHash: true}
	frontier := []candidate{best}
	evaluations, generated, stale := 1, 0, 0
	exceeded := false

	step := 0
	for ; step < budget.MaxSteps; step++ {
		gen, capped := r.expand(frontier, seen, budget, budget.MaxEvaluations-evaluations)
		exceeded = capped
		if len(gen) == 0 {
			break
		}
		generated += len(gen)

		r.c.scoreAll(gen, r.idx, budget.Workers)
		evaluations += len(gen)

		// stable sort keeps generation order among equal scores
		slices.SortStableFunc(gen, func(a, b candidate) int { return cmp.Compare(a.score, b.score) })
		if gen[0].score < best.score {
			best = gen[0]
			stale = 0
			if !r.quiet {
				r.c.debug(DebugRewrites, r.idx, best.via, "improved")
			}
		} else {
			stale++
		}
		frontier = gen[:min(len(gen), budget.BeamWidth)]
		if exceeded || stale >= patience {
			break
		}
	}
	if step == budget.MaxSteps {
		exceeded = true
	}

	if exceeded {
		r.c.log.Info("search budget exceeded",
			"language", r.c.lang.Name, "phase", r.idx,
			"steps", step, "evaluations", evaluations, "best", best.score)
	}
	if r.metrics != nil {
		r.metrics.Steps = step
		r.metrics.Candidates = generated
		r.metrics.Evaluations = evaluations
		r.metrics.BudgetExceeded = exceeded
		if best.via != "" {
			r.metrics.hit(best.via)
		}
	}
	return best.tree
}

// expand generates every unseen tree one rewrite away from the frontier, in
// frontier order, then pre-order site order, then plugin declaration order,
// then alternative order. It stops after room candidates.
func (r *phaseRun) expand(frontier []candidate, seen map[ir.Digest]bool, budget SearchBudget, room int) ([]candidate, bool) {
	var gen []candidate
	for _, cand := range frontier {
		for s := range spine.New(cand.tree).WithDescendants() {
			for _, pl := range r.phase.Plugins {
				alts := plugin.Matches(pl, s)
				if len(alts) > budget.MaxAlternatives {
					alts = alts[:budget.MaxAlternatives]
				}
				for _, alt := range alts {
					next := s.Replace(alt).Root()
					h := ir.Hash(next)
					if seen[h] {
						continue
					}
					if len(gen) >= room {
						return gen, true
					}
					seen[h] = true
					gen = append(gen, candidate{tree: next, hash: h, via: pl.Name()})
				}
			}
		}
	}
	return gen, false
}

// scoreAll fills in the score of every candidate. Each result is written to
// its own slot, so the outcome is the same for any number of workers.
func (c *compiler) scoreAll(cands []candidate, phase, workers int) {
	if workers <= 1 {
		for i := range cands {
			cands[i].score = c.score(cands[i].tree, cands[i].hash, phase)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range cands {
		g.Go(func() error {
			cands[i].score = c.score(cands[i].tree, cands[i].hash, phase)
			return nil
		})
	}
	_ = g.Wait()
}

// score is the objective for a candidate produced by search phase `phase`.
func (c *compiler) score(tree ir.Node, hash ir.Digest, phase int) int {
	key := scoreKey{phase: phase, hash: hash}
	if v, ok := c.scores.get(key); ok {
		return v
	}
	v := c.evaluate(tree, phase)
	c.scores.put(key, v)
	return v
}

func (c *compiler) evaluate(tree ir.Node, phase int) int {
	if c.cfg.Scoring == ScoreEmitOnly {
		if n, ok := c.renderedLength(tree); ok {
			return n
		}
		return abstractTier + ir.Size(tree)
	}
	final, err := c.pipeline(tree, phase+1, true)
	if err != nil {
		return unrenderable
	}
	out, err := c.render(final)
	if err != nil {
		return unrenderable
	}
	return len([]rune(out))
}
