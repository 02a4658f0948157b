package engine

import (
	"io"
	"log/slog"
	"time"

	"github.com/opal-lang/golfc/core/emit"
	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
)

// Language is a target backend: its pipeline of phases, emitter and
// detokenizer. Language values are configuration and are never mutated.
type Language struct {
	Name        string
	Extension   string
	Phases      []plugin.Phase
	Emitter     emit.Emitter
	Detokenizer emit.Detokenizer
}

// Render emits and detokenizes a fully rewritten program.
func (l Language) Render(program ir.Node) (string, error) {
	return emit.Render(l.Emitter, l.Detokenizer, program)
}

// ScoringMode selects the objective used to rank search candidates.
type ScoringMode int

const (
	// ScoreFull runs the rest of the pipeline on the candidate, with later
	// search phases applied greedily, and counts the rendered characters.
	ScoreFull ScoringMode = iota
	// ScoreEmitOnly renders the candidate as is. Trees that cannot be
	// emitted yet rank after every renderable one, by structural size.
	ScoreEmitOnly
)

func (m ScoringMode) String() string {
	if m == ScoreEmitOnly {
		return "emit-only"
	}
	return "full"
}

// SearchBudget bounds a search phase. Running out is not an error: the best
// candidate found so far is kept.
type SearchBudget struct {
	BeamWidth       int // candidates kept between expansion steps
	MaxSteps        int // expansion steps per search phase
	MaxEvaluations  int // candidates scored per search phase
	MaxAlternatives int // alternatives taken from one plugin at one site
	Workers         int // concurrent candidate scorers; 1 scores inline
}

// DefaultSearchBudget suits programs of a few dozen statements.
func DefaultSearchBudget() SearchBudget {
	return SearchBudget{
		BeamWidth:       6,
		MaxSteps:        48,
		MaxEvaluations:  4000,
		MaxAlternatives: 6,
		Workers:         1,
	}
}

// TelemetryLevel controls telemetry collection.
type TelemetryLevel int

const (
	TelemetryOff TelemetryLevel = iota
	TelemetryBasic
	TelemetryTiming
)

// DebugLevel controls debug tracing.
type DebugLevel int

const (
	DebugOff DebugLevel = iota
	DebugPhases
	DebugRewrites
)

// Config configures a compilation.
type Config struct {
	Search    SearchBudget
	Scoring   ScoringMode
	MaxSweeps int          // sweeps before a required phase is declared divergent
	Logger    *slog.Logger // nil discards
	Telemetry TelemetryLevel
	Debug     DebugLevel
}

// DefaultConfig returns the settings used by the CLI when nothing overrides
// them.
func DefaultConfig() Config {
	return Config{
		Search:    DefaultSearchBudget(),
		Scoring:   ScoreFull,
		MaxSweeps: 100,
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Result is the outcome of compiling one program for one language.
type Result struct {
	Language    string
	Output      string
	Program     ir.Node // the final rewritten tree
	CompileTime time.Duration
	Telemetry   *Telemetry
	DebugEvents []DebugEvent
}

// Telemetry holds per-phase metrics.
type Telemetry struct {
	Phases []*PhaseMetrics
}

// PhaseMetrics tracks one phase run.
type PhaseMetrics struct {
	Index          int
	Discipline     plugin.Discipline
	Rewrites       int
	Sweeps         int
	Candidates     int
	Evaluations    int
	Steps          int
	BudgetExceeded bool
	PluginHits     map[string]int
	Time           time.Duration
}

func (m *PhaseMetrics) hit(name string) {
	if m == nil {
		return
	}
	m.Rewrites++
	m.PluginHits[name]++
}

// DebugEvent captures a trace event.
type DebugEvent struct {
	Timestamp time.Time
	Event     string
	Phase     int
	Context   string
}
