// Package plugin defines rewrite rules and the phases that group them.
//
// A plugin is a pure function of a tree position. Given the spine of a node it
// returns nothing (no match) or one or more replacement nodes for that node,
// the first being the plugin's preferred rewrite. A plugin must not mutate its
// input and must return equal results for equal inputs; the search phase
// relies on this to explore and discard candidates freely.
package plugin

import (
	"fmt"

	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/spine"
)

// Plugin is the capability "attempt a rewrite at a tree position".
type Plugin interface {
	Name() string
	Rewrite(s *spine.Spine) []ir.Node
}

type funcPlugin struct {
	name string
	fn   func(s *spine.Spine) ir.Node
}

func (p funcPlugin) Name() string { return p.name }

func (p funcPlugin) Rewrite(s *spine.Spine) []ir.Node {
	if n := p.fn(s); n != nil {
		return []ir.Node{n}
	}
	return nil
}

type multiPlugin struct {
	name string
	fn   func(s *spine.Spine) []ir.Node
}

func (p multiPlugin) Name() string { return p.name }

func (p multiPlugin) Rewrite(s *spine.Spine) []ir.Node { return p.fn(s) }

// New adapts a single-result rewrite function. fn returns nil for no match.
func New(name string, fn func(s *spine.Spine) ir.Node) Plugin {
	return funcPlugin{name: name, fn: fn}
}

// NewMulti adapts a rewrite function that may offer several alternatives.
func NewMulti(name string, fn func(s *spine.Spine) []ir.Node) Plugin {
	return multiPlugin{name: name, fn: fn}
}

// Rejection stops compilation at a node the target cannot represent.
type Rejection struct {
	At     []ir.PathFragment // offending node relative to the checked one; empty for itself
	Op     string            // op name, empty for other node kinds
	Reason string
}

// Checker is implemented by plugins that can reject a tree position. Required
// phases consult every checker at a node before trying any rewrite there.
type Checker interface {
	Check(s *spine.Spine) *Rejection
}

type checkPlugin struct {
	name string
	fn   func(s *spine.Spine) *Rejection
}

func (p checkPlugin) Name() string                    { return p.name }
func (p checkPlugin) Rewrite(*spine.Spine) []ir.Node  { return nil }
func (p checkPlugin) Check(s *spine.Spine) *Rejection { return p.fn(s) }

// NewCheck adapts a function that never rewrites but may reject a node.
func NewCheck(name string, fn func(s *spine.Spine) *Rejection) Plugin {
	return checkPlugin{name: name, fn: fn}
}

// Discipline is how a phase applies its plugins.
type Discipline int

const (
	// Required applies the first matching plugin at every node until a full
	// sweep changes nothing.
	Required Discipline = iota
	// SimpleGolf makes one bottom-up pass keeping the cheapest local rewrite.
	SimpleGolf
	// Search explores combinations of rewrites scored by final output size.
	Search
)

func (d Discipline) String() string {
	switch d {
	case Required:
		return "required"
	case SimpleGolf:
		return "simplegolf"
	case Search:
		return "search"
	default:
		return fmt.Sprintf("Discipline(%d)", int(d))
	}
}

// ParseDiscipline is the inverse of Discipline.String.
func ParseDiscipline(s string) (Discipline, error) {
	switch s {
	case "required":
		return Required, nil
	case "simplegolf":
		return SimpleGolf, nil
	case "search":
		return Search, nil
	}
	return 0, fmt.Errorf("unknown phase discipline %q", s)
}

// Phase is an ordered plugin list with its application discipline.
type Phase struct {
	Discipline Discipline
	Plugins    []Plugin
}

func NewRequired(plugins ...Plugin) Phase   { return Phase{Discipline: Required, Plugins: plugins} }
func NewSimpleGolf(plugins ...Plugin) Phase { return Phase{Discipline: SimpleGolf, Plugins: plugins} }
func NewSearch(plugins ...Plugin) Phase     { return Phase{Discipline: Search, Plugins: plugins} }

// Names lists the phase's plugin names in order.
func (p Phase) Names() []string {
	names := make([]string, len(p.Plugins))
	for i, pl := range p.Plugins {
		names[i] = pl.Name()
	}
	return names
}

// Matches runs pl at s and drops replacements structurally equal to the
// current node; a rewrite that changes nothing is not a match. Only the
// returned alternatives are compared, and only those of the same kind are
// hashed.
func Matches(pl Plugin, s *spine.Spine) []ir.Node {
	alts := pl.Rewrite(s)
	if len(alts) == 0 {
		return nil
	}
	current := s.Node()
	out := alts[:0:0]
	for _, a := range alts {
		if a != nil && !ir.Equal(a, current) {
			out = append(out, a)
		}
	}
	return out
}

// Compose chains single-result plugins: the first that matches wins.
func Compose(name string, plugins ...Plugin) Plugin {
	return NewMulti(name, func(s *spine.Spine) []ir.Node {
		for _, p := range plugins {
			if alts := p.Rewrite(s); len(alts) > 0 {
				return alts
			}
		}
		return nil
	})
}
