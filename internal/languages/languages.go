// Package languages is the registry of compilation targets.
package languages

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/opal-lang/golfc/core/engine"
	"github.com/opal-lang/golfc/internal/languages/golfscript"
	"github.com/opal-lang/golfc/internal/languages/javascript"
	"github.com/opal-lang/golfc/internal/languages/nim"
)

// All returns every supported language, sorted by name.
func All() []engine.Language {
	return []engine.Language{
		golfscript.Language(),
		javascript.Language(),
		nim.Language(),
	}
}

// UnknownLanguageError is returned by Lookup for a name that matches no
// language.
type UnknownLanguageError struct {
	Name       string
	Suggestion string
}

func (e *UnknownLanguageError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown language %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown language %q", e.Name)
}

// Lookup finds a language by name or file extension, ignoring case.
func Lookup(name string) (engine.Language, error) {
	want := strings.TrimPrefix(strings.ToLower(name), ".")
	for _, l := range All() {
		if strings.ToLower(l.Name) == want || l.Extension == want {
			return l, nil
		}
	}
	return engine.Language{}, &UnknownLanguageError{Name: name, Suggestion: closest(want)}
}

// LookupAll resolves a list of names. An empty list or the single name
// "all" selects every language.
func LookupAll(names []string) ([]engine.Language, error) {
	if len(names) == 0 || (len(names) == 1 && strings.EqualFold(names[0], "all")) {
		return All(), nil
	}
	out := make([]engine.Language, 0, len(names))
	for _, name := range names {
		l, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// Names lists the language names in registry order.
func Names() []string {
	var names []string
	for _, l := range All() {
		names = append(names, l.Name)
	}
	return names
}

func closest(name string) string {
	var candidates []string
	for _, l := range All() {
		candidates = append(candidates, strings.ToLower(l.Name), l.Extension)
	}
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	for _, l := range All() {
		if strings.ToLower(l.Name) == ranks[0].Target || l.Extension == ranks[0].Target {
			return l.Name
		}
	}
	return ""
}
