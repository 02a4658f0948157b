package emit

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Tokenizer splits source text back into tokens. Backends provide one so the
// adjacency predicate can be checked against the language's lexical rules.
type Tokenizer func(src string) []string

// RegexpTokenizer tokenizes by repeatedly taking the leftmost-longest match
// of pattern, skipping whitespace between matches.
func RegexpTokenizer(pattern string) Tokenizer {
	re := regexp.MustCompile(`^(?:` + pattern + `)`)
	re.Longest()
	return func(src string) []string {
		var out []string
		for {
			src = strings.TrimLeft(src, " \t")
			if src == "" {
				return out
			}
			m := re.FindString(src)
			if m == "" {
				m = src[:1]
			}
			out = append(out, m)
			src = src[len(m):]
		}
	}
}

// CheckAdjacency verifies that the predicate keeps a and b apart: when it
// asks for a separator, "a b" must tokenize to [a b]; when it does not, "ab"
// must.
func CheckAdjacency(tokenize Tokenizer, needsSpace NeedsSpace, a, b string) error {
	joined := a + b
	if needsSpace(a, b) {
		joined = a + " " + b
	}
	if got := tokenize(joined); !slices.Equal(got, []string{a, b}) {
		return fmt.Errorf("%q then %q renders as %q which tokenizes to %q", a, b, joined, got)
	}
	return nil
}
