// Package emit is the contract between the compiler core and a target
// backend: an Emitter turns a fully rewritten tree into a flat token sequence
// and a Detokenizer joins the tokens with the fewest separators that keep them
// apart.
package emit

import (
	"fmt"
	"strings"

	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/spine"
)

// Emitter renders a program as source tokens. The tree must not contain
// abstract nodes; meeting a node it cannot render is an *UnsupportedNodeError.
type Emitter interface {
	Emit(program ir.Node) ([]string, error)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(program ir.Node) ([]string, error)

func (f EmitterFunc) Emit(program ir.Node) ([]string, error) { return f(program) }

// Detokenizer joins tokens into source text.
type Detokenizer func(tokens []string) string

// NeedsSpace reports whether a separator is required between two adjacent,
// non-empty tokens.
type NeedsSpace func(prev, next string) bool

// UnsupportedNodeError is returned when an emitter meets a node it has no
// rendering for. It always indicates a phase configuration bug: the node
// should have been rewritten away before emission.
type UnsupportedNodeError struct {
	Kind ir.Kind
	Op   string // op tag or operator name, when the node has one
	Path string
}

func (e *UnsupportedNodeError) Error() string {
	var b strings.Builder
	b.WriteString("unsupported node ")
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		fmt.Fprintf(&b, " %q", e.Op)
	}
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	return b.String()
}

// Unsupported builds the error for the node at s.
func Unsupported(s *spine.Spine) *UnsupportedNodeError {
	return &UnsupportedNodeError{Kind: s.Node().Kind(), Op: OpName(s.Node()), Path: s.PathString()}
}

// OpName returns the operation tag or operator name carried by n, if any.
func OpName(n ir.Node) string {
	switch n := n.(type) {
	case *ir.Op:
		return n.Op.String()
	case *ir.ImplicitConversion:
		return n.Behavior.String()
	case *ir.Infix:
		return n.Name
	case *ir.Prefix:
		return n.Name
	case *ir.MutatingInfix:
		return n.Name
	case *ir.FunctionCall:
		return n.Name
	case *ir.MethodCall:
		return n.Name
	}
	return ""
}

// IsWordChar reports whether c belongs to an identifier or number token.
func IsWordChar(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// AlphanumericAdjacency requires a space where two word characters meet.
func AlphanumericAdjacency(prev, next string) bool {
	return IsWordChar(prev[len(prev)-1]) && IsWordChar(next[0])
}

// DefaultDetokenizer concatenates tokens, inserting one space wherever
// needsSpace asks for it. Empty tokens are dropped.
func DefaultDetokenizer(needsSpace NeedsSpace) Detokenizer {
	return func(tokens []string) string {
		var b strings.Builder
		prev := ""
		for _, tok := range tokens {
			if tok == "" {
				continue
			}
			if prev != "" && needsSpace(prev, tok) {
				b.WriteByte(' ')
			}
			b.WriteString(tok)
			prev = tok
		}
		return b.String()
	}
}

// Render emits and detokenizes program.
func Render(e Emitter, d Detokenizer, program ir.Node) (string, error) {
	tokens, err := e.Emit(program)
	if err != nil {
		return "", err
	}
	return d(tokens), nil
}
