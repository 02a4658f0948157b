package engine

import (
	"fmt"
	"strings"

	"github.com/opal-lang/golfc/core/ir"
	"github.com/opal-lang/golfc/core/plugin"
)

// CompileError is a phase-level failure that aborts compilation for one
// language.
type CompileError struct {
	Language   string
	Phase      int
	Discipline plugin.Discipline
	Message    string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: phase %d (%s): %s", e.Language, e.Phase, e.Discipline, e.Message)
}

// UnsupportedConstructError reports a construct that survived every phase but
// that the target cannot express, typically an op with no mapping.
type UnsupportedConstructError struct {
	Language string
	Kind     ir.Kind
	Op       string
	Path     string
	Count    int    // abstract nodes left in the tree; the first one is described
	Reason   string // why a check rejected the construct, if one did
}

func (e *UnsupportedConstructError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: unsupported construct %s", e.Language, e.Kind)
	if e.Op != "" {
		fmt.Fprintf(&b, " %q", e.Op)
	}
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Count > 1 {
		fmt.Fprintf(&b, " (and %d more)", e.Count-1)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}
