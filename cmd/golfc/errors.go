package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opal-lang/golfc/core/emit"
	"github.com/opal-lang/golfc/core/engine"
)

// CLIError represents a formatted CLI error with context
type CLIError struct {
	Type    string // "usage", "config", "parse", "compile"
	Message string
	Details string // Additional context
	Hint    string // How to fix it
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(e.Details)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// FormatError formats an error for CLI output with colors
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}

	var (
		cliErr      *CLIError
		unsupported *engine.UnsupportedConstructError
		node        *emit.UnsupportedNodeError
		compileErr  *engine.CompileError
	)
	switch {
	case errors.As(err, &cliErr):
		formatCLIError(w, cliErr, useColor)
	case errors.As(err, &unsupported):
		hint := fmt.Sprintf("%s has no mapping for this construct; try another target", unsupported.Language)
		if unsupported.Reason != "" {
			hint = fmt.Sprintf("%s cannot represent this value exactly; narrow the declared ranges or try another target", unsupported.Language)
		}
		formatCLIError(w, &CLIError{Message: unsupported.Error(), Hint: hint}, useColor)
	case errors.As(err, &node):
		formatCLIError(w, &CLIError{Message: err.Error(), Details: "the emitter cannot render " + node.Kind.String()}, useColor)
	case errors.As(err, &compileErr):
		formatCLIError(w, &CLIError{Message: err.Error(), Hint: "a required phase did not settle; raise max_sweeps if the program is large"}, useColor)
	default:
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Error())
	}
}

// formatCLIError formats CLI errors
func formatCLIError(w io.Writer, err *CLIError, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Message)

	if err.Details != "" {
		_, _ = fmt.Fprintf(w, "%s\n", Colorize("  "+strings.ReplaceAll(err.Details, "\n", "\n  "), ColorGray, useColor))
	}

	if err.Hint != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Hint: ", ColorYellow, useColor), err.Hint)
	}
}
