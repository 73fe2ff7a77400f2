// Package diag provides diagnostic (error/warning) types for the lexer and parser.
package diag

import (
	"fmt"
	"strings"
	"tinyjs/internal/span"
)

// Severity indicates the severity of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic is a single lexer or parser message.
type Diagnostic struct {
	Code     string    `json:"code"`           // stable code, e.g. "E1001"
	Severity Severity  `json:"severity"`       // error or warning
	Message  string    `json:"message"`        // human-readable description
	Span     span.Span `json:"span"`           // source location
	Hint     string    `json:"hint,omitempty"` // optional hint
	// AtEOF marks errors raised because the input ended early. A REPL keeps
	// reading lines while every error in a list has it set.
	AtEOF bool `json:"-"`
}

// String returns a human-readable representation of the diagnostic.
func (d Diagnostic) String() string {
	loc := fmt.Sprintf("%d:%d", d.Span.Start.Line, d.Span.Start.Column)
	msg := fmt.Sprintf("[%s] %s at %s: %s", d.Code, d.Severity, loc, d.Message)
	if d.Hint != "" {
		msg += " (hint: " + d.Hint + ")"
	}
	return msg
}

// Errorf creates an error diagnostic at the given span.
func Errorf(code string, s span.Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

// Warningf creates a warning diagnostic at the given span.
func Warningf(code string, s span.Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: Warning,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

// Stage names the front-end phase a diagnostic list came from.
type Stage string

const (
	StageLex   Stage = "LexError"
	StageParse Stage = "ParseError"
)

// List is a non-empty set of diagnostics from one stage, usable as an error.
type List struct {
	Stage Stage
	Diags []Diagnostic
}

// AsError returns nil for an empty slice, otherwise a *List.
func AsError(stage Stage, diags []Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	return &List{Stage: stage, Diags: diags}
}

// Error renders the first diagnostic on one line, prefixed by the stage.
func (l *List) Error() string {
	if len(l.Diags) == 0 {
		return string(l.Stage)
	}
	first := l.Diags[0]
	msg := fmt.Sprintf("%s: %s at %s", l.Stage, first.Message, first.Span.Start)
	if n := len(l.Diags) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}

// Lines returns every diagnostic formatted with String.
func (l *List) Lines() string {
	parts := make([]string, len(l.Diags))
	for i, d := range l.Diags {
		parts[i] = d.String()
	}
	return strings.Join(parts, "\n")
}

// Incomplete reports whether every diagnostic was caused by premature end of input.
func Incomplete(diags []Diagnostic) bool {
	if len(diags) == 0 {
		return false
	}
	for _, d := range diags {
		if !d.AtEOF {
			return false
		}
	}
	return true
}
