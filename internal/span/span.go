// Package span provides source positions and spans shared by the lexer, parser and evaluator.
package span

import "fmt"

// Position is a location in source text.
type Position struct {
	Offset int `json:"offset"` // byte offset from the start of the source
	Line   int `json:"line"`   // 1-based
	Column int `json:"column"` // 1-based, in bytes
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether p was set by the lexer (the zero Position is not).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Span is the half-open range [Start, End).
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func (s Span) String() string {
	return fmt.Sprintf("%s..%s", s.Start, s.End)
}

// Len returns the byte length of the span.
func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

// Cover returns the smallest span containing both a and b.
func Cover(a, b Span) Span {
	out := a
	if b.Start.Offset < out.Start.Offset {
		out.Start = b.Start
	}
	if b.End.Offset > out.End.Offset {
		out.End = b.End
	}
	return out
}
