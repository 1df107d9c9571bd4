package diagnostic

import "fmt"

// Position is a location in manifest source. Line and Column are 1-based;
// Offset is a 0-based byte offset into the original file.
type Position struct {
	Offset int
	Line   int
	Column int
}

// IsValid reports whether the position refers to real source.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Before reports whether p sorts before other.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}

	return p.Column < other.Column
}

// Span is a half-open source range [Start, End).
type Span struct {
	File  string
	Start Position
	End   Position
}

// Join returns the smallest span covering both a and b.
func Join(a, b Span) Span {
	if !a.Start.IsValid() {
		return b
	}

	if !b.Start.IsValid() {
		return a
	}

	out := a
	if b.Start.Before(a.Start) {
		out.Start = b.Start
	}

	if a.End.Before(b.End) {
		out.End = b.End
	}

	return out
}

// String formats the span as file:line:col.
func (s Span) String() string {
	file := s.File
	if file == "" {
		file = "<input>"
	}

	if !s.Start.IsValid() {
		return file
	}

	return fmt.Sprintf("%s:%d:%d", file, s.Start.Line, s.Start.Column)
}
