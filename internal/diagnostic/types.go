package diagnostic

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"bridge-generator/internal/common"
)

// Diagnostics holds all diagnostic information from one run.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Class separates syntax problems from semantic ones.
	Class Class
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Span locates the offending source text.
	Span Span
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// Class is the error taxonomy bucket a diagnostic belongs to.
type Class int

const (
	ClassSyntax Class = iota
	ClassSemantic
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassSyntax:
		return "syntax"
	case ClassSemantic:
		return "semantic"
	default:
		return common.UnknownStr
	}
}

// AddError adds an error diagnostic and returns it for further decoration.
func (d *Diagnostics) AddError(class Class, code string, span Span, format string, args ...any) *Diagnostic {
	d.Errors = append(d.Errors, newDiagnostic(DiagnosticError, class, code, span, format, args))

	return &d.Errors[len(d.Errors)-1]
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(class Class, code string, span Span, format string, args ...any) *Diagnostic {
	d.Warnings = append(d.Warnings, newDiagnostic(DiagnosticWarning, class, code, span, format, args))

	return &d.Warnings[len(d.Warnings)-1]
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(class Class, code string, span Span, format string, args ...any) *Diagnostic {
	d.Infos = append(d.Infos, newDiagnostic(DiagnosticInfo, class, code, span, format, args))

	return &d.Infos[len(d.Infos)-1]
}

func newDiagnostic(sev DiagnosticSeverity, class Class, code string, span Span, format string, args []any) Diagnostic {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	return Diagnostic{
		Severity: sev,
		Class:    class,
		Code:     code,
		Message:  msg,
		Span:     span,
	}
}

// WithSuggestions attaches suggestions to the diagnostic.
func (d *Diagnostic) WithSuggestions(s ...string) *Diagnostic {
	d.Suggestions = append(d.Suggestions, s...)

	return d
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Len returns the total number of diagnostics of every severity.
func (d *Diagnostics) Len() int {
	return len(d.Errors) + len(d.Warnings) + len(d.Infos)
}

// All returns every diagnostic ordered by file and source position,
// errors before warnings at the same location.
func (d *Diagnostics) All() []Diagnostic {
	out := make([]Diagnostic, 0, d.Len())
	out = append(out, d.Errors...)
	out = append(out, d.Warnings...)
	out = append(out, d.Infos...)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Span, out[j].Span
		if a.File != b.File {
			return a.File < b.File
		}

		if a.Start != b.Start {
			return a.Start.Before(b.Start)
		}

		return out[i].Severity > out[j].Severity
	})

	return out
}

// Error returns a combined error from all error diagnostics, or nil if valid.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	var parts []string
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String returns a formatted diagnostic string:
// "file:line:col: severity: [code] message".
func (d Diagnostic) String() string {
	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	return fmt.Sprintf("%s: %s: %s", d.Span, d.Severity, msg)
}
