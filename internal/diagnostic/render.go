package diagnostic

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	locStyle     = lipgloss.NewStyle().Bold(true)
	caretStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	hintStyle    = lipgloss.NewStyle().Faint(true)
)

// Renderer prints diagnostics with an excerpt of the offending source line.
type Renderer struct {
	// Color enables ANSI styling. Callers usually set it from term.IsTerminal.
	Color bool
	// Sources maps a span's file name to its full text for excerpts.
	Sources map[string]string
}

// Render writes every diagnostic in d to w, followed by a summary line.
func (r *Renderer) Render(w io.Writer, d *Diagnostics) error {
	for _, diag := range d.All() {
		if _, err := io.WriteString(w, r.format(diag)); err != nil {
			return err
		}
	}

	if d.Len() == 0 {
		return nil
	}

	summary := fmt.Sprintf("%d error(s), %d warning(s)\n", len(d.Errors), len(d.Warnings))
	_, err := io.WriteString(w, r.style(locStyle, summary))

	return err
}

func (r *Renderer) format(d Diagnostic) string {
	var b strings.Builder

	sevStyle := infoStyle

	switch d.Severity {
	case DiagnosticError:
		sevStyle = errorStyle
	case DiagnosticWarning:
		sevStyle = warningStyle
	case DiagnosticInfo:
	}

	b.WriteString(r.style(locStyle, d.Span.String()))
	b.WriteString(": ")
	b.WriteString(r.style(sevStyle, d.Severity.String()))

	if d.Code != "" {
		b.WriteString("[" + d.Code + "]")
	}

	b.WriteString(": ")
	b.WriteString(d.Message)
	b.WriteByte('\n')

	if line, ok := r.sourceLine(d.Span); ok {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
		b.WriteString("    ")
		b.WriteString(strings.Repeat(" ", d.Span.Start.Column-1))
		b.WriteString(r.style(caretStyle, strings.Repeat("^", caretWidth(d.Span, line))))
		b.WriteByte('\n')
	}

	for _, s := range d.Suggestions {
		b.WriteString(r.style(hintStyle, "    help: "+s))
		b.WriteByte('\n')
	}

	return b.String()
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.Color {
		return text
	}

	return s.Render(text)
}

func (r *Renderer) sourceLine(span Span) (string, bool) {
	src, ok := r.Sources[span.File]
	if !ok || !span.Start.IsValid() {
		return "", false
	}

	lines := strings.Split(src, "\n")
	if span.Start.Line > len(lines) {
		return "", false
	}

	return strings.TrimRight(lines[span.Start.Line-1], "\r"), true
}

func caretWidth(span Span, line string) int {
	width := 1
	if span.End.Line == span.Start.Line && span.End.Column > span.Start.Column {
		width = span.End.Column - span.Start.Column
	}

	if rest := len(line) - (span.Start.Column - 1); rest > 0 && width > rest {
		width = rest
	}

	return width
}
