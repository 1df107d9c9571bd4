package bridgeerr

import (
	"fmt"
	"strings"
)

// Phase indicates where in the pipeline the error occurred
type Phase string

const (
	PhaseConfig   Phase = "config"   // configuration loading
	PhaseExtract  Phase = "extract"  // locating manifests in host source
	PhaseParse    Phase = "parse"    // manifest parsing
	PhaseValidate Phase = "validate" // semantic validation
	PhaseGenerate Phase = "generate" // emitting glue
	PhaseWrite    Phase = "write"    // writing artifacts
)

// Kind categorizes the error
type Kind string

const (
	KindSyntax        Kind = "syntax"
	KindSemantic      Kind = "semantic"
	KindIO            Kind = "io"
	KindInvalidConfig Kind = "invalid_config"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

// Sentinels for errors.Is.
var (
	// ErrInvalidManifest matches any run stopped by error diagnostics.
	ErrInvalidManifest = &Error{Phase: PhaseValidate, Kind: KindSemantic}
	// ErrSyntax matches runs stopped by syntax diagnostics.
	ErrSyntax = &Error{Phase: PhaseParse, Kind: KindSyntax}
)

// Error is the structured error type used by the pipeline
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	File   string
	Item   string
	Detail string
	// Count is the number of error diagnostics behind a manifest failure.
	Count int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.File != "" {
		b.WriteString(" in ")
		b.WriteString(e.File)
	}

	if e.Item != "" {
		b.WriteString(" at ")
		b.WriteString(e.Item)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Manifest failures match
// ErrInvalidManifest regardless of whether parsing or validation stopped them.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t == ErrInvalidManifest {
		return e.Kind == KindSyntax || e.Kind == KindSemantic
	}

	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// File sets the input file
func (b *Builder) File(name string) *Builder {
	b.err.File = name
	return b
}

// Item sets the manifest item the error concerns
func (b *Builder) Item(name string) *Builder {
	b.err.Item = name
	return b
}

// Count sets the diagnostic count
func (b *Builder) Count(n int) *Builder {
	b.err.Count = n
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// InvalidManifest reports a manifest rejected with n error diagnostics.
func InvalidManifest(phase Phase, file string, n int, cause error) *Error {
	kind := KindSemantic
	if phase == PhaseParse {
		kind = KindSyntax
	}

	return &Error{
		Phase:  phase,
		Kind:   kind,
		File:   file,
		Count:  n,
		Detail: fmt.Sprintf("%d error diagnostic(s), no files generated", n),
		Cause:  cause,
	}
}

// IO wraps a filesystem failure.
func IO(phase Phase, file string, err error) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindIO,
		File:  file,
		Cause: err,
	}
}
