package parser

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// ErrorContext indicates the environment where diagnostics will be displayed
type ErrorContext string

const (
	// ErrorContextTerminal indicates diagnostics will be displayed in terminal with ANSI colors
	ErrorContextTerminal ErrorContext = "terminal"
	// ErrorContextPlain indicates diagnostics will be displayed without ANSI codes (logs, JSON, tests)
	ErrorContextPlain ErrorContext = "plain"
)

// Severity indicates the severity level of a diagnostic
type Severity string

const (
	SeverityError   Severity = "error"   // Prevents the document from being valid
	SeverityWarning Severity = "warning" // Best-effort parsing continued
	SeverityInfo    Severity = "info"    // Informational
	SeverityHint    Severity = "hint"    // Suggestion for improvement
)

// DiagKind categorizes diagnostics for programmatic handling. The taxonomy
// mirrors the recovery behavior: lexical and structural diagnostics
// accumulate, bootstrap triggers emergency recovery, checksum flags the
// result unverified, expansion aborts the document.
type DiagKind string

const (
	KindLexical    DiagKind = "lexical"    // Unrecognized token; scanning continued
	KindStructural DiagKind = "structural" // Dangling reference, inheritance cycle, arity mismatch
	KindBootstrap  DiagKind = "bootstrap"  // Missing/unreadable recovery marker
	KindChecksum   DiagKind = "checksum"   // Integrity directive failed
	KindExpansion  DiagKind = "expansion"  // Runaway template recursion
)

// Diagnostic is a structured parser/decompressor error with source metadata.
type Diagnostic struct {
	Kind        DiagKind `json:"kind"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Range       *Range   `json:"range,omitempty"`
	Token       string   `json:"token,omitempty"` // offending token text
	Suggestions []string `json:"suggestions,omitempty"`
}

// NewDiagnostic creates a diagnostic with error severity.
func NewDiagnostic(kind DiagKind, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Kind:     kind,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	}
}

// WithRange sets the source range.
func (d *Diagnostic) WithRange(r Range) *Diagnostic {
	d.Range = &r
	return d
}

// WithToken records the offending token text.
func (d *Diagnostic) WithToken(tok string) *Diagnostic {
	d.Token = tok
	return d
}

// WithSeverity overrides the severity.
func (d *Diagnostic) WithSeverity(sev Severity) *Diagnostic {
	d.Severity = sev
	return d
}

// WithSuggestion adds a possible fix.
func (d *Diagnostic) WithSuggestion(format string, args ...interface{}) *Diagnostic {
	d.Suggestions = append(d.Suggestions, fmt.Sprintf(format, args...))
	return d
}

// Error implements the error interface with plain formatting.
func (d *Diagnostic) Error() string {
	return d.Format(ErrorContextPlain)
}

// Format renders a context-appropriate message.
func (d *Diagnostic) Format(ctx ErrorContext) string {
	if ctx == ErrorContextTerminal {
		return d.formatTerminal()
	}
	return d.formatPlain()
}

func (d *Diagnostic) formatPlain() string {
	var b strings.Builder
	b.WriteString(string(d.Severity))
	if d.Range != nil {
		fmt.Fprintf(&b, " at %d:%d", d.Range.Start.Line, d.Range.Start.Character)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	if d.Token != "" {
		fmt.Fprintf(&b, " (token %q)", d.Token)
	}
	if len(d.Suggestions) > 0 {
		fmt.Fprintf(&b, ". Suggestions: %s", strings.Join(d.Suggestions, ", "))
	}
	return b.String()
}

func (d *Diagnostic) formatTerminal() string {
	var msg string
	switch d.Severity {
	case SeverityError:
		msg = pterm.Red(d.Message)
	case SeverityWarning:
		msg = pterm.Yellow(d.Message)
	case SeverityInfo:
		msg = pterm.Blue(d.Message)
	case SeverityHint:
		msg = pterm.LightCyan(d.Message)
	default:
		msg = d.Message
	}

	var b strings.Builder
	b.WriteString(msg)
	if d.Range != nil {
		fmt.Fprintf(&b, "\n  %s %d:%d", pterm.Yellow("Position:"), d.Range.Start.Line, d.Range.Start.Character)
	}
	if d.Token != "" {
		fmt.Fprintf(&b, "\n  %s %q", pterm.Yellow("Token:"), d.Token)
	}
	if len(d.Suggestions) > 0 {
		fmt.Fprintf(&b, "\n%s", pterm.Green("Suggestions:"))
		for _, s := range d.Suggestions {
			fmt.Fprintf(&b, "\n  • %s", s)
		}
	}
	return b.String()
}

// Diagnostics is an accumulated diagnostic list.
type Diagnostics []*Diagnostic

// HasErrors reports whether any diagnostic has error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Filter returns the diagnostics of one kind.
func (ds Diagnostics) Filter(kind DiagKind) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Messages returns plain-formatted messages, for logging and CLI JSON output.
func (ds Diagnostics) Messages() []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.formatPlain()
	}
	return out
}
