package prettyprinter

import (
	"bytes"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/funvibe/gradient/internal/diagnostics"
	"github.com/funvibe/gradient/internal/typesystem"
)

// --- Type Printer (output looks like annotation source) ---

// colorEnabled is decided once at startup: colors only when stdout is a
// real terminal.
var colorEnabled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

// SetColorEnabled overrides terminal detection (used by tests and hosts
// that render into their own UI).
func SetColorEnabled(enabled bool) {
	colorEnabled = enabled
}

var (
	kindColor = color.New(color.FgYellow, color.Bold)
	typeColor = color.New(color.FgCyan)
)

// PrintType renders t the way it would appear in an annotation. It is the
// plain-text form used inside diagnostic messages.
func PrintType(t typesystem.Type) string {
	if t == nil {
		return "Unknown"
	}
	return t.String()
}

// FormatDiagnostic renders one diagnostic with an optionally colored kind
// label.
func FormatDiagnostic(d diagnostics.Diagnostic) string {
	var buf bytes.Buffer
	if colorEnabled {
		buf.WriteString(kindColor.Sprint(d.Kind.String()))
	} else {
		buf.WriteString(d.Kind.String())
	}
	buf.WriteString(": ")
	buf.WriteString(d.Message)
	return buf.String()
}

// FormatDiag renders a whole collector, one diagnostic per line.
func FormatDiag(d *diagnostics.Diag) string {
	var buf bytes.Buffer
	for i, e := range d.Entries() {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(FormatDiagnostic(e))
	}
	return buf.String()
}

// HighlightType wraps a rendered type in the type color when enabled.
// Diagnostic templates use it to make the offending types stand out.
func HighlightType(t typesystem.Type) string {
	s := PrintType(t)
	if colorEnabled {
		return typeColor.Sprint(s)
	}
	return s
}
