package prettyprinter

import (
	"strings"
	"testing"

	"github.com/funvibe/gradient/internal/diagnostics"
	"github.com/funvibe/gradient/internal/typesystem"
)

func TestPrintType(t *testing.T) {
	intClass := typesystem.NewClass("int", "builtins.int", 0, nil).CloneAsInstance()

	tests := []struct {
		name string
		typ  typesystem.Type
		want string
	}{
		{name: "nil", typ: nil, want: "Unknown"},
		{name: "class", typ: intClass, want: "int"},
		{name: "class object", typ: intClass.CloneAsInstantiable(), want: "type[int]"},
		{name: "literal", typ: intClass.CloneWithLiteral(3), want: "Literal[3]"},
		{name: "any", typ: typesystem.Any, want: "Any"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrintType(tt.typ); got != tt.want {
				t.Errorf("PrintType = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDiagnosticWithoutColor(t *testing.T) {
	SetColorEnabled(false)
	d := diagnostics.Diagnostic{Kind: diagnostics.AssignmentMismatch, Message: "str is not assignable to int"}
	got := FormatDiagnostic(d)
	want := "assignment-mismatch: str is not assignable to int"
	if got != want {
		t.Errorf("FormatDiagnostic = %q, want %q", got, want)
	}
}

func TestFormatDiag(t *testing.T) {
	SetColorEnabled(false)
	var d diagnostics.Diag
	d.Add(diagnostics.AssignmentMismatch, "first")
	d.Add(diagnostics.BoundViolation, "second")
	got := FormatDiag(&d)
	if !strings.Contains(got, "first") || !strings.Contains(got, "second") {
		t.Errorf("FormatDiag = %q, want both messages", got)
	}
	if len(strings.Split(got, "\n")) != 2 {
		t.Errorf("FormatDiag = %q, want one line per diagnostic", got)
	}
}
