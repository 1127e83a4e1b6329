// Package diagnostics collects solver failures. Failures are ordinary
// results, not errors: every reporting site also returns false to its
// caller, and the collector is optional (a nil *Diag drops messages).
package diagnostics

import (
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	// AssignmentMismatch: src incompatible with dest's current bounds.
	AssignmentMismatch Kind = iota
	// BoundViolation: candidate violates the declared bound.
	BoundViolation
	// ConstrainedMismatch: no compatible value constraint, or two
	// unconditional subtypes picked different constraints.
	ConstrainedMismatch
	// ParamSpecMismatch: ParamSpec target incompatible.
	ParamSpecMismatch
	ProtocolMemberMissing
	ProtocolMemberTypeMismatch
	ProtocolMemberInvariance
	ProtocolMemberFinalIn
	ProtocolMemberFinalNotIn
	ProtocolMemberClassVarMismatch
	ProtocolMemberWritability
	// Cancelled: the cancellation poll fired; propagated by early unwind
	// without a user-visible message.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case AssignmentMismatch:
		return "assignment-mismatch"
	case BoundViolation:
		return "bound-violation"
	case ConstrainedMismatch:
		return "constrained-mismatch"
	case ParamSpecMismatch:
		return "paramspec-mismatch"
	case ProtocolMemberMissing:
		return "protocol-member-missing"
	case ProtocolMemberTypeMismatch:
		return "protocol-member-type-mismatch"
	case ProtocolMemberInvariance:
		return "protocol-member-invariance"
	case ProtocolMemberFinalIn:
		return "protocol-member-final-in"
	case ProtocolMemberFinalNotIn:
		return "protocol-member-final-not-in"
	case ProtocolMemberClassVarMismatch:
		return "protocol-member-classvar-mismatch"
	case ProtocolMemberWritability:
		return "protocol-member-writability"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Diagnostic is one recorded failure.
type Diagnostic struct {
	Kind    Kind
	Message string
}

func (d Diagnostic) String() string {
	return d.Kind.String() + ": " + d.Message
}

// Diag accumulates diagnostics. The zero value is ready to use; a nil
// receiver is a valid sink that discards everything.
type Diag struct {
	entries []Diagnostic
}

// Addf records a formatted diagnostic.
func (d *Diag) Addf(kind Kind, format string, args ...any) {
	if d == nil {
		return
	}
	d.entries = append(d.entries, Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Add records a pre-formatted diagnostic.
func (d *Diag) Add(kind Kind, message string) {
	if d == nil {
		return
	}
	d.entries = append(d.entries, Diagnostic{Kind: kind, Message: message})
}

// Len returns the number of recorded diagnostics.
func (d *Diag) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Entries returns the recorded diagnostics in order.
func (d *Diag) Entries() []Diagnostic {
	if d == nil {
		return nil
	}
	return d.entries
}

// HasKind reports whether any diagnostic of the given kind was recorded.
func (d *Diag) HasKind(kind Kind) bool {
	if d == nil {
		return false
	}
	for _, e := range d.entries {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// String joins all messages, one per line.
func (d *Diag) String() string {
	if d == nil {
		return ""
	}
	parts := make([]string, len(d.entries))
	for i, e := range d.entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, "\n")
}
