package symbols

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSymbolTableInsertionOrder(t *testing.T) {
	table := NewSymbolTable()
	for _, name := range []string{"b", "a", "c"} {
		table.Set(&Symbol{Name: name})
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, table.Names()); diff != "" {
		t.Errorf("iteration order mismatch (-want +got):\n%s", diff)
	}

	// Replacement keeps the original position.
	table.Set(&Symbol{Name: "a", Flags: Final})
	if diff := cmp.Diff([]string{"b", "a", "c"}, table.Names()); diff != "" {
		t.Errorf("order changed by replacement (-want +got):\n%s", diff)
	}
	if !table.Get("a").IsFinal() {
		t.Errorf("replacement did not take effect")
	}
}

func TestSymbolTableNilSafety(t *testing.T) {
	var table *SymbolTable
	if table.Get("x") != nil || table.Has("x") || table.Len() != 0 {
		t.Errorf("nil table misbehaves")
	}
	table.ForEach(func(*Symbol) { t.Errorf("nil table visited a symbol") })
}

func TestSymbolFlags(t *testing.T) {
	sym := &Symbol{Name: "x", Flags: ClassVar | ReadOnly}
	if !sym.IsClassVar() || !sym.IsReadOnly() {
		t.Errorf("flag accessors wrong for %v", sym.Flags)
	}
	if sym.IsFinal() || sym.IsIgnored() || sym.IsInstanceMember() {
		t.Errorf("unset flags reported")
	}
}

func TestSymbolTableClone(t *testing.T) {
	table := NewSymbolTable()
	table.Set(&Symbol{Name: "x"})
	clone := table.Clone()
	clone.Set(&Symbol{Name: "y"})
	if table.Has("y") {
		t.Errorf("clone shares storage with the original")
	}
}
