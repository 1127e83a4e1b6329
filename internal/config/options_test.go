package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeOptionsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gradient.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing options file: %v", err)
	}
	return path
}

func TestLoadOptions(t *testing.T) {
	path := writeOptionsFile(t, "maxUnionSubtypes: 128\nmaxTypeRecursion: 32\n")
	opts, err := LoadOptions(path)
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if opts.MaxUnionSubtypes != 128 {
		t.Errorf("MaxUnionSubtypes = %d, want 128", opts.MaxUnionSubtypes)
	}
	if opts.MaxTypeRecursion != 32 {
		t.Errorf("MaxTypeRecursion = %d, want 32", opts.MaxTypeRecursion)
	}
	if opts.MaxConstraintSets != 0 {
		t.Errorf("MaxConstraintSets = %d, want 0 (default)", opts.MaxConstraintSets)
	}
}

func TestLoadOptionsRejectsNegative(t *testing.T) {
	path := writeOptionsFile(t, "maxUnionSubtypes: -1\n")
	if _, err := LoadOptions(path); err == nil {
		t.Fatalf("negative limit accepted")
	}
}

func TestLoadOptionsRejectsGarbage(t *testing.T) {
	path := writeOptionsFile(t, "maxUnionSubtypes: [not, a, number]\n")
	if _, err := LoadOptions(path); err == nil {
		t.Fatalf("malformed yaml accepted")
	}
}

func TestOptionsApply(t *testing.T) {
	oldSubtypes := MaxSubtypesForInferredType
	oldRecursion := MaxTypeRecursionCount
	defer func() {
		MaxSubtypesForInferredType = oldSubtypes
		MaxTypeRecursionCount = oldRecursion
	}()

	opts := &Options{MaxUnionSubtypes: 16}
	opts.Apply()
	if MaxSubtypesForInferredType != 16 {
		t.Errorf("MaxSubtypesForInferredType = %d, want 16", MaxSubtypesForInferredType)
	}
	if MaxTypeRecursionCount != oldRecursion {
		t.Errorf("zero-valued option modified MaxTypeRecursionCount")
	}
}
