// Options loading for the gradient solver.
//
// A host program may ship a gradient.yaml next to its own configuration to
// raise or lower the solver limits. Loading is always caller-initiated; the
// solver itself never reads the disk.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options represents the tunable solver limits. Zero values mean
// "keep the default".
type Options struct {
	// MaxUnionSubtypes overrides MaxSubtypesForInferredType.
	MaxUnionSubtypes int `yaml:"maxUnionSubtypes,omitempty"`

	// MaxConstraintSets overrides the parallel constraint-set cap.
	MaxConstraintSets int `yaml:"maxConstraintSets,omitempty"`

	// MaxTypeRecursion overrides MaxTypeRecursionCount.
	MaxTypeRecursion int `yaml:"maxTypeRecursion,omitempty"`

	// MaxProtocolCacheEntries overrides the protocol compatibility
	// cache size per destination class.
	MaxProtocolCacheEntries int `yaml:"maxProtocolCacheEntries,omitempty"`
}

// OptionsError indicates an invalid options file.
type OptionsError struct {
	Path   string
	Reason string
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("invalid options file %s: %s", e.Path, e.Reason)
}

// LoadOptions reads and validates a gradient.yaml file.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading options file: %w", err)
	}

	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, &OptionsError{Path: path, Reason: err.Error()}
	}

	if err := opts.Validate(); err != nil {
		return nil, &OptionsError{Path: path, Reason: err.Error()}
	}
	return &opts, nil
}

// Validate rejects negative limits. Zero is allowed (means default).
func (o *Options) Validate() error {
	if o.MaxUnionSubtypes < 0 {
		return fmt.Errorf("maxUnionSubtypes must not be negative, got %d", o.MaxUnionSubtypes)
	}
	if o.MaxConstraintSets < 0 {
		return fmt.Errorf("maxConstraintSets must not be negative, got %d", o.MaxConstraintSets)
	}
	if o.MaxTypeRecursion < 0 {
		return fmt.Errorf("maxTypeRecursion must not be negative, got %d", o.MaxTypeRecursion)
	}
	if o.MaxProtocolCacheEntries < 0 {
		return fmt.Errorf("maxProtocolCacheEntries must not be negative, got %d", o.MaxProtocolCacheEntries)
	}
	return nil
}

// Apply installs the non-zero overrides into the package limits.
func (o *Options) Apply() {
	if o.MaxUnionSubtypes > 0 {
		MaxSubtypesForInferredType = o.MaxUnionSubtypes
	}
	if o.MaxConstraintSets > 0 {
		MaxConstraintSets = o.MaxConstraintSets
	}
	if o.MaxTypeRecursion > 0 {
		MaxTypeRecursionCount = o.MaxTypeRecursion
	}
	if o.MaxProtocolCacheEntries > 0 {
		MaxProtocolCompatibilityCacheEntries = o.MaxProtocolCacheEntries
	}
}
