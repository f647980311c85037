// Package filtering applies configured include/exclude rules to the add-on
// catalog before it reaches the reconciliation engine.
package filtering

import (
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"
)

// NameFilter handles add-on ID filtering using glob patterns
type NameFilter interface {
	// ShouldInclude determines if an add-on ID should be included based on
	// include/exclude patterns. Returns (shouldInclude bool, reason string)
	ShouldInclude(addonID string, include, exclude []string) (bool, string)
}

// defaultNameFilter implements ID filtering using glob patterns
type defaultNameFilter struct{}

var _ NameFilter = (*defaultNameFilter)(nil)

// NewDefaultNameFilter creates a new defaultNameFilter
func NewDefaultNameFilter() NameFilter {
	return &defaultNameFilter{}
}

// matchPattern matches a glob pattern against an add-on ID. Uses
// gobwas/glob so that * also matches across dots in reverse-DNS style IDs.
func matchPattern(pattern, addonID string) (bool, error) {
	// filepath.Match is only used to validate the pattern syntax
	_, err := filepath.Match(pattern, "probe")
	if err != nil {
		return false, err
	}

	compiled, err := glob.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid glob pattern: %v", err)
	}

	return compiled.Match(addonID), nil
}

// ShouldInclude determines if an add-on ID should be included.
//
// Logic:
// 1. If the ID matches any exclude pattern -> exclude (exclude takes precedence)
// 2. If include patterns are specified and the ID matches one -> include
// 3. If include patterns are specified and the ID matches none -> exclude
// 4. If only exclude patterns are specified and none matched -> include
// 5. If no patterns are specified -> include (default behavior)
func (*defaultNameFilter) ShouldInclude(addonID string, include, exclude []string) (bool, string) {
	// Check exclude patterns first (exclude takes precedence)
	for _, pattern := range exclude {
		matches, err := matchPattern(pattern, addonID)
		if err != nil {
			return false, fmt.Sprintf("invalid exclude pattern '%s': %v", pattern, err)
		}
		if matches {
			return false, fmt.Sprintf("excluded by pattern '%s'", pattern)
		}
	}

	// If include patterns are specified, the ID must match at least one
	if len(include) > 0 {
		for _, pattern := range include {
			matches, err := matchPattern(pattern, addonID)
			if err != nil {
				return false, fmt.Sprintf("invalid include pattern '%s': %v", pattern, err)
			}
			if matches {
				return true, fmt.Sprintf("included by pattern '%s'", pattern)
			}
		}
		return false, fmt.Sprintf("no match found in include patterns %v", include)
	}

	if len(exclude) > 0 {
		return true, fmt.Sprintf("no match in exclude patterns %v", exclude)
	}
	return true, "no name filters specified"
}
