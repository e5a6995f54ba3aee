// Package ignore holds the exclusion rules applied while collecting project files.
//
// A Set is a fixed collection of literal names compared for exact, case-sensitive
// equality against every directory and file name at every level of a project.
// Names such as "*.log" are literals: they only match an entry called "*.log".
package ignore

import (
	"path/filepath"
	"sort"
	"strings"
)

// DefaultNames lists the names excluded from every bundle.
var DefaultNames = []string{
	".git",
	".vscode",
	"node_modules",
	"dist",
	"build",
	"__pycache__",
	".DS_Store",
	"*.log",
	"*.pyc",
}

// Set is an immutable set of literal names. The zero value excludes nothing.
type Set struct {
	names map[string]struct{}
}

// NewSet builds a set from the provided names. Blank names are dropped.
func NewSet(names ...string) Set {
	set := Set{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		set.names[trimmed] = struct{}{}
	}
	return set
}

// DefaultSet returns DefaultNames plus the base name of destination,
// so a bundle written inside a selected project never includes itself.
func DefaultSet(destination string) Set {
	return NewSet(DefaultNames...).WithDestination(destination)
}

// With returns a new set holding the receiver's names and the extra names.
func (set Set) With(names ...string) Set {
	merged := make([]string, 0, len(set.names)+len(names))
	for name := range set.names {
		merged = append(merged, name)
	}
	return NewSet(append(merged, names...)...)
}

// WithDestination adds the base name of the bundle destination.
func (set Set) WithDestination(destination string) Set {
	if strings.TrimSpace(destination) == "" {
		return set.With()
	}
	return set.With(filepath.Base(destination))
}

// Contains reports whether name is excluded.
func (set Set) Contains(name string) bool {
	_, found := set.names[name]
	return found
}

// Len returns the number of names in the set.
func (set Set) Len() int {
	return len(set.names)
}

// Names returns the names in sorted order.
func (set Set) Names() []string {
	names := make([]string, 0, len(set.names))
	for name := range set.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
