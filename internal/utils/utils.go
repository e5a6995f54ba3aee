// Package utils contains general helper functions used across the bundle tool.
package utils

import (
	"path/filepath"
	"strings"
)

// Configuration file constants used across the project.
const (
	// ConfigFileName is the name of the configuration file looked up in the working directory.
	ConfigFileName = ".bundle.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home holding the global configuration.
	GlobalConfigDirectoryName = ".bundle"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
	// BundleFileSuffix is appended to the first project's name to suggest a destination.
	BundleFileSuffix = "_bundle.txt"
)

const pathSegmentSeparator = "/"

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept. Blank entries are dropped.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		if _, exists := encounteredPatterns[trimmedPattern]; !exists {
			encounteredPatterns[trimmedPattern] = struct{}{}
			result = append(result, trimmedPattern)
		}
	}
	return result
}

// RelativePathOrSelf calculates the relative path from root to fullPath using forward slashes.
// Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)

	if cleanPath == cleanAbsoluteRoot {
		return "."
	}

	relativePath, relErr := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relErr != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}

// SplitRelativePath splits a slash-separated relative path into its segments,
// dropping empty and "." segments. Backslashes are part of a name, not separators.
func SplitRelativePath(relativePath string) []string {
	rawSegments := strings.Split(relativePath, pathSegmentSeparator)
	segments := make([]string, 0, len(rawSegments))
	for _, segment := range rawSegments {
		if segment == "" || segment == "." {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}
