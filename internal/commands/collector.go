// Package commands contains the core logic for collecting project files and
// reconstructing their directory hierarchy.
package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/temirov/bundle/internal/ignore"
	"github.com/temirov/bundle/internal/utils"
)

const (
	// warningSkipEntryFormat is used when an entry below the root cannot be listed or inspected.
	warningSkipEntryFormat = "skipping %s: %v"

	// errorAbsolutePathFormat is used when the absolute path cannot be determined.
	errorAbsolutePathFormat = "getting absolute path for %s: %w"
	// errorStatRootFormat is used when the project root cannot be inspected.
	errorStatRootFormat = "inspecting project root %s: %w"
	// errorWalkRootFormat is used when the walk over the project root fails.
	errorWalkRootFormat = "walking project root %s: %w"
)

// ErrRootNotDirectory is returned when a project root is not a directory.
var ErrRootNotDirectory = errors.New("project root is not a directory")

// CollectOptions configures one project scan.
type CollectOptions struct {
	Ignore ignore.Set
	// Gitignore, when set, excludes the paths it matches in addition to Ignore.
	Gitignore ignore.Matcher
	// Warn receives entries skipped because they could not be read.
	Warn func(message string)
}

// CollectProject walks rootDirectoryPath top-down and returns the sorted,
// slash-separated paths of every included file relative to the root.
// Ignored directories are pruned before they are entered. Listing failures
// below the root are reported through Warn and skipped; a root that cannot be
// inspected is an error.
func CollectProject(rootDirectoryPath string, options CollectOptions) ([]string, error) {
	absoluteRootPath, absolutePathError := filepath.Abs(rootDirectoryPath)
	if absolutePathError != nil {
		return nil, fmt.Errorf(errorAbsolutePathFormat, rootDirectoryPath, absolutePathError)
	}
	rootInfo, rootStatError := os.Stat(absoluteRootPath)
	if rootStatError != nil {
		return nil, fmt.Errorf(errorStatRootFormat, absoluteRootPath, rootStatError)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf(errorStatRootFormat, absoluteRootPath, ErrRootNotDirectory)
	}

	// WalkDir does not follow a symlinked root.
	if resolvedRootPath, resolveError := filepath.EvalSymlinks(absoluteRootPath); resolveError == nil {
		absoluteRootPath = resolvedRootPath
	}

	warn := options.Warn
	if warn == nil {
		warn = func(string) {}
	}

	var relativePaths []string
	walkFunction := func(currentPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if currentPath == absoluteRootPath {
				return walkError
			}
			warn(fmt.Sprintf(warningSkipEntryFormat, currentPath, walkError))
			if directoryEntry != nil && directoryEntry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if currentPath == absoluteRootPath {
			return nil
		}

		entryName := directoryEntry.Name()
		relativePath := utils.RelativePathOrSelf(currentPath, absoluteRootPath)
		isDirectory := directoryEntry.IsDir()

		if options.Ignore.Contains(entryName) || matchesGitignore(options.Gitignore, relativePath, isDirectory) {
			if isDirectory {
				return filepath.SkipDir
			}
			return nil
		}
		if isDirectory || !isCollectableFile(currentPath, directoryEntry) {
			return nil
		}
		relativePaths = append(relativePaths, relativePath)
		return nil
	}

	if walkError := filepath.WalkDir(absoluteRootPath, walkFunction); walkError != nil {
		return nil, fmt.Errorf(errorWalkRootFormat, absoluteRootPath, walkError)
	}

	sort.Strings(relativePaths)
	return relativePaths, nil
}

// isCollectableFile accepts regular files and symlinks that resolve to one.
// Symlinks to directories are neither listed nor followed. A dangling link is
// kept so its read failure shows up in the bundle.
func isCollectableFile(entryPath string, directoryEntry fs.DirEntry) bool {
	entryType := directoryEntry.Type()
	if entryType.IsRegular() {
		return true
	}
	if entryType&fs.ModeSymlink == 0 {
		return false
	}
	targetInfo, statError := os.Stat(entryPath)
	if statError != nil {
		return true
	}
	return targetInfo.Mode().IsRegular()
}

func matchesGitignore(matcher ignore.Matcher, relativePath string, isDirectory bool) bool {
	if matcher == nil {
		return false
	}
	return matcher.Match(utils.SplitRelativePath(relativePath), isDirectory)
}
