package ignore

import (
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Matcher decides whether a root-relative path, split into segments, is excluded.
type Matcher interface {
	Match(segments []string, isDirectory bool) bool
}

// LoadGitignore reads every .gitignore below rootPath (and the repository
// excludes file, when present) into a matcher. Matching follows git semantics,
// including negation and nested ignore files.
func LoadGitignore(rootPath string) (Matcher, error) {
	filesystem := osfs.New(rootPath)
	patterns, readError := gitignore.ReadPatterns(filesystem, nil)
	if readError != nil {
		return nil, fmt.Errorf("read gitignore patterns in %s: %w", rootPath, readError)
	}
	return gitignore.NewMatcher(patterns), nil
}
