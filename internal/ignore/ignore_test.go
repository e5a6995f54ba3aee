package ignore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/temirov/bundle/internal/ignore"
)

func TestDefaultSetContainsDestinationBaseName(t *testing.T) {
	set := ignore.DefaultSet(filepath.Join("some", "where", "project_bundle.txt"))

	testCases := []struct {
		name     string
		entry    string
		expected bool
	}{
		{name: "git directory", entry: ".git", expected: true},
		{name: "node modules", entry: "node_modules", expected: true},
		{name: "destination base name", entry: "project_bundle.txt", expected: true},
		{name: "literal glob name", entry: "*.log", expected: true},
		{name: "glob is not expanded", entry: "debug.log", expected: false},
		{name: "case sensitive", entry: "Build", expected: false},
		{name: "ordinary file", entry: "main.go", expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if actual := set.Contains(testCase.entry); actual != testCase.expected {
				t.Fatalf("Contains(%q) = %t, expected %t", testCase.entry, actual, testCase.expected)
			}
		})
	}
}

func TestSetWithDoesNotModifyReceiver(t *testing.T) {
	base := ignore.NewSet("a")
	extended := base.With("b", " ", "")

	if base.Contains("b") {
		t.Fatalf("receiver was modified by With")
	}
	if !extended.Contains("a") || !extended.Contains("b") {
		t.Fatalf("extended set is missing names: %v", extended.Names())
	}
	if extended.Len() != 2 {
		t.Fatalf("expected blank names to be dropped, got %v", extended.Names())
	}
}

func TestZeroSetExcludesNothing(t *testing.T) {
	var set ignore.Set
	if set.Contains(".git") {
		t.Fatalf("zero set should not contain anything")
	}
	if len(set.Names()) != 0 {
		t.Fatalf("zero set should have no names")
	}
}

func TestWithDestinationIgnoresBlank(t *testing.T) {
	set := ignore.NewSet("a").WithDestination("  ")
	if set.Len() != 1 {
		t.Fatalf("expected a single name, got %v", set.Names())
	}
}

func TestLoadGitignoreMatchesPatterns(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.tmp\ngenerated/\n"), 0o600); err != nil {
		t.Fatalf("write .gitignore: %v", err)
	}

	matcher, err := ignore.LoadGitignore(root)
	if err != nil {
		t.Fatalf("LoadGitignore: %v", err)
	}

	if !matcher.Match([]string{"scratch.tmp"}, false) {
		t.Fatalf("expected *.tmp to match")
	}
	if !matcher.Match([]string{"generated"}, true) {
		t.Fatalf("expected generated/ to match directory")
	}
	if matcher.Match([]string{"main.go"}, false) {
		t.Fatalf("main.go should not match")
	}
}
