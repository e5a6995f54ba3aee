// Package types defines every cross‑package data structure used by the bundle CLI.
package types

import "path/filepath"

// NodeKind tags a TreeNode as a directory or a file.
type NodeKind int

const (
	NodeKindDirectory NodeKind = iota
	NodeKindFile
)

// ValidatedPath is an absolute input path that already passed existence checks.
type ValidatedPath struct {
	AbsolutePath string
	IsDir        bool
}

// ProjectSelection is the ordered, duplicate-free list of project roots to bundle.
type ProjectSelection []string

// FileEntry describes one included file of a project.
type FileEntry struct {
	ProjectRoot  string
	AbsolutePath string
	// RelativePath always uses "/" regardless of platform.
	RelativePath string
}

// ProjectFiles is the scan result of a single project.
type ProjectFiles struct {
	Root          string
	Name          string
	RelativePaths []string
}

// NewProjectFiles names the project after the base name of its root.
func NewProjectFiles(root string, relativePaths []string) ProjectFiles {
	return ProjectFiles{
		Root:          root,
		Name:          filepath.Base(root),
		RelativePaths: relativePaths,
	}
}

// Entries expands the relative paths into file entries in the same order.
func (project ProjectFiles) Entries() []FileEntry {
	entries := make([]FileEntry, 0, len(project.RelativePaths))
	for _, relativePath := range project.RelativePaths {
		entries = append(entries, FileEntry{
			ProjectRoot:  project.Root,
			AbsolutePath: filepath.Join(project.Root, filepath.FromSlash(relativePath)),
			RelativePath: relativePath,
		})
	}
	return entries
}

// TreeNode is a node of the directory hierarchy reconstructed from relative file paths.
// Only directory nodes carry children.
type TreeNode struct {
	Name     string
	Kind     NodeKind
	Children map[string]*TreeNode
}

// NewDirectoryNode returns an empty directory node.
func NewDirectoryNode(name string) *TreeNode {
	return &TreeNode{Name: name, Kind: NodeKindDirectory, Children: map[string]*TreeNode{}}
}

// NewFileNode returns a file node.
func NewFileNode(name string) *TreeNode {
	return &TreeNode{Name: name, Kind: NodeKindFile}
}

// IsDirectory reports whether the node is a directory.
func (node *TreeNode) IsDirectory() bool {
	return node != nil && node.Kind == NodeKindDirectory
}

// RunState is the lifecycle state of one bundling run.
type RunState string

const (
	RunStateIdle     RunState = "idle"
	RunStateScanning RunState = "scanning"
	RunStateWriting  RunState = "writing"
	RunStateDone     RunState = "done"
	RunStateFailed   RunState = "failed"
)

// BundleSummary captures aggregate information about a written bundle.
type BundleSummary struct {
	Projects        int    `json:"projects"`
	Files           int    `json:"files"`
	UnreadableFiles int    `json:"unreadableFiles"`
	Bytes           int64  `json:"bytes"`
	Tokens          int    `json:"tokens,omitempty"`
	Model           string `json:"model,omitempty"`
}
