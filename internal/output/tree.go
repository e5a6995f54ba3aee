package output

import (
	"sort"
	"strings"

	"github.com/temirov/bundle/internal/types"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "
)

// RenderTree returns the connector-drawn lines for the children of node.
// Directories come before files; each group is ordered by name ignoring case.
// The output depends only on the structure of node.
func RenderTree(node *types.TreeNode, prefix string) []string {
	if !node.IsDirectory() || len(node.Children) == 0 {
		return nil
	}
	children := sortedChildren(node)
	var lines []string
	for index, child := range children {
		isLastChild := index == len(children)-1
		connector := treeBranchConnector
		childPrefix := prefix + treeBranchPadding
		if isLastChild {
			connector = treeLastConnector
			childPrefix = prefix + treeLastPadding
		}
		lines = append(lines, prefix+connector+child.Name)
		if child.IsDirectory() {
			lines = append(lines, RenderTree(child, childPrefix)...)
		}
	}
	return lines
}

func sortedChildren(node *types.TreeNode) []*types.TreeNode {
	children := make([]*types.TreeNode, 0, len(node.Children))
	for _, child := range node.Children {
		children = append(children, child)
	}
	sort.Slice(children, func(left, right int) bool {
		leftIsDirectory := children[left].IsDirectory()
		rightIsDirectory := children[right].IsDirectory()
		if leftIsDirectory != rightIsDirectory {
			return leftIsDirectory
		}
		leftName := strings.ToLower(children[left].Name)
		rightName := strings.ToLower(children[right].Name)
		if leftName != rightName {
			return leftName < rightName
		}
		// names equal ignoring case still need a stable order
		return children[left].Name < children[right].Name
	})
	return children
}
