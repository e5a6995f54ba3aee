package commands

import (
	"github.com/temirov/bundle/internal/types"
	"github.com/temirov/bundle/internal/utils"
)

// BuildTree folds slash-separated relative file paths into a directory hierarchy.
// Every intermediate segment becomes a directory node and every terminal
// segment a file node. The result does not depend on the order of paths.
// A name needed both as a file and as a directory resolves to a directory.
func BuildTree(relativePaths []string) *types.TreeNode {
	rootNode := types.NewDirectoryNode("")
	for _, relativePath := range relativePaths {
		insertPath(rootNode, utils.SplitRelativePath(relativePath))
	}
	return rootNode
}

func insertPath(rootNode *types.TreeNode, segments []string) {
	if len(segments) == 0 {
		return
	}
	currentNode := rootNode
	lastIndex := len(segments) - 1
	for _, segment := range segments[:lastIndex] {
		child, exists := currentNode.Children[segment]
		if !exists {
			child = types.NewDirectoryNode(segment)
			currentNode.Children[segment] = child
		} else if !child.IsDirectory() {
			child.Kind = types.NodeKindDirectory
			child.Children = map[string]*types.TreeNode{}
		}
		currentNode = child
	}
	terminal := segments[lastIndex]
	if _, exists := currentNode.Children[terminal]; !exists {
		currentNode.Children[terminal] = types.NewFileNode(terminal)
	}
}
